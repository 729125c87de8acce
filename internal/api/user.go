package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/foodshare/backend/internal/middleware"
	"github.com/foodshare/backend/internal/service"
)

type UserHandler struct {
	users       *service.UserService
	authService *service.AuthService
}

func NewUserHandler(users *service.UserService, authService *service.AuthService) *UserHandler {
	return &UserHandler{
		users:       users,
		authService: authService,
	}
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	users := router.Group("/users")
	{
		users.POST("", h.Register)
		users.GET("", middleware.OptionalAuthMiddleware(h.authService), h.ListUsers)
		users.GET("/me", middleware.AuthMiddleware(h.authService), h.Me)
		users.GET("/subscriptions", middleware.AuthMiddleware(h.authService), h.Subscriptions)
		users.GET("/:id", middleware.OptionalAuthMiddleware(h.authService), h.GetUser)
		users.POST("/:id/subscribe", middleware.AuthMiddleware(h.authService), h.Subscribe)
		users.DELETE("/:id/subscribe", middleware.AuthMiddleware(h.authService), h.Unsubscribe)
	}
}

func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.authService.Register(req.Email, req.Username, req.FirstName, req.LastName, req.Password)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, userResponse(*user, false))
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	page, limit := parsePage(c)
	users, total, err := h.users.List(c.Request.Context(), page, limit)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	viewer := middleware.ViewerID(c)
	ids := make([]uuid.UUID, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	subscribed, err := h.users.SubscribedSet(c.Request.Context(), viewer, ids)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	results := make([]UserResponse, 0, len(users))
	for _, u := range users {
		results = append(results, userResponse(u, subscribed[u.ID]))
	}
	c.JSON(http.StatusOK, PageResponse{Count: total, Results: results})
}

func (h *UserHandler) Me(c *gin.Context) {
	viewer := middleware.ViewerID(c)
	user, err := h.users.Get(c.Request.Context(), *viewer)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, userResponse(*user, false))
}

func (h *UserHandler) GetUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	user, err := h.users.Get(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	viewer := middleware.ViewerID(c)
	subscribed, err := h.users.SubscribedSet(c.Request.Context(), viewer, []uuid.UUID{id})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, userResponse(*user, subscribed[id]))
}

func recipesLimit(c *gin.Context) int {
	limit, _ := strconv.Atoi(c.Query("recipes_limit"))
	return limit
}

func (h *UserHandler) Subscriptions(c *gin.Context) {
	viewer := middleware.ViewerID(c)
	page, limit := parsePage(c)

	rows, total, err := h.users.Subscriptions(c.Request.Context(), *viewer, page, limit, recipesLimit(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	results := make([]SubscriptionResponse, 0, len(rows))
	for _, row := range rows {
		// Every listed author is by definition subscribed to.
		results = append(results, subscriptionResponse(row, true))
	}
	c.JSON(http.StatusOK, PageResponse{Count: total, Results: results})
}

func (h *UserHandler) Subscribe(c *gin.Context) {
	authorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	viewer := middleware.ViewerID(c)
	if err := h.users.Subscribe(c.Request.Context(), *viewer, authorID); err != nil {
		handleServiceError(c, err)
		return
	}

	row, err := h.users.AuthorWithRecipes(c.Request.Context(), authorID, recipesLimit(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, subscriptionResponse(*row, true))
}

func (h *UserHandler) Unsubscribe(c *gin.Context) {
	authorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	viewer := middleware.ViewerID(c)
	if err := h.users.Unsubscribe(c.Request.Context(), *viewer, authorID); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
