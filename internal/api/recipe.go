package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/foodshare/backend/internal/middleware"
	"github.com/foodshare/backend/internal/models"
	"github.com/foodshare/backend/internal/service"
)

type RecipeHandler struct {
	recipes      *service.RecipeService
	users        *service.UserService
	authService  middleware.TokenValidator
	writeLimiter *middleware.RateLimiter
}

func NewRecipeHandler(recipes *service.RecipeService, users *service.UserService, authService middleware.TokenValidator, writeLimiter *middleware.RateLimiter) *RecipeHandler {
	return &RecipeHandler{
		recipes:      recipes,
		users:        users,
		authService:  authService,
		writeLimiter: writeLimiter,
	}
}

// writeChain is the middleware stack for mutating routes: required auth
// plus the redis write limiter when one is configured.
func (h *RecipeHandler) writeChain(handler gin.HandlerFunc) []gin.HandlerFunc {
	chain := []gin.HandlerFunc{middleware.AuthMiddleware(h.authService)}
	if h.writeLimiter != nil {
		chain = append(chain, h.writeLimiter.Middleware())
	}
	return append(chain, handler)
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	recipes := router.Group("/recipes")
	{
		recipes.GET("", middleware.OptionalAuthMiddleware(h.authService), h.ListRecipes)
		recipes.GET("/download_shopping_cart", middleware.AuthMiddleware(h.authService), h.DownloadShoppingCart)
		recipes.GET("/:id", middleware.OptionalAuthMiddleware(h.authService), h.GetRecipe)
		recipes.POST("", h.writeChain(h.CreateRecipe)...)
		recipes.PATCH("/:id", h.writeChain(h.UpdateRecipe)...)
		recipes.DELETE("/:id", h.writeChain(h.DeleteRecipe)...)
		recipes.POST("/:id/favorite", middleware.AuthMiddleware(h.authService), h.FavoriteRecipe)
		recipes.DELETE("/:id/favorite", middleware.AuthMiddleware(h.authService), h.UnfavoriteRecipe)
		recipes.POST("/:id/shopping_cart", middleware.AuthMiddleware(h.authService), h.AddToCart)
		recipes.DELETE("/:id/shopping_cart", middleware.AuthMiddleware(h.authService), h.RemoveFromCart)
	}
}

// buildRecipeResponses assembles read payloads, resolving the viewer-scoped
// flags in two batch lookups instead of per recipe.
func (h *RecipeHandler) buildRecipeResponses(c *gin.Context, recipes []models.Recipe) ([]RecipeResponse, error) {
	viewer := middleware.ViewerID(c)
	ctx := c.Request.Context()

	recipeIDs := make([]uuid.UUID, 0, len(recipes))
	authorIDs := make([]uuid.UUID, 0, len(recipes))
	for _, r := range recipes {
		recipeIDs = append(recipeIDs, r.ID)
		authorIDs = append(authorIDs, r.AuthorID)
	}

	favorited, inCart, err := h.recipes.RelationFlags(ctx, viewer, recipeIDs)
	if err != nil {
		return nil, err
	}
	subscribed, err := h.users.SubscribedSet(ctx, viewer, authorIDs)
	if err != nil {
		return nil, err
	}

	out := make([]RecipeResponse, 0, len(recipes))
	for _, r := range recipes {
		out = append(out, recipeResponse(r, favorited[r.ID], inCart[r.ID], subscribed[r.AuthorID]))
	}
	return out, nil
}

func parsePage(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	return page, limit
}

func boolParam(c *gin.Context, name string) bool {
	v := c.Query(name)
	return v == "1" || v == "true"
}

func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	filter := service.RecipeFilter{
		TagSlugs:      c.QueryArray("tags"),
		FavoritedOnly: boolParam(c, "is_favorited"),
		InCartOnly:    boolParam(c, "is_in_shopping_cart"),
	}
	filter.Page, filter.Limit = parsePage(c)

	if author := c.Query("author"); author != "" {
		authorID, err := uuid.Parse(author)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid author id"})
			return
		}
		filter.AuthorID = &authorID
	}

	recipes, total, err := h.recipes.List(c.Request.Context(), filter, middleware.ViewerID(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	results, err := h.buildRecipeResponses(c, recipes)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, PageResponse{Count: total, Results: results})
}

func recipeID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "recipe not found"})
		return uuid.Nil, false
	}
	return id, true
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, ok := recipeID(c)
	if !ok {
		return
	}

	recipe, err := h.recipes.Get(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	results, err := h.buildRecipeResponses(c, []models.Recipe{*recipe})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, results[0])
}

func recipeInput(req RecipeRequest) service.RecipeInput {
	ingredients := make([]service.IngredientAmount, 0, len(req.Ingredients))
	for _, i := range req.Ingredients {
		ingredients = append(ingredients, service.IngredientAmount{ID: i.ID, Amount: i.Amount})
	}
	return service.RecipeInput{
		Name:        req.Name,
		Text:        req.Text,
		Image:       req.Image,
		CookingTime: req.CookingTime,
		TagIDs:      req.Tags,
		Ingredients: ingredients,
	}
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	var req RecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	viewer := middleware.ViewerID(c)
	recipe, err := h.recipes.Create(c.Request.Context(), *viewer, recipeInput(req))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	results, err := h.buildRecipeResponses(c, []models.Recipe{*recipe})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, results[0])
}

func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	id, ok := recipeID(c)
	if !ok {
		return
	}

	var req RecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	viewer := middleware.ViewerID(c)
	recipe, err := h.recipes.Update(c.Request.Context(), id, *viewer, recipeInput(req))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	results, err := h.buildRecipeResponses(c, []models.Recipe{*recipe})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, results[0])
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	id, ok := recipeID(c)
	if !ok {
		return
	}

	viewer := middleware.ViewerID(c)
	if err := h.recipes.Delete(c.Request.Context(), id, *viewer); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) FavoriteRecipe(c *gin.Context) {
	id, ok := recipeID(c)
	if !ok {
		return
	}

	viewer := middleware.ViewerID(c)
	recipe, err := h.recipes.Favorite(c.Request.Context(), *viewer, id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, shortRecipeResponse(*recipe))
}

func (h *RecipeHandler) UnfavoriteRecipe(c *gin.Context) {
	id, ok := recipeID(c)
	if !ok {
		return
	}

	viewer := middleware.ViewerID(c)
	if err := h.recipes.Unfavorite(c.Request.Context(), *viewer, id); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) AddToCart(c *gin.Context) {
	id, ok := recipeID(c)
	if !ok {
		return
	}

	viewer := middleware.ViewerID(c)
	recipe, err := h.recipes.AddToCart(c.Request.Context(), *viewer, id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, shortRecipeResponse(*recipe))
}

func (h *RecipeHandler) RemoveFromCart(c *gin.Context) {
	id, ok := recipeID(c)
	if !ok {
		return
	}

	viewer := middleware.ViewerID(c)
	if err := h.recipes.RemoveFromCart(c.Request.Context(), *viewer, id); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DownloadShoppingCart renders the aggregated shopping list as a plain-text
// attachment. An empty cart downloads an empty file.
func (h *RecipeHandler) DownloadShoppingCart(c *gin.Context) {
	viewer := middleware.ViewerID(c)
	items, err := h.recipes.ShoppingList(c.Request.Context(), *viewer)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename=shopping_list.txt`)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(service.FormatShoppingList(items)))
}
