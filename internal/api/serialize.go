package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/foodshare/backend/internal/models"
	"github.com/foodshare/backend/internal/service"
)

func tagResponse(t models.Tag) TagResponse {
	return TagResponse{
		ID:    t.ID,
		Name:  t.Name,
		Color: t.Color,
		Slug:  t.Slug,
	}
}

func ingredientResponse(i models.Ingredient) IngredientResponse {
	return IngredientResponse{
		ID:              i.ID,
		Name:            i.Name,
		MeasurementUnit: i.MeasurementUnit,
	}
}

func userResponse(u models.User, subscribed bool) UserResponse {
	return UserResponse{
		Email:        u.Email,
		ID:           u.ID,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: subscribed,
	}
}

func shortRecipeResponse(r models.Recipe) RecipeShortResponse {
	return RecipeShortResponse{
		ID:          r.ID,
		Name:        r.Name,
		Image:       r.ImageURL,
		CookingTime: r.CookingTime,
	}
}

func recipeResponse(r models.Recipe, favorited, inCart, authorSubscribed bool) RecipeResponse {
	tags := make([]TagResponse, 0, len(r.Tags))
	for _, t := range r.Tags {
		tags = append(tags, tagResponse(t))
	}

	ingredients := make([]RecipeIngredientResponse, 0, len(r.RecipeIngredients))
	for _, ri := range r.RecipeIngredients {
		ingredients = append(ingredients, RecipeIngredientResponse{
			ID:              ri.IngredientID,
			Name:            ri.Ingredient.Name,
			MeasurementUnit: ri.Ingredient.MeasurementUnit,
			Amount:          ri.Amount,
		})
	}

	return RecipeResponse{
		ID:               r.ID,
		Tags:             tags,
		Author:           userResponse(r.Author, authorSubscribed),
		Ingredients:      ingredients,
		IsFavorited:      favorited,
		IsInShoppingCart: inCart,
		Image:            r.ImageURL,
		Name:             r.Name,
		Text:             r.Text,
		CookingTime:      r.CookingTime,
	}
}

func subscriptionResponse(row service.AuthorRecipes, subscribed bool) SubscriptionResponse {
	recipes := make([]RecipeShortResponse, 0, len(row.Recipes))
	for _, r := range row.Recipes {
		recipes = append(recipes, shortRecipeResponse(r))
	}
	return SubscriptionResponse{
		UserResponse: userResponse(row.Author, subscribed),
		Recipes:      recipes,
		RecipesCount: row.RecipeCount,
	}
}

// handleServiceError translates service errors to HTTP status codes.
// Duplicate relations are validation-level conflicts (400), not 409.
func handleServiceError(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, service.ErrDuplicate):
		c.JSON(http.StatusBadRequest, gin.H{"error": "already exists"})
	case errors.Is(err, service.ErrSelfSubscribe):
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot subscribe to yourself"})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid credentials"})
	default:
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
