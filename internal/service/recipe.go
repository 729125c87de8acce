package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/foodshare/backend/internal/models"
)

// DefaultPageSize matches the listing page size used by the frontend.
const DefaultPageSize = 6

// IngredientAmount is one ingredient line of a recipe write.
type IngredientAmount struct {
	ID     uuid.UUID
	Amount int
}

// RecipeInput carries the write shape of a recipe. The read shape is
// assembled separately by the API layer.
type RecipeInput struct {
	Name        string
	Text        string
	Image       string // base64, empty to keep the current image on update
	CookingTime int
	TagIDs      []uuid.UUID
	Ingredients []IngredientAmount
}

// RecipeFilter restricts a listing. FavoritedOnly and InCartOnly are
// ignored for anonymous viewers.
type RecipeFilter struct {
	TagSlugs      []string
	AuthorID      *uuid.UUID
	FavoritedOnly bool
	InCartOnly    bool
	Page          int
	Limit         int
}

// ShoppingListItem is one aggregated line of the shopping list download.
type ShoppingListItem struct {
	Name            string
	MeasurementUnit string
	Total           int
}

// RecipeService handles recipe reads, writes and the per-user relation rows.
type RecipeService struct {
	db     *gorm.DB
	images *ImageService
}

func NewRecipeService(db *gorm.DB, images *ImageService) *RecipeService {
	return &RecipeService{
		db:     db,
		images: images,
	}
}

func preloadRecipe(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author").
		Preload("Tags").
		Preload("RecipeIngredients.Ingredient")
}

// Get retrieves a recipe with its author, tags and ingredient lines.
func (s *RecipeService) Get(ctx context.Context, id uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := preloadRecipe(s.db.WithContext(ctx)).First(&recipe, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &recipe, nil
}

// List returns one page of recipes matching the filter plus the total count
// before pagination. Default ordering is by recipe name.
func (s *RecipeService) List(ctx context.Context, f RecipeFilter, viewerID *uuid.UUID) ([]models.Recipe, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Recipe{})

	if len(f.TagSlugs) > 0 {
		query = query.Where("recipes.id IN (?)",
			s.db.Table("recipe_tags").
				Select("recipe_tags.recipe_id").
				Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
				Where("tags.slug IN ?", f.TagSlugs))
	}
	if f.AuthorID != nil {
		query = query.Where("recipes.author_id = ?", *f.AuthorID)
	}
	// The relation filters are a no-op without an authenticated viewer.
	if f.FavoritedOnly && viewerID != nil {
		query = query.Where("recipes.id IN (?)",
			s.db.Model(&models.Favorite{}).Select("recipe_id").Where("user_id = ?", *viewerID))
	}
	if f.InCartOnly && viewerID != nil {
		query = query.Where("recipes.id IN (?)",
			s.db.Model(&models.ShoppingCart{}).Select("recipe_id").Where("user_id = ?", *viewerID))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := f.Page
	if page < 1 {
		page = 1
	}
	limit := f.Limit
	if limit < 1 {
		limit = DefaultPageSize
	}

	var recipes []models.Recipe
	err := preloadRecipe(query).
		Order("recipes.name").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&recipes).Error
	if err != nil {
		return nil, 0, err
	}

	return recipes, total, nil
}

func validateInput(input RecipeInput) error {
	if input.CookingTime < models.MinAmount || input.CookingTime > models.MaxAmount {
		return &ValidationError{
			Field:   "cooking_time",
			Message: fmt.Sprintf("must be between %d and %d", models.MinAmount, models.MaxAmount),
		}
	}
	for _, ing := range input.Ingredients {
		if ing.Amount < models.MinAmount || ing.Amount > models.MaxAmount {
			return &ValidationError{
				Field:   "ingredients",
				Message: fmt.Sprintf("amount must be between %d and %d", models.MinAmount, models.MaxAmount),
			}
		}
	}
	return nil
}

// tagsByID resolves tag references, failing with ErrNotFound when any id
// does not exist.
func tagsByID(tx *gorm.DB, ids []uuid.UUID) ([]models.Tag, error) {
	var tags []models.Tag
	if len(ids) == 0 {
		return tags, nil
	}
	if err := tx.Where("id IN ?", ids).Find(&tags).Error; err != nil {
		return nil, err
	}
	seen := make(map[uuid.UUID]bool, len(tags))
	for _, t := range tags {
		seen[t.ID] = true
	}
	for _, id := range ids {
		if !seen[id] {
			return nil, fmt.Errorf("tag %s: %w", id, ErrNotFound)
		}
	}
	return tags, nil
}

func ingredientRows(tx *gorm.DB, recipeID uuid.UUID, lines []IngredientAmount) ([]models.RecipeIngredient, error) {
	ids := make([]uuid.UUID, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ID)
	}

	var ingredients []models.Ingredient
	if len(ids) > 0 {
		if err := tx.Where("id IN ?", ids).Find(&ingredients).Error; err != nil {
			return nil, err
		}
	}
	seen := make(map[uuid.UUID]bool, len(ingredients))
	for _, i := range ingredients {
		seen[i.ID] = true
	}

	rows := make([]models.RecipeIngredient, 0, len(lines))
	for _, l := range lines {
		if !seen[l.ID] {
			return nil, fmt.Errorf("ingredient %s: %w", l.ID, ErrNotFound)
		}
		rows = append(rows, models.RecipeIngredient{
			RecipeID:     recipeID,
			IngredientID: l.ID,
			Amount:       l.Amount,
		})
	}
	return rows, nil
}

// Create persists a recipe and its tag/ingredient associations in a single
// transaction. The base64 image is decoded and stored first; a transaction
// failure leaves no rows behind.
func (s *RecipeService) Create(ctx context.Context, authorID uuid.UUID, input RecipeInput) (*models.Recipe, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if input.Image == "" {
		return nil, &ValidationError{Field: "image", Message: "required"}
	}

	imageURL, err := s.images.SaveBase64(ctx, input.Image)
	if err != nil {
		return nil, err
	}

	var recipeID uuid.UUID
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tags, err := tagsByID(tx, input.TagIDs)
		if err != nil {
			return err
		}

		recipe := models.Recipe{
			Name:        input.Name,
			Text:        input.Text,
			ImageURL:    imageURL,
			CookingTime: input.CookingTime,
			AuthorID:    authorID,
			Tags:        tags,
		}
		if err := tx.Create(&recipe).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicate
			}
			return err
		}

		rows, err := ingredientRows(tx, recipe.ID, input.Ingredients)
		if err != nil {
			return err
		}
		if len(rows) > 0 {
			if err := tx.Create(&rows).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return &ValidationError{Field: "ingredients", Message: "duplicate ingredient"}
				}
				return err
			}
		}

		recipeID = recipe.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, recipeID)
}

// Update applies a full replace: scalar fields are overwritten, ingredient
// associations are cleared and reinserted, and the tag set is reset. Only
// the author may update a recipe.
func (s *RecipeService) Update(ctx context.Context, id, callerID uuid.UUID, input RecipeInput) (*models.Recipe, error) {
	recipe, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if recipe.AuthorID != callerID {
		return nil, ErrForbidden
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	imageURL := recipe.ImageURL
	if input.Image != "" {
		imageURL, err = s.images.SaveBase64(ctx, input.Image)
		if err != nil {
			return nil, err
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tags, err := tagsByID(tx, input.TagIDs)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{
			"name":         input.Name,
			"text":         input.Text,
			"image_url":    imageURL,
			"cooking_time": input.CookingTime,
		}
		if err := tx.Model(&models.Recipe{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}

		// Clear-then-reinsert, never diff.
		if err := tx.Where("recipe_id = ?", id).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return err
		}
		rows, err := ingredientRows(tx, id, input.Ingredients)
		if err != nil {
			return err
		}
		if len(rows) > 0 {
			if err := tx.Create(&rows).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return &ValidationError{Field: "ingredients", Message: "duplicate ingredient"}
				}
				return err
			}
		}

		return tx.Model(recipe).Association("Tags").Replace(&tags)
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, id)
}

// Delete removes a recipe together with its associations and any favorite
// or cart rows referencing it.
func (s *RecipeService) Delete(ctx context.Context, id, callerID uuid.UUID) error {
	recipe, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if recipe.AuthorID != callerID {
		return ErrForbidden
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", id).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", id).Delete(&models.Favorite{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", id).Delete(&models.ShoppingCart{}).Error; err != nil {
			return err
		}
		if err := tx.Model(recipe).Association("Tags").Clear(); err != nil {
			return err
		}
		return tx.Delete(&models.Recipe{}, "id = ?", id).Error
	})
}

func (s *RecipeService) shortRecipe(ctx context.Context, id uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &recipe, nil
}

// Favorite adds a favorite row for (user, recipe). A second add for the
// same pair hits the composite unique index and reports ErrDuplicate.
func (s *RecipeService) Favorite(ctx context.Context, userID, recipeID uuid.UUID) (*models.Recipe, error) {
	recipe, err := s.shortRecipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}

	fav := models.Favorite{UserID: userID, RecipeID: recipeID}
	if err := s.db.WithContext(ctx).Create(&fav).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return recipe, nil
}

func (s *RecipeService) Unfavorite(ctx context.Context, userID, recipeID uuid.UUID) error {
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(&models.Favorite{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AddToCart queues a recipe for the user's shopping list.
func (s *RecipeService) AddToCart(ctx context.Context, userID, recipeID uuid.UUID) (*models.Recipe, error) {
	recipe, err := s.shortRecipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}

	entry := models.ShoppingCart{UserID: userID, RecipeID: recipeID}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return recipe, nil
}

func (s *RecipeService) RemoveFromCart(ctx context.Context, userID, recipeID uuid.UUID) error {
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(&models.ShoppingCart{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ShoppingList aggregates every ingredient line of the recipes in the
// user's cart, grouped by (name, unit) with summed amounts, ordered by
// ingredient name. An empty cart yields an empty slice.
func (s *RecipeService) ShoppingList(ctx context.Context, userID uuid.UUID) ([]ShoppingListItem, error) {
	var items []ShoppingListItem
	err := s.db.WithContext(ctx).
		Table("recipe_ingredients").
		Select("ingredients.name AS name, ingredients.measurement_unit AS measurement_unit, SUM(recipe_ingredients.amount) AS total").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Joins("JOIN shopping_carts ON shopping_carts.recipe_id = recipe_ingredients.recipe_id").
		Where("shopping_carts.user_id = ?", userID).
		Group("ingredients.name, ingredients.measurement_unit").
		Order("ingredients.name").
		Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// FormatShoppingList renders the aggregated items as the plain-text
// download body, one "<name> - <amount>(<unit>)" line per group.
func FormatShoppingList(items []ShoppingListItem) string {
	var b strings.Builder
	for _, item := range items {
		fmt.Fprintf(&b, "%s - %d(%s)\n", item.Name, item.Total, item.MeasurementUnit)
	}
	return b.String()
}

// RelationFlags reports which of the given recipes the viewer has favorited
// or carted. Both sets are empty for anonymous viewers.
func (s *RecipeService) RelationFlags(ctx context.Context, viewerID *uuid.UUID, recipeIDs []uuid.UUID) (map[uuid.UUID]bool, map[uuid.UUID]bool, error) {
	favorited := make(map[uuid.UUID]bool)
	inCart := make(map[uuid.UUID]bool)
	if viewerID == nil || len(recipeIDs) == 0 {
		return favorited, inCart, nil
	}

	var favs []models.Favorite
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id IN ?", *viewerID, recipeIDs).
		Find(&favs).Error; err != nil {
		return nil, nil, err
	}
	for _, f := range favs {
		favorited[f.RecipeID] = true
	}

	var carts []models.ShoppingCart
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id IN ?", *viewerID, recipeIDs).
		Find(&carts).Error; err != nil {
		return nil, nil, err
	}
	for _, c := range carts {
		inCart[c.RecipeID] = true
	}

	return favorited, inCart, nil
}
