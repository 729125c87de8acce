package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/foodshare/backend/internal/models"
)

// AuthorRecipes is an author row of the subscriptions listing: the author,
// a (possibly truncated) slice of their recipes and the full recipe count.
type AuthorRecipes struct {
	Author      models.User
	Recipes     []models.Recipe
	RecipeCount int64
}

// UserService handles user reads and author subscriptions.
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// List returns one page of users ordered by username.
func (s *UserService) List(ctx context.Context, page, limit int) ([]models.User, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}

	var users []models.User
	err := s.db.WithContext(ctx).
		Order("username").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// Subscribe follows an author. Self-subscription is rejected; a duplicate
// follow hits the composite unique index and reports ErrDuplicate.
func (s *UserService) Subscribe(ctx context.Context, userID, authorID uuid.UUID) error {
	if userID == authorID {
		return ErrSelfSubscribe
	}
	if _, err := s.Get(ctx, authorID); err != nil {
		return err
	}

	sub := models.Subscription{UserID: userID, AuthorID: authorID}
	if err := s.db.WithContext(ctx).Create(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (s *UserService) Unsubscribe(ctx context.Context, userID, authorID uuid.UUID) error {
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Delete(&models.Subscription{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// authorRecipes loads an author's recipes, optionally truncated, and the
// total recipe count.
func (s *UserService) authorRecipes(ctx context.Context, author models.User, recipesLimit int) (AuthorRecipes, error) {
	out := AuthorRecipes{Author: author}

	if err := s.db.WithContext(ctx).
		Model(&models.Recipe{}).
		Where("author_id = ?", author.ID).
		Count(&out.RecipeCount).Error; err != nil {
		return out, err
	}

	query := s.db.WithContext(ctx).
		Where("author_id = ?", author.ID).
		Order("name")
	if recipesLimit > 0 {
		query = query.Limit(recipesLimit)
	}
	if err := query.Find(&out.Recipes).Error; err != nil {
		return out, err
	}
	return out, nil
}

// AuthorWithRecipes builds the nested author representation returned from
// a subscribe action.
func (s *UserService) AuthorWithRecipes(ctx context.Context, authorID uuid.UUID, recipesLimit int) (*AuthorRecipes, error) {
	author, err := s.Get(ctx, authorID)
	if err != nil {
		return nil, err
	}
	out, err := s.authorRecipes(ctx, *author, recipesLimit)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Subscriptions lists every author the user follows, paginated and ordered
// by username, each with nested recipes.
func (s *UserService) Subscriptions(ctx context.Context, userID uuid.UUID, page, limit, recipesLimit int) ([]AuthorRecipes, int64, error) {
	base := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id IN (?)", s.db.Model(&models.Subscription{}).Select("author_id").Where("user_id = ?", userID))

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}

	var authors []models.User
	if err := base.Order("username").Offset((page - 1) * limit).Limit(limit).Find(&authors).Error; err != nil {
		return nil, 0, err
	}

	out := make([]AuthorRecipes, 0, len(authors))
	for _, author := range authors {
		row, err := s.authorRecipes(ctx, author, recipesLimit)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, row)
	}
	return out, total, nil
}

// SubscribedSet reports which of the given authors the viewer follows.
// Empty for anonymous viewers.
func (s *UserService) SubscribedSet(ctx context.Context, viewerID *uuid.UUID, authorIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	subscribed := make(map[uuid.UUID]bool)
	if viewerID == nil || len(authorIDs) == 0 {
		return subscribed, nil
	}

	var subs []models.Subscription
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND author_id IN ?", *viewerID, authorIDs).
		Find(&subs).Error; err != nil {
		return nil, err
	}
	for _, sub := range subs {
		subscribed[sub.AuthorID] = true
	}
	return subscribed, nil
}
