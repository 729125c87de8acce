package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodshare/backend/internal/service"
	"github.com/foodshare/backend/internal/testhelpers"
)

func TestSubscribe(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	svc := service.NewUserService(db)
	ctx := context.Background()

	follower := testhelpers.CreateUser(t, db, "follower")
	author := testhelpers.CreateUser(t, db, "chef")

	require.NoError(t, svc.Subscribe(ctx, follower.ID, author.ID))

	t.Run("duplicate", func(t *testing.T) {
		assert.ErrorIs(t, svc.Subscribe(ctx, follower.ID, author.ID), service.ErrDuplicate)
	})

	t.Run("self", func(t *testing.T) {
		assert.ErrorIs(t, svc.Subscribe(ctx, follower.ID, follower.ID), service.ErrSelfSubscribe)
	})

	t.Run("unknown author", func(t *testing.T) {
		assert.ErrorIs(t, svc.Subscribe(ctx, follower.ID, uuid.New()), service.ErrNotFound)
	})
}

func TestUnsubscribe(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	svc := service.NewUserService(db)
	ctx := context.Background()

	follower := testhelpers.CreateUser(t, db, "follower")
	author := testhelpers.CreateUser(t, db, "chef")

	require.NoError(t, svc.Subscribe(ctx, follower.ID, author.ID))
	require.NoError(t, svc.Unsubscribe(ctx, follower.ID, author.ID))

	assert.ErrorIs(t, svc.Unsubscribe(ctx, follower.ID, author.ID), service.ErrNotFound)
}

func TestSubscriptionsListing(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	users := service.NewUserService(db)
	images := service.NewImageService(t.TempDir(), "/media", nil)
	recipes := service.NewRecipeService(db, images)
	ctx := context.Background()

	follower := testhelpers.CreateUser(t, db, "follower")
	alice := testhelpers.CreateUser(t, db, "alice")
	bob := testhelpers.CreateUser(t, db, "bob")
	testhelpers.CreateUser(t, db, "carol") // not followed

	tag := testhelpers.CreateTag(t, db, "Lunch", "#777777", "lunch")
	flour := testhelpers.CreateIngredient(t, db, "Flour", "g")

	for _, name := range []string{"Bread", "Buns", "Cake"} {
		_, err := recipes.Create(ctx, alice.ID, service.RecipeInput{
			Name:        name,
			Text:        "Bake it.",
			Image:       testhelpers.TinyPNG,
			CookingTime: 60,
			TagIDs:      []uuid.UUID{tag.ID},
			Ingredients: []service.IngredientAmount{{ID: flour.ID, Amount: 500}},
		})
		require.NoError(t, err)
	}

	require.NoError(t, users.Subscribe(ctx, follower.ID, alice.ID))
	require.NoError(t, users.Subscribe(ctx, follower.ID, bob.ID))

	rows, total, err := users.Subscriptions(ctx, follower.ID, 1, 10, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, rows, 2)

	// Ordered by username, recipes truncated to the requested limit but
	// counted in full.
	assert.Equal(t, "alice", rows[0].Author.Username)
	assert.EqualValues(t, 3, rows[0].RecipeCount)
	assert.Len(t, rows[0].Recipes, 2)

	assert.Equal(t, "bob", rows[1].Author.Username)
	assert.EqualValues(t, 0, rows[1].RecipeCount)
	assert.Empty(t, rows[1].Recipes)
}

func TestSubscribedSet(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	svc := service.NewUserService(db)
	ctx := context.Background()

	follower := testhelpers.CreateUser(t, db, "follower")
	alice := testhelpers.CreateUser(t, db, "alice")
	bob := testhelpers.CreateUser(t, db, "bob")

	require.NoError(t, svc.Subscribe(ctx, follower.ID, alice.ID))

	set, err := svc.SubscribedSet(ctx, &follower.ID, []uuid.UUID{alice.ID, bob.ID})
	require.NoError(t, err)
	assert.True(t, set[alice.ID])
	assert.False(t, set[bob.ID])

	set, err = svc.SubscribedSet(ctx, nil, []uuid.UUID{alice.ID})
	require.NoError(t, err)
	assert.Empty(t, set)
}

func TestUserList(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	svc := service.NewUserService(db)
	ctx := context.Background()

	testhelpers.CreateUser(t, db, "zoe")
	testhelpers.CreateUser(t, db, "adam")

	users, total, err := svc.List(ctx, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, users, 2)
	assert.Equal(t, "adam", users[0].Username)
	assert.Equal(t, "zoe", users[1].Username)
}
