package api_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodshare/backend/internal/api"
	"github.com/foodshare/backend/internal/testhelpers"
)

func TestRegisterEndpoint(t *testing.T) {
	e := testhelpers.NewTestEnv(t)

	body := map[string]string{
		"email":      "new@example.com",
		"username":   "newcook",
		"first_name": "New",
		"last_name":  "Cook",
		"password":   "longenough",
	}
	w := e.Request(t, http.MethodPost, "/api/users", body, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp api.UserResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "newcook", resp.Username)
	assert.False(t, resp.IsSubscribed)

	t.Run("duplicate email", func(t *testing.T) {
		w := e.Request(t, http.MethodPost, "/api/users", body, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("short password", func(t *testing.T) {
		bad := map[string]string{
			"email":      "short@example.com",
			"username":   "short",
			"first_name": "S",
			"last_name":  "P",
			"password":   "tiny",
		}
		w := e.Request(t, http.MethodPost, "/api/users", bad, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestLoginEndpoint(t *testing.T) {
	e := testhelpers.NewTestEnv(t)
	testhelpers.CreateUser(t, e.DB, "cook")

	w := e.Request(t, http.MethodPost, "/api/auth/token", map[string]string{
		"email":    "cook@example.com",
		"password": testhelpers.TestPassword,
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp api.TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)

	t.Run("wrong password", func(t *testing.T) {
		w := e.Request(t, http.MethodPost, "/api/auth/token", map[string]string{
			"email":    "cook@example.com",
			"password": "wrong",
		}, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestMeEndpoint(t *testing.T) {
	e := testhelpers.NewTestEnv(t)
	user := testhelpers.CreateUser(t, e.DB, "cook")
	token := e.TokenFor(t, "cook@example.com")

	w := e.Request(t, http.MethodGet, "/api/users/me", nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	var resp api.UserResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, user.ID, resp.ID)

	w = e.Request(t, http.MethodGet, "/api/users/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListUsersEndpoint(t *testing.T) {
	e := testhelpers.NewTestEnv(t)
	testhelpers.CreateUser(t, e.DB, "alice")
	testhelpers.CreateUser(t, e.DB, "follower")
	zoe := testhelpers.CreateUser(t, e.DB, "zoe")

	token := e.TokenFor(t, "follower@example.com")
	w := e.Request(t, http.MethodPost, "/api/users/"+zoe.ID.String()+"/subscribe", nil, token)
	require.Equal(t, http.StatusCreated, w.Code)

	w = e.Request(t, http.MethodGet, "/api/users", nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	var page struct {
		Count   int64              `json:"count"`
		Results []api.UserResponse `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.EqualValues(t, 3, page.Count)

	flags := map[string]bool{}
	for _, u := range page.Results {
		flags[u.Username] = u.IsSubscribed
	}
	assert.True(t, flags["zoe"])
	assert.False(t, flags["alice"])
}

func TestSubscribeEndpoints(t *testing.T) {
	e := testhelpers.NewTestEnv(t)
	follower := testhelpers.CreateUser(t, e.DB, "follower")
	author := testhelpers.CreateUser(t, e.DB, "chef")
	token := e.TokenFor(t, "follower@example.com")

	path := "/api/users/" + author.ID.String() + "/subscribe"

	w := e.Request(t, http.MethodPost, path, nil, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp api.SubscriptionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "chef", resp.Username)
	assert.True(t, resp.IsSubscribed)
	assert.EqualValues(t, 0, resp.RecipesCount)

	t.Run("duplicate", func(t *testing.T) {
		w := e.Request(t, http.MethodPost, path, nil, token)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("self", func(t *testing.T) {
		w := e.Request(t, http.MethodPost, "/api/users/"+follower.ID.String()+"/subscribe", nil, token)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown author", func(t *testing.T) {
		w := e.Request(t, http.MethodPost, "/api/users/"+uuid.NewString()+"/subscribe", nil, token)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("listing", func(t *testing.T) {
		w := e.Request(t, http.MethodGet, "/api/users/subscriptions", nil, token)
		require.Equal(t, http.StatusOK, w.Code)

		var page struct {
			Count   int64                      `json:"count"`
			Results []api.SubscriptionResponse `json:"results"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
		assert.EqualValues(t, 1, page.Count)
		require.Len(t, page.Results, 1)
		assert.Equal(t, "chef", page.Results[0].Username)
	})

	t.Run("unsubscribe", func(t *testing.T) {
		w := e.Request(t, http.MethodDelete, path, nil, token)
		assert.Equal(t, http.StatusNoContent, w.Code)
		w = e.Request(t, http.MethodDelete, path, nil, token)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestGetUserEndpoint(t *testing.T) {
	e := testhelpers.NewTestEnv(t)
	user := testhelpers.CreateUser(t, e.DB, "cook")

	w := e.Request(t, http.MethodGet, "/api/users/"+user.ID.String(), nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp api.UserResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "cook", resp.Username)
	assert.False(t, resp.IsSubscribed)

	w = e.Request(t, http.MethodGet, "/api/users/"+uuid.NewString(), nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
