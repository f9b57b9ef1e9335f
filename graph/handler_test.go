package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hn-son/let-him-cook-backend/models"
)

type gqlError struct {
	Message    string                 `json:"message"`
	Extensions map[string]interface{} `json:"extensions"`
}

type gqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []gqlError      `json:"errors"`
}

type client struct {
	t   *testing.T
	srv *httptest.Server
}

func newTestServer(t *testing.T) (*client, *testEnv) {
	t.Helper()
	env := newTestEnv(t)
	schema, err := NewSchema(env.resolver)
	require.NoError(t, err)

	srv := httptest.NewServer(NewHandler(schema, env.tokens))
	t.Cleanup(srv.Close)
	return &client{t: t, srv: srv}, env
}

// do выполняет запрос и раскладывает data в out
func (c *client) do(token, query string, vars map[string]interface{}, out interface{}) []gqlError {
	c.t.Helper()

	body, err := json.Marshal(map[string]interface{}{"query": query, "variables": vars})
	require.NoError(c.t, err)

	req, err := http.NewRequest(http.MethodPost, c.srv.URL+"/query", bytes.NewReader(body))
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.srv.Client().Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	require.Equal(c.t, http.StatusOK, resp.StatusCode)

	var res gqlResponse
	require.NoError(c.t, json.NewDecoder(resp.Body).Decode(&res))
	if out != nil && len(res.Errors) == 0 {
		require.NoError(c.t, json.Unmarshal(res.Data, out))
	}
	return res.Errors
}

func (c *client) mustDo(token, query string, vars map[string]interface{}, out interface{}) {
	c.t.Helper()
	errs := c.do(token, query, vars, out)
	require.Empty(c.t, errs)
}

func errorCode(t *testing.T, errs []gqlError) string {
	t.Helper()
	require.NotEmpty(t, errs)
	code, _ := errs[0].Extensions["code"].(string)
	return code
}

const registerMutation = `mutation($input: RegisterInput!) {
	register(input: $input) { token user { id username role } }
}`

const loginMutation = `mutation($input: LoginInput!) {
	login(input: $input) { token user { id role } }
}`

type authPayload struct {
	Token string `json:"token"`
	User  struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Role     string `json:"role"`
	} `json:"user"`
}

func TestHandler_Playground(t *testing.T) {
	c, _ := newTestServer(t)

	resp, err := c.srv.Client().Get(c.srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
}

func TestHandler_RecipeLifecycle(t *testing.T) {
	c, env := newTestServer(t)

	_, err := env.resolver.UserService.EnsureAdmin(context.Background(), "boss", "boss@example.com", "secret123")
	require.NoError(t, err)

	var reg struct {
		Register authPayload `json:"register"`
	}
	c.mustDo("", registerMutation, map[string]interface{}{
		"input": map[string]interface{}{"username": "alice", "email": "alice@example.com", "password": "secret123"},
	}, &reg)
	alice := reg.Register
	require.NotEmpty(t, alice.Token)
	assert.Equal(t, "user", alice.User.Role)

	var login struct {
		Login authPayload `json:"login"`
	}
	c.mustDo("", loginMutation, map[string]interface{}{
		"input": map[string]interface{}{"email": "boss@example.com", "password": "secret123"},
	}, &login)
	admin := login.Login
	assert.Equal(t, "admin", admin.User.Role)

	t.Run("Duplicate registration", func(t *testing.T) {
		errs := c.do("", registerMutation, map[string]interface{}{
			"input": map[string]interface{}{"username": "alice", "email": "other@example.com", "password": "secret123"},
		}, nil)
		assert.Equal(t, "CONFLICT", errorCode(t, errs))
	})

	t.Run("Wrong password", func(t *testing.T) {
		errs := c.do("", loginMutation, map[string]interface{}{
			"input": map[string]interface{}{"email": "alice@example.com", "password": "nope"},
		}, nil)
		assert.Equal(t, "INVALID_CREDENTIAL", errorCode(t, errs))
	})

	t.Run("CheckAuth", func(t *testing.T) {
		var out struct {
			CheckAuth struct {
				IsAuthenticated bool   `json:"isAuthenticated"`
				Message         string `json:"message"`
			} `json:"checkAuth"`
		}
		c.mustDo(alice.Token, `{ checkAuth { isAuthenticated message } }`, nil, &out)
		assert.True(t, out.CheckAuth.IsAuthenticated)

		c.mustDo("garbage", `{ checkAuth { isAuthenticated message } }`, nil, &out)
		assert.False(t, out.CheckAuth.IsAuthenticated)
		assert.Equal(t, "Not authenticated", out.CheckAuth.Message)
	})

	createRecipe := `mutation($input: RecipeInput!) {
		createRecipe(input: $input) { id isApproved difficulty cookingTime }
	}`
	recipeVars := map[string]interface{}{
		"input": map[string]interface{}{
			"title":       "Blueberry pancakes",
			"description": "Sunday *breakfast*",
			"ingredients": []map[string]string{{"name": "Egg", "quantity": "2", "unit": "pcs"}},
			"steps":       []string{"Mix", "Fry"},
			"cookingTime": 25,
			"difficulty":  "easy",
		},
	}

	t.Run("Anonymous cannot create", func(t *testing.T) {
		errs := c.do("", createRecipe, recipeVars, nil)
		assert.Equal(t, "UNAUTHENTICATED", errorCode(t, errs))
	})

	var created struct {
		CreateRecipe struct {
			ID          string `json:"id"`
			IsApproved  bool   `json:"isApproved"`
			Difficulty  string `json:"difficulty"`
			CookingTime *int   `json:"cookingTime"`
		} `json:"createRecipe"`
	}
	c.mustDo(alice.Token, createRecipe, recipeVars, &created)
	recipeID := created.CreateRecipe.ID
	require.NotEmpty(t, recipeID)
	assert.False(t, created.CreateRecipe.IsApproved)
	assert.Equal(t, "easy", created.CreateRecipe.Difficulty)
	require.NotNil(t, created.CreateRecipe.CookingTime)
	assert.Equal(t, 25, *created.CreateRecipe.CookingTime)

	type recipeList struct {
		Recipes []struct {
			ID     string `json:"id"`
			Author struct {
				Username string `json:"username"`
			} `json:"author"`
		} `json:"recipes"`
	}

	t.Run("Pending recipe is not listed", func(t *testing.T) {
		var out recipeList
		c.mustDo("", `{ recipes { id author { username } } }`, nil, &out)
		assert.Empty(t, out.Recipes)

		errs := c.do(alice.Token, `mutation($id: ID!) { addComment(recipeId: $id, content: "hi") { id } }`,
			map[string]interface{}{"id": recipeID}, nil)
		assert.Equal(t, "INVALID_STATE", errorCode(t, errs))
	})

	t.Run("Only admin approves", func(t *testing.T) {
		approve := `mutation($id: ID!) { approveRecipe(id: $id) { isApproved } }`
		errs := c.do(alice.Token, approve, map[string]interface{}{"id": recipeID}, nil)
		assert.Equal(t, "FORBIDDEN", errorCode(t, errs))

		var out struct {
			ApproveRecipe struct {
				IsApproved bool `json:"isApproved"`
			} `json:"approveRecipe"`
		}
		c.mustDo(admin.Token, approve, map[string]interface{}{"id": recipeID}, &out)
		assert.True(t, out.ApproveRecipe.IsApproved)

		var list recipeList
		c.mustDo("", `{ recipes { id author { username } } }`, nil, &list)
		require.Len(t, list.Recipes, 1)
		assert.Equal(t, "alice", list.Recipes[0].Author.Username)
	})

	t.Run("Search falls back to title match", func(t *testing.T) {
		var out struct {
			SearchRecipes []struct {
				ID              string `json:"id"`
				DescriptionHTML string `json:"descriptionHtml"`
			} `json:"searchRecipes"`
		}
		c.mustDo("", `{ searchRecipes(query: "pancake") { id descriptionHtml } }`, nil, &out)
		require.Len(t, out.SearchRecipes, 1)
		assert.Contains(t, out.SearchRecipes[0].DescriptionHTML, "<em>breakfast</em>")

		var byIngredient struct {
			RecipesByIngredients []struct {
				ID string `json:"id"`
			} `json:"recipesByIngredients"`
		}
		c.mustDo("", `{ recipesByIngredients(ingredients: ["egg"]) { id } }`, nil, &byIngredient)
		require.Len(t, byIngredient.RecipesByIngredients, 1)
		assert.Equal(t, recipeID, byIngredient.RecipesByIngredients[0].ID)
	})

	t.Run("Comments and favorites", func(t *testing.T) {
		var added struct {
			AddComment struct {
				Content string `json:"content"`
				Author  struct {
					Username string `json:"username"`
				} `json:"author"`
			} `json:"addComment"`
		}
		c.mustDo(admin.Token, `mutation($id: ID!) { addComment(recipeId: $id, content: "Great <i>job</i>") { content author { username } } }`,
			map[string]interface{}{"id": recipeID}, &added)
		assert.Equal(t, "Great job", added.AddComment.Content)
		assert.Equal(t, "boss", added.AddComment.Author.Username)

		var fav struct {
			AddToFavorites struct {
				FavoriteRecipes []struct {
					ID string `json:"id"`
				} `json:"favoriteRecipes"`
			} `json:"addToFavorites"`
		}
		c.mustDo(admin.Token, `mutation($id: ID!) { addToFavorites(recipeId: $id) { favoriteRecipes { id } } }`,
			map[string]interface{}{"id": recipeID}, &fav)
		require.Len(t, fav.AddToFavorites.FavoriteRecipes, 1)
		assert.Equal(t, recipeID, fav.AddToFavorites.FavoriteRecipes[0].ID)
	})

	t.Run("Deleting recipe cascades", func(t *testing.T) {
		var out struct {
			DeleteRecipe bool `json:"deleteRecipe"`
		}
		c.mustDo(alice.Token, `mutation($id: ID!) { deleteRecipe(id: $id) }`, map[string]interface{}{"id": recipeID}, &out)
		assert.True(t, out.DeleteRecipe)

		var comments struct {
			RecipeComments []struct {
				ID string `json:"id"`
			} `json:"recipeComments"`
		}
		c.mustDo("", `query($id: ID!) { recipeComments(recipeId: $id) { id } }`, map[string]interface{}{"id": recipeID}, &comments)
		assert.Empty(t, comments.RecipeComments)

		var favorites struct {
			FavoriteRecipes []struct {
				ID string `json:"id"`
			} `json:"favoriteRecipes"`
		}
		c.mustDo(admin.Token, `{ favoriteRecipes { id } }`, nil, &favorites)
		assert.Empty(t, favorites.FavoriteRecipes)
	})
}

func TestHandler_TokenFollowsAccount(t *testing.T) {
	c, env := newTestServer(t)
	ctx := context.Background()

	var reg struct {
		Register authPayload `json:"register"`
	}
	c.mustDo("", registerMutation, map[string]interface{}{
		"input": map[string]interface{}{"username": "mallory", "email": "mallory@example.com", "password": "secret123"},
	}, &reg)
	token := reg.Register.Token

	t.Run("Promotion applies to issued token", func(t *testing.T) {
		u, err := env.users.GetUserByID(ctx, reg.Register.User.ID)
		require.NoError(t, err)
		u.Role = models.RoleAdmin
		_, err = env.users.UpdateUser(ctx, u)
		require.NoError(t, err)

		var out struct {
			PendingRecipes []struct {
				ID string `json:"id"`
			} `json:"pendingRecipes"`
		}
		c.mustDo(token, `{ pendingRecipes { id } }`, nil, &out)
		assert.Empty(t, out.PendingRecipes)
	})

	t.Run("Deleted account is anonymous", func(t *testing.T) {
		require.NoError(t, env.users.DeleteUser(ctx, reg.Register.User.ID))

		var out struct {
			CheckAuth struct {
				IsAuthenticated bool `json:"isAuthenticated"`
			} `json:"checkAuth"`
		}
		c.mustDo(token, `{ checkAuth { isAuthenticated } }`, nil, &out)
		assert.False(t, out.CheckAuth.IsAuthenticated)

		errs := c.do(token, `mutation($input: RecipeInput!) { createRecipe(input: $input) { id } }`, map[string]interface{}{
			"input": map[string]interface{}{
				"title":       "Ghost soup",
				"description": "nothing",
				"ingredients": []map[string]string{{"name": "Water", "quantity": "1", "unit": "l"}},
				"steps":       []string{"Boil"},
			},
		}, nil)
		assert.Equal(t, "UNAUTHENTICATED", errorCode(t, errs))
	})
}
