package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zenjournal/zenjournal-backend/internal/auth"
	"github.com/zenjournal/zenjournal-backend/internal/config"
	"github.com/zenjournal/zenjournal-backend/internal/models"
	"github.com/zenjournal/zenjournal-backend/internal/services"
)

type apiFixture struct {
	t       *testing.T
	handler http.Handler
	entries *memEntries
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	users := &memUsers{users: make(map[string]models.User)}
	entries := &memEntries{entries: make(map[string]models.Entry)}
	cfg := &config.Config{Environment: "test", AllowedOrigins: []string{"http://localhost:3000"}}

	r := NewRouter(Deps{
		Config:  cfg,
		Auth:    services.NewAuthService(users, auth.NewIssuer("test-secret", 0), nil),
		Entries: services.NewEntryService(entries, nil, nil),
	})
	return &apiFixture{t: t, handler: r, entries: entries}
}

func (a *apiFixture) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	r := httptest.NewRequest(method, path, &buf)
	r.Header.Set("Content-Type", "application/json")
	if token != "" {
		r.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, r)
	return rec
}

func (a *apiFixture) register(email string) (token, userID string) {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": email, "password": "correct horse", "name": "Tester",
	})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.CookieName {
			cookie = c
		}
	}
	require.NotNil(a.t, cookie)
	assert.True(a.t, cookie.HttpOnly)

	var body struct {
		User map[string]interface{} `json:"user"`
	}
	require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &body))
	return cookie.Value, body.User["id"].(string)
}

func (a *apiFixture) createEntry(token string, body map[string]interface{}) map[string]interface{} {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/entries", token, body)
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp struct {
		Entry map[string]interface{} `json:"entry"`
	}
	require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Entry
}

func TestAuthFlow(t *testing.T) {
	api := newAPI(t)

	rec := api.do(http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"success":false,"user":null}`, rec.Body.String())

	token, userID := api.register("ada@example.com")

	rec = api.do(http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, fmt.Sprintf(`{"success":true,"user":{"id":%q,"email":"ada@example.com","name":"Tester"}}`, userID), rec.Body.String())

	rec = api.do(http.MethodPost, "/api/auth/register", "", map[string]string{"email": "ada@example.com", "password": "correct horse"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "User already exists")

	rec = api.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ADA@example.com", "password": "correct horse"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(http.MethodPost, "/api/auth/logout", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestLoginFailuresAreGeneric(t *testing.T) {
	api := newAPI(t)
	api.register("ada@example.com")

	first := api.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ada@example.com", "password": "nope-nope"})
	second := api.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ada@example.com", "password": "nope-nope"})
	unknown := api.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "bob@example.com", "password": "nope-nope"})

	for _, rec := range []*httptest.ResponseRecorder{first, second, unknown} {
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"success":false,"message":"Invalid credentials"}`, rec.Body.String())
	}
}

func TestRegisterValidation(t *testing.T) {
	api := newAPI(t)
	rec := api.do(http.MethodPost, "/api/auth/register", "", map[string]string{"email": "not-an-email", "password": "short"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Errors map[string]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Errors, "email")
	assert.Contains(t, body.Errors, "password")
}

func TestEntryVisibility(t *testing.T) {
	api := newAPI(t)
	ownerToken, _ := api.register("owner@example.com")
	otherToken, _ := api.register("other@example.com")

	public := api.createEntry(ownerToken, map[string]interface{}{"title": "Open", "content": "hi", "visibility": "public"})
	private := api.createEntry(ownerToken, map[string]interface{}{"title": "Closed", "content": "hi"})
	draft := api.createEntry(ownerToken, map[string]interface{}{"title": "WIP", "content": "hi", "visibility": "draft"})

	for _, token := range []string{"", otherToken, ownerToken} {
		rec := api.do(http.MethodGet, "/api/entries/"+public["id"].(string), token, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	for _, e := range []map[string]interface{}{private, draft} {
		assert.Equal(t, http.StatusForbidden, api.do(http.MethodGet, "/api/entries/"+e["id"].(string), "", nil).Code)
		assert.Equal(t, http.StatusForbidden, api.do(http.MethodGet, "/api/entries/"+e["id"].(string), otherToken, nil).Code)
		assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/entries/"+e["id"].(string), ownerToken, nil).Code)
	}

	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/api/entries/not-an-id", ownerToken, nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/api/entries/65f000000000000000000000", ownerToken, nil).Code)
}

func TestCreateIgnoresClientOwner(t *testing.T) {
	api := newAPI(t)
	token, userID := api.register("owner@example.com")

	e := api.createEntry(token, map[string]interface{}{
		"title": "Mine", "content": "body",
		"userId": "someone-else", "user_id": "someone-else", "owner_id": "someone-else",
	})
	assert.Equal(t, userID, e["owner_id"])
	assert.Equal(t, "neutral", e["mood"])
	assert.Equal(t, "private", e["visibility"])
}

func TestCreateValidationAndAuth(t *testing.T) {
	api := newAPI(t)
	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodPost, "/api/entries", "", map[string]string{"title": "t", "content": "c"}).Code)
	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, "/api/entries", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, "/api/entries", "forged.token.value", nil).Code)

	token, _ := api.register("owner@example.com")
	rec := api.do(http.MethodPost, "/api/entries", token, map[string]string{"title": "", "mood": "grumpy"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Success bool              `json:"success"`
		Errors  map[string]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Contains(t, body.Errors, "title")
	assert.Contains(t, body.Errors, "content")
	assert.Contains(t, body.Errors, "mood")
}

func TestNonOwnerMutationsNeverApply(t *testing.T) {
	api := newAPI(t)
	ownerToken, _ := api.register("owner@example.com")
	otherToken, _ := api.register("other@example.com")
	e := api.createEntry(ownerToken, map[string]interface{}{"title": "Mine", "content": "body", "visibility": "public"})
	path := "/api/entries/" + e["id"].(string)

	rec := api.do(http.MethodPut, path, otherToken, map[string]string{"title": "Hijacked"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = api.do(http.MethodDelete, path, otherToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	stored := api.entries.entries[e["id"].(string)]
	assert.Equal(t, "Mine", stored.Title)

	rec = api.do(http.MethodPut, path, ownerToken, map[string]string{"title": "Renamed"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Renamed", api.entries.entries[e["id"].(string)].Title)
	assert.Equal(t, "body", api.entries.entries[e["id"].(string)].Content)

	rec = api.do(http.MethodDelete, path, ownerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodDelete, path, ownerToken, nil).Code)
}

func TestListPaginationMeta(t *testing.T) {
	api := newAPI(t)
	token, _ := api.register("owner@example.com")
	other, _ := api.register("other@example.com")
	for i := 0; i < 7; i++ {
		api.createEntry(token, map[string]interface{}{"title": fmt.Sprintf("e%d", i), "content": "c"})
	}
	api.createEntry(other, map[string]interface{}{"title": "not mine", "content": "c"})

	var page struct {
		Success    bool             `json:"success"`
		Data       []map[string]any `json:"data"`
		Total      int64            `json:"total"`
		Page       int              `json:"page"`
		Limit      int              `json:"limit"`
		TotalPages int64            `json:"totalPages"`
	}

	rec := api.do(http.MethodGet, "/api/entries?limit=3&page=3", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Len(t, page.Data, 1)
	assert.EqualValues(t, 7, page.Total)
	assert.EqualValues(t, 3, page.TotalPages)

	rec = api.do(http.MethodGet, "/api/entries?limit=3&page=10", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"data":[]`)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 10, page.Page)
	assert.EqualValues(t, 7, page.Total)
	assert.EqualValues(t, 3, page.TotalPages)

	rec = api.do(http.MethodGet, "/api/entries?page=461168601842738792", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"data":[]`)

	rec = api.do(http.MethodGet, "/api/entries?mood=furious", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGatekeeperRoutes(t *testing.T) {
	api := newAPI(t)
	token, _ := api.register("owner@example.com")

	rec := api.do(http.MethodGet, "/entry/new", "", nil)
	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	rec = api.do(http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)

	rec = api.do(http.MethodGet, "/login", token, nil)
	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	// Pass-through with no WEB_DIR ends in 404, never a redirect.
	rec = api.do(http.MethodGet, "/login", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = api.do(http.MethodGet, "/entry/new", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"Not found"}`, rec.Body.String())
}

func TestUploadsWithoutCloudinary(t *testing.T) {
	api := newAPI(t)
	token, _ := api.register("owner@example.com")
	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodPost, "/api/uploads", "", nil).Code)
	assert.Equal(t, http.StatusServiceUnavailable, api.do(http.MethodPost, "/api/uploads", token, nil).Code)
}
