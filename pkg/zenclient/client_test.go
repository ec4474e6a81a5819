package zenclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sessionToken = "signed.session.token"

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func authed(r *http.Request) bool {
	if c, err := r.Cookie("token"); err == nil && c.Value == sessionToken {
		return true
	}
	return r.Header.Get("Authorization") == "Bearer "+sessionToken
}

type recorder struct {
	mu   sync.Mutex
	reqs []*http.Request
}

func (r *recorder) add(req *http.Request) {
	r.mu.Lock()
	r.reqs = append(r.reqs, req)
	r.mu.Unlock()
}

func (r *recorder) all() []*http.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*http.Request(nil), r.reqs...)
}

func newServer(t *testing.T) (*httptest.Server, *recorder) {
	t.Helper()
	seen := &recorder{}
	mux := chi.NewRouter()
	mux.Post("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "correct horse" {
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"success": false, "message": "Invalid credentials"})
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "token", Value: sessionToken, Path: "/", HttpOnly: true})
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"user":    map[string]string{"id": "u-1", "email": body["email"], "name": "Ada"},
			"token":   sessionToken,
		})
	})
	mux.Get("/api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		seen.add(r)
		if !authed(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"success": false, "user": nil})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "user": map[string]string{"id": "u-1"}})
	})
	mux.Get("/api/entries", func(w http.ResponseWriter, r *http.Request) {
		seen.add(r)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true, "data": []interface{}{}, "total": 0, "page": 4, "limit": 5, "totalPages": 0,
		})
	})
	mux.Post("/api/entries", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false, "message": "Validation failed",
			"errors": map[string]string{"title": "Title is required"},
		})
	})
	mux.Put("/api/entries/{id}", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"entry":   map[string]interface{}{"id": chi.URLParam(r, "id"), "title": body["title"]},
		})
	})
	mux.Delete("/api/entries/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{"success": false, "message": "Entry not found"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, seen
}

func TestLoginStoresCookieAndToken(t *testing.T) {
	srv, _ := newServer(t)
	c, err := New(srv.URL)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = c.Me(ctx)
	assert.True(t, IsUnauthorized(err))

	u, err := c.Login(ctx, "ada@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "u-1", u.ID)
	assert.Equal(t, sessionToken, c.Token())

	me, err := c.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u-1", me.ID)
}

func TestBearerTokenOption(t *testing.T) {
	srv, seen := newServer(t)
	c, err := New(srv.URL, WithToken(sessionToken), WithTimeout(5*time.Second))
	require.NoError(t, err)

	_, err = c.Me(context.Background())
	require.NoError(t, err)
	reqs := seen.all()
	require.Len(t, reqs, 1)
	assert.Equal(t, "Bearer "+sessionToken, reqs[0].Header.Get("Authorization"))
}

func TestLoginFailureIsAPIError(t *testing.T) {
	srv, _ := newServer(t)
	c, err := New(srv.URL)
	require.NoError(t, err)

	_, err = c.Login(context.Background(), "ada@example.com", "wrong")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Invalid credentials", apiErr.Message)
	assert.Empty(t, c.Token())
}

func TestValidationFieldsSurface(t *testing.T) {
	srv, _ := newServer(t)
	c, err := New(srv.URL)
	require.NoError(t, err)

	_, err = c.CreateEntry(context.Background(), EntryInput{})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, map[string]string{"title": "Title is required"}, apiErr.Fields)
	assert.Contains(t, apiErr.Error(), "title: Title is required")
}

func TestListEntriesQuery(t *testing.T) {
	srv, seen := newServer(t)
	c, err := New(srv.URL)
	require.NoError(t, err)

	pinned := true
	list, err := c.ListEntries(context.Background(), ListFilter{
		Search: "rain", Mood: "sad", Pinned: &pinned,
		From: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Page: 4, Limit: 5,
	})
	require.NoError(t, err)
	assert.NotNil(t, list.Data)
	assert.Equal(t, 4, list.Page)

	reqs := seen.all()
	require.Len(t, reqs, 1)
	q := reqs[0].URL.Query()
	assert.Equal(t, "rain", q.Get("search"))
	assert.Equal(t, "sad", q.Get("mood"))
	assert.Equal(t, "true", q.Get("pinned"))
	assert.Equal(t, "2026-03-01", q.Get("from"))
	assert.Equal(t, "4", q.Get("page"))
	assert.False(t, q.Has("to"))
	assert.False(t, q.Has("tag"))
}

func TestUpdateAndDelete(t *testing.T) {
	srv, _ := newServer(t)
	c, err := New(srv.URL)
	require.NoError(t, err)
	ctx := context.Background()

	title := "Renamed"
	e, err := c.UpdateEntry(ctx, "abc123", EntryInput{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "abc123", e.ID)
	assert.Equal(t, "Renamed", e.Title)

	err = c.DeleteEntry(ctx, "abc123")
	assert.True(t, IsNotFound(err))
}

func TestNewRejectsBadURL(t *testing.T) {
	_, err := New("not a url")
	assert.Error(t, err)
}
