package handlers

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zenjournal/zenjournal-backend/internal/auth"
	"github.com/zenjournal/zenjournal-backend/internal/metrics"
	"github.com/zenjournal/zenjournal-backend/internal/models"
	"github.com/zenjournal/zenjournal-backend/internal/services"
)

const dateLayout = "2006-01-02"

// EntryResponse wraps a single entry.
type EntryResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message,omitempty"`
	Entry   *models.Entry `json:"entry,omitempty"`
}

// ListEntriesResponse is one page of the caller's entries.
type ListEntriesResponse struct {
	Success bool `json:"success"`
	models.EntryPage
}

type EntryHandler struct {
	svc *services.EntryService
}

func NewEntryHandler(svc *services.EntryService) *EntryHandler {
	return &EntryHandler{svc: svc}
}

// ParseListFilter reads listing query parameters. Bad page and limit values
// fall back to defaults; bad enum or date values are reported.
func ParseListFilter(q url.Values, ownerID string) (models.EntryFilter, error) {
	f := models.EntryFilter{
		OwnerID: ownerID,
		Search:  strings.TrimSpace(q.Get("search")),
		Tag:     strings.TrimSpace(q.Get("tag")),
	}
	f.Page, _ = strconv.Atoi(q.Get("page"))
	f.Limit, _ = strconv.Atoi(q.Get("limit"))
	f.Page, f.Limit = services.NormalizePaging(f.Page, f.Limit)

	verr := &models.ValidationError{}
	if v := strings.TrimSpace(q.Get("mood")); v != "" {
		f.Mood = models.Mood(v)
		if !f.Mood.Valid() {
			verr.Add("mood", "Unknown mood")
		}
	}
	if v := strings.TrimSpace(q.Get("visibility")); v != "" {
		f.Visibility = models.Visibility(v)
		if !f.Visibility.Valid() {
			verr.Add("visibility", "Unknown visibility")
		}
	}
	if v := strings.TrimSpace(q.Get("pinned")); v != "" {
		f.PinnedOnly, _ = strconv.ParseBool(v)
	}
	if v := strings.TrimSpace(q.Get("from")); v != "" {
		from, err := time.Parse(dateLayout, v)
		if err != nil {
			verr.Add("from", "Date must be YYYY-MM-DD")
		} else {
			f.From = &from
		}
	}
	if v := strings.TrimSpace(q.Get("to")); v != "" {
		to, err := time.Parse(dateLayout, v)
		if err != nil {
			verr.Add("to", "Date must be YYYY-MM-DD")
		} else {
			end := to.AddDate(0, 0, 1)
			f.To = &end
		}
	}
	if f.From != nil && f.To != nil && !f.From.Before(*f.To) {
		verr.Add("to", "End date must not be before start date")
	}
	return f, verr.OrNil()
}

// List handles GET /api/entries
func (h *EntryHandler) List(w http.ResponseWriter, r *http.Request) {
	f, err := ParseListFilter(r.URL.Query(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	page, err := h.svc.List(ctx, f)
	if err != nil {
		metrics.EntryOperation("list", "failure")
		writeServiceError(w, r, err)
		return
	}
	metrics.EntryOperation("list", "success")
	writeJSON(w, http.StatusOK, ListEntriesResponse{Success: true, EntryPage: *page})
}

// Get handles GET /api/entries/{id}. A session is optional.
func (h *EntryHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	e, err := h.svc.Get(ctx, chi.URLParam(r, "id"), auth.UserIDFromContext(r.Context()))
	if err != nil {
		metrics.EntryOperation("get", "failure")
		writeServiceError(w, r, err)
		return
	}
	metrics.EntryOperation("get", "success")
	writeJSON(w, http.StatusOK, EntryResponse{Success: true, Entry: e})
}

// Create handles POST /api/entries
func (h *EntryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.EntryInput
	if !decodeJSON(w, r, &in) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	e, err := h.svc.Create(ctx, auth.UserIDFromContext(r.Context()), in)
	if err != nil {
		metrics.EntryOperation("create", "failure")
		writeServiceError(w, r, err)
		return
	}
	metrics.EntryOperation("create", "success")
	writeJSON(w, http.StatusCreated, EntryResponse{Success: true, Message: "Entry created", Entry: e})
}

// Update handles PUT /api/entries/{id}
func (h *EntryHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in services.EntryInput
	if !decodeJSON(w, r, &in) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	e, err := h.svc.Update(ctx, chi.URLParam(r, "id"), auth.UserIDFromContext(r.Context()), in)
	if err != nil {
		metrics.EntryOperation("update", "failure")
		writeServiceError(w, r, err)
		return
	}
	metrics.EntryOperation("update", "success")
	writeJSON(w, http.StatusOK, EntryResponse{Success: true, Message: "Entry updated", Entry: e})
}

// Delete handles DELETE /api/entries/{id}
func (h *EntryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.svc.Delete(ctx, chi.URLParam(r, "id"), auth.UserIDFromContext(r.Context())); err != nil {
		metrics.EntryOperation("delete", "failure")
		writeServiceError(w, r, err)
		return
	}
	metrics.EntryOperation("delete", "success")
	writeJSON(w, http.StatusOK, MessageResponse{Success: true})
}
