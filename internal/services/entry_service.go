package services

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/zenjournal/zenjournal-backend/internal/models"
	"github.com/zenjournal/zenjournal-backend/pkg/utils"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// EntryStore persists entries. Update and delete match on id and owner together.
type EntryStore interface {
	Insert(ctx context.Context, e *models.Entry) error
	FindByID(ctx context.Context, id string) (*models.Entry, error)
	List(ctx context.Context, f models.EntryFilter) ([]models.Entry, int64, error)
	UpdateOwned(ctx context.Context, id, ownerID string, patch models.EntryPatch, now time.Time) (*models.Entry, error)
	DeleteOwned(ctx context.Context, id, ownerID string) error
}

// PublicEntryCache holds public entries for reads by id.
type PublicEntryCache interface {
	Get(ctx context.Context, id string) (*models.Entry, bool, error)
	Set(ctx context.Context, e *models.Entry) error
	Invalidate(ctx context.Context, id string) error
}

// EntryInput is the client body for create and update. Owner fields are
// not part of it, so anything a client sends for them is dropped on decode.
type EntryInput struct {
	Title      *string   `json:"title"`
	Content    *string   `json:"content"`
	Mood       *string   `json:"mood"`
	Visibility *string   `json:"visibility"`
	Tags       *[]string `json:"tags"`
	Pinned     *bool     `json:"pinned"`
}

type EntryService struct {
	store  EntryStore
	cache  PublicEntryCache
	events EventPublisher
	now    func() time.Time
}

// NewEntryService wires the store. cache and events are optional.
func NewEntryService(store EntryStore, cache PublicEntryCache, events EventPublisher) *EntryService {
	return &EntryService{store: store, cache: cache, events: events, now: time.Now}
}

// NormalizePaging applies defaults to non-positive values and caps the limit.
func NormalizePaging(page, limit int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}

// List returns one page of the caller's own entries.
func (s *EntryService) List(ctx context.Context, f models.EntryFilter) (*models.EntryPage, error) {
	if f.OwnerID == "" {
		return nil, models.ErrUnauthorized
	}
	f.Page, f.Limit = NormalizePaging(f.Page, f.Limit)
	f.Search = strings.TrimSpace(f.Search)
	f.Tag = strings.TrimSpace(f.Tag)

	entries, total, err := s.store.List(ctx, f)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []models.Entry{}
	}
	return &models.EntryPage{
		Data:       entries,
		Total:      total,
		Page:       f.Page,
		Limit:      f.Limit,
		TotalPages: models.TotalPages(total, f.Limit),
	}, nil
}

// Get returns the entry when the viewer may read it. viewerID is "" for
// anonymous readers.
func (s *EntryService) Get(ctx context.Context, id, viewerID string) (*models.Entry, error) {
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, id)
		if err != nil {
			log.Warn().Err(err).Str("entry_id", id).Msg("entry cache read failed")
		} else if ok && cached.Visibility == models.VisibilityPublic {
			return cached, nil
		}
	}

	e, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !e.ReadableBy(viewerID) {
		return nil, models.ErrForbidden
	}
	if s.cache != nil && e.Visibility == models.VisibilityPublic {
		if err := s.cache.Set(ctx, e); err != nil {
			log.Warn().Err(err).Str("entry_id", id).Msg("entry cache write failed")
		}
	}
	return e, nil
}

// Create stamps the owner from the session and fills defaults.
func (s *EntryService) Create(ctx context.Context, ownerID string, in EntryInput) (*models.Entry, error) {
	if ownerID == "" {
		return nil, models.ErrUnauthorized
	}

	verr := &models.ValidationError{}
	if in.Title == nil || strings.TrimSpace(*in.Title) == "" {
		verr.Add("title", "Title is required")
	}
	if in.Content == nil || strings.TrimSpace(*in.Content) == "" {
		verr.Add("content", "Content is required")
	}
	patch := validateInput(in, verr)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	e := &models.Entry{
		CreatedAt:  now,
		UpdatedAt:  now,
		OwnerID:    ownerID,
		Title:      *patch.Title,
		Content:    *patch.Content,
		Mood:       models.MoodNeutral,
		Visibility: models.VisibilityPrivate,
		Tags:       []string{},
	}
	if patch.Mood != nil {
		e.Mood = *patch.Mood
	}
	if patch.Visibility != nil {
		e.Visibility = *patch.Visibility
	}
	if patch.Tags != nil {
		e.Tags = *patch.Tags
	}
	if patch.Pinned != nil {
		e.Pinned = *patch.Pinned
	}

	if err := s.store.Insert(ctx, e); err != nil {
		return nil, err
	}
	s.publish(ctx, EventEntryCreated, e.ID.Hex(), e.OwnerID, e)
	return e, nil
}

// Update changes only the provided fields of an entry the caller owns.
// Someone else's entry is reported as models.ErrNotFound.
func (s *EntryService) Update(ctx context.Context, id, ownerID string, in EntryInput) (*models.Entry, error) {
	if ownerID == "" {
		return nil, models.ErrUnauthorized
	}

	verr := &models.ValidationError{}
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		verr.Add("title", "Title cannot be empty")
	}
	if in.Content != nil && strings.TrimSpace(*in.Content) == "" {
		verr.Add("content", "Content cannot be empty")
	}
	patch := validateInput(in, verr)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	e, err := s.store.UpdateOwned(ctx, id, ownerID, patch, s.now().UTC())
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	s.publish(ctx, EventEntryUpdated, id, ownerID, e)
	return e, nil
}

// Delete removes an entry the caller owns.
func (s *EntryService) Delete(ctx context.Context, id, ownerID string) error {
	if ownerID == "" {
		return models.ErrUnauthorized
	}
	if err := s.store.DeleteOwned(ctx, id, ownerID); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	s.publish(ctx, EventEntryDeleted, id, ownerID, nil)
	return nil
}

func (s *EntryService) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		log.Warn().Err(err).Str("entry_id", id).Msg("entry cache invalidation failed")
	}
}

func (s *EntryService) publish(ctx context.Context, typ, id, ownerID string, e *models.Entry) {
	if s.events == nil {
		return
	}
	err := s.events.Publish(ctx, EntryEvent{
		Type:      typ,
		EntryID:   id,
		OwnerID:   ownerID,
		Entry:     e,
		Timestamp: s.now().UTC(),
	})
	if err != nil {
		log.Warn().Err(err).Str("entry_id", id).Str("type", typ).Msg("entry event publish failed")
	}
}

// validateInput checks the optional fields and converts them into a patch.
// Required-field checks are left to the caller.
func validateInput(in EntryInput, verr *models.ValidationError) models.EntryPatch {
	var p models.EntryPatch

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if utf8.RuneCountInString(title) > utils.MaxTitleLength {
			verr.Add("title", "Title must be at most 200 characters")
		}
		p.Title = &title
	}
	if in.Content != nil {
		content := *in.Content
		p.Content = &content
	}
	if in.Mood != nil {
		mood := models.Mood(strings.TrimSpace(*in.Mood))
		if !mood.Valid() {
			verr.Add("mood", "Mood must be one of happy, sad, neutral, anxious, excited")
		}
		p.Mood = &mood
	}
	if in.Visibility != nil {
		vis := models.Visibility(strings.TrimSpace(*in.Visibility))
		if !vis.Valid() {
			verr.Add("visibility", "Visibility must be one of private, draft, public")
		}
		p.Visibility = &vis
	}
	if in.Tags != nil {
		tags := utils.NormalizeTags(*in.Tags)
		if msg := utils.ValidateTags(tags); msg != "" {
			verr.Add("tags", msg)
		}
		p.Tags = &tags
	}
	if in.Pinned != nil {
		pinned := *in.Pinned
		p.Pinned = &pinned
	}
	return p
}
