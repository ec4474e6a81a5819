package routes

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/zenjournal/zenjournal-backend/internal/models"
)

type memUsers struct {
	mu    sync.Mutex
	users map[string]models.User
}

func (m *memUsers) Create(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.Email]; ok {
		return models.ErrConflict
	}
	u.CreatedAt = time.Now()
	m.users[u.Email] = *u
	return nil
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &u, nil
}

type memEntries struct {
	mu      sync.Mutex
	entries map[string]models.Entry
}

func (m *memEntries) Insert(_ context.Context, e *models.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = primitive.NewObjectID()
	m.entries[e.ID.Hex()] = *e
	return nil
}

func (m *memEntries) FindByID(_ context.Context, id string) (*models.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &e, nil
}

func (m *memEntries) List(_ context.Context, f models.EntryFilter) ([]models.Entry, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Entry
	for _, e := range m.entries {
		if e.OwnerID == f.OwnerID && (f.Mood == "" || e.Mood == f.Mood) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Hex() > out[j].ID.Hex() })
	total := int64(len(out))
	start := int(f.Skip())
	if start >= len(out) {
		return []models.Entry{}, total, nil
	}
	end := start + f.Limit
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], total, nil
}

func (m *memEntries) UpdateOwned(_ context.Context, id, ownerID string, p models.EntryPatch, now time.Time) (*models.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok || e.OwnerID != ownerID {
		return nil, models.ErrNotFound
	}
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Content != nil {
		e.Content = *p.Content
	}
	if p.Visibility != nil {
		e.Visibility = *p.Visibility
	}
	if p.Mood != nil {
		e.Mood = *p.Mood
	}
	e.UpdatedAt = now
	m.entries[id] = e
	return &e, nil
}

func (m *memEntries) DeleteOwned(_ context.Context, id, ownerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok || e.OwnerID != ownerID {
		return models.ErrNotFound
	}
	delete(m.entries, id)
	return nil
}
