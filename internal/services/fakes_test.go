package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/zenjournal/zenjournal-backend/internal/models"
)

type memEntryStore struct {
	mu      sync.Mutex
	entries map[string]models.Entry
	lists   int
	finds   int
}

func newMemEntryStore() *memEntryStore {
	return &memEntryStore{entries: make(map[string]models.Entry)}
}

func (m *memEntryStore) Insert(_ context.Context, e *models.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	m.entries[e.ID.Hex()] = *e
	return nil
}

func (m *memEntryStore) FindByID(_ context.Context, id string) (*models.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finds++
	e, ok := m.entries[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &e, nil
}

func (m *memEntryStore) List(_ context.Context, f models.EntryFilter) ([]models.Entry, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists++

	var matched []models.Entry
	for _, e := range m.entries {
		if e.OwnerID != f.OwnerID {
			continue
		}
		if f.Search != "" {
			q := strings.ToLower(f.Search)
			if !strings.Contains(strings.ToLower(e.Title), q) && !strings.Contains(strings.ToLower(e.Content), q) {
				continue
			}
		}
		if f.Mood != "" && e.Mood != f.Mood {
			continue
		}
		matched = append(matched, e)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Pinned != matched[j].Pinned {
			return matched[i].Pinned
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	start := int(f.Skip())
	if start >= len(matched) {
		return []models.Entry{}, total, nil
	}
	end := start + f.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (m *memEntryStore) UpdateOwned(_ context.Context, id, ownerID string, p models.EntryPatch, now time.Time) (*models.Entry, error) {
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
	if p.Mood != nil {
		e.Mood = *p.Mood
	}
	if p.Visibility != nil {
		e.Visibility = *p.Visibility
	}
	if p.Tags != nil {
		e.Tags = *p.Tags
	}
	if p.Pinned != nil {
		e.Pinned = *p.Pinned
	}
	e.UpdatedAt = now
	m.entries[id] = e
	return &e, nil
}

func (m *memEntryStore) DeleteOwned(_ context.Context, id, ownerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok || e.OwnerID != ownerID {
		return models.ErrNotFound
	}
	delete(m.entries, id)
	return nil
}

// memCache mirrors EntryCache: Set never overwrites a present key and
// Invalidate leaves a tombstone behind.
type memCache struct {
	mu            sync.Mutex
	entries       map[string]models.Entry
	tombstones    map[string]bool
	invalidations []string
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string]models.Entry), tombstones: make(map[string]bool)}
}

func (c *memCache) Get(_ context.Context, id string) (*models.Entry, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[id]
	if !ok {
		return nil, false, nil
	}
	return &e, true, nil
}

func (c *memCache) Set(_ context.Context, e *models.Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := e.ID.Hex()
	if _, ok := c.entries[id]; ok || c.tombstones[id] {
		return nil
	}
	c.entries[id] = *e
	return nil
}

func (c *memCache) Invalidate(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
	c.tombstones[id] = true
	c.invalidations = append(c.invalidations, id)
	return nil
}

// pausingStore blocks the first FindByID after it has read the entry, until
// release is closed.
type pausingStore struct {
	*memEntryStore
	once    sync.Once
	read    chan struct{}
	release chan struct{}
}

func newPausingStore(inner *memEntryStore) *pausingStore {
	return &pausingStore{memEntryStore: inner, read: make(chan struct{}), release: make(chan struct{})}
}

func (p *pausingStore) FindByID(ctx context.Context, id string) (*models.Entry, error) {
	e, err := p.memEntryStore.FindByID(ctx, id)
	p.once.Do(func() {
		close(p.read)
		<-p.release
	})
	return e, err
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []EntryEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev EntryEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type memUserStore struct {
	mu    sync.Mutex
	users map[string]models.User
}

func newMemUserStore() *memUserStore { return &memUserStore{users: make(map[string]models.User)} }

func (m *memUserStore) Create(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.users[u.Email]; exists {
		return models.ErrConflict
	}
	u.CreatedAt = time.Now()
	m.users[u.Email] = *u
	return nil
}

func (m *memUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &u, nil
}

func strPtr(s string) *string { return &s }
