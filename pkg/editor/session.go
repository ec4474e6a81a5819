// Package editor drives a single journal entry through loading, editing,
// debounced autosave and deletion against the ZenJournal API.
package editor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zenjournal/zenjournal-backend/pkg/zenclient"
)

const (
	DefaultDebounce    = 2 * time.Second
	DefaultSaveTimeout = 10 * time.Second

	NewEntryPath = "/entry/new"
	HomePath     = "/"
)

var (
	ErrReadOnly     = errors.New("editor: entry is read-only")
	ErrNotReady     = errors.New("editor: session is not ready")
	ErrUnsaved      = errors.New("editor: entry has not been saved yet")
	ErrEmptyDraft   = errors.New("editor: title and content are both empty")
	ErrClosed       = errors.New("editor: session is closed")
	ErrNoConfirming = errors.New("editor: no delete awaiting confirmation")
)

type State string

const (
	StateLoading       State = "loading"
	StateError         State = "error"
	StateReady         State = "ready"
	StateConfirmDelete State = "confirm_delete"
	StateDeleted       State = "deleted"
)

type Mode string

const (
	ModeWrite   Mode = "write"
	ModePreview Mode = "preview"
)

// EntryAPI is the subset of the API client a session needs.
type EntryAPI interface {
	GetEntry(ctx context.Context, id string) (*zenclient.Entry, error)
	CreateEntry(ctx context.Context, in zenclient.EntryInput) (*zenclient.Entry, error)
	UpdateEntry(ctx context.Context, id string, in zenclient.EntryInput) (*zenclient.Entry, error)
	DeleteEntry(ctx context.Context, id string) error
}

// Navigator changes the visible location. Replace rewrites the current
// history entry, Push adds one.
type Navigator interface {
	Replace(path string)
	Push(path string)
}

type Notifier interface {
	Notify(n Notification)
}

type NotificationKind string

const (
	AutosaveFailed NotificationKind = "autosave_failed"
	SaveFailed     NotificationKind = "save_failed"
	SaveSucceeded  NotificationKind = "save_succeeded"
	DeleteFailed   NotificationKind = "delete_failed"
	Deleted        NotificationKind = "deleted"
	LoadFailed     NotificationKind = "load_failed"
)

// Notification is a dismissible message for the user.
type Notification struct {
	Kind    NotificationKind
	Message string
	Err     error
}

type Config struct {
	API       EntryAPI
	Navigator Navigator
	Notifier  Notifier
	// ViewerID is the signed-in user. Entries owned by someone else open read-only.
	ViewerID    string
	Debounce    time.Duration
	SaveTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.Debounce <= 0 {
		c.Debounce = DefaultDebounce
	}
	if c.SaveTimeout <= 0 {
		c.SaveTimeout = DefaultSaveTimeout
	}
	if c.Navigator == nil {
		c.Navigator = nopNavigator{}
	}
	if c.Notifier == nil {
		c.Notifier = nopNotifier{}
	}
	return c
}

// Draft is the editable part of an entry.
type Draft struct {
	Title      string
	Content    string
	Mood       string
	Visibility string
	Tags       []string
	Pinned     bool
}

func defaultDraft() Draft {
	return Draft{Mood: "neutral", Visibility: "private", Tags: []string{}}
}

func (d Draft) empty() bool {
	return strings.TrimSpace(d.Title) == "" && strings.TrimSpace(d.Content) == ""
}

// complete reports whether the server will accept the draft as a new entry.
func (d Draft) complete() bool {
	return strings.TrimSpace(d.Title) != "" && strings.TrimSpace(d.Content) != ""
}

func (d Draft) clone() Draft {
	d.Tags = append([]string{}, d.Tags...)
	return d
}

func (d Draft) input() zenclient.EntryInput {
	tags := append([]string{}, d.Tags...)
	return zenclient.EntryInput{
		Title:      &d.Title,
		Content:    &d.Content,
		Mood:       &d.Mood,
		Visibility: &d.Visibility,
		Tags:       &tags,
		Pinned:     &d.Pinned,
	}
}

func draftFrom(e *zenclient.Entry) Draft {
	d := Draft{
		Title:      e.Title,
		Content:    e.Content,
		Mood:       e.Mood,
		Visibility: e.Visibility,
		Tags:       append([]string{}, e.Tags...),
		Pinned:     e.Pinned,
	}
	if d.Mood == "" {
		d.Mood = "neutral"
	}
	if d.Visibility == "" {
		d.Visibility = "private"
	}
	return d
}

// Session is one open editor. All methods are safe for concurrent use.
// Navigator and Notifier are called without the session lock held, so they
// may call back into the session.
type Session struct {
	cfg Config

	mu       sync.Mutex
	idle     *sync.Cond // signalled when an in-flight save returns
	state    State
	mode     Mode
	err      error
	id       string
	draft    Draft
	readOnly bool
	dirty    bool
	rev      uint64
	timer    *time.Timer
	timerGen uint64
	saving   bool
	pending  bool
	replaced bool
	closed   bool
	outbox   []func() // run by unlock after mu is released
}

func newSession(cfg Config) *Session {
	s := &Session{cfg: cfg.withDefaults(), mode: ModeWrite}
	s.idle = sync.NewCond(&s.mu)
	return s
}

// New opens an editor for an entry that does not exist yet.
func New(cfg Config) *Session {
	s := newSession(cfg)
	s.state = StateReady
	s.draft = defaultDraft()
	return s
}

// Open loads entry id. The returned session is in StateReady or, when the
// load fails, StateError with Err set. An id of "" or "new" behaves like New.
func Open(ctx context.Context, cfg Config, id string) *Session {
	if id == "" || id == "new" {
		return New(cfg)
	}
	s := newSession(cfg)
	s.state = StateLoading
	s.id = id

	e, err := s.cfg.API.GetEntry(ctx, id)
	s.mu.Lock()
	defer s.unlock()
	if err == nil && e == nil {
		err = zenclient.ErrEmptyResponse
	}
	if err != nil {
		s.state = StateError
		s.err = err
		s.notifyLocked(Notification{Kind: LoadFailed, Message: "Could not open this entry", Err: err})
		return s
	}
	s.draft = draftFrom(e)
	s.readOnly = e.OwnerID != s.cfg.ViewerID
	s.replaced = true
	s.state = StateReady
	return s
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// ID is "" until the first successful save of a new entry.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

func (s *Session) Draft() Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.clone()
}

func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

func (s *Session) ReadOnly() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readOnly
}

func (s *Session) Saving() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saving
}

// CanDelete reports whether the delete action should be offered.
func (s *Session) CanDelete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateReady && !s.readOnly && s.id != ""
}

// SetMode switches between writing and previewing. Read-only sessions may
// switch too.
func (s *Session) SetMode(m Mode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateReady {
		return ErrNotReady
	}
	s.mode = m
	return nil
}

func (s *Session) ToggleMode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode == ModeWrite {
		s.mode = ModePreview
	} else {
		s.mode = ModeWrite
	}
	return s.mode
}

func (s *Session) SetTitle(title string) error {
	return s.edit(func(d *Draft) { d.Title = title })
}

func (s *Session) SetContent(content string) error {
	return s.edit(func(d *Draft) { d.Content = content })
}

// AppendContent adds text to the end of the content.
func (s *Session) AppendContent(text string) error {
	return s.edit(func(d *Draft) { d.Content += text })
}

func (s *Session) SetMood(mood string) error {
	return s.edit(func(d *Draft) { d.Mood = mood })
}

func (s *Session) SetVisibility(v string) error {
	return s.edit(func(d *Draft) { d.Visibility = v })
}

func (s *Session) SetTags(tags []string) error {
	return s.edit(func(d *Draft) { d.Tags = append([]string{}, tags...) })
}

func (s *Session) SetPinned(pinned bool) error {
	return s.edit(func(d *Draft) { d.Pinned = pinned })
}

func (s *Session) edit(apply func(*Draft)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writableLocked(); err != nil {
		return err
	}
	apply(&s.draft)
	s.dirty = true
	s.rev++
	s.scheduleLocked()
	return nil
}

func (s *Session) writableLocked() error {
	switch {
	case s.closed:
		return ErrClosed
	case s.readOnly:
		return ErrReadOnly
	case s.state != StateReady:
		return ErrNotReady
	}
	return nil
}

func (s *Session) scheduleLocked() {
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timerGen++
	gen := s.timerGen
	s.timer = time.AfterFunc(s.cfg.Debounce, func() { s.autosave(gen) })
}

func (s *Session) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// autosave runs when the debounce timer fires. A save already in flight
// absorbs the trigger into one follow-up. A new entry is not created until
// both title and content are present.
func (s *Session) autosave(gen uint64) {
	s.mu.Lock()
	defer s.unlock()
	if gen == s.timerGen {
		s.timer = nil
	}
	if s.closed || s.readOnly || s.state != StateReady {
		return
	}
	if s.saving {
		s.pending = true
		return
	}
	for s.dirty && !s.draft.empty() && (s.id != "" || s.draft.complete()) && !s.closed {
		s.pending = false
		err := s.saveLocked(context.Background())
		if err != nil {
			s.notifyLocked(Notification{Kind: AutosaveFailed, Message: "Autosave failed. Retrying shortly.", Err: err})
			// retry on the next debounce cycle
			if retryable(err) && !s.closed && s.timer == nil {
				s.scheduleLocked()
			}
			return
		}
		if !s.pending {
			return
		}
	}
}

// saveLocked persists the current draft. The lock is released for the
// duration of the request; saving is held so no second save starts.
func (s *Session) saveLocked(parent context.Context) error {
	s.saving = true
	snapshot := s.draft.clone()
	rev := s.rev
	id := s.id
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(parent, s.cfg.SaveTimeout)
	var (
		saved *zenclient.Entry
		err   error
	)
	if id == "" {
		saved, err = s.cfg.API.CreateEntry(ctx, snapshot.input())
	} else {
		saved, err = s.cfg.API.UpdateEntry(ctx, id, snapshot.input())
	}
	cancel()

	s.mu.Lock()
	s.saving = false
	s.idle.Broadcast()
	if err == nil && saved == nil {
		err = zenclient.ErrEmptyResponse
	}
	if err != nil {
		log.Debug().Err(err).Str("entry_id", id).Msg("entry save failed")
		return err
	}
	if id == "" {
		s.id = saved.ID
		if !s.replaced {
			s.replaced = true
			path := "/entry/" + saved.ID
			s.outbox = append(s.outbox, func() { s.cfg.Navigator.Replace(path) })
		}
	}
	if s.rev == rev {
		s.dirty = false
	}
	return nil
}

// unlock releases mu, then runs the callbacks queued while it was held.
// Callbacks queued during a save wait for the caller's unlock, when no save
// is in flight.
func (s *Session) unlock() {
	queued := s.outbox
	s.outbox = nil
	s.mu.Unlock()
	for _, fn := range queued {
		fn()
	}
}

func (s *Session) notifyLocked(n Notification) {
	s.outbox = append(s.outbox, func() { s.cfg.Notifier.Notify(n) })
}

func (s *Session) pushLocked(path string) {
	s.outbox = append(s.outbox, func() { s.cfg.Navigator.Push(path) })
}

// waitIdleLocked blocks until no save is in flight.
func (s *Session) waitIdleLocked() {
	for s.saving {
		s.idle.Wait()
	}
}

// Save persists immediately and navigates home. The pending autosave is
// cancelled. An in-flight autosave is waited for first.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.unlock()
	if err := s.writableLocked(); err != nil {
		return err
	}
	s.stopTimerLocked()
	s.waitIdleLocked()
	if err := s.writableLocked(); err != nil {
		return err
	}
	if s.draft.empty() {
		return ErrEmptyDraft
	}
	if s.dirty || s.id == "" {
		err := s.saveLocked(ctx)
		if s.pending {
			s.pending = false
			if s.dirty {
				s.scheduleLocked()
			}
		}
		if err != nil {
			s.notifyLocked(Notification{Kind: SaveFailed, Message: saveFailureMessage(err), Err: err})
			return err
		}
	}
	s.notifyLocked(Notification{Kind: SaveSucceeded, Message: "Entry saved successfully"})
	s.pushLocked(HomePath)
	return nil
}

// retryable is false for requests the server rejected as invalid; those
// wait for the next edit.
func retryable(err error) bool {
	code := zenclient.StatusCode(err)
	return code < 400 || code >= 500 || code == 429
}

func saveFailureMessage(err error) string {
	var apiErr *zenclient.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return "Failed to save entry"
}

// RequestDelete asks for confirmation. Unsaved entries cannot be deleted.
func (s *Session) RequestDelete() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writableLocked(); err != nil {
		return err
	}
	if s.id == "" {
		return ErrUnsaved
	}
	s.state = StateConfirmDelete
	return nil
}

func (s *Session) CancelDelete() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateConfirmDelete {
		return ErrNoConfirming
	}
	s.state = StateReady
	if s.dirty {
		s.scheduleLocked()
	}
	return nil
}

// ConfirmDelete deletes the entry and navigates home. On failure the session
// returns to ready.
func (s *Session) ConfirmDelete(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateConfirmDelete {
		s.mu.Unlock()
		return ErrNoConfirming
	}
	s.stopTimerLocked()
	s.waitIdleLocked()
	id := s.id
	s.mu.Unlock()

	err := s.cfg.API.DeleteEntry(ctx, id)

	s.mu.Lock()
	defer s.unlock()
	if err != nil {
		s.state = StateReady
		if s.dirty {
			s.scheduleLocked()
		}
		s.notifyLocked(Notification{Kind: DeleteFailed, Message: "Failed to delete entry", Err: err})
		return err
	}
	s.state = StateDeleted
	s.dirty = false
	s.notifyLocked(Notification{Kind: Deleted, Message: "Entry deleted"})
	s.pushLocked(HomePath)
	return nil
}

// Close stops the autosave timer and waits for an in-flight save. Unsaved
// changes are discarded.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.stopTimerLocked()
	s.waitIdleLocked()
}

type nopNavigator struct{}

func (nopNavigator) Replace(string) {}
func (nopNavigator) Push(string)    {}

type nopNotifier struct{}

func (nopNotifier) Notify(Notification) {}
