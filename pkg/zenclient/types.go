package zenclient

import (
	"net/url"
	"strconv"
	"time"
)

// DateLayout is the format of the from/to list filters.
const DateLayout = "2006-01-02"

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type Entry struct {
	ID         string    `json:"id"`
	OwnerID    string    `json:"owner_id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Mood       string    `json:"mood"`
	Visibility string    `json:"visibility"`
	Tags       []string  `json:"tags"`
	Pinned     bool      `json:"pinned"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// EntryInput is the body of create and update calls. Nil fields are omitted,
// which on update leaves the stored value unchanged.
type EntryInput struct {
	Title      *string   `json:"title,omitempty"`
	Content    *string   `json:"content,omitempty"`
	Mood       *string   `json:"mood,omitempty"`
	Visibility *string   `json:"visibility,omitempty"`
	Tags       *[]string `json:"tags,omitempty"`
	Pinned     *bool     `json:"pinned,omitempty"`
}

// ListFilter narrows ListEntries. Zero values are not sent.
type ListFilter struct {
	Search     string
	Mood       string
	Tag        string
	Visibility string
	Pinned     *bool
	From       time.Time
	To         time.Time // inclusive day
	Page       int
	Limit      int
}

func (f ListFilter) values() url.Values {
	q := url.Values{}
	set := func(k, v string) {
		if v != "" {
			q.Set(k, v)
		}
	}
	set("search", f.Search)
	set("mood", f.Mood)
	set("tag", f.Tag)
	set("visibility", f.Visibility)
	if f.Pinned != nil {
		q.Set("pinned", strconv.FormatBool(*f.Pinned))
	}
	if !f.From.IsZero() {
		q.Set("from", f.From.Format(DateLayout))
	}
	if !f.To.IsZero() {
		q.Set("to", f.To.Format(DateLayout))
	}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	return q
}

type EntryList struct {
	Data       []Entry `json:"data"`
	Total      int64   `json:"total"`
	Page       int     `json:"page"`
	Limit      int     `json:"limit"`
	TotalPages int64   `json:"totalPages"`
}

type authResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	User    *User  `json:"user"`
	Token   string `json:"token"`
}

type entryResponse struct {
	Success bool   `json:"success"`
	Entry   *Entry `json:"entry"`
}

type errorResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
}
