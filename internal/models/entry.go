package models

import (
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Mood string

const (
	MoodHappy   Mood = "happy"
	MoodSad     Mood = "sad"
	MoodNeutral Mood = "neutral"
	MoodAnxious Mood = "anxious"
	MoodExcited Mood = "excited"
)

// Moods lists every accepted mood in display order.
var Moods = []Mood{MoodHappy, MoodSad, MoodNeutral, MoodAnxious, MoodExcited}

func (m Mood) Valid() bool {
	for _, v := range Moods {
		if m == v {
			return true
		}
	}
	return false
}

type Visibility string

const (
	VisibilityPrivate Visibility = "private"
	VisibilityDraft   Visibility = "draft"
	VisibilityPublic  Visibility = "public"
)

var Visibilities = []Visibility{VisibilityPrivate, VisibilityDraft, VisibilityPublic}

func (v Visibility) Valid() bool {
	for _, x := range Visibilities {
		if v == x {
			return true
		}
	}
	return false
}

// Entry is a single journal document. OwnerID is the UUID of the user that created it.
type Entry struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updated_at"`
	OwnerID    string             `bson:"owner_id" json:"owner_id"`
	Title      string             `bson:"title" json:"title"`
	Content    string             `bson:"content" json:"content"`
	Mood       Mood               `bson:"mood" json:"mood"`
	Visibility Visibility         `bson:"visibility" json:"visibility"`
	Tags       []string           `bson:"tags" json:"tags"`
	Pinned     bool               `bson:"pinned" json:"pinned"`
}

// ReadableBy reports whether the user may read the entry. An empty userID is an anonymous reader.
func (e *Entry) ReadableBy(userID string) bool {
	if e.Visibility == VisibilityPublic {
		return true
	}
	return userID != "" && e.OwnerID == userID
}

// EntryFilter narrows a listing of one owner's entries.
type EntryFilter struct {
	OwnerID    string
	Search     string
	Mood       Mood
	Tag        string
	Visibility Visibility
	PinnedOnly bool
	From       *time.Time
	To         *time.Time // exclusive upper bound
	Page       int
	Limit      int
}

// Skip returns the number of documents to skip for the filter's page. Pages
// too far out to represent saturate at math.MaxInt64.
func (f EntryFilter) Skip() int64 {
	if f.Page <= 1 || f.Limit <= 0 {
		return 0
	}
	pages := int64(f.Page - 1)
	if pages > math.MaxInt64/int64(f.Limit) {
		return math.MaxInt64
	}
	return pages * int64(f.Limit)
}

// EntryPatch carries the fields of a partial update. Nil fields are left unchanged.
type EntryPatch struct {
	Title      *string
	Content    *string
	Mood       *Mood
	Visibility *Visibility
	Tags       *[]string
	Pinned     *bool
}

// EntryPage is one page of a listing.
type EntryPage struct {
	Data       []Entry `json:"data"`
	Total      int64   `json:"total"`
	Page       int     `json:"page"`
	Limit      int     `json:"limit"`
	TotalPages int64   `json:"totalPages"`
}

// TotalPages returns ceil(total/limit); zero when limit is not positive.
func TotalPages(total int64, limit int) int64 {
	if limit <= 0 {
		return 0
	}
	return (total + int64(limit) - 1) / int64(limit)
}
