package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/zenjournal/zenjournal-backend/internal/models"
)

// EntriesCollection is the Mongo collection holding journal entries.
const EntriesCollection = "entries"

type EntryRepository struct {
	coll *mongo.Collection
}

func NewEntryRepository(db *mongo.Database) *EntryRepository {
	return &EntryRepository{coll: db.Collection(EntriesCollection)}
}

// EnsureIndexes creates the indexes listing and search rely on.
func (r *EntryRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "pinned", Value: -1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "tags", Value: 1}}},
		{Keys: bson.D{{Key: "visibility", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create entry indexes: %w", err)
	}
	return nil
}

// Insert stores a new entry, assigning an id when it has none.
func (r *EntryRepository) Insert(ctx context.Context, e *models.Entry) error {
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	if e.Tags == nil {
		e.Tags = []string{}
	}
	if _, err := r.coll.InsertOne(ctx, e); err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}
	return nil
}

// FindByID returns models.ErrNotFound for unknown and malformed ids alike.
func (r *EntryRepository) FindByID(ctx context.Context, id string) (*models.Entry, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.ErrNotFound
	}
	var e models.Entry
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&e); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("find entry: %w", err)
	}
	return &e, nil
}

// List returns one page of the owner's entries and the total match count.
func (r *EntryRepository) List(ctx context.Context, f models.EntryFilter) ([]models.Entry, int64, error) {
	filter := BuildListFilter(f)

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count entries: %w", err)
	}

	entries := []models.Entry{}
	if total == 0 || f.Skip() >= total {
		return entries, total, nil
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "pinned", Value: -1}, {Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(f.Skip()).
		SetLimit(int64(f.Limit))

	cursor, err := r.coll.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, 0, fmt.Errorf("find entries: %w", err)
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, &entries); err != nil {
		return nil, 0, fmt.Errorf("decode entries: %w", err)
	}
	return entries, total, nil
}

// UpdateOwned applies the patch only when both id and owner match, so a
// non-owner sees models.ErrNotFound exactly like a missing entry.
func (r *EntryRepository) UpdateOwned(ctx context.Context, id, ownerID string, patch models.EntryPatch, now time.Time) (*models.Entry, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.ErrNotFound
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var e models.Entry
	err = r.coll.FindOneAndUpdate(ctx, ownedFilter(oid, ownerID), BuildUpdate(patch, now), opts).Decode(&e)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("update entry: %w", err)
	}
	return &e, nil
}

// DeleteOwned removes the entry only when both id and owner match.
func (r *EntryRepository) DeleteOwned(ctx context.Context, id, ownerID string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.ErrNotFound
	}
	res, err := r.coll.DeleteOne(ctx, ownedFilter(oid, ownerID))
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	if res.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func ownedFilter(id primitive.ObjectID, ownerID string) bson.M {
	return bson.M{"_id": id, "owner_id": ownerID}
}

// BuildListFilter translates a listing filter into a Mongo query. Search
// input is escaped so it always matches literally.
func BuildListFilter(f models.EntryFilter) bson.M {
	filter := bson.M{"owner_id": f.OwnerID}

	if f.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"title": pattern},
			bson.M{"content": pattern},
		}
	}
	if f.Mood != "" {
		filter["mood"] = f.Mood
	}
	if f.Tag != "" {
		filter["tags"] = f.Tag
	}
	if f.Visibility != "" {
		filter["visibility"] = f.Visibility
	}
	if f.PinnedOnly {
		filter["pinned"] = true
	}
	if f.From != nil || f.To != nil {
		created := bson.M{}
		if f.From != nil {
			created["$gte"] = *f.From
		}
		if f.To != nil {
			created["$lt"] = *f.To
		}
		filter["created_at"] = created
	}
	return filter
}

// BuildUpdate turns a patch into a $set document. updated_at always moves.
func BuildUpdate(p models.EntryPatch, now time.Time) bson.M {
	set := bson.M{"updated_at": now}
	if p.Title != nil {
		set["title"] = *p.Title
	}
	if p.Content != nil {
		set["content"] = *p.Content
	}
	if p.Mood != nil {
		set["mood"] = *p.Mood
	}
	if p.Visibility != nil {
		set["visibility"] = *p.Visibility
	}
	if p.Tags != nil {
		tags := *p.Tags
		if tags == nil {
			tags = []string{}
		}
		set["tags"] = tags
	}
	if p.Pinned != nil {
		set["pinned"] = *p.Pinned
	}
	return bson.M{"$set": set}
}
