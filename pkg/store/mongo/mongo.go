// Package mongo implements store.Store on MongoDB for deployments where
// several API servers share history.
//
// Collections mirror the SQLite tables: mod_cache, user_uploads and
// mod_sizes.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/jfahler/loadmasterbot/pkg/store"
)

// DefaultDatabase is used when Config.Database is empty.
const DefaultDatabase = "loadmaster"

// Config configures [Open].
type Config struct {
	URI      string
	Database string
}

// Store is a MongoDB-backed store.Store.
type Store struct {
	client  *mongo.Client
	db      *mongo.Database
	uploads *mongo.Collection
	items   *mongo.Collection
	sizes   *mongo.Collection

	mu  sync.RWMutex
	now func() time.Time
}

type uploadDoc struct {
	ID          string    `bson:"_id"`
	SubmitterID string    `bson:"submitter_id"`
	ContextID   string    `bson:"context_id"`
	Identifiers []string  `bson:"identifiers"`
	TotalSizeGB float64   `bson:"total_size_gb"`
	CreatedAt   time.Time `bson:"created_at"`
	Seq         int64     `bson:"seq"`
}

type sizeDoc struct {
	ID        string    `bson:"_id"`
	SizeGB    float64   `bson:"size_gb"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// Open connects, pings the primary and ensures indexes exist.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.URI == "" {
		return nil, errors.New("mongo: empty URI")
	}
	if cfg.Database == "" {
		cfg.Database = DefaultDatabase
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := client.Database(cfg.Database)
	s := &Store{
		client:  client,
		db:      db,
		uploads: db.Collection("user_uploads"),
		items:   db.Collection("mod_cache"),
		sizes:   db.Collection("mod_sizes"),
		now:     time.Now,
	}

	_, err = s.uploads.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "submitter_id", Value: 1}, {Key: "context_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo index: %w", err)
	}
	return s, nil
}

// SetClock replaces the time source. Used by tests.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

func (s *Store) clock() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.now()
}

// Drop deletes the whole database. Tests use it to clean up.
func (s *Store) Drop(ctx context.Context) error {
	return s.db.Drop(ctx)
}

func (s *Store) LastSubmission(ctx context.Context, submitterID, contextID string) (*store.Submission, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "seq", Value: -1}})
	var doc uploadDoc
	err := s.uploads.FindOne(ctx, bson.M{"submitter_id": submitterID, "context_id": contextID}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	sub := &store.Submission{
		SubmitterID: doc.SubmitterID,
		ContextID:   doc.ContextID,
		Identifiers: doc.Identifiers,
		TotalSizeGB: doc.TotalSizeGB,
		CreatedAt:   doc.CreatedAt.UTC(),
	}
	if sub.Identifiers == nil {
		sub.Identifiers = []string{}
	}
	if err := sub.ID.UnmarshalText([]byte(doc.ID)); err != nil {
		return nil, fmt.Errorf("submission %s: %w", doc.ID, err)
	}
	return sub, nil
}

func (s *Store) SaveSubmission(ctx context.Context, sub *store.Submission) error {
	now := s.clock()
	store.Prepare(sub, now)
	_, err := s.uploads.InsertOne(ctx, uploadDoc{
		ID:          sub.ID.String(),
		SubmitterID: sub.SubmitterID,
		ContextID:   sub.ContextID,
		Identifiers: sub.Identifiers,
		TotalSizeGB: sub.TotalSizeGB,
		CreatedAt:   sub.CreatedAt,
		Seq:         time.Now().UnixNano(),
	})
	return err
}

func (s *Store) CachedMetadata(ctx context.Context, id string) (*store.CachedItem, error) {
	var item store.CachedItem
	err := s.items.FindOne(ctx, bson.M{"_id": id}).Decode(&item)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	item.UpdatedAt = item.UpdatedAt.UTC()
	return &item, nil
}

func (s *Store) CacheMetadata(ctx context.Context, item store.CachedItem) error {
	item.UpdatedAt = s.clock().UTC()
	_, err := s.items.ReplaceOne(ctx, bson.M{"_id": item.ID}, item, options.Replace().SetUpsert(true))
	return err
}

func (s *Store) SaveSize(ctx context.Context, id string, gb float64) error {
	doc := sizeDoc{ID: id, SizeGB: gb, UpdatedAt: s.clock().UTC()}
	_, err := s.sizes.ReplaceOne(ctx, bson.M{"_id": id}, doc, options.Replace().SetUpsert(true))
	return err
}

func (s *Store) Size(ctx context.Context, id string) (float64, bool, error) {
	var doc sizeDoc
	err := s.sizes.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return doc.SizeGB, true, nil
}

func (s *Store) Cleanup(ctx context.Context, maxAge time.Duration) (int, error) {
	filter := bson.M{"updated_at": bson.M{"$lt": s.clock().Add(-maxAge).UTC()}}
	total := 0
	for _, c := range []*mongo.Collection{s.items, s.sizes} {
		res, err := c.DeleteMany(ctx, filter)
		if err != nil {
			return total, err
		}
		total += int(res.DeletedCount)
	}
	return total, nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ store.Store = (*Store)(nil)
