// Package mongostore implements state.Store on MongoDB. The device record
// is a single document, replaced wholesale on every commit.
//
// Usage:
//
//	client, err := mongo.Connect(options.Client().ApplyURI(uri))
//	s := mongostore.New(client.Database("pushsync"))
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/pushsync/state"
)

// Compile-time interface check.
var _ state.Store = (*Store)(nil)

// Collection and document identity.
const (
	colDeviceState = "pushsync_device_state"
	docID          = "device"
)

// recordDoc is the stored document shape.
type recordDoc struct {
	ID        string   `bson:"_id"`
	DeviceID  string   `bson:"device_id"`
	Token     string   `bson:"token"`
	UserID    string   `bson:"user_id"`
	Interests []string `bson:"interests"`
}

// Option configures the Store.
type Option func(*Store)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Store implements state.Store backed by MongoDB. The caller owns the
// client lifecycle.
type Store struct {
	db     *mongod.Database
	logger *slog.Logger

	// mu serializes Synchronize sections for in-process callers.
	mu sync.Mutex
}

// New creates a MongoDB-backed store.
func New(db *mongod.Database, opts ...Option) *Store {
	s := &Store{db: db, logger: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Load implements state.Store.
func (s *Store) Load(ctx context.Context) (state.Record, error) {
	var doc recordDoc
	err := s.collection().FindOne(ctx, bson.M{"_id": docID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongod.ErrNoDocuments) {
			return state.Record{}, nil
		}
		return state.Record{}, fmt.Errorf("pushsync/mongo: load record: %w", err)
	}
	return fromDoc(doc), nil
}

// Synchronize implements state.Store. The mutated record is upserted as
// one document replacement.
func (s *Store) Synchronize(ctx context.Context, fn func(r *state.Record) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.Load(ctx)
	if err != nil {
		return err
	}

	if fnErr := fn(&rec); fnErr != nil {
		return fnErr
	}

	doc := toDoc(rec)
	opts := options.Replace().SetUpsert(true)
	if _, err := s.collection().ReplaceOne(ctx, bson.M{"_id": docID}, doc, opts); err != nil {
		return fmt.Errorf("pushsync/mongo: save record: %w", err)
	}
	return nil
}

// Close is a no-op; the caller owns the client lifecycle.
func (s *Store) Close() error { return nil }

func (s *Store) collection() *mongod.Collection {
	return s.db.Collection(colDeviceState)
}

func fromDoc(doc recordDoc) state.Record {
	return state.Record{
		DeviceID:  doc.DeviceID,
		Token:     doc.Token,
		UserID:    doc.UserID,
		Interests: doc.Interests,
	}
}

func toDoc(rec state.Record) recordDoc {
	return recordDoc{
		ID:        docID,
		DeviceID:  rec.DeviceID,
		Token:     rec.Token,
		UserID:    rec.UserID,
		Interests: rec.Interests,
	}
}
