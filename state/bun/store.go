// Package bunstore implements state.Store on a relational database via the
// Bun ORM. The device record lives in a single row; SQLite fits embedded
// deployments and PostgreSQL fits shared ones; Open helpers exist for both.
//
// Usage:
//
//	db, err := bunstore.OpenSQLite("file:pushsync.db")
//	s := bunstore.New(db)
//	if err := s.Migrate(ctx); err != nil { ... }
package bunstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"

	_ "github.com/mattn/go-sqlite3" // sqlite3 database/sql driver

	"github.com/xraph/pushsync/state"
)

// Compile-time interface check.
var _ state.Store = (*Store)(nil)

// recordRow is the single-row table holding the device record.
type recordRow struct {
	bun.BaseModel `bun:"table:pushsync_device_state"`

	ID        int64     `bun:"id,pk"`
	DeviceID  string    `bun:"device_id"`
	Token     string    `bun:"token"`
	UserID    string    `bun:"user_id"`
	Interests string    `bun:"interests"` // JSON-encoded sorted string array
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// recordRowID is the primary key of the only row.
const recordRowID = 1

// Store is a Bun implementation of state.Store. The caller owns the
// *bun.DB lifecycle; Store never closes it.
type Store struct {
	db     *bun.DB
	logger *slog.Logger

	// mu serializes Synchronize sections. The database transaction keeps
	// each commit atomic; the mutex keeps read-modify-write exclusive for
	// in-process callers, which is the store's contract.
	mu sync.Mutex
}

// Option configures the Store.
type Option func(*Store)

// WithLogger sets the logger for the store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// New creates a Bun store. The caller owns the db lifecycle.
func New(db *bun.DB, opts ...Option) *Store {
	s := &Store{db: db, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OpenSQLite opens a SQLite-backed *bun.DB at the given DSN.
func OpenSQLite(dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("pushsync/bun: open sqlite: %w", err)
	}
	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

// OpenPostgres opens a PostgreSQL-backed *bun.DB for the given DSN.
func OpenPostgres(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

// DB returns the underlying *bun.DB for advanced usage.
func (s *Store) DB() *bun.DB { return s.db }

// Migrate creates the device-state table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*recordRow)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("pushsync/bun: create table: %w", err)
	}
	return nil
}

// Load implements state.Store.
func (s *Store) Load(ctx context.Context) (state.Record, error) {
	row := new(recordRow)
	err := s.db.NewSelect().Model(row).
		Where("id = ?", recordRowID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return state.Record{}, nil
		}
		return state.Record{}, fmt.Errorf("pushsync/bun: load record: %w", err)
	}
	return fromRow(row)
}

// Synchronize implements state.Store. The read-modify-write runs inside a
// database transaction and under the store mutex.
func (s *Store) Synchronize(ctx context.Context, fn func(r *state.Record) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		row := new(recordRow)
		err := tx.NewSelect().Model(row).
			Where("id = ?", recordRowID).
			Limit(1).
			Scan(ctx)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("pushsync/bun: load record: %w", err)
		}

		rec, convErr := fromRow(row)
		if convErr != nil {
			return convErr
		}

		if fnErr := fn(&rec); fnErr != nil {
			return fnErr
		}

		updated, convErr := toRow(rec)
		if convErr != nil {
			return convErr
		}

		_, err = tx.NewInsert().Model(updated).
			On("CONFLICT (id) DO UPDATE").
			Set("device_id = EXCLUDED.device_id").
			Set("token = EXCLUDED.token").
			Set("user_id = EXCLUDED.user_id").
			Set("interests = EXCLUDED.interests").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("pushsync/bun: save record: %w", err)
		}
		return nil
	})
}

// Close is a no-op; the caller owns the db lifecycle.
func (s *Store) Close() error { return nil }

func fromRow(row *recordRow) (state.Record, error) {
	rec := state.Record{
		DeviceID: row.DeviceID,
		Token:    row.Token,
		UserID:   row.UserID,
	}
	if row.Interests != "" {
		if err := json.Unmarshal([]byte(row.Interests), &rec.Interests); err != nil {
			return state.Record{}, fmt.Errorf("pushsync/bun: decode interests: %w", err)
		}
	}
	return rec, nil
}

func toRow(rec state.Record) (*recordRow, error) {
	interests, err := json.Marshal(rec.Interests)
	if err != nil {
		return nil, fmt.Errorf("pushsync/bun: encode interests: %w", err)
	}
	return &recordRow{
		ID:        recordRowID,
		DeviceID:  rec.DeviceID,
		Token:     rec.Token,
		UserID:    rec.UserID,
		Interests: string(interests),
		UpdatedAt: time.Now().UTC(),
	}, nil
}
