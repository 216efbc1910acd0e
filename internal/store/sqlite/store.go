// Package sqlite persists the in-memory engine to a single SQLite table as
// JSON snapshots, one bucket per entity. Every committed transaction
// rewrites the snapshot, so a restart resumes from the last commit.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"crmcore/internal/store"
	"crmcore/internal/store/memory"
)

// Store wraps the memory engine with snapshot persistence.
type Store struct {
	mem  *memory.Store
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// Open loads (or creates) the database at path and restores the last
// snapshot into a fresh memory engine.
func Open(path string) (*Store, error) {
	if path == "" {
		path = "crm.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create state table: %w", err)
	}
	s := &Store{mem: memory.New(), db: db, path: path}
	if err := s.load(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

var buckets = []string{"customers", "products", "orders"}

func (s *Store) load() error {
	rows, err := s.db.Query(`SELECT bucket, payload FROM state`)
	if err != nil {
		return fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()

	snapshot := memory.Snapshot{}
	found := false
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return fmt.Errorf("scan state: %w", err)
		}
		found = true
		switch bucket {
		case "customers":
			if err := json.Unmarshal(payload, &snapshot.Customers); err != nil {
				return fmt.Errorf("decode customers: %w", err)
			}
		case "products":
			if err := json.Unmarshal(payload, &snapshot.Products); err != nil {
				return fmt.Errorf("decode products: %w", err)
			}
		case "orders":
			if err := json.Unmarshal(payload, &snapshot.Orders); err != nil {
				return fmt.Errorf("decode orders: %w", err)
			}
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("read state: %w", err)
	}
	if !found {
		return nil
	}
	return s.mem.ImportState(snapshot)
}

func (s *Store) persist(snapshot memory.Snapshot) (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	for _, bucket := range buckets {
		var data []byte
		switch bucket {
		case "customers":
			data, err = json.Marshal(snapshot.Customers)
		case "products":
			data, err = json.Marshal(snapshot.Products)
		case "orders":
			data, err = json.Marshal(snapshot.Orders)
		}
		if err != nil {
			retErr = err
			return retErr
		}
		if _, err = tx.Exec(`INSERT INTO state(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`, bucket, data); err != nil {
			retErr = fmt.Errorf("upsert %s: %w", bucket, err)
			return retErr
		}
	}
	return tx.Commit()
}

func (s *Store) Begin(ctx context.Context) (store.Tx, error) {
	inner, err := s.mem.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &tx{Tx: inner, s: s}, nil
}

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) Close() error { return s.db.Close() }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }

// tx delegates to the memory transaction and writes the pending snapshot
// to SQLite before the commit takes effect. If the write fails the memory
// transaction is rolled back, so readers never see state that is not on
// disk.
type tx struct {
	store.Tx
	s *Store
}

func (t *tx) Commit(ctx context.Context) error {
	snap, err := t.Tx.(memory.Snapshotter).Pending()
	if err != nil {
		return err
	}
	if err := t.s.persist(snap); err != nil {
		_ = t.Tx.Rollback(ctx)
		return fmt.Errorf("persist snapshot: %w", err)
	}
	return t.Tx.Commit(ctx)
}
