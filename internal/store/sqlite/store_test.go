package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"crmcore/internal/domain"
	"crmcore/internal/store"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "crm.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return s, path
}

func mustBegin(t *testing.T, s *Store) store.Tx {
	t.Helper()
	tx, err := s.Begin(context.Background())
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	return tx
}

// ============================================================================
// Snapshot Persistence Tests
// ============================================================================

func TestReopenRestoresState(t *testing.T) {
	ctx := context.Background()
	s, path := openTestStore(t)

	c := domain.Customer{ID: uuid.New(), Name: "Ada", Email: "ada@example.com"}
	p := domain.Product{ID: uuid.New(), Name: "Widget", Price: decimal.RequireFromString("10.50"), Stock: 5}

	tx := mustBegin(t, s)
	if err := tx.InsertCustomer(ctx, c); err != nil {
		t.Fatalf("InsertCustomer failed: %v", err)
	}
	if err := tx.InsertProduct(ctx, p); err != nil {
		t.Fatalf("InsertProduct failed: %v", err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	tx2 := mustBegin(t, reopened)
	defer tx2.Rollback(ctx)
	got, err := tx2.GetCustomer(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetCustomer after reopen failed: %v", err)
	}
	if got.Email != c.Email {
		t.Errorf("Email = %q, want %q", got.Email, c.Email)
	}
	if _, err := tx2.GetProduct(ctx, p.ID); err != nil {
		t.Errorf("GetProduct after reopen failed: %v", err)
	}
}

func TestCommitFailureLeavesStoreUnchanged(t *testing.T) {
	ctx := context.Background()
	s, _ := openTestStore(t)

	first := domain.Customer{ID: uuid.New(), Name: "Ada", Email: "ada@example.com"}
	tx := mustBegin(t, s)
	if err := tx.InsertCustomer(ctx, first); err != nil {
		t.Fatalf("InsertCustomer failed: %v", err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	// Closing the database makes the snapshot write fail while the memory
	// engine keeps serving transactions.
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	second := domain.Customer{ID: uuid.New(), Name: "Grace", Email: "grace@navy.mil"}
	tx2 := mustBegin(t, s)
	if err := tx2.InsertCustomer(ctx, second); err != nil {
		t.Fatalf("InsertCustomer failed: %v", err)
	}
	if err := tx2.Commit(ctx); err == nil {
		t.Fatal("Commit succeeded with the database closed")
	}

	// The failed commit must not have swapped in the new state.
	tx3 := mustBegin(t, s)
	defer tx3.Rollback(ctx)
	if _, err := tx3.GetCustomer(ctx, second.ID); domain.KindOf(err) != domain.KindNotFound {
		t.Errorf("second customer visible after failed commit, err = %v", err)
	}
	if _, err := tx3.GetCustomer(ctx, first.ID); err != nil {
		t.Errorf("first customer lost after failed commit: %v", err)
	}
}
