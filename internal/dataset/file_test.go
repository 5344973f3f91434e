package dataset

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"budgetbot/internal/core"
)

func newFileStore(t *testing.T) (*FileStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "budget-data.json")
	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return store, path
}

func TestFileStore_RoundTrip(t *testing.T) {
	store, path := newFileStore(t)
	ctx := context.Background()

	err := store.Update(ctx, func(ds *Dataset) error {
		_, err := ds.AppendExpense(core.Expense{
			ID:          "e1",
			UserID:      "1",
			Amount:      core.FromCents(4550),
			Category:    "Groceries",
			Description: "pizza",
			Date:        core.NewDate(2025, 3, 15),
		})
		return err
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("dataset file not written: %v", err)
	}

	// A fresh store over the same path sees the write.
	reopened, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	ds, err := reopened.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(ds.Expenses) != 1 {
		t.Fatalf("expenses = %d, want 1", len(ds.Expenses))
	}
	e := ds.Expenses[0]
	if e.ID != "e1" || e.Amount.Cents != 4550 || e.Date.String() != "2025-03-15" {
		t.Errorf("round-tripped expense = %+v", e)
	}
}

func TestFileStore_MissingFileDefaults(t *testing.T) {
	store, _ := newFileStore(t)

	ds, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(ds.Users) != 3 || len(ds.Budgets) != 4 {
		t.Errorf("missing file should seed defaults, got %d users %d budgets", len(ds.Users), len(ds.Budgets))
	}
}

func TestFileStore_CorruptFileDefaults(t *testing.T) {
	store, path := newFileStore(t)

	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	ds, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load must degrade, not fail: %v", err)
	}
	if len(ds.Users) != 3 {
		t.Errorf("corrupt file should seed defaults, got %d users", len(ds.Users))
	}
}

func TestFileStore_FailedUpdateDoesNotWrite(t *testing.T) {
	store, path := newFileStore(t)

	err := store.Update(context.Background(), func(ds *Dataset) error {
		_, err := ds.AppendExpense(core.Expense{Category: "Groceries"}) // invalid
		return err
	})
	if err == nil {
		t.Fatal("invalid update should fail")
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Error("failed update should not create the file")
	}
}
