package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"budgetbot/internal/core"
	"budgetbot/internal/dataset"
)

func newTestService(t *testing.T) (*ExpenseService, *dataset.MemoryStore, *recordingPublisher) {
	t.Helper()
	store := dataset.NewMemoryStoreWith(dataset.Default(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)))
	events := &recordingPublisher{}
	return NewExpenseService(store, events), store, events
}

func TestCreateExpense(t *testing.T) {
	svc, store, events := newTestService(t)

	stored, err := svc.CreateExpense(context.Background(), core.Expense{
		UserID:      "1",
		Amount:      core.FromCents(4550),
		Category:    "Groceries",
		Description: "pizza",
		Date:        core.NewDate(2025, 3, 15),
	}, SourceChat)
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}
	if stored.ID == "" {
		t.Error("stored expense has no ID")
	}

	ds, _ := store.Load(context.Background())
	if len(ds.Expenses) != 1 {
		t.Fatalf("expenses = %d, want 1", len(ds.Expenses))
	}
	if len(events.published) != 1 || events.published[0] != stored.ID || events.sources[0] != SourceChat {
		t.Errorf("event = %v/%v", events.published, events.sources)
	}
}

func TestCreateExpense_RejectsInvalid(t *testing.T) {
	svc, store, events := newTestService(t)

	_, err := svc.CreateExpense(context.Background(), core.Expense{
		Amount:   core.FromCents(0),
		Category: "Groceries",
		Date:     core.NewDate(2025, 3, 15),
	}, SourceAPI)
	if !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("err = %v, want ErrInvalidAmount", err)
	}

	ds, _ := store.Load(context.Background())
	if len(ds.Expenses) != 0 {
		t.Error("invalid expense must not be stored")
	}
	if len(events.published) != 0 {
		t.Error("invalid expense must not publish an event")
	}
}

func TestDeleteExpense(t *testing.T) {
	svc, store, _ := newTestService(t)

	stored, err := svc.CreateExpense(context.Background(), core.Expense{
		Amount:   core.FromCents(100),
		Category: "Groceries",
		Date:     core.NewDate(2025, 3, 15),
	}, SourceAPI)
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}

	if err := svc.DeleteExpense(context.Background(), stored.ID); err != nil {
		t.Fatalf("DeleteExpense: %v", err)
	}
	ds, _ := store.Load(context.Background())
	if len(ds.Expenses) != 0 {
		t.Error("expense not deleted")
	}

	if err := svc.DeleteExpense(context.Background(), "missing"); err == nil {
		t.Error("deleting a missing expense should fail")
	}
}

func TestUpsertBudget_ReplacesSameCategoryMonth(t *testing.T) {
	svc, store, _ := newTestService(t)

	first, err := svc.UpsertBudget(context.Background(), core.Budget{
		Category: "Travel", Limit: core.FromCents(10000), Month: "2025-03",
	})
	if err != nil {
		t.Fatalf("UpsertBudget: %v", err)
	}

	second, err := svc.UpsertBudget(context.Background(), core.Budget{
		Category: "Travel", Limit: core.FromCents(25000), Month: "2025-03",
	})
	if err != nil {
		t.Fatalf("UpsertBudget: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("upsert changed ID: %q then %q", first.ID, second.ID)
	}

	ds, _ := store.Load(context.Background())
	var travel []core.Budget
	for _, b := range ds.Budgets {
		if b.Category == "Travel" && b.Month == "2025-03" {
			travel = append(travel, b)
		}
	}
	if len(travel) != 1 || travel[0].Limit.Cents != 25000 {
		t.Errorf("travel budgets = %+v, want one with 25000", travel)
	}
}

func TestToggleSubscription(t *testing.T) {
	svc, _, _ := newTestService(t)

	stored, err := svc.SaveSubscription(context.Background(), monthlySub("", 15, 1599))
	if err != nil {
		t.Fatalf("SaveSubscription: %v", err)
	}
	if !stored.IsActive {
		t.Fatal("subscription should start active")
	}

	toggled, err := svc.ToggleSubscription(context.Background(), stored.ID)
	if err != nil {
		t.Fatalf("ToggleSubscription: %v", err)
	}
	if toggled.IsActive {
		t.Error("toggle did not deactivate")
	}

	if _, err := svc.ToggleSubscription(context.Background(), "missing"); err == nil {
		t.Error("toggling a missing subscription should fail")
	}
}
