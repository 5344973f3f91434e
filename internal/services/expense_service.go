package services

import (
	"context"
	"fmt"
	"log/slog"

	"budgetbot/internal/core"
	"budgetbot/internal/dataset"
	applog "budgetbot/internal/log"
)

// Expense event sources carried on created events.
const (
	SourceChat      = "chat"
	SourceAPI       = "api"
	SourceRecurring = "recurring"
)

// EventPublisher announces expense writes to interested collaborators (the
// export worker). Implemented by the AMQP client; nil disables events.
type EventPublisher interface {
	PublishExpenseCreated(ctx context.Context, expenseID, source string) error
}

// ExpenseService is the write path for expenses and budgets: validate,
// persist through the single-writer store, then announce.
type ExpenseService struct {
	store  dataset.Store
	events EventPublisher
}

func NewExpenseService(store dataset.Store, events EventPublisher) *ExpenseService {
	return &ExpenseService{store: store, events: events}
}

// CreateExpense persists an expense and publishes a created event. Event
// failures are logged, never surfaced: the expense is already stored.
func (s *ExpenseService) CreateExpense(ctx context.Context, e core.Expense, source string) (core.Expense, error) {
	var stored core.Expense
	err := s.store.Update(ctx, func(ds *dataset.Dataset) error {
		var err error
		stored, err = ds.AppendExpense(e)
		return err
	})
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}

	publishExpenseCreated(ctx, s.events, stored.ID, source)

	slog.InfoContext(ctx, "Expense saved",
		applog.FieldExpenseID, stored.ID,
		applog.FieldUserID, stored.UserID,
		applog.FieldCategory, stored.Category,
		applog.FieldAmountCents, stored.Amount.Cents,
		applog.FieldSource, source)

	return stored, nil
}

// DeleteExpense removes an expense by ID.
func (s *ExpenseService) DeleteExpense(ctx context.Context, id string) error {
	found := false
	err := s.store.Update(ctx, func(ds *dataset.Dataset) error {
		found = ds.DeleteExpense(id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if !found {
		return fmt.Errorf("expense %q not found", id)
	}
	return nil
}

// UpsertBudget writes a budget, preserving the one-per-(category, month)
// invariant.
func (s *ExpenseService) UpsertBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	var stored core.Budget
	err := s.store.Update(ctx, func(ds *dataset.Dataset) error {
		var err error
		stored, err = ds.UpsertBudget(b)
		return err
	})
	if err != nil {
		return core.Budget{}, fmt.Errorf("save budget: %w", err)
	}
	return stored, nil
}

// SaveSubscription writes a subscription definition.
func (s *ExpenseService) SaveSubscription(ctx context.Context, sub core.Subscription) (core.Subscription, error) {
	var stored core.Subscription
	err := s.store.Update(ctx, func(ds *dataset.Dataset) error {
		var err error
		stored, err = ds.SaveSubscription(sub)
		return err
	})
	if err != nil {
		return core.Subscription{}, fmt.Errorf("save subscription: %w", err)
	}
	return stored, nil
}

// ToggleSubscription flips a subscription's active flag.
func (s *ExpenseService) ToggleSubscription(ctx context.Context, id string) (core.Subscription, error) {
	var toggled core.Subscription
	err := s.store.Update(ctx, func(ds *dataset.Dataset) error {
		sub, ok := ds.SubscriptionByID(id)
		if !ok {
			return fmt.Errorf("subscription %q not found", id)
		}
		sub.IsActive = !sub.IsActive
		var err error
		toggled, err = ds.SaveSubscription(sub)
		return err
	})
	if err != nil {
		return core.Subscription{}, err
	}
	return toggled, nil
}

func publishExpenseCreated(ctx context.Context, events EventPublisher, id, source string) {
	if events == nil {
		return
	}
	if err := events.PublishExpenseCreated(ctx, id, source); err != nil {
		slog.ErrorContext(ctx, "Failed to publish expense created event",
			applog.FieldExpenseID, id,
			applog.FieldSource, source,
			applog.FieldError, err)
	}
}
