package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"budgetbot/internal/core"
	"budgetbot/internal/dataset"
	applog "budgetbot/internal/log"
)

// DueSubscription pairs a due subscription with the expense it materializes
// into.
type DueSubscription struct {
	Subscription core.Subscription
	Expense      core.Expense
}

// DueSubscriptions decides which subscriptions are due on the given day and
// builds their materialized expenses. Pure: it mutates nothing and assigns
// no IDs (the processor does that when it commits).
//
// A subscription is skipped when it is inactive, already processed today,
// outside its start/end window, or missing the schedule fields its
// frequency requires. Skipping is silent; a malformed subscription is never
// an error.
func DueSubscriptions(subs []core.Subscription, today core.Date) []DueSubscription {
	var due []DueSubscription
	for _, sub := range subs {
		if !sub.IsActive {
			continue
		}
		if sub.LastProcessed.SameDay(today) {
			continue
		}
		if !sub.StartDate.IsZero() && today.Before(sub.StartDate.Time) {
			continue
		}
		if !sub.EndDate.IsZero() && today.After(sub.EndDate.Time) {
			continue
		}
		if !sub.HasSchedule() {
			continue
		}

		checker, err := GetDuenessChecker(sub.Frequency)
		if err != nil {
			continue
		}
		if !checker.IsDue(sub, today) {
			continue
		}

		due = append(due, DueSubscription{
			Subscription: sub,
			Expense: core.Expense{
				Amount:         sub.Amount,
				Category:       sub.Category,
				Description:    fmt.Sprintf("%s (recurring charge)", sub.Name),
				Date:           today,
				IsRecurring:    true,
				SubscriptionID: sub.ID,
			},
		})
	}
	return due
}

// SubscriptionProcessor materializes due subscriptions into expenses,
// exactly once per due date.
type SubscriptionProcessor struct {
	store  dataset.Store
	events EventPublisher
}

// NewSubscriptionProcessor creates a processor. events may be nil; created
// expenses are then not announced.
func NewSubscriptionProcessor(store dataset.Store, events EventPublisher) *SubscriptionProcessor {
	return &SubscriptionProcessor{store: store, events: events}
}

// ProcessDue runs one scheduler pass for the calendar day of now. Expense
// creation and the lastProcessed stamp land in the same dataset update, so
// a retry after a crash re-runs the dueness check against the already
// stamped subscription and creates nothing twice.
func (p *SubscriptionProcessor) ProcessDue(ctx context.Context, now time.Time) (int, error) {
	if p.store == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	today := core.DateOf(now)
	var created []core.Expense

	err := p.store.Update(ctx, func(ds *dataset.Dataset) error {
		due := DueSubscriptions(ds.Subscriptions, today)
		for _, d := range due {
			e := d.Expense
			e.ID = uuid.NewString()
			if e.UserID == "" {
				e.UserID = ds.SelectedUserID
			}
			e, err := ds.AppendExpense(e)
			if err != nil {
				slog.WarnContext(ctx, "Skipping malformed subscription",
					applog.FieldSubscriptionID, d.Subscription.ID,
					"name", d.Subscription.Name,
					applog.FieldError, err)
				continue
			}
			for i := range ds.Subscriptions {
				if ds.Subscriptions[i].ID == d.Subscription.ID {
					ds.Subscriptions[i].LastProcessed = today
				}
			}
			created = append(created, e)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("process due subscriptions: %w", err)
	}

	for _, e := range created {
		publishExpenseCreated(ctx, p.events, e.ID, SourceRecurring)
		slog.InfoContext(ctx, "Materialized subscription charge",
			applog.FieldExpenseID, e.ID,
			applog.FieldSubscriptionID, e.SubscriptionID,
			applog.FieldAmountCents, e.Amount.Cents,
			applog.FieldCategory, e.Category,
			"date", e.Date.String())
	}

	slog.InfoContext(ctx, "Subscription processing complete",
		"processing_date", today.String(),
		"expenses_created", len(created))

	return len(created), nil
}
