// Package dataset holds the household's record collections and the store
// abstraction that guards them.
//
// The dataset mirrors the flat persisted shape: one collection per entity
// type plus a few settings. Mutation goes through Store.Update, a single-
// writer load-mutate-save, so the chat handler and the subscription
// scheduler can never interleave lost updates.
package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"budgetbot/internal/core"
)

// Dataset is the full household state as plain records.
type Dataset struct {
	Users         []core.User         `json:"users"`
	Expenses      []core.Expense      `json:"expenses"`
	Budgets       []core.Budget       `json:"budgets"`
	Subscriptions []core.Subscription `json:"subscriptions,omitempty"`
	SavingsGoals  []core.SavingsGoal  `json:"savingsGoals,omitempty"`

	// PhoneNumbers maps a chat sender to a user ID. Unknown senders fall
	// back to SelectedUserID.
	PhoneNumbers map[string]string `json:"phoneNumberMapping,omitempty"`

	SelectedUserID string `json:"selectedUserId"`
	SelectedMonth  string `json:"selectedMonth"`
}

// Store is the persistence port for the dataset. Load returns a private
// copy; Update runs fn on the current state and persists the result
// atomically with respect to other writers.
type Store interface {
	Load(ctx context.Context) (*Dataset, error)
	Update(ctx context.Context, fn func(*Dataset) error) error
	Close() error
}

// Default returns the seeded starter dataset: three household members and
// four starter budgets for the current month.
func Default(now time.Time) *Dataset {
	month := now.Format("2006-01")
	return &Dataset{
		Users: []core.User{
			{ID: "1", Name: "Mom", Color: "#FF6B6B"},
			{ID: "2", Name: "Dad", Color: "#4ECDC4"},
			{ID: "3", Name: "Child 1", Color: "#45B7D1"},
		},
		Budgets: []core.Budget{
			{ID: "1", Category: "Groceries", Limit: core.FromCents(500_00), Month: month},
			{ID: "2", Category: "Transportation", Limit: core.FromCents(200_00), Month: month},
			{ID: "3", Category: "Entertainment", Limit: core.FromCents(150_00), Month: month},
			{ID: "4", Category: "Utilities", Limit: core.FromCents(300_00), Month: month},
		},
		SelectedUserID: "1",
		SelectedMonth:  month,
	}
}

// Clone deep-copies the dataset so readers never alias store-owned state.
func (d *Dataset) Clone() *Dataset {
	out := &Dataset{
		Users:          append([]core.User(nil), d.Users...),
		Expenses:       append([]core.Expense(nil), d.Expenses...),
		Budgets:        append([]core.Budget(nil), d.Budgets...),
		SavingsGoals:   append([]core.SavingsGoal(nil), d.SavingsGoals...),
		SelectedUserID: d.SelectedUserID,
		SelectedMonth:  d.SelectedMonth,
	}
	out.Subscriptions = make([]core.Subscription, len(d.Subscriptions))
	for i, s := range d.Subscriptions {
		out.Subscriptions[i] = s
		if s.DayOfWeek != nil {
			dow := *s.DayOfWeek
			out.Subscriptions[i].DayOfWeek = &dow
		}
	}
	if d.PhoneNumbers != nil {
		out.PhoneNumbers = make(map[string]string, len(d.PhoneNumbers))
		for k, v := range d.PhoneNumbers {
			out.PhoneNumbers[k] = v
		}
	}
	return out
}

// UserByID resolves a household member by ID.
func (d *Dataset) UserByID(id string) (core.User, bool) {
	for _, u := range d.Users {
		if u.ID == id {
			return u, true
		}
	}
	return core.User{}, false
}

// ResolveSender maps a chat sender address to a user ID, falling back to
// the dataset's selected user.
func (d *Dataset) ResolveSender(sender string) string {
	if id, ok := d.PhoneNumbers[sender]; ok && id != "" {
		return id
	}
	return d.SelectedUserID
}

// AppendExpense validates and appends an expense, assigning an ID when the
// caller left it empty.
func (d *Dataset) AppendExpense(e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, fmt.Errorf("append expense: %w", err)
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	d.Expenses = append(d.Expenses, e)
	return e, nil
}

// DeleteExpense removes an expense by ID. Missing IDs are a no-op, matching
// the forgiving behavior of the rest of the dataset.
func (d *Dataset) DeleteExpense(id string) bool {
	for i, e := range d.Expenses {
		if e.ID == id {
			d.Expenses = append(d.Expenses[:i], d.Expenses[i+1:]...)
			return true
		}
	}
	return false
}

// UpsertBudget enforces the single-budget-per-(category, month) invariant:
// an existing row is updated in place, otherwise a new one is appended.
func (d *Dataset) UpsertBudget(b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, fmt.Errorf("upsert budget: %w", err)
	}
	for i, existing := range d.Budgets {
		if existing.Category == b.Category && existing.Month == b.Month {
			b.ID = existing.ID
			d.Budgets[i] = b
			return b, nil
		}
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	d.Budgets = append(d.Budgets, b)
	return b, nil
}

// SaveSubscription adds or replaces a subscription by ID.
func (d *Dataset) SaveSubscription(s core.Subscription) (core.Subscription, error) {
	if err := s.Validate(); err != nil {
		return core.Subscription{}, fmt.Errorf("save subscription: %w", err)
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
		d.Subscriptions = append(d.Subscriptions, s)
		return s, nil
	}
	for i, existing := range d.Subscriptions {
		if existing.ID == s.ID {
			d.Subscriptions[i] = s
			return s, nil
		}
	}
	d.Subscriptions = append(d.Subscriptions, s)
	return s, nil
}

// SubscriptionByID resolves a subscription by ID.
func (d *Dataset) SubscriptionByID(id string) (core.Subscription, bool) {
	for _, s := range d.Subscriptions {
		if s.ID == id {
			return s, true
		}
	}
	return core.Subscription{}, false
}

// MarshalIndent renders the dataset the way the flat file stores it.
func (d *Dataset) MarshalIndent() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}
