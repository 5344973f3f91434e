// Package analytics rolls expenses and budgets up into monthly spending
// reports: per-category and per-user totals, status flags, alerts and
// top-N rankings.
//
// Everything here is a pure computation over the collections passed in.
// Money math stays in cents so the 80% and 100% alert boundaries are exact.
package analytics

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"budgetbot/internal/core"
)

// Status classifies a category's spending against its budget.
type Status string

const (
	StatusOK      Status = "ok"
	StatusWarning Status = "warning"
	StatusOver    Status = "over"
)

// UnknownUser is the display name for expenses whose userId resolves to no
// known household member.
const UnknownUser = "Unknown"

type (
	// CategoryReport aggregates one category for the target month. A zero
	// Budget means "no limit set": such categories are never flagged.
	CategoryReport struct {
		Label  string     `json:"category"`
		Spent  core.Money `json:"spent"`
		Budget core.Money `json:"budget"`
		Count  int        `json:"count"`
		Status Status     `json:"status"`
	}

	// UserReport aggregates one household member's spending.
	UserReport struct {
		Name  string     `json:"name"`
		Spent core.Money `json:"spent"`
		Count int        `json:"count"`
	}

	// Alert flags a category that is over or approaching its budget.
	Alert struct {
		Category string     `json:"category"`
		Status   Status     `json:"status"`
		Overage  core.Money `json:"overage,omitempty"`
		Percent  int        `json:"percent,omitempty"`
		Message  string     `json:"message"`
	}

	// Totals summarizes the whole month.
	Totals struct {
		Spent       core.Money `json:"totalSpent"`
		Budget      core.Money `json:"totalBudget"`
		Remaining   core.Money `json:"remaining"`
		PercentUsed int        `json:"percentUsed"`
	}

	// Report is the aggregation result for one month. Categories and Users
	// keep first-encounter order; that order is the tie-break for the top-N
	// queries.
	Report struct {
		Month      string           `json:"month"`
		Categories []CategoryReport `json:"categories"`
		Users      []UserReport     `json:"userStats"`
		Totals     Totals           `json:"totals"`
		Alerts     []Alert          `json:"alerts"`
	}
)

// Aggregate computes the spending-vs-budget report for the given YYYY-MM
// month. Expenses are matched by date prefix, budgets by month equality.
// A budget with a negative limit is a contract violation and fails fast.
func Aggregate(expenses []core.Expense, budgets []core.Budget, users []core.User, month string) (*Report, error) {
	report := &Report{Month: month}

	byCategory := map[string]int{} // label -> index into report.Categories
	byUser := map[string]int{}     // name -> index into report.Users

	names := map[string]string{}
	for _, u := range users {
		names[u.ID] = u.Name
	}

	budgetFor := map[string]core.Money{}
	for _, b := range budgets {
		if b.Month != month {
			continue
		}
		if b.Limit.Cents < 0 {
			return nil, fmt.Errorf("budget for %q: %w", b.Category, core.ErrNegativeLimit)
		}
		budgetFor[b.Category] = b.Limit
	}

	// Categories discovered through expenses first, in expense order.
	for _, e := range expenses {
		if !strings.HasPrefix(e.Date.String(), month) {
			continue
		}

		idx, ok := byCategory[e.Category]
		if !ok {
			idx = len(report.Categories)
			byCategory[e.Category] = idx
			report.Categories = append(report.Categories, CategoryReport{
				Label:  e.Category,
				Budget: budgetFor[e.Category],
			})
		}
		report.Categories[idx].Spent = report.Categories[idx].Spent.Add(e.Amount)
		report.Categories[idx].Count++

		name := names[e.UserID]
		if name == "" {
			name = UnknownUser
		}
		uidx, ok := byUser[name]
		if !ok {
			uidx = len(report.Users)
			byUser[name] = uidx
			report.Users = append(report.Users, UserReport{Name: name})
		}
		report.Users[uidx].Spent = report.Users[uidx].Spent.Add(e.Amount)
		report.Users[uidx].Count++
	}

	// Then budgeted categories with no spending this month.
	for _, b := range budgets {
		if b.Month != month {
			continue
		}
		if _, ok := byCategory[b.Category]; ok {
			continue
		}
		byCategory[b.Category] = len(report.Categories)
		report.Categories = append(report.Categories, CategoryReport{
			Label:  b.Category,
			Budget: b.Limit,
		})
	}

	for i := range report.Categories {
		c := &report.Categories[i]
		c.Status = statusOf(c.Spent, c.Budget)
		report.Totals.Spent = report.Totals.Spent.Add(c.Spent)
		report.Totals.Budget = report.Totals.Budget.Add(c.Budget)

		switch {
		case c.Budget.Cents <= 0:
			// No limit set: excluded from alerting.
		case c.Spent.Cents > c.Budget.Cents:
			over := c.Spent.Sub(c.Budget)
			report.Alerts = append(report.Alerts, Alert{
				Category: c.Label,
				Status:   StatusOver,
				Overage:  over,
				Message:  fmt.Sprintf("%s is over budget by $%s!", c.Label, over),
			})
		case c.Spent.Cents*5 > c.Budget.Cents*4:
			pct := roundPercent(c.Spent, c.Budget)
			report.Alerts = append(report.Alerts, Alert{
				Category: c.Label,
				Status:   StatusWarning,
				Percent:  pct,
				Message:  fmt.Sprintf("%s is at %d%% of budget", c.Label, pct),
			})
		}
	}

	report.Totals.Remaining = report.Totals.Budget.Sub(report.Totals.Spent)
	if report.Totals.Budget.Cents > 0 {
		report.Totals.PercentUsed = roundPercent(report.Totals.Spent, report.Totals.Budget)
	}

	return report, nil
}

// statusOf: exactly 100% is not over, exactly 80% is not a warning, and a
// zero budget is never flagged.
func statusOf(spent, budget core.Money) Status {
	if budget.Cents <= 0 {
		return StatusOK
	}
	if spent.Cents > budget.Cents {
		return StatusOver
	}
	if spent.Cents*5 > budget.Cents*4 {
		return StatusWarning
	}
	return StatusOK
}

func roundPercent(spent, budget core.Money) int {
	return int(math.Round(float64(spent.Cents) / float64(budget.Cents) * 100))
}

// Category looks a category up by label.
func (r *Report) Category(label string) (CategoryReport, bool) {
	for _, c := range r.Categories {
		if c.Label == label {
			return c, true
		}
	}
	return CategoryReport{}, false
}

// TopCategories returns up to n categories sorted descending by amount
// spent. Ties keep first-encounter order (stable sort).
func (r *Report) TopCategories(n int) []CategoryReport {
	out := make([]CategoryReport, len(r.Categories))
	copy(out, r.Categories)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Spent.Cents > out[j].Spent.Cents
	})
	if n >= 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

// TopSpenders returns up to n users sorted descending by amount spent, with
// the same stable tie-break as TopCategories.
func (r *Report) TopSpenders(n int) []UserReport {
	out := make([]UserReport, len(r.Users))
	copy(out, r.Users)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Spent.Cents > out[j].Spent.Cents
	})
	if n >= 0 && n < len(out) {
		out = out[:n]
	}
	return out
}
