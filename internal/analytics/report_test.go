package analytics

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"budgetbot/internal/core"
)

var testUsers = []core.User{
	{ID: "1", Name: "Mom"},
	{ID: "2", Name: "Dad"},
	{ID: "3", Name: "Child 1"},
}

func expense(userID, category string, cents int64, date string) core.Expense {
	d, _ := core.ParseDate(date)
	return core.Expense{
		UserID:   userID,
		Amount:   core.FromCents(cents),
		Category: category,
		Date:     d,
	}
}

func budget(category string, cents int64, month string) core.Budget {
	return core.Budget{Category: category, Limit: core.FromCents(cents), Month: month}
}

func TestAggregate_Basic(t *testing.T) {
	expenses := []core.Expense{
		expense("1", "Groceries", 12000, "2025-03-02"),
		expense("2", "Groceries", 8000, "2025-03-10"),
		expense("1", "Transportation", 5000, "2025-03-11"),
		expense("2", "Entertainment", 3000, "2025-02-28"), // previous month
	}
	budgets := []core.Budget{
		budget("Groceries", 50000, "2025-03"),
		budget("Transportation", 20000, "2025-03"),
		budget("Utilities", 30000, "2025-03"), // no spending
		budget("Groceries", 99900, "2025-02"), // other month
	}

	report, err := Aggregate(expenses, budgets, testUsers, "2025-03")
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	if report.Totals.Spent.Cents != 25000 {
		t.Errorf("total spent = %d, want 25000", report.Totals.Spent.Cents)
	}
	if report.Totals.Budget.Cents != 100000 {
		t.Errorf("total budget = %d, want 100000", report.Totals.Budget.Cents)
	}
	if report.Totals.Remaining.Cents != 75000 {
		t.Errorf("remaining = %d, want 75000", report.Totals.Remaining.Cents)
	}

	groceries, ok := report.Category("Groceries")
	if !ok {
		t.Fatal("Groceries missing from report")
	}
	if groceries.Spent.Cents != 20000 || groceries.Count != 2 {
		t.Errorf("Groceries = %d cents over %d txns, want 20000/2", groceries.Spent.Cents, groceries.Count)
	}
	if groceries.Status != StatusOK {
		t.Errorf("Groceries status = %s, want ok", groceries.Status)
	}

	// Budget-only category appears with zero spending.
	utilities, ok := report.Category("Utilities")
	if !ok {
		t.Fatal("Utilities missing from report")
	}
	if utilities.Spent.Cents != 0 || utilities.Budget.Cents != 30000 {
		t.Errorf("Utilities = spent %d budget %d", utilities.Spent.Cents, utilities.Budget.Cents)
	}

	// Categories keep encounter order: expenses first, then budget-only.
	var labels []string
	for _, c := range report.Categories {
		labels = append(labels, c.Label)
	}
	want := []string{"Groceries", "Transportation", "Utilities"}
	if !reflect.DeepEqual(labels, want) {
		t.Errorf("category order = %v, want %v", labels, want)
	}
}

func TestAggregate_SpentSumsAcrossUsers(t *testing.T) {
	expenses := []core.Expense{
		expense("1", "Groceries", 100, "2025-03-01"),
		expense("2", "Groceries", 200, "2025-03-02"),
		expense("3", "Transportation", 300, "2025-03-03"),
	}

	report, err := Aggregate(expenses, nil, testUsers, "2025-03")
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	var catTotal, userTotal int64
	for _, c := range report.Categories {
		catTotal += c.Spent.Cents
	}
	for _, u := range report.Users {
		userTotal += u.Spent.Cents
	}
	if catTotal != 600 || userTotal != 600 || report.Totals.Spent.Cents != 600 {
		t.Errorf("totals disagree: categories %d, users %d, totals %d", catTotal, userTotal, report.Totals.Spent.Cents)
	}
}

func TestAggregate_StatusBoundaries(t *testing.T) {
	tests := []struct {
		name       string
		spentCents int64
		limitCents int64
		want       Status
	}{
		{"well under", 1000, 10000, StatusOK},
		{"exactly 80 percent", 8000, 10000, StatusOK},
		{"one cent past 80 percent", 8001, 10000, StatusWarning},
		{"exactly 100 percent", 10000, 10000, StatusWarning},
		{"one cent over", 10001, 10000, StatusOver},
		{"zero budget never flagged", 999999, 0, StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := Aggregate(
				[]core.Expense{expense("1", "Groceries", tt.spentCents, "2025-03-05")},
				[]core.Budget{budget("Groceries", tt.limitCents, "2025-03")},
				testUsers, "2025-03")
			if err != nil {
				t.Fatalf("Aggregate: %v", err)
			}
			c, _ := report.Category("Groceries")
			if c.Status != tt.want {
				t.Errorf("status = %s, want %s", c.Status, tt.want)
			}
		})
	}
}

func TestAggregate_Alerts(t *testing.T) {
	expenses := []core.Expense{
		expense("1", "Groceries", 55000, "2025-03-05"),      // over by 50.00
		expense("1", "Transportation", 17000, "2025-03-06"), // 85%
		expense("1", "Entertainment", 1000, "2025-03-07"),   // fine
		expense("1", "Gifts", 99999, "2025-03-08"),          // no budget
	}
	budgets := []core.Budget{
		budget("Groceries", 50000, "2025-03"),
		budget("Transportation", 20000, "2025-03"),
		budget("Entertainment", 15000, "2025-03"),
	}

	report, err := Aggregate(expenses, budgets, testUsers, "2025-03")
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	if len(report.Alerts) != 2 {
		t.Fatalf("alerts = %d, want 2: %+v", len(report.Alerts), report.Alerts)
	}

	over := report.Alerts[0]
	if over.Category != "Groceries" || over.Status != StatusOver {
		t.Errorf("first alert = %+v, want Groceries over", over)
	}
	if over.Overage.Cents != 5000 {
		t.Errorf("overage = %d, want 5000", over.Overage.Cents)
	}
	if over.Message != "Groceries is over budget by $50.00!" {
		t.Errorf("over message = %q", over.Message)
	}

	warn := report.Alerts[1]
	if warn.Category != "Transportation" || warn.Status != StatusWarning {
		t.Errorf("second alert = %+v, want Transportation warning", warn)
	}
	if warn.Percent != 85 {
		t.Errorf("warning percent = %d, want 85", warn.Percent)
	}
	if warn.Message != "Transportation is at 85% of budget" {
		t.Errorf("warning message = %q", warn.Message)
	}
}

func TestAggregate_UnknownUser(t *testing.T) {
	expenses := []core.Expense{
		expense("nobody", "Groceries", 100, "2025-03-01"),
	}

	report, err := Aggregate(expenses, nil, testUsers, "2025-03")
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(report.Users) != 1 || report.Users[0].Name != UnknownUser {
		t.Errorf("users = %+v, want single %q entry", report.Users, UnknownUser)
	}
}

func TestAggregate_NegativeBudgetFails(t *testing.T) {
	_, err := Aggregate(nil,
		[]core.Budget{budget("Groceries", -1, "2025-03")},
		testUsers, "2025-03")
	if !errors.Is(err, core.ErrNegativeLimit) {
		t.Errorf("err = %v, want ErrNegativeLimit", err)
	}
}

func TestAggregate_Idempotent(t *testing.T) {
	expenses := []core.Expense{
		expense("1", "Groceries", 12000, "2025-03-02"),
		expense("2", "Transportation", 5000, "2025-03-11"),
	}
	budgets := []core.Budget{budget("Groceries", 50000, "2025-03")}

	first, err := Aggregate(expenses, budgets, testUsers, "2025-03")
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := Aggregate(expenses, budgets, testUsers, "2025-03")
		if err != nil {
			t.Fatalf("Aggregate: %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("aggregation not deterministic:\n%+v\n%+v", first, again)
		}
	}
}

func TestTopCategoriesAndSpenders(t *testing.T) {
	expenses := []core.Expense{
		expense("1", "Groceries", 300, "2025-03-01"),
		expense("2", "Transportation", 500, "2025-03-02"),
		expense("3", "Entertainment", 300, "2025-03-03"), // ties Groceries
		expense("1", "Utilities", 100, "2025-03-04"),
	}

	report, err := Aggregate(expenses, nil, testUsers, "2025-03")
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	top := report.TopCategories(3)
	if len(top) != 3 {
		t.Fatalf("TopCategories(3) returned %d entries", len(top))
	}
	// Ties resolve to encounter order: Groceries was seen before
	// Entertainment.
	wantOrder := []string{"Transportation", "Groceries", "Entertainment"}
	for i, want := range wantOrder {
		if top[i].Label != want {
			t.Errorf("top[%d] = %s, want %s", i, top[i].Label, want)
		}
	}

	spenders := report.TopSpenders(1)
	if len(spenders) != 1 || spenders[0].Name != "Dad" {
		t.Errorf("TopSpenders(1) = %+v, want Dad", spenders)
	}

	// Asking for more than exists returns everything.
	if got := report.TopCategories(100); len(got) != 4 {
		t.Errorf("TopCategories(100) = %d entries, want 4", len(got))
	}
}

func TestSummaryFormatting(t *testing.T) {
	report, err := Aggregate(
		[]core.Expense{expense("1", "Groceries", 55000, "2025-03-05")},
		[]core.Budget{budget("Groceries", 50000, "2025-03")},
		testUsers, "2025-03")
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	summary := report.Summary()
	for _, want := range []string{
		"Budget summary for 2025-03",
		"[over] Groceries",
		"Spent: $550.00 / $500.00",
		"over budget!",
	} {
		if !strings.Contains(summary, want) {
			t.Errorf("Summary() missing %q:\n%s", want, summary)
		}
	}

	empty, err := Aggregate(nil, nil, testUsers, "2025-04")
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if got := empty.Summary(); got != "No expenses yet for 2025-04" {
		t.Errorf("empty summary = %q", got)
	}
}

func TestDetailedFormatting(t *testing.T) {
	report, err := Aggregate(
		[]core.Expense{
			expense("1", "Groceries", 12000, "2025-03-02"),
			expense("2", "Transportation", 5000, "2025-03-03"),
		},
		[]core.Budget{budget("Groceries", 50000, "2025-03")},
		testUsers, "2025-03")
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	detailed := report.Detailed()
	for _, want := range []string{
		"Detailed report - 2025-03",
		"TOTAL SPENDING",
		"BY CATEGORY",
		"BY FAMILY MEMBER",
		"Mom: $120.00 (1 transactions)",
		"Dad: $50.00 (1 transactions)",
		"Transactions: 1",
	} {
		if !strings.Contains(detailed, want) {
			t.Errorf("Detailed() missing %q:\n%s", want, detailed)
		}
	}
}
