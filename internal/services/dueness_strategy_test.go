package services

import (
	"testing"

	"budgetbot/internal/core"
)

func intPtr(v int) *int { return &v }

func TestMonthlyChecker_IsDue(t *testing.T) {
	checker := MonthlyChecker{}

	tests := []struct {
		name       string
		dayOfMonth int
		today      core.Date
		want       bool
	}{
		{"matching day", 15, core.NewDate(2025, 3, 15), true},
		{"day before", 15, core.NewDate(2025, 3, 14), false},
		{"day after is not back-filled", 15, core.NewDate(2025, 3, 16), false},
		{"first of month", 1, core.NewDate(2025, 3, 1), true},
		{"day 31 in a 30-day month", 31, core.NewDate(2025, 4, 30), false},
		{"zero day never due", 0, core.NewDate(2025, 3, 15), false},
		{"day out of range", 32, core.NewDate(2025, 3, 15), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := core.Subscription{Frequency: core.Monthly, DayOfMonth: tt.dayOfMonth}
			if got := checker.IsDue(sub, tt.today); got != tt.want {
				t.Errorf("IsDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWeeklyChecker_IsDue(t *testing.T) {
	checker := WeeklyChecker{}

	// 2025-03-16 is a Sunday.
	tests := []struct {
		name      string
		dayOfWeek *int
		today     core.Date
		want      bool
	}{
		{"sunday as zero", intPtr(0), core.NewDate(2025, 3, 16), true},
		{"monday", intPtr(1), core.NewDate(2025, 3, 17), true},
		{"wrong weekday", intPtr(2), core.NewDate(2025, 3, 17), false},
		{"nil weekday never due", nil, core.NewDate(2025, 3, 16), false},
		{"weekday out of range", intPtr(7), core.NewDate(2025, 3, 16), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := core.Subscription{Frequency: core.Weekly, DayOfWeek: tt.dayOfWeek}
			if got := checker.IsDue(sub, tt.today); got != tt.want {
				t.Errorf("IsDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestYearlyChecker_IsDue(t *testing.T) {
	checker := YearlyChecker{}

	tests := []struct {
		name        string
		monthOfYear int
		dayOfMonth  int
		today       core.Date
		want        bool
	}{
		{"exact anniversary", 6, 15, core.NewDate(2025, 6, 15), true},
		{"right day wrong month", 6, 15, core.NewDate(2025, 7, 15), false},
		{"right month wrong day", 6, 15, core.NewDate(2025, 6, 16), false},
		{"missing month", 0, 15, core.NewDate(2025, 6, 15), false},
		{"missing day", 6, 0, core.NewDate(2025, 6, 15), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := core.Subscription{
				Frequency:   core.Yearly,
				MonthOfYear: tt.monthOfYear,
				DayOfMonth:  tt.dayOfMonth,
			}
			if got := checker.IsDue(sub, tt.today); got != tt.want {
				t.Errorf("IsDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetDuenessChecker(t *testing.T) {
	for _, f := range []core.Frequency{core.Monthly, core.Weekly, core.Yearly} {
		if _, err := GetDuenessChecker(f); err != nil {
			t.Errorf("GetDuenessChecker(%s): %v", f, err)
		}
	}
	if _, err := GetDuenessChecker("daily"); err == nil {
		t.Error("GetDuenessChecker(daily) should fail")
	}
}

type alwaysDue struct{}

func (alwaysDue) IsDue(core.Subscription, core.Date) bool { return true }

func TestRegisterDuenessChecker(t *testing.T) {
	RegisterDuenessChecker("quarterly", alwaysDue{})
	defer delete(duenessStrategies, "quarterly")

	checker, err := GetDuenessChecker("quarterly")
	if err != nil {
		t.Fatalf("registered checker not found: %v", err)
	}
	if !checker.IsDue(core.Subscription{}, core.NewDate(2025, 1, 1)) {
		t.Error("custom checker not used")
	}
}
