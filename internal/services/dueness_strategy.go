// Package services provides the engine's orchestration layer: the recurring
// subscription scheduler and the expense write path.
//
// This file implements the Strategy Pattern for subscription dueness
// checking. Each frequency has its own checker; a subscription is due only
// on the exact calendar day its schedule names. Missed days are skipped,
// never back-filled.
package services

import (
	"fmt"

	"budgetbot/internal/core"
)

// DuenessChecker is the strategy interface for deciding whether a
// subscription's schedule matches a given calendar day.
type DuenessChecker interface {
	// IsDue reports whether the subscription should be materialized today.
	// It looks only at the schedule fields; activity, the lastProcessed
	// stamp and the start/end window are the caller's concern.
	IsDue(sub core.Subscription, today core.Date) bool
}

// MonthlyChecker implements DuenessChecker for monthly subscriptions.
type MonthlyChecker struct{}

// IsDue returns true when today's day-of-month equals the scheduled day.
func (MonthlyChecker) IsDue(sub core.Subscription, today core.Date) bool {
	if sub.DayOfMonth < 1 || sub.DayOfMonth > 31 {
		return false
	}
	return today.Day() == sub.DayOfMonth
}

// WeeklyChecker implements DuenessChecker for weekly subscriptions.
type WeeklyChecker struct{}

// IsDue returns true when today's weekday equals the scheduled day
// (Sunday = 0).
func (WeeklyChecker) IsDue(sub core.Subscription, today core.Date) bool {
	if sub.DayOfWeek == nil || *sub.DayOfWeek < 0 || *sub.DayOfWeek > 6 {
		return false
	}
	return int(today.Weekday()) == *sub.DayOfWeek
}

// YearlyChecker implements DuenessChecker for yearly subscriptions.
type YearlyChecker struct{}

// IsDue returns true when both today's month and day match the schedule.
func (YearlyChecker) IsDue(sub core.Subscription, today core.Date) bool {
	if sub.MonthOfYear < 1 || sub.MonthOfYear > 12 {
		return false
	}
	if sub.DayOfMonth < 1 || sub.DayOfMonth > 31 {
		return false
	}
	return today.Month() == sub.MonthOfYear && today.Day() == sub.DayOfMonth
}

// duenessStrategies maps frequencies to their checkers.
var duenessStrategies = map[core.Frequency]DuenessChecker{
	core.Monthly: MonthlyChecker{},
	core.Weekly:  WeeklyChecker{},
	core.Yearly:  YearlyChecker{},
}

// GetDuenessChecker returns the checker for a frequency, or an error for an
// unsupported one.
func GetDuenessChecker(frequency core.Frequency) (DuenessChecker, error) {
	checker, ok := duenessStrategies[frequency]
	if !ok {
		return nil, fmt.Errorf("unknown frequency: %s", frequency)
	}
	return checker, nil
}

// RegisterDuenessChecker registers a custom checker for a new frequency
// type without touching the existing ones.
func RegisterDuenessChecker(frequency core.Frequency, checker DuenessChecker) {
	duenessStrategies[frequency] = checker
}
