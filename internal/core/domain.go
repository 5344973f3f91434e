package core

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

const (
	Monthly Frequency = "monthly"
	Weekly  Frequency = "weekly"
	Yearly  Frequency = "yearly"
)

type (
	// Frequency is how often a subscription recurs.
	Frequency string

	// Date is a calendar day. The time-of-day portion is always midnight UTC.
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// User is a household member. Expenses reference users by ID; a dangling
	// reference is reported as "Unknown", never an error.
	User struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Color string `json:"color"`
	}

	// Expense is a single spend. Immutable once created, except for deletion.
	Expense struct {
		ID             string `json:"id"`
		UserID         string `json:"userId"`
		Amount         Money  `json:"amount"`
		Category       string `json:"category"`
		Description    string `json:"description"`
		Date           Date   `json:"date"`
		IsRecurring    bool   `json:"isRecurring,omitempty"`
		SubscriptionID string `json:"subscriptionId,omitempty"`
	}

	// Budget is a monthly spending limit for one category. There is at most
	// one budget per (category, month) pair; writers upsert, never duplicate.
	Budget struct {
		ID       string `json:"id"`
		Category string `json:"category"`
		Limit    Money  `json:"limit"`
		Month    string `json:"month"` // YYYY-MM
	}

	// Subscription is a recurring charge template. The scheduler materializes
	// it into expenses and stamps LastProcessed; nothing else mutates it
	// besides user edits through the settings layer.
	Subscription struct {
		ID        string    `json:"id"`
		Name      string    `json:"name"`
		Amount    Money     `json:"amount"`
		Category  string    `json:"category"`
		Frequency Frequency `json:"frequency"`

		// Schedule fields. DayOfMonth is 1-31 (monthly and yearly),
		// DayOfWeek is 0-6 with Sunday = 0 (weekly), MonthOfYear is 1-12
		// (yearly). DayOfWeek is a pointer because 0 is a valid value.
		DayOfMonth  int  `json:"dayOfMonth,omitempty"`
		DayOfWeek   *int `json:"dayOfWeek,omitempty"`
		MonthOfYear int  `json:"monthOfYear,omitempty"`

		IsActive      bool `json:"isActive"`
		LastProcessed Date `json:"lastProcessed,omitempty"`
		StartDate     Date `json:"startDate"`
		EndDate       Date `json:"endDate,omitempty"`
	}

	// SavingsGoal is carried in the dataset for the dashboard; the engine
	// stores it but attaches no logic to it.
	SavingsGoal struct {
		ID            string `json:"id"`
		Name          string `json:"name"`
		TargetAmount  Money  `json:"targetAmount"`
		CurrentAmount Money  `json:"currentAmount"`
		TargetDate    Date   `json:"targetDate"`
		Category      string `json:"category,omitempty"`
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrNegativeLimit    = errors.New("negative budget limit")
	ErrEmptyCategory    = errors.New("empty category")
	ErrEmptyDescription = errors.New("empty description")
	ErrInvalidMonthKey  = errors.New("invalid month key")
	ErrInvalidFrequency = errors.New("invalid frequency")
	ErrInvalidDate      = errors.New("invalid date")
)

var monthKeyRe = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// IsMonthKey reports whether s is a YYYY-MM budget period key.
func IsMonthKey(s string) bool {
	return monthKeyRe.MatchString(s)
}

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// Day returns the day of the month.
func (d Date) Day() int { return d.Time.Day() }

// Month returns the month as 1-12.
func (d Date) Month() int { return int(d.Time.Month()) }

// Year returns the year.
func (d Date) Year() int { return d.Time.Year() }

// String formats the date as YYYY-MM-DD, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01-02")
}

// MonthKey returns the YYYY-MM period the date falls in.
func (d Date) MonthKey() string {
	return d.Format("2006-01")
}

// SameDay reports whether both dates fall on the same calendar day.
func (d Date) SameDay(other Date) bool {
	return !d.IsZero() && !other.IsZero() && d.String() == other.String()
}

// MarshalJSON encodes the date as a quoted YYYY-MM-DD string ("" when zero).
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON accepts a quoted YYYY-MM-DD string; "" and null mean unset.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (e Expense) Validate() error {
	if e.Amount.Cents <= 0 {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	if e.Date.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (b Budget) Validate() error {
	if b.Limit.Cents < 0 {
		return ErrNegativeLimit
	}
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	if !IsMonthKey(b.Month) {
		return ErrInvalidMonthKey
	}
	return nil
}

func (f Frequency) IsValid() bool {
	switch f {
	case Monthly, Weekly, Yearly:
		return true
	default:
		return false
	}
}

func (s Subscription) Validate() error {
	if s.Amount.Cents <= 0 {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(s.Category) == "" {
		return ErrEmptyCategory
	}
	if len(strings.TrimSpace(s.Name)) == 0 {
		return ErrEmptyDescription
	}
	if !s.Frequency.IsValid() {
		return ErrInvalidFrequency
	}
	if !s.EndDate.IsZero() && !s.StartDate.IsZero() && s.EndDate.Before(s.StartDate.Time) {
		return errors.New("end date before start date")
	}
	return nil
}

// HasSchedule reports whether the subscription carries the schedule fields
// its frequency requires. A subscription without them is never due.
func (s Subscription) HasSchedule() bool {
	switch s.Frequency {
	case Monthly:
		return s.DayOfMonth >= 1 && s.DayOfMonth <= 31
	case Weekly:
		return s.DayOfWeek != nil && *s.DayOfWeek >= 0 && *s.DayOfWeek <= 6
	case Yearly:
		return s.MonthOfYear >= 1 && s.MonthOfYear <= 12 &&
			s.DayOfMonth >= 1 && s.DayOfMonth <= 31
	default:
		return false
	}
}
