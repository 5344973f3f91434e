package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"budgetbot/internal/core"
	"budgetbot/internal/dataset"
)

type RepositorySuite struct {
	suite.Suite
	repo *SQLiteRepository
	ctx  context.Context
}

func (s *RepositorySuite) SetupTest() {
	// In-memory SQLite does not survive golang-migrate's separate
	// connection, so each test gets a throwaway file.
	path := filepath.Join(s.T().TempDir(), "budgetbot.db")
	repo, err := NewSQLiteRepository(path)
	require.NoError(s.T(), err, "could not open repository")
	s.repo = repo
	s.ctx = context.Background()
}

func (s *RepositorySuite) TearDownTest() {
	if s.repo != nil {
		s.repo.Close()
	}
}

func (s *RepositorySuite) TestSeedsDefaultsWhenEmpty() {
	ds, err := s.repo.Load(s.ctx)
	s.Require().NoError(err)

	s.Len(ds.Users, 3)
	s.Len(ds.Budgets, 4)
	s.Equal("1", ds.SelectedUserID)
	s.NotEmpty(ds.SelectedMonth)
}

func (s *RepositorySuite) TestExpenseRoundTrip() {
	err := s.repo.Update(s.ctx, func(ds *dataset.Dataset) error {
		_, err := ds.AppendExpense(core.Expense{
			ID:             "e1",
			UserID:         "2",
			Amount:         core.FromCents(4550),
			Category:       "Groceries",
			Description:    "pizza",
			Date:           core.NewDate(2025, 3, 15),
			IsRecurring:    true,
			SubscriptionID: "sub-1",
		})
		return err
	})
	s.Require().NoError(err)

	ds, err := s.repo.Load(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(ds.Expenses, 1)

	e := ds.Expenses[0]
	s.Equal("e1", e.ID)
	s.Equal("2", e.UserID)
	s.Equal(int64(4550), e.Amount.Cents)
	s.Equal("pizza", e.Description)
	s.Equal("2025-03-15", e.Date.String())
	s.True(e.IsRecurring)
	s.Equal("sub-1", e.SubscriptionID)
}

func (s *RepositorySuite) TestSubscriptionRoundTrip() {
	sunday := 0
	err := s.repo.Update(s.ctx, func(ds *dataset.Dataset) error {
		_, err := ds.SaveSubscription(core.Subscription{
			ID:        "sub-1",
			Name:      "Cleaner",
			Amount:    core.FromCents(6000),
			Category:  "Utilities",
			Frequency: core.Weekly,
			DayOfWeek: &sunday,
			IsActive:  true,
			StartDate: core.NewDate(2025, 1, 1),
		})
		return err
	})
	s.Require().NoError(err)

	ds, err := s.repo.Load(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(ds.Subscriptions, 1)

	sub := ds.Subscriptions[0]
	s.Equal(core.Weekly, sub.Frequency)
	s.Require().NotNil(sub.DayOfWeek, "Sunday (0) must survive the round trip")
	s.Equal(0, *sub.DayOfWeek)
	s.True(sub.IsActive)
	s.True(sub.LastProcessed.IsZero())
	s.Equal("2025-01-01", sub.StartDate.String())
}

func (s *RepositorySuite) TestFailedUpdateRollsBack() {
	err := s.repo.Update(s.ctx, func(ds *dataset.Dataset) error {
		_, err := ds.AppendExpense(core.Expense{Category: "Groceries"}) // invalid
		return err
	})
	s.Require().Error(err)

	ds, err := s.repo.Load(s.ctx)
	s.Require().NoError(err)
	s.Empty(ds.Expenses)
}

func (s *RepositorySuite) TestUpdatePersistsSettings() {
	err := s.repo.Update(s.ctx, func(ds *dataset.Dataset) error {
		ds.SelectedUserID = "3"
		ds.SelectedMonth = "2025-07"
		if ds.PhoneNumbers == nil {
			ds.PhoneNumbers = map[string]string{}
		}
		ds.PhoneNumbers["+1555"] = "3"
		return nil
	})
	s.Require().NoError(err)

	ds, err := s.repo.Load(s.ctx)
	s.Require().NoError(err)
	s.Equal("3", ds.SelectedUserID)
	s.Equal("2025-07", ds.SelectedMonth)
	s.Equal("3", ds.PhoneNumbers["+1555"])
}

func (s *RepositorySuite) TestBudgetUniqueness() {
	err := s.repo.Update(s.ctx, func(ds *dataset.Dataset) error {
		month := ds.Budgets[0].Month
		_, err := ds.UpsertBudget(core.Budget{
			Category: "Groceries", Limit: core.FromCents(999_00), Month: month,
		})
		return err
	})
	s.Require().NoError(err)

	ds, err := s.repo.Load(s.ctx)
	s.Require().NoError(err)

	count := 0
	for _, b := range ds.Budgets {
		if b.Category == "Groceries" {
			count++
			s.Equal(int64(999_00), b.Limit.Cents)
		}
	}
	s.Equal(1, count)
}

func TestRepositorySuite(t *testing.T) {
	suite.Run(t, new(RepositorySuite))
}
