// Package storage is the SQLite backend for the household dataset. The
// dataset is small enough that the store works on whole snapshots: Load
// reads every table into a Dataset, Update rewrites the changed tables in
// one transaction. That keeps the Store contract identical to the flat
// file backend while still getting durable, crash-safe writes.
package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"budgetbot/internal/core"
	"budgetbot/internal/dataset"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	keySelectedUser  = "selectedUserId"
	keySelectedMonth = "selectedMonth"
)

// SQLiteRepository persists the dataset in a SQLite database file.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens (and migrates) the database at dbPath and seeds
// the starter dataset when the database is empty.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := runMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("migrate %s: %w", dbPath, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dbPath, err)
	}
	// SQLite handles one writer at a time; a single connection avoids
	// SQLITE_BUSY under concurrent updates.
	db.SetMaxOpenConns(1)

	repo := &SQLiteRepository{db: db}
	if err := repo.seedIfEmpty(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

// runMigrations brings the schema at dbPath up to date from the embedded
// migration files. It opens its own connection: golang-migrate holds a lock
// for the duration, and sharing the repository's single connection would
// deadlock against it.
func runMigrations(dbPath string) error {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open for migration: %w", err)
	}
	defer db.Close()

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("read embedded migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("prepare sqlite driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("prepare migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) seedIfEmpty(ctx context.Context) error {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if n > 0 {
		return nil
	}
	return r.Update(ctx, func(ds *dataset.Dataset) error {
		*ds = *dataset.Default(time.Now())
		return nil
	})
}

// Load reads the full dataset in one read transaction.
func (r *SQLiteRepository) Load(ctx context.Context) (*dataset.Dataset, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("begin read: %w", err)
	}
	defer tx.Rollback()

	return loadDataset(ctx, tx)
}

// Update applies fn to the current dataset and rewrites it in a single
// transaction, so concurrent writers never lose each other's changes.
func (r *SQLiteRepository) Update(ctx context.Context, fn func(*dataset.Dataset) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback()

	ds, err := loadDataset(ctx, tx)
	if err != nil {
		return err
	}
	if err := fn(ds); err != nil {
		return err
	}
	if err := saveDataset(ctx, tx, ds); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func loadDataset(ctx context.Context, tx *sql.Tx) (*dataset.Dataset, error) {
	ds := &dataset.Dataset{}

	rows, err := tx.QueryContext(ctx, `SELECT id, name, color FROM users ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	for rows.Next() {
		var u core.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Color); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan user: %w", err)
		}
		ds.Users = append(ds.Users, u)
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	rows, err = tx.QueryContext(ctx, `
		SELECT id, user_id, amount_cents, category, description, date, is_recurring, subscription_id
		FROM expenses ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	for rows.Next() {
		var (
			e         core.Expense
			cents     int64
			date      string
			recurring int
		)
		if err := rows.Scan(&e.ID, &e.UserID, &cents, &e.Category, &e.Description, &date, &recurring, &e.SubscriptionID); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		e.Amount = core.FromCents(cents)
		e.IsRecurring = recurring != 0
		if e.Date, err = core.ParseDate(date); err != nil {
			rows.Close()
			return nil, fmt.Errorf("expense %s: %w", e.ID, err)
		}
		ds.Expenses = append(ds.Expenses, e)
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	rows, err = tx.QueryContext(ctx, `SELECT id, category, limit_cents, month FROM budgets ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query budgets: %w", err)
	}
	for rows.Next() {
		var (
			b     core.Budget
			cents int64
		)
		if err := rows.Scan(&b.ID, &b.Category, &cents, &b.Month); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		b.Limit = core.FromCents(cents)
		ds.Budgets = append(ds.Budgets, b)
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	rows, err = tx.QueryContext(ctx, `
		SELECT id, name, amount_cents, category, frequency, day_of_month, day_of_week,
		       month_of_year, is_active, last_processed, start_date, end_date
		FROM subscriptions ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query subscriptions: %w", err)
	}
	for rows.Next() {
		var (
			s             core.Subscription
			cents         int64
			dayOfMonth    sql.NullInt64
			dayOfWeek     sql.NullInt64
			monthOfYear   sql.NullInt64
			active        int
			lastProcessed string
			startDate     string
			endDate       string
		)
		if err := rows.Scan(&s.ID, &s.Name, &cents, &s.Category, &s.Frequency,
			&dayOfMonth, &dayOfWeek, &monthOfYear, &active, &lastProcessed, &startDate, &endDate); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		s.Amount = core.FromCents(cents)
		if dayOfMonth.Valid {
			s.DayOfMonth = int(dayOfMonth.Int64)
		}
		if dayOfWeek.Valid {
			dow := int(dayOfWeek.Int64)
			s.DayOfWeek = &dow
		}
		if monthOfYear.Valid {
			s.MonthOfYear = int(monthOfYear.Int64)
		}
		s.IsActive = active != 0
		s.LastProcessed = parseDateOrZero(lastProcessed)
		s.StartDate = parseDateOrZero(startDate)
		s.EndDate = parseDateOrZero(endDate)
		ds.Subscriptions = append(ds.Subscriptions, s)
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	rows, err = tx.QueryContext(ctx, `
		SELECT id, name, target_cents, current_cents, target_date, category
		FROM savings_goals ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query savings goals: %w", err)
	}
	for rows.Next() {
		var (
			g               core.SavingsGoal
			target, current int64
			targetDate      string
		)
		if err := rows.Scan(&g.ID, &g.Name, &target, &current, &targetDate, &g.Category); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan savings goal: %w", err)
		}
		g.TargetAmount = core.FromCents(target)
		g.CurrentAmount = core.FromCents(current)
		g.TargetDate = parseDateOrZero(targetDate)
		ds.SavingsGoals = append(ds.SavingsGoals, g)
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	rows, err = tx.QueryContext(ctx, `SELECT phone, user_id FROM phone_numbers`)
	if err != nil {
		return nil, fmt.Errorf("query phone numbers: %w", err)
	}
	for rows.Next() {
		var phone, userID string
		if err := rows.Scan(&phone, &userID); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan phone number: %w", err)
		}
		if ds.PhoneNumbers == nil {
			ds.PhoneNumbers = make(map[string]string)
		}
		ds.PhoneNumbers[phone] = userID
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	rows, err = tx.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return nil, fmt.Errorf("query settings: %w", err)
	}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		switch key {
		case keySelectedUser:
			ds.SelectedUserID = value
		case keySelectedMonth:
			ds.SelectedMonth = value
		}
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	return ds, nil
}

func saveDataset(ctx context.Context, tx *sql.Tx, ds *dataset.Dataset) error {
	for _, table := range []string{"users", "expenses", "budgets", "subscriptions", "savings_goals", "phone_numbers", "settings"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, u := range ds.Users {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO users (id, name, color) VALUES (?, ?, ?)`,
			u.ID, u.Name, u.Color); err != nil {
			return fmt.Errorf("insert user %s: %w", u.ID, err)
		}
	}

	for _, e := range ds.Expenses {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO expenses (id, user_id, amount_cents, category, description, date, is_recurring, subscription_id)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, e.UserID, e.Amount.Cents, e.Category, e.Description,
			e.Date.String(), boolInt(e.IsRecurring), e.SubscriptionID); err != nil {
			return fmt.Errorf("insert expense %s: %w", e.ID, err)
		}
	}

	for _, b := range ds.Budgets {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO budgets (id, category, limit_cents, month) VALUES (?, ?, ?, ?)`,
			b.ID, b.Category, b.Limit.Cents, b.Month); err != nil {
			return fmt.Errorf("insert budget %s: %w", b.ID, err)
		}
	}

	for _, s := range ds.Subscriptions {
		var dayOfWeek any
		if s.DayOfWeek != nil {
			dayOfWeek = *s.DayOfWeek
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO subscriptions (id, name, amount_cents, category, frequency, day_of_month,
			                           day_of_week, month_of_year, is_active, last_processed, start_date, end_date)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			s.ID, s.Name, s.Amount.Cents, s.Category, string(s.Frequency), s.DayOfMonth,
			dayOfWeek, s.MonthOfYear, boolInt(s.IsActive),
			s.LastProcessed.String(), s.StartDate.String(), s.EndDate.String()); err != nil {
			return fmt.Errorf("insert subscription %s: %w", s.ID, err)
		}
	}

	for _, g := range ds.SavingsGoals {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO savings_goals (id, name, target_cents, current_cents, target_date, category)
			VALUES (?, ?, ?, ?, ?, ?)`,
			g.ID, g.Name, g.TargetAmount.Cents, g.CurrentAmount.Cents,
			g.TargetDate.String(), g.Category); err != nil {
			return fmt.Errorf("insert savings goal %s: %w", g.ID, err)
		}
	}

	for phone, userID := range ds.PhoneNumbers {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO phone_numbers (phone, user_id) VALUES (?, ?)`,
			phone, userID); err != nil {
			return fmt.Errorf("insert phone number %s: %w", phone, err)
		}
	}

	for key, value := range map[string]string{
		keySelectedUser:  ds.SelectedUserID,
		keySelectedMonth: ds.SelectedMonth,
	} {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO settings (key, value) VALUES (?, ?)`,
			key, value); err != nil {
			return fmt.Errorf("insert setting %s: %w", key, err)
		}
	}

	return nil
}

func closeRows(rows *sql.Rows) error {
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("iterate rows: %w", err)
	}
	return rows.Close()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func parseDateOrZero(s string) core.Date {
	if s == "" {
		return core.Date{}
	}
	d, err := core.ParseDate(s)
	if err != nil {
		return core.Date{}
	}
	return d
}
