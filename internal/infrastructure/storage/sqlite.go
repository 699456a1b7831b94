package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
)

// timeLayout is fixed-width so stored timestamps sort chronologically as text
const timeLayout = "2006-01-02 15:04:05.000000000"

// Storage provides SQLite database access.
// It implements the Repository interface.
type Storage struct {
	db *sql.DB
}

// Compile-time check that Storage implements Repository
var _ Repository = (*Storage)(nil)

// NewStorage creates a new storage instance with SQLite database
func NewStorage(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// SQLite allows a single writer; one connection keeps PRAGMAs and
	// transactions on the same handle.
	db.SetMaxOpenConns(1)

	// Enable foreign key constraints (SQLite-specific)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Storage{db: db}

	// Run all pending migrations
	if err := s.runMigrations(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// ================================================================
// USERS
// ================================================================

// CreateUser inserts the user, its financial profile and notification settings in one transaction
func (s *Storage) CreateUser(ctx context.Context, user *User, profile *FinancialProfile, settings *NotificationSettings) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	profile.UserID = user.ID
	settings.UserID = user.ID

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO users (id, username, created_at, last_login) VALUES (?, ?, ?, ?)
	`, user.ID, user.Username, formatTime(user.CreatedAt), formatTime(user.LastLogin))
	if err != nil {
		return translateErr(err)
	}

	if err := upsertProfile(ctx, tx, profile); err != nil {
		return err
	}
	if err := upsertNotificationSettings(ctx, tx, settings); err != nil {
		return err
	}

	return tx.Commit()
}

// GetUser retrieves a user by ID
func (s *Storage) GetUser(ctx context.Context, id string) (*User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, username, created_at, last_login FROM users WHERE id = ?
	`, id))
}

// GetUserByUsername retrieves a user by username
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, username, created_at, last_login FROM users WHERE username = ?
	`, username))
}

func (s *Storage) scanUser(row *sql.Row) (*User, error) {
	var (
		u                    User
		createdAt, lastLogin string
	)
	if err := row.Scan(&u.ID, &u.Username, &createdAt, &lastLogin); err != nil {
		return nil, translateErr(err)
	}
	u.CreatedAt = parseTime(createdAt)
	u.LastLogin = parseTime(lastLogin)
	return &u, nil
}

// TouchLogin updates the last login time
func (s *Storage) TouchLogin(ctx context.Context, userID string, at time.Time) error {
	return expectOne(s.db.ExecContext(ctx, `UPDATE users SET last_login = ? WHERE id = ?`, formatTime(at), userID))
}

// GetProfile retrieves the user's financial profile
func (s *Storage) GetProfile(ctx context.Context, userID string) (*FinancialProfile, error) {
	var (
		p         FinancialProfile
		updatedAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, monthly_salary, monthly_savings, current_balance, consider_savings, updated_at
		FROM financial_profiles WHERE user_id = ?
	`, userID).Scan(&p.UserID, &p.MonthlySalary, &p.MonthlySavings, &p.CurrentBalance, &p.ConsiderSavings, &updatedAt)
	if err != nil {
		return nil, translateErr(err)
	}
	p.UpdatedAt = parseTime(updatedAt)
	return &p, nil
}

// SaveProfile updates the user's financial profile
func (s *Storage) SaveProfile(ctx context.Context, profile *FinancialProfile) error {
	return upsertProfile(ctx, s.db, profile)
}

// execer is satisfied by *sql.DB and *sql.Tx
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertProfile(ctx context.Context, db execer, p *FinancialProfile) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO financial_profiles
		(user_id, monthly_salary, monthly_savings, current_balance, consider_savings, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			monthly_salary = excluded.monthly_salary,
			monthly_savings = excluded.monthly_savings,
			current_balance = excluded.current_balance,
			consider_savings = excluded.consider_savings,
			updated_at = excluded.updated_at
	`, p.UserID, p.MonthlySalary, p.MonthlySavings, p.CurrentBalance, p.ConsiderSavings, formatTime(p.UpdatedAt))
	return translateErr(err)
}

// ================================================================
// COOLING RANGES
// ================================================================

// AddRange inserts a cooling range
func (s *Storage) AddRange(ctx context.Context, r *CoolingRange) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cooling_ranges (id, user_id, min_amount, max_amount, cooling_days, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, r.ID, r.UserID, r.MinAmount, nullFloat(r.MaxAmount), r.CoolingDays, formatTime(r.CreatedAt))
	return translateErr(err)
}

// ListRanges returns ranges ordered by min_amount, then insertion order
func (s *Storage) ListRanges(ctx context.Context, userID string) ([]CoolingRange, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, min_amount, max_amount, cooling_days, created_at
		FROM cooling_ranges WHERE user_id = ?
		ORDER BY min_amount ASC, seq ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	ranges := make([]CoolingRange, 0)
	for rows.Next() {
		var (
			r         CoolingRange
			maxAmount sql.NullFloat64
			createdAt string
		)
		if err := rows.Scan(&r.ID, &r.UserID, &r.MinAmount, &maxAmount, &r.CoolingDays, &createdAt); err != nil {
			return nil, err
		}
		if maxAmount.Valid {
			v := maxAmount.Float64
			r.MaxAmount = &v
		}
		r.CreatedAt = parseTime(createdAt)
		ranges = append(ranges, r)
	}

	return ranges, rows.Err()
}

// DeleteRange removes one of the user's ranges
func (s *Storage) DeleteRange(ctx context.Context, userID, id string) error {
	return expectOne(s.db.ExecContext(ctx, `DELETE FROM cooling_ranges WHERE id = ? AND user_id = ?`, id, userID))
}

// ================================================================
// BLACKLIST
// ================================================================

// AddBlacklistEntry inserts a blacklisted category
func (s *Storage) AddBlacklistEntry(ctx context.Context, e *BlacklistEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO categories_blacklist (id, user_id, category_name, created_at) VALUES (?, ?, ?, ?)
	`, e.ID, e.UserID, e.CategoryName, formatTime(e.CreatedAt))
	return translateErr(err)
}

// ListBlacklist returns entries in insertion order
func (s *Storage) ListBlacklist(ctx context.Context, userID string) ([]BlacklistEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, category_name, created_at
		FROM categories_blacklist WHERE user_id = ?
		ORDER BY seq ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	entries := make([]BlacklistEntry, 0)
	for rows.Next() {
		var (
			e         BlacklistEntry
			createdAt string
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.CategoryName, &createdAt); err != nil {
			return nil, err
		}
		e.CreatedAt = parseTime(createdAt)
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// DeleteBlacklistEntry removes one of the user's blacklist entries
func (s *Storage) DeleteBlacklistEntry(ctx context.Context, userID, id string) error {
	return expectOne(s.db.ExecContext(ctx, `DELETE FROM categories_blacklist WHERE id = ? AND user_id = ?`, id, userID))
}

// ================================================================
// HELPERS
// ================================================================

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.ParseInLocation(timeLayout, s, time.UTC)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func timePtr(ns sql.NullString) *time.Time {
	if !ns.Valid {
		return nil
	}
	t := parseTime(ns.String)
	return &t
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

// translateErr maps driver errors onto the package's sentinel errors
func translateErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}

// expectOne returns ErrNotFound when an update or delete touched no rows
func expectOne(res sql.Result, err error) error {
	if err != nil {
		return translateErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
