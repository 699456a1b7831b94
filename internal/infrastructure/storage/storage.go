package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ================================================================
// PURCHASES
// ================================================================

const purchaseColumns = `id, user_id, name, price, category, url, cooling_until, status, created_at, completed_at`

// CreatePurchase inserts a new purchase
func (s *Storage) CreatePurchase(ctx context.Context, p *Purchase) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = StatusPending
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO purchases (`+purchaseColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		p.ID,
		p.UserID,
		p.Name,
		p.Price,
		p.Category,
		nullString(p.URL),
		formatTime(p.CoolingUntil),
		p.Status,
		formatTime(p.CreatedAt),
		nullTime(p.CompletedAt),
	)
	return translateErr(err)
}

// GetPurchase retrieves one of the user's purchases
func (s *Storage) GetPurchase(ctx context.Context, userID, id string) (*Purchase, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+purchaseColumns+` FROM purchases WHERE id = ? AND user_id = ?
	`, id, userID)

	p, err := scanPurchase(row)
	if err != nil {
		return nil, translateErr(err)
	}
	return p, nil
}

// ListPurchases returns the user's purchases in the given statuses, newest first
func (s *Storage) ListPurchases(ctx context.Context, userID string, statuses ...string) ([]Purchase, error) {
	query := `SELECT ` + purchaseColumns + ` FROM purchases WHERE user_id = ?`
	args := []any{userID}

	if len(statuses) > 0 {
		query += ` AND status IN (?` + strings.Repeat(", ?", len(statuses)-1) + `)`
		for _, st := range statuses {
			args = append(args, st)
		}
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	purchases := make([]Purchase, 0)
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, err
		}
		purchases = append(purchases, *p)
	}

	return purchases, rows.Err()
}

// ListDuePurchases returns pending purchases whose cooling period ended at or before now
func (s *Storage) ListDuePurchases(ctx context.Context, now time.Time) ([]DuePurchase, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.user_id, p.name, p.price, p.category, p.url, p.cooling_until,
		       p.status, p.created_at, p.completed_at, u.username
		FROM purchases p
		JOIN users u ON u.id = p.user_id
		WHERE p.status = ? AND p.cooling_until <= ?
		ORDER BY p.cooling_until ASC, p.id
	`, StatusPending, formatTime(now))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	due := make([]DuePurchase, 0)
	for rows.Next() {
		var d DuePurchase
		var (
			url, completedAt        sql.NullString
			coolingUntil, createdAt string
		)
		err := rows.Scan(&d.ID, &d.UserID, &d.Name, &d.Price, &d.Category, &url,
			&coolingUntil, &d.Status, &createdAt, &completedAt, &d.Username)
		if err != nil {
			return nil, err
		}
		d.URL = url.String
		d.CoolingUntil = parseTime(coolingUntil)
		d.CreatedAt = parseTime(createdAt)
		d.CompletedAt = timePtr(completedAt)
		due = append(due, d)
	}

	return due, rows.Err()
}

// CompletePurchase sets the purchase status to entry.Action and appends entry to history
func (s *Storage) CompletePurchase(ctx context.Context, entry *HistoryEntry) error {
	if entry.PurchaseID == nil {
		return fmt.Errorf("history entry has no purchase")
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	err = expectOne(tx.ExecContext(ctx, `
		UPDATE purchases SET status = ?, completed_at = ?
		WHERE id = ? AND user_id = ? AND status IN (?, ?)
	`, entry.Action, formatTime(entry.CreatedAt), *entry.PurchaseID, entry.UserID, StatusPending, StatusCooled))
	if err != nil {
		return err
	}

	if err := insertHistory(ctx, tx, entry); err != nil {
		return err
	}

	return tx.Commit()
}

// DeletePurchase removes the purchase; history rows keep a NULL purchase_id
func (s *Storage) DeletePurchase(ctx context.Context, userID, id string) error {
	return expectOne(s.db.ExecContext(ctx,
		`DELETE FROM purchases WHERE id = ? AND user_id = ?`, id, userID))
}

func insertHistory(ctx context.Context, db execer, e *HistoryEntry) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO purchase_history (id, user_id, purchase_id, action, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, e.ID, e.UserID, e.PurchaseID, e.Action, nullString(e.Notes), formatTime(e.CreatedAt))
	return translateErr(err)
}

// ListHistory returns the user's history joined with purchases, newest first
func (s *Storage) ListHistory(ctx context.Context, userID, action string) ([]HistoryItem, error) {
	query := `
		SELECT h.id, h.user_id, h.purchase_id, h.action, h.notes, h.created_at,
		       p.id, p.user_id, p.name, p.price, p.category, p.url, p.cooling_until,
		       p.status, p.created_at, p.completed_at
		FROM purchase_history h
		LEFT JOIN purchases p ON p.id = h.purchase_id
		WHERE h.user_id = ?`
	args := []any{userID}
	if action != "" {
		query += ` AND h.action = ?`
		args = append(args, action)
	}
	query += ` ORDER BY h.created_at DESC, h.seq DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	items := make([]HistoryItem, 0)
	for rows.Next() {
		var (
			item                                     HistoryItem
			purchaseID, notes                        sql.NullString
			createdAt                                string
			pID, pUserID, pName, pCategory, pURL     sql.NullString
			pCoolingUntil, pStatus, pCreatedAt, pEnd sql.NullString
			pPrice                                   sql.NullFloat64
		)
		err := rows.Scan(&item.ID, &item.UserID, &purchaseID, &item.Action, &notes, &createdAt,
			&pID, &pUserID, &pName, &pPrice, &pCategory, &pURL, &pCoolingUntil, &pStatus, &pCreatedAt, &pEnd)
		if err != nil {
			return nil, err
		}

		if purchaseID.Valid {
			id := purchaseID.String
			item.PurchaseID = &id
		}
		item.Notes = notes.String
		item.CreatedAt = parseTime(createdAt)

		if pID.Valid {
			item.Purchase = &Purchase{
				ID:           pID.String,
				UserID:       pUserID.String,
				Name:         pName.String,
				Price:        pPrice.Float64,
				Category:     pCategory.String,
				URL:          pURL.String,
				CoolingUntil: parseTime(pCoolingUntil.String),
				Status:       pStatus.String,
				CreatedAt:    parseTime(pCreatedAt.String),
				CompletedAt:  timePtr(pEnd),
			}
		}

		items = append(items, item)
	}

	return items, rows.Err()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPurchase(row rowScanner) (*Purchase, error) {
	var (
		p                       Purchase
		url, completedAt        sql.NullString
		coolingUntil, createdAt string
	)
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Price, &p.Category, &url,
		&coolingUntil, &p.Status, &createdAt, &completedAt)
	if err != nil {
		return nil, err
	}
	p.URL = url.String
	p.CoolingUntil = parseTime(coolingUntil)
	p.CreatedAt = parseTime(createdAt)
	p.CompletedAt = timePtr(completedAt)
	return &p, nil
}

// ================================================================
// NOTIFICATION SETTINGS
// ================================================================

// GetNotificationSettings retrieves the user's notification settings
func (s *Storage) GetNotificationSettings(ctx context.Context, userID string) (*NotificationSettings, error) {
	var (
		ns                     NotificationSettings
		excludeJSON, updatedAt string
		lastSent               sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, frequency, channel, enabled, exclude_categories, last_notification_sent, updated_at
		FROM notification_settings WHERE user_id = ?
	`, userID).Scan(&ns.UserID, &ns.Frequency, &ns.Channel, &ns.Enabled, &excludeJSON, &lastSent, &updatedAt)
	if err != nil {
		return nil, translateErr(err)
	}

	ns.ExcludeCategories = []string{}
	if excludeJSON != "" {
		if err := json.Unmarshal([]byte(excludeJSON), &ns.ExcludeCategories); err != nil {
			return nil, fmt.Errorf("failed to decode exclude_categories for %s: %w", userID, err)
		}
	}
	ns.LastNotificationSent = timePtr(lastSent)
	ns.UpdatedAt = parseTime(updatedAt)

	return &ns, nil
}

// SaveNotificationSettings inserts or replaces the user's notification settings
func (s *Storage) SaveNotificationSettings(ctx context.Context, settings *NotificationSettings) error {
	return upsertNotificationSettings(ctx, s.db, settings)
}

func upsertNotificationSettings(ctx context.Context, db execer, ns *NotificationSettings) error {
	exclude := ns.ExcludeCategories
	if exclude == nil {
		exclude = []string{}
	}
	excludeJSON, err := json.Marshal(exclude)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO notification_settings
		(user_id, frequency, channel, enabled, exclude_categories, last_notification_sent, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			frequency = excluded.frequency,
			channel = excluded.channel,
			enabled = excluded.enabled,
			exclude_categories = excluded.exclude_categories,
			last_notification_sent = excluded.last_notification_sent,
			updated_at = excluded.updated_at
	`, ns.UserID, ns.Frequency, ns.Channel, ns.Enabled, string(excludeJSON), nullTime(ns.LastNotificationSent), formatTime(ns.UpdatedAt))
	return translateErr(err)
}

// MarkNotified advances last_notification_sent and moves the purchase to cooled
func (s *Storage) MarkNotified(ctx context.Context, userID, purchaseID string, at time.Time) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		UPDATE purchases SET status = ? WHERE id = ? AND user_id = ? AND status = ?
	`, StatusCooled, purchaseID, userID, StatusPending)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}

	err = expectOne(tx.ExecContext(ctx, `
		UPDATE notification_settings SET last_notification_sent = ? WHERE user_id = ?
	`, formatTime(at), userID))
	if err != nil {
		return false, err
	}

	return true, tx.Commit()
}

// ================================================================
// SWEEP RUNS
// ================================================================

// StartSweepRun records the start of a sweep and returns the run ID
func (s *Storage) StartSweepRun(ctx context.Context, startedAt time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO sweep_runs (started_at, status) VALUES (?, ?)
	`, formatTime(startedAt), SweepRunning)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// CompleteSweepRun records the outcome of a sweep
func (s *Storage) CompleteSweepRun(ctx context.Context, runID int64, due, sent, skipped int, runErr error) error {
	status := SweepCompleted
	var errMsg sql.NullString
	if runErr != nil {
		status = SweepFailed
		errMsg = sql.NullString{String: runErr.Error(), Valid: true}
	}

	return expectOne(s.db.ExecContext(ctx, `
		UPDATE sweep_runs
		SET completed_at = ?, purchases_due = ?, notifications_sent = ?, skipped = ?, status = ?, error_message = ?
		WHERE id = ?
	`, formatTime(time.Now()), due, sent, skipped, status, errMsg, runID))
}

// ListSweepRuns returns recent sweep runs, newest first
func (s *Storage) ListSweepRuns(ctx context.Context, limit int) ([]SweepRun, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, completed_at, purchases_due, notifications_sent, skipped, status, error_message
		FROM sweep_runs ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	runs := make([]SweepRun, 0)
	for rows.Next() {
		run, err := scanSweepRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}

	return runs, rows.Err()
}

// GetSweepRun retrieves a sweep run by ID
func (s *Storage) GetSweepRun(ctx context.Context, runID int64) (*SweepRun, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, started_at, completed_at, purchases_due, notifications_sent, skipped, status, error_message
		FROM sweep_runs WHERE id = ?
	`, runID)

	run, err := scanSweepRun(row)
	if err != nil {
		return nil, translateErr(err)
	}
	return run, nil
}

func scanSweepRun(row rowScanner) (*SweepRun, error) {
	var (
		run                 SweepRun
		startedAt           string
		completedAt, errMsg sql.NullString
	)
	err := row.Scan(&run.ID, &startedAt, &completedAt, &run.PurchasesDue,
		&run.NotificationsSent, &run.Skipped, &run.Status, &errMsg)
	if err != nil {
		return nil, err
	}
	run.StartedAt = parseTime(startedAt)
	run.CompletedAt = timePtr(completedAt)
	run.ErrorMessage = errMsg.String
	return &run, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
