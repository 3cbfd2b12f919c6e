package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/yourname/quittracker/internal"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS quit_plans (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	name TEXT NOT NULL DEFAULT '',
	start_date TEXT NOT NULL,
	weeks TEXT NOT NULL,
	initial_cigarettes INTEGER NOT NULL,
	price_per_cigarette REAL NOT NULL DEFAULT 0,
	pack_price REAL NOT NULL DEFAULT 0,
	active INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS progress_entries (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	plan_id TEXT NOT NULL,
	date TEXT NOT NULL,
	target_cigarettes INTEGER NOT NULL,
	actual_cigarettes INTEGER,
	initial_cigarettes INTEGER NOT NULL,
	cigarettes_avoided INTEGER,
	money_saved REAL,
	health_score INTEGER,
	notes TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL,
	UNIQUE(user_id, plan_id, date)
);
CREATE TABLE IF NOT EXISTS achievement_awards (
	user_id TEXT NOT NULL,
	achievement_id TEXT NOT NULL,
	awarded_at TIMESTAMP NOT NULL,
	PRIMARY KEY (user_id, achievement_id)
);
`

type SQLiteStorage struct {
	db     *sql.DB
	logger internal.Logger
}

func NewSQLiteStorage(path string, logger internal.Logger) (*SQLiteStorage, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to bootstrap schema: %w", err)
	}
	return &SQLiteStorage{db: db, logger: logger}, nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// --- PlanRepository ---

func (s *SQLiteStorage) SavePlan(ctx context.Context, p *internal.QuitPlan) error {
	weeks, err := json.Marshal(p.Weeks)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if p.Active {
		if _, err := tx.ExecContext(ctx, `UPDATE quit_plans SET active = 0 WHERE user_id = ? AND id <> ?`, p.UserID, p.ID); err != nil {
			return err
		}
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO quit_plans (id, user_id, name, start_date, weeks, initial_cigarettes, price_per_cigarette, pack_price, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET active = excluded.active`,
		p.ID, p.UserID, p.Name, p.StartDate, string(weeks), p.InitialCigarettes, p.PricePerCigarette, p.PackPrice, p.Active, p.CreatedAt)
	if err != nil {
		s.logger.Errorf("failed to insert plan: %v", err)
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStorage) scanPlanRow(row *sql.Row) (*internal.QuitPlan, error) {
	var p internal.QuitPlan
	var weeks string
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.StartDate, &weeks, &p.InitialCigarettes, &p.PricePerCigarette, &p.PackPrice, &p.Active, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(weeks), &p.Weeks); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *SQLiteStorage) GetPlan(ctx context.Context, userID, planID string) (*internal.QuitPlan, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+planColumns+` FROM quit_plans WHERE id = ? AND user_id = ?`, planID, userID)
	p, err := s.scanPlanRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, internal.ErrPlanNotFound
	}
	return p, err
}

func (s *SQLiteStorage) ListPlans(ctx context.Context, userID string) ([]internal.QuitPlan, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+planColumns+` FROM quit_plans WHERE user_id = ? ORDER BY created_at`, userID)
	if err != nil {
		s.logger.Errorf("failed to query plans: %v", err)
		return nil, err
	}
	defer rows.Close()

	var plans []internal.QuitPlan
	for rows.Next() {
		var p internal.QuitPlan
		var weeks string
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.StartDate, &weeks, &p.InitialCigarettes, &p.PricePerCigarette, &p.PackPrice, &p.Active, &p.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(weeks), &p.Weeks); err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

func (s *SQLiteStorage) GetActivePlan(ctx context.Context, userID string) (*internal.QuitPlan, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+planColumns+` FROM quit_plans WHERE user_id = ? AND active = 1 ORDER BY created_at DESC LIMIT 1`, userID)
	p, err := s.scanPlanRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, internal.ErrNoActivePlan
	}
	return p, err
}

func (s *SQLiteStorage) SetActivePlan(ctx context.Context, userID, planID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE quit_plans SET active = 1 WHERE id = ? AND user_id = ?`, planID, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return internal.ErrPlanNotFound
	}
	if _, err := tx.ExecContext(ctx, `UPDATE quit_plans SET active = 0 WHERE user_id = ? AND id <> ?`, userID, planID); err != nil {
		return err
	}
	return tx.Commit()
}

// --- EntryRepository ---

type entryRow struct {
	actual  sql.NullInt64
	avoided sql.NullInt64
	money   sql.NullFloat64
	health  sql.NullInt64
}

func (r *entryRow) apply(e *internal.ProgressEntry) {
	if r.actual.Valid {
		v := int(r.actual.Int64)
		e.ActualCigarettes = &v
	}
	if r.avoided.Valid {
		v := int(r.avoided.Int64)
		e.CigarettesAvoided = &v
	}
	if r.money.Valid {
		v := r.money.Float64
		e.MoneySaved = &v
	}
	if r.health.Valid {
		v := int(r.health.Int64)
		e.HealthScore = &v
	}
	e.Provenance = internal.ProvenanceAuthoritative
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func (s *SQLiteStorage) ListEntries(ctx context.Context, userID, planID string) ([]internal.ProgressEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+entryColumns+` FROM progress_entries WHERE user_id = ? AND plan_id = ? ORDER BY date`, userID, planID)
	if err != nil {
		s.logger.Errorf("failed to query entries: %v", err)
		return nil, err
	}
	defer rows.Close()

	var entries []internal.ProgressEntry
	for rows.Next() {
		var e internal.ProgressEntry
		var nr entryRow
		if err := rows.Scan(&e.ID, &e.UserID, &e.PlanID, &e.Date, &e.TargetCigarettes, &nr.actual, &e.InitialCigarettes, &nr.avoided, &nr.money, &nr.health, &e.Notes, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		nr.apply(&e)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *SQLiteStorage) GetEntry(ctx context.Context, userID, planID, date string) (*internal.ProgressEntry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM progress_entries WHERE user_id = ? AND plan_id = ? AND date = ?`, userID, planID, date)
	var e internal.ProgressEntry
	var nr entryRow
	err := row.Scan(&e.ID, &e.UserID, &e.PlanID, &e.Date, &e.TargetCigarettes, &nr.actual, &e.InitialCigarettes, &nr.avoided, &nr.money, &nr.health, &e.Notes, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, internal.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	nr.apply(&e)
	return &e, nil
}

func (s *SQLiteStorage) CreateEntry(ctx context.Context, e *internal.ProgressEntry) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO progress_entries (`+entryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.PlanID, e.Date, e.TargetCigarettes, nullInt(e.ActualCigarettes), e.InitialCigarettes, nullInt(e.CigarettesAvoided), nullFloat(e.MoneySaved), nullInt(e.HealthScore), e.Notes, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		s.logger.Errorf("failed to insert entry: %v", err)
	}
	return err
}

func (s *SQLiteStorage) UpdateEntry(ctx context.Context, e *internal.ProgressEntry) error {
	res, err := s.db.ExecContext(ctx, `UPDATE progress_entries SET target_cigarettes = ?, actual_cigarettes = ?, cigarettes_avoided = ?, money_saved = ?, health_score = ?, notes = ?, updated_at = ?
		WHERE user_id = ? AND plan_id = ? AND date = ?`,
		e.TargetCigarettes, nullInt(e.ActualCigarettes), nullInt(e.CigarettesAvoided), nullFloat(e.MoneySaved), nullInt(e.HealthScore), e.Notes, e.UpdatedAt,
		e.UserID, e.PlanID, e.Date)
	if err != nil {
		s.logger.Errorf("failed to update entry: %v", err)
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return internal.ErrRecordNotFound
	}
	return nil
}

func (s *SQLiteStorage) DeleteEntry(ctx context.Context, userID, planID, date string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM progress_entries WHERE user_id = ? AND plan_id = ? AND date = ?`, userID, planID, date)
	if err != nil {
		s.logger.Errorf("failed to delete entry: %v", err)
	}
	return err
}

// --- AchievementRepository ---

func (s *SQLiteStorage) ListAwarded(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT achievement_id FROM achievement_awards WHERE user_id = ? ORDER BY achievement_id`, userID)
	if err != nil {
		s.logger.Errorf("failed to query awards: %v", err)
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLiteStorage) Award(ctx context.Context, userID, achievementID string) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO achievement_awards (user_id, achievement_id, awarded_at) VALUES (?, ?, ?)`,
		userID, achievementID, time.Now())
	if err != nil {
		s.logger.Errorf("failed to insert award: %v", err)
	}
	return err
}

// --- Compile-time assertions ---
var _ PlanRepository = (*SQLiteStorage)(nil)
var _ EntryRepository = (*SQLiteStorage)(nil)
var _ AchievementRepository = (*SQLiteStorage)(nil)
