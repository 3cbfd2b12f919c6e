package storage

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yourname/quittracker/internal"
)

type PostgresStorage struct {
	pool   *pgxpool.Pool
	logger internal.Logger
}

func NewPostgresStorage(dsn string, logger internal.Logger) (*PostgresStorage, error) {
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		logger.Errorf("failed to connect to postgres: %v", err)
		return nil, err
	}
	return &PostgresStorage{pool: pool, logger: logger}, nil
}

func (p *PostgresStorage) Close() error {
	p.pool.Close()
	return nil
}

// --- PlanRepository ---

func (p *PostgresStorage) SavePlan(ctx context.Context, plan *internal.QuitPlan) error {
	weeks, err := json.Marshal(plan.Weeks)
	if err != nil {
		return err
	}
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		p.logger.Errorf("failed to begin tx: %v", err)
		return err
	}
	defer tx.Rollback(ctx)

	if plan.Active {
		if _, err := tx.Exec(ctx, `UPDATE quit_plans SET active = FALSE WHERE user_id = $1 AND id <> $2`, plan.UserID, plan.ID); err != nil {
			p.logger.Errorf("failed to deactivate plans: %v", err)
			return err
		}
	}
	_, err = tx.Exec(ctx, `INSERT INTO quit_plans (id, user_id, name, start_date, weeks, initial_cigarettes, price_per_cigarette, pack_price, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET active = EXCLUDED.active`,
		plan.ID, plan.UserID, plan.Name, plan.StartDate, weeks, plan.InitialCigarettes, plan.PricePerCigarette, plan.PackPrice, plan.Active, plan.CreatedAt)
	if err != nil {
		p.logger.Errorf("failed to insert plan: %v", err)
		return err
	}
	return tx.Commit(ctx)
}

const planColumns = `id, user_id, name, start_date, weeks, initial_cigarettes, price_per_cigarette, pack_price, active, created_at`

func scanPlan(row pgx.Row) (*internal.QuitPlan, error) {
	var plan internal.QuitPlan
	var weeks []byte
	err := row.Scan(&plan.ID, &plan.UserID, &plan.Name, &plan.StartDate, &weeks, &plan.InitialCigarettes, &plan.PricePerCigarette, &plan.PackPrice, &plan.Active, &plan.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(weeks, &plan.Weeks); err != nil {
		return nil, err
	}
	return &plan, nil
}

func (p *PostgresStorage) GetPlan(ctx context.Context, userID, planID string) (*internal.QuitPlan, error) {
	row := p.pool.QueryRow(ctx, `SELECT `+planColumns+` FROM quit_plans WHERE id = $1 AND user_id = $2`, planID, userID)
	plan, err := scanPlan(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, internal.ErrPlanNotFound
	}
	return plan, err
}

func (p *PostgresStorage) ListPlans(ctx context.Context, userID string) ([]internal.QuitPlan, error) {
	rows, err := p.pool.Query(ctx, `SELECT `+planColumns+` FROM quit_plans WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		p.logger.Errorf("failed to query plans: %v", err)
		return nil, err
	}
	defer rows.Close()

	var plans []internal.QuitPlan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			p.logger.Errorf("failed to scan plan: %v", err)
			return nil, err
		}
		plans = append(plans, *plan)
	}
	return plans, rows.Err()
}

func (p *PostgresStorage) GetActivePlan(ctx context.Context, userID string) (*internal.QuitPlan, error) {
	row := p.pool.QueryRow(ctx, `SELECT `+planColumns+` FROM quit_plans WHERE user_id = $1 AND active ORDER BY created_at DESC LIMIT 1`, userID)
	plan, err := scanPlan(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, internal.ErrNoActivePlan
	}
	return plan, err
}

func (p *PostgresStorage) SetActivePlan(ctx context.Context, userID, planID string) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `UPDATE quit_plans SET active = TRUE WHERE id = $1 AND user_id = $2`, planID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return internal.ErrPlanNotFound
	}
	if _, err := tx.Exec(ctx, `UPDATE quit_plans SET active = FALSE WHERE user_id = $1 AND id <> $2`, userID, planID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// --- EntryRepository ---

const entryColumns = `id, user_id, plan_id, date, target_cigarettes, actual_cigarettes, initial_cigarettes, cigarettes_avoided, money_saved, health_score, notes, created_at, updated_at`

func scanEntry(row pgx.Row) (*internal.ProgressEntry, error) {
	var e internal.ProgressEntry
	err := row.Scan(&e.ID, &e.UserID, &e.PlanID, &e.Date, &e.TargetCigarettes, &e.ActualCigarettes, &e.InitialCigarettes, &e.CigarettesAvoided, &e.MoneySaved, &e.HealthScore, &e.Notes, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	e.Provenance = internal.ProvenanceAuthoritative
	return &e, nil
}

func (p *PostgresStorage) ListEntries(ctx context.Context, userID, planID string) ([]internal.ProgressEntry, error) {
	rows, err := p.pool.Query(ctx, `SELECT `+entryColumns+` FROM progress_entries WHERE user_id = $1 AND plan_id = $2 ORDER BY date`, userID, planID)
	if err != nil {
		p.logger.Errorf("failed to query entries: %v", err)
		return nil, err
	}
	defer rows.Close()

	var entries []internal.ProgressEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			p.logger.Errorf("failed to scan entry: %v", err)
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

func (p *PostgresStorage) GetEntry(ctx context.Context, userID, planID, date string) (*internal.ProgressEntry, error) {
	row := p.pool.QueryRow(ctx, `SELECT `+entryColumns+` FROM progress_entries WHERE user_id = $1 AND plan_id = $2 AND date = $3`, userID, planID, date)
	e, err := scanEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, internal.ErrRecordNotFound
	}
	return e, err
}

func (p *PostgresStorage) CreateEntry(ctx context.Context, e *internal.ProgressEntry) error {
	_, err := p.pool.Exec(ctx, `INSERT INTO progress_entries (`+entryColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		e.ID, e.UserID, e.PlanID, e.Date, e.TargetCigarettes, e.ActualCigarettes, e.InitialCigarettes, e.CigarettesAvoided, e.MoneySaved, e.HealthScore, e.Notes, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		p.logger.Errorf("failed to insert entry: %v", err)
	}
	return err
}

func (p *PostgresStorage) UpdateEntry(ctx context.Context, e *internal.ProgressEntry) error {
	tag, err := p.pool.Exec(ctx, `UPDATE progress_entries SET target_cigarettes = $4, actual_cigarettes = $5, cigarettes_avoided = $6, money_saved = $7, health_score = $8, notes = $9, updated_at = $10
		WHERE user_id = $1 AND plan_id = $2 AND date = $3`,
		e.UserID, e.PlanID, e.Date, e.TargetCigarettes, e.ActualCigarettes, e.CigarettesAvoided, e.MoneySaved, e.HealthScore, e.Notes, e.UpdatedAt)
	if err != nil {
		p.logger.Errorf("failed to update entry: %v", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return internal.ErrRecordNotFound
	}
	return nil
}

func (p *PostgresStorage) DeleteEntry(ctx context.Context, userID, planID, date string) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM progress_entries WHERE user_id = $1 AND plan_id = $2 AND date = $3`, userID, planID, date)
	if err != nil {
		p.logger.Errorf("failed to delete entry: %v", err)
	}
	return err
}

// --- AchievementRepository ---

func (p *PostgresStorage) ListAwarded(ctx context.Context, userID string) ([]string, error) {
	rows, err := p.pool.Query(ctx, `SELECT achievement_id FROM achievement_awards WHERE user_id = $1 ORDER BY achievement_id`, userID)
	if err != nil {
		p.logger.Errorf("failed to query awards: %v", err)
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

// Award relies on the primary key to make duplicate awards a no-op.
func (p *PostgresStorage) Award(ctx context.Context, userID, achievementID string) error {
	_, err := p.pool.Exec(ctx, `INSERT INTO achievement_awards (user_id, achievement_id, awarded_at) VALUES ($1, $2, NOW())
		ON CONFLICT (user_id, achievement_id) DO NOTHING`, userID, achievementID)
	if err != nil {
		p.logger.Errorf("failed to insert award: %v", err)
	}
	return err
}

// --- Compile-time assertions ---
var _ PlanRepository = (*PostgresStorage)(nil)
var _ EntryRepository = (*PostgresStorage)(nil)
var _ AchievementRepository = (*PostgresStorage)(nil)
