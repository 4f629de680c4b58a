package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cobrrraa/predlozhka/internal/domain/model"
)

// The settings table holds exactly one row for the lifetime of the
// deployment.
const settingsRowID = 1

type SettingsRepo struct {
	pool *pgxpool.Pool
}

func NewSettingsRepo(pool *pgxpool.Pool) *SettingsRepo {
	return &SettingsRepo{pool: pool}
}

// EnsureRow seeds the uninitialized singleton on first boot.
func (r *SettingsRepo) EnsureRow(ctx context.Context) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	if _, err := r.pool.Exec(ctx, `
INSERT INTO settings (id, initialized, target_channel, initializer_id)
VALUES ($1, FALSE, '', 0)
ON CONFLICT (id) DO NOTHING
`, settingsRowID); err != nil {
		return fmt.Errorf("ensure settings row: %w", err)
	}

	return nil
}

func (r *SettingsRepo) Get(ctx context.Context) (model.Settings, error) {
	if r.pool == nil {
		return model.Settings{}, fmt.Errorf("postgres pool is nil")
	}

	var settings model.Settings
	err := r.pool.QueryRow(ctx, `
SELECT initialized, target_channel, initializer_id
FROM settings
WHERE id = $1
`, settingsRowID).Scan(&settings.Initialized, &settings.TargetChannel, &settings.InitializerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Settings{}, fmt.Errorf("settings row is missing")
		}
		return model.Settings{}, fmt.Errorf("get settings: %w", err)
	}

	return settings, nil
}

// LockForInit loads the singleton under a row lock so the initialized flag
// can only flip once even when two init commands race.
func (r *SettingsRepo) LockForInit(ctx context.Context, tx pgx.Tx) (model.Settings, error) {
	if tx == nil {
		return model.Settings{}, fmt.Errorf("tx is nil")
	}

	var settings model.Settings
	err := tx.QueryRow(ctx, `
SELECT initialized, target_channel, initializer_id
FROM settings
WHERE id = $1
FOR UPDATE
`, settingsRowID).Scan(&settings.Initialized, &settings.TargetChannel, &settings.InitializerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Settings{}, fmt.Errorf("settings row is missing")
		}
		return model.Settings{}, fmt.Errorf("lock settings for init: %w", err)
	}

	return settings, nil
}

func (r *SettingsRepo) MarkInitialized(ctx context.Context, tx pgx.Tx, targetChannel string, initializerID int64) error {
	if tx == nil {
		return fmt.Errorf("tx is nil")
	}
	if strings.TrimSpace(targetChannel) == "" {
		return fmt.Errorf("target channel is required")
	}
	if initializerID <= 0 {
		return fmt.Errorf("invalid initializer_id")
	}

	if _, err := tx.Exec(ctx, `
UPDATE settings
SET initialized = TRUE, target_channel = $2, initializer_id = $3
WHERE id = $1
`, settingsRowID, strings.TrimSpace(targetChannel), initializerID); err != nil {
		return fmt.Errorf("mark settings initialized: %w", err)
	}

	return nil
}
