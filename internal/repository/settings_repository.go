package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"fraud-screening/internal/models"
	"fraud-screening/pkg/redis"
)

const (
	settingsCacheKey = "fraudlabspro:settings"
	settingsCacheTTL = 5 * time.Minute
)

// SettingsRepository stores the plugin configuration. Settings are read on
// every screening call and written rarely, so reads go through Redis; the
// cache entry is replaced on every save.
type SettingsRepository struct {
	db     *sql.DB
	cache  *redis.Client
	logger *zap.Logger
}

func NewSettingsRepository(db *sql.DB, cache *redis.Client, logger *zap.Logger) *SettingsRepository {
	return &SettingsRepository{db: db, cache: cache, logger: logger}
}

// Load returns the current settings. A missing row yields zero-value
// settings, which read as not configured.
func (r *SettingsRepository) Load(ctx context.Context) (*models.Settings, error) {
	if r.cache != nil {
		if cached, err := r.cache.Get(ctx, settingsCacheKey); err == nil {
			var settings models.Settings
			if err := json.Unmarshal([]byte(cached), &settings); err == nil {
				return &settings, nil
			}
		}
	}

	query := `
		SELECT api_key, approve_status_id, review_status_id, reject_status_id, balance
		FROM plugin_settings WHERE id = 1
	`
	var settings models.Settings
	err := r.db.QueryRowContext(ctx, query).Scan(
		&settings.APIKey,
		&settings.ApproveStatusID,
		&settings.ReviewStatusID,
		&settings.RejectStatusID,
		&settings.Balance,
	)
	if err == sql.ErrNoRows {
		return &models.Settings{}, nil
	}
	if err != nil {
		return nil, err
	}

	r.cacheSettings(ctx, &settings)
	return &settings, nil
}

// Save persists the settings and refreshes the cache. Last write wins.
func (r *SettingsRepository) Save(ctx context.Context, settings *models.Settings) error {
	query := `
		INSERT INTO plugin_settings (id, api_key, approve_status_id, review_status_id, reject_status_id, balance, updated_at)
		VALUES (1, $1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			api_key = EXCLUDED.api_key,
			approve_status_id = EXCLUDED.approve_status_id,
			review_status_id = EXCLUDED.review_status_id,
			reject_status_id = EXCLUDED.reject_status_id,
			balance = EXCLUDED.balance,
			updated_at = EXCLUDED.updated_at
	`
	_, err := r.db.ExecContext(ctx, query,
		settings.APIKey,
		settings.ApproveStatusID,
		settings.ReviewStatusID,
		settings.RejectStatusID,
		settings.Balance,
		time.Now(),
	)
	if err != nil {
		return err
	}

	r.cacheSettings(ctx, settings)
	return nil
}

func (r *SettingsRepository) cacheSettings(ctx context.Context, settings *models.Settings) {
	if r.cache == nil {
		return
	}
	payload, err := json.Marshal(settings)
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, settingsCacheKey, string(payload), settingsCacheTTL); err != nil {
		r.logger.Warn("failed to cache settings", zap.Error(err))
	}
}
