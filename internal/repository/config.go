package repository

import (
	"context"
	"errors"
	"log/slog"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/anphuc-nienso/internal/common"
)

const tableSystemConfig = "system_config"

// ConfigRepository stores operator-editable settings as key/value pairs.
type ConfigRepository interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

type configRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewConfigRepository(db *DB, logger *slog.Logger) ConfigRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &configRepository{
		db:     db,
		logger: logger,
	}
}

func (r *configRepository) Get(ctx context.Context, key string) (string, bool, error) {
	b := r.db.builder()
	query, args := b.Select("value").From(b.Table(tableSystemConfig)).
		Where(entsql.EQ("key", key)).
		Query()
	var value string
	err := r.db.sql.QueryRowContext(ctx, query, args...).Scan(&value)
	if err != nil {
		mapped := mapError(err, "config "+key)
		if errors.Is(mapped, common.ErrNotFound) {
			return "", false, nil
		}
		r.logger.Error("failed to read config", "key", key, "error", err)
		return "", false, mapped
	}
	return value, true, nil
}

func (r *configRepository) Set(ctx context.Context, key, value string) error {
	query, args := r.db.builder().Insert(tableSystemConfig).
		Columns("key", "value").
		Values(key, value).
		OnConflict(
			entsql.ConflictColumns("key"),
			entsql.ResolveWithNewValues(),
		).
		Query()
	if _, err := r.db.sql.ExecContext(ctx, query, args...); err != nil {
		r.logger.Error("failed to write config", "key", key, "error", err)
		return mapError(err, "config "+key)
	}
	r.logger.Info("config updated", "key", key, "value", value)
	return nil
}
