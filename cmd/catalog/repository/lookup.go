package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/openshelf/catalog/common/cache"
	"github.com/openshelf/catalog/common/db"
	"github.com/openshelf/catalog/common/logger"
	"github.com/openshelf/catalog/common/models"
)

const lookupCacheTTL = 10 * time.Minute

// LookupRepository serves the small, rarely-changing lookup tables through
// the cache layer. Entity-create forms hit these on every render.
type LookupRepository struct {
	db    *db.DB
	cache cache.Cache
	log   *logger.Logger
}

// NewLookupRepository creates a new lookup repository
func NewLookupRepository(database *db.DB, c cache.Cache, log *logger.Logger) *LookupRepository {
	return &LookupRepository{db: database, cache: c, log: log}
}

// Languages lists all languages
func (r *LookupRepository) Languages(ctx context.Context) ([]models.Language, error) {
	var out []models.Language
	err := r.cached(ctx, "lookup:languages", &out, func() (any, error) {
		return queryLookup[models.Language](ctx, r.db, `SELECT id, name FROM language ORDER BY name`,
			func(id int, name string) models.Language { return models.Language{ID: id, Name: name} })
	})
	return out, err
}

// EditionFormats lists all edition formats
func (r *LookupRepository) EditionFormats(ctx context.Context) ([]models.EditionFormat, error) {
	var out []models.EditionFormat
	err := r.cached(ctx, "lookup:edition_formats", &out, func() (any, error) {
		return queryLookup[models.EditionFormat](ctx, r.db, `SELECT id, name FROM edition_format ORDER BY id`,
			func(id int, name string) models.EditionFormat { return models.EditionFormat{ID: id, Name: name} })
	})
	return out, err
}

// EditionStatuses lists all edition statuses
func (r *LookupRepository) EditionStatuses(ctx context.Context) ([]models.EditionStatus, error) {
	var out []models.EditionStatus
	err := r.cached(ctx, "lookup:edition_statuses", &out, func() (any, error) {
		return queryLookup[models.EditionStatus](ctx, r.db, `SELECT id, name FROM edition_status ORDER BY id`,
			func(id int, name string) models.EditionStatus { return models.EditionStatus{ID: id, Name: name} })
	})
	return out, err
}

// WorkTypes lists all work types
func (r *LookupRepository) WorkTypes(ctx context.Context) ([]models.WorkType, error) {
	var out []models.WorkType
	err := r.cached(ctx, "lookup:work_types", &out, func() (any, error) {
		return queryLookup[models.WorkType](ctx, r.db, `SELECT id, name FROM work_type ORDER BY id`,
			func(id int, name string) models.WorkType { return models.WorkType{ID: id, Name: name} })
	})
	return out, err
}

// cached reads through the cache: hit decodes into dest, miss loads from the
// database and repopulates. Cache failures degrade to a direct load.
func (r *LookupRepository) cached(ctx context.Context, key string, dest any, load func() (any, error)) error {
	if raw, ok, err := r.cache.Get(ctx, key); err == nil && ok {
		if err := json.Unmarshal(raw, dest); err == nil {
			return nil
		}
		r.log.Warn("corrupt cache entry, reloading", "key", key)
	}

	value, err := load()
	if err != nil {
		return err
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal lookup rows: %w", err)
	}
	if err := r.cache.Set(ctx, key, raw, lookupCacheTTL); err != nil {
		r.log.Warn("failed to cache lookup rows", "key", key, "error", err)
	}

	return json.Unmarshal(raw, dest)
}

// queryLookup runs an id/name query and builds typed rows
func queryLookup[T any](ctx context.Context, database *db.DB, query string, build func(id int, name string) T) ([]T, error) {
	rows, err := database.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list lookup rows: %w", err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var id int
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("failed to scan lookup row: %w", err)
		}
		out = append(out, build(id, name))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating lookup rows: %w", err)
	}

	return out, nil
}
