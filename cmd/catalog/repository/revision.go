package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/openshelf/catalog/cmd/catalog/service"
	"github.com/openshelf/catalog/common/cerrors"
	"github.com/openshelf/catalog/common/db"
	"github.com/openshelf/catalog/common/models"
)

// RevisionRepository reads revision history across entity kinds. Editions and
// works keep separate revision tables of identical shape, so queries are
// built per entity type.
type RevisionRepository struct {
	db *db.DB
}

var _ service.RevisionStore = (*RevisionRepository)(nil)

// NewRevisionRepository creates a new revision repository
func NewRevisionRepository(database *db.DB) *RevisionRepository {
	return &RevisionRepository{db: database}
}

// revisionTable maps an entity type to its revision table
func revisionTable(entityType models.EntityType) (string, error) {
	switch entityType {
	case models.EntityTypeEdition:
		return "edition_revision", nil
	case models.EntityTypeWork:
		return "work_revision", nil
	default:
		return "", cerrors.NewValidation("entity_type", "unknown entity type %q", entityType)
	}
}

// History lists an entity's revisions newest first, with editor names resolved
func (r *RevisionRepository) History(ctx context.Context, entityType models.EntityType, bbid uuid.UUID, limit int) ([]*models.RevisionRecord, error) {
	table, err := revisionTable(entityType)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT r.id, r.bbid, r.editor_id, e.name, r.parent_id, r.created_at, r.snapshot
		FROM %s r
		JOIN editor e ON e.id = r.editor_id
		WHERE r.bbid = $1
		ORDER BY r.id DESC
		LIMIT $2
	`, table)

	rows, err := r.db.Query(ctx, query, bbid, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list revisions: %w", err)
	}
	defer rows.Close()

	var records []*models.RevisionRecord
	for rows.Next() {
		rec := &models.RevisionRecord{EntityType: entityType}
		err := rows.Scan(
			&rec.ID,
			&rec.BBID,
			&rec.EditorID,
			&rec.EditorName,
			&rec.ParentID,
			&rec.CreatedAt,
			&rec.Snapshot,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan revision: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating revisions: %w", err)
	}

	if len(records) == 0 {
		// Distinguish an unknown entity from one with a short history.
		exists, err := r.entityExists(ctx, entityType, bbid)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, cerrors.NewNotFound("%s %s not found", entityType, bbid)
		}
	}

	return records, nil
}

// Get fetches one revision with its snapshot
func (r *RevisionRepository) Get(ctx context.Context, entityType models.EntityType, revisionID int64) (*models.RevisionRecord, error) {
	table, err := revisionTable(entityType)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT r.id, r.bbid, r.editor_id, e.name, r.parent_id, r.created_at, r.snapshot
		FROM %s r
		JOIN editor e ON e.id = r.editor_id
		WHERE r.id = $1
	`, table)

	rec := &models.RevisionRecord{EntityType: entityType}
	err = r.db.QueryRow(ctx, query, revisionID).Scan(
		&rec.ID,
		&rec.BBID,
		&rec.EditorID,
		&rec.EditorName,
		&rec.ParentID,
		&rec.CreatedAt,
		&rec.Snapshot,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, cerrors.NewNotFound("revision %d not found", revisionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get revision: %w", err)
	}

	return rec, nil
}

// entityExists checks the entity header table for the bbid
func (r *RevisionRepository) entityExists(ctx context.Context, entityType models.EntityType, bbid uuid.UUID) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM edition WHERE bbid = $1)`
	if entityType == models.EntityTypeWork {
		query = `SELECT EXISTS(SELECT 1 FROM work WHERE bbid = $1)`
	}

	var exists bool
	if err := r.db.QueryRow(ctx, query, bbid).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check entity existence: %w", err)
	}

	return exists, nil
}
