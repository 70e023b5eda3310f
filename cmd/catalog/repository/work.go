package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/openshelf/catalog/cmd/catalog/service"
	"github.com/openshelf/catalog/common/cerrors"
	"github.com/openshelf/catalog/common/db"
	"github.com/openshelf/catalog/common/models"
)

// WorkRepository is the pgx-backed work store
type WorkRepository struct {
	db *db.DB
}

var _ service.WorkStore = (*WorkRepository)(nil)

// NewWorkRepository creates a new work repository
func NewWorkRepository(database *db.DB) *WorkRepository {
	return &WorkRepository{db: database}
}

// Fetch loads a work aggregate with the requested relation collections
func (r *WorkRepository) Fetch(ctx context.Context, bbid uuid.UUID, rels models.WorkRelations) (*models.Work, error) {
	query := `
		SELECT w.bbid, w.name, w.current_revision_id,
		       r.id, r.editor_id, r.data_id, r.parent_id, r.created_at
		FROM work w
		JOIN work_revision r ON r.id = w.current_revision_id
		WHERE w.bbid = $1
	`

	work := &models.Work{Revision: &models.WorkRevision{}}
	rev := work.Revision
	var dataID *int64
	err := r.db.QueryRow(ctx, query, bbid).Scan(
		&work.BBID,
		&work.Name,
		&work.CurrentRevisionID,
		&rev.ID,
		&rev.EditorID,
		&dataID,
		&rev.ParentID,
		&rev.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, cerrors.NewNotFound("work %s not found", bbid)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get work: %w", err)
	}
	// A NULL data id marks a deletion revision.
	if dataID == nil {
		return nil, cerrors.NewNotFound("work %s is deleted", bbid)
	}
	rev.DataID = *dataID
	rev.BBID = work.BBID

	data, err := loadWorkData(ctx, r.db, rev.DataID, rels)
	if err != nil {
		return nil, err
	}
	rev.Data = data

	if rels.Lookups && data.TypeID != nil {
		workType := &models.WorkType{}
		err := r.db.QueryRow(ctx, `SELECT id, name FROM work_type WHERE id = $1`, *data.TypeID).
			Scan(&workType.ID, &workType.Name)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("failed to get work type: %w", err)
		}
		if err == nil {
			work.Type = workType
		}
	}

	return work, nil
}

// InTx runs fn inside one database transaction
func (r *WorkRepository) InTx(ctx context.Context, fn func(tx service.WorkTx) error) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		return fn(&workTx{tx: tx})
	})
}

// loadWorkData fetches a data row with the requested relation collections
func loadWorkData(ctx context.Context, q querier, dataID int64, rels models.WorkRelations) (*models.WorkData, error) {
	data := &models.WorkData{}
	err := q.QueryRow(ctx, `SELECT id, type_id FROM work_data WHERE id = $1`, dataID).
		Scan(&data.ID, &data.TypeID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, cerrors.NewNotFound("work data %d not found", dataID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get work data: %w", err)
	}

	if rels.Languages {
		if data.Languages, err = loadDataLanguages(ctx, q, "work_data_language", dataID); err != nil {
			return nil, err
		}
	}

	return data, nil
}

// workTx implements the transaction surface of the work update protocol
type workTx struct {
	tx pgx.Tx
}

var _ service.WorkTx = (*workTx)(nil)

// CurrentRevision fetches the entity's current revision inside the transaction
func (t *workTx) CurrentRevision(ctx context.Context, bbid uuid.UUID, rels models.WorkRelations) (*models.WorkRevision, error) {
	query := `
		SELECT r.id, r.bbid, r.editor_id, r.data_id, r.parent_id, r.created_at
		FROM work w
		JOIN work_revision r ON r.id = w.current_revision_id
		WHERE w.bbid = $1
		FOR UPDATE OF w
	`

	rev := &models.WorkRevision{}
	var dataID *int64
	err := t.tx.QueryRow(ctx, query, bbid).Scan(
		&rev.ID,
		&rev.BBID,
		&rev.EditorID,
		&dataID,
		&rev.ParentID,
		&rev.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, cerrors.NewNotFound("work %s not found", bbid)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get current revision: %w", err)
	}
	// A deleted entity cannot be edited; its current revision has no data.
	if dataID == nil {
		return nil, cerrors.NewNotFound("work %s is deleted", bbid)
	}
	rev.DataID = *dataID

	data, err := loadWorkData(ctx, t.tx, rev.DataID, rels)
	if err != nil {
		return nil, err
	}
	rev.Data = data

	return rev, nil
}

// CreateEntity inserts the entity header and an empty data row
func (t *workTx) CreateEntity(ctx context.Context, bbid uuid.UUID, name string) (int64, error) {
	var dataID int64
	err := t.tx.QueryRow(ctx, `INSERT INTO work_data DEFAULT VALUES RETURNING id`).Scan(&dataID)
	if err != nil {
		return 0, fmt.Errorf("failed to create work data: %w", err)
	}

	if _, err := t.tx.Exec(ctx, `INSERT INTO work (bbid, name) VALUES ($1, $2)`, bbid, name); err != nil {
		return 0, fmt.Errorf("failed to create work: %w", err)
	}

	return dataID, nil
}

// UpdateName renames the entity header
func (t *workTx) UpdateName(ctx context.Context, bbid uuid.UUID, name string) error {
	tag, err := t.tx.Exec(ctx, `UPDATE work SET name = $2 WHERE bbid = $1`, bbid, name)
	if err != nil {
		return fmt.Errorf("failed to update work name: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return cerrors.NewNotFound("work %s not found", bbid)
	}
	return nil
}

// SetType applies the work type scalar to the data row
func (t *workTx) SetType(ctx context.Context, dataID int64, typeID int) error {
	if _, err := t.tx.Exec(ctx, `UPDATE work_data SET type_id = $2 WHERE id = $1`, dataID, typeID); err != nil {
		return fmt.Errorf("failed to set work type: %w", err)
	}
	return nil
}

// AttachLanguages adds one association row per id, duplicates included
func (t *workTx) AttachLanguages(ctx context.Context, dataID int64, languageIDs []int) error {
	return attachLanguages(ctx, t.tx, "work_data_language", dataID, languageIDs)
}

// Snapshot marshals the full post-edit payload of the data row
func (t *workTx) Snapshot(ctx context.Context, dataID int64) ([]byte, error) {
	data, err := loadWorkData(ctx, t.tx, dataID, models.WorkRelations{Languages: true})
	if err != nil {
		return nil, err
	}

	snapshot, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal work snapshot: %w", err)
	}

	return snapshot, nil
}

// InsertRevision records the new revision row
func (t *workTx) InsertRevision(ctx context.Context, bbid uuid.UUID, editorID int64, dataID int64, parentID *int64, snapshot []byte) (int64, error) {
	query := `
		INSERT INTO work_revision (bbid, editor_id, data_id, parent_id, snapshot)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	var revisionID int64
	if err := t.tx.QueryRow(ctx, query, bbid, editorID, dataID, parentID, snapshot).Scan(&revisionID); err != nil {
		return 0, fmt.Errorf("failed to insert work revision: %w", err)
	}

	return revisionID, nil
}

// InsertDeletionRevision records a revision with a NULL data id and an empty
// snapshot
func (t *workTx) InsertDeletionRevision(ctx context.Context, bbid uuid.UUID, editorID int64, parentID *int64) (int64, error) {
	query := `
		INSERT INTO work_revision (bbid, editor_id, data_id, parent_id, snapshot)
		VALUES ($1, $2, NULL, $3, '{}')
		RETURNING id
	`

	var revisionID int64
	if err := t.tx.QueryRow(ctx, query, bbid, editorID, parentID).Scan(&revisionID); err != nil {
		return 0, fmt.Errorf("failed to insert work deletion revision: %w", err)
	}

	return revisionID, nil
}

// SetCurrentRevision repoints the entity header at the new revision
func (t *workTx) SetCurrentRevision(ctx context.Context, bbid uuid.UUID, revisionID int64) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE work SET current_revision_id = $2 WHERE bbid = $1`, bbid, revisionID)
	if err != nil {
		return fmt.Errorf("failed to set current revision: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return cerrors.NewNotFound("work %s not found", bbid)
	}
	return nil
}
