package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/openshelf/catalog/cmd/catalog/service"
	"github.com/openshelf/catalog/common/cerrors"
	"github.com/openshelf/catalog/common/db"
	"github.com/openshelf/catalog/common/models"
)

// querier is the subset of pgx shared by the pool and a transaction, so the
// relation loaders can run inside or outside a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// EditionRepository is the pgx-backed edition store
type EditionRepository struct {
	db *db.DB
}

var _ service.EditionStore = (*EditionRepository)(nil)

// NewEditionRepository creates a new edition repository
func NewEditionRepository(database *db.DB) *EditionRepository {
	return &EditionRepository{db: database}
}

// Fetch loads an edition aggregate with the requested relation collections
func (r *EditionRepository) Fetch(ctx context.Context, bbid uuid.UUID, rels models.EditionRelations) (*models.Edition, error) {
	query := `
		SELECT e.bbid, e.name, e.current_revision_id,
		       r.id, r.editor_id, r.data_id, r.parent_id, r.created_at
		FROM edition e
		JOIN edition_revision r ON r.id = e.current_revision_id
		WHERE e.bbid = $1
	`

	edition := &models.Edition{Revision: &models.EditionRevision{}}
	rev := edition.Revision
	var dataID *int64
	err := r.db.QueryRow(ctx, query, bbid).Scan(
		&edition.BBID,
		&edition.Name,
		&edition.CurrentRevisionID,
		&rev.ID,
		&rev.EditorID,
		&dataID,
		&rev.ParentID,
		&rev.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, cerrors.NewNotFound("edition %s not found", bbid)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get edition: %w", err)
	}
	// A NULL data id marks a deletion revision.
	if dataID == nil {
		return nil, cerrors.NewNotFound("edition %s is deleted", bbid)
	}
	rev.DataID = *dataID
	rev.BBID = edition.BBID

	data, err := loadEditionData(ctx, r.db, rev.DataID, rels)
	if err != nil {
		return nil, err
	}
	rev.Data = data

	if rels.Lookups {
		if err := r.loadLookups(ctx, edition); err != nil {
			return nil, err
		}
	}

	return edition, nil
}

// InTx runs fn inside one database transaction
func (r *EditionRepository) InTx(ctx context.Context, fn func(tx service.EditionTx) error) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		return fn(&editionTx{tx: tx})
	})
}

// loadLookups resolves format and status names for a loaded aggregate
func (r *EditionRepository) loadLookups(ctx context.Context, edition *models.Edition) error {
	data := edition.Revision.Data
	if data == nil {
		return nil
	}

	if data.FormatID != nil {
		format := &models.EditionFormat{}
		err := r.db.QueryRow(ctx, `SELECT id, name FROM edition_format WHERE id = $1`, *data.FormatID).
			Scan(&format.ID, &format.Name)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("failed to get edition format: %w", err)
		}
		if err == nil {
			edition.Format = format
		}
	}

	if data.StatusID != nil {
		status := &models.EditionStatus{}
		err := r.db.QueryRow(ctx, `SELECT id, name FROM edition_status WHERE id = $1`, *data.StatusID).
			Scan(&status.ID, &status.Name)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("failed to get edition status: %w", err)
		}
		if err == nil {
			edition.Status = status
		}
	}

	return nil
}

// loadEditionData fetches a data row with the requested relation collections
func loadEditionData(ctx context.Context, q querier, dataID int64, rels models.EditionRelations) (*models.EditionData, error) {
	query := `
		SELECT id, width, height, depth, weight, pages, format_id, status_id, publication_bbid
		FROM edition_data
		WHERE id = $1
	`

	data := &models.EditionData{}
	err := q.QueryRow(ctx, query, dataID).Scan(
		&data.ID,
		&data.Width,
		&data.Height,
		&data.Depth,
		&data.Weight,
		&data.Pages,
		&data.FormatID,
		&data.StatusID,
		&data.PublicationBBID,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, cerrors.NewNotFound("edition data %d not found", dataID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get edition data: %w", err)
	}

	if rels.Languages {
		if data.Languages, err = loadDataLanguages(ctx, q, "edition_data_language", dataID); err != nil {
			return nil, err
		}
	}

	if rels.Publishers {
		if data.Publishers, err = loadDataPublishers(ctx, q, dataID); err != nil {
			return nil, err
		}
	}

	if rels.ReleaseEvents {
		if data.ReleaseEvents, err = loadReleaseEvents(ctx, q, dataID); err != nil {
			return nil, err
		}
	}

	return data, nil
}

// loadDataLanguages fetches the language rows attached to a data row. The
// association table is shared in shape between editions and works, so the
// table name is a parameter. Duplicate attachments come back as duplicate
// rows.
func loadDataLanguages(ctx context.Context, q querier, table string, dataID int64) ([]models.Language, error) {
	query := fmt.Sprintf(`
		SELECT l.id, l.name
		FROM %s dl
		JOIN language l ON l.id = dl.language_id
		WHERE dl.data_id = $1
		ORDER BY dl.id
	`, table)

	rows, err := q.Query(ctx, query, dataID)
	if err != nil {
		return nil, fmt.Errorf("failed to list data languages: %w", err)
	}
	defer rows.Close()

	var languages []models.Language
	for rows.Next() {
		var lang models.Language
		if err := rows.Scan(&lang.ID, &lang.Name); err != nil {
			return nil, fmt.Errorf("failed to scan language: %w", err)
		}
		languages = append(languages, lang)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating languages: %w", err)
	}

	return languages, nil
}

// loadDataPublishers fetches the publisher rows attached to an edition data row
func loadDataPublishers(ctx context.Context, q querier, dataID int64) ([]models.Publisher, error) {
	query := `
		SELECT p.bbid, p.name
		FROM edition_data_publisher dp
		JOIN publisher p ON p.bbid = dp.publisher_bbid
		WHERE dp.data_id = $1
		ORDER BY dp.id
	`

	rows, err := q.Query(ctx, query, dataID)
	if err != nil {
		return nil, fmt.Errorf("failed to list data publishers: %w", err)
	}
	defer rows.Close()

	var publishers []models.Publisher
	for rows.Next() {
		var pub models.Publisher
		if err := rows.Scan(&pub.BBID, &pub.Name); err != nil {
			return nil, fmt.Errorf("failed to scan publisher: %w", err)
		}
		publishers = append(publishers, pub)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating publishers: %w", err)
	}

	return publishers, nil
}

// loadReleaseEvents fetches release events newest first, so index 0 is the
// logically-current one.
func loadReleaseEvents(ctx context.Context, q querier, dataID int64) ([]models.ReleaseEvent, error) {
	query := `
		SELECT id, data_id, release_date, created_at
		FROM release_event
		WHERE data_id = $1
		ORDER BY created_at DESC, id DESC
	`

	rows, err := q.Query(ctx, query, dataID)
	if err != nil {
		return nil, fmt.Errorf("failed to list release events: %w", err)
	}
	defer rows.Close()

	var events []models.ReleaseEvent
	for rows.Next() {
		var ev models.ReleaseEvent
		if err := rows.Scan(&ev.ID, &ev.DataID, &ev.Date, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan release event: %w", err)
		}
		events = append(events, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating release events: %w", err)
	}

	return events, nil
}

// editionTx implements the transaction surface of the edition update
// protocol on a pgx transaction.
type editionTx struct {
	tx pgx.Tx
}

var _ service.EditionTx = (*editionTx)(nil)

// CurrentRevision fetches the entity's current revision inside the transaction
func (t *editionTx) CurrentRevision(ctx context.Context, bbid uuid.UUID, rels models.EditionRelations) (*models.EditionRevision, error) {
	query := `
		SELECT r.id, r.bbid, r.editor_id, r.data_id, r.parent_id, r.created_at
		FROM edition e
		JOIN edition_revision r ON r.id = e.current_revision_id
		WHERE e.bbid = $1
		FOR UPDATE OF e
	`

	rev := &models.EditionRevision{}
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
		return nil, cerrors.NewNotFound("edition %s not found", bbid)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get current revision: %w", err)
	}
	// A deleted entity cannot be edited; its current revision has no data.
	if dataID == nil {
		return nil, cerrors.NewNotFound("edition %s is deleted", bbid)
	}
	rev.DataID = *dataID

	data, err := loadEditionData(ctx, t.tx, rev.DataID, rels)
	if err != nil {
		return nil, err
	}
	rev.Data = data

	return rev, nil
}

// CreateEntity inserts the entity header and an empty data row
func (t *editionTx) CreateEntity(ctx context.Context, bbid uuid.UUID, name string) (int64, error) {
	var dataID int64
	err := t.tx.QueryRow(ctx, `INSERT INTO edition_data DEFAULT VALUES RETURNING id`).Scan(&dataID)
	if err != nil {
		return 0, fmt.Errorf("failed to create edition data: %w", err)
	}

	if _, err := t.tx.Exec(ctx, `INSERT INTO edition (bbid, name) VALUES ($1, $2)`, bbid, name); err != nil {
		return 0, fmt.Errorf("failed to create edition: %w", err)
	}

	return dataID, nil
}

// UpdateName renames the entity header
func (t *editionTx) UpdateName(ctx context.Context, bbid uuid.UUID, name string) error {
	tag, err := t.tx.Exec(ctx, `UPDATE edition SET name = $2 WHERE bbid = $1`, bbid, name)
	if err != nil {
		return fmt.Errorf("failed to update edition name: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return cerrors.NewNotFound("edition %s not found", bbid)
	}
	return nil
}

// ApplyScalars applies the non-nil scalar fields to the data row
func (t *editionTx) ApplyScalars(ctx context.Context, dataID int64, scalars models.EditionScalars) error {
	set := make([]string, 0, 8)
	args := []any{dataID}

	appendSet := func(column string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if scalars.Width != nil {
		appendSet("width", *scalars.Width)
	}
	if scalars.Height != nil {
		appendSet("height", *scalars.Height)
	}
	if scalars.Depth != nil {
		appendSet("depth", *scalars.Depth)
	}
	if scalars.Weight != nil {
		appendSet("weight", *scalars.Weight)
	}
	if scalars.Pages != nil {
		appendSet("pages", *scalars.Pages)
	}
	if scalars.FormatID != nil {
		appendSet("format_id", *scalars.FormatID)
	}
	if scalars.StatusID != nil {
		appendSet("status_id", *scalars.StatusID)
	}
	if scalars.PublicationBBID != nil {
		pubBBID, err := uuid.Parse(*scalars.PublicationBBID)
		if err != nil {
			return cerrors.NewValidation("publication_bbid", "malformed bbid %q", *scalars.PublicationBBID)
		}
		appendSet("publication_bbid", pubBBID)
	}

	if len(set) == 0 {
		return nil
	}

	query := fmt.Sprintf("UPDATE edition_data SET %s WHERE id = $1", strings.Join(set, ", "))
	if _, err := t.tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to apply edition scalars: %w", err)
	}

	return nil
}

// AttachLanguages adds one association row per id. Repeating an id attaches
// again; nothing here dedupes or detaches.
func (t *editionTx) AttachLanguages(ctx context.Context, dataID int64, languageIDs []int) error {
	return attachLanguages(ctx, t.tx, "edition_data_language", dataID, languageIDs)
}

// AttachPublishers adds one association row per bbid
func (t *editionTx) AttachPublishers(ctx context.Context, dataID int64, publisherBBIDs []uuid.UUID) error {
	for _, pubBBID := range publisherBBIDs {
		_, err := t.tx.Exec(ctx,
			`INSERT INTO edition_data_publisher (data_id, publisher_bbid) VALUES ($1, $2)`,
			dataID, pubBBID)
		if err != nil {
			return fmt.Errorf("failed to attach publisher %s: %w", pubBBID, err)
		}
	}
	return nil
}

// CreateReleaseEvent appends a new release event row
func (t *editionTx) CreateReleaseEvent(ctx context.Context, dataID int64, date string) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO release_event (data_id, release_date) VALUES ($1, $2)`,
		dataID, date)
	if err != nil {
		return fmt.Errorf("failed to create release event: %w", err)
	}
	return nil
}

// Snapshot marshals the full post-edit payload of the data row
func (t *editionTx) Snapshot(ctx context.Context, dataID int64) ([]byte, error) {
	data, err := loadEditionData(ctx, t.tx, dataID, models.EditionRelations{
		Languages:     true,
		Publishers:    true,
		ReleaseEvents: true,
	})
	if err != nil {
		return nil, err
	}

	snapshot, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal edition snapshot: %w", err)
	}

	return snapshot, nil
}

// InsertRevision records the new revision row
func (t *editionTx) InsertRevision(ctx context.Context, bbid uuid.UUID, editorID int64, dataID int64, parentID *int64, snapshot []byte) (int64, error) {
	query := `
		INSERT INTO edition_revision (bbid, editor_id, data_id, parent_id, snapshot)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	var revisionID int64
	if err := t.tx.QueryRow(ctx, query, bbid, editorID, dataID, parentID, snapshot).Scan(&revisionID); err != nil {
		return 0, fmt.Errorf("failed to insert edition revision: %w", err)
	}

	return revisionID, nil
}

// InsertDeletionRevision records a revision with a NULL data id and an empty
// snapshot, so the diff against the parent renders everything removed
func (t *editionTx) InsertDeletionRevision(ctx context.Context, bbid uuid.UUID, editorID int64, parentID *int64) (int64, error) {
	query := `
		INSERT INTO edition_revision (bbid, editor_id, data_id, parent_id, snapshot)
		VALUES ($1, $2, NULL, $3, '{}')
		RETURNING id
	`

	var revisionID int64
	if err := t.tx.QueryRow(ctx, query, bbid, editorID, parentID).Scan(&revisionID); err != nil {
		return 0, fmt.Errorf("failed to insert edition deletion revision: %w", err)
	}

	return revisionID, nil
}

// SetCurrentRevision repoints the entity header at the new revision
func (t *editionTx) SetCurrentRevision(ctx context.Context, bbid uuid.UUID, revisionID int64) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE edition SET current_revision_id = $2 WHERE bbid = $1`, bbid, revisionID)
	if err != nil {
		return fmt.Errorf("failed to set current revision: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return cerrors.NewNotFound("edition %s not found", bbid)
	}
	return nil
}

// attachLanguages is shared by edition and work transactions
func attachLanguages(ctx context.Context, tx pgx.Tx, table string, dataID int64, languageIDs []int) error {
	query := fmt.Sprintf(`INSERT INTO %s (data_id, language_id) VALUES ($1, $2)`, table)
	for _, langID := range languageIDs {
		if _, err := tx.Exec(ctx, query, dataID, langID); err != nil {
			return fmt.Errorf("failed to attach language %d: %w", langID, err)
		}
	}
	return nil
}
