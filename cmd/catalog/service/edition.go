package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/openshelf/catalog/common/cerrors"
	"github.com/openshelf/catalog/common/logger"
	"github.com/openshelf/catalog/common/metrics"
	"github.com/openshelf/catalog/common/models"
	"github.com/openshelf/catalog/common/queue"
	"github.com/openshelf/catalog/common/validation"
)

// EditionStore is the persistence gateway surface for editions. The pgx
// implementation lives in the repository package; tests supply an in-memory
// one.
type EditionStore interface {
	// Fetch loads an edition aggregate with the named relations, or fails
	// with a NotFoundError.
	Fetch(ctx context.Context, bbid uuid.UUID, rels models.EditionRelations) (*models.Edition, error)
	// InTx runs fn inside one transaction; fn's writes commit or roll back
	// atomically.
	InTx(ctx context.Context, fn func(tx EditionTx) error) error
}

// EditionTx is the transaction-scoped persistence surface of the edition
// update protocol.
type EditionTx interface {
	// CurrentRevision fetches the entity's current revision with only the
	// named relation collections.
	CurrentRevision(ctx context.Context, bbid uuid.UUID, rels models.EditionRelations) (*models.EditionRevision, error)
	// CreateEntity inserts the header and an empty data row, returning the
	// data id.
	CreateEntity(ctx context.Context, bbid uuid.UUID, name string) (int64, error)
	UpdateName(ctx context.Context, bbid uuid.UUID, name string) error
	// ApplyScalars applies the non-nil scalar fields to the data row.
	ApplyScalars(ctx context.Context, dataID int64, scalars models.EditionScalars) error
	// AttachLanguages adds one association row per id, scoped to dataID.
	// Rows are only ever added, never replaced.
	AttachLanguages(ctx context.Context, dataID int64, languageIDs []int) error
	AttachPublishers(ctx context.Context, dataID int64, publisherBBIDs []uuid.UUID) error
	CreateReleaseEvent(ctx context.Context, dataID int64, date string) error
	// Snapshot marshals the full post-edit payload of the data row for the
	// revision record.
	Snapshot(ctx context.Context, dataID int64) ([]byte, error)
	InsertRevision(ctx context.Context, bbid uuid.UUID, editorID int64, dataID int64, parentID *int64, snapshot []byte) (int64, error)
	// InsertDeletionRevision records a revision with no data row, marking
	// the entity deleted as of that revision. History stays readable.
	InsertDeletionRevision(ctx context.Context, bbid uuid.UUID, editorID int64, parentID *int64) (int64, error)
	SetCurrentRevision(ctx context.Context, bbid uuid.UUID, revisionID int64) error
}

// EditionService applies change-sets to editions through the revision
// update protocol.
type EditionService struct {
	store     EditionStore
	validator *validation.ChangeSetValidator
	publisher *changePublisher
	metrics   *metrics.Metrics
	log       *logger.Logger
}

// EditionServiceOpts contains options for creating an EditionService
type EditionServiceOpts struct {
	Store   EditionStore
	Queue   queue.Queue
	Topic   string
	Metrics *metrics.Metrics
	Logger  *logger.Logger
}

// NewEditionService creates a new edition service
func NewEditionService(opts *EditionServiceOpts) *EditionService {
	return &EditionService{
		store:     opts.Store,
		validator: validation.NewChangeSetValidator(),
		publisher: newChangePublisher(opts.Queue, opts.Topic, opts.Metrics, opts.Logger),
		metrics:   opts.Metrics,
		log:       opts.Logger,
	}
}

// Get loads an edition aggregate for rendering
func (s *EditionService) Get(ctx context.Context, bbid uuid.UUID) (*models.Edition, error) {
	edition, err := s.store.Fetch(ctx, bbid, models.AllEditionRelations())
	if err != nil {
		if cerrors.IsNotFound(err) {
			s.metrics.EntityFetches.WithLabelValues(string(models.EntityTypeEdition), "miss").Inc()
		}
		return nil, err
	}

	s.metrics.EntityFetches.WithLabelValues(string(models.EntityTypeEdition), "hit").Inc()
	return edition, nil
}

// Create makes a new edition: first revision, fresh data row, then the same
// relation hook as an edit runs against the empty data. A singleton value in
// the change-set is always created here since nothing pre-exists to compare
// against.
func (s *EditionService) Create(ctx context.Context, editorID int64, name string, cs *models.EditionChangeSet) (*UpdateResult, error) {
	if name == "" {
		return nil, cerrors.NewValidation("name", "name is required")
	}
	if err := s.validator.ValidateEdition(cs); err != nil {
		return nil, err
	}
	publisherBBIDs, err := parsePublishers(cs)
	if err != nil {
		return nil, err
	}

	bbid := uuid.New()
	start := time.Now()

	var result UpdateResult
	txErr := s.store.InTx(ctx, func(tx EditionTx) error {
		dataID, err := tx.CreateEntity(ctx, bbid, name)
		if err != nil {
			return err
		}

		if cs.Scalars != nil {
			if err := tx.ApplyScalars(ctx, dataID, *cs.Scalars); err != nil {
				return err
			}
		}

		if err := s.applyRelationHook(ctx, tx, dataID, cs, publisherBBIDs, nil); err != nil {
			return err
		}

		snapshot, err := tx.Snapshot(ctx, dataID)
		if err != nil {
			return err
		}

		revisionID, err := tx.InsertRevision(ctx, bbid, editorID, dataID, nil, snapshot)
		if err != nil {
			return err
		}

		if err := tx.SetCurrentRevision(ctx, bbid, revisionID); err != nil {
			return err
		}

		result = UpdateResult{BBID: bbid, RevisionID: revisionID, DataID: dataID}
		return nil
	})
	if txErr != nil {
		return nil, wrapTxError("edition create", txErr)
	}

	s.metrics.RevisionsCreated.WithLabelValues(string(models.EntityTypeEdition), "create").Inc()
	s.metrics.UpdateDuration.WithLabelValues(string(models.EntityTypeEdition)).Observe(time.Since(start).Seconds())
	s.publisher.entityChanged(ctx, models.EntityTypeEdition, bbid, editorID, name)

	s.log.Info("edition created", "bbid", bbid, "editor_id", editorID, "revision_id", result.RevisionID)
	return &result, nil
}

// Update applies a sparse change-set to an existing edition, producing a new
// revision. Unspecified fields are left untouched: this is a partial update,
// not a full replace. All writes happen in one transaction; partial
// application is never observable.
func (s *EditionService) Update(ctx context.Context, bbid uuid.UUID, editorID int64, cs *models.EditionChangeSet) (*UpdateResult, error) {
	if err := s.validator.ValidateEdition(cs); err != nil {
		return nil, err
	}
	publisherBBIDs, err := parsePublishers(cs)
	if err != nil {
		return nil, err
	}

	start := time.Now()

	var result UpdateResult
	var label string
	txErr := s.store.InTx(ctx, func(tx EditionTx) error {
		// Pull only the relation collections the change-set could touch.
		current, err := tx.CurrentRevision(ctx, bbid, cs.Relations())
		if err != nil {
			return err
		}

		if cs.Name != nil {
			if err := tx.UpdateName(ctx, bbid, *cs.Name); err != nil {
				return err
			}
		}

		if cs.Scalars != nil {
			if err := tx.ApplyScalars(ctx, current.DataID, *cs.Scalars); err != nil {
				return err
			}
		}

		if err := s.applyRelationHook(ctx, tx, current.DataID, cs, publisherBBIDs, current.Data); err != nil {
			return err
		}

		snapshot, err := tx.Snapshot(ctx, current.DataID)
		if err != nil {
			return err
		}

		revisionID, err := tx.InsertRevision(ctx, bbid, editorID, current.DataID, &current.ID, snapshot)
		if err != nil {
			return err
		}

		if err := tx.SetCurrentRevision(ctx, bbid, revisionID); err != nil {
			return err
		}

		result = UpdateResult{BBID: bbid, RevisionID: revisionID, DataID: current.DataID}
		return nil
	})
	if txErr != nil {
		return nil, wrapTxError("edition update", txErr)
	}

	if cs.Name != nil {
		label = *cs.Name
	}
	if label == "" {
		if edition, err := s.store.Fetch(ctx, bbid, models.EditionRelations{}); err == nil {
			label = edition.Name
		}
	}

	s.metrics.RevisionsCreated.WithLabelValues(string(models.EntityTypeEdition), "update").Inc()
	s.metrics.UpdateDuration.WithLabelValues(string(models.EntityTypeEdition)).Observe(time.Since(start).Seconds())
	s.publisher.entityChanged(ctx, models.EntityTypeEdition, bbid, editorID, label)

	s.log.Info("edition updated", "bbid", bbid, "editor_id", editorID, "revision_id", result.RevisionID)
	return &result, nil
}

// Delete retires an edition by recording a deletion revision: the header is
// repointed at a revision with no data, so loads and further edits report the
// entity as gone while its revision history survives. Same transaction
// discipline as an edit.
func (s *EditionService) Delete(ctx context.Context, bbid uuid.UUID, editorID int64) (*UpdateResult, error) {
	var label string
	if edition, err := s.store.Fetch(ctx, bbid, models.EditionRelations{}); err == nil {
		label = edition.Name
	}

	start := time.Now()

	var result UpdateResult
	txErr := s.store.InTx(ctx, func(tx EditionTx) error {
		current, err := tx.CurrentRevision(ctx, bbid, models.EditionRelations{})
		if err != nil {
			return err
		}

		revisionID, err := tx.InsertDeletionRevision(ctx, bbid, editorID, &current.ID)
		if err != nil {
			return err
		}

		if err := tx.SetCurrentRevision(ctx, bbid, revisionID); err != nil {
			return err
		}

		result = UpdateResult{BBID: bbid, RevisionID: revisionID}
		return nil
	})
	if txErr != nil {
		return nil, wrapTxError("edition delete", txErr)
	}

	s.metrics.RevisionsCreated.WithLabelValues(string(models.EntityTypeEdition), "delete").Inc()
	s.metrics.UpdateDuration.WithLabelValues(string(models.EntityTypeEdition)).Observe(time.Since(start).Seconds())
	s.publisher.entityChanged(ctx, models.EntityTypeEdition, bbid, editorID, label)

	s.log.Info("edition deleted", "bbid", bbid, "editor_id", editorID, "revision_id", result.RevisionID)
	return &result, nil
}

// applyRelationHook runs the per-type relation updates against the current
// data id. Multi-valued relations are additive: the supplied rows are
// attached, nothing is detached, and an empty list is a zero-row attach. The
// singleton release event only compares the newest existing row; on the edit
// path with no existing row nothing is created.
func (s *EditionService) applyRelationHook(ctx context.Context, tx EditionTx, dataID int64, cs *models.EditionChangeSet, publisherBBIDs []uuid.UUID, existing *models.EditionData) error {
	if cs.Languages != nil {
		if err := tx.AttachLanguages(ctx, dataID, *cs.Languages); err != nil {
			return err
		}
	}

	if cs.Publishers != nil {
		if err := tx.AttachPublishers(ctx, dataID, publisherBBIDs); err != nil {
			return err
		}
	}

	if cs.ReleaseDate != nil {
		if existing == nil {
			// Create path: nothing to compare against, always create.
			return tx.CreateReleaseEvent(ctx, dataID, *cs.ReleaseDate)
		}
		if len(existing.ReleaseEvents) > 0 && existing.ReleaseEvents[0].Date != *cs.ReleaseDate {
			return tx.CreateReleaseEvent(ctx, dataID, *cs.ReleaseDate)
		}
	}

	return nil
}

// parsePublishers resolves the change-set's publisher ids before the
// transaction opens
func parsePublishers(cs *models.EditionChangeSet) ([]uuid.UUID, error) {
	if cs == nil || cs.Publishers == nil {
		return nil, nil
	}
	return validation.PublisherBBIDs(*cs.Publishers)
}

// wrapTxError maps transaction failures into the domain taxonomy. NotFound
// and validation errors pass through untouched; everything else is a
// persistence failure whose rollback already discarded all partial writes.
func wrapTxError(op string, err error) error {
	if cerrors.IsNotFound(err) || cerrors.IsValidation(err) {
		return err
	}
	return cerrors.NewPersistence(op, err)
}
