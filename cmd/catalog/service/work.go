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

// WorkStore is the persistence gateway surface for works
type WorkStore interface {
	Fetch(ctx context.Context, bbid uuid.UUID, rels models.WorkRelations) (*models.Work, error)
	InTx(ctx context.Context, fn func(tx WorkTx) error) error
}

// WorkTx is the transaction-scoped persistence surface of the work update
// protocol. Works carry no singleton relation, so the hook surface is just
// the additive language attach.
type WorkTx interface {
	CurrentRevision(ctx context.Context, bbid uuid.UUID, rels models.WorkRelations) (*models.WorkRevision, error)
	CreateEntity(ctx context.Context, bbid uuid.UUID, name string) (int64, error)
	UpdateName(ctx context.Context, bbid uuid.UUID, name string) error
	SetType(ctx context.Context, dataID int64, typeID int) error
	AttachLanguages(ctx context.Context, dataID int64, languageIDs []int) error
	Snapshot(ctx context.Context, dataID int64) ([]byte, error)
	InsertRevision(ctx context.Context, bbid uuid.UUID, editorID int64, dataID int64, parentID *int64, snapshot []byte) (int64, error)
	InsertDeletionRevision(ctx context.Context, bbid uuid.UUID, editorID int64, parentID *int64) (int64, error)
	SetCurrentRevision(ctx context.Context, bbid uuid.UUID, revisionID int64) error
}

// WorkService applies change-sets to works through the revision update
// protocol.
type WorkService struct {
	store     WorkStore
	validator *validation.ChangeSetValidator
	publisher *changePublisher
	metrics   *metrics.Metrics
	log       *logger.Logger
}

// WorkServiceOpts contains options for creating a WorkService
type WorkServiceOpts struct {
	Store   WorkStore
	Queue   queue.Queue
	Topic   string
	Metrics *metrics.Metrics
	Logger  *logger.Logger
}

// NewWorkService creates a new work service
func NewWorkService(opts *WorkServiceOpts) *WorkService {
	return &WorkService{
		store:     opts.Store,
		validator: validation.NewChangeSetValidator(),
		publisher: newChangePublisher(opts.Queue, opts.Topic, opts.Metrics, opts.Logger),
		metrics:   opts.Metrics,
		log:       opts.Logger,
	}
}

// Get loads a work aggregate for rendering
func (s *WorkService) Get(ctx context.Context, bbid uuid.UUID) (*models.Work, error) {
	work, err := s.store.Fetch(ctx, bbid, models.AllWorkRelations())
	if err != nil {
		if cerrors.IsNotFound(err) {
			s.metrics.EntityFetches.WithLabelValues(string(models.EntityTypeWork), "miss").Inc()
		}
		return nil, err
	}

	s.metrics.EntityFetches.WithLabelValues(string(models.EntityTypeWork), "hit").Inc()
	return work, nil
}

// Create makes a new work with its first revision
func (s *WorkService) Create(ctx context.Context, editorID int64, name string, cs *models.WorkChangeSet) (*UpdateResult, error) {
	if name == "" {
		return nil, cerrors.NewValidation("name", "name is required")
	}
	if err := s.validator.ValidateWork(cs); err != nil {
		return nil, err
	}

	bbid := uuid.New()
	start := time.Now()

	var result UpdateResult
	txErr := s.store.InTx(ctx, func(tx WorkTx) error {
		dataID, err := tx.CreateEntity(ctx, bbid, name)
		if err != nil {
			return err
		}

		if err := applyWorkChanges(ctx, tx, dataID, cs); err != nil {
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
		return nil, wrapTxError("work create", txErr)
	}

	s.metrics.RevisionsCreated.WithLabelValues(string(models.EntityTypeWork), "create").Inc()
	s.metrics.UpdateDuration.WithLabelValues(string(models.EntityTypeWork)).Observe(time.Since(start).Seconds())
	s.publisher.entityChanged(ctx, models.EntityTypeWork, bbid, editorID, name)

	s.log.Info("work created", "bbid", bbid, "editor_id", editorID, "revision_id", result.RevisionID)
	return &result, nil
}

// Update applies a sparse change-set to an existing work, producing a new
// revision. Omitted fields stay untouched.
func (s *WorkService) Update(ctx context.Context, bbid uuid.UUID, editorID int64, cs *models.WorkChangeSet) (*UpdateResult, error) {
	if err := s.validator.ValidateWork(cs); err != nil {
		return nil, err
	}

	start := time.Now()

	var result UpdateResult
	txErr := s.store.InTx(ctx, func(tx WorkTx) error {
		current, err := tx.CurrentRevision(ctx, bbid, cs.Relations())
		if err != nil {
			return err
		}

		if cs.Name != nil {
			if err := tx.UpdateName(ctx, bbid, *cs.Name); err != nil {
				return err
			}
		}

		if err := applyWorkChanges(ctx, tx, current.DataID, cs); err != nil {
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
		return nil, wrapTxError("work update", txErr)
	}

	var label string
	if cs.Name != nil {
		label = *cs.Name
	} else if work, err := s.store.Fetch(ctx, bbid, models.WorkRelations{}); err == nil {
		label = work.Name
	}

	s.metrics.RevisionsCreated.WithLabelValues(string(models.EntityTypeWork), "update").Inc()
	s.metrics.UpdateDuration.WithLabelValues(string(models.EntityTypeWork)).Observe(time.Since(start).Seconds())
	s.publisher.entityChanged(ctx, models.EntityTypeWork, bbid, editorID, label)

	s.log.Info("work updated", "bbid", bbid, "editor_id", editorID, "revision_id", result.RevisionID)
	return &result, nil
}

// Delete retires a work by recording a deletion revision, keeping its
// revision history readable
func (s *WorkService) Delete(ctx context.Context, bbid uuid.UUID, editorID int64) (*UpdateResult, error) {
	var label string
	if work, err := s.store.Fetch(ctx, bbid, models.WorkRelations{}); err == nil {
		label = work.Name
	}

	start := time.Now()

	var result UpdateResult
	txErr := s.store.InTx(ctx, func(tx WorkTx) error {
		current, err := tx.CurrentRevision(ctx, bbid, models.WorkRelations{})
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
		return nil, wrapTxError("work delete", txErr)
	}

	s.metrics.RevisionsCreated.WithLabelValues(string(models.EntityTypeWork), "delete").Inc()
	s.metrics.UpdateDuration.WithLabelValues(string(models.EntityTypeWork)).Observe(time.Since(start).Seconds())
	s.publisher.entityChanged(ctx, models.EntityTypeWork, bbid, editorID, label)

	s.log.Info("work deleted", "bbid", bbid, "editor_id", editorID, "revision_id", result.RevisionID)
	return &result, nil
}

// applyWorkChanges applies the data-level parts of the change-set: the type
// scalar and the additive language attach. An empty language list is a
// zero-row attach, distinct from a nil (omitted) one.
func applyWorkChanges(ctx context.Context, tx WorkTx, dataID int64, cs *models.WorkChangeSet) error {
	if cs.TypeID != nil {
		if err := tx.SetType(ctx, dataID, *cs.TypeID); err != nil {
			return err
		}
	}

	if cs.Languages != nil {
		if err := tx.AttachLanguages(ctx, dataID, *cs.Languages); err != nil {
			return err
		}
	}

	return nil
}
