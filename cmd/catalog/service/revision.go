package service

import (
	"context"
	"encoding/json"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/google/uuid"
	"github.com/openshelf/catalog/common/cerrors"
	"github.com/openshelf/catalog/common/logger"
	"github.com/openshelf/catalog/common/models"
)

// RevisionStore is the read surface for revision history
type RevisionStore interface {
	// History lists an entity's revisions newest first.
	History(ctx context.Context, entityType models.EntityType, bbid uuid.UUID, limit int) ([]*models.RevisionRecord, error)
	// Get fetches one revision with its snapshot, or fails with a
	// NotFoundError.
	Get(ctx context.Context, entityType models.EntityType, revisionID int64) (*models.RevisionRecord, error)
}

// RevisionService serves revision history and diffs between revisions
type RevisionService struct {
	store RevisionStore
	log   *logger.Logger
}

// NewRevisionService creates a new revision service
func NewRevisionService(store RevisionStore, log *logger.Logger) *RevisionService {
	return &RevisionService{store: store, log: log}
}

// History lists an entity's revision chain, newest first
func (s *RevisionService) History(ctx context.Context, entityType models.EntityType, bbid uuid.UUID, limit int) ([]*models.RevisionRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.store.History(ctx, entityType, bbid, limit)
}

// Diff renders a revision's change as a JSON merge patch against its parent
// snapshot. The first revision of an entity diffs against the empty document,
// so its patch is the full payload.
func (s *RevisionService) Diff(ctx context.Context, entityType models.EntityType, revisionID int64) (*models.RevisionDiff, error) {
	rev, err := s.store.Get(ctx, entityType, revisionID)
	if err != nil {
		return nil, err
	}

	base := json.RawMessage(`{}`)
	if rev.ParentID != nil {
		parent, err := s.store.Get(ctx, entityType, *rev.ParentID)
		if err != nil {
			if !cerrors.IsNotFound(err) {
				return nil, err
			}
			// A pruned parent degrades to a full-payload diff.
			s.log.Warn("parent revision missing, diffing against empty document",
				"revision_id", revisionID, "parent_id", *rev.ParentID)
		} else {
			base = parent.Snapshot
		}
	}

	patch, err := jsonpatch.CreateMergePatch(base, rev.Snapshot)
	if err != nil {
		return nil, cerrors.NewPersistence("revision diff", err)
	}

	return &models.RevisionDiff{
		RevisionID: rev.ID,
		ParentID:   rev.ParentID,
		Patch:      patch,
	}, nil
}
