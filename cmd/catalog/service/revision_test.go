package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/openshelf/catalog/common/cerrors"
	"github.com/openshelf/catalog/common/logger"
	"github.com/openshelf/catalog/common/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRevisionStore struct {
	records map[int64]*models.RevisionRecord
}

func (s *fakeRevisionStore) History(ctx context.Context, entityType models.EntityType, bbid uuid.UUID, limit int) ([]*models.RevisionRecord, error) {
	var out []*models.RevisionRecord
	for _, rec := range s.records {
		if rec.BBID == bbid {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *fakeRevisionStore) Get(ctx context.Context, entityType models.EntityType, revisionID int64) (*models.RevisionRecord, error) {
	rec, ok := s.records[revisionID]
	if !ok {
		return nil, cerrors.NewNotFound("revision %d not found", revisionID)
	}
	return rec, nil
}

func TestRevisionDiff_FirstRevisionIsFullPayload(t *testing.T) {
	store := &fakeRevisionStore{records: map[int64]*models.RevisionRecord{
		1: {ID: 1, Snapshot: json.RawMessage(`{"pages":310,"languages":[{"id":1}]}`)},
	}}
	svc := NewRevisionService(store, logger.New("error", "text"))

	diff, err := svc.Diff(context.Background(), models.EntityTypeEdition, 1)
	require.NoError(t, err)

	assert.JSONEq(t, `{"pages":310,"languages":[{"id":1}]}`, string(diff.Patch))
	assert.Nil(t, diff.ParentID)
}

func TestRevisionDiff_AgainstParent(t *testing.T) {
	parentID := int64(1)
	store := &fakeRevisionStore{records: map[int64]*models.RevisionRecord{
		1: {ID: 1, Snapshot: json.RawMessage(`{"pages":310,"width":100}`)},
		2: {ID: 2, ParentID: &parentID, Snapshot: json.RawMessage(`{"pages":320,"width":100}`)},
	}}
	svc := NewRevisionService(store, logger.New("error", "text"))

	diff, err := svc.Diff(context.Background(), models.EntityTypeEdition, 2)
	require.NoError(t, err)

	// The merge patch carries only the changed field.
	assert.JSONEq(t, `{"pages":320}`, string(diff.Patch))
	assert.Equal(t, parentID, *diff.ParentID)
}

func TestRevisionDiff_UnchangedSnapshotIsEmptyPatch(t *testing.T) {
	parentID := int64(1)
	store := &fakeRevisionStore{records: map[int64]*models.RevisionRecord{
		1: {ID: 1, Snapshot: json.RawMessage(`{"pages":310}`)},
		2: {ID: 2, ParentID: &parentID, Snapshot: json.RawMessage(`{"pages":310}`)},
	}}
	svc := NewRevisionService(store, logger.New("error", "text"))

	diff, err := svc.Diff(context.Background(), models.EntityTypeEdition, 2)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(diff.Patch))
}

func TestRevisionDiff_NotFound(t *testing.T) {
	store := &fakeRevisionStore{records: map[int64]*models.RevisionRecord{}}
	svc := NewRevisionService(store, logger.New("error", "text"))

	_, err := svc.Diff(context.Background(), models.EntityTypeEdition, 42)
	require.Error(t, err)
	assert.True(t, cerrors.IsNotFound(err))
}
