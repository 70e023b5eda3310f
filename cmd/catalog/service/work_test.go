package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/openshelf/catalog/common/cerrors"
	"github.com/openshelf/catalog/common/logger"
	"github.com/openshelf/catalog/common/metrics"
	"github.com/openshelf/catalog/common/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWorkStore struct {
	state  *fakeWorkState
	failOn string
}

type fakeWorkState struct {
	works     map[uuid.UUID]*fakeEditionHeader
	data      map[int64]*fakeWorkData
	revisions map[int64]*fakeRevision
	nextData  int64
	nextRev   int64
}

type fakeWorkData struct {
	typeID    *int
	languages []int
}

func newFakeWorkStore() *fakeWorkStore {
	return &fakeWorkStore{
		state: &fakeWorkState{
			works:     make(map[uuid.UUID]*fakeEditionHeader),
			data:      make(map[int64]*fakeWorkData),
			revisions: make(map[int64]*fakeRevision),
		},
	}
}

func (s *fakeWorkState) clone() *fakeWorkState {
	next := &fakeWorkState{
		works:     make(map[uuid.UUID]*fakeEditionHeader, len(s.works)),
		data:      make(map[int64]*fakeWorkData, len(s.data)),
		revisions: make(map[int64]*fakeRevision, len(s.revisions)),
		nextData:  s.nextData,
		nextRev:   s.nextRev,
	}
	for bbid, h := range s.works {
		cp := *h
		next.works[bbid] = &cp
	}
	for id, d := range s.data {
		cp := &fakeWorkData{typeID: d.typeID}
		cp.languages = append(cp.languages, d.languages...)
		next.data[id] = cp
	}
	for id, r := range s.revisions {
		cp := *r
		next.revisions[id] = &cp
	}
	return next
}

func (s *fakeWorkStore) Fetch(ctx context.Context, bbid uuid.UUID, rels models.WorkRelations) (*models.Work, error) {
	header, ok := s.state.works[bbid]
	if !ok {
		return nil, cerrors.NewNotFound("work %s not found", bbid)
	}
	if rev, ok := s.state.revisions[header.currentRev]; ok && rev.dataID == 0 {
		return nil, cerrors.NewNotFound("work %s is deleted", bbid)
	}
	return &models.Work{BBID: bbid, Name: header.name, CurrentRevisionID: header.currentRev}, nil
}

func (s *fakeWorkStore) InTx(ctx context.Context, fn func(tx WorkTx) error) error {
	staged := s.state.clone()
	if err := fn(&fakeWorkTx{state: staged, failOn: s.failOn}); err != nil {
		return err
	}
	s.state = staged
	return nil
}

type fakeWorkTx struct {
	state  *fakeWorkState
	failOn string
}

func (t *fakeWorkTx) fail(method string) error {
	if t.failOn == method {
		return errors.New("injected failure: " + method)
	}
	return nil
}

func (t *fakeWorkTx) CurrentRevision(ctx context.Context, bbid uuid.UUID, rels models.WorkRelations) (*models.WorkRevision, error) {
	header, ok := t.state.works[bbid]
	if !ok {
		return nil, cerrors.NewNotFound("work %s not found", bbid)
	}
	rev := t.state.revisions[header.currentRev]
	if rev.dataID == 0 {
		return nil, cerrors.NewNotFound("work %s is deleted", bbid)
	}
	out := &models.WorkRevision{ID: header.currentRev, BBID: bbid, EditorID: rev.editorID, DataID: rev.dataID}
	out.Data = &models.WorkData{ID: rev.dataID, TypeID: t.state.data[rev.dataID].typeID}
	if rels.Languages {
		for _, id := range t.state.data[rev.dataID].languages {
			out.Data.Languages = append(out.Data.Languages, models.Language{ID: id})
		}
	}
	return out, nil
}

func (t *fakeWorkTx) CreateEntity(ctx context.Context, bbid uuid.UUID, name string) (int64, error) {
	if err := t.fail("CreateEntity"); err != nil {
		return 0, err
	}
	t.state.nextData++
	t.state.data[t.state.nextData] = &fakeWorkData{}
	t.state.works[bbid] = &fakeEditionHeader{name: name}
	return t.state.nextData, nil
}

func (t *fakeWorkTx) UpdateName(ctx context.Context, bbid uuid.UUID, name string) error {
	if err := t.fail("UpdateName"); err != nil {
		return err
	}
	t.state.works[bbid].name = name
	return nil
}

func (t *fakeWorkTx) SetType(ctx context.Context, dataID int64, typeID int) error {
	if err := t.fail("SetType"); err != nil {
		return err
	}
	t.state.data[dataID].typeID = &typeID
	return nil
}

func (t *fakeWorkTx) AttachLanguages(ctx context.Context, dataID int64, languageIDs []int) error {
	if err := t.fail("AttachLanguages"); err != nil {
		return err
	}
	d := t.state.data[dataID]
	d.languages = append(d.languages, languageIDs...)
	return nil
}

func (t *fakeWorkTx) Snapshot(ctx context.Context, dataID int64) ([]byte, error) {
	if err := t.fail("Snapshot"); err != nil {
		return nil, err
	}
	return json.Marshal(t.state.data[dataID].languages)
}

func (t *fakeWorkTx) InsertRevision(ctx context.Context, bbid uuid.UUID, editorID int64, dataID int64, parentID *int64, snapshot []byte) (int64, error) {
	if err := t.fail("InsertRevision"); err != nil {
		return 0, err
	}
	t.state.nextRev++
	t.state.revisions[t.state.nextRev] = &fakeRevision{
		bbid:     bbid,
		editorID: editorID,
		dataID:   dataID,
		parentID: parentID,
		snapshot: snapshot,
	}
	return t.state.nextRev, nil
}

func (t *fakeWorkTx) InsertDeletionRevision(ctx context.Context, bbid uuid.UUID, editorID int64, parentID *int64) (int64, error) {
	if err := t.fail("InsertDeletionRevision"); err != nil {
		return 0, err
	}
	t.state.nextRev++
	t.state.revisions[t.state.nextRev] = &fakeRevision{
		bbid:     bbid,
		editorID: editorID,
		parentID: parentID,
		snapshot: []byte("{}"),
	}
	return t.state.nextRev, nil
}

func (t *fakeWorkTx) SetCurrentRevision(ctx context.Context, bbid uuid.UUID, revisionID int64) error {
	if err := t.fail("SetCurrentRevision"); err != nil {
		return err
	}
	t.state.works[bbid].currentRev = revisionID
	return nil
}

func newWorkService(store *fakeWorkStore) *WorkService {
	return NewWorkService(&WorkServiceOpts{
		Store:   store,
		Metrics: metrics.New("test"),
		Logger:  logger.New("error", "text"),
	})
}

func TestWorkCreate_FirstRevision(t *testing.T) {
	store := newFakeWorkStore()
	svc := newWorkService(store)

	result, err := svc.Create(context.Background(), 3, "Ulysses", &models.WorkChangeSet{
		TypeID:    intPtr(2),
		Languages: langsPtr(5),
	})
	require.NoError(t, err)

	rev := store.state.revisions[result.RevisionID]
	require.NotNil(t, rev)
	assert.Nil(t, rev.parentID)
	assert.Equal(t, result.RevisionID, store.state.works[result.BBID].currentRev)

	d := store.state.data[result.DataID]
	assert.Equal(t, 2, *d.typeID)
	assert.Equal(t, []int{5}, d.languages)
}

func TestWorkUpdate_AdditiveLanguages(t *testing.T) {
	store := newFakeWorkStore()
	svc := newWorkService(store)

	created, err := svc.Create(context.Background(), 1, "Ulysses", &models.WorkChangeSet{Languages: langsPtr(1)})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), created.BBID, 1, &models.WorkChangeSet{Languages: langsPtr(1, 2)})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 1, 2}, store.state.data[created.DataID].languages)
}

func TestWorkUpdate_OmittedFieldsUntouched(t *testing.T) {
	store := newFakeWorkStore()
	svc := newWorkService(store)

	created, err := svc.Create(context.Background(), 1, "Ulysses", &models.WorkChangeSet{TypeID: intPtr(4)})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), created.BBID, 1, &models.WorkChangeSet{Name: strPtr("Ulysses (annotated)")})
	require.NoError(t, err)

	d := store.state.data[created.DataID]
	assert.Equal(t, 4, *d.typeID)
	assert.Empty(t, d.languages)
	assert.Equal(t, "Ulysses (annotated)", store.state.works[created.BBID].name)
}

func TestWorkDelete_RecordsDeletionRevision(t *testing.T) {
	store := newFakeWorkStore()
	svc := newWorkService(store)

	created, err := svc.Create(context.Background(), 1, "Ulysses", &models.WorkChangeSet{})
	require.NoError(t, err)

	result, err := svc.Delete(context.Background(), created.BBID, 2)
	require.NoError(t, err)

	rev := store.state.revisions[result.RevisionID]
	require.NotNil(t, rev)
	assert.Equal(t, &created.RevisionID, rev.parentID)
	assert.Zero(t, rev.dataID)
	assert.Equal(t, result.RevisionID, store.state.works[created.BBID].currentRev)

	_, err = svc.Get(context.Background(), created.BBID)
	assert.True(t, cerrors.IsNotFound(err))
	_, err = svc.Update(context.Background(), created.BBID, 1, &models.WorkChangeSet{TypeID: intPtr(1)})
	assert.True(t, cerrors.IsNotFound(err))
}

func TestWorkUpdate_AtomicRollback(t *testing.T) {
	store := newFakeWorkStore()
	svc := newWorkService(store)

	created, err := svc.Create(context.Background(), 1, "Ulysses", &models.WorkChangeSet{})
	require.NoError(t, err)

	store.failOn = "SetCurrentRevision"
	_, err = svc.Update(context.Background(), created.BBID, 1, &models.WorkChangeSet{TypeID: intPtr(9)})
	require.Error(t, err)
	assert.True(t, cerrors.IsPersistence(err))

	assert.Nil(t, store.state.data[created.DataID].typeID)
	assert.Equal(t, created.RevisionID, store.state.works[created.BBID].currentRev)
}
