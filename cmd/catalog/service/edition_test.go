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

// fakeEditionStore is an in-memory EditionStore. InTx runs against a deep
// copy of the state and only swaps it in when fn succeeds, mirroring the
// commit/rollback contract.
type fakeEditionStore struct {
	state  *fakeEditionState
	failOn string
}

type fakeEditionState struct {
	editions  map[uuid.UUID]*fakeEditionHeader
	data      map[int64]*fakeEditionData
	revisions map[int64]*fakeRevision
	nextData  int64
	nextRev   int64
}

type fakeEditionHeader struct {
	name       string
	currentRev int64
}

type fakeEditionData struct {
	scalars       models.EditionScalars
	languages     []int
	publishers    []uuid.UUID
	releaseEvents []string // append order; newest is the last element
}

type fakeRevision struct {
	bbid     uuid.UUID
	editorID int64
	dataID   int64
	parentID *int64
	snapshot []byte
}

func newFakeEditionStore() *fakeEditionStore {
	return &fakeEditionStore{
		state: &fakeEditionState{
			editions:  make(map[uuid.UUID]*fakeEditionHeader),
			data:      make(map[int64]*fakeEditionData),
			revisions: make(map[int64]*fakeRevision),
		},
	}
}

func (s *fakeEditionState) clone() *fakeEditionState {
	next := &fakeEditionState{
		editions:  make(map[uuid.UUID]*fakeEditionHeader, len(s.editions)),
		data:      make(map[int64]*fakeEditionData, len(s.data)),
		revisions: make(map[int64]*fakeRevision, len(s.revisions)),
		nextData:  s.nextData,
		nextRev:   s.nextRev,
	}
	for bbid, h := range s.editions {
		cp := *h
		next.editions[bbid] = &cp
	}
	for id, d := range s.data {
		cp := &fakeEditionData{scalars: d.scalars}
		cp.languages = append(cp.languages, d.languages...)
		cp.publishers = append(cp.publishers, d.publishers...)
		cp.releaseEvents = append(cp.releaseEvents, d.releaseEvents...)
		next.data[id] = cp
	}
	for id, r := range s.revisions {
		cp := *r
		next.revisions[id] = &cp
	}
	return next
}

func (s *fakeEditionStore) Fetch(ctx context.Context, bbid uuid.UUID, rels models.EditionRelations) (*models.Edition, error) {
	header, ok := s.state.editions[bbid]
	if !ok {
		return nil, cerrors.NewNotFound("edition %s not found", bbid)
	}
	if rev, ok := s.state.revisions[header.currentRev]; ok && rev.dataID == 0 {
		return nil, cerrors.NewNotFound("edition %s is deleted", bbid)
	}
	return &models.Edition{BBID: bbid, Name: header.name, CurrentRevisionID: header.currentRev}, nil
}

func (s *fakeEditionStore) InTx(ctx context.Context, fn func(tx EditionTx) error) error {
	staged := s.state.clone()
	if err := fn(&fakeEditionTx{state: staged, failOn: s.failOn}); err != nil {
		return err
	}
	s.state = staged
	return nil
}

type fakeEditionTx struct {
	state  *fakeEditionState
	failOn string
}

func (t *fakeEditionTx) fail(method string) error {
	if t.failOn == method {
		return errors.New("injected failure: " + method)
	}
	return nil
}

func (t *fakeEditionTx) CurrentRevision(ctx context.Context, bbid uuid.UUID, rels models.EditionRelations) (*models.EditionRevision, error) {
	header, ok := t.state.editions[bbid]
	if !ok {
		return nil, cerrors.NewNotFound("edition %s not found", bbid)
	}
	rev := t.state.revisions[header.currentRev]
	if rev.dataID == 0 {
		return nil, cerrors.NewNotFound("edition %s is deleted", bbid)
	}
	out := &models.EditionRevision{ID: header.currentRev, BBID: bbid, EditorID: rev.editorID, DataID: rev.dataID}
	out.Data = t.buildData(rev.dataID, rels)
	return out, nil
}

func (t *fakeEditionTx) buildData(dataID int64, rels models.EditionRelations) *models.EditionData {
	d := t.state.data[dataID]
	out := &models.EditionData{ID: dataID}
	if rels.Languages {
		for _, id := range d.languages {
			out.Languages = append(out.Languages, models.Language{ID: id})
		}
	}
	if rels.Publishers {
		for _, bbid := range d.publishers {
			out.Publishers = append(out.Publishers, models.Publisher{BBID: bbid})
		}
	}
	if rels.ReleaseEvents {
		for i := len(d.releaseEvents) - 1; i >= 0; i-- {
			out.ReleaseEvents = append(out.ReleaseEvents, models.ReleaseEvent{DataID: dataID, Date: d.releaseEvents[i]})
		}
	}
	return out
}

func (t *fakeEditionTx) CreateEntity(ctx context.Context, bbid uuid.UUID, name string) (int64, error) {
	if err := t.fail("CreateEntity"); err != nil {
		return 0, err
	}
	t.state.nextData++
	t.state.data[t.state.nextData] = &fakeEditionData{}
	t.state.editions[bbid] = &fakeEditionHeader{name: name}
	return t.state.nextData, nil
}

func (t *fakeEditionTx) UpdateName(ctx context.Context, bbid uuid.UUID, name string) error {
	if err := t.fail("UpdateName"); err != nil {
		return err
	}
	t.state.editions[bbid].name = name
	return nil
}

func (t *fakeEditionTx) ApplyScalars(ctx context.Context, dataID int64, scalars models.EditionScalars) error {
	if err := t.fail("ApplyScalars"); err != nil {
		return err
	}
	d := t.state.data[dataID]
	if scalars.Pages != nil {
		d.scalars.Pages = scalars.Pages
	}
	if scalars.Width != nil {
		d.scalars.Width = scalars.Width
	}
	if scalars.FormatID != nil {
		d.scalars.FormatID = scalars.FormatID
	}
	return nil
}

func (t *fakeEditionTx) AttachLanguages(ctx context.Context, dataID int64, languageIDs []int) error {
	if err := t.fail("AttachLanguages"); err != nil {
		return err
	}
	d := t.state.data[dataID]
	d.languages = append(d.languages, languageIDs...)
	return nil
}

func (t *fakeEditionTx) AttachPublishers(ctx context.Context, dataID int64, publisherBBIDs []uuid.UUID) error {
	if err := t.fail("AttachPublishers"); err != nil {
		return err
	}
	d := t.state.data[dataID]
	d.publishers = append(d.publishers, publisherBBIDs...)
	return nil
}

func (t *fakeEditionTx) CreateReleaseEvent(ctx context.Context, dataID int64, date string) error {
	if err := t.fail("CreateReleaseEvent"); err != nil {
		return err
	}
	d := t.state.data[dataID]
	d.releaseEvents = append(d.releaseEvents, date)
	return nil
}

func (t *fakeEditionTx) Snapshot(ctx context.Context, dataID int64) ([]byte, error) {
	if err := t.fail("Snapshot"); err != nil {
		return nil, err
	}
	return json.Marshal(t.buildData(dataID, models.AllEditionRelations()))
}

func (t *fakeEditionTx) InsertRevision(ctx context.Context, bbid uuid.UUID, editorID int64, dataID int64, parentID *int64, snapshot []byte) (int64, error) {
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

func (t *fakeEditionTx) InsertDeletionRevision(ctx context.Context, bbid uuid.UUID, editorID int64, parentID *int64) (int64, error) {
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

func (t *fakeEditionTx) SetCurrentRevision(ctx context.Context, bbid uuid.UUID, revisionID int64) error {
	if err := t.fail("SetCurrentRevision"); err != nil {
		return err
	}
	t.state.editions[bbid].currentRev = revisionID
	return nil
}

func newEditionService(store *fakeEditionStore) *EditionService {
	return NewEditionService(&EditionServiceOpts{
		Store:   store,
		Metrics: metrics.New("test"),
		Logger:  logger.New("error", "text"),
	})
}

func intPtr(v int) *int             { return &v }
func strPtr(v string) *string       { return &v }
func langsPtr(v ...int) *[]int      { return &v }
func pubsPtr(v ...string) *[]string { return &v }

func seedEdition(t *testing.T, store *fakeEditionStore, name string) uuid.UUID {
	t.Helper()
	svc := newEditionService(store)
	result, err := svc.Create(context.Background(), 1, name, &models.EditionChangeSet{})
	require.NoError(t, err)
	return result.BBID
}

func TestEditionCreate_FirstRevision(t *testing.T) {
	store := newFakeEditionStore()
	svc := newEditionService(store)

	result, err := svc.Create(context.Background(), 7, "The Hobbit", &models.EditionChangeSet{
		Scalars:   &models.EditionScalars{Pages: intPtr(310)},
		Languages: langsPtr(1, 2),
	})
	require.NoError(t, err)

	rev := store.state.revisions[result.RevisionID]
	require.NotNil(t, rev)
	assert.Nil(t, rev.parentID, "first revision has no parent")
	assert.Equal(t, int64(7), rev.editorID)
	assert.Equal(t, result.RevisionID, store.state.editions[result.BBID].currentRev)

	d := store.state.data[result.DataID]
	assert.Equal(t, []int{1, 2}, d.languages)
	assert.Equal(t, 310, *d.scalars.Pages)
}

func TestEditionCreate_ReleaseDateAlwaysCreated(t *testing.T) {
	store := newFakeEditionStore()
	svc := newEditionService(store)

	result, err := svc.Create(context.Background(), 1, "Dune", &models.EditionChangeSet{
		ReleaseDate: strPtr("1965-08-01"),
	})
	require.NoError(t, err)

	d := store.state.data[result.DataID]
	assert.Equal(t, []string{"1965-08-01"}, d.releaseEvents)
}

func TestEditionUpdate_OmittedRelationsUntouched(t *testing.T) {
	store := newFakeEditionStore()
	svc := newEditionService(store)
	bbid := seedEdition(t, store, "Dune")

	before, err := svc.Update(context.Background(), bbid, 1, &models.EditionChangeSet{Languages: langsPtr(3)})
	require.NoError(t, err)

	// A name-only edit must leave every relation collection alone.
	_, err = svc.Update(context.Background(), bbid, 1, &models.EditionChangeSet{Name: strPtr("Dune (reissue)")})
	require.NoError(t, err)

	d := store.state.data[before.DataID]
	assert.Equal(t, []int{3}, d.languages)
	assert.Empty(t, d.publishers)
	assert.Empty(t, d.releaseEvents)
	assert.Equal(t, "Dune (reissue)", store.state.editions[bbid].name)
}

func TestEditionUpdate_AttachIsAdditive(t *testing.T) {
	store := newFakeEditionStore()
	svc := newEditionService(store)
	bbid := seedEdition(t, store, "Dune")

	first, err := svc.Update(context.Background(), bbid, 1, &models.EditionChangeSet{Languages: langsPtr(1)})
	require.NoError(t, err)

	// Repeating an id attaches again; nothing dedupes.
	_, err = svc.Update(context.Background(), bbid, 1, &models.EditionChangeSet{Languages: langsPtr(1, 2)})
	require.NoError(t, err)

	d := store.state.data[first.DataID]
	assert.Equal(t, []int{1, 1, 2}, d.languages)
}

func TestEditionUpdate_EmptyListIsZeroRowAttach(t *testing.T) {
	store := newFakeEditionStore()
	svc := newEditionService(store)
	bbid := seedEdition(t, store, "Dune")

	result, err := svc.Update(context.Background(), bbid, 1, &models.EditionChangeSet{Languages: langsPtr()})
	require.NoError(t, err)

	d := store.state.data[result.DataID]
	assert.Empty(t, d.languages)
	// The empty change still produced a revision.
	assert.Equal(t, result.RevisionID, store.state.editions[bbid].currentRev)
}

func TestEditionUpdate_ReleaseDateSingleton(t *testing.T) {
	store := newFakeEditionStore()
	svc := newEditionService(store)
	bbid := seedEdition(t, store, "Dune")

	// Edit path with no existing event: nothing is created.
	result, err := svc.Update(context.Background(), bbid, 1, &models.EditionChangeSet{ReleaseDate: strPtr("1965-08-01")})
	require.NoError(t, err)
	d := store.state.data[result.DataID]
	assert.Empty(t, d.releaseEvents)

	// Seed one event, then submit the same date: no append.
	_, err = svc.Create(context.Background(), 1, "seeded", &models.EditionChangeSet{ReleaseDate: strPtr("1965-08-01")})
	require.NoError(t, err)

	seeded := store.state
	var seededBBID uuid.UUID
	for b, h := range seeded.editions {
		if h.name == "seeded" {
			seededBBID = b
		}
	}
	seededResult, err := svc.Update(context.Background(), seededBBID, 1, &models.EditionChangeSet{ReleaseDate: strPtr("1965-08-01")})
	require.NoError(t, err)
	assert.Equal(t, []string{"1965-08-01"}, store.state.data[seededResult.DataID].releaseEvents)

	// A different date appends; the old event stays.
	seededResult, err = svc.Update(context.Background(), seededBBID, 1, &models.EditionChangeSet{ReleaseDate: strPtr("1966-01-01")})
	require.NoError(t, err)
	assert.Equal(t, []string{"1965-08-01", "1966-01-01"}, store.state.data[seededResult.DataID].releaseEvents)
}

func TestEditionUpdate_AtomicRollback(t *testing.T) {
	store := newFakeEditionStore()
	svc := newEditionService(store)
	bbid := seedEdition(t, store, "Dune")
	currentBefore := store.state.editions[bbid].currentRev

	store.failOn = "InsertRevision"
	_, err := svc.Update(context.Background(), bbid, 1, &models.EditionChangeSet{
		Name:      strPtr("Changed"),
		Languages: langsPtr(1, 2, 3),
	})
	require.Error(t, err)
	assert.True(t, cerrors.IsPersistence(err))

	// Nothing from the failed edit is observable.
	assert.Equal(t, "Dune", store.state.editions[bbid].name)
	assert.Equal(t, currentBefore, store.state.editions[bbid].currentRev)
	rev := store.state.revisions[currentBefore]
	assert.Empty(t, store.state.data[rev.dataID].languages)
}

func TestEditionUpdate_ValidationBeforeWrites(t *testing.T) {
	store := newFakeEditionStore()
	svc := newEditionService(store)
	bbid := seedEdition(t, store, "Dune")
	revsBefore := len(store.state.revisions)

	_, err := svc.Update(context.Background(), bbid, 1, &models.EditionChangeSet{
		ReleaseDate: strPtr("not-a-date"),
	})
	require.Error(t, err)
	assert.True(t, cerrors.IsValidation(err))
	assert.Len(t, store.state.revisions, revsBefore, "rejected change-set must write nothing")

	_, err = svc.Update(context.Background(), bbid, 1, &models.EditionChangeSet{
		Publishers: pubsPtr("not-a-uuid"),
	})
	require.Error(t, err)
	assert.True(t, cerrors.IsValidation(err))
}

func TestEditionUpdate_NotFound(t *testing.T) {
	store := newFakeEditionStore()
	svc := newEditionService(store)

	_, err := svc.Update(context.Background(), uuid.New(), 1, &models.EditionChangeSet{Name: strPtr("x")})
	require.Error(t, err)
	assert.True(t, cerrors.IsNotFound(err))
}

func TestEditionDelete_RecordsDeletionRevision(t *testing.T) {
	store := newFakeEditionStore()
	svc := newEditionService(store)
	bbid := seedEdition(t, store, "Dune")
	firstRev := store.state.editions[bbid].currentRev

	result, err := svc.Delete(context.Background(), bbid, 1)
	require.NoError(t, err)

	rev := store.state.revisions[result.RevisionID]
	require.NotNil(t, rev)
	assert.Equal(t, &firstRev, rev.parentID, "deletion chains onto the prior revision")
	assert.Zero(t, rev.dataID, "a deletion revision carries no data")
	assert.Equal(t, result.RevisionID, store.state.editions[bbid].currentRev)

	// Loads and further edits report the entity as gone; the revision chain
	// itself stays in place.
	_, err = svc.Get(context.Background(), bbid)
	assert.True(t, cerrors.IsNotFound(err))
	_, err = svc.Update(context.Background(), bbid, 1, &models.EditionChangeSet{Name: strPtr("x")})
	assert.True(t, cerrors.IsNotFound(err))
	_, err = svc.Delete(context.Background(), bbid, 1)
	assert.True(t, cerrors.IsNotFound(err), "a deleted entity cannot be deleted again")
	assert.Contains(t, store.state.revisions, firstRev)
}

func TestEditionDelete_AtomicRollback(t *testing.T) {
	store := newFakeEditionStore()
	svc := newEditionService(store)
	bbid := seedEdition(t, store, "Dune")
	currentBefore := store.state.editions[bbid].currentRev

	store.failOn = "SetCurrentRevision"
	_, err := svc.Delete(context.Background(), bbid, 1)
	require.Error(t, err)
	assert.True(t, cerrors.IsPersistence(err))

	// The failed deletion left the entity fully intact.
	assert.Equal(t, currentBefore, store.state.editions[bbid].currentRev)
	_, err = svc.Get(context.Background(), bbid)
	assert.NoError(t, err)
}

func TestEditionUpdate_DataIDCarriesForward(t *testing.T) {
	store := newFakeEditionStore()
	svc := newEditionService(store)
	bbid := seedEdition(t, store, "Dune")

	first, err := svc.Update(context.Background(), bbid, 1, &models.EditionChangeSet{Languages: langsPtr(1)})
	require.NoError(t, err)
	second, err := svc.Update(context.Background(), bbid, 2, &models.EditionChangeSet{Languages: langsPtr(2)})
	require.NoError(t, err)

	assert.Equal(t, first.DataID, second.DataID, "revisions share one data row")
	assert.Equal(t, &first.RevisionID, store.state.revisions[second.RevisionID].parentID)
}
