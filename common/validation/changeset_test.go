package validation

import (
	"testing"

	"github.com/openshelf/catalog/common/cerrors"
	"github.com/openshelf/catalog/common/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func TestValidateEdition_AcceptsSparseChangeSet(t *testing.T) {
	v := NewChangeSetValidator()

	assert.NoError(t, v.ValidateEdition(&models.EditionChangeSet{}))
	assert.NoError(t, v.ValidateEdition(&models.EditionChangeSet{
		Name:        strPtr("Dune"),
		Scalars:     &models.EditionScalars{Pages: intPtr(412)},
		ReleaseDate: strPtr("1965-08-01"),
	}))
}

func TestValidateEdition_RejectsMalformed(t *testing.T) {
	v := NewChangeSetValidator()

	err := v.ValidateEdition(nil)
	require.Error(t, err)
	assert.True(t, cerrors.IsValidation(err))

	err = v.ValidateEdition(&models.EditionChangeSet{ReleaseDate: strPtr("08/01/1965")})
	require.Error(t, err)
	assert.True(t, cerrors.IsValidation(err))

	err = v.ValidateEdition(&models.EditionChangeSet{Name: strPtr("")})
	require.Error(t, err)
	assert.True(t, cerrors.IsValidation(err))

	pubs := []string{"not-a-uuid"}
	err = v.ValidateEdition(&models.EditionChangeSet{Publishers: &pubs})
	require.Error(t, err)
	assert.True(t, cerrors.IsValidation(err))

	err = v.ValidateEdition(&models.EditionChangeSet{Scalars: &models.EditionScalars{Pages: intPtr(0)}})
	require.Error(t, err)
	assert.True(t, cerrors.IsValidation(err))
}

func TestValidateWork(t *testing.T) {
	v := NewChangeSetValidator()

	assert.NoError(t, v.ValidateWork(&models.WorkChangeSet{TypeID: intPtr(1)}))

	err := v.ValidateWork(&models.WorkChangeSet{TypeID: intPtr(0)})
	require.Error(t, err)
	assert.True(t, cerrors.IsValidation(err))
}

func TestPublisherBBIDs(t *testing.T) {
	bbids, err := PublisherBBIDs([]string{
		"6c7e5f1a-38b0-4f4e-9e3b-2a4f1c9a8d01",
		"0f4b2e6d-91c3-4a57-8a0e-5d6f7b8c9e02",
	})
	require.NoError(t, err)
	assert.Len(t, bbids, 2)

	_, err = PublisherBBIDs([]string{"nope"})
	require.Error(t, err)
	assert.True(t, cerrors.IsValidation(err))

	bbids, err = PublisherBBIDs(nil)
	require.NoError(t, err)
	assert.Empty(t, bbids)
}
