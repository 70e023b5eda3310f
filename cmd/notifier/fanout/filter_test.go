package fanout

import (
	"testing"

	"github.com/openshelf/catalog/common/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterEvaluator_NilAndEmptyMatch(t *testing.T) {
	e := NewFilterEvaluator()
	event := &models.ChangeEvent{Kind: models.ChangeEventEntity}

	matched, err := e.Matches(nil, event)
	require.NoError(t, err)
	assert.True(t, matched)

	empty := ""
	matched, err = e.Matches(&empty, event)
	require.NoError(t, err)
	assert.True(t, matched)
}

func TestFilterEvaluator_MatchesExpression(t *testing.T) {
	e := NewFilterEvaluator()
	expr := `event.entity_type == "edition" && event.label.startsWith("Dune")`

	matched, err := e.Matches(&expr, &models.ChangeEvent{
		Kind:       models.ChangeEventEntity,
		EntityType: models.EntityTypeEdition,
		Label:      "Dune Messiah",
	})
	require.NoError(t, err)
	assert.True(t, matched)

	matched, err = e.Matches(&expr, &models.ChangeEvent{
		Kind:       models.ChangeEventEntity,
		EntityType: models.EntityTypeWork,
		Label:      "Dune Messiah",
	})
	require.NoError(t, err)
	assert.False(t, matched)
}

func TestFilterEvaluator_CompileErrorFailsOpen(t *testing.T) {
	e := NewFilterEvaluator()
	expr := `((((`

	matched, err := e.Matches(&expr, &models.ChangeEvent{Kind: models.ChangeEventEntity})
	require.Error(t, err)
	assert.True(t, matched, "broken filters deliver rather than suppress")
}

func TestFilterEvaluator_NonBooleanFailsOpen(t *testing.T) {
	e := NewFilterEvaluator()
	expr := `event.label`

	matched, err := e.Matches(&expr, &models.ChangeEvent{Label: "Dune"})
	require.Error(t, err)
	assert.True(t, matched)
}

func TestFilterEvaluator_CachesPrograms(t *testing.T) {
	e := NewFilterEvaluator()
	expr := `event.actor_id == 7`

	for i := 0; i < 3; i++ {
		matched, err := e.Matches(&expr, &models.ChangeEvent{ActorID: 7})
		require.NoError(t, err)
		assert.True(t, matched)
	}
	assert.Len(t, e.cache, 1)
}
