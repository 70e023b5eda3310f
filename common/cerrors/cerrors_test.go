package cerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaxonomyPredicates(t *testing.T) {
	notFound := NewNotFound("edition %s not found", "abc")
	validation := NewValidation("name", "name is required")
	persistence := NewPersistence("edition update", errors.New("connection reset"))

	assert.True(t, IsNotFound(notFound))
	assert.False(t, IsNotFound(validation))

	assert.True(t, IsValidation(validation))
	assert.False(t, IsValidation(persistence))

	assert.True(t, IsPersistence(persistence))
	assert.False(t, IsPersistence(notFound))
}

func TestPredicatesSeeThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", NewNotFound("work not found"))
	assert.True(t, IsNotFound(wrapped))

	inner := errors.New("connection reset")
	persistence := NewPersistence("commit", inner)
	assert.ErrorIs(t, persistence, inner)
}

func TestMessages(t *testing.T) {
	assert.Equal(t, "validation failed on name: too short", NewValidation("name", "too short").Error())
	assert.Equal(t, "validation failed: empty change-set", NewValidation("", "empty change-set").Error())
	assert.Contains(t, NewPersistence("edition update", errors.New("boom")).Error(), "edition update")
}
