package models

import (
	"github.com/google/uuid"
)

// EntityType identifies a catalog entity kind
type EntityType string

const (
	EntityTypeEdition EntityType = "edition"
	EntityTypeWork    EntityType = "work"
)

// Editor is a registered user who authors revisions
type Editor struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// Edition is an entity aggregate: the stable header plus, when loaded, its
// current revision and lookup rows. The BBID is the entity's immutable
// identity; everything else changes through new revisions.
type Edition struct {
	BBID              uuid.UUID        `db:"bbid" json:"bbid"`
	Name              string           `db:"name" json:"name"`
	CurrentRevisionID int64            `db:"current_revision_id" json:"current_revision_id"`
	Revision          *EditionRevision `json:"revision,omitempty"`
	Format            *EditionFormat   `json:"format,omitempty"`
	Status            *EditionStatus   `json:"status,omitempty"`
}

// Work is an entity aggregate for a creative work
type Work struct {
	BBID              uuid.UUID     `db:"bbid" json:"bbid"`
	Name              string        `db:"name" json:"name"`
	CurrentRevisionID int64         `db:"current_revision_id" json:"current_revision_id"`
	Revision          *WorkRevision `json:"revision,omitempty"`
	Type              *WorkType     `json:"type,omitempty"`
}

// Language is a lookup row referenced by data-to-language association rows
type Language struct {
	ID   int    `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// Publisher is referenced by edition data through its bbid
type Publisher struct {
	BBID uuid.UUID `db:"bbid" json:"bbid"`
	Name string    `db:"name" json:"name"`
}

// EditionFormat is a lookup row (hardback, paperback, ...)
type EditionFormat struct {
	ID   int    `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// EditionStatus is a lookup row (official, withdrawn, ...)
type EditionStatus struct {
	ID   int    `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// WorkType is a lookup row (novel, anthology, ...)
type WorkType struct {
	ID   int    `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}
