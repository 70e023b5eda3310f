package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EditionRevision is an immutable snapshot of an edition, linked to the
// entity it belongs to and the editor who authored it. The data id carries
// forward between revisions; associations attach to the shared data row.
type EditionRevision struct {
	ID        int64        `db:"id" json:"id"`
	BBID      uuid.UUID    `db:"bbid" json:"bbid"`
	EditorID  int64        `db:"editor_id" json:"editor_id"`
	DataID    int64        `db:"data_id" json:"data_id"`
	ParentID  *int64       `db:"parent_id" json:"parent_id,omitempty"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
	Data      *EditionData `json:"data,omitempty"`
}

// EditionData is the versioned payload of an edition revision: scalar fields
// plus the relation collections that were requested at load time.
type EditionData struct {
	ID              int64      `db:"id" json:"id"`
	Width           *int       `db:"width" json:"width,omitempty"`
	Height          *int       `db:"height" json:"height,omitempty"`
	Depth           *int       `db:"depth" json:"depth,omitempty"`
	Weight          *int       `db:"weight" json:"weight,omitempty"`
	Pages           *int       `db:"pages" json:"pages,omitempty"`
	FormatID        *int       `db:"format_id" json:"format_id,omitempty"`
	StatusID        *int       `db:"status_id" json:"status_id,omitempty"`
	PublicationBBID *uuid.UUID `db:"publication_bbid" json:"publication_bbid,omitempty"`

	Languages     []Language     `json:"languages,omitempty"`
	Publishers    []Publisher    `json:"publishers,omitempty"`
	ReleaseEvents []ReleaseEvent `json:"release_events,omitempty"`
}

// ReleaseEvent is a singleton-relation child row. The collection is ordered
// newest-first, so index 0 is the logically-current event.
type ReleaseEvent struct {
	ID        int64     `db:"id" json:"id"`
	DataID    int64     `db:"data_id" json:"data_id"`
	Date      string    `db:"release_date" json:"date"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// WorkRevision is an immutable snapshot of a work
type WorkRevision struct {
	ID        int64     `db:"id" json:"id"`
	BBID      uuid.UUID `db:"bbid" json:"bbid"`
	EditorID  int64     `db:"editor_id" json:"editor_id"`
	DataID    int64     `db:"data_id" json:"data_id"`
	ParentID  *int64    `db:"parent_id" json:"parent_id,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	Data      *WorkData `json:"data,omitempty"`
}

// WorkData is the versioned payload of a work revision
type WorkData struct {
	ID     int64 `db:"id" json:"id"`
	TypeID *int  `db:"type_id" json:"type_id,omitempty"`

	Languages []Language `json:"languages,omitempty"`
}

// RevisionRecord is one entity-agnostic history row: who changed what, when,
// plus the stored data snapshot that revision diffs are computed from.
type RevisionRecord struct {
	ID         int64           `db:"id" json:"id"`
	BBID       uuid.UUID       `db:"bbid" json:"bbid"`
	EntityType EntityType      `json:"entity_type"`
	EditorID   int64           `db:"editor_id" json:"editor_id"`
	EditorName string          `db:"editor_name" json:"editor_name"`
	ParentID   *int64          `db:"parent_id" json:"parent_id,omitempty"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
	Snapshot   json.RawMessage `db:"snapshot" json:"-"`
}

// RevisionDiff is the rendered difference between a revision and its parent
type RevisionDiff struct {
	RevisionID int64           `json:"revision_id"`
	ParentID   *int64          `json:"parent_id,omitempty"`
	Patch      json.RawMessage `json:"patch"`
}

// EditionRelations names the relation collections to include in a fetch.
// The loader and the update protocol only pull what the caller asks for.
type EditionRelations struct {
	Languages     bool
	Publishers    bool
	ReleaseEvents bool
	Lookups       bool
}

// AllEditionRelations is the loader default used for page rendering
func AllEditionRelations() EditionRelations {
	return EditionRelations{
		Languages:     true,
		Publishers:    true,
		ReleaseEvents: true,
		Lookups:       true,
	}
}

// WorkRelations names the relation collections to include in a fetch
type WorkRelations struct {
	Languages bool
	Lookups   bool
}

// AllWorkRelations is the loader default used for page rendering
func AllWorkRelations() WorkRelations {
	return WorkRelations{
		Languages: true,
		Lookups:   true,
	}
}
