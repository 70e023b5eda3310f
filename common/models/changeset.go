package models

// EditionChangeSet is a sparse change request for an edition. A nil field is
// omitted from the update entirely; an empty slice still issues a zero-row
// attach. This is a partial update, never a full replace.
type EditionChangeSet struct {
	Name        *string         `json:"name,omitempty" validate:"omitempty,min=1"`
	Scalars     *EditionScalars `json:"scalars,omitempty"`
	Languages   *[]int          `json:"languages,omitempty" validate:"omitempty,dive,min=1"`
	Publishers  *[]string       `json:"publishers,omitempty" validate:"omitempty,dive,uuid"`
	ReleaseDate *string         `json:"release_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// EditionScalars are the sparse top-level fields applied by the generic
// revision step, not by the relation hook.
type EditionScalars struct {
	Width           *int    `json:"width,omitempty" validate:"omitempty,min=0"`
	Height          *int    `json:"height,omitempty" validate:"omitempty,min=0"`
	Depth           *int    `json:"depth,omitempty" validate:"omitempty,min=0"`
	Weight          *int    `json:"weight,omitempty" validate:"omitempty,min=0"`
	Pages           *int    `json:"pages,omitempty" validate:"omitempty,min=1"`
	FormatID        *int    `json:"format_id,omitempty" validate:"omitempty,min=1"`
	StatusID        *int    `json:"status_id,omitempty" validate:"omitempty,min=1"`
	PublicationBBID *string `json:"publication_bbid,omitempty" validate:"omitempty,uuid"`
}

// Relations reports which relation collections this change-set could touch.
// The update protocol lazy-loads only these, bounding I/O to the relations
// named in the change-set.
func (cs *EditionChangeSet) Relations() EditionRelations {
	return EditionRelations{
		Languages:     cs.Languages != nil,
		Publishers:    cs.Publishers != nil,
		ReleaseEvents: cs.ReleaseDate != nil,
	}
}

// Empty reports whether the change-set modifies nothing
func (cs *EditionChangeSet) Empty() bool {
	return cs.Name == nil && cs.Scalars == nil && cs.Languages == nil && cs.Publishers == nil && cs.ReleaseDate == nil
}

// WorkChangeSet is a sparse change request for a work
type WorkChangeSet struct {
	TypeID    *int    `json:"type_id,omitempty" validate:"omitempty,min=1"`
	Languages *[]int  `json:"languages,omitempty" validate:"omitempty,dive,min=1"`
	Name      *string `json:"name,omitempty" validate:"omitempty,min=1"`
}

// Relations reports which relation collections this change-set could touch
func (cs *WorkChangeSet) Relations() WorkRelations {
	return WorkRelations{
		Languages: cs.Languages != nil,
	}
}

// Empty reports whether the change-set modifies nothing
func (cs *WorkChangeSet) Empty() bool {
	return cs.TypeID == nil && cs.Languages == nil && cs.Name == nil
}
