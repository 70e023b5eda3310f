package validation

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/openshelf/catalog/common/cerrors"
	"github.com/openshelf/catalog/common/models"
)

// ChangeSetValidator validates sparse change-sets before they enter a
// transaction, so a malformed request is rejected before any write.
type ChangeSetValidator struct {
	validate *validator.Validate
}

// NewChangeSetValidator creates a new change-set validator
func NewChangeSetValidator() *ChangeSetValidator {
	return &ChangeSetValidator{
		validate: validator.New(),
	}
}

// ValidateEdition checks an edition change-set
func (v *ChangeSetValidator) ValidateEdition(cs *models.EditionChangeSet) error {
	if cs == nil {
		return cerrors.NewValidation("", "change-set is required")
	}
	if err := v.validate.Struct(cs); err != nil {
		return toValidationError(err)
	}
	return nil
}

// ValidateWork checks a work change-set
func (v *ChangeSetValidator) ValidateWork(cs *models.WorkChangeSet) error {
	if cs == nil {
		return cerrors.NewValidation("", "change-set is required")
	}
	if err := v.validate.Struct(cs); err != nil {
		return toValidationError(err)
	}
	return nil
}

// PublisherBBIDs parses the change-set's publisher identifiers. A malformed
// identifier is a ValidationError, never a write-time failure.
func PublisherBBIDs(raw []string) ([]uuid.UUID, error) {
	bbids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		bbid, err := uuid.Parse(s)
		if err != nil {
			return nil, cerrors.NewValidation("publishers", "malformed bbid %q", s)
		}
		bbids = append(bbids, bbid)
	}
	return bbids, nil
}

// toValidationError converts validator output into the domain taxonomy
func toValidationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		first := fieldErrs[0]
		return cerrors.NewValidation(first.Field(), "failed %q constraint", first.Tag())
	}
	return cerrors.NewValidation("", "%v", err)
}
