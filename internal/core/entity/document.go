package entity

import (
	"context"
	"time"

	"stockcore/internal/core/apperror"
	"stockcore/internal/core/id"
)

// Document is the base type for business facts (sales, purchases, adjustments).
// Documents are immutable once created apart from the narrow state
// transitions each kind defines.
type Document struct {
	BaseEntity

	// Date is the business date of the document (may differ from CreatedAt)
	Date time.Time `db:"date" json:"date"`

	// CreatedBy is the uid of the user that created the document
	CreatedBy string `db:"created_by" json:"createdBy,omitempty"`
}

// NewDocument creates a new Document with generated ID.
// A zero date defaults to now.
func NewDocument(orgID id.ID, date time.Time, createdBy string) Document {
	base := NewBaseEntity(orgID)
	if date.IsZero() {
		date = base.CreatedAt
	}
	return Document{
		BaseEntity: base,
		Date:       date.UTC(),
		CreatedBy:  createdBy,
	}
}

// Validate implements Validatable interface.
func (d *Document) Validate(ctx context.Context) error {
	if err := d.ValidateOrg(); err != nil {
		return err
	}
	if d.Date.IsZero() {
		return apperror.NewValidation("date is required").
			WithDetail("field", "date")
	}
	return nil
}
