// Package entity provides the common fields shared by ledger records and documents.
package entity

import (
	"context"
	"time"

	"stockcore/internal/core/apperror"
	"stockcore/internal/core/id"
)

// Validatable is implemented by entities that support self-validation.
// Validation checks internal invariants (without storage access).
type Validatable interface {
	Validate(ctx context.Context) error
}

// BaseEntity contains fields every organization-scoped record carries.
type BaseEntity struct {
	// ID is the primary key (UUIDv7)
	ID id.ID `db:"id" json:"id"`

	// OrgID is the mandatory partition key
	OrgID id.ID `db:"org_id" json:"orgId"`

	// Version for optimistic locking (incremented on each update)
	Version int64 `db:"version" json:"version"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewBaseEntity creates a new BaseEntity with generated ID for orgID.
func NewBaseEntity(orgID id.ID) BaseEntity {
	now := time.Now().UTC()
	return BaseEntity{
		ID:        id.New(),
		OrgID:     orgID,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch refreshes UpdatedAt. Version is advanced by storage when the
// compare-and-swap on the previous version succeeds.
func (b *BaseEntity) Touch() {
	b.UpdatedAt = time.Now().UTC()
}

// ValidateOrg checks the partition key is set.
func (b *BaseEntity) ValidateOrg() error {
	if id.IsNil(b.OrgID) {
		return apperror.NewValidation("organization is required").
			WithDetail("field", "orgId")
	}
	return nil
}

// BelongsTo reports whether the record is in orgID's partition.
func (b *BaseEntity) BelongsTo(orgID id.ID) bool {
	return b.OrgID == orgID
}
