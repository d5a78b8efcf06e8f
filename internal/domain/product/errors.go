package product

import (
	"stockcore/internal/core/apperror"
	"stockcore/internal/core/id"
)

// EntityName is used in NotFound errors.
const EntityName = "product"

// NotFound returns the NotFound error for productID.
func NotFound(productID id.ID) error {
	return apperror.NewNotFound(EntityName, productID.String())
}
