// Package id provides UUIDv7 identifiers for products, documents and stock moves.
// UUIDv7 is time-ordered, so ids double as a coarse creation order.
package id

import (
	"bytes"
	"slices"

	"github.com/google/uuid"
)

// ID is a type alias for UUID, used across all entities.
type ID = uuid.UUID

// New generates a new UUIDv7.
func New() ID {
	v, err := uuid.NewV7()
	if err != nil {
		// Fallback to V4 if the clock source fails
		return uuid.New()
	}
	return v
}

// Parse converts string to ID with validation.
func Parse(s string) (ID, error) {
	return uuid.Parse(s)
}

// MustParse converts string to ID, panics on error.
// Use only for constants and tests.
func MustParse(s string) ID {
	return uuid.MustParse(s)
}

// Nil returns zero-value UUID.
func Nil() ID {
	return uuid.Nil
}

// IsNil checks if ID is zero-value.
func IsNil(v ID) bool {
	return v == uuid.Nil
}

// Ptr returns a pointer to v, or nil for the zero ID.
func Ptr(v ID) *ID {
	if IsNil(v) {
		return nil
	}
	return &v
}

// SortedUnique returns the distinct ids in canonical (byte-wise) order.
// Every multi-product lock is taken in this order so two transactions
// touching overlapping products cannot deadlock.
func SortedUnique(ids []ID) []ID {
	out := make([]ID, 0, len(ids))
	seen := make(map[ID]struct{}, len(ids))
	for _, v := range ids {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	slices.SortFunc(out, func(a, b ID) int {
		return bytes.Compare(a[:], b[:])
	})
	return out
}
