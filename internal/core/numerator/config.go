// Package numerator defines per-organization document numbering.
// Storage backends implement Generator; numbers are drawn inside the
// transaction that creates the document, so a rolled back document
// gives its number back.
package numerator

import (
	"context"
	"fmt"
	"time"

	"stockcore/internal/core/id"
)

// Generator hands out the next number for a sequence.
type Generator interface {
	// Next increments the counter for cfg.Key(period) within orgID and
	// returns it formatted.
	Next(ctx context.Context, orgID id.ID, cfg Config, period time.Time) (string, error)
}

// ResetPeriod controls when a sequence starts again at 1.
type ResetPeriod string

const (
	ResetYear  ResetPeriod = "year"
	ResetMonth ResetPeriod = "month"
	ResetNever ResetPeriod = "never"
)

// Config holds numbering configuration for one document kind.
type Config struct {
	// Prefix added to all numbers (e.g., "S", "P")
	Prefix string

	// PadWidth is the minimum number width (default 5)
	PadWidth int

	Reset ResetPeriod
}

// DefaultConfig returns a yearly sequence padded to five digits.
func DefaultConfig(prefix string) Config {
	return Config{
		Prefix:   prefix,
		PadWidth: 5,
		Reset:    ResetYear,
	}
}

var (
	SaleNumbers     = DefaultConfig("S")
	PurchaseNumbers = DefaultConfig("P")
)

// Key identifies the counter that period draws from.
func (c Config) Key(period time.Time) string {
	period = period.UTC()
	switch c.Reset {
	case ResetMonth:
		return fmt.Sprintf("%s_%s", c.Prefix, period.Format("2006_01"))
	case ResetNever:
		return c.Prefix
	default:
		return fmt.Sprintf("%s_%s", c.Prefix, period.Format("2006"))
	}
}

// Format renders n, e.g. S-2026-00001.
func (c Config) Format(period time.Time, n int64) string {
	width := c.PadWidth
	if width <= 0 {
		width = 5
	}
	period = period.UTC()
	switch c.Reset {
	case ResetMonth:
		return fmt.Sprintf("%s-%s-%0*d", c.Prefix, period.Format("200601"), width, n)
	case ResetNever:
		return fmt.Sprintf("%s-%0*d", c.Prefix, width, n)
	default:
		return fmt.Sprintf("%s-%s-%0*d", c.Prefix, period.Format("2006"), width, n)
	}
}
