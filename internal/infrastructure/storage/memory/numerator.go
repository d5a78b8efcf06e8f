package memory

import (
	"context"
	"time"

	"stockcore/internal/core/id"
	"stockcore/internal/core/numerator"
)

type seqKey struct {
	org id.ID
	key string
}

// Numerator implements numerator.Generator. Counters are part of the
// transaction snapshot, so a rolled back document returns its number.
type Numerator struct {
	s *Store
}

var _ numerator.Generator = (*Numerator)(nil)

// Next implements numerator.Generator.
func (n *Numerator) Next(ctx context.Context, orgID id.ID, cfg numerator.Config, period time.Time) (string, error) {
	var val int64
	n.s.do(ctx, func() {
		k := seqKey{org: orgID, key: cfg.Key(period)}
		n.s.counters[k]++
		val = n.s.counters[k]
	})
	return cfg.Format(period, val), nil
}
