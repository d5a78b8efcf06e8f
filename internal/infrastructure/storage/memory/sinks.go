package memory

import (
	"context"
	"slices"

	"stockcore/internal/core/id"
	"stockcore/internal/domain/audit"
	"stockcore/internal/domain/cashledger"
)

// AuditSink implements audit.Sink.
type AuditSink struct {
	s *Store
}

var (
	_ audit.Sink   = (*AuditSink)(nil)
	_ audit.Reader = (*AuditSink)(nil)
)

func (a *AuditSink) Write(ctx context.Context, r audit.Record) error {
	a.s.do(ctx, func() {
		a.s.audit = append(a.s.audit, r)
	})
	return nil
}

// Records returns the records of orgID in write order.
func (a *AuditSink) Records(ctx context.Context, orgID id.ID) []audit.Record {
	var out []audit.Record
	a.s.do(ctx, func() {
		for _, r := range a.s.audit {
			if r.OrgID == orgID {
				out = append(out, r)
			}
		}
	})
	return out
}

// History implements audit.Reader.
func (a *AuditSink) History(ctx context.Context, orgID id.ID, entity, entityID string, limit int) ([]audit.Record, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []audit.Record
	a.s.do(ctx, func() {
		for i := len(a.s.audit) - 1; i >= 0 && len(out) < limit; i-- {
			r := a.s.audit[i]
			if r.OrgID == orgID && r.Entity == entity && r.EntityID == entityID {
				out = append(out, r)
			}
		}
	})
	return out, nil
}

// CashRecorder implements cashledger.Recorder.
type CashRecorder struct {
	s *Store
}

var (
	_ cashledger.Recorder = (*CashRecorder)(nil)
	_ cashledger.Lister   = (*CashRecorder)(nil)
)

func (c *CashRecorder) Record(ctx context.Context, m cashledger.Movement) error {
	c.s.do(ctx, func() {
		c.s.cash = append(c.s.cash, m)
	})
	return nil
}

// Movements returns the cash movements of orgID in write order.
func (c *CashRecorder) Movements(ctx context.Context, orgID id.ID) []cashledger.Movement {
	var out []cashledger.Movement
	c.s.do(ctx, func() {
		out = slices.DeleteFunc(slices.Clone(c.s.cash), func(m cashledger.Movement) bool {
			return m.OrgID != orgID
		})
	})
	return out
}

// ForReference implements cashledger.Lister.
func (c *CashRecorder) ForReference(ctx context.Context, orgID id.ID, refEntity string, refID id.ID) ([]cashledger.Movement, error) {
	var out []cashledger.Movement
	c.s.do(ctx, func() {
		for _, m := range c.s.cash {
			if m.OrgID == orgID && m.RefEntity == refEntity && m.RefID == refID {
				out = append(out, m)
			}
		}
	})
	return out, nil
}
