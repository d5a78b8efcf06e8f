package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"stockcore/internal/core/apperror"
	"stockcore/internal/core/id"
	"stockcore/internal/core/idempotency"
)

type idemKey struct {
	org id.ID
	key string
}

type idemRecord struct {
	req       idempotency.Request
	status    idempotency.Status
	replay    idempotency.Replay
	updatedAt time.Time
}

// IdempotencyStore implements idempotency.Store in process memory.
// Keys are kept until the process exits.
type IdempotencyStore struct {
	mu      sync.Mutex
	records map[idemKey]*idemRecord
	now     func() time.Time
}

var _ idempotency.Store = (*IdempotencyStore)(nil)

// NewIdempotencyStore creates an empty store.
func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{
		records: make(map[idemKey]*idemRecord),
		now:     time.Now,
	}
}

// Acquire implements idempotency.Store.
func (s *IdempotencyStore) Acquire(_ context.Context, req idempotency.Request) (*idempotency.Replay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := idemKey{org: req.OrgID, key: req.Key}
	now := s.now()
	rec, ok := s.records[k]
	if !ok {
		s.records[k] = &idemRecord{req: req, status: idempotency.StatusPending, updatedAt: now}
		return nil, nil
	}

	if rec.req.UserID != req.UserID || rec.req.Operation != req.Operation || rec.req.RequestHash != req.RequestHash {
		return nil, apperror.NewIdempotencyMismatch(req.Key)
	}
	if rec.status != idempotency.StatusPending {
		replay := idempotency.NormalizeReplay(rec.replay)
		replay.Body = slices.Clone(replay.Body)
		return &replay, nil
	}
	if now.Sub(rec.updatedAt) <= idempotency.StaleAfter {
		return nil, apperror.NewIdempotencyConflict(req.Key)
	}
	rec.updatedAt = now
	return nil, nil
}

// Complete implements idempotency.Store.
func (s *IdempotencyStore) Complete(_ context.Context, req idempotency.Request, status idempotency.Status, replay idempotency.Replay) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[idemKey{org: req.OrgID, key: req.Key}]
	if !ok {
		return nil
	}
	rec.status = status
	rec.replay = idempotency.Replay{
		StatusCode:  replay.StatusCode,
		ContentType: replay.ContentType,
		Body:        slices.Clone(replay.Body),
	}
	rec.updatedAt = s.now()
	return nil
}

// Release implements idempotency.Store.
func (s *IdempotencyStore) Release(_ context.Context, req idempotency.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := idemKey{org: req.OrgID, key: req.Key}
	if rec, ok := s.records[k]; ok && rec.status == idempotency.StatusPending {
		delete(s.records, k)
	}
	return nil
}
