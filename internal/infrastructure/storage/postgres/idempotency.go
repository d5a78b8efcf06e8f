package postgres

import (
	"context"
	"fmt"
	"time"

	"stockcore/internal/core/apperror"
	"stockcore/internal/core/idempotency"
)

var _ idempotency.Store = (*IdempotencyStore)(nil)

// IdempotencyStore manages idempotency keys in idempotency_keys.
type IdempotencyStore struct {
	txManager *TxManager
	ttl       time.Duration
}

// NewIdempotencyStore creates an idempotency store keeping keys for ttl.
func NewIdempotencyStore(txManager *TxManager, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdempotencyStore{txManager: txManager, ttl: ttl}
}

// Acquire implements idempotency.Store.
func (s *IdempotencyStore) Acquire(ctx context.Context, req idempotency.Request) (*idempotency.Replay, error) {
	now := time.Now().UTC()
	q := s.txManager.GetQuerier(ctx)

	tag, err := q.Exec(ctx, `
		INSERT INTO idempotency_keys (org_id, idempotency_key, user_id, operation, status, request_hash, created_at, updated_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7, $8)
		ON CONFLICT (org_id, idempotency_key) DO NOTHING
	`, req.OrgID, req.Key, req.UserID, req.Operation, idempotency.StatusPending, req.RequestHash, now, now.Add(s.ttl))
	if err != nil {
		return nil, fmt.Errorf("acquire idempotency key: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil, nil
	}

	var (
		userID, operation, requestHash, contentType string
		status                                      idempotency.Status
		response                                    []byte
		statusCode                                  int
		updatedAt                                   time.Time
	)
	err = q.QueryRow(ctx, `
		SELECT user_id, operation, status, request_hash,
		       COALESCE(response, ''::bytea), COALESCE(response_status, 0), COALESCE(response_content_type, ''), updated_at
		FROM idempotency_keys
		WHERE org_id = $1 AND idempotency_key = $2
	`, req.OrgID, req.Key).Scan(&userID, &operation, &status, &requestHash, &response, &statusCode, &contentType, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("read idempotency key: %w", err)
	}

	if userID != req.UserID || operation != req.Operation || requestHash != req.RequestHash {
		return nil, apperror.NewIdempotencyMismatch(req.Key).
			WithDetail("stored_operation", operation).
			WithDetail("request_operation", req.Operation)
	}

	switch status {
	case idempotency.StatusSuccess, idempotency.StatusFailed:
		replay := idempotency.NormalizeReplay(idempotency.Replay{
			StatusCode:  statusCode,
			ContentType: contentType,
			Body:        response,
		})
		return &replay, nil
	}

	if now.Sub(updatedAt) <= idempotency.StaleAfter {
		return nil, apperror.NewIdempotencyConflict(req.Key)
	}

	// Reclaim a stale pending key; only one reclaimer wins the update.
	tag, err = q.Exec(ctx, `
		UPDATE idempotency_keys SET updated_at = $1
		WHERE org_id = $2 AND idempotency_key = $3 AND status = $4 AND updated_at = $5
	`, now, req.OrgID, req.Key, idempotency.StatusPending, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("reclaim stale key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, apperror.NewIdempotencyConflict(req.Key)
	}
	return nil, nil
}

// Complete implements idempotency.Store.
func (s *IdempotencyStore) Complete(ctx context.Context, req idempotency.Request, status idempotency.Status, replay idempotency.Replay) error {
	_, err := s.txManager.GetQuerier(ctx).Exec(ctx, `
		UPDATE idempotency_keys
		SET status = $1,
		    response = $2,
		    response_status = $3,
		    response_content_type = $4,
		    updated_at = $5
		WHERE org_id = $6 AND idempotency_key = $7
	`, status, replay.Body, replay.StatusCode, replay.ContentType, time.Now().UTC(), req.OrgID, req.Key)
	if err != nil {
		return fmt.Errorf("complete idempotency key: %w", err)
	}
	return nil
}

// Release implements idempotency.Store.
func (s *IdempotencyStore) Release(ctx context.Context, req idempotency.Request) error {
	_, err := s.txManager.GetQuerier(ctx).Exec(ctx, `
		DELETE FROM idempotency_keys
		WHERE org_id = $1 AND idempotency_key = $2 AND status = $3
	`, req.OrgID, req.Key, idempotency.StatusPending)
	if err != nil {
		return fmt.Errorf("release idempotency key: %w", err)
	}
	return nil
}

// CleanupExpired removes expired keys.
func (s *IdempotencyStore) CleanupExpired(ctx context.Context) (int64, error) {
	result, err := s.txManager.GetQuerier(ctx).Exec(ctx,
		`DELETE FROM idempotency_keys WHERE expires_at < $1`, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("cleanup idempotency keys: %w", err)
	}
	return result.RowsAffected(), nil
}
