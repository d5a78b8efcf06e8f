package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/klauspost/compress/zstd"

	"stockcore/internal/core/id"
	"stockcore/internal/domain/audit"
)

// CompressionAlgo specifies how an audit payload is stored.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

const auditTable = "audit_log"

// auditPayload is the JSON document holding before/after/meta.
type auditPayload struct {
	Before map[string]any `json:"before,omitempty"`
	After  map[string]any `json:"after,omitempty"`
	Meta   map[string]any `json:"meta,omitempty"`
}

// AuditEntry is one stored audit row.
type AuditEntry struct {
	ID                id.ID           `db:"id"`
	OrgID             id.ID           `db:"org_id"`
	Entity            string          `db:"entity"`
	EntityID          string          `db:"entity_id"`
	Action            string          `db:"action"`
	ByUID             string          `db:"by_uid"`
	ByEmail           string          `db:"by_email"`
	Payload           json.RawMessage `db:"payload"`
	PayloadCompressed []byte          `db:"payload_compressed"`
	CompressionAlgo   CompressionAlgo `db:"compression_algo"`
	CreatedAt         time.Time       `db:"created_at"`
}

var (
	_ audit.Sink   = (*AuditSink)(nil)
	_ audit.Reader = (*AuditSink)(nil)
)

// AuditSink stores audit records. Payloads above the threshold are
// compressed with zstd.
type AuditSink struct {
	txManager         *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
}

// NewAuditSink creates an audit sink.
func NewAuditSink(txManager *TxManager) (*AuditSink, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &AuditSink{
		txManager:         txManager,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: 8 * 1024,
	}, nil
}

// Write implements audit.Sink.
func (s *AuditSink) Write(ctx context.Context, r audit.Record) error {
	payload, err := json.Marshal(auditPayload{Before: r.Before, After: r.After, Meta: r.Meta})
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	entry := AuditEntry{
		ID:              r.ID,
		OrgID:           r.OrgID,
		Entity:          r.Entity,
		EntityID:        r.EntityID,
		Action:          string(audit.NormalizeAction(string(r.Action))),
		ByUID:           r.ByUID,
		ByEmail:         r.ByEmail,
		Payload:         payload,
		CompressionAlgo: CompressionNone,
		CreatedAt:       r.CreatedAt,
	}
	if id.IsNil(entry.ID) {
		entry.ID = id.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if len(payload) > s.compressThreshold {
		entry.PayloadCompressed = s.encoder.EncodeAll(payload, nil)
		entry.Payload = nil
		entry.CompressionAlgo = CompressionZstd
	}

	sql, args, err := Builder().
		Insert(auditTable).
		SetMap(StructToMap(entry)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := s.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert audit: %w", err)
	}
	return nil
}

// History implements audit.Reader. Compressed payloads are inflated.
func (s *AuditSink) History(ctx context.Context, orgID id.ID, entity, entityID string, limit int) ([]audit.Record, error) {
	if limit <= 0 {
		limit = 50
	}
	sql, args, err := Builder().
		Select(ExtractDBColumns[AuditEntry]()...).
		From(auditTable).
		Where(squirrel.Eq{"org_id": orgID, "entity": entity, "entity_id": entityID}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.txManager.GetQuerier(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []audit.Record
	for rows.Next() {
		var e AuditEntry
		err := rows.Scan(
			&e.ID, &e.OrgID, &e.Entity, &e.EntityID, &e.Action, &e.ByUID, &e.ByEmail,
			&e.Payload, &e.PayloadCompressed, &e.CompressionAlgo, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		r, err := s.decode(e)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *AuditSink) decode(e AuditEntry) (audit.Record, error) {
	raw := []byte(e.Payload)
	if e.CompressionAlgo == CompressionZstd && len(e.PayloadCompressed) > 0 {
		decompressed, err := s.decoder.DecodeAll(e.PayloadCompressed, nil)
		if err != nil {
			return audit.Record{}, fmt.Errorf("decompress payload: %w", err)
		}
		raw = decompressed
	}

	var p auditPayload
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &p); err != nil {
			return audit.Record{}, fmt.Errorf("decode payload %s: %w", e.ID, err)
		}
	}
	return audit.Record{
		ID:        e.ID,
		OrgID:     e.OrgID,
		Entity:    e.Entity,
		Action:    audit.Action(e.Action),
		EntityID:  e.EntityID,
		Before:    p.Before,
		After:     p.After,
		Meta:      p.Meta,
		ByUID:     e.ByUID,
		ByEmail:   e.ByEmail,
		CreatedAt: e.CreatedAt,
	}, nil
}
