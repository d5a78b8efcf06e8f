// Package audit defines the write-only audit sink the engine's callers emit to
// after every successful mutation.
package audit

import (
	"context"
	"time"

	appctx "stockcore/internal/core/context"
	"stockcore/internal/core/id"
	"stockcore/pkg/logger"
)

// Action is the audited verb.
type Action string

const (
	ActionCreate       Action = "create"
	ActionUpdate       Action = "update"
	ActionDelete       Action = "delete"
	ActionCashIn       Action = "cash_in"
	ActionCashOut      Action = "cash_out"
	ActionSale         Action = "sale"
	ActionAdjustment   Action = "adjustment"
	ActionStockOpname  Action = "stock_opname"
	ActionPurchase     Action = "purchase"
	ActionPurchaseVoid Action = "purchase_void"
	ActionStockMove    Action = "stock_move"
)

// NormalizeAction maps legacy short verbs onto the current set.
func NormalizeAction(a string) Action {
	switch a {
	case "in":
		return ActionCashIn
	case "out":
		return ActionCashOut
	case "adjust":
		return ActionAdjustment
	case "opname":
		return ActionStockOpname
	}
	return Action(a)
}

// Entity names used in records.
const (
	EntitySale     = "sale"
	EntityPurchase = "purchase"
	EntityStock    = "stock"
	EntityProduct  = "product"
)

// Record is one audit entry.
type Record struct {
	ID        id.ID          `json:"id"`
	OrgID     id.ID          `json:"orgId"`
	Entity    string         `json:"entity"`
	Action    Action         `json:"action"`
	EntityID  string         `json:"entityId,omitempty"`
	Before    map[string]any `json:"before,omitempty"`
	After     map[string]any `json:"after,omitempty"`
	Meta      map[string]any `json:"meta,omitempty"`
	ByUID     string         `json:"byUid,omitempty"`
	ByEmail   string         `json:"byEmail,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// New builds a record stamped with the caller from ctx.
func New(ctx context.Context, orgID id.ID, entity string, action Action, entityID string) Record {
	uid, email := appctx.Actor(ctx)
	return Record{
		ID:        id.New(),
		OrgID:     orgID,
		Entity:    entity,
		Action:    action,
		EntityID:  entityID,
		ByUID:     uid,
		ByEmail:   email,
		CreatedAt: time.Now().UTC(),
	}
}

// WithBefore sets the before payload.
func (r Record) WithBefore(v map[string]any) Record {
	r.Before = v
	return r
}

// WithAfter sets the after payload.
func (r Record) WithAfter(v map[string]any) Record {
	r.After = v
	return r
}

// Sink receives audit records. Implementations must not block the caller for long.
type Sink interface {
	Write(ctx context.Context, r Record) error
}

// Reader lists stored records of one entity, newest first.
type Reader interface {
	History(ctx context.Context, orgID id.ID, entity, entityID string, limit int) ([]Record, error)
}

// Emit writes r and logs failures. Audit failures never undo a committed mutation.
func Emit(ctx context.Context, sink Sink, r Record) {
	if sink == nil {
		return
	}
	if err := sink.Write(ctx, r); err != nil {
		logger.Warn(ctx, "audit write failed",
			"entity", r.Entity,
			"action", r.Action,
			"entity_id", r.EntityID,
			"error", err,
		)
	}
}

// LogSink writes records to the structured log. Used when no database sink is configured.
type LogSink struct{}

// Write implements Sink.
func (LogSink) Write(ctx context.Context, r Record) error {
	logger.Info(ctx, "audit",
		"entity", r.Entity,
		"action", r.Action,
		"entity_id", r.EntityID,
		"before", r.Before,
		"after", r.After,
	)
	return nil
}
