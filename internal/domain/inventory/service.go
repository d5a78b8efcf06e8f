// Package inventory is the transactional stock mutator: the only code path
// that changes a product's stock, stock content or average cost.
//
// Every operation validates its command, takes per-product locks in
// canonical id order, reads all involved products before writing any of
// them, and commits ledger rows, stock moves and the document together.
// Audit records and cash movements are emitted after commit.
package inventory

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"stockcore/internal/core/apperror"
	"stockcore/internal/core/id"
	"stockcore/internal/core/numerator"
	"stockcore/internal/core/tx"
	"stockcore/internal/domain"
	"stockcore/internal/domain/audit"
	"stockcore/internal/domain/documents/adjustment"
	"stockcore/internal/domain/documents/purchase"
	"stockcore/internal/domain/documents/sale"
	"stockcore/internal/domain/product"
	"stockcore/internal/domain/stockmove"
)

// Locker serializes mutations on the same products across processes.
// Keys arrive sorted; implementations must acquire them in that order.
type Locker interface {
	Lock(ctx context.Context, keys []string) (release func(), err error)
}

// Observer receives one observation per mutation.
type Observer interface {
	ObserveMutation(op string, outcome string, elapsed time.Duration)
}

// Deps configures the service.
type Deps struct {
	Products    product.Repository
	Moves       stockmove.Repository
	Sales       sale.Repository
	Purchases   purchase.Repository
	Adjustments adjustment.Repository
	TxManager   tx.Manager

	// Optional
	Locker   Locker
	Audit    audit.Sink
	Numbers  numerator.Generator
	Observer Observer
	Clock    func() time.Time
}

// Service implements the mutator operations.
type Service struct {
	products    product.Repository
	moves       stockmove.Repository
	sales       sale.Repository
	purchases   purchase.Repository
	adjustments adjustment.Repository
	txManager   tx.Manager

	locker   Locker
	audit    audit.Sink
	numbers  numerator.Generator
	observer Observer
	now      func() time.Time
	tracer   trace.Tracer

	saleHooks     *domain.HookRegistry[*sale.Sale]
	purchaseHooks *domain.HookRegistry[*purchase.Purchase]
}

// NewService creates the mutator.
func NewService(d Deps) *Service {
	s := &Service{
		products:      d.Products,
		moves:         d.Moves,
		sales:         d.Sales,
		purchases:     d.Purchases,
		adjustments:   d.Adjustments,
		txManager:     d.TxManager,
		locker:        d.Locker,
		audit:         d.Audit,
		numbers:       d.Numbers,
		observer:      d.Observer,
		now:           d.Clock,
		tracer:        otel.Tracer("stockcore/inventory"),
		saleHooks:     domain.NewHookRegistry[*sale.Sale](),
		purchaseHooks: domain.NewHookRegistry[*purchase.Purchase](),
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	return s
}

// SaleHooks returns hooks run after a sale commits (cash ledger).
func (s *Service) SaleHooks() *domain.HookRegistry[*sale.Sale] {
	return s.saleHooks
}

// PurchaseHooks returns hooks run after a purchase commits or is voided.
func (s *Service) PurchaseHooks() *domain.HookRegistry[*purchase.Purchase] {
	return s.purchaseHooks
}

// lockKeys builds distributed lock keys in canonical order.
func lockKeys(orgID id.ID, productIDs []id.ID) []string {
	sorted := id.SortedUnique(productIDs)
	keys := make([]string, len(sorted))
	for i, pid := range sorted {
		keys[i] = fmt.Sprintf("stock:%s:%s", orgID, pid)
	}
	return keys
}

// mutate wraps fn with the distributed lock (when configured) and a transaction.
func (s *Service) mutate(ctx context.Context, orgID id.ID, productIDs []id.ID, fn func(ctx context.Context) error) error {
	if s.locker != nil && len(productIDs) > 0 {
		release, err := s.locker.Lock(ctx, lockKeys(orgID, productIDs))
		if err != nil {
			return err
		}
		defer release()
	}
	return s.txManager.RunInTransaction(ctx, fn)
}

// number draws the next document number on the running transaction.
// Without a generator documents stay unnumbered.
func (s *Service) number(ctx context.Context, orgID id.ID, cfg numerator.Config, date time.Time) (string, error) {
	if s.numbers == nil {
		return "", nil
	}
	return s.numbers.Next(ctx, orgID, cfg, date)
}

// observe starts a span and reports the outcome to the observer.
func (s *Service) observe(ctx context.Context, op string) (context.Context, func(err error)) {
	started := time.Now()
	ctx, span := s.tracer.Start(ctx, "inventory."+op, trace.WithAttributes(
		attribute.String("inventory.op", op),
	))
	return ctx, func(err error) {
		outcome := "ok"
		if err != nil {
			outcome = apperror.CodeInternal
			if appErr, ok := apperror.AsAppError(err); ok {
				outcome = appErr.Code
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
		}
		span.End()
		if s.observer != nil {
			s.observer.ObserveMutation(op, outcome, time.Since(started))
		}
	}
}

// lockProducts loads products for update and reports the first unknown id
// in caller order, naming the line when a name is known.
func (s *Service) lockProducts(ctx context.Context, ids []id.ID, names map[id.ID]string) (map[id.ID]*product.Product, error) {
	locked, err := s.products.GetForUpdate(ctx, id.SortedUnique(ids))
	if err != nil {
		return nil, fmt.Errorf("lock products: %w", err)
	}
	for _, pid := range ids {
		if _, ok := locked[pid]; ok {
			continue
		}
		if name, ok := names[pid]; ok && name != "" {
			return nil, apperror.NewProductNotFound(name, pid.String())
		}
		return nil, product.NotFound(pid)
	}
	return locked, nil
}

// saveLedgers persists every touched product once, in canonical order.
func (s *Service) saveLedgers(ctx context.Context, locked map[id.ID]*product.Product, touched []id.ID) error {
	for _, pid := range id.SortedUnique(touched) {
		if err := s.products.SaveLedger(ctx, locked[pid]); err != nil {
			return fmt.Errorf("save ledger %s: %w", pid, err)
		}
	}
	return nil
}
