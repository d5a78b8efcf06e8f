// Package memory provides an in-process implementation of every repository
// the engine needs. Transactions are simulated with a store-wide lock plus
// snapshot and rollback on error. Used by tests and by the server when no
// database is configured.
package memory

import (
	"context"
	"maps"
	"sync"

	"stockcore/internal/core/id"
	"stockcore/internal/domain/audit"
	"stockcore/internal/domain/cashledger"
	"stockcore/internal/domain/documents/adjustment"
	"stockcore/internal/domain/documents/purchase"
	"stockcore/internal/domain/documents/sale"
	"stockcore/internal/domain/product"
	"stockcore/internal/domain/stockmove"
)

// Store holds all state. Every value stored or returned is a copy.
type Store struct {
	mu sync.Mutex

	products    map[id.ID]*product.Product
	moves       []*stockmove.Move
	seq         int64
	sales       map[id.ID]*sale.Sale
	purchases   map[id.ID]*purchase.Purchase
	adjustments []*adjustment.StockAdjustment
	audit       []audit.Record
	cash        []cashledger.Movement
	counters    map[seqKey]int64
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		products:  make(map[id.ID]*product.Product),
		sales:     make(map[id.ID]*sale.Sale),
		purchases: make(map[id.ID]*purchase.Purchase),
		counters:  make(map[seqKey]int64),
	}
}

type txKey struct{}

func inTx(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{}).(bool)
	return v
}

// do runs fn under the store lock unless ctx already holds it.
func (s *Store) do(ctx context.Context, fn func()) {
	if inTx(ctx) {
		fn()
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

// RunInTransaction implements tx.Manager. The lock is held for the whole
// callback, so transactions are fully serialized. Nested calls join.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	committed := false
	defer func() {
		if !committed {
			s.restore(snap)
		}
	}()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		return err
	}
	committed = true
	return nil
}

// ReadOnly implements tx.ReadOnlyManager.
func (s *Store) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(context.WithValue(ctx, txKey{}, true))
}

type snapshot struct {
	products    map[id.ID]*product.Product
	moves       int
	seq         int64
	sales       map[id.ID]*sale.Sale
	purchases   map[id.ID]*purchase.Purchase
	adjustments int
	counters    map[seqKey]int64
}

// snapshot copies the maps; stored values are never mutated in place, so
// sharing the pointers is safe. Append-only slices only need their length.
func (s *Store) snapshot() snapshot {
	snap := snapshot{
		products:    make(map[id.ID]*product.Product, len(s.products)),
		moves:       len(s.moves),
		seq:         s.seq,
		sales:       make(map[id.ID]*sale.Sale, len(s.sales)),
		purchases:   make(map[id.ID]*purchase.Purchase, len(s.purchases)),
		adjustments: len(s.adjustments),
		counters:    maps.Clone(s.counters),
	}
	for k, v := range s.products {
		snap.products[k] = v
	}
	for k, v := range s.sales {
		snap.sales[k] = v
	}
	for k, v := range s.purchases {
		snap.purchases[k] = v
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.products = snap.products
	s.moves = s.moves[:snap.moves]
	s.seq = snap.seq
	s.sales = snap.sales
	s.purchases = snap.purchases
	s.adjustments = s.adjustments[:snap.adjustments]
	s.counters = snap.counters
}

// Products returns the product repository.
func (s *Store) Products() *ProductRepo { return &ProductRepo{s: s} }

// Moves returns the stock move repository.
func (s *Store) Moves() *MoveRepo { return &MoveRepo{s: s} }

// Sales returns the sale repository.
func (s *Store) Sales() *SaleRepo { return &SaleRepo{s: s} }

// Purchases returns the purchase repository.
func (s *Store) Purchases() *PurchaseRepo { return &PurchaseRepo{s: s} }

// Adjustments returns the adjustment repository.
func (s *Store) Adjustments() *AdjustmentRepo { return &AdjustmentRepo{s: s} }

// AuditSink returns an audit.Sink that keeps records in memory.
func (s *Store) AuditSink() *AuditSink { return &AuditSink{s: s} }

// Numerator returns the document number generator.
func (s *Store) Numerator() *Numerator { return &Numerator{s: s} }

// CashRecorder returns a cashledger.Recorder that keeps movements in memory.
func (s *Store) CashRecorder() *CashRecorder { return &CashRecorder{s: s} }

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
