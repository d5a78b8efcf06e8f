package product

import (
	"context"
	"fmt"

	"stockcore/internal/core/id"
	"stockcore/internal/core/security"
	"stockcore/internal/core/tenant"
	"stockcore/internal/core/tx"
	"stockcore/internal/domain"
	"stockcore/pkg/logger"
)

// Service provides read access and detail edits for the Product Ledger.
// Creating products and changing the ledger triple are inventory operations.
type Service struct {
	repo      Repository
	txManager tx.Manager
	hooks     *domain.HookRegistry[*Change]
}

// Change describes a detail edit for after-update hooks (audit).
type Change struct {
	Before *Product
	After  *Product
}

// NewService creates a new product service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
		hooks:     domain.NewHookRegistry[*Change](),
	}
}

// Hooks returns the hook registry for registering callbacks.
func (s *Service) Hooks() *domain.HookRegistry[*Change] {
	return s.hooks
}

// Get returns a product of the current organization.
func (s *Service) Get(ctx context.Context, productID id.ID) (*Product, error) {
	if _, err := tenant.RequireOrg(ctx); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, productID)
}

// List returns products of the current organization.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Product], error) {
	if _, err := tenant.RequireOrg(ctx); err != nil {
		return domain.ListResult[*Product]{}, err
	}
	filter.Page = filter.Page.Normalize()
	return s.repo.List(ctx, filter)
}

// LowStock returns products at or below their reorder threshold.
func (s *Service) LowStock(ctx context.Context) ([]*Product, error) {
	res, err := s.List(ctx, ListFilter{LowOnly: true, Page: domain.Page{Limit: 500}})
	if err != nil {
		return nil, err
	}
	// storage filters too; keep the rule authoritative here
	out := make([]*Product, 0, len(res.Items))
	for _, p := range res.Items {
		if p.IsLowStock() {
			out = append(out, p)
		}
	}
	return out, nil
}

// All returns every product of the organization ordered as List orders them.
func (s *Service) All(ctx context.Context) ([]*Product, error) {
	const pageSize = 500
	var out []*Product
	for offset := 0; ; offset += pageSize {
		res, err := s.List(ctx, ListFilter{Page: domain.Page{Limit: pageSize, Offset: offset}})
		if err != nil {
			return nil, err
		}
		out = append(out, res.Items...)
		if len(res.Items) < pageSize || int64(len(out)) >= res.TotalCount {
			return out, nil
		}
	}
}

// UpdateDetails edits name, category, barcode, price and thresholds.
// Changing the price requires a privileged caller.
func (s *Service) UpdateDetails(ctx context.Context, productID id.ID, d Details) (*Product, error) {
	if _, err := tenant.RequireOrg(ctx); err != nil {
		return nil, err
	}
	if _, err := security.RequireUser(ctx); err != nil {
		return nil, err
	}

	var change Change
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		locked, err := s.repo.GetForUpdate(ctx, []id.ID{productID})
		if err != nil {
			return err
		}
		p, ok := locked[productID]
		if !ok {
			return NotFound(productID)
		}
		if d.ChangesPrice(p) {
			if err := security.RequirePrivileged(ctx, security.OpEditPrice); err != nil {
				return err
			}
		}

		before := *p
		d.Apply(p)
		if err := p.Validate(ctx); err != nil {
			return err
		}
		if err := s.repo.UpdateDetails(ctx, p); err != nil {
			return fmt.Errorf("update product: %w", err)
		}
		change = Change{Before: &before, After: p}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.hooks.Run(ctx, domain.AfterUpdate, &change); err != nil {
		logger.Warn(ctx, "after-update hook failed", "product_id", productID, "error", err)
	}
	logger.Info(ctx, "product updated", "product_id", productID)
	return change.After, nil
}
