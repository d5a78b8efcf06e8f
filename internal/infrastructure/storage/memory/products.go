package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"stockcore/internal/core/apperror"
	"stockcore/internal/core/id"
	"stockcore/internal/core/tenant"
	"stockcore/internal/domain"
	"stockcore/internal/domain/product"
)

// ProductRepo implements product.Repository.
type ProductRepo struct {
	s *Store
}

var _ product.Repository = (*ProductRepo)(nil)

func cloneProduct(p *product.Product) *product.Product {
	c := *p
	if p.Barcode != nil {
		b := *p.Barcode
		c.Barcode = &b
	}
	return &c
}

// lookup returns the stored product of the ctx organization.
func (r *ProductRepo) lookup(ctx context.Context, productID id.ID) (*product.Product, bool) {
	p, ok := r.s.products[productID]
	if !ok || p.OrgID != tenant.MustOrg(ctx) {
		return nil, false
	}
	return p, true
}

func (r *ProductRepo) Create(ctx context.Context, p *product.Product) error {
	orgID, err := tenant.RequireOrg(ctx)
	if err != nil {
		return err
	}
	if p.OrgID != orgID {
		return apperror.NewValidation("product belongs to another organization")
	}
	r.s.do(ctx, func() {
		if p.Barcode != nil {
			for _, other := range r.s.products {
				if other.OrgID == orgID && other.Barcode != nil && *other.Barcode == *p.Barcode {
					err = apperror.NewValidation("barcode already in use").WithDetail("barcode", *p.Barcode)
					return
				}
			}
		}
		if _, exists := r.s.products[p.ID]; exists {
			err = apperror.NewValidation("product already exists").WithDetail("product_id", p.ID.String())
			return
		}
		if p.Version == 0 {
			p.Version = 1
		}
		r.s.products[p.ID] = cloneProduct(p)
	})
	return err
}

func (r *ProductRepo) Get(ctx context.Context, productID id.ID) (*product.Product, error) {
	if _, err := tenant.RequireOrg(ctx); err != nil {
		return nil, err
	}
	var out *product.Product
	r.s.do(ctx, func() {
		if p, ok := r.lookup(ctx, productID); ok {
			out = cloneProduct(p)
		}
	})
	if out == nil {
		return nil, product.NotFound(productID)
	}
	return out, nil
}

func (r *ProductRepo) GetMany(ctx context.Context, ids []id.ID) (map[id.ID]*product.Product, error) {
	if _, err := tenant.RequireOrg(ctx); err != nil {
		return nil, err
	}
	out := make(map[id.ID]*product.Product, len(ids))
	r.s.do(ctx, func() {
		for _, pid := range ids {
			if p, ok := r.lookup(ctx, pid); ok {
				out[pid] = cloneProduct(p)
			}
		}
	})
	return out, nil
}

// GetForUpdate relies on the transaction lock; outside a transaction it is a plain read.
func (r *ProductRepo) GetForUpdate(ctx context.Context, ids []id.ID) (map[id.ID]*product.Product, error) {
	return r.GetMany(ctx, id.SortedUnique(ids))
}

func (r *ProductRepo) SaveLedger(ctx context.Context, p *product.Product) error {
	return r.save(ctx, p, func(stored *product.Product) {
		stored.Stock = p.Stock
		stored.StockContent = p.StockContent
		stored.AvgCost = p.AvgCost
	})
}

func (r *ProductRepo) UpdateDetails(ctx context.Context, p *product.Product) error {
	return r.save(ctx, p, func(stored *product.Product) {
		stored.Name = p.Name
		stored.Category = p.Category
		stored.Barcode = p.Barcode
		stored.Price = p.Price
		stored.MinStock = p.MinStock
		stored.MinContent = p.MinContent
	})
}

// save applies set to a copy of the stored row under a version check.
func (r *ProductRepo) save(ctx context.Context, p *product.Product, set func(stored *product.Product)) error {
	if _, err := tenant.RequireOrg(ctx); err != nil {
		return err
	}
	if err := p.Ledger().Check(p.ID); err != nil {
		return err
	}
	var err error
	r.s.do(ctx, func() {
		stored, ok := r.lookup(ctx, p.ID)
		if !ok {
			err = product.NotFound(p.ID)
			return
		}
		if stored.Version != p.Version {
			err = apperror.NewConcurrentModification(product.EntityName, p.ID.String())
			return
		}
		next := cloneProduct(stored)
		set(next)
		next.Version++
		next.UpdatedAt = time.Now().UTC()
		r.s.products[p.ID] = next

		p.Version = next.Version
		p.UpdatedAt = next.UpdatedAt
	})
	return err
}

func (r *ProductRepo) List(ctx context.Context, filter product.ListFilter) (domain.ListResult[*product.Product], error) {
	orgID, err := tenant.RequireOrg(ctx)
	if err != nil {
		return domain.ListResult[*product.Product]{}, err
	}
	search := strings.ToLower(strings.TrimSpace(filter.Search))

	var matched []*product.Product
	r.s.do(ctx, func() {
		for _, p := range r.s.products {
			if p.OrgID != orgID {
				continue
			}
			if filter.Category != "" && p.Category != filter.Category {
				continue
			}
			if search != "" && !strings.Contains(strings.ToLower(p.Name), search) &&
				(p.Barcode == nil || *p.Barcode != filter.Search) {
				continue
			}
			if filter.LowOnly && !p.IsLowStock() {
				continue
			}
			matched = append(matched, cloneProduct(p))
		}
	})
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Name != matched[j].Name {
			return matched[i].Name < matched[j].Name
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})

	return domain.ListResult[*product.Product]{
		Items:      page(matched, filter.Offset, filter.Limit),
		TotalCount: int64(len(matched)),
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}, nil
}
