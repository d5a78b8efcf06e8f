package memory

import (
	"context"
	"slices"
	"sort"
	"time"

	"stockcore/internal/core/apperror"
	"stockcore/internal/core/id"
	"stockcore/internal/core/tenant"
	"stockcore/internal/domain"
	"stockcore/internal/domain/documents/adjustment"
	"stockcore/internal/domain/documents/purchase"
	"stockcore/internal/domain/documents/sale"
)

func cloneSale(s *sale.Sale) *sale.Sale {
	c := *s
	c.Items = slices.Clone(s.Items)
	return &c
}

func clonePurchase(p *purchase.Purchase) *purchase.Purchase {
	c := *p
	c.Items = slices.Clone(p.Items)
	c.ItemsOther = slices.Clone(p.ItemsOther)
	return &c
}

func inRange(t time.Time, from, to *time.Time) bool {
	if from != nil && t.Before(*from) {
		return false
	}
	if to != nil && t.After(*to) {
		return false
	}
	return true
}

// --- Sales ---

// SaleRepo implements sale.Repository.
type SaleRepo struct {
	s *Store
}

var _ sale.Repository = (*SaleRepo)(nil)

func (r *SaleRepo) Create(ctx context.Context, doc *sale.Sale) error {
	orgID, err := tenant.RequireOrg(ctx)
	if err != nil {
		return err
	}
	if doc.OrgID != orgID {
		return apperror.NewValidation("sale belongs to another organization")
	}
	r.s.do(ctx, func() {
		if doc.Version == 0 {
			doc.Version = 1
		}
		r.s.sales[doc.ID] = cloneSale(doc)
	})
	return nil
}

func (r *SaleRepo) Get(ctx context.Context, saleID id.ID) (*sale.Sale, error) {
	orgID, err := tenant.RequireOrg(ctx)
	if err != nil {
		return nil, err
	}
	var out *sale.Sale
	r.s.do(ctx, func() {
		if doc, ok := r.s.sales[saleID]; ok && doc.OrgID == orgID {
			out = cloneSale(doc)
		}
	})
	if out == nil {
		return nil, apperror.NewNotFound(sale.EntityName, saleID.String())
	}
	return out, nil
}

func (r *SaleRepo) GetForUpdate(ctx context.Context, saleID id.ID) (*sale.Sale, error) {
	return r.Get(ctx, saleID)
}

func (r *SaleRepo) UpdateTotals(ctx context.Context, doc *sale.Sale) error {
	orgID, err := tenant.RequireOrg(ctx)
	if err != nil {
		return err
	}
	r.s.do(ctx, func() {
		stored, ok := r.s.sales[doc.ID]
		if !ok || stored.OrgID != orgID {
			err = apperror.NewNotFound(sale.EntityName, doc.ID.String())
			return
		}
		if stored.Version != doc.Version {
			err = apperror.NewConcurrentModification(sale.EntityName, doc.ID.String())
			return
		}
		next := cloneSale(stored)
		next.Total = doc.Total
		next.GrossProfit = doc.GrossProfit
		next.Margin = doc.Margin
		next.Version++
		next.UpdatedAt = time.Now().UTC()
		r.s.sales[doc.ID] = next
		doc.Version = next.Version
	})
	return err
}

func (r *SaleRepo) List(ctx context.Context, filter sale.ListFilter) (domain.ListResult[*sale.Sale], error) {
	orgID, err := tenant.RequireOrg(ctx)
	if err != nil {
		return domain.ListResult[*sale.Sale]{}, err
	}
	var matched []*sale.Sale
	r.s.do(ctx, func() {
		for _, doc := range r.s.sales {
			if doc.OrgID != orgID || !inRange(doc.Date, filter.From, filter.To) {
				continue
			}
			if filter.PaymentMethod != nil && doc.PaymentMethod != *filter.PaymentMethod {
				continue
			}
			matched = append(matched, cloneSale(doc))
		}
	})
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return domain.ListResult[*sale.Sale]{
		Items:      page(matched, filter.Offset, filter.Limit),
		TotalCount: int64(len(matched)),
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}, nil
}

// --- Purchases ---

// PurchaseRepo implements purchase.Repository.
type PurchaseRepo struct {
	s *Store
}

var _ purchase.Repository = (*PurchaseRepo)(nil)

func (r *PurchaseRepo) Create(ctx context.Context, doc *purchase.Purchase) error {
	orgID, err := tenant.RequireOrg(ctx)
	if err != nil {
		return err
	}
	if doc.OrgID != orgID {
		return apperror.NewValidation("purchase belongs to another organization")
	}
	r.s.do(ctx, func() {
		if doc.Version == 0 {
			doc.Version = 1
		}
		r.s.purchases[doc.ID] = clonePurchase(doc)
	})
	return nil
}

func (r *PurchaseRepo) Get(ctx context.Context, purchaseID id.ID) (*purchase.Purchase, error) {
	orgID, err := tenant.RequireOrg(ctx)
	if err != nil {
		return nil, err
	}
	var out *purchase.Purchase
	r.s.do(ctx, func() {
		if doc, ok := r.s.purchases[purchaseID]; ok && doc.OrgID == orgID {
			out = clonePurchase(doc)
		}
	})
	if out == nil {
		return nil, apperror.NewNotFound(purchase.EntityName, purchaseID.String())
	}
	return out, nil
}

func (r *PurchaseRepo) GetForUpdate(ctx context.Context, purchaseID id.ID) (*purchase.Purchase, error) {
	return r.Get(ctx, purchaseID)
}

func (r *PurchaseRepo) MarkVoided(ctx context.Context, doc *purchase.Purchase) error {
	orgID, err := tenant.RequireOrg(ctx)
	if err != nil {
		return err
	}
	r.s.do(ctx, func() {
		stored, ok := r.s.purchases[doc.ID]
		if !ok || stored.OrgID != orgID {
			err = apperror.NewNotFound(purchase.EntityName, doc.ID.String())
			return
		}
		if stored.Version != doc.Version {
			err = apperror.NewConcurrentModification(purchase.EntityName, doc.ID.String())
			return
		}
		next := clonePurchase(stored)
		next.VoidedAt = doc.VoidedAt
		next.VoidedByUID = doc.VoidedByUID
		next.UpdatedAt = doc.UpdatedAt
		next.Version++
		r.s.purchases[doc.ID] = next
		doc.Version = next.Version
	})
	return err
}

func (r *PurchaseRepo) List(ctx context.Context, filter purchase.ListFilter) (domain.ListResult[*purchase.Purchase], error) {
	orgID, err := tenant.RequireOrg(ctx)
	if err != nil {
		return domain.ListResult[*purchase.Purchase]{}, err
	}
	var matched []*purchase.Purchase
	r.s.do(ctx, func() {
		for _, doc := range r.s.purchases {
			if doc.OrgID != orgID || !inRange(doc.Date, filter.From, filter.To) {
				continue
			}
			if filter.Kind != nil && doc.EffectiveKind() != *filter.Kind {
				continue
			}
			if !filter.IncludeVoided && doc.IsVoided() {
				continue
			}
			matched = append(matched, clonePurchase(doc))
		}
	})
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return domain.ListResult[*purchase.Purchase]{
		Items:      page(matched, filter.Offset, filter.Limit),
		TotalCount: int64(len(matched)),
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}, nil
}

// --- Adjustments ---

// AdjustmentRepo implements adjustment.Repository.
type AdjustmentRepo struct {
	s *Store
}

var _ adjustment.Repository = (*AdjustmentRepo)(nil)

func (r *AdjustmentRepo) Create(ctx context.Context, doc *adjustment.StockAdjustment) error {
	orgID, err := tenant.RequireOrg(ctx)
	if err != nil {
		return err
	}
	if doc.OrgID != orgID {
		return apperror.NewValidation("adjustment belongs to another organization")
	}
	r.s.do(ctx, func() {
		c := *doc
		r.s.adjustments = append(r.s.adjustments, &c)
	})
	return nil
}

func (r *AdjustmentRepo) List(ctx context.Context, filter adjustment.ListFilter) (domain.ListResult[*adjustment.StockAdjustment], error) {
	orgID, err := tenant.RequireOrg(ctx)
	if err != nil {
		return domain.ListResult[*adjustment.StockAdjustment]{}, err
	}
	var matched []*adjustment.StockAdjustment
	r.s.do(ctx, func() {
		// newest first
		for i := len(r.s.adjustments) - 1; i >= 0; i-- {
			a := r.s.adjustments[i]
			if a.OrgID != orgID {
				continue
			}
			if filter.ProductID != nil && a.ProductID != *filter.ProductID {
				continue
			}
			if filter.Kind != nil && a.Kind != *filter.Kind {
				continue
			}
			c := *a
			matched = append(matched, &c)
		}
	})
	return domain.ListResult[*adjustment.StockAdjustment]{
		Items:      page(matched, filter.Offset, filter.Limit),
		TotalCount: int64(len(matched)),
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}, nil
}
