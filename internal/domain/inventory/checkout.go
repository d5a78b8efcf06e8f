package inventory

import (
	"context"
	"fmt"

	"stockcore/internal/core/apperror"
	"stockcore/internal/core/id"
	"stockcore/internal/core/numerator"
	"stockcore/internal/core/security"
	"stockcore/internal/core/tenant"
	"stockcore/internal/core/types"
	"stockcore/internal/core/validate"
	"stockcore/internal/domain"
	"stockcore/internal/domain/audit"
	"stockcore/internal/domain/costing"
	"stockcore/internal/domain/documents/sale"
	"stockcore/internal/domain/product"
	"stockcore/internal/domain/stockmove"
	"stockcore/pkg/logger"
)

// SaleReason is the reason written on sale stock moves.
const SaleReason = "Penjualan"

// Checkout validates the cart against the ledger, freezes COGS from the same
// snapshot, decrements stock (and content for measured goods), logs one sale
// move per product and persists the sale. Any failure leaves every product
// untouched.
func (s *Service) Checkout(ctx context.Context, cmd CheckoutCommand) (doc *sale.Sale, err error) {
	ctx, done := s.observe(ctx, "checkout")
	defer func() { done(err) }()

	orgID, err := tenant.RequireOrg(ctx)
	if err != nil {
		return nil, err
	}
	user, err := security.RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := validate.Struct(cmd); err != nil {
		return nil, err
	}

	doc = sale.New(orgID, cmd.Date, user.UserID, cmd.PaymentMethod, cmd.saleItems())
	if err := doc.Validate(ctx); err != nil {
		return nil, err
	}

	names := make(map[id.ID]string)
	for _, it := range doc.Items {
		if it.ProductID != nil {
			if _, ok := names[*it.ProductID]; !ok {
				names[*it.ProductID] = it.Name
			}
		}
	}
	productIDs := doc.ProductIDs()

	err = s.mutate(ctx, orgID, productIDs, func(ctx context.Context) error {
		var locked map[id.ID]*product.Product
		if len(productIDs) > 0 {
			var err error
			locked, err = s.lockProducts(ctx, productIDs, names)
			if err != nil {
				return err
			}
		}

		demand := doc.QtyByProduct()
		order := firstSeenOrder(productIDs)
		if err := checkAvailability(locked, demand, order); err != nil {
			return err
		}

		doc.ApplyCogs(costing.CogsFromSnapshot(locked, doc.CogsLines()))

		moves := make([]*stockmove.Move, 0, len(order))
		for _, pid := range order {
			p := locked[pid]
			qty := demand[pid]
			before := p.Ledger()
			after := before
			after.Stock = before.Stock - qty
			if p.HasMeasure {
				after.StockContent = before.StockContent.Sub(p.ContentFor(qty))
			}
			if err := p.SetLedger(after); err != nil {
				return err
			}

			m := stockmove.New(orgID, pid, stockmove.TypeSale, qty, before.Stock, after.Stock, SaleReason, user.UserID)
			m.SaleID = &doc.ID
			if p.HasMeasure {
				m.WithContent(string(p.MeasureUnit), before.StockContent, after.StockContent)
			}
			moves = append(moves, m)
		}

		if err := s.saveLedgers(ctx, locked, order); err != nil {
			return err
		}
		if len(moves) > 0 {
			if err := s.moves.Append(ctx, moves...); err != nil {
				return fmt.Errorf("append sale moves: %w", err)
			}
		}
		number, err := s.number(ctx, orgID, numerator.SaleNumbers, doc.Date)
		if err != nil {
			return err
		}
		doc.Number = number
		if err := s.sales.Create(ctx, doc); err != nil {
			return fmt.Errorf("create sale: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	audit.Emit(ctx, s.audit, saleCreatedRecord(ctx, doc))
	if err := s.saleHooks.Run(ctx, domain.AfterCreate, doc); err != nil {
		logger.Warn(ctx, "sale after-create hook failed", "sale_id", doc.ID, "error", err)
	}

	logger.Info(ctx, "sale checked out",
		"sale_id", doc.ID,
		"total", doc.Total.String(),
		"cogs", doc.Cogs.String(),
		"lines", len(doc.Items),
	)
	return doc, nil
}

// checkAvailability validates every product against its aggregated demand.
// Unit stock is checked first, then content for measured goods.
func checkAvailability(locked map[id.ID]*product.Product, demand map[id.ID]int64, order []id.ID) error {
	for _, pid := range order {
		p := locked[pid]
		need := demand[pid]
		if p.Stock < need {
			return apperror.NewInsufficientStock(p.DisplayName(), need, p.Stock).
				WithDetail("product_id", pid.String())
		}
		if p.HasMeasure {
			needContent := p.ContentFor(need)
			if p.StockContent.LessThan(needContent) {
				return apperror.NewInsufficientContent(p.DisplayName(), needContent.String(), p.StockContent.String()).
					WithDetail("product_id", pid.String()).
					WithDetail("unit", string(p.MeasureUnit))
			}
		}
	}
	return nil
}

// firstSeenOrder returns distinct ids in the order they first appear.
func firstSeenOrder(ids []id.ID) []id.ID {
	seen := make(map[id.ID]struct{}, len(ids))
	out := make([]id.ID, 0, len(ids))
	for _, v := range ids {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// EditSaleTotal changes a sale's total out-of-band. Stock and COGS stay as
// recorded at checkout; gross profit and margin follow the new total.
func (s *Service) EditSaleTotal(ctx context.Context, saleID id.ID, total types.Money) (doc *sale.Sale, err error) {
	ctx, done := s.observe(ctx, "edit_sale_total")
	defer func() { done(err) }()

	if _, err := tenant.RequireOrg(ctx); err != nil {
		return nil, err
	}
	if err := security.RequirePrivileged(ctx, security.OpEditSaleTotal); err != nil {
		return nil, err
	}
	var before map[string]any
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.sales.GetForUpdate(ctx, saleID)
		if err != nil {
			return err
		}
		before = map[string]any{"total": doc.Total.String()}
		if err := doc.EditTotal(total); err != nil {
			return err
		}
		return s.sales.UpdateTotals(ctx, doc)
	})
	if err != nil {
		return nil, err
	}

	audit.Emit(ctx, s.audit, audit.New(ctx, doc.OrgID, audit.EntitySale, audit.ActionUpdate, doc.ID.String()).
		WithBefore(before).
		WithAfter(map[string]any{
			"total":       doc.Total.String(),
			"grossProfit": doc.GrossProfit.String(),
			"margin":      doc.Margin.String(),
		}))
	logger.Info(ctx, "sale total edited", "sale_id", doc.ID, "total", doc.Total.String())
	return doc, nil
}

// GetSale returns a sale of the current organization.
func (s *Service) GetSale(ctx context.Context, saleID id.ID) (*sale.Sale, error) {
	if _, err := tenant.RequireOrg(ctx); err != nil {
		return nil, err
	}
	return s.sales.Get(ctx, saleID)
}

// SaleHistory lists sales of the current organization.
func (s *Service) SaleHistory(ctx context.Context, filter sale.ListFilter) (domain.ListResult[*sale.Sale], error) {
	if _, err := tenant.RequireOrg(ctx); err != nil {
		return domain.ListResult[*sale.Sale]{}, err
	}
	filter.Page = filter.Page.Normalize()
	return s.sales.List(ctx, filter)
}
