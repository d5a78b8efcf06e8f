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
	"stockcore/internal/domain/documents/purchase"
	"stockcore/internal/domain/product"
	"stockcore/internal/domain/stockmove"
	"stockcore/pkg/logger"
)

// ReceivePurchase books an inventory purchase: every line raises stock,
// blends the unit cost into the running average and, for measured goods,
// adds qty*contentPerItem of content.
func (s *Service) ReceivePurchase(ctx context.Context, cmd PurchaseCommand) (doc *purchase.Purchase, err error) {
	ctx, done := s.observe(ctx, "receive_purchase")
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

	doc = purchase.NewInventory(orgID, cmd.Date, user.UserID, cmd.Supplier, cmd.Method, cmd.purchaseItems())
	if err := doc.Validate(ctx); err != nil {
		return nil, err
	}

	names := make(map[id.ID]string, len(doc.Items))
	for _, it := range doc.Items {
		if _, ok := names[it.ProductID]; !ok {
			names[it.ProductID] = it.Name
		}
	}
	reason := fmt.Sprintf("Pembelian dari %s", doc.Supplier)

	err = s.mutate(ctx, orgID, doc.ProductIDs(), func(ctx context.Context) error {
		locked, err := s.lockProducts(ctx, doc.ProductIDs(), names)
		if err != nil {
			return err
		}

		// Lines apply in document order; a product listed twice blends twice.
		moves := make([]*stockmove.Move, 0, len(doc.Items))
		for _, it := range doc.Items {
			p := locked[it.ProductID]
			before := p.Ledger()
			after, err := costing.ApplyPurchaseCost(before, it.Qty, it.UnitCost)
			if err != nil {
				return err
			}
			if p.HasMeasure {
				after.StockContent = before.StockContent.Add(p.ContentFor(it.Qty))
			}
			if err := p.SetLedger(after); err != nil {
				return err
			}

			m := stockmove.New(orgID, p.ID, stockmove.TypePurchase, it.Qty, before.Stock, after.Stock, reason, user.UserID).
				WithCost(before.AvgCost, after.AvgCost, it.UnitCost)
			m.PurchaseID = &doc.ID
			if p.HasMeasure {
				m.WithContent(string(p.MeasureUnit), before.StockContent, after.StockContent)
			}
			moves = append(moves, m)
		}

		if err := s.saveLedgers(ctx, locked, doc.ProductIDs()); err != nil {
			return err
		}
		if err := s.moves.Append(ctx, moves...); err != nil {
			return fmt.Errorf("append purchase moves: %w", err)
		}
		if doc.Number, err = s.number(ctx, orgID, numerator.PurchaseNumbers, doc.Date); err != nil {
			return err
		}
		if err := s.purchases.Create(ctx, doc); err != nil {
			return fmt.Errorf("create purchase: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterPurchase(ctx, doc, audit.ActionCreate, domain.AfterCreate)
	logger.Info(ctx, "purchase received",
		"purchase_id", doc.ID,
		"supplier", doc.Supplier,
		"total", doc.Total.String(),
		"lines", len(doc.Items),
	)
	return doc, nil
}

// RecordOtherPurchase books a purely financial purchase. The ledger is not read.
func (s *Service) RecordOtherPurchase(ctx context.Context, cmd OtherPurchaseCommand) (doc *purchase.Purchase, err error) {
	ctx, done := s.observe(ctx, "record_other_purchase")
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

	doc = purchase.NewOther(orgID, cmd.Date, user.UserID, cmd.Supplier, cmd.Method, cmd.otherItems())
	if err := doc.Validate(ctx); err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		if doc.Number, err = s.number(ctx, orgID, numerator.PurchaseNumbers, doc.Date); err != nil {
			return err
		}
		if err := s.purchases.Create(ctx, doc); err != nil {
			return fmt.Errorf("create purchase: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterPurchase(ctx, doc, audit.ActionCreate, domain.AfterCreate)
	logger.Info(ctx, "other purchase recorded", "purchase_id", doc.ID, "total", doc.Total.String())
	return doc, nil
}

// VoidPurchase cancels a purchase. Inventory purchases give their stock back
// (and content for measured goods) only if every line can be reversed;
// average cost keeps its current value. Voiding a voided purchase is a no-op.
func (s *Service) VoidPurchase(ctx context.Context, purchaseID id.ID) (res *VoidResult, err error) {
	ctx, done := s.observe(ctx, "void_purchase")
	defer func() { done(err) }()

	orgID, err := tenant.RequireOrg(ctx)
	if err != nil {
		return nil, err
	}
	if err := security.RequirePrivileged(ctx, security.OpVoidPurchase); err != nil {
		return nil, err
	}
	user, _ := security.RequireUser(ctx)

	// Read outside the transaction only to learn which products to lock.
	peek, err := s.purchases.Get(ctx, purchaseID)
	if err != nil {
		return nil, err
	}
	if peek.IsVoided() {
		return &VoidResult{Purchase: peek, AlreadyVoided: true}, nil
	}
	var lockIDs []id.ID
	if peek.EffectiveKind() == purchase.KindInventory {
		lockIDs = peek.ProductIDs()
	}

	res = &VoidResult{}
	err = s.mutate(ctx, orgID, lockIDs, func(ctx context.Context) error {
		doc, err := s.purchases.GetForUpdate(ctx, purchaseID)
		if err != nil {
			return err
		}
		res.Purchase = doc
		if doc.IsVoided() {
			res.AlreadyVoided = true
			return nil
		}

		if doc.EffectiveKind() == purchase.KindInventory {
			if err := s.reverseIntake(ctx, doc, user.UserID); err != nil {
				return err
			}
		}

		doc.MarkVoided(user.UserID, s.now())
		if err := s.purchases.MarkVoided(ctx, doc); err != nil {
			return fmt.Errorf("mark purchase voided: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.AlreadyVoided {
		logger.Info(ctx, "purchase already voided", "purchase_id", purchaseID)
		return res, nil
	}

	s.afterPurchase(ctx, res.Purchase, audit.ActionPurchaseVoid, domain.AfterVoid)
	logger.Info(ctx, "purchase voided", "purchase_id", purchaseID, "kind", res.Purchase.EffectiveKind())
	return res, nil
}

// reverseIntake checks every line first and only then decrements, so a
// failure on any line leaves all products as they were.
func (s *Service) reverseIntake(ctx context.Context, doc *purchase.Purchase, byUID string) error {
	locked, err := s.lockProducts(ctx, doc.ProductIDs(), nil)
	if err != nil {
		if apperror.IsNotFound(err) {
			return apperror.NewCannotVoid("product of the purchase no longer exists").
				WithDetail("purchase_id", doc.ID.String()).
				WithCause(err)
		}
		return err
	}

	// Pass 1: the combined quantity of each product must still be on hand.
	need := make(map[id.ID]int64, len(doc.Items))
	for _, it := range doc.Items {
		need[it.ProductID] += it.Qty
	}
	for _, pid := range firstSeenOrder(doc.ProductIDs()) {
		p := locked[pid]
		if p.Stock < need[pid] {
			return cannotVoid(doc, p, need[pid], p.Stock)
		}
	}

	// Pass 2: mutate.
	reason := fmt.Sprintf("Void pembelian %s", doc.ID)
	moves := make([]*stockmove.Move, 0, len(doc.Items))
	for _, it := range doc.Items {
		p := locked[it.ProductID]
		before := p.Ledger()
		after := before
		after.Stock = before.Stock - it.Qty
		if p.HasMeasure {
			// Content may have been recounted apart from stock; floor at 0.
			after.StockContent = before.StockContent.Sub(p.ContentFor(it.Qty))
			if after.StockContent.IsNegative() {
				after.StockContent = types.Zero()
			}
		}
		if err := p.SetLedger(after); err != nil {
			return err
		}

		m := stockmove.New(doc.OrgID, p.ID, stockmove.TypePurchaseVoid, it.Qty, before.Stock, after.Stock, reason, byUID).
			WithUnitCost(it.UnitCost)
		m.PurchaseID = &doc.ID
		if p.HasMeasure {
			m.WithContent(string(p.MeasureUnit), before.StockContent, after.StockContent)
		}
		moves = append(moves, m)
	}

	if err := s.saveLedgers(ctx, locked, doc.ProductIDs()); err != nil {
		return err
	}
	if err := s.moves.Append(ctx, moves...); err != nil {
		return fmt.Errorf("append void moves: %w", err)
	}
	return nil
}

func cannotVoid(doc *purchase.Purchase, p *product.Product, required, available int64) *apperror.AppError {
	return apperror.NewCannotVoid(fmt.Sprintf("insufficient stock to reverse: %s", p.DisplayName())).
		WithDetail("purchase_id", doc.ID.String()).
		WithDetail("product_id", p.ID.String()).
		WithDetail("required", required).
		WithDetail("available", available)
}

func (s *Service) afterPurchase(ctx context.Context, doc *purchase.Purchase, action audit.Action, event domain.HookEvent) {
	audit.Emit(ctx, s.audit, purchaseRecord(ctx, doc, action))
	if err := s.purchaseHooks.Run(ctx, event, doc); err != nil {
		logger.Warn(ctx, "purchase hook failed", "purchase_id", doc.ID, "event", event, "error", err)
	}
}

// GetPurchase returns a purchase of the current organization.
func (s *Service) GetPurchase(ctx context.Context, purchaseID id.ID) (*purchase.Purchase, error) {
	if _, err := tenant.RequireOrg(ctx); err != nil {
		return nil, err
	}
	return s.purchases.Get(ctx, purchaseID)
}

// PurchaseHistory lists purchases of the current organization.
func (s *Service) PurchaseHistory(ctx context.Context, filter purchase.ListFilter) (domain.ListResult[*purchase.Purchase], error) {
	if _, err := tenant.RequireOrg(ctx); err != nil {
		return domain.ListResult[*purchase.Purchase]{}, err
	}
	filter.Page = filter.Page.Normalize()
	return s.purchases.List(ctx, filter)
}
