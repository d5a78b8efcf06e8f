package inventory

import (
	"context"
	"fmt"

	"stockcore/internal/core/apperror"
	"stockcore/internal/core/id"
	"stockcore/internal/core/security"
	"stockcore/internal/core/tenant"
	"stockcore/internal/core/types"
	"stockcore/internal/core/validate"
	"stockcore/internal/domain"
	"stockcore/internal/domain/audit"
	"stockcore/internal/domain/documents/adjustment"
	"stockcore/internal/domain/product"
	"stockcore/internal/domain/stockmove"
	"stockcore/pkg/logger"
)

// DefaultMovementReason is used for movement adjustments without a reason.
const DefaultMovementReason = "Penyesuaian"

// AdjustStock applies a signed delta to one product. A movement is logged as
// adjust_in/adjust_out; a correction is logged as "adjustment" carrying the
// delta, note and business date. Measured goods move content by
// delta*contentPerItem, floored at zero.
func (s *Service) AdjustStock(ctx context.Context, cmd AdjustCommand) (doc *adjustment.StockAdjustment, err error) {
	ctx, done := s.observe(ctx, "adjust_stock")
	defer func() { done(err) }()

	orgID, err := tenant.RequireOrg(ctx)
	if err != nil {
		return nil, err
	}
	if err := security.RequirePrivileged(ctx, security.OpAdjustStock); err != nil {
		return nil, err
	}
	if err := validate.Struct(cmd); err != nil {
		return nil, err
	}
	user, _ := security.RequireUser(ctx)

	reason := cmd.Reason
	if reason == "" {
		reason = DefaultMovementReason
		if cmd.Kind == adjustment.KindCorrection {
			reason = adjustment.DefaultCorrectionReason
		}
	}
	doc = adjustment.New(orgID, cmd.Date, user.UserID, cmd.ProductID, cmd.Kind, reason, cmd.Note)

	err = s.mutate(ctx, orgID, []id.ID{cmd.ProductID}, func(ctx context.Context) error {
		p, err := s.lockOne(ctx, cmd.ProductID)
		if err != nil {
			return err
		}
		before := p.Ledger()
		after := before
		after.Stock = before.Stock + cmd.Delta
		if after.Stock < 0 {
			return apperror.NewInvalidState(fmt.Sprintf("adjustment would make stock of %s negative", p.DisplayName())).
				WithDetail("product_id", p.ID.String()).
				WithDetail("stock", before.Stock).
				WithDetail("delta", cmd.Delta)
		}
		if p.HasMeasure {
			after.StockContent = before.StockContent.Add(contentDelta(p, cmd.Delta))
			if after.StockContent.IsNegative() {
				after.StockContent = types.Zero()
			}
		}
		if err := p.SetLedger(after); err != nil {
			return err
		}

		doc.Record(before.Stock, after.Stock)
		if p.HasMeasure {
			doc.RecordContent(before.StockContent, after.StockContent)
		}
		if err := doc.Validate(ctx); err != nil {
			return err
		}

		m := adjustmentMove(orgID, p, cmd, before, after, reason, user.UserID)
		m.AdjustmentID = &doc.ID

		if err := s.products.SaveLedger(ctx, p); err != nil {
			return fmt.Errorf("save ledger %s: %w", p.ID, err)
		}
		if err := s.moves.Append(ctx, m); err != nil {
			return fmt.Errorf("append adjustment move: %w", err)
		}
		if err := s.adjustments.Create(ctx, doc); err != nil {
			return fmt.Errorf("create adjustment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	audit.Emit(ctx, s.audit, adjustmentRecord(ctx, doc, audit.ActionAdjustment))
	logger.Info(ctx, "stock adjusted",
		"product_id", cmd.ProductID,
		"kind", cmd.Kind,
		"delta", cmd.Delta,
		"stock_after", doc.After,
	)
	return doc, nil
}

func adjustmentMove(orgID id.ID, p *product.Product, cmd AdjustCommand, before, after product.Ledger, reason, byUID string) *stockmove.Move {
	qty := types.AbsInt64(cmd.Delta)
	var m *stockmove.Move
	switch {
	case cmd.Kind == adjustment.KindCorrection:
		m = stockmove.New(orgID, p.ID, stockmove.TypeAdjustment, qty, before.Stock, after.Stock, reason, byUID).
			WithCorrection(cmd.Delta, cmd.Note, cmd.Date)
	case cmd.Delta > 0:
		m = stockmove.New(orgID, p.ID, stockmove.TypeAdjustIn, qty, before.Stock, after.Stock, reason, byUID)
	default:
		m = stockmove.New(orgID, p.ID, stockmove.TypeAdjustOut, qty, before.Stock, after.Stock, reason, byUID)
	}
	if p.HasMeasure {
		m.WithContent(string(p.MeasureUnit), before.StockContent, after.StockContent)
	}
	return m
}

func contentDelta(p *product.Product, delta int64) types.Money {
	if delta < 0 {
		return p.ContentFor(-delta).Neg()
	}
	return p.ContentFor(delta)
}

// Opname sets a product's stock to a physically counted value. The move
// records qty = |target - before|. Measured goods may have their content
// recounted in the same call; otherwise content is left as is.
func (s *Service) Opname(ctx context.Context, cmd OpnameCommand) (doc *adjustment.StockAdjustment, err error) {
	ctx, done := s.observe(ctx, "opname")
	defer func() { done(err) }()

	orgID, err := tenant.RequireOrg(ctx)
	if err != nil {
		return nil, err
	}
	if err := security.RequirePrivileged(ctx, security.OpOpname); err != nil {
		return nil, err
	}
	if err := validate.Struct(cmd); err != nil {
		return nil, err
	}
	if cmd.TargetContent != nil && cmd.TargetContent.IsNegative() {
		return nil, apperror.NewValidation("targetContent must not be negative").
			WithDetail("field", "targetContent")
	}
	user, _ := security.RequireUser(ctx)

	reason := cmd.Reason
	if reason == "" {
		reason = adjustment.DefaultOpnameReason
	}
	doc = adjustment.New(orgID, cmd.Date, user.UserID, cmd.ProductID, adjustment.KindOpname, reason, "")

	err = s.mutate(ctx, orgID, []id.ID{cmd.ProductID}, func(ctx context.Context) error {
		p, err := s.lockOne(ctx, cmd.ProductID)
		if err != nil {
			return err
		}
		if cmd.TargetContent != nil && !p.HasMeasure {
			return apperror.NewValidation("targetContent is only valid for measured goods").
				WithDetail("field", "targetContent").
				WithDetail("product_id", p.ID.String())
		}

		before := p.Ledger()
		after := before
		after.Stock = cmd.Target
		if cmd.TargetContent != nil {
			after.StockContent = *cmd.TargetContent
		}
		if err := p.SetLedger(after); err != nil {
			return err
		}

		doc.Record(before.Stock, after.Stock)
		if p.HasMeasure {
			doc.RecordContent(before.StockContent, after.StockContent)
		}
		if err := doc.Validate(ctx); err != nil {
			return err
		}

		qty := types.AbsInt64(after.Stock - before.Stock)
		m := stockmove.New(orgID, p.ID, stockmove.TypeOpname, qty, before.Stock, after.Stock, reason, user.UserID)
		m.AdjustmentID = &doc.ID
		if p.HasMeasure {
			m.WithContent(string(p.MeasureUnit), before.StockContent, after.StockContent)
		}

		if err := s.products.SaveLedger(ctx, p); err != nil {
			return fmt.Errorf("save ledger %s: %w", p.ID, err)
		}
		if err := s.moves.Append(ctx, m); err != nil {
			return fmt.Errorf("append opname move: %w", err)
		}
		if err := s.adjustments.Create(ctx, doc); err != nil {
			return fmt.Errorf("create opname: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	audit.Emit(ctx, s.audit, adjustmentRecord(ctx, doc, audit.ActionStockOpname))
	logger.Info(ctx, "stock counted",
		"product_id", cmd.ProductID,
		"stock_before", doc.Before,
		"stock_after", doc.After,
	)
	return doc, nil
}

// lockOne locks a single product.
func (s *Service) lockOne(ctx context.Context, productID id.ID) (*product.Product, error) {
	locked, err := s.lockProducts(ctx, []id.ID{productID}, nil)
	if err != nil {
		return nil, err
	}
	return locked[productID], nil
}

// AdjustmentHistory lists adjustments of the current organization.
func (s *Service) AdjustmentHistory(ctx context.Context, filter adjustment.ListFilter) (domain.ListResult[*adjustment.StockAdjustment], error) {
	if _, err := tenant.RequireOrg(ctx); err != nil {
		return domain.ListResult[*adjustment.StockAdjustment]{}, err
	}
	filter.Page = filter.Page.Normalize()
	return s.adjustments.List(ctx, filter)
}
