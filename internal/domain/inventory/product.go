package inventory

import (
	"context"
	"fmt"
	"strings"

	"stockcore/internal/core/apperror"
	"stockcore/internal/core/security"
	"stockcore/internal/core/tenant"
	"stockcore/internal/core/types"
	"stockcore/internal/core/validate"
	"stockcore/internal/domain/audit"
	"stockcore/internal/domain/product"
	"stockcore/internal/domain/stockmove"
	"stockcore/pkg/logger"
)

// OpeningReason is the reason on the move that books an opening balance.
const OpeningReason = "Stok awal"

// CreateProduct registers a product. A non-zero opening balance is booked
// as an adjust_in move so the log explains the first ledger state.
func (s *Service) CreateProduct(ctx context.Context, cmd CreateProductCommand) (p *product.Product, err error) {
	ctx, done := s.observe(ctx, "create_product")
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
	if cmd.OpeningCost.IsNegative() || cmd.OpeningContent.IsNegative() {
		return nil, apperror.NewValidation("opening balance must not be negative")
	}

	p = product.NewProduct(orgID, cmd.Name, cmd.Category, cmd.Price)
	if b := strings.TrimSpace(cmd.Barcode); b != "" {
		p.Barcode = &b
	}
	p.HasMeasure = cmd.HasMeasure
	p.MeasureUnit = cmd.MeasureUnit
	p.ContentPerItem = cmd.ContentPerItem
	p.MinStock = cmd.MinStock
	p.MinContent = cmd.MinContent
	p.Normalize()

	opening := product.Ledger{Stock: cmd.OpeningStock, StockContent: types.Zero(), AvgCost: types.Zero()}
	if cmd.OpeningStock > 0 {
		opening.AvgCost = cmd.OpeningCost
	}
	if p.HasMeasure {
		opening.StockContent = cmd.OpeningContent
		if opening.StockContent.IsZero() {
			opening.StockContent = p.ContentFor(cmd.OpeningStock)
		}
	}
	if err := p.SetLedger(opening); err != nil {
		return nil, err
	}
	if err := p.Validate(ctx); err != nil {
		return nil, err
	}

	hasOpening := opening.Stock > 0 || opening.StockContent.IsPositive()
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.products.Create(ctx, p); err != nil {
			return fmt.Errorf("create product: %w", err)
		}
		if !hasOpening {
			return nil
		}
		m := stockmove.New(orgID, p.ID, stockmove.TypeAdjustIn, opening.Stock, 0, opening.Stock, OpeningReason, user.UserID).
			WithCost(types.Zero(), opening.AvgCost, opening.AvgCost)
		if p.HasMeasure {
			m.WithContent(string(p.MeasureUnit), types.Zero(), opening.StockContent)
		}
		if err := s.moves.Append(ctx, m); err != nil {
			return fmt.Errorf("append opening move: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	audit.Emit(ctx, s.audit, productCreatedRecord(ctx, p))
	logger.Info(ctx, "product created", "product_id", p.ID, "name", p.Name, "opening_stock", p.Stock)
	return p, nil
}
