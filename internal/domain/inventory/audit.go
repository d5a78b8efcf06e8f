package inventory

import (
	"context"

	"stockcore/internal/domain/audit"
	"stockcore/internal/domain/documents/adjustment"
	"stockcore/internal/domain/documents/purchase"
	"stockcore/internal/domain/documents/sale"
	"stockcore/internal/domain/product"
)

func saleCreatedRecord(ctx context.Context, doc *sale.Sale) audit.Record {
	return audit.New(ctx, doc.OrgID, audit.EntitySale, audit.ActionCreate, doc.ID.String()).
		WithAfter(map[string]any{
			"total":         doc.Total.String(),
			"paymentMethod": string(doc.PaymentMethod),
			"itemCount":     len(doc.Items),
			"cogs":          doc.Cogs.String(),
			"grossProfit":   doc.GrossProfit.String(),
			"margin":        doc.Margin.String(),
		})
}

func purchaseRecord(ctx context.Context, doc *purchase.Purchase, action audit.Action) audit.Record {
	r := audit.New(ctx, doc.OrgID, audit.EntityPurchase, action, doc.ID.String())
	if action == audit.ActionPurchaseVoid {
		return r.WithBefore(map[string]any{"voided": false}).
			WithAfter(map[string]any{"voided": true, "kind": string(doc.EffectiveKind())})
	}
	return r.WithAfter(map[string]any{
		"supplier":  doc.Supplier,
		"method":    doc.Method,
		"kind":      string(doc.Kind),
		"total":     doc.Total.String(),
		"itemCount": doc.LineCount(),
	})
}

func adjustmentRecord(ctx context.Context, doc *adjustment.StockAdjustment, action audit.Action) audit.Record {
	after := map[string]any{
		"stock":  doc.After,
		"delta":  doc.Delta,
		"reason": doc.Reason,
		"kind":   string(doc.Kind),
	}
	if doc.ContentAfter != nil {
		after["stockContent"] = doc.ContentAfter.String()
	}
	return audit.New(ctx, doc.OrgID, audit.EntityStock, action, doc.ProductID.String()).
		WithBefore(map[string]any{"stock": doc.Before}).
		WithAfter(after)
}

func productCreatedRecord(ctx context.Context, p *product.Product) audit.Record {
	return audit.New(ctx, p.OrgID, audit.EntityProduct, audit.ActionCreate, p.ID.String()).
		WithAfter(map[string]any{
			"name":     p.Name,
			"category": p.Category,
			"price":    p.Price.String(),
			"stock":    p.Stock,
		})
}
