package memory

import (
	"context"
	"slices"
	"sort"

	"stockcore/internal/core/apperror"
	"stockcore/internal/core/tenant"
	"stockcore/internal/domain"
	"stockcore/internal/domain/stockmove"
)

// MoveRepo implements stockmove.Repository.
type MoveRepo struct {
	s *Store
}

var _ stockmove.Repository = (*MoveRepo)(nil)

func (r *MoveRepo) Append(ctx context.Context, moves ...*stockmove.Move) error {
	orgID, err := tenant.RequireOrg(ctx)
	if err != nil {
		return err
	}
	for _, m := range moves {
		if err := m.Validate(); err != nil {
			return err
		}
		if m.OrgID != orgID {
			return apperror.NewValidation("stock move belongs to another organization")
		}
	}
	r.s.do(ctx, func() {
		for _, m := range moves {
			r.s.seq++
			m.Seq = r.s.seq
			c := *m
			r.s.moves = append(r.s.moves, &c)
		}
	})
	return nil
}

func (r *MoveRepo) List(ctx context.Context, filter stockmove.Filter) (domain.ListResult[*stockmove.Move], error) {
	orgID, err := tenant.RequireOrg(ctx)
	if err != nil {
		return domain.ListResult[*stockmove.Move]{}, err
	}

	var matched []*stockmove.Move
	r.s.do(ctx, func() {
		for _, m := range r.s.moves {
			if m.OrgID != orgID {
				continue
			}
			if filter.ProductID != nil && m.ProductID != *filter.ProductID {
				continue
			}
			if filter.PurchaseID != nil && (m.PurchaseID == nil || *m.PurchaseID != *filter.PurchaseID) {
				continue
			}
			if filter.SaleID != nil && (m.SaleID == nil || *m.SaleID != *filter.SaleID) {
				continue
			}
			if len(filter.Types) > 0 && !slices.Contains(filter.Types, m.Type) {
				continue
			}
			if filter.From != nil && m.CreatedAt.Before(*filter.From) {
				continue
			}
			if filter.To != nil && m.CreatedAt.After(*filter.To) {
				continue
			}
			c := *m
			matched = append(matched, &c)
		}
	})
	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		return matched[i].Seq < matched[j].Seq
	})

	return domain.ListResult[*stockmove.Move]{
		Items:      page(matched, filter.Offset, filter.Limit),
		TotalCount: int64(len(matched)),
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}, nil
}
