package stockmove

import (
	"context"
	"fmt"

	"stockcore/internal/core/apperror"
	"stockcore/internal/core/tenant"
	"stockcore/internal/domain"
)

// Service exposes read access to the log. Writes happen only through
// Repository.Append inside the inventory mutator's transaction.
type Service struct {
	repo Repository
}

// NewService creates a new stock move service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// History returns moves for the current organization.
func (s *Service) History(ctx context.Context, filter Filter) (domain.ListResult[*Move], error) {
	if _, err := tenant.RequireOrg(ctx); err != nil {
		return domain.ListResult[*Move]{}, err
	}
	for _, t := range filter.Types {
		if !t.IsValid() {
			return domain.ListResult[*Move]{}, apperror.NewValidation("unknown move type").
				WithDetail("type", string(t))
		}
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return domain.ListResult[*Move]{}, apperror.NewValidation("'to' must not be before 'from'")
	}
	filter.Page = filter.Page.Normalize()

	res, err := s.repo.List(ctx, filter)
	if err != nil {
		return domain.ListResult[*Move]{}, fmt.Errorf("list stock moves: %w", err)
	}
	return res, nil
}
