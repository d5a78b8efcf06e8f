// Package document_repo provides PostgreSQL implementations for the sale,
// purchase and stock adjustment documents.
package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockcore/internal/core/apperror"
	"stockcore/internal/core/id"
	"stockcore/internal/core/tenant"
	"stockcore/internal/domain"
	"stockcore/internal/infrastructure/storage/postgres"
)

// BaseDocumentRepo provides the shared insert/get/list paths for document
// tables. Every query is scoped to the organization in ctx.
type BaseDocumentRepo[T any] struct {
	txm        *postgres.TxManager
	tableName  string
	entityName string
	selectCols []string
	newFn      func() T
}

// NewBaseDocumentRepo creates a base document repository.
func NewBaseDocumentRepo[T any](txm *postgres.TxManager, tableName, entityName string, newFn func() T) *BaseDocumentRepo[T] {
	return &BaseDocumentRepo[T]{
		txm:        txm,
		tableName:  tableName,
		entityName: entityName,
		selectCols: postgres.ExtractDBColumns[T](),
		newFn:      newFn,
	}
}

// create inserts a document. orgID is the document's own partition key and
// must match the organization in ctx.
func (r *BaseDocumentRepo[T]) create(ctx context.Context, orgID id.ID, doc T) error {
	if orgID != tenant.MustOrg(ctx) {
		return apperror.NewValidation(r.entityName + " belongs to another organization")
	}

	sql, args, err := postgres.Builder().
		Insert(r.tableName).
		SetMap(postgres.ColumnValues(doc, r.selectCols)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert %s: %w", r.tableName, err)
	}
	return nil
}

func (r *BaseDocumentRepo[T]) baseSelect(ctx context.Context) squirrel.SelectBuilder {
	return postgres.Builder().
		Select(r.selectCols...).
		From(r.tableName).
		Where(squirrel.Eq{"org_id": tenant.MustOrg(ctx)})
}

// get reads one document, optionally locking its row.
func (r *BaseDocumentRepo[T]) get(ctx context.Context, docID id.ID, forUpdate bool) (T, error) {
	doc := r.newFn()

	q := r.baseSelect(ctx).Where(squirrel.Eq{"id": docID})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return doc, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), doc, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return doc, apperror.NewNotFound(r.entityName, docID.String())
		}
		return doc, fmt.Errorf("get %s: %w", r.entityName, err)
	}
	return doc, nil
}

// updateVersioned applies set to the row at version, bumping version by one.
func (r *BaseDocumentRepo[T]) updateVersioned(ctx context.Context, docID id.ID, version int64, set map[string]any) error {
	sql, args, err := postgres.Builder().
		Update(r.tableName).
		SetMap(set).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": docID}).
		Where(squirrel.Eq{"org_id": tenant.MustOrg(ctx)}).
		Where(squirrel.Eq{"version": version}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", r.tableName, err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(r.entityName, docID.String())
	}
	return nil
}

// list counts and pages q, ordered by orderBy.
func (r *BaseDocumentRepo[T]) list(ctx context.Context, q squirrel.SelectBuilder, p domain.Page, orderBy ...string) (domain.ListResult[T], error) {
	p = p.Normalize()
	result := domain.ListResult[T]{Limit: p.Limit, Offset: p.Offset}
	querier := r.txm.GetQuerier(ctx)

	countSQL, countArgs, err := postgres.Builder().Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count %s: %w", r.tableName, err)
	}

	sql, args, err := q.
		OrderBy(orderBy...).
		Limit(uint64(p.Limit)).
		Offset(uint64(p.Offset)).
		ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	result.Items = make([]T, 0)
	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list %s: %w", r.tableName, err)
	}
	return result, nil
}
