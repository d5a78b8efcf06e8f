package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"stockcore/internal/core/tx"
	"stockcore/pkg/logger"
)

var tracer = otel.Tracer("stockcore/postgres")

var _ tx.ReadOnlyManager = (*TxManager)(nil)

var (
	// mutationTx is used for every stock mutation. Two overlapping
	// read-modify-write transactions cannot both commit under it.
	mutationTx = pgx.TxOptions{IsoLevel: pgx.Serializable, AccessMode: pgx.ReadWrite}
	// snapshotTx reads several rows from one snapshot without locking them.
	snapshotTx = pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}
)

// TxManager implements tx.ReadOnlyManager over a pgx pool. Nested calls join
// the outer transaction; there are no savepoints, so any failure aborts the
// whole unit. Serialization failures come back as CONCURRENT_MODIFICATION
// and are not retried here.
type TxManager struct {
	pool *pgxpool.Pool
}

func NewTxManager(pool *Pool) *TxManager {
	return &TxManager{pool: pool.Pool}
}

type txKey struct{}

func (m *TxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, "tx.mutation", mutationTx, fn)
}

func (m *TxManager) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, "tx.snapshot", snapshotTx, fn)
}

func (m *TxManager) run(ctx context.Context, name string, opts pgx.TxOptions, fn func(ctx context.Context) error) (err error) {
	if m.GetTx(ctx) != nil {
		return fn(ctx)
	}

	ctx, span := tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.tx.isolation", string(opts.IsoLevel)),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "rolled back")
		}
		span.End()
	}()

	pgTx, err := m.pool.BeginTx(ctx, opts)
	if err != nil {
		return mapError(fmt.Errorf("begin transaction: %w", err))
	}

	done := false
	defer func() {
		if done {
			return
		}
		// ctx may already be cancelled; the rollback must still reach the server.
		if rbErr := pgTx.Rollback(context.Background()); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			logger.Error(ctx, "rollback failed", "error", rbErr)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, pgTx)); err != nil {
		return mapError(err)
	}
	if err := pgTx.Commit(ctx); err != nil {
		return mapError(fmt.Errorf("commit transaction: %w", err))
	}
	done = true
	return nil
}

// GetTx returns the transaction carried by ctx, or nil.
func (m *TxManager) GetTx(ctx context.Context) pgx.Tx {
	t, _ := ctx.Value(txKey{}).(pgx.Tx)
	return t
}

// Querier is satisfied by both pgx.Tx and *pgxpool.Pool.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// GetQuerier returns the transaction on ctx, otherwise the pool, so
// repositories work both inside and outside a unit of work.
func (m *TxManager) GetQuerier(ctx context.Context) Querier {
	if t := m.GetTx(ctx); t != nil {
		return t
	}
	return m.pool
}
