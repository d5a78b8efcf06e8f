package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// ErrCopyOutsideTx is returned by CopyRecords when ctx carries no transaction.
var ErrCopyOutsideTx = errors.New("copy requires a transaction in context")

// CopyRecords streams records into table over the COPY protocol, one row per
// record with columns read from its db tags. Row order is slice order, so a
// serial key assigned by the table follows it.
func CopyRecords[T any](ctx context.Context, txm *TxManager, table string, columns []string, records []*T) (int64, error) {
	tx := txm.GetTx(ctx)
	if tx == nil {
		return 0, ErrCopyOutsideTx
	}
	src := pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
		values := ColumnValues(records[i], columns)
		row := make([]any, len(columns))
		for j, c := range columns {
			row[j] = values[c]
		}
		return row, nil
	})
	return tx.CopyFrom(ctx, pgx.Identifier{table}, columns, src)
}
