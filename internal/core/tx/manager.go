// Package tx is the transaction boundary of the engine. A stock mutation
// reads its products FOR UPDATE, writes ledgers, moves and the document,
// and commits or rolls back as one unit through Manager.
package tx

import "context"

// Manager runs fn as one unit of work. The transaction travels in the ctx
// handed to fn; repositories pick it up from there. A non-nil error from fn
// (or a panic) rolls back every write fn made. A call made with a ctx that
// already carries a transaction joins it instead of opening a new one.
type Manager interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager adds snapshot reads: ReadOnly sees a consistent view of
// ledgers without taking row locks. Postgres rejects writes made inside it.
// COGS previews and product reads use it.
type ReadOnlyManager interface {
	Manager
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}
