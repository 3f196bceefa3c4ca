package repositories

import (
	"context"
)

// TxManager runs a function inside a single serializable database
// transaction. The transaction handle travels in the context and is picked up
// by the repository implementations, so every repository call made within fn
// shares the same transaction. fn returning an error rolls everything back.
//
// Serialization aborts are surfaced as transient errors; callers decide
// whether to retry.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
