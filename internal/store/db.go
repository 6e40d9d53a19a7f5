package store

import (
	"context"
	"database/sql"
)

// The stores accept the narrowest slice of sqlx they need so the same method
// can run against the pool or inside a serializable transaction. Tx is what a
// ledger mutation sees: it can lock rows and write, but never open its own
// query stream.

type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type Getter interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
}

type Selecter interface {
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

type DB interface {
	Execer
	Getter
	Selecter
}

type Tx interface {
	Execer
	Getter
}
