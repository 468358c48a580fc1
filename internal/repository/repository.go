// Package repository contains data access layer abstractions for the identity
// store. Implementations live in subpackages (e.g. postgres). Every method
// takes the shard context resolved for the identifier being operated on; the
// repositories themselves hold no connection state.
package repository

import (
	"context"
	"database/sql"
)

// Execer is the subset of database/sql needed to append rows. Both *sql.DB
// and *sql.Tx satisfy it, which lets the history ledger write inside the
// caller's transaction.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}
