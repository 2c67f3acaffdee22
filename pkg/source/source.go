// Package source provides row cursors over the systems a migration can read
// from: a MySQL-family server or per-table CSV files.
package source

import (
	"context"

	"mygrate/pkg/pgcopy"
)

// RowFunc receives one source row as nullable text fields, in column order.
// The slice is reused between calls; implementations of Source guarantee it
// is valid only for the duration of the call.
type RowFunc func(row []pgcopy.Value) error

// Source streams a table's rows in the order the underlying cursor yields
// them. Stream returns the first error from the cursor or from fn.
type Source interface {
	Stream(ctx context.Context, table string, columns []string, fn RowFunc) error
}
