// Package migrate orchestrates per-table COPY sessions and runs them across
// a pool of workers.
package migrate

import "mygrate/pkg/pgcopy"

// Table describes one table to migrate. The same name is used on source and
// destination, and the column order governs both the source SELECT list and
// the field order of encoded rows. Immutable after construction.
type Table struct {
	Name    string
	Columns []pgcopy.Column
}

func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}
