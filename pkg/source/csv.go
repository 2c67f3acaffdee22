package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"mygrate/pkg/pgcopy"
)

// CSV streams rows from one file per table, named <table>.csv under Dir,
// with a header row. Columns are addressed by header name, so file column
// order need not match the mapping. CSV cannot distinguish NULL from the
// empty string; empty fields are treated as NULL.
type CSV struct {
	Dir string
}

func NewCSV(dir string) *CSV {
	return &CSV{Dir: dir}
}

func (c *CSV) Stream(ctx context.Context, table string, columns []string, fn RowFunc) error {
	path := filepath.Join(c.Dir, table+".csv")
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.ReuseRecord = true

	header, err := r.Read()
	if err != nil {
		return fmt.Errorf("read %s header: %w", path, err)
	}
	index := make([]int, len(columns))
	for i, col := range columns {
		index[i] = -1
		for j, name := range header {
			if name == col {
				index[i] = j
				break
			}
		}
		if index[i] < 0 {
			return fmt.Errorf("%s: missing column %q", path, col)
		}
	}

	vals := make([]pgcopy.Value, len(columns))
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		for i, j := range index {
			if record[j] == "" {
				vals[i] = pgcopy.Null
			} else {
				vals[i] = pgcopy.NewValue(record[j])
			}
		}
		if err := fn(vals); err != nil {
			return err
		}
	}
}
