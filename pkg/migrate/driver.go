package migrate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"mygrate/internal/pool"
	"mygrate/pkg/observability"
	"mygrate/pkg/pgcopy"
	"mygrate/pkg/source"
)

// Driver migrates one table at a time: it opens a source cursor, starts a
// binary COPY on the destination, and streams encoded rows between the two.
type Driver struct {
	dest            *pool.Pool
	src             source.Source
	log             *observability.Logger
	metrics         *observability.Metrics
	disableTriggers bool
}

func NewDriver(dest *pool.Pool, src source.Source, log *observability.Logger,
	metrics *observability.Metrics, disableTriggers bool) *Driver {
	return &Driver{
		dest:            dest,
		src:             src,
		log:             log,
		metrics:         metrics,
		disableTriggers: disableTriggers,
	}
}

// MigrateTable runs the whole COPY session for one table. Any failure is
// terminal for the table; the destination aborts the implicit transaction,
// so a failed table leaves no rows behind.
func (d *Driver) MigrateTable(ctx context.Context, table Table) error {
	start := time.Now()
	d.metrics.IncActiveWorkers()
	defer d.metrics.DecActiveWorkers()

	conn, err := d.dest.Acquire(ctx)
	if err != nil {
		d.metrics.IncTables("error")
		d.metrics.IncErrors("connect")
		return fmt.Errorf("table %s: %w", table.Name, err)
	}
	defer conn.Release()

	if d.disableTriggers {
		d.toggleTriggers(ctx, conn, table.Name, "DISABLE")
		defer d.toggleTriggers(ctx, conn, table.Name, "ENABLE")
	}

	rows, sent, err := d.copyTable(ctx, conn, table)
	if err != nil {
		d.metrics.IncTables("error")
		d.metrics.IncErrors("copy")
		return fmt.Errorf("table %s: %w", table.Name, err)
	}

	d.metrics.IncTables("ok")
	d.metrics.AddRowsCopied(table.Name, float64(rows))
	d.metrics.AddBytesCopied(table.Name, float64(sent))
	d.metrics.ObserveTableDuration(time.Since(start).Seconds())

	d.log.Info("table migrated",
		zap.String("table", table.Name),
		zap.Int64("rows", rows),
		zap.Int64("bytes", sent),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

// copyTable feeds the framed stream into COPY ... FROM STDIN BINARY through
// a pipe: an encoder goroutine writes header, rows, and trailer while the
// destination connection consumes the read end.
func (d *Driver) copyTable(ctx context.Context, conn *pgxpool.Conn, table Table) (int64, int64, error) {
	copySQL := fmt.Sprintf("COPY %s (%s) FROM STDIN BINARY",
		table.Name, strings.Join(table.ColumnNames(), ", "))

	r, w := io.Pipe()
	done := make(chan struct{})
	var rows, sent int64
	var encErr error

	go func() {
		defer close(done)
		rows, sent, encErr = writeStream(ctx, w, d.src, table)
		if encErr != nil {
			// The server sees a truncated stream, aborts the copy, and
			// discards everything sent so far.
			w.CloseWithError(encErr)
			return
		}
		w.Close()
	}()

	_, copyErr := conn.Conn().PgConn().CopyFrom(ctx, r, copySQL)
	r.Close()
	<-done

	if copyErr != nil {
		// A rejected COPY closes the read end, which surfaces in the
		// encoder as a closed pipe; the server error is the real cause.
		if encErr != nil && !errors.Is(encErr, io.ErrClosedPipe) {
			return rows, sent, encErr
		}
		return rows, sent, fmt.Errorf("copy failed: %w", copyErr)
	}
	if encErr != nil {
		return rows, sent, encErr
	}
	return rows, sent, nil
}

// writeStream encodes the complete stream for one table into w and reports
// rows encoded and bytes written. On any error the trailer is not written.
func writeStream(ctx context.Context, w io.Writer, src source.Source, table Table) (int64, int64, error) {
	var rows, sent int64

	buf := pgcopy.AppendHeader(nil)
	n, err := w.Write(buf)
	sent += int64(n)
	if err != nil {
		return rows, sent, fmt.Errorf("stream write: %w", err)
	}

	names := table.ColumnNames()
	err = src.Stream(ctx, table.Name, names, func(row []pgcopy.Value) error {
		encoded, err := pgcopy.AppendRow(buf[:0], table.Columns, row)
		if err != nil {
			return err
		}
		buf = encoded
		n, err := w.Write(buf)
		sent += int64(n)
		if err != nil {
			return fmt.Errorf("stream write: %w", err)
		}
		rows++
		return nil
	})
	if err != nil {
		return rows, sent, err
	}

	buf = pgcopy.AppendTrailer(buf[:0])
	n, err = w.Write(buf)
	sent += int64(n)
	if err != nil {
		return rows, sent, fmt.Errorf("stream write: %w", err)
	}
	return rows, sent, nil
}

// toggleTriggers flips the destination table's triggers around the copy.
// The table may have none, or the role may lack permission; either way the
// copy itself must still run, so failures are logged and swallowed.
func (d *Driver) toggleTriggers(ctx context.Context, conn *pgxpool.Conn, table, verb string) {
	sql := fmt.Sprintf("ALTER TABLE %s %s TRIGGER ALL", table, verb)
	if _, err := conn.Exec(ctx, sql); err != nil {
		d.log.Warn("trigger toggle failed",
			zap.String("table", table),
			zap.String("statement", sql),
			zap.Error(err),
		)
	}
}
