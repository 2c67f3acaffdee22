package migrate

import (
	"bytes"
	"context"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mygrate/pkg/pgcopy"
	"mygrate/pkg/source"
)

// sliceSource feeds fixed rows, optionally failing after the last one.
type sliceSource struct {
	rows [][]pgcopy.Value
	err  error
}

func (s *sliceSource) Stream(ctx context.Context, table string, columns []string,
	fn source.RowFunc) error {
	for _, row := range s.rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(row); err != nil {
			return err
		}
	}
	return s.err
}

// failingWriter accepts n writes and then fails.
type failingWriter struct {
	n   int
	err error
}

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.n <= 0 {
		return 0, w.err
	}
	w.n--
	return len(p), nil
}

var testTable = Table{
	Name: "users",
	Columns: []pgcopy.Column{
		{Name: "id", Type: pgcopy.Int64},
		{Name: "name", Type: pgcopy.Text},
	},
}

func TestWriteStream(t *testing.T) {
	src := &sliceSource{rows: [][]pgcopy.Value{
		{pgcopy.NewValue("42"), pgcopy.NewValue("alice")},
		{pgcopy.NewValue("7"), pgcopy.Null},
	}}

	var out bytes.Buffer
	rows, sent, err := writeStream(context.Background(), &out, src, testTable)
	require.NoError(t, err)
	assert.Equal(t, int64(2), rows)
	assert.Equal(t, int64(out.Len()), sent)

	want := "5047434f50590aff0d0a00" + "00000000" + "00000000" + // header
		"0002" + "00000008" + "000000000000002a" + "00000005" + hex.EncodeToString([]byte("alice")) +
		"0002" + "00000008" + "0000000000000007" + "ffffffff" +
		"ffff" // trailer
	assert.Equal(t, want, hex.EncodeToString(out.Bytes()))
}

func TestWriteStream_EmptyTable(t *testing.T) {
	var out bytes.Buffer
	rows, sent, err := writeStream(context.Background(), &out, &sliceSource{}, testTable)
	require.NoError(t, err)
	assert.Zero(t, rows)
	assert.Equal(t, int64(21), sent) // header + trailer only
	assert.Equal(t, pgcopy.AppendTrailer(pgcopy.AppendHeader(nil)), out.Bytes())
}

func TestWriteStream_ConverterErrorOmitsTrailer(t *testing.T) {
	src := &sliceSource{rows: [][]pgcopy.Value{
		{pgcopy.NewValue("1"), pgcopy.NewValue("ok")},
		{pgcopy.NewValue("oops"), pgcopy.Null},
	}}

	var out bytes.Buffer
	rows, _, err := writeStream(context.Background(), &out, src, testTable)
	assert.ErrorIs(t, err, pgcopy.ErrInvalidInput)
	assert.Equal(t, int64(1), rows)
	// The good row went out, the bad one and the trailer did not.
	assert.NotEqual(t, byte(0xff), out.Bytes()[out.Len()-1])
	assert.Len(t, out.Bytes(), 19+2+4+8+4+2)
}

func TestWriteStream_SchemaMismatch(t *testing.T) {
	src := &sliceSource{rows: [][]pgcopy.Value{{pgcopy.NewValue("1")}}}

	var out bytes.Buffer
	_, _, err := writeStream(context.Background(), &out, src, testTable)
	assert.ErrorIs(t, err, pgcopy.ErrSchemaMismatch)
}

func TestWriteStream_WriteError(t *testing.T) {
	src := &sliceSource{rows: [][]pgcopy.Value{
		{pgcopy.NewValue("1"), pgcopy.NewValue("x")},
	}}

	w := &failingWriter{n: 1, err: assert.AnError}
	rows, _, err := writeStream(context.Background(), w, src, testTable)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Zero(t, rows)
}

func TestWriteStream_SourceError(t *testing.T) {
	src := &sliceSource{
		rows: [][]pgcopy.Value{{pgcopy.NewValue("1"), pgcopy.NewValue("x")}},
		err:  assert.AnError,
	}

	var out bytes.Buffer
	rows, _, err := writeStream(context.Background(), &out, src, testTable)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, int64(1), rows)
}
