package pgcopy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendRow(t *testing.T) {
	columns := []Column{
		{Name: "id", Type: Int64},
		{Name: "name", Type: Text},
	}

	t.Run("value and null", func(t *testing.T) {
		row, err := AppendRow(nil, columns, []Value{NewValue("42"), Null})
		require.NoError(t, err)
		assert.Equal(t, mustHex(t,
			"0002"+ // field count
				"00000008"+"000000000000002a"+ // int64 42
				"ffffffff"), // null
			row)
	})

	t.Run("empty string is not null", func(t *testing.T) {
		row, err := AppendRow(nil, columns, []Value{NewValue("42"), NewValue("")})
		require.NoError(t, err)
		assert.Equal(t, mustHex(t,
			"0002"+
				"00000008"+"000000000000002a"+
				"00000000"), // zero-length text payload
			row)
	})

	t.Run("empty string invalid for numeric column", func(t *testing.T) {
		_, err := AppendRow(nil, columns, []Value{NewValue(""), Null})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("field count matches mapping", func(t *testing.T) {
		wide := make([]Column, 300)
		vals := make([]Value, 300)
		for i := range wide {
			wide[i] = Column{Name: "c", Type: Text}
			vals[i] = NewValue("x")
		}
		row, err := AppendRow(nil, wide, vals)
		require.NoError(t, err)
		assert.Equal(t, []byte{0x01, 0x2c}, row[:2])
	})

	t.Run("schema mismatch", func(t *testing.T) {
		_, err := AppendRow(nil, columns, []Value{NewValue("42")})
		assert.ErrorIs(t, err, ErrSchemaMismatch)

		_, err = AppendRow(nil, columns, []Value{NewValue("42"), Null, Null})
		assert.ErrorIs(t, err, ErrSchemaMismatch)
	})

	t.Run("converter error names the column", func(t *testing.T) {
		_, err := AppendRow(nil, columns, []Value{NewValue("nope"), Null})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidInput)
		assert.Contains(t, err.Error(), `"id"`)
	})

	t.Run("deterministic", func(t *testing.T) {
		vals := []Value{NewValue("7"), NewValue("abc")}
		a, err := AppendRow(nil, columns, vals)
		require.NoError(t, err)
		b, err := AppendRow(nil, columns, vals)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})
}

func TestAppendRow_LengthSelfConsistency(t *testing.T) {
	columns := []Column{
		{Name: "a", Type: Int16},
		{Name: "b", Type: UUID},
		{Name: "c", Type: MacAddr},
		{Name: "d", Type: Text},
	}
	row, err := AppendRow(nil, columns, []Value{
		NewValue("1"),
		NewValue("a0eebc99-9c0b-4ef8-bb6d-6bb9bd380a11"),
		NewValue("01:23:45:67:89:ab"),
		NewValue("xyz"),
	})
	require.NoError(t, err)

	// Walk the row and check every length prefix against the payload that
	// follows. 2 (count) + 4+2 + 4+16 + 4+6 + 4+3 bytes in total.
	assert.Len(t, row, 2+4+2+4+16+4+6+4+3)
	offset := 2
	for _, wantLen := range []int{2, 16, 6, 3} {
		got := int(int32(uint32(row[offset])<<24 | uint32(row[offset+1])<<16 |
			uint32(row[offset+2])<<8 | uint32(row[offset+3])))
		assert.Equal(t, wantLen, got)
		offset += 4 + got
	}
	assert.Equal(t, len(row), offset)
}
