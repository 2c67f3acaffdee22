package pgcopy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendHeader(t *testing.T) {
	header := AppendHeader(nil)
	assert.Equal(t, []byte{
		0x50, 0x47, 0x43, 0x4f, 0x50, 0x59, 0x0a, 0xff, 0x0d, 0x0a, 0x00,
		0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
	}, header)
	assert.Len(t, header, 19)
}

func TestAppendTrailer(t *testing.T) {
	assert.Equal(t, []byte{0xff, 0xff}, AppendTrailer(nil))
}

// A whole stream is header || rows || trailer, byte for byte.
func TestStreamAssembly(t *testing.T) {
	columns := []Column{{Name: "n", Type: Int32}}

	var want []byte
	want = AppendHeader(want)
	row0, err := AppendRow(nil, columns, []Value{NewValue("1")})
	require.NoError(t, err)
	row1, err := AppendRow(nil, columns, []Value{Null})
	require.NoError(t, err)
	want = append(want, row0...)
	want = append(want, row1...)
	want = AppendTrailer(want)

	var stream []byte
	stream = AppendHeader(stream)
	for _, vals := range [][]Value{{NewValue("1")}, {Null}} {
		stream, err = AppendRow(stream, columns, vals)
		require.NoError(t, err)
	}
	stream = AppendTrailer(stream)

	assert.Equal(t, want, stream)
	assert.Equal(t, mustHex(t,
		"5047434f50590aff0d0a00"+"00000000"+"00000000"+
			"0001"+"00000004"+"00000001"+
			"0001"+"ffffffff"+
			"ffff"),
		stream)
}
