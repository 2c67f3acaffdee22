package pgcopy

import (
	"encoding/binary"
	"fmt"
)

// nullLength is the field-length sentinel for NULL.
const nullLength = 0xFFFFFFFF

// AppendRow encodes one row against its column mapping and appends the bytes
// to dst: a big-endian int16 field count, then per field either the -1 null
// sentinel or a big-endian int32 length followed by the converter's payload.
// Re-encoding the same (row, mapping) always yields identical bytes.
func AppendRow(dst []byte, columns []Column, row []Value) ([]byte, error) {
	if len(row) != len(columns) {
		return nil, fmt.Errorf("%w: row has %d fields, mapping has %d columns",
			ErrSchemaMismatch, len(row), len(columns))
	}
	dst = binary.BigEndian.AppendUint16(dst, uint16(len(columns)))
	for i, col := range columns {
		if !row[i].Valid {
			dst = binary.BigEndian.AppendUint32(dst, nullLength)
			continue
		}
		// Reserve the length word, encode in place, then patch it.
		dst = binary.BigEndian.AppendUint32(dst, 0)
		start := len(dst)
		encoded, err := AppendValue(dst, col.Type, row[i].String)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", col.Name, err)
		}
		dst = encoded
		binary.BigEndian.PutUint32(dst[start-4:], uint32(len(dst)-start))
	}
	return dst, nil
}
