package pgcopy

import "encoding/binary"

// signature is the fixed 11-byte prologue of a binary COPY stream.
var signature = []byte("PGCOPY\n\xff\r\n\x00")

// AppendHeader appends the 19-byte stream header: the signature, a zero
// flags word, and a zero header-extension length.
func AppendHeader(dst []byte) []byte {
	dst = append(dst, signature...)
	dst = binary.BigEndian.AppendUint32(dst, 0)
	return binary.BigEndian.AppendUint32(dst, 0)
}

// AppendTrailer appends the 2-byte end-of-stream sentinel, the big-endian
// int16 -1.
func AppendTrailer(dst []byte) []byte {
	return binary.BigEndian.AppendUint16(dst, 0xFFFF)
}
