// Package pgcopy encodes rows into PostgreSQL's binary COPY format, the
// length-prefixed tuple stream accepted by COPY ... FROM STDIN BINARY.
package pgcopy

import (
	"fmt"
	"strings"
)

// Type identifies a destination column type: both the textual grammar a source
// value must satisfy and the binary layout of the encoded field payload.
type Type int

const (
	Int16 Type = iota
	Int32
	Int64
	Float4
	Float8
	Bool
	Text
	Date
	Time
	Timestamp
	TimestampTZ
	MacAddr
	UUID
	JSON
	Inet
	Enum
	Numeric
	Bytea
)

var typeNames = map[Type]string{
	Int16:       "int16",
	Int32:       "int32",
	Int64:       "int64",
	Float4:      "float4",
	Float8:      "float8",
	Bool:        "bool",
	Text:        "text",
	Date:        "date",
	Time:        "time",
	Timestamp:   "timestamp",
	TimestampTZ: "timestamptz",
	MacAddr:     "macaddr",
	UUID:        "uuid",
	JSON:        "json",
	Inet:        "inet",
	Enum:        "enum",
	Numeric:     "numeric",
	Bytea:       "bytea",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// ParseType resolves a type name as written in configuration files. Matching
// is case-insensitive.
func ParseType(name string) (Type, error) {
	lower := strings.ToLower(strings.TrimSpace(name))
	for t, n := range typeNames {
		if n == lower {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown column type %q", name)
}

// Column is one entry of a table's column mapping. The name is transmitted
// literally into SQL; callers must supply safe identifiers.
type Column struct {
	Name string
	Type Type
}

// Value is a nullable textual field value. Only a genuine source NULL should
// carry Valid=false; an empty string with Valid=true is a legal value for
// string-like types and encodes as a zero-length payload.
type Value struct {
	String string
	Valid  bool
}

// NewValue returns a present value.
func NewValue(s string) Value {
	return Value{String: s, Valid: true}
}

// Null is the absent value.
var Null = Value{}
