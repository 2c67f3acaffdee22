package pgcopy

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PostgreSQL's epoch for date and timestamp types.
var postgresEpoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

const (
	dateLayout      = "2006-01-02"
	timeLayout      = "15:04:05.999999"
	timestampLayout = "2006-01-02 15:04:05.999999"
)

// inet family bytes as understood by the server (PGSQL_AF_INET and
// PGSQL_AF_INET6, which is AF_INET+1 regardless of platform).
const (
	inetFamilyIPv4 = 2
	inetFamilyIPv6 = 3
)

// numeric sign words.
const (
	numericPositive = 0x0000
	numericNegative = 0x4000
	numericNaN      = 0xC000
)

// AppendValue encodes the textual value s as the binary field payload for
// column type t and appends it to dst. The returned slice never includes a
// length prefix; AppendRow owns framing.
func AppendValue(dst []byte, t Type, s string) ([]byte, error) {
	switch t {
	case Int16:
		return appendInt(dst, s, 16)
	case Int32:
		return appendInt(dst, s, 32)
	case Int64:
		return appendInt(dst, s, 64)
	case Float4:
		return appendFloat4(dst, s)
	case Float8:
		return appendFloat8(dst, s)
	case Bool:
		return appendBool(dst, s)
	case Text, JSON, Enum:
		return append(dst, s...), nil
	case Date:
		return appendDate(dst, s)
	case Time:
		return appendTime(dst, s)
	case Timestamp:
		return appendTimestamp(dst, s)
	case TimestampTZ:
		return appendTimestampTZ(dst, s)
	case MacAddr:
		return appendMacAddr(dst, s)
	case UUID:
		return appendUUID(dst, s)
	case Inet:
		return appendInet(dst, s)
	case Numeric:
		return appendNumeric(dst, s)
	case Bytea:
		return appendBytea(dst, s)
	default:
		return nil, invalidInputf("unsupported column type %v", t)
	}
}

func appendInt(dst []byte, s string, bits int) ([]byte, error) {
	v, err := strconv.ParseInt(s, 10, bits)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return nil, outOfRangef("%q does not fit int%d", s, bits)
		}
		return nil, invalidInputf("%q is not an integer", s)
	}
	switch bits {
	case 16:
		return binary.BigEndian.AppendUint16(dst, uint16(int16(v))), nil
	case 32:
		return binary.BigEndian.AppendUint32(dst, uint32(int32(v))), nil
	default:
		return binary.BigEndian.AppendUint64(dst, uint64(v)), nil
	}
}

func appendFloat4(dst []byte, s string) ([]byte, error) {
	v, err := strconv.ParseFloat(s, 32)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return nil, outOfRangef("%q does not fit float4", s)
		}
		return nil, invalidInputf("%q is not a number", s)
	}
	return binary.BigEndian.AppendUint32(dst, math.Float32bits(float32(v))), nil
}

func appendFloat8(dst []byte, s string) ([]byte, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return nil, outOfRangef("%q does not fit float8", s)
		}
		return nil, invalidInputf("%q is not a number", s)
	}
	return binary.BigEndian.AppendUint64(dst, math.Float64bits(v)), nil
}

func appendBool(dst []byte, s string) ([]byte, error) {
	switch strings.ToLower(s) {
	case "1", "true", "t":
		return append(dst, 1), nil
	case "0", "false", "f":
		return append(dst, 0), nil
	default:
		return nil, invalidInputf("%q is not a boolean", s)
	}
}

// appendDate encodes YYYY-MM-DD as whole days since 2000-01-01.
func appendDate(dst []byte, s string) ([]byte, error) {
	t, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return nil, invalidInputf("%q is not a date: %v", s, err)
	}
	days := (t.Unix() - postgresEpoch.Unix()) / 86400
	return binary.BigEndian.AppendUint32(dst, uint32(int32(days))), nil
}

// appendTime encodes HH:MM:SS[.ffffff] as microseconds since midnight.
func appendTime(dst []byte, s string) ([]byte, error) {
	t, err := time.ParseInLocation(timeLayout, s, time.UTC)
	if err != nil {
		return nil, invalidInputf("%q is not a time of day: %v", s, err)
	}
	micros := int64(t.Hour()*3600+t.Minute()*60+t.Second())*1_000_000 +
		int64(t.Nanosecond()/1000)
	return binary.BigEndian.AppendUint64(dst, uint64(micros)), nil
}

// appendTimestamp encodes YYYY-MM-DD HH:MM:SS[.ffffff], taken as UTC, as
// microseconds since 2000-01-01 00:00:00 UTC.
func appendTimestamp(dst []byte, s string) ([]byte, error) {
	t, err := time.ParseInLocation(timestampLayout, s, time.UTC)
	if err != nil {
		return nil, invalidInputf("%q is not a timestamp: %v", s, err)
	}
	micros := (t.Unix()-postgresEpoch.Unix())*1_000_000 + int64(t.Nanosecond()/1000)
	return binary.BigEndian.AppendUint64(dst, uint64(micros)), nil
}

// appendTimestampTZ is appendTimestamp plus an optional trailing zone: Z,
// ±HH:MM, ±HHMM, or ±HH. The offset is subtracted from the wall time to
// reach UTC. No zone means UTC.
func appendTimestampTZ(dst []byte, s string) ([]byte, error) {
	base, zone := splitZone(s)
	offset, err := parseZoneOffset(zone)
	if err != nil {
		return nil, err
	}
	t, err := time.ParseInLocation(timestampLayout, base, time.UTC)
	if err != nil {
		return nil, invalidInputf("%q is not a timestamp: %v", s, err)
	}
	utc := t.Add(-offset)
	micros := (utc.Unix()-postgresEpoch.Unix())*1_000_000 + int64(utc.Nanosecond()/1000)
	return binary.BigEndian.AppendUint64(dst, uint64(micros)), nil
}

// splitZone separates a trailing zone suffix from the wall-clock part. The
// date's own '-' separators sit at offsets 4 and 7, so the first Z/+/- at or
// beyond offset 10 starts the zone. Spaces between the two are discarded.
func splitZone(s string) (base, zone string) {
	if len(s) <= 10 {
		return s, ""
	}
	if i := strings.IndexAny(s[10:], "Zz+-"); i >= 0 {
		at := 10 + i
		return strings.TrimRight(s[:at], " "), s[at:]
	}
	return s, ""
}

// parseZoneOffset scans the zone suffix with a single pass: a sign, then one
// or two hour digits optionally followed by a colon and two minute digits, or
// exactly four digits (HHMM). Signed hours must lie in [-12,14] and minutes
// in [0,59].
func parseZoneOffset(zone string) (time.Duration, error) {
	if zone == "" || zone == "Z" || zone == "z" {
		return 0, nil
	}
	sign := 1
	switch zone[0] {
	case '+':
	case '-':
		sign = -1
	default:
		return 0, invalidInputf("malformed timezone offset %q", zone)
	}
	rest := zone[1:]
	digits := 0
	for digits < len(rest) && rest[digits] >= '0' && rest[digits] <= '9' {
		digits++
	}
	var hourStr, minStr string
	switch {
	case digits >= 1 && digits <= 2 && len(rest) == digits:
		hourStr = rest
	case digits >= 1 && digits <= 2 && len(rest) == digits+3 && rest[digits] == ':':
		hourStr, minStr = rest[:digits], rest[digits+1:]
	case digits == 4 && len(rest) == 4:
		hourStr, minStr = rest[:2], rest[2:]
	default:
		return 0, invalidInputf("malformed timezone offset %q", zone)
	}
	hours, err := strconv.Atoi(hourStr)
	if err != nil {
		return 0, invalidInputf("malformed timezone offset %q", zone)
	}
	minutes := 0
	if minStr != "" {
		if len(minStr) != 2 {
			return 0, invalidInputf("malformed timezone offset %q", zone)
		}
		minutes, err = strconv.Atoi(minStr)
		if err != nil || minutes > 59 {
			return 0, invalidInputf("malformed timezone offset %q", zone)
		}
	}
	signed := sign * hours
	if signed < -12 || signed > 14 {
		return 0, outOfRangef("timezone offset %q exceeds -12:00..+14:00", zone)
	}
	return time.Duration(sign) * (time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute), nil
}

// appendMacAddr encodes six colon-separated hex octets in input order.
func appendMacAddr(dst []byte, s string) ([]byte, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 6 {
		return nil, invalidInputf("%q is not a MAC address", s)
	}
	for _, p := range parts {
		if len(p) < 1 || len(p) > 2 {
			return nil, invalidInputf("%q is not a MAC address", s)
		}
		v, err := strconv.ParseUint(p, 16, 8)
		if err != nil {
			return nil, invalidInputf("%q is not a MAC address", s)
		}
		dst = append(dst, byte(v))
	}
	return dst, nil
}

// appendUUID accepts the 36-character hyphenated form or the 32-character
// bare form and emits the 16 raw bytes.
func appendUUID(dst []byte, s string) ([]byte, error) {
	if len(s) != 36 && len(s) != 32 {
		return nil, invalidInputf("%q is not a UUID", s)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return nil, invalidInputf("%q is not a UUID: %v", s, err)
	}
	return append(dst, u[:]...), nil
}

// appendInet encodes IPv4 a.b.c.d[/p] or full-notation IPv6 h0:...:h7[/p].
// Layout: family byte, prefix-bits byte, is-cidr byte, address-length byte,
// then the address in network order. The :: shorthand is not supported.
func appendInet(dst []byte, s string) ([]byte, error) {
	addr, prefixStr, hasPrefix := strings.Cut(s, "/")
	switch {
	case strings.Contains(addr, "::"):
		return nil, invalidInputf("%q: IPv6 zero compression is not supported", s)
	case strings.Contains(addr, ":"):
		return appendInet6(dst, s, addr, prefixStr, hasPrefix)
	case strings.Contains(addr, "."):
		return appendInet4(dst, s, addr, prefixStr, hasPrefix)
	default:
		return nil, invalidInputf("%q is not an IP address", s)
	}
}

func appendInet4(dst []byte, s, addr, prefixStr string, hasPrefix bool) ([]byte, error) {
	parts := strings.Split(addr, ".")
	if len(parts) != 4 {
		return nil, invalidInputf("%q is not an IPv4 address", s)
	}
	var octets [4]byte
	for i, p := range parts {
		if len(p) < 1 || len(p) > 3 {
			return nil, invalidInputf("%q is not an IPv4 address", s)
		}
		v, err := strconv.ParseUint(p, 10, 8)
		if err != nil {
			return nil, invalidInputf("%q is not an IPv4 address", s)
		}
		octets[i] = byte(v)
	}
	bits, err := parsePrefix(s, prefixStr, hasPrefix, 32)
	if err != nil {
		return nil, err
	}
	isCIDR := byte(0)
	if hasPrefix {
		isCIDR = 1
	}
	dst = append(dst, inetFamilyIPv4, bits, isCIDR, 4)
	return append(dst, octets[:]...), nil
}

func appendInet6(dst []byte, s, addr, prefixStr string, hasPrefix bool) ([]byte, error) {
	groups := strings.Split(addr, ":")
	if len(groups) != 8 {
		return nil, invalidInputf("%q is not a full-notation IPv6 address", s)
	}
	var raw [16]byte
	for i, g := range groups {
		if len(g) < 1 || len(g) > 4 {
			return nil, invalidInputf("%q is not a full-notation IPv6 address", s)
		}
		v, err := strconv.ParseUint(g, 16, 16)
		if err != nil {
			return nil, invalidInputf("%q is not a full-notation IPv6 address", s)
		}
		binary.BigEndian.PutUint16(raw[2*i:], uint16(v))
	}
	bits, err := parsePrefix(s, prefixStr, hasPrefix, 128)
	if err != nil {
		return nil, err
	}
	isCIDR := byte(0)
	if hasPrefix {
		isCIDR = 1
	}
	dst = append(dst, inetFamilyIPv6, bits, isCIDR, 16)
	return append(dst, raw[:]...), nil
}

func parsePrefix(s, prefixStr string, hasPrefix bool, maxBits uint64) (byte, error) {
	if !hasPrefix {
		return byte(maxBits), nil
	}
	bits, err := strconv.ParseUint(prefixStr, 10, 8)
	if err != nil || bits > maxBits {
		return 0, invalidInputf("%q has an invalid network prefix", s)
	}
	return byte(bits), nil
}

// appendNumeric encodes an arbitrary-precision decimal in the server's
// base-10000 representation: ndigits, weight, sign, dscale, then the digit
// groups most significant first.
func appendNumeric(dst []byte, s string) ([]byte, error) {
	if strings.EqualFold(s, "nan") {
		dst = binary.BigEndian.AppendUint16(dst, 0)
		dst = binary.BigEndian.AppendUint16(dst, 0)
		dst = binary.BigEndian.AppendUint16(dst, numericNaN)
		return binary.BigEndian.AppendUint16(dst, 0), nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, invalidInputf("%q is not a number", s)
	}
	var dscale uint16
	if exp := d.Exponent(); exp < 0 {
		dscale = uint16(-exp)
	}
	sign := uint16(numericPositive)
	if d.Sign() < 0 {
		sign = numericNegative
	}

	intPart, fracPart, _ := strings.Cut(d.Abs().String(), ".")
	intPart = strings.TrimLeft(intPart, "0")
	// Align both halves to base-10000 group boundaries around the decimal
	// point.
	if pad := len(intPart) % 4; pad != 0 {
		intPart = strings.Repeat("0", 4-pad) + intPart
	}
	if pad := len(fracPart) % 4; pad != 0 {
		fracPart = fracPart + strings.Repeat("0", 4-pad)
	}
	digits := make([]uint16, 0, (len(intPart)+len(fracPart))/4)
	for i := 0; i < len(intPart); i += 4 {
		v, _ := strconv.ParseUint(intPart[i:i+4], 10, 16)
		digits = append(digits, uint16(v))
	}
	weight := len(intPart)/4 - 1
	for i := 0; i < len(fracPart); i += 4 {
		v, _ := strconv.ParseUint(fracPart[i:i+4], 10, 16)
		digits = append(digits, uint16(v))
	}
	for len(digits) > 0 && digits[0] == 0 {
		digits = digits[1:]
		weight--
	}
	for len(digits) > 0 && digits[len(digits)-1] == 0 {
		digits = digits[:len(digits)-1]
	}
	if len(digits) == 0 {
		weight = 0
		sign = numericPositive
	}

	dst = binary.BigEndian.AppendUint16(dst, uint16(len(digits)))
	dst = binary.BigEndian.AppendUint16(dst, uint16(int16(weight)))
	dst = binary.BigEndian.AppendUint16(dst, sign)
	dst = binary.BigEndian.AppendUint16(dst, dscale)
	for _, dig := range digits {
		dst = binary.BigEndian.AppendUint16(dst, dig)
	}
	return dst, nil
}

// appendBytea decodes an even-length hex string, with or without the \x
// prefix of PostgreSQL's text form.
func appendBytea(dst []byte, s string) ([]byte, error) {
	trimmed := strings.TrimPrefix(s, `\x`)
	raw, err := hex.DecodeString(trimmed)
	if err != nil {
		return nil, invalidInputf("%q is not hex-encoded binary", s)
	}
	return append(dst, raw...), nil
}
