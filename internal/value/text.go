package value

import (
	"bytes"
	"math"
	"strconv"
	"unicode/utf8"
)

// Text returns the compact JSON text of an evaluation value.
// It is the textual form written by log, printout and printerr.
func Text(v any) string {
	return FromValue(v).String()
}

// String returns the compact JSON text of m. Object keys follow
// construction order; NaN is written as null and infinities are clamped
// to the largest finite float, as jq does.
func (m Mirror) String() string {
	var buf bytes.Buffer
	m.encode(&buf)
	return buf.String()
}

// MarshalJSON implements json.Marshaler.
func (m Mirror) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	m.encode(&buf)
	return buf.Bytes(), nil
}

func (m Mirror) encode(buf *bytes.Buffer) {
	switch m.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		buf.WriteString(strconv.FormatBool(m.b))
	case KindInt:
		buf.WriteString(strconv.Itoa(m.i))
	case KindFloat:
		encodeFloat(buf, m.f)
	case KindNumber:
		buf.WriteString(m.s)
	case KindString:
		encodeString(buf, m.s)
	case KindArray:
		buf.WriteByte('[')
		for i, elem := range m.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			elem.encode(buf)
		}
		buf.WriteByte(']')
	case KindObject:
		buf.WriteByte('{')
		for i, k := range m.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			encodeString(buf, k)
			buf.WriteByte(':')
			m.obj[k].encode(buf)
		}
		buf.WriteByte('}')
	}
}

func encodeFloat(buf *bytes.Buffer, f float64) {
	if math.IsNaN(f) {
		buf.WriteString("null")
		return
	}
	f = math.Max(-math.MaxFloat64, math.Min(f, math.MaxFloat64))
	format := byte('f')
	if x := math.Abs(f); x != 0 && (x < 1e-6 || x >= 1e21) {
		format = 'e'
	}
	b := strconv.AppendFloat(nil, f, format, -1, 64)
	if format == 'e' {
		// 1e-07 -> 1e-7
		if n := len(b); n >= 4 && b[n-4] == 'e' && b[n-3] == '-' && b[n-2] == '0' {
			b[n-2] = b[n-1]
			b = b[:n-1]
		}
	}
	buf.Write(b)
}

const hexDigits = "0123456789abcdef"

// encodeString writes s as a JSON string without HTML escaping.
// Invalid UTF-8 is replaced with U+FFFD.
func encodeString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	for i := 0; i < len(s); {
		c := s[i]
		if c < utf8.RuneSelf {
			switch {
			case c == '"' || c == '\\':
				buf.WriteByte('\\')
				buf.WriteByte(c)
			case c == '\n':
				buf.WriteString(`\n`)
			case c == '\r':
				buf.WriteString(`\r`)
			case c == '\t':
				buf.WriteString(`\t`)
			case c == '\b':
				buf.WriteString(`\b`)
			case c == '\f':
				buf.WriteString(`\f`)
			case c < 0x20 || c == 0x7f:
				buf.WriteString(`\u00`)
				buf.WriteByte(hexDigits[c>>4])
				buf.WriteByte(hexDigits[c&0xf])
			default:
				buf.WriteByte(c)
			}
			i++
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			buf.WriteString("�")
		} else {
			buf.WriteString(s[i : i+size])
		}
		i += size
	}
	buf.WriteByte('"')
}
