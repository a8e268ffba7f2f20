package value

import (
	"math"
	"math/big"
	"slices"
)

// Kind identifies the variant held by a Mirror.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindNumber // arbitrary-precision decimal text
	KindString
	KindArray
	KindObject
)

var kindNames = [...]string{
	KindNull:   "null",
	KindBool:   "boolean",
	KindInt:    "number",
	KindFloat:  "number",
	KindNumber: "number",
	KindString: "string",
	KindArray:  "array",
	KindObject: "object",
}

// String returns the jq type name of the kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Mirror is an immutable snapshot of an evaluation value.
// The zero Mirror is Null. Composite mirrors own private copies of their
// elements, so a Mirror can be shared between goroutines without locking.
type Mirror struct {
	kind Kind
	b    bool
	i    int
	f    float64
	s    string // String contents or Number decimal text
	arr  []Mirror
	keys []string // Object keys in construction order
	obj  map[string]Mirror
}

// Pair is one key/value entry used to construct an Object.
type Pair struct {
	Key   string
	Value Mirror
}

// P is a shorthand for Pair.
func P(key string, v Mirror) Pair {
	return Pair{Key: key, Value: v}
}

// Null returns the null Mirror.
func Null() Mirror { return Mirror{} }

// Bool returns a boolean Mirror.
func Bool(b bool) Mirror { return Mirror{kind: KindBool, b: b} }

// Int returns an integer Mirror.
func Int(i int) Mirror { return Mirror{kind: KindInt, i: i} }

// Float returns a floating-point Mirror.
func Float(f float64) Mirror { return Mirror{kind: KindFloat, f: f} }

// Number returns a Mirror for decimal text. Integral text is normalised
// the way the engine normalises integers: Int when it fits, canonical
// digits otherwise. Any other text is kept verbatim.
func Number(text string) Mirror {
	if n, ok := new(big.Int).SetString(text, 10); ok {
		if n.IsInt64() && n.Int64() >= math.MinInt && n.Int64() <= math.MaxInt {
			return Int(int(n.Int64()))
		}
		return numberText(n.String())
	}
	return numberText(text)
}

func numberText(text string) Mirror { return Mirror{kind: KindNumber, s: text} }

// String returns a string Mirror.
func String(s string) Mirror { return Mirror{kind: KindString, s: s} }

// Array returns an array Mirror holding a copy of elems.
func Array(elems ...Mirror) Mirror {
	return Mirror{kind: KindArray, arr: slices.Clone(elems)}
}

// Object returns an object Mirror with keys in the order given.
// A repeated key keeps its first position and its last value.
func Object(pairs ...Pair) Mirror {
	m := Mirror{
		kind: KindObject,
		keys: make([]string, 0, len(pairs)),
		obj:  make(map[string]Mirror, len(pairs)),
	}
	for _, p := range pairs {
		if _, seen := m.obj[p.Key]; !seen {
			m.keys = append(m.keys, p.Key)
		}
		m.obj[p.Key] = p.Value
	}
	return m
}

// Kind returns the variant held by m.
func (m Mirror) Kind() Kind { return m.kind }

// IsNull reports whether m is Null.
func (m Mirror) IsNull() bool { return m.kind == KindNull }

// BoolValue returns the boolean held by m.
func (m Mirror) BoolValue() (bool, bool) { return m.b, m.kind == KindBool }

// IntValue returns the integer held by m.
func (m Mirror) IntValue() (int, bool) { return m.i, m.kind == KindInt }

// FloatValue returns the float held by m.
func (m Mirror) FloatValue() (float64, bool) { return m.f, m.kind == KindFloat }

// Text returns the contents of a String or the decimal text of a Number.
func (m Mirror) Text() (string, bool) {
	return m.s, m.kind == KindString || m.kind == KindNumber
}

// Len returns the number of elements of an Array or entries of an Object.
func (m Mirror) Len() int {
	switch m.kind {
	case KindArray:
		return len(m.arr)
	case KindObject:
		return len(m.keys)
	}
	return 0
}

// Index returns the i-th element of an Array, or Null when out of range.
func (m Mirror) Index(i int) Mirror {
	if m.kind != KindArray || i < 0 || i >= len(m.arr) {
		return Null()
	}
	return m.arr[i]
}

// Keys returns the keys of an Object in construction order.
func (m Mirror) Keys() []string {
	return slices.Clone(m.keys)
}

// Get returns the entry for key in an Object.
func (m Mirror) Get(key string) (Mirror, bool) {
	if m.kind != KindObject {
		return Null(), false
	}
	v, ok := m.obj[key]
	return v, ok
}

// Equal reports structural equality. Object key order is ignored;
// NaN equals NaN so that round trips of NaN compare equal.
func (m Mirror) Equal(o Mirror) bool {
	if m.kind != o.kind {
		return false
	}
	switch m.kind {
	case KindNull:
		return true
	case KindBool:
		return m.b == o.b
	case KindInt:
		return m.i == o.i
	case KindFloat:
		return m.f == o.f || (math.IsNaN(m.f) && math.IsNaN(o.f))
	case KindNumber, KindString:
		return m.s == o.s
	case KindArray:
		if len(m.arr) != len(o.arr) {
			return false
		}
		for i := range m.arr {
			if !m.arr[i].Equal(o.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(m.obj) != len(o.obj) {
			return false
		}
		for k, v := range m.obj {
			ov, ok := o.obj[k]
			if !ok || !v.Equal(ov) {
				return false
			}
		}
		return true
	}
	return false
}
