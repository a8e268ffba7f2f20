package value

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"sort"
	"strconv"
)

// FromValue converts an evaluation value into its Mirror.
//
// Map keys are taken in sorted order, which becomes the construction order
// of the resulting Object. Integers are normalised the way the engine does:
// int when they fit, decimal text otherwise. Values outside the evaluation
// domain are rendered with fmt and stored as strings.
func FromValue(v any) Mirror {
	switch val := v.(type) {
	case nil:
		return Null()
	case Mirror:
		return val
	case bool:
		return Bool(val)
	case int:
		return Int(val)
	case int8:
		return Int(int(val))
	case int16:
		return Int(int(val))
	case int32:
		return Int(int(val))
	case int64:
		return fromInt64(val)
	case uint:
		return fromUint64(uint64(val))
	case uint8:
		return Int(int(val))
	case uint16:
		return Int(int(val))
	case uint32:
		return fromUint64(uint64(val))
	case uint64:
		return fromUint64(val)
	case float32:
		return Float(float64(val))
	case float64:
		return Float(val)
	case *big.Int:
		if val == nil {
			return Null()
		}
		return fromBigInt(val)
	case json.Number:
		return Number(string(val))
	case string:
		return String(val)
	case []any:
		arr := make([]Mirror, len(val))
		for i, elem := range val {
			arr[i] = FromValue(elem)
		}
		return Mirror{kind: KindArray, arr: arr}
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		obj := make(map[string]Mirror, len(val))
		for _, k := range keys {
			obj[k] = FromValue(val[k])
		}
		return Mirror{kind: KindObject, keys: keys, obj: obj}
	default:
		return String(fmt.Sprint(v))
	}
}

// ToValue converts a Mirror back into a fresh evaluation value.
//
// Objects become new maps and arrays new slices, so the caller owns the
// result exclusively. Number holds integral text only for integers beyond
// int, which become *big.Int; any other text is returned verbatim as
// json.Number.
func ToValue(m Mirror) any {
	switch m.kind {
	case KindNull:
		return nil
	case KindBool:
		return m.b
	case KindInt:
		return m.i
	case KindFloat:
		return m.f
	case KindNumber:
		if n, ok := new(big.Int).SetString(m.s, 10); ok {
			return n
		}
		return json.Number(m.s)
	case KindString:
		return m.s
	case KindArray:
		arr := make([]any, len(m.arr))
		for i, elem := range m.arr {
			arr[i] = ToValue(elem)
		}
		return arr
	case KindObject:
		obj := make(map[string]any, len(m.keys))
		for _, k := range m.keys {
			obj[k] = ToValue(m.obj[k])
		}
		return obj
	}
	return nil
}

// Normalize rewrites host-decoded numbers into the engine's canonical forms:
// json.Number becomes int, *big.Int or float64. Other values are returned
// with the same structure. Used on documents decoded with UseNumber.
func Normalize(v any) any {
	switch val := v.(type) {
	case json.Number:
		if n, ok := new(big.Int).SetString(string(val), 10); ok {
			if n.IsInt64() && n.Int64() >= math.MinInt && n.Int64() <= math.MaxInt {
				return int(n.Int64())
			}
			return n
		}
		// Out-of-range text still yields ±Inf or 0 alongside the error.
		f, _ := strconv.ParseFloat(string(val), 64)
		return f
	case []any:
		for i, elem := range val {
			val[i] = Normalize(elem)
		}
		return val
	case map[string]any:
		for k, elem := range val {
			val[k] = Normalize(elem)
		}
		return val
	}
	return v
}

func fromInt64(i int64) Mirror {
	if i >= math.MinInt && i <= math.MaxInt {
		return Int(int(i))
	}
	return numberText(strconv.FormatInt(i, 10))
}

func fromUint64(u uint64) Mirror {
	if u <= math.MaxInt {
		return Int(int(u))
	}
	return numberText(strconv.FormatUint(u, 10))
}

func fromBigInt(n *big.Int) Mirror {
	if n.IsInt64() {
		return fromInt64(n.Int64())
	}
	return numberText(n.String())
}
