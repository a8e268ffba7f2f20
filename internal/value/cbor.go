package value

import (
	"fmt"
	"sort"

	"github.com/fxamacker/cbor/v2"
)

// decimalTextTag marks a CBOR text string carrying Number decimal text.
// It sits in the first-come-first-served range and is private to this codec.
const decimalTextTag uint64 = 0x5746

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("value: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// EncodeCBOR serializes m to canonical CBOR. Integers and floats keep their
// distinct major types so a round trip never turns 1.0 into 1.
func EncodeCBOR(m Mirror) ([]byte, error) {
	return cborEncMode.Marshal(toCBOR(m))
}

// DecodeCBOR deserializes a Mirror written by EncodeCBOR.
// Object keys come back in sorted order.
func DecodeCBOR(data []byte) (Mirror, error) {
	var raw any
	if err := cbor.Unmarshal(data, &raw); err != nil {
		return Null(), fmt.Errorf("value: unmarshal cbor: %w", err)
	}
	return fromCBOR(raw)
}

func toCBOR(m Mirror) any {
	switch m.kind {
	case KindBool:
		return m.b
	case KindInt:
		return int64(m.i)
	case KindFloat:
		return m.f
	case KindNumber:
		return cbor.Tag{Number: decimalTextTag, Content: m.s}
	case KindString:
		return m.s
	case KindArray:
		arr := make([]any, len(m.arr))
		for i, elem := range m.arr {
			arr[i] = toCBOR(elem)
		}
		return arr
	case KindObject:
		obj := make(map[string]any, len(m.keys))
		for _, k := range m.keys {
			obj[k] = toCBOR(m.obj[k])
		}
		return obj
	}
	return nil
}

func fromCBOR(raw any) (Mirror, error) {
	switch val := raw.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(val), nil
	case uint64:
		return fromUint64(val), nil
	case int64:
		return fromInt64(val), nil
	case float32:
		return Float(float64(val)), nil
	case float64:
		return Float(val), nil
	case string:
		return String(val), nil
	case cbor.Tag:
		text, ok := val.Content.(string)
		if val.Number != decimalTextTag || !ok {
			return Null(), fmt.Errorf("value: unexpected cbor tag %d", val.Number)
		}
		return numberText(text), nil
	case []any:
		arr := make([]Mirror, len(val))
		for i, elem := range val {
			m, err := fromCBOR(elem)
			if err != nil {
				return Null(), fmt.Errorf("[%d]: %w", i, err)
			}
			arr[i] = m
		}
		return Mirror{kind: KindArray, arr: arr}, nil
	case map[any]any:
		obj := make(map[string]any, len(val))
		for k, elem := range val {
			key, ok := k.(string)
			if !ok {
				return Null(), fmt.Errorf("value: non-string cbor map key %T", k)
			}
			obj[key] = elem
		}
		return objectFromCBOR(obj)
	case map[string]any:
		return objectFromCBOR(val)
	default:
		return Null(), fmt.Errorf("value: unsupported cbor item %T", raw)
	}
}

func objectFromCBOR(raw map[string]any) (Mirror, error) {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	obj := make(map[string]Mirror, len(raw))
	for _, k := range keys {
		m, err := fromCBOR(raw[k])
		if err != nil {
			return Null(), fmt.Errorf("[%q]: %w", k, err)
		}
		obj[k] = m
	}
	return Mirror{kind: KindObject, keys: keys, obj: obj}, nil
}
