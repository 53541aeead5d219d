package surql

import (
	"fmt"

	"github.com/surq-db/surq/record"
)

// ValueOf converts a Go native value into a Value variant.
//
// Plain strings are ALWAYS converted to String, even when they happen to
// match the table:key shape: only typed record.ID and RecordLink values
// render unquoted. Callers that hold an identifier as text must parse it
// through the record package first; this keeps arbitrary caller text from
// masquerading as an identifier.
func ValueOf(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case record.ID:
		return RecordLink(val), nil
	case bool:
		return Bool(val), nil
	case string:
		return String(val), nil
	case int:
		return Int(val), nil
	case int8:
		return Int(val), nil
	case int16:
		return Int(val), nil
	case int32:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case uint:
		return Int(val), nil
	case uint8:
		return Int(val), nil
	case uint16:
		return Int(val), nil
	case uint32:
		return Int(val), nil
	case uint64:
		return Int(int64(val)), nil
	case float32:
		return Float(val), nil
	case float64:
		return Float(val), nil
	case []any:
		arr := make(Array, len(val))
		for i, elem := range val {
			converted, err := ValueOf(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = converted
		}
		return arr, nil
	case []string:
		arr := make(Array, len(val))
		for i, s := range val {
			arr[i] = String(s)
		}
		return arr, nil
	case []int:
		arr := make(Array, len(val))
		for i, n := range val {
			arr[i] = Int(n)
		}
		return arr, nil
	case []int64:
		arr := make(Array, len(val))
		for i, n := range val {
			arr[i] = Int(n)
		}
		return arr, nil
	case []float64:
		arr := make(Array, len(val))
		for i, f := range val {
			arr[i] = Float(f)
		}
		return arr, nil
	case []record.ID:
		arr := make(Array, len(val))
		for i, id := range val {
			arr[i] = RecordLink(id)
		}
		return arr, nil
	case map[string]any:
		obj := make(Object, len(val))
		for k, elem := range val {
			converted, err := ValueOf(elem)
			if err != nil {
				return nil, fmt.Errorf("object[%q]: %w", k, err)
			}
			obj[k] = converted
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported literal type %T", v)
	}
}

// MustValue is ValueOf for values known to convert, such as constants in
// tests and internal call sites. It panics on unsupported types.
func MustValue(v any) Value {
	val, err := ValueOf(v)
	if err != nil {
		panic(err)
	}
	return val
}
