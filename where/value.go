package where

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sgoldberg/nocogo/fault"
)

// formatValue converts a scalar payload to its wire form. Only strings,
// integers, and floats are accepted; everything else is a validation
// error. No quoting or escaping is applied.
func formatValue(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case int:
		return strconv.FormatInt(int64(val), 10), nil
	case int8:
		return strconv.FormatInt(int64(val), 10), nil
	case int16:
		return strconv.FormatInt(int64(val), 10), nil
	case int32:
		return strconv.FormatInt(int64(val), 10), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case uint:
		return strconv.FormatUint(uint64(val), 10), nil
	case uint8:
		return strconv.FormatUint(uint64(val), 10), nil
	case uint16:
		return strconv.FormatUint(uint64(val), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(val), 10), nil
	case uint64:
		return strconv.FormatUint(val, 10), nil
	case float32:
		return strconv.FormatFloat(float64(val), 'g', -1, 32), nil
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64), nil
	default:
		return "", fault.New(fault.ValidationCode, fmt.Sprintf("unsupported value type %T", v))
	}
}

// wireDelimiters are the grammar's own structural characters. A field name
// or payload containing one of them renders an ambiguous string.
const wireDelimiters = ",()~"

// CheckWireSafe walks a filter tree and reports any field name or payload
// value that contains one of the grammar's delimiter characters. It never
// alters how the tree renders; callers who need the stricter behavior run
// this check after construction and before shipping the string.
func CheckWireSafe(f Filter) error {
	switch node := f.(type) {
	case Condition:
		if strings.ContainsAny(node.field, wireDelimiters) {
			return fault.New(fault.ValidationCode, fmt.Sprintf("field `%s` contains a wire delimiter", node.field))
		}
		for _, v := range node.values {
			if strings.ContainsAny(v, wireDelimiters) {
				return fault.New(fault.ValidationCode, fmt.Sprintf("value `%s` contains a wire delimiter", v))
			}
		}
		return nil
	case group:
		for _, c := range node.children {
			if err := CheckWireSafe(c); err != nil {
				return err
			}
		}
		return nil
	case negation:
		return CheckWireSafe(node.child)
	default:
		return fault.New(fault.ValidationCode, fmt.Sprintf("cannot inspect filter of type %T", f))
	}
}
