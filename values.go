package selections

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// stringValues flattens a control value into strings. Scalars become a one
// element list, nil becomes an empty list.
func stringValues(value any) []string {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		return []string{v}
	case []string:
		return append([]string{}, v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if item == nil {
				continue
			}
			out = append(out, fmt.Sprint(item))
		}
		return out
	default:
		return []string{fmt.Sprint(v)}
	}
}

// intValues converts a realization control value into integers.
func intValues(value any) ([]int, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []int:
		return append([]int{}, v...), nil
	case []any:
		out := make([]int, 0, len(v))
		for _, item := range v {
			n, err := intValue(item)
			if err != nil {
				return nil, err
			}
			out = append(out, n)
		}
		return out, nil
	case []float64:
		out := make([]int, 0, len(v))
		for _, item := range v {
			n, err := intValue(item)
			if err != nil {
				return nil, err
			}
			out = append(out, n)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("selections: realization value %T is not a list", value)
	}
}

func intValue(value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("selections: realization %v is not an integer", v)
		}
		return int(v), nil
	case json.Number:
		n, err := v.Int64()
		return int(n), err
	case string:
		return strconv.Atoi(v)
	default:
		return 0, fmt.Errorf("selections: realization %T is not a number", value)
	}
}
