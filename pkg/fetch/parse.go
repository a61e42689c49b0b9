package fetch

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Parse decodes a YAML or JSON document (JSON is valid YAML) into plain Go
// values. Integers become float64 and YAML timestamps become strings, so the
// result round-trips through encoding/json unchanged.
func Parse(data []byte) (any, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return Plain(v)
}

// Plain normalizes a decoded document to the value types documented in the
// package overview. It is exported for callers that decode documents
// themselves (HTTP request bodies, test fixtures).
func Plain(v any) (any, error) {
	switch x := v.(type) {
	case nil, string, bool, float64:
		return x, nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case uint64:
		return float64(x), nil
	case float32:
		return float64(x), nil
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format(time.DateOnly), nil
		}
		return x.Format(time.RFC3339Nano), nil
	case []byte:
		return string(x), nil
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			p, err := Plain(e)
			if err != nil {
				return nil, err
			}
			out[i] = p
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			p, err := Plain(e)
			if err != nil {
				return nil, err
			}
			out[k] = p
		}
		return out, nil
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			p, err := Plain(e)
			if err != nil {
				return nil, err
			}
			out[fmt.Sprint(k)] = p
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported document value of type %T", v)
	}
}
