package uplift

import (
	bberrors "github.com/bblocks/bblocks/pkg/errors"
)

// MergeContext combines data with the "@context" value of a building block
// context document:
//
//   - a list becomes {"@context": ctx, "@graph": data}
//   - a mapping without "@context" gets ctx injected
//   - a mapping with "@context" gets [ctx, existing...], where an existing
//     list is flattened into the new one
//
// Neither argument is modified. A nil ldContext returns data unchanged.
func MergeContext(ldContext map[string]any, data any) (any, error) {
	if ldContext == nil {
		return data, nil
	}
	ctx := ldContext["@context"]

	switch d := data.(type) {
	case []any:
		return map[string]any{
			"@context": ctx,
			"@graph":   d,
		}, nil
	case map[string]any:
		out := make(map[string]any, len(d)+1)
		for k, v := range d {
			out[k] = v
		}
		existing, ok := d["@context"]
		if !ok {
			out["@context"] = ctx
			return out, nil
		}
		merged := []any{ctx}
		if list, ok := existing.([]any); ok {
			merged = append(merged, list...)
		} else {
			merged = append(merged, existing)
		}
		out["@context"] = merged
		return out, nil
	default:
		return nil, bberrors.New(bberrors.ErrCodeInvalidInput, "cannot apply a JSON-LD context to %T, expected an object or an array", data)
	}
}
