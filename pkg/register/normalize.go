package register

import "strings"

var camelOverrides = map[string]string{
	"gitHubRepository": "github_repository",
	"baseURL":          "base_url",
	"viewerURL":        "viewer_url",
}

// ToSnakeCase converts a camelCase document key to snake_case. An underscore
// is inserted before every ASCII upper-case letter except a leading one, so
// "sparqlURL" becomes "sparql_u_r_l". Known irregular keys are overridden.
func ToSnakeCase(name string) string {
	if s, ok := camelOverrides[name]; ok {
		return s
	}
	var b strings.Builder
	b.Grow(len(name) + 4)
	for i, r := range name {
		if i > 0 && r >= 'A' && r <= 'Z' {
			b.WriteByte('_')
		}
		b.WriteRune(r)
	}
	return strings.ToLower(b.String())
}

// SnakeKeys returns a copy of v with every mapping key, at any depth,
// converted with [ToSnakeCase]. v itself is not modified.
func SnakeKeys(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[ToSnakeCase(k)] = SnakeKeys(e)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = SnakeKeys(e)
		}
		return out
	default:
		return v
	}
}

func dedupe(values []string) []string {
	if len(values) == 0 {
		return values
	}
	seen := make(map[string]bool, len(values))
	out := values[:0:0]
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
