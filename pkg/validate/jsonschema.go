package validate

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/xeipuuv/gojsonschema"

	bberrors "github.com/bblocks/bblocks/pkg/errors"
	"github.com/bblocks/bblocks/pkg/register"
)

// maxRefDepth bounds how far external $ref chains are preloaded.
const maxRefDepth = 16

// JSONSchema validates data against the resolved JSON schema of an item.
// Schemas referenced through $ref are fetched through the item's register,
// so they share its resource cache.
type JSONSchema struct {
	Logger *log.Logger
}

// ValidateJSON implements [JSONValidator]. An item without a schema is a
// CONFIGURATION error.
func (v *JSONSchema) ValidateJSON(ctx context.Context, item *register.Summary, data any) (*Result, error) {
	logger := discard(v.Logger)
	schema, err := item.ResolvedSchema(ctx)
	if err != nil {
		return nil, err
	}
	if schema == nil {
		return nil, bberrors.New(bberrors.ErrCodeConfiguration, "no JSON schema available for %s", item.ItemIdentifier)
	}

	base := item.SchemaURL()
	loader := gojsonschema.NewSchemaLoader()
	seen := map[string]bool{stripFragment(base): true}
	if err := preload(ctx, item.Owner(), loader, schema, base, seen, 0, logger); err != nil {
		return nil, err
	}

	root := withID(schema, base)
	compiled, err := loader.Compile(gojsonschema.NewGoLoader(root))
	if err != nil {
		return nil, bberrors.Wrap(bberrors.ErrCodeInvalidDocument, err, "compile schema of %s", item.ItemIdentifier)
	}
	res, err := compiled.Validate(gojsonschema.NewGoLoader(data))
	if err != nil {
		return nil, bberrors.Wrap(bberrors.ErrCodeInvalidInput, err, "validate against %s", item.ItemIdentifier)
	}

	out := &Result{Identifier: item.ItemIdentifier, Type: TypeJSON, Valid: res.Valid()}
	if !out.Valid {
		var b strings.Builder
		for _, e := range res.Errors() {
			fmt.Fprintf(&b, "- %s: %s\n", e.Field(), e.Description())
		}
		out.Report = b.String()
		first := res.Errors()[0]
		out.Cause = bberrors.New(bberrors.ErrCodeInvalidDocument, "%s: %s", first.Field(), first.Description())
	}
	logger.Debug("JSON Schema validation", "id", item.ItemIdentifier, "valid", out.Valid)
	return out, nil
}

// withID returns schema with "$id" set to base when it declares no
// identifier, so that relative references resolve against its location.
// schema itself is shared with the resource cache and is not modified.
func withID(schema map[string]any, base string) map[string]any {
	if base == "" {
		return schema
	}
	if _, ok := schema["$id"]; ok {
		return schema
	}
	if _, ok := schema["id"]; ok {
		return schema
	}
	out := make(map[string]any, len(schema)+1)
	for k, v := range schema {
		out[k] = v
	}
	out["$id"] = base
	return out
}

// preload registers every external document reachable through $ref.
func preload(ctx context.Context, reg *register.Register, loader *gojsonschema.SchemaLoader, doc any, base string, seen map[string]bool, depth int, logger *log.Logger) error {
	if depth >= maxRefDepth || reg == nil {
		return nil
	}
	for _, ref := range refs(doc) {
		target := resolveRef(base, ref)
		if target == "" || seen[target] {
			continue
		}
		seen[target] = true
		dep, err := reg.Resolve(ctx, target)
		if err != nil {
			return fmt.Errorf("resolve $ref %s: %w", target, err)
		}
		if err := loader.AddSchema(target, gojsonschema.NewGoLoader(dep)); err != nil {
			logger.Debug("schema not preloaded", "url", target, "err", err)
			continue
		}
		if err := preload(ctx, reg, loader, dep, target, seen, depth+1, logger); err != nil {
			return err
		}
	}
	return nil
}

// refs collects the $ref values of a schema document.
func refs(doc any) []string {
	var out []string
	var walk func(v any)
	walk = func(v any) {
		switch v := v.(type) {
		case map[string]any:
			if r, ok := v["$ref"].(string); ok {
				out = append(out, r)
			}
			for _, c := range v {
				walk(c)
			}
		case []any:
			for _, c := range v {
				walk(c)
			}
		}
	}
	walk(doc)
	return out
}

// resolveRef returns the absolute document URL a reference points to, or ""
// for references inside the current document.
func resolveRef(base, ref string) string {
	if strings.HasPrefix(ref, "#") {
		return ""
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if !r.IsAbs() {
		b, err := url.Parse(base)
		if err != nil || !b.IsAbs() {
			return ""
		}
		r = b.ResolveReference(r)
	}
	if r.Scheme != "http" && r.Scheme != "https" && r.Scheme != "file" {
		return ""
	}
	r.Fragment = ""
	return r.String()
}

func stripFragment(u string) string {
	s, _, _ := strings.Cut(u, "#")
	return s
}
