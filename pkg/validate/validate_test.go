package validate

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bberrors "github.com/bblocks/bblocks/pkg/errors"
	"github.com/bblocks/bblocks/pkg/fetch"
	"github.com/bblocks/bblocks/pkg/rdf"
	"github.com/bblocks/bblocks/pkg/register"
)

const (
	registerURL = "https://example.org/register.json"
	schemaURL   = "https://example.org/person/schema.json"
	defsURL     = "https://example.org/person/defs.json"
	shapesURL   = "https://example.org/person/shapes.ttl"
)

type counter struct {
	mu    sync.Mutex
	calls map[string]int
}

func (c *counter) inc(u string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls[u]++
}

func (c *counter) get(u string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[u]
}

func loadRegister(t *testing.T) (*register.Register, *counter) {
	t.Helper()
	docs := map[string]any{
		registerURL: map[string]any{
			"name": "test",
			"bblocks": []any{
				map[string]any{
					"itemIdentifier": "ex.person",
					"name":           "Person",
					"schema":         map[string]any{"application/json": schemaURL},
					"shaclShapes":    map[string]any{"ex.person": []any{shapesURL}},
				},
				map[string]any{"itemIdentifier": "ex.bare", "name": "Bare"},
			},
		},
		schemaURL: map[string]any{
			"type":     "object",
			"required": []any{"name"},
			"properties": map[string]any{
				"name": map[string]any{"type": "string"},
				"age":  map[string]any{"$ref": "defs.json#/definitions/age"},
			},
		},
		defsURL: map[string]any{
			"definitions": map[string]any{
				"age": map[string]any{"type": "integer", "minimum": float64(0)},
			},
		},
		shapesURL: `
@prefix sh: <http://www.w3.org/ns/shacl#> .
@prefix ex: <http://example.org/> .

ex:PersonShape a sh:NodeShape ;
  sh:targetClass ex:Person ;
  sh:property [ sh:path ex:name ; sh:minCount 1 ] .
`,
	}
	c := &counter{calls: make(map[string]int)}
	f := fetch.Funcs{Data: func(_ context.Context, u string) (any, error) {
		c.inc(u)
		d, ok := docs[u]
		if !ok {
			return nil, bberrors.New(bberrors.ErrCodeNotFound, "%s", u)
		}
		return d, nil
	}}
	reg, err := register.Load(context.Background(), registerURL, register.Options{Fetcher: f})
	require.NoError(t, err)
	return reg, c
}

func TestJSONSchema(t *testing.T) {
	reg, c := loadRegister(t)
	item := reg.Summary("ex.person")
	v := &JSONSchema{}
	ctx := context.Background()

	tests := []struct {
		name  string
		data  any
		valid bool
	}{
		{"valid", map[string]any{"name": "Alice", "age": float64(34)}, true},
		{"missing required", map[string]any{"age": float64(3)}, false},
		{"wrong type", map[string]any{"name": float64(1)}, false},
		{"external ref", map[string]any{"name": "Bob", "age": float64(-1)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := v.ValidateJSON(ctx, item, tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.valid, res.Valid, res.Report)
			assert.Equal(t, TypeJSON, res.Type)
			assert.Equal(t, "ex.person", res.Identifier)
			if tt.valid {
				assert.NoError(t, res.Err())
				assert.Empty(t, res.Report)
				return
			}
			assert.NotEmpty(t, res.Report)
			err = res.Err()
			require.Error(t, err)
			assert.True(t, bberrors.Is(err, bberrors.ErrCodeInvalidDocument))
		})
	}

	assert.Equal(t, 1, c.get(schemaURL), "schema comes from the register cache")
	assert.Equal(t, 1, c.get(defsURL), "referenced schemas come from the register cache")
}

func TestJSONSchemaDoesNotModifyCachedSchema(t *testing.T) {
	reg, _ := loadRegister(t)
	item := reg.Summary("ex.person")
	_, err := (&JSONSchema{}).ValidateJSON(context.Background(), item, map[string]any{"name": "x"})
	require.NoError(t, err)

	schema, err := item.ResolvedSchema(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, schema, "$id")
}

func TestJSONSchemaMissingSchema(t *testing.T) {
	reg, _ := loadRegister(t)
	_, err := (&JSONSchema{}).ValidateJSON(context.Background(), reg.Summary("ex.bare"), map[string]any{})
	require.Error(t, err)
	assert.True(t, bberrors.Is(err, bberrors.ErrCodeConfiguration))
}

func people(withName bool) *rdf.Graph {
	ex := func(s string) rdf.Term { return rdf.IRI("http://example.org/" + s) }
	g := rdf.NewGraph(rdf.T(ex("alice"), rdf.IRI(rdf.RDFType), ex("Person")))
	if withName {
		g.Add(rdf.T(ex("alice"), ex("name"), rdf.String("Alice")))
	}
	return g
}

func TestSHACL(t *testing.T) {
	reg, c := loadRegister(t)
	item := reg.Summary("ex.person")
	v := &SHACL{}
	ctx := context.Background()

	res, err := v.ValidateSHACL(ctx, item, people(true))
	require.NoError(t, err)
	assert.True(t, res.Valid, res.Report)
	assert.NoError(t, res.Err())
	require.NotNil(t, res.Shapes)
	assert.True(t, res.Shapes.Conforms)

	res, err = v.ValidateSHACL(ctx, item, people(false))
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, TypeSHACL, res.Type)
	assert.Contains(t, res.Report, "MinCountConstraintComponent")
	assert.True(t, bberrors.Is(res.Err(), bberrors.ErrCodeInvalidDocument))

	assert.Equal(t, 1, c.get(shapesURL))
}

func TestSHACLWithoutShapes(t *testing.T) {
	reg, _ := loadRegister(t)
	res, err := (&SHACL{}).ValidateSHACL(context.Background(), reg.Summary("ex.bare"), people(false))
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Empty(t, res.Report)
}

func TestSHACLDetachedItem(t *testing.T) {
	item := &register.Summary{ItemIdentifier: "x", SHACLShapes: map[string][]string{"x": {shapesURL}}}
	_, err := (&SHACL{}).ValidateSHACL(context.Background(), item, people(true))
	assert.True(t, bberrors.Is(err, bberrors.ErrCodeConfiguration))
}

func TestCapabilities(t *testing.T) {
	reg, _ := loadRegister(t)
	item := reg.Summary("ex.person")
	ctx := context.Background()

	none := Capabilities{}
	_, err := none.ValidateJSON(ctx, item, map[string]any{})
	assert.True(t, bberrors.Is(err, bberrors.ErrCodeConfiguration))
	_, err = none.ValidateSHACL(ctx, item, people(true))
	assert.True(t, bberrors.Is(err, bberrors.ErrCodeConfiguration))

	jsonOnly := Capabilities{JSON: &JSONSchema{}}
	res, err := jsonOnly.ValidateJSON(ctx, item, map[string]any{"name": "A"})
	require.NoError(t, err)
	assert.True(t, res.Valid)
	_, err = jsonOnly.ValidateSHACL(ctx, item, people(true))
	assert.True(t, bberrors.Is(err, bberrors.ErrCodeConfiguration))

	all := Default(nil)
	res, err = all.ValidateSHACL(ctx, item, people(true))
	require.NoError(t, err)
	assert.True(t, res.Valid)
}

func TestResolveRef(t *testing.T) {
	tests := []struct {
		base, ref, want string
	}{
		{schemaURL, "#/definitions/a", ""},
		{schemaURL, "defs.json#/definitions/age", defsURL},
		{schemaURL, "../common/x.yaml", "https://example.org/common/x.yaml"},
		{schemaURL, "https://other.org/s.json#frag", "https://other.org/s.json"},
		{"", "relative.json", ""},
		{schemaURL, "urn:example:thing", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, resolveRef(tt.base, tt.ref), tt.ref)
	}
}
