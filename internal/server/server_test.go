package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bblocks/bblocks/pkg/buildinfo"
	bberrors "github.com/bblocks/bblocks/pkg/errors"
	"github.com/bblocks/bblocks/pkg/fetch"
	"github.com/bblocks/bblocks/pkg/register"
	"github.com/bblocks/bblocks/pkg/validate"
)

const (
	registerURL = "https://example.org/register.json"
	libURL      = "https://example.org/lib/register.json"
	fullURL     = "https://example.org/person/full.json"
	brokenURL   = "https://example.org/broken/full.json"
	schemaURL   = "https://example.org/person/schema.json"
	contextURL  = "https://example.org/person/context.jsonld"
	shapesURL   = "https://example.org/person/shapes.ttl"

	aliceTriple = `<http://example.org/alice> <http://schema.org/name> "Alice" .`
)

func personItem(extra map[string]any) map[string]any {
	m := map[string]any{
		"itemIdentifier": "ex.person",
		"name":           "Person",
		"status":         "stable",
		"itemClass":      "schema",
		"tags":           []any{"people"},
		"ldContext":      contextURL,
		"schema":         map[string]any{"application/json": schemaURL},
		"shaclShapes":    map[string]any{"ex.person": []any{shapesURL}},
		"documentation": map[string]any{
			"json-full": map[string]any{"mediatype": "application/json", "url": fullURL},
		},
	}
	for k, v := range extra {
		m[k] = v
	}
	return m
}

func loadRegister(t *testing.T) *register.Register {
	t.Helper()
	docs := map[string]any{
		registerURL: map[string]any{
			"name":    "Test register",
			"imports": []any{libURL},
			"bblocks": []any{
				personItem(nil),
				map[string]any{"itemIdentifier": "ex.bare", "name": "Bare", "status": "experimental", "itemClass": "datatype", "dependsOn": []any{"lib.base"}},
				map[string]any{
					"itemIdentifier": "ex.broken",
					"name":           "Broken",
					"ldContext":      contextURL,
					"documentation": map[string]any{
						"json-full": map[string]any{"mediatype": "application/json", "url": brokenURL},
					},
				},
			},
		},
		libURL: map[string]any{
			"name":    "Library",
			"bblocks": []any{map[string]any{"itemIdentifier": "lib.base", "name": "Base", "status": "stable"}},
		},
		fullURL: personItem(map[string]any{
			"semanticUplift": map[string]any{"additionalSteps": []any{
				map[string]any{"type": "sparql-update", "stage": "post", "code": `INSERT { ?s a <http://schema.org/Person> } WHERE { ?s <http://schema.org/name> ?n }`},
			}},
		}),
		brokenURL: map[string]any{
			"itemIdentifier": "ex.broken",
			"ldContext":      contextURL,
			"semanticUplift": map[string]any{"additionalSteps": []any{
				map[string]any{"type": "xslt", "stage": "post", "code": "<x/>"},
			}},
		},
		schemaURL: map[string]any{
			"type":       "object",
			"required":   []any{"name"},
			"properties": map[string]any{"name": map[string]any{"type": "string"}},
		},
		contextURL: map[string]any{"@context": map[string]any{"name": "http://schema.org/name"}},
		shapesURL: `
@prefix sh: <http://www.w3.org/ns/shacl#> .
@prefix schema: <http://schema.org/> .

schema:PersonShape a sh:NodeShape ;
  sh:targetClass schema:Person ;
  sh:property [ sh:path schema:name ; sh:maxCount 1 ] .
`,
	}
	f := fetch.Funcs{Data: func(_ context.Context, u string) (any, error) {
		d, ok := docs[u]
		if !ok {
			return nil, bberrors.New(bberrors.ErrCodeNotFound, "%s", u)
		}
		return d, nil
	}}
	reg, err := register.Load(context.Background(), registerURL, register.Options{Fetcher: f})
	require.NoError(t, err)
	return reg
}

func newTestServer(t *testing.T, opts Options) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(New(loadRegister(t), opts).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path, body string, header ...string) (*http.Response, string) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, srv.URL+path, rd)
	require.NoError(t, err)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(data)
}

func decode[T any](t *testing.T, body string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(body), &v), body)
	return v
}

func TestHealthAndRequestID(t *testing.T) {
	srv := newTestServer(t, Options{})

	resp, body := do(t, srv, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok","version":"`+buildinfo.Version+`"}`, body)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	resp, _ = do(t, srv, http.MethodGet, "/healthz", "", "X-Request-ID", "abc-123")
	assert.Equal(t, "abc-123", resp.Header.Get("X-Request-ID"))
}

func TestRegisterInfo(t *testing.T) {
	srv := newTestServer(t, Options{})

	resp, body := do(t, srv, http.MethodGet, "/register", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	info := decode[map[string]any](t, body)
	assert.Equal(t, "Test register", info["name"])
	assert.Equal(t, registerURL, info["url"])
	assert.Equal(t, float64(3), info["items"])
	assert.Equal(t, float64(4), info["allItems"])
	assert.Equal(t, []any{libURL}, info["imported"])
}

func TestListItems(t *testing.T) {
	srv := newTestServer(t, Options{})

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"ex.person", "ex.bare", "ex.broken", "lib.base"}},
		{"?local=true", []string{"ex.person", "ex.bare", "ex.broken"}},
		{"?status=stable", []string{"ex.person", "lib.base"}},
		{"?class=datatype", []string{"ex.bare"}},
		{"?q=PEOPLE", []string{"ex.person"}},
		{"?q=base&status=stable", []string{"lib.base"}},
		{"?q=nothing", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp, body := do(t, srv, http.MethodGet, "/items"+tt.query, "")
			require.Equal(t, http.StatusOK, resp.StatusCode)
			items := decode[[]map[string]any](t, body)
			ids := make([]string, len(items))
			for i, it := range items {
				ids[i] = it["itemIdentifier"].(string)
			}
			assert.Equal(t, tt.want, ids)
		})
	}

	resp, body := do(t, srv, http.MethodGet, "/items?status=draft", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_ENUM", decode[errorBody](t, body).Code)
}

func TestGetItem(t *testing.T) {
	srv := newTestServer(t, Options{})

	resp, body := do(t, srv, http.MethodGet, "/items/ex.person", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	item := decode[map[string]any](t, body)
	assert.Equal(t, "Person", item["name"])
	assert.NotContains(t, item, "semanticUplift")

	resp, body = do(t, srv, http.MethodGet, "/items/ex.person?full=true", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	full := decode[map[string]any](t, body)
	assert.Contains(t, full, "semanticUplift")

	resp, body = do(t, srv, http.MethodGet, "/items/lib.base", "")
	require.Equal(t, http.StatusOK, resp.StatusCode, "imported items resolve")
	assert.Equal(t, "Base", decode[map[string]any](t, body)["name"])

	resp, body = do(t, srv, http.MethodGet, "/items/ex.missing", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", decode[errorBody](t, body).Code)

	resp, body = do(t, srv, http.MethodGet, "/items/-bad", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_INPUT", decode[errorBody](t, body).Code)

	resp, _ = do(t, srv, http.MethodGet, "/items/ex.bare?full=true", "")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, "no json-full link")
}

func TestSchemaAndContext(t *testing.T) {
	srv := newTestServer(t, Options{})

	resp, body := do(t, srv, http.MethodGet, "/items/ex.person/schema", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "object", decode[map[string]any](t, body)["type"])

	resp, body = do(t, srv, http.MethodGet, "/items/ex.person/context", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/ld+json", resp.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"@context":{"name":"http://schema.org/name"}}`, body)

	resp, _ = do(t, srv, http.MethodGet, "/items/ex.bare/schema", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = do(t, srv, http.MethodGet, "/items/ex.bare/context", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpliftNTriples(t *testing.T) {
	srv := newTestServer(t, Options{})

	resp, body := do(t, srv, http.MethodPost, "/items/ex.person/uplift", `{"@id": "http://example.org/alice", "name": "Alice"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "application/n-triples", resp.Header.Get("Content-Type"))
	assert.NotEmpty(t, resp.Header.Get("X-Uplift-Run"))
	assert.Equal(t, []string{
		`<http://example.org/alice> <http://schema.org/name> "Alice" .`,
		`<http://example.org/alice> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://schema.org/Person> .`,
	}, strings.Split(strings.TrimSpace(body), "\n"))
}

func TestUpliftYAMLBodyAndBase(t *testing.T) {
	srv := newTestServer(t, Options{})

	resp, body := do(t, srv, http.MethodPost, "/items/ex.person/uplift?base=http://example.org/", "\"@id\": alice\nname: Alice\n")
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Contains(t, body, aliceTriple)
}

func TestUpliftJSONLD(t *testing.T) {
	srv := newTestServer(t, Options{})

	resp, body := do(t, srv, http.MethodPost, "/items/ex.person/uplift", `{"@id": "http://example.org/alice", "name": "Alice"}`,
		"Accept", "application/ld+json")
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "application/ld+json", resp.Header.Get("Content-Type"))
	doc := decode[map[string]any](t, body)
	assert.Equal(t, "http://example.org/alice", doc["@id"])
	assert.Equal(t, "Alice", doc["name"])
}

func TestUpliftErrors(t *testing.T) {
	tests := []struct {
		name   string
		opts   Options
		path   string
		body   string
		status int
		code   string
	}{
		{"empty body", Options{}, "/items/ex.person/uplift", "  ", http.StatusBadRequest, "INVALID_INPUT"},
		{"unparseable body", Options{}, "/items/ex.person/uplift", "{\"a\": [", http.StatusBadRequest, "INVALID_INPUT"},
		{"scalar body", Options{}, "/items/ex.person/uplift", `"just text"`, http.StatusBadRequest, "INVALID_INPUT"},
		{"too large", Options{MaxBodyBytes: 8}, "/items/ex.person/uplift", `{"name": "Alice Liddell"}`, http.StatusRequestEntityTooLarge, "INVALID_INPUT"},
		{"unsupported step", Options{}, "/items/ex.broken/uplift", `{"name": "Alice"}`, http.StatusUnprocessableEntity, "UNSUPPORTED_STEP"},
		{"unknown item", Options{}, "/items/ex.nope/uplift", `{}`, http.StatusNotFound, "NOT_FOUND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, tt.opts)
			resp, body := do(t, srv, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode, body)
			assert.Equal(t, tt.code, decode[errorBody](t, body).Code)
		})
	}
}

func TestValidateJSON(t *testing.T) {
	srv := newTestServer(t, Options{})

	resp, body := do(t, srv, http.MethodPost, "/items/ex.person/validate", `{"name": "Alice"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	res := decode[map[string]any](t, body)
	assert.Equal(t, true, res["valid"])
	assert.Equal(t, "json", res["type"])
	assert.Equal(t, "ex.person", res["identifier"])

	resp, body = do(t, srv, http.MethodPost, "/items/ex.person/validate?type=json", `{"age": 3}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	res = decode[map[string]any](t, body)
	assert.Equal(t, false, res["valid"])
	assert.Contains(t, res["report"], "name")

	resp, body = do(t, srv, http.MethodPost, "/items/ex.bare/validate", `{}`)
	assert.Equal(t, http.StatusNotImplemented, resp.StatusCode, "item without schema")
	assert.Equal(t, "CONFIGURATION", decode[errorBody](t, body).Code)

	resp, _ = do(t, srv, http.MethodPost, "/items/ex.person/validate?type=xml", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestValidateSHACL(t *testing.T) {
	srv := newTestServer(t, Options{})

	resp, body := do(t, srv, http.MethodPost, "/items/ex.person/validate?type=shacl", `{"@id": "http://example.org/alice", "name": "Alice"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	res := decode[map[string]any](t, body)
	assert.Equal(t, true, res["valid"])
	assert.Equal(t, "shacl", res["type"])
	assert.NotEmpty(t, res["run"])

	resp, body = do(t, srv, http.MethodPost, "/items/ex.person/validate?type=shacl", `{"@id": "http://example.org/alice", "name": ["Alice", "Ali"]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	res = decode[map[string]any](t, body)
	assert.Equal(t, false, res["valid"])
	assert.Contains(t, res["report"], "MaxCount")
}

func TestMissingCapability(t *testing.T) {
	srv := newTestServer(t, Options{Validators: &validate.Capabilities{}})

	resp, body := do(t, srv, http.MethodPost, "/items/ex.person/validate", `{"name": "Alice"}`)
	assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)
	assert.Equal(t, "CONFIGURATION", decode[errorBody](t, body).Code)
}

func TestGraph(t *testing.T) {
	srv := newTestServer(t, Options{})

	resp, body := do(t, srv, http.MethodGet, "/graph/dependencies?format=dot", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/vnd.graphviz", resp.Header.Get("Content-Type"))
	assert.Contains(t, body, `"ex.bare" -> "lib.base"`)

	resp, body = do(t, srv, http.MethodGet, "/graph/imports?format=dot", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"`+registerURL+`" -> "`+libURL+`"`)

	resp, body = do(t, srv, http.MethodGet, "/graph/imports", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))
	assert.Contains(t, body, "<svg")

	resp, _ = do(t, srv, http.MethodGet, "/graph/towers", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = do(t, srv, http.MethodGet, "/graph/imports?format=gif", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{bberrors.New(bberrors.ErrCodeSyntax, "x"), http.StatusBadRequest},
		{bberrors.New(bberrors.ErrCodeInvalidDocument, "x"), http.StatusUnprocessableEntity},
		{bberrors.New(bberrors.ErrCodeNetwork, "x"), http.StatusBadGateway},
		{bberrors.New(bberrors.ErrCodeNotFound, "x"), http.StatusBadGateway},
		{bberrors.New(bberrors.ErrCodeConfiguration, "x"), http.StatusNotImplemented},
		{bberrors.New(bberrors.ErrCodeInternal, "x"), http.StatusInternalServerError},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{io.EOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusOf(tt.err), "%v", tt.err)
	}
}
