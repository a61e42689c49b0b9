package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bblocks/bblocks/internal/config"
	"github.com/bblocks/bblocks/pkg/buildinfo"
	bberrors "github.com/bblocks/bblocks/pkg/errors"
)

const (
	aliceJSON   = `{"@id": "http://example.org/alice", "name": "Alice"}`
	aliceTriple = `<http://example.org/alice> <http://schema.org/name> "Alice" .`
	aliceType   = `<http://example.org/alice> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://schema.org/Person> .`
)

// testRegister serves a register with one import and returns its URL.
type testRegister struct {
	url      string
	base     string
	requests atomic.Int32
}

func serveRegister(t *testing.T) *testRegister {
	t.Helper()
	docs := map[string]string{}
	tr := &testRegister{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tr.requests.Add(1)
		body, ok := docs[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	u := srv.URL
	tr.base = u
	tr.url = u + "/register.json"

	person := func(extra map[string]any) map[string]any {
		m := map[string]any{
			"itemIdentifier": "ex.person",
			"name":           "Person",
			"status":         "stable",
			"itemClass":      "schema",
			"abstract":       "A human being.",
			"dependsOn":      []any{"lib.base"},
			"ldContext":      u + "/person/context.jsonld",
			"schema":         map[string]any{"application/json": u + "/person/schema.json"},
			"shaclShapes":    map[string]any{"ex.person": []any{u + "/person/shapes.ttl"}},
			"documentation": map[string]any{
				"json-full": map[string]any{"mediatype": "application/json", "url": u + "/person/full.json"},
			},
		}
		for k, v := range extra {
			m[k] = v
		}
		return m
	}

	docs["/register.json"] = mustJSON(t, map[string]any{
		"name":        "Test register",
		"description": "Building blocks for tests",
		"imports":     []any{u + "/lib/register.json"},
		"bblocks": []any{
			person(nil),
			map[string]any{"itemIdentifier": "ex.old", "name": "Old", "status": "retired", "itemClass": "datatype"},
		},
	})
	docs["/lib/register.json"] = mustJSON(t, map[string]any{
		"name":    "Library",
		"bblocks": []any{map[string]any{"itemIdentifier": "lib.base", "name": "Base", "status": "stable", "itemClass": "schema"}},
	})
	docs["/person/full.json"] = mustJSON(t, person(map[string]any{
		"semanticUplift": map[string]any{"additionalSteps": []any{
			map[string]any{"type": "sparql-update", "stage": "post", "code": `INSERT { ?s a <http://schema.org/Person> } WHERE { ?s <http://schema.org/name> ?n }`},
		}},
	}))
	docs["/person/schema.json"] = mustJSON(t, map[string]any{
		"type":       "object",
		"required":   []any{"name"},
		"properties": map[string]any{"name": map[string]any{"type": "string"}},
	})
	docs["/person/context.jsonld"] = `{"@context": {"name": "http://schema.org/name"}}`
	docs["/person/shapes.ttl"] = `
@prefix sh: <http://www.w3.org/ns/shacl#> .
@prefix schema: <http://schema.org/> .

schema:PersonShape a sh:NodeShape ;
  sh:targetClass schema:Person ;
  sh:property [ sh:path schema:name ; sh:maxCount 1 ] .
`
	return tr
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

// isolate points the config and cache lookups at fresh directories and
// returns the cache directory.
func isolate(t *testing.T) string {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cacheHome := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", cacheHome)
	return filepath.Join(cacheHome, "bblocks")
}

type result struct {
	stdout string
	stderr string
	err    error
}

func run(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	var logs, out, errOut bytes.Buffer
	c := New(&logs, LogInfo)
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&errOut)
	err := root.ExecuteContext(context.Background())
	return result{stdout: out.String(), stderr: errOut.String(), err: err}
}

func TestVersion(t *testing.T) {
	isolate(t)
	res := run(t, "", "--version")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "bblocks version "+buildinfo.Version)
}

func TestRegisterCommand(t *testing.T) {
	isolate(t)
	reg := serveRegister(t)

	res := run(t, "", "--register", reg.url, "register", "--items")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Test register")
	assert.Contains(t, res.stdout, "2 local, 3 total")
	assert.Contains(t, res.stdout, "ex.person")
	assert.Contains(t, res.stdout, "ex.old")
	assert.NotContains(t, res.stdout, "lib.base", "imported items need --all")
}

func TestRegisterCommandJSON(t *testing.T) {
	isolate(t)
	reg := serveRegister(t)

	res := run(t, "", "--register", reg.url, "register", "--json", "--items", "--all", "--status", "stable")
	require.NoError(t, res.err)

	var info registerInfo
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &info), res.stdout)
	assert.Equal(t, "Test register", info.Name)
	assert.Equal(t, reg.url, info.URL)
	assert.Equal(t, 2, info.Local)
	assert.Equal(t, 3, info.Total)
	assert.Equal(t, []string{reg.base + "/lib/register.json"}, info.Imported)

	var ids []string
	for _, s := range info.Items {
		ids = append(ids, s.ItemIdentifier)
	}
	assert.Equal(t, []string{"ex.person", "lib.base"}, ids)
}

func TestRegisterCommandSkipImports(t *testing.T) {
	isolate(t)
	reg := serveRegister(t)

	res := run(t, "", "--register", reg.url, "register", "--skip-imports")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "2 local, 2 total")
	assert.Contains(t, res.stdout, "imports not loaded")
}

func TestRegisterCommandRejectsUnknownFilters(t *testing.T) {
	isolate(t)
	reg := serveRegister(t)

	res := run(t, "", "--register", reg.url, "register", "--items", "--status", "draft")
	require.Error(t, res.err)
	assert.True(t, bberrors.Is(res.err, bberrors.ErrCodeInvalidEnum))
	assert.Zero(t, reg.requests.Load(), "filters are checked before loading")

	res = run(t, "", "--register", reg.url, "register", "--class", "widget")
	assert.True(t, bberrors.Is(res.err, bberrors.ErrCodeInvalidEnum))
}

func TestItemCommand(t *testing.T) {
	isolate(t)
	reg := serveRegister(t)

	res := run(t, "", "--register", reg.url, "item", "ex.person")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Person")
	assert.Contains(t, res.stdout, reg.base+"/person/schema.json")
	assert.Contains(t, res.stdout, "lib.base")
	assert.Contains(t, res.stdout, "A human being.")

	res = run(t, "", "--register", reg.url, "item", "lib.base")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, reg.base+"/lib/register.json")
}

func TestItemCommandErrors(t *testing.T) {
	isolate(t)
	reg := serveRegister(t)

	res := run(t, "", "--register", reg.url, "item", "ex.missing")
	assert.True(t, bberrors.Is(res.err, bberrors.ErrCodeNotFound))

	res = run(t, "", "--register", reg.url, "item", "../etc")
	assert.True(t, bberrors.Is(res.err, bberrors.ErrCodeInvalidInput))

	res = run(t, "", "--register", reg.url, "item", "ex.old", "--schema")
	assert.True(t, bberrors.Is(res.err, bberrors.ErrCodeNotFound))

	res = run(t, "", "--register", reg.url, "item", "ex.person", "--full", "--schema")
	assert.Error(t, res.err, "flags are mutually exclusive")
}

func TestItemCommandDocuments(t *testing.T) {
	isolate(t)
	reg := serveRegister(t)

	res := run(t, "", "--register", reg.url, "item", "ex.person", "--full")
	require.NoError(t, res.err)
	var full map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &full))
	assert.Equal(t, "ex.person", full["itemIdentifier"])
	steps := full["semanticUplift"].(map[string]any)["additionalSteps"].([]any)
	assert.Len(t, steps, 1)

	res = run(t, "", "--register", reg.url, "item", "ex.person", "--context")
	require.NoError(t, res.err)
	assert.JSONEq(t, `{"@context": {"name": "http://schema.org/name"}}`, res.stdout)

	res = run(t, "", "--register", reg.url, "item", "ex.person", "--schema")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, `"required"`)
}

func TestUpliftCommand(t *testing.T) {
	isolate(t)
	reg := serveRegister(t)

	res := run(t, aliceJSON, "--register", reg.url, "uplift", "ex.person")
	require.NoError(t, res.err)
	assert.Equal(t, []string{aliceTriple, aliceType}, strings.Split(strings.TrimSpace(res.stdout), "\n"))
}

func TestUpliftCommandFileInputAndBase(t *testing.T) {
	isolate(t)
	reg := serveRegister(t)

	input := filepath.Join(t.TempDir(), "alice.yaml")
	require.NoError(t, os.WriteFile(input, []byte("\"@id\": alice\nname: Alice\n"), 0o644))

	res := run(t, "", "--register", reg.url, "uplift", "ex.person", input, "--base", "http://example.org/")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, aliceTriple)
}

func TestUpliftCommandJSONLDToFile(t *testing.T) {
	isolate(t)
	reg := serveRegister(t)
	out := filepath.Join(t.TempDir(), "alice.jsonld")

	res := run(t, aliceJSON, "--register", reg.url, "uplift", "ex.person", "-f", "jsonld", "-o", out)
	require.NoError(t, res.err)
	assert.Empty(t, res.stdout)
	assert.Contains(t, res.stderr, "2 triples")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"@context"`)
	assert.Contains(t, string(data), "Alice")
}

func TestUpliftCommandErrors(t *testing.T) {
	isolate(t)
	reg := serveRegister(t)

	tests := []struct {
		name  string
		stdin string
		args  []string
		code  bberrors.Code
	}{
		{"bad format", aliceJSON, []string{"uplift", "ex.person", "-f", "turtle"}, bberrors.ErrCodeInvalidEnum},
		{"unknown item", aliceJSON, []string{"uplift", "ex.nope"}, bberrors.ErrCodeNotFound},
		{"unparsable stdin", "{", []string{"uplift", "ex.person"}, bberrors.ErrCodeInvalidDocument},
		{"missing input file", "", []string{"uplift", "ex.person", filepath.Join(t.TempDir(), "nope.json")}, bberrors.ErrCodeNotFound},
		{"no full record", aliceJSON, []string{"uplift", "ex.old"}, bberrors.ErrCodeInvalidDocument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := run(t, tt.stdin, append([]string{"--register", reg.url}, tt.args...)...)
			require.Error(t, res.err)
			assert.True(t, bberrors.Is(res.err, tt.code), "got %v", res.err)
		})
	}
}

func TestValidateJSONCommand(t *testing.T) {
	isolate(t)
	reg := serveRegister(t)

	res := run(t, `{"name": "Alice"}`, "--register", reg.url, "validate", "json", "ex.person")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "ex.person: valid (json)")

	res = run(t, `{"name": 42}`, "--register", reg.url, "validate", "json", "ex.person")
	require.Error(t, res.err)
	assert.True(t, bberrors.Is(res.err, bberrors.ErrCodeInvalidDocument))
	assert.Contains(t, res.stdout, "ex.person: invalid (json)")

	res = run(t, `{}`, "--register", reg.url, "validate", "json", "ex.person", "--json")
	require.Error(t, res.err)
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &out))
	assert.Equal(t, false, out["valid"])
	assert.Equal(t, "json", out["type"])

	res = run(t, `{}`, "--register", reg.url, "validate", "json", "ex.old")
	assert.True(t, bberrors.Is(res.err, bberrors.ErrCodeConfiguration), "no schema to validate against")
}

func TestValidateSHACLCommand(t *testing.T) {
	isolate(t)
	reg := serveRegister(t)

	res := run(t, aliceJSON, "--register", reg.url, "validate", "shacl", "ex.person")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "ex.person: valid (shacl)")

	twoNames := `{"@id": "http://example.org/alice", "name": ["Alice", "Ally"]}`
	res = run(t, twoNames, "--register", reg.url, "validate", "shacl", "ex.person")
	require.Error(t, res.err)
	assert.True(t, bberrors.Is(res.err, bberrors.ErrCodeInvalidDocument))
	assert.Contains(t, res.stdout, "MaxCount")
}

func TestValidateSHACLCommandTurtle(t *testing.T) {
	isolate(t)
	reg := serveRegister(t)

	turtle := `<http://example.org/a> a <http://schema.org/Person> ; <http://schema.org/name> "A", "B" .`
	res := run(t, turtle, "--register", reg.url, "validate", "shacl", "ex.person", "--turtle")
	require.Error(t, res.err)
	assert.True(t, bberrors.Is(res.err, bberrors.ErrCodeInvalidDocument))

	res = run(t, `<http://example.org/a> <http://schema.org/name> "A", "B" .`, "--register", reg.url, "validate", "shacl", "ex.person", "--turtle")
	require.NoError(t, res.err, "no target node")
}

func TestGraphCommand(t *testing.T) {
	isolate(t)
	reg := serveRegister(t)

	res := run(t, "", "--register", reg.url, "graph", "imports")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "digraph")
	assert.Contains(t, res.stdout, reg.base+"/lib/register.json")

	out := filepath.Join(t.TempDir(), "deps.gv")
	res = run(t, "", "--register", reg.url, "graph", "dependencies", "--detailed", "-o", out)
	require.NoError(t, res.err)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "retired")

	res = run(t, "", "--register", reg.url, "graph", "items")
	assert.Error(t, res.err)

	res = run(t, "", "--register", reg.url, "graph", "imports", "-f", "gif")
	assert.True(t, bberrors.Is(res.err, bberrors.ErrCodeInvalidEnum))
}

func TestResolveFormat(t *testing.T) {
	tests := []struct {
		format, output, want string
		wantErr              bool
	}{
		{"", "", "dot", false},
		{"", "out.svg", "svg", false},
		{"", "out.gv", "dot", false},
		{"png", "out.svg", "png", false},
		{"", "out.txt", "", true},
		{"jpeg", "", "", true},
	}
	for _, tt := range tests {
		got, err := resolveFormat(tt.format, tt.output)
		if tt.wantErr {
			assert.Error(t, err, "%q %q", tt.format, tt.output)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestConfigCommands(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "bblocks.toml")

	res := run(t, "", "--config", path, "config", "init")
	require.NoError(t, res.err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, config.Template(), string(data))

	res = run(t, "", "--config", path, "config", "init")
	assert.Error(t, res.err, "refuses to overwrite")

	res = run(t, "", "--config", path, "--register", "https://example.org/r.json", "config", "show")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, `register = "https://example.org/r.json"`)
	assert.Contains(t, res.stdout, `backend = "file"`)

	res = run(t, "", "--config", path, "config", "path")
	require.NoError(t, res.err)
	assert.Equal(t, path, strings.TrimSpace(res.stdout))
}

func TestMissingExplicitConfig(t *testing.T) {
	isolate(t)
	res := run(t, "", "--config", filepath.Join(t.TempDir(), "missing.toml"), "register")
	require.Error(t, res.err)
	assert.True(t, bberrors.Is(res.err, bberrors.ErrCodeConfiguration))
}

func TestCacheCommands(t *testing.T) {
	dir := isolate(t)
	reg := serveRegister(t)

	res := run(t, "", "cache", "path")
	require.NoError(t, res.err)
	assert.Equal(t, dir, strings.TrimSpace(res.stdout))

	res = run(t, "", "--register", reg.url, "register")
	require.NoError(t, res.err)
	loaded := reg.requests.Load()

	res = run(t, "", "--register", reg.url, "register")
	require.NoError(t, res.err)
	assert.Equal(t, loaded, reg.requests.Load(), "second load is served from the cache")

	res = run(t, "", "cache", "clear")
	require.NoError(t, res.err)
	assert.Contains(t, res.stderr, "Cleared 2 cached entries")

	res = run(t, "", "cache", "clear")
	require.NoError(t, res.err)
	assert.Contains(t, res.stderr, "Cache is empty")
}

func TestNoCacheFlag(t *testing.T) {
	dir := isolate(t)
	reg := serveRegister(t)

	res := run(t, "", "--no-cache", "--register", reg.url, "register")
	require.NoError(t, res.err)
	res = run(t, "", "--no-cache", "--register", reg.url, "register")
	require.NoError(t, res.err)
	assert.EqualValues(t, 4, reg.requests.Load())

	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err), "nothing written to %s", dir)
}

func TestCompletion(t *testing.T) {
	isolate(t)
	res := run(t, "", "completion", "bash")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "bblocks")

	res = run(t, "", "completion", "tcsh")
	assert.Error(t, res.err)
}
