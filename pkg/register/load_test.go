package register

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	bberrors "github.com/bblocks/bblocks/pkg/errors"
)

const (
	urlA = "https://example.org/a/register.json"
	urlB = "https://example.org/b/register.json"
	urlC = "https://example.org/c/register.json"
	urlD = "https://example.org/d/register.json"
)

func load(t *testing.T, f *docFetcher, url string) *Register {
	t.Helper()
	reg, err := Load(context.Background(), url, Options{Fetcher: f})
	require.NoError(t, err)
	return reg
}

func TestLoadDecodesRegister(t *testing.T) {
	f := newDocFetcher(map[string]any{
		urlA: map[string]any{
			"name":             "Register A",
			"abstract":         "Example register",
			"gitHubRepository": "https://github.com/example/a",
			"sparqlEndpoint":   "https://example.org/sparql",
			"baseURL":          "https://example.org/a/",
			"viewerURL":        "https://viewer.example.org/a/",
			"links":            []any{map[string]any{"rel": "self", "href": urlA}},
			"unknownField":     42.0,
			"bblocks": []any{
				itemDoc("a.one",
					"dependsOn", []any{"a.two", "a.two", "b.x"},
					"tags", []any{"t1", "t2", "t1"},
					"schema", map[string]any{
						"application/json": "https://example.org/a/one/schema.json",
						"application/yaml": "https://example.org/a/one/schema.yaml",
					},
					"shaclShapes", map[string]any{"a.one": []any{"https://example.org/a/one/shapes.ttl"}},
				),
				itemDoc("a.two", "status", "under-development", "itemClass", "datatype", "highlighted", true),
			},
		},
	})

	reg := load(t, f, urlA)
	assert.Equal(t, "Register A", reg.Name)
	assert.Equal(t, "Example register", reg.Abstract)
	assert.Equal(t, "https://github.com/example/a", reg.GitHubRepository)
	assert.Equal(t, "https://example.org/sparql", reg.SPARQLEndpoint)
	assert.Equal(t, "https://example.org/a/", reg.BaseURL)
	assert.Equal(t, "https://viewer.example.org/a/", reg.ViewerURL)
	assert.Equal(t, []Link{{Rel: "self", Href: urlA}}, reg.Links)
	assert.Equal(t, urlA, reg.URL)

	items := reg.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "a.one", items[0].ItemIdentifier)
	assert.Equal(t, "a.two", items[1].ItemIdentifier)

	one := items[0]
	assert.Same(t, reg, one.Owner())
	assert.Equal(t, StatusStable, one.Status)
	assert.Equal(t, ItemClassSchema, one.ItemClass)
	assert.Equal(t, []string{"a.two", "b.x"}, one.DependsOn)
	assert.Equal(t, []string{"t1", "t2"}, one.Tags)
	assert.Equal(t, "https://example.org/a/one/schema.yaml", one.SchemaURL())
	assert.Equal(t, map[string][]string{"a.one": {"https://example.org/a/one/shapes.ttl"}}, one.ResolvedShapes())

	two := items[1]
	assert.Equal(t, StatusUnderDevelopment, two.Status)
	assert.Equal(t, ItemClassDatatype, two.ItemClass)
	assert.True(t, two.Highlighted)
}

func TestLoadAcceptsItemsKey(t *testing.T) {
	f := newDocFetcher(map[string]any{
		urlA: map[string]any{"name": "A", "items": []any{itemDoc("a.one")}},
		urlB: map[string]any{
			"name":    "B",
			"items":   []any{itemDoc("b.ignored")},
			"bblocks": []any{itemDoc("b.kept")},
		},
	})

	a := load(t, f, urlA)
	assert.NotNil(t, a.Local("a.one"))

	b := load(t, f, urlB)
	assert.NotNil(t, b.Local("b.kept"))
	assert.Nil(t, b.Local("b.ignored"))
}

func TestLoadRejectsInvalidEnums(t *testing.T) {
	tests := []struct {
		name  string
		item  map[string]any
		inMsg string
	}{
		{"status", itemDoc("x", "status", "draft"), `unknown status "draft"`},
		{"item class", itemDoc("x", "itemClass", "widget"), `unknown item class "widget"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newDocFetcher(map[string]any{urlA: registerDoc("A", nil, tt.item)})
			_, err := Load(context.Background(), urlA, Options{Fetcher: f})
			require.Error(t, err)
			assert.True(t, bberrors.Is(err, bberrors.ErrCodeInvalidDocument))
			assert.Contains(t, err.Error(), tt.inMsg)
		})
	}
}

func TestLoadRejectsMalformedDocuments(t *testing.T) {
	tests := []struct {
		name string
		doc  any
	}{
		{"not a mapping", []any{"x"}},
		{"items not a list", map[string]any{"name": "A", "bblocks": "nope"}},
		{"item without identifier", map[string]any{"name": "A", "bblocks": []any{map[string]any{"name": "x"}}}},
		{"item not a mapping", map[string]any{"name": "A", "bblocks": []any{"x"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newDocFetcher(map[string]any{urlA: tt.doc})
			_, err := Load(context.Background(), urlA, Options{Fetcher: f})
			require.Error(t, err)
			assert.True(t, bberrors.Is(err, bberrors.ErrCodeInvalidDocument))
		})
	}
}

func TestLoadInvalidLocation(t *testing.T) {
	_, err := Load(context.Background(), "", Options{Fetcher: newDocFetcher(nil)})
	require.Error(t, err)
	assert.True(t, bberrors.Is(err, bberrors.ErrCodeInvalidInput))
}

func TestLoadDiamondImports(t *testing.T) {
	f := newDocFetcher(map[string]any{
		urlA: registerDoc("A", []string{urlB, urlC}),
		urlB: registerDoc("B", []string{urlD}),
		urlC: registerDoc("C", []string{urlD}),
		urlD: registerDoc("D", nil),
	})

	a := load(t, f, urlA)
	assert.Equal(t, []string{urlB, urlD, urlC}, urls(a.Imported()))
	for _, u := range []string{urlA, urlB, urlC, urlD} {
		assert.Equal(t, 1, f.count(u), u)
	}

	imported := a.Imported()
	b, c := imported[0], imported[2]
	assert.Equal(t, []string{urlD}, urls(b.Imported()))
	assert.Equal(t, []string{urlD}, urls(c.Imported()))
	assert.Same(t, b.Imported()[0], c.Imported()[0])
}

func TestLoadDuplicateImports(t *testing.T) {
	f := newDocFetcher(map[string]any{
		urlA: registerDoc("A", []string{urlB, urlB, urlA}),
		urlB: registerDoc("B", nil),
	})

	a := load(t, f, urlA)
	assert.Equal(t, []string{urlB}, urls(a.Imported()))
	assert.Equal(t, 1, f.count(urlB))
	assert.Equal(t, 1, f.count(urlA))
}

func TestLoadCycle(t *testing.T) {
	f := newDocFetcher(map[string]any{
		urlA: registerDoc("A", []string{urlB}),
		urlB: registerDoc("B", []string{urlA}),
	})

	a := load(t, f, urlA)
	require.Equal(t, []string{urlB}, urls(a.Imported()))
	b := a.Imported()[0]
	require.Equal(t, []string{urlA}, urls(b.Imported()))
	assert.Same(t, a, b.Imported()[0])
	assert.Equal(t, 2, f.total())
}

func TestLoadSkipImports(t *testing.T) {
	f := newDocFetcher(map[string]any{
		urlA: registerDoc("A", []string{urlB}),
	})

	a, err := Load(context.Background(), urlA, Options{Fetcher: f, SkipImports: true})
	require.NoError(t, err)
	assert.Empty(t, a.Imported())
	assert.Equal(t, []string{urlB}, a.Imports)
	assert.Equal(t, 0, f.count(urlB))
}

func TestLoadFailingImportAbortsLoad(t *testing.T) {
	f := newDocFetcher(map[string]any{
		urlA: registerDoc("A", []string{urlB, urlC}),
		urlB: registerDoc("B", nil),
	})

	reg, err := Load(context.Background(), urlA, Options{Fetcher: f})
	require.Error(t, err)
	assert.Nil(t, reg)
	assert.True(t, bberrors.Is(err, bberrors.ErrCodeNotFound))
	assert.Contains(t, err.Error(), urlC)
}

func TestLoadCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Load(ctx, urlA, Options{Fetcher: newDocFetcher(nil)})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadImportGraphProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 7).Draw(t, "registers")
		regURL := func(i int) string { return fmt.Sprintf("https://example.org/r%d.json", i) }

		edges := make([][]int, n)
		docs := make(map[string]any, n)
		for i := range n {
			edges[i] = rapid.SliceOfN(rapid.IntRange(0, n-1), 0, 4).Draw(t, fmt.Sprintf("imports%d", i))
			imports := make([]string, len(edges[i]))
			for j, e := range edges[i] {
				imports[j] = regURL(e)
			}
			docs[regURL(i)] = registerDoc(fmt.Sprintf("r%d", i), imports)
		}

		reachable := map[int]bool{0: true}
		stack := []int{0}
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, e := range edges[cur] {
				if !reachable[e] {
					reachable[e] = true
					stack = append(stack, e)
				}
			}
		}

		f := newDocFetcher(docs)
		root, err := Load(context.Background(), regURL(0), Options{Fetcher: f})
		if err != nil {
			t.Fatalf("load: %v", err)
		}

		for i := range n {
			want := 0
			if reachable[i] {
				want = 1
			}
			if got := f.count(regURL(i)); got != want {
				t.Fatalf("register %d fetched %d times, want %d", i, got, want)
			}
		}

		seen := make(map[string]bool)
		for _, imp := range root.Imported() {
			if seen[imp.URL] {
				t.Fatalf("duplicate import %s", imp.URL)
			}
			seen[imp.URL] = true
		}
		for i := 1; i < n; i++ {
			if reachable[i] != seen[regURL(i)] {
				t.Fatalf("register %d: reachable=%t listed=%t", i, reachable[i], seen[regURL(i)])
			}
		}
		if seen[regURL(0)] {
			t.Fatalf("root lists itself as an import")
		}
	})
}
