package register

import (
	"context"
	"sync"

	bberrors "github.com/bblocks/bblocks/pkg/errors"
)

// docFetcher serves canned documents and counts fetches per URL.
type docFetcher struct {
	mu    sync.Mutex
	docs  map[string]any
	calls map[string]int
}

func newDocFetcher(docs map[string]any) *docFetcher {
	return &docFetcher{docs: docs, calls: make(map[string]int)}
}

func (f *docFetcher) Fetch(_ context.Context, url string) (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[url]++
	doc, ok := f.docs[url]
	if !ok {
		return nil, bberrors.New(bberrors.ErrCodeNotFound, "no document at %s", url)
	}
	return doc, nil
}

func (f *docFetcher) FetchText(ctx context.Context, url string) (string, error) {
	v, err := f.Fetch(ctx, url)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", bberrors.New(bberrors.ErrCodeInvalidDocument, "%s is not text", url)
	}
	return s, nil
}

func (f *docFetcher) count(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

func (f *docFetcher) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func registerDoc(name string, imports []string, items ...map[string]any) map[string]any {
	list := make([]any, len(items))
	for i, it := range items {
		list[i] = it
	}
	imp := make([]any, len(imports))
	for i, u := range imports {
		imp[i] = u
	}
	return map[string]any{
		"name":    name,
		"imports": imp,
		"bblocks": list,
	}
}

func itemDoc(id string, extra ...any) map[string]any {
	m := map[string]any{
		"itemIdentifier": id,
		"name":           "Item " + id,
		"status":         "stable",
		"itemClass":      "schema",
	}
	for i := 0; i+1 < len(extra); i += 2 {
		m[extra[i].(string)] = extra[i+1]
	}
	return m
}

func urls(regs []*Register) []string {
	out := make([]string, len(regs))
	for i, r := range regs {
		out[i] = r.URL
	}
	return out
}
