package register

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	bberrors "github.com/bblocks/bblocks/pkg/errors"
	"github.com/bblocks/bblocks/pkg/fetch"
	"github.com/bblocks/bblocks/pkg/observability"
)

// Options configures [Load].
type Options struct {
	Fetcher     fetch.Fetcher // Document fetcher (default: fetch.Client without cache)
	SkipImports bool          // Load only the given register, not its imports
	Logger      *log.Logger   // Default: discard
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	opts := o
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if opts.Fetcher == nil {
		opts.Fetcher = fetch.NewClient(fetch.Options{Logger: opts.Logger})
	}
	return opts
}

// Load fetches the register at url and, unless opts.SkipImports is set, every
// register it transitively imports. Each distinct URL is fetched at most once.
// A failing import fails the whole load.
func Load(ctx context.Context, url string, opts Options) (*Register, error) {
	if err := bberrors.ValidateLocation(url); err != nil {
		return nil, err
	}
	l := &loader{
		ctx:  ctx,
		opts: opts.WithDefaults(),
		seen: make(map[string]*Register),
	}
	return l.load(url)
}

// loader holds the traversal state of a single Load call.
type loader struct {
	ctx  context.Context
	opts Options
	seen map[string]*Register
}

func (l *loader) load(url string) (*Register, error) {
	if err := l.ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	reg, err := l.fetchRegister(url)
	observability.Register().OnLoad(l.ctx, url, reg.itemCount(), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	l.seen[url] = reg

	if l.opts.SkipImports {
		return reg, nil
	}
	if len(reg.Imports) == 0 {
		l.opts.Logger.Debug("register has no imports", "url", url)
		return reg, nil
	}

	l.opts.Logger.Debug("loading imports", "url", url, "count", len(reg.Imports))
	added := map[string]bool{url: true}
	for _, importURL := range reg.Imports {
		if added[importURL] {
			continue
		}
		added[importURL] = true

		dep, ok := l.seen[importURL]
		if !ok {
			if dep, err = l.load(importURL); err != nil {
				return nil, fmt.Errorf("import %s from %s: %w", importURL, url, err)
			}
		}

		reg.imported = append(reg.imported, dep)
		for _, transitive := range dep.imported {
			if !added[transitive.URL] {
				added[transitive.URL] = true
				reg.imported = append(reg.imported, transitive)
			}
		}
	}
	return reg, nil
}

func (l *loader) fetchRegister(url string) (*Register, error) {
	l.opts.Logger.Debug("fetching register", "url", url)
	raw, err := l.opts.Fetcher.Fetch(l.ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch register %s: %w", url, err)
	}
	doc, ok := raw.(map[string]any)
	if !ok {
		return nil, bberrors.New(bberrors.ErrCodeInvalidDocument, "register %s: expected a mapping, got %T", url, raw)
	}

	itemsRaw, hasItems := doc["bblocks"]
	if !hasItems {
		itemsRaw = doc["items"]
	}
	meta := make(map[string]any, len(doc))
	for k, v := range doc {
		if k != "bblocks" && k != "items" {
			meta[k] = v
		}
	}

	md, err := decodeMetadata(meta)
	if err != nil {
		return nil, fmt.Errorf("register %s: %w", url, err)
	}
	reg := newRegister(url, l.opts.Fetcher, l.opts.Logger)
	reg.Metadata = md

	var items []any
	switch x := itemsRaw.(type) {
	case nil:
	case []any:
		items = x
	default:
		return nil, bberrors.New(bberrors.ErrCodeInvalidDocument, "register %s: items must be a list, got %T", url, itemsRaw)
	}

	for _, raw := range items {
		s, err := decodeSummary(raw)
		if err != nil {
			return nil, fmt.Errorf("register %s: %w", url, err)
		}
		reg.add(s)
	}
	return reg, nil
}

func (r *Register) add(s *Summary) {
	s.owner = r
	if _, dup := r.items[s.ItemIdentifier]; dup {
		r.logger.Warn("duplicate item identifier, keeping the last one", "register", r.URL, "id", s.ItemIdentifier)
	} else {
		r.order = append(r.order, s.ItemIdentifier)
	}
	r.items[s.ItemIdentifier] = s
}

func (r *Register) itemCount() int {
	if r == nil {
		return 0
	}
	return len(r.items)
}
