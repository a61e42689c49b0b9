package register

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	bberrors "github.com/bblocks/bblocks/pkg/errors"
	"github.com/bblocks/bblocks/pkg/observability"
)

// Resolve returns the parsed document at url, fetching it on first use and
// serving it from the register's resource cache afterwards. An empty url
// resolves to nil without fetching. Concurrent calls for the same url share
// one fetch.
//
// The returned value is shared with later callers and must not be modified.
func (r *Register) Resolve(ctx context.Context, url string) (any, error) {
	if url == "" {
		return nil, nil
	}
	if v, ok := r.cachedResource(url); ok {
		observability.Cache().OnCacheHit(ctx, "resource")
		return v, nil
	}
	observability.Cache().OnCacheMiss(ctx, "resource")

	v, err, _ := r.flight.Do("resource:"+url, func() (any, error) {
		if v, ok := r.cachedResource(url); ok {
			return v, nil
		}
		r.logger.Debug("resolving resource", "url", url, "register", r.URL)
		v, err := r.fetcher.Fetch(ctx, url)
		if err != nil {
			return nil, err
		}
		r.resMu.Lock()
		r.resources[url] = v
		r.resMu.Unlock()
		return v, nil
	})
	return v, err
}

// ResolveText is [Register.Resolve] for documents that are used unparsed,
// such as Turtle shape graphs. Text and parsed documents are cached under
// separate keys.
func (r *Register) ResolveText(ctx context.Context, url string) (string, error) {
	if url == "" {
		return "", nil
	}
	key := "text:" + url
	if v, ok := r.cachedResource(key); ok {
		observability.Cache().OnCacheHit(ctx, "resource")
		return v.(string), nil
	}
	observability.Cache().OnCacheMiss(ctx, "resource")

	v, err, _ := r.flight.Do("resource:"+key, func() (any, error) {
		if v, ok := r.cachedResource(key); ok {
			return v, nil
		}
		r.logger.Debug("resolving text resource", "url", url, "register", r.URL)
		text, err := r.fetcher.FetchText(ctx, url)
		if err != nil {
			return nil, err
		}
		r.resMu.Lock()
		r.resources[key] = text
		r.resMu.Unlock()
		return text, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// FetchText fetches url as text without caching. Uplift steps use it for
// code referenced by URL, which is fetched again on every application.
func (r *Register) FetchText(ctx context.Context, url string) (string, error) {
	return r.fetcher.FetchText(ctx, url)
}

func (r *Register) cachedResource(url string) (any, bool) {
	r.resMu.Lock()
	defer r.resMu.Unlock()
	v, ok := r.resources[url]
	return v, ok
}

// Summary returns the summary with the given identifier, searching r first
// and then its imported registers in order. It returns nil when no register
// declares the identifier.
func (r *Register) Summary(id string) *Summary {
	if s := r.items[id]; s != nil {
		return s
	}
	for _, reg := range r.imported {
		if s := reg.items[id]; s != nil {
			r.logger.Debug("summary found in imported register", "id", id, "register", reg.URL)
			return s
		}
	}
	return nil
}

// Full returns the full record of the identified item. The record is fetched
// once and cached in the register that declares the item; later calls return
// the same instance. Full returns (nil, nil) for an unknown identifier.
func (r *Register) Full(ctx context.Context, id string) (*BuildingBlock, error) {
	s := r.Summary(id)
	if s == nil {
		r.logger.Debug("no summary found", "id", id)
		return nil, nil
	}
	return s.owner.full(ctx, s)
}

func (r *Register) full(ctx context.Context, s *Summary) (*BuildingBlock, error) {
	id := s.ItemIdentifier
	if b, ok := r.cachedFull(id); ok {
		r.logger.Debug("full record found in cache", "id", id)
		observability.Cache().OnCacheHit(ctx, "full")
		return b, nil
	}
	observability.Cache().OnCacheMiss(ctx, "full")

	v, err, _ := r.flight.Do("full:"+id, func() (any, error) {
		if b, ok := r.cachedFull(id); ok {
			return b, nil
		}
		start := time.Now()
		b, err := r.materialize(ctx, s)
		observability.Register().OnFullResolve(ctx, id, time.Since(start), err)
		if err != nil {
			return nil, err
		}
		r.blocksMu.Lock()
		r.blocks[id] = b
		r.blocksMu.Unlock()
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*BuildingBlock), nil
}

func (r *Register) materialize(ctx context.Context, s *Summary) (*BuildingBlock, error) {
	url := s.FullDocumentURL()
	if url == "" {
		return nil, bberrors.New(bberrors.ErrCodeInvalidDocument, "item %s has no %s documentation link", s.ItemIdentifier, FullDocumentationKey)
	}
	r.logger.Debug("fetching full record", "id", s.ItemIdentifier, "url", url)
	raw, err := r.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch full record of %s: %w", s.ItemIdentifier, err)
	}
	b, err := decodeBuildingBlock(raw)
	if err != nil {
		return nil, err
	}
	if b.ItemIdentifier == "" {
		b.ItemIdentifier = s.ItemIdentifier
	}
	b.origin = s
	b.Summary.owner = r
	return b, nil
}

func (r *Register) cachedFull(id string) (*BuildingBlock, bool) {
	r.blocksMu.Lock()
	defer r.blocksMu.Unlock()
	b, ok := r.blocks[id]
	return b, ok
}

// FetchAll materializes the full record of every item declared by r itself,
// running at most limit fetches at a time (limit <= 0 means 8). Results are in
// the order of [Register.Items]. Records already cached are reused.
func (r *Register) FetchAll(ctx context.Context, limit int) ([]*BuildingBlock, error) {
	if limit <= 0 {
		limit = 8
	}
	items := r.Items()
	out := make([]*BuildingBlock, len(items))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, s := range items {
		g.Go(func() error {
			b, err := r.full(ctx, s)
			if err != nil {
				return err
			}
			out[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
