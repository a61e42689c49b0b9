package fetch

import (
	"context"
	"fmt"
)

// Fetcher retrieves remote or local documents.
type Fetcher interface {
	// Fetch retrieves loc and parses it as YAML/JSON.
	Fetch(ctx context.Context, loc string) (any, error)

	// FetchText retrieves loc and returns the body unparsed.
	FetchText(ctx context.Context, loc string) (string, error)
}

// Funcs adapts plain functions to the [Fetcher] interface. A nil Text
// function falls back to Data and requires the result to be a string.
type Funcs struct {
	Data func(ctx context.Context, loc string) (any, error)
	Text func(ctx context.Context, loc string) (string, error)
}

// Fetch calls f.Data.
func (f Funcs) Fetch(ctx context.Context, loc string) (any, error) {
	if f.Data == nil {
		return nil, fmt.Errorf("fetch %s: no data function", loc)
	}
	return f.Data(ctx, loc)
}

// FetchText calls f.Text, or f.Data when Text is nil.
func (f Funcs) FetchText(ctx context.Context, loc string) (string, error) {
	if f.Text != nil {
		return f.Text(ctx, loc)
	}
	v, err := f.Fetch(ctx, loc)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("fetch %s: expected text, got %T", loc, v)
	}
	return s, nil
}

var _ Fetcher = Funcs{}
