// Package fetch implements the fetch collaborator used by the register
// resolver and the uplift pipeline.
//
// A [Fetcher] turns a location into parsed structured data (YAML or JSON,
// detected transparently) or into raw text. [Client] is the production
// implementation: it reads http(s) URLs, file URLs and local paths, retries
// transient HTTP failures with exponential backoff and stores raw HTTP
// bodies in a [cache.Cache] backend.
//
// Parsed documents only contain the plain value types produced by [Parse]:
// map[string]any, []any, string, float64, bool and nil. Downstream code
// (record decoding, jq programs, JSON-LD processing) relies on that.
package fetch
