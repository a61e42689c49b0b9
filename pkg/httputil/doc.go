// Package httputil provides retry helpers for the fetch client.
//
// Transient failures (transport errors, 5xx responses) are wrapped with
// [Retryable] by the caller; [Retry] re-runs the operation with exponential
// backoff for those and returns every other error immediately:
//
//	err := httputil.RetryWithBackoff(ctx, func() error {
//	    resp, err := client.Do(req)
//	    if err != nil {
//	        return httputil.Retryable(err)
//	    }
//	    ...
//	})
//
// Retries belong to the fetch collaborator; the register resolver and the
// uplift pipeline never retry on their own.
package httputil
