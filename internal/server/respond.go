package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	bberrors "github.com/bblocks/bblocks/pkg/errors"
)

type errorBody struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Request string `json:"request,omitempty"`
}

// statusOf maps coded errors to HTTP statuses. NOT_FOUND from a fetch means
// an upstream document is missing, which is a gateway failure here; unknown
// identifiers are answered with 404 before any fetch happens.
func statusOf(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return 499
	}
	switch bberrors.GetCode(err) {
	case bberrors.ErrCodeInvalidInput, bberrors.ErrCodeInvalidEnum, bberrors.ErrCodeSyntax:
		return http.StatusBadRequest
	case bberrors.ErrCodeInvalidDocument, bberrors.ErrCodeUnsupported, bberrors.ErrCodeUnsupportedStep:
		return http.StatusUnprocessableEntity
	case bberrors.ErrCodeNotFound, bberrors.ErrCodeNetwork:
		return http.StatusBadGateway
	case bberrors.ErrCodeConfiguration:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	s.failStatus(w, r, statusOf(err), err)
}

func (s *Server) failStatus(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.opts.Logger.Error("request failed", "path", r.URL.Path, "status", status, "err", err, "request", RequestID(r.Context()))
	}
	writeJSON(w, status, "application/json", errorBody{
		Error:   bberrors.UserMessage(err),
		Code:    string(bberrors.GetCode(err)),
		Request: RequestID(r.Context()),
	})
}

func writeJSON(w http.ResponseWriter, status int, contentType string, v any) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
