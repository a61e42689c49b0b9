package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bblocks/bblocks/pkg/buildinfo"
	bberrors "github.com/bblocks/bblocks/pkg/errors"
	"github.com/bblocks/bblocks/pkg/fetch"
	"github.com/bblocks/bblocks/pkg/rdf"
	"github.com/bblocks/bblocks/pkg/register"
	"github.com/bblocks/bblocks/pkg/render"
	"github.com/bblocks/bblocks/pkg/validate"
)

const (
	mediaJSON     = "application/json"
	mediaJSONLD   = "application/ld+json"
	mediaNTriples = "application/n-triples"
	mediaSVG      = "image/svg+xml"
	mediaDOT      = "text/vnd.graphviz"
)

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, mediaJSON, map[string]string{"status": "ok", "version": buildinfo.Version})
}

type registerInfo struct {
	register.Metadata
	URL      string   `json:"url"`
	Items    int      `json:"items"`
	AllItems int      `json:"allItems"`
	Imported []string `json:"imported"`
}

func (s *Server) register(w http.ResponseWriter, _ *http.Request) {
	imported := make([]string, 0)
	for _, r := range s.reg.Imported() {
		imported = append(imported, r.URL)
	}
	writeJSON(w, http.StatusOK, mediaJSON, registerInfo{
		Metadata: s.reg.Metadata,
		URL:      s.reg.URL,
		Items:    len(s.reg.Items()),
		AllItems: len(s.reg.AllItems()),
		Imported: imported,
	})
}

func (s *Server) listItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items := s.reg.AllItems()
	if local, _ := strconv.ParseBool(q.Get("local")); local {
		items = s.reg.Items()
	}

	status := register.Status(q.Get("status"))
	if status != "" && !status.Valid() {
		s.fail(w, r, bberrors.New(bberrors.ErrCodeInvalidEnum, "unknown status %q", status))
		return
	}
	class := register.ItemClass(q.Get("class"))
	if class != "" && !class.Valid() {
		s.fail(w, r, bberrors.New(bberrors.ErrCodeInvalidEnum, "unknown item class %q", class))
		return
	}
	text := strings.ToLower(q.Get("q"))

	out := make([]*register.Summary, 0, len(items))
	for _, it := range items {
		if status != "" && it.Status != status {
			continue
		}
		if class != "" && it.ItemClass != class {
			continue
		}
		if text != "" && !matches(it, text) {
			continue
		}
		out = append(out, it)
	}
	writeJSON(w, http.StatusOK, mediaJSON, out)
}

func matches(s *register.Summary, text string) bool {
	if strings.Contains(strings.ToLower(s.ItemIdentifier), text) || strings.Contains(strings.ToLower(s.Name), text) {
		return true
	}
	for _, tag := range s.Tags {
		if strings.Contains(strings.ToLower(tag), text) {
			return true
		}
	}
	return false
}

// item resolves the {id} path parameter. It writes the error response and
// returns nil when the identifier is invalid or unknown.
func (s *Server) item(w http.ResponseWriter, r *http.Request) *register.Summary {
	id := chi.URLParam(r, "id")
	if err := bberrors.ValidateIdentifier(id); err != nil {
		s.fail(w, r, err)
		return nil
	}
	item := s.reg.Summary(id)
	if item == nil {
		s.failStatus(w, r, http.StatusNotFound, bberrors.New(bberrors.ErrCodeNotFound, "no building block %q", id))
		return nil
	}
	return item
}

func (s *Server) getItem(w http.ResponseWriter, r *http.Request) {
	item := s.item(w, r)
	if item == nil {
		return
	}
	if full, _ := strconv.ParseBool(r.URL.Query().Get("full")); full {
		b, err := item.Full(r.Context())
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, mediaJSON, b)
		return
	}
	writeJSON(w, http.StatusOK, mediaJSON, item)
}

func (s *Server) getSchema(w http.ResponseWriter, r *http.Request) {
	item := s.item(w, r)
	if item == nil {
		return
	}
	schema, err := item.ResolvedSchema(r.Context())
	s.document(w, r, item, "schema", mediaJSON, schema, err)
}

func (s *Server) getContext(w http.ResponseWriter, r *http.Request) {
	item := s.item(w, r)
	if item == nil {
		return
	}
	ctxDoc, err := item.ResolvedContext(r.Context())
	s.document(w, r, item, "JSON-LD context", mediaJSONLD, ctxDoc, err)
}

func (s *Server) document(w http.ResponseWriter, r *http.Request, item *register.Summary, what, mediaType string, doc map[string]any, err error) {
	switch {
	case err != nil:
		s.fail(w, r, err)
	case doc == nil:
		s.failStatus(w, r, http.StatusNotFound, bberrors.New(bberrors.ErrCodeNotFound, "building block %s has no %s", item.ItemIdentifier, what))
	default:
		writeJSON(w, http.StatusOK, mediaType, doc)
	}
}

// body reads a JSON or YAML request body.
func (s *Server) body(w http.ResponseWriter, r *http.Request) (any, int, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, http.StatusRequestEntityTooLarge, bberrors.New(bberrors.ErrCodeInvalidInput, "request body exceeds %d bytes", tooLarge.Limit)
		}
		return nil, http.StatusBadRequest, bberrors.Wrap(bberrors.ErrCodeInvalidInput, err, "read request body")
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, http.StatusBadRequest, bberrors.New(bberrors.ErrCodeInvalidInput, "request body is empty")
	}
	v, err := fetch.Parse(data)
	if err != nil {
		return nil, http.StatusBadRequest, bberrors.Wrap(bberrors.ErrCodeInvalidInput, err, "parse request body")
	}
	return v, 0, nil
}

func wantsJSONLD(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), mediaJSONLD)
}

func (s *Server) uplift(w http.ResponseWriter, r *http.Request) {
	item := s.item(w, r)
	if item == nil {
		return
	}
	data, status, err := s.body(w, r)
	if err != nil {
		s.failStatus(w, r, status, err)
		return
	}

	res, err := s.opts.Pipeline.Uplift(r.Context(), item, data, r.URL.Query().Get("base"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("X-Uplift-Run", res.RunID)

	if !wantsJSONLD(r) {
		w.Header().Set("Content-Type", mediaNTriples)
		if err := rdf.WriteNTriples(w, res.Graph); err != nil {
			s.opts.Logger.Warn("write response", "err", err)
		}
		return
	}

	ldContext, err := item.ResolvedContext(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var compactTo any
	if ldContext != nil {
		compactTo = ldContext
	}
	doc, err := res.Graph.JSONLD(compactTo, func(u string) (any, error) {
		return s.reg.Resolve(r.Context(), u)
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mediaJSONLD, doc)
}

type validateResponse struct {
	*validate.Result
	RunID string `json:"run,omitempty"`
}

func (s *Server) validate(w http.ResponseWriter, r *http.Request) {
	item := s.item(w, r)
	if item == nil {
		return
	}
	kind := validate.Type(r.URL.Query().Get("type"))
	if kind == "" {
		kind = validate.TypeJSON
	}
	if kind != validate.TypeJSON && kind != validate.TypeSHACL {
		s.fail(w, r, bberrors.New(bberrors.ErrCodeInvalidEnum, "unknown validation type %q (must be json or shacl)", kind))
		return
	}
	data, status, err := s.body(w, r)
	if err != nil {
		s.failStatus(w, r, status, err)
		return
	}

	var (
		res   *validate.Result
		runID string
	)
	if kind == validate.TypeJSON {
		res, err = s.opts.Validators.ValidateJSON(r.Context(), item, data)
	} else {
		up, uerr := s.opts.Pipeline.Uplift(r.Context(), item, data, r.URL.Query().Get("base"))
		if uerr != nil {
			s.fail(w, r, uerr)
			return
		}
		runID = up.RunID
		res, err = s.opts.Validators.ValidateSHACL(r.Context(), item, up.Graph)
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mediaJSON, validateResponse{Result: res, RunID: runID})
}

func (s *Server) graph(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	detailed, _ := strconv.ParseBool(q.Get("detailed"))

	var dot string
	switch view := chi.URLParam(r, "view"); view {
	case "imports":
		dot = render.ImportsDOT(s.reg)
	case "dependencies":
		dot = render.DependenciesDOT(s.reg, render.Options{Detailed: detailed})
	default:
		s.failStatus(w, r, http.StatusNotFound, bberrors.New(bberrors.ErrCodeNotFound, "unknown graph view %q (must be imports or dependencies)", view))
		return
	}

	switch format := q.Get("format"); format {
	case "dot":
		w.Header().Set("Content-Type", mediaDOT)
		_, _ = io.WriteString(w, dot)
	case "", "svg":
		svg, err := render.SVG(r.Context(), dot)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		w.Header().Set("Content-Type", mediaSVG)
		_, _ = w.Write(svg)
	default:
		s.fail(w, r, bberrors.New(bberrors.ErrCodeInvalidEnum, "unknown graph format %q (must be svg or dot)", format))
	}
}
