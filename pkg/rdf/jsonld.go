package rdf

import (
	"strings"

	"github.com/piprate/json-gold/ld"

	bberrors "github.com/bblocks/bblocks/pkg/errors"
)

// Loader retrieves a remote JSON-LD document (usually a context) by URL.
type Loader func(url string) (any, error)

type documentLoader struct {
	load Loader
}

func (l documentLoader) LoadDocument(u string) (*ld.RemoteDocument, error) {
	doc, err := l.load(u)
	if err != nil {
		return nil, ld.NewJsonLdError(ld.LoadingDocumentFailed, err)
	}
	return &ld.RemoteDocument{DocumentURL: u, Document: doc}, nil
}

func options(base string, load Loader) *ld.JsonLdOptions {
	opts := ld.NewJsonLdOptions(base)
	if load != nil {
		opts.DocumentLoader = documentLoader{load: load}
	}
	return opts
}

// FromJSONLD converts a JSON-LD document (plain decoded JSON values) into a
// graph containing its default graph. Relative IRIs are resolved against
// base. Remote contexts are retrieved with load; a nil load uses json-gold's
// HTTP loader.
func FromJSONLD(doc any, base string, load Loader) (*Graph, error) {
	proc := ld.NewJsonLdProcessor()
	out, err := proc.ToRDF(doc, options(base, load))
	if err != nil {
		return nil, bberrors.Wrap(bberrors.ErrCodeInvalidDocument, err, "JSON-LD to RDF")
	}
	ds, ok := out.(*ld.RDFDataset)
	if !ok {
		return nil, bberrors.New(bberrors.ErrCodeInternal, "unexpected JSON-LD result %T", out)
	}

	g := NewGraph()
	blank := relabel()
	for _, q := range ds.Graphs["@default"] {
		s, err := fromLD(q.Subject, blank)
		if err != nil {
			return nil, err
		}
		p, err := fromLD(q.Predicate, blank)
		if err != nil {
			return nil, err
		}
		o, err := fromLD(q.Object, blank)
		if err != nil {
			return nil, err
		}
		g.Add(T(s, p, o))
	}
	return g, nil
}

func fromLD(n ld.Node, blank func(string) Term) (Term, error) {
	switch v := n.(type) {
	case *ld.IRI:
		return IRI(v.Value), nil
	case *ld.BlankNode:
		return blank(strings.TrimPrefix(v.Attribute, "_:")), nil
	case *ld.Literal:
		if v.Language != "" {
			return LangLiteral(v.Value, v.Language), nil
		}
		return Literal(v.Value, v.Datatype), nil
	default:
		return Term{}, bberrors.New(bberrors.ErrCodeInternal, "unexpected JSON-LD node %T", n)
	}
}

// JSONLD serializes g as JSON-LD. With a nil context the expanded form is
// returned; otherwise the result is compacted against context, which may be
// a context document ({"@context": ...}), a bare context value or a URL.
func (g *Graph) JSONLD(context any, load Loader) (any, error) {
	proc := ld.NewJsonLdProcessor()
	opts := options("", load)
	opts.Format = "application/n-quads"

	expanded, err := proc.FromRDF(g.NTriples(), opts)
	if err != nil {
		return nil, bberrors.Wrap(bberrors.ErrCodeInternal, err, "RDF to JSON-LD")
	}
	if context == nil {
		return expanded, nil
	}

	opts.Format = ""
	compacted, err := proc.Compact(expanded, context, opts)
	if err != nil {
		return nil, bberrors.Wrap(bberrors.ErrCodeInvalidDocument, err, "compact JSON-LD")
	}
	return compacted, nil
}
