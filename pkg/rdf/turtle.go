package rdf

import (
	"errors"
	"fmt"
	"io"
	"strings"

	knakk "github.com/knakk/rdf"

	bberrors "github.com/bblocks/bblocks/pkg/errors"
)

// ParseTurtle parses a Turtle document. A non-empty base is used to resolve
// relative IRIs, unless the document declares its own @base.
func ParseTurtle(text, base string) (*Graph, error) {
	if base != "" {
		text = "@base <" + base + "> .\n" + text
	}
	return decode(text, knakk.Turtle, "turtle")
}

// ParseNTriples parses an N-Triples document.
func ParseNTriples(text string) (*Graph, error) {
	return decode(text, knakk.NTriples, "n-triples")
}

func decode(text string, format knakk.Format, name string) (*Graph, error) {
	dec := knakk.NewTripleDecoder(strings.NewReader(text), format)
	g := NewGraph()
	blank := relabel()
	for {
		tr, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			return g, nil
		}
		if err != nil {
			return nil, bberrors.Wrap(bberrors.ErrCodeSyntax, err, "parse %s", name)
		}
		s, err := fromKnakk(tr.Subj, blank)
		if err != nil {
			return nil, err
		}
		p, err := fromKnakk(tr.Pred, blank)
		if err != nil {
			return nil, err
		}
		o, err := fromKnakk(tr.Obj, blank)
		if err != nil {
			return nil, err
		}
		g.Add(T(s, p, o))
	}
}

func fromKnakk(t knakk.Term, blank func(string) Term) (Term, error) {
	switch v := t.(type) {
	case knakk.IRI:
		return IRI(v.String()), nil
	case knakk.Blank:
		return blank(strings.TrimPrefix(v.String(), "_:")), nil
	case knakk.Literal:
		if lang := v.Lang(); lang != "" {
			return LangLiteral(v.String(), lang), nil
		}
		return Literal(v.String(), v.DataType.String()), nil
	default:
		return Term{}, bberrors.New(bberrors.ErrCodeInternal, "unexpected term %s", fmt.Sprint(t))
	}
}
