package rdf

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Kind distinguishes the three kinds of RDF terms.
type Kind uint8

const (
	KindIRI Kind = iota + 1
	KindBlank
	KindLiteral
)

func (k Kind) String() string {
	switch k {
	case KindIRI:
		return "iri"
	case KindBlank:
		return "blank"
	case KindLiteral:
		return "literal"
	default:
		return "invalid"
	}
}

// Term is an IRI, a blank node or a literal. Terms are comparable; two terms
// are equal when they denote the same RDF term.
//
// Literals always carry a datatype: xsd:string for simple literals and
// rdf:langString for language-tagged ones.
type Term struct {
	Kind     Kind
	Value    string // IRI, blank node label (without "_:") or lexical form
	Datatype string // literals only
	Lang     string // language-tagged literals only, lower-cased
}

// IRI returns an IRI term.
func IRI(v string) Term { return Term{Kind: KindIRI, Value: v} }

// Blank returns a blank node with the given label. A leading "_:" is removed.
func Blank(label string) Term {
	return Term{Kind: KindBlank, Value: strings.TrimPrefix(label, "_:")}
}

// FreshBlank returns a blank node with a new unique label.
func FreshBlank() Term {
	return Term{Kind: KindBlank, Value: "b" + strings.ReplaceAll(uuid.NewString(), "-", "")}
}

// Literal returns a typed literal. An empty datatype means xsd:string.
func Literal(value, datatype string) Term {
	if datatype == "" {
		datatype = XSDString
	}
	return Term{Kind: KindLiteral, Value: value, Datatype: datatype}
}

// LangLiteral returns a language-tagged literal.
func LangLiteral(value, lang string) Term {
	return Term{Kind: KindLiteral, Value: value, Datatype: RDFLangString, Lang: strings.ToLower(lang)}
}

// String returns a plain string literal.
func String(value string) Term { return Literal(value, XSDString) }

// IsZero reports whether t is the zero Term.
func (t Term) IsZero() bool { return t.Kind == 0 }

func (t Term) IsIRI() bool     { return t.Kind == KindIRI }
func (t Term) IsBlank() bool   { return t.Kind == KindBlank }
func (t Term) IsLiteral() bool { return t.Kind == KindLiteral }

// String renders t in N-Triples syntax.
func (t Term) String() string {
	switch t.Kind {
	case KindIRI:
		return "<" + escapeIRI(t.Value) + ">"
	case KindBlank:
		return "_:" + t.Value
	case KindLiteral:
		lex := `"` + escapeLiteral(t.Value) + `"`
		switch {
		case t.Lang != "":
			return lex + "@" + t.Lang
		case t.Datatype == "" || t.Datatype == XSDString:
			return lex
		default:
			return lex + "^^<" + escapeIRI(t.Datatype) + ">"
		}
	default:
		return fmt.Sprintf("<invalid term %q>", t.Value)
	}
}

// Compare orders terms: IRIs before blank nodes before literals, then by
// value, datatype and language.
func (t Term) Compare(o Term) int {
	switch {
	case t.Kind != o.Kind:
		if t.Kind < o.Kind {
			return -1
		}
		return 1
	case t.Value != o.Value:
		return strings.Compare(t.Value, o.Value)
	case t.Datatype != o.Datatype:
		return strings.Compare(t.Datatype, o.Datatype)
	default:
		return strings.Compare(t.Lang, o.Lang)
	}
}

var literalEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

func escapeLiteral(s string) string { return literalEscaper.Replace(s) }

func escapeIRI(s string) string {
	if !strings.ContainsAny(s, "<>\"{}|^`\\ ") {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune("<>\"{}|^`\\ ", r) {
			fmt.Fprintf(&b, `\u%04X`, r)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Triple is a single statement.
type Triple struct {
	S, P, O Term
}

// T is shorthand for constructing a Triple.
func T(s, p, o Term) Triple { return Triple{S: s, P: p, O: o} }

// String renders the triple as an N-Triples line without the newline.
func (t Triple) String() string {
	return t.S.String() + " " + t.P.String() + " " + t.O.String() + " ."
}

// Compare orders triples by subject, predicate and object.
func (t Triple) Compare(o Triple) int {
	if c := t.S.Compare(o.S); c != 0 {
		return c
	}
	if c := t.P.Compare(o.P); c != 0 {
		return c
	}
	return t.O.Compare(o.O)
}
