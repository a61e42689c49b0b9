package sparql

import (
	"fmt"
	"net/url"
	"strings"

	bberrors "github.com/bblocks/bblocks/pkg/errors"
	"github.com/bblocks/bblocks/pkg/rdf"
)

// unsupportedKeywords are recognized SPARQL keywords this package does not
// implement.
var unsupportedKeywords = map[string]bool{
	"SELECT": true, "ASK": true, "DESCRIBE": true, "MINUS": true,
	"GRAPH": true, "SERVICE": true, "WITH": true,
	"USING": true, "LOAD": true, "CLEAR": true, "DROP": true, "CREATE": true,
	"ADD": true, "MOVE": true, "COPY": true, "FROM": true, "ORDER": true,
	"LIMIT": true, "OFFSET": true, "GROUP": true, "HAVING": true,
}

type parser struct {
	toks     []token
	pos      int
	base     string
	prefixes map[string]string
	anon     int
}

func newParser(src string, opts Options) (*parser, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks, base: opts.Base, prefixes: make(map[string]string, len(opts.Prefixes))}
	for k, v := range opts.Prefixes {
		p.prefixes[k] = v
	}
	return p, nil
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) peekAt(n int) token {
	if p.pos+n < len(p.toks) {
		return p.toks[p.pos+n]
	}
	return p.toks[len(p.toks)-1]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tEOF {
		p.pos++
	}
	return t
}

func (p *parser) accept(s string) bool {
	if p.peek().is(s) {
		p.pos++
		return true
	}
	return false
}

func (p *parser) expect(s string) error {
	if !p.accept(s) {
		return p.unexpected(fmt.Sprintf("expected %q", s))
	}
	return nil
}

func (p *parser) unexpected(want string) error {
	t := p.peek()
	if t.kind == tWord && unsupportedKeywords[strings.ToUpper(t.text)] {
		return bberrors.New(bberrors.ErrCodeUnsupported, "SPARQL %s is not supported", strings.ToUpper(t.text))
	}
	return bberrors.New(bberrors.ErrCodeSyntax, "offset %d: %s, found %s", t.pos, want, t)
}

// prologue parses PREFIX and BASE declarations.
func (p *parser) prologue() error {
	for {
		switch {
		case p.accept("PREFIX"):
			name := p.peek()
			if name.kind != tPName || !strings.HasSuffix(name.text, ":") {
				return p.unexpected("expected prefix name")
			}
			p.next()
			iri := p.peek()
			if iri.kind != tIRI {
				return p.unexpected("expected IRI")
			}
			p.next()
			p.prefixes[strings.TrimSuffix(name.text, ":")] = p.resolve(iri.text)
		case p.accept("BASE"):
			iri := p.peek()
			if iri.kind != tIRI {
				return p.unexpected("expected IRI")
			}
			p.next()
			p.base = p.resolve(iri.text)
		default:
			return nil
		}
	}
}

func (p *parser) resolve(ref string) string { return resolveIRI(p.base, ref) }

func resolveIRI(base, ref string) string {
	if base == "" {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil || r.IsAbs() {
		return ref
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}

func (p *parser) expandPName(t token) (string, error) {
	prefix, local, _ := strings.Cut(t.text, ":")
	ns, ok := p.prefixes[prefix]
	if !ok {
		return "", bberrors.New(bberrors.ErrCodeSyntax, "offset %d: undefined prefix %q", t.pos, prefix)
	}
	return ns + local, nil
}

// parseQuery parses a CONSTRUCT query.
func (p *parser) parseQuery() (*Query, error) {
	if err := p.prologue(); err != nil {
		return nil, err
	}
	if !p.accept("CONSTRUCT") {
		return nil, p.unexpected("expected CONSTRUCT")
	}

	q := &Query{}
	if p.accept("WHERE") {
		ps, err := p.triplesBlockBraced(false)
		if err != nil {
			return nil, err
		}
		q.template = ps
		q.where = &group{elems: []element{bgp(ps)}}
	} else {
		tpl, err := p.triplesBlockBraced(true)
		if err != nil {
			return nil, err
		}
		p.accept("WHERE")
		where, err := p.groupPattern()
		if err != nil {
			return nil, err
		}
		q.template, q.where = tpl, where
	}
	if p.peek().kind != tEOF {
		return nil, p.unexpected("expected end of query")
	}
	return q, nil
}

// parseUpdate parses a sequence of update operations.
func (p *parser) parseUpdate() (*Update, error) {
	u := &Update{}
	for {
		if err := p.prologue(); err != nil {
			return nil, err
		}
		if p.peek().kind == tEOF {
			break
		}
		op, err := p.operation()
		if err != nil {
			return nil, err
		}
		u.ops = append(u.ops, op)
		if !p.accept(";") {
			break
		}
	}
	if p.peek().kind != tEOF {
		return nil, p.unexpected("expected ';' or end of update")
	}
	if len(u.ops) == 0 {
		return nil, bberrors.New(bberrors.ErrCodeSyntax, "empty update")
	}
	return u, nil
}

func (p *parser) operation() (operation, error) {
	switch {
	case p.peek().is("INSERT") && p.peekAt(1).is("DATA"):
		p.pos += 2
		ps, err := p.dataBlock(false)
		return operation{kind: opInsertData, ins: ps}, err
	case p.peek().is("DELETE") && p.peekAt(1).is("DATA"):
		p.pos += 2
		ps, err := p.dataBlock(true)
		return operation{kind: opDeleteData, del: ps}, err
	case p.peek().is("DELETE") && p.peekAt(1).is("WHERE"):
		p.pos += 2
		ps, err := p.triplesBlockBraced(false)
		if err != nil {
			return operation{}, err
		}
		if err := noBlanks(ps, "DELETE WHERE"); err != nil {
			return operation{}, err
		}
		return operation{kind: opModify, del: ps, where: &group{elems: []element{bgp(ps)}}}, nil
	case p.peek().is("DELETE") || p.peek().is("INSERT"):
		op := operation{kind: opModify}
		if p.accept("DELETE") {
			ps, err := p.triplesBlockBraced(true)
			if err != nil {
				return op, err
			}
			if err := noBlanks(ps, "DELETE"); err != nil {
				return op, err
			}
			op.del = ps
		}
		if p.accept("INSERT") {
			ps, err := p.triplesBlockBraced(true)
			if err != nil {
				return op, err
			}
			op.ins = ps
		}
		if !p.accept("WHERE") {
			return op, p.unexpected("expected WHERE")
		}
		where, err := p.groupPattern()
		if err != nil {
			return op, err
		}
		op.where = where
		return op, nil
	default:
		return operation{}, p.unexpected("expected INSERT or DELETE")
	}
}

func noBlanks(ps []pattern, where string) error {
	for _, tp := range ps {
		for _, n := range []node{tp.s, tp.p, tp.o} {
			if n.kind == nodeBlank {
				return bberrors.New(bberrors.ErrCodeSyntax, "blank nodes are not allowed in %s", where)
			}
		}
	}
	return nil
}

func (p *parser) dataBlock(isDelete bool) ([]pattern, error) {
	ps, err := p.triplesBlockBraced(true)
	if err != nil {
		return nil, err
	}
	for _, tp := range ps {
		for _, n := range []node{tp.s, tp.p, tp.o} {
			if n.kind == nodeVar {
				return nil, bberrors.New(bberrors.ErrCodeSyntax, "variables are not allowed in DATA blocks")
			}
		}
	}
	if isDelete {
		if err := noBlanks(ps, "DELETE DATA"); err != nil {
			return nil, err
		}
	}
	return ps, nil
}

// triplesBlockBraced parses "{ triples }". allowEmpty permits "{ }".
func (p *parser) triplesBlockBraced(allowEmpty bool) ([]pattern, error) {
	if err := p.expect("{"); err != nil {
		return nil, err
	}
	var ps []pattern
	for !p.accept("}") {
		added, err := p.triplesSameSubject(&ps)
		if err != nil {
			return nil, err
		}
		if !added {
			return nil, p.unexpected("expected triple pattern")
		}
		if !p.accept(".") && !p.peek().is("}") {
			return nil, p.unexpected("expected '.' or '}'")
		}
	}
	if len(ps) == 0 && !allowEmpty {
		return nil, bberrors.New(bberrors.ErrCodeSyntax, "empty triple block")
	}
	for _, tp := range ps {
		if tp.path != nil {
			return nil, bberrors.New(bberrors.ErrCodeSyntax, "property paths are only allowed in WHERE patterns")
		}
	}
	return ps, nil
}

// groupPattern parses "{ ... }" with triples, OPTIONAL, FILTER, BIND,
// VALUES and nested groups joined by UNION.
func (p *parser) groupPattern() (*group, error) {
	if err := p.expect("{"); err != nil {
		return nil, err
	}
	g := &group{}
	var cur bgp
	flush := func() {
		if len(cur) > 0 {
			g.elems = append(g.elems, cur)
			cur = nil
		}
	}
	for !p.accept("}") {
		switch {
		case p.accept("OPTIONAL"):
			flush()
			sub, err := p.groupPattern()
			if err != nil {
				return nil, err
			}
			g.elems = append(g.elems, optionalElem{g: sub})
			p.accept(".")
		case p.accept("FILTER"):
			e, err := p.constraint()
			if err != nil {
				return nil, err
			}
			g.filters = append(g.filters, e)
			p.accept(".")
		case p.accept("BIND"):
			flush()
			b, err := p.bind()
			if err != nil {
				return nil, err
			}
			g.elems = append(g.elems, b)
			p.accept(".")
		case p.accept("VALUES"):
			flush()
			v, err := p.values()
			if err != nil {
				return nil, err
			}
			g.elems = append(g.elems, v)
			p.accept(".")
		case p.peek().is("{"):
			flush()
			sub, err := p.groupPattern()
			if err != nil {
				return nil, err
			}
			if !p.peek().is("UNION") {
				g.elems = append(g.elems, subgroup{g: sub})
				p.accept(".")
				break
			}
			u := unionElem{branches: []*group{sub}}
			for p.accept("UNION") {
				alt, err := p.groupPattern()
				if err != nil {
					return nil, err
				}
				u.branches = append(u.branches, alt)
			}
			g.elems = append(g.elems, u)
			p.accept(".")
		default:
			ps := []pattern(cur)
			added, err := p.triplesSameSubject(&ps)
			if err != nil {
				return nil, err
			}
			if !added {
				return nil, p.unexpected("expected triple pattern, OPTIONAL, FILTER, BIND, VALUES or '}'")
			}
			cur = bgp(ps)
			if !p.accept(".") && !p.startsGroupElem() {
				return nil, p.unexpected("expected '.' or '}'")
			}
		}
	}
	flush()
	return g, nil
}

func (p *parser) startsGroupElem() bool {
	for _, k := range []string{"}", "{", "OPTIONAL", "FILTER", "BIND", "VALUES"} {
		if p.peek().is(k) {
			return true
		}
	}
	return false
}

// bind parses "( expression AS ?var )" after BIND.
func (p *parser) bind() (bindElem, error) {
	if err := p.expect("("); err != nil {
		return bindElem{}, err
	}
	e, err := p.expression()
	if err != nil {
		return bindElem{}, err
	}
	if err := p.expect("AS"); err != nil {
		return bindElem{}, err
	}
	v := p.peek()
	if v.kind != tVar {
		return bindElem{}, p.unexpected("expected variable")
	}
	p.next()
	return bindElem{e: e, v: v.text}, p.expect(")")
}

// values parses an inline data block after VALUES, either "?x { ... }" or
// "(?x ?y) { ( ... ) ... }".
func (p *parser) values() (valuesElem, error) {
	var v valuesElem
	multi := p.accept("(")
	for {
		t := p.peek()
		if t.kind != tVar {
			break
		}
		p.next()
		v.vars = append(v.vars, t.text)
		if !multi {
			break
		}
	}
	if multi {
		if err := p.expect(")"); err != nil {
			return v, err
		}
	} else if len(v.vars) == 0 {
		return v, p.unexpected("expected variable")
	}
	if err := p.expect("{"); err != nil {
		return v, err
	}
	for !p.accept("}") {
		if multi {
			if err := p.expect("("); err != nil {
				return v, err
			}
		}
		var row []*rdf.Term
		for len(row) < len(v.vars) {
			if p.accept("UNDEF") {
				row = append(row, nil)
				continue
			}
			if multi && p.peek().is(")") {
				break
			}
			t, err := p.term()
			if err != nil {
				return v, err
			}
			row = append(row, &t)
		}
		if multi {
			if err := p.expect(")"); err != nil {
				return v, err
			}
		}
		if len(row) != len(v.vars) {
			return v, bberrors.New(bberrors.ErrCodeSyntax, "VALUES row has %d values for %d variables", len(row), len(v.vars))
		}
		v.rows = append(v.rows, row)
	}
	return v, nil
}

// triplesSameSubject parses one subject with its property list, appending
// the resulting patterns. It reports false without consuming input when no
// subject starts at the current token.
func (p *parser) triplesSameSubject(out *[]pattern) (bool, error) {
	if p.peek().is("[") {
		p.next()
		subj := p.freshBlank()
		if !p.accept("]") {
			if err := p.propertyList(subj, out); err != nil {
				return false, err
			}
			if err := p.expect("]"); err != nil {
				return false, err
			}
			if p.peek().is(".") || p.peek().is("}") {
				return true, nil
			}
		}
		return true, p.propertyList(subj, out)
	}
	if !p.startsTerm() {
		return false, nil
	}
	subj, err := p.object(out)
	if err != nil {
		return false, err
	}
	return true, p.propertyList(subj, out)
}

func (p *parser) startsTerm() bool {
	t := p.peek()
	switch t.kind {
	case tIRI, tPName, tVar, tString, tInteger, tDecimal, tDouble, tBlank:
		return true
	case tWord:
		return t.is("true") || t.is("false")
	case tPunct:
		return t.text == "(" || t.text == "["
	}
	return false
}

func (p *parser) propertyList(subj node, out *[]pattern) error {
	for {
		verb, pth, err := p.verb()
		if err != nil {
			return err
		}
		for {
			obj, err := p.object(out)
			if err != nil {
				return err
			}
			*out = append(*out, pattern{s: subj, p: verb, o: obj, path: pth})
			if !p.accept(",") {
				break
			}
		}
		if !p.accept(";") {
			return nil
		}
		for p.accept(";") {
		}
		if t := p.peek(); t.is(".") || t.is("]") || t.is("}") {
			return nil
		}
	}
}

// verb parses a predicate. A property path other than a plain IRI is
// returned as a path with a zero node.
func (p *parser) verb() (node, *path, error) {
	if t := p.peek(); t.kind == tVar {
		p.next()
		return node{kind: nodeVar, name: t.text}, nil, nil
	}
	pth, err := p.pathAlt()
	if err != nil {
		return node{}, nil, err
	}
	if pth.kind == pathLink {
		return node{kind: nodeTerm, term: pth.iri}, nil, nil
	}
	return node{}, pth, nil
}

func (p *parser) pathAlt() (*path, error) {
	first, err := p.pathSeq()
	if err != nil {
		return nil, err
	}
	if !p.peek().is("|") {
		return first, nil
	}
	alt := &path{kind: pathAlt, subs: []*path{first}}
	for p.accept("|") {
		next, err := p.pathSeq()
		if err != nil {
			return nil, err
		}
		alt.subs = append(alt.subs, next)
	}
	return alt, nil
}

func (p *parser) pathSeq() (*path, error) {
	first, err := p.pathElt()
	if err != nil {
		return nil, err
	}
	if !p.peek().is("/") {
		return first, nil
	}
	seq := &path{kind: pathSeq, subs: []*path{first}}
	for p.accept("/") {
		next, err := p.pathElt()
		if err != nil {
			return nil, err
		}
		seq.subs = append(seq.subs, next)
	}
	return seq, nil
}

func (p *parser) pathElt() (*path, error) {
	inverse := p.accept("^")
	var elt *path
	t := p.peek()
	switch {
	case t.kind == tWord && t.text == "a":
		p.next()
		elt = &path{kind: pathLink, iri: rdf.IRI(rdf.RDFType)}
	case t.kind == tIRI || t.kind == tPName:
		p.next()
		iri, err := p.iri(t)
		if err != nil {
			return nil, err
		}
		elt = &path{kind: pathLink, iri: rdf.IRI(iri)}
	case t.is("("):
		p.next()
		sub, err := p.pathAlt()
		if err != nil {
			return nil, err
		}
		if err := p.expect(")"); err != nil {
			return nil, err
		}
		elt = sub
	case t.is("!"):
		return nil, bberrors.New(bberrors.ErrCodeUnsupported, "SPARQL negated property sets are not supported")
	default:
		return nil, p.unexpected("expected predicate")
	}
	if t := p.peek(); t.is("*") || t.is("+") {
		return nil, bberrors.New(bberrors.ErrCodeUnsupported, "SPARQL property path modifier %s is not supported", t.text)
	}
	if inverse {
		return &path{kind: pathInverse, subs: []*path{elt}}, nil
	}
	return elt, nil
}

func (p *parser) iri(t token) (string, error) {
	if t.kind == tPName {
		return p.expandPName(t)
	}
	return p.resolve(t.text), nil
}

// object parses a term, variable, blank node property list or collection.
func (p *parser) object(out *[]pattern) (node, error) {
	t := p.peek()
	switch {
	case t.is("["):
		p.next()
		b := p.freshBlank()
		if p.accept("]") {
			return b, nil
		}
		if err := p.propertyList(b, out); err != nil {
			return node{}, err
		}
		return b, p.expect("]")
	case t.is("("):
		p.next()
		return p.collection(out)
	case t.kind == tVar:
		p.next()
		return node{kind: nodeVar, name: t.text}, nil
	case t.kind == tBlank:
		p.next()
		return node{kind: nodeBlank, name: t.text}, nil
	}
	term, err := p.term()
	return node{kind: nodeTerm, term: term}, err
}

func (p *parser) collection(out *[]pattern) (node, error) {
	var items []node
	for !p.accept(")") {
		if p.peek().kind == tEOF {
			return node{}, p.unexpected("expected ')'")
		}
		n, err := p.object(out)
		if err != nil {
			return node{}, err
		}
		items = append(items, n)
	}
	head := node{kind: nodeTerm, term: rdf.IRI(rdf.RDFNil)}
	for i := len(items) - 1; i >= 0; i-- {
		cell := p.freshBlank()
		*out = append(*out,
			pattern{s: cell, p: node{kind: nodeTerm, term: rdf.IRI(rdf.RDFFirst)}, o: items[i]},
			pattern{s: cell, p: node{kind: nodeTerm, term: rdf.IRI(rdf.RDFRest)}, o: head},
		)
		head = cell
	}
	return head, nil
}

func (p *parser) freshBlank() node {
	p.anon++
	return node{kind: nodeBlank, name: fmt.Sprintf(".anon%d", p.anon)}
}

// term parses an IRI or literal.
func (p *parser) term() (rdf.Term, error) {
	t := p.peek()
	switch t.kind {
	case tIRI, tPName:
		p.next()
		iri, err := p.iri(t)
		return rdf.IRI(iri), err
	case tInteger:
		p.next()
		return rdf.Literal(strings.TrimPrefix(t.text, "+"), rdf.XSDInteger), nil
	case tDecimal:
		p.next()
		return rdf.Literal(strings.TrimPrefix(t.text, "+"), rdf.XSDDecimal), nil
	case tDouble:
		p.next()
		return rdf.Literal(strings.TrimPrefix(t.text, "+"), rdf.XSDDouble), nil
	case tWord:
		if t.is("true") || t.is("false") {
			p.next()
			return rdf.Literal(strings.ToLower(t.text), rdf.XSDBoolean), nil
		}
	case tString:
		p.next()
		switch next := p.peek(); next.kind {
		case tLang:
			p.next()
			return rdf.LangLiteral(t.text, next.text), nil
		case tDatatype:
			p.next()
			dt := p.peek()
			if dt.kind != tIRI && dt.kind != tPName {
				return rdf.Term{}, p.unexpected("expected datatype IRI")
			}
			p.next()
			iri, err := p.iri(dt)
			return rdf.Literal(t.text, iri), err
		}
		return rdf.String(t.text), nil
	}
	return rdf.Term{}, p.unexpected("expected IRI or literal")
}
