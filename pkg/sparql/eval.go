package sparql

import "github.com/bblocks/bblocks/pkg/rdf"

// solution maps variable names to terms. Solutions are never modified once
// they have been handed to the next evaluation step.
type solution map[string]rdf.Term

func (s solution) clone() solution {
	c := make(solution, len(s)+2)
	for k, v := range s {
		c[k] = v
	}
	return c
}

type evaluator struct {
	g *rdf.Graph
}

// whereVar returns the variable name a WHERE-clause node binds. Blank nodes
// in patterns behave as variables that cannot be referenced elsewhere.
func whereVar(n node) string {
	if n.kind == nodeBlank {
		return "_:" + n.name
	}
	return n.name
}

func (e *evaluator) group(g *group, in []solution) []solution {
	sols := in
	for _, el := range g.elems {
		if len(sols) == 0 {
			return nil
		}
		switch el := el.(type) {
		case bgp:
			sols = e.bgp(el, sols)
		case subgroup:
			sols = e.group(el.g, sols)
		case optionalElem:
			sols = e.optional(el.g, sols)
		case unionElem:
			sols = e.union(el, sols)
		case bindElem:
			sols = e.bind(el, sols)
		case valuesElem:
			sols = values(el, sols)
		}
	}
	if len(g.filters) == 0 {
		return sols
	}
	out := sols[:0:0]
	for _, s := range sols {
		if e.keep(g.filters, s) {
			out = append(out, s)
		}
	}
	return out
}

func (e *evaluator) keep(filters []expr, s solution) bool {
	for _, f := range filters {
		ok, err := e.ebv(f, s)
		if err != nil || !ok {
			return false
		}
	}
	return true
}

func (e *evaluator) optional(g *group, in []solution) []solution {
	var out []solution
	for _, s := range in {
		ext := e.group(g, []solution{s})
		if len(ext) == 0 {
			out = append(out, s)
			continue
		}
		out = append(out, ext...)
	}
	return out
}

func (e *evaluator) union(u unionElem, in []solution) []solution {
	var out []solution
	for _, b := range u.branches {
		out = append(out, e.group(b, in)...)
	}
	return out
}

// bind extends each solution with the value of the expression. An
// evaluation error leaves the variable unbound; a variable that is already
// bound must agree with the value.
func (e *evaluator) bind(b bindElem, in []solution) []solution {
	out := in[:0:0]
	for _, s := range in {
		t, err := e.eval(b.e, s)
		if err != nil {
			out = append(out, s)
			continue
		}
		if ext, ok := extend(s, []string{b.v}, []rdf.Term{t}); ok {
			out = append(out, ext)
		}
	}
	return out
}

// values joins the solutions with the rows of an inline data block.
func values(v valuesElem, in []solution) []solution {
	var out []solution
	for _, s := range in {
		for _, row := range v.rows {
			var names []string
			var vals []rdf.Term
			for i, t := range row {
				if t != nil {
					names = append(names, v.vars[i])
					vals = append(vals, *t)
				}
			}
			if ext, ok := extend(s, names, vals); ok {
				out = append(out, ext)
			}
		}
	}
	return out
}

// extend binds names to vals in a copy of sol. It fails when a name is
// already bound to a different term, and returns sol itself when nothing
// new is bound.
func extend(sol solution, names []string, vals []rdf.Term) (solution, bool) {
	ext, cloned := sol, false
	for i, name := range names {
		if name == "" {
			continue
		}
		if cur, bound := ext[name]; bound {
			if cur != vals[i] {
				return nil, false
			}
			continue
		}
		if !cloned {
			ext, cloned = sol.clone(), true
		}
		ext[name] = vals[i]
	}
	return ext, true
}

func (e *evaluator) bgp(ps bgp, in []solution) []solution {
	sols := in
	for _, tp := range ps {
		var next []solution
		for _, s := range sols {
			next = append(next, e.match(tp, s)...)
		}
		sols = next
		if len(sols) == 0 {
			return nil
		}
	}
	return sols
}

type slot struct {
	bound *rdf.Term
	name  string
}

func resolveSlot(n node, sol solution) slot {
	if n.kind == nodeTerm {
		t := n.term
		return slot{bound: &t}
	}
	name := whereVar(n)
	if t, ok := sol[name]; ok {
		return slot{bound: &t}
	}
	return slot{name: name}
}

func (e *evaluator) match(tp pattern, sol solution) []solution {
	s, o := resolveSlot(tp.s, sol), resolveSlot(tp.o, sol)

	var out []solution
	if tp.path != nil {
		for _, pr := range e.pairs(tp.path, s.bound, o.bound) {
			if ext, ok := extend(sol, []string{s.name, o.name}, []rdf.Term{pr[0], pr[1]}); ok {
				out = append(out, ext)
			}
		}
		return out
	}

	p := resolveSlot(tp.p, sol)
	for _, t := range e.g.Match(s.bound, p.bound, o.bound) {
		if ext, ok := extend(sol, []string{s.name, p.name, o.name}, []rdf.Term{t.S, t.P, t.O}); ok {
			out = append(out, ext)
		}
	}
	return out
}

// pairs returns the (start, end) node pairs connected by pth, restricted to
// the given start and end when they are not nil.
func (e *evaluator) pairs(pth *path, from, to *rdf.Term) [][2]rdf.Term {
	var out [][2]rdf.Term
	switch pth.kind {
	case pathLink:
		p := pth.iri
		for _, t := range e.g.Match(from, &p, to) {
			out = append(out, [2]rdf.Term{t.S, t.O})
		}
	case pathInverse:
		for _, pr := range e.pairs(pth.subs[0], to, from) {
			out = append(out, [2]rdf.Term{pr[1], pr[0]})
		}
	case pathAlt:
		for _, sub := range pth.subs {
			out = append(out, e.pairs(sub, from, to)...)
		}
	case pathSeq:
		rest := pth.subs[1]
		if len(pth.subs) > 2 {
			rest = &path{kind: pathSeq, subs: pth.subs[1:]}
		}
		for _, head := range e.pairs(pth.subs[0], from, nil) {
			mid := head[1]
			for _, tail := range e.pairs(rest, &mid, to) {
				out = append(out, [2]rdf.Term{head[0], tail[1]})
			}
		}
	}
	return out
}

// instantiate emits the triples of a template for one solution. Triples with
// unbound variables or invalid positions are skipped. fresh maps template
// blank node labels to the blank nodes of this solution.
func instantiate(tpl []pattern, sol solution, fresh map[string]rdf.Term, emit func(rdf.Triple)) {
	for _, tp := range tpl {
		s, ok1 := templateTerm(tp.s, sol, fresh)
		p, ok2 := templateTerm(tp.p, sol, fresh)
		o, ok3 := templateTerm(tp.o, sol, fresh)
		if !ok1 || !ok2 || !ok3 || s.IsLiteral() || !p.IsIRI() {
			continue
		}
		emit(rdf.T(s, p, o))
	}
}

func templateTerm(n node, sol solution, fresh map[string]rdf.Term) (rdf.Term, bool) {
	switch n.kind {
	case nodeVar:
		t, ok := sol[n.name]
		return t, ok
	case nodeBlank:
		if t, ok := fresh[n.name]; ok {
			return t, true
		}
		t := rdf.FreshBlank()
		fresh[n.name] = t
		return t, true
	default:
		return n.term, true
	}
}
