package rdf

import (
	"slices"
)

// Graph is a mutable set of triples. The zero value is not usable; create
// graphs with [NewGraph]. A Graph is not safe for concurrent mutation.
type Graph struct {
	triples   map[Triple]struct{}
	bySubject map[Term]map[Triple]struct{}
}

// NewGraph returns an empty graph, optionally seeded with triples.
func NewGraph(triples ...Triple) *Graph {
	g := &Graph{
		triples:   make(map[Triple]struct{}),
		bySubject: make(map[Term]map[Triple]struct{}),
	}
	for _, t := range triples {
		g.Add(t)
	}
	return g
}

// Len returns the number of triples.
func (g *Graph) Len() int { return len(g.triples) }

// Add inserts t and reports whether it was new.
func (g *Graph) Add(t Triple) bool {
	if _, ok := g.triples[t]; ok {
		return false
	}
	g.triples[t] = struct{}{}
	idx := g.bySubject[t.S]
	if idx == nil {
		idx = make(map[Triple]struct{})
		g.bySubject[t.S] = idx
	}
	idx[t] = struct{}{}
	return true
}

// AddAll inserts every triple of other and returns the number of new triples.
func (g *Graph) AddAll(other *Graph) int {
	n := 0
	for t := range other.triples {
		if g.Add(t) {
			n++
		}
	}
	return n
}

// Remove deletes t and reports whether it was present.
func (g *Graph) Remove(t Triple) bool {
	if _, ok := g.triples[t]; !ok {
		return false
	}
	delete(g.triples, t)
	idx := g.bySubject[t.S]
	delete(idx, t)
	if len(idx) == 0 {
		delete(g.bySubject, t.S)
	}
	return true
}

// Has reports whether t is in the graph.
func (g *Graph) Has(t Triple) bool {
	_, ok := g.triples[t]
	return ok
}

// Match returns the triples matching the pattern, sorted. A nil term matches
// anything.
func (g *Graph) Match(s, p, o *Term) []Triple {
	var out []Triple
	consider := func(t Triple) {
		if (p == nil || t.P == *p) && (o == nil || t.O == *o) {
			out = append(out, t)
		}
	}
	if s != nil {
		for t := range g.bySubject[*s] {
			consider(t)
		}
	} else {
		for t := range g.triples {
			consider(t)
		}
	}
	slices.SortFunc(out, Triple.Compare)
	return out
}

// Objects returns the objects of triples with subject s and predicate p.
func (g *Graph) Objects(s, p Term) []Term {
	ts := g.Match(&s, &p, nil)
	out := make([]Term, len(ts))
	for i, t := range ts {
		out[i] = t.O
	}
	return out
}

// Object returns the first object of (s, p, ?) in sort order.
func (g *Graph) Object(s, p Term) (Term, bool) {
	objs := g.Objects(s, p)
	if len(objs) == 0 {
		return Term{}, false
	}
	return objs[0], true
}

// Subjects returns the distinct subjects of triples with predicate p and
// object o, sorted.
func (g *Graph) Subjects(p, o Term) []Term {
	ts := g.Match(nil, &p, &o)
	out := make([]Term, 0, len(ts))
	for _, t := range ts {
		if len(out) == 0 || out[len(out)-1] != t.S {
			out = append(out, t.S)
		}
	}
	return out
}

// Triples returns every triple, sorted.
func (g *Graph) Triples() []Triple {
	out := make([]Triple, 0, len(g.triples))
	for t := range g.triples {
		out = append(out, t)
	}
	slices.SortFunc(out, Triple.Compare)
	return out
}

// Clone returns an independent copy of g.
func (g *Graph) Clone() *Graph {
	c := NewGraph()
	c.AddAll(g)
	return c
}

// List reads the RDF collection starting at head. It returns false when the
// collection is malformed (missing rdf:first, several rdf:rest, or a cycle).
func (g *Graph) List(head Term) ([]Term, bool) {
	var out []Term
	seen := make(map[Term]bool)
	nilTerm := IRI(RDFNil)
	for cur := head; cur != nilTerm; {
		if seen[cur] {
			return nil, false
		}
		seen[cur] = true
		first := g.Objects(cur, IRI(RDFFirst))
		rest := g.Objects(cur, IRI(RDFRest))
		if len(first) != 1 || len(rest) != 1 {
			return nil, false
		}
		out = append(out, first[0])
		cur = rest[0]
	}
	return out, true
}

// relabel returns a function mapping parser-assigned blank labels to fresh
// ones, consistently within one document.
func relabel() func(label string) Term {
	m := make(map[string]Term)
	return func(label string) Term {
		if t, ok := m[label]; ok {
			return t
		}
		t := FreshBlank()
		m[label] = t
		return t
	}
}
