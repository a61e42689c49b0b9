package shacl

import (
	"slices"

	"github.com/bblocks/bblocks/pkg/rdf"
)

type targets struct {
	nodes      []rdf.Term
	classes    []rdf.Term
	subjectsOf []rdf.Term
	objectsOf  []rdf.Term
}

func (t targets) empty() bool {
	return len(t.nodes)+len(t.classes)+len(t.subjectsOf)+len(t.objectsOf) == 0
}

func readTargets(g *rdf.Graph, id rdf.Term) targets {
	t := targets{
		nodes:      g.Objects(id, shTargetNode),
		classes:    g.Objects(id, shTargetClass),
		subjectsOf: g.Objects(id, shTargetSubjectsOf),
		objectsOf:  g.Objects(id, shTargetObjectsOf),
	}
	if g.Has(rdf.T(id, rdfType, rdfsClass)) && !slices.Contains(t.classes, id) {
		t.classes = append(t.classes, id)
	}
	return t
}

// focus returns the focus nodes of t in data, sorted and without duplicates.
func (t targets) focus(data *rdf.Graph) []rdf.Term {
	seen := make(map[rdf.Term]bool)
	var out []rdf.Term
	add := func(n rdf.Term) {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	for _, n := range t.nodes {
		add(n)
	}
	for _, c := range t.classes {
		for _, n := range instancesOf(data, c) {
			add(n)
		}
	}
	for _, p := range t.subjectsOf {
		for _, tr := range data.Match(nil, &p, nil) {
			add(tr.S)
		}
	}
	for _, p := range t.objectsOf {
		for _, tr := range data.Match(nil, &p, nil) {
			add(tr.O)
		}
	}
	return sortTerms(out)
}

// subclasses returns class and every class reachable from it through inverse
// rdfs:subClassOf.
func subclasses(g *rdf.Graph, class rdf.Term) []rdf.Term {
	seen := map[rdf.Term]bool{class: true}
	out := []rdf.Term{class}
	for i := 0; i < len(out); i++ {
		for _, sub := range g.Subjects(rdfsSubClassOf, out[i]) {
			if !seen[sub] {
				seen[sub] = true
				out = append(out, sub)
			}
		}
	}
	return out
}

func instancesOf(g *rdf.Graph, class rdf.Term) []rdf.Term {
	var out []rdf.Term
	for _, c := range subclasses(g, class) {
		out = append(out, g.Subjects(rdfType, c)...)
	}
	return out
}

// hasType reports whether n is a SHACL instance of class in g.
func hasType(g *rdf.Graph, n, class rdf.Term) bool {
	seen := make(map[rdf.Term]bool)
	queue := g.Objects(n, rdfType)
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == class {
			return true
		}
		if seen[c] {
			continue
		}
		seen[c] = true
		queue = append(queue, g.Objects(c, rdfsSubClassOf)...)
	}
	return false
}

func sortTerms(ts []rdf.Term) []rdf.Term {
	slices.SortFunc(ts, rdf.Term.Compare)
	return slices.Compact(ts)
}
