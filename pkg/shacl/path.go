package shacl

import (
	"strings"

	bberrors "github.com/bblocks/bblocks/pkg/errors"
	"github.com/bblocks/bblocks/pkg/rdf"
)

// Step is one predicate of a property path, optionally traversed backwards.
type Step struct {
	Predicate rdf.Term
	Inverse   bool
}

// Path is a sequence path. A single-step path is a plain predicate (or
// inverse predicate). The empty path denotes a node shape.
type Path []Step

// String renders the path in SPARQL property path syntax.
func (p Path) String() string {
	parts := make([]string, len(p))
	for i, s := range p {
		parts[i] = s.Predicate.String()
		if s.Inverse {
			parts[i] = "^" + parts[i]
		}
	}
	return strings.Join(parts, "/")
}

// Values returns the nodes reachable from focus along p, sorted and without
// duplicates.
func (p Path) Values(g *rdf.Graph, focus rdf.Term) []rdf.Term {
	cur := []rdf.Term{focus}
	for _, s := range p {
		seen := make(map[rdf.Term]bool)
		var next []rdf.Term
		for _, n := range cur {
			var vs []rdf.Term
			if s.Inverse {
				vs = g.Subjects(s.Predicate, n)
			} else {
				vs = g.Objects(n, s.Predicate)
			}
			for _, v := range vs {
				if !seen[v] {
					seen[v] = true
					next = append(next, v)
				}
			}
		}
		cur = sortTerms(next)
	}
	return cur
}

// parsePath reads the value of sh:path.
func parsePath(g *rdf.Graph, n rdf.Term) (Path, error) {
	if n.IsIRI() {
		return Path{{Predicate: n}}, nil
	}
	if !n.IsBlank() {
		return nil, bberrors.New(bberrors.ErrCodeInvalidDocument, "invalid sh:path %s", n)
	}
	if inv, ok := g.Object(n, shInversePath); ok {
		if !inv.IsIRI() {
			return nil, bberrors.New(bberrors.ErrCodeUnsupported, "only predicate IRIs are supported in sh:inversePath")
		}
		return Path{{Predicate: inv, Inverse: true}}, nil
	}
	for _, kind := range []rdf.Term{shAlternativePath, shZeroOrMorePath, shOneOrMorePath, shZeroOrOnePath} {
		if _, ok := g.Object(n, kind); ok {
			return nil, bberrors.New(bberrors.ErrCodeUnsupported, "%s paths are not supported", kind.Value[len(rdf.NSSH):])
		}
	}
	items, ok := g.List(n)
	if !ok || len(items) == 0 {
		return nil, bberrors.New(bberrors.ErrCodeInvalidDocument, "invalid sh:path %s", n)
	}
	var out Path
	for _, it := range items {
		sub, err := parsePath(g, it)
		if err != nil {
			return nil, err
		}
		out = append(out, sub...)
	}
	return out, nil
}
