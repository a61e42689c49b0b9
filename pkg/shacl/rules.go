package shacl

import (
	"io"
	"slices"
	"strconv"

	"github.com/charmbracelet/log"

	bberrors "github.com/bblocks/bblocks/pkg/errors"
	"github.com/bblocks/bblocks/pkg/rdf"
	"github.com/bblocks/bblocks/pkg/sparql"
)

// maxIterations bounds Infer when Options.Iterate is set.
const maxIterations = 64

// Options configures inference.
type Options struct {
	// Iterate repeats the rule pass until no rule infers a new triple.
	Iterate bool

	Logger *log.Logger
}

// WithDefaults returns a copy of o with zero values replaced.
func (o Options) WithDefaults() Options {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return o
}

type rule struct {
	id          rdf.Term
	order       float64
	deactivated bool
	conditions  []*Shape

	// exactly one of triple and construct is set
	triple    *tripleRule
	construct *sparql.Query
}

type tripleRule struct {
	s, p, o nodeExpr
}

// nodeExpr is a SHACL node expression: sh:this, a constant or a path from
// the focus node.
type nodeExpr struct {
	this     bool
	constant rdf.Term
	path     Path
}

func (e nodeExpr) eval(g *rdf.Graph, focus rdf.Term) []rdf.Term {
	switch {
	case e.this:
		return []rdf.Term{focus}
	case e.path != nil:
		return e.path.Values(g, focus)
	default:
		return []rdf.Term{e.constant}
	}
}

func (p *shapeParser) rule(id rdf.Term) (*rule, error) {
	g := p.g
	r := &rule{id: id}
	if v, ok := g.Object(id, shOrder); ok {
		f, err := strconv.ParseFloat(v.Value, 64)
		if err != nil {
			return nil, bberrors.New(bberrors.ErrCodeInvalidDocument, "rule %s: invalid sh:order %s", id, v)
		}
		r.order = f
	}
	if d, ok := g.Object(id, shDeactivated); ok {
		r.deactivated = d.Value == "true"
	}
	for _, c := range g.Objects(id, shCondition) {
		s, err := p.shape(c)
		if err != nil {
			return nil, err
		}
		r.conditions = append(r.conditions, s)
	}

	switch {
	case g.Has(rdf.T(id, rdfType, shTripleRule)):
		var tr tripleRule
		for _, part := range []struct {
			pred rdf.Term
			dst  *nodeExpr
		}{{shSubject, &tr.s}, {shPredicate, &tr.p}, {shObject, &tr.o}} {
			n, ok := g.Object(id, part.pred)
			if !ok {
				return nil, bberrors.New(bberrors.ErrCodeInvalidDocument, "triple rule %s has no %s", id, part.pred)
			}
			e, err := p.nodeExpr(n)
			if err != nil {
				return nil, err
			}
			*part.dst = e
		}
		r.triple = &tr
	case g.Has(rdf.T(id, rdfType, shSPARQLRule)):
		src, ok := g.Object(id, shConstruct)
		if !ok {
			return nil, bberrors.New(bberrors.ErrCodeInvalidDocument, "SPARQL rule %s has no sh:construct", id)
		}
		q, err := sparql.ParseQuery(src.Value, sparql.Options{Prefixes: p.prefixes(id)})
		if err != nil {
			return nil, bberrors.Wrap(bberrors.ErrCodeInvalidDocument, err, "SPARQL rule %s", id)
		}
		r.construct = q
	default:
		return nil, bberrors.New(bberrors.ErrCodeUnsupported, "rule %s is neither a sh:TripleRule nor a sh:SPARQLRule", id)
	}
	return r, nil
}

func (p *shapeParser) nodeExpr(n rdf.Term) (nodeExpr, error) {
	if n == shThis {
		return nodeExpr{this: true}, nil
	}
	if n.IsBlank() {
		if path, ok := p.g.Object(n, shPath); ok {
			pp, err := parsePath(p.g, path)
			if err != nil {
				return nodeExpr{}, err
			}
			return nodeExpr{path: pp}, nil
		}
		return nodeExpr{}, bberrors.New(bberrors.ErrCodeUnsupported, "unsupported node expression %s", n)
	}
	return nodeExpr{constant: n}, nil
}

// prefixes collects the sh:declare entries reachable through sh:prefixes.
func (p *shapeParser) prefixes(id rdf.Term) map[string]string {
	out := make(map[string]string)
	for _, src := range p.g.Objects(id, shPrefixes) {
		for _, decl := range p.g.Objects(src, shDeclare) {
			prefix, ok1 := p.g.Object(decl, shPrefix)
			ns, ok2 := p.g.Object(decl, shNamespace)
			if ok1 && ok2 {
				out[prefix.Value] = ns.Value
			}
		}
	}
	return out
}

func (r *rule) apply(g *rdf.Graph, focus rdf.Term) []rdf.Triple {
	if r.construct != nil {
		return r.construct.Construct(g, sparql.Bindings{"this": focus}).Triples()
	}
	var out []rdf.Triple
	for _, s := range r.triple.s.eval(g, focus) {
		if s.IsLiteral() {
			continue
		}
		for _, p := range r.triple.p.eval(g, focus) {
			if !p.IsIRI() {
				continue
			}
			for _, o := range r.triple.o.eval(g, focus) {
				out = append(out, rdf.T(s, p, o))
			}
		}
	}
	return out
}

type scheduled struct {
	shape *Shape
	rule  *rule
}

// schedule returns the active rules ordered by sh:order. Ties keep the
// order of their shapes.
func (s *Shapes) schedule() []scheduled {
	var out []scheduled
	for _, sh := range s.roots {
		if sh.Deactivated {
			continue
		}
		for _, r := range sh.rules {
			if !r.deactivated {
				out = append(out, scheduled{sh, r})
			}
		}
	}
	slices.SortStableFunc(out, func(a, b scheduled) int {
		switch {
		case a.rule.order < b.rule.order:
			return -1
		case a.rule.order > b.rule.order:
			return 1
		}
		return 0
	})
	return out
}

// Infer executes the rules of every shape against data, adding the inferred
// triples to data. The triples inferred by one rule are visible to the rules
// that follow it. It returns the number of new triples.
func (s *Shapes) Infer(data *rdf.Graph, opts Options) int {
	opts = opts.WithDefaults()
	rules := s.schedule()
	c := &checker{data: data}

	total := 0
	for iter := 0; iter < maxIterations; iter++ {
		added := 0
		for _, sr := range rules {
			var inferred []rdf.Triple
			for _, focus := range sr.shape.targets.focus(data) {
				if !c.conformsAll(sr.rule.conditions, focus) {
					continue
				}
				inferred = append(inferred, sr.rule.apply(data, focus)...)
			}
			n := 0
			for _, t := range inferred {
				if data.Add(t) {
					n++
				}
			}
			opts.Logger.Debug("rule applied", "shape", sr.shape.ID, "rule", sr.rule.id, "inferred", n)
			added += n
		}
		total += added
		if !opts.Iterate || added == 0 {
			break
		}
	}
	return total
}
