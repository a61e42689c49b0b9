package sparql

import (
	"github.com/bblocks/bblocks/pkg/rdf"
)

// Options configures parsing.
type Options struct {
	Base     string            // Base IRI for relative references
	Prefixes map[string]string // Predeclared prefixes, overridable by PREFIX
}

// Bindings pre-binds variables (without the leading ? or $), e.g. "this".
type Bindings map[string]rdf.Term

func (b Bindings) seed() []solution {
	s := make(solution, len(b))
	for k, v := range b {
		s[k] = v
	}
	return []solution{s}
}

// Query is a parsed CONSTRUCT query.
type Query struct {
	template []pattern
	where    *group
}

// ParseQuery parses a CONSTRUCT query.
func ParseQuery(src string, opts Options) (*Query, error) {
	p, err := newParser(src, opts)
	if err != nil {
		return nil, err
	}
	return p.parseQuery()
}

// Construct evaluates q against g and returns a new graph holding the
// instantiated template. g is not modified.
func (q *Query) Construct(g *rdf.Graph, bindings Bindings) *rdf.Graph {
	e := &evaluator{g: g}
	out := rdf.NewGraph()
	for _, sol := range e.group(q.where, bindings.seed()) {
		instantiate(q.template, sol, make(map[string]rdf.Term), func(t rdf.Triple) { out.Add(t) })
	}
	return out
}

// Update is a parsed sequence of update operations.
type Update struct {
	ops []operation
}

// ParseUpdate parses one or more update operations separated by ";".
func ParseUpdate(src string, opts Options) (*Update, error) {
	p, err := newParser(src, opts)
	if err != nil {
		return nil, err
	}
	return p.parseUpdate()
}

// Apply runs the operations against g in order, modifying it in place. Within
// one DELETE/INSERT operation all solutions are computed first, then every
// deletion is applied before any insertion.
func (u *Update) Apply(g *rdf.Graph, bindings Bindings) {
	for _, op := range u.ops {
		switch op.kind {
		case opInsertData:
			instantiate(op.ins, solution{}, make(map[string]rdf.Term), func(t rdf.Triple) { g.Add(t) })
		case opDeleteData:
			instantiate(op.del, solution{}, nil, func(t rdf.Triple) { g.Remove(t) })
		case opModify:
			e := &evaluator{g: g}
			sols := e.group(op.where, bindings.seed())
			var del, ins []rdf.Triple
			for _, sol := range sols {
				instantiate(op.del, sol, nil, func(t rdf.Triple) { del = append(del, t) })
				instantiate(op.ins, sol, make(map[string]rdf.Term), func(t rdf.Triple) { ins = append(ins, t) })
			}
			for _, t := range del {
				g.Remove(t)
			}
			for _, t := range ins {
				g.Add(t)
			}
		}
	}
}

// Construct parses and evaluates a CONSTRUCT query against g.
func Construct(g *rdf.Graph, src string, opts Options) (*rdf.Graph, error) {
	q, err := ParseQuery(src, opts)
	if err != nil {
		return nil, err
	}
	return q.Construct(g, nil), nil
}

// Execute parses and applies an update against g.
func Execute(g *rdf.Graph, src string, opts Options) error {
	u, err := ParseUpdate(src, opts)
	if err != nil {
		return err
	}
	u.Apply(g, nil)
	return nil
}
