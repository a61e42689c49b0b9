package shacl

import (
	"strconv"
	"strings"

	bberrors "github.com/bblocks/bblocks/pkg/errors"
	"github.com/bblocks/bblocks/pkg/rdf"
	"github.com/bblocks/bblocks/pkg/sparql"
)

// Shape is a parsed node or property shape.
type Shape struct {
	ID          rdf.Term
	Path        Path // empty for node shapes
	Deactivated bool
	Severity    rdf.Term
	Message     string

	targets     targets
	constraints []constraint
	properties  []*Shape
	rules       []*rule
}

// IsProperty reports whether s is a property shape.
func (s *Shape) IsProperty() bool { return len(s.Path) > 0 }

// Shapes is a parsed shapes graph.
type Shapes struct {
	graph *rdf.Graph
	roots []*Shape // shapes with targets, in identifier order
}

// Graph returns the shapes graph the shapes were read from.
func (s *Shapes) Graph() *rdf.Graph { return s.graph }

// Len returns the number of shapes that have targets.
func (s *Shapes) Len() int { return len(s.roots) }

// ParseTurtle parses a Turtle shapes document.
func ParseTurtle(text, base string) (*Shapes, error) {
	g, err := rdf.ParseTurtle(text, base)
	if err != nil {
		return nil, err
	}
	return Parse(g)
}

// Parse reads the shapes of g. Errors are INVALID_DOCUMENT for malformed
// shapes and UNSUPPORTED for SHACL features this package does not implement.
func Parse(g *rdf.Graph) (*Shapes, error) {
	p := &shapeParser{g: g, shapes: make(map[rdf.Term]*Shape)}
	out := &Shapes{graph: g}
	for _, id := range candidates(g) {
		s, err := p.shape(id)
		if err != nil {
			return nil, err
		}
		if !s.targets.empty() {
			out.roots = append(out.roots, s)
		}
	}
	return out, nil
}

// candidates lists the nodes that declare themselves shapes or carry targets
// or rules.
func candidates(g *rdf.Graph) []rdf.Term {
	var ids []rdf.Term
	for _, class := range []rdf.Term{shNodeShape, shPropertyShape} {
		ids = append(ids, g.Subjects(rdfType, class)...)
	}
	for _, p := range []rdf.Term{shTargetNode, shTargetClass, shTargetSubjectsOf, shTargetObjectsOf, shRule} {
		for _, t := range g.Match(nil, &p, nil) {
			ids = append(ids, t.S)
		}
	}
	return sortTerms(ids)
}

type shapeParser struct {
	g      *rdf.Graph
	shapes map[rdf.Term]*Shape
}

func (p *shapeParser) shape(id rdf.Term) (*Shape, error) {
	if s, ok := p.shapes[id]; ok {
		return s, nil
	}
	g := p.g
	s := &Shape{ID: id, Severity: shViolation}
	p.shapes[id] = s

	for _, prop := range unsupported {
		if _, ok := g.Object(id, prop); ok {
			return nil, bberrors.New(bberrors.ErrCodeUnsupported, "shape %s: %s is not supported", id, prop)
		}
	}

	if path, ok := g.Object(id, shPath); ok {
		var err error
		if s.Path, err = parsePath(g, path); err != nil {
			return nil, bberrors.Wrap(bberrors.ErrCodeInvalidDocument, err, "shape %s", id)
		}
	}
	if d, ok := g.Object(id, shDeactivated); ok {
		s.Deactivated = d.Value == "true"
	}
	if sev, ok := g.Object(id, shSeverity); ok {
		s.Severity = sev
	}
	if msg, ok := g.Object(id, shMessage); ok {
		s.Message = msg.Value
	}
	s.targets = readTargets(g, id)

	if err := p.constraints(s); err != nil {
		return nil, bberrors.Wrap(bberrors.ErrCodeInvalidDocument, err, "shape %s", id)
	}

	for _, ps := range g.Objects(id, shProperty) {
		if _, ok := g.Object(ps, shPath); !ok {
			return nil, bberrors.New(bberrors.ErrCodeInvalidDocument, "property shape %s of %s has no sh:path", ps, id)
		}
		sub, err := p.shape(ps)
		if err != nil {
			return nil, err
		}
		s.properties = append(s.properties, sub)
	}

	for _, r := range g.Objects(id, shRule) {
		rl, err := p.rule(r)
		if err != nil {
			return nil, bberrors.Wrap(bberrors.ErrCodeInvalidDocument, err, "shape %s", id)
		}
		s.rules = append(s.rules, rl)
	}
	return s, nil
}

func (p *shapeParser) constraints(s *Shape) error {
	g, id := p.g, s.ID
	if s.IsProperty() {
		for _, c := range []struct {
			pred rdf.Term
			mk   func(int) constraint
		}{
			{shMinCount, func(n int) constraint { return minCount{n} }},
			{shMaxCount, func(n int) constraint { return maxCount{n} }},
		} {
			if v, ok := g.Object(id, c.pred); ok {
				n, err := integer(v)
				if err != nil {
					return err
				}
				s.constraints = append(s.constraints, c.mk(n))
			}
		}
	}
	for _, dt := range g.Objects(id, shDatatype) {
		s.constraints = append(s.constraints, datatypeCheck(dt))
	}
	for _, c := range g.Objects(id, shClass) {
		s.constraints = append(s.constraints, classCheck(c))
	}
	if k, ok := g.Object(id, shNodeKind); ok {
		allowed, known := nodeKinds[k]
		if !known {
			return bberrors.New(bberrors.ErrCodeInvalidDocument, "unknown sh:nodeKind %s", k)
		}
		s.constraints = append(s.constraints, nodeKindCheck(k, allowed))
	}
	for _, v := range g.Objects(id, shHasValue) {
		s.constraints = append(s.constraints, hasValue{v})
	}
	if head, ok := g.Object(id, shIn); ok {
		list, ok := g.List(head)
		if !ok {
			return bberrors.New(bberrors.ErrCodeInvalidDocument, "sh:in is not a well-formed list")
		}
		s.constraints = append(s.constraints, inCheck(list))
	}
	for _, pat := range g.Objects(id, shPattern) {
		flags := ""
		if f, ok := g.Object(id, shFlags); ok {
			flags = f.Value
		}
		re, err := sparql.CompileRegex(pat.Value, flags)
		if err != nil {
			return bberrors.Wrap(bberrors.ErrCodeInvalidDocument, err, "invalid sh:pattern %q", pat.Value)
		}
		s.constraints = append(s.constraints, patternCheck(re, pat.Value))
	}
	for _, c := range []struct {
		pred    rdf.Term
		name    string
		atLeast bool
	}{
		{shMinLength, "MinLengthConstraintComponent", true},
		{shMaxLength, "MaxLengthConstraintComponent", false},
	} {
		if v, ok := g.Object(id, c.pred); ok {
			n, err := integer(v)
			if err != nil {
				return err
			}
			s.constraints = append(s.constraints, lengthCheck(c.name, n, c.atLeast))
		}
	}
	for _, c := range []struct {
		pred rdf.Term
		name string
		op   string
	}{
		{shMinInclusive, "MinInclusiveConstraintComponent", ">="},
		{shMinExclusive, "MinExclusiveConstraintComponent", ">"},
		{shMaxInclusive, "MaxInclusiveConstraintComponent", "<="},
		{shMaxExclusive, "MaxExclusiveConstraintComponent", "<"},
	} {
		if v, ok := g.Object(id, c.pred); ok {
			s.constraints = append(s.constraints, rangeCheck(c.name, c.op, v))
		}
	}
	for _, n := range g.Objects(id, shNode) {
		sub, err := p.shape(n)
		if err != nil {
			return err
		}
		s.constraints = append(s.constraints, nodeCheck{sub})
	}
	return nil
}

func integer(t rdf.Term) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(t.Value))
	if err != nil || n < 0 || !t.IsLiteral() {
		return 0, bberrors.New(bberrors.ErrCodeInvalidDocument, "expected a non-negative integer, got %s", t)
	}
	return n, nil
}
