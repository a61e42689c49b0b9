package shacl

import (
	"fmt"
	"strings"

	"github.com/bblocks/bblocks/pkg/rdf"
)

// maxDepth bounds sh:node recursion for recursive shapes.
const maxDepth = 32

// Result is one validation result.
type Result struct {
	Focus     rdf.Term
	Path      Path
	Value     rdf.Term // zero when the result is not about a single value
	Shape     rdf.Term
	Component string // constraint component IRI
	Severity  rdf.Term
	Message   string
}

// Report is the outcome of a validation.
type Report struct {
	Conforms bool
	Results  []Result
}

type checker struct {
	data  *rdf.Graph
	depth int
}

// Validate checks data against every targeted shape.
func (s *Shapes) Validate(data *rdf.Graph) *Report {
	c := &checker{data: data}
	r := &Report{}
	for _, sh := range s.roots {
		for _, focus := range sh.targets.focus(data) {
			r.Results = append(r.Results, c.validate(sh, focus)...)
		}
	}
	r.Conforms = len(r.Results) == 0
	return r
}

func (c *checker) validate(s *Shape, focus rdf.Term) []Result {
	if s.Deactivated {
		return nil
	}
	values := []rdf.Term{focus}
	if s.IsProperty() {
		values = s.Path.Values(c.data, focus)
	}

	var out []Result
	for _, con := range s.constraints {
		for _, f := range con.evaluate(c, focus, values) {
			msg := f.message
			if s.Message != "" {
				msg = s.Message
			}
			out = append(out, Result{
				Focus:     focus,
				Path:      s.Path,
				Value:     f.value,
				Shape:     s.ID,
				Component: rdf.NSSH + con.component(),
				Severity:  s.Severity,
				Message:   msg,
			})
		}
	}
	for _, ps := range s.properties {
		for _, v := range values {
			out = append(out, c.validate(ps, v)...)
		}
	}
	return out
}

func (c *checker) conforms(s *Shape, focus rdf.Term) bool {
	if c.depth >= maxDepth {
		return true
	}
	c.depth++
	defer func() { c.depth-- }()
	return len(c.validate(s, focus)) == 0
}

func (c *checker) conformsAll(shapes []*Shape, focus rdf.Term) bool {
	for _, s := range shapes {
		if !c.conforms(s, focus) {
			return false
		}
	}
	return true
}

// Text renders the report in the plain-text layout used by common SHACL
// processors.
func (r *Report) Text() string {
	var b strings.Builder
	b.WriteString("Validation Report\n")
	fmt.Fprintf(&b, "Conforms: %t\n", r.Conforms)
	if r.Conforms {
		return b.String()
	}
	fmt.Fprintf(&b, "Results (%d):\n", len(r.Results))
	for _, res := range r.Results {
		fmt.Fprintf(&b, "Constraint Violation in %s:\n", strings.TrimPrefix(res.Component, rdf.NSSH))
		fmt.Fprintf(&b, "\tSeverity: %s\n", compact(res.Severity))
		fmt.Fprintf(&b, "\tSource Shape: %s\n", res.Shape)
		fmt.Fprintf(&b, "\tFocus Node: %s\n", res.Focus)
		if !res.Value.IsZero() {
			fmt.Fprintf(&b, "\tValue Node: %s\n", res.Value)
		}
		if len(res.Path) > 0 {
			fmt.Fprintf(&b, "\tResult Path: %s\n", res.Path)
		}
		fmt.Fprintf(&b, "\tMessage: %s\n", res.Message)
	}
	return b.String()
}

func compact(t rdf.Term) string {
	if t.IsIRI() && strings.HasPrefix(t.Value, rdf.NSSH) {
		return "sh:" + strings.TrimPrefix(t.Value, rdf.NSSH)
	}
	return t.String()
}

// Graph renders the report as a sh:ValidationReport graph.
func (r *Report) Graph() *rdf.Graph {
	g := rdf.NewGraph()
	report := rdf.FreshBlank()
	g.Add(rdf.T(report, rdfType, shValidationReport))
	g.Add(rdf.T(report, shConforms, rdf.Literal(fmt.Sprint(r.Conforms), rdf.XSDBoolean)))
	for _, res := range r.Results {
		n := rdf.FreshBlank()
		g.Add(rdf.T(report, shResult, n))
		g.Add(rdf.T(n, rdfType, shValidationResult))
		g.Add(rdf.T(n, shFocusNode, res.Focus))
		g.Add(rdf.T(n, shSourceShape, res.Shape))
		g.Add(rdf.T(n, shSourceConstraint, rdf.IRI(res.Component)))
		g.Add(rdf.T(n, shResultSeverity, res.Severity))
		g.Add(rdf.T(n, shResultMessage, rdf.String(res.Message)))
		if !res.Value.IsZero() {
			g.Add(rdf.T(n, shValue, res.Value))
		}
		if len(res.Path) == 1 && !res.Path[0].Inverse {
			g.Add(rdf.T(n, shResultPath, res.Path[0].Predicate))
		}
	}
	return g
}
