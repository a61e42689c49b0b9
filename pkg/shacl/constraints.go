package shacl

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/bblocks/bblocks/pkg/rdf"
	"github.com/bblocks/bblocks/pkg/sparql"
)

// finding is one constraint violation before it is turned into a Result.
type finding struct {
	value   rdf.Term // zero when the finding is about the value set
	message string
}

type constraint interface {
	// component is the local name of the SHACL constraint component.
	component() string
	evaluate(c *checker, focus rdf.Term, values []rdf.Term) []finding
}

type minCount struct{ n int }

func (minCount) component() string { return "MinCountConstraintComponent" }

func (k minCount) evaluate(_ *checker, _ rdf.Term, values []rdf.Term) []finding {
	if len(values) < k.n {
		return []finding{{message: fmt.Sprintf("Less than %d values", k.n)}}
	}
	return nil
}

type maxCount struct{ n int }

func (maxCount) component() string { return "MaxCountConstraintComponent" }

func (k maxCount) evaluate(_ *checker, _ rdf.Term, values []rdf.Term) []finding {
	if len(values) > k.n {
		return []finding{{message: fmt.Sprintf("More than %d values", k.n)}}
	}
	return nil
}

type hasValue struct{ v rdf.Term }

func (hasValue) component() string { return "HasValueConstraintComponent" }

func (k hasValue) evaluate(_ *checker, _ rdf.Term, values []rdf.Term) []finding {
	if slices.Contains(values, k.v) {
		return nil
	}
	return []finding{{message: fmt.Sprintf("Missing expected value %s", k.v)}}
}

// valueCheck adapts a per-value predicate to a constraint.
type valueCheck struct {
	name  string
	ok    func(c *checker, v rdf.Term) bool
	label func(v rdf.Term) string
}

func (k valueCheck) component() string { return k.name }

func (k valueCheck) evaluate(c *checker, _ rdf.Term, values []rdf.Term) []finding {
	var out []finding
	for _, v := range values {
		if !k.ok(c, v) {
			out = append(out, finding{value: v, message: k.label(v)})
		}
	}
	return out
}

func datatypeCheck(dt rdf.Term) constraint {
	return valueCheck{
		name: "DatatypeConstraintComponent",
		ok: func(_ *checker, v rdf.Term) bool {
			return v.IsLiteral() && v.Datatype == dt.Value
		},
		label: func(v rdf.Term) string { return fmt.Sprintf("Value %s is not of datatype %s", v, dt) },
	}
}

func classCheck(class rdf.Term) constraint {
	return valueCheck{
		name: "ClassConstraintComponent",
		ok: func(c *checker, v rdf.Term) bool {
			return !v.IsLiteral() && hasType(c.data, v, class)
		},
		label: func(v rdf.Term) string { return fmt.Sprintf("Value %s is not an instance of %s", v, class) },
	}
}

var nodeKinds = map[rdf.Term][]rdf.Kind{
	shIRI:                {rdf.KindIRI},
	shBlankNode:          {rdf.KindBlank},
	shLiteral:            {rdf.KindLiteral},
	shBlankNodeOrIRI:     {rdf.KindBlank, rdf.KindIRI},
	shBlankNodeOrLiteral: {rdf.KindBlank, rdf.KindLiteral},
	shIRIOrLiteral:       {rdf.KindIRI, rdf.KindLiteral},
}

func nodeKindCheck(kind rdf.Term, allowed []rdf.Kind) constraint {
	return valueCheck{
		name:  "NodeKindConstraintComponent",
		ok:    func(_ *checker, v rdf.Term) bool { return slices.Contains(allowed, v.Kind) },
		label: func(v rdf.Term) string { return fmt.Sprintf("Value %s does not have node kind %s", v, kind) },
	}
}

func inCheck(list []rdf.Term) constraint {
	return valueCheck{
		name: "InConstraintComponent",
		ok:   func(_ *checker, v rdf.Term) bool { return slices.Contains(list, v) },
		label: func(v rdf.Term) string {
			parts := make([]string, len(list))
			for i, t := range list {
				parts[i] = t.String()
			}
			return fmt.Sprintf("Value %s not in list [%s]", v, strings.Join(parts, ", "))
		},
	}
}

func patternCheck(re *regexp.Regexp, src string) constraint {
	return valueCheck{
		name:  "PatternConstraintComponent",
		ok:    func(_ *checker, v rdf.Term) bool { return !v.IsBlank() && re.MatchString(v.Value) },
		label: func(v rdf.Term) string { return fmt.Sprintf("Value %s does not match pattern %q", v, src) },
	}
}

func lengthCheck(name string, n int, atLeast bool) constraint {
	return valueCheck{
		name: name,
		ok: func(_ *checker, v rdf.Term) bool {
			if v.IsBlank() {
				return false
			}
			l := utf8.RuneCountInString(v.Value)
			if atLeast {
				return l >= n
			}
			return l <= n
		},
		label: func(v rdf.Term) string {
			if atLeast {
				return fmt.Sprintf("Value %s has less than %d characters", v, n)
			}
			return fmt.Sprintf("Value %s has more than %d characters", v, n)
		},
	}
}

// rangeCheck compares values against bound with op ("<", "<=", ">", ">=").
func rangeCheck(name, op string, bound rdf.Term) constraint {
	return valueCheck{
		name: name,
		ok: func(_ *checker, v rdf.Term) bool {
			c, ok := compareLiterals(v, bound)
			if !ok {
				return false
			}
			switch op {
			case "<":
				return c < 0
			case "<=":
				return c <= 0
			case ">":
				return c > 0
			default:
				return c >= 0
			}
		},
		label: func(v rdf.Term) string { return fmt.Sprintf("Value %s is not %s %s", v, op, bound) },
	}
}

// compareLiterals orders numeric literals by value and other literals of the
// same datatype lexically.
func compareLiterals(a, b rdf.Term) (int, bool) {
	if x, ok := sparql.Numeric(a); ok {
		y, ok := sparql.Numeric(b)
		if !ok {
			return 0, false
		}
		switch {
		case x < y:
			return -1, true
		case x > y:
			return 1, true
		}
		return 0, true
	}
	if !a.IsLiteral() || !b.IsLiteral() || a.Datatype != b.Datatype {
		return 0, false
	}
	return strings.Compare(a.Value, b.Value), true
}

type nodeCheck struct{ shape *Shape }

func (nodeCheck) component() string { return "NodeConstraintComponent" }

func (k nodeCheck) evaluate(c *checker, _ rdf.Term, values []rdf.Term) []finding {
	var out []finding
	for _, v := range values {
		if !c.conforms(k.shape, v) {
			out = append(out, finding{value: v, message: fmt.Sprintf("Value %s does not conform to shape %s", v, k.shape.ID)})
		}
	}
	return out
}
