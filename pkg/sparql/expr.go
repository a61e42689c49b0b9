package sparql

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	bberrors "github.com/bblocks/bblocks/pkg/errors"
	"github.com/bblocks/bblocks/pkg/rdf"
)

type expr interface{}

type varExpr struct{ name string }

type constExpr struct{ term rdf.Term }

type notExpr struct{ e expr }

type binExpr struct {
	op   string
	l, r expr
}

type callExpr struct {
	fn   string
	args []expr
	base string // IRI and URI resolve against it
}

type existsExpr struct {
	g   *group
	not bool
}

// arity bounds the argument count of a function; max -1 is unbounded.
type arity struct{ min, max int }

var functions = map[string]arity{
	"BOUND": {1, 1}, "ISIRI": {1, 1}, "ISURI": {1, 1}, "ISBLANK": {1, 1}, "ISLITERAL": {1, 1},
	"STR": {1, 1}, "LANG": {1, 1}, "DATATYPE": {1, 1}, "SAMETERM": {2, 2},
	"REGEX": {2, 3}, "CONTAINS": {2, 2}, "STRSTARTS": {2, 2}, "STRENDS": {2, 2},
	"IRI": {1, 1}, "URI": {1, 1}, "STRDT": {2, 2}, "STRLANG": {2, 2},
	"CONCAT": {0, -1}, "STRLEN": {1, 1}, "UCASE": {1, 1}, "LCASE": {1, 1},
	"SUBSTR": {2, 3}, "STRBEFORE": {2, 2}, "STRAFTER": {2, 2}, "REPLACE": {3, 4},
	"IF": {3, 3}, "COALESCE": {1, -1},
}

// constraint parses the argument of FILTER.
func (p *parser) constraint() (expr, error) {
	if p.accept("(") {
		e, err := p.expression()
		if err != nil {
			return nil, err
		}
		return e, p.expect(")")
	}
	if t := p.peek(); t.kind == tWord {
		return p.primary()
	}
	return nil, p.unexpected("expected '(' or function call after FILTER")
}

func (p *parser) expression() (expr, error) {
	l, err := p.andExpr()
	if err != nil {
		return nil, err
	}
	for p.accept("||") {
		r, err := p.andExpr()
		if err != nil {
			return nil, err
		}
		l = binExpr{op: "||", l: l, r: r}
	}
	return l, nil
}

func (p *parser) andExpr() (expr, error) {
	l, err := p.relExpr()
	if err != nil {
		return nil, err
	}
	for p.accept("&&") {
		r, err := p.relExpr()
		if err != nil {
			return nil, err
		}
		l = binExpr{op: "&&", l: l, r: r}
	}
	return l, nil
}

func (p *parser) relExpr() (expr, error) {
	l, err := p.unary()
	if err != nil {
		return nil, err
	}
	for _, op := range []string{"=", "!=", "<", ">", "<=", ">="} {
		if p.accept(op) {
			r, err := p.unary()
			if err != nil {
				return nil, err
			}
			return binExpr{op: op, l: l, r: r}, nil
		}
	}
	return l, nil
}

func (p *parser) unary() (expr, error) {
	if p.accept("!") {
		e, err := p.unary()
		if err != nil {
			return nil, err
		}
		return notExpr{e: e}, nil
	}
	return p.primary()
}

func (p *parser) primary() (expr, error) {
	t := p.peek()
	switch {
	case t.is("("):
		p.next()
		e, err := p.expression()
		if err != nil {
			return nil, err
		}
		return e, p.expect(")")
	case t.kind == tVar:
		p.next()
		return varExpr{name: t.text}, nil
	case t.is("NOT") && p.peekAt(1).is("EXISTS"):
		p.pos += 2
		g, err := p.groupPattern()
		return existsExpr{g: g, not: true}, err
	case t.is("EXISTS"):
		p.next()
		g, err := p.groupPattern()
		return existsExpr{g: g}, err
	case t.kind == tWord && !t.is("true") && !t.is("false"):
		name := strings.ToUpper(t.text)
		ar, ok := functions[name]
		if !ok {
			return nil, bberrors.New(bberrors.ErrCodeUnsupported, "SPARQL function %s is not supported", t.text)
		}
		p.next()
		args, err := p.argList()
		if err != nil {
			return nil, err
		}
		if len(args) < ar.min || ar.max >= 0 && len(args) > ar.max {
			return nil, bberrors.New(bberrors.ErrCodeSyntax, "offset %d: wrong number of arguments to %s", t.pos, name)
		}
		if name == "BOUND" {
			if _, ok := args[0].(varExpr); !ok {
				return nil, bberrors.New(bberrors.ErrCodeSyntax, "offset %d: BOUND expects a variable", t.pos)
			}
		}
		return callExpr{fn: name, args: args, base: p.base}, nil
	}
	term, err := p.term()
	if err != nil {
		return nil, err
	}
	return constExpr{term: term}, nil
}

func (p *parser) argList() ([]expr, error) {
	if err := p.expect("("); err != nil {
		return nil, err
	}
	var args []expr
	if p.accept(")") {
		return args, nil
	}
	for {
		e, err := p.expression()
		if err != nil {
			return nil, err
		}
		args = append(args, e)
		if p.accept(")") {
			return args, nil
		}
		if err := p.expect(","); err != nil {
			return nil, err
		}
	}
}

// errType marks a SPARQL expression type error; filters treat it as false.
var errType = errors.New("type error")

var (
	trueTerm  = rdf.Literal("true", rdf.XSDBoolean)
	falseTerm = rdf.Literal("false", rdf.XSDBoolean)
)

func boolTerm(b bool) rdf.Term {
	if b {
		return trueTerm
	}
	return falseTerm
}

func (e *evaluator) eval(x expr, sol solution) (rdf.Term, error) {
	switch x := x.(type) {
	case constExpr:
		return x.term, nil
	case varExpr:
		t, ok := sol[x.name]
		if !ok {
			return rdf.Term{}, errType
		}
		return t, nil
	case notExpr:
		b, err := e.ebv(x.e, sol)
		if err != nil {
			return rdf.Term{}, err
		}
		return boolTerm(!b), nil
	case existsExpr:
		found := len(e.group(x.g, []solution{sol})) > 0
		return boolTerm(found != x.not), nil
	case binExpr:
		return e.binary(x, sol)
	case callExpr:
		return e.call(x, sol)
	}
	return rdf.Term{}, errType
}

func (e *evaluator) binary(x binExpr, sol solution) (rdf.Term, error) {
	switch x.op {
	case "||":
		l, lerr := e.ebv(x.l, sol)
		if lerr == nil && l {
			return trueTerm, nil
		}
		r, rerr := e.ebv(x.r, sol)
		if rerr == nil && r {
			return trueTerm, nil
		}
		if lerr != nil || rerr != nil {
			return rdf.Term{}, errType
		}
		return falseTerm, nil
	case "&&":
		l, lerr := e.ebv(x.l, sol)
		if lerr == nil && !l {
			return falseTerm, nil
		}
		r, rerr := e.ebv(x.r, sol)
		if rerr == nil && !r {
			return falseTerm, nil
		}
		if lerr != nil || rerr != nil {
			return rdf.Term{}, errType
		}
		return trueTerm, nil
	}

	l, err := e.eval(x.l, sol)
	if err != nil {
		return rdf.Term{}, err
	}
	r, err := e.eval(x.r, sol)
	if err != nil {
		return rdf.Term{}, err
	}
	b, err := compare(x.op, l, r)
	if err != nil {
		return rdf.Term{}, err
	}
	return boolTerm(b), nil
}

func (e *evaluator) call(x callExpr, sol solution) (rdf.Term, error) {
	switch x.fn {
	case "BOUND":
		_, ok := sol[x.args[0].(varExpr).name]
		return boolTerm(ok), nil
	case "IF":
		b, err := e.ebv(x.args[0], sol)
		if err != nil {
			return rdf.Term{}, err
		}
		if b {
			return e.eval(x.args[1], sol)
		}
		return e.eval(x.args[2], sol)
	case "COALESCE":
		for _, a := range x.args {
			if t, err := e.eval(a, sol); err == nil {
				return t, nil
			}
		}
		return rdf.Term{}, errType
	}
	args := make([]rdf.Term, len(x.args))
	for i, a := range x.args {
		t, err := e.eval(a, sol)
		if err != nil {
			return rdf.Term{}, err
		}
		args[i] = t
	}
	if x.fn == "CONCAT" {
		return concat(args)
	}
	a := args[0]
	switch x.fn {
	case "ISIRI", "ISURI":
		return boolTerm(a.IsIRI()), nil
	case "ISBLANK":
		return boolTerm(a.IsBlank()), nil
	case "ISLITERAL":
		return boolTerm(a.IsLiteral()), nil
	case "STR":
		if a.IsBlank() {
			return rdf.Term{}, errType
		}
		return rdf.String(a.Value), nil
	case "LANG":
		if !a.IsLiteral() {
			return rdf.Term{}, errType
		}
		return rdf.String(a.Lang), nil
	case "DATATYPE":
		if !a.IsLiteral() {
			return rdf.Term{}, errType
		}
		return rdf.IRI(a.Datatype), nil
	case "SAMETERM":
		return boolTerm(a == args[1]), nil
	case "CONTAINS", "STRSTARTS", "STRENDS":
		if !isStringLike(a) || !isStringLike(args[1]) {
			return rdf.Term{}, errType
		}
		switch x.fn {
		case "CONTAINS":
			return boolTerm(strings.Contains(a.Value, args[1].Value)), nil
		case "STRSTARTS":
			return boolTerm(strings.HasPrefix(a.Value, args[1].Value)), nil
		default:
			return boolTerm(strings.HasSuffix(a.Value, args[1].Value)), nil
		}
	case "REGEX":
		if !isStringLike(a) || !isStringLike(args[1]) {
			return rdf.Term{}, errType
		}
		flags := ""
		if len(args) == 3 {
			flags = args[2].Value
		}
		re, err := CompileRegex(args[1].Value, flags)
		if err != nil {
			return rdf.Term{}, errType
		}
		return boolTerm(re.MatchString(a.Value)), nil
	case "IRI", "URI":
		switch {
		case a.IsIRI():
			return a, nil
		case a.IsLiteral() && a.Datatype == rdf.XSDString:
			return rdf.IRI(resolveIRI(x.base, a.Value)), nil
		}
		return rdf.Term{}, errType
	case "STRDT":
		if !a.IsLiteral() || a.Datatype != rdf.XSDString || !args[1].IsIRI() {
			return rdf.Term{}, errType
		}
		return rdf.Literal(a.Value, args[1].Value), nil
	case "STRLANG":
		if !a.IsLiteral() || a.Datatype != rdf.XSDString || !isStringLike(args[1]) || args[1].Value == "" {
			return rdf.Term{}, errType
		}
		return rdf.LangLiteral(a.Value, args[1].Value), nil
	case "STRLEN":
		if !isStringLike(a) {
			return rdf.Term{}, errType
		}
		return rdf.Literal(strconv.Itoa(utf8.RuneCountInString(a.Value)), rdf.XSDInteger), nil
	case "UCASE", "LCASE":
		if !isStringLike(a) {
			return rdf.Term{}, errType
		}
		if x.fn == "UCASE" {
			return withLang(a, strings.ToUpper(a.Value)), nil
		}
		return withLang(a, strings.ToLower(a.Value)), nil
	case "SUBSTR":
		return substr(args)
	case "STRBEFORE", "STRAFTER":
		if !isStringLike(a) || !isStringLike(args[1]) {
			return rdf.Term{}, errType
		}
		i := strings.Index(a.Value, args[1].Value)
		switch {
		case i < 0:
			return rdf.String(""), nil
		case x.fn == "STRBEFORE":
			return withLang(a, a.Value[:i]), nil
		default:
			return withLang(a, a.Value[i+len(args[1].Value):]), nil
		}
	case "REPLACE":
		return replace(args)
	}
	return rdf.Term{}, errType
}

// withLang returns value as a literal with the language tag of like.
func withLang(like rdf.Term, value string) rdf.Term {
	if like.Lang != "" {
		return rdf.LangLiteral(value, like.Lang)
	}
	return rdf.String(value)
}

// concat joins string literals. The result keeps a language tag only when
// every argument carries the same one.
func concat(args []rdf.Term) (rdf.Term, error) {
	var b strings.Builder
	lang := ""
	for i, a := range args {
		if !isStringLike(a) {
			return rdf.Term{}, errType
		}
		if i == 0 {
			lang = a.Lang
		} else if a.Lang != lang {
			lang = ""
		}
		b.WriteString(a.Value)
	}
	if len(args) > 0 && lang != "" {
		return rdf.LangLiteral(b.String(), lang), nil
	}
	return rdf.String(b.String()), nil
}

// substr takes characters from a 1-based start position, optionally
// limited to a length.
func substr(args []rdf.Term) (rdf.Term, error) {
	a := args[0]
	start, ok := Numeric(args[1])
	if !isStringLike(a) || !ok {
		return rdf.Term{}, errType
	}
	runes := []rune(a.Value)
	from := int(math.Round(start))
	to := len(runes) + 1
	if len(args) == 3 {
		n, ok := Numeric(args[2])
		if !ok {
			return rdf.Term{}, errType
		}
		to = from + int(math.Round(n))
	}
	from = max(from, 1)
	to = min(to, len(runes)+1)
	if from >= to {
		return withLang(a, ""), nil
	}
	return withLang(a, string(runes[from-1:to-1])), nil
}

func replace(args []rdf.Term) (rdf.Term, error) {
	a := args[0]
	for _, t := range args {
		if !isStringLike(t) {
			return rdf.Term{}, errType
		}
	}
	flags := ""
	if len(args) == 4 {
		flags = args[3].Value
	}
	re, err := CompileRegex(args[1].Value, flags)
	if err != nil {
		return rdf.Term{}, errType
	}
	return withLang(a, re.ReplaceAllString(a.Value, expandTemplate(args[2].Value))), nil
}

// expandTemplate rewrites an XPath replacement string ($1, \$, \\) into
// the form expected by regexp.Expand.
func expandTemplate(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\' && i+1 < len(s) && (s[i+1] == '$' || s[i+1] == '\\'):
			i++
			if s[i] == '$' {
				b.WriteString("$$")
			} else {
				b.WriteByte('\\')
			}
		case c == '$':
			j := i + 1
			for j < len(s) && isDigit(s[j]) {
				j++
			}
			if j == i+1 {
				b.WriteString("$$")
				continue
			}
			b.WriteString("${" + s[i+1:j] + "}")
			i = j - 1
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

var whitespace = regexp.MustCompile(`\s+`)

// CompileRegex compiles an XPath-style regular expression with SPARQL/SHACL
// flags (i, s, m, x).
func CompileRegex(pattern, flags string) (*regexp.Regexp, error) {
	var goFlags strings.Builder
	for _, f := range flags {
		switch f {
		case 'i', 's', 'm':
			goFlags.WriteRune(f)
		case 'x':
			pattern = whitespace.ReplaceAllString(pattern, "")
		default:
			return nil, bberrors.New(bberrors.ErrCodeInvalidInput, "unsupported regex flag %q", f)
		}
	}
	if goFlags.Len() > 0 {
		pattern = "(?" + goFlags.String() + ")" + pattern
	}
	return regexp.Compile(pattern)
}

func isStringLike(t rdf.Term) bool {
	return t.IsLiteral() && (t.Datatype == rdf.XSDString || t.Datatype == rdf.RDFLangString)
}

// ebv computes the effective boolean value of x.
func (e *evaluator) ebv(x expr, sol solution) (bool, error) {
	t, err := e.eval(x, sol)
	if err != nil {
		return false, err
	}
	return EffectiveBool(t)
}

// EffectiveBool returns the SPARQL effective boolean value of a term.
func EffectiveBool(t rdf.Term) (bool, error) {
	if !t.IsLiteral() {
		return false, errType
	}
	switch {
	case t.Datatype == rdf.XSDBoolean:
		return t.Value == "true" || t.Value == "1", nil
	case isStringLike(t):
		return t.Value != "", nil
	}
	if f, ok := Numeric(t); ok {
		return f != 0 && !math.IsNaN(f), nil
	}
	return false, errType
}

var numericTypes = map[string]bool{
	rdf.XSDInteger: true, rdf.XSDDecimal: true, rdf.XSDDouble: true,
	rdf.NSXSD + "float": true, rdf.NSXSD + "int": true, rdf.NSXSD + "long": true,
	rdf.NSXSD + "short": true, rdf.NSXSD + "byte": true,
	rdf.NSXSD + "nonNegativeInteger": true, rdf.NSXSD + "positiveInteger": true,
	rdf.NSXSD + "nonPositiveInteger": true, rdf.NSXSD + "negativeInteger": true,
	rdf.NSXSD + "unsignedInt": true, rdf.NSXSD + "unsignedLong": true,
	rdf.NSXSD + "unsignedShort": true, rdf.NSXSD + "unsignedByte": true,
}

// Numeric returns the value of a numeric literal.
func Numeric(t rdf.Term) (float64, bool) {
	if !t.IsLiteral() || !numericTypes[t.Datatype] {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(t.Value), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// compare applies a comparison operator to two terms.
func compare(op string, a, b rdf.Term) (bool, error) {
	if x, ok := Numeric(a); ok {
		if y, ok := Numeric(b); ok {
			switch op {
			case "=":
				return x == y, nil
			case "!=":
				return x != y, nil
			case "<":
				return x < y, nil
			case ">":
				return x > y, nil
			case "<=":
				return x <= y, nil
			case ">=":
				return x >= y, nil
			}
		}
	}
	switch op {
	case "=":
		return a == b, nil
	case "!=":
		return a != b, nil
	}
	if !a.IsLiteral() || !b.IsLiteral() || a.Datatype != b.Datatype || a.Lang != b.Lang {
		return false, errType
	}
	c := strings.Compare(a.Value, b.Value)
	switch op {
	case "<":
		return c < 0, nil
	case ">":
		return c > 0, nil
	case "<=":
		return c <= 0, nil
	case ">=":
		return c >= 0, nil
	}
	return false, errType
}
