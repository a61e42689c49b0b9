package sparql

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	bberrors "github.com/bblocks/bblocks/pkg/errors"
)

type tokenKind uint8

const (
	tEOF tokenKind = iota
	tIRI
	tPName
	tVar
	tString
	tLang
	tDatatype
	tInteger
	tDecimal
	tDouble
	tBlank
	tWord
	tPunct
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func (t token) String() string {
	switch t.kind {
	case tEOF:
		return "end of input"
	case tIRI:
		return "<" + t.text + ">"
	case tVar:
		return "?" + t.text
	case tString:
		return strconv.Quote(t.text)
	default:
		return strconv.Quote(t.text)
	}
}

// is reports whether t is the given punctuation or (case-insensitive) keyword.
func (t token) is(s string) bool {
	switch t.kind {
	case tPunct:
		return t.text == s
	case tWord:
		return strings.EqualFold(t.text, s)
	}
	return false
}

type lexer struct {
	src  string
	pos  int
	toks []token
}

func lex(src string) ([]token, error) {
	l := &lexer{src: src}
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		l.toks = append(l.toks, tok)
		if tok.kind == tEOF {
			return l.toks, nil
		}
	}
}

func (l *lexer) errorf(format string, args ...any) error {
	return bberrors.New(bberrors.ErrCodeSyntax, "offset %d: "+format, append([]any{l.pos}, args...)...)
}

func (l *lexer) peekByte(off int) byte {
	if l.pos+off < len(l.src) {
		return l.src[l.pos+off]
	}
	return 0
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == '#':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			l.pos++
		default:
			return
		}
	}
}

func (l *lexer) next() (token, error) {
	l.skipSpace()
	start := l.pos
	if l.pos >= len(l.src) {
		return token{kind: tEOF, pos: start}, nil
	}
	c := l.src[l.pos]
	switch {
	case c == '<':
		if iri, ok := l.scanIRI(); ok {
			return token{kind: tIRI, text: iri, pos: start}, nil
		}
		if l.peekByte(1) == '=' {
			l.pos += 2
			return token{kind: tPunct, text: "<=", pos: start}, nil
		}
		l.pos++
		return token{kind: tPunct, text: "<", pos: start}, nil
	case c == '?' || c == '$':
		l.pos++
		name := l.scanWhile(isNameChar)
		if name == "" {
			return token{}, l.errorf("empty variable name")
		}
		return token{kind: tVar, text: name, pos: start}, nil
	case c == '"' || c == '\'':
		s, err := l.scanString()
		if err != nil {
			return token{}, err
		}
		return token{kind: tString, text: s, pos: start}, nil
	case c == '@':
		l.pos++
		tag := l.scanWhile(func(r rune) bool { return r == '-' || r < utf8.RuneSelf && (unicode.IsLetter(r) || unicode.IsDigit(r)) })
		if tag == "" {
			return token{}, l.errorf("empty language tag")
		}
		return token{kind: tLang, text: tag, pos: start}, nil
	case c == '^' && l.peekByte(1) == '^':
		l.pos += 2
		return token{kind: tDatatype, text: "^^", pos: start}, nil
	case c == '_' && l.peekByte(1) == ':':
		l.pos += 2
		label := trimDots(l, l.scanWhile(isLocalChar))
		if label == "" {
			return token{}, l.errorf("empty blank node label")
		}
		return token{kind: tBlank, text: label, pos: start}, nil
	case isDigit(c) || (c == '+' || c == '-') && (isDigit(l.peekByte(1)) || l.peekByte(1) == '.' && isDigit(l.peekByte(2))) || c == '.' && isDigit(l.peekByte(1)):
		return l.scanNumber(), nil
	case c == ':' || isLetter(c):
		word := l.scanWhile(func(r rune) bool { return isLocalChar(r) || r == ':' })
		word = trimDots(l, word)
		if strings.Contains(word, ":") {
			return token{kind: tPName, text: word, pos: start}, nil
		}
		return token{kind: tWord, text: word, pos: start}, nil
	}

	for _, p := range []string{"&&", "||", "!=", ">=", "<="} {
		if strings.HasPrefix(l.src[l.pos:], p) {
			l.pos += len(p)
			return token{kind: tPunct, text: p, pos: start}, nil
		}
	}
	if strings.ContainsRune("{}()[].;,=<>!*/|^+", rune(c)) {
		l.pos++
		return token{kind: tPunct, text: string(c), pos: start}, nil
	}
	r, _ := utf8.DecodeRuneInString(l.src[l.pos:])
	return token{}, l.errorf("unexpected character %q", r)
}

// scanIRI consumes an IRIREF if one starts at the current position.
func (l *lexer) scanIRI() (string, bool) {
	end := l.pos + 1
	for end < len(l.src) {
		c := l.src[end]
		if c == '>' {
			iri := l.src[l.pos+1 : end]
			l.pos = end + 1
			return iri, true
		}
		if c <= ' ' || strings.IndexByte("<\"{}|^`\\", c) >= 0 {
			return "", false
		}
		end++
	}
	return "", false
}

func (l *lexer) scanWhile(ok func(rune) bool) string {
	start := l.pos
	for l.pos < len(l.src) {
		r, size := utf8.DecodeRuneInString(l.src[l.pos:])
		if !ok(r) {
			break
		}
		l.pos += size
	}
	return l.src[start:l.pos]
}

// trimDots gives trailing dots of a name back to the input; a local name
// cannot end with '.'.
func trimDots(l *lexer, s string) string {
	for strings.HasSuffix(s, ".") {
		s = s[:len(s)-1]
		l.pos--
	}
	return s
}

func (l *lexer) scanNumber() token {
	start := l.pos
	if c := l.src[l.pos]; c == '+' || c == '-' {
		l.pos++
	}
	kind := tInteger
	for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
		l.pos++
	}
	if l.peekByte(0) == '.' && isDigit(l.peekByte(1)) {
		kind = tDecimal
		l.pos++
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.pos++
		}
	}
	if e := l.peekByte(0); e == 'e' || e == 'E' {
		off := 1
		if s := l.peekByte(1); s == '+' || s == '-' {
			off = 2
		}
		if isDigit(l.peekByte(off)) {
			kind = tDouble
			l.pos += off
			for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
				l.pos++
			}
		}
	}
	return token{kind: kind, text: l.src[start:l.pos], pos: start}
}

func (l *lexer) scanString() (string, error) {
	q := l.src[l.pos]
	long := strings.HasPrefix(l.src[l.pos:], strings.Repeat(string(q), 3))
	if long {
		l.pos += 3
	} else {
		l.pos++
	}
	var b strings.Builder
	for {
		if l.pos >= len(l.src) {
			return "", l.errorf("unterminated string")
		}
		c := l.src[l.pos]
		switch {
		case long && strings.HasPrefix(l.src[l.pos:], strings.Repeat(string(q), 3)):
			l.pos += 3
			return b.String(), nil
		case !long && c == q:
			l.pos++
			return b.String(), nil
		case !long && (c == '\n' || c == '\r'):
			return "", l.errorf("newline in string")
		case c == '\\':
			if err := l.scanEscape(&b); err != nil {
				return "", err
			}
		default:
			b.WriteByte(c)
			l.pos++
		}
	}
}

func (l *lexer) scanEscape(b *strings.Builder) error {
	l.pos++
	if l.pos >= len(l.src) {
		return l.errorf("unterminated escape")
	}
	c := l.src[l.pos]
	l.pos++
	switch c {
	case 't':
		b.WriteByte('\t')
	case 'n':
		b.WriteByte('\n')
	case 'r':
		b.WriteByte('\r')
	case 'b':
		b.WriteByte('\b')
	case 'f':
		b.WriteByte('\f')
	case '"', '\'', '\\':
		b.WriteByte(c)
	case 'u', 'U':
		n := 4
		if c == 'U' {
			n = 8
		}
		if l.pos+n > len(l.src) {
			return l.errorf("short unicode escape")
		}
		v, err := strconv.ParseUint(l.src[l.pos:l.pos+n], 16, 32)
		if err != nil {
			return l.errorf("invalid unicode escape %q", l.src[l.pos:l.pos+n])
		}
		b.WriteRune(rune(v))
		l.pos += n
	default:
		return l.errorf("invalid escape \\%c", c)
	}
	return nil
}

func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isLetter(c byte) bool { return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= utf8.RuneSelf }

func isNameChar(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isLocalChar(r rune) bool {
	return isNameChar(r) || r == '-' || r == '.'
}
