package policy

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const defaultSegment = `[^/]+`

// token is either a literal run of the source pattern or a parameter.
type token struct {
	literal string

	param    bool
	name     string
	prefix   string // "/" pulled in front of the parameter, if any
	expr     string
	modifier byte // 0, '?', '*' or '+'
}

// Pattern is a compiled source pattern in the path-to-regexp dialect:
// literal segments, named parameters (":slug", ":path*", ":path+", ":id?"),
// parameters with a custom expression (":id(\\d+)") and bare regex groups
// ("(.*)").
type Pattern struct {
	source string
	re     *regexp.Regexp
	tokens []token
	params []string
}

// CompilePattern parses and compiles a source pattern. Matching is anchored
// and case-sensitive; "." in custom expressions also matches newlines.
func CompilePattern(source string) (*Pattern, error) {
	if !strings.HasPrefix(source, "/") {
		return nil, fmt.Errorf("%w: %q must start with /", ErrInvalidPattern, source)
	}
	tokens, err := lex(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidPattern, source, err)
	}

	var b strings.Builder
	b.WriteString("(?s)^")
	var params []string
	for _, t := range tokens {
		if !t.param {
			b.WriteString(regexp.QuoteMeta(t.literal))
			continue
		}
		params = append(params, t.name)
		prefix := regexp.QuoteMeta(t.prefix)
		group := fmt.Sprintf("(?P<%s>%s)", t.name, t.expr)
		repeated := fmt.Sprintf("(?P<%s>(?:%s)(?:%s(?:%s))*)", t.name, t.expr, prefix, t.expr)
		switch t.modifier {
		case '?':
			fmt.Fprintf(&b, "(?:%s%s)?", prefix, group)
		case '*':
			fmt.Fprintf(&b, "(?:%s%s)?", prefix, repeated)
		case '+':
			b.WriteString(prefix + repeated)
		default:
			b.WriteString(prefix + group)
		}
	}
	b.WriteString("$")

	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidPattern, source, err)
	}
	return &Pattern{source: source, re: re, tokens: tokens, params: params}, nil
}

func lex(source string) ([]token, error) {
	var (
		tokens  []token
		lit     strings.Builder
		unnamed int
	)

	// flushWithPrefix emits pending literal text, handing a trailing "/" to
	// the parameter that follows it.
	flushWithPrefix := func() string {
		s := lit.String()
		lit.Reset()
		prefix := ""
		if strings.HasSuffix(s, "/") {
			prefix = "/"
			s = s[:len(s)-1]
		}
		if s != "" {
			tokens = append(tokens, token{literal: s})
		}
		return prefix
	}

	for i := 0; i < len(source); {
		c := source[i]
		switch {
		case c == '\\':
			if i+1 >= len(source) {
				return nil, fmt.Errorf("dangling escape at %d", i)
			}
			lit.WriteByte(source[i+1])
			i += 2

		case c == ':':
			j := i + 1
			for j < len(source) && isNameChar(source[j]) {
				j++
			}
			if j == i+1 {
				// A colon not followed by a name is literal text.
				lit.WriteByte(c)
				i++
				continue
			}
			t := token{param: true, name: source[i+1 : j], expr: defaultSegment}
			t.prefix = flushWithPrefix()
			i = j
			if i < len(source) && source[i] == '(' {
				expr, next, err := readGroup(source, i)
				if err != nil {
					return nil, err
				}
				t.expr, i = expr, next
			}
			if i < len(source) && isModifier(source[i]) {
				t.modifier = source[i]
				i++
			}
			tokens = append(tokens, t)

		case c == '(':
			expr, next, err := readGroup(source, i)
			if err != nil {
				return nil, err
			}
			t := token{param: true, name: "_" + strconv.Itoa(unnamed), expr: expr}
			unnamed++
			t.prefix = flushWithPrefix()
			i = next
			if i < len(source) && isModifier(source[i]) {
				t.modifier = source[i]
				i++
			}
			tokens = append(tokens, t)

		default:
			lit.WriteByte(c)
			i++
		}
	}
	if lit.Len() > 0 {
		tokens = append(tokens, token{literal: lit.String()})
	}
	return tokens, nil
}

// readGroup returns the expression inside the balanced parentheses starting
// at source[start] and the index just past the closing parenthesis.
func readGroup(source string, start int) (string, int, error) {
	depth := 0
	for i := start; i < len(source); i++ {
		switch source[i] {
		case '\\':
			i++
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				expr := source[start+1 : i]
				if expr == "" {
					return "", 0, fmt.Errorf("empty group at %d", start)
				}
				if strings.HasPrefix(expr, "?") {
					return "", 0, fmt.Errorf("capturing groups only, got %q", expr)
				}
				return expr, i + 1, nil
			}
		}
	}
	return "", 0, fmt.Errorf("unbalanced group at %d", start)
}

func isNameChar(c byte) bool {
	return c == '_' || ('0' <= c && c <= '9') || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isModifier(c byte) bool {
	return c == '?' || c == '*' || c == '+'
}

// Source returns the pattern as written.
func (p *Pattern) Source() string { return p.source }

// Expr returns the anchored regular expression the pattern compiles to.
func (p *Pattern) Expr() string { return p.re.String() }

// Params returns the parameter names in declaration order. Bare groups are
// named "_0", "_1", ...
func (p *Pattern) Params() []string {
	return append([]string(nil), p.params...)
}

// Literal reports whether the pattern has no parameters, returning the path
// it matches.
func (p *Pattern) Literal() (string, bool) {
	var b strings.Builder
	for _, t := range p.tokens {
		if t.param {
			return "", false
		}
		b.WriteString(t.literal)
	}
	return b.String(), true
}

// MatchesAll reports whether the pattern is the match-all form "/(.*)".
func (p *Pattern) MatchesAll() bool {
	if len(p.tokens) != 1 {
		return false
	}
	t := p.tokens[0]
	return t.param && t.prefix == "/" && t.expr == ".*" && t.modifier == 0
}

// Match reports whether path matches and returns the captured parameters.
// The match-all form matches every input, including ones without a leading
// slash.
func (p *Pattern) Match(path string) (map[string]string, bool) {
	if p.MatchesAll() {
		return map[string]string{p.tokens[0].name: strings.TrimPrefix(path, "/")}, true
	}
	m := p.re.FindStringSubmatch(path)
	if m == nil {
		return nil, false
	}
	if len(p.params) == 0 {
		return nil, true
	}
	values := make(map[string]string, len(p.params))
	for i, name := range p.re.SubexpNames() {
		if name != "" && i < len(m) {
			values[name] = m[i]
		}
	}
	return values, true
}

var (
	destPathParam  = regexp.MustCompile(`:([A-Za-z0-9_]+)[*+?]?`)
	destQueryParam = regexp.MustCompile(`:([A-Za-z0-9_]+)`)
)

// expandRefs replaces ":name" references in dest for which repl reports a
// value. The destination is split at its query first: a "?" after a
// parameter in the query part starts the query, it is not a modifier.
func expandRefs(dest string, repl func(name string) (string, bool)) string {
	replace := func(re *regexp.Regexp, s string) string {
		return re.ReplaceAllStringFunc(s, func(ref string) string {
			name := strings.TrimRight(ref[1:], "*+?")
			if v, ok := repl(name); ok {
				return v
			}
			return ref
		})
	}

	path, rest := dest, ""
	if i := strings.IndexAny(dest, "?#"); i >= 0 {
		path, rest = dest[:i], dest[i:]
	}
	return replace(destPathParam, path) + replace(destQueryParam, rest)
}

// substitute replaces ":name" references in dest with captured values. Names
// that were not captured are left untouched, so "https://" and ports survive.
func substitute(dest string, values map[string]string) string {
	if len(values) == 0 {
		return dest
	}
	return expandRefs(dest, func(name string) (string, bool) {
		v, ok := values[name]
		return v, ok
	})
}

// ExpandDestination replaces the ":name" references in dest that name one of
// the pattern's parameters with repl(name). Other text is kept as written.
func (p *Pattern) ExpandDestination(dest string, repl func(name string) string) string {
	if len(p.params) == 0 {
		return dest
	}
	known := make(map[string]struct{}, len(p.params))
	for _, name := range p.params {
		known[name] = struct{}{}
	}
	return expandRefs(dest, func(name string) (string, bool) {
		if _, ok := known[name]; !ok {
			return "", false
		}
		return repl(name), true
	})
}
