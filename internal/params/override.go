package params

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Override values that look like list or tuple literals are parsed as
// lists. The patterns are anchored to the whole string so a partial
// match such as "[1,2" stays a plain string.
var (
	listPattern  = regexp.MustCompile(`^\s*\[.*\]\s*$`)
	tuplePattern = regexp.MustCompile(`^\s*\(.*\)\s*$`)
)

// ParseOverride parses a "name=value" command-line parameter override.
// The value is parsed as a list if it is a well-formed bracket or paren
// literal; otherwise it is cast to int64, then float64, and left as a
// string when both casts fail.
func ParseOverride(tok string) (name string, value any, err error) {
	pos := strings.Index(tok, "=")
	if pos < 0 {
		return "", nil, fmt.Errorf("not a valid command line parameter: %q must be of the form 'name=value'", tok)
	}
	name = tok[:pos]
	raw := tok[pos+1:]
	if name == "" {
		return "", nil, fmt.Errorf("not a valid command line parameter: %q has an empty name", tok)
	}
	if listPattern.MatchString(raw) || tuplePattern.MatchString(raw) {
		lst, lerr := parseListLiteral(raw)
		if lerr != nil {
			return "", nil, fmt.Errorf("parameter %s: %w", name, lerr)
		}
		return name, lst, nil
	}
	return name, castScalar(raw), nil
}

// castScalar tries integer before float; anything else is a string.
func castScalar(s string) any {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

// parseListLiteral parses a bracket/paren-delimited literal into a
// []any, handling nested lists and quoted strings. Elements are cast
// with the same int-then-float rule as bare values.
func parseListLiteral(s string) ([]any, error) {
	s = strings.TrimSpace(s)
	open, last := s[0], s[len(s)-1]
	if (open == '[' && last != ']') || (open == '(' && last != ')') {
		return nil, fmt.Errorf("mismatched delimiters in %q", s)
	}
	inner := strings.TrimSpace(s[1 : len(s)-1])
	if inner == "" {
		return []any{}, nil
	}
	elems, err := splitTopLevel(inner)
	if err != nil {
		return nil, err
	}
	out := make([]any, 0, len(elems))
	for _, e := range elems {
		e = strings.TrimSpace(e)
		switch {
		case e == "":
			continue
		case listPattern.MatchString(e) || tuplePattern.MatchString(e):
			sub, err := parseListLiteral(e)
			if err != nil {
				return nil, err
			}
			out = append(out, sub)
		case len(e) >= 2 && (e[0] == '\'' || e[0] == '"') && e[len(e)-1] == e[0]:
			out = append(out, e[1:len(e)-1])
		default:
			out = append(out, castScalar(e))
		}
	}
	return out, nil
}

// splitTopLevel splits on commas that are not inside nested brackets,
// parens, or quotes.
func splitTopLevel(s string) ([]string, error) {
	var parts []string
	depth := 0
	var quote byte
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
		case '[', '(':
			depth++
		case ']', ')':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("unbalanced delimiters in %q", s)
			}
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	if depth != 0 || quote != 0 {
		return nil, fmt.Errorf("unbalanced delimiters in %q", s)
	}
	parts = append(parts, s[start:])
	return parts, nil
}
