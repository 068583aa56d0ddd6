package gen

import (
	"regexp"
	"strings"
)

// baseKind is the coarse type class an annotation method applies to.
type baseKind uint8

const (
	kindAny baseKind = iota
	kindString
	kindNumber
	kindBigInt
	kindDate
	kindBoolean
	kindArray
)

// method describes a supported annotation method.
type method struct {
	min, max int
	kinds    []baseKind
}

func (m method) appliesTo(k baseKind) bool {
	for _, mk := range m.kinds {
		if mk == kindAny || mk == k {
			return true
		}
	}
	return false
}

var (
	stringOnly = []baseKind{kindString}
	numeric    = []baseKind{kindNumber, kindBigInt}
	sized      = []baseKind{kindString, kindArray}
	anyKind    = []baseKind{kindAny}
)

// methods lists the annotation methods that survive filtering.
var methods = map[string]method{
	// strings
	"email":       {0, 1, stringOnly},
	"url":         {0, 1, stringOnly},
	"uuid":        {0, 1, stringOnly},
	"cuid":        {0, 1, stringOnly},
	"cuid2":       {0, 1, stringOnly},
	"ulid":        {0, 1, stringOnly},
	"emoji":       {0, 1, stringOnly},
	"ip":          {0, 1, stringOnly},
	"datetime":    {0, 1, stringOnly},
	"regex":       {1, 2, stringOnly},
	"startsWith":  {1, 2, stringOnly},
	"endsWith":    {1, 2, stringOnly},
	"includes":    {1, 2, stringOnly},
	"trim":        {0, 0, stringOnly},
	"toLowerCase": {0, 0, stringOnly},
	"toUpperCase": {0, 0, stringOnly},
	// strings and arrays
	"min":      {1, 2, []baseKind{kindString, kindArray, kindNumber}},
	"max":      {1, 2, []baseKind{kindString, kindArray, kindNumber}},
	"length":   {1, 2, sized},
	"nonempty": {0, 1, sized},
	// numbers
	"int":         {0, 1, []baseKind{kindNumber}},
	"positive":    {0, 1, numeric},
	"negative":    {0, 1, numeric},
	"nonnegative": {0, 1, numeric},
	"nonpositive": {0, 1, numeric},
	"finite":      {0, 1, []baseKind{kindNumber}},
	"safe":        {0, 1, []baseKind{kindNumber}},
	"multipleOf":  {1, 2, numeric},
	"step":        {1, 2, []baseKind{kindNumber}},
	"gt":          {1, 2, numeric},
	"gte":         {1, 2, numeric},
	"lt":          {1, 2, numeric},
	"lte":         {1, 2, numeric},
	// any
	"describe": {1, 1, anyKind},
}

// arrayMethods apply to the array of a list field rather than its elements.
var arrayMethods = map[string]bool{"min": true, "max": true, "length": true, "nonempty": true}

// typeHints are chain heads naming the base type, as in @zod.string.min(3).
var typeHints = map[string]bool{"string": true, "number": true, "bigint": true, "date": true, "boolean": true}

var (
	numberLit = regexp.MustCompile(`^-?(\d+(\.\d*)?|\.\d+)([eE][-+]?\d+)?n?$`)
	regexLit  = regexp.MustCompile(`^/.+/[dgimsuy]*$`)
)

// parseAnnotations extracts the method calls of every @zod chain found in a
// documentation string. Malformed chains are cut at the first malformed
// link, and calls with invalid arguments are dropped.
func parseAnnotations(doc string) []Call {
	var calls []Call
	for {
		i := strings.Index(doc, "@zod")
		if i < 0 {
			return calls
		}
		doc = doc[i+len("@zod"):]
		chain, rest := parseChain(doc, true)
		calls = append(calls, chain...)
		doc = rest
	}
}

// parseExpressions parses configured validation expressions such as
// "min(3)", ".email()" or ".min(1).max(5)".
func parseExpressions(exprs []string) []Call {
	var calls []Call
	for _, e := range exprs {
		e = strings.TrimSpace(e)
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		chain, _ := parseChain(e, false)
		calls = append(calls, chain...)
	}
	return calls
}

// parseChain reads ".name(args).name(args)..." from the start of s.
func parseChain(s string, hints bool) ([]Call, string) {
	var calls []Call
	for first := true; strings.HasPrefix(s, "."); first = false {
		s = s[1:]
		n := 0
		for n < len(s) && isIdentByte(s[n]) {
			n++
		}
		if n == 0 {
			return calls, s
		}
		name := s[:n]
		s = s[n:]
		if !strings.HasPrefix(s, "(") {
			if first && hints && typeHints[name] {
				continue
			}
			return calls, s
		}
		end := closingParen(s)
		if end < 0 {
			return calls, ""
		}
		raw := s[1:end]
		s = s[end+1:]
		if call, ok := newCall(name, raw); ok {
			calls = append(calls, call)
		}
	}
	return calls, s
}

// newCall validates a method call against the method table.
func newCall(name, raw string) (Call, bool) {
	m, ok := methods[name]
	if !ok {
		return Call{}, false
	}
	args, ok := splitArgs(raw)
	if !ok || len(args) < m.min || len(args) > m.max {
		return Call{}, false
	}
	call := Call{Name: name}
	for _, a := range args {
		if !isLiteral(a) {
			return Call{}, false
		}
		call.Args = append(call.Args, Lit(a))
	}
	return call, true
}

// filterCalls keeps the calls that apply to the kind and splits them into
// element calls and array calls for list fields.
func filterCalls(calls []Call, k baseKind, list bool) (elem, array []Call) {
	for _, c := range calls {
		m := methods[c.Name]
		switch {
		case list && arrayMethods[c.Name]:
			array = append(array, c)
		case m.appliesTo(k):
			elem = append(elem, c)
		}
	}
	return elem, array
}

func isIdentByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

// closingParen returns the index of the parenthesis closing s[0], skipping
// string and regex literals, or -1.
func closingParen(s string) int {
	depth := 0
	var prev byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\'' || c == '"' || c == '`':
			j := skipQuoted(s, i)
			if j < 0 {
				return -1
			}
			i = j
		case c == '/' && (prev == '(' || prev == ','):
			j := skipQuoted(s, i)
			if j < 0 {
				return -1
			}
			i = j
		case c == '(' || c == '[' || c == '{':
			depth++
		case c == ')' || c == ']' || c == '}':
			depth--
			if depth == 0 {
				if c != ')' {
					return -1
				}
				return i
			}
		}
		if c != ' ' {
			prev = c
		}
	}
	return -1
}

// skipQuoted returns the index of the delimiter closing the literal that
// starts at s[i], or -1.
func skipQuoted(s string, i int) int {
	q := s[i]
	for j := i + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case q:
			return j
		}
	}
	return -1
}

// splitArgs splits raw arguments on top-level commas.
func splitArgs(raw string) ([]string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, true
	}
	var (
		args  []string
		depth int
		start int
		prev  byte = ','
	)
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case c == '\'' || c == '"' || c == '`' || c == '/' && prev == ',':
			j := skipQuoted(raw, i)
			if j < 0 {
				return nil, false
			}
			i = j
		case c == '(' || c == '[' || c == '{':
			depth++
		case c == ')' || c == ']' || c == '}':
			depth--
		case c == ',' && depth == 0:
			args = append(args, strings.TrimSpace(raw[start:i]))
			start = i + 1
		}
		if c != ' ' {
			prev = c
		}
	}
	args = append(args, strings.TrimSpace(raw[start:]))
	for _, a := range args {
		if a == "" {
			return nil, false
		}
	}
	return args, depth == 0
}

// isLiteral reports if an argument is a literal value. Identifiers and
// calls are rejected.
func isLiteral(a string) bool {
	switch {
	case a == "true" || a == "false" || a == "null":
		return true
	case numberLit.MatchString(a), regexLit.MatchString(a):
		return true
	case len(a) >= 2 && (a[0] == '\'' || a[0] == '"' || a[0] == '`'):
		return a[len(a)-1] == a[0] && skipQuoted(a, 0) == len(a)-1
	case len(a) >= 2 && (a[0] == '{' && a[len(a)-1] == '}' || a[0] == '[' && a[len(a)-1] == ']'):
		return !strings.Contains(a, "=>") && !strings.Contains(a, "(")
	}
	return false
}
