package gen

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/go-openapi/inflect"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	rules     = ruleset()
	titleCase = cases.Title(language.Und, cases.NoLower)
)

func ruleset() *inflect.Ruleset {
	r := inflect.NewDefaultRuleset()
	for _, w := range []string{"ID", "URL", "JSON", "UUID", "API", "HTTP"} {
		r.AddAcronym(w)
	}
	return r
}

// words splits s on every character that is not a letter or a digit.
func words(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// pascal converts a name to PascalCase, keeping inner capitals:
//
//	user_profile => UserProfile
//	userProfile  => UserProfile
func pascal(s string) string {
	ws := words(s)
	for i, w := range ws {
		ws[i] = titleCase.String(w)
	}
	return strings.Join(ws, "")
}

// camel converts a name to camelCase.
//
//	UserProfile => userProfile
func camel(s string) string {
	if s == "" {
		return ""
	}
	return rules.CamelizeDownFirst(pascal(s))
}

// normalizeName turns a model name into a bare PascalCase identifier:
// non-alphanumeric characters and leading digits are stripped.
func normalizeName(s string) string {
	n := strings.TrimLeftFunc(pascal(s), unicode.IsDigit)
	if n == "" {
		return "Model"
	}
	r := []rune(n)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// isIdent reports if s is a bare identifier.
func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == '$' || unicode.IsLetter(r):
		case unicode.IsDigit(r) && i > 0:
		default:
			return false
		}
	}
	return true
}

// quote returns s as a single-quoted TypeScript string literal.
func quote(s string) string {
	q := strconv.Quote(s)
	q = strings.ReplaceAll(q[1:len(q)-1], `\"`, `"`)
	return "'" + strings.ReplaceAll(q, "'", `\'`) + "'"
}
