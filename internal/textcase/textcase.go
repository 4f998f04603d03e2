// Package textcase holds the pure text transforms shared by the template
// normalizer, the layout resolver and the naming engine.
package textcase

import (
	"strings"
	"unicode"

	"github.com/gertd/go-pluralize"
)

var plurals = pluralize.NewClient()

// words splits an identifier on separators and lower-to-upper case boundaries.
// "LineItem" -> [Line Item], "order_line-id" -> [order line id], "HTTPServer" -> [HTTP Server]
func words(s string) []string {
	var out []string
	for _, chunk := range strings.FieldsFunc(s, func(r rune) bool {
		return r == '_' || r == '-' || r == '.' || unicode.IsSpace(r)
	}) {
		runes := []rune(chunk)
		start := 0
		for i := 1; i < len(runes); i++ {
			prev, cur := runes[i-1], runes[i]
			nextIsLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			boundary := (unicode.IsLower(prev) || unicode.IsDigit(prev)) && unicode.IsUpper(cur)
			if unicode.IsUpper(prev) && unicode.IsUpper(cur) && nextIsLower {
				boundary = true
			}
			if boundary {
				out = append(out, string(runes[start:i]))
				start = i
			}
		}
		out = append(out, string(runes[start:]))
	}
	return out
}

// Pascal converts s to PascalCase, keeping the casing of inner letters of each word.
func Pascal(s string) string {
	var b strings.Builder
	for _, w := range words(s) {
		b.WriteString(UpperFirst(w))
	}
	return b.String()
}

// Camel converts s to camelCase.
func Camel(s string) string {
	return LowerFirst(Pascal(s))
}

// Snake converts s to snake_case.
func Snake(s string) string {
	parts := words(s)
	for i := range parts {
		parts[i] = strings.ToLower(parts[i])
	}
	return strings.Join(parts, "_")
}

// Kebab converts s to kebab-case.
func Kebab(s string) string {
	return strings.ReplaceAll(Snake(s), "_", "-")
}

// Lower removes separators and lowercases s. Used for Go package names.
func Lower(s string) string {
	return strings.ToLower(strings.Join(words(s), ""))
}

// UpperFirst uppercases the first rune of s.
func UpperFirst(s string) string {
	if s == "" {
		return ""
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// LowerFirst lowercases the first rune of s. A leading acronym is lowered as a
// whole: "ID" -> "id", "HTTPServer" -> "httpServer".
func LowerFirst(s string) string {
	if s == "" {
		return ""
	}
	r := []rune(s)
	n := 0
	for n < len(r) && unicode.IsUpper(r[n]) {
		n++
	}
	if n == 0 {
		return s
	}
	if n > 1 && n < len(r) {
		n--
	}
	for i := 0; i < n; i++ {
		r[i] = unicode.ToLower(r[i])
	}
	return string(r)
}

// initialisms are written fully upper-case in Go identifiers
var initialisms = map[string]bool{
	"api":  true,
	"http": true,
	"id":   true,
	"json": true,
	"sql":  true,
	"url":  true,
	"uuid": true,
}

// GoIdent converts s to an exported Go identifier, upper-casing initialisms.
// "OrderId" -> "OrderID", "customer_id" -> "CustomerID".
func GoIdent(s string) string {
	var b strings.Builder
	for _, w := range strings.FieldsFunc(Snake(s), func(r rune) bool { return r == '_' }) {
		if initialisms[w] {
			b.WriteString(strings.ToUpper(w))
			continue
		}
		b.WriteString(UpperFirst(w))
	}
	return b.String()
}

// Plural returns the English plural of an identifier, pluralizing only its last word.
// "LineItem" -> "LineItems", "Category" -> "Categories".
func Plural(s string) string {
	parts := words(s)
	if len(parts) == 0 {
		return s
	}
	last := parts[len(parts)-1]
	plural := plurals.Plural(last)
	if plural == "" {
		return s
	}
	return strings.TrimSuffix(s, last) + matchCase(last, plural)
}

// matchCase applies the leading-letter case of ref to s.
func matchCase(ref, s string) string {
	if ref == "" || s == "" {
		return s
	}
	if unicode.IsUpper([]rune(ref)[0]) {
		return UpperFirst(s)
	}
	return LowerFirst(s)
}
