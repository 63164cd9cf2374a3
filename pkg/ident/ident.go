// Package ident splits, cases and sanitizes identifiers derived from paths,
// JSON field names and operation names.
package ident

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// title upper-cases the first letter of a word. Words that start with a
// digit are returned unchanged ("2fa" stays "2fa"). A cases.Caser keeps
// state, so each call gets its own.
func title(w string) string {
	if r, _ := utf8.DecodeRuneInString(w); !unicode.IsLetter(r) {
		return w
	}
	return cases.Title(language.Und, cases.NoLower).String(w)
}

// Words splits s into lowercase words on case changes, digits boundaries kept
// with letters, and any non-alphanumeric separator.
// "userID" -> [user id], "created_at" -> [created at], "X-Rate-Limit" -> [x rate limit].
func Words(s string) []string {
	var words []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			words = append(words, strings.ToLower(string(cur)))
			cur = cur[:0]
		}
	}
	runes := []rune(s)
	for i, r := range runes {
		switch {
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			flush()
		case unicode.IsUpper(r):
			prevLower := i > 0 && (unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1]))
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			prevUpper := i > 0 && unicode.IsUpper(runes[i-1])
			if prevLower || (prevUpper && nextLower) {
				flush()
			}
			cur = append(cur, r)
		default:
			cur = append(cur, r)
		}
	}
	flush()
	return words
}

// Snake joins words with underscores.
func Snake(words []string) string {
	return strings.Join(words, "_")
}

// Camel renders words as lowerCamelCase ("get", "user", "id" -> getUserId).
func Camel(words []string) string {
	if len(words) == 0 {
		return ""
	}
	return words[0] + Pascal(words[1:])
}

// Pascal renders words as UpperCamelCase.
func Pascal(words []string) string {
	var b strings.Builder
	for _, w := range words {
		b.WriteString(title(w))
	}
	return b.String()
}

// Title joins words as a human-readable heading: "Shop Example".
func Title(words []string) string {
	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = title(w)
	}
	return strings.Join(parts, " ")
}

// GoPascal is Pascal with Go initialisms upper-cased (id -> ID, url -> URL).
func GoPascal(words []string) string {
	var b strings.Builder
	for _, w := range words {
		if goInitialisms[w] {
			b.WriteString(strings.ToUpper(w))
			continue
		}
		b.WriteString(title(w))
	}
	return b.String()
}

var goInitialisms = map[string]bool{
	"api": true, "id": true, "url": true, "uri": true, "uuid": true,
	"http": true, "https": true, "json": true, "html": true, "ip": true, "sql": true,
	"ttl": true, "utc": true, "xml": true, "tls": true, "ssh": true, "cpu": true,
}

// Singular returns a naive English singular of a lowercase word.
func Singular(w string) string {
	switch {
	case len(w) <= 3:
		return w
	case strings.HasSuffix(w, "ies"):
		return w[:len(w)-3] + "y"
	case strings.HasSuffix(w, "sses"), strings.HasSuffix(w, "shes"),
		strings.HasSuffix(w, "ches"), strings.HasSuffix(w, "xes"):
		return w[:len(w)-2]
	case strings.HasSuffix(w, "ss"), strings.HasSuffix(w, "us"), strings.HasSuffix(w, "is"):
		return w
	case strings.HasSuffix(w, "s"):
		return w[:len(w)-1]
	}
	return w
}

// IsPlural reports whether w looks like a plural noun.
func IsPlural(w string) bool {
	return Singular(w) != w
}

// StartsWithDigit reports whether s begins with a digit.
func StartsWithDigit(s string) bool {
	return s != "" && s[0] >= '0' && s[0] <= '9'
}
