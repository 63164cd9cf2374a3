package builder

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/usestring/powhttp-sdkgen/pkg/apimodel"
	"github.com/usestring/powhttp-sdkgen/pkg/ident"
)

var versionSegment = regexp.MustCompile(`(?i)^v\d+([a-z]+\d*)?$`)

// resourceIndex returns the index of the segment naming the resource: the
// last static segment that reads as a word, or -1.
func resourceIndex(segs []apimodel.Segment) int {
	for i := len(segs) - 1; i >= 0; i-- {
		s := segs[i]
		if s.Param != "" || versionSegment.MatchString(s.Literal) {
			continue
		}
		words := ident.Words(s.Literal)
		if len(words) > 0 && !ident.StartsWithDigit(words[0]) {
			return i
		}
	}
	return -1
}

// Verb returns the operation verb for a method on a path template. hasPut
// reports whether a PUT exists on the same template.
func Verb(method, template string, hasPut bool) string {
	segs := apimodel.ParseTemplate(template)
	switch method {
	case "GET":
		if len(segs) > 0 && segs[len(segs)-1].Param != "" {
			return "get"
		}
		if i := resourceIndex(segs); i >= 0 && i == len(segs)-1 {
			words := ident.Words(segs[i].Literal)
			if ident.IsPlural(words[len(words)-1]) {
				return "list"
			}
		}
		return "get"
	case "POST":
		return "create"
	case "PUT":
		return "update"
	case "PATCH":
		if hasPut {
			return "patch"
		}
		return "update"
	case "DELETE":
		return "delete"
	default:
		return strings.ToLower(method)
	}
}

// baseName is verb plus resource words, e.g. "list_users" or "get_user".
func baseName(verb, template string) []string {
	segs := apimodel.ParseTemplate(template)
	i := resourceIndex(segs)
	if i < 0 {
		return []string{verb, "root"}
	}
	words := ident.Words(segs[i].Literal)
	if verb != "list" {
		words[len(words)-1] = ident.Singular(words[len(words)-1])
	}
	return append([]string{verb}, words...)
}

// discriminator derives words that tell apart endpoints sharing a base name:
// "by_<param>" for every parameter, otherwise the remaining static words.
func discriminator(template string) []string {
	segs := apimodel.ParseTemplate(template)
	res := resourceIndex(segs)

	var byParams, statics []string
	for i, s := range segs {
		if i == res {
			continue
		}
		if s.Param != "" {
			byParams = append(byParams, "by")
			byParams = append(byParams, ident.Words(s.Param)...)
			continue
		}
		statics = append(statics, ident.Words(s.Literal)...)
	}
	if len(byParams) > 0 {
		return byParams
	}
	return statics
}

// AssignOperationNames sets a unique snake_case OperationName on every
// endpoint. Names that collide get a path-derived discriminator, and a
// numeric suffix in endpoint order if that still collides.
func AssignOperationNames(eps []apimodel.Endpoint) {
	puts := make(map[string]bool)
	for _, ep := range eps {
		if ep.Method == "PUT" {
			puts[ep.PathTemplate] = true
		}
	}

	bases := make([]string, len(eps))
	count := make(map[string]int)
	for i, ep := range eps {
		bases[i] = ident.Snake(baseName(Verb(ep.Method, ep.PathTemplate, puts[ep.PathTemplate]), ep.PathTemplate))
		count[bases[i]]++
	}

	reg := ident.NewRegistry()
	for i := range eps {
		if count[bases[i]] == 1 {
			eps[i].OperationName = reg.Claim(bases[i])
		}
	}
	for i, ep := range eps {
		if count[bases[i]] == 1 {
			continue
		}
		name := bases[i]
		if disc := discriminator(ep.PathTemplate); len(disc) > 0 {
			name += "_" + ident.Snake(disc)
		}
		eps[i].OperationName = claimSnake(reg, name)
	}
}

// claimSnake claims name, or name_2, name_3, ... when it is taken.
func claimSnake(reg *ident.Registry, name string) string {
	if !reg.Taken(name) {
		return reg.Claim(name)
	}
	for n := 2; ; n++ {
		if cand := name + "_" + strconv.Itoa(n); !reg.Taken(cand) {
			return reg.Claim(cand)
		}
	}
}
