package catalog

import (
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/usestring/powhttp-sdkgen/pkg/exchange"
)

// Category is the broad role of an endpoint in captured traffic.
type Category string

const (
	CategoryAPI   Category = "api"
	CategoryPage  Category = "page"
	CategoryAsset Category = "asset"
	CategoryData  Category = "data"
	CategoryOther Category = "other"
)

// Generated reports whether endpoints of this category belong in an SDK.
func (c Category) Generated() bool {
	return c == CategoryAPI || c == CategoryData || c == CategoryOther
}

// assetExtensions maps file extensions that indicate static assets.
var assetExtensions = map[string]bool{
	".js": true, ".mjs": true, ".cjs": true, ".css": true,
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".svg": true, ".ico": true, ".webp": true, ".avif": true,
	".woff": true, ".woff2": true, ".ttf": true, ".eot": true, ".otf": true,
	".map": true,
	".mp4": true, ".webm": true, ".mp3": true, ".ogg": true,
	".pdf": true,
}

// apiPathPattern matches common API path prefixes.
var apiPathPattern = regexp.MustCompile(`(?i)^/(api|rest|v\d+)(/|$)`)

// classifyGroup determines the category of a group from its template and
// the distribution of response content types.
func classifyGroup(template string, members []*exchange.Exchange) Category {
	pathLower := strings.ToLower(template)
	if assetExtensions[strings.ToLower(path.Ext(lastPathSegment(pathLower)))] {
		return CategoryAsset
	}

	contentTypes := make(map[string]int)
	for _, ex := range members {
		if ct := exchange.MediaType(ex.ResponseBody.ContentType); ct != "" {
			contentTypes[ct]++
		}
	}

	if dominant := dominantContentType(contentTypes); dominant != "" {
		switch exchange.ClassifyContent(dominant) {
		case exchange.CategoryJSON:
			return CategoryAPI
		case exchange.CategoryBinary:
			return CategoryAsset
		case exchange.CategoryForm:
			return CategoryData
		case exchange.CategoryText:
			switch {
			case strings.Contains(dominant, "javascript"), strings.Contains(dominant, "css"):
				return CategoryAsset
			case strings.Contains(dominant, "html"):
				return CategoryPage
			case strings.Contains(dominant, "xml"), strings.Contains(dominant, "csv"), strings.Contains(dominant, "yaml"):
				return CategoryData
			}
		}
	}

	// Catches endpoints answering 204 No Content and the like.
	if apiPathPattern.MatchString(template) {
		return CategoryAPI
	}
	if isAssetPath(pathLower) {
		return CategoryAsset
	}
	return CategoryOther
}

// dominantContentType returns the most frequent content type, ties broken
// lexically so the choice is stable.
func dominantContentType(contentTypes map[string]int) string {
	keys := make([]string, 0, len(contentTypes))
	for ct := range contentTypes {
		keys = append(keys, ct)
	}
	sort.Strings(keys)

	var top string
	var topCount int
	for _, ct := range keys {
		if contentTypes[ct] > topCount {
			top, topCount = ct, contentTypes[ct]
		}
	}
	return top
}

// lastPathSegment returns the last segment of a path for extension detection.
// Returns empty string if the last segment is a template parameter like {id}.
func lastPathSegment(p string) string {
	segment := p[strings.LastIndex(p, "/")+1:]
	if strings.HasPrefix(segment, "{") {
		return ""
	}
	return segment
}

// isAssetPath checks for common framework static asset path patterns.
func isAssetPath(pathLower string) bool {
	for _, marker := range []string{"/static/", "/assets/", "/dist/", "/_next/", "/chunks/"} {
		if strings.Contains(pathLower+"/", marker) {
			return true
		}
	}
	return strings.Contains(pathLower, "/bundle")
}
