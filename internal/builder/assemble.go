package builder

import (
	"sort"

	"github.com/usestring/powhttp-sdkgen/internal/catalog"
	"github.com/usestring/powhttp-sdkgen/pkg/apimodel"
	"github.com/usestring/powhttp-sdkgen/pkg/exchange"
)

// Meta is the global metadata of a model.
type Meta struct {
	Title string
	// BaseURLs overrides the observed base URL candidates when set.
	BaseURLs []string
	// Observed are the candidates seen in traffic, most frequent first.
	Observed []string
}

// DefaultTitle is used when no title is configured.
const DefaultTitle = "API"

// Assemble orders the endpoints, names their operations and derives the
// global auth scheme. The input slice is not modified.
func Assemble(endpoints []apimodel.Endpoint, meta Meta) *apimodel.Model {
	eps := make([]apimodel.Endpoint, len(endpoints))
	copy(eps, endpoints)
	sort.SliceStable(eps, func(i, j int) bool {
		if eps[i].PathTemplate != eps[j].PathTemplate {
			return eps[i].PathTemplate < eps[j].PathTemplate
		}
		return eps[i].Method < eps[j].Method
	})
	AssignOperationNames(eps)

	votes := make(map[apimodel.Auth]int)
	for _, ep := range eps {
		if ep.Auth.Scheme != apimodel.AuthNone {
			votes[ep.Auth] += ep.SampleCount
		}
	}

	title := meta.Title
	if title == "" {
		title = DefaultTitle
	}
	baseURLs := meta.BaseURLs
	if len(baseURLs) == 0 {
		baseURLs = meta.Observed
	}
	if baseURLs == nil {
		baseURLs = []string{}
	}

	return &apimodel.Model{
		Version:   apimodel.Version,
		Title:     title,
		BaseURLs:  baseURLs,
		Auth:      catalog.PickAuth(votes),
		Endpoints: eps,
	}
}

// BaseURLs returns the distinct base URLs of the exchanges, most frequent
// first and lexically within equal counts.
func BaseURLs(exchanges []*exchange.Exchange) []string {
	counts := make(map[string]int)
	for _, ex := range exchanges {
		if u := ex.BaseURL(); u != "" {
			counts[u]++
		}
	}
	out := make([]string, 0, len(counts))
	for u := range counts {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if counts[out[i]] != counts[out[j]] {
			return counts[out[i]] > counts[out[j]]
		}
		return out[i] < out[j]
	})
	return out
}
