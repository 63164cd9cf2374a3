// Package indexer builds Roaring bitmap indexes over captured exchanges so
// an analysis can be scoped by host, method, status and URL keywords.
package indexer

import (
	"sort"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/usestring/powhttp-sdkgen/pkg/exchange"
)

// Scope narrows the exchanges an analysis sees. Empty fields do not filter;
// the set fields are intersected.
type Scope struct {
	// Hosts are matched exactly, or with a "*." prefix against the domain
	// and all of its subdomains. Several hosts are OR-ed.
	Hosts []string `json:"hosts,omitempty"`
	// Methods are OR-ed, case-insensitive.
	Methods []string `json:"methods,omitempty"`
	// StatusMin and StatusMax bound the response status, inclusive. Zero
	// means unbounded.
	StatusMin int `json:"status_min,omitempty"`
	StatusMax int `json:"status_max,omitempty"`
	// Keywords must all appear among the URL tokens (see TokenizeExchange).
	Keywords []string `json:"keywords,omitempty"`
}

// IsZero reports whether the scope selects everything.
func (s Scope) IsZero() bool {
	return len(s.Hosts) == 0 && len(s.Methods) == 0 && s.StatusMin == 0 &&
		s.StatusMax == 0 && len(s.Keywords) == 0
}

// Index maintains inverted indexes over a fixed exchange set. It is
// immutable after Build and safe for concurrent readers.
type Index struct {
	docs []*exchange.Exchange

	idxHost   map[string]*roaring.Bitmap
	idxMethod map[string]*roaring.Bitmap
	idxStatus map[int]*roaring.Bitmap
	idxToken  map[string]*roaring.Bitmap
}

// Build indexes exchanges. Document IDs are the positions in exs.
func Build(exs []*exchange.Exchange) *Index {
	idx := &Index{
		docs:      exs,
		idxHost:   make(map[string]*roaring.Bitmap),
		idxMethod: make(map[string]*roaring.Bitmap),
		idxStatus: make(map[int]*roaring.Bitmap),
		idxToken:  make(map[string]*roaring.Bitmap),
	}
	for i, ex := range exs {
		docID := uint32(i)
		if ex.Host != "" {
			addToBitmap(idx.idxHost, ex.Host, docID)
		}
		if ex.Method != "" {
			addToBitmap(idx.idxMethod, ex.Method, docID)
		}
		addToIntBitmap(idx.idxStatus, ex.Status, docID)
		for _, token := range TokenizeExchange(ex) {
			addToBitmap(idx.idxToken, token, docID)
		}
	}
	return idx
}

// DocCount returns the number of indexed exchanges.
func (idx *Index) DocCount() int { return len(idx.docs) }

// AllDocIDs returns a bitmap of all document IDs.
func (idx *Index) AllDocIDs() *roaring.Bitmap {
	bm := roaring.New()
	if n := len(idx.docs); n > 0 {
		bm.AddRange(0, uint64(n))
	}
	return bm
}

// Select returns the document IDs in scope.
func (idx *Index) Select(s Scope) *roaring.Bitmap {
	result := idx.AllDocIDs()

	if len(s.Hosts) > 0 {
		hosts := roaring.New()
		for _, h := range s.Hosts {
			if bm := idx.BitmapForHost(h); bm != nil {
				hosts.Or(bm)
			}
		}
		result.And(hosts)
	}

	if len(s.Methods) > 0 {
		methods := roaring.New()
		for _, m := range s.Methods {
			if bm := idx.idxMethod[strings.ToUpper(m)]; bm != nil {
				methods.Or(bm)
			}
		}
		result.And(methods)
	}

	if s.StatusMin > 0 || s.StatusMax > 0 {
		result.And(idx.BitmapForStatusRange(s.StatusMin, s.StatusMax))
	}

	for _, kw := range s.Keywords {
		for _, token := range Tokenize(kw) {
			bm := idx.idxToken[token]
			if bm == nil {
				return roaring.New()
			}
			result.And(bm)
		}
	}
	return result
}

// Exchanges resolves document IDs back to exchanges, in document order.
func (idx *Index) Exchanges(bm *roaring.Bitmap) []*exchange.Exchange {
	out := make([]*exchange.Exchange, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		if id := int(it.Next()); id < len(idx.docs) {
			out = append(out, idx.docs[id])
		}
	}
	return out
}

// Filter is Select followed by Exchanges.
func (idx *Index) Filter(s Scope) []*exchange.Exchange {
	if s.IsZero() {
		return append([]*exchange.Exchange(nil), idx.docs...)
	}
	return idx.Exchanges(idx.Select(s))
}

// BitmapForHost returns the bitmap for a host pattern.
// Supports wildcard prefix: "*.example.com" matches "example.com"
// and all subdomains like "api.example.com", "www.example.com".
// Without the prefix, matches exactly.
func (idx *Index) BitmapForHost(host string) *roaring.Bitmap {
	host = strings.ToLower(host)
	if !strings.HasPrefix(host, "*.") {
		return idx.idxHost[host]
	}

	baseDomain := host[2:]
	if baseDomain == "" {
		return nil
	}

	suffix := "." + baseDomain
	result := roaring.New()
	for key, bm := range idx.idxHost {
		if key == baseDomain || strings.HasSuffix(key, suffix) {
			result.Or(bm)
		}
	}
	if result.IsEmpty() {
		return nil
	}
	return result
}

// BitmapForStatusRange unions the status bitmaps within [lo, hi]. A zero
// bound is open.
func (idx *Index) BitmapForStatusRange(lo, hi int) *roaring.Bitmap {
	result := roaring.New()
	for status, bm := range idx.idxStatus {
		if lo > 0 && status < lo {
			continue
		}
		if hi > 0 && status > hi {
			continue
		}
		result.Or(bm)
	}
	return result
}

// Hosts returns the indexed hosts with their exchange counts, most frequent
// first and then lexically.
func (idx *Index) Hosts() []HostCount {
	out := make([]HostCount, 0, len(idx.idxHost))
	for h, bm := range idx.idxHost {
		out = append(out, HostCount{Host: h, Count: int(bm.GetCardinality())})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Host < out[j].Host
	})
	return out
}

// HostCount is one row of Hosts.
type HostCount struct {
	Host  string `json:"host"`
	Count int    `json:"count"`
}

func addToBitmap(index map[string]*roaring.Bitmap, key string, docID uint32) {
	bm, exists := index[key]
	if !exists {
		bm = roaring.New()
		index[key] = bm
	}
	bm.Add(docID)
}

func addToIntBitmap(index map[int]*roaring.Bitmap, key int, docID uint32) {
	bm, exists := index[key]
	if !exists {
		bm = roaring.New()
		index[key] = bm
	}
	bm.Add(docID)
}
