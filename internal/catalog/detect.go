package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"

	"github.com/usestring/powhttp-sdkgen/pkg/apimodel"
	"github.com/usestring/powhttp-sdkgen/pkg/exchange"
	"github.com/usestring/powhttp-sdkgen/pkg/ident"
)

// DetectOptions tunes path templating.
type DetectOptions struct {
	// ShortNumericMaxLen is the longest all-digit segment that still needs
	// MinDistinctValues observations before it becomes a parameter.
	ShortNumericMaxLen int
	// MinDistinctValues is how many distinct values a weak token position
	// needs before it is templated.
	MinDistinctValues int
	// TokenMinLen is the shortest mixed letter/digit segment judged to be an
	// identifier.
	TokenMinLen int
}

// DefaultDetectOptions returns the default templating thresholds.
func DefaultDetectOptions() DetectOptions {
	return DetectOptions{
		ShortNumericMaxLen: 1,
		MinDistinctValues:  2,
		TokenMinLen:        6,
	}
}

func applyOptionsDefaults(opts DetectOptions) DetectOptions {
	def := DefaultDetectOptions()
	if opts.ShortNumericMaxLen < 0 {
		opts.ShortNumericMaxLen = 0
	}
	if opts.ShortNumericMaxLen == 0 && opts.MinDistinctValues == 0 && opts.TokenMinLen == 0 {
		return def
	}
	if opts.MinDistinctValues < 2 {
		opts.MinDistinctValues = def.MinDistinctValues
	}
	if opts.TokenMinLen <= 0 {
		opts.TokenMinLen = def.TokenMinLen
	}
	return opts
}

// Detector groups exchanges into endpoints.
type Detector struct {
	opts DetectOptions
}

// NewDetector creates a Detector. Zero options mean defaults.
func NewDetector(opts DetectOptions) *Detector {
	return &Detector{opts: applyOptionsDefaults(opts)}
}

// Group is a set of exchanges hitting one logical route.
type Group struct {
	ID       string
	Method   string
	Template string
	Params   []apimodel.PathParam
	// Members are in canonical order (path, timestamp, ID).
	Members  []*exchange.Exchange
	Category Category
}

type slot struct {
	literal string
	param   bool
	values  []string // distinct, first-seen order
}

func (s *slot) observe(v string) {
	for _, have := range s.values {
		if have == v {
			return
		}
	}
	s.values = append(s.values, v)
}

type draft struct {
	method  string
	slots   []slot
	members []*exchange.Exchange
	seq     int
}

func (g *draft) add(ex *exchange.Exchange, segs []string) {
	for i, s := range segs {
		sl := &g.slots[i]
		if !sl.param && sl.literal != s {
			sl.param = true
		}
		sl.observe(s)
	}
	g.members = append(g.members, ex)
}

func (g *draft) paramCount() int {
	n := 0
	for _, s := range g.slots {
		if s.param {
			n++
		}
	}
	return n
}

type bucketKey struct {
	method string
	depth  int
}

// Detect groups exchanges by method and reconcilable path template.
//
// Phase one assigns each exchange, in canonical order, to the provisional
// group needing the fewest newly templated segments (ties go to the larger
// group). Phase two re-validates templates against every observed value and
// folds groups whose templates turned out to be generalizations of others.
// The result is independent of input order.
func (d *Detector) Detect(exchanges []*exchange.Exchange) []*Group {
	sorted, rank := canonicalOrder(exchanges)

	buckets := make(map[bucketKey][]*draft)
	var drafts []*draft
	seq := 0
	for _, ex := range sorted {
		segs := ex.Segments()
		key := bucketKey{method: ex.Method, depth: len(segs)}

		target := d.bestDraft(buckets[key], segs)
		if target == nil {
			target = newDraft(ex.Method, segs, seq)
			seq++
			buckets[key] = append(buckets[key], target)
			drafts = append(drafts, target)
		}
		target.add(ex, segs)
	}

	drafts = d.revalidate(drafts, &seq)
	drafts = d.reconcile(drafts, rank)

	groups := make([]*Group, 0, len(drafts))
	for _, g := range drafts {
		groups = append(groups, d.finalize(g))
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Template != groups[j].Template {
			return groups[i].Template < groups[j].Template
		}
		return groups[i].Method < groups[j].Method
	})
	return groups
}

func canonicalOrder(exchanges []*exchange.Exchange) ([]*exchange.Exchange, map[*exchange.Exchange]int) {
	sorted := make([]*exchange.Exchange, 0, len(exchanges))
	for _, ex := range exchanges {
		if ex != nil {
			sorted = append(sorted, ex)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		if a.Method != b.Method {
			return a.Method < b.Method
		}
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.Before(b.Timestamp)
		}
		return a.ID < b.ID
	})
	rank := make(map[*exchange.Exchange]int, len(sorted))
	for i, ex := range sorted {
		rank[ex] = i
	}
	return sorted, rank
}

func newDraft(method string, segs []string, seq int) *draft {
	g := &draft{method: method, slots: make([]slot, len(segs)), seq: seq}
	for i, s := range segs {
		g.slots[i].literal = s
	}
	return g
}

// joinCost returns how many static segments joining would promote.
// A templated segment accepts anything; a static one only an exact match,
// unless both values look like identifiers.
func (d *Detector) joinCost(g *draft, segs []string) (int, bool) {
	cost := 0
	for i, s := range segs {
		sl := &g.slots[i]
		switch {
		case sl.param, sl.literal == s:
		case d.dynamic(s) && d.dynamic(sl.literal):
			cost++
		default:
			return 0, false
		}
	}
	return cost, true
}

func (d *Detector) bestDraft(candidates []*draft, segs []string) *draft {
	var best *draft
	bestCost := 0
	for _, g := range candidates {
		cost, ok := d.joinCost(g, segs)
		if !ok {
			continue
		}
		if best == nil || cost < bestCost || (cost == bestCost && len(g.members) > len(best.members)) {
			best, bestCost = g, cost
		}
	}
	return best
}

// revalidate templates strong identifiers seen only once and splits groups
// whose weak parameters never reached the distinct-value threshold.
func (d *Detector) revalidate(drafts []*draft, seq *int) []*draft {
	out := make([]*draft, 0, len(drafts))
	for _, g := range drafts {
		var demote []int
		for i := range g.slots {
			sl := &g.slots[i]
			if !sl.param {
				if _, strong := d.ClassifySegment(sl.literal); strong {
					sl.param = true
				}
				continue
			}
			if len(sl.values) < d.opts.MinDistinctValues && d.allWeak(sl.values) {
				demote = append(demote, i)
			}
		}
		if len(demote) == 0 {
			out = append(out, g)
			continue
		}
		out = append(out, d.split(g, demote, seq)...)
	}
	return out
}

func (d *Detector) allWeak(values []string) bool {
	for _, v := range values {
		kind, strong := d.ClassifySegment(v)
		if kind == SegmentStatic || strong {
			return false
		}
	}
	return true
}

// split partitions g by the concrete values at the demoted positions.
func (d *Detector) split(g *draft, demote []int, seq *int) []*draft {
	var order []string
	parts := make(map[string]*draft)
	for _, ex := range g.members {
		segs := ex.Segments()
		keyParts := make([]string, len(demote))
		for i, pos := range demote {
			keyParts[i] = segs[pos]
		}
		key := strings.Join(keyParts, "\x00")

		part, ok := parts[key]
		if !ok {
			part = newDraft(g.method, segs, g.seq)
			for i := range part.slots {
				part.slots[i].param = g.slots[i].param
			}
			for _, pos := range demote {
				part.slots[pos].param = false
			}
			if len(parts) > 0 {
				part.seq = *seq
				*seq++
			}
			parts[key] = part
			order = append(order, key)
		}
		part.add(ex, segs)
	}
	out := make([]*draft, 0, len(order))
	for _, k := range order {
		out = append(out, parts[k])
	}
	return out
}

// generalizes reports whether every path matching s also matches t.
func generalizes(t, s *draft) bool {
	if t.method != s.method || len(t.slots) != len(s.slots) {
		return false
	}
	for i := range t.slots {
		if t.slots[i].param {
			continue
		}
		if s.slots[i].param || s.slots[i].literal != t.slots[i].literal {
			return false
		}
	}
	return true
}

// reconcile folds each group into a different group whose template already
// covers it, preferring the most populous target. Runs to a fixpoint.
func (d *Detector) reconcile(drafts []*draft, rank map[*exchange.Exchange]int) []*draft {
	for {
		sort.SliceStable(drafts, func(i, j int) bool {
			pi, pj := drafts[i].paramCount(), drafts[j].paramCount()
			if pi != pj {
				return pi < pj
			}
			return drafts[i].seq < drafts[j].seq
		})

		merged := false
		for si, s := range drafts {
			var target *draft
			for _, t := range drafts {
				if t == s || !generalizes(t, s) || !d.absorbs(t, s) {
					continue
				}
				if generalizes(s, t) && !outranks(t, s) {
					continue
				}
				if target == nil || outranks(t, target) {
					target = t
				}
			}
			if target == nil {
				continue
			}
			for _, ex := range s.members {
				target.add(ex, ex.Segments())
			}
			sort.SliceStable(target.members, func(i, j int) bool {
				return rank[target.members[i]] < rank[target.members[j]]
			})
			drafts = append(drafts[:si], drafts[si+1:]...)
			merged = true
			break
		}
		if !merged {
			return drafts
		}
	}
}

// absorbs reports whether t's parameters have the evidence to take s's
// literals: at each position t templates and s keeps static, the literal
// must itself look dynamic or t must have seen MinDistinctValues values.
// A parameter templated from one strong sample does not swallow /users/me.
func (d *Detector) absorbs(t, s *draft) bool {
	for i := range t.slots {
		if !t.slots[i].param || s.slots[i].param {
			continue
		}
		if !d.dynamic(s.slots[i].literal) && len(t.slots[i].values) < d.opts.MinDistinctValues {
			return false
		}
	}
	return true
}

// outranks orders merge targets: more members first, then older groups.
func outranks(a, b *draft) bool {
	if len(a.members) != len(b.members) {
		return len(a.members) > len(b.members)
	}
	return a.seq < b.seq
}

func (d *Detector) finalize(g *draft) *Group {
	names := paramNames(g.slots)
	parts := make([]string, len(g.slots))
	var params []apimodel.PathParam
	for i, sl := range g.slots {
		if !sl.param {
			parts[i] = sl.literal
			continue
		}
		parts[i] = "{" + names[i] + "}"
		params = append(params, apimodel.PathParam{
			Name:     names[i],
			Kind:     d.paramKind(sl.values),
			Position: i,
		})
	}
	template := "/" + strings.Join(parts, "/")

	return &Group{
		ID:       computeGroupID(g.method, template),
		Method:   g.method,
		Template: template,
		Params:   params,
		Members:  g.members,
		Category: classifyGroup(template, g.members),
	}
}

// paramNames names a lone parameter "id"; several are named after the
// nearest preceding static segment ("userId"), else "paramN".
func paramNames(slots []slot) map[int]string {
	var positions []int
	for i, sl := range slots {
		if sl.param {
			positions = append(positions, i)
		}
	}
	names := make(map[int]string, len(positions))
	if len(positions) == 1 {
		names[positions[0]] = "id"
		return names
	}

	reg := ident.NewRegistry()
	for n, pos := range positions {
		name := ""
		if pos > 0 && !slots[pos-1].param {
			words := ident.Words(slots[pos-1].literal)
			if len(words) > 0 && !ident.StartsWithDigit(words[0]) {
				words[len(words)-1] = ident.Singular(words[len(words)-1])
				name = ident.Camel(append(words, "id"))
			}
		}
		if name == "" || reg.Taken(name) {
			name = "param" + strconv.Itoa(n+1)
		}
		names[pos] = reg.Claim(name)
	}
	return names
}

// computeGroupID generates a deterministic group ID from method and template.
func computeGroupID(method, template string) string {
	hash := sha256.Sum256([]byte(method + "\x00" + template))
	return hex.EncodeToString(hash[:])[:12]
}
