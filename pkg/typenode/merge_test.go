package typenode

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mergeJSON(t *testing.T, samples ...string) *Node {
	t.Helper()
	nodes := make([]*Node, len(samples))
	for i, s := range samples {
		nodes[i] = mustInfer(t, s)
	}
	return MergeAll(nodes...)
}

func TestMerge_RequiredField(t *testing.T) {
	n := mergeJSON(t, `{"a":1,"b":2}`, `{"a":1}`)

	a, _ := n.Field("a")
	assert.True(t, a.Required)
	assert.False(t, a.Nullable())

	b, _ := n.Field("b")
	assert.False(t, b.Required)
	assert.False(t, b.Nullable(), "absence must never imply nullable")
	assert.Equal(t, KindInteger, b.Type.Kind())
}

func TestMerge_Nullability(t *testing.T) {
	n := mergeJSON(t, `{"a":1}`, `{"a":null}`)

	a, ok := n.Field("a")
	require.True(t, ok)
	assert.True(t, a.Required)
	assert.True(t, a.Nullable())
	assert.Equal(t, KindInteger, a.Type.Kind())
	assert.False(t, a.IsUnion())
}

func TestMerge_DriftUnion(t *testing.T) {
	n := mergeJSON(t, `{"a":1}`, `{"a":"x"}`)

	a, _ := n.Field("a")
	require.True(t, a.IsUnion())
	br := a.Type.Branches()
	require.Len(t, br, 2)
	assert.Equal(t, KindInteger, br[0].Kind())
	assert.Equal(t, KindString, br[1].Kind())
	assert.Equal(t, []string{"$.a"}, Drift(n))
}

func TestMerge_Cases(t *testing.T) {
	tests := []struct {
		name    string
		samples []string
		want    string
	}{
		{"null and null", []string{`null`, `null`}, "null"},
		{"null absorbed", []string{`null`, `"x"`}, "string|null"},
		{"integer and number stay distinct", []string{`1`, `2.5`}, "integer|number"},
		{"integers fold", []string{`1`, `2`}, "integer"},
		{"numbers fold", []string{`1.5`, `2.5`}, "number"},
		{"same format kept", []string{`"a@b.io"`, `"c@d.io"`}, "string(email)"},
		{"differing formats dropped", []string{`"a@b.io"`, `"550e8400-e29b-41d4-a716-446655440000"`}, "string"},
		{"format and plain dropped", []string{`"a@b.io"`, `"plain"`}, "string"},
		{"empty array adopts element", []string{`[]`, `[1]`}, "array<integer>"},
		{"empty arrays stay unknown", []string{`[]`, `[]`}, "array<unknown>"},
		{"object vs scalar is union", []string{`{"a":1}`, `"x"`}, "string|object{a:integer}"},
		{"object vs array is union", []string{`{"a":1}`, `[1]`}, "array<integer>|object{a:integer}"},
		{"union folds matching branch", []string{`1`, `"x"`, `2`}, "integer|string"},
		{"union grows by kind", []string{`1`, `"x"`, `2.5`}, "integer|number|string"},
		{"number field drift", []string{`{"a":1}`, `{"a":1.5}`}, "object{a:integer|number}"},
		{"union nullable lifted", []string{`1`, `"x"`, `null`}, "integer|string|null"},
		{"union objects fold", []string{`{"a":1}`, `true`, `{"b":2}`}, "boolean|object{a?:integer,b?:integer}"},
		{"nested fields", []string{`{"u":{"n":"a"}}`, `{"u":{"n":null,"m":1}}`}, "object{u:object{m?:integer,n:string|null}}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mergeJSON(t, tt.samples...).String())
		})
	}
}

func TestMerge_UnknownIsIdentity(t *testing.T) {
	n := mustInfer(t, `{"a":[1,"x"],"b":null}`)
	assert.True(t, Merge(Unknown(), n).Equal(n))
	assert.True(t, Merge(n, Unknown()).Equal(n))
	assert.True(t, Merge(nil, n).Equal(n))
	assert.Equal(t, KindUnknown, MergeAll().Kind())
}

func TestMerge_DoesNotMutateInputs(t *testing.T) {
	a := mustInfer(t, `{"a":1}`)
	b := mustInfer(t, `{"a":null,"b":"x"}`)
	beforeA, beforeB := a.Key(), b.Key()

	_ = Merge(a, b)

	assert.Equal(t, beforeA, a.Key())
	assert.Equal(t, beforeB, b.Key())
}

// randomValue builds a JSON value from a small alphabet so that samples
// collide on field names and kinds often enough to exercise every merge case.
func randomValue(r *rand.Rand, depth int) any {
	max := 9
	if depth >= 3 {
		max = 6
	}
	switch r.Intn(max) {
	case 0:
		return nil
	case 1:
		return r.Intn(2) == 0
	case 2:
		return json.Number(fmt.Sprint(r.Intn(100)))
	case 3:
		return json.Number("2.5")
	case 4:
		pool := []string{"x", "", "a@b.io", "2024-01-02T03:04:05Z", "550e8400-e29b-41d4-a716-446655440000"}
		return pool[r.Intn(len(pool))]
	case 5:
		return json.Number("7")
	case 6, 7:
		obj := map[string]any{}
		for _, k := range []string{"a", "b", "c"} {
			if r.Intn(2) == 0 {
				obj[k] = randomValue(r, depth+1)
			}
		}
		return obj
	default:
		n := r.Intn(3)
		arr := make([]any, n)
		for i := range arr {
			arr[i] = randomValue(r, depth+1)
		}
		return arr
	}
}

func randomNodes(r *rand.Rand, n int) []*Node {
	out := make([]*Node, n)
	for i := range out {
		out[i] = Infer(randomValue(r, 0))
	}
	return out
}

// treeFold merges adjacent pairs in a random pairing until one node remains,
// the shape a parallel reduction produces.
func treeFold(r *rand.Rand, nodes []*Node) *Node {
	work := append([]*Node(nil), nodes...)
	for len(work) > 1 {
		i := r.Intn(len(work) - 1)
		merged := Merge(work[i], work[i+1])
		work = append(work[:i], append([]*Node{merged}, work[i+2:]...)...)
	}
	if len(work) == 0 {
		return Unknown()
	}
	return work[0]
}

func TestMergeProperty_Commutative(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 500; i++ {
		n := randomNodes(r, 2)
		ab, ba := Merge(n[0], n[1]), Merge(n[1], n[0])
		require.Equal(t, ab.Key(), ba.Key(), "a=%s b=%s", n[0], n[1])
	}
}

func TestMergeProperty_Associative(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	for i := 0; i < 500; i++ {
		n := randomNodes(r, 3)
		left := Merge(Merge(n[0], n[1]), n[2])
		right := Merge(n[0], Merge(n[1], n[2]))
		require.Equal(t, left.Key(), right.Key(), "a=%s b=%s c=%s", n[0], n[1], n[2])
	}
}

func TestMergeProperty_Idempotent(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	for i := 0; i < 500; i++ {
		n := randomNodes(r, 2)
		m := Merge(n[0], n[1])
		require.Equal(t, n[0].Key(), Merge(n[0], n[0]).Key())
		require.Equal(t, m.Key(), Merge(m, m).Key())
		require.Equal(t, m.Key(), Merge(m, n[1]).Key(), "absorbing an already merged sample changes nothing")
	}
}

func TestMergeProperty_AnyOrderAnyShape(t *testing.T) {
	r := rand.New(rand.NewSource(4))
	for i := 0; i < 200; i++ {
		nodes := randomNodes(r, 2+r.Intn(6))
		want := MergeAll(nodes...).Key()

		for j := 0; j < 5; j++ {
			shuffled := append([]*Node(nil), nodes...)
			r.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
			require.Equal(t, want, MergeAll(shuffled...).Key())
			require.Equal(t, want, treeFold(r, shuffled).Key())
		}
	}
}
