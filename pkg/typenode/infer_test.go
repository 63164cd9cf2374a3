package typenode

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustInfer(t *testing.T, s string) *Node {
	t.Helper()
	n, err := InferJSON([]byte(s))
	require.NoError(t, err)
	return n
}

func TestInfer_Scalars(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`null`, "null"},
		{`true`, "boolean"},
		{`42`, "integer"},
		{`-7`, "integer"},
		{`1.5`, "number"},
		{`1.0`, "number"},
		{`1e3`, "number"},
		{`"hello"`, "string"},
		{`"2024-01-15T10:30:00Z"`, "string(date-time)"},
		{`"2024-01-15 10:30:00.123+02:00"`, "string(date-time)"},
		{`"2024-01-15"`, "string"},
		{`"alice@example.com"`, "string(email)"},
		{`"550e8400-e29b-41d4-a716-446655440000"`, "string(uuid)"},
		{`"550e8400e29b41d4a716446655440000"`, "string"},
		{`[]`, "array<unknown>"},
		{`[1, 2.5]`, "array<number>"},
		{`[1, "a"]`, "array<integer|string>"},
		{`[1, null]`, "array<integer|null>"},
		{`{}`, "object{}"},
		{`{"b":1,"a":"x"}`, "object{a:string,b:integer}"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, mustInfer(t, tt.input).String())
		})
	}
}

func TestInfer_GoValues(t *testing.T) {
	var v any
	require.NoError(t, json.Unmarshal([]byte(`{"n":3,"f":2.5,"l":[{"x":true}]}`), &v))
	n := Infer(v)
	assert.Equal(t, "object{f:number,l:array<object{x:boolean}>,n:integer}", n.String())

	assert.Equal(t, KindInteger, Infer(int64(5)).Kind())
	assert.Equal(t, KindUnknown, Infer(struct{}{}).Kind())
	assert.Equal(t, KindUnknown, Infer(make(chan int)).Kind())
}

func TestInfer_FieldsRequiredPerSample(t *testing.T) {
	n := mustInfer(t, `{"a":1,"b":null}`)
	a, ok := n.Field("a")
	require.True(t, ok)
	assert.True(t, a.Required)
	assert.False(t, a.Nullable())

	b, ok := n.Field("b")
	require.True(t, ok)
	assert.True(t, b.Required)
	assert.True(t, b.Nullable())
	assert.Equal(t, KindNull, b.Type.Kind())

	_, ok = n.Field("c")
	assert.False(t, ok)
}

func TestInfer_MaxDepth(t *testing.T) {
	n, err := InferJSON([]byte(`{"a":{"b":{"c":1}}}`))
	require.NoError(t, err)
	assert.Equal(t, "object{a:object{b:object{c:integer}}}", n.String())

	var v any
	require.NoError(t, json.Unmarshal([]byte(`{"a":{"b":{"c":1}}}`), &v))
	shallow := InferWith(v, InferOptions{MaxDepth: 1})
	assert.Equal(t, "object{a:object{b:unknown}}", shallow.String())
}

func TestInferJSON_Invalid(t *testing.T) {
	_, err := InferJSON([]byte(`{"a":`))
	assert.Error(t, err)
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, FormatUUID, DetectFormat("550E8400-E29B-41D4-A716-446655440000"))
	assert.Equal(t, FormatNone, DetectFormat("{550e8400-e29b-41d4-a716-446655440000}"))
	assert.Equal(t, FormatNone, DetectFormat("urn:uuid:550e8400-e29b-41d4-a716-446655440000"))
	assert.Equal(t, FormatEmail, DetectFormat("a.b+c@mail.example.org"))
	assert.Equal(t, FormatNone, DetectFormat("not an@email"))
	assert.Equal(t, FormatDateTime, DetectFormat("2023-06-01T00:00:00.000Z"))
	assert.Equal(t, FormatNone, DetectFormat(""))
}
