package jsonschema

import (
	"encoding/json"
	"testing"

	"github.com/invopop/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/powhttp-sdkgen/pkg/typenode"
)

func infer(t *testing.T, samples ...string) *typenode.Node {
	t.Helper()
	nodes := make([]*typenode.Node, 0, len(samples))
	for _, s := range samples {
		n, err := typenode.InferJSON([]byte(s))
		require.NoError(t, err)
		nodes = append(nodes, n)
	}
	return typenode.MergeAll(nodes...)
}

func marshal(t *testing.T, s *jsonschema.Schema) string {
	t.Helper()
	data, err := json.Marshal(s)
	require.NoError(t, err)
	return string(data)
}

func TestFromNode(t *testing.T) {
	tests := []struct {
		name    string
		samples []string
		want    string
	}{
		{"string", []string{`"hello"`}, `{"type":"string"}`},
		{"integer", []string{`42`}, `{"type":"integer"}`},
		{"integer and number", []string{`1`, `1.5`}, `{"anyOf":[{"type":"integer"},{"type":"number"}]}`},
		{"boolean", []string{`true`}, `{"type":"boolean"}`},
		{"null", []string{`null`}, `{"type":"null"}`},
		{"uuid format", []string{`"123e4567-e89b-12d3-a456-426614174000"`}, `{"type":"string","format":"uuid"}`},
		{"empty array", []string{`[]`}, `{"type":"array"}`},
		{"array", []string{`[1,2]`}, `{"type":"array","items":{"type":"integer"}}`},
		{"nullable", []string{`1`, `null`}, `{"anyOf":[{"type":"integer"},{"type":"null"}]}`},
		{"union", []string{`1`, `"x"`}, `{"anyOf":[{"type":"integer"},{"type":"string"}]}`},
		{"nullable union", []string{`1`, `"x"`, `null`}, `{"anyOf":[{"type":"integer"},{"type":"string"},{"type":"null"}]}`},
		{
			"object",
			[]string{`{"b":1,"a":"x"}`, `{"a":"y"}`},
			`{"properties":{"a":{"type":"string"},"b":{"type":"integer"}},"type":"object","required":["a"]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.JSONEq(t, tt.want, marshal(t, FromNode(infer(t, tt.samples...))))
		})
	}
}

func TestFromNode_UnknownMatchesAnything(t *testing.T) {
	assert.Equal(t, "{}", marshal(t, FromNode(typenode.Unknown())))
	assert.Equal(t, "{}", marshal(t, FromNode(nil)))

	doc := Document(typenode.Unknown(), "empty")
	assert.JSONEq(t, `{"$schema":"https://json-schema.org/draft/2020-12/schema","title":"empty"}`, marshal(t, doc))
}

func TestFromNode_PropertyOrder(t *testing.T) {
	s := FromNode(infer(t, `{"zeta":1,"alpha":2,"mid":3}`))

	var keys []string
	for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, keys)
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, s.Required)
}

func TestDocument(t *testing.T) {
	s := Document(infer(t, `{"id":1}`), "GET /users/{id} 200")

	assert.Equal(t, jsonschema.Version, s.Version)
	assert.Equal(t, "GET /users/{id} 200", s.Title)
	assert.Equal(t, "object", s.Type)
}
