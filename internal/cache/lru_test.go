package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/powhttp-sdkgen/pkg/exchange"
	"github.com/usestring/powhttp-sdkgen/pkg/typenode"
)

func TestExchangeCache(t *testing.T) {
	c, err := NewExchangeCache(2)
	require.NoError(t, err)

	a := exchange.New(exchange.Params{ID: "a", Method: "GET", URL: "/a"})
	b := exchange.New(exchange.Params{ID: "b", Method: "GET", URL: "/b"})
	d := exchange.New(exchange.Params{ID: "d", Method: "GET", URL: "/d"})

	c.Put("s/a", a)
	c.Put("s/b", b)
	got, ok := c.Get("s/a")
	require.True(t, ok)
	assert.Same(t, a, got)

	// b is now least recently used
	c.Put("s/d", d)
	_, ok = c.Get("s/b")
	assert.False(t, ok)
	assert.Equal(t, 2, c.Len())
}

func TestNewExchangeCache_InvalidSize(t *testing.T) {
	_, err := NewExchangeCache(0)
	assert.Error(t, err)
}

func TestInferCache(t *testing.T) {
	c, err := NewInferCache(8, typenode.DefaultInferOptions())
	require.NoError(t, err)

	ct := "application/json"
	first := c.Infer(exchange.NewBody([]byte(`{"id":1}`), ct))
	again := c.Infer(exchange.NewBody([]byte(`{"id":1}`), ct))
	other := c.Infer(exchange.NewBody([]byte(`{"id":"x"}`), ct))

	assert.Same(t, first, again)
	assert.Equal(t, "object{id:integer}", first.String())
	assert.Equal(t, "object{id:string}", other.String())
	assert.Equal(t, 2, c.Len())
}

func TestInferCache_MaxDepth(t *testing.T) {
	c, err := NewInferCache(8, typenode.InferOptions{MaxDepth: 1})
	require.NoError(t, err)

	n := c.Infer(exchange.NewBody([]byte(`{"a":{"b":1}}`), "application/json"))
	assert.Equal(t, "object{a:object{b:unknown}}", n.String())
}
