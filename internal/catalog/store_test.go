package catalog

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/powhttp-sdkgen/pkg/apimodel"
)

func TestRunStore(t *testing.T) {
	s := NewRunStore(2)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		s.Put(&Run{ID: fmt.Sprintf("run%d", i), Model: &apimodel.Model{}, CreatedAt: base.Add(time.Duration(i) * time.Minute)})
	}

	_, ok := s.Get("run0")
	assert.False(t, ok, "oldest run evicted")

	run, ok := s.Get("run2")
	require.True(t, ok)
	assert.Equal(t, "run2", run.ID)

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, "run2", list[0].ID)
	assert.Equal(t, "run1", list[1].ID)
}

func TestRunStore_DefaultsCreatedAt(t *testing.T) {
	s := NewRunStore(0)
	s.Put(&Run{ID: "x"})
	run, ok := s.Get("x")
	require.True(t, ok)
	assert.False(t, run.CreatedAt.IsZero())
}
