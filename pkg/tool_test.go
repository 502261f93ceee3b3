package pkg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContains(t *testing.T) {
	assert.True(t, Contains([]string{"alice", "bob"}, "bob"))
	assert.False(t, Contains([]string{"alice"}, "carol"))
	assert.False(t, Contains(nil, "carol"))
}

func TestDedupe(t *testing.T) {
	assert.Equal(t, []string{"bob", "alice"}, Dedupe([]string{"bob", "", "alice", "bob"}))
	assert.Equal(t, []int64{3, 1}, Dedupe([]int64{3, 0, 3, 1}))
	assert.Empty(t, Dedupe[string](nil))
}
