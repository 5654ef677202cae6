package tally

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMostCommon_OrdersByCount(t *testing.T) {
	c := Of([]string{"go", "python", "go", "rust", "python", "go"})

	entries := c.MostCommon(2)
	assert.Equal(t, []Entry{{Key: "go", Count: 3}, {Key: "python", Count: 2}}, entries)
}

func TestMostCommon_TiesKeepFirstSeenOrder(t *testing.T) {
	c := Of([]string{"b", "a", "c", "a", "b", "c"})

	assert.Equal(t, []string{"b", "a", "c"}, c.TopKeys(0))
}

func TestTop_Empty(t *testing.T) {
	c := New()
	assert.Equal(t, "", c.Top())
	assert.Equal(t, 0, c.Len())
	assert.Empty(t, c.MostCommon(5))
}

func TestAddN(t *testing.T) {
	c := New()
	c.AddN("docs", 4)
	c.Add("docs")
	assert.Equal(t, 5, c.Get("docs"))
	assert.Equal(t, "docs", c.Top())
}
