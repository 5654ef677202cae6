// Package tally provides an insertion-ordered frequency counter.
// Ties in MostCommon keep first-seen order so results are deterministic.
package tally

import "sort"

// Entry is a counted key
type Entry struct {
	Key   string
	Count int
}

// Counter counts string occurrences
type Counter struct {
	order  []string
	counts map[string]int
}

// New creates an empty counter
func New() *Counter {
	return &Counter{counts: make(map[string]int)}
}

// Of creates a counter pre-filled with items
func Of(items []string) *Counter {
	c := New()
	c.AddAll(items)
	return c
}

// Add increments the count for key
func (c *Counter) Add(key string) {
	c.AddN(key, 1)
}

// AddN increments the count for key by n
func (c *Counter) AddN(key string, n int) {
	if _, ok := c.counts[key]; !ok {
		c.order = append(c.order, key)
	}
	c.counts[key] += n
}

// AddAll increments every item once
func (c *Counter) AddAll(items []string) {
	for _, item := range items {
		c.Add(item)
	}
}

// Get returns the count for key
func (c *Counter) Get(key string) int {
	return c.counts[key]
}

// Len returns the number of distinct keys
func (c *Counter) Len() int {
	return len(c.order)
}

// Entries returns all entries in first-seen order
func (c *Counter) Entries() []Entry {
	out := make([]Entry, len(c.order))
	for i, k := range c.order {
		out[i] = Entry{Key: k, Count: c.counts[k]}
	}
	return out
}

// MostCommon returns up to n entries by descending count.
// n <= 0 returns every entry.
func (c *Counter) MostCommon(n int) []Entry {
	entries := c.Entries()
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Count > entries[j].Count
	})
	if n > 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

// TopKeys returns the keys of MostCommon(n)
func (c *Counter) TopKeys(n int) []string {
	entries := c.MostCommon(n)
	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
	}
	return keys
}

// Top returns the most common key, or "" when empty
func (c *Counter) Top() string {
	keys := c.TopKeys(1)
	if len(keys) == 0 {
		return ""
	}
	return keys[0]
}
