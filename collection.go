package pagecache

import (
	"slices"
	"sync"
)

// Collection is a page-indexed cache for one query. Every stored record
// matched the filter at the time it was added; membership is not re-checked
// when the record later changes elsewhere.
type Collection[R any] struct {
	name   string
	index  string
	filter Filter[R]
	log    Logger
	hooks  Hooks

	mu    sync.RWMutex
	pages map[int][]R // stored slices are never mutated, only replaced
}

func (c *Collection[R]) Name() string  { return c.name }
func (c *Collection[R]) Index() string { return c.index }

// AddPage stores the items matching the filter as the content of page,
// replacing whatever the page held before. An empty batch leaves an empty,
// but present, page. Panics with *PageError if page is negative.
func (c *Collection[R]) AddPage(page int, items []R) Page[R] {
	c.mustPage(page)
	kept := c.match(items)

	c.mu.Lock()
	c.pages[page] = kept
	c.mu.Unlock()

	c.stored(page, len(kept), len(items)-len(kept))
	return newPage(page, kept)
}

// Get returns the stored page, or false if the page was never added.
func (c *Collection[R]) Get(page int) (Page[R], bool) {
	if page < 0 {
		return Page[R]{}, false
	}
	c.mu.RLock()
	recs, ok := c.pages[page]
	c.mu.RUnlock()
	if !ok {
		return Page[R]{}, false
	}
	return newPage(page, recs), true
}

// Pages returns the populated page numbers in ascending order.
func (c *Collection[R]) Pages() []int {
	c.mu.RLock()
	out := make([]int, 0, len(c.pages))
	for n := range c.pages {
		out = append(out, n)
	}
	c.mu.RUnlock()
	slices.Sort(out)
	return out
}

// Len is the number of records across all pages.
func (c *Collection[R]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, recs := range c.pages {
		n += len(recs)
	}
	return n
}

func (c *Collection[R]) match(items []R) []R {
	kept := make([]R, 0, len(items))
	for _, it := range items {
		if c.filter.Match(it) {
			kept = append(kept, it)
		}
	}
	return kept
}

func (c *Collection[R]) mustPage(page int) {
	if page < 0 {
		panic(&PageError{Index: c.index, Page: page, Err: ErrNegativePage})
	}
}

func (c *Collection[R]) stored(page, kept, dropped int) {
	c.hooks.PageStored(c.index, page, kept, dropped)
	c.log.Debug("page stored", Fields{
		"collection": c.name,
		"index":      c.index,
		"filter":     describe(c.filter),
		"page":       page,
		"kept":       kept,
		"dropped":    dropped,
	})
}
