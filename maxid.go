package pagecache

import "cmp"

// MaxIDCollection is a Collection that also tracks the highest id it has ever
// been fed through MaxAddPage. The watermark is computed before filtering: an
// item that is excluded from the visible page (say, marked done) still counts
// as progress in the source feed. It never decreases.
type MaxIDCollection[R any, ID cmp.Ordered] struct {
	*Collection[R]

	idOf    func(R) ID
	checkID func(ID) error

	// guarded by Collection.mu
	maxID  ID
	hasMax bool
}

// MaxAddPage behaves like AddPage and raises the watermark to the largest id in
// items. Ids are validated before anything is written: on *OrderingError the
// page and the watermark are left as they were.
func (c *MaxIDCollection[R, ID]) MaxAddPage(page int, items []R) (Page[R], error) {
	c.mustPage(page)
	top, seen, err := c.highest(items)
	if err != nil {
		c.hooks.OrderingViolation(c.index, err)
		c.log.Error("watermark batch rejected", Fields{"index": c.index, "page": page, "err": err})
		return Page[R]{}, err
	}
	kept := c.match(items)

	c.mu.Lock()
	c.pages[page] = kept
	prev, had := c.maxID, c.hasMax
	advanced := seen && (!had || cmp.Less(prev, top))
	if advanced {
		c.maxID, c.hasMax = top, true
	}
	c.mu.Unlock()

	c.stored(page, len(kept), len(items)-len(kept))
	if advanced {
		var from any
		if had {
			from = prev
		}
		c.hooks.WatermarkAdvanced(c.index, from, top)
		c.log.Debug("watermark advanced", Fields{"index": c.index, "from": from, "to": top})
	}
	return newPage(page, kept), nil
}

// MaxID returns the watermark, or false if no item has been observed yet.
func (c *MaxIDCollection[R, ID]) MaxID() (ID, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.maxID, c.hasMax
}

func (c *MaxIDCollection[R, ID]) highest(items []R) (top ID, seen bool, err error) {
	for _, it := range items {
		id := c.idOf(it)
		// only NaN is unequal to itself
		if id != id {
			return top, false, &OrderingError{Index: c.index, ID: id}
		}
		if c.checkID != nil {
			if err := c.checkID(id); err != nil {
				return top, false, &OrderingError{Index: c.index, ID: id, Cause: err}
			}
		}
		if !seen || cmp.Less(top, id) {
			top, seen = id, true
		}
	}
	return top, seen, nil
}
