package pagecache

import "iter"

// Page is a read-only snapshot of one stored page. Later writes to the same
// page number never change a Page already handed out.
type Page[R any] struct {
	number  int
	records []R
}

func newPage[R any](number int, records []R) Page[R] {
	return Page[R]{number: number, records: records}
}

func (p Page[R]) Number() int { return p.number }
func (p Page[R]) Len() int    { return len(p.records) }

// All yields the page's records in stored order.
func (p Page[R]) All() iter.Seq[R] {
	return func(yield func(R) bool) {
		for _, r := range p.records {
			if !yield(r) {
				return
			}
		}
	}
}

// Records returns a copy of the page's records. Never nil.
func (p Page[R]) Records() []R {
	out := make([]R, len(p.records))
	copy(out, p.records)
	return out
}
