package pagecache

import (
	"errors"
	"fmt"
)

var (
	// ErrNegativePage is raised (as a panic carrying *PageError) when a page
	// number below zero is written.
	ErrNegativePage = errors.New("pagecache: negative page number")

	// ErrUnorderedID marks an identifier that cannot take part in a total order
	// (NaN, or a value rejected by the collection's id check).
	ErrUnorderedID = errors.New("pagecache: identifier is not totally ordered")
)

type PageError struct {
	Index string
	Page  int
	Err   error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("collection %q page %d: %v", e.Index, e.Page, e.Err)
}

func (e *PageError) Unwrap() error { return e.Err }

// OrderingError is returned by MaxAddPage when an item's id cannot be compared
// with the watermark. Cause carries the id check's own error, if any.
type OrderingError struct {
	Index string
	ID    any
	Cause error
}

func (e *OrderingError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("collection %q: id %v: %v: %v", e.Index, e.ID, ErrUnorderedID, e.Cause)
	}
	return fmt.Sprintf("collection %q: id %v: %v", e.Index, e.ID, ErrUnorderedID)
}

func (e *OrderingError) Unwrap() []error {
	errs := make([]error, 0, 2)
	errs = append(errs, ErrUnorderedID)
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// KindMismatchError reports a registry key already bound to a collection of a
// different concrete type than the one requested.
type KindMismatchError struct {
	Key  Key
	Have string
	Want string
}

func (e *KindMismatchError) Error() string {
	return fmt.Sprintf("registry key %s holds %s, want %s", e.Key, e.Have, e.Want)
}
