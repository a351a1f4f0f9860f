package pagecache

import (
	"cmp"
	"fmt"
)

// Pages is the page-store surface shared by Collection and MaxIDCollection.
// A Registry holds values of this type.
type Pages[R any] interface {
	Name() string
	Index() string
	AddPage(page int, items []R) Page[R]
	Get(page int) (Page[R], bool)
	Pages() []int
}

var (
	_ Pages[struct{}] = (*Collection[struct{}])(nil)
	_ Pages[struct{}] = (*MaxIDCollection[struct{}, int])(nil)
)

// Options configure a Collection. Name, Filter and Index are required.
type Options[R any] struct {
	// Required
	Name   string    // entity kind tag, e.g. "Subtask"
	Filter Filter[R] // membership predicate, evaluated once per record on AddPage
	Index  string    // query instance, usually Key.String()

	Logger Logger // if nil, NopLogger is used
	Hooks  Hooks  // if nil, NopHooks is used
}

// MaxIDOptions configure a MaxIDCollection. IDOf is required.
type MaxIDOptions[R any, ID cmp.Ordered] struct {
	Options[R]

	// IDOf extracts the identifier the watermark is computed over.
	IDOf func(R) ID
	// CheckID rejects ids whose encoding does not order the way the domain
	// expects (e.g. ObjectIds of the wrong width). Optional.
	CheckID func(ID) error
}

func New[R any](opts Options[R]) (*Collection[R], error) {
	return newCollection(opts)
}

func NewMaxID[R any, ID cmp.Ordered](opts MaxIDOptions[R, ID]) (*MaxIDCollection[R, ID], error) {
	if opts.IDOf == nil {
		return nil, fmt.Errorf("pagecache: id extractor is required")
	}
	c, err := newCollection(opts.Options)
	if err != nil {
		return nil, err
	}
	return &MaxIDCollection[R, ID]{
		Collection: c,
		idOf:       opts.IDOf,
		checkID:    opts.CheckID,
	}, nil
}

func newCollection[R any](opts Options[R]) (*Collection[R], error) {
	if opts.Name == "" {
		return nil, fmt.Errorf("pagecache: name is required")
	}
	if opts.Filter == nil {
		return nil, fmt.Errorf("pagecache: filter is required")
	}
	if opts.Index == "" {
		return nil, fmt.Errorf("pagecache: index is required")
	}
	return &Collection[R]{
		name:   opts.Name,
		index:  opts.Index,
		filter: opts.Filter,
		log:    coalesce[Logger](opts.Logger, NopLogger{}),
		hooks:  coalesce[Hooks](opts.Hooks, NopHooks{}),
		pages:  make(map[int][]R),
	}, nil
}
