package pagecache

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// Collections and the entity store call them on hot paths.
type Hooks interface {
	// A page was written. kept records matched the filter, dropped did not.
	PageStored(index string, page, kept, dropped int)

	// The watermark of a max-id collection moved forward.
	WatermarkAdvanced(index string, from, to any)

	// MaxAddPage rejected a batch because an id could not be ordered.
	OrderingViolation(index string, err error)

	// Registry built a new collection for key.
	CollectionCreated(key string)

	// Registry dropped all of its collections.
	RegistryCleared(count int)

	// An entity entry was deleted by the store on read.
	// reason ∈ {"corrupt", "stale_revision", "value_decode"}
	SelfHeal(storageKey, reason string)

	// Provider returned ok=false on Set (backpressure/eviction).
	ProviderSetRejected(storageKey string)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) PageStored(string, int, int, int)   {}
func (NopHooks) WatermarkAdvanced(string, any, any) {}
func (NopHooks) OrderingViolation(string, error)    {}
func (NopHooks) CollectionCreated(string)           {}
func (NopHooks) RegistryCleared(int)                {}
func (NopHooks) SelfHeal(string, string)            {}
func (NopHooks) ProviderSetRejected(string)         {}
