package pagecache

import "github.com/unkn0wn-root/pagecache/internal/util"

// Key identifies one query instance in a Registry. Keys compare structurally,
// so {Scope: "a:b"} and {Scope: "a", Qualifier: "b"} never collide even though
// they render to the same String.
type Key struct {
	Feature   string // owning entity, e.g. "organization", "task"
	Scope     string // listed kind, e.g. "subtasks"
	Qualifier string // view variant, e.g. "due", "done"; empty for the default view
	ID        string // runtime parameter, e.g. organization id
}

// String renders the key in the "feature:scope[:qualifier]/id" form used in logs.
func (k Key) String() string {
	s := k.Feature + ":" + k.Scope
	if k.Qualifier != "" {
		s += ":" + k.Qualifier
	}
	return s + "/" + k.ID
}

// Digest is a short, collision-resistant hash over the key's fields.
func (k Key) Digest() string {
	return util.Digest(k.Feature, k.Scope, k.Qualifier, k.ID)
}
