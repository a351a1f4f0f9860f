// Package pagecache implements a client-side cache for paginated, filtered views over
// entities fetched from a remote API. Each view is a Collection: a page-indexed cache for
// one semantic query, gated by a membership Filter. Pages are replaced wholesale on every
// AddPage (last write wins) and are never stitched across page boundaries.
//
// Components:
//   - Collection[R]: page number -> records that matched the filter when added.
//   - MaxIDCollection[R, ID]: Collection plus a watermark of the highest id ever observed
//     through MaxAddPage (pre-filter), for "give me everything newer than X" syncs.
//   - Registry[R]: structured Key -> lazily created collection, one instance per key.
//
// Reads never touch the network:
//
//	if p, ok := coll.Get(page); ok {
//		return p.Records() // cached
//	}
//	items := fetch(page)                 // caller's fetch layer
//	return coll.AddPage(page, items).Records()
//
// The entity store shared across collections of one kind lives in package store.
package pagecache
