// Package memory provides in-process implementations of the repository stores.
// They follow the same contracts as the MongoDB repositories, including the
// guarded roster and completion updates, and back the service and handler tests.
package memory

import "slices"

func page[T any](items []T, limit, offset int) []T {
	if offset > len(items) {
		offset = len(items)
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	out := slices.Clone(items)
	if out == nil {
		out = []T{}
	}
	return out
}
