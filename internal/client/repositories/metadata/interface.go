// Package metadata is the key/value table of the local database. The client
// keeps its transfer counters in it.
package metadata

import (
	"context"
)

// Counter keys.
const (
	KeyTotalUploads   = "total_uploads"
	KeyTotalDownloads = "total_downloads"
)

type Repository interface {
	// Incr atomically adds one to the counter stored under key and returns
	// the new value. Missing counters start at zero.
	Incr(ctx context.Context, key string) (int64, error)
	// Counters returns every counter in the table. Absent counters are
	// missing from the map, so a lookup reads as zero.
	Counters(ctx context.Context) (map[string]int64, error)
}
