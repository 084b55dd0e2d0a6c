// File: utils/constants.go
package utils

import "time"

// TrackingCachePrefix is the prefix used for Redis tracking-page cache keys.
const TrackingCachePrefix = "track:"

// TrackingCacheTTL is the time-to-live for tracking-page cache entries.
const TrackingCacheTTL = 30 * time.Second
