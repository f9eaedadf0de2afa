// Package cachedtime provides a coarse process clock for hot-path expiry
// checks. Reading an atomic is far cheaper than time.Now() when every cache
// lookup needs a timestamp; the 10ms granularity is well below any TTL the
// caches are configured with.
package cachedtime

import (
	"sync/atomic"
	"time"
)

const resolution = 10 * time.Millisecond

var nowUnix atomic.Int64

func init() {
	nowUnix.Store(time.Now().UnixNano())
	go func() {
		ticker := time.NewTicker(resolution)
		defer ticker.Stop()
		for tt := range ticker.C {
			nowUnix.Store(tt.UnixNano())
		}
	}()
}

func Now() time.Time {
	return time.Unix(0, nowUnix.Load())
}

func UnixNano() int64 {
	return nowUnix.Load()
}

func Since(t time.Time) time.Duration {
	return Now().Sub(t)
}
