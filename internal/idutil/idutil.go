// Package idutil generates the short opaque identifiers the core stamps
// onto downloaded/renamed files ("time-id") and onto concurrently
// running fixer invocations ("time-thread-id"), per spec.md §4.5.
package idutil

import (
	"encoding/base64"
	"encoding/binary"
	"os"
	"strconv"
	"sync/atomic"
	"time"
)

// monotonic guards against two calls within the same nanosecond producing
// the same id on a fast loop; it's bumped on every call regardless of the
// wall clock to keep ids ordered even under heavy concurrency.
var monotonic uint64

// TimeID returns a deterministic, monotonically increasing, URL-safe
// base64 encoding of the current nanosecond clock. It is short, sortable
// and collision-free within a process.
func TimeID() string {
	n := uint64(time.Now().UnixNano())
	if seq := atomic.AddUint64(&monotonic, 1); seq > n {
		n = seq
	} else {
		atomic.StoreUint64(&monotonic, n)
	}

	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], n)
	return base64.RawURLEncoding.EncodeToString(buf[:])
}

// TimeThreadID appends the process id and a process-wide per-call counter
// (threadSalt) to TimeID, guaranteeing uniqueness across concurrent fixer
// invocations within the same process even if the clock doesn't advance.
func TimeThreadID() string {
	return TimeID() + "-" + strconv.Itoa(os.Getpid()) + "-" + strconv.FormatUint(threadSalt(), 36)
}

// threadSalt is a cheap per-call nonce; Go has no stable thread id, so we
// fall back to a second monotonic counter distinct from the one backing
// TimeID to keep the two generators independent.
var threadCounter uint64

func threadSalt() uint64 {
	return atomic.AddUint64(&threadCounter, 1)
}
