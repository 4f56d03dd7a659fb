package request

import (
	"strconv"
	"time"
)

// NewRequestID derives an identifier from the epoch-millisecond clock:
// "REQ-" plus the last six digits. Collisions under high load are an
// accepted limitation; the store's unique index surfaces them as write
// errors rather than silent overwrites.
func NewRequestID(now time.Time) string {
	ms := strconv.FormatInt(now.UnixMilli(), 10)
	if len(ms) > 6 {
		ms = ms[len(ms)-6:]
	}
	return "REQ-" + ms
}
