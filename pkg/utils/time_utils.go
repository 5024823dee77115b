package utils

import (
	"time"
)

// UnixToTime converts unix seconds to a UTC time
func UnixToTime(ts uint64) time.Time {
	return time.Unix(int64(ts), 0).UTC()
}

// UnixToRFC3339 formats unix seconds as an RFC3339 UTC timestamp
func UnixToRFC3339(ts uint64) string {
	return UnixToTime(ts).Format(time.RFC3339)
}

// SecondsUntil returns how many seconds remain from now until target, or 0 if
// target has passed
func SecondsUntil(target, now uint64) uint64 {
	if target <= now {
		return 0
	}
	return target - now
}
