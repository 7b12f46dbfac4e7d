package storage

// NoExpiry marks a record or value that never expires.
const NoExpiry int64 = -1

// ExpiresAt turns a requested lifetime into an absolute expiry. Negative
// lifetimes never expire; a lifetime of 0 expires immediately.
func ExpiresAt(ttl, now int64) int64 {
	if ttl < 0 {
		return NoExpiry
	}
	return now + ttl
}

// Remaining returns the lifetime left for an absolute expiry at now and
// whether it has passed.
func Remaining(expiresAt, now int64) (int64, bool) {
	if expiresAt < 0 {
		return NoExpiry, false
	}
	remaining := expiresAt - now
	return remaining, remaining <= 0
}
