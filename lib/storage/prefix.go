package storage

import "strings"

// PrefixEnd returns the smallest key greater than every key starting with
// prefix, for use as an exclusive upper bound. It returns nil when no such key
// exists (empty prefix or a prefix of only 0xFF bytes), meaning the range is
// unbounded above.
func PrefixEnd(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}

// HasPrefix reports whether key starts with prefix.
func HasPrefix(key, prefix string) bool {
	return strings.HasPrefix(key, prefix)
}
