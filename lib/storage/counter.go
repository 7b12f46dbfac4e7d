package storage

import "fmt"

// ApplyDelta computes the record that results from adding delta to current.
// current is nil when the key is absent (or was expired and removed). When
// current is nil and def is nil the result is ValueNotFound; with a default
// a fresh integer without expiry is created. The expiry of an existing record
// is preserved. Arithmetic wraps on overflow.
func ApplyDelta(key string, current *Record, delta int64, def *int64) (Record, error) {
	if current == nil {
		if def == nil {
			return Record{}, NotFound(key)
		}
		return Record{
			Type:      uint8(ValueTypeInteger),
			ExpiresAt: NoExpiry,
			Data:      FormatInteger(*def + delta),
		}, nil
	}

	if current.ValueType() != ValueTypeInteger {
		return Record{}, NewError(KindInvalidValueType, fmt.Sprintf("key %q holds a %s value", key, current.ValueType()))
	}

	n, err := ParseInteger(current.Data)
	if err != nil {
		return Record{}, err
	}

	return Record{
		Type:      current.Type,
		ExpiresAt: current.ExpiresAt,
		Data:      FormatInteger(n + delta),
	}, nil
}

