package common

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/ValentinKolb/tKV/lib/storage"
)

// --------------------------------------------------------------------------
// Values on the wire
// --------------------------------------------------------------------------

// IntOrString is a JSON value that is either a number or a string. Numbers
// map to Integer values, strings to String values.
type IntOrString struct {
	IsInt bool
	Int   int64
	Str   string
}

// NewInt wraps an integer.
func NewInt(n int64) IntOrString { return IntOrString{IsInt: true, Int: n} }

// NewStr wraps a string.
func NewStr(s string) IntOrString { return IntOrString{Str: s} }

func (v IntOrString) MarshalJSON() ([]byte, error) {
	if v.IsInt {
		return strconv.AppendInt(nil, v.Int, 10), nil
	}
	return json.Marshal(v.Str)
}

func (v *IntOrString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		*v = IntOrString{}
		return json.Unmarshal(b, &v.Str)
	}
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("value must be an integer or a string, got %s", b)
	}
	*v = NewInt(n)
	return nil
}

// ToValue converts the wire value into a storage value with the given ttl.
func (v IntOrString) ToValue(ttl int64) storage.Value {
	if v.IsInt {
		return storage.NewInteger(v.Int, ttl)
	}
	return storage.NewString(v.Str, ttl)
}

// FromValue converts a stored value for the wire. Integers that do not
// decode are reported as errors.
func FromValue(v *storage.Value) (IntOrString, error) {
	if v.Type == storage.ValueTypeInteger {
		n, err := v.Int64()
		if err != nil {
			return IntOrString{}, err
		}
		return NewInt(n), nil
	}
	return NewStr(string(v.Data)), nil
}

// --------------------------------------------------------------------------
// Requests
// --------------------------------------------------------------------------

// SetRequest is the body of POST /keys. TTL defaults to -1.
type SetRequest struct {
	Key   string      `json:"key"`
	Value IntOrString `json:"value"`
	TTL   *int64      `json:"ttl,omitempty"`
}

// DeleteKeysRequest is the optional body of DELETE /keys.
type DeleteKeysRequest struct {
	Prefix string `json:"prefix"`
}

// CounterRequest is the body of POST /keys/{key}/inc and /dec.
type CounterRequest struct {
	Value   int64  `json:"value"`
	Default *int64 `json:"default,omitempty"`
}

// SetTTLRequest is the body of POST /keys/{key}/ttl.
type SetTTLRequest struct {
	TTL int64 `json:"ttl"`
}

// --------------------------------------------------------------------------
// Responses
// --------------------------------------------------------------------------

// GetResponse answers GET /keys/{key}. Value is nil for absent keys.
type GetResponse struct {
	Value *IntOrString `json:"value"`
	TTL   *int64       `json:"ttl,omitempty"`
}

// GetAllKeysResponse answers GET /keys.
type GetAllKeysResponse struct {
	Keys []string `json:"keys"`
}

// SuccessResponse answers every operation without a result.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// CounterResponse answers the counter endpoints.
type CounterResponse struct {
	Value int64 `json:"value"`
}

// GetTTLResponse answers GET /keys/{key}/ttl.
type GetTTLResponse struct {
	TTL int64 `json:"ttl"`
}

// InfoResponse answers GET /info.
type InfoResponse struct {
	Version   string `json:"version"`
	Go        string `json:"go"`
	BuildDate string `json:"build_date"`
	Backend   string `json:"backend"`
}

// ErrorResponse is returned instead of the success body when a request fails.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}
