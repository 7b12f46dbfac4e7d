package storage

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/fardream/go-bcs/bcs"
)

// --------------------------------------------------------------------------
// Value types
// --------------------------------------------------------------------------

// ValueType tells how the payload of a value is interpreted.
type ValueType uint8

const (
	// ValueTypeString is an opaque byte payload
	ValueTypeString ValueType = iota
	// ValueTypeInteger is a signed 64 bit integer in decimal text
	ValueTypeInteger
)

func (t ValueType) String() string {
	switch t {
	case ValueTypeString:
		return "String"
	case ValueTypeInteger:
		return "Integer"
	default:
		return fmt.Sprintf("ValueType(%d)", uint8(t))
	}
}

// ParseValueType parses the names returned by ValueType.String.
func ParseValueType(s string) (ValueType, error) {
	switch strings.ToLower(s) {
	case "string":
		return ValueTypeString, nil
	case "integer", "int":
		return ValueTypeInteger, nil
	default:
		return 0, fmt.Errorf("unknown value type %q", s)
	}
}

// --------------------------------------------------------------------------
// Value (caller facing)
// --------------------------------------------------------------------------

// Value is the form in which values enter and leave a Storage. On Set, TTL is
// the requested lifetime in seconds (negative: never expires). On reads, TTL
// is the remaining lifetime or -1.
type Value struct {
	Type ValueType
	TTL  int64
	Data []byte
}

// NewString returns a string value with the given TTL.
func NewString(s string, ttl int64) Value {
	return Value{Type: ValueTypeString, TTL: ttl, Data: []byte(s)}
}

// NewInteger returns an integer value with the given TTL.
func NewInteger(n int64, ttl int64) Value {
	return Value{Type: ValueTypeInteger, TTL: ttl, Data: FormatInteger(n)}
}

// Int64 decodes an integer value. Non integer values yield InvalidValueType,
// payloads that are not decimal text yield InternalError.
func (v *Value) Int64() (int64, error) {
	if v.Type != ValueTypeInteger {
		return 0, NewError(KindInvalidValueType, fmt.Sprintf("value is of type %s, not Integer", v.Type))
	}
	return ParseInteger(v.Data)
}

func (v *Value) String() string {
	return fmt.Sprintf("%s(%q, ttl=%d)", v.Type, v.Data, v.TTL)
}

// FormatInteger encodes n the way integer values are stored.
func FormatInteger(n int64) []byte {
	return strconv.AppendInt(nil, n, 10)
}

// ParseInteger decodes a stored integer payload.
func ParseInteger(data []byte) (int64, error) {
	if !utf8.Valid(data) {
		return 0, NewError(KindInternalError, "integer value is not valid UTF-8")
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0, Internal(err, fmt.Sprintf("cannot parse integer value %q", data))
	}
	return n, nil
}

// --------------------------------------------------------------------------
// Record (at rest)
// --------------------------------------------------------------------------

// Record is the persisted form of a value. ExpiresAt is an absolute epoch
// second, or -1 when the record never expires.
type Record struct {
	Type      uint8
	ExpiresAt int64
	Data      []byte
}

// NewRecord converts a caller supplied value into its persisted form.
func NewRecord(v Value, now int64) Record {
	return Record{
		Type:      uint8(v.Type),
		ExpiresAt: ExpiresAt(v.TTL, now),
		Data:      v.Data,
	}
}

// ValueType returns the type of the stored payload.
func (r *Record) ValueType() ValueType {
	return ValueType(r.Type)
}

// Remaining returns the lifetime left at now and whether the record has
// expired. Records without expiry report -1 and never expire.
func (r *Record) Remaining(now int64) (int64, bool) {
	return Remaining(r.ExpiresAt, now)
}

// Value converts the record into its caller facing form at now. The caller
// must have checked that the record is not expired.
func (r *Record) Value(now int64) *Value {
	ttl, _ := r.Remaining(now)
	return &Value{Type: r.ValueType(), TTL: ttl, Data: r.Data}
}

// Encode serializes the record with BCS.
func (r *Record) Encode() ([]byte, error) {
	b, err := bcs.Marshal(*r)
	if err != nil {
		return nil, Internal(err, "cannot encode record")
	}
	return b, nil
}

// DecodeRecord parses bytes written by Record.Encode. Malformed input yields
// an InternalError.
func DecodeRecord(b []byte) (rec Record, err error) {
	// bcs panics on some truncated inputs
	defer func() {
		if r := recover(); r != nil {
			err = NewError(KindInternalError, fmt.Sprintf("corrupt record: %v", r))
		}
	}()
	n, err := bcs.Unmarshal(b, &rec)
	if err != nil {
		return Record{}, Internal(err, "corrupt record")
	}
	if n != len(b) {
		return Record{}, NewError(KindInternalError, fmt.Sprintf("corrupt record: %d trailing bytes", len(b)-n))
	}
	if rec.Type > uint8(ValueTypeInteger) {
		return Record{}, NewError(KindInternalError, fmt.Sprintf("corrupt record: unknown value type %d", rec.Type))
	}
	return rec, nil
}
