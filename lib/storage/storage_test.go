package storage

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
)

func TestExpiresAt(t *testing.T) {
	cases := []struct {
		ttl, now, want int64
	}{
		{-1, 100, -1},
		{-42, 100, -1},
		{0, 100, 100},
		{5, 100, 105},
	}
	for _, c := range cases {
		if got := ExpiresAt(c.ttl, c.now); got != c.want {
			t.Errorf("ExpiresAt(%d, %d) = %d, want %d", c.ttl, c.now, got, c.want)
		}
	}
}

func TestRemaining(t *testing.T) {
	if r, expired := Remaining(-1, 100); r != -1 || expired {
		t.Errorf("no expiry: got (%d, %v)", r, expired)
	}
	if r, expired := Remaining(105, 100); r != 5 || expired {
		t.Errorf("live: got (%d, %v)", r, expired)
	}
	if _, expired := Remaining(100, 100); !expired {
		t.Errorf("remaining 0 must count as expired")
	}
	if _, expired := Remaining(99, 100); !expired {
		t.Errorf("past expiry must count as expired")
	}
}

func TestRecordEncoding(t *testing.T) {
	rec := NewRecord(NewString("hello", 10), 1000)
	if rec.ExpiresAt != 1010 {
		t.Fatalf("expected ExpiresAt 1010, got %d", rec.ExpiresAt)
	}

	b, err := rec.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	got, err := DecodeRecord(b)
	if err != nil {
		t.Fatalf("DecodeRecord failed: %v", err)
	}
	if got.Type != rec.Type || got.ExpiresAt != rec.ExpiresAt || !bytes.Equal(got.Data, rec.Data) {
		t.Errorf("round trip mismatch: %+v != %+v", got, rec)
	}

	v := got.Value(1004)
	if v.TTL != 6 || v.Type != ValueTypeString || string(v.Data) != "hello" {
		t.Errorf("unexpected value %s", v)
	}
}

func TestDecodeRecordCorrupt(t *testing.T) {
	rec := NewRecord(NewInteger(7, -1), 0)
	b, _ := rec.Encode()

	inputs := [][]byte{
		nil,
		{0x01},
		b[:len(b)-1],
		append(append([]byte{}, b...), 0x00),
		append([]byte{0x09}, b[1:]...),
	}
	for i, in := range inputs {
		if _, err := DecodeRecord(in); !errors.Is(err, ErrInternal) {
			t.Errorf("input %d: expected InternalError, got %v", i, err)
		}
	}
}

func TestValueInt64(t *testing.T) {
	v := NewInteger(-12, -1)
	if n, err := v.Int64(); err != nil || n != -12 {
		t.Errorf("expected -12, got %d (%v)", n, err)
	}

	s := NewString("12", -1)
	if _, err := s.Int64(); !errors.Is(err, ErrInvalidValueType) {
		t.Errorf("expected InvalidValueType, got %v", err)
	}

	bad := Value{Type: ValueTypeInteger, Data: []byte("twelve")}
	if _, err := bad.Int64(); !errors.Is(err, ErrInternal) {
		t.Errorf("expected InternalError, got %v", err)
	}

	invalid := Value{Type: ValueTypeInteger, Data: []byte{0xff, 0xfe}}
	if _, err := invalid.Int64(); !errors.Is(err, ErrInternal) {
		t.Errorf("expected InternalError for invalid UTF-8, got %v", err)
	}
}

func TestApplyDelta(t *testing.T) {
	def := int64(10)

	if _, err := ApplyDelta("k", nil, 1, nil); !errors.Is(err, ErrValueNotFound) {
		t.Errorf("expected ValueNotFound, got %v", err)
	}

	rec, err := ApplyDelta("k", nil, -1, &def)
	if err != nil || string(rec.Data) != "9" || rec.ExpiresAt != NoExpiry {
		t.Errorf("default: got %+v (%v)", rec, err)
	}

	cur := Record{Type: uint8(ValueTypeInteger), ExpiresAt: 500, Data: []byte("4")}
	rec, err = ApplyDelta("k", &cur, 3, &def)
	if err != nil || string(rec.Data) != "7" || rec.ExpiresAt != 500 {
		t.Errorf("existing: got %+v (%v)", rec, err)
	}

	str := Record{Type: uint8(ValueTypeString), ExpiresAt: -1, Data: []byte("4")}
	if _, err := ApplyDelta("k", &str, 1, nil); !errors.Is(err, ErrInvalidValueType) {
		t.Errorf("expected InvalidValueType, got %v", err)
	}

	corrupt := Record{Type: uint8(ValueTypeInteger), ExpiresAt: -1, Data: []byte("x")}
	if _, err := ApplyDelta("k", &corrupt, 1, nil); !errors.Is(err, ErrInternal) {
		t.Errorf("expected InternalError, got %v", err)
	}

	max := Record{Type: uint8(ValueTypeInteger), ExpiresAt: -1, Data: FormatInteger(1<<63 - 1)}
	rec, err = ApplyDelta("k", &max, 1, nil)
	if err != nil || string(rec.Data) != fmt.Sprint(int64(-1<<63)) {
		t.Errorf("overflow must wrap, got %s (%v)", rec.Data, err)
	}
}

func TestPrefixEnd(t *testing.T) {
	cases := []struct {
		in, want []byte
	}{
		{[]byte(""), nil},
		{[]byte("a"), []byte("b")},
		{[]byte("ab"), []byte("ac")},
		{[]byte{'a', 0xff}, []byte("b")},
		{[]byte{0xff, 0xff}, nil},
	}
	for _, c := range cases {
		if got := PrefixEnd(c.in); !bytes.Equal(got, c.want) {
			t.Errorf("PrefixEnd(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestErrorKinds(t *testing.T) {
	err := Internal(errors.New("disk on fire"), "write failed")
	if !errors.Is(err, ErrInternal) || errors.Is(err, ErrValueNotFound) {
		t.Errorf("unexpected kind for %v", err)
	}
	if KindOf(NotFound("x")) != KindValueNotFound {
		t.Errorf("expected ValueNotFound")
	}
	if KindOf(errors.New("plain")) != KindInternalError {
		t.Errorf("plain errors must be internal")
	}
	wrapped := fmt.Errorf("context: %w", NotFound("x"))
	if !errors.Is(wrapped, ErrValueNotFound) {
		t.Errorf("wrapped errors must keep their kind")
	}
	if Internal(NotFound("x"), "ignored") == nil || KindOf(Internal(NotFound("x"), "")) != KindValueNotFound {
		t.Errorf("Internal must not rewrap storage errors")
	}
}

func TestParseImplementation(t *testing.T) {
	for in, want := range map[string]Implementation{
		"memory":    ImplMemory,
		"bredis":    ImplMemory,
		"Pebble":    ImplPebble,
		"rocksdb":   ImplPebble,
		"badger":    ImplBadger,
		"surrealkv": ImplBadger,
	} {
		if got, err := ParseImplementation(in); err != nil || got != want {
			t.Errorf("ParseImplementation(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseImplementation("sqlite"); !errors.Is(err, ErrInitialFailed) {
		t.Errorf("expected InitialFailed, got %v", err)
	}
}

func TestParseValueType(t *testing.T) {
	for _, vt := range []ValueType{ValueTypeString, ValueTypeInteger} {
		got, err := ParseValueType(vt.String())
		if err != nil || got != vt {
			t.Errorf("ParseValueType(%q) = %v, %v", vt.String(), got, err)
		}
	}
	if got, err := ParseValueType("int"); err != nil || got != ValueTypeInteger {
		t.Errorf("ParseValueType(int) = %v, %v", got, err)
	}
	if _, err := ParseValueType("float"); err == nil {
		t.Error("expected an error for an unknown type")
	}
}
