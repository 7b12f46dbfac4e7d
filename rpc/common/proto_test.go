package common

import (
	"encoding/json"
	"testing"

	"github.com/ValentinKolb/tKV/lib/storage"
)

func TestIntOrStringJSON(t *testing.T) {
	var req SetRequest
	if err := json.Unmarshal([]byte(`{"key":"a","value":42}`), &req); err != nil {
		t.Fatal(err)
	}
	if !req.Value.IsInt || req.Value.Int != 42 || req.TTL != nil {
		t.Errorf("unexpected request %+v", req)
	}

	if err := json.Unmarshal([]byte(`{"key":"a","value":"42","ttl":10}`), &req); err != nil {
		t.Fatal(err)
	}
	if req.Value.IsInt || req.Value.Str != "42" || *req.TTL != 10 {
		t.Errorf("unexpected request %+v", req)
	}

	if err := json.Unmarshal([]byte(`{"key":"a","value":1.5}`), &req); err == nil {
		t.Errorf("expected floats to be rejected")
	}
	if err := json.Unmarshal([]byte(`{"key":"a","value":{"x":1}}`), &req); err == nil {
		t.Errorf("expected objects to be rejected")
	}

	b, _ := json.Marshal(GetResponse{Value: &IntOrString{IsInt: true, Int: -3}})
	if string(b) != `{"value":-3}` {
		t.Errorf("unexpected encoding %s", b)
	}
	b, _ = json.Marshal(GetResponse{})
	if string(b) != `{"value":null}` {
		t.Errorf("unexpected encoding %s", b)
	}
}

func TestValueConversion(t *testing.T) {
	v := NewInt(7).ToValue(-1)
	if v.Type != storage.ValueTypeInteger || string(v.Data) != "7" {
		t.Errorf("unexpected value %s", &v)
	}

	back, err := FromValue(&v)
	if err != nil || !back.IsInt || back.Int != 7 {
		t.Errorf("unexpected round trip %+v (%v)", back, err)
	}

	s := NewStr("hi").ToValue(5)
	if s.Type != storage.ValueTypeString || s.TTL != 5 {
		t.Errorf("unexpected value %s", &s)
	}

	bad := storage.Value{Type: storage.ValueTypeInteger, Data: []byte("x")}
	if _, err := FromValue(&bad); err == nil {
		t.Errorf("expected an error for a corrupt integer")
	}
}
