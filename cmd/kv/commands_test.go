package kv

import (
	"testing"

	"github.com/ValentinKolb/tKV/rpc/common"
)

func TestParseValue(t *testing.T) {
	tests := []struct {
		raw, typ string
		want     common.IntOrString
		wantErr  bool
	}{
		{"hello", "string", common.NewStr("hello"), false},
		{"42", "String", common.NewStr("42"), false},
		{"42", "integer", common.NewInt(42), false},
		{"-7", "int", common.NewInt(-7), false},
		{"abc", "integer", common.IntOrString{}, true},
		{"x", "float", common.IntOrString{}, true},
	}

	for _, tt := range tests {
		got, err := parseValue(tt.raw, tt.typ)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseValue(%q, %q) error = %v, wantErr %v", tt.raw, tt.typ, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseValue(%q, %q) = %+v, want %+v", tt.raw, tt.typ, got, tt.want)
		}
	}
}
