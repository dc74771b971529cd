// Copyright 2026 The Voxd Authors
// SPDX-License-Identifier: Apache-2.0

package rpc

import (
	"encoding/json"
	"testing"
)

func TestParseIDKinds(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want IDKind
	}{
		{"absent", "", IDAbsent},
		{"integer", "7", IDNumber},
		{"negative", "-3", IDNumber},
		{"fraction", "1.25", IDNumber},
		{"exponent", "1e3", IDNumber},
		{"string", `"req-1"`, IDString},
		{"empty string", `""`, IDString},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := parseID(json.RawMessage(tt.raw))
			if !ok {
				t.Fatalf("parseID(%q) rejected", tt.raw)
			}
			if id.Kind() != tt.want {
				t.Errorf("parseID(%q).Kind() = %d, want %d", tt.raw, id.Kind(), tt.want)
			}
		})
	}
}

func TestParseIDRejectsNonScalar(t *testing.T) {
	for _, raw := range []string{"null", "true", "false", "[1]", `{"a":1}`, "nonsense", `"unterminated`} {
		t.Run(raw, func(t *testing.T) {
			if _, ok := parseID(json.RawMessage(raw)); ok {
				t.Errorf("parseID(%q) accepted, want rejection", raw)
			}
		})
	}
}

func TestIDRoundTripPreservesBytes(t *testing.T) {
	// The encoded id must be byte-identical to the incoming literal,
	// including representations that normalize differently ("1.00").
	for _, raw := range []string{"1", "1.00", "-42", "1e3", `"abc"`, `"with \"escapes\""`, "9007199254740993"} {
		t.Run(raw, func(t *testing.T) {
			id, ok := parseID(json.RawMessage(raw))
			if !ok {
				t.Fatalf("parseID(%q) rejected", raw)
			}
			encoded, err := id.MarshalJSON()
			if err != nil {
				t.Fatalf("MarshalJSON: %v", err)
			}
			if string(encoded) != raw {
				t.Errorf("round trip: got %s, want %s", encoded, raw)
			}
		})
	}
}

func TestIDEqual(t *testing.T) {
	mustParse := func(raw string) ID {
		t.Helper()
		id, ok := parseID(json.RawMessage(raw))
		if !ok {
			t.Fatalf("parseID(%q) rejected", raw)
		}
		return id
	}

	tests := []struct {
		name string
		a, b ID
		want bool
	}{
		{"same integer", mustParse("5"), mustParse("5"), true},
		{"numerically equal", mustParse("1"), mustParse("1.0"), true},
		{"different numbers", mustParse("1"), mustParse("2"), false},
		{"same string", mustParse(`"a"`), mustParse(`"a"`), true},
		{"different strings", mustParse(`"a"`), mustParse(`"b"`), false},
		{"number vs string", mustParse("1"), mustParse(`"1"`), false},
		{"absent vs absent", ID{}, ID{}, true},
		{"absent vs number", ID{}, mustParse("1"), false},
		{"null vs null", NullID, NullID, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("Equal(%s, %s) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestNullIDMarshalsAsNull(t *testing.T) {
	encoded, err := NullID.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	if string(encoded) != "null" {
		t.Errorf("NullID encodes as %s, want null", encoded)
	}
}

func TestNumberID(t *testing.T) {
	id := NumberID(42)
	if id.Kind() != IDNumber {
		t.Fatalf("NumberID kind = %d, want IDNumber", id.Kind())
	}
	if id.String() != "42" {
		t.Errorf("NumberID(42).String() = %q, want 42", id.String())
	}
}
