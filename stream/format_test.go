package stream

import (
	"net/netip"
	"testing"
)

type level int

func TestFormat(t *testing.T) {
	var nilPtr *struct{}
	var nilMap map[string]int

	tests := []struct {
		name   string
		in     any
		want   string
		wantOK bool
	}{
		{"nil", nil, "", false},
		{"typed nil pointer", nilPtr, "", false},
		{"nil map", nilMap, "", false},
		{"string", "hi there", "hi there", true},
		{"bytes", []byte("raw"), "raw", true},
		{"bool", true, "true", true},
		{"int", -12, "-12", true},
		{"uint8", uint8(200), "200", true},
		{"float", 2.5, "2.5", true},
		{"float32", float32(0.1), "0.1", true},
		{"named int", level(3), "3", true},
		{"text marshaler", netip.MustParseAddr("10.0.0.1"), "10.0.0.1", true},
		{"struct", struct {
			A int `json:"a"`
		}{A: 1}, `{"a":1}`, true},
		{"slice", []int{1, 2}, "[1,2]", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := Format(tt.in)
			if err != nil {
				t.Fatalf("Format: %v", err)
			}
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Format(%v) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestFormat_RoundTripsDecoders(t *testing.T) {
	s, _, _ := Format(-7)
	if v, err := Int().Decode([]byte(s)); err != nil || v != -7 {
		t.Errorf("Int round trip = %v, %v", v, err)
	}
	s, _, _ = Format(0.25)
	if v, err := Float().Decode([]byte(s)); err != nil || v != 0.25 {
		t.Errorf("Float round trip = %v, %v", v, err)
	}
	s, _, _ = Format(false)
	if v, err := Bool().Decode([]byte(s)); err != nil || v {
		t.Errorf("Bool round trip = %v, %v", v, err)
	}
}

func TestFormat_Unsupported(t *testing.T) {
	if _, _, err := Format(make(chan int)); err == nil {
		t.Error("expected error for a channel")
	}
}
