package object

import "testing"

func TestReverseHex(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"0123456789abcdef", "zyxwvutsrqponmlk"},
		{"", ""},
		{"00ff", "zzkk"},
	}
	for _, tt := range tests {
		if got := ReverseHex(tt.in); got != tt.want {
			t.Errorf("ReverseHex(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestReverseHexRoundTrip(t *testing.T) {
	for i := 0; i < 20; i++ {
		id, err := NewChangeID()
		if err != nil {
			t.Fatalf("NewChangeID: %v", err)
		}
		decoded, ok := DecodeReverseHex(id.ReverseHex())
		if !ok {
			t.Fatalf("DecodeReverseHex(%q) failed", id.ReverseHex())
		}
		if decoded != id.Hex() {
			t.Errorf("round trip: got %q, want %q", decoded, id.Hex())
		}
	}
}

func TestReverseHexInvertsOrdering(t *testing.T) {
	a, b := "0a", "1b"
	if !(a < b) || !(ReverseHex(a) > ReverseHex(b)) {
		t.Errorf("ordering not inverted: %q %q", ReverseHex(a), ReverseHex(b))
	}
}

func TestDecodeReverseHexRejectsForeignCharacters(t *testing.T) {
	if _, ok := DecodeReverseHex("zza"); ok {
		t.Error("'a' is outside the reverse hex alphabet")
	}
}
