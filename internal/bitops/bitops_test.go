package bitops

import "testing"

func TestComposeDecomposeRoundTrip(t *testing.T) {
	cases := []struct{ low, high byte }{
		{0x00, 0x00},
		{0xFF, 0xFF},
		{0x4D, 0x01},
		{0x13, 0x00},
	}
	for _, c := range cases {
		word := Compose(c.low, c.high)
		low, high := Decompose(word)
		if low != c.low || high != c.high {
			t.Fatalf("Compose(%02X,%02X) -> Decompose got (%02X,%02X)", c.low, c.high, low, high)
		}
	}
}

func TestGetSetClearBit(t *testing.T) {
	var b byte = 0x00
	b = SetBit(b, 3)
	if !GetBit(b, 3) {
		t.Fatalf("expected bit 3 set")
	}
	b = ClearBit(b, 3)
	if GetBit(b, 3) {
		t.Fatalf("expected bit 3 clear")
	}
	b = WriteBit(b, 7, true)
	if b != 0x80 {
		t.Fatalf("WriteBit true got %02X want 80", b)
	}
	b = WriteBit(b, 7, false)
	if b != 0x00 {
		t.Fatalf("WriteBit false got %02X want 00", b)
	}
}

func TestGetBit16(t *testing.T) {
	var w uint16 = 0x8001
	if !GetBit16(w, 15) {
		t.Fatalf("expected bit 15 set")
	}
	if !GetBit16(w, 0) {
		t.Fatalf("expected bit 0 set")
	}
	if GetBit16(w, 1) {
		t.Fatalf("expected bit 1 clear")
	}
}
