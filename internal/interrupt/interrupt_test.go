package interrupt

import "testing"

func TestPriorityOrder(t *testing.T) {
	c := New()
	c.SetIE(0xFF)
	c.Request(Timer)
	c.Request(VBlank)
	c.Request(Joypad)

	vec, ok := c.NextVector()
	if !ok {
		t.Fatalf("expected a pending interrupt")
	}
	if vec != 0x40 {
		t.Fatalf("expected VBlank (0x40) to win priority, got %#02x", vec)
	}
	// VBlank bit cleared, Timer now wins.
	vec, ok = c.NextVector()
	if !ok || vec != 0x50 {
		t.Fatalf("expected Timer (0x50) next, got %#02x ok=%v", vec, ok)
	}
	vec, ok = c.NextVector()
	if !ok || vec != 0x60 {
		t.Fatalf("expected Joypad (0x60) last, got %#02x ok=%v", vec, ok)
	}
	if _, ok := c.NextVector(); ok {
		t.Fatalf("expected no more pending interrupts")
	}
}

func TestDisabledInterruptNeverPends(t *testing.T) {
	c := New()
	c.SetIE(0x00)
	c.Request(VBlank)
	if c.HasPending() {
		t.Fatalf("disabled interrupt must not be pending")
	}
}

func TestIFUpperBitsIgnoredOnSet(t *testing.T) {
	c := New()
	c.SetIF(0xFF)
	if c.IF() != 0x1F {
		t.Fatalf("IF got %02X want 1F (upper bits masked)", c.IF())
	}
}
