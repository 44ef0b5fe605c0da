package timer

import "testing"

// TestOverflowScenario reproduces spec.md §8 scenario 6: TAC=0x05
// (enabled, 262144 Hz), TIMA=0xFF, TMA=0x42; after 16 T-cycles TIMA
// must read 0x42 and the interrupt callback must have fired exactly
// once.
func TestOverflowScenario(t *testing.T) {
	fired := 0
	tm := New(func() { fired++ })
	tm.WriteTAC(0x05)
	tm.WriteTIMA(0xFF)
	tm.WriteTMA(0x42)

	tm.Tick(16)

	if tm.TIMA() != 0x42 {
		t.Fatalf("TIMA got %02X want 42", tm.TIMA())
	}
	if fired != 1 {
		t.Fatalf("interrupt fired %d times, want 1", fired)
	}
}

func TestDIVResetOnWrite(t *testing.T) {
	tm := New(nil)
	tm.Tick(300)
	if tm.DIV() == 0 {
		t.Fatalf("expected DIV to have advanced")
	}
	tm.ResetDivider()
	if tm.DIV() != 0 {
		t.Fatalf("DIV after reset got %02X want 00", tm.DIV())
	}
}

func TestDisabledTimerNeverIncrements(t *testing.T) {
	fired := 0
	tm := New(func() { fired++ })
	tm.WriteTAC(0x00) // bit 2 clear -> disabled
	tm.Tick(100000)
	if tm.TIMA() != 0 {
		t.Fatalf("TIMA got %02X want 00 (timer disabled)", tm.TIMA())
	}
	if fired != 0 {
		t.Fatalf("unexpected interrupt with timer disabled")
	}
}
