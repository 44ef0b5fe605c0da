package machine

import "testing"

func romOnlyROM() []byte {
	rom := make([]byte, 0x8000)
	rom[0x0147] = 0x00 // ROM ONLY
	rom[0x0148] = 0x00 // 32 KiB
	rom[0x0149] = 0x00 // no RAM
	return rom
}

func TestLoadCartridgePostBootRegisters(t *testing.T) {
	m := New(44100)
	if err := m.LoadCartridge(romOnlyROM()); err != nil {
		t.Fatalf("LoadCartridge: %v", err)
	}
	if m.cpu.A != 0x01 || m.cpu.F != 0xB0 {
		t.Fatalf("AF got %02X%02X want 01B0", m.cpu.A, m.cpu.F)
	}
	if m.cpu.PC != 0x0100 {
		t.Fatalf("PC got %#04x want 0x0100", m.cpu.PC)
	}
}

func TestNextFrameAdvancesAtLeastOneFrameOfCycles(t *testing.T) {
	m := New(44100)
	rom := romOnlyROM()
	// Fill with JR -2 (infinite loop at 0x0100) so NextFrame has something to run.
	rom[0x0100] = 0x18
	rom[0x0101] = 0xFE
	if err := m.LoadCartridge(rom); err != nil {
		t.Fatalf("LoadCartridge: %v", err)
	}
	m.NextFrame()
	if m.cyclesThisFrame < cyclesPerFrame {
		t.Fatalf("cyclesThisFrame got %d want >= %d", m.cyclesThisFrame, cyclesPerFrame)
	}
}

func TestFramebufferSizeMatchesScreen(t *testing.T) {
	m := New(44100)
	if err := m.LoadCartridge(romOnlyROM()); err != nil {
		t.Fatalf("LoadCartridge: %v", err)
	}
	if got := len(m.Framebuffer()); got != 160*144*4 {
		t.Fatalf("framebuffer size got %d want %d", got, 160*144*4)
	}
}

func TestInvalidCartridgeRejected(t *testing.T) {
	m := New(44100)
	if err := m.LoadCartridge(make([]byte, 8)); err == nil {
		t.Fatalf("expected error loading a too-short ROM")
	}
}

func TestJoypadEdgeRequestsInterrupt(t *testing.T) {
	m := New(44100)
	if err := m.LoadCartridge(romOnlyROM()); err != nil {
		t.Fatalf("LoadCartridge: %v", err)
	}
	m.mmu.Write(0xFF00, 0x20) // select D-Pad
	m.mmu.Write(0xFFFF, 0x10) // enable joypad interrupt
	m.SetButtons(Buttons{Right: true})
	if !m.ic.HasPending() {
		t.Fatalf("expected joypad interrupt to be pending after button edge")
	}
}
