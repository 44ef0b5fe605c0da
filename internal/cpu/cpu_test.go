package cpu

import (
	"testing"

	"github.com/pixelclock/gbcore/internal/apu"
	"github.com/pixelclock/gbcore/internal/cart"
	"github.com/pixelclock/gbcore/internal/interrupt"
	"github.com/pixelclock/gbcore/internal/mmu"
	"github.com/pixelclock/gbcore/internal/ppu"
)

func newCPUWithROM(code []byte) *CPU {
	rom := make([]byte, 0x8000)
	copy(rom, code)
	ic := interrupt.New()
	m := mmu.New(ppu.New(func(int) {}), apu.New(44100), ic)
	m.LoadCartridge(cart.NewROMOnly(rom))
	return New(m, ic)
}

func TestCPU_NopAndPC(t *testing.T) {
	c := newCPUWithROM([]byte{0x00}) // NOP
	if cycles, _ := c.Step(); cycles != 4 {
		t.Fatalf("NOP cycles got %d want 4", cycles)
	}
	if c.PC != 1 {
		t.Fatalf("PC after NOP got %#04x want 0x0001", c.PC)
	}
}

func TestCPU_LD_A_d8_And_XOR_A(t *testing.T) {
	c := newCPUWithROM([]byte{0x3E, 0x12, 0xAF}) // LD A,0x12; XOR A
	c.Step()                                     // LD
	if c.A != 0x12 {
		t.Fatalf("A after LD got %02x want 12", c.A)
	}
	c.Step() // XOR A
	if c.A != 0x00 {
		t.Fatalf("A after XOR got %02x want 00", c.A)
	}
	if (c.F & 0x80) == 0 { // Z flag
		t.Fatalf("Z flag not set after XOR A")
	}
}

func TestCPU_LD_a16_A_and_LD_A_a16(t *testing.T) {
	// Program: LD A,0x77; LD (0xC000),A; LD A,0x00; LD A,(0xC000)
	prog := []byte{0x3E, 0x77, 0xEA, 0x00, 0xC0, 0x3E, 0x00, 0xFA, 0x00, 0xC0}
	c := newCPUWithROM(prog)
	c.Step() // LD A,77
	c.Step() // LD (C000),A
	if a := c.MMU().Read(0xC000); a != 0x77 {
		t.Fatalf("WRAM at C000 got %02x want 77", a)
	}
	c.Step() // LD A,00
	c.Step() // LD A,(C000)
	if c.A != 0x77 {
		t.Fatalf("A after LD A,(C000) got %02x want 77", c.A)
	}
}

func TestCPU_JP_and_JR(t *testing.T) {
	// JP to 0x0010 then JR -2 to loop
	prog := []byte{0xC3, 0x10, 0x00} // at 0x0000: JP 0x0010
	rom := make([]byte, 0x8000)
	copy(rom, prog)
	for i := 0x0003; i < 0x0010; i++ {
		rom[i] = 0x00
	}
	// at 0x0010: JR -2 (0xFE), which will hop back to 0x0010 itself (infinite)
	rom[0x0010] = 0x18
	rom[0x0011] = 0xFE
	c := newCPUWithROM(rom)
	cycles, _ := c.Step() // JP
	if cycles != 16 || c.PC != 0x0010 {
		t.Fatalf("JP cycles=%d PC=%#04x want cycles=16 PC=0x0010", cycles, c.PC)
	}
	pcBefore := c.PC
	c.Step()              // JR -2
	if c.PC != pcBefore { // stays at 0x0010
		t.Fatalf("JR -2 PC got %#04x want %#04x", c.PC, pcBefore)
	}
}

func TestCPU_INC_B_Flags(t *testing.T) {
	c := newCPUWithROM([]byte{0x04, 0x04}) // INC B twice
	c.B = 0x0F
	c.F = 0x10 // carry set initially
	c.Step()
	if c.B != 0x10 {
		t.Fatalf("INC B result got %02x want 10", c.B)
	}
	if (c.F & 0x20) == 0 { // H set
		t.Fatalf("INC B should set H flag")
	}
	if (c.F & 0x10) == 0 { // C preserved
		t.Fatalf("INC B should preserve C flag")
	}
	c.B = 0xFF
	c.Step()
	if c.B != 0x00 || (c.F&0x80) == 0 { // Z set
		t.Fatalf("INC B to 0 should set Z flag, B=%02x, F=%02x", c.B, c.F)
	}
}

func TestCPU_LD_16bit_and_LDH(t *testing.T) {
	// Program:
	// LD HL,0xC000; LD (HL),0x5A; LD A,0x00; LD A,(0xFF00+0x00); LD (0xFF00+1),A
	prog := []byte{
		0x21, 0x00, 0xC0, // LD HL, C000
		0x36, 0x5A, // LD (HL), 5A
		0x3E, 0x00, // LD A, 00
		0xF0, 0x00, // LD A, (FF00+0)
		0xE0, 0x01, // LD (FF00+1), A
	}
	c := newCPUWithROM(prog)
	c.MMU().Write(0xFF00, 0x20) // select dpad so read is deterministic
	c.MMU().Write(0xFF00, 0x30) // select none to keep 0x0F
	c.MMU().Write(0xFF80, 0xA7) // HRAM base

	c.Step()
	c.Step()
	c.Step()
	c.Step()
	c.Step()
	if v := c.MMU().Read(0xC000); v != 0x5A {
		t.Fatalf("WRAM C000 got %02x want 5A", v)
	}
	if v := c.MMU().Read(0xFF01); v != c.A {
		t.Fatalf("LDH (FF00+1),A expected write to FF01 with A=%02x got %02x", c.A, v)
	}
}

func TestCPU_CALL_RET(t *testing.T) {
	// 0000: CALL 0005; NOP; NOP; NOP; NOP; RET
	rom := make([]byte, 0x8000)
	rom[0x0000] = 0xCD
	rom[0x0001] = 0x05
	rom[0x0002] = 0x00
	for i := 0x0003; i < 0x0005; i++ {
		rom[i] = 0x00
	}
	rom[0x0005] = 0xC9 // RET
	c := newCPUWithROM(rom)
	c.Step() // CALL
	if c.PC != 0x0005 {
		t.Fatalf("PC after CALL got %04x want 0005", c.PC)
	}
	retCycles, _ := c.Step()
	if c.PC != 0x0003 || retCycles != 16 {
		t.Fatalf("RET did not return to 0003; PC=%04x cyc=%d", c.PC, retCycles)
	}
}

func TestCPU_LD_r_r_RegisterToRegister(t *testing.T) {
	// LD B,A ; LD C,B ; LD D,(HL) ; LD (HL),E
	c := newCPUWithROM([]byte{0x47, 0x48, 0x56, 0x73})
	c.A = 0x42
	c.setHL(0xC000)
	c.MMU().Write(0xC000, 0x99)
	c.E = 0x55

	if cyc, _ := c.Step(); cyc != 4 { // LD B,A
		t.Fatalf("LD B,A cycles got %d want 4", cyc)
	}
	if c.B != 0x42 {
		t.Fatalf("LD B,A got B=%02x want 42", c.B)
	}
	if cyc, _ := c.Step(); cyc != 4 { // LD C,B
		t.Fatalf("LD C,B cycles got %d want 4", cyc)
	}
	if c.C != 0x42 {
		t.Fatalf("LD C,B got C=%02x want 42", c.C)
	}
	if cyc, _ := c.Step(); cyc != 8 { // LD D,(HL)
		t.Fatalf("LD D,(HL) cycles got %d want 8", cyc)
	}
	if c.D != 0x99 {
		t.Fatalf("LD D,(HL) got D=%02x want 99", c.D)
	}
	if cyc, _ := c.Step(); cyc != 8 { // LD (HL),E
		t.Fatalf("LD (HL),E cycles got %d want 8", cyc)
	}
	if v := c.MMU().Read(0xC000); v != 0x55 {
		t.Fatalf("LD (HL),E wrote %02x want 55", v)
	}
}

func TestCPU_ALU_A_r_RegisterForms(t *testing.T) {
	// ADD A,B ; SUB A,C ; AND A,D ; XOR A,A
	c := newCPUWithROM([]byte{0x80, 0x91, 0xA2, 0xAF})
	c.A = 0x10
	c.B = 0x05
	c.Step() // ADD A,B
	if c.A != 0x15 {
		t.Fatalf("ADD A,B got A=%02x want 15", c.A)
	}

	c.C = 0x05
	c.Step() // SUB A,C
	if c.A != 0x10 {
		t.Fatalf("SUB A,C got A=%02x want 10", c.A)
	}
	if c.F&flagN == 0 {
		t.Fatalf("SUB A,C should set N flag")
	}

	c.D = 0xFF
	c.Step() // AND A,D
	if c.A != 0x10 {
		t.Fatalf("AND A,D got A=%02x want 10", c.A)
	}
	if c.F&flagH == 0 {
		t.Fatalf("AND A,D should set H flag")
	}

	c.Step() // XOR A,A
	if c.A != 0x00 || c.F&flagZ == 0 {
		t.Fatalf("XOR A,A got A=%02x F=%02x, want A=00 Z set", c.A, c.F)
	}
}

func TestCPU_HALT_WithIME_WaitsWithoutExecutingNextOpcode(t *testing.T) {
	// 0000: HALT ; 0001: LD A,0x99 (must NOT execute while halted)
	c := newCPUWithROM([]byte{0x76, 0x3E, 0x99})
	c.IME = true
	ic := c.ic

	cyc, _ := c.Step() // HALT
	if cyc != 4 {
		t.Fatalf("HALT cycles got %d want 4", cyc)
	}
	if !c.halted {
		t.Fatalf("CPU should be halted after HALT with nothing pending")
	}

	// No interrupt pending yet: CPU must keep ticking in place, not
	// fetch and execute LD A,0x99 at PC=1.
	for i := 0; i < 3; i++ {
		cyc, eff := c.Step()
		if cyc != 4 {
			t.Fatalf("halted tick %d cycles got %d want 4", i, cyc)
		}
		if len(eff) != 0 {
			t.Fatalf("halted tick %d produced unexpected effects", i)
		}
		if c.A == 0x99 {
			t.Fatalf("halted tick %d executed LD A,0x99 instead of waiting", i)
		}
		if c.PC != 1 {
			t.Fatalf("halted tick %d PC got %#04x want 0x0001 (still parked after HALT)", i, c.PC)
		}
	}

	// Now request and enable the interrupt: the CPU should wake and
	// dispatch instead of falling through to LD A,0x99.
	ic.SetIE(0x01)
	ic.Request(interrupt.VBlank)
	cyc, _ = c.Step()
	if cyc != 20 {
		t.Fatalf("post-HALT interrupt dispatch cycles got %d want 20", cyc)
	}
	if c.PC != 0x40 {
		t.Fatalf("post-HALT interrupt dispatch PC got %#04x want 0x0040", c.PC)
	}
	if c.halted {
		t.Fatalf("CPU should no longer be halted after servicing the interrupt")
	}
}

func TestCPU_InterruptDispatch(t *testing.T) {
	ic := interrupt.New()
	m := mmu.New(ppu.New(func(int) {}), apu.New(44100), ic)
	m.LoadCartridge(cart.NewROMOnly(make([]byte, 0x8000)))
	c := New(m, ic)
	c.IME = true
	ic.SetIE(0x01) // VBlank enabled
	ic.Request(interrupt.VBlank)

	cycles, _ := c.Step()
	if cycles != 20 {
		t.Fatalf("interrupt dispatch cycles got %d want 20", cycles)
	}
	if c.PC != 0x40 {
		t.Fatalf("PC after VBlank dispatch got %#04x want 0x0040", c.PC)
	}
	if c.IME {
		t.Fatalf("IME should be cleared after dispatch")
	}
}
