// Package mmu implements the 16-bit CPU address space: cartridge
// ROM/RAM banking, work RAM, high RAM, OAM DMA, and the memory-mapped
// I/O registers. VRAM/OAM/LCD registers and APU registers are owned
// by the ppu and apu packages and simply delegated to; IF/IE live in
// the interrupt package. The MMU has no dependency on the CPU or
// timer: DIV/TIMA/TMA/TAC writes that need to affect the timer are
// reported back to the caller as Effect values instead of being
// applied here (spec.md §4.1, §9 "MMU side effects").
package mmu

import (
	"io"

	"github.com/pixelclock/gbcore/internal/apu"
	"github.com/pixelclock/gbcore/internal/cart"
	"github.com/pixelclock/gbcore/internal/interrupt"
	"github.com/pixelclock/gbcore/internal/ppu"
)

// Effect describes a side effect of a bus write that the MMU cannot
// apply itself because it would require a dependency on another
// component. The CPU collects them while it executes an instruction
// and Machine applies them after that step.
type Effect int

const (
	None Effect = iota
	ResetDivider
	RetimeTimer
)

// Joypad button bitmasks for SetJoypadState; set bits mean pressed.
const (
	JoypRight     = 1 << 0
	JoypLeft      = 1 << 1
	JoypUp        = 1 << 2
	JoypDown      = 1 << 3
	JoypA         = 1 << 4
	JoypB         = 1 << 5
	JoypSelectBtn = 1 << 6
	JoypStart     = 1 << 7
)

// MMU owns the CPU-visible address space.
type MMU struct {
	cart cart.Cartridge
	ppu  *ppu.PPU
	apu  *apu.APU
	ic   *interrupt.Controller

	wram [0x2000]byte // 0xC000-0xDFFF, echoed at 0xE000-0xFDFF
	hram [0x7F]byte   // 0xFF80-0xFFFE

	joypSelect byte
	joypad     byte

	div  byte // 0xFF04, upper 8 bits of the internal divider
	tima byte // 0xFF05
	tma  byte // 0xFF06
	tac  byte // 0xFF07, lower 3 bits used

	sb byte      // 0xFF01
	sc byte      // 0xFF02
	sw io.Writer // optional sink for bytes written through the serial port

	dma byte // 0xFF46

	bootROM     []byte
	bootEnabled bool
}

// New constructs an MMU with no cartridge loaded; LoadCartridge wires
// one in before any ROM-region access is meaningful.
func New(p *ppu.PPU, a *apu.APU, ic *interrupt.Controller) *MMU {
	return &MMU{ppu: p, apu: a, ic: ic}
}

// LoadCartridge replaces the active cartridge.
func (m *MMU) LoadCartridge(c cart.Cartridge) { m.cart = c }

// SetSerialWriter sets a sink that receives every byte a program sends
// out over the serial port, one per completed transfer. Test ROMs that
// report pass/fail over serial (spec.md's Blargg-style harness) are the
// primary consumer.
func (m *MMU) SetSerialWriter(w io.Writer) { m.sw = w }

// SetBootROM loads a 256-byte boot ROM overlay for 0x0000-0x00FF,
// active until disabled via a write to 0xFF50.
func (m *MMU) SetBootROM(data []byte) {
	m.bootROM = nil
	m.bootEnabled = false
	if len(data) >= 0x100 {
		m.bootROM = make([]byte, 0x100)
		copy(m.bootROM, data[:0x100])
		m.bootEnabled = true
	}
}

func (m *MMU) Read(addr uint16) byte {
	switch {
	case addr < 0x8000:
		if m.bootEnabled && addr < 0x0100 && len(m.bootROM) >= 0x100 {
			return m.bootROM[addr]
		}
		return m.cart.Read(addr)
	case addr <= 0x9FFF:
		return m.ppu.CPURead(addr)
	case addr <= 0xBFFF:
		return m.cart.Read(addr)
	case addr <= 0xDFFF:
		return m.wram[addr-0xC000]
	case addr <= 0xFDFF:
		mirror := addr - 0x2000
		return m.wram[mirror-0xC000]
	case addr <= 0xFE9F:
		return m.ppu.CPURead(addr)
	case addr >= 0xFEA0 && addr <= 0xFEFF:
		return 0xFF // prohibited region
	case addr == 0xFF00:
		return m.readJoypad()
	case addr == 0xFF01:
		return m.sb
	case addr == 0xFF02:
		return 0x7E | (m.sc & 0x81)
	case addr == 0xFF04:
		return m.div
	case addr == 0xFF05:
		return m.tima
	case addr == 0xFF06:
		return m.tma
	case addr == 0xFF07:
		return 0xF8 | (m.tac & 0x07)
	case addr == 0xFF0F:
		return 0xE0 | m.ic.IF()
	case addr >= 0xFF10 && addr <= 0xFF3F:
		return m.apu.CPURead(addr)
	case addr == 0xFF40, addr == 0xFF41, addr == 0xFF42, addr == 0xFF43,
		addr == 0xFF44, addr == 0xFF45,
		addr == 0xFF47, addr == 0xFF48, addr == 0xFF49,
		addr == 0xFF4A, addr == 0xFF4B:
		return m.ppu.CPURead(addr)
	case addr == 0xFF46:
		return m.dma
	case addr == 0xFF50:
		return 0xFF
	case addr >= 0xFF80 && addr <= 0xFFFE:
		return m.hram[addr-0xFF80]
	case addr == 0xFFFF:
		return m.ic.IE()
	default:
		return 0xFF
	}
}

// Write applies a bus write and reports any Effect the caller must
// apply against the timer. APU register writes, including channel
// triggers, take effect inside the APU directly.
func (m *MMU) Write(addr uint16, value byte) Effect {
	switch {
	case addr < 0x8000:
		m.cart.Write(addr, value)
	case addr <= 0x9FFF:
		m.ppu.CPUWrite(addr, value)
	case addr <= 0xBFFF:
		m.cart.Write(addr, value)
	case addr <= 0xDFFF:
		m.wram[addr-0xC000] = value
	case addr <= 0xFDFF:
		mirror := addr - 0x2000
		if mirror >= 0xC000 && mirror <= 0xDDFF {
			m.wram[mirror-0xC000] = value
		}
	case addr <= 0xFE9F:
		m.ppu.CPUWrite(addr, value)
	case addr >= 0xFEA0 && addr <= 0xFEFF:
		// prohibited region: writes are discarded
	case addr == 0xFF00:
		m.joypSelect = value & 0x30
	case addr == 0xFF01:
		m.sb = value
	case addr == 0xFF02:
		m.sc = value & 0x81
		if m.sc&0x80 != 0 {
			if m.sw != nil {
				_, _ = m.sw.Write([]byte{m.sb})
			}
			m.ic.Request(interrupt.Serial)
			m.sc &^= 0x80 // transfer completes immediately
		}
	case addr == 0xFF04:
		m.div = 0
		return ResetDivider
	case addr == 0xFF05:
		m.tima = value
		return RetimeTimer
	case addr == 0xFF06:
		m.tma = value
		return RetimeTimer
	case addr == 0xFF07:
		m.tac = value & 0x07
		return RetimeTimer
	case addr == 0xFF0F:
		m.ic.SetIF(value)
	case addr >= 0xFF10 && addr <= 0xFF3F:
		m.apu.CPUWrite(addr, value)
	case addr == 0xFF40, addr == 0xFF41, addr == 0xFF42, addr == 0xFF43,
		addr == 0xFF44, addr == 0xFF45,
		addr == 0xFF47, addr == 0xFF48, addr == 0xFF49,
		addr == 0xFF4A, addr == 0xFF4B:
		m.ppu.CPUWrite(addr, value)
	case addr == 0xFF46:
		m.dma = value
		m.doDMA(value)
	case addr == 0xFF50:
		if value != 0 {
			m.bootEnabled = false
		}
	case addr >= 0xFF80 && addr <= 0xFFFE:
		m.hram[addr-0xFF80] = value
	case addr == 0xFFFF:
		m.ic.SetIE(value)
	}
	return None
}

// doDMA copies the 160-byte OAM block starting at src*0x100 in a single
// step, completing within the triggering instruction's own timing rather
// than trickling in over subsequent instructions.
func (m *MMU) doDMA(src byte) {
	base := uint16(src) << 8
	for i := uint16(0); i < 0xA0; i++ {
		m.ppu.CPUWrite(0xFE00+i, m.Read(base+i))
	}
}

// SetDIV is used by the timer owner to publish the free-running
// divider's upper byte after each tick.
func (m *MMU) SetDIV(v byte) { m.div = v }

// TIMA/TMA/TAC/RequestInterrupt let Machine's timer drive MMU state
// without the MMU importing the timer package.
func (m *MMU) TIMA() byte                { return m.tima }
func (m *MMU) SetTIMA(v byte)            { m.tima = v }
func (m *MMU) TMA() byte                 { return m.tma }
func (m *MMU) TAC() byte                 { return m.tac }
func (m *MMU) RequestInterrupt(bit int)  { m.ic.Request(bit) }

// SetJoypadState records which buttons are currently pressed and
// reports whether any selected line had a 1->0 transition (the
// condition for a joypad interrupt request).
func (m *MMU) SetJoypadState(mask byte) bool {
	before := m.selectedLowNibble()
	m.joypad = mask
	after := m.selectedLowNibble()
	return before&^after != 0
}

func (m *MMU) readJoypad() byte {
	return 0xC0 | (m.joypSelect & 0x30) | m.selectedLowNibble()
}

func (m *MMU) selectedLowNibble() byte {
	res := byte(0x0F)
	if m.joypSelect&0x10 == 0 {
		if m.joypad&JoypRight != 0 {
			res &^= 0x01
		}
		if m.joypad&JoypLeft != 0 {
			res &^= 0x02
		}
		if m.joypad&JoypUp != 0 {
			res &^= 0x04
		}
		if m.joypad&JoypDown != 0 {
			res &^= 0x08
		}
	}
	if m.joypSelect&0x20 == 0 {
		if m.joypad&JoypA != 0 {
			res &^= 0x01
		}
		if m.joypad&JoypB != 0 {
			res &^= 0x02
		}
		if m.joypad&JoypSelectBtn != 0 {
			res &^= 0x04
		}
		if m.joypad&JoypStart != 0 {
			res &^= 0x08
		}
	}
	return res
}
