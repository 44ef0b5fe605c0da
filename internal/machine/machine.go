// Package machine wires CPU, MMU, PPU, APU, timer, and interrupt
// controller together and owns the one place cycle accounting is
// pinned: NextFrame runs the CPU instruction by instruction and
// advances every other component by exactly the cycles each
// instruction took.
package machine

import (
	"io"

	"github.com/pixelclock/gbcore/internal/apu"
	"github.com/pixelclock/gbcore/internal/cart"
	"github.com/pixelclock/gbcore/internal/cpu"
	"github.com/pixelclock/gbcore/internal/interrupt"
	"github.com/pixelclock/gbcore/internal/mmu"
	"github.com/pixelclock/gbcore/internal/ppu"
	"github.com/pixelclock/gbcore/internal/timer"
)

const cyclesPerFrame = 70224 // 154 lines * 456 dots, DMG T-cycles

// Buttons mirrors the eight physical joypad inputs.
type Buttons struct {
	A, B, Start, Select   bool
	Up, Down, Left, Right bool
}

func (b Buttons) mask() byte {
	var m byte
	if b.Right {
		m |= mmu.JoypRight
	}
	if b.Left {
		m |= mmu.JoypLeft
	}
	if b.Up {
		m |= mmu.JoypUp
	}
	if b.Down {
		m |= mmu.JoypDown
	}
	if b.A {
		m |= mmu.JoypA
	}
	if b.B {
		m |= mmu.JoypB
	}
	if b.Select {
		m |= mmu.JoypSelectBtn
	}
	if b.Start {
		m |= mmu.JoypStart
	}
	return m
}

// Machine is the public emulator surface: load a cartridge, feed
// input, step one frame at a time, and read back video and audio.
type Machine struct {
	ic    *interrupt.Controller
	mmu   *mmu.MMU
	cpu   *cpu.CPU
	ppu   *ppu.PPU
	apu   *apu.APU
	timer *timer.Timer

	cyclesThisFrame int
}

// New constructs a Machine with no cartridge loaded.
func New(sampleRate int) *Machine {
	ic := interrupt.New()
	p := ppu.New(func(bit int) { ic.Request(bit) })
	a := apu.New(sampleRate)
	m := &Machine{ic: ic, ppu: p, apu: a}
	m.timer = timer.New(func() { ic.Request(interrupt.Timer) })
	m.mmu = mmu.New(p, a, ic)
	m.cpu = cpu.New(m.mmu, ic)
	return m
}

// LoadCartridge parses rom's header, constructs the matching
// cartridge implementation, resets the CPU registers to the DMG
// post-boot values with PC at 0x0100, and writes the post-boot LCDC
// (0x91), BGP (0xFC) and IE (0x00) values. Timer, APU and the other
// I/O registers are left as they are.
func (m *Machine) LoadCartridge(rom []byte) error {
	c, err := cart.New(rom)
	if err != nil {
		return err
	}
	m.mmu.LoadCartridge(c)
	m.cpu.ResetNoBoot()
	m.cpu.SetPC(0x0100)
	m.mmu.Write(0xFF40, 0x91)
	m.mmu.Write(0xFF47, 0xFC)
	m.mmu.Write(0xFFFF, 0x00)
	return nil
}

// LoadCartridgeWithBoot is LoadCartridge but runs the CPU from 0x0000
// through the given 256-byte boot ROM instead of jumping straight to
// the post-boot register state; the boot ROM itself is responsible for
// leaving memory in the expected state before it disables itself via a
// write to 0xFF50.
func (m *Machine) LoadCartridgeWithBoot(rom, bootROM []byte) error {
	c, err := cart.New(rom)
	if err != nil {
		return err
	}
	m.mmu.LoadCartridge(c)
	m.mmu.SetBootROM(bootROM)
	m.cpu.SetPC(0x0000)
	return nil
}

// SetPC overrides the CPU program counter, for tools that want to
// start execution somewhere other than the standard entry point.
func (m *Machine) SetPC(pc uint16) { m.cpu.SetPC(pc) }

// SetSerialWriter routes every byte written through the cartridge's
// serial port to w, for test ROMs that report pass/fail over serial.
func (m *Machine) SetSerialWriter(w io.Writer) { m.mmu.SetSerialWriter(w) }

// SetButtons updates the live button state; Machine derives the
// joypad interrupt edge from the transition.
func (m *Machine) SetButtons(b Buttons) {
	if m.mmu.SetJoypadState(b.mask()) {
		m.ic.Request(interrupt.Joypad)
	}
}

// NextFrame runs the machine until one full frame (70224 T-cycles) of
// CPU/PPU/APU/timer time has elapsed, then returns.
func (m *Machine) NextFrame() {
	m.cyclesThisFrame = 0
	for m.cyclesThisFrame < cyclesPerFrame {
		cycles, effects := m.cpu.Step()
		m.advance(cycles, effects)
	}
}

// Step runs exactly one CPU instruction and advances every other
// component by the cycles it took, returning that cycle count. It is
// coarser-grained than NextFrame and exists for tracing tools that
// need per-instruction visibility (spec.md's CPU single-step contract).
func (m *Machine) Step() int {
	cycles, effects := m.cpu.Step()
	m.advance(cycles, effects)
	return cycles
}

// CPUState snapshots the register file for trace output.
type CPUState struct {
	A, F, B, C, D, E, H, L byte
	SP, PC                 uint16
	IME                    bool
	IF, IE                 byte
}

// CPUState returns the CPU's current register file.
func (m *Machine) CPUState() CPUState {
	return CPUState{
		A: m.cpu.A, F: m.cpu.F, B: m.cpu.B, C: m.cpu.C,
		D: m.cpu.D, E: m.cpu.E, H: m.cpu.H, L: m.cpu.L,
		SP: m.cpu.SP, PC: m.cpu.PC, IME: m.cpu.IME,
		IF: m.ic.IF(), IE: m.ic.IE(),
	}
}

// ReadMemory reads a single byte from the CPU-visible address space,
// for trace tools that want to print the opcode at PC.
func (m *Machine) ReadMemory(addr uint16) byte { return m.mmu.Read(addr) }

func (m *Machine) advance(cycles int, effects []mmu.Effect) {
	for _, eff := range effects {
		switch eff {
		case mmu.ResetDivider:
			m.timer.ResetDivider()
		case mmu.RetimeTimer:
			// TIMA/TMA/TAC live in the MMU; mirror the latest values
			// into the timer before re-deriving its internal state.
			m.timer.WriteTIMA(m.mmu.TIMA())
			m.timer.WriteTMA(m.mmu.TMA())
			m.timer.WriteTAC(m.mmu.TAC())
		}
	}

	m.timer.Tick(cycles)
	m.mmu.SetDIV(m.timer.DIV())
	if m.mmu.TIMA() != m.timer.TIMA() {
		m.mmu.SetTIMA(m.timer.TIMA())
	}

	m.ppu.Tick(cycles)
	m.apu.Tick(cycles)

	m.cyclesThisFrame += cycles
}

// Framebuffer returns the RGBA8888 pixel buffer for the most recently
// rendered frame (160x144x4 bytes, row-major).
func (m *Machine) Framebuffer() []byte { return m.ppu.Framebuffer() }

// BufferedAudioFrames returns the number of stereo sample pairs
// currently queued and not yet drained.
func (m *Machine) BufferedAudioFrames() int { return m.apu.BufferedStereo() }

// DrainAudio returns up to max stereo sample pairs as interleaved
// [L0,R0,L1,R1,...] float32 samples in [-1, 1].
func (m *Machine) DrainAudio(max int) []float32 {
	frames := m.apu.PullStereo(max)
	if len(frames) == 0 {
		return nil
	}
	out := make([]float32, len(frames))
	for i, s := range frames {
		out[i] = float32(s) / 32768.0
	}
	return out
}
