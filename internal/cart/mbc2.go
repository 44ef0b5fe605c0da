package cart

// MBC2 implements ROM banking plus the controller's built-in 512x4-bit
// RAM (spec.md §4.1: "MBC2 requires address bit 4 == 0"; grounded on
// original_source's mbc2 RAM-enable and low-ROM-bank-select handling).
type MBC2 struct {
	rom []byte
	ram [512]byte // only the low nibble of each byte is wired

	romBank    byte // low 4 bits of the ROM bank number (0 remaps to 1)
	ramEnabled bool
}

// NewMBC2 returns an MBC2 cartridge backed by rom.
func NewMBC2(rom []byte) *MBC2 {
	return &MBC2{rom: rom, romBank: 1}
}

func (m *MBC2) Read(addr uint16) byte {
	switch {
	case addr < 0x4000:
		return m.rom[addr]
	case addr < 0x8000:
		offset := int(m.romBank)*0x4000 + int(addr-0x4000)
		if offset < len(m.rom) {
			return m.rom[offset]
		}
		return 0xFF
	case addr >= 0xA000 && addr < 0xA200:
		if !m.ramEnabled {
			return 0xFF
		}
		return m.ram[addr-0xA000] | 0xF0
	default:
		return 0xFF
	}
}

func (m *MBC2) Write(addr uint16, value byte) {
	switch {
	case addr < 0x2000:
		// RAM-enable writes are only recognized when address bit 4 is
		// clear; when it's set the write is ignored.
		if addr&0x10 != 0 {
			return
		}
		m.ramEnabled = value&0x0F == 0x0A
	case addr < 0x4000:
		bank := value & 0x0F
		if bank == 0 {
			bank = 1
		}
		m.romBank = bank
	case addr >= 0xA000 && addr < 0xA200:
		if !m.ramEnabled {
			return
		}
		m.ram[addr-0xA000] = value & 0x0F
	}
}
