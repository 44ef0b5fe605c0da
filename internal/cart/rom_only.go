package cart

// ROMOnly implements a cartridge with no bank controller: the fixed
// 32 KiB image is visible directly, and there is no external RAM.
type ROMOnly struct {
	rom []byte
}

// NewROMOnly returns a ROMOnly cartridge backed by rom.
func NewROMOnly(rom []byte) *ROMOnly {
	return &ROMOnly{rom: rom}
}

func (c *ROMOnly) Read(addr uint16) byte {
	switch {
	case addr < 0x8000:
		if int(addr) < len(c.rom) {
			return c.rom[addr]
		}
		return 0xFF
	default: // 0xA000-0xBFFF: no external RAM
		return 0xFF
	}
}

func (c *ROMOnly) Write(addr uint16, value byte) {
	// Bank control and external RAM writes are both no-ops: there is
	// nothing to bank and no RAM to store into.
}
