package ppu

import "testing"

func TestRenderBGTileProducesNonZeroPixel(t *testing.T) {
	p := New(func(int) {})
	p.CPUWrite(0xFF47, 0xE4) // standard BGP ramp
	// Tile 0 at 0x8000: a fully-opaque row (color index 3 everywhere)
	p.CPUWrite(0x8000, 0xFF)
	p.CPUWrite(0x8001, 0xFF)
	// BG map at 0x9800 tile (0,0) already points at tile 0 by default (zero value)
	p.CPUWrite(0xFF40, 0x91) // LCD on, BG on, 0x8000 tile data, 0x9800 map

	p.renderScanline()
	fb := p.Framebuffer()
	r, g, b := fb[0], fb[1], fb[2]
	want := dmgPalette[paletteLookup(0xE4, 3)]
	if r != want[0] || g != want[1] || b != want[2] {
		t.Fatalf("pixel(0,0) got (%d,%d,%d) want (%d,%d,%d)", r, g, b, want[0], want[1], want[2])
	}
}

func TestScanlineCounterStaysInBounds(t *testing.T) {
	p := New(func(int) {})
	p.CPUWrite(0xFF40, 0x80)
	for i := 0; i < 10000; i++ {
		p.Tick(1)
		if p.scanlineCounter < 0 || p.scanlineCounter > dotsPerLine {
			t.Fatalf("scanlineCounter out of bounds: %d", p.scanlineCounter)
		}
	}
}

func TestLYStaysWithinScreenRange(t *testing.T) {
	p := New(func(int) {})
	p.CPUWrite(0xFF40, 0x80)
	for i := 0; i < 456*200; i++ {
		p.Tick(1)
		if p.LY() > 153 {
			t.Fatalf("LY out of bounds: %d", p.LY())
		}
	}
}
