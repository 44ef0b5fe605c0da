package ppu

// dmgPalette maps a 2-bit color index to an RGBA shade, in the order
// the classic DMG screen renders them (lightest to darkest).
var dmgPalette = [4][4]byte{
	{0xE0, 0xF8, 0xD0, 0xFF},
	{0x88, 0xC0, 0x70, 0xFF},
	{0x34, 0x68, 0x56, 0xFF},
	{0x08, 0x18, 0x20, 0xFF},
}

func paletteLookup(palette byte, colorID byte) byte {
	return (palette >> (colorID * 2)) & 0x03
}

// renderScanline composes background, window, and sprites for the
// current line (p.ly) into the framebuffer, following spec.md §4.5's
// literal per-pixel algorithm: for each of the 160 columns, resolve a
// background/window color index, then let an opaque, priority-winning
// sprite pixel override it.
func (p *PPU) renderScanline() {
	ly := p.ly
	if ly >= screenHeight {
		return
	}

	var bgColorID [screenWidth]byte
	bgEnabled := p.lcdc&0x01 != 0
	windowEnabled := p.lcdc&0x20 != 0 && p.wy <= ly

	if bgEnabled {
		p.renderBGLine(ly, bgColorID[:])
	}
	if windowEnabled {
		p.renderWindowLine(ly, bgColorID[:])
	}
	if windowEnabled && p.wy <= ly {
		p.windowLine++
	}

	for x := 0; x < screenWidth; x++ {
		idx := paletteLookup(p.bgp, bgColorID[x])
		p.setPixel(x, int(ly), dmgPalette[idx])
	}

	if p.lcdc&0x02 != 0 {
		p.renderSprites(ly, bgColorID[:])
	}
}

func (p *PPU) bgTileMapBase() uint16 {
	if p.lcdc&0x08 != 0 {
		return 0x9C00
	}
	return 0x9800
}

func (p *PPU) windowTileMapBase() uint16 {
	if p.lcdc&0x40 != 0 {
		return 0x9C00
	}
	return 0x9800
}

func (p *PPU) tileDataAddr(tileIndex byte) uint16 {
	if p.lcdc&0x10 != 0 {
		return 0x8000 + uint16(tileIndex)*16
	}
	return uint16(0x9000 + int(int8(tileIndex))*16)
}

func (p *PPU) tilePixel(tileAddr uint16, row, col byte) byte {
	lowAddr := tileAddr + uint16(row)*2
	low := p.vram[lowAddr-0x8000]
	high := p.vram[lowAddr+1-0x8000]
	bit := 7 - col
	lowBit := (low >> bit) & 1
	highBit := (high >> bit) & 1
	return (highBit << 1) | lowBit
}

func (p *PPU) renderBGLine(ly byte, out []byte) {
	mapBase := p.bgTileMapBase()
	bgY := ly + p.scy
	tileRow := bgY / 8
	fineY := bgY % 8
	for x := 0; x < screenWidth; x++ {
		bgX := byte(x) + p.scx
		tileCol := bgX / 8
		fineX := bgX % 8
		mapAddr := mapBase + uint16(tileRow)*32 + uint16(tileCol)
		tileIndex := p.vram[mapAddr-0x8000]
		tileAddr := p.tileDataAddr(tileIndex)
		out[x] = p.tilePixel(tileAddr, fineY, fineX)
	}
}

func (p *PPU) renderWindowLine(ly byte, out []byte) {
	wx := int(p.wx) - 7
	if wx >= screenWidth {
		return
	}
	mapBase := p.windowTileMapBase()
	winY := byte(p.windowLine)
	tileRow := winY / 8
	fineY := winY % 8
	for x := wx; x < screenWidth; x++ {
		if x < 0 {
			continue
		}
		winX := byte(x - wx)
		tileCol := winX / 8
		fineX := winX % 8
		mapAddr := mapBase + uint16(tileRow)*32 + uint16(tileCol)
		tileIndex := p.vram[mapAddr-0x8000]
		tileAddr := p.tileDataAddr(tileIndex)
		out[x] = p.tilePixel(tileAddr, fineY, fineX)
	}
}

type spriteEntry struct {
	y, x, tile, attr byte
	oamIndex         int
}

// renderSprites draws up to 10 sprites intersecting this line, in
// OAM-index priority order for equal X (spec.md §4.5 sprite priority),
// respecting the background-mask-based behind-BG priority bit.
func (p *PPU) renderSprites(ly byte, bgColorID []byte) {
	tall := p.lcdc&0x04 != 0
	height := byte(8)
	if tall {
		height = 16
	}

	var visible []spriteEntry
	for i := 0; i < 40 && len(visible) < 10; i++ {
		base := i * 4
		spriteY := p.oam[base] - 16
		if ly < spriteY || ly >= spriteY+height {
			continue
		}
		visible = append(visible, spriteEntry{
			y:        p.oam[base],
			x:        p.oam[base+1],
			tile:     p.oam[base+2],
			attr:     p.oam[base+3],
			oamIndex: i,
		})
	}

	for x := 0; x < screenWidth; x++ {
		var winner *spriteEntry
		for i := range visible {
			s := &visible[i]
			screenX := int(s.x) - 8
			if x < screenX || x >= screenX+8 {
				continue
			}
			if winner == nil || s.x < winner.x || (s.x == winner.x && s.oamIndex < winner.oamIndex) {
				winner = s
			}
		}
		if winner == nil {
			continue
		}

		spriteY := winner.y - 16
		row := ly - spriteY
		if winner.attr&0x40 != 0 { // Y flip
			row = height - 1 - row
		}
		tile := winner.tile
		if tall {
			tile &^= 0x01
			if row >= 8 {
				tile |= 0x01
				row -= 8
			}
		}
		screenX := int(winner.x) - 8
		col := byte(x - screenX)
		if winner.attr&0x20 != 0 { // X flip
			col = 7 - col
		}
		tileAddr := 0x8000 + uint16(tile)*16
		colorID := p.tilePixel(tileAddr, row, col)
		if colorID == 0 {
			continue // transparent
		}
		behindBG := winner.attr&0x80 != 0
		if behindBG && bgColorID[x] != 0 {
			continue
		}
		palette := p.obp0
		if winner.attr&0x10 != 0 {
			palette = p.obp1
		}
		idx := paletteLookup(palette, colorID)
		p.setPixel(x, int(ly), dmgPalette[idx])
	}
}

func (p *PPU) setPixel(x, y int, rgba [4]byte) {
	i := (y*screenWidth + x) * 4
	p.fb[i+0] = rgba[0]
	p.fb[i+1] = rgba[1]
	p.fb[i+2] = rgba[2]
	p.fb[i+3] = rgba[3]
}
