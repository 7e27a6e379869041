package ppu

// Background rendering: the four tiled/affine layers of spec §4.6
// modes 0-2, plus the bitmap layers of modes 3-5 which reuse BG2's
// slot. Each renderer fills bgLine[i] for the current scanline with
// one pixel per dot, leaving transparent=true where nothing was drawn.

func (p *PPU) bgEnabled(i int) bool { return p.DISPCNT.Bit(uint(8 + i)) }

func (p *PPU) clearBGLines() {
	for i := range p.bgLine {
		for x := range p.bgLine[i] {
			p.bgLine[i][x] = pixel{transparent: true}
		}
	}
}

// renderTextBG draws one scanline of a tiled, non-rotated background.
func (p *PPU) renderTextBG(bg, line int) {
	cnt := p.BGCnt[bg]
	priority := uint8(cnt.Field(0, 2))
	charBase := uint32(cnt.Field(2, 2)) * 0x4000
	mosaic := cnt.Bit(6)
	_ = mosaic
	color8bpp := cnt.Bit(7)
	mapBase := uint32(cnt.Field(8, 5)) * 0x800
	size := uint8(cnt.Field(14, 2))

	width, height := bgTextDimensions(size)
	vofs := int(p.BGVOfs[bg].Value & 0x1FF)
	hofs := int(p.BGHOfs[bg].Value & 0x1FF)

	y := (line + vofs) % height
	ty := y / 8
	fineY := y % 8

	for x := 0; x < ScreenWidth; x++ {
		sx := (x + hofs) % width
		tx := sx / 8
		fineX := sx % 8

		entry := p.textScreenEntry(mapBase, size, tx, ty)
		tileNum := entry & 0x3FF
		hflip := entry&0x0400 != 0
		vflip := entry&0x0800 != 0
		palBank := uint8((entry >> 12) & 0xF)

		px, py := fineX, fineY
		if hflip {
			px = 7 - px
		}
		if vflip {
			py = 7 - py
		}

		var colorIdx uint8
		var palOff uint32
		if color8bpp {
			tileAddr := charBase + uint32(tileNum)*64 + uint32(py)*8 + uint32(px)
			colorIdx = p.ReadVRAM8(tileAddr)
			palOff = 0
		} else {
			tileAddr := charBase + uint32(tileNum)*32 + uint32(py)*4 + uint32(px/2)
			raw := p.ReadVRAM8(tileAddr)
			if px%2 == 0 {
				colorIdx = raw & 0x0F
			} else {
				colorIdx = raw >> 4
			}
			palOff = uint32(palBank) * 16
		}

		if colorIdx == 0 {
			p.bgLine[bg][x] = pixel{transparent: true}
			continue
		}
		color := p.ReadPaletteRAM16(uint32(palOff+uint32(colorIdx)) * 2)
		p.bgLine[bg][x] = pixel{color: color & 0x7FFF, priority: priority}
	}
}

func bgTextDimensions(size uint8) (width, height int) {
	switch size {
	case 0:
		return 256, 256
	case 1:
		return 512, 256
	case 2:
		return 256, 512
	default:
		return 512, 512
	}
}

func (p *PPU) textScreenEntry(mapBase uint32, size uint8, tx, ty int) uint16 {
	bx, by := tx/32, ty/32
	var block int
	switch size {
	case 0:
		block = 0
	case 1:
		block = bx
	case 2:
		block = by
	default:
		block = by*2 + bx
	}
	off := mapBase + uint32(block)*0x800 + uint32((ty%32)*32+(tx%32))*2
	return p.ReadVRAM16(off)
}

// renderAffineBG draws one scanline of a rotated/scaled background
// (BG2 in mode 1/2, BG3 in mode 2), stepping the reference point by
// the line's PA/PC/PB/PD per spec §4.6.
func (p *PPU) renderAffineBG(which, bg, line int) {
	cnt := p.BGCnt[bg]
	priority := uint8(cnt.Field(0, 2))
	charBase := uint32(cnt.Field(2, 2)) * 0x4000
	mapBase := uint32(cnt.Field(8, 5)) * 0x800
	sizeSel := uint8(cnt.Field(14, 2))
	wrap := cnt.Bit(13)
	dim := [4]int{128, 256, 512, 1024}[sizeSel]

	pa, pc := int32(p.BGPA[which]), int32(p.BGPC[which])
	refX, refY := p.bgAccX[which], p.bgAccY[which]

	for x := 0; x < ScreenWidth; x++ {
		wx := (refX + int32(x)*pa) >> 8
		wy := (refY + int32(x)*pc) >> 8

		if wrap {
			wx = wrapCoord(wx, int32(dim))
			wy = wrapCoord(wy, int32(dim))
		} else if wx < 0 || wy < 0 || int(wx) >= dim || int(wy) >= dim {
			p.bgLine[bg][x] = pixel{transparent: true}
			continue
		}

		tx, ty := int(wx)/8, int(wy)/8
		fineX, fineY := int(wx)%8, int(wy)%8
		tilesPerRow := dim / 8
		entryOff := mapBase + uint32(ty*tilesPerRow+tx)
		tileNum := p.ReadVRAM8(entryOff)

		tileAddr := charBase + uint32(tileNum)*64 + uint32(fineY)*8 + uint32(fineX)
		colorIdx := p.ReadVRAM8(tileAddr)
		if colorIdx == 0 {
			p.bgLine[bg][x] = pixel{transparent: true}
			continue
		}
		color := p.ReadPaletteRAM16(uint32(colorIdx) * 2)
		p.bgLine[bg][x] = pixel{color: color & 0x7FFF, priority: priority}
	}

	p.bgAccX[which] += int32(p.BGPB[which])
	p.bgAccY[which] += int32(p.BGPD[which])
}

func wrapCoord(v, dim int32) int32 {
	v %= dim
	if v < 0 {
		v += dim
	}
	return v
}

// renderBitmapBG draws modes 3-5, which repurpose BG2's slot for a
// directly-addressed frame (mode 3), an 8bpp paletted frame with page
// flipping (mode 4), or a small paletted-less 16bpp frame (mode 5).
func (p *PPU) renderBitmapBG(mode, line int) {
	page := uint32(0)
	if p.DISPCNT.Bit(4) {
		page = 0xA000
	}
	switch mode {
	case 3:
		for x := 0; x < ScreenWidth; x++ {
			off := page + uint32(line*ScreenWidth+x)*2
			color := p.ReadVRAM16(off)
			p.bgLine[2][x] = pixel{color: color & 0x7FFF}
		}
	case 4:
		for x := 0; x < ScreenWidth; x++ {
			idx := p.ReadVRAM8(page + uint32(line*ScreenWidth+x))
			if idx == 0 {
				p.bgLine[2][x] = pixel{transparent: true}
				continue
			}
			color := p.ReadPaletteRAM16(uint32(idx) * 2)
			p.bgLine[2][x] = pixel{color: color & 0x7FFF}
		}
	case 5:
		const w, h = 160, 128
		if line >= h {
			for x := 0; x < ScreenWidth; x++ {
				p.bgLine[2][x] = pixel{transparent: true}
			}
			return
		}
		for x := 0; x < ScreenWidth; x++ {
			if x >= w {
				p.bgLine[2][x] = pixel{transparent: true}
				continue
			}
			off := page + uint32(line*w+x)*2
			color := p.ReadVRAM16(off)
			p.bgLine[2][x] = pixel{color: color & 0x7FFF}
		}
	}
}
