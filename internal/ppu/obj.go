package ppu

// Sprite rendering: 128 OAM entries, each 8 bytes (3 attribute
// halfwords + 2 affine-parameter-group filler bytes), evaluated in
// index order per spec §4.6. Lower-indexed sprites win ties at equal
// priority, matching hardware.

var objShapeSize = [4][4][2]int{
	// shape 0: square
	{{8, 8}, {16, 16}, {32, 32}, {64, 64}},
	// shape 1: horizontal (wide)
	{{16, 8}, {32, 8}, {32, 16}, {64, 32}},
	// shape 2: vertical (tall)
	{{8, 16}, {8, 32}, {16, 32}, {32, 64}},
	// shape 3: reserved/invalid
	{{8, 8}, {8, 8}, {8, 8}, {8, 8}},
}

func (p *PPU) clearObjLine() {
	for x := range p.objLine {
		p.objLine[x] = pixel{transparent: true}
		p.objWinMask[x] = false
	}
}

func (p *PPU) renderObjects(line int) {
	p.clearObjLine()
	if !p.DISPCNT.Bit(12) {
		return
	}
	objMapping1D := p.DISPCNT.Bit(6)

	for i := 0; i < 128; i++ {
		base := uint32(i) * 8
		attr0 := p.ReadOAM16(base)
		objMode := (attr0 >> 8) & 0x3
		if objMode == 2 {
			continue // hidden
		}
		shape := (attr0 >> 14) & 0x3
		attr1 := p.ReadOAM16(base + 2)
		sizeSel := (attr1 >> 14) & 0x3
		w, h := objShapeSize[shape][sizeSel][0], objShapeSize[shape][sizeSel][1]

		affine := objMode == 1 || objMode == 3
		doubleSize := objMode == 3

		y0 := int(attr0 & 0xFF)
		if y0 >= 160 {
			y0 -= 256
		}
		boundsH := h
		if doubleSize {
			boundsH = h * 2
		}
		dy := line - y0
		if dy < 0 || dy >= boundsH {
			continue
		}

		x0 := int(attr1 & 0x1FF)
		if x0 >= 240 {
			x0 -= 512
		}
		boundsW := w
		if doubleSize {
			boundsW = w * 2
		}

		attr2 := p.ReadOAM16(base + 4)
		tileNum := attr2 & 0x3FF
		priority := uint8((attr2 >> 10) & 0x3)
		palBank := uint8((attr2 >> 12) & 0xF)
		color8bpp := attr0&0x2000 != 0
		gfxMode := (attr0 >> 10) & 0x3 // 0 normal, 1 alpha-blend, 2 obj-window

		var pa, pb, pc, pd int32 = 256, 0, 0, 256
		if affine {
			pgroup := (attr1 >> 9) & 0x1F
			pbase := uint32(pgroup) * 32
			pa = int32(int16(p.ReadOAM16(pbase + 6)))
			pb = int32(int16(p.ReadOAM16(pbase + 14)))
			pc = int32(int16(p.ReadOAM16(pbase + 22)))
			pd = int32(int16(p.ReadOAM16(pbase + 30)))
		}

		halfW, halfH := boundsW/2, boundsH/2
		sy := dy - halfH

		for sx := -halfW; sx < boundsW-halfW; sx++ {
			screenX := x0 + halfW + sx
			if screenX < 0 || screenX >= ScreenWidth {
				continue
			}

			var texX, texY int
			if affine {
				origX := (pa*int32(sx) + pb*int32(sy)) >> 8
				origY := (pc*int32(sx) + pd*int32(sy)) >> 8
				texX = int(origX) + w/2
				texY = int(origY) + h/2
				if texX < 0 || texX >= w || texY < 0 || texY >= h {
					continue
				}
			} else {
				texX = sx + halfW
				texY = sy + halfH
				hflip := attr1&0x1000 != 0
				vflip := attr1&0x2000 != 0
				if hflip {
					texX = w - 1 - texX
				}
				if vflip {
					texY = h - 1 - texY
				}
			}

			tileX, tileY := texX/8, texY/8
			fineX, fineY := texX%8, texY%8
			tilesWide := w / 8
			var tileIndex uint32
			if objMapping1D {
				tileIndex = uint32(tileNum) + uint32(tileY*tilesWide+tileX)
			} else {
				stride := uint32(32)
				if color8bpp {
					stride = 16
				}
				tileIndex = uint32(tileNum) + uint32(tileY)*stride + uint32(tileX)
			}

			var colorIdx uint8
			var palOff uint32
			if color8bpp {
				addr := uint32(0x10000) + tileIndex*64 + uint32(fineY)*8 + uint32(fineX)
				colorIdx = p.ReadVRAM8(addr)
			} else {
				addr := uint32(0x10000) + tileIndex*32 + uint32(fineY)*4 + uint32(fineX/2)
				raw := p.ReadVRAM8(addr)
				if fineX%2 == 0 {
					colorIdx = raw & 0x0F
				} else {
					colorIdx = raw >> 4
				}
				palOff = uint32(palBank) * 16
			}

			if gfxMode == 2 {
				if colorIdx != 0 {
					p.objWinMask[screenX] = true
				}
				continue
			}
			if colorIdx == 0 {
				continue
			}

			cur := p.objLine[screenX]
			if !cur.transparent && cur.priority <= priority {
				continue
			}
			color := p.ReadPaletteRAM16(uint32(0x100+int(palOff)+int(colorIdx)) * 2)
			p.objLine[screenX] = pixel{
				color:      color & 0x7FFF,
				priority:   priority,
				semiTransp: gfxMode == 1,
			}
		}
	}
}
