package ppu

// renderScanline produces one line of output: background and sprite
// layers, window masks, and the final windowing + color-effect
// composite, per spec §4.6 steps 1-5.
func (p *PPU) renderScanline(line int) {
	if p.DISPCNT.Bit(7) {
		p.fillForcedBlank(line)
		return
	}

	p.clearBGLines()
	mode := uint8(p.DISPCNT.Field(0, 3))

	switch mode {
	case 0:
		for i := 0; i < 4; i++ {
			if p.bgEnabled(i) {
				p.renderTextBG(i, line)
			}
		}
	case 1:
		if p.bgEnabled(0) {
			p.renderTextBG(0, line)
		}
		if p.bgEnabled(1) {
			p.renderTextBG(1, line)
		}
		if p.bgEnabled(2) {
			p.renderAffineBG(0, 2, line)
		}
	case 2:
		if p.bgEnabled(2) {
			p.renderAffineBG(0, 2, line)
		}
		if p.bgEnabled(3) {
			p.renderAffineBG(1, 3, line)
		}
	case 3, 4, 5:
		if p.bgEnabled(2) {
			p.renderBitmapBG(int(mode), line)
		}
	}

	p.renderObjects(line)
	p.computeWindowMasks(line)
	p.compositeLine(line)
}

func (p *PPU) fillForcedBlank(line int) {
	if p.Framebuffer == nil {
		return
	}
	white := p.colorToARGB(0x7FFF)
	base := line * ScreenWidth
	for x := 0; x < ScreenWidth; x++ {
		p.Framebuffer[base+x] = white
	}
}

func (p *PPU) computeWindowMasks(line int) {
	win0On := p.DISPCNT.Bit(13)
	win1On := p.DISPCNT.Bit(14)
	for x := range p.win0Mask {
		p.win0Mask[x] = false
		p.win1Mask[x] = false
	}
	if win0On {
		top, bottom := int(p.Win0V.Value>>8), int(p.Win0V.Value&0xFF)
		if lineInRange(line, top, bottom) {
			left, right := int(p.Win0H.Value>>8), int(p.Win0H.Value&0xFF)
			for x := 0; x < ScreenWidth; x++ {
				p.win0Mask[x] = coordInRange(x, left, right)
			}
		}
	}
	if win1On {
		top, bottom := int(p.Win1V.Value>>8), int(p.Win1V.Value&0xFF)
		if lineInRange(line, top, bottom) {
			left, right := int(p.Win1H.Value>>8), int(p.Win1H.Value&0xFF)
			for x := 0; x < ScreenWidth; x++ {
				p.win1Mask[x] = coordInRange(x, left, right)
			}
		}
	}
}

// lineInRange and coordInRange treat top>bottom (or left>right) as a
// wraparound span rather than an empty one, matching real hardware
// rather than the original source (which left this case unhandled).
func lineInRange(v, lo, hi int) bool {
	if lo <= hi {
		return v >= lo && v < hi
	}
	return v >= lo || v < hi
}

func coordInRange(v, lo, hi int) bool {
	if lo <= hi {
		return v >= lo && v < hi
	}
	return v >= lo || v < hi
}

const (
	winLayerBG0 = 1 << iota
	winLayerBG1
	winLayerBG2
	winLayerBG3
	winLayerOBJ
	winLayerEffect
)

func (p *PPU) windowFlagsAt(x int) uint8 {
	anyWindow := p.DISPCNT.Bit(13) || p.DISPCNT.Bit(14) || p.DISPCNT.Bit(15)
	if !anyWindow {
		return 0xFF
	}
	if p.win0Mask[x] {
		return uint8(p.WinIn.Value & 0x3F)
	}
	if p.win1Mask[x] {
		return uint8((p.WinIn.Value >> 8) & 0x3F)
	}
	if p.DISPCNT.Bit(15) && p.objWinMask[x] {
		return uint8((p.WinOut.Value >> 8) & 0x3F)
	}
	return uint8(p.WinOut.Value & 0x3F)
}

type layerHit struct {
	pix   pixel
	layer int // 0..3 = BG0-3, 4 = OBJ
}

// compositeLine performs per-pixel layer selection (two highest
// priority, non-transparent layers), applies BLDCNT's color effect
// where the window and target masks allow it, and writes ARGB output.
func (p *PPU) compositeLine(line int) {
	if p.Framebuffer == nil {
		return
	}
	bldMode := uint8(p.BldCnt.Field(6, 2))
	target1 := uint8(p.BldCnt.Value & 0x3F)
	target2 := uint8((p.BldCnt.Value >> 8) & 0x3F)
	eva := uint32(p.BldAlpha.Value & 0x1F)
	evb := uint32((p.BldAlpha.Value >> 8) & 0x1F)
	evy := uint32(p.BldY.Value & 0x1F)

	base := line * ScreenWidth
	for x := 0; x < ScreenWidth; x++ {
		flags := p.windowFlagsAt(x)

		var hits [5]layerHit
		n := 0
		for i := 0; i < 4; i++ {
			if !p.bgEnabled(i) || flags&(1<<uint(i)) == 0 {
				continue
			}
			px := p.bgLine[i][x]
			if px.transparent {
				continue
			}
			hits[n] = layerHit{pix: px, layer: i}
			n++
		}
		if p.DISPCNT.Bit(12) && flags&winLayerOBJ != 0 {
			px := p.objLine[x]
			if !px.transparent {
				hits[n] = layerHit{pix: px, layer: 4}
				n++
			}
		}

		top, second, haveSecond := pickTop(hits[:n])

		effectAllowed := flags&winLayerEffect != 0
		out := top.pix.color
		if effectAllowed {
			if top.pix.semiTransp && haveSecond && layerBit(second.layer)&target2 != 0 {
				out = blendColors(top.pix.color, second.pix.color, eva, evb)
			} else if layerBit(top.layer)&target1 != 0 {
				switch bldMode {
				case 1:
					if haveSecond && layerBit(second.layer)&target2 != 0 {
						out = blendColors(top.pix.color, second.pix.color, eva, evb)
					}
				case 2:
					out = brightenColor(top.pix.color, evy)
				case 3:
					out = darkenColor(top.pix.color, evy)
				}
			}
		}

		if n == 0 {
			out = p.backdropColor()
		}
		p.Framebuffer[base+x] = p.colorToARGB(out)
	}
}

func layerBit(layer int) uint8 {
	if layer == 4 {
		return 1 << 4
	}
	return 1 << uint(layer)
}

func pickTop(hits []layerHit) (top, second layerHit, haveSecond bool) {
	if len(hits) == 0 {
		return layerHit{}, layerHit{}, false
	}
	bestIdx := 0
	for i := 1; i < len(hits); i++ {
		if better(hits[i], hits[bestIdx]) {
			bestIdx = i
		}
	}
	top = hits[bestIdx]
	secondIdx := -1
	for i := range hits {
		if i == bestIdx {
			continue
		}
		if secondIdx == -1 || better(hits[i], hits[secondIdx]) {
			secondIdx = i
		}
	}
	if secondIdx == -1 {
		return top, layerHit{}, false
	}
	return top, hits[secondIdx], true
}

// better reports whether a should be drawn over b: lower priority
// value wins, OBJ breaks ties over any BG, otherwise lower layer index
// (BG0 < BG1 < BG2 < BG3) wins the tie.
func better(a, b layerHit) bool {
	if a.pix.priority != b.pix.priority {
		return a.pix.priority < b.pix.priority
	}
	aObj, bObj := a.layer == 4, b.layer == 4
	if aObj != bObj {
		return aObj
	}
	return a.layer < b.layer
}

func (p *PPU) backdropColor() uint16 {
	return p.ReadPaletteRAM16(0) & 0x7FFF
}

func blendColors(a, b uint16, eva, evb uint32) uint16 {
	ar, ag, ab := uint32(a&0x1F), uint32((a>>5)&0x1F), uint32((a>>10)&0x1F)
	br, bg, bb := uint32(b&0x1F), uint32((b>>5)&0x1F), uint32((b>>10)&0x1F)
	r := blendChannel(ar, br, eva, evb)
	g := blendChannel(ag, bg, eva, evb)
	bl := blendChannel(ab, bb, eva, evb)
	return uint16(r | g<<5 | bl<<10)
}

func brightenColor(a uint16, evy uint32) uint16 {
	ar, ag, ab := uint32(a&0x1F), uint32((a>>5)&0x1F), uint32((a>>10)&0x1F)
	r, g, b := brightenChannel(ar, evy), brightenChannel(ag, evy), brightenChannel(ab, evy)
	return uint16(r | g<<5 | b<<10)
}

func darkenColor(a uint16, evy uint32) uint16 {
	ar, ag, ab := uint32(a&0x1F), uint32((a>>5)&0x1F), uint32((a>>10)&0x1F)
	r, g, b := darkenChannel(ar, evy), darkenChannel(ag, evy), darkenChannel(ab, evy)
	return uint16(r | g<<5 | b<<10)
}
