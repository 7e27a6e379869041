package ppu

import "goadvance/internal/addr"

// ReadIO / WriteIO decompose 16-bit PPU registers into byte accesses
// the way the bus presents them, matching the original source's
// mmio.cpp dispatch by individual byte address.
func (p *PPU) ReadIO(off uint32) uint8 {
	switch off {
	case addr.DISPCNT:
		return p.DISPCNT.Read(0)
	case addr.DISPCNT + 1:
		return p.DISPCNT.Read(1)
	case addr.DISPSTAT:
		return p.DISPSTAT.Read(0)
	case addr.DISPSTAT + 1:
		return p.DISPSTAT.Read(1)
	case addr.VCOUNT:
		return uint8(p.VCount)
	case addr.VCOUNT + 1:
		return 0
	case addr.WININ:
		return p.WinIn.Read(0)
	case addr.WININ + 1:
		return p.WinIn.Read(1)
	case addr.WINOUT:
		return p.WinOut.Read(0)
	case addr.WINOUT + 1:
		return p.WinOut.Read(1)
	case addr.BLDCNT:
		return p.BldCnt.Read(0)
	case addr.BLDCNT + 1:
		return p.BldCnt.Read(1)
	case addr.BLDALPHA:
		return p.BldAlpha.Read(0)
	case addr.BLDALPHA + 1:
		return p.BldAlpha.Read(1)
	}
	if off >= addr.BG0CNT && off < addr.BG0HOFS {
		i := (off - addr.BG0CNT) / 2
		return p.BGCnt[i].Read(int((off - addr.BG0CNT) % 2))
	}
	return 0
}

func (p *PPU) WriteIO(off uint32, v uint8) {
	switch {
	case off == addr.DISPCNT:
		p.DISPCNT.Write(0, v)
	case off == addr.DISPCNT+1:
		p.DISPCNT.Write(1, v)
	case off == addr.DISPSTAT:
		p.DISPSTAT.Write(0, v)
	case off == addr.DISPSTAT+1:
		p.DISPSTAT.Write(1, v)
	case off == addr.VCOUNT || off == addr.VCOUNT+1:
		// VCOUNT is read-only; writes are hardware-undefined and
		// ignored, matching the original source.
	case off >= addr.BG0CNT && off < addr.BG0HOFS:
		i := (off - addr.BG0CNT) / 2
		p.BGCnt[i].Write(int((off-addr.BG0CNT)%2), v)
	case off >= addr.BG0HOFS && off < addr.BG2PA:
		p.writeBGOffset(off, v)
	case off >= addr.BG2PA && off < addr.BG2X:
		writeAffineParamHalf(&p.BGPA[0], &p.BGPB[0], &p.BGPC[0], &p.BGPD[0], off-addr.BG2PA, v)
	case off >= addr.BG2X && off < addr.BG3PA:
		writeAffineRef(&p.bg2x, &p.bg2y, off-addr.BG2X, v)
	case off >= addr.BG3PA && off < addr.BG3X:
		writeAffineParamHalf(&p.BGPA[1], &p.BGPB[1], &p.BGPC[1], &p.BGPD[1], off-addr.BG3PA, v)
	case off >= addr.BG3X && off < addr.WIN0H:
		writeAffineRef(&p.bg3x, &p.bg3y, off-addr.BG3X, v)
	case off == addr.WIN0H:
		p.Win0H.Write(0, v)
	case off == addr.WIN0H+1:
		p.Win0H.Write(1, v)
	case off == addr.WIN1H:
		p.Win1H.Write(0, v)
	case off == addr.WIN1H+1:
		p.Win1H.Write(1, v)
	case off == addr.WIN0V:
		p.Win0V.Write(0, v)
	case off == addr.WIN0V+1:
		p.Win0V.Write(1, v)
	case off == addr.WIN1V:
		p.Win1V.Write(0, v)
	case off == addr.WIN1V+1:
		p.Win1V.Write(1, v)
	case off == addr.WININ:
		p.WinIn.Write(0, v)
	case off == addr.WININ+1:
		p.WinIn.Write(1, v)
	case off == addr.WINOUT:
		p.WinOut.Write(0, v)
	case off == addr.WINOUT+1:
		p.WinOut.Write(1, v)
	case off == addr.MOSAIC || off == addr.MOSAIC+1:
		p.Mosaic.Write(int(off-addr.MOSAIC), v)
	case off == addr.BLDCNT:
		p.BldCnt.Write(0, v)
	case off == addr.BLDCNT+1:
		p.BldCnt.Write(1, v)
	case off == addr.BLDALPHA:
		p.BldAlpha.Write(0, v)
	case off == addr.BLDALPHA+1:
		p.BldAlpha.Write(1, v)
	case off == addr.BLDY:
		p.BldY.Write(0, v&0x1F)
	}
}

func (p *PPU) writeBGOffset(off uint32, v uint8) {
	rel := off - addr.BG0HOFS
	bg := rel / 4
	switch rel % 4 {
	case 0:
		p.BGHOfs[bg].Write(0, v)
	case 1:
		p.BGHOfs[bg].Write(1, v)
	case 2:
		p.BGVOfs[bg].Write(0, v)
	case 3:
		p.BGVOfs[bg].Write(1, v)
	}
}

// writeAffineParamHalf handles a byte write into one of PA/PB/PC/PD,
// each a signed 8.8 fixed-point fractional value (spec §4.6).
func writeAffineParamHalf(pa, pb, pc, pd *int16, rel uint32, v uint8) {
	idx := rel / 2
	lowByte := rel%2 == 0
	target := [4]*int16{pa, pb, pc, pd}[idx]
	cur := uint16(*target)
	if lowByte {
		cur = (cur &^ 0x00FF) | uint16(v)
	} else {
		cur = (cur &^ 0xFF00) | (uint16(v) << 8)
	}
	*target = int16(cur)
}

// writeAffineRef merges a byte into one of BG2X/Y or BG3X/Y, 28-bit
// signed fixed-point reference points spanning 4 bytes each.
func writeAffineRef(x, y *uint32, rel uint32, v uint8) {
	target := x
	r := rel
	if rel >= 4 {
		target = y
		r = rel - 4
	}
	shift := r * 8
	*target = (*target &^ (0xFF << shift)) | (uint32(v) << shift)
}
