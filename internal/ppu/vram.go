package ppu

// ReadPaletteRAM8 / WritePaletteRAM8 access the 1 KiB palette bank the
// PPU owns exclusively (spec §3 "Ownership").
func (p *PPU) ReadPaletteRAM8(off uint32) uint8 { return p.Palette[off&(addr_PaletteMask)] }
func (p *PPU) WritePaletteRAM8(off uint32, v uint8) {
	p.Palette[off&addr_PaletteMask] = v
}

func (p *PPU) ReadVRAM8(off uint32) uint8 {
	if off >= uint32(len(p.VRAM)) {
		return 0
	}
	return p.VRAM[off]
}
func (p *PPU) WriteVRAM8(off uint32, v uint8) {
	if off < uint32(len(p.VRAM)) {
		p.VRAM[off] = v
	}
}

func (p *PPU) ReadOAM8(off uint32) uint8 { return p.OAM[off&addr_OAMMask] }
func (p *PPU) WriteOAM8(off uint32, v uint8) {
	p.OAM[off&addr_OAMMask] = v
}

// 16-bit-wide helpers used both internally (tile/sprite fetch) and by
// the bus to mirror 8-bit writes across the aligned halfword (spec
// §4.1).
func (p *PPU) ReadPaletteRAM16(off uint32) uint16 {
	off &= ^uint32(1)
	return uint16(p.ReadPaletteRAM8(off)) | uint16(p.ReadPaletteRAM8(off+1))<<8
}
func (p *PPU) WritePaletteRAM16(off uint32, v uint16) {
	off &= ^uint32(1)
	p.WritePaletteRAM8(off, uint8(v))
	p.WritePaletteRAM8(off+1, uint8(v>>8))
}

func (p *PPU) ReadVRAM16(off uint32) uint16 {
	off &= ^uint32(1)
	return uint16(p.ReadVRAM8(off)) | uint16(p.ReadVRAM8(off+1))<<8
}
func (p *PPU) WriteVRAM16(off uint32, v uint16) {
	off &= ^uint32(1)
	p.WriteVRAM8(off, uint8(v))
	p.WriteVRAM8(off+1, uint8(v>>8))
}

func (p *PPU) ReadOAM16(off uint32) uint16 {
	off &= ^uint32(1)
	return uint16(p.ReadOAM8(off)) | uint16(p.ReadOAM8(off+1))<<8
}
func (p *PPU) WriteOAM16(off uint32, v uint16) {
	off &= ^uint32(1)
	p.WriteOAM8(off, uint8(v))
	p.WriteOAM8(off+1, uint8(v>>8))
}

const (
	addr_PaletteMask = 0x3FF
	addr_OAMMask     = 0x3FF
)
