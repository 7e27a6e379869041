// Package ppu implements the scanline-granularity picture processor of
// spec §4.6: six graphics modes, four background layers, a sprite
// layer, two rectangular windows, an object-shaped window, and a
// color-effects stage, producing one raster line at a time into a
// host-provided ARGB framebuffer.
package ppu

import (
	"goadvance/internal/addr"
	"goadvance/internal/irq"
	"goadvance/internal/mmio"
)

const (
	ScreenWidth  = addr.ScreenWidth
	ScreenHeight = addr.ScreenHeight
)

// pixel is the per-layer intermediate result the compositor consumes.
// transparent pixels carry no other meaning.
type pixel struct {
	color       uint16 // 15-bit BGR555
	priority    uint8
	transparent bool
	semiTransp  bool // sprite alpha-blend-object-mode flag (step 3)
	objWindow   bool
}

// PPU holds every piece of display state: control/status registers,
// the four background controls, windows, color-effect registers, the
// three memory banks it owns exclusively, and the scanline compositing
// scratch buffers.
type PPU struct {
	irq *irq.Controller

	DISPCNT  mmio.Reg16
	DISPSTAT mmio.Reg16
	VCount   uint16

	BGCnt  [4]mmio.Reg16
	BGHOfs [4]mmio.Reg16
	BGVOfs [4]mmio.Reg16

	// Affine BG (BG2/BG3) parameters and live reference-point
	// accumulators, latched from X/Y at line 160 (spec §4.6).
	BGPA, BGPB, BGPC, BGPD [2]int16
	bg2x, bg2y             uint32 // raw BG2X/BG2Y registers (28-bit signed)
	bg3x, bg3y             uint32
	bgAccX, bgAccY         [2]int32

	Win0H, Win1H mmio.Reg16
	Win0V, Win1V mmio.Reg16
	WinIn        mmio.Reg16
	WinOut       mmio.Reg16
	Mosaic       mmio.Reg16
	BldCnt       mmio.Reg16
	BldAlpha     mmio.Reg16
	BldY         mmio.Reg16

	Palette [addr.PaletteSize]byte
	VRAM    [addr.VRAMSize]byte
	OAM     [addr.OAMSize]byte

	Framebuffer []uint32 // host-owned, ScreenWidth*ScreenHeight ARGB8888
	frameReady  bool

	cycleInLine int
	lut15to32   [32768]uint32
	darkened    bool

	Frameskip  uint8
	frameCount uint64

	bgLine                         [4][ScreenWidth]pixel
	objLine                        [ScreenWidth]pixel
	win0Mask, win1Mask, objWinMask [ScreenWidth]bool

	// OnHBlank/OnVBlank let the owning bus arm DMA without a back
	// pointer from ppu to dma (see design note in SPEC_FULL.md §5).
	OnHBlank func()
	OnVBlank func()
}

// New constructs a PPU wired to the shared interrupt controller.
func New(ic *irq.Controller) *PPU {
	p := &PPU{irq: ic}
	p.DISPSTAT = mmio.NewReg16(0x00F8)
	p.DISPCNT = mmio.NewReg16(0xFFFF)
	for i := range p.BGCnt {
		p.BGCnt[i] = mmio.NewReg16(0xFFFF)
		p.BGHOfs[i] = mmio.NewReg16(0x01FF)
		p.BGVOfs[i] = mmio.NewReg16(0x01FF)
	}
	p.Win0H = mmio.NewReg16(0xFFFF)
	p.Win1H = mmio.NewReg16(0xFFFF)
	p.Win0V = mmio.NewReg16(0xFFFF)
	p.Win1V = mmio.NewReg16(0xFFFF)
	p.WinIn = mmio.NewReg16(0x3F3F)
	p.WinOut = mmio.NewReg16(0x3F3F)
	p.Mosaic = mmio.NewReg16(0xFFFF)
	p.BldCnt = mmio.NewReg16(0x3FFF)
	p.BldAlpha = mmio.NewReg16(0x1F1F)
	p.BldY = mmio.NewReg16(0x001F)
	p.BGPA, p.BGPB = [2]int16{0x100, 0x100}, [2]int16{0, 0}
	p.BGPC, p.BGPD = [2]int16{0, 0}, [2]int16{0x100, 0x100}
	p.buildLUT()
	return p
}

// Reset re-enters the power-on state, preserving the framebuffer handle
// and frameskip configuration a host has installed.
func (p *PPU) Reset() {
	fb, fs, dark, onH, onV := p.Framebuffer, p.Frameskip, p.darkened, p.OnHBlank, p.OnVBlank
	*p = *New(p.irq)
	p.Framebuffer = fb
	p.Frameskip = fs
	p.darkened = dark
	p.OnHBlank = onH
	p.OnVBlank = onV
	p.buildLUT()
}

// SetFramebuffer installs the host-owned pixel buffer (spec §6:
// set_framebuffer). Length must be ScreenWidth*ScreenHeight.
func (p *PPU) SetFramebuffer(fb []uint32) { p.Framebuffer = fb }

// SetDarken toggles the LCD gamma-like curve (Config.darken_screen).
func (p *PPU) SetDarken(on bool) {
	p.darkened = on
	p.buildLUT()
}

func (p *PPU) IsFrameReady() bool { return p.frameReady }
func (p *PPU) ResetFrameReady()   { p.frameReady = false }

func (p *PPU) shouldRender() bool {
	if p.Frameskip == 0 {
		return true
	}
	return p.frameCount%uint64(p.Frameskip) == 0
}

// Tick advances the PPU by `cycles` system cycles, driving the
// draw -> hblank -> next-line state machine of spec §4.6.
func (p *PPU) Tick(cycles int) {
	p.cycleInLine += cycles
	for p.cycleInLine >= addr.CyclesPerLine {
		p.cycleInLine -= addr.CyclesPerLine
		p.endOfLine()
	}
}

func (p *PPU) endOfLine() {
	if p.VCount < ScreenHeight {
		if p.shouldRender() {
			p.renderScanline(int(p.VCount))
		}
	}

	// HBlank begins for every line (visible and blanking alike).
	p.DISPSTAT.SetBit(1, true)
	if p.DISPSTAT.Bit(4) {
		p.irq.Raise(addr.IRQHBlank)
	}
	if p.OnHBlank != nil {
		p.OnHBlank()
	}

	p.VCount++
	p.DISPSTAT.SetBit(1, false)

	if p.VCount == ScreenHeight {
		p.DISPSTAT.SetBit(0, true)
		if p.DISPSTAT.Bit(3) {
			p.irq.Raise(addr.IRQVBlank)
		}
		if p.OnVBlank != nil {
			p.OnVBlank()
		}
		// Latch affine reference points (spec §4.6).
		p.bgAccX[0], p.bgAccY[0] = signExtend28(p.bg2x), signExtend28(p.bg2y)
		p.bgAccX[1], p.bgAccY[1] = signExtend28(p.bg3x), signExtend28(p.bg3y)
		p.frameReady = true
		p.frameCount++
	}
	if p.VCount == addr.LinesPerFrame {
		p.VCount = 0
		p.DISPSTAT.SetBit(0, false)
	}
	if int(p.VCount) == int(p.DISPSTAT.Field(8, 8)) {
		p.DISPSTAT.SetBit(2, true)
		if p.DISPSTAT.Bit(5) {
			p.irq.Raise(addr.IRQVCount)
		}
	} else {
		p.DISPSTAT.SetBit(2, false)
	}
}

func signExtend28(raw uint32) int32 {
	return int32(raw<<4) >> 4
}

// IsPPURegister reports whether a bus-relative IO offset belongs to the
// PPU's register window (DISPCNT..BLDY).
func (p *PPU) IsPPURegister(off uint32) bool { return off <= addr.BLDY+1 }
