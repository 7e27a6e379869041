// Package addr centralizes the address-space and MMIO register layout
// constants shared by the bus, mmio, cpu, ppu, dma and timer packages.
// Keeping them in one leaf package avoids the back-pointer cycles the
// original source had between bus <-> mmio <-> ppu/dma/timer/irq.
package addr

// Region base addresses, decoded by the top nibble of a 32-bit address.
const (
	Firmware    = 0x0 // BIOS / boot ROM, region 0x0
	EWRAMRegion = 0x2 // system work RAM, region 0x2
	IWRAMRegion = 0x3 // internal work RAM, region 0x3
	IORegion    = 0x4 // MMIO window, region 0x4
	PaletteRAM  = 0x5
	VRAMRegion  = 0x6
	OAMRegion   = 0x7
	ROMWS0      = 0x8
	ROMWS1      = 0xA
	ROMWS2      = 0xC
	SRAMRegion  = 0xE
)

// Region sizes in bytes.
const (
	FirmwareSize = 16 * 1024
	EWRAMSize    = 256 * 1024
	IWRAMSize    = 32 * 1024
	IOSize       = 0x400
	PaletteSize  = 1 * 1024
	VRAMSize     = 96 * 1024
	OAMSize      = 1 * 1024
	ROMMaxSize   = 32 * 1024 * 1024
)

// IO register byte offsets within the 0x04000000 window. Naming follows
// the hardware's own register mnemonics (see GLOSSARY).
const (
	DISPCNT  = 0x000
	DISPSTAT = 0x004
	VCOUNT   = 0x006
	BG0CNT   = 0x008
	BG1CNT   = 0x00A
	BG2CNT   = 0x00C
	BG3CNT   = 0x00E
	BG0HOFS  = 0x010
	BG0VOFS  = 0x012
	BG1HOFS  = 0x014
	BG1VOFS  = 0x016
	BG2HOFS  = 0x018
	BG2VOFS  = 0x01A
	BG3HOFS  = 0x01C
	BG3VOFS  = 0x01E
	BG2PA    = 0x020
	BG2PB    = 0x022
	BG2PC    = 0x024
	BG2PD    = 0x026
	BG2X     = 0x028
	BG2Y     = 0x02C
	BG3PA    = 0x030
	BG3PB    = 0x032
	BG3PC    = 0x034
	BG3PD    = 0x036
	BG3X     = 0x038
	BG3Y     = 0x03C
	WIN0H    = 0x040
	WIN1H    = 0x042
	WIN0V    = 0x044
	WIN1V    = 0x046
	WININ    = 0x048
	WINOUT   = 0x04A
	MOSAIC   = 0x04C
	BLDCNT   = 0x050
	BLDALPHA = 0x052
	BLDY     = 0x054

	DMA0SAD   = 0x0B0
	DMA0DAD   = 0x0B4
	DMA0CNT_L = 0x0B8
	DMA0CNT_H = 0x0BA
	DMA1SAD   = 0x0BC
	DMA1DAD   = 0x0C0
	DMA1CNT_L = 0x0C4
	DMA1CNT_H = 0x0C6
	DMA2SAD   = 0x0C8
	DMA2DAD   = 0x0CC
	DMA2CNT_L = 0x0D0
	DMA2CNT_H = 0x0D2
	DMA3SAD   = 0x0D4
	DMA3DAD   = 0x0D8
	DMA3CNT_L = 0x0DC
	DMA3CNT_H = 0x0DE

	TM0CNT_L = 0x100
	TM0CNT_H = 0x102
	TM1CNT_L = 0x104
	TM1CNT_H = 0x106
	TM2CNT_L = 0x108
	TM2CNT_H = 0x10A
	TM3CNT_L = 0x10C
	TM3CNT_H = 0x10E

	KEYINPUT = 0x130
	KEYCNT   = 0x132

	IE      = 0x200
	IF      = 0x202
	WAITCNT = 0x204
	IME     = 0x208
	HALTCNT = 0x301

	DMAChannelStride = 0x0C // DMA1SAD - DMA0SAD
	TimerStride      = 0x04
)

// Exception vectors, fixed by the processor.
const (
	VectorReset    = 0x00000000
	VectorUndef    = 0x00000004
	VectorSWI      = 0x00000008
	VectorPrefetch = 0x0000000C
	VectorDataAbt  = 0x00000010
	VectorIRQ      = 0x00000018
	VectorFIQ      = 0x0000001C
)

// Interrupt bit positions within IE/IF (14 defined sources).
const (
	IRQVBlank = iota
	IRQHBlank
	IRQVCount
	IRQTimer0
	IRQTimer1
	IRQTimer2
	IRQTimer3
	IRQSerial
	IRQDMA0
	IRQDMA1
	IRQDMA2
	IRQDMA3
	IRQKeypad
	IRQGamePak
)

// ScreenWidth and ScreenHeight are the fixed visible raster dimensions.
const (
	ScreenWidth     = 240
	ScreenHeight    = 160
	LinesPerFrame   = 228
	CyclesPerLine   = 1232
	CyclesVisible   = 1006
	CyclesHBlank    = CyclesPerLine - CyclesVisible
	CyclesPerFrame  = LinesPerFrame * CyclesPerLine
	VBlankStartLine = ScreenHeight
)
