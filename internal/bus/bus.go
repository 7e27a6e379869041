// Package bus implements the flat 32-bit address space of spec §3/§4.1:
// it decodes every CPU and DMA access into the owning region, bills
// wait-state cycles from a table rebuilt on each WAITCNT write, and
// applies the GBA-family rotate-on-misaligned-read rule. No region is
// owned by the bus itself — it only routes to the component that owns
// the backing storage (memory.EWRAM/IWRAM/Firmware, ppu.PPU,
// cartridge.Cartridge, and the distributed MMIO register windows of
// dma/timer/irq/joypad).
package bus

import (
	"goadvance/internal/addr"
	"goadvance/internal/apu"
	"goadvance/internal/cartridge"
	"goadvance/internal/dma"
	"goadvance/internal/irq"
	"goadvance/internal/joypad"
	"goadvance/internal/memory"
	"goadvance/internal/mmio"
	"goadvance/internal/ppu"
	"goadvance/internal/timer"
	"goadvance/util/dbg"
)

// AccessKind distinguishes a sequential access (the address continues
// the previous cycle's burst) from a non-sequential one, since ROM and
// some RAM regions charge a different wait state for each (spec §4.1).
type AccessKind int

const (
	NonSequential AccessKind = iota
	Sequential
)

// Bus wires every owning component together behind the flat address
// space the CPU and DMA controller see.
type Bus struct {
	Firmware  *memory.Firmware
	EWRAM     *memory.EWRAM
	IWRAM     *memory.IWRAM
	PPU       *ppu.PPU
	Cartridge *cartridge.Cartridge
	DMA       *dma.Controller
	Timers    *timer.Controller
	IRQ       *irq.Controller
	APU       *apu.APU
	Keypad    *joypad.Joypad

	waitcnt mmio.Reg16
	haltcnt uint8

	// cycleLUT[kind][region] is recomputed whenever WAITCNT changes
	// (spec §4.1: "recomputed on WAITCNT write").
	cycleLUT [2][16]int

	// Halted/Stopped model the two low-power states a HALTCNT write can
	// enter (spec §4.8). The scheduler consults Stopped directly; a HALT
	// reaches the CPU through OnHalt, and Halted itself is not read.
	Halted  bool
	Stopped bool

	// OnHalt fires whenever HALTCNT is written (HALT or STOP alike),
	// so the scheduler's owning CPU can stop stepping instructions. A
	// bus -> cpu callback instead of an import keeps the dependency
	// one-directional (see pcProvider for the same pattern).
	OnHalt func()

	// pcProvider and lastFirmwareFetch implement the firmware open-bus
	// quirk (spec §4.1): reading firmware while the CPU is not
	// executing from it returns the last word actually fetched from
	// firmware, rather than the requested address's contents.
	pcProvider        func() uint32
	lastFirmwareFetch uint32

	CycleCount uint64
}

// SetPCProvider wires the bus to the CPU's current program counter, so
// the firmware open-bus read quirk can tell whether execution is
// presently inside the firmware region. Called once during startup
// wiring (avoids a bus -> cpu import cycle).
func (b *Bus) SetPCProvider(f func() uint32) { b.pcProvider = f }

// New wires a bus to its owning components. The cartridge is installed
// later via LoadCartridge; reads from an unmapped cartridge region
// return open-bus values until then.
func New(ic *irq.Controller, au *apu.APU, pp *ppu.PPU, dc *dma.Controller, tc *timer.Controller, kp *joypad.Joypad) *Bus {
	b := &Bus{
		Firmware: memory.NewFirmware(),
		EWRAM:    memory.NewEWRAM(),
		IWRAM:    memory.NewIWRAM(),
		PPU:      pp,
		DMA:      dc,
		Timers:   tc,
		IRQ:      ic,
		APU:      au,
		Keypad:   kp,
		waitcnt:  mmio.NewReg16(0xDFFF),
	}
	pp.OnHBlank = dc.NotifyHBlank
	pp.OnVBlank = dc.NotifyVBlank
	b.rebuildWaitStates()
	return b
}

// LoadCartridge installs a cartridge, replacing any previous one.
func (b *Bus) LoadCartridge(c *cartridge.Cartridge) { b.Cartridge = c }

// Reset re-enters the power-on state for every region the bus owns
// directly, leaving the cartridge and any host-installed firmware in
// place (spec §6: reset does not unload media).
func (b *Bus) Reset() {
	b.EWRAM = memory.NewEWRAM()
	b.IWRAM = memory.NewIWRAM()
	b.waitcnt = mmio.NewReg16(0xDFFF)
	b.haltcnt = 0
	b.Halted = false
	b.Stopped = false
	b.CycleCount = 0
	b.rebuildWaitStates()
}

// rebuildWaitStates derives the non-sequential/sequential cycle tables
// from the current WAITCNT fields. Regions with no programmable wait
// state (firmware, work RAM, I/O, palette/VRAM/OAM) keep a fixed
// hardware cost; only the three ROM windows and SRAM vary with WAITCNT.
func (b *Bus) rebuildWaitStates() {
	for k := 0; k < 2; k++ {
		for r := 0; r < 16; r++ {
			b.cycleLUT[k][r] = 1
		}
	}
	b.cycleLUT[NonSequential][addr.EWRAMRegion] = 3
	b.cycleLUT[Sequential][addr.EWRAMRegion] = 3

	sramWait := [4]int{4, 3, 2, 8}
	ws0N := [4]int{4, 3, 2, 8}
	ws0S := [2]int{2, 1}
	ws1N := [4]int{4, 3, 2, 8}
	ws1S := [2]int{4, 1}
	ws2N := [4]int{4, 3, 2, 8}
	ws2S := [2]int{8, 1}

	b.cycleLUT[NonSequential][addr.SRAMRegion] = sramWait[b.waitcnt.Field(0, 2)]
	b.cycleLUT[Sequential][addr.SRAMRegion] = sramWait[b.waitcnt.Field(0, 2)]

	b.cycleLUT[NonSequential][addr.ROMWS0] = ws0N[b.waitcnt.Field(2, 2)]
	b.cycleLUT[Sequential][addr.ROMWS0] = ws0S[b.waitcnt.Field(4, 1)]
	b.cycleLUT[NonSequential][addr.ROMWS1] = ws1N[b.waitcnt.Field(5, 2)]
	b.cycleLUT[Sequential][addr.ROMWS1] = ws1S[b.waitcnt.Field(7, 1)]
	b.cycleLUT[NonSequential][addr.ROMWS2] = ws2N[b.waitcnt.Field(8, 2)]
	b.cycleLUT[Sequential][addr.ROMWS2] = ws2S[b.waitcnt.Field(10, 1)]
}

// region returns the top address nibble used to index the LUT and
// dispatch to an owning component.
func region(a uint32) uint32 { return (a >> 24) & 0xF }

// waitCycles returns the cost of a `width`-byte access of kind `kind`
// at address a. A 32-bit access on a 16-bit-wide bus (EWRAM, the three
// ROM windows) is billed as two halfword cycles (spec §4.1).
func (b *Bus) waitCycles(a uint32, kind AccessKind, width int) int {
	r := region(a)
	base := b.cycleLUT[kind][r]
	if width == 4 && (r == addr.EWRAMRegion || r == addr.ROMWS0 || r == addr.ROMWS1 || r == addr.ROMWS2) {
		return base * 2
	}
	return base
}

// Read8 performs a byte access and bills its non-sequential cost.
func (b *Bus) Read8(a uint32) uint8 {
	b.CycleCount += uint64(b.waitCycles(a, NonSequential, 1))
	return b.read8(a)
}

func (b *Bus) Write8(a uint32, v uint8) {
	b.CycleCount += uint64(b.waitCycles(a, NonSequential, 1))
	b.write8(a, v)
}

// Read16 reads two bytes and rotates the result right by 8 bits if the
// address is misaligned, matching the processor's documented behavior
// for a half-word access with bit 0 set (spec §4.1).
func (b *Bus) Read16(a uint32) uint16 {
	b.CycleCount += uint64(b.waitCycles(a, NonSequential, 2))
	aligned := a &^ 1
	v := uint16(b.read8(aligned)) | uint16(b.read8(aligned+1))<<8
	if a&1 != 0 {
		v = v>>8 | v<<8
	}
	return v
}

func (b *Bus) Write16(a uint32, v uint16) {
	b.CycleCount += uint64(b.waitCycles(a, NonSequential, 2))
	aligned := a &^ 1
	b.write16Aligned(aligned, v)
}

// Read32 reads four bytes and rotates the result right by
// (address&3)*8 bits on a misaligned access (spec §4.1).
func (b *Bus) Read32(a uint32) uint32 {
	b.CycleCount += uint64(b.waitCycles(a, NonSequential, 4))
	aligned := a &^ 3
	v := uint32(b.read8(aligned)) |
		uint32(b.read8(aligned+1))<<8 |
		uint32(b.read8(aligned+2))<<16 |
		uint32(b.read8(aligned+3))<<24
	rot := (a & 3) * 8
	if rot != 0 {
		v = v>>rot | v<<(32-rot)
	}
	return v
}

func (b *Bus) Write32(a uint32, v uint32) {
	b.CycleCount += uint64(b.waitCycles(a, NonSequential, 4))
	aligned := a &^ 3
	b.write16Aligned(aligned, uint16(v))
	b.write16Aligned(aligned+2, uint16(v>>16))
}

// write16Aligned stores a halfword at an aligned address. Palette RAM,
// VRAM and OAM take the halfword as is, bypassing the byte-mirroring
// that write8 applies to 8-bit writes there; every other region gets
// two byte writes.
func (b *Bus) write16Aligned(aligned uint32, v uint16) {
	switch region(aligned) {
	case addr.PaletteRAM:
		b.PPU.WritePaletteRAM16(aligned, v)
	case addr.VRAMRegion:
		b.PPU.WriteVRAM16(vramOffset(aligned), v)
	case addr.OAMRegion:
		b.PPU.WriteOAM16(aligned, v)
	default:
		b.write8(aligned, uint8(v))
		b.write8(aligned+1, uint8(v>>8))
	}
}

// ReadSigned8/16 service LDRSB/LDRSH: sign-extend without the rotate
// rule Read16 applies, since a misaligned signed halfword load reads
// the byte at that odd address and sign-extends that byte instead (spec
// §4.1, matching the processor's documented quirk).
func (b *Bus) ReadSigned8(a uint32) int8 { return int8(b.read8(a)) }

func (b *Bus) ReadSigned16(a uint32) int16 {
	if a&1 != 0 {
		return int16(int8(b.read8(a)))
	}
	return int16(b.Read16(a))
}

func (b *Bus) read8(a uint32) uint8 {
	switch region(a) {
	case addr.Firmware:
		return b.readFirmware(a)
	case addr.EWRAMRegion:
		return b.EWRAM.Read8(a % addr.EWRAMSize)
	case addr.IWRAMRegion:
		return b.IWRAM.Read8(a % addr.IWRAMSize)
	case addr.IORegion:
		return b.readIO(a & 0xFFFFFF)
	case addr.PaletteRAM:
		return b.PPU.ReadPaletteRAM8(a)
	case addr.VRAMRegion:
		return b.PPU.ReadVRAM8(vramOffset(a))
	case addr.OAMRegion:
		return b.PPU.ReadOAM8(a)
	case addr.ROMWS0, addr.ROMWS1, addr.ROMWS2:
		if b.Cartridge == nil {
			return 0xFF
		}
		return b.Cartridge.ReadROM8(a & 0x01FFFFFF)
	case addr.SRAMRegion:
		if b.Cartridge == nil {
			return 0xFF
		}
		return b.Cartridge.ReadSRAM8(a & 0xFFFF)
	}
	dbg.Printf("bus: read8 from unmapped region %#08x", a)
	return 0
}

// readFirmware serves a firmware-region byte. While the CPU is
// fetching from firmware it returns the real content and refreshes the
// open-bus cache; otherwise it returns the last fetched word, which is
// what a non-firmware reader actually observes on the hardware bus.
func (b *Bus) readFirmware(a uint32) uint8 {
	inFirmware := b.pcProvider != nil && region(b.pcProvider()) == addr.Firmware
	if !inFirmware {
		return uint8(b.lastFirmwareFetch >> ((a & 3) * 8))
	}
	aligned := a &^ 3
	word := uint32(b.Firmware.Read8(aligned)) |
		uint32(b.Firmware.Read8(aligned+1))<<8 |
		uint32(b.Firmware.Read8(aligned+2))<<16 |
		uint32(b.Firmware.Read8(aligned+3))<<24
	b.lastFirmwareFetch = word
	return uint8(word >> ((a & 3) * 8))
}

func (b *Bus) write8(a uint32, v uint8) {
	switch region(a) {
	case addr.Firmware:
		// Firmware is read-only to the CPU.
	case addr.EWRAMRegion:
		b.EWRAM.Write8(a%addr.EWRAMSize, v)
	case addr.IWRAMRegion:
		b.IWRAM.Write8(a%addr.IWRAMSize, v)
	case addr.IORegion:
		b.writeIO(a&0xFFFFFF, v)
	case addr.PaletteRAM:
		b.PPU.WritePaletteRAM16(a&^1, mirror8(v))
	case addr.VRAMRegion:
		off := vramOffset(a)
		if off < 0x10000 {
			b.PPU.WriteVRAM16(off&^1, mirror8(v))
		}
		// A write landing in the OBJ tile region past 0x10000 is
		// dropped: the hardware ignores byte writes there.
	case addr.OAMRegion:
		// OAM ignores 8-bit writes entirely (spec §4.1).
	case addr.ROMWS0, addr.ROMWS1, addr.ROMWS2:
		// Cartridge ROM is read-only; GPIO/flash command writes are
		// out of scope (spec Non-goals).
	case addr.SRAMRegion:
		if b.Cartridge != nil {
			b.Cartridge.WriteSRAM8(a&0xFFFF, v)
		}
	default:
		dbg.Printf("bus: write8 to unmapped region %#08x", a)
	}
}

// vramOffset folds VRAM's address-window mirroring (the top 32 KiB of
// the 128 KiB window repeats the last 32 KiB of the 96 KiB bank) down
// to an offset into the backing array.
func vramOffset(a uint32) uint32 {
	off := a & 0x1FFFF
	if off >= addr.VRAMSize {
		off -= 0x8000
	}
	return off
}

// mirror8 duplicates a byte into both halves of a halfword, the value
// an 8-bit write actually stores in a 16-bit-wide region.
func mirror8(v uint8) uint16 { return uint16(v) | uint16(v)<<8 }

// readIO / writeIO route the 0x04000000 MMIO window to whichever
// component owns the touched register, using the byte offsets
// centralized in internal/addr.
func (b *Bus) readIO(off uint32) uint8 {
	switch {
	case off <= addr.BLDY+1:
		return b.PPU.ReadIO(off)
	case off >= addr.DMA0SAD && off < addr.DMA0SAD+4*addr.DMAChannelStride:
		ch := off - addr.DMA0SAD
		channel := int(ch / addr.DMAChannelStride)
		rel := ch % addr.DMAChannelStride
		return b.DMA.ReadByte(channel, rel)
	case off >= addr.TM0CNT_L && off < addr.TM0CNT_L+4*addr.TimerStride:
		return b.Timers.ReadByte(off - addr.TM0CNT_L)
	case off >= addr.KEYINPUT && off < addr.KEYINPUT+4:
		return b.Keypad.ReadByte(off - addr.KEYINPUT)
	case off == addr.WAITCNT:
		return b.waitcnt.Read(0)
	case off == addr.WAITCNT+1:
		return b.waitcnt.Read(1)
	case off >= addr.IE && off <= addr.IME+1:
		return b.IRQ.ReadByte(off - addr.IE)
	case off == addr.HALTCNT:
		return b.haltcnt
	}
	return 0
}

func (b *Bus) writeIO(off uint32, v uint8) {
	switch {
	case off <= addr.BLDY+1:
		b.PPU.WriteIO(off, v)
	case off >= addr.DMA0SAD && off < addr.DMA0SAD+4*addr.DMAChannelStride:
		ch := off - addr.DMA0SAD
		channel := int(ch / addr.DMAChannelStride)
		rel := ch % addr.DMAChannelStride
		b.DMA.WriteByte(channel, rel, v)
	case off >= addr.TM0CNT_L && off < addr.TM0CNT_L+4*addr.TimerStride:
		b.Timers.WriteByte(off-addr.TM0CNT_L, v)
	case off >= addr.KEYINPUT && off < addr.KEYINPUT+4:
		b.Keypad.WriteByte(off-addr.KEYINPUT, v)
	case off == addr.WAITCNT:
		b.waitcnt.Write(0, v)
		b.rebuildWaitStates()
	case off == addr.WAITCNT+1:
		b.waitcnt.Write(1, v)
		b.rebuildWaitStates()
	case off >= addr.IE && off <= addr.IME+1:
		b.IRQ.WriteByte(off-addr.IE, v)
	case off == addr.HALTCNT:
		b.haltcnt = v
		if v&0x80 != 0 {
			b.Stopped = true
		} else {
			b.Halted = true
		}
		if b.OnHalt != nil {
			b.OnHalt()
		}
	}
}

// Tick advances every ticked component by the elapsed system cycles
// and then drains any DMA transfer the tick's edges armed, matching
// the ordering guarantee of spec §5 ("DMA triggered by VBlank/HBlank
// runs before the next CPU instruction after the edge"). While Stopped
// (spec §4.8), the PPU and timers are frozen and only a keypad
// interrupt is evaluated, which also releases the stop.
func (b *Bus) Tick(cycles int) {
	if b.Stopped {
		if b.Keypad.InterruptCondition() {
			b.IRQ.Raise(addr.IRQKeypad)
			b.Stopped = false
		}
		return
	}
	b.PPU.Tick(cycles)
	b.Timers.Tick(cycles)
	b.APU.Tick(cycles)
	b.CycleCount += uint64(b.DMA.RunPending(b))
	if b.Keypad.InterruptCondition() {
		b.IRQ.Raise(addr.IRQKeypad)
	}
}
