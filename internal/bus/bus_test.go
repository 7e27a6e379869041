package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goadvance/internal/addr"
	"goadvance/internal/apu"
	"goadvance/internal/dma"
	"goadvance/internal/irq"
	"goadvance/internal/joypad"
	"goadvance/internal/ppu"
	"goadvance/internal/timer"
)

func newTestBus() *Bus {
	ic := irq.New()
	au := apu.New()
	pp := ppu.New(ic)
	dc := dma.New(ic)
	tc := timer.New(ic, au)
	kp := joypad.New()
	return New(ic, au, pp, dc, tc, kp)
}

func TestEWRAMReadWriteRoundTrip(t *testing.T) {
	b := newTestBus()
	addrEWRAM := uint32(addr.EWRAMRegion << 24)

	b.Write32(addrEWRAM, 0xDEADBEEF)
	assert.Equal(t, uint32(0xDEADBEEF), b.Read32(addrEWRAM))
	assert.Equal(t, uint16(0xBEEF), b.Read16(addrEWRAM))
	assert.Equal(t, uint8(0xEF), b.Read8(addrEWRAM))
}

func TestRead32MisalignedRotates(t *testing.T) {
	b := newTestBus()
	base := uint32(addr.IWRAMRegion << 24)

	b.Write32(base, 0x11223344)
	// Reading from base+1 should rotate the word right by 8 bits.
	got := b.Read32(base + 1)
	assert.Equal(t, uint32(0x44112233), got)
}

func TestRead16MisalignedRotatesByte(t *testing.T) {
	b := newTestBus()
	base := uint32(addr.IWRAMRegion << 24)

	b.Write16(base, 0xABCD)
	got := b.Read16(base + 1)
	assert.Equal(t, uint16(0xCDAB), got)
}

func TestOAMIgnores8BitWrites(t *testing.T) {
	b := newTestBus()
	oamBase := uint32(addr.OAMRegion << 24)

	b.PPU.WriteOAM16(0, 0x1234)
	b.Write8(oamBase, 0xFF)
	assert.Equal(t, uint16(0x1234), b.PPU.ReadOAM16(0))
}

func TestFirmwareOpenBusQuirk(t *testing.T) {
	b := newTestBus()
	image := make([]byte, addr.FirmwareSize)
	image[0], image[1], image[2], image[3] = 0x11, 0x22, 0x33, 0x44
	require.True(t, b.Firmware.Load(image))

	// PC provider points into EWRAM: the CPU is not "inside" firmware, so
	// a read returns the last fetched word rather than the requested byte.
	b.pcProvider = func() uint32 { return addr.EWRAMRegion << 24 }
	got := b.Read32(0)
	assert.NotEqual(t, uint32(0x44332211), got, "read while PC is outside firmware must not reflect memory contents")

	b.pcProvider = func() uint32 { return 0 }
	got = b.Read32(0)
	assert.Equal(t, uint32(0x44332211), got)
}

func TestWaitcntRebuildsCycleLUT(t *testing.T) {
	b := newTestBus()
	romBase := uint32(addr.ROMWS0 << 24)
	waitcntAddr := uint32(addr.IORegion<<24 | addr.WAITCNT)

	b.Write16(waitcntAddr, 0x000C) // WS0 N field = 0b11 -> slowest (8 cycles)
	require.Equal(t, 8, b.waitCycles(romBase, NonSequential, 1))

	b.Write16(waitcntAddr, 0x0000) // WS0 N field = 0b00 -> 4 cycles
	assert.Equal(t, 4, b.waitCycles(romBase, NonSequential, 1))
}

func TestStopFreezesTickUntilKeypad(t *testing.T) {
	b := newTestBus()
	b.Stopped = true
	b.Tick(100)
	assert.True(t, b.Stopped, "STOP should not clear without a keypad condition")

	b.Keypad.Cnt.SetBit(14, true)
	b.Keypad.SetKeys(0x03FE) // button 0 (A) held
	b.Keypad.Cnt.Value |= 0x0001
	b.Tick(1)
	assert.False(t, b.Stopped)
	assert.True(t, b.IRQ.IF.Bit(addr.IRQKeypad))
}
