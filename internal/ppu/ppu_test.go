package ppu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goadvance/internal/addr"
	"goadvance/internal/irq"
)

func TestTickRaisesVBlankAtLine160(t *testing.T) {
	ic := irq.New()
	p := New(ic)
	p.DISPSTAT.SetBit(3, true) // enable VBlank IRQ

	var vblanked bool
	p.OnVBlank = func() { vblanked = true }

	p.Tick(addr.ScreenHeight * addr.CyclesPerLine)

	assert.Equal(t, uint16(addr.ScreenHeight), p.VCount)
	assert.True(t, vblanked)
	assert.True(t, ic.IF.Bit(addr.IRQVBlank))
	assert.True(t, p.IsFrameReady())
}

func TestVCountWrapsAtLinesPerFrame(t *testing.T) {
	ic := irq.New()
	p := New(ic)

	p.Tick(addr.LinesPerFrame * addr.CyclesPerLine)
	assert.Equal(t, uint16(0), p.VCount)
}

func TestHBlankFiresEveryLine(t *testing.T) {
	ic := irq.New()
	p := New(ic)
	p.DISPSTAT.SetBit(4, true) // enable HBlank IRQ

	hblanks := 0
	p.OnHBlank = func() { hblanks++ }

	p.Tick(addr.CyclesPerLine * 3)
	assert.Equal(t, 3, hblanks)
	assert.True(t, ic.IF.Bit(addr.IRQHBlank))
}

func TestIsPPURegisterBoundary(t *testing.T) {
	ic := irq.New()
	p := New(ic)
	require.True(t, p.IsPPURegister(0))
	require.True(t, p.IsPPURegister(addr.BLDY+1))
	assert.False(t, p.IsPPURegister(addr.BLDY+2))
}

func TestSetFramebufferAndDarkenDoNotPanic(t *testing.T) {
	ic := irq.New()
	p := New(ic)
	fb := make([]uint32, addr.ScreenWidth*addr.ScreenHeight)
	p.SetFramebuffer(fb)
	p.SetDarken(true)
	p.Tick(addr.CyclesPerLine)
}
