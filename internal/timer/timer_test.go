package timer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"goadvance/internal/apu"
	"goadvance/internal/irq"
)

func enableTimer(c *Controller, idx int, reload uint16, prescalerSel uint8, irqEnable bool) {
	c.WriteByte(uint32(idx)*4+0, uint8(reload))
	c.WriteByte(uint32(idx)*4+1, uint8(reload>>8))
	ctrlLow := prescalerSel // bits 0-1
	if irqEnable {
		ctrlLow |= 1 << 6
	}
	ctrlLow |= 1 << 7 // enable
	c.WriteByte(uint32(idx)*4+2, ctrlLow)
}

func TestTimerOverflowReloadsAndRaisesIRQ(t *testing.T) {
	ic := irq.New()
	au := apu.New()
	c := New(ic, au)

	enableTimer(c, 0, 0xFFFE, 0, true) // prescaler /1, near overflow

	c.Tick(1)
	assert.Equal(t, uint16(0xFFFF), c.T[0].Counter)

	c.Tick(1)
	assert.Equal(t, uint16(0xFFFE), c.T[0].Counter, "counter reloads on overflow")
	assert.True(t, ic.IF.Bit(3)) // IRQTimer0
}

func TestCascadePropagatesWithinSameTick(t *testing.T) {
	ic := irq.New()
	au := apu.New()
	c := New(ic, au)

	// Timer 0 overflows every tick (reload 0xFFFF, prescaler /1).
	enableTimer(c, 0, 0xFFFF, 0, false)
	// Timer 1 cascades off timer 0's overflow.
	c.WriteByte(1*4+2, 1<<2|1<<7) // cascade bit + enable

	c.Tick(1)
	assert.Equal(t, uint16(1), c.T[1].Counter, "cascade increments timer 1 within the same tick")
}

func TestFIFOTickFiresOnTimer0Overflow(t *testing.T) {
	ic := irq.New()
	au := apu.New()
	c := New(ic, au)

	var got []apu.FIFO
	au.OnFIFOTick = func(f apu.FIFO) { got = append(got, f) }

	enableTimer(c, 0, 0xFFFF, 0, false)
	c.Tick(1)

	assert.Equal(t, []apu.FIFO{apu.FIFOA}, got)
}
