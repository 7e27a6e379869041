// Package timer implements the four cascadable up-counters of spec §4.4.
// Each timer maintains a residual-cycle accumulator; when it exceeds
// the selected prescaler the counter increments, and on overflow past
// 0xFFFF it reloads, optionally raises an interrupt, and (for timers 0
// and 1) ticks the audio FIFO edge.
package timer

import (
	"goadvance/internal/addr"
	"goadvance/internal/apu"
	"goadvance/internal/irq"
	"goadvance/internal/mmio"
)

var prescalerCycles = [4]int{1, 64, 256, 1024}

// Timer is one of the four hardware counters.
type Timer struct {
	Counter uint16
	Reload  uint16
	Control mmio.Reg16 // bits: 0-1 prescaler, 2 cascade, 6 irq-enable, 7 start

	accum int
}

func (t *Timer) prescaler() int  { return prescalerCycles[t.Control.Field(0, 2)] }
func (t *Timer) cascade() bool   { return t.Control.Bit(2) }
func (t *Timer) irqEnabled() bool { return t.Control.Bit(6) }
func (t *Timer) enabled() bool   { return t.Control.Bit(7) }

// Controller owns the four timers and their wiring to irq and apu.
type Controller struct {
	T   [4]Timer
	irq *irq.Controller
	apu *apu.APU
}

// New wires the controller to the interrupt controller and APU it must
// notify on overflow.
func New(ic *irq.Controller, au *apu.APU) *Controller {
	c := &Controller{irq: ic, apu: au}
	for i := range c.T {
		c.T[i].Control = mmio.NewReg16(0x00C7)
	}
	return c
}

func (c *Controller) Reset() {
	*c = *New(c.irq, c.apu)
}

// Tick advances every enabled, non-cascaded timer by `cycles` system
// cycles, then propagates cascades within the same tick (spec §5:
// "Timer cascades propagate within the same tick").
func (c *Controller) Tick(cycles int) {
	for i := 0; i < 4; i++ {
		t := &c.T[i]
		if !t.enabled() || (i > 0 && t.cascade()) {
			continue
		}
		c.advance(i, cycles)
	}
}

// advance increments timer i by the elapsed cycles (in its own
// prescaler units), cascading into timer i+1 on overflow.
func (c *Controller) advance(i int, cycles int) {
	t := &c.T[i]
	t.accum += cycles
	step := t.prescaler()
	for t.accum >= step {
		t.accum -= step
		c.incrementCounter(i)
	}
}

// incrementCounter bumps timer i by one tick, reloading and cascading
// on overflow past 0xFFFF.
func (c *Controller) incrementCounter(i int) {
	t := &c.T[i]
	if t.Counter == 0xFFFF {
		t.Counter = t.Reload
		if t.irqEnabled() {
			c.irq.Raise(addr.IRQTimer0 + uint(i))
		}
		if i == 0 && c.apu != nil {
			c.apu.NotifyTimerOverflow(apu.FIFOA)
		}
		if i == 1 && c.apu != nil {
			c.apu.NotifyTimerOverflow(apu.FIFOB)
		}
		if i+1 < 4 && c.T[i+1].enabled() && c.T[i+1].cascade() {
			c.incrementCounter(i + 1)
		}
		return
	}
	t.Counter++
}

// ReadByte / WriteByte implement the TMxCNT_L/TMxCNT_H byte window,
// starting at addr.TM0CNT_L.
func (c *Controller) ReadByte(offset uint32) uint8 {
	idx := offset / 4
	rel := offset % 4
	if idx > 3 {
		return 0
	}
	t := &c.T[idx]
	switch rel {
	case 0:
		return uint8(t.Counter)
	case 1:
		return uint8(t.Counter >> 8)
	case 2:
		return t.Control.Read(0)
	case 3:
		return t.Control.Read(1)
	}
	return 0
}

func (c *Controller) WriteByte(offset uint32, value uint8) {
	idx := offset / 4
	rel := offset % 4
	if idx > 3 {
		return
	}
	t := &c.T[idx]
	switch rel {
	case 0:
		t.Reload = (t.Reload & 0xFF00) | uint16(value)
	case 1:
		t.Reload = (t.Reload & 0x00FF) | (uint16(value) << 8)
	case 2:
		wasEnabled := t.enabled()
		t.Control.Write(0, value)
		if !wasEnabled && t.enabled() {
			// Latch the reload value on the 0->1 enable transition
			// (spec §4.4): "Writing the high half of a timer control
			// register with the enable bit transitioning 0->1..." —
			// the enable bit itself lives in the low byte of TMxCNT_H.
			t.Counter = t.Reload
			t.accum = 0
		}
	case 3:
		t.Control.Write(1, value)
	}
}
