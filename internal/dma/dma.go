// Package dma implements the four programmable block-copy channels of
// spec §4.5. A channel's transfer runs to completion synchronously
// once triggered — the scheduler never interleaves CPU instructions
// with an in-flight DMA, which gives us the "atomically blocking CPU
// execution" semantics for free without real concurrency.
package dma

import (
	"goadvance/internal/addr"
	"goadvance/internal/irq"
	"goadvance/internal/mmio"
)

// MemoryBus is the minimal surface a channel needs from the system bus
// to move data. Declaring it here (rather than importing package bus)
// breaks what would otherwise be a bus<->dma import cycle — bus owns
// the Controller, the Controller borrows the bus only for the
// duration of a call.
type MemoryBus interface {
	Read16(addr uint32) uint16
	Write16(addr uint32, value uint16)
	Read32(addr uint32) uint32
	Write32(addr uint32, value uint32)
}

// AddrControl selects how an address steps after each transfer unit.
type AddrControl uint8

const (
	AddrIncrement AddrControl = iota
	AddrDecrement
	AddrFixed
	AddrIncrementReload // destination only
)

// StartTiming selects when a channel's transfer fires.
type StartTiming uint8

const (
	StartImmediate StartTiming = iota
	StartVBlank
	StartHBlank
	StartSpecial
)

var countMask = [4]uint32{0x3FFF, 0x3FFF, 0x3FFF, 0xFFFF}
var countFull = [4]uint32{0x4000, 0x4000, 0x4000, 0x10000}
var srcMask = [4]uint32{0x07FFFFFF, 0x0FFFFFFF, 0x0FFFFFFF, 0x0FFFFFFF}
var dstMask = [4]uint32{0x07FFFFFF, 0x07FFFFFF, 0x07FFFFFF, 0x0FFFFFFF}

// Channel holds one DMA unit's programmed and shadow (latched) state.
type Channel struct {
	index int

	SrcAddr uint32
	DstAddr uint32
	WordCnt uint16
	Control mmio.Reg16 // DMAxCNT_H

	// Shadow registers, latched on the 0->1 enable transition.
	srcShadow uint32
	dstShadow uint32
	cntShadow uint32

	pendingImmediate bool
	pendingVBlank    bool
	pendingHBlank    bool
	pendingSpecial   bool
}

func (c *Channel) destControl() AddrControl  { return AddrControl(c.Control.Field(5, 2)) }
func (c *Channel) srcControl() AddrControl   { return AddrControl(c.Control.Field(7, 2)) }
func (c *Channel) repeat() bool              { return c.Control.Bit(9) }
func (c *Channel) transfer32() bool          { return c.Control.Bit(10) }
func (c *Channel) startTiming() StartTiming  { return StartTiming(c.Control.Field(12, 2)) }
func (c *Channel) irqOnComplete() bool       { return c.Control.Bit(14) }
func (c *Channel) enabled() bool             { return c.Control.Bit(15) }

// Controller owns the four channels, in fixed priority 0 > 1 > 2 > 3.
type Controller struct {
	Ch  [4]Channel
	irq *irq.Controller
}

func New(ic *irq.Controller) *Controller {
	c := &Controller{irq: ic}
	for i := range c.Ch {
		c.Ch[i].index = i
		c.Ch[i].Control = mmio.NewReg16(0xFFE0)
	}
	return c
}

func (c *Controller) Reset() { *c = *New(c.irq) }

// latch snapshots programmed registers into the shadow registers,
// aligning addresses to the transfer width, per spec §4.5.
func (c *Channel) latch() {
	c.srcShadow = c.SrcAddr
	c.dstShadow = c.DstAddr
	width := uint32(2)
	if c.transfer32() {
		width = 4
	}
	c.srcShadow &^= width - 1
	c.dstShadow &^= width - 1
	c.srcShadow &= srcMask[c.index]
	c.dstShadow &= dstMask[c.index]
	cnt := uint32(c.WordCnt) & countMask[c.index]
	if cnt == 0 {
		cnt = countFull[c.index]
	}
	c.cntShadow = cnt
}

// WriteByte handles the per-channel 12-byte register window starting at
// DMAxSAD. offset is relative to that channel's base.
func (c *Controller) WriteByte(channel int, offset uint32, value uint8) {
	ch := &c.Ch[channel]
	switch {
	case offset < 4:
		shift := offset * 8
		ch.SrcAddr = (ch.SrcAddr &^ (0xFF << shift)) | (uint32(value) << shift)
	case offset < 8:
		shift := (offset - 4) * 8
		ch.DstAddr = (ch.DstAddr &^ (0xFF << shift)) | (uint32(value) << shift)
	case offset == 8:
		ch.WordCnt = (ch.WordCnt & 0xFF00) | uint16(value)
	case offset == 9:
		ch.WordCnt = (ch.WordCnt & 0x00FF) | (uint16(value) << 8)
	case offset == 10:
		ch.Control.Write(0, value)
	case offset == 11:
		wasEnabled := ch.enabled()
		ch.Control.Write(1, value)
		if !wasEnabled && ch.enabled() {
			ch.latch()
			if ch.startTiming() == StartImmediate {
				ch.pendingImmediate = true
			}
		}
	}
}

func (c *Controller) ReadByte(channel int, offset uint32) uint8 {
	ch := &c.Ch[channel]
	switch {
	case offset == 10:
		return ch.Control.Read(0)
	case offset == 11:
		return ch.Control.Read(1)
	}
	return 0
}

// NotifyVBlank / NotifyHBlank mark channels armed for those edges as
// pending; NotifySpecial does the same for the audio-FIFO/video-capture
// trigger. The scheduler calls RunPending afterwards to actually move
// data, billing cycles through the supplied bus.
func (c *Controller) NotifyVBlank() {
	for i := range c.Ch {
		if c.Ch[i].enabled() && c.Ch[i].startTiming() == StartVBlank {
			c.Ch[i].pendingVBlank = true
		}
	}
}

func (c *Controller) NotifyHBlank() {
	for i := range c.Ch {
		if c.Ch[i].enabled() && c.Ch[i].startTiming() == StartHBlank {
			c.Ch[i].pendingHBlank = true
		}
	}
}

// NotifySpecial arms channel `channel` if it is enabled with
// start-timing "special" (audio FIFO for 1/2, video capture for 3).
func (c *Controller) NotifySpecial(channel int) {
	ch := &c.Ch[channel]
	if ch.enabled() && ch.startTiming() == StartSpecial {
		ch.pendingSpecial = true
	}
}

// RunPending executes, in priority order, every channel whose trigger
// condition has fired, and returns the total cycles billed.
func (c *Controller) RunPending(b MemoryBus) int {
	total := 0
	for i := range c.Ch {
		ch := &c.Ch[i]
		fire := ch.pendingImmediate || ch.pendingVBlank || ch.pendingHBlank || ch.pendingSpecial
		if !fire {
			continue
		}
		ch.pendingImmediate, ch.pendingVBlank = false, false
		ch.pendingHBlank, ch.pendingSpecial = false, false
		total += c.run(ch, b)
	}
	return total
}

// run performs the actual block transfer for one channel.
func (c *Controller) run(ch *Channel, b MemoryBus) int {
	cycles := 0
	width := uint32(2)
	if ch.transfer32() {
		width = 4
	}
	src, dst := ch.srcShadow, ch.dstShadow
	for i := uint32(0); i < ch.cntShadow; i++ {
		if width == 4 {
			v := b.Read32(src)
			b.Write32(dst, v)
		} else {
			v := b.Read16(src)
			b.Write16(dst, v)
		}
		cycles += 2 // one nonsequential read + one nonsequential write, approximated
		src = stepAddr(src, ch.srcControl(), width)
		dst = stepAddr(dst, ch.destControl(), width)
	}
	ch.srcShadow = src

	if ch.repeat() && ch.startTiming() != StartImmediate {
		if ch.destControl() == AddrIncrementReload {
			ch.dstShadow = ch.DstAddr &^ (width - 1)
		} else {
			ch.dstShadow = dst
		}
		cnt := uint32(ch.WordCnt) & countMask[ch.index]
		if cnt == 0 {
			cnt = countFull[ch.index]
		}
		ch.cntShadow = cnt
	} else {
		ch.dstShadow = dst
		ch.Control.SetBit(15, false)
	}

	if ch.irqOnComplete() {
		c.irq.Raise(addr.IRQDMA0 + uint(ch.index))
	}
	return cycles
}

func stepAddr(a uint32, mode AddrControl, width uint32) uint32 {
	switch mode {
	case AddrIncrement, AddrIncrementReload:
		return a + width
	case AddrDecrement:
		return a - width
	default: // AddrFixed
		return a
	}
}
