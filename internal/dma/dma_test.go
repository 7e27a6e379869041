package dma

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goadvance/internal/addr"
	"goadvance/internal/irq"
)

// fakeBus is a flat, unbounded little-endian memory for exercising
// transfers without pulling in the full system bus.
type fakeBus struct {
	mem map[uint32]uint16
}

func newFakeBus() *fakeBus { return &fakeBus{mem: map[uint32]uint16{}} }

func (b *fakeBus) Read16(a uint32) uint16     { return b.mem[a&^1] }
func (b *fakeBus) Write16(a uint32, v uint16) { b.mem[a&^1] = v }
func (b *fakeBus) Read32(a uint32) uint32 {
	return uint32(b.Read16(a)) | uint32(b.Read16(a+2))<<16
}
func (b *fakeBus) Write32(a uint32, v uint32) {
	b.Write16(a, uint16(v))
	b.Write16(a+2, uint16(v>>16))
}

func program(c *Controller, ch int, src, dst uint32, count uint16, ctrl uint16) {
	for i := uint32(0); i < 4; i++ {
		c.WriteByte(ch, i, uint8(src>>(i*8)))
	}
	for i := uint32(0); i < 4; i++ {
		c.WriteByte(ch, 4+i, uint8(dst>>(i*8)))
	}
	c.WriteByte(ch, 8, uint8(count))
	c.WriteByte(ch, 9, uint8(count>>8))
	c.WriteByte(ch, 10, uint8(ctrl))
	c.WriteByte(ch, 11, uint8(ctrl>>8))
}

func TestImmediateWordTransferCopiesData(t *testing.T) {
	ic := irq.New()
	c := New(ic)
	bus := newFakeBus()
	bus.Write32(0x1000, 0xAABBCCDD)
	bus.Write32(0x1004, 0x11223344)

	// 32-bit transfer, immediate start, 2 words, enable bit set.
	ctrl := uint16(1<<10) | uint16(1<<15)
	program(c, 0, 0x1000, 0x2000, 2, ctrl)

	require.True(t, c.Ch[0].pendingImmediate)
	cycles := c.RunPending(bus)

	assert.Equal(t, uint32(0xAABBCCDD), bus.Read32(0x2000))
	assert.Equal(t, uint32(0x11223344), bus.Read32(0x2004))
	assert.Greater(t, cycles, 0)
	assert.False(t, c.Ch[0].enabled(), "non-repeating channel clears its enable bit on completion")
}

func TestFixedPriorityRunsLowestChannelFirst(t *testing.T) {
	ic := irq.New()
	c := New(ic)
	bus := newFakeBus()
	bus.Write16(0x3000, 0x5555)
	bus.Write16(0x4000, 0x6666)

	var order []int
	ctrl := uint16(1<<15) // 16-bit, immediate

	program(c, 3, 0x3000, 0x9000, 1, ctrl)
	program(c, 1, 0x4000, 0x9100, 1, ctrl)

	// Run manually to observe ordering: channel 1 should fire before
	// channel 3 even though it was programmed second.
	for i := range c.Ch {
		if c.Ch[i].pendingImmediate {
			order = append(order, i)
		}
	}
	assert.Equal(t, []int{1, 3}, order)

	c.RunPending(bus)
	assert.Equal(t, uint16(0x6666), bus.Read16(0x9100))
	assert.Equal(t, uint16(0x5555), bus.Read16(0x9000))
}

func TestIRQOnCompleteRaisesController(t *testing.T) {
	ic := irq.New()
	c := New(ic)
	bus := newFakeBus()

	ctrl := uint16(1<<14) | uint16(1<<15) // IRQ on complete, immediate, 16-bit
	program(c, 2, 0x5000, 0x6000, 1, ctrl)
	c.RunPending(bus)

	assert.True(t, ic.IF.Bit(addr.IRQDMA0+2))
}
