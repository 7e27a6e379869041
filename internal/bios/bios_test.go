package bios

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRegs is a minimal Regs implementation for exercising Dispatch in
// isolation from the cpu package.
type fakeRegs struct {
	r [16]uint32
}

func (f *fakeRegs) GetReg(n uint8) uint32     { return f.r[n] }
func (f *fakeRegs) SetReg(n uint8, v uint32)  { f.r[n] = v }

// fakeBus is a flat byte-addressable memory for LZ77/CpuSet tests.
type fakeBus struct {
	mem map[uint32]byte
}

func newFakeBus() *fakeBus { return &fakeBus{mem: map[uint32]byte{}} }

func (b *fakeBus) Read8(a uint32) uint8  { return b.mem[a] }
func (b *fakeBus) Write8(a uint32, v uint8) { b.mem[a] = v }
func (b *fakeBus) Read16(a uint32) uint16 {
	return uint16(b.Read8(a)) | uint16(b.Read8(a+1))<<8
}
func (b *fakeBus) Write16(a uint32, v uint16) {
	b.Write8(a, uint8(v))
	b.Write8(a+1, uint8(v>>8))
}
func (b *fakeBus) Read32(a uint32) uint32 {
	return uint32(b.Read16(a)) | uint32(b.Read16(a+2))<<16
}
func (b *fakeBus) Write32(a uint32, v uint32) {
	b.Write16(a, uint16(v))
	b.Write16(a+2, uint16(v>>16))
}

func TestDivide(t *testing.T) {
	regs := &fakeRegs{}
	regs.SetReg(0, 0xFFFFFFF9) // int32(-7)
	regs.SetReg(1, uint32(int32(2)))

	Dispatch(Div, regs, nil, nil)

	assert.Equal(t, int32(-3), int32(regs.GetReg(0)), "quotient")
	assert.Equal(t, int32(-1), int32(regs.GetReg(1)), "remainder")
	assert.Equal(t, int32(3), int32(regs.GetReg(3)), "abs(quotient)")
}

func TestDivideByZero(t *testing.T) {
	regs := &fakeRegs{}
	regs.SetReg(0, uint32(int32(42)))
	regs.SetReg(1, 0)

	Dispatch(Div, regs, nil, nil)

	assert.Equal(t, uint32(0), regs.GetReg(0))
	assert.Equal(t, uint32(42), regs.GetReg(1))
}

func TestSqrt(t *testing.T) {
	regs := &fakeRegs{}
	regs.SetReg(0, 144)
	Dispatch(Sqrt, regs, nil, nil)
	assert.Equal(t, uint32(12), regs.GetReg(0))
}

func TestCpuSetWordFill(t *testing.T) {
	regs := &fakeRegs{}
	bus := newFakeBus()
	bus.Write32(0x1000, 0xCAFEBABE)

	regs.SetReg(0, 0x1000) // src
	regs.SetReg(1, 0x2000) // dst
	regs.SetReg(2, 4|(1<<24)|(1<<26))

	Dispatch(CpuSet, regs, bus, nil)

	for i := uint32(0); i < 4; i++ {
		assert.Equal(t, uint32(0xCAFEBABE), bus.Read32(0x2000+i*4))
	}
}

func TestHaltDispatchesHaltFunc(t *testing.T) {
	var gotStop *bool
	halt := func(stop bool) { gotStop = &stop }

	Dispatch(Halt, &fakeRegs{}, nil, halt)
	require.NotNil(t, gotStop)
	assert.False(t, *gotStop)

	Dispatch(Stop, &fakeRegs{}, nil, halt)
	require.NotNil(t, gotStop)
	assert.True(t, *gotStop)
}

func TestLZ77Decompress(t *testing.T) {
	regs := &fakeRegs{}
	bus := newFakeBus()

	// header: tag 0x10, size 4 (little-endian 24-bit size in upper 3 bytes)
	bus.Write8(0x0000, 0x10)
	bus.Write8(0x0001, 0x04)
	bus.Write8(0x0002, 0x00)
	bus.Write8(0x0003, 0x00)
	// flags byte: all literals
	bus.Write8(0x0004, 0x00)
	bus.Write8(0x0005, 'A')
	bus.Write8(0x0006, 'B')
	bus.Write8(0x0007, 'C')
	bus.Write8(0x0008, 'D')

	regs.SetReg(0, 0x0000)
	regs.SetReg(1, 0x1000)

	Dispatch(LZ77UnCompWram, regs, bus, nil)

	assert.Equal(t, byte('A'), bus.Read8(0x1000))
	assert.Equal(t, byte('B'), bus.Read8(0x1001))
	assert.Equal(t, byte('C'), bus.Read8(0x1002))
	assert.Equal(t, byte('D'), bus.Read8(0x1003))
}
