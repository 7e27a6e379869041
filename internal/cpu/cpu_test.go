package cpu

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goadvance/internal/addr"
)

// fakeBus is a flat byte-addressable memory large enough to hold a
// reset vector and a short instruction stream, satisfying the Bus
// interface without pulling in the real region-mapped bus.
type fakeBus struct {
	mem [1 << 20]byte
}

func (b *fakeBus) Read8(a uint32) uint8     { return b.mem[a] }
func (b *fakeBus) Write8(a uint32, v uint8) { b.mem[a] = v }
func (b *fakeBus) Read16(a uint32) uint16   { return binary.LittleEndian.Uint16(b.mem[a:]) }
func (b *fakeBus) Write16(a uint32, v uint16) {
	binary.LittleEndian.PutUint16(b.mem[a:], v)
}
func (b *fakeBus) Read32(a uint32) uint32 { return binary.LittleEndian.Uint32(b.mem[a:]) }
func (b *fakeBus) Write32(a uint32, v uint32) {
	binary.LittleEndian.PutUint32(b.mem[a:], v)
}

func (b *fakeBus) putARM(addr uint32, instr uint32) {
	b.Write32(addr, instr)
}

type fakeIRQ struct {
	pending  bool
	latched  bool
}

func (f *fakeIRQ) Pending() bool    { return f.pending }
func (f *fakeIRQ) AnyLatched() bool { return f.latched }

func movImm(rd uint8, imm uint8) uint32 {
	// MOV Rd, #imm ; AL condition, I=1, opcode=MOV(0xD), S=0
	return 0xE3A00000 | uint32(rd)<<12 | uint32(imm)
}

func branchAL(offsetWords int32, link bool) uint32 {
	instr := uint32(0xEA000000) | (uint32(offsetWords) & 0x00FFFFFF)
	if link {
		instr |= 1 << 24
	}
	return instr
}

func swiAL(num uint8) uint32 {
	return 0xEF000000 | uint32(num)
}

// dpImmS encodes an S-suffixed data-processing instruction with an
// immediate (rotate 0) operand2: AL condition, I=1.
func dpImmS(opcode ARMDataProcessingOperation, rn, rd uint8, imm uint8) uint32 {
	return 0xE2100000 | uint32(opcode)<<21 | uint32(rn)<<16 | uint32(rd)<<12 | uint32(imm)
}

func newTestCPU(b *fakeBus) *CPU {
	return NewCPU(b, &fakeIRQ{})
}

func TestStepExecutesMovImmediate(t *testing.T) {
	b := &fakeBus{}
	b.putARM(addr.VectorReset, movImm(0, 0x42))
	c := newTestCPU(b)

	c.Step()
	assert.Equal(t, uint32(0x42), c.Registers.GetReg(0))
}

func TestStepBranchRedirectsPCAndFlushesPipeline(t *testing.T) {
	b := &fakeBus{}
	// Branch to instrAddr+8 (offset field 0), then a MOV at the target.
	b.putARM(addr.VectorReset, branchAL(0, false))
	b.putARM(addr.VectorReset+8, movImm(1, 0x7))
	c := newTestCPU(b)

	c.Step() // branch
	assert.Equal(t, uint32(addr.VectorReset+8+8), c.Registers.PC, "PC reads 2 instructions ahead of the branch target")

	c.Step() // mov at target
	assert.Equal(t, uint32(0x7), c.Registers.GetReg(1))
}

func TestBranchWithLinkSetsLR(t *testing.T) {
	b := &fakeBus{}
	b.putARM(addr.VectorReset, branchAL(0, true))
	c := newTestCPU(b)

	c.Step()
	assert.Equal(t, uint32(addr.VectorReset+4), c.Registers.GetReg(14), "LR holds the return address (instr+4)")
}

func TestSWIDispatchesToOnSWIWhenSet(t *testing.T) {
	b := &fakeBus{}
	b.putARM(addr.VectorReset, swiAL(0x06)) // Div
	c := newTestCPU(b)

	var got uint32
	called := false
	c.OnSWI = func(num uint32) {
		called = true
		got = num
	}

	c.Step()
	require.True(t, called)
	assert.Equal(t, uint32(0x06), got)
	assert.Equal(t, uint32(addr.VectorReset+12), c.Registers.PC, "HLE path never takes the SWI exception vector")
}

func TestSWITakesExceptionVectorWhenNoHandler(t *testing.T) {
	b := &fakeBus{}
	b.putARM(addr.VectorReset, swiAL(0x01))
	c := newTestCPU(b)
	c.OnSWI = nil

	c.Step()
	assert.Equal(t, uint8(SVCMode), c.Registers.GetMode())
	assert.True(t, c.Registers.IsIRQDisabled())
}

func TestHaltedCPUWakesOnAnyLatched(t *testing.T) {
	b := &fakeBus{}
	c := newTestCPU(b)
	c.Halted = true
	ic := c.irq.(*fakeIRQ)

	c.Step()
	assert.True(t, c.Halted, "stays halted while nothing is latched")

	ic.latched = true
	c.Step()
	assert.False(t, c.Halted, "AnyLatched wakes the CPU even though Pending() is still false")
}

func TestSUBSBorrowClearsCarryRegardlessOfShifterCarry(t *testing.T) {
	b := &fakeBus{}
	b.putARM(addr.VectorReset, dpImmS(SUB, 1, 0, 1)) // SUBS R0, R1, #1
	c := newTestCPU(b)
	c.Registers.SetReg(1, 0) // 0 - 1 borrows
	c.Registers.SetFlagC(true) // shifter carry-in is 1; must not leak into C

	c.Step()
	assert.Equal(t, uint32(0xFFFFFFFF), c.Registers.GetReg(0))
	assert.False(t, c.Registers.GetFlagC(), "borrow must clear C even though the immediate shifter carry was 1")
}

func TestADDSCarrySetOnUnsignedOverflow(t *testing.T) {
	b := &fakeBus{}
	b.putARM(addr.VectorReset, dpImmS(ADD, 1, 0, 1)) // ADDS R0, R1, #1
	c := newTestCPU(b)
	c.Registers.SetReg(1, 0xFFFFFFFF)
	c.Registers.SetFlagC(false)

	c.Step()
	assert.Equal(t, uint32(0), c.Registers.GetReg(0))
	assert.True(t, c.Registers.GetFlagZ())
	assert.True(t, c.Registers.GetFlagC(), "unsigned overflow must set C even though the shifter carry-in was 0")
}

func TestLogicalOpsPreserveVAndTakeCarryFromShifter(t *testing.T) {
	b := &fakeBus{}
	b.putARM(addr.VectorReset, dpImmS(ORR, 1, 0, 0)) // ORRS R0, R1, #0 (rotate 0 => shifter carry = old C)
	c := newTestCPU(b)
	c.Registers.SetReg(1, 0x1)
	c.Registers.SetFlagV(true)
	c.Registers.SetFlagC(true)

	c.Step()
	assert.True(t, c.Registers.GetFlagV(), "logical ops must preserve V")
	assert.True(t, c.Registers.GetFlagC(), "immediate shift amount 0 passes the old C through unchanged")
}
