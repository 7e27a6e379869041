// Package cpu implements the dual ARM/Thumb instruction-set processor
// core of spec §4.7: a banked-register machine with a short prefetch
// pipeline, decoding and executing one instruction per Step call.
package cpu

import "goadvance/internal/addr"

// Bus is the minimal memory surface the CPU needs. Declaring it here
// (rather than importing package bus) avoids a bus<->cpu import cycle;
// package bus implements it without knowing about package cpu.
type Bus interface {
	Read8(addr uint32) uint8
	Write8(addr uint32, value uint8)
	Read16(addr uint32) uint16
	Write16(addr uint32, value uint16)
	Read32(addr uint32) uint32
	Write32(addr uint32, value uint32)
}

// IRQSource reports whether an interrupt is currently pending and
// whether IME allows it through, independent of the CPU's own I bit.
// AnyLatched ignores IME entirely: it is the condition spec §4.8 says
// wakes a halted CPU regardless of whether interrupts are masked.
type IRQSource interface {
	Pending() bool
	AnyLatched() bool
}

// CPU is the processor core: banked registers, a two-deep prefetch
// slot, and the bus it executes against.
type CPU struct {
	Registers *Registers
	Bus       Bus
	irq       IRQSource
	cycles    uint64
	pipeline  [2]uint32
	flushed   bool // set by FlushPipeline so Step does not advance PC again
	Halted    bool

	// OnSWI, when set, intercepts every SWI instead of taking the
	// exception vector: the high-level-emulation path of spec §4.7,
	// used when no firmware image is loaded. It receives the 8-bit
	// service number from the instruction's comment field.
	OnSWI func(swiNum uint32)
}

// NewCPU constructs a CPU wired to the given bus and interrupt source.
func NewCPU(bus Bus, irq IRQSource) *CPU {
	c := &CPU{Bus: bus, irq: irq}
	c.Reset()
	return c
}

// Reset re-enters the power-on state: Supervisor mode, IRQ/FIQ
// disabled, ARM state, PC at the reset vector.
func (c *CPU) Reset() {
	c.Registers = NewRegisters()
	c.Registers.PC = addr.VectorReset
	c.Registers.SetMode(SVCMode)
	c.Registers.SetIRQDisabled(true)
	c.Registers.SetFIQDisabled(true)
	c.Halted = false
	c.FlushPipeline()
}

// Step executes one instruction (or services a pending IRQ), returning
// the number of cycles the scheduler should bill for it. The spec's
// ordering guarantee (§5) is enforced by the caller: interrupts are
// only taken at an instruction boundary, which this single-entry loop
// naturally provides.
func (c *CPU) Step() int {
	if c.Halted {
		if c.irq != nil && c.irq.AnyLatched() {
			c.Halted = false
		}
		return 1
	}

	if !c.Registers.IsIRQDisabled() && c.irq != nil && c.irq.Pending() {
		c.enterException(addr.VectorIRQ, IRQMode, true)
		return 3
	}

	if c.Registers.IsThumb() {
		instrAddr := c.Registers.PC - 4 // PC reads 2 halfwords (4 bytes) ahead in Thumb state
		instr := c.pipeline[0]
		c.pipeline[0] = c.pipeline[1]
		c.pipeline[1] = uint32(c.Bus.Read16(c.Registers.PC))
		c.flushed = false
		c.executeThumb(uint16(instr), instrAddr)
		if !c.flushed {
			c.Registers.PC += 2
		}
	} else {
		instrAddr := c.Registers.PC - 8 // PC reads 2 words (8 bytes) ahead in ARM state
		instr := c.pipeline[0]
		c.pipeline[0] = c.pipeline[1]
		c.pipeline[1] = c.Bus.Read32(c.Registers.PC)
		c.flushed = false
		c.execute_Arm(instr, instrAddr)
		if !c.flushed {
			c.Registers.PC += 4
		}
	}

	c.cycles++
	return 1
}

// FlushPipeline refills both prefetch slots from the current PC,
// mirroring what a real pipeline reload does after a branch or
// exception entry. PC ends up two instruction-widths ahead, matching
// real hardware's fetch-ahead invariant.
func (c *CPU) FlushPipeline() {
	width := uint32(4)
	if c.Registers.IsThumb() {
		width = 2
	}
	pc := c.Registers.PC
	if c.Registers.IsThumb() {
		c.pipeline[0] = uint32(c.Bus.Read16(pc))
		c.pipeline[1] = uint32(c.Bus.Read16(pc + width))
	} else {
		c.pipeline[0] = c.Bus.Read32(pc)
		c.pipeline[1] = c.Bus.Read32(pc + width)
	}
	c.Registers.PC = pc + 2*width
	c.flushed = true
}

// enterException performs the mode switch, SPSR/LR bank writes, and
// vector jump common to every exception entry (IRQ, SWI, undefined).
func (c *CPU) enterException(vector uint32, mode uint8, disableIRQ bool) {
	retAddr := c.Registers.PC
	if !c.Registers.IsThumb() {
		retAddr -= 4 // ARM: PC is 2 instructions ahead; vector wants +4 over the faulting instr
	}
	cpsr := c.Registers.CPSR
	c.Registers.SetMode(mode)
	c.Registers.SetSPSR(cpsr)
	c.Registers.SetReg(14, retAddr)
	c.Registers.SetThumbState(false)
	if disableIRQ {
		c.Registers.SetIRQDisabled(true)
	}
	c.Registers.PC = vector
	c.FlushPipeline()
}

// setFlags updates NZCV after an S-suffixed data-processing instruction.
// carryOut is the barrel shifter's carry output, used verbatim for the
// logical opcodes. Arithmetic opcodes instead derive C from the ALU
// (unsigned overflow for adds, "no borrow" for subs) and leave V to
// checkOverflow; logical opcodes leave V untouched, since they have no
// notion of signed overflow.
func (c *CPU) setFlags(result uint32, carryOut bool, instruction ARMDataProcessingInstruction) {
	c.Registers.SetFlagN(result&0x80000000 != 0)
	c.Registers.SetFlagZ(result == 0)
	switch instruction.Opcode {
	case ADD, ADC, SUB, SBC, RSB, RSC, CMP, CMN:
		rn := c.Registers.GetReg(instruction.Rn)
		op2, _ := c.calcOp2(instruction)
		carryIn := c.Registers.GetFlagC()
		c.Registers.SetFlagC(checkCarry(rn, op2, carryIn, instruction.Opcode))
		c.Registers.SetFlagV(checkOverflow(rn, op2, result, instruction.Opcode))
	default:
		c.Registers.SetFlagC(carryOut)
	}
}

func checkOverflow(a, b, result uint32, opcode ARMDataProcessingOperation) bool {
	switch opcode {
	case ADD, ADC, CMN:
		return ((a ^ result) & (b ^ result) & 0x80000000) != 0
	case SUB, CMP, SBC:
		return ((a ^ b) & (a ^ result) & 0x80000000) != 0
	case RSB, RSC:
		return ((b ^ a) & (b ^ result) & 0x80000000) != 0
	default:
		return false
	}
}

// checkCarry computes the ALU's carry/borrow output for an arithmetic
// data-processing opcode: unsigned overflow for adds, "minuend >=
// subtrahend" for subs. carryIn is the C flag from before the
// instruction executed, the same value the ADC/SBC/RSC execution path
// folded into its result.
func checkCarry(a, b uint32, carryIn bool, opcode ARMDataProcessingOperation) bool {
	ci := uint64(0)
	if carryIn {
		ci = 1
	}
	switch opcode {
	case ADD, CMN:
		return uint64(a)+uint64(b) > 0xFFFFFFFF
	case ADC:
		return uint64(a)+uint64(b)+ci > 0xFFFFFFFF
	case SUB, CMP:
		return uint64(a) >= uint64(b)
	case SBC:
		return uint64(a) >= uint64(b)+(1-ci)
	case RSB:
		return uint64(b) >= uint64(a)
	case RSC:
		return uint64(b) >= uint64(a)+(1-ci)
	default:
		return false
	}
}
