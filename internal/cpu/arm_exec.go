package cpu

import (
	"fmt"

	"goadvance/internal/addr"
)

// execute_Arm decodes and executes one ARM-mode instruction. instrAddr
// is the address the instruction was fetched from, passed through to
// handlers that need it for PC-relative arithmetic (R15 reads as
// instrAddr+8, per the ARM7TDMI's pipeline contract).
func (c *CPU) execute_Arm(instruction uint32, instrAddr uint32) {
	cond := (instruction >> 28) & 0xF
	if !c.checkCondition_Arm(cond) {
		return
	}

	switch inst := DecodeInstruction_Arm(instruction).(type) {
	case ARMDataProcessingInstruction:
		c.execArm_DataProcessing(inst)
	case ARMLoadStoreInstruction:
		c.execArm_LoadStore(inst, instrAddr)
	case ARMHalfwordTransferInstruction:
		c.execArm_HalfwordTransfer(inst, instrAddr)
	case ARMBranchInstruction:
		c.execArm_Branch(inst, instrAddr)
	case ARMBranchExchangeInstruction:
		c.execArm_BX(inst)
	case ARMBlockDataTransferInstruction:
		c.execArm_BlockDataTransfer(inst, instrAddr)
	case ARMMultiplyInstruction:
		c.execArm_Multiply(inst)
	case ARMMultiplyLongInstruction:
		c.execArm_MultiplyLong(inst)
	case ARMPSRTransferInstruction:
		c.execArm_PSRTransfer(inst)
	case ARMSWIInstruction:
		c.execArm_SWI(inst)
	default:
		panic(fmt.Sprintf("unimplemented ARM instruction %08X at %08X", instruction, instrAddr))
	}
}

func (c *CPU) checkCondition_Arm(cond uint32) bool {
	n := c.Registers.GetFlagN()
	z := c.Registers.GetFlagZ()
	cf := c.Registers.GetFlagC()
	v := c.Registers.GetFlagV()

	switch ARMCondition(cond) {
	case EQ:
		return z
	case NE:
		return !z
	case CS:
		return cf
	case CC:
		return !cf
	case MI:
		return n
	case PL:
		return !n
	case VS:
		return v
	case VC:
		return !v
	case HI:
		return cf && !z
	case LS:
		return !cf || z
	case GE:
		return n == v
	case LT:
		return n != v
	case GT:
		return !z && (n == v)
	case LE:
		return z || (n != v)
	case AL:
		return true
	case NV:
		return false
	default:
		return false
	}
}

// ##################################################
// ARM Data Processing
// ##################################################

func (c *CPU) execArm_DataProcessing(inst ARMDataProcessingInstruction) {
	op2, carryOut := c.calcOp2(inst)
	rn := c.Registers.GetReg(inst.Rn)
	var result uint32
	writesResult := true

	switch inst.Opcode {
	case AND:
		result = rn & op2
	case EOR:
		result = rn ^ op2
	case SUB:
		result = rn - op2
	case RSB:
		result = op2 - rn
	case ADD:
		result = rn + op2
	case ADC:
		carry := uint32(0)
		if c.Registers.GetFlagC() {
			carry = 1
		}
		result = rn + op2 + carry
	case SBC:
		carry := uint32(0)
		if c.Registers.GetFlagC() {
			carry = 1
		}
		result = rn - op2 + carry - 1
	case RSC:
		carry := uint32(0)
		if c.Registers.GetFlagC() {
			carry = 1
		}
		result = op2 - rn + carry - 1
	case TST:
		result = rn & op2
		writesResult = false
	case TEQ:
		result = rn ^ op2
		writesResult = false
	case CMP:
		result = rn - op2
		writesResult = false
	case CMN:
		result = rn + op2
		writesResult = false
	case ORR:
		result = rn | op2
	case MOV:
		result = op2
	case BIC:
		result = rn &^ op2
	case MVN:
		result = ^op2
	}

	if inst.S {
		c.setFlags(result, carryOut, inst)
	}

	if writesResult {
		c.Registers.SetReg(inst.Rd, result)
		if inst.Rd == 15 {
			if inst.S {
				c.Registers.CPSR = c.Registers.GetSPSR()
			}
			c.FlushPipeline()
			return
		}
	}
}

func (c *CPU) calcOp2(instruction ARMDataProcessingInstruction) (uint32, bool) {
	if instruction.I {
		rotated := applyShift(uint32(instruction.Nn), ROR, uint32(instruction.Is)*2)
		carryOut := c.Registers.GetFlagC()
		if instruction.Is != 0 {
			carryOut = rotated&0x80000000 != 0
		}
		return rotated, carryOut
	}

	rm := c.Registers.GetReg(instruction.Rm)
	shiftAmt := uint32(instruction.Is)
	if instruction.R {
		shiftAmt = c.Registers.GetReg(instruction.Rs) & 0xFF
	}

	if shiftAmt == 0 && !instruction.R {
		if instruction.ShiftType == LSL {
			return rm, c.Registers.GetFlagC()
		}
	}

	carryOut := c.Registers.GetFlagC()
	switch instruction.ShiftType {
	case LSL:
		if shiftAmt > 0 && shiftAmt <= 32 {
			carryOut = shiftAmt <= 32 && (rm&(1<<(32-shiftAmt)) != 0)
			if shiftAmt == 32 {
				carryOut = rm&1 != 0
			}
		} else if shiftAmt > 32 {
			carryOut = false
		}
	case LSR:
		amt := shiftAmt
		if amt == 0 {
			amt = 32
		}
		if amt <= 32 {
			carryOut = rm&(1<<(amt-1)) != 0
		} else {
			carryOut = false
		}
	case ASR:
		amt := shiftAmt
		if amt == 0 || amt > 32 {
			amt = 32
		}
		carryOut = (int32(rm) >> (amt - 1) & 1) != 0
	case ROR:
		amt := shiftAmt
		if amt == 0 {
			carryOut = c.Registers.GetFlagC()
		} else {
			amt %= 32
			if amt == 0 {
				carryOut = rm&0x80000000 != 0
			} else {
				carryOut = rm&(1<<(amt-1)) != 0
			}
		}
	}
	return applyShift(rm, instruction.ShiftType, shiftAmt), carryOut
}

// ##################################################
// ARM Multiply
// ##################################################

func (c *CPU) execArm_Multiply(inst ARMMultiplyInstruction) {
	rm := c.Registers.GetReg(inst.Rm)
	rs := c.Registers.GetReg(inst.Rs)
	result := rm * rs
	if inst.A {
		result += c.Registers.GetReg(inst.Rn)
	}
	c.Registers.SetReg(inst.Rd, result)
	if inst.S {
		c.Registers.SetFlagN(result&0x80000000 != 0)
		c.Registers.SetFlagZ(result == 0)
	}
}

func (c *CPU) execArm_MultiplyLong(inst ARMMultiplyLongInstruction) {
	rm := c.Registers.GetReg(inst.Rm)
	rs := c.Registers.GetReg(inst.Rs)
	var result uint64
	if inst.Signed {
		result = uint64(int64(int32(rm)) * int64(int32(rs)))
	} else {
		result = uint64(rm) * uint64(rs)
	}
	if inst.A {
		acc := uint64(c.Registers.GetReg(inst.RdHi))<<32 | uint64(c.Registers.GetReg(inst.RdLo))
		result += acc
	}
	c.Registers.SetReg(inst.RdLo, uint32(result))
	c.Registers.SetReg(inst.RdHi, uint32(result>>32))
	if inst.S {
		c.Registers.SetFlagN(result&0x8000000000000000 != 0)
		c.Registers.SetFlagZ(result == 0)
	}
}

// ##################################################
// ARM PSR transfer (MRS/MSR)
// ##################################################

func (c *CPU) execArm_PSRTransfer(inst ARMPSRTransferInstruction) {
	if inst.IsMRS {
		if inst.ToSPSR {
			c.Registers.SetReg(inst.Rd, c.Registers.GetSPSR())
		} else {
			c.Registers.SetReg(inst.Rd, c.Registers.CPSR)
		}
		return
	}

	var operand uint32
	if inst.I {
		operand = applyShift(uint32(inst.Nn), ROR, uint32(inst.RotateIs)*2)
	} else {
		operand = c.Registers.GetReg(inst.Rm)
	}

	mask := uint32(0xF0000000) // flags (N Z C V) always writable
	if !inst.FlagsOnly && c.Registers.GetMode() != USRMode {
		mask |= 0x000000FF // control bits (mode, T, I, F) writable in privileged modes
	}

	if inst.ToSPSR {
		cur := c.Registers.GetSPSR()
		c.Registers.SetSPSR((cur &^ mask) | (operand & mask))
		return
	}

	cur := c.Registers.CPSR
	newCPSR := (cur &^ mask) | (operand & mask)
	if !inst.FlagsOnly && (newCPSR&0x1F) != (cur&0x1F) {
		c.Registers.CPSR = newCPSR
		c.Registers.SetMode(uint8(newCPSR & 0x1F))
	} else {
		c.Registers.CPSR = newCPSR
	}
}

// ##################################################
// ARM Branch / Branch-Exchange
// ##################################################

func (c *CPU) execArm_Branch(inst ARMBranchInstruction, instrAddr uint32) {
	var signedOffset int32
	if (inst.TargetAddr & 0x02000000) != 0 {
		signedOffset = int32(inst.TargetAddr | 0xFC000000)
	} else {
		signedOffset = int32(inst.TargetAddr)
	}

	target := (instrAddr + 8) + uint32(signedOffset)
	if inst.Link {
		c.Registers.SetReg(14, instrAddr+4)
	}
	c.Registers.PC = target
	c.FlushPipeline()
}

func (c *CPU) execArm_BX(inst ARMBranchExchangeInstruction) {
	target := c.Registers.GetReg(inst.Rm)
	thumb := target&1 != 0
	c.Registers.SetThumbState(thumb)
	if thumb {
		c.Registers.PC = target &^ 1
	} else {
		c.Registers.PC = target &^ 3
	}
	c.FlushPipeline()
}

// ##################################################
// ARM Load/Store (single word/byte)
// ##################################################

func (c *CPU) execArm_LoadStore(inst ARMLoadStoreInstruction, instrAddr uint32) {
	baseAddr := c.Registers.GetReg(inst.Rn)
	if inst.Rn == 15 {
		baseAddr = instrAddr + 8
	}

	var offset uint32
	if inst.I {
		offset = applyShift(c.Registers.GetReg(uint8(inst.Offset&0xF)), inst.ShiftType, uint32(inst.ShiftAmt))
	} else {
		offset = inst.Offset
	}

	var effectiveAddr uint32
	if inst.U {
		effectiveAddr = baseAddr + offset
	} else {
		effectiveAddr = baseAddr - offset
	}

	var finalAddr uint32
	if inst.P {
		finalAddr = effectiveAddr
	} else {
		finalAddr = baseAddr
	}

	if inst.L {
		var loaded uint32
		if inst.B {
			loaded = uint32(c.Bus.Read8(finalAddr))
		} else {
			raw := c.Bus.Read32(finalAddr &^ 3)
			rot := (finalAddr & 3) * 8
			loaded = applyShift(raw, ROR, rot)
		}
		c.Registers.SetReg(inst.Rd, loaded)
		if inst.Rd == 15 {
			c.Registers.PC = loaded &^ 3
			c.FlushPipeline()
		}
	} else {
		value := c.Registers.GetReg(inst.Rd)
		if inst.Rd == 15 {
			value = instrAddr + 12
		}
		if inst.B {
			c.Bus.Write8(finalAddr, uint8(value))
		} else {
			c.Bus.Write32(finalAddr&^3, value)
		}
	}

	if inst.W || !inst.P {
		c.Registers.SetReg(inst.Rn, effectiveAddr)
	}
}

// execArm_HalfwordTransfer executes LDRH/STRH/LDRSB/LDRSH and their
// register- or immediate-offset addressing forms.
func (c *CPU) execArm_HalfwordTransfer(inst ARMHalfwordTransferInstruction, instrAddr uint32) {
	baseAddr := c.Registers.GetReg(inst.Rn)
	if inst.Rn == 15 {
		baseAddr = instrAddr + 8
	}

	var offset uint32
	if inst.ImmOff {
		offset = inst.Offset
	} else {
		offset = c.Registers.GetReg(inst.Rm)
	}

	var effectiveAddr uint32
	if inst.U {
		effectiveAddr = baseAddr + offset
	} else {
		effectiveAddr = baseAddr - offset
	}

	finalAddr := baseAddr
	if inst.P {
		finalAddr = effectiveAddr
	}

	if inst.L {
		var value uint32
		switch {
		case inst.S && inst.H:
			value = uint32(int32(int16(c.Bus.Read16(finalAddr &^ 1))))
		case inst.S && !inst.H:
			value = uint32(int32(int8(c.Bus.Read8(finalAddr))))
		default:
			value = uint32(c.Bus.Read16(finalAddr &^ 1))
		}
		c.Registers.SetReg(inst.Rd, value)
	} else {
		value := c.Registers.GetReg(inst.Rd)
		c.Bus.Write16(finalAddr&^1, uint16(value))
	}

	if inst.W || !inst.P {
		c.Registers.SetReg(inst.Rn, effectiveAddr)
	}
}

// ##################################################
// ARM Block Data Transfer (LDM/STM)
// ##################################################

func (c *CPU) execArm_BlockDataTransfer(inst ARMBlockDataTransferInstruction, instrAddr uint32) {
	baseAddr := c.Registers.GetReg(inst.Rn)
	numRegisters := 0
	for i := 0; i < 16; i++ {
		if (inst.RegisterList>>i)&1 != 0 {
			numRegisters++
		}
	}

	// The empty-register-list case transfers R15 alone and still steps
	// the base by a full 0x40, matching the documented hardware quirk.
	emptyList := numRegisters == 0

	var startAddr, finalBaseAddr uint32
	if inst.U {
		if inst.P {
			startAddr = baseAddr + 4
		} else {
			startAddr = baseAddr
		}
		if emptyList {
			finalBaseAddr = baseAddr + 0x40
		} else {
			finalBaseAddr = baseAddr + uint32(numRegisters)*4
		}
	} else if emptyList {
		startAddr = baseAddr - 0x40
		finalBaseAddr = baseAddr - 0x40
	} else {
		if inst.P {
			startAddr = baseAddr - uint32(numRegisters)*4
		} else {
			startAddr = baseAddr - uint32(numRegisters)*4 + 4
		}
		finalBaseAddr = baseAddr - uint32(numRegisters)*4
	}

	cur := startAddr
	transfer := func(reg int) {
		if inst.L {
			val := c.Bus.Read32(cur &^ 3)
			if reg == 15 {
				c.Registers.SetReg(15, val&0xFFFFFFFC)
				c.FlushPipeline()
			} else {
				c.Registers.SetReg(uint8(reg), val)
			}
		} else {
			val := c.Registers.GetReg(uint8(reg))
			if reg == 15 {
				val = instrAddr + 12
			}
			c.Bus.Write32(cur&^3, val)
		}
		cur += 4
	}

	if emptyList {
		transfer(15)
	} else {
		for i := 0; i < 16; i++ {
			if (inst.RegisterList>>i)&1 != 0 {
				transfer(i)
			}
		}
	}

	if inst.W {
		c.Registers.SetReg(inst.Rn, finalBaseAddr)
	}
}

// ##################################################
// ARM Software Interrupt
// ##################################################

func (c *CPU) execArm_SWI(inst ARMSWIInstruction) {
	if c.OnSWI != nil {
		swiNum := inst.Immediate
		if swiNum > 0xFF {
			swiNum >>= 16
		}
		c.OnSWI(swiNum)
		return
	}
	c.enterException(addr.VectorSWI, SVCMode, true)
}

// ##################################################
// Shared shifter
// ##################################################

func applyShift(value uint32, shiftType ARMShiftType, shiftAmount uint32) uint32 {
	switch shiftType {
	case LSL:
		if shiftAmount >= 32 {
			return 0
		}
		return value << shiftAmount
	case LSR:
		if shiftAmount == 0 || shiftAmount >= 32 {
			return 0
		}
		return value >> shiftAmount
	case ASR:
		if shiftAmount == 0 || shiftAmount >= 32 {
			if value&0x80000000 != 0 {
				return 0xFFFFFFFF
			}
			return 0
		}
		return uint32(int32(value) >> shiftAmount)
	case ROR:
		shiftAmount %= 32
		if shiftAmount == 0 {
			return value
		}
		return (value >> shiftAmount) | (value << (32 - shiftAmount))
	}
	return value
}
