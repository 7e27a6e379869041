package cpu

import "fmt"

// DecodeInstruction_Arm classifies a 32-bit ARM instruction word and
// returns the typed struct execute_Arm dispatches on.
func DecodeInstruction_Arm(instruction uint32) interface{} {
	cond := ARMCondition((instruction >> 28) & 0x0F)

	switch (instruction >> 26) & 0x03 {
	case 0: // 00: data processing, multiply, PSR transfer, BX, halfword transfer
		if (instruction & 0x0FFFFFF0) == 0x012FFF10 {
			return ARMBranchExchangeInstruction{
				ARMInstruction: ARMInstruction{Cond: cond},
				Rm:             uint8(instruction & 0xF),
			}
		}

		if isPSRTransfer(instruction) {
			return decodePSRTransfer(instruction, cond)
		}

		if ((instruction>>24)&0xF) == 0x0 && ((instruction>>4)&0xF) == 0x9 {
			if (instruction>>23)&1 == 1 {
				return ARMMultiplyLongInstruction{
					ARMInstruction: ARMInstruction{Cond: cond},
					Signed:         (instruction>>22)&1 != 0,
					A:              (instruction>>21)&1 != 0,
					S:              (instruction>>20)&1 != 0,
					RdHi:           uint8((instruction >> 16) & 0xF),
					RdLo:           uint8((instruction >> 12) & 0xF),
					Rs:             uint8((instruction >> 8) & 0xF),
					Rm:             uint8(instruction & 0xF),
				}
			}
			return ARMMultiplyInstruction{
				ARMInstruction: ARMInstruction{Cond: cond},
				A:              ((instruction >> 21) & 0x01) != 0,
				S:              ((instruction >> 20) & 0x01) != 0,
				Rd:             uint8((instruction >> 16) & 0x0F),
				Rn:             uint8((instruction >> 12) & 0x0F),
				Rs:             uint8((instruction >> 8) & 0x0F),
				Rm:             uint8(instruction & 0x0F),
			}
		}

		if (instruction&0x0E000090) == 0x00000090 && ((instruction>>5)&0x3) != 0 {
			return decodeHalfwordTransfer(instruction, cond)
		}

		return decodeDataProcessing(instruction, cond)

	case 1: // 01: single data transfer (LDR/STR, byte or word, immediate or register offset)
		return ARMLoadStoreInstruction{
			ARMInstruction: ARMInstruction{Cond: cond},
			I:              ((instruction >> 25) & 0x01) != 0,
			P:              ((instruction >> 24) & 0x01) != 0,
			U:              ((instruction >> 23) & 0x01) != 0,
			B:              ((instruction >> 22) & 0x01) != 0,
			W:              ((instruction >> 21) & 0x01) != 0,
			L:              ((instruction >> 20) & 0x01) != 0,
			Rn:             uint8((instruction >> 16) & 0x0F),
			Rd:             uint8((instruction >> 12) & 0x0F),
			Offset:         uint32(instruction & 0x0FFF),
			ShiftType:      ARMShiftType((instruction >> 5) & 0x3),
			ShiftAmt:       uint8((instruction >> 7) & 0x1F),
		}

	case 2: // 10: block data transfer (LDM/STM) or branch/BL
		if ((instruction >> 25) & 0x01) == 0 {
			return ARMBlockDataTransferInstruction{
				ARMInstruction: ARMInstruction{Cond: cond},
				P:              ((instruction >> 24) & 0x01) != 0,
				U:              ((instruction >> 23) & 0x01) != 0,
				S:              ((instruction >> 22) & 0x01) != 0,
				W:              ((instruction >> 21) & 0x01) != 0,
				L:              ((instruction >> 20) & 0x01) != 0,
				Rn:             uint8((instruction >> 16) & 0x0F),
				RegisterList:   uint16(instruction & 0xFFFF),
			}
		}

		offset := instruction & 0x00FFFFFF
		if offset&0x00800000 != 0 {
			offset |= 0xFF000000
		}
		return ARMBranchInstruction{
			ARMInstruction: ARMInstruction{Cond: cond},
			Link:           ((instruction >> 24) & 0x01) == 1,
			TargetAddr:     offset << 2,
		}

	case 3: // 11: SWI or coprocessor (coprocessor is not used on this platform)
		if ((instruction >> 24) & 0x0F) == 0x0F {
			return ARMSWIInstruction{
				ARMInstruction: ARMInstruction{Cond: cond},
				Immediate:      instruction & 0x00FFFFFF,
			}
		}
		return ARMSWIInstruction{ARMInstruction: ARMInstruction{Cond: cond}, Immediate: 0}

	default:
		panic(fmt.Sprintf("DecodeInstruction_Arm: unreachable bits 26-27: %d", (instruction>>26)&0x03))
	}
}

func decodeDataProcessing(instruction uint32, cond ARMCondition) ARMDataProcessingInstruction {
	I := ((instruction >> 25) & 0x01) != 0
	S := ((instruction >> 20) & 0x01) != 0
	Rn := uint8((instruction >> 16) & 0x0F)
	Rd := uint8((instruction >> 12) & 0x0F)
	ShiftType := uint8((instruction >> 5) & 0x03)
	R := ((instruction >> 4) & 0x01) != 0
	Rm := uint8(instruction & 0x0F)

	var Is, Rs, Nn uint8
	switch {
	case I:
		Is = uint8((instruction >> 8) & 0x0F)
		Nn = uint8(instruction & 0xFF)
	case R:
		Rs = uint8((instruction >> 8) & 0x0F)
	default:
		Is = uint8((instruction >> 7) & 0x1F)
	}

	return ARMDataProcessingInstruction{
		ARMInstruction: ARMInstruction{Cond: cond},
		I:              I,
		Opcode:         ARMDataProcessingOperation((instruction >> 21) & 0x0F),
		S:              S,
		Rn:             Rn,
		Rd:             Rd,
		ShiftType:      ARMShiftType(ShiftType),
		R:              R,
		Is:             Is,
		Rs:             Rs,
		Nn:             Nn,
		Rm:             Rm,
	}
}

func decodeHalfwordTransfer(instruction uint32, cond ARMCondition) ARMHalfwordTransferInstruction {
	immOff := (instruction>>22)&1 != 0
	sh := (instruction >> 5) & 0x3
	var offset, rm uint32
	if immOff {
		offset = ((instruction >> 4) & 0xF0) | (instruction & 0xF)
	} else {
		rm = instruction & 0xF
	}
	return ARMHalfwordTransferInstruction{
		ARMInstruction: ARMInstruction{Cond: cond},
		P:              (instruction>>24)&1 != 0,
		U:              (instruction>>23)&1 != 0,
		W:              (instruction>>21)&1 != 0,
		L:              (instruction>>20)&1 != 0,
		ImmOff:         immOff,
		S:              sh&0x2 != 0,
		H:              sh&0x1 != 0,
		Rn:             uint8((instruction >> 16) & 0xF),
		Rd:             uint8((instruction >> 12) & 0xF),
		Offset:         offset,
		Rm:             uint8(rm),
	}
}

// isPSRTransfer recognizes MRS and both forms of MSR within the
// data-processing opcode space (TST/TEQ/CMP/CMN with S=0 are unused by
// real data processing, which PSR transfer reuses).
func isPSRTransfer(instruction uint32) bool {
	opBits := (instruction >> 23) & 0x3 // must be 10 for PSR-related encodings
	if opBits != 0x2 {
		return false
	}
	sBit := (instruction >> 20) & 1
	return sBit == 0
}

func decodePSRTransfer(instruction uint32, cond ARMCondition) ARMPSRTransferInstruction {
	toSPSR := (instruction>>22)&1 != 0
	isMRS := (instruction>>21)&1 == 0
	if isMRS {
		return ARMPSRTransferInstruction{
			ARMInstruction: ARMInstruction{Cond: cond},
			ToSPSR:         toSPSR,
			IsMRS:          true,
			Rd:             uint8((instruction >> 12) & 0xF),
		}
	}
	I := (instruction>>25)&1 != 0
	flagsOnly := (instruction>>16)&0xF != 0xF
	p := ARMPSRTransferInstruction{
		ARMInstruction: ARMInstruction{Cond: cond},
		ToSPSR:         toSPSR,
		IsMRS:          false,
		I:              I,
		FlagsOnly:      flagsOnly,
	}
	if I {
		p.Nn = uint8(instruction & 0xFF)
		p.RotateIs = uint8((instruction >> 8) & 0xF)
	} else {
		p.Rm = uint8(instruction & 0xF)
	}
	return p
}
