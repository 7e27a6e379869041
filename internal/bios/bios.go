// Package bios implements the high-level-emulation SWI service table
// spec §4.7 calls for when no firmware image is loaded: "dispatch the
// SWI number to a table of host-implemented BIOS services (memory
// copy, division, square root, decompression, arctangent,
// wait-for-VBLANK), then continue as a normal instruction." It never
// touches a real firmware dump — it substitutes host Go code for the
// handful of calls game code actually relies on.
package bios

import "math"

// Bus is the minimal memory surface a service needs to move data.
// Declared locally to avoid a bios -> bus import cycle, consistent
// with the rest of the core (cpu.Bus, dma.MemoryBus).
type Bus interface {
	Read8(addr uint32) uint8
	Write8(addr uint32, value uint8)
	Read16(addr uint32) uint16
	Write16(addr uint32, value uint16)
	Read32(addr uint32) uint32
	Write32(addr uint32, value uint32)
}

// Regs is the minimal register surface a service needs: the call
// convention passes arguments in R0-R3 and returns through the same
// registers, per the real firmware's documented ABI.
type Regs interface {
	GetReg(n uint8) uint32
	SetReg(n uint8, v uint32)
}

// Service call numbers actually dispatched. Numbering matches the real
// firmware's documented call table so that a game's SWI immediate is
// meaningful regardless of whether firmware is loaded.
const (
	Halt           = 0x02
	Stop           = 0x03
	IntrWait       = 0x04
	VBlankIntrWait = 0x05
	Div            = 0x06
	DivArm         = 0x07
	Sqrt           = 0x08
	ArcTan         = 0x09
	ArcTan2        = 0x0A
	CpuSet         = 0x0B
	CpuFastSet     = 0x0C
	LZ77UnCompWram = 0x11
	LZ77UnCompVram = 0x12
)

// HaltFunc is invoked by the Halt/Stop/*IntrWait family; the scheduler
// supplies the actual low-power-state transition (spec §4.8).
type HaltFunc func(stop bool)

// Dispatch runs the HLE service numbered `call`, reading arguments from
// and writing results to regs, operating on bus for any service that
// moves memory. Unknown call numbers are a no-op, matching undefined
// firmware call behavior (the CPU simply returns).
func Dispatch(call uint32, regs Regs, bus Bus, halt HaltFunc) {
	switch call {
	case Halt:
		if halt != nil {
			halt(false)
		}
	case Stop:
		if halt != nil {
			halt(true)
		}
	case IntrWait, VBlankIntrWait:
		if halt != nil {
			halt(false)
		}
	case Div, DivArm:
		divide(call, regs)
	case Sqrt:
		n := regs.GetReg(0)
		regs.SetReg(0, uint32(math.Sqrt(float64(n))))
	case ArcTan:
		regs.SetReg(0, arctan(int32(regs.GetReg(0))))
	case ArcTan2:
		regs.SetReg(0, arctan2(int32(regs.GetReg(0)), int32(regs.GetReg(1))))
	case CpuSet:
		cpuSet(regs, bus)
	case CpuFastSet:
		cpuFastSet(regs, bus)
	case LZ77UnCompWram, LZ77UnCompVram:
		lz77Decompress(regs, bus)
	}
}

// divide implements both Div (numerator R0, denominator R1) and its
// argument-swapped twin DivArm, returning quotient in R0, remainder in
// R1 and abs(quotient) in R3, matching the firmware's documented
// signature.
func divide(call uint32, regs Regs) {
	var num, den int32
	if call == Div {
		num, den = int32(regs.GetReg(0)), int32(regs.GetReg(1))
	} else {
		num, den = int32(regs.GetReg(1)), int32(regs.GetReg(0))
	}
	if den == 0 {
		regs.SetReg(0, 0)
		regs.SetReg(1, uint32(num))
		regs.SetReg(3, 0)
		return
	}
	q := num / den
	r := num % den
	abs := q
	if abs < 0 {
		abs = -abs
	}
	regs.SetReg(0, uint32(q))
	regs.SetReg(1, uint32(r))
	regs.SetReg(3, uint32(abs))
}

// arctan approximates the firmware's single-argument arctangent: input
// and output are 1.1.14 signed fixed-point angles spanning a quarter
// turn, per its documented range.
func arctan(x int32) uint32 {
	angle := math.Atan(float64(x) / 16384.0)
	return uint32(int32(angle / (math.Pi / 2) * 0x4000))
}

// arctan2 approximates the two-argument, full-turn arctangent; output
// is a 1.1.14 fixed-point angle spanning a full turn (0x0000-0xFFFF).
func arctan2(x, y int32) uint32 {
	angle := math.Atan2(float64(y), float64(x))
	if angle < 0 {
		angle += 2 * math.Pi
	}
	return uint32(angle / (2 * math.Pi) * 0x10000)
}

// cpuSet implements the documented word/halfword block copy or fill:
// R0 source, R1 destination, R2 packed length/mode (bit 26 selects
// 32-bit units, bit 24 selects fixed-source fill over copy).
func cpuSet(regs Regs, bus Bus) {
	src, dst, ctrl := regs.GetReg(0), regs.GetReg(1), regs.GetReg(2)
	count := ctrl & 0x1FFFFF
	fill := ctrl&(1<<24) != 0
	wordUnit := ctrl&(1<<26) != 0

	if wordUnit {
		v := bus.Read32(src)
		for i := uint32(0); i < count; i++ {
			if !fill {
				v = bus.Read32(src)
				src += 4
			}
			bus.Write32(dst, v)
			dst += 4
		}
		return
	}
	v16 := bus.Read16(src)
	for i := uint32(0); i < count; i++ {
		if !fill {
			v16 = bus.Read16(src)
			src += 2
		}
		bus.Write16(dst, v16)
		dst += 2
	}
}

// cpuFastSet is CpuSet restricted to 32-bit units in multiples of 8
// words, the firmware's fast-path variant; functionally it differs
// from CpuSet's word mode only in that count is rounded up to 8.
func cpuFastSet(regs Regs, bus Bus) {
	src, dst, ctrl := regs.GetReg(0), regs.GetReg(1), regs.GetReg(2)
	count := (ctrl & 0x1FFFFF)
	count = (count + 7) &^ 7
	fill := ctrl&(1<<24) != 0

	v := bus.Read32(src)
	for i := uint32(0); i < count; i++ {
		if !fill {
			v = bus.Read32(src)
			src += 4
		}
		bus.Write32(dst, v)
		dst += 4
	}
}

// lz77Decompress implements the firmware's LZ77 variant: a 4-byte
// header (tag byte 0x10, 24-bit decompressed size) followed by a
// stream of 8-flag control bytes, each flag selecting either a literal
// byte or a (length, distance) back-reference copied from the output
// already produced.
func lz77Decompress(regs Regs, bus Bus) {
	src, dst := regs.GetReg(0), regs.GetReg(1)
	header := bus.Read32(src)
	src += 4
	size := header >> 8
	out := make([]byte, 0, size)

	for uint32(len(out)) < size {
		flags := bus.Read8(src)
		src++
		for bit := 0; bit < 8 && uint32(len(out)) < size; bit++ {
			if flags&(0x80>>uint(bit)) == 0 {
				out = append(out, bus.Read8(src))
				src++
				continue
			}
			b0 := bus.Read8(src)
			b1 := bus.Read8(src + 1)
			src += 2
			length := int(b0>>4) + 3
			distance := int(b0&0x0F)<<8 | int(b1)
			start := len(out) - distance - 1
			for i := 0; i < length && uint32(len(out)) < size; i++ {
				out = append(out, out[start+i])
			}
		}
	}

	for i, b := range out {
		bus.Write8(dst+uint32(i), b)
	}
}
