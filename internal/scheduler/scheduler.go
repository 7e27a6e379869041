// Package scheduler implements the cooperative, single-threaded run
// loop of spec §4.8/§5: it drives the CPU one instruction at a time
// and fans the resulting cycle cost out to every event device through
// the bus, which is how the "DMA triggered by VBlank/HBlank runs
// before the next CPU instruction after the edge" ordering guarantee
// is kept without any real concurrency.
package scheduler

import (
	"goadvance/internal/addr"
	"goadvance/internal/bus"
	"goadvance/internal/cpu"
)

// Scheduler is the sole assembler of cpu and bus: nothing below it
// needs to know it exists, which is why it is allowed to import both
// concretely instead of declaring local interfaces the way the leaf
// packages do.
type Scheduler struct {
	CPU *cpu.CPU
	Bus *bus.Bus
}

// New wires a scheduler to an already-constructed CPU and bus.
func New(c *cpu.CPU, b *bus.Bus) *Scheduler {
	return &Scheduler{CPU: c, Bus: b}
}

// RunFrame advances the system by one frame's worth of cycles (spec §6
// run_frame: 280,896 cycles, the time from one VBlank edge to the
// next), honoring HALT and STOP along the way. A step that crosses the
// frame boundary runs to completion, and the excess is not carried into
// the next call.
func (s *Scheduler) RunFrame() {
	remaining := addr.CyclesPerFrame
	for remaining > 0 {
		if s.Bus.Stopped {
			// Frozen: only the keypad edge evaluated in Tick can end
			// this early. Bill cycles one at a time rather than
			// guessing how long the stop will last.
			s.Bus.Tick(1)
			remaining--
			continue
		}
		cycles := s.CPU.Step()
		s.Bus.Tick(cycles)
		remaining -= cycles
	}
}

// Step advances the system by exactly one CPU instruction (or one
// idle cycle while halted/stopped), returning the cycles billed. Used
// by tests and by a host that wants finer-grained control than
// RunFrame.
func (s *Scheduler) Step() int {
	if s.Bus.Stopped {
		s.Bus.Tick(1)
		return 1
	}
	cycles := s.CPU.Step()
	s.Bus.Tick(cycles)
	return cycles
}
