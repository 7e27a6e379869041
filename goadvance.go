// Package goadvance is the facade of spec.md §6: the single entry
// point a host uses to run the core. It owns every subsystem and is
// the only package that imports both the cpu and bus concrete types
// directly; nothing below it knows this package exists.
package goadvance

import (
	"errors"
	"fmt"
	"log/slog"

	"goadvance/internal/addr"
	"goadvance/internal/apu"
	"goadvance/internal/bios"
	"goadvance/internal/bus"
	"goadvance/internal/cartridge"
	"goadvance/internal/cpu"
	"goadvance/internal/dma"
	"goadvance/internal/irq"
	"goadvance/internal/joypad"
	"goadvance/internal/ppu"
	"goadvance/internal/scheduler"
	"goadvance/internal/timer"
)

// Config selects the host-tunable knobs of spec.md §6: how many
// rendered frames to skip, whether to darken the composited output,
// and whether to run without a loaded firmware image.
type Config struct {
	Frameskip    uint8
	DarkenScreen bool
	SkipBios     bool
}

// Errors returned for the host-contract violations of spec.md §7.
// Runtime soft faults (bad opcodes, unmapped accesses) are never
// returned here: they are logged via slog and handled through the
// normal exception-vector machinery. The core never aborts the
// process. It never panics on game code.
var (
	ErrNoFramebuffer  = errors.New("goadvance: framebuffer not set")
	ErrBadFramebuffer = errors.New("goadvance: framebuffer has wrong length")
	ErrNoCartridge    = errors.New("goadvance: no cartridge loaded")
	ErrFirmwareSize   = errors.New("goadvance: firmware image must be exactly 16 KiB")
)

// FramebufferPixels is the ARGB pixel count of spec.md §6's
// set_framebuffer contract: ScreenWidth * ScreenHeight.
const FramebufferPixels = addr.ScreenWidth * addr.ScreenHeight

// System is the assembled console: every subsystem wired together
// behind the bus, plus the scheduler that drives them. It is the sole
// owner of all of its subsystems; nothing else holds a reference to
// them.
type System struct {
	cfg Config

	irq     *irq.Controller
	apu     *apu.APU
	ppu     *ppu.PPU
	dma     *dma.Controller
	timers  *timer.Controller
	keypad  *joypad.Joypad
	cart    *cartridge.Cartridge
	bus     *bus.Bus
	cpu     *cpu.CPU
	sched   *scheduler.Scheduler

	log *slog.Logger
}

// New assembles a System from cfg. It never fails on its own: every
// subsystem constructs unconditionally, and the only way New would
// need to report an error is a future config validation, so it
// returns error now to keep that door open without breaking callers.
func New(cfg Config) (*System, error) {
	s := &System{cfg: cfg, log: slog.Default()}

	s.irq = irq.New()
	s.apu = apu.New()
	s.ppu = ppu.New(s.irq)
	s.ppu.SetDarken(cfg.DarkenScreen)
	s.ppu.Frameskip = cfg.Frameskip
	s.dma = dma.New(s.irq)
	s.timers = timer.New(s.irq, s.apu)
	s.keypad = joypad.New()

	s.bus = bus.New(s.irq, s.apu, s.ppu, s.dma, s.timers, s.keypad)
	s.cpu = cpu.NewCPU(s.bus, s.irq)
	s.bus.SetPCProvider(func() uint32 { return s.cpu.Registers.PC })
	s.bus.OnHalt = s.onHalt
	s.sched = scheduler.New(s.cpu, s.bus)

	s.applyBiosMode()
	if cfg.SkipBios {
		s.bootWithoutFirmware()
	}
	return s, nil
}

// onHalt reacts to a HALTCNT write: the bus has already recorded
// whether this was a HALT or a STOP, so the CPU only needs to learn
// about the HALT half (STOP is tracked entirely on the bus side since
// it also freezes PPU/timer/DMA ticking).
func (s *System) onHalt() {
	if !s.bus.Stopped {
		s.cpu.Halted = true
	}
}

// applyBiosMode wires the CPU's SWI interception to the host-level
// emulation table whenever there is no real firmware to service the
// call: either the host asked to skip it, or none was ever loaded.
// Loading firmware later re-evaluates this and removes the hook.
func (s *System) applyBiosMode() {
	if s.cfg.SkipBios || !s.bus.Firmware.Loaded() {
		s.cpu.OnSWI = func(num uint32) {
			bios.Dispatch(num, s.cpu.Registers, s.bus, func(stop bool) {
				if stop {
					s.bus.Stopped = true
				} else {
					s.cpu.Halted = true
				}
			})
		}
	} else {
		s.cpu.OnSWI = nil
	}
}

// bootWithoutFirmware seeds the banked stack pointers and enters the
// game's entry point directly, the state a real firmware's startup
// code would otherwise have left behind by the time it jumps to
// cartridge code.
func (s *System) bootWithoutFirmware() {
	r := s.cpu.Registers
	r.SetMode(cpu.SVCMode)
	r.SP_svc = 0x03007FE0
	r.SetMode(cpu.IRQMode)
	r.SP_irq = 0x03007FA0
	r.SetMode(cpu.SYSMode)
	r.SP_usr = 0x03007F00
	r.SetIRQDisabled(false)
	r.SetFIQDisabled(false)
	r.PC = 0x08000000
	s.cpu.FlushPipeline()
}

// LoadFirmware installs a firmware image. It must be exactly
// FirmwareSize bytes; anything else is a load-time configuration
// error per spec.md §7 and the image is rejected outright.
func (s *System) LoadFirmware(image []byte) error {
	if !s.bus.Firmware.Load(image) {
		return fmt.Errorf("%w: got %d bytes", ErrFirmwareSize, len(image))
	}
	s.applyBiosMode()
	return nil
}

// LoadCartridge installs ROM (and optional battery-backed save) data,
// auto-detecting the save type from the ROM's id strings the same way
// internal/cartridge does.
func (s *System) LoadCartridge(rom []byte, save []byte) error {
	c, err := cartridge.New(rom, save)
	if err != nil {
		return fmt.Errorf("goadvance: %w", err)
	}
	s.cart = c
	s.bus.LoadCartridge(c)
	return nil
}

// SaveData returns the current contents of cartridge save memory, or
// nil if no cartridge with battery-backed save is loaded.
func (s *System) SaveData() []byte {
	if s.cart == nil {
		return nil
	}
	return s.cart.Save
}

// SetFramebuffer installs the host's pixel backing store. fb must be
// exactly FramebufferPixels long; the PPU writes composited scanlines
// directly into it as it renders.
func (s *System) SetFramebuffer(fb []uint32) error {
	if fb == nil {
		return ErrNoFramebuffer
	}
	if len(fb) != FramebufferPixels {
		return fmt.Errorf("%w: want %d, got %d", ErrBadFramebuffer, FramebufferPixels, len(fb))
	}
	s.ppu.SetFramebuffer(fb)
	return nil
}

// SetFIFOTickHandler wires a host audio sink to the direct-sound
// FIFO-tick edge (spec.md §4.4); see internal/apu for why the core
// stops at the edge instead of synthesizing samples itself.
func (s *System) SetFIFOTickHandler(fn func(apu.FIFO)) {
	s.apu.OnFIFOTick = fn
}

// SetKeypad updates the current button state. mask follows the
// KEYINPUT convention: a set bit means the corresponding button is
// released.
func (s *System) SetKeypad(mask uint16) {
	s.keypad.SetKeys(mask)
}

// RunFrame advances the system by exactly one frame (spec.md §6:
// CyclesPerFrame cycles).
func (s *System) RunFrame() error {
	if s.cart == nil {
		return ErrNoCartridge
	}
	s.sched.RunFrame()
	return nil
}

// IsFrameReady reports whether the PPU has completed compositing the
// current frame into the installed framebuffer.
func (s *System) IsFrameReady() bool {
	return s.ppu.IsFrameReady()
}

// ResetFrameReady clears the frame-ready flag after the host has
// consumed a completed frame.
func (s *System) ResetFrameReady() {
	s.ppu.ResetFrameReady()
}

// Reset re-enters the power-on state without discarding the loaded
// firmware or cartridge, mirroring spec.md §6's reset operation.
func (s *System) Reset() {
	s.irq.Reset()
	s.apu.Reset()
	s.ppu.Reset()
	s.dma.Reset()
	s.timers.Reset()
	s.keypad.Reset()
	s.bus.Reset()
	s.cpu.Reset()
	s.applyBiosMode()
	if s.cfg.SkipBios {
		s.bootWithoutFirmware()
	}
}
