package memory

import "goadvance/internal/addr"

// Firmware holds an optional 16 KiB boot ROM image (spec §6:
// load_firmware accepts exactly 16 KiB; Load rejects any other size).
// It is read-only to the CPU. When no firmware has been
// loaded, the core is expected to run with skip_bios set, servicing
// SWI through internal/bios's HLE table instead of firmware code.
type Firmware struct {
	data   [addr.FirmwareSize]byte
	loaded bool
}

func NewFirmware() *Firmware { return &Firmware{} }

// Load installs a firmware image, replacing any previous one. Returns
// false, leaving the previous image in place, unless img is exactly the
// 16 KiB size of the firmware region.
func (f *Firmware) Load(img []byte) bool {
	if len(img) != addr.FirmwareSize {
		return false
	}
	f.data = [addr.FirmwareSize]byte{}
	copy(f.data[:], img)
	f.loaded = true
	return true
}

func (f *Firmware) Loaded() bool { return f.loaded }

func (f *Firmware) Read8(off uint32) uint8 {
	if off >= addr.FirmwareSize {
		return 0
	}
	return f.data[off]
}

// Write8 is a no-op: firmware is read-only to the CPU (spec §4.1).
func (f *Firmware) Write8(off uint32, v uint8) {}
