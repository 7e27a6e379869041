// Package memory implements the flat byte-addressable RAM regions
// owned directly by the bus: system work RAM, internal work RAM, and
// the optional firmware image (spec §3, §6 load_firmware).
package memory

import "goadvance/internal/addr"

// EWRAM is the 256 KiB system work RAM, accessed over a 16-bit bus.
type EWRAM struct {
	data [addr.EWRAMSize]byte
}

func NewEWRAM() *EWRAM { return &EWRAM{} }

func (e *EWRAM) Read8(off uint32) uint8     { return e.data[off%addr.EWRAMSize] }
func (e *EWRAM) Write8(off uint32, v uint8) { e.data[off%addr.EWRAMSize] = v }
