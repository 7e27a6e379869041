package memory

import "goadvance/internal/addr"

// IWRAM is the 32 KiB internal work RAM, accessed over a 32-bit bus.
type IWRAM struct {
	data [addr.IWRAMSize]byte
}

func NewIWRAM() *IWRAM { return &IWRAM{} }

func (i *IWRAM) Read8(off uint32) uint8     { return i.data[off%addr.IWRAMSize] }
func (i *IWRAM) Write8(off uint32, v uint8) { i.data[off%addr.IWRAMSize] = v }
