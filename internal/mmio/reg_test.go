package mmio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriteRespectsWriteMask(t *testing.T) {
	r := NewReg16(0x00FF) // only the low byte is writable
	r.Write(0, 0xFF)
	r.Write(1, 0xFF)
	assert.Equal(t, uint16(0x00FF), r.Value)
}

func TestReadReturnsEachByte(t *testing.T) {
	r := NewReg16(0)
	r.Value = 0xABCD
	assert.Equal(t, uint8(0xCD), r.Read(0))
	assert.Equal(t, uint8(0xAB), r.Read(1))
}

func TestWriteOneToClear(t *testing.T) {
	r := NewReg16(0)
	r.Value = 0xFFFF
	r.WriteOneToClear(0, 0x0F)
	assert.Equal(t, uint16(0xFFF0), r.Value)
	r.WriteOneToClear(1, 0xFF)
	assert.Equal(t, uint16(0x00F0), r.Value)
}

func TestBitAndSetBit(t *testing.T) {
	r := NewReg16(0)
	r.SetBit(3, true)
	assert.True(t, r.Bit(3))
	assert.False(t, r.Bit(4))
	r.SetBit(3, false)
	assert.False(t, r.Bit(3))
}

func TestField(t *testing.T) {
	r := NewReg16(0)
	r.Value = 0b1010_1100
	assert.Equal(t, uint16(0b1011), r.Field(2, 4))
}

func TestNewReg16ZeroMaskMeansFullyWritable(t *testing.T) {
	r := NewReg16(0)
	r.Write(0, 0xFF)
	r.Write(1, 0xFF)
	assert.Equal(t, uint16(0xFFFF), r.Value)
}
