package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetModeOnlyFlipsCPSRBits(t *testing.T) {
	r := NewRegisters()
	r.SetReg(13, 0x1000) // SP_svc, reset mode is SVC

	r.SetMode(IRQMode)
	assert.Equal(t, uint8(IRQMode), r.GetMode())
	assert.NotEqual(t, uint32(0x1000), r.GetReg(13), "SP_irq is a distinct bank, untouched by the mode switch")

	r.SetReg(13, 0x2000)
	r.SetMode(SVCMode)
	assert.Equal(t, uint32(0x1000), r.GetReg(13), "SP_svc retained its value across the trip through IRQ mode")

	r.SetMode(IRQMode)
	assert.Equal(t, uint32(0x2000), r.GetReg(13), "SP_irq retained its own value independently")
}

func TestFIQBanksR8ThroughR12(t *testing.T) {
	r := NewRegisters()
	r.SetReg(8, 0xAAAA)

	r.SetMode(FIQMode)
	assert.NotEqual(t, uint32(0xAAAA), r.GetReg(8), "FIQ mode banks R8-R12 separately")

	r.SetReg(8, 0xBBBB)
	r.SetMode(USRMode)
	assert.Equal(t, uint32(0xAAAA), r.GetReg(8))

	r.SetMode(FIQMode)
	assert.Equal(t, uint32(0xBBBB), r.GetReg(8))
}

func TestFlags(t *testing.T) {
	r := NewRegisters()
	r.SetFlagN(true)
	r.SetFlagZ(true)
	r.SetFlagC(true)
	r.SetFlagV(true)
	assert.True(t, r.GetFlagN())
	assert.True(t, r.GetFlagZ())
	assert.True(t, r.GetFlagC())
	assert.True(t, r.GetFlagV())

	r.SetFlagV(false)
	assert.False(t, r.GetFlagV())
	assert.True(t, r.GetFlagC(), "clearing V must not disturb C")
}

func TestSPSRPerModeBanking(t *testing.T) {
	r := NewRegisters()
	r.SetMode(IRQMode)
	r.SetSPSR(0x12345678)
	assert.Equal(t, uint32(0x12345678), r.GetSPSR())

	r.SetMode(SVCMode)
	assert.NotEqual(t, uint32(0x12345678), r.GetSPSR(), "SPSR_svc is a separate bank from SPSR_irq")
}
