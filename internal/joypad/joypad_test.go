package joypad

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetKeysAndPressed(t *testing.T) {
	j := New()
	assert.False(t, j.Pressed(A), "all keys released at reset")

	j.SetKeys(^uint16(1 << A))
	assert.True(t, j.Pressed(A))
	assert.False(t, j.Pressed(B))
}

func TestInterruptConditionOR(t *testing.T) {
	j := New()
	j.Cnt.SetBit(14, true) // IRQ enable
	j.Cnt.Value |= 1 << A  // select A in OR mode (bit 15 = 0)

	j.SetKeys(0x03FF) // nothing held
	assert.False(t, j.InterruptCondition())

	j.SetKeys(^uint16(1 << A))
	assert.True(t, j.InterruptCondition())
}

func TestInterruptConditionAND(t *testing.T) {
	j := New()
	j.Cnt.SetBit(14, true)
	j.Cnt.SetBit(15, true) // AND mode
	j.Cnt.Value |= (1 << A) | (1 << B)

	j.SetKeys(^uint16(1 << A)) // only A held
	assert.False(t, j.InterruptCondition(), "AND mode requires every selected button")

	j.SetKeys(^uint16((1 << A) | (1 << B)))
	assert.True(t, j.InterruptCondition())
}
