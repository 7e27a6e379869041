package irq

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPendingRequiresIMEAndMaskedIF(t *testing.T) {
	c := New()
	c.Raise(3) // IRQTimer0

	assert.False(t, c.Pending(), "IE not yet set")
	assert.False(t, c.AnyLatched(), "IE not yet set either")

	c.IE.Value = 1 << 3
	assert.False(t, c.Pending(), "IME still disabled")
	assert.True(t, c.AnyLatched(), "AnyLatched ignores IME")

	c.IME.Value = 1
	assert.True(t, c.Pending())
}

func TestWriteOneToClearIF(t *testing.T) {
	c := New()
	c.Raise(0)
	c.Raise(1)

	c.WriteByte(2, 1<<0) // clear bit 0 only
	assert.False(t, c.IF.Bit(0))
	assert.True(t, c.IF.Bit(1))
}

func TestIMEByteWindow(t *testing.T) {
	c := New()
	c.WriteByte(8, 1)
	assert.Equal(t, uint8(1), c.ReadByte(8))
	assert.True(t, c.IME.Bit(0))
}
