package cartridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectSaveTypeFromIDString(t *testing.T) {
	rom := append([]byte("some header bytes "), []byte("EEPROM_V120")...)
	assert.Equal(t, SaveEEPROM8K, DetectSaveType(rom))

	rom = append([]byte("padding"), []byte("FLASH1M_V103")...)
	assert.Equal(t, SaveFlash128K, DetectSaveType(rom))

	assert.Equal(t, SaveNone, DetectSaveType([]byte("no markers here")))
}

func TestNewAllocatesZeroedSaveWhenNil(t *testing.T) {
	rom := []byte("SRAM_V113")
	c, err := New(rom, nil)
	require.NoError(t, err)
	assert.Equal(t, SaveSRAM, c.SaveType)
	assert.Len(t, c.Save, 32*1024)
}

func TestNewRejectsMismatchedSaveSize(t *testing.T) {
	rom := []byte("SRAM_V113")
	_, err := New(rom, make([]byte, 100))
	assert.Error(t, err)
}

func TestNewRejectsOversizedROM(t *testing.T) {
	_, err := New(make([]byte, 33*1024*1024), nil)
	assert.Error(t, err)
}

func TestReadROM8OpenBusPastEnd(t *testing.T) {
	rom := []byte{0x11, 0x22, 0x33}
	c, err := New(rom, nil)
	require.NoError(t, err)
	assert.Equal(t, uint8(0x11), c.ReadROM8(0))
	_ = c.ReadROM8(10) // must not panic past the ROM's end
}
