package goadvance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goadvance/internal/addr"
)

func testROM() []byte {
	rom := make([]byte, 0x1000)
	// Branch-to-self at the cartridge entry point so RunFrame has
	// somewhere safe to execute without needing real game code.
	rom[0], rom[1], rom[2], rom[3] = 0xFE, 0xFF, 0xFF, 0xEA
	return rom
}

func TestNewWiresEverySubsystem(t *testing.T) {
	sys, err := New(Config{})
	require.NoError(t, err)
	assert.NotNil(t, sys.bus)
	assert.NotNil(t, sys.cpu)
	assert.NotNil(t, sys.sched)
}

func TestLoadFirmwareRejectsWrongSize(t *testing.T) {
	sys, err := New(Config{})
	require.NoError(t, err)

	err = sys.LoadFirmware([]byte{0x00, 0x01})
	assert.ErrorIs(t, err, ErrFirmwareSize)
}

func TestSetFramebufferValidatesLength(t *testing.T) {
	sys, err := New(Config{})
	require.NoError(t, err)

	assert.ErrorIs(t, sys.SetFramebuffer(nil), ErrNoFramebuffer)
	assert.ErrorIs(t, sys.SetFramebuffer(make([]uint32, 3)), ErrBadFramebuffer)

	fb := make([]uint32, FramebufferPixels)
	assert.NoError(t, sys.SetFramebuffer(fb))
}

func TestRunFrameRequiresCartridge(t *testing.T) {
	sys, err := New(Config{})
	require.NoError(t, err)

	err = sys.RunFrame()
	assert.ErrorIs(t, err, ErrNoCartridge)
}

func TestSkipBiosBootsDirectlyIntoCartridge(t *testing.T) {
	sys, err := New(Config{SkipBios: true})
	require.NoError(t, err)
	require.NoError(t, sys.LoadCartridge(testROM(), nil))

	assert.Equal(t, uint32(0x08000000), sys.cpu.Registers.PC-8)
	assert.NotNil(t, sys.cpu.OnSWI, "skip_bios must route SWI to the HLE dispatch table")
}

func TestFramebufferPixelsMatchesScreenDimensions(t *testing.T) {
	assert.Equal(t, addr.ScreenWidth*addr.ScreenHeight, FramebufferPixels)
}

func TestNewPropagatesFrameskipToPPU(t *testing.T) {
	sys, err := New(Config{Frameskip: 3})
	require.NoError(t, err)
	assert.Equal(t, uint8(3), sys.ppu.Frameskip, "the core's own render-skip must honor Config.Frameskip")
}
