package main

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"goadvance"
	"goadvance/internal/addr"
	"goadvance/internal/joypad"
)

// frontend wires a *goadvance.System to ebiten's game loop: it pumps
// host key state in every Update, runs exactly one emulated frame, and
// blits the composited framebuffer out every Draw.
type frontend struct {
	sys       *goadvance.System
	fb        []uint32
	img       *ebiten.Image
	pixels    []byte
	frameskip uint8
	skipped   uint8
}

var keyBits = []struct {
	key ebiten.Key
	bit uint
}{
	{ebiten.KeyZ, joypad.A},
	{ebiten.KeyX, joypad.B},
	{ebiten.KeyBackspace, joypad.Select},
	{ebiten.KeyEnter, joypad.Start},
	{ebiten.KeyArrowRight, joypad.Right},
	{ebiten.KeyArrowLeft, joypad.Left},
	{ebiten.KeyArrowUp, joypad.Up},
	{ebiten.KeyArrowDown, joypad.Down},
	{ebiten.KeyS, joypad.R},
	{ebiten.KeyA, joypad.L},
}

func newFrontend(sys *goadvance.System, frameskip uint8) (*frontend, error) {
	fb := make([]uint32, goadvance.FramebufferPixels)
	if err := sys.SetFramebuffer(fb); err != nil {
		return nil, err
	}
	return &frontend{
		sys:       sys,
		fb:        fb,
		img:       ebiten.NewImage(addr.ScreenWidth, addr.ScreenHeight),
		pixels:    make([]byte, goadvance.FramebufferPixels*4),
		frameskip: frameskip,
	}, nil
}

func (f *frontend) Update() error {
	if ebiten.IsWindowBeingClosed() {
		return ebiten.Termination
	}

	var mask uint16 = 0x03FF
	for _, kb := range keyBits {
		if ebiten.IsKeyPressed(kb.key) {
			mask &^= 1 << kb.bit
		}
	}
	f.sys.SetKeypad(mask)

	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		f.sys.Reset()
	}

	if err := f.sys.RunFrame(); err != nil {
		return err
	}
	return nil
}

func (f *frontend) Draw(screen *ebiten.Image) {
	if f.sys.IsFrameReady() {
		f.blit()
		f.sys.ResetFrameReady()
	}
	if f.frameskip == 0 || f.skipped >= f.frameskip {
		screen.DrawImage(f.img, nil)
		f.skipped = 0
	} else {
		f.skipped++
		screen.Fill(color.Black)
	}
}

func (f *frontend) blit() {
	for i, px := range f.fb {
		f.pixels[i*4+0] = byte(px >> 16) // R
		f.pixels[i*4+1] = byte(px >> 8)  // G
		f.pixels[i*4+2] = byte(px)       // B
		f.pixels[i*4+3] = 0xFF           // A
	}
	f.img.WritePixels(f.pixels)
}

func (f *frontend) Layout(_, _ int) (int, int) {
	return addr.ScreenWidth, addr.ScreenHeight
}
