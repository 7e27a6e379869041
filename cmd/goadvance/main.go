// Command goadvance runs a cartridge image against the goadvance core,
// displaying it through an ebiten window.
package main

import (
	"fmt"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/spf13/cobra"

	"goadvance"
	"goadvance/internal/addr"
	"goadvance/rom"
)

func main() {
	var (
		firmwarePath string
		savePath     string
		frameskip    uint8
		darken       bool
		skipBios     bool
		scale        int
	)

	runCmd := &cobra.Command{
		Use:   "goadvance <rom.gba>",
		Short: "Run a cartridge image against the goadvance core",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0], firmwarePath, savePath, goadvance.Config{
				Frameskip:    frameskip,
				DarkenScreen: darken,
				SkipBios:     skipBios,
			}, scale)
		},
	}
	runCmd.Flags().StringVar(&firmwarePath, "firmware", "", "path to a 16 KiB firmware image")
	runCmd.Flags().StringVar(&savePath, "save", "", "path to a battery-backed save file")
	runCmd.Flags().Uint8Var(&frameskip, "frameskip", 0, "render every (frameskip+1)th frame")
	runCmd.Flags().BoolVar(&darken, "darken-screen", false, "darken the composited output")
	runCmd.Flags().BoolVar(&skipBios, "skip-bios", false, "boot straight into cartridge code")
	runCmd.Flags().IntVar(&scale, "scale", 3, "window scale factor")

	if err := runCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(romPath, firmwarePath, savePath string, cfg goadvance.Config, scale int) error {
	cart, err := rom.Load(romPath)
	if err != nil {
		return fmt.Errorf("goadvance: %w", err)
	}
	var save []byte
	if savePath != "" {
		save, err = os.ReadFile(savePath)
		if err != nil {
			return fmt.Errorf("goadvance: %w", err)
		}
	}

	sys, err := goadvance.New(cfg)
	if err != nil {
		return err
	}

	if firmwarePath != "" {
		firmware, err := os.ReadFile(firmwarePath)
		if err != nil {
			return fmt.Errorf("goadvance: %w", err)
		}
		if err := sys.LoadFirmware(firmware); err != nil {
			return err
		}
	}

	if err := sys.LoadCartridge(cart.Data, save); err != nil {
		return err
	}

	sink, err := newAudioSink(32768)
	if err != nil {
		return fmt.Errorf("goadvance: audio init: %w", err)
	}
	sys.SetFIFOTickHandler(sink.onFIFOTick)

	fe, err := newFrontend(sys, cfg.Frameskip)
	if err != nil {
		return err
	}

	ebiten.SetWindowSize(addr.ScreenWidth*scale, addr.ScreenHeight*scale)
	ebiten.SetWindowTitle("goadvance")
	ebiten.SetWindowResizable(true)
	return ebiten.RunGame(fe)
}
