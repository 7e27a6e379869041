package main

import (
	"sync/atomic"

	"github.com/ebitengine/oto/v3"

	"goadvance/internal/apu"
)

// audioSink feeds a silent stream to the host's audio device while
// counting FIFO-tick edges the core notifies it of. Sample synthesis
// for FIFO A/B is out of the core's scope (see internal/apu); this
// sink exists so the domain's audio device path is exercised end to
// end even though the core never computes a waveform.
type audioSink struct {
	ctx       *oto.Context
	player    *oto.Player
	fifoTicks atomic.Uint64
}

func newAudioSink(sampleRate int) (*audioSink, error) {
	opts := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   4,
	}
	ctx, ready, err := oto.NewContext(opts)
	if err != nil {
		return nil, err
	}
	<-ready

	s := &audioSink{ctx: ctx}
	s.player = ctx.NewPlayer(s)
	s.player.Play()
	return s, nil
}

// Read implements io.Reader for oto.Player: silence, since the core
// does not synthesize samples.
func (s *audioSink) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}

// onFIFOTick is wired to apu.APU.OnFIFOTick so the notification edge
// from internal/timer's cascaded overflow actually reaches the host.
func (s *audioSink) onFIFOTick(f apu.FIFO) {
	s.fifoTicks.Add(1)
}
