// Package apu is the audio-edge notification stub spec.md scopes out
// ("audio output sinks... are external collaborators", §1) while still
// requiring the core to surface the two edges other components depend
// on: a timer overflow tick for FIFO A/B (§4.4) and DMA1/DMA2's
// "special" start-timing trigger (§4.5). It holds just enough state
// for those edges to be observable and wired from a host frontend;
// it does not synthesize audio.
package apu

// FIFO identifies which of the two direct-sound FIFOs a timer is
// driving (selected by SOUNDCNT_H, which lives outside core scope).
type FIFO int

const (
	FIFOA FIFO = iota
	FIFOB
)

// APU tracks FIFO fill level and fires a callback on the tick edge so a
// host frontend can pull samples and feed a sink such as
// github.com/ebitengine/oto/v3 (see cmd/goadvance).
type APU struct {
	fifoLevel [2]int
	OnFIFOTick func(f FIFO)
}

func New() *APU { return &APU{} }

func (a *APU) Reset() { *a = APU{OnFIFOTick: a.OnFIFOTick} }

// Tick advances internal bookkeeping; the core's audio model beyond the
// FIFO-tick edge is out of scope, so this is presently a no-op hook
// reserved for a host-supplied sample generator.
func (a *APU) Tick(cycles int) {}

// NotifyTimerOverflow is called by internal/timer when a timer whose
// cascade feeds a FIFO (timer 0 or 1, selected by SOUNDCNT_H) overflows.
func (a *APU) NotifyTimerOverflow(f FIFO) {
	if a.OnFIFOTick != nil {
		a.OnFIFOTick(f)
	}
}
