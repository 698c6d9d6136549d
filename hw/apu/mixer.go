package apu

import (
	"github.com/arl/blip"

	"nescore/hw/hwdefs"
)

var (
	pulseTable [31]float64
	tndTable   [203]float64
)

func init() {
	for i := 1; i < len(pulseTable); i++ {
		pulseTable[i] = 95.52 / (8128/float64(i) + 100)
	}
	for i := 1; i < len(tndTable); i++ {
		tndTable[i] = 163.67 / (24329/float64(i) + 100)
	}
}

// mix combines the channel outputs with the non-linear mixing tables.
func mix(sq1, sq2, tri, noise, dmc uint8) float64 {
	return pulseTable[sq1+sq2] + tndTable[3*int(tri)+2*int(noise)+int(dmc)]
}

const (
	// Scales the mixer output, in [0,1), to 16-bit samples.
	outputScale = 24000

	// The blip buffer is flushed at least every flushCycles cycles, so that
	// the APU can run indefinitely without the caller draining samples.
	flushCycles = 1 << 15
)

// Mixer receives one native sample per CPU cycle and resamples them to the
// host sample rate with a band-limited buffer.
type Mixer struct {
	bl         *blip.Buffer
	sampleRate int

	out   float64 // last native sample
	amp   int32   // last amplitude fed to the blip buffer
	clock uint64  // cycles since last flush

	samples    []int16
	maxSamples int
}

func newMixer(sampleRate int) *Mixer {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	m := &Mixer{
		sampleRate: sampleRate,
		maxSamples: sampleRate,
	}
	m.bl = blip.NewBuffer(sampleRate / 10)
	m.bl.SetRates(hwdefs.CPUClockRate, float64(sampleRate))
	return m
}

// SampleRate returns the host sample rate.
func (m *Mixer) SampleRate() int { return m.sampleRate }

// Output returns the last native sample, in [0,1).
func (m *Mixer) Output() float64 { return m.out }

func (m *Mixer) reset() {
	m.bl.Clear()
	m.out = 0
	m.amp = 0
	m.clock = 0
	m.samples = m.samples[:0]
}

func (m *Mixer) add(out float64) {
	m.out = out
	if amp := int32(out * outputScale); amp != m.amp {
		m.bl.AddDelta(m.clock, amp-m.amp)
		m.amp = amp
	}
	m.clock++
	if m.clock >= flushCycles {
		m.flush()
	}
}

// flush ends the current blip frame and appends the produced samples.
func (m *Mixer) flush() {
	if m.clock == 0 {
		return
	}
	m.bl.EndFrame(int(m.clock))
	m.clock = 0

	n := m.bl.SamplesAvailable()
	start := len(m.samples)
	m.samples = append(m.samples, make([]int16, n)...)
	m.bl.ReadSamples(m.samples[start:], n, blip.Mono)

	// Drop the oldest samples if nobody drains them.
	if over := len(m.samples) - m.maxSamples; over > 0 {
		m.samples = append(m.samples[:0], m.samples[over:]...)
	}
}

// drain returns all samples produced so far.
func (m *Mixer) drain() []int16 {
	m.flush()
	out := make([]int16, len(m.samples))
	copy(out, m.samples)
	m.samples = m.samples[:0]
	return out
}
