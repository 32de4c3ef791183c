package capture

import (
	"time"

	"github.com/mklimuk/i2ctrace"
)

// Synth renders ideal SCL/SDA waveforms for known transactions, exposing the
// bus from the master's point of view (start, address, bytes, stop). The
// resulting sample stream is what a perfect capture of that traffic would
// look like, which makes it both a demo-capture generator and a decoder test
// fixture.
type Synth struct {
	quarter time.Duration
	now     time.Duration
	scl     i2ctrace.Level
	sda     i2ctrace.Level
	samples []i2ctrace.Sample
}

// NewSynth creates a generator with the given full SCL period. The bus
// starts idle, both lines high.
func NewSynth(period time.Duration) *Synth {
	s := &Synth{
		quarter: period / 4,
		scl:     i2ctrace.High,
		sda:     i2ctrace.High,
	}
	s.emit(i2ctrace.High, i2ctrace.High)
	return s
}

func (s *Synth) emit(scl, sda i2ctrace.Level) {
	s.scl, s.sda = scl, sda
	s.samples = append(s.samples, i2ctrace.Sample{Time: s.now, SCL: scl, SDA: sda})
	s.now += s.quarter
}

// Start pulls SDA low while SCL is high, then takes the clock low for the
// first bit period.
func (s *Synth) Start() {
	if s.scl == i2ctrace.Low || s.sda == i2ctrace.Low {
		// a repeated start needs both lines released first
		s.emit(i2ctrace.Low, i2ctrace.High)
		s.emit(i2ctrace.High, i2ctrace.High)
	}
	s.emit(i2ctrace.High, i2ctrace.Low)
	s.emit(i2ctrace.Low, i2ctrace.Low)
}

// Stop releases SDA while SCL is high.
func (s *Synth) Stop() {
	s.emit(i2ctrace.Low, i2ctrace.Low)
	s.emit(i2ctrace.High, i2ctrace.Low)
	s.emit(i2ctrace.High, i2ctrace.High)
}

// Bit clocks a single bit: SDA set while SCL is low, a rising edge holding
// it stable, then the falling edge.
func (s *Synth) Bit(b i2ctrace.Level) {
	s.emit(i2ctrace.Low, b)
	s.emit(i2ctrace.High, b)
	s.emit(i2ctrace.Low, b)
}

// Address clocks a 7-bit address MSB first followed by the direction bit
// (low for write, high for read).
func (s *Synth) Address(addr byte, read bool) {
	for i := 6; i >= 0; i-- {
		s.Bit(i2ctrace.Level(addr >> i & 1))
	}
	if read {
		s.Bit(i2ctrace.High)
	} else {
		s.Bit(i2ctrace.Low)
	}
}

// WriteByte clocks one data byte MSB first.
func (s *Synth) WriteByte(b byte) {
	for i := 7; i >= 0; i-- {
		s.Bit(i2ctrace.Level(b >> i & 1))
	}
}

// Ack clocks an acknowledge bit (SDA low).
func (s *Synth) Ack() {
	s.Bit(i2ctrace.Low)
}

// Nack clocks a not-acknowledge bit (SDA high).
func (s *Synth) Nack() {
	s.Bit(i2ctrace.High)
}

// Transaction renders a complete addressed transfer: START, address and
// direction, an ACK, then each data byte followed by an ACK (the last byte
// of a read is NACKed, as a master terminating the transfer would), and
// STOP.
func (s *Synth) Transaction(addr byte, read bool, data []byte) {
	s.Start()
	s.Address(addr, read)
	s.Ack()
	for i, b := range data {
		s.WriteByte(b)
		if read && i == len(data)-1 {
			s.Nack()
		} else {
			s.Ack()
		}
	}
	s.Stop()
}

// Samples returns everything rendered so far.
func (s *Synth) Samples() []i2ctrace.Sample {
	return s.samples
}

// Source returns a SampleSource over the rendered waveform.
func (s *Synth) Source() i2ctrace.SampleSource {
	return NewSliceSource(s.samples)
}
