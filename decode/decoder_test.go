package decode

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/i2ctrace"
)

// wave drives a decoder with quarter-period samples and records everything
// it emits.
type wave struct {
	dec    *Decoder
	now    time.Duration
	events []Event
	diags  []Diagnostic
}

func newWave() *wave {
	return &wave{dec: New()}
}

func (w *wave) step(scl, sda i2ctrace.Level) {
	w.now += time.Microsecond
	events, diag := w.dec.Step(scl, sda, w.now)
	w.events = append(w.events, events...)
	if diag != nil {
		w.diags = append(w.diags, *diag)
	}
}

func (w *wave) start() {
	w.step(i2ctrace.High, i2ctrace.High)
	w.step(i2ctrace.High, i2ctrace.Low)
	w.step(i2ctrace.Low, i2ctrace.Low)
}

func (w *wave) stop() {
	w.step(i2ctrace.Low, i2ctrace.Low)
	w.step(i2ctrace.High, i2ctrace.Low)
	w.step(i2ctrace.High, i2ctrace.High)
}

func (w *wave) bit(b i2ctrace.Level) {
	w.step(i2ctrace.Low, b)
	w.step(i2ctrace.High, b)
	w.step(i2ctrace.Low, b)
}

func (w *wave) bits(levels ...i2ctrace.Level) {
	for _, b := range levels {
		w.bit(b)
	}
}

func (w *wave) tags() []Tag {
	var tags []Tag
	for _, ev := range w.events {
		if ev.Kind == TextEvent {
			tags = append(tags, ev.Tag)
		}
	}
	return tags
}

func (w *wave) bytes() []byte {
	var values []byte
	for _, ev := range w.events {
		if ev.Kind == ByteEvent {
			values = append(values, ev.Byte)
		}
	}
	return values
}

func TestDecoder_NoChangeIsIdempotent(t *testing.T) {
	dec := New()
	for i := 0; i < 5; i++ {
		events, diag := dec.Step(i2ctrace.High, i2ctrace.High, time.Duration(i)*time.Microsecond)
		assert.Empty(t, events)
		assert.Nil(t, diag)
		assert.Equal(t, Idle, dec.Phase())
	}

	// mid-transaction repeats are equally inert
	w := newWave()
	w.start()
	w.bit(i2ctrace.High)
	before := *w.dec
	events, diag := w.dec.Step(i2ctrace.Low, i2ctrace.High, w.now+time.Microsecond)
	assert.Empty(t, events)
	assert.Nil(t, diag)
	assert.Equal(t, before, *w.dec)
}

func TestDecoder_RestartWithoutStop(t *testing.T) {
	w := newWave()
	w.start()
	require.Equal(t, []Tag{TagStart}, w.tags())
	assert.EqualValues(t, 0, w.dec.bitPos)

	// a couple of address bits, then SDA released and pulled low again
	// while SCL is high: a restart with no intervening stop
	w.bits(i2ctrace.High, i2ctrace.Low)
	assert.EqualValues(t, 2, w.dec.bitPos)
	w.step(i2ctrace.Low, i2ctrace.High)
	w.step(i2ctrace.High, i2ctrace.High)
	w.step(i2ctrace.High, i2ctrace.Low)

	assert.Equal(t, TagStartOdd, w.tags()[len(w.tags())-1])
	assert.Equal(t, ReadAddress, w.dec.Phase())
	assert.EqualValues(t, 0, w.dec.bitPos)
	assert.EqualValues(t, 0, w.dec.acc)
}

func TestDecoder_FullWriteTransaction(t *testing.T) {
	w := newWave()
	w.start()
	// address 0x2C, write
	w.bits(0, 1, 0, 1, 1, 0, 0)
	w.bit(i2ctrace.Low) // direction: write
	w.bit(i2ctrace.Low) // slave acks
	// data byte 0xA7
	w.bits(1, 0, 1, 0, 0, 1, 1, 1)
	w.bit(i2ctrace.Low) // slave acks
	w.stop()

	assert.Equal(t, []Tag{TagStart, TagAddress, TagWrite, TagAck, TagData, TagAck, TagStop}, w.tags())
	assert.Equal(t, []byte{0x2C, 0xA7}, w.bytes())
	assert.Equal(t, Idle, w.dec.Phase())
	assert.Empty(t, w.diags)
}

func TestDecoder_FullReadTransaction(t *testing.T) {
	w := newWave()
	w.start()
	// address 0x68, read
	w.bits(1, 1, 0, 1, 0, 0, 0)
	w.bit(i2ctrace.High) // direction: read
	w.bit(i2ctrace.Low)  // slave acks
	// two data bytes, master acks the first and nacks the last
	w.bits(0, 0, 0, 1, 0, 0, 0, 1)
	w.bit(i2ctrace.Low)
	w.bits(1, 1, 1, 1, 0, 0, 0, 0)
	w.bit(i2ctrace.High)
	w.stop()

	assert.Equal(t, []Tag{
		TagStart, TagAddress, TagRead, TagAck,
		TagData, TagAck, TagData, TagNack, TagStop,
	}, w.tags())
	assert.Equal(t, []byte{0x68, 0x11, 0xF0}, w.bytes())
}

func TestDecoder_AddressAssembly(t *testing.T) {
	w := newWave()
	w.start()
	w.bits(1, 0, 1, 0, 1, 0, 1)
	require.Equal(t, []Tag{TagStart, TagAddress}, w.tags())
	assert.Equal(t, []byte{0x55}, w.bytes())
	assert.Equal(t, ReadDirection, w.dec.Phase())
}

func TestDecoder_DataAssembly(t *testing.T) {
	w := newWave()
	w.start()
	w.bits(0, 0, 0, 0, 0, 0, 0) // address
	w.bit(i2ctrace.Low)         // write
	w.bit(i2ctrace.Low)         // ack
	w.bits(1, 1, 0, 0, 1, 1, 0, 0)
	assert.Equal(t, []byte{0x00, 0xCC}, w.bytes())
	assert.Equal(t, TagData, w.tags()[len(w.tags())-1])
}

func TestDecoder_StopAlwaysReturnsToIdle(t *testing.T) {
	phases := []Phase{Idle, ReadAddress, ReadDirection, ReadAck, ReadData}
	for _, phase := range phases {
		t.Run(phase.String(), func(t *testing.T) {
			dec := &Decoder{phase: phase, lastSCL: i2ctrace.High, lastSDA: i2ctrace.Low}
			events, diag := dec.Step(i2ctrace.High, i2ctrace.High, time.Microsecond)
			require.Len(t, events, 1)
			assert.Equal(t, TagStop, events[0].Tag)
			assert.Nil(t, diag)
			assert.Equal(t, Idle, dec.Phase())
		})
	}
}

func TestDecoder_ClockedBitWhileIdle(t *testing.T) {
	w := newWave()
	w.bit(i2ctrace.High)
	w.bit(i2ctrace.Low)

	require.Len(t, w.diags, 2)
	d := w.diags[0]
	assert.Equal(t, Idle, d.Phase)
	assert.Equal(t, i2ctrace.Low, d.LastSCL)
	assert.Equal(t, i2ctrace.High, d.LastSDA)
	assert.Equal(t, i2ctrace.High, d.SCL)
	assert.Equal(t, i2ctrace.High, d.SDA)
	// no bits were accumulated
	assert.EqualValues(t, 0, w.dec.bitPos)
	assert.EqualValues(t, 0, w.dec.acc)
}

func TestDecoder_Determinism(t *testing.T) {
	run := func() ([]Event, []Diagnostic) {
		w := newWave()
		w.start()
		w.bits(1, 0, 1, 0, 1, 0, 1)
		w.bit(i2ctrace.High)
		w.bit(i2ctrace.High) // nack
		w.bits(0, 1, 1, 0, 1, 0, 0, 1)
		w.bit(i2ctrace.Low)
		w.stop()
		w.bit(i2ctrace.High) // stray edge on the idle bus
		return w.events, w.diags
	}
	firstEvents, firstDiags := run()
	secondEvents, secondDiags := run()
	assert.Equal(t, firstEvents, secondEvents)
	assert.Equal(t, firstDiags, secondDiags)
}
