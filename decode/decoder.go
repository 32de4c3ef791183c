// Package decode reconstructs I2C transactions from a stream of settled
// SCL/SDA logic levels. The decoder is a pure sequential state machine:
// one Step call per sample, zero to two events out, no I/O and no internal
// goroutines. Independent captures get independent Decoder instances.
package decode

import (
	"time"

	"github.com/mklimuk/i2ctrace"
)

const (
	addressBits = 7
	dataBits    = 8
)

// Decoder holds the per-session protocol state. The zero value is not
// usable; construct with New, which assumes an idle bus (both lines high).
type Decoder struct {
	phase   Phase
	lastSCL i2ctrace.Level
	lastSDA i2ctrace.Level
	bitPos  uint8
	acc     byte
}

func New() *Decoder {
	return &Decoder{
		phase:   Idle,
		lastSCL: i2ctrace.High,
		lastSDA: i2ctrace.High,
	}
}

// Phase returns the decoder's current position in the transaction grammar.
func (d *Decoder) Phase() Phase {
	return d.phase
}

// Step consumes one sample and returns the protocol events it completes,
// if any, plus an optional diagnostic for transitions the grammar cannot
// place. Samples must arrive in non-decreasing time order. Step never fails:
// anomalies are surfaced as values and decoding continues best-effort.
func (d *Decoder) Step(scl, sda i2ctrace.Level, t time.Duration) ([]Event, *Diagnostic) {
	var events []Event
	var diag *Diagnostic

	switch classify(d.lastSCL, d.lastSDA, scl, sda) {
	case transNone, transClockFall, transSetup:
		// nothing to decode

	case transStart:
		// A start is bus-valid in any phase. Outside Idle it is flagged
		// rather than suppressed: evidence of a dropped STOP or contention.
		if d.phase == Idle {
			events = append(events, textEvent(t, TagStart))
		} else {
			events = append(events, textEvent(t, TagStartOdd))
		}
		d.phase = ReadAddress
		d.resetByte()

	case transStop:
		events = append(events, textEvent(t, TagStop))
		d.phase = Idle

	case transBit:
		events, diag = d.sampleBit(sda, t)
		if diag != nil {
			diag.LastSCL, diag.LastSDA = d.lastSCL, d.lastSDA
			diag.SCL, diag.SDA = scl, sda
		}
	}

	d.lastSCL = scl
	d.lastSDA = sda
	return events, diag
}

// sampleBit advances the protocol state machine on an SCL rising edge,
// taking the current SDA level as the sampled bit.
func (d *Decoder) sampleBit(sda i2ctrace.Level, t time.Duration) ([]Event, *Diagnostic) {
	switch d.phase {
	case ReadAddress:
		d.acc |= byte(sda) << (addressBits - 1 - d.bitPos)
		d.bitPos++
		if d.bitPos < addressBits {
			return nil, nil
		}
		addr := d.acc
		d.resetByte()
		d.phase = ReadDirection
		return []Event{textEvent(t, TagAddress), byteEvent(t, addr)}, nil

	case ReadDirection:
		d.phase = ReadAck
		if sda == i2ctrace.Low {
			return []Event{textEvent(t, TagWrite)}, nil
		}
		return []Event{textEvent(t, TagRead)}, nil

	case ReadAck:
		d.phase = ReadData
		d.resetByte()
		if sda == i2ctrace.Low {
			return []Event{textEvent(t, TagAck)}, nil
		}
		return []Event{textEvent(t, TagNack)}, nil

	case ReadData:
		d.acc |= byte(sda) << (dataBits - 1 - d.bitPos)
		d.bitPos++
		if d.bitPos < dataBits {
			return nil, nil
		}
		value := d.acc
		d.resetByte()
		d.phase = ReadAck
		return []Event{byteEvent(t, value), textEvent(t, TagData)}, nil

	default:
		// A clocked bit with no transaction open. Line state is filled in
		// by Step, which still has both samples at hand.
		return nil, &Diagnostic{Time: t, Phase: d.phase}
	}
}

func (d *Decoder) resetByte() {
	d.bitPos = 0
	d.acc = 0
}
