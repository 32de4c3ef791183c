package decode

import (
	"fmt"
	"time"

	"github.com/mklimuk/i2ctrace"
)

// Phase is the decoder's position within the I2C transaction grammar.
type Phase int

const (
	Idle Phase = iota
	ReadAddress
	ReadDirection
	ReadAck
	ReadData
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case ReadAddress:
		return "read-address"
	case ReadDirection:
		return "read-direction"
	case ReadAck:
		return "read-ack"
	case ReadData:
		return "read-data"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Tag is the fixed annotation vocabulary emitted on the text stream.
type Tag string

const (
	TagStart    Tag = "START"
	TagStartOdd Tag = "START(odd)"
	TagStop     Tag = "STOP"
	TagAddress  Tag = "ADDRESS"
	TagWrite    Tag = "WRITE"
	TagRead     Tag = "READ"
	TagAck      Tag = "ACK"
	TagNack     Tag = "NACK"
	TagData     Tag = "DATA"
)

type EventKind int

const (
	TextEvent EventKind = iota
	ByteEvent
)

// Event is one timestamped protocol annotation. Text events carry a Tag,
// byte events carry a reconstructed address or data byte.
type Event struct {
	Kind EventKind
	Time time.Duration
	Tag  Tag
	Byte byte
}

func textEvent(t time.Duration, tag Tag) Event {
	return Event{Kind: TextEvent, Time: t, Tag: tag}
}

func byteEvent(t time.Duration, value byte) Event {
	return Event{Kind: ByteEvent, Time: t, Byte: value}
}

// Diagnostic reports a bus transition the protocol grammar has no meaning
// for, such as a clocked bit arriving while the bus is idle. It carries the
// full before/after line state so the condition can be inspected without
// replaying the capture.
type Diagnostic struct {
	Time    time.Duration
	Phase   Phase
	LastSCL i2ctrace.Level
	LastSDA i2ctrace.Level
	SCL     i2ctrace.Level
	SDA     i2ctrace.Level
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("unhandled transition in phase %s: scl %s->%s sda %s->%s at %s",
		d.Phase, d.LastSCL, d.SCL, d.LastSDA, d.SDA, d.Time)
}

// DiagnosticSink receives decoder diagnostics. They are observability output,
// not protocol events, and never affect decode state.
type DiagnosticSink interface {
	PutDiagnostic(d Diagnostic)
}
