package i2ctrace

import (
	"fmt"
	"time"
)

var ErrNonMonotonic = fmt.Errorf("samples out of time order")

// Level is a settled logic level on a bus line.
type Level uint8

const (
	Low  Level = 0
	High Level = 1
)

func (l Level) String() string {
	if l == Low {
		return "0"
	}
	return "1"
}

// Sample is one observation of both bus lines. Time is the offset from the
// start of the capture.
type Sample struct {
	Time time.Duration
	SCL  Level
	SDA  Level
}

// SampleSource produces samples in non-decreasing time order and returns
// io.EOF once the capture is exhausted.
type SampleSource interface {
	Next() (Sample, error)
}

// ByteSink receives reconstructed address and data bytes.
type ByteSink interface {
	PutByte(t time.Duration, value byte) error
}

// TextSink receives the textual bus annotations (START, ADDRESS, ACK, ...).
type TextSink interface {
	PutText(t time.Duration, tag string) error
}
