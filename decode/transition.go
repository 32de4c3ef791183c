package decode

import "github.com/mklimuk/i2ctrace"

// transition classifies what happened on the wire between two consecutive
// samples, independently of the current protocol phase.
type transition int

const (
	// transNone: both lines unchanged.
	transNone transition = iota
	// transClockFall: SCL went high to low; a new bit period begins and the
	// data line may still be settling.
	transClockFall
	// transSetup: SDA moved while SCL is held low; setup time, not sampled.
	transSetup
	// transStart: SDA fell while SCL stayed high.
	transStart
	// transStop: SDA rose while SCL stayed high.
	transStop
	// transBit: SCL rising edge; SDA carries a data bit to sample.
	transBit
)

// classify applies the bus transition rules in strict priority order. START
// and STOP must be tested before the bit-sample rule: both present with SCL
// high on each side, and without the ordering a mid-high SDA move would be
// read as a data bit.
func classify(lastSCL, lastSDA, scl, sda i2ctrace.Level) transition {
	switch {
	case lastSCL == scl && lastSDA == sda:
		return transNone
	case lastSCL == i2ctrace.High && scl == i2ctrace.Low:
		return transClockFall
	case scl == i2ctrace.Low:
		return transSetup
	case lastSCL == i2ctrace.High && lastSDA == i2ctrace.High && sda == i2ctrace.Low:
		return transStart
	case lastSCL == i2ctrace.High && lastSDA == i2ctrace.Low && sda == i2ctrace.High:
		return transStop
	default:
		// scl is high and lastSCL must be low: a rising edge.
		return transBit
	}
}
