package decode

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mklimuk/i2ctrace"
)

func TestClassify_PriorityOrder(t *testing.T) {
	tests := []struct {
		lastSCL, lastSDA, scl, sda i2ctrace.Level
		expected                   transition
	}{
		// both lines unchanged
		{1, 1, 1, 1, transNone},
		{1, 0, 1, 0, transNone},
		{0, 1, 0, 1, transNone},
		{0, 0, 0, 0, transNone},
		// clock falling wins even when SDA moves at the same sample
		{1, 1, 0, 1, transClockFall},
		{1, 0, 0, 0, transClockFall},
		{1, 1, 0, 0, transClockFall},
		{1, 0, 0, 1, transClockFall},
		// data moving while the clock is held low
		{0, 0, 0, 1, transSetup},
		{0, 1, 0, 0, transSetup},
		// SDA falling while SCL stays high is a start, not a data bit
		{1, 1, 1, 0, transStart},
		// SDA rising while SCL stays high is a stop
		{1, 0, 1, 1, transStop},
		// rising clock edge samples a bit
		{0, 0, 1, 0, transBit},
		{0, 1, 1, 1, transBit},
		{0, 0, 1, 1, transBit},
		{0, 1, 1, 0, transBit},
	}
	for _, test := range tests {
		name := fmt.Sprintf("%d%d->%d%d", test.lastSCL, test.lastSDA, test.scl, test.sda)
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.expected, classify(test.lastSCL, test.lastSDA, test.scl, test.sda))
		})
	}
}
