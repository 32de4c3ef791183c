package capture

import (
	"context"
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/mklimuk/i2ctrace"
)

var _ PinProbe = &GPIOProbe{}

// GPIOProbe reads the bus lines through two host GPIO pins. Polling through
// the kernel GPIO layer tops out in the tens of kilohertz, so this is only
// useful for standard-mode or slower buses.
type GPIOProbe struct {
	scl gpio.PinIn
	sda gpio.PinIn
}

func NewGPIOProbe(sclPin, sdaPin string) (*GPIOProbe, error) {
	_, err := host.Init()
	if err != nil {
		return nil, fmt.Errorf("could not init host: %w", err)
	}
	scl := gpioreg.ByName(sclPin)
	if scl == nil {
		return nil, fmt.Errorf("no such pin %q", sclPin)
	}
	sda := gpioreg.ByName(sdaPin)
	if sda == nil {
		return nil, fmt.Errorf("no such pin %q", sdaPin)
	}
	// pull-ups are on the bus itself; the probe must not load the lines
	err = scl.In(gpio.Float, gpio.NoEdge)
	if err != nil {
		return nil, fmt.Errorf("could not configure %s as input: %w", sclPin, err)
	}
	err = sda.In(gpio.Float, gpio.NoEdge)
	if err != nil {
		return nil, fmt.Errorf("could not configure %s as input: %w", sdaPin, err)
	}
	return &GPIOProbe{scl: scl, sda: sda}, nil
}

func (p *GPIOProbe) Probe(ctx context.Context) (i2ctrace.Level, i2ctrace.Level, error) {
	return fromGPIO(p.scl.Read()), fromGPIO(p.sda.Read()), nil
}

func fromGPIO(l gpio.Level) i2ctrace.Level {
	if l == gpio.High {
		return i2ctrace.High
	}
	return i2ctrace.Low
}
