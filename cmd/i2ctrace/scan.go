package main

import (
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v2"
	"gobot.io/x/gobot/v2/drivers/i2c"
	"gobot.io/x/gobot/v2/platforms/friendlyelec/nanopi"

	"github.com/mklimuk/i2ctrace/cmd/i2ctrace/console"
)

// 7-bit address space minus the reserved ranges (general call, CBUS, hs-mode
// master codes, 10-bit prefixes).
const scanFirst = 0x08
const scanLast = 0x77

var scanCmd = cli.Command{
	Name:  "scan",
	Usage: "sweep the live bus for responding devices, to cross-check decoded addresses",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:    "bus",
			Aliases: []string{"b"},
			Value:   2,
			Usage:   "host I2C bus number",
		},
	},
	Action: func(c *cli.Context) error {
		npi := nanopi.NewNeoAdaptor()
		err := npi.I2cBusAdaptor.Connect()
		if err != nil {
			return console.Exit(1, "adaptor connect error: %v", err)
		}
		defer func() {
			_ = npi.I2cBusAdaptor.Finalize()
		}()
		var found int
		for addr := scanFirst; addr <= scanLast; addr++ {
			ok, err := probeAddress(npi, c.Int("bus"), uint8(addr))
			if err != nil {
				slog.Debug("probe error", "addr", addr, "error", err)
				continue
			}
			if ok {
				found++
				console.PInfof(console.PictoPlug, "device at %s", console.Green(fmt.Sprintf("%#02x", addr)))
			}
		}
		if found == 0 {
			console.PInfof(console.PictoMagnifier, "no devices responded on bus %d", c.Int("bus"))
		}
		return nil
	},
}

// probeAddress attempts a one-byte read; a device that ACKs its address is
// considered present.
func probeAddress(adaptor i2c.Connector, bus int, addr uint8) (bool, error) {
	dev := i2c.NewGenericDriver(adaptor, "i2ctrace-scan", int(addr), func(c i2c.Config) {
		c.SetBus(bus)
	})
	err := dev.Start()
	if err != nil {
		return false, fmt.Errorf("start error: %w", err)
	}
	defer func() { _ = dev.Halt() }()
	data := make([]byte, 1)
	err = dev.Read(data)
	if err != nil {
		return false, nil
	}
	return true, nil
}
