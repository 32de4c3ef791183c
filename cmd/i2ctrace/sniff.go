package main

import (
	"context"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/i2ctrace/adapter"
	"github.com/mklimuk/i2ctrace/capture"
	"github.com/mklimuk/i2ctrace/cmd/i2ctrace/console"
	"github.com/mklimuk/i2ctrace/decode"
	"github.com/mklimuk/i2ctrace/timeline"
)

var sniffCmd = cli.Command{
	Name:  "sniff",
	Usage: "capture the bus lines live, then decode",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "probe",
			Value: "gpio",
			Usage: "probe to sample with (gpio, mcp2221)",
		},
		&cli.StringFlag{
			Name:  "scl",
			Value: "GPIO3",
			Usage: "SCL pin name (gpio) or GP pin number (mcp2221)",
		},
		&cli.StringFlag{
			Name:  "sda",
			Value: "GPIO2",
			Usage: "SDA pin name (gpio) or GP pin number (mcp2221)",
		},
		&cli.DurationFlag{
			Name:  "interval",
			Value: 10 * time.Microsecond,
			Usage: "sampling interval",
		},
		&cli.DurationFlag{
			Name:    "duration",
			Aliases: []string{"d"},
			Value:   time.Second,
			Usage:   "capture length",
		},
		&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}},
	},
	Action: func(c *cli.Context) error {
		ctx := console.SetVerbose(context.Background(), c.Bool("verbose"))

		var probe capture.PinProbe
		switch c.String("probe") {
		case "gpio":
			p, err := capture.NewGPIOProbe(c.String("scl"), c.String("sda"))
			if err != nil {
				return console.Exit(1, "probe initialization error: %s", console.Red(err))
			}
			probe = p
		case "mcp2221":
			scl, err := strconv.Atoi(c.String("scl"))
			if err != nil {
				return console.Exit(1, "mcp2221 pins are GP numbers 0-3, got %q", c.String("scl"))
			}
			sda, err := strconv.Atoi(c.String("sda"))
			if err != nil {
				return console.Exit(1, "mcp2221 pins are GP numbers 0-3, got %q", c.String("sda"))
			}
			mcp := adapter.NewMCP2221(adapter.ProbeConfig{SCLPin: scl, SDAPin: sda})
			err = mcp.Configure(ctx)
			if err != nil {
				return console.Exit(1, "adapter initialization error: %s", console.Red(err))
			}
			err = mcp.VerifyPins(ctx)
			if err != nil {
				return console.Exit(1, "adapter pin check failed: %s", console.Red(err))
			}
			probe = mcp
		default:
			return console.Exit(1, "unknown probe %q", c.String("probe"))
		}

		console.PInfof(console.PictoScope, "sampling every %s for %s",
			console.White(c.Duration("interval")), console.White(c.Duration("duration")))
		samples, err := capture.Poll(ctx, probe, c.Duration("interval"), c.Duration("duration"))
		if err != nil {
			return console.Exit(1, "capture error: %s", console.Red(err))
		}
		src := capture.NewSliceSource(samples)
		tl := timeline.New(src.Len())
		err = decode.Run(ctx, src, decode.New(), decode.Sinks{
			Bytes:       tl,
			Text:        tl,
			Diagnostics: tl,
		})
		if err != nil {
			return console.Exit(1, "decode failed: %v", err)
		}
		tl.Compact()
		render(tl)
		return nil
	},
}
