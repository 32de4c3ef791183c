package main

import (
	"encoding/hex"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/i2ctrace/capture"
	"github.com/mklimuk/i2ctrace/cmd/i2ctrace/console"
)

var synthCmd = cli.Command{
	Name:      "synth",
	Usage:     "generate an ideal capture CSV for a known transaction",
	ArgsUsage: "<address-hex> <data-hex>",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    "read",
			Aliases: []string{"r"},
			Usage:   "render a read transaction instead of a write",
		},
		&cli.DurationFlag{
			Name:    "period",
			Aliases: []string{"p"},
			Value:   10 * time.Microsecond,
			Usage:   "full SCL clock period",
		},
		&cli.StringFlag{
			Name:    "out",
			Aliases: []string{"o"},
			Value:   "capture.csv",
			Usage:   "output file",
		},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() != 2 {
			return console.Exit(1, "expected 2 arguments, got %d", c.NArg())
		}
		addr, err := hex.DecodeString(c.Args().Get(0))
		if err != nil || len(addr) != 1 {
			return console.Exit(1, "could not decode address: %v", err)
		}
		if addr[0] > 0x7F {
			return console.Exit(1, "address %#x does not fit in 7 bits", addr[0])
		}
		data, err := hex.DecodeString(c.Args().Get(1))
		if err != nil {
			return console.Exit(1, "could not decode data: %v", err)
		}
		out := c.String("out")
		if _, err := os.Stat(out); err == nil {
			answer, err := console.YesOrNo(out + " exists, overwrite?")
			if err != nil {
				return console.Exit(1, "prompt failed: %v", err)
			}
			if answer != console.Yes {
				console.PInfof(console.PictoStop, "aborted")
				return nil
			}
		}
		synth := capture.NewSynth(c.Duration("period"))
		synth.Transaction(addr[0], c.Bool("read"), data)
		file, err := os.Create(out)
		if err != nil {
			return console.Exit(1, "could not create %s: %v", out, err)
		}
		defer func() {
			_ = file.Close()
		}()
		err = capture.WriteCSV(file, synth.Samples())
		if err != nil {
			return console.Exit(1, "could not write capture: %v", err)
		}
		console.PInfof(console.PictoWave, "%s samples written to %s",
			console.White(len(synth.Samples())), console.White(out))
		return nil
	},
}
