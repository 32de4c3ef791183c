package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/i2ctrace/capture"
	"github.com/mklimuk/i2ctrace/cmd/i2ctrace/console"
	"github.com/mklimuk/i2ctrace/decode"
	"github.com/mklimuk/i2ctrace/timeline"
)

var decodeCmd = cli.Command{
	Name:      "decode",
	Usage:     "decode a capture CSV into protocol annotations",
	ArgsUsage: "<capture.csv>",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "layout",
			Aliases: []string{"l"},
			Usage:   "YAML file describing the capture's column layout",
		},
		&cli.StringFlag{
			Name:    "out",
			Aliases: []string{"o"},
			Usage:   "write the decoded timeline as YAML to this file",
		},
		&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "suppress the annotation listing"},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return console.Exit(1, "expected 1 argument, got %d", c.NArg())
		}
		layout := capture.DefaultLayout()
		if c.String("layout") != "" {
			var err error
			layout, err = capture.LoadLayout(c.String("layout"))
			if err != nil {
				return console.Exit(1, "could not load layout: %v", err)
			}
		}
		file, err := os.Open(c.Args().Get(0))
		if err != nil {
			return console.Exit(1, "could not open capture: %v", err)
		}
		defer func() {
			_ = file.Close()
		}()
		src, err := capture.NewCSVSource(file, layout)
		if err != nil {
			return console.Exit(1, "could not read capture: %v", err)
		}
		tl := timeline.New(0)
		err = decode.Run(context.Background(), src, decode.New(), decode.Sinks{
			Bytes:       tl,
			Text:        tl,
			Diagnostics: tl,
		})
		if err != nil {
			return console.Exit(1, "decode failed: %v", err)
		}
		tl.Compact()
		if !c.Bool("quiet") {
			render(tl)
		}
		if c.String("out") != "" {
			out, err := os.Create(c.String("out"))
			if err != nil {
				return console.Exit(1, "could not create output file: %v", err)
			}
			defer func() {
				_ = out.Close()
			}()
			err = tl.ExportYAML(out)
			if err != nil {
				return console.Exit(1, "could not export timeline: %v", err)
			}
			console.PInfof(console.PictoFinish, "timeline written to %s", console.White(c.String("out")))
		}
		return nil
	},
}
