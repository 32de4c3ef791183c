package main

import (
	"fmt"

	"github.com/mklimuk/i2ctrace/cmd/i2ctrace/console"
	"github.com/mklimuk/i2ctrace/decode"
	"github.com/mklimuk/i2ctrace/timeline"
)

// render prints a colored annotation listing of the decoded timeline.
func render(tl *timeline.Timeline) {
	for _, a := range tl.Annotations() {
		tag := a.Tag
		switch decode.Tag(a.Tag) {
		case decode.TagStart, decode.TagStop:
			tag = console.Yellow(tag)
		case decode.TagStartOdd, decode.TagNack:
			tag = console.Red(tag)
		case decode.TagAck:
			tag = console.Green(tag)
		case decode.TagAddress:
			tag = console.Cyan(tag)
		default:
			tag = console.White(tag)
		}
		if a.Value != nil {
			console.Printf("%12s  %s %s\n", a.Time, tag, console.Bold(fmt.Sprintf("0x%02X", *a.Value)))
		} else {
			console.Printf("%12s  %s\n", a.Time, tag)
		}
	}
	for _, d := range tl.Diagnostics() {
		console.Warnf("%12s  unhandled transition: phase=%s scl %d->%d sda %d->%d",
			d.Time, d.Phase, d.LastSCL, d.SCL, d.LastSDA, d.SDA)
	}
	if len(tl.Texts()) == 0 {
		console.PInfof(console.PictoMagnifier, "no bus activity found in capture")
	}
}
