package decode

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/mklimuk/i2ctrace"
)

// Sinks collects the decoder's output destinations. Any of the fields may be
// nil, in which case that stream is discarded.
type Sinks struct {
	Bytes       i2ctrace.ByteSink
	Text        i2ctrace.TextSink
	Diagnostics DiagnosticSink
}

// Run pulls samples from src until exhaustion and routes the decoder's
// output to the sinks. It returns the first source or sink error, or the
// context error if the context is cancelled mid-stream.
func Run(ctx context.Context, src i2ctrace.SampleSource, dec *Decoder, sinks Sinks) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		sample, err := src.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("sample source failed: %w", err)
		}
		events, diag := dec.Step(sample.SCL, sample.SDA, sample.Time)
		for _, ev := range events {
			if err := dispatch(ev, sinks); err != nil {
				return err
			}
		}
		if diag != nil && sinks.Diagnostics != nil {
			sinks.Diagnostics.PutDiagnostic(*diag)
		}
	}
}

func dispatch(ev Event, sinks Sinks) error {
	switch ev.Kind {
	case ByteEvent:
		if sinks.Bytes == nil {
			return nil
		}
		if err := sinks.Bytes.PutByte(ev.Time, ev.Byte); err != nil {
			return fmt.Errorf("byte sink rejected event at %s: %w", ev.Time, err)
		}
	case TextEvent:
		if sinks.Text == nil {
			return nil
		}
		if err := sinks.Text.PutText(ev.Time, string(ev.Tag)); err != nil {
			return fmt.Errorf("text sink rejected event at %s: %w", ev.Time, err)
		}
	}
	return nil
}
