// Package capture provides the decoder's sample sources: CSV captures
// exported from analyzers, a synthetic waveform generator, and live polling
// of real bus lines.
package capture

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/mklimuk/i2ctrace"
)

// SliceSource serves an in-memory capture.
type SliceSource struct {
	samples []i2ctrace.Sample
	pos     int
}

func NewSliceSource(samples []i2ctrace.Sample) *SliceSource {
	return &SliceSource{samples: samples}
}

func (s *SliceSource) Next() (i2ctrace.Sample, error) {
	if s.pos >= len(s.samples) {
		return i2ctrace.Sample{}, io.EOF
	}
	sample := s.samples[s.pos]
	s.pos++
	return sample, nil
}

// Len returns the total number of samples in the capture.
func (s *SliceSource) Len() int {
	return len(s.samples)
}

// PinProbe reads the instantaneous level of both bus lines. Implemented by
// the periph GPIO sampler and the MCP2221 adapter.
type PinProbe interface {
	Probe(ctx context.Context) (scl, sda i2ctrace.Level, err error)
}

// Poll samples a probe at a fixed interval for the given duration and
// returns the capture, timestamped from the first probe. The achievable
// rate is bounded by the probe's own latency; Poll does not try to
// compensate for it.
func Poll(ctx context.Context, probe PinProbe, interval, duration time.Duration) ([]i2ctrace.Sample, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("poll interval must be positive, got %s", interval)
	}
	samples := make([]i2ctrace.Sample, 0, int(duration/interval)+1)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	start := time.Now()
	for {
		scl, sda, err := probe.Probe(ctx)
		if err != nil {
			return samples, fmt.Errorf("probe failed after %d samples: %w", len(samples), err)
		}
		samples = append(samples, i2ctrace.Sample{Time: time.Since(start), SCL: scl, SDA: sda})
		if time.Since(start) >= duration {
			return samples, nil
		}
		select {
		case <-ctx.Done():
			return samples, ctx.Err()
		case <-ticker.C:
		}
	}
}
