// Package timeline collects the decoder's output streams into derived,
// time-aligned timelines suitable for display or export next to the
// original capture.
package timeline

import (
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mklimuk/i2ctrace/decode"
)

type ByteRow struct {
	Time  time.Duration
	Value byte
}

type TextRow struct {
	Time time.Duration
	Tag  string
}

type DiagnosticRow struct {
	Time    time.Duration
	Phase   string
	LastSCL uint8
	LastSDA uint8
	SCL     uint8
	SDA     uint8
}

// Annotation is one merged timeline entry: a tag plus, for ADDRESS and DATA,
// the byte reconstructed at the same instant.
type Annotation struct {
	Time  time.Duration
	Tag   string
	Value *byte
}

// Timeline implements the decoder sink interfaces and accumulates rows in
// arrival (and therefore time) order. Capacity may be preallocated from the
// input sample count, the way the original analyzer tooling sized its
// derived data sets, and trimmed afterwards with Compact.
type Timeline struct {
	bytes []ByteRow
	texts []TextRow
	diags []DiagnosticRow
}

// New creates a timeline with room for the given number of rows per stream.
// A capacity of 0 is fine; the timeline grows as needed.
func New(capacity int) *Timeline {
	return &Timeline{
		bytes: make([]ByteRow, 0, capacity),
		texts: make([]TextRow, 0, capacity),
	}
}

func (tl *Timeline) PutByte(t time.Duration, value byte) error {
	tl.bytes = append(tl.bytes, ByteRow{Time: t, Value: value})
	return nil
}

func (tl *Timeline) PutText(t time.Duration, tag string) error {
	tl.texts = append(tl.texts, TextRow{Time: t, Tag: tag})
	return nil
}

func (tl *Timeline) PutDiagnostic(d decode.Diagnostic) {
	tl.diags = append(tl.diags, DiagnosticRow{
		Time:    d.Time,
		Phase:   d.Phase.String(),
		LastSCL: uint8(d.LastSCL),
		LastSDA: uint8(d.LastSDA),
		SCL:     uint8(d.SCL),
		SDA:     uint8(d.SDA),
	})
}

func (tl *Timeline) Bytes() []ByteRow             { return tl.bytes }
func (tl *Timeline) Texts() []TextRow             { return tl.texts }
func (tl *Timeline) Diagnostics() []DiagnosticRow { return tl.diags }

// Rebase shifts every row by the given offset, aligning the derived
// timelines with a differently-based capture (trigger-relative times,
// cross-correlation between data groups).
func (tl *Timeline) Rebase(offset time.Duration) {
	for i := range tl.bytes {
		tl.bytes[i].Time += offset
	}
	for i := range tl.texts {
		tl.texts[i].Time += offset
	}
	for i := range tl.diags {
		tl.diags[i].Time += offset
	}
}

// Compact drops the unused preallocated capacity.
func (tl *Timeline) Compact() {
	bytes := make([]ByteRow, len(tl.bytes))
	copy(bytes, tl.bytes)
	tl.bytes = bytes
	texts := make([]TextRow, len(tl.texts))
	copy(texts, tl.texts)
	tl.texts = texts
	diags := make([]DiagnosticRow, len(tl.diags))
	copy(diags, tl.diags)
	tl.diags = diags
}

// Annotations merges the text and byte streams chronologically. An ADDRESS
// or DATA tag consumes the byte row sharing its timestamp.
func (tl *Timeline) Annotations() []Annotation {
	annotations := make([]Annotation, 0, len(tl.texts))
	next := 0
	for _, row := range tl.texts {
		a := Annotation{Time: row.Time, Tag: row.Tag}
		if next < len(tl.bytes) && tl.bytes[next].Time == row.Time &&
			(row.Tag == string(decode.TagAddress) || row.Tag == string(decode.TagData)) {
			value := tl.bytes[next].Value
			a.Value = &value
			next++
		}
		annotations = append(annotations, a)
	}
	return annotations
}

// WriteTo prints the merged annotation listing, one event per line.
func (tl *Timeline) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, a := range tl.Annotations() {
		var n int
		var err error
		if a.Value != nil {
			n, err = fmt.Fprintf(w, "%12s  %-10s 0x%02X\n", a.Time, a.Tag, *a.Value)
		} else {
			n, err = fmt.Fprintf(w, "%12s  %s\n", a.Time, a.Tag)
		}
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	for _, d := range tl.diags {
		n, err := fmt.Fprintf(w, "%12s  diagnostic: phase=%s scl %d->%d sda %d->%d\n",
			d.Time, d.Phase, d.LastSCL, d.SCL, d.LastSDA, d.SDA)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// The yaml.v3 encoder renders time.Duration through its String method, so
// the export carries explicit nanosecond integers instead.
type byteRowYAML struct {
	Time  int64 `yaml:"time_ns"`
	Value byte  `yaml:"value"`
}

type textRowYAML struct {
	Time int64  `yaml:"time_ns"`
	Tag  string `yaml:"tag"`
}

type diagnosticRowYAML struct {
	Time    int64  `yaml:"time_ns"`
	Phase   string `yaml:"phase"`
	LastSCL uint8  `yaml:"last_scl"`
	LastSDA uint8  `yaml:"last_sda"`
	SCL     uint8  `yaml:"scl"`
	SDA     uint8  `yaml:"sda"`
}

type export struct {
	Bytes       []byteRowYAML       `yaml:"bytes"`
	Texts       []textRowYAML       `yaml:"events"`
	Diagnostics []diagnosticRowYAML `yaml:"diagnostics,omitempty"`
}

// MarshalYAML exports the full timeline for downstream tooling.
func (tl *Timeline) MarshalYAML() (interface{}, error) {
	out := export{
		Bytes: make([]byteRowYAML, len(tl.bytes)),
		Texts: make([]textRowYAML, len(tl.texts)),
	}
	for i, row := range tl.bytes {
		out.Bytes[i] = byteRowYAML{Time: row.Time.Nanoseconds(), Value: row.Value}
	}
	for i, row := range tl.texts {
		out.Texts[i] = textRowYAML{Time: row.Time.Nanoseconds(), Tag: row.Tag}
	}
	for _, row := range tl.diags {
		out.Diagnostics = append(out.Diagnostics, diagnosticRowYAML{
			Time:    row.Time.Nanoseconds(),
			Phase:   row.Phase,
			LastSCL: row.LastSCL,
			LastSDA: row.LastSDA,
			SCL:     row.SCL,
			SDA:     row.SDA,
		})
	}
	return out, nil
}

// ExportYAML writes the timeline as a YAML document.
func (tl *Timeline) ExportYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	defer func() {
		_ = enc.Close()
	}()
	err := enc.Encode(tl)
	if err != nil {
		return fmt.Errorf("could not encode timeline: %w", err)
	}
	return nil
}
