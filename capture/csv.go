package capture

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mklimuk/i2ctrace"
)

// Layout describes how a capture CSV maps onto the (time, SCL, SDA) triple.
// Exported analyzer formats differ in column order, header size and time
// unit, so the layout is loadable from a YAML file next to the capture.
type Layout struct {
	TimeColumn int    `yaml:"time_column"`
	SCLColumn  int    `yaml:"scl_column"`
	SDAColumn  int    `yaml:"sda_column"`
	SkipLines  int    `yaml:"skip_lines"`
	TimeUnit   string `yaml:"time_unit"`
	// Threshold > 0 treats the level columns as analog voltages and
	// compares them against this value to obtain logic levels.
	Threshold float64 `yaml:"threshold"`
}

// DefaultLayout matches the CSVs produced by the synth command:
// time in seconds, then SCL, then SDA, one header line.
func DefaultLayout() Layout {
	return Layout{
		TimeColumn: 0,
		SCLColumn:  1,
		SDAColumn:  2,
		SkipLines:  1,
		TimeUnit:   "s",
	}
}

func LoadLayout(path string) (Layout, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("could not read layout file: %w", err)
	}
	layout := DefaultLayout()
	err = yaml.Unmarshal(raw, &layout)
	if err != nil {
		return Layout{}, fmt.Errorf("could not parse layout file %s: %w", path, err)
	}
	if _, err = layout.unit(); err != nil {
		return Layout{}, err
	}
	return layout, nil
}

func (l Layout) unit() (time.Duration, error) {
	switch l.TimeUnit {
	case "", "s":
		return time.Second, nil
	case "ms":
		return time.Millisecond, nil
	case "us", "µs":
		return time.Microsecond, nil
	case "ns":
		return time.Nanosecond, nil
	default:
		return 0, fmt.Errorf("unknown time unit %q", l.TimeUnit)
	}
}

// CSVSource reads samples from a capture CSV row by row. It enforces
// non-decreasing timestamps; a capture violating that is corrupt.
type CSVSource struct {
	reader  *csv.Reader
	layout  Layout
	unit    time.Duration
	row     int
	started bool
	last    time.Duration
}

func NewCSVSource(r io.Reader, layout Layout) (*CSVSource, error) {
	unit, err := layout.unit()
	if err != nil {
		return nil, err
	}
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	src := &CSVSource{reader: reader, layout: layout, unit: unit}
	for i := 0; i < layout.SkipLines; i++ {
		_, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("could not skip header line: %w", err)
		}
		src.row++
	}
	return src, nil
}

func (s *CSVSource) Next() (i2ctrace.Sample, error) {
	record, err := s.reader.Read()
	if err == io.EOF {
		return i2ctrace.Sample{}, io.EOF
	}
	if err != nil {
		return i2ctrace.Sample{}, fmt.Errorf("csv read failed: %w", err)
	}
	s.row++
	max := s.layout.TimeColumn
	if s.layout.SCLColumn > max {
		max = s.layout.SCLColumn
	}
	if s.layout.SDAColumn > max {
		max = s.layout.SDAColumn
	}
	if len(record) <= max {
		return i2ctrace.Sample{}, fmt.Errorf("row %d has %d columns, need %d", s.row, len(record), max+1)
	}
	seconds, err := strconv.ParseFloat(record[s.layout.TimeColumn], 64)
	if err != nil {
		return i2ctrace.Sample{}, fmt.Errorf("row %d: bad timestamp %q: %w", s.row, record[s.layout.TimeColumn], err)
	}
	t := time.Duration(math.Round(seconds * float64(s.unit)))
	if s.started && t < s.last {
		return i2ctrace.Sample{}, fmt.Errorf("row %d: %w: %s after %s", s.row, i2ctrace.ErrNonMonotonic, t, s.last)
	}
	scl, err := s.level(record[s.layout.SCLColumn])
	if err != nil {
		return i2ctrace.Sample{}, fmt.Errorf("row %d: bad SCL value: %w", s.row, err)
	}
	sda, err := s.level(record[s.layout.SDAColumn])
	if err != nil {
		return i2ctrace.Sample{}, fmt.Errorf("row %d: bad SDA value: %w", s.row, err)
	}
	s.started = true
	s.last = t
	return i2ctrace.Sample{Time: t, SCL: scl, SDA: sda}, nil
}

func (s *CSVSource) level(field string) (i2ctrace.Level, error) {
	value, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return i2ctrace.Low, fmt.Errorf("%q is not numeric: %w", field, err)
	}
	if s.layout.Threshold > 0 {
		if value >= s.layout.Threshold {
			return i2ctrace.High, nil
		}
		return i2ctrace.Low, nil
	}
	switch value {
	case 0:
		return i2ctrace.Low, nil
	case 1:
		return i2ctrace.High, nil
	default:
		return i2ctrace.Low, fmt.Errorf("%q is not a logic level (set threshold for analog captures)", field)
	}
}

// WriteCSV writes samples in the default layout: a header line, then
// time-in-seconds, SCL, SDA rows.
func WriteCSV(w io.Writer, samples []i2ctrace.Sample) error {
	writer := csv.NewWriter(w)
	err := writer.Write([]string{"time_s", "scl", "sda"})
	if err != nil {
		return fmt.Errorf("could not write csv header: %w", err)
	}
	for _, sample := range samples {
		err = writer.Write([]string{
			strconv.FormatFloat(sample.Time.Seconds(), 'f', 9, 64),
			sample.SCL.String(),
			sample.SDA.String(),
		})
		if err != nil {
			return fmt.Errorf("could not write csv row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}
