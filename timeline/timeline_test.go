package timeline

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/mklimuk/i2ctrace"
	"github.com/mklimuk/i2ctrace/decode"
)

func populated(t *testing.T) *Timeline {
	t.Helper()
	tl := New(16)
	require.NoError(t, tl.PutText(time.Microsecond, "START"))
	require.NoError(t, tl.PutText(8*time.Microsecond, "ADDRESS"))
	require.NoError(t, tl.PutByte(8*time.Microsecond, 0x55))
	require.NoError(t, tl.PutText(9*time.Microsecond, "WRITE"))
	require.NoError(t, tl.PutText(10*time.Microsecond, "ACK"))
	require.NoError(t, tl.PutByte(18*time.Microsecond, 0xCC))
	require.NoError(t, tl.PutText(18*time.Microsecond, "DATA"))
	require.NoError(t, tl.PutText(20*time.Microsecond, "STOP"))
	return tl
}

func TestTimeline_Annotations(t *testing.T) {
	tl := populated(t)
	annotations := tl.Annotations()
	require.Len(t, annotations, 6)

	assert.Equal(t, "START", annotations[0].Tag)
	assert.Nil(t, annotations[0].Value)

	assert.Equal(t, "ADDRESS", annotations[1].Tag)
	require.NotNil(t, annotations[1].Value)
	assert.EqualValues(t, 0x55, *annotations[1].Value)

	assert.Equal(t, "DATA", annotations[4].Tag)
	require.NotNil(t, annotations[4].Value)
	assert.EqualValues(t, 0xCC, *annotations[4].Value)

	assert.Equal(t, "STOP", annotations[5].Tag)
	assert.Nil(t, annotations[5].Value)
}

func TestTimeline_Rebase(t *testing.T) {
	tl := populated(t)
	tl.PutDiagnostic(decode.Diagnostic{Time: 30 * time.Microsecond, Phase: decode.Idle})
	tl.Rebase(-time.Microsecond)
	assert.Equal(t, time.Duration(0), tl.Texts()[0].Time)
	assert.Equal(t, 7*time.Microsecond, tl.Bytes()[0].Time)
	assert.Equal(t, 29*time.Microsecond, tl.Diagnostics()[0].Time)
}

func TestTimeline_CompactPreservesRows(t *testing.T) {
	tl := populated(t)
	texts, bytes := tl.Texts(), tl.Bytes()
	tl.Compact()
	assert.Equal(t, texts, tl.Texts())
	assert.Equal(t, bytes, tl.Bytes())
	assert.Equal(t, len(tl.Texts()), cap(tl.Texts()))
	assert.Equal(t, len(tl.Bytes()), cap(tl.Bytes()))
}

func TestTimeline_WriteTo(t *testing.T) {
	tl := populated(t)
	tl.PutDiagnostic(decode.Diagnostic{
		Time:    30 * time.Microsecond,
		Phase:   decode.Idle,
		LastSCL: i2ctrace.Low,
		LastSDA: i2ctrace.High,
		SCL:     i2ctrace.High,
		SDA:     i2ctrace.High,
	})
	var sb strings.Builder
	n, err := tl.WriteTo(&sb)
	require.NoError(t, err)
	assert.EqualValues(t, sb.Len(), n)
	assert.Contains(t, sb.String(), "START")
	assert.Contains(t, sb.String(), "ADDRESS")
	assert.Contains(t, sb.String(), "0x55")
	assert.Contains(t, sb.String(), "0xCC")
	assert.Contains(t, sb.String(), "diagnostic: phase=idle scl 0->1 sda 1->1")
}

func TestTimeline_ExportYAML(t *testing.T) {
	tl := populated(t)
	tl.PutDiagnostic(decode.Diagnostic{
		Time:    30 * time.Microsecond,
		Phase:   decode.Idle,
		LastSCL: i2ctrace.Low,
		LastSDA: i2ctrace.High,
		SCL:     i2ctrace.High,
		SDA:     i2ctrace.High,
	})
	var sb strings.Builder
	require.NoError(t, tl.ExportYAML(&sb))

	// timestamps must come out as plain nanosecond integers, not the
	// human-readable duration strings
	assert.NotContains(t, sb.String(), "µs")

	var decoded struct {
		Bytes []struct {
			Time  int64 `yaml:"time_ns"`
			Value byte  `yaml:"value"`
		} `yaml:"bytes"`
		Events []struct {
			Time int64  `yaml:"time_ns"`
			Tag  string `yaml:"tag"`
		} `yaml:"events"`
		Diagnostics []struct {
			Time    int64  `yaml:"time_ns"`
			Phase   string `yaml:"phase"`
			LastSCL uint8  `yaml:"last_scl"`
			SDA     uint8  `yaml:"sda"`
		} `yaml:"diagnostics"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(sb.String()), &decoded))
	require.Len(t, decoded.Bytes, 2)
	require.Len(t, decoded.Events, 6)
	require.Len(t, decoded.Diagnostics, 1)
	assert.EqualValues(t, 0x55, decoded.Bytes[0].Value)
	assert.EqualValues(t, (8 * time.Microsecond).Nanoseconds(), decoded.Bytes[0].Time)
	assert.Equal(t, "START", decoded.Events[0].Tag)
	assert.EqualValues(t, (30 * time.Microsecond).Nanoseconds(), decoded.Diagnostics[0].Time)
	assert.Equal(t, "idle", decoded.Diagnostics[0].Phase)
	assert.EqualValues(t, 1, decoded.Diagnostics[0].SDA)
}
