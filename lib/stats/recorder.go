package stats

import (
	"fmt"
	"io"
	"strings"
	"time"

	gometrics "github.com/rcrowley/go-metrics"
)

// Recorder consumes one measured round-trip duration per iteration
type Recorder interface {
	// Record is called once per completed round trip
	Record(d time.Duration)
}

// --------------------------------------------------------------------------
// SampleRecorder
// --------------------------------------------------------------------------

// reservoirSize bounds the percentile reservoir. Runs with more iterations
// than this get percentiles over a uniform subsample; min, max, mean and
// standard deviation are always exact over the full sample set.
const reservoirSize = 100_000

// SampleRecorder prints one line per round trip in the original
// "<n> us elapsed" format and keeps every sample so a summary can be
// rendered after the run.
type SampleRecorder struct {
	out     io.Writer
	samples []float64
	hist    gometrics.Histogram
}

// NewSampleRecorder creates a recorder writing per-iteration lines to out
func NewSampleRecorder(out io.Writer) *SampleRecorder {
	return &SampleRecorder{
		out:  out,
		hist: gometrics.NewHistogram(gometrics.NewUniformSample(reservoirSize)),
	}
}

// Record prints the elapsed time in microseconds and stores the sample
func (r *SampleRecorder) Record(d time.Duration) {
	us := d.Microseconds()
	fmt.Fprintf(r.out, "%d us elapsed\n", us)
	r.samples = append(r.samples, float64(us))
	r.hist.Update(us)
}

// Count returns the number of recorded samples
func (r *SampleRecorder) Count() int64 {
	return int64(len(r.samples))
}

// Summary renders the run statistics of all recorded samples.
// All values are in microseconds.
func (r *SampleRecorder) Summary() string {
	s := NewStats(r.samples)
	ps := r.hist.Snapshot().Percentiles([]float64{0.5, 0.95, 0.99})

	var sb strings.Builder
	sb.WriteString("\nROUND TRIP SUMMARY (us)\n")
	addField(&sb, "Samples", fmt.Sprintf("%d", len(r.samples)))
	addField(&sb, "Min", fmt.Sprintf("%.0f", s.Min))
	addField(&sb, "Mean", fmt.Sprintf("%.1f", s.Mean))
	addField(&sb, "Max", fmt.Sprintf("%.0f", s.Max))
	addField(&sb, "Std Deviation", fmt.Sprintf("%.1f", s.StdDeviation))
	addField(&sb, "p50", fmt.Sprintf("%.1f", ps[0]))
	addField(&sb, "p95", fmt.Sprintf("%.1f", ps[1]))
	addField(&sb, "p99", fmt.Sprintf("%.1f", ps[2]))
	return sb.String()
}

func addField(sb *strings.Builder, name, value string) {
	sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
}

// --------------------------------------------------------------------------
// RecorderFunc
// --------------------------------------------------------------------------

// RecorderFunc adapts a plain function to the Recorder interface
type RecorderFunc func(d time.Duration)

func (f RecorderFunc) Record(d time.Duration) { f(d) }
