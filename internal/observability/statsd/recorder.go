package statsd

import (
	"sync"
	"time"
)

// Sample is one metric captured by Recorder.
type Sample struct {
	Name     string
	Value    int64
	Duration time.Duration
	Tags     map[string]string
}

// Recorder is an in-memory Sink for tests.
type Recorder struct {
	mu      sync.Mutex
	counts  []Sample
	timings []Sample
}

var _ Sink = (*Recorder)(nil)

func (r *Recorder) Count(name string, value int64, tags map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts = append(r.counts, Sample{Name: name, Value: value, Tags: cleanTags(tags)})
}

func (r *Recorder) Timing(name string, value time.Duration, tags map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timings = append(r.timings, Sample{Name: name, Duration: value, Tags: cleanTags(tags)})
}

// Counts returns the recorded counters named name.
func (r *Recorder) Counts(name string) []Sample {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Sample
	for _, s := range r.counts {
		if s.Name == name {
			out = append(out, s)
		}
	}
	return out
}

// Timings returns the recorded timings named name.
func (r *Recorder) Timings(name string) []Sample {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Sample
	for _, s := range r.timings {
		if s.Name == name {
			out = append(out, s)
		}
	}
	return out
}
