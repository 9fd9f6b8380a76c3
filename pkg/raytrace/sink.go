package raytrace

import (
	"sync"

	"gonum.org/v1/gonum/spatial/r3"
)

// Sink receives the traced path segments for display
type Sink interface {
	DrawPath(a, b r3.Vec, color string, label string)
}

// NopSink discards all segments
type NopSink struct{}

func (NopSink) DrawPath(r3.Vec, r3.Vec, string, string) {}

// Segment is a recorded path segment
type Segment struct {
	A, B  r3.Vec
	Color string
	Label string
}

// Recorder is a Sink keeping every segment in memory
type Recorder struct {
	mu       sync.Mutex
	segments []Segment
}

func (r *Recorder) DrawPath(a, b r3.Vec, color string, label string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.segments = append(r.segments, Segment{A: a, B: b, Color: color, Label: label})
}

// Segments returns a copy of the recorded segments
func (r *Recorder) Segments() []Segment {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Segment(nil), r.segments...)
}

// Reset drops the recorded segments
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.segments = nil
}
