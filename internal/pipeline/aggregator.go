package pipeline

import (
	"fmt"
	"sync"

	"github.com/handiism/vidconv/internal/model"
)

// DownloadingMessage replaces the message of indeterminate acquisition events.
const DownloadingMessage = "Downloading…"

// Weights splits the composite bar between the two phases.
type Weights struct {
	Acquire   float64
	Transcode float64
}

// DefaultWeights returns {0.8, 0.2}.
func DefaultWeights() Weights {
	return Weights{Acquire: 0.8, Transcode: 0.2}
}

// Folded gives the whole bar to acquisition.
func (w Weights) Folded() Weights {
	return Weights{Acquire: 1, Transcode: 0}
}

// Validate rejects negative weights and weights that do not sum to 1.
func (w Weights) Validate() error {
	if w.Acquire < 0 || w.Transcode < 0 {
		return fmt.Errorf("phase weights must not be negative (acquire=%v, transcode=%v)", w.Acquire, w.Transcode)
	}
	if sum := w.Acquire + w.Transcode; sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("phase weights must sum to 1, got %v", sum)
	}
	return nil
}

// Aggregator turns per-phase events into one composite stream.
//
// It is safe for concurrent use: transcode events for several items may
// arrive from different goroutines.
type Aggregator struct {
	weights Weights
	emit    func(model.ProgressEvent)

	mu    sync.Mutex
	last  float64
	items []float64
}

// NewAggregator creates an Aggregator that forwards composite events to emit.
func NewAggregator(w Weights, emit func(model.ProgressEvent)) *Aggregator {
	if emit == nil {
		emit = func(model.ProgressEvent) {}
	}
	return &Aggregator{weights: w, emit: emit}
}

// Acquire reports an acquisition event.
func (a *Aggregator) Acquire(ev model.ProgressEvent) {
	msg := ev.Message
	if ev.IsIndeterminate() {
		msg = DownloadingMessage
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.publish(model.Clamp01(ev.Fraction)*a.weights.Acquire, msg)
}

// StartTranscode sets the number of items the transcode phase will cover.
// Calling it is optional for a single item.
func (a *Aggregator) StartTranscode(n int) {
	if n < 1 {
		n = 1
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.items = make([]float64, n)
}

// Transcode reports progress of item i of the transcode phase.
func (a *Aggregator) Transcode(i int, ev model.ProgressEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.items == nil {
		a.items = make([]float64, 1)
	}
	if i < 0 || i >= len(a.items) {
		return
	}
	a.items[i] = model.Clamp01(ev.Fraction)

	var sum float64
	for _, f := range a.items {
		sum += f
	}
	mean := sum / float64(len(a.items))

	msg := ev.Message
	if len(a.items) > 1 && msg != "" {
		msg = fmt.Sprintf("[%d/%d] %s", i+1, len(a.items), msg)
	}
	a.publish(a.weights.Acquire+mean*a.weights.Transcode, msg)
}

// FinishItem marks item i as fully transcoded, emitting an event only when
// the transcoder did not already report 1.0 for it.
func (a *Aggregator) FinishItem(i int, message string) {
	a.mu.Lock()
	if a.items == nil {
		a.items = make([]float64, 1)
	}
	done := i >= 0 && i < len(a.items) && a.items[i] >= 1
	a.mu.Unlock()
	if done {
		return
	}
	a.Transcode(i, model.ProgressEvent{Fraction: 1, Message: message})
}

// Complete emits a final 1.0 unless the stream already reached it.
func (a *Aggregator) Complete(message string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.last >= 1 {
		return
	}
	a.publish(1, message)
}

// publish must be called with a.mu held.
func (a *Aggregator) publish(fraction float64, message string) {
	fraction = model.Clamp01(fraction)
	if fraction < a.last {
		fraction = a.last
	}
	a.last = fraction
	a.emit(model.ProgressEvent{Fraction: fraction, Message: message})
}
