package model

import "fmt"

// ConversionState is the observable state of a session controller.
//
// The set of implementations is closed: Idle, InProgress, Succeeded, Failed
// and Cancelled.
type ConversionState interface {
	// Generation returns the attempt generation the state belongs to.
	// The boolean is false only for Idle.
	Generation() (uint64, bool)

	// Name is a short label for logs and front ends.
	Name() string

	isConversionState()
}

// Idle means no attempt is live and no result is on display.
type Idle struct{}

// InProgress carries the latest composite progress of the live attempt.
type InProgress struct {
	Progress ProgressEvent
	Gen      uint64
}

// Succeeded carries the result of a finished attempt.
type Succeeded struct {
	Result *ConversionResult
	Gen    uint64
}

// Failed carries the reason an attempt stopped.
type Failed struct {
	Reason string
	Kind   FailureKind
	Gen    uint64
}

// Cancelled means the user explicitly cancelled the attempt.
type Cancelled struct {
	Gen uint64
}

func (Idle) Generation() (uint64, bool)         { return 0, false }
func (s InProgress) Generation() (uint64, bool) { return s.Gen, true }
func (s Succeeded) Generation() (uint64, bool)  { return s.Gen, true }
func (s Failed) Generation() (uint64, bool)     { return s.Gen, true }
func (s Cancelled) Generation() (uint64, bool)  { return s.Gen, true }

func (Idle) Name() string       { return "idle" }
func (InProgress) Name() string { return "in_progress" }
func (Succeeded) Name() string  { return "succeeded" }
func (Failed) Name() string     { return "failed" }
func (Cancelled) Name() string  { return "cancelled" }

func (Idle) isConversionState()       {}
func (InProgress) isConversionState() {}
func (Succeeded) isConversionState()  {}
func (Failed) isConversionState()     {}
func (Cancelled) isConversionState()  {}

// IsTerminal reports whether s ends an attempt.
func IsTerminal(s ConversionState) bool {
	switch s.(type) {
	case Succeeded, Failed, Cancelled:
		return true
	default:
		return false
	}
}

// Describe renders a state as a single log-friendly line.
func Describe(s ConversionState) string {
	switch v := s.(type) {
	case Idle:
		return "idle"
	case InProgress:
		return fmt.Sprintf("gen=%d in_progress %s", v.Gen, v.Progress)
	case Succeeded:
		if v.Result == nil {
			return fmt.Sprintf("gen=%d succeeded", v.Gen)
		}
		return fmt.Sprintf("gen=%d succeeded %s", v.Gen, v.Result.FilePath)
	case Failed:
		return fmt.Sprintf("gen=%d failed (%s): %s", v.Gen, v.Kind, v.Reason)
	case Cancelled:
		return fmt.Sprintf("gen=%d cancelled", v.Gen)
	default:
		return "unknown"
	}
}
