// Package models defines core data structures for key events, feature vectors, and matches.
package models

// Event kinds produced by the capture surface.
const (
	KindPress   = "press"
	KindRelease = "release"
)

// KeyEvent is a single timed key press or release.
// Timestamp is in monotonic milliseconds; ordering is chronological but
// press/release interleavings for overlapping keys are possible.
type KeyEvent struct {
	Kind      string  `json:"kind"`
	Key       string  `json:"key"`
	Timestamp float64 `json:"timestamp"`
}

// IsPress reports whether the event is a key press.
func (e *KeyEvent) IsPress() bool { return e.Kind == KindPress }

// IsRelease reports whether the event is a key release.
func (e *KeyEvent) IsRelease() bool { return e.Kind == KindRelease }
