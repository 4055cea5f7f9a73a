package events

import "time"

// Event type constants for kelindar/event.
const (
	TypeFrameRendered uint32 = iota + 1
	TypeButtonPressed
	TypeModeChanged
	TypeCycleCompleted
	TypeSequenceInterrupted
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// FrameRenderedEvent is published after each animation frame reaches the LEDs.
type FrameRenderedEvent struct {
	Mode      string    `json:"mode"`
	Pattern   uint8     `json:"pattern"`
	Frame     int       `json:"frame"`
	Timestamp time.Time `json:"timestamp"`
}

// Type returns the event type identifier for FrameRenderedEvent.
func (e FrameRenderedEvent) Type() uint32 { return TypeFrameRendered }

// ButtonPressedEvent is published when a debounced press is detected.
type ButtonPressedEvent struct {
	Mode      string    `json:"mode"`
	Timestamp time.Time `json:"timestamp"`
}

// Type returns the event type identifier for ButtonPressedEvent.
func (e ButtonPressedEvent) Type() uint32 { return TypeButtonPressed }

// ModeChangedEvent is published when a press switches the active sequence.
type ModeChangedEvent struct {
	From      string    `json:"from"`
	To        string    `json:"to"`
	Timestamp time.Time `json:"timestamp"`
}

// Type returns the event type identifier for ModeChangedEvent.
func (e ModeChangedEvent) Type() uint32 { return TypeModeChanged }

// CycleCompletedEvent is published when a sequence fills the strip and
// finishes its closing frames.
type CycleCompletedEvent struct {
	Mode      string    `json:"mode"`
	Frames    int       `json:"frames"`
	Timestamp time.Time `json:"timestamp"`
}

// Type returns the event type identifier for CycleCompletedEvent.
func (e CycleCompletedEvent) Type() uint32 { return TypeCycleCompleted }

// SequenceInterruptedEvent is published when a press abandons a sequence
// before the strip is full.
type SequenceInterruptedEvent struct {
	Mode      string    `json:"mode"`
	Locked    uint8     `json:"locked"`
	NumLocked int       `json:"num_locked"`
	Frames    int       `json:"frames"`
	Timestamp time.Time `json:"timestamp"`
}

// Type returns the event type identifier for SequenceInterruptedEvent.
func (e SequenceInterruptedEvent) Type() uint32 { return TypeSequenceInterrupted }
