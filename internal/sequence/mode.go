package sequence

import (
	"fmt"
	"strings"

	"github.com/smazurov/ledstack/internal/led"
)

// Mode selects which stacking animation runs.
type Mode int32

const (
	// StackLeft sweeps the runner left to right; the pile grows from the right end.
	StackLeft Mode = iota
	// StackRight sweeps the runner right to left; the pile grows from the left end.
	StackRight
)

// Toggle returns the other mode.
func (m Mode) Toggle() Mode {
	if m == StackLeft {
		return StackRight
	}
	return StackLeft
}

// Direction returns the runner direction for the mode.
func (m Mode) Direction() Direction {
	if m == StackRight {
		return RightToLeft
	}
	return LeftToRight
}

func (m Mode) String() string {
	switch m {
	case StackLeft:
		return "stack-left"
	case StackRight:
		return "stack-right"
	default:
		return fmt.Sprintf("mode(%d)", int32(m))
	}
}

// ParseMode accepts "stack-left" or "stack-right" (also with underscores).
func ParseMode(s string) (Mode, error) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-") {
	case "stack-left", "left":
		return StackLeft, nil
	case "stack-right", "right":
		return StackRight, nil
	default:
		return StackLeft, fmt.Errorf("unknown sequence %q", s)
	}
}

// Direction is the runner's travel direction.
type Direction int

const (
	LeftToRight Direction = iota
	RightToLeft
)

func (d Direction) String() string {
	if d == RightToLeft {
		return "right-to-left"
	}
	return "left-to-right"
}

// sweep returns the runner's first position, the pile slot it stops at
// and the step between positions, given how many LEDs are already piled.
func (d Direction) sweep(numLocked int) (first, slot, step int) {
	if d == RightToLeft {
		return led.Count - 1, numLocked, -1
	}
	return 0, led.Count - 1 - numLocked, 1
}

// Frames lists every pattern of one uninterrupted cycle in render order,
// closing frames included.
func Frames(d Direction) []led.Pattern {
	frames := make([]led.Pattern, 0, CycleFrames)
	var locked led.Pattern
	for n := 0; locked != led.Full; n++ {
		first, slot, step := d.sweep(n)
		for pos := first; pos != slot+step; pos += step {
			frames = append(frames, locked|led.Bit(pos))
		}
		locked |= led.Bit(slot)
	}
	return append(frames, led.Full, led.Off)
}

// CycleFrames is the number of frames in one uninterrupted cycle:
// 8+7+...+1 runner frames plus the two closing frames.
const CycleFrames = led.Count*(led.Count+1)/2 + 2
