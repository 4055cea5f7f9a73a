package led

import (
	"fmt"
	"strings"
)

// Count is the number of LEDs on the strip.
const Count = 8

// Pattern is one frame: bit i set lights LED i, LED 0 being leftmost.
type Pattern uint8

// Common patterns.
const (
	Off  Pattern = 0x00
	Full Pattern = 0xFF
)

// Bit returns the pattern with only LED i lit.
func Bit(i int) Pattern {
	return Pattern(1) << uint(i)
}

// Lit reports whether LED i is on.
func (p Pattern) Lit(i int) bool {
	return p&Bit(i) != 0
}

// Strip draws the pattern left to right, LED 0 first.
func (p Pattern) Strip() string {
	var b strings.Builder
	for i := 0; i < Count; i++ {
		if p.Lit(i) {
			b.WriteString("●")
		} else {
			b.WriteString("○")
		}
	}
	return b.String()
}

func (p Pattern) String() string {
	return fmt.Sprintf("0x%02X", uint8(p))
}
