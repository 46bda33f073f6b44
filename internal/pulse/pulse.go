// Package pulse drives the one-shot external GPIO pulse the detect loop
// fires on a recognition result, standing in for the hardware-signalling
// collaborator spec.md treats as out of scope.
package pulse

import (
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// DefaultWidth is the pulse duration, grounded on the original firmware's
// 500 ms GPIO pulse.
const DefaultWidth = 500 * time.Millisecond

// gpioLine abstracts the subset of *gpiocdev.Line used here, so tests can
// substitute a mock without requesting a real kernel GPIO line.
type gpioLine interface {
	SetValue(value int) error
	Close() error
}

// Pulser fires a one-shot high pulse on a GPIO line.
type Pulser struct {
	line  gpioLine
	width time.Duration
}

// Open requests chip/line as an output, initially low, for pulsing.
func Open(chip string, line int) (*Pulser, error) {
	l, err := gpiocdev.RequestLine(chip, line, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, err
	}
	return &Pulser{line: l, width: DefaultWidth}, nil
}

// SetWidth overrides the pulse duration.
func (p *Pulser) SetWidth(d time.Duration) {
	p.width = d
}

// Fire drives the line high, holds for the configured width, then drives it
// low again. It blocks for the duration of the pulse.
func (p *Pulser) Fire() error {
	if err := p.line.SetValue(1); err != nil {
		return err
	}
	time.Sleep(p.width)
	return p.line.SetValue(0)
}

// Close releases the GPIO line.
func (p *Pulser) Close() error {
	return p.line.Close()
}
