package progress

import "github.com/m-mizutani/brave-versions/pkg/domain/interfaces"

// Nop discards all progress
type Nop struct{}

// NewNop creates a reporter that prints nothing
func NewNop() Nop {
	return Nop{}
}

// Start returns a bar that ignores increments
func (Nop) Start(total int, title string) interfaces.Bar {
	return nopBar{}
}

// Stop does nothing
func (Nop) Stop() {}

type nopBar struct{}

func (nopBar) Increment(label string) {}
