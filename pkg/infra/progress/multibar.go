package progress

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/fatih/color"
	"github.com/m-mizutani/brave-versions/pkg/domain/interfaces"
)

// MultiBar renders any number of progress bars as plain lines, which works
// the same on terminals and in CI logs. Each bar prints at most once per
// interval, plus once when it completes.
type MultiBar struct {
	mu       sync.Mutex
	w        io.Writer
	interval time.Duration
	now      func() time.Time
	renderer progress.Model
	title    *color.Color
	bars     []*bar
	stopped  bool
}

// Option is a functional option for MultiBar
type Option func(*MultiBar)

// WithInterval sets the minimum time between two lines of the same bar
func WithInterval(d time.Duration) Option {
	return func(m *MultiBar) {
		m.interval = d
	}
}

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(m *MultiBar) {
		m.now = now
	}
}

// New creates a MultiBar writing to w
func New(w io.Writer, opts ...Option) *MultiBar {
	m := &MultiBar{
		w:        w,
		interval: 2 * time.Second,
		now:      time.Now,
		renderer: progress.New(
			progress.WithDefaultGradient(),
			progress.WithWidth(30),
			progress.WithoutPercentage(),
		),
		title: color.New(color.FgCyan, color.Bold),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

type bar struct {
	parent   *MultiBar
	title    string
	total    int
	value    int
	label    string
	lastDraw time.Time
}

// Start adds a bar
func (m *MultiBar) Start(total int, title string) interfaces.Bar {
	m.mu.Lock()
	defer m.mu.Unlock()

	b := &bar{parent: m, title: title, total: total, label: "N/A"}
	m.bars = append(m.bars, b)
	return b
}

// Stop prints the final state of every bar that has not completed yet.
// Increments after Stop are counted but not printed.
func (m *MultiBar) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped {
		return
	}
	m.stopped = true

	for _, b := range m.bars {
		if b.value < b.total {
			m.draw(b)
		}
	}
}

// Increment advances the bar and prints it when due
func (b *bar) Increment(label string) {
	m := b.parent
	m.mu.Lock()
	defer m.mu.Unlock()

	b.value++
	b.label = label

	if m.stopped {
		return
	}

	now := m.now()
	if b.value == b.total || now.Sub(b.lastDraw) >= m.interval {
		b.lastDraw = now
		m.draw(b)
	}
}

// draw must be called with m.mu held
func (m *MultiBar) draw(b *bar) {
	ratio := 1.0
	if b.total > 0 {
		ratio = float64(b.value) / float64(b.total)
	}
	if ratio > 1 {
		ratio = 1
	}

	fmt.Fprintf(m.w, "%s [%s] %3.0f%% | %s | %d/%d\n",
		m.title.Sprint(b.title),
		m.renderer.ViewAs(ratio),
		ratio*100,
		b.label,
		b.value,
		b.total,
	)
}
