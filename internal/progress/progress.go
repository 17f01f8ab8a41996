// Package progress is the per-step notification collaborator. The
// engine calls Step once per completed simulation step and expects
// nothing back; trackers must not block.
package progress

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

type Tracker interface {
	Start(total int)
	Step()
	Finish()
}

// None discards all notifications.
type None struct{}

func (None) Start(int) {}
func (None) Step()     {}
func (None) Finish()   {}

var (
	barStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	trackStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	countStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// Bar renders a terminal progress bar, redrawing at most every
// interval so a tight step loop is not slowed by terminal writes.
type Bar struct {
	out      io.Writer
	width    int
	interval time.Duration

	total, done int
	lastDraw    time.Time
}

func NewBar(out io.Writer) *Bar {
	return &Bar{out: out, width: 40, interval: 100 * time.Millisecond}
}

func (b *Bar) Start(total int) {
	b.total = total
	b.done = 0
	b.lastDraw = time.Time{}
	b.draw()
}

func (b *Bar) Step() {
	b.done++
	if time.Since(b.lastDraw) >= b.interval {
		b.draw()
	}
}

func (b *Bar) Finish() {
	b.draw()
	fmt.Fprintln(b.out)
}

func (b *Bar) draw() {
	b.lastDraw = time.Now()
	frac := 1.0
	if b.total > 0 {
		frac = float64(b.done) / float64(b.total)
	}
	filled := int(frac * float64(b.width))
	if filled > b.width {
		filled = b.width
	}
	bar := barStyle.Render(strings.Repeat("█", filled)) +
		trackStyle.Render(strings.Repeat("░", b.width-filled))
	fmt.Fprintf(b.out, "\r%s %s", bar,
		countStyle.Render(fmt.Sprintf("%3.0f%% (%d/%d steps)", frac*100, b.done, b.total)))
}
