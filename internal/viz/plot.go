package viz

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/kamenik/sigflow/internal/probe"
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	graphStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("49"))
	captionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// PlotSeries renders one column of a probe series as an ascii graph.
func PlotSeries(title string, s *probe.Series, column, width, height int) string {
	if s.Len() == 0 {
		return captionStyle.Render("(no samples)")
	}
	data := s.Column(column)
	graph := asciigraph.Plot(data,
		asciigraph.Width(width),
		asciigraph.Height(height),
	)
	var b strings.Builder
	b.WriteString(titleStyle.Render(title) + "\n")
	b.WriteString(graphStyle.Render(graph) + "\n")
	b.WriteString(captionStyle.Render(fmt.Sprintf("%d samples, dim %d/%d", s.Len(), column, s.Dims())))
	return b.String()
}
