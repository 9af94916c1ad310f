// Package render draws calendar previews and reports as lipgloss tables.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
)

const (
	// DefaultLabelWidth is the width of the resource label column.
	DefaultLabelWidth = 16
	minLabelWidth     = 6
	ellipsis          = "…"
)

// Options configures a Renderer.
type Options struct {
	Theme      string
	NoColor    bool
	LabelWidth int // 0 means DefaultLabelWidth
}

type styles struct {
	title   lipgloss.Style
	header  lipgloss.Style
	border  lipgloss.Style
	label   lipgloss.Style
	cell    lipgloss.Style
	muted   lipgloss.Style
	leave   lipgloss.Style
	job     lipgloss.Style
	warning lipgloss.Style
}

// Renderer turns layouts into terminal text.
type Renderer struct {
	lr         *lipgloss.Renderer
	theme      *Theme
	styles     styles
	labelWidth int
}

// New creates a Renderer whose color profile is detected from w.
// NoColor forces plain ASCII output.
func New(w io.Writer, opts Options) (*Renderer, error) {
	theme, err := LoadTheme(opts.Theme)
	if err != nil {
		return nil, err
	}

	lr := lipgloss.NewRenderer(w)
	if opts.NoColor {
		lr.SetColorProfile(termenv.Ascii)
	}

	labelWidth := opts.LabelWidth
	if labelWidth == 0 {
		labelWidth = DefaultLabelWidth
	}
	labelWidth = max(labelWidth, minLabelWidth)

	r := &Renderer{lr: lr, theme: theme, labelWidth: labelWidth}
	r.styles = newStyles(lr, theme)
	return r, nil
}

func newStyles(lr *lipgloss.Renderer, t *Theme) styles {
	base := lr.NewStyle().Padding(0, 1)
	return styles{
		title:   lr.NewStyle().Bold(true).Foreground(lipgloss.Color(t.Accent)),
		header:  base.Bold(true).Foreground(lipgloss.Color(t.Accent)),
		border:  lr.NewStyle().Foreground(lipgloss.Color(t.FgMuted)),
		label:   base.Foreground(lipgloss.Color(t.Fg)),
		cell:    base.Foreground(lipgloss.Color(t.Fg)),
		muted:   base.Foreground(lipgloss.Color(t.FgMuted)),
		leave:   base.Foreground(lipgloss.Color(t.Leave)),
		job:     base.Foreground(lipgloss.Color(t.Job)),
		warning: base.Bold(true).Foreground(lipgloss.Color(t.Warning)),
	}
}

// Theme returns the active theme.
func (r *Renderer) Theme() *Theme {
	return r.theme
}

// Label truncates s to the label column width.
func (r *Renderer) Label(s string) string {
	return ansi.Truncate(s, r.labelWidth, ellipsis)
}

// newTable builds a bordered table. styleAt picks the style of a body cell.
func (r *Renderer) newTable(headers []string, rows [][]string, styleAt func(row, col int) lipgloss.Style) string {
	t := table.New().
		Headers(headers...).
		Border(lipgloss.RoundedBorder()).
		BorderHeader(true).
		BorderColumn(true).
		BorderRow(false).
		BorderStyle(r.styles.border).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return r.styles.header
			}
			if row < 0 || row >= len(rows) || col < 0 || col >= len(rows[row]) {
				return r.styles.cell
			}
			return styleAt(row, col)
		})
	return t.Render()
}

func (r *Renderer) titled(title, body string) string {
	if title == "" {
		return body
	}
	return r.styles.title.Render(title) + "\n" + body
}

func formatPx(v float64) string {
	s := fmt.Sprintf("%.1f", v)
	return strings.TrimSuffix(s, ".0")
}
