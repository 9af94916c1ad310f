package render

import (
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/javiermolinar/rota/internal/grid"
	"github.com/javiermolinar/rota/internal/interval"
)

const (
	barRune      = "█"
	excludedMark = "·"
	// compactAfter is the number of visible days above which headers show
	// only the day of the month.
	compactAfter = 7
)

// Calendar is a resource-by-day preview of unavailability bars.
type Calendar struct {
	Title string
	Days  []time.Time // visible days, ascending
	Rows  []grid.Row
	// Badges holds the conflict count of each day, shown in the last row.
	Badges map[interval.DayKey]int
	// Excluded days are drawn muted and never filled.
	Excluded map[interval.DayKey]bool
}

// Calendar lays out c with m and draws it as a table. Each placement fills
// the day cells between its resolved column lines.
func (r *Renderer) Calendar(m *grid.Mapper, c Calendar) string {
	if len(c.Days) == 0 {
		return r.titled(c.Title, "")
	}

	compact := len(c.Days) > compactAfter
	headers := make([]string, 0, len(c.Days)+1)
	headers = append(headers, "")
	for _, d := range c.Days {
		headers = append(headers, dayHeader(d, compact))
	}

	filled := make([][]bool, len(c.Rows))
	for i := range filled {
		filled[i] = make([]bool, len(c.Days))
	}

	firstLine := m.Config().HeaderColumns + 1
	lastLine := m.LastColumnLine(c.Days)
	for _, p := range m.Layout(c.Rows, c.Days) {
		row := p.Row - 1
		end := p.Span.ResolveEnd(lastLine)
		for line := p.Span.ColumnStart; line < end; line++ {
			idx := line - firstLine
			if idx >= 0 && idx < len(c.Days) {
				filled[row][idx] = true
			}
		}
	}

	rows := make([][]string, 0, len(c.Rows)+1)
	for i, row := range c.Rows {
		cells := make([]string, 0, len(c.Days)+1)
		cells = append(cells, r.Label(row.Label))
		for j, d := range c.Days {
			w := lipgloss.Width(headers[j+1])
			switch {
			case c.Excluded[interval.KeyOf(d)]:
				cells = append(cells, excludedMark)
			case filled[i][j]:
				cells = append(cells, strings.Repeat(barRune, w))
			default:
				cells = append(cells, "")
			}
		}
		rows = append(rows, cells)
	}

	badges := make([]string, len(c.Days)+1)
	badges[0] = "conflicts"
	for _, d := range c.Days {
		n := c.Badges[interval.KeyOf(d)]
		col, ok := m.DayColumn(d, c.Days)
		if n == 0 || !ok || col-firstLine >= len(c.Days) {
			continue
		}
		badges[col-firstLine+1] = strconv.Itoa(n)
	}
	rows = append(rows, badges)
	badgeRow := len(rows) - 1

	body := r.newTable(headers, rows, func(row, col int) lipgloss.Style {
		switch {
		case col == 0 && row == badgeRow:
			return r.styles.muted
		case col == 0:
			return r.styles.label
		case row == badgeRow:
			return r.styles.warning
		case c.Excluded[interval.KeyOf(c.Days[col-1])]:
			return r.styles.muted
		default:
			return r.styles.leave
		}
	})
	return r.titled(c.Title, body)
}

func dayHeader(d time.Time, compact bool) string {
	if compact {
		return d.Format("02")
	}
	return d.Format("Mon 02")
}
