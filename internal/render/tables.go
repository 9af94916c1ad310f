package render

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/javiermolinar/rota/internal/conflict"
	"github.com/javiermolinar/rota/internal/dateutil"
	"github.com/javiermolinar/rota/internal/schedule"
	"github.com/javiermolinar/rota/internal/slot"
	"github.com/javiermolinar/rota/internal/workhours"
)

const (
	instantLayout = "2006-01-02 15:04"
	dayLayout     = "01-02"
	none          = "-"
)

// Columns lists the time columns of a layout and its hidden dates.
func (r *Renderer) Columns(title string, layout workhours.Layout) string {
	headers := []string{"#", "Column", "From", "To", "Minutes"}
	rows := make([][]string, 0, len(layout.Columns))
	for i, c := range layout.Columns {
		rows = append(rows, []string{
			strconv.Itoa(i),
			c.Label,
			c.Value.Clock(),
			c.BoundValue.Clock(),
			strconv.Itoa(c.Minutes()),
		})
	}

	body := r.newTable(headers, rows, func(_, col int) lipgloss.Style {
		if col == 0 {
			return r.styles.muted
		}
		return r.styles.cell
	})

	if len(layout.Excluded) > 0 {
		hidden := make([]string, 0, len(layout.Excluded))
		for _, d := range layout.Excluded {
			hidden = append(hidden, d.Format("Mon "+dateutil.DateLayout))
		}
		body += "\n" + r.styles.muted.UnsetPadding().Render("hidden: "+strings.Join(hidden, ", "))
	}
	return r.titled(title, body)
}

// CardRow is one job and its placement on a layout.
type CardRow struct {
	Job     *schedule.Job
	Card    slot.Card
	Visible bool
}

// Cards lists job cards with their pixel geometry. Jobs that are not visible
// on the layout show dashes.
func (r *Renderer) Cards(title string, layout workhours.Layout, cards []CardRow) string {
	headers := []string{"ID", "Job", "Date", "Start", "Minutes", "Column", "Offset px", "Width px"}
	rows := make([][]string, 0, len(cards))
	for _, c := range cards {
		row := []string{
			strconv.FormatInt(c.Job.ID, 10),
			r.Label(c.Job.Title),
			none,
			none,
			strconv.Itoa(c.Job.DurationMinutes),
			none,
			none,
			none,
		}
		if c.Job.IsScheduled() {
			row[2] = c.Job.StartDate.Format(dateutil.DateLayout)
			row[3] = c.Job.Time().Clock()
		}
		if c.Visible && c.Card.Column < len(layout.Columns) {
			row[5] = layout.Columns[c.Card.Column].Label
			row[6] = formatPx(c.Card.Offset)
			row[7] = formatPx(c.Card.Width)
		}
		rows = append(rows, row)
	}

	body := r.newTable(headers, rows, func(row, col int) lipgloss.Style {
		switch {
		case col == 0:
			return r.styles.muted
		case !cards[row].Visible:
			return r.styles.muted
		case col == 1:
			return r.styles.job
		default:
			return r.styles.cell
		}
	})
	return r.titled(title, body)
}

// Summaries lists unavailability records with their conflict counts. Instants
// are shown in loc.
func (r *Renderer) Summaries(title string, loc *time.Location, summaries []conflict.Summary) string {
	headers := []string{"ID", "Resource", "From", "To", "Reason", "Conflicts", "Exceptions", "Total", "By day"}
	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		u := s.Unavailability
		reason := u.Reason
		if reason == "" {
			reason = none
		}
		rows = append(rows, []string{
			strconv.FormatInt(u.ID, 10),
			r.Label(u.ResourceID),
			dateutil.InZone(u.Start, loc).Format(instantLayout),
			dateutil.InZone(u.End, loc).Format(instantLayout),
			r.Label(reason),
			strconv.Itoa(s.Conflicts),
			strconv.Itoa(s.Exceptions),
			strconv.Itoa(s.Total()),
			formatByDay(s.ByDay, loc),
		})
	}

	body := r.newTable(headers, rows, func(row, col int) lipgloss.Style {
		switch {
		case col == 0:
			return r.styles.muted
		case col == 7 && summaries[row].Total() > 0:
			return r.styles.warning
		default:
			return r.styles.cell
		}
	})
	return r.titled(title, body)
}

func formatByDay(counts conflict.DayCounts, loc *time.Location) string {
	if counts.Len() == 0 {
		return none
	}
	parts := make([]string, 0, counts.Len())
	for _, e := range counts.Entries() {
		parts = append(parts, fmt.Sprintf("%s:%d", e.Day.Date(loc).Format(dayLayout), e.Count))
	}
	return strings.Join(parts, " ")
}

// Proposals lists pending drag proposals.
func (r *Renderer) Proposals(title string, proposals []slot.Proposal) string {
	headers := []string{"Proposal", "Job", "From", "To", "Minutes"}
	rows := make([][]string, 0, len(proposals))
	for _, p := range proposals {
		rows = append(rows, []string{
			p.ID.String()[:8],
			strconv.FormatInt(p.JobID, 10),
			p.PreviousDate.Format(dateutil.DateLayout) + " " + p.PreviousTime.Clock(),
			p.Date.Format(dateutil.DateLayout) + " " + p.Time.Clock(),
			fmt.Sprintf("%+d", p.DraggedMinutes),
		})
	}

	body := r.newTable(headers, rows, func(_, col int) lipgloss.Style {
		if col == 0 {
			return r.styles.muted
		}
		return r.styles.cell
	})
	return r.titled(title, body)
}
