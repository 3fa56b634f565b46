package commands

import (
	"io"
	"time"

	"github.com/riclovato/furia-chatbot/internal/model"

	"github.com/jedib0t/go-pretty/v6/table"
)

func renderMatches(w io.Writer, matches []model.Match, loc *time.Location) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Date", "Time", "Opponent", "Event", "Format", "State", "ID"})
	for _, m := range matches {
		date := m.Date
		if day, ok := m.Day(loc); ok {
			date = day.Format("02/01/2006")
		}
		t.AppendRow(table.Row{date, m.Time, m.Opponent, m.Event, m.Format, m.State(), m.ID})
	}
	t.AppendFooter(table.Row{"", "", "", "", "", "Total", len(matches)})
	t.SetStyle(table.StyleRounded)
	t.Render()
}

func renderRejections(w io.Writer, rejections []model.Rejection) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Rejected", "Detail", "Fragment"})
	for _, r := range rejections {
		t.AppendRow(table.Row{r.Reason, r.Detail, truncate(r.Text, 60)})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}

func renderSubscribers(w io.Writer, subs []string) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Subscriber"})
	for _, s := range subs {
		t.AppendRow(table.Row{s})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
