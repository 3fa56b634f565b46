package service

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/riclovato/furia-chatbot/internal/model"
)

const (
	HLTVMatchesURL   = "https://www.hltv.org/team/8297/furia#tab-matches"
	Draft5MatchesURL = "https://draft5.gg/equipe/330-FURIA/proximas-partidas"
)

// FallbackLinks are shown when no match data is available at all.
var FallbackLinks = map[string]string{
	"hltv":   HLTVMatchesURL,
	"draft5": Draft5MatchesURL,
}

// Messages renders user-facing texts (Telegram HTML).
type Messages struct {
	HomeTeam string
	Location *time.Location
	Lead     time.Duration
}

// Notification is the pre-match alert.
func (m Messages) Notification(match model.Match) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔔 <b>%s vs %s</b> começa em %s!\n", html.EscapeString(m.HomeTeam), html.EscapeString(match.Opponent), humanizeLead(m.Lead))
	fmt.Fprintf(&b, "🏆 %s\n", html.EscapeString(eventLabel(match.Event)))
	fmt.Fprintf(&b, "🎮 %s\n", html.EscapeString(match.Format))
	fmt.Fprintf(&b, "🕒 %s\n", m.when(match))
	fmt.Fprintf(&b, "🔗 <a href=\"%s\">Detalhes da partida</a>", html.EscapeString(match.Link))
	return b.String()
}

// MatchList renders the upcoming matches. stale marks data kept from an earlier refresh.
func (m Messages) MatchList(matches []model.Match, stale bool) string {
	if len(matches) == 0 {
		if stale {
			return m.Fallback()
		}
		return fmt.Sprintf("Nenhuma partida da %s agendada no momento.", html.EscapeString(m.HomeTeam))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<b>Próximas partidas da %s</b>\n", html.EscapeString(m.HomeTeam))
	if stale {
		b.WriteString("⚠️ Não foi possível atualizar agora; estes dados podem estar desatualizados.\n")
	}
	for _, match := range matches {
		fmt.Fprintf(&b, "\n🆚 <b>%s</b>\n", html.EscapeString(match.Opponent))
		fmt.Fprintf(&b, "🏆 %s (%s)\n", html.EscapeString(eventLabel(match.Event)), html.EscapeString(match.Format))
		fmt.Fprintf(&b, "🕒 %s\n", m.when(match))
		fmt.Fprintf(&b, "🔗 <a href=\"%s\">Detalhes</a>\n", html.EscapeString(match.Link))
	}
	b.WriteString("\nUse /matches force para forçar a atualização.")
	return b.String()
}

// Fallback points users at the public schedules when nothing is cached.
func (m Messages) Fallback() string {
	return fmt.Sprintf("Não consegui obter as partidas agora. Confira direto nas fontes:\n• HLTV: %s\n• DRAFT5: %s", HLTVMatchesURL, Draft5MatchesURL)
}

func (m Messages) when(match model.Match) string {
	day, ok := match.Day(m.Location)
	if !ok {
		return match.Date
	}
	if match.IsTBA() {
		return day.Format("02/01/2006") + " (horário a definir)"
	}
	return day.Format("02/01/2006") + " às " + match.Time
}

func eventLabel(event string) string {
	if event == "" || event == model.EventUnknown {
		return "Evento desconhecido"
	}
	return event
}

func humanizeLead(d time.Duration) string {
	switch {
	case d == time.Hour:
		return "1 hora"
	case d%time.Hour == 0:
		return fmt.Sprintf("%d horas", int(d/time.Hour))
	case d == time.Minute:
		return "1 minuto"
	default:
		return fmt.Sprintf("%d minutos", int(d/time.Minute))
	}
}
