package normalize

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/riclovato/furia-chatbot/internal/config"
	"github.com/riclovato/furia-chatbot/internal/model"
	"github.com/riclovato/furia-chatbot/internal/utils/clock"
)

var (
	reFormat = regexp.MustCompile(`(?i)\b(MD|BO)\s?(\d{1,2})\b`)
	reEvent  = regexp.MustCompile(`(?i)\b(BLAST|ESL|IEM|PGL|Major|Champions|Rivals|Spring|Winter|Fall|Summer|CCT|Thunderpick|Perfect World)\b.*?\d{4}`)
	// "FURIA vs Team Liquid", "FURIA x MIBR"
	reVersus = regexp.MustCompile(`(?i)^(.+?)\s+(?:vs\.?|x)\s+(.+)$`)
)

// schedule tokens that end a team name after "vs" or start it before
var (
	reVersusTail = regexp.MustCompile(`(?i)\s+(?:\d{1,2}[:h/]\d{2}|\d{4}\b|(?:MD|BO)\s?\d{1,2}\b|(?:BLAST|ESL|IEM|PGL|Major|Champions|CCT|Thunderpick|Perfect World)\b)`)
	reVersusLead = regexp.MustCompile(`(?i)(?:\d{1,2}[:h/]\d{2}|\d{4}|(?:MD|BO)\s?\d{1,2})\s+`)
)

// Normalizer turns raw page fragments into candidate match records.
// It does not compute ids or apply validation rules.
type Normalizer struct {
	homeTeam      string
	defaultFormat string
	src           *time.Location
	dst           *time.Location
	clock         clock.Clock
}

// Options is the subset of configuration the normalizer needs.
type Options struct {
	HomeTeam      string
	DefaultFormat string
	Source        *time.Location // zone the page prints times in
	Target        *time.Location // zone records are stored in
}

func New(opts Options, clk clock.Clock) *Normalizer {
	if opts.Source == nil {
		opts.Source = time.UTC
	}
	if opts.Target == nil {
		opts.Target = opts.Source
	}
	if clk == nil {
		clk = clock.Real()
	}
	return &Normalizer{
		homeTeam:      strings.TrimSpace(opts.HomeTeam),
		defaultFormat: opts.DefaultFormat,
		src:           opts.Source,
		dst:           opts.Target,
		clock:         clk,
	}
}

// NewFromConfig wires a Normalizer from the loaded configuration.
func NewFromConfig(cfg *config.Config, clk clock.Clock) *Normalizer {
	return New(Options{
		HomeTeam:      cfg.Scraper.HomeTeam,
		DefaultFormat: cfg.Scraper.DefaultFormat,
		Source:        cfg.SourceLocation(),
		Target:        cfg.Location(),
	}, clk)
}

// NormalizePage normalizes every fragment; one bad fragment never aborts the rest.
func (n *Normalizer) NormalizePage(page *model.RawPage) ([]model.Match, []model.Rejection) {
	if page == nil {
		return nil, nil
	}
	var (
		out      []model.Match
		rejected []model.Rejection
	)
	for _, f := range page.Fragments {
		m, err := n.Normalize(f, page.ReferenceDate)
		if err != nil {
			r := model.Rejection{Reason: model.RejectInvalid, Detail: err.Error(), Text: f.Text}
			if re, ok := model.IsRejected(err); ok {
				r.Reason, r.Detail = re.Reason, re.Detail
			}
			rejected = append(rejected, r)
			continue
		}
		out = append(out, m)
	}
	return out, rejected
}

// Normalize resolves one fragment. pageReference is the page-level date label, if any.
func (n *Normalizer) Normalize(f model.RawFragment, pageReference string) (model.Match, error) {
	// 1. opponent
	opponent := n.resolveOpponent(f)
	if opponent == "" {
		return model.Match{}, model.Reject(model.RejectUnresolvedOpponent, strings.Join(f.Teams, ", "))
	}

	// 2. link
	link := strings.TrimSpace(f.Link)
	if link == "" {
		return model.Match{}, model.Reject(model.RejectMissingLink, opponent)
	}

	// 3. date and time
	date, clk, tba, err := n.resolveSchedule(f, pageReference)
	if err != nil {
		return model.Match{}, err
	}

	m := model.Match{
		Opponent: opponent,
		Event:    n.resolveEvent(f),
		Format:   n.resolveFormat(f),
		Link:     link,
	}
	if tba {
		m.Date = date.in(n.src).Format(model.DateLayout)
		m.Time = model.TimeTBA
		return m, nil
	}
	start := time.Date(date.year, date.month, date.day, clk.hour, clk.minute, 0, 0, n.src).In(n.dst)
	m.Date = start.Format(model.DateLayout)
	m.Time = start.Format(model.ClockLayout)
	return m, nil
}

// resolveSchedule applies, in order: an absolute "DD/MM/YYYY HH:MM"; a TBA label;
// a bare clock combined with the closest reference date. A date found in the
// fragment itself wins over the page-level date.
func (n *Normalizer) resolveSchedule(f model.RawFragment, pageReference string) (civilDate, clockTime, bool, error) {
	for _, s := range []string{f.TimeLabel, f.DayLabel + " " + f.TimeLabel, f.Text} {
		if d, c, ok := parseAbsolute(s); ok {
			return d, c, false, nil
		}
	}

	now := n.clock.Now().In(n.src)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, n.src)

	pageDate, pageOK := parseDateLabel(pageReference, today, today)
	anchor := today
	if pageOK {
		anchor = pageDate.in(n.src)
	}

	date, ok := parseDayLabel(f.DayLabel, anchor, today)
	if !ok {
		date, ok = parseDateInText(f.Text, anchor)
	}
	if !ok && pageOK {
		date, ok = pageDate, true
	}
	if !ok {
		return civilDate{}, clockTime{}, false, model.Reject(model.RejectMissingDate, collapse(f.DayLabel+" "+f.TimeLabel))
	}

	if isTBA(f.TimeLabel) || (strings.TrimSpace(f.TimeLabel) == "" && containsTBA(f.Text)) {
		return date, clockTime{}, true, nil
	}

	c, ok := parseClock(f.TimeLabel)
	if !ok && strings.TrimSpace(f.TimeLabel) == "" {
		c, ok = parseClock(f.Text)
	}
	if !ok {
		return civilDate{}, clockTime{}, false, model.Reject(model.RejectMissingTime, collapse(f.TimeLabel))
	}
	return date, c, false, nil
}

func containsTBA(text string) bool {
	f := " " + fold(text) + " "
	for _, l := range tbaLabels {
		if strings.Contains(f, " "+l+" ") {
			return true
		}
	}
	return false
}

// resolveOpponent returns the first team that is not the home team.
func (n *Normalizer) resolveOpponent(f model.RawFragment) string {
	teams := f.Teams
	if len(teams) == 0 {
		if m := reVersus.FindStringSubmatch(collapse(f.Text)); m != nil {
			teams = []string{versusLeft(m[1]), versusRight(m[2])}
		}
	}
	for _, t := range teams {
		t = collapse(t)
		if t == "" || strings.EqualFold(t, n.homeTeam) {
			continue
		}
		return t
	}
	return ""
}

const (
	maxTeamWords = 4
	maxTeamRunes = 32
)

func versusLeft(s string) string {
	if locs := reVersusLead.FindAllStringIndex(s, -1); len(locs) > 0 {
		s = s[locs[len(locs)-1][1]:]
	}
	return plausibleTeam(s)
}

func versusRight(s string) string {
	if loc := reVersusTail.FindStringIndex(s); loc != nil {
		s = s[:loc[0]]
	}
	return plausibleTeam(s)
}

// plausibleTeam drops names that still carry free text after trimming.
func plausibleTeam(s string) string {
	s = collapse(s)
	if len(strings.Fields(s)) > maxTeamWords || utf8.RuneCountInString(s) > maxTeamRunes {
		return ""
	}
	return s
}

func (n *Normalizer) resolveFormat(f model.RawFragment) string {
	for _, s := range []string{f.Format, f.Text} {
		if m := reFormat.FindStringSubmatch(s); m != nil {
			return fmt.Sprintf("%s%s", strings.ToUpper(m[1]), m[2])
		}
	}
	if v := collapse(f.Format); v != "" {
		return strings.ToUpper(v)
	}
	return n.defaultFormat
}

func (n *Normalizer) resolveEvent(f model.RawFragment) string {
	if v := collapse(f.Event); v != "" {
		return v
	}
	if m := reEvent.FindString(f.Text); m != "" {
		return collapse(m)
	}
	return model.EventUnknown
}
