package service

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/riclovato/furia-chatbot/internal/model"
	"github.com/riclovato/furia-chatbot/internal/utils/clock"
)

// minOpponentLength is the shortest opponent name accepted, in runes.
const minOpponentLength = 2

// Validator applies the record rules and assigns ids.
type Validator struct {
	homeTeam string
	loc      *time.Location
	clock    clock.Clock
}

func NewValidator(homeTeam string, loc *time.Location, clk clock.Clock) *Validator {
	if clk == nil {
		clk = clock.Real()
	}
	return &Validator{homeTeam: strings.TrimSpace(homeTeam), loc: loc, clock: clk}
}

// Validate returns the record with its id set. Errors are *model.RejectedError,
// or model.ErrMatchPast for matches that already started.
func (v *Validator) Validate(m model.Match) (model.Match, error) {
	m.Opponent = strings.TrimSpace(m.Opponent)
	m.Link = strings.TrimSpace(m.Link)

	// 1. required keys
	switch {
	case m.Opponent == "":
		return model.Match{}, model.Reject(model.RejectMissingOpponent, "")
	case m.Date == "":
		return model.Match{}, model.Reject(model.RejectMissingDate, m.Opponent)
	case m.Time == "":
		return model.Match{}, model.Reject(model.RejectMissingTime, m.Opponent)
	case m.Link == "":
		return model.Match{}, model.Reject(model.RejectMissingLink, m.Opponent)
	}

	// 2. opponent sanity
	if utf8.RuneCountInString(m.Opponent) < minOpponentLength {
		return model.Match{}, model.Reject(model.RejectOpponentTooShort, m.Opponent)
	}
	if strings.EqualFold(m.Opponent, v.homeTeam) {
		return model.Match{}, model.Reject(model.RejectOpponentIsHome, m.Opponent)
	}

	// 3. well-formed date/time
	day, ok := m.Day(v.loc)
	if !ok {
		return model.Match{}, model.Reject(model.RejectBadDate, m.Date)
	}
	if m.Event == "" {
		m.Event = model.EventUnknown
	}

	// 4. drop what already started
	now := v.clock.Now().In(v.loc)
	if m.IsTBA() {
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, v.loc)
		if day.Before(today) {
			return model.Match{}, model.ErrMatchPast
		}
	} else {
		start, ok := m.StartsAt(v.loc)
		if !ok {
			return model.Match{}, model.Reject(model.RejectBadTime, m.Time)
		}
		if !start.After(now) {
			return model.Match{}, model.ErrMatchPast
		}
	}

	m.ID = MatchID(m.Date, m.Opponent)
	return m, nil
}
