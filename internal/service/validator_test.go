package service

import (
	"errors"
	"testing"
	"time"

	"github.com/riclovato/furia-chatbot/internal/model"
	"github.com/riclovato/furia-chatbot/internal/utils/clock"

	"github.com/stretchr/testify/require"
)

var brt = time.FixedZone("BRT", -3*3600)

func candidate(opponent, date, clk string) model.Match {
	return model.Match{
		Opponent: opponent,
		Event:    "IEM Dallas 2025",
		Format:   "BO3",
		Date:     date,
		Time:     clk,
		Link:     "https://draft5.gg/partida/" + opponent,
	}
}

func TestMatchID(t *testing.T) {
	a := MatchID("2025-04-30", "Team Liquid")
	require.Len(t, a, MatchIDLength)
	require.Regexp(t, `^[0-9a-f]+$`, a)
	require.Equal(t, a, MatchID("2025-04-30", "  team liquid "))
	require.NotEqual(t, a, MatchID("2025-05-01", "Team Liquid"))
	require.NotEqual(t, a, MatchID("2025-04-30", "NAVI"))
}

func TestValidator(t *testing.T) {
	now := time.Date(2025, 4, 20, 12, 0, 0, 0, brt)
	v := NewValidator("FURIA", brt, clock.NewManual(now))

	t.Run("accepts and assigns id", func(t *testing.T) {
		m, err := v.Validate(candidate("Team Liquid", "2025-04-30", "19:00"))
		require.NoError(t, err)
		require.Equal(t, MatchID("2025-04-30", "Team Liquid"), m.ID)
	})

	t.Run("same date and opponent share id", func(t *testing.T) {
		a, err := v.Validate(candidate("NAVI", "2025-04-30", "13:00"))
		require.NoError(t, err)
		b := candidate("NAVI", "2025-04-30", "16:00")
		b.Event = "other"
		b, err = v.Validate(b)
		require.NoError(t, err)
		require.Equal(t, a.ID, b.ID)
	})

	rejects := []struct {
		name   string
		m      model.Match
		reason model.RejectReason
	}{
		{"home team", candidate("furia", "2025-04-30", "19:00"), model.RejectOpponentIsHome},
		{"one char opponent", candidate("X", "2025-04-30", "19:00"), model.RejectOpponentTooShort},
		{"missing link", func() model.Match { m := candidate("MIBR", "2025-04-30", "19:00"); m.Link = ""; return m }(), model.RejectMissingLink},
		{"missing opponent", candidate("", "2025-04-30", "19:00"), model.RejectMissingOpponent},
		{"missing date", candidate("MIBR", "", "19:00"), model.RejectMissingDate},
		{"missing time", candidate("MIBR", "2025-04-30", ""), model.RejectMissingTime},
		{"bad date", candidate("MIBR", "30/04/2025", "19:00"), model.RejectBadDate},
		{"bad time", candidate("MIBR", "2025-04-30", "7pm"), model.RejectBadTime},
	}
	for _, tc := range rejects {
		t.Run(tc.name, func(t *testing.T) {
			_, err := v.Validate(tc.m)
			re, ok := model.IsRejected(err)
			require.True(t, ok, "got %v", err)
			require.Equal(t, tc.reason, re.Reason)
		})
	}

	t.Run("past match dropped", func(t *testing.T) {
		_, err := v.Validate(candidate("MIBR", "2025-04-20", "11:59"))
		require.True(t, errors.Is(err, model.ErrMatchPast))
		_, err = v.Validate(candidate("MIBR", "2025-04-20", "12:00"))
		require.True(t, errors.Is(err, model.ErrMatchPast))
	})

	t.Run("tba kept for today, dropped for yesterday", func(t *testing.T) {
		_, err := v.Validate(candidate("MIBR", "2025-04-20", model.TimeTBA))
		require.NoError(t, err)
		_, err = v.Validate(candidate("MIBR", "2025-04-19", model.TimeTBA))
		require.True(t, errors.Is(err, model.ErrMatchPast))
	})
}
