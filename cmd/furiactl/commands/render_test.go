package commands

import (
	"bytes"
	"testing"
	"time"

	"github.com/riclovato/furia-chatbot/internal/model"

	"github.com/stretchr/testify/require"
)

func TestRenderMatches(t *testing.T) {
	var buf bytes.Buffer
	renderMatches(&buf, []model.Match{
		{ID: "abc", Opponent: "Team Liquid", Event: "IEM Dallas 2025", Format: "MD3", Date: "2025-04-30", Time: "19:00"},
		{ID: "def", Opponent: "MIBR", Event: model.EventUnknown, Format: "MD1", Date: "2025-05-02", Time: model.TimeTBA},
	}, time.FixedZone("BRT", -3*3600))

	out := buf.String()
	require.Contains(t, out, "30/04/2025")
	require.Contains(t, out, "Team Liquid")
	require.Contains(t, out, string(model.StatePending))
	require.Contains(t, out, string(model.StateIneligible))
}

func TestRenderRejections(t *testing.T) {
	var buf bytes.Buffer
	renderRejections(&buf, []model.Rejection{{Reason: model.RejectMissingLink, Detail: "MIBR", Text: "FURIA x MIBR 19:00"}})
	require.Contains(t, buf.String(), "missing_link")
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "abc", truncate("abc", 5))
	require.Equal(t, "abcd…", truncate("abcdefgh", 5))
}
