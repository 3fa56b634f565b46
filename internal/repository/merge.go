package repository

import (
	"github.com/riclovato/furia-chatbot/internal/model"
)

// carryForward builds the replacement collection: next, deduplicated by id
// (first occurrence wins), with Notified kept from prev for surviving ids.
func carryForward(prev, next []model.Match) []model.Match {
	notified := make(map[string]bool, len(prev))
	for _, m := range prev {
		if m.Notified {
			notified[m.ID] = true
		}
	}

	seen := make(map[string]struct{}, len(next))
	out := make([]model.Match, 0, len(next))
	for _, m := range next {
		if _, dup := seen[m.ID]; dup {
			continue
		}
		seen[m.ID] = struct{}{}
		m.Notified = m.Notified || notified[m.ID]
		out = append(out, m)
	}
	model.SortMatches(out)
	return out
}
