package interfaces

import (
	"context"

	"github.com/riclovato/furia-chatbot/internal/model"
)

// MatchStore persists the current match collection and the subscriber list.
// Every mutation is serialized; ReplaceMatches carries Notified forward for ids
// that survive the replace.
type MatchStore interface {
	ReplaceMatches(ctx context.Context, matches []model.Match) ([]model.Match, error)
	AddMatch(ctx context.Context, m model.Match) (bool, error)
	Matches(ctx context.Context) ([]model.Match, error)
	ClearMatches(ctx context.Context) error
	MarkNotified(ctx context.Context, id string) error

	AddSubscription(ctx context.Context, userID string) (bool, error)
	RemoveSubscription(ctx context.Context, userID string) (bool, error)
	Subscriptions(ctx context.Context) ([]string, error)
}

// ExtractionLog records sync cycles for diagnostics.
type ExtractionLog interface {
	SaveRun(ctx context.Context, run *model.ExtractionRun) error
	ListRuns(ctx context.Context, limit int) ([]*model.ExtractionRun, error)
}
