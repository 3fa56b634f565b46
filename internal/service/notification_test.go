package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riclovato/furia-chatbot/internal/config"
	"github.com/riclovato/furia-chatbot/internal/interfaces"
	"github.com/riclovato/furia-chatbot/internal/model"
	"github.com/riclovato/furia-chatbot/internal/normalize"
	"github.com/riclovato/furia-chatbot/internal/utils/clock"

	"github.com/stretchr/testify/require"
)

func liquid() model.Match {
	m := candidate("Team Liquid", "2025-04-30", "19:00")
	m.ID = MatchID(m.Date, m.Opponent)
	return m
}

func newScheduler(store interfaces.MatchStore, n interfaces.Notifier, clk clock.Clock, missed string) *NotificationService {
	return NewNotificationService(store, n,
		Messages{HomeTeam: "FURIA", Location: brt},
		config.SchedulerConfig{Lead: time.Hour, MissedWindow: missed},
		quietLogger(), clk)
}

func seed(t *testing.T, store interfaces.MatchStore, subs []string, matches ...model.Match) {
	t.Helper()
	ctx := context.Background()
	_, err := store.ReplaceMatches(ctx, matches)
	require.NoError(t, err)
	for _, s := range subs {
		_, err := store.AddSubscription(ctx, s)
		require.NoError(t, err)
	}
}

func TestTick_FiresOnlyInsideWindow(t *testing.T) {
	cases := []struct {
		now   time.Time
		fires bool
	}{
		{time.Date(2025, 4, 30, 17, 59, 59, 0, brt), false},
		{time.Date(2025, 4, 30, 18, 0, 0, 0, brt), true},
		{time.Date(2025, 4, 30, 18, 30, 0, 0, brt), true},
		{time.Date(2025, 4, 30, 18, 59, 59, 0, brt), true},
		{time.Date(2025, 4, 30, 19, 0, 0, 0, brt), false},
		{time.Date(2025, 4, 30, 21, 0, 0, 0, brt), false},
		// same instant seen from another zone
		{time.Date(2025, 4, 30, 21, 30, 0, 0, time.UTC), true},
	}
	for _, tc := range cases {
		t.Run(tc.now.Format(time.RFC3339), func(t *testing.T) {
			store := newStore(t)
			seed(t, store, []string{"1"}, liquid())
			n := &fakeNotifier{}

			_, err := newScheduler(store, n, clock.NewManual(tc.now), config.MissedWindowSkip).Tick(context.Background())
			require.NoError(t, err)
			require.Equal(t, tc.fires, len(n.messages()) == 1)
		})
	}
}

func TestTick_NeverTwice(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	seed(t, store, []string{"1", "2"}, liquid())
	n := &fakeNotifier{}
	clk := clock.NewManual(time.Date(2025, 4, 30, 18, 5, 0, 0, brt))
	s := newScheduler(store, n, clk, config.MissedWindowLate)

	report, err := s.Tick(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, report.Notified)
	require.Len(t, n.messages(), 2)

	for i := 0; i < 20; i++ {
		clk.Advance(5 * time.Minute)
		_, err := s.Tick(ctx)
		require.NoError(t, err)
	}
	require.Len(t, n.messages(), 2)

	ms, err := store.Matches(ctx)
	require.NoError(t, err)
	require.True(t, ms[0].Notified)
}

func TestTick_TBANeverFires(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	tba := candidate("MIBR", "2025-04-30", model.TimeTBA)
	tba.ID = MatchID(tba.Date, tba.Opponent)
	seed(t, store, []string{"1"}, tba)
	n := &fakeNotifier{}
	clk := clock.NewManual(time.Date(2025, 4, 29, 0, 0, 0, 0, brt))
	s := newScheduler(store, n, clk, config.MissedWindowLate)

	for i := 0; i < 3*24*12; i++ {
		report, err := s.Tick(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, report.Ineligible)
		clk.Advance(5 * time.Minute)
	}
	require.Empty(t, n.messages())
	ms, err := store.Matches(ctx)
	require.NoError(t, err)
	require.False(t, ms[0].Notified)
}

func TestTick_MissedWindowPolicy(t *testing.T) {
	late := time.Date(2025, 4, 30, 19, 10, 0, 0, brt)

	t.Run("skip marks silently", func(t *testing.T) {
		store := newStore(t)
		seed(t, store, []string{"1"}, liquid())
		n := &fakeNotifier{}
		report, err := newScheduler(store, n, clock.NewManual(late), config.MissedWindowSkip).Tick(context.Background())
		require.NoError(t, err)
		require.Equal(t, 1, report.Skipped)
		require.Empty(t, n.messages())

		ms, err := store.Matches(context.Background())
		require.NoError(t, err)
		require.True(t, ms[0].Notified)
	})

	t.Run("late sends once", func(t *testing.T) {
		store := newStore(t)
		seed(t, store, []string{"1"}, liquid())
		n := &fakeNotifier{}
		s := newScheduler(store, n, clock.NewManual(late), config.MissedWindowLate)
		_, err := s.Tick(context.Background())
		require.NoError(t, err)
		_, err = s.Tick(context.Background())
		require.NoError(t, err)
		require.Len(t, n.messages(), 1)
	})
}

func TestTick_DeliveryFailureIsIsolated(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	seed(t, store, []string{"A", "B", "C"}, liquid())
	n := &fakeNotifier{fail: map[string]error{"B": errors.New("Forbidden: bot was blocked by the user")}}

	report, err := newScheduler(store, n, clock.NewManual(time.Date(2025, 4, 30, 18, 30, 0, 0, brt)), config.MissedWindowSkip).Tick(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, report.Deliveries)
	require.Equal(t, 1, report.Failures)
	require.Equal(t, []string{"B"}, report.Unsubscribed)

	var got []string
	for _, m := range n.messages() {
		got = append(got, m.to)
	}
	require.Equal(t, []string{"A", "C"}, got)

	subs, err := store.Subscriptions(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"A", "C"}, subs)

	ms, err := store.Matches(ctx)
	require.NoError(t, err)
	require.True(t, ms[0].Notified)
}

func TestTick_ZeroSubscribersStillMarks(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	seed(t, store, nil, liquid())

	_, err := newScheduler(store, &fakeNotifier{}, clock.NewManual(time.Date(2025, 4, 30, 18, 30, 0, 0, brt)), config.MissedWindowSkip).Tick(ctx)
	require.NoError(t, err)
	ms, err := store.Matches(ctx)
	require.NoError(t, err)
	require.True(t, ms[0].Notified)
}

func TestTick_MarkFailureDoesNotResend(t *testing.T) {
	ctx := context.Background()
	store := &flakyMarkStore{MatchStore: newStore(t), failures: 1}
	seed(t, store, []string{"1"}, liquid())
	n := &fakeNotifier{}
	clk := clock.NewManual(time.Date(2025, 4, 30, 18, 30, 0, 0, brt))
	s := newScheduler(store, n, clk, config.MissedWindowSkip)

	_, err := s.Tick(ctx)
	require.Error(t, err)
	require.Len(t, n.messages(), 1)

	clk.Advance(5 * time.Minute)
	_, err = s.Tick(ctx)
	require.NoError(t, err)
	require.Len(t, n.messages(), 1)

	ms, err := store.Matches(ctx)
	require.NoError(t, err)
	require.True(t, ms[0].Notified)
}

// One upcoming match goes from page fragment to exactly one alert.
func TestEndToEnd_FragmentToAlert(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewManual(time.Date(2025, 4, 30, 10, 0, 0, 0, brt))
	store := newStore(t)
	_, err := store.AddSubscription(ctx, "S")
	require.NoError(t, err)

	extractor := &stubExtractor{page: &model.RawPage{Fragments: []model.RawFragment{{
		Teams:     []string{"FURIA", "Team Liquid"},
		Event:     "IEM Dallas 2025",
		DayLabel:  "2025-04-30",
		TimeLabel: "19:00",
		Format:    "BO3",
		Link:      "https://draft5.gg/partida/35001",
	}}}}
	norm := normalize.New(normalize.Options{HomeTeam: "FURIA", DefaultFormat: "MD3", Source: brt, Target: brt}, clk)
	sync := NewSyncService(extractor, norm, NewValidator("FURIA", brt, clk), store, nil, quietLogger(), clk)

	res, err := sync.Sync(ctx, SyncOptions{})
	require.NoError(t, err)
	require.Len(t, res.Matches, 1)

	n := &fakeNotifier{}
	s := newScheduler(store, n, clk, config.MissedWindowSkip)

	clk.Set(time.Date(2025, 4, 30, 18, 5, 0, 0, brt))
	_, err = s.Tick(ctx)
	require.NoError(t, err)
	clk.Set(time.Date(2025, 4, 30, 18, 10, 0, 0, brt))
	_, err = s.Tick(ctx)
	require.NoError(t, err)

	msgs := n.messages()
	require.Len(t, msgs, 1)
	require.Equal(t, "S", msgs[0].to)
	require.Contains(t, msgs[0].text, "Team Liquid")
	require.Contains(t, msgs[0].text, "IEM Dallas 2025")
	require.Contains(t, msgs[0].text, "30/04/2025 às 19:00")
}
