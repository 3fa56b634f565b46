package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/riclovato/furia-chatbot/internal/interfaces"
	"github.com/riclovato/furia-chatbot/internal/model"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, AutoMigrate(db))
	return db
}

type storeFactory func(t *testing.T) interfaces.MatchStore

func stores() map[string]storeFactory {
	return map[string]storeFactory{
		"file": func(t *testing.T) interfaces.MatchStore {
			s, err := NewFileStore(filepath.Join(t.TempDir(), "data", "furia.json"), quietLogger())
			require.NoError(t, err)
			return s
		},
		"gorm": func(t *testing.T) interfaces.MatchStore {
			return NewMatchRepository(newSQLiteDB(t))
		},
	}
}

func match(id, date, clk string) model.Match {
	return model.Match{
		ID:       id,
		Opponent: "Opponent " + id,
		Event:    "IEM Dallas 2025",
		Format:   "BO3",
		Date:     date,
		Time:     clk,
		Link:     "https://draft5.gg/partida/" + id,
	}
}

func TestStore_RoundTrip(t *testing.T) {
	for name, newStore := range stores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)

			in := []model.Match{
				match("b", "2025-05-01", "13:00"),
				match("a", "2025-04-30", model.TimeTBA),
				match("c", "2025-04-30", "19:00"),
			}
			_, err := s.ReplaceMatches(ctx, in)
			require.NoError(t, err)
			for _, u := range []string{"100", "200"} {
				added, err := s.AddSubscription(ctx, u)
				require.NoError(t, err)
				require.True(t, added)
			}

			got, err := s.Matches(ctx)
			require.NoError(t, err)
			want := []model.Match{in[2], in[1], in[0]}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("matches mismatch (-want +got):\n%s", diff)
			}
			subs, err := s.Subscriptions(ctx)
			require.NoError(t, err)
			require.ElementsMatch(t, []string{"100", "200"}, subs)
		})
	}
}

func TestStore_ReplaceCarriesNotifiedForward(t *testing.T) {
	for name, newStore := range stores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)

			_, err := s.ReplaceMatches(ctx, []model.Match{match("a", "2025-04-30", "19:00"), match("b", "2025-05-01", "19:00")})
			require.NoError(t, err)
			require.NoError(t, s.MarkNotified(ctx, "a"))

			moved := match("a", "2025-04-30", "20:00")
			got, err := s.ReplaceMatches(ctx, []model.Match{moved, match("d", "2025-05-02", "19:00")})
			require.NoError(t, err)
			require.Len(t, got, 2)
			require.Equal(t, "a", got[0].ID)
			require.True(t, got[0].Notified)
			require.Equal(t, "20:00", got[0].Time)
			require.False(t, got[1].Notified)

			// ids that disappear lose their flag for good
			_, err = s.ReplaceMatches(ctx, []model.Match{match("d", "2025-05-02", "19:00")})
			require.NoError(t, err)
			got, err = s.ReplaceMatches(ctx, []model.Match{match("a", "2025-04-30", "20:00")})
			require.NoError(t, err)
			require.False(t, got[0].Notified)
		})
	}
}

func TestStore_ReplaceIsIdempotent(t *testing.T) {
	for name, newStore := range stores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)
			in := []model.Match{match("a", "2025-04-30", "19:00"), match("a", "2025-04-30", "21:00"), match("b", "2025-05-01", "19:00")}

			first, err := s.ReplaceMatches(ctx, in)
			require.NoError(t, err)
			require.Len(t, first, 2, "duplicate ids collapse to the first occurrence")
			require.Equal(t, "19:00", first[0].Time)

			second, err := s.ReplaceMatches(ctx, in)
			require.NoError(t, err)
			require.Empty(t, cmp.Diff(first, second))
		})
	}
}

func TestStore_MatchesAndSubscriptionsAreIndependent(t *testing.T) {
	for name, newStore := range stores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)

			_, err := s.AddSubscription(ctx, "42")
			require.NoError(t, err)
			added, err := s.AddSubscription(ctx, "42")
			require.NoError(t, err)
			require.False(t, added)

			_, err = s.ReplaceMatches(ctx, []model.Match{match("a", "2025-04-30", "19:00")})
			require.NoError(t, err)
			require.NoError(t, s.ClearMatches(ctx))

			ms, err := s.Matches(ctx)
			require.NoError(t, err)
			require.Empty(t, ms)
			subs, err := s.Subscriptions(ctx)
			require.NoError(t, err)
			require.Equal(t, []string{"42"}, subs)

			removed, err := s.RemoveSubscription(ctx, "42")
			require.NoError(t, err)
			require.True(t, removed)
			removed, err = s.RemoveSubscription(ctx, "42")
			require.NoError(t, err)
			require.False(t, removed)
		})
	}
}

func TestStore_AddMatchAndMarkUnknown(t *testing.T) {
	for name, newStore := range stores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)

			added, err := s.AddMatch(ctx, match("a", "2025-04-30", "19:00"))
			require.NoError(t, err)
			require.True(t, added)
			added, err = s.AddMatch(ctx, match("a", "2025-04-30", "21:00"))
			require.NoError(t, err)
			require.False(t, added)

			err = s.MarkNotified(ctx, "missing")
			require.True(t, errors.Is(err, model.ErrMatchNotFound))
		})
	}
}

// A refresh racing the scheduler must never resurrect Notified=false.
func TestStore_ConcurrentReplaceAndMark(t *testing.T) {
	for name, newStore := range stores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)
			batch := []model.Match{match("a", "2025-04-30", "19:00"), match("b", "2025-05-01", "19:00")}
			_, err := s.ReplaceMatches(ctx, batch)
			require.NoError(t, err)

			var wg sync.WaitGroup
			for i := 0; i < 10; i++ {
				wg.Add(2)
				go func() {
					defer wg.Done()
					_, _ = s.ReplaceMatches(ctx, batch)
				}()
				go func() {
					defer wg.Done()
					_ = s.MarkNotified(ctx, "a")
				}()
			}
			wg.Wait()

			ms, err := s.Matches(ctx)
			require.NoError(t, err)
			require.True(t, ms[0].Notified)
			require.False(t, ms[1].Notified)
		})
	}
}

func TestFileStore_UnreadableFileStartsEmpty(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "furia.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s, err := NewFileStore(path, quietLogger())
	require.NoError(t, err)
	ms, err := s.Matches(ctx)
	require.NoError(t, err)
	require.Empty(t, ms)

	_, err = s.AddSubscription(ctx, "7")
	require.NoError(t, err)
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.JSONEq(t, `{"matches":[],"subscriptions":["7"]}`, string(raw))
}

func TestFileStore_WriteFailureEscalates(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(filepath.Join(dir, "furia.json"), quietLogger())
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(dir))

	_, err = s.ReplaceMatches(context.Background(), []model.Match{match("a", "2025-04-30", "19:00")})
	require.Error(t, err)
	require.True(t, errors.Is(err, model.ErrStorageIO))
}
