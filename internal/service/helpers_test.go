package service

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"

	"github.com/riclovato/furia-chatbot/internal/interfaces"
	"github.com/riclovato/furia-chatbot/internal/model"
	"github.com/riclovato/furia-chatbot/internal/repository"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newStore(t *testing.T) interfaces.MatchStore {
	t.Helper()
	s, err := repository.NewFileStore(filepath.Join(t.TempDir(), "furia.json"), quietLogger())
	require.NoError(t, err)
	return s
}

type sentMessage struct {
	to   string
	text string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
	fail map[string]error
}

func (n *fakeNotifier) Name() string { return "fake" }

func (n *fakeNotifier) Send(ctx context.Context, recipientID, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err, ok := n.fail[recipientID]; ok {
		return err
	}
	n.sent = append(n.sent, sentMessage{to: recipientID, text: text})
	return nil
}

func (n *fakeNotifier) messages() []sentMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentMessage(nil), n.sent...)
}

type stubExtractor struct {
	page  *model.RawPage
	err   error
	calls int
}

func (e *stubExtractor) FetchRaw(ctx context.Context, force bool) (*model.RawPage, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	return e.page.Clone(), nil
}

type memoryRuns struct {
	runs []*model.ExtractionRun
}

func (m *memoryRuns) SaveRun(ctx context.Context, run *model.ExtractionRun) error {
	m.runs = append(m.runs, run)
	return nil
}

func (m *memoryRuns) ListRuns(ctx context.Context, limit int) ([]*model.ExtractionRun, error) {
	return m.runs, nil
}

// flakyMarkStore fails MarkNotified a fixed number of times.
type flakyMarkStore struct {
	interfaces.MatchStore
	failures int
}

func (s *flakyMarkStore) MarkNotified(ctx context.Context, id string) error {
	if s.failures > 0 {
		s.failures--
		return errors.New("disk full")
	}
	return s.MatchStore.MarkNotified(ctx, id)
}
