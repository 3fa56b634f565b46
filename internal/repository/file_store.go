package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/riclovato/furia-chatbot/internal/interfaces"
	"github.com/riclovato/furia-chatbot/internal/model"

	"github.com/sirupsen/logrus"
)

// fileDocument is the on-disk layout.
type fileDocument struct {
	Matches       []model.Match `json:"matches"`
	Subscriptions []string      `json:"subscriptions"`
}

// FileStore keeps the whole document in one JSON file. Every operation is a
// read-modify-write under one mutex; writes go to a temp file that is renamed
// over the original.
type FileStore struct {
	path   string
	logger *logrus.Logger
	mu     sync.Mutex
}

func NewFileStore(path string, logger *logrus.Logger) (interfaces.MatchStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: create data dir: %v", model.ErrStorageIO, err)
		}
	}
	return &FileStore{path: path, logger: logger}, nil
}

// load never fails: a missing or unreadable file reads as an empty document.
func (s *FileStore) load() fileDocument {
	var doc fileDocument
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.WithError(err).WithField("path", s.path).Warn("data file unreadable, starting empty")
		}
		return fileDocument{}
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		s.logger.WithError(err).WithField("path", s.path).Warn("data file corrupt, starting empty")
		return fileDocument{}
	}
	return doc
}

func (s *FileStore) save(doc fileDocument) error {
	if doc.Matches == nil {
		doc.Matches = []model.Match{}
	}
	if doc.Subscriptions == nil {
		doc.Subscriptions = []string{}
	}
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode: %v", model.ErrStorageIO, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", model.ErrStorageIO, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: write: %v", model.ErrStorageIO, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: sync: %v", model.ErrStorageIO, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close: %v", model.ErrStorageIO, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("%w: rename: %v", model.ErrStorageIO, err)
	}
	return nil
}

// update runs fn on the current document and persists the result when fn reports a change.
func (s *FileStore) update(ctx context.Context, fn func(doc *fileDocument) (bool, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.load()
	changed, err := fn(&doc)
	if err != nil || !changed {
		return err
	}
	return s.save(doc)
}

func (s *FileStore) ReplaceMatches(ctx context.Context, matches []model.Match) ([]model.Match, error) {
	var merged []model.Match
	err := s.update(ctx, func(doc *fileDocument) (bool, error) {
		merged = carryForward(doc.Matches, matches)
		doc.Matches = merged
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return cloneMatches(merged), nil
}

func (s *FileStore) AddMatch(ctx context.Context, m model.Match) (bool, error) {
	added := false
	err := s.update(ctx, func(doc *fileDocument) (bool, error) {
		for _, existing := range doc.Matches {
			if existing.ID == m.ID {
				return false, nil
			}
		}
		doc.Matches = append(doc.Matches, m)
		model.SortMatches(doc.Matches)
		added = true
		return true, nil
	})
	return added, err
}

func (s *FileStore) Matches(ctx context.Context) ([]model.Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneMatches(s.load().Matches), nil
}

func (s *FileStore) ClearMatches(ctx context.Context) error {
	return s.update(ctx, func(doc *fileDocument) (bool, error) {
		doc.Matches = nil
		return true, nil
	})
}

func (s *FileStore) MarkNotified(ctx context.Context, id string) error {
	return s.update(ctx, func(doc *fileDocument) (bool, error) {
		for i := range doc.Matches {
			if doc.Matches[i].ID == id {
				if doc.Matches[i].Notified {
					return false, nil
				}
				doc.Matches[i].Notified = true
				return true, nil
			}
		}
		return false, model.ErrMatchNotFound
	})
}

func (s *FileStore) AddSubscription(ctx context.Context, userID string) (bool, error) {
	added := false
	err := s.update(ctx, func(doc *fileDocument) (bool, error) {
		for _, id := range doc.Subscriptions {
			if id == userID {
				return false, nil
			}
		}
		doc.Subscriptions = append(doc.Subscriptions, userID)
		added = true
		return true, nil
	})
	return added, err
}

func (s *FileStore) RemoveSubscription(ctx context.Context, userID string) (bool, error) {
	removed := false
	err := s.update(ctx, func(doc *fileDocument) (bool, error) {
		kept := doc.Subscriptions[:0]
		for _, id := range doc.Subscriptions {
			if id == userID {
				removed = true
				continue
			}
			kept = append(kept, id)
		}
		doc.Subscriptions = kept
		return removed, nil
	})
	return removed, err
}

func (s *FileStore) Subscriptions(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.load().Subscriptions...), nil
}

func cloneMatches(ms []model.Match) []model.Match {
	if ms == nil {
		return []model.Match{}
	}
	return append([]model.Match(nil), ms...)
}
