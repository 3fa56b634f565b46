package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/riclovato/furia-chatbot/internal/interfaces"
	"github.com/riclovato/furia-chatbot/internal/model"
	"github.com/riclovato/furia-chatbot/internal/normalize"
	"github.com/riclovato/furia-chatbot/internal/utils/clock"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// SyncOptions controls one sync cycle.
type SyncOptions struct {
	Force bool // bypass the extractor cache
	// ClearOnFailure empties the store when extraction fails instead of keeping the last good data.
	ClearOnFailure bool
}

// SyncResult is what callers show to users. On failure Matches holds the
// retained collection and Stale is set.
type SyncResult struct {
	Matches    []model.Match     `json:"matches"`
	Stale      bool              `json:"stale"`
	FromCache  bool              `json:"from_cache"`
	Empty      bool              `json:"empty"`
	Accepted   int               `json:"accepted"`
	Dropped    int               `json:"dropped"`
	Rejections []model.Rejection `json:"rejections,omitempty"`
	FetchedAt  time.Time         `json:"fetched_at"`
}

// SyncService runs extractor → normalizer → validator → reconciler.
type SyncService struct {
	extractor  interfaces.Extractor
	normalizer *normalize.Normalizer
	validator  *Validator
	store      interfaces.MatchStore
	runs       interfaces.ExtractionLog
	logger     *logrus.Logger
	clock      clock.Clock
}

// NewSyncService wires the pipeline. runs may be nil.
func NewSyncService(
	extractor interfaces.Extractor,
	normalizer *normalize.Normalizer,
	validator *Validator,
	store interfaces.MatchStore,
	runs interfaces.ExtractionLog,
	logger *logrus.Logger,
	clk clock.Clock,
) *SyncService {
	if clk == nil {
		clk = clock.Real()
	}
	return &SyncService{
		extractor:  extractor,
		normalizer: normalizer,
		validator:  validator,
		store:      store,
		runs:       runs,
		logger:     logger,
		clock:      clk,
	}
}

// Refresh replaces the stored collection with candidates, keeping Notified for surviving ids.
func (s *SyncService) Refresh(ctx context.Context, candidates []model.Match) ([]model.Match, error) {
	return s.store.ReplaceMatches(ctx, candidates)
}

// GetCurrent returns the stored collection.
func (s *SyncService) GetCurrent(ctx context.Context) ([]model.Match, error) {
	return s.store.Matches(ctx)
}

// Sync runs one cycle. A returned error always comes with a non-nil result
// describing what is being served instead.
func (s *SyncService) Sync(ctx context.Context, opts SyncOptions) (*SyncResult, error) {
	run := &model.ExtractionRun{StartedAt: s.clock.Now(), Forced: opts.Force}
	defer s.recordRun(ctx, run)

	// 1. extract
	page, err := s.extractor.FetchRaw(ctx, opts.Force)
	if err != nil {
		return s.fail(ctx, run, opts, err)
	}
	if page.FromCache {
		current, err := s.store.Matches(ctx)
		if err != nil {
			return s.fail(ctx, run, SyncOptions{}, err)
		}
		run.Status = model.ExtractionCached
		run.Accepted = len(current)
		return &SyncResult{Matches: current, FromCache: true, FetchedAt: page.FetchedAt}, nil
	}

	// 2. normalize, 3. validate
	candidates, rejections := s.normalizer.NormalizePage(page)
	valid := make([]model.Match, 0, len(candidates))
	dropped := 0
	for _, c := range candidates {
		m, err := s.validator.Validate(c)
		switch {
		case err == nil:
			valid = append(valid, m)
		case errors.Is(err, model.ErrMatchPast):
			dropped++
		default:
			r := model.Rejection{Reason: model.RejectInvalid, Detail: err.Error()}
			if re, ok := model.IsRejected(err); ok {
				r.Reason, r.Detail = re.Reason, re.Detail
			}
			rejections = append(rejections, r)
		}
	}
	for _, r := range rejections {
		s.logger.WithFields(logrus.Fields{
			"reason": r.Reason,
			"detail": r.Detail,
			"text":   r.Text,
		}).Debug("fragment rejected")
	}
	run.Fragments = len(page.Fragments)
	run.Accepted = len(valid)
	run.Rejected = len(rejections)
	run.Dropped = dropped
	run.Rejections = encodeRejections(rejections)

	if len(page.Fragments) > 0 && len(rejections) == len(page.Fragments) {
		res, err := s.fail(ctx, run, opts, model.ErrNoValidMatches)
		res.Rejections = rejections
		return res, err
	}

	// 4. reconcile
	current, err := s.Refresh(ctx, valid)
	if err != nil {
		return s.fail(ctx, run, SyncOptions{}, err)
	}

	run.Status = model.ExtractionOK
	if page.Empty {
		run.Status = model.ExtractionEmpty
	}
	s.logger.WithFields(logrus.Fields{
		"fragments": len(page.Fragments),
		"accepted":  len(valid),
		"rejected":  len(rejections),
		"dropped":   dropped,
		"forced":    opts.Force,
	}).Info("matches refreshed")

	return &SyncResult{
		Matches:    current,
		Empty:      len(current) == 0,
		Accepted:   len(valid),
		Dropped:    dropped,
		Rejections: rejections,
		FetchedAt:  page.FetchedAt,
	}, nil
}

// fail keeps (or clears) the stored collection and reports it as stale.
func (s *SyncService) fail(ctx context.Context, run *model.ExtractionRun, opts SyncOptions, cause error) (*SyncResult, error) {
	run.Status = model.ExtractionFailed
	run.Error = cause.Error()
	s.logger.WithError(cause).WithField("clear_on_failure", opts.ClearOnFailure).Warn("sync failed, serving previous matches")

	if opts.ClearOnFailure {
		if err := s.store.ClearMatches(ctx); err != nil {
			s.logger.WithError(err).Error("clear matches after failed sync")
		}
	}
	current, err := s.store.Matches(ctx)
	if err != nil {
		s.logger.WithError(err).Error("load retained matches")
		current = []model.Match{}
	}
	return &SyncResult{Matches: current, Stale: true, Empty: len(current) == 0}, fmt.Errorf("sync: %w", cause)
}

func (s *SyncService) recordRun(ctx context.Context, run *model.ExtractionRun) {
	if s.runs == nil {
		return
	}
	run.FinishedAt = s.clock.Now()
	if err := s.runs.SaveRun(context.WithoutCancel(ctx), run); err != nil {
		s.logger.WithError(err).Warn("save extraction run")
	}
}

func encodeRejections(rs []model.Rejection) datatypes.JSON {
	if len(rs) == 0 {
		return nil
	}
	raw, err := json.Marshal(rs)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}
