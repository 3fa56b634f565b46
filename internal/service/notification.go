package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/riclovato/furia-chatbot/internal/config"
	"github.com/riclovato/furia-chatbot/internal/interfaces"
	"github.com/riclovato/furia-chatbot/internal/model"
	"github.com/riclovato/furia-chatbot/internal/utils/clock"

	"github.com/sirupsen/logrus"
)

// TickReport summarizes one scheduler pass.
type TickReport struct {
	Notified     int      `json:"notified"`   // matches alerted this tick
	Skipped      int      `json:"skipped"`    // window missed, marked without alert
	Pending      int      `json:"pending"`    // window not open yet
	Ineligible   int      `json:"ineligible"` // TBA
	Deliveries   int      `json:"deliveries"`
	Failures     int      `json:"failures"`
	Unsubscribed []string `json:"unsubscribed,omitempty"`
}

// NotificationService fires one alert per match to every subscriber when
// match_time - lead <= now < match_time.
type NotificationService struct {
	store        interfaces.MatchStore
	notifier     interfaces.Notifier
	messages     Messages
	lead         time.Duration
	missedWindow string
	loc          *time.Location
	logger       *logrus.Logger
	clock        clock.Clock

	mu sync.Mutex
	// alerted but not yet persisted as notified; never alerted twice by this process
	unmarked map[string]struct{}
}

func NewNotificationService(
	store interfaces.MatchStore,
	notifier interfaces.Notifier,
	messages Messages,
	cfg config.SchedulerConfig,
	logger *logrus.Logger,
	clk clock.Clock,
) *NotificationService {
	if clk == nil {
		clk = clock.Real()
	}
	loc := messages.Location
	if loc == nil {
		loc = time.UTC
	}
	if messages.Lead == 0 {
		messages.Lead = cfg.Lead
	}
	return &NotificationService{
		store:        store,
		notifier:     notifier,
		messages:     messages,
		lead:         cfg.Lead,
		missedWindow: cfg.MissedWindow,
		loc:          loc,
		logger:       logger,
		clock:        clk,
		unmarked:     make(map[string]struct{}),
	}
}

// Tick evaluates every stored match once.
func (s *NotificationService) Tick(ctx context.Context) (*TickReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	report := &TickReport{}

	matches, err := s.store.Matches(ctx)
	if err != nil {
		return report, fmt.Errorf("load matches: %w", err)
	}
	subscribers, err := s.store.Subscriptions(ctx)
	if err != nil {
		return report, fmt.Errorf("load subscriptions: %w", err)
	}

	var errs []error
	for _, m := range matches {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		switch m.State() {
		case model.StateNotified:
			delete(s.unmarked, m.ID)
			continue
		case model.StateIneligible:
			report.Ineligible++
			continue
		}
		start, ok := m.StartsAt(s.loc)
		if !ok {
			report.Ineligible++
			continue
		}

		log := s.logger.WithFields(logrus.Fields{"match_id": m.ID, "opponent": m.Opponent, "start": start.Format(time.RFC3339)})
		if _, done := s.unmarked[m.ID]; !done {
			notifyAt := start.Add(-s.lead)
			switch {
			case now.Before(notifyAt):
				report.Pending++
				continue
			case now.Before(start):
				subscribers = s.dispatch(ctx, m, subscribers, report)
				report.Notified++
			case s.missedWindow == config.MissedWindowLate:
				log.Info("alert window missed, sending late")
				subscribers = s.dispatch(ctx, m, subscribers, report)
				report.Notified++
			default:
				log.Info("alert window missed, marking without alert")
				report.Skipped++
			}
		}

		// persist before looking at the next match
		if err := s.store.MarkNotified(ctx, m.ID); err != nil {
			if errors.Is(err, model.ErrMatchNotFound) {
				// replaced by a concurrent refresh
				delete(s.unmarked, m.ID)
				continue
			}
			s.unmarked[m.ID] = struct{}{}
			log.WithError(err).Error("mark notified failed, will retry next tick")
			errs = append(errs, fmt.Errorf("mark notified %s: %w", m.ID, err))
			continue
		}
		delete(s.unmarked, m.ID)
	}

	if report.Notified > 0 || report.Skipped > 0 || len(report.Unsubscribed) > 0 {
		s.logger.WithFields(logrus.Fields{
			"notified":     report.Notified,
			"skipped":      report.Skipped,
			"deliveries":   report.Deliveries,
			"failures":     report.Failures,
			"unsubscribed": len(report.Unsubscribed),
		}).Info("notification tick")
	}
	return report, errors.Join(errs...)
}

// dispatch sends the alert to every subscriber and returns the ones still subscribed.
// A subscriber whose delivery fails is unsubscribed; the others are unaffected.
func (s *NotificationService) dispatch(ctx context.Context, m model.Match, subscribers []string, report *TickReport) []string {
	text := s.messages.Notification(m)
	remaining := make([]string, 0, len(subscribers))

	for _, userID := range subscribers {
		err := s.notifier.Send(ctx, userID, text)
		if err == nil {
			report.Deliveries++
			remaining = append(remaining, userID)
			continue
		}

		report.Failures++
		derr := &model.DeliveryError{Recipient: userID, Err: err}
		if ctx.Err() != nil {
			// shutting down; not the subscriber's fault
			s.logger.WithError(derr).Warn("delivery interrupted")
			remaining = append(remaining, userID)
			continue
		}

		s.logger.WithError(derr).WithField("match_id", m.ID).Warn("delivery failed, unsubscribing")
		if _, rerr := s.store.RemoveSubscription(ctx, userID); rerr != nil {
			s.logger.WithError(rerr).WithField("user_id", userID).Error("auto-unsubscribe failed")
			remaining = append(remaining, userID)
			continue
		}
		report.Unsubscribed = append(report.Unsubscribed, userID)
	}
	return remaining
}
