package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/riclovato/furia-chatbot/internal/interfaces"
	"github.com/riclovato/furia-chatbot/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// matchRepository is the gorm-backed MatchStore (postgres or sqlite).
type matchRepository struct {
	db *gorm.DB
	// sqlite allows one writer; postgres does not need it but a process-wide
	// order of writes keeps replace and mark-notified from interleaving.
	mu sync.Mutex
}

func NewMatchRepository(db *gorm.DB) interfaces.MatchStore {
	return &matchRepository{db: db}
}

// AutoMigrate creates the tables used by the gorm backend.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&model.Match{}, &model.Subscription{}, &model.ExtractionRun{})
}

func (r *matchRepository) ReplaceMatches(ctx context.Context, matches []model.Match) ([]model.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("%w: begin: %v", model.ErrStorageIO, tx.Error)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	// 1. current notified flags
	var prev []model.Match
	if err := tx.Find(&prev).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("%w: load matches: %v", model.ErrStorageIO, err)
	}
	merged := carryForward(prev, matches)

	// 2. full replace
	if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.Match{}).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("%w: clear matches: %v", model.ErrStorageIO, err)
	}
	if len(merged) > 0 {
		if err := tx.Create(&merged).Error; err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("%w: insert matches: %v", model.ErrStorageIO, err)
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("%w: commit: %v", model.ErrStorageIO, err)
	}
	return cloneMatches(merged), nil
}

func (r *matchRepository) AddMatch(ctx context.Context, m model.Match) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(&m)
	if res.Error != nil {
		return false, fmt.Errorf("%w: add match: %v", model.ErrStorageIO, res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *matchRepository) Matches(ctx context.Context) ([]model.Match, error) {
	var list []model.Match
	if err := r.db.WithContext(ctx).Order("match_date ASC, match_time ASC, id ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return cloneMatches(list), nil
}

func (r *matchRepository) ClearMatches(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.Match{}).Error; err != nil {
		return fmt.Errorf("%w: clear matches: %v", model.ErrStorageIO, err)
	}
	return nil
}

func (r *matchRepository) MarkNotified(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var m model.Match
	if err := r.db.WithContext(ctx).Select("id").Where("id = ?", id).Take(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.ErrMatchNotFound
		}
		return err
	}
	if err := r.db.WithContext(ctx).Model(&model.Match{}).Where("id = ?", id).Update("notified", true).Error; err != nil {
		return fmt.Errorf("%w: mark notified: %v", model.ErrStorageIO, err)
	}
	return nil
}

func (r *matchRepository) AddSubscription(ctx context.Context, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&model.Subscription{UserID: userID})
	if res.Error != nil {
		return false, fmt.Errorf("%w: add subscription: %v", model.ErrStorageIO, res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *matchRepository) RemoveSubscription(ctx context.Context, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.Subscription{})
	if res.Error != nil {
		return false, fmt.Errorf("%w: remove subscription: %v", model.ErrStorageIO, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *matchRepository) Subscriptions(ctx context.Context) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).Model(&model.Subscription{}).
		Order("created_at ASC, user_id ASC").
		Pluck("user_id", &ids).Error; err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}
