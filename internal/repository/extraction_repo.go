package repository

import (
	"context"

	"github.com/riclovato/furia-chatbot/internal/interfaces"
	"github.com/riclovato/furia-chatbot/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type extractionRepository struct {
	db *gorm.DB
}

func NewExtractionRepository(db *gorm.DB) interfaces.ExtractionLog {
	return &extractionRepository{db: db}
}

func (r *extractionRepository) SaveRun(ctx context.Context, run *model.ExtractionRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Create(run).Error
}

// ListRuns returns the newest runs first.
func (r *extractionRepository) ListRuns(ctx context.Context, limit int) ([]*model.ExtractionRun, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var runs []*model.ExtractionRun
	if err := r.db.WithContext(ctx).Order("started_at DESC").Limit(limit).Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}
