package model

import (
	"time"

	"gorm.io/datatypes"
)

// ExtractionStatus is the outcome of one sync cycle.
type ExtractionStatus string

const (
	ExtractionOK     ExtractionStatus = "ok"
	ExtractionEmpty  ExtractionStatus = "empty"
	ExtractionCached ExtractionStatus = "cached"
	ExtractionFailed ExtractionStatus = "failed"
)

// ExtractionRun is the audit row written for every sync cycle.
type ExtractionRun struct {
	ID         string           `gorm:"column:id;primaryKey;type:varchar(36)" json:"id"`
	StartedAt  time.Time        `gorm:"column:started_at;not null;index" json:"started_at"`
	FinishedAt time.Time        `gorm:"column:finished_at;not null" json:"finished_at"`
	Forced     bool             `gorm:"column:forced;not null" json:"forced"`
	Status     ExtractionStatus `gorm:"column:status;type:varchar(16);not null" json:"status"`
	Fragments  int              `gorm:"column:fragments;not null" json:"fragments"`
	Accepted   int              `gorm:"column:accepted;not null" json:"accepted"`
	Rejected   int              `gorm:"column:rejected;not null" json:"rejected"`
	Dropped    int              `gorm:"column:dropped;not null" json:"dropped"` // already started
	Rejections datatypes.JSON   `gorm:"column:rejections" json:"rejections,omitempty"`
	Error      string           `gorm:"column:error;type:text" json:"error,omitempty"`
}

func (ExtractionRun) TableName() string { return "extraction_runs" }

// Rejection is one entry of ExtractionRun.Rejections.
type Rejection struct {
	Reason RejectReason `json:"reason"`
	Detail string       `json:"detail,omitempty"`
	Text   string       `json:"text,omitempty"`
}
