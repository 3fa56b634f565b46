package model

import (
	"sort"
	"time"
)

const (
	// TimeTBA marks a match whose start time has not been announced.
	TimeTBA = "TBA"
	// EventUnknown is used when the tournament label cannot be extracted.
	EventUnknown = "unknown"

	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

// Match is a validated upcoming match. ID is derived from (Date, Opponent).
type Match struct {
	ID       string `gorm:"column:id;primaryKey;type:varchar(64)" json:"id"`
	Opponent string `gorm:"column:opponent;type:varchar(128);not null" json:"opponent"`
	Event    string `gorm:"column:event;type:varchar(256);not null" json:"event"`
	Format   string `gorm:"column:format;type:varchar(16);not null" json:"format"`
	Date     string `gorm:"column:match_date;type:varchar(10);not null;index" json:"date"` // YYYY-MM-DD
	Time     string `gorm:"column:match_time;type:varchar(5);not null" json:"time"`        // HH:MM or TBA
	Link     string `gorm:"column:link;type:varchar(512);not null" json:"link"`
	Notified bool   `gorm:"column:notified;not null" json:"notified"`
}

func (Match) TableName() string { return "matches" }

// IsTBA reports whether the start time is still unknown.
func (m Match) IsTBA() bool { return m.Time == TimeTBA }

// StartsAt resolves Date and Time in loc. ok is false for TBA or malformed values.
func (m Match) StartsAt(loc *time.Location) (time.Time, bool) {
	if m.IsTBA() {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(DateLayout+" "+ClockLayout, m.Date+" "+m.Time, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Day returns midnight of the match date in loc.
func (m Match) Day(loc *time.Location) (time.Time, bool) {
	t, err := time.ParseInLocation(DateLayout, m.Date, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// NotificationState is the scheduler's view of a match.
type NotificationState string

const (
	StatePending    NotificationState = "pending"
	StateNotified   NotificationState = "notified"
	StateIneligible NotificationState = "ineligible" // TBA
)

func (m Match) State() NotificationState {
	switch {
	case m.Notified:
		return StateNotified
	case m.IsTBA():
		return StateIneligible
	default:
		return StatePending
	}
}

// SortMatches orders by date, then time (TBA after clock times), then id.
func SortMatches(ms []Match) {
	sort.SliceStable(ms, func(i, j int) bool {
		if ms[i].Date != ms[j].Date {
			return ms[i].Date < ms[j].Date
		}
		if ms[i].Time != ms[j].Time {
			return ms[i].Time < ms[j].Time
		}
		return ms[i].ID < ms[j].ID
	})
}

// Subscription is a bot-wide alert subscriber.
type Subscription struct {
	UserID    string    `gorm:"column:user_id;primaryKey;type:varchar(64)" json:"user_id"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Subscription) TableName() string { return "subscriptions" }
