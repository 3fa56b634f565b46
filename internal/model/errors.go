package model

import (
	"errors"
	"fmt"
)

var (
	// ErrExtraction wraps every failure to obtain a usable page.
	ErrExtraction = errors.New("extraction failed")
	// ErrNoMatchContainers means the selectors matched nothing and the page did not say it was empty.
	ErrNoMatchContainers = fmt.Errorf("%w: no match containers found", ErrExtraction)
	// ErrNoValidMatches means every fragment on a non-empty page was rejected.
	ErrNoValidMatches = fmt.Errorf("%w: every fragment was rejected", ErrExtraction)
	// ErrMatchPast is returned by validation for matches that already started. Not a rejection.
	ErrMatchPast = errors.New("match already started")
	// ErrStorageIO wraps persistence write failures.
	ErrStorageIO = errors.New("storage io failure")
	// ErrMatchNotFound is returned by MarkNotified for unknown ids.
	ErrMatchNotFound = errors.New("match not found")
)

// RejectReason says why a fragment or record was discarded.
type RejectReason string

const (
	RejectUnresolvedOpponent RejectReason = "unresolved_opponent"
	RejectMissingOpponent    RejectReason = "missing_opponent"
	RejectOpponentTooShort   RejectReason = "opponent_too_short"
	RejectOpponentIsHome     RejectReason = "opponent_is_home_team"
	RejectMissingDate        RejectReason = "missing_date"
	RejectMissingTime        RejectReason = "missing_time"
	RejectMissingLink        RejectReason = "missing_link"
	RejectBadDate            RejectReason = "bad_date"
	RejectBadTime            RejectReason = "bad_time"
	RejectInvalid            RejectReason = "invalid"
)

// RejectedError is a RecordRejected outcome; the batch continues.
type RejectedError struct {
	Reason RejectReason
	Detail string
}

func (e *RejectedError) Error() string {
	if e.Detail == "" {
		return "record rejected: " + string(e.Reason)
	}
	return fmt.Sprintf("record rejected: %s (%s)", e.Reason, e.Detail)
}

func Reject(reason RejectReason, detail string) error {
	return &RejectedError{Reason: reason, Detail: detail}
}

// IsRejected reports whether err is a RejectedError and returns it.
func IsRejected(err error) (*RejectedError, bool) {
	var re *RejectedError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// DeliveryError is a failed send to one subscriber.
type DeliveryError struct {
	Recipient string
	Err       error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver to %s: %v", e.Recipient, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }
