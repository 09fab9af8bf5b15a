package models

import "time"

// HistoryAction identifies what a history entry records
type HistoryAction string

const (
	ActionSubmit   HistoryAction = "submit"
	ActionApprove  HistoryAction = "approve"
	ActionReject   HistoryAction = "reject"
	ActionWithdraw HistoryAction = "withdraw"
	ActionComment  HistoryAction = "comment"
)

// HistoryEntry is one immutable record in a request's approval trail.
// Entries are append-only; insertion order is the only valid read order.
type HistoryEntry struct {
	ID        int64         `json:"-"`
	RequestID string        `json:"-"`
	Action    HistoryAction `json:"action"`
	Operator  string        `json:"operator"`
	Comment   string        `json:"comment,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}
