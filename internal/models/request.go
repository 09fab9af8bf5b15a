package models

import "time"

// RequestStatus is the lifecycle status of a leave request
type RequestStatus string

const (
	StatusPending    RequestStatus = "pending"
	StatusProcessing RequestStatus = "processing"
	StatusApproved   RequestStatus = "approved"
	StatusRejected   RequestStatus = "rejected"
	StatusCancelled  RequestStatus = "cancelled"
)

var terminalStatuses = map[RequestStatus]bool{
	StatusApproved:  true,
	StatusRejected:  true,
	StatusCancelled: true,
}

// IsTerminal returns true if the status permits no further transitions
func (s RequestStatus) IsTerminal() bool {
	return terminalStatuses[s]
}

// String returns the string representation of the status
func (s RequestStatus) String() string {
	return string(s)
}

// CompletionReason records why an approval terminated: reaching an end node
// versus falling back on an unconfigured or unsupported node.
type CompletionReason string

const (
	CompletionNormalEnd CompletionReason = "normal_end"
	CompletionFallback  CompletionReason = "fallback"
)

// LeaveRequest is one leave application progressing through a workflow
// definition's graph. CurrentApprover and CurrentNodeID are set exactly
// while the status is non-terminal.
type LeaveRequest struct {
	ID               string           `json:"id"`
	ApplicantName    string           `json:"applicant_name"`
	Department       string           `json:"department"`
	LeaveType        string           `json:"leave_type"`
	StartDate        string           `json:"start_date"`
	EndDate          string           `json:"end_date"`
	DurationDays     int              `json:"duration_days"`
	Reason           string           `json:"reason"`
	WorkflowID       string           `json:"workflow_id"`
	WorkflowName     string           `json:"workflow_name"`
	Status           RequestStatus    `json:"status"`
	CurrentApprover  *string          `json:"current_approver"`
	CurrentNodeID    *string          `json:"current_node_id"`
	CompletionReason CompletionReason `json:"completion_reason,omitempty"`
	History          []*HistoryEntry  `json:"history,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}

// PositionConsistent reports whether the request satisfies the position
// invariant: non-terminal status iff both position fields are set.
func (r *LeaveRequest) PositionConsistent() bool {
	if r.Status.IsTerminal() {
		return r.CurrentNodeID == nil && r.CurrentApprover == nil
	}
	return r.CurrentNodeID != nil && r.CurrentApprover != nil
}
