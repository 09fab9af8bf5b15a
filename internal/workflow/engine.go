package workflow

import (
	"fmt"
	"time"

	"github.com/hrapps/leave-workflow/internal/models"
	"go.uber.org/zap"
)

// Decision is an approver's verdict on a pending request
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// Engine interprets workflow definition graphs. It owns no persistent
// state: every method is a pure function of its inputs plus a returned
// outcome, and callers persist the result. Authored graphs are frequently
// incomplete, so routing prefers applicant fallbacks over hard failure;
// only genuine corruption (dangling edges, missing start) is fatal.
type Engine struct {
	logger *zap.Logger
}

// NewEngine creates a workflow engine
func NewEngine(logger *zap.Logger) *Engine {
	return &Engine{logger: logger}
}

// Entry is the resolved starting position for a newly submitted request
type Entry struct {
	NodeID   string
	Approver string
	// FellBack is true when the approver defaulted to the applicant because
	// the entry node was not a configured approval node
	FellBack bool
}

// ResolveEntry computes the first approval position for a request submitted
// against def. When the node after start is not an approval node, or is an
// approval node without a configured approver, the applicant becomes their
// own approver and the anomaly is logged rather than surfaced as an error.
func (e *Engine) ResolveEntry(def *models.WorkflowDefinition, applicant string) (*Entry, error) {
	start := def.Graph.StartNode()
	if start == nil {
		return nil, fmt.Errorf("%w: definition %s has no start node", ErrMalformedGraph, def.ID)
	}

	edge := def.Graph.FirstEdgeFrom(start.ID)
	if edge == nil {
		return nil, fmt.Errorf("%w: no node follows start in definition %s", ErrMalformedGraph, def.ID)
	}

	target := def.Graph.NodeByID(edge.Target)
	if target == nil {
		return nil, fmt.Errorf("%w: edge %s points to nonexistent node %s", ErrMalformedGraph, edge.ID, edge.Target)
	}

	approver := target.ConfiguredApprover()
	if approver == "" {
		e.logger.Warn("Entry node has no configured approver, defaulting to applicant",
			zap.String("definition_id", def.ID),
			zap.String("node_id", target.ID),
			zap.String("node_kind", target.Kind.String()),
			zap.String("applicant", applicant))
		return &Entry{NodeID: target.ID, Approver: applicant, FellBack: true}, nil
	}

	return &Entry{NodeID: target.ID, Approver: approver}, nil
}

// Outcome is the state a request should be moved to after a decision or
// withdrawal, plus the history entry to append. Persistence is the
// caller's responsibility.
type Outcome struct {
	Status           models.RequestStatus
	CurrentApprover  *string
	CurrentNodeID    *string
	CompletionReason models.CompletionReason
	Entry            models.HistoryEntry
}

// Advance applies an approve/reject decision to req against def.
//
// Rejection is terminal and needs no traversal. Approval walks the graph
// one step: no outgoing edge completes the flow; a configured approval node
// hands the task to its approver; any other target (end node, unconfigured
// approval, notification, form) also completes the flow. A nil def or a
// request with no current node is treated as orphaned data and approved in
// degraded mode rather than left stuck.
func (e *Engine) Advance(def *models.WorkflowDefinition, req *models.LeaveRequest, decision Decision, operator, comment string) (*Outcome, error) {
	if decision != DecisionApprove && decision != DecisionReject {
		return nil, fmt.Errorf("%w: unknown decision %q", ErrInvalidState, decision)
	}
	if req.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: request %s is already %s", ErrInvalidState, req.ID, req.Status)
	}
	if req.CurrentApprover == nil || operator != *req.CurrentApprover {
		return nil, fmt.Errorf("%w: %s is not the current approver of request %s", ErrForbidden, operator, req.ID)
	}

	if decision == DecisionReject {
		return &Outcome{
			Status: models.StatusRejected,
			Entry:  e.historyEntry(req.ID, models.ActionReject, operator, comment),
		}, nil
	}

	entry := e.historyEntry(req.ID, models.ActionApprove, operator, comment)

	if def == nil || req.CurrentNodeID == nil {
		e.logger.Warn("Definition missing or request has no current node, approving in degraded mode",
			zap.String("request_id", req.ID),
			zap.String("workflow_id", req.WorkflowID))
		return &Outcome{
			Status:           models.StatusApproved,
			CompletionReason: models.CompletionFallback,
			Entry:            entry,
		}, nil
	}

	edge := def.Graph.FirstEdgeFrom(*req.CurrentNodeID)
	if edge == nil {
		// No outgoing edge: the path ends here.
		return &Outcome{
			Status:           models.StatusApproved,
			CompletionReason: models.CompletionNormalEnd,
			Entry:            entry,
		}, nil
	}

	next := def.Graph.NodeByID(edge.Target)
	if next == nil {
		return nil, fmt.Errorf("%w: edge from node %s points to nonexistent node %s", ErrMalformedGraph, *req.CurrentNodeID, edge.Target)
	}

	if approver := next.ConfiguredApprover(); approver != "" {
		e.logger.Info("Handing request to next approver",
			zap.String("request_id", req.ID),
			zap.String("from_node", *req.CurrentNodeID),
			zap.String("to_node", next.ID),
			zap.String("approver", approver))
		nodeID := next.ID
		return &Outcome{
			Status:          models.StatusPending,
			CurrentApprover: &approver,
			CurrentNodeID:   &nodeID,
			Entry:           entry,
		}, nil
	}

	reason := models.CompletionFallback
	if next.Kind == models.NodeEnd {
		reason = models.CompletionNormalEnd
	} else {
		e.logger.Warn("Flow completed at a non-terminal node",
			zap.String("request_id", req.ID),
			zap.String("node_id", next.ID),
			zap.String("node_kind", next.Kind.String()))
	}

	return &Outcome{
		Status:           models.StatusApproved,
		CompletionReason: reason,
		Entry:            entry,
	}, nil
}

// Withdraw cancels a non-terminal request on behalf of its applicant
func (e *Engine) Withdraw(req *models.LeaveRequest, operator string) (*Outcome, error) {
	if operator != req.ApplicantName {
		return nil, fmt.Errorf("%w: %s is not the applicant of request %s", ErrForbidden, operator, req.ID)
	}
	if req.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: request %s is already %s", ErrInvalidState, req.ID, req.Status)
	}

	return &Outcome{
		Status: models.StatusCancelled,
		Entry:  e.historyEntry(req.ID, models.ActionWithdraw, operator, "withdrawn by applicant"),
	}, nil
}

func (e *Engine) historyEntry(requestID string, action models.HistoryAction, operator, comment string) models.HistoryEntry {
	return models.HistoryEntry{
		RequestID: requestID,
		Action:    action,
		Operator:  operator,
		Comment:   comment,
		Timestamp: time.Now().UTC(),
	}
}
