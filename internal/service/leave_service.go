package service

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hrapps/leave-workflow/internal/models"
	"github.com/hrapps/leave-workflow/internal/repository"
	"github.com/hrapps/leave-workflow/internal/workflow"
	"github.com/hrapps/leave-workflow/pkg/database"
	"github.com/hrapps/leave-workflow/pkg/utils"
	"go.uber.org/zap"
)

// LeaveService orchestrates leave requests: it resolves routing through the
// workflow engine and persists every transition atomically together with
// its history entry. Writes to a single request are serialized through a
// per-id lock so concurrent decisions cannot interleave.
type LeaveService struct {
	db          *database.DB
	definitions *repository.DefinitionRepository
	requests    *repository.RequestRepository
	history     *repository.HistoryRepository
	engine      *workflow.Engine
	locks       *keyedMutex
	logger      *zap.Logger
}

// NewLeaveService creates a new leave service
func NewLeaveService(
	db *database.DB,
	definitions *repository.DefinitionRepository,
	requests *repository.RequestRepository,
	history *repository.HistoryRepository,
	engine *workflow.Engine,
	logger *zap.Logger,
) *LeaveService {
	return &LeaveService{
		db:          db,
		definitions: definitions,
		requests:    requests,
		history:     history,
		engine:      engine,
		locks:       newKeyedMutex(),
		logger:      logger,
	}
}

// SubmitInput carries the fields of a new leave application
type SubmitInput struct {
	WorkflowID    string
	ApplicantName string
	Department    string
	LeaveType     string
	StartDate     string
	EndDate       string
	Reason        string
}

// Submit creates a leave request against the referenced workflow
// definition, positioned at the entry approval node the engine resolves
func (s *LeaveService) Submit(input SubmitInput) (*models.LeaveRequest, error) {
	def, err := s.definitions.GetByID(input.WorkflowID)
	if err != nil {
		return nil, err
	}
	if def == nil {
		return nil, fmt.Errorf("workflow definition %s: %w", input.WorkflowID, workflow.ErrNotFound)
	}

	duration, err := utils.ValidateDateRange(input.StartDate, input.EndDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", workflow.ErrInvalidInput, err)
	}

	// Sanitize before entry resolution so a fallback approver matches the
	// stored applicant name.
	input.ApplicantName = utils.SanitizeString(input.ApplicantName)
	input.Reason = utils.SanitizeString(input.Reason)

	entry, err := s.engine.ResolveEntry(def, input.ApplicantName)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	req := &models.LeaveRequest{
		ID:              uuid.NewString(),
		ApplicantName:   input.ApplicantName,
		Department:      input.Department,
		LeaveType:       input.LeaveType,
		StartDate:       input.StartDate,
		EndDate:         input.EndDate,
		DurationDays:    duration,
		Reason:          input.Reason,
		WorkflowID:      def.ID,
		WorkflowName:    def.Name,
		Status:          models.StatusPending,
		CurrentApprover: &entry.Approver,
		CurrentNodeID:   &entry.NodeID,
		CreatedAt:       now,
	}

	submitEntry := &models.HistoryEntry{
		RequestID: req.ID,
		Action:    models.ActionSubmit,
		Operator:  input.ApplicantName,
		Comment:   "application submitted",
		Timestamp: now,
	}

	err = s.db.WithTransaction(func(tx *sql.Tx) error {
		if err := s.requests.Create(tx, req); err != nil {
			return err
		}
		return s.history.Create(tx, submitEntry)
	})
	if err != nil {
		return nil, err
	}

	req.History = []*models.HistoryEntry{submitEntry}

	s.logger.Info("Leave request submitted",
		zap.String("request_id", req.ID),
		zap.String("applicant", req.ApplicantName),
		zap.String("workflow_id", req.WorkflowID),
		zap.String("approver", entry.Approver),
		zap.Bool("approver_fallback", entry.FellBack))

	return req, nil
}

// Decide applies an approve/reject decision to a request. Decisions on the
// same request serialize; the second caller observes the first's result.
func (s *LeaveService) Decide(requestID, operator string, decision workflow.Decision, comment string) (*models.LeaveRequest, error) {
	s.locks.Lock(requestID)
	defer s.locks.Unlock(requestID)

	req, err := s.requests.GetByID(requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, fmt.Errorf("leave request %s: %w", requestID, workflow.ErrNotFound)
	}

	// A missing definition is not fatal here: the engine approves orphaned
	// requests in degraded mode. Query errors still propagate.
	def, err := s.definitions.GetByID(req.WorkflowID)
	if err != nil {
		return nil, err
	}

	outcome, err := s.engine.Advance(def, req, decision, operator, comment)
	if err != nil {
		return nil, err
	}

	return s.applyOutcome(req, outcome)
}

// Withdraw cancels a request on behalf of its applicant
func (s *LeaveService) Withdraw(requestID, operator string) (*models.LeaveRequest, error) {
	s.locks.Lock(requestID)
	defer s.locks.Unlock(requestID)

	req, err := s.requests.GetByID(requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, fmt.Errorf("leave request %s: %w", requestID, workflow.ErrNotFound)
	}

	outcome, err := s.engine.Withdraw(req, operator)
	if err != nil {
		return nil, err
	}

	return s.applyOutcome(req, outcome)
}

// Get retrieves a request with its full history
func (s *LeaveService) Get(requestID string) (*models.LeaveRequest, error) {
	req, err := s.requests.GetByID(requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, fmt.Errorf("leave request %s: %w", requestID, workflow.ErrNotFound)
	}

	req.History, err = s.history.ListByRequestID(requestID)
	if err != nil {
		return nil, err
	}

	return req, nil
}

// ListMine returns the applicant's requests, newest first
func (s *LeaveService) ListMine(applicant string, page, pageSize int) ([]*models.LeaveRequest, int, error) {
	limit, offset := pageBounds(page, pageSize)
	return s.requests.ListByApplicant(applicant, limit, offset)
}

// ListPendingFor returns requests awaiting the approver's decision
func (s *LeaveService) ListPendingFor(approver string, page, pageSize int) ([]*models.LeaveRequest, int, error) {
	limit, offset := pageBounds(page, pageSize)
	return s.requests.ListPendingByApprover(approver, limit, offset)
}

// ListAll returns every request, newest first
func (s *LeaveService) ListAll() ([]*models.LeaveRequest, error) {
	return s.requests.ListAll()
}

// applyOutcome persists an engine outcome and its history entry atomically,
// then returns the request with history reloaded
func (s *LeaveService) applyOutcome(req *models.LeaveRequest, outcome *workflow.Outcome) (*models.LeaveRequest, error) {
	req.Status = outcome.Status
	req.CurrentApprover = outcome.CurrentApprover
	req.CurrentNodeID = outcome.CurrentNodeID
	req.CompletionReason = outcome.CompletionReason

	entry := outcome.Entry
	err := s.db.WithTransaction(func(tx *sql.Tx) error {
		if err := s.requests.UpdateState(tx, req); err != nil {
			return err
		}
		return s.history.Create(tx, &entry)
	})
	if err != nil {
		return nil, err
	}

	req.History, err = s.history.ListByRequestID(req.ID)
	if err != nil {
		return nil, err
	}

	return req, nil
}

func pageBounds(page, pageSize int) (limit, offset int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	return pageSize, (page - 1) * pageSize
}
