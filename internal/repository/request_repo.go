package repository

import (
	"database/sql"
	"fmt"

	"github.com/hrapps/leave-workflow/internal/models"
	"go.uber.org/zap"
)

// RequestRepository handles leave request database operations
type RequestRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRequestRepository creates a new request repository
func NewRequestRepository(db *sql.DB, logger *zap.Logger) *RequestRepository {
	return &RequestRepository{
		db:     db,
		logger: logger,
	}
}

const requestColumns = `
	id, applicant_name, department, leave_type, start_date, end_date,
	duration_days, reason, workflow_id, workflow_name, status,
	current_approver, current_node_id, completion_reason, created_at
`

// Create inserts a new leave request
func (r *RequestRepository) Create(tx *sql.Tx, req *models.LeaveRequest) error {
	query := `
		INSERT INTO leave_requests (` + requestColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	args := []interface{}{
		req.ID,
		req.ApplicantName,
		req.Department,
		req.LeaveType,
		req.StartDate,
		req.EndDate,
		req.DurationDays,
		req.Reason,
		req.WorkflowID,
		req.WorkflowName,
		string(req.Status),
		nullable(req.CurrentApprover),
		nullable(req.CurrentNodeID),
		string(req.CompletionReason),
		req.CreatedAt,
	}

	var err error
	if tx != nil {
		_, err = tx.Exec(query, args...)
	} else {
		_, err = r.db.Exec(query, args...)
	}

	if err != nil {
		r.logger.Error("Failed to create leave request", zap.String("id", req.ID), zap.Error(err))
		return fmt.Errorf("failed to create leave request: %w", err)
	}

	return nil
}

// GetByID retrieves a leave request by ID. Returns nil when absent.
func (r *RequestRepository) GetByID(id string) (*models.LeaveRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM leave_requests WHERE id = ?`

	req, err := scanRequest(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get leave request", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get leave request: %w", err)
	}

	return req, nil
}

// ListByApplicant retrieves the applicant's requests newest first, plus the
// total count before paging
func (r *RequestRepository) ListByApplicant(name string, limit, offset int) ([]*models.LeaveRequest, int, error) {
	var total int
	if err := r.db.QueryRow(
		`SELECT COUNT(*) FROM leave_requests WHERE applicant_name = ?`, name,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count requests: %w", err)
	}

	query := `
		SELECT ` + requestColumns + `
		FROM leave_requests
		WHERE applicant_name = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`

	requests, err := r.queryRequests(query, name, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	return requests, total, nil
}

// ListPendingByApprover retrieves requests awaiting the given approver's
// decision, restricted to non-terminal statuses, plus the total count
func (r *RequestRepository) ListPendingByApprover(name string, limit, offset int) ([]*models.LeaveRequest, int, error) {
	var total int
	if err := r.db.QueryRow(
		`SELECT COUNT(*) FROM leave_requests
		 WHERE current_approver = ? AND status IN (?, ?)`,
		name, string(models.StatusPending), string(models.StatusProcessing),
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count pending requests: %w", err)
	}

	query := `
		SELECT ` + requestColumns + `
		FROM leave_requests
		WHERE current_approver = ? AND status IN (?, ?)
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`

	requests, err := r.queryRequests(query, name,
		string(models.StatusPending), string(models.StatusProcessing), limit, offset)
	if err != nil {
		return nil, 0, err
	}

	return requests, total, nil
}

// ListAll retrieves every leave request, newest first
func (r *RequestRepository) ListAll() ([]*models.LeaveRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM leave_requests ORDER BY created_at DESC`
	return r.queryRequests(query)
}

// UpdateState writes the request's status and position fields
func (r *RequestRepository) UpdateState(tx *sql.Tx, req *models.LeaveRequest) error {
	query := `
		UPDATE leave_requests
		SET status = ?, current_approver = ?, current_node_id = ?, completion_reason = ?
		WHERE id = ?
	`

	args := []interface{}{
		string(req.Status),
		nullable(req.CurrentApprover),
		nullable(req.CurrentNodeID),
		string(req.CompletionReason),
		req.ID,
	}

	var err error
	if tx != nil {
		_, err = tx.Exec(query, args...)
	} else {
		_, err = r.db.Exec(query, args...)
	}

	if err != nil {
		r.logger.Error("Failed to update leave request state",
			zap.String("id", req.ID),
			zap.String("status", req.Status.String()),
			zap.Error(err))
		return fmt.Errorf("failed to update leave request: %w", err)
	}

	return nil
}

func (r *RequestRepository) queryRequests(query string, args ...interface{}) ([]*models.LeaveRequest, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		r.logger.Error("Failed to query leave requests", zap.Error(err))
		return nil, fmt.Errorf("failed to query leave requests: %w", err)
	}
	defer rows.Close()

	var requests []*models.LeaveRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leave request: %w", err)
		}
		requests = append(requests, req)
	}

	return requests, rows.Err()
}

func scanRequest(row rowScanner) (*models.LeaveRequest, error) {
	var req models.LeaveRequest
	var approver, nodeID sql.NullString
	var reason string

	err := row.Scan(
		&req.ID,
		&req.ApplicantName,
		&req.Department,
		&req.LeaveType,
		&req.StartDate,
		&req.EndDate,
		&req.DurationDays,
		&req.Reason,
		&req.WorkflowID,
		&req.WorkflowName,
		&req.Status,
		&approver,
		&nodeID,
		&reason,
		&req.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if approver.Valid {
		req.CurrentApprover = &approver.String
	}
	if nodeID.Valid {
		req.CurrentNodeID = &nodeID.String
	}
	req.CompletionReason = models.CompletionReason(reason)

	return &req, nil
}

func nullable(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}
