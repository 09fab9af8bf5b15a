package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hrapps/leave-workflow/internal/models"
	"github.com/hrapps/leave-workflow/internal/report"
	"github.com/hrapps/leave-workflow/internal/service"
	"github.com/hrapps/leave-workflow/internal/workflow"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	leaveService      *service.LeaveService
	definitionService *service.DefinitionService
	exporter          *report.Exporter
	logger            *zap.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	leaveService *service.LeaveService,
	definitionService *service.DefinitionService,
	exporter *report.Exporter,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		leaveService:      leaveService,
		definitionService: definitionService,
		exporter:          exporter,
		logger:            logger,
	}
}

// Response is the standard JSON envelope
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ListResponse wraps a paginated collection
type ListResponse struct {
	Items    interface{} `json:"items"`
	Total    int         `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

// SubmitLeaveRequestBody is the payload for creating a leave request
type SubmitLeaveRequestBody struct {
	WorkflowID    string `json:"workflow_id" binding:"required"`
	ApplicantName string `json:"applicant_name" binding:"required"`
	Department    string `json:"department"`
	LeaveType     string `json:"leave_type" binding:"required"`
	StartDate     string `json:"start_date" binding:"required"`
	EndDate       string `json:"end_date" binding:"required"`
	Reason        string `json:"reason"`
}

// DecisionBody is the payload for approve/reject actions
type DecisionBody struct {
	Operator string `json:"operator" binding:"required"`
	Comment  string `json:"comment"`
}

// WithdrawBody is the payload for withdrawing a request
type WithdrawBody struct {
	Operator string `json:"operator" binding:"required"`
}

// DefinitionBody is the payload for creating or updating a definition
type DefinitionBody struct {
	Name        *string       `json:"name"`
	Description *string       `json:"description"`
	IsActive    *bool         `json:"is_active"`
	Graph       *models.Graph `json:"definition"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: gin.H{
			"status":    "healthy",
			"service":   "leave-workflow",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// SubmitLeaveRequest handles POST /api/v1/leave-requests
func (h *Handlers) SubmitLeaveRequest(c *gin.Context) {
	var body SubmitLeaveRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.respondError(c, http.StatusBadRequest, err)
		return
	}

	req, err := h.leaveService.Submit(service.SubmitInput{
		WorkflowID:    body.WorkflowID,
		ApplicantName: body.ApplicantName,
		Department:    body.Department,
		LeaveType:     body.LeaveType,
		StartDate:     body.StartDate,
		EndDate:       body.EndDate,
		Reason:        body.Reason,
	})
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: req})
}

// GetLeaveRequest handles GET /api/v1/leave-requests/:id
func (h *Handlers) GetLeaveRequest(c *gin.Context) {
	req, err := h.leaveService.Get(c.Param("id"))
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: req})
}

// ApproveLeaveRequest handles POST /api/v1/leave-requests/:id/approve
func (h *Handlers) ApproveLeaveRequest(c *gin.Context) {
	h.decide(c, workflow.DecisionApprove)
}

// RejectLeaveRequest handles POST /api/v1/leave-requests/:id/reject
func (h *Handlers) RejectLeaveRequest(c *gin.Context) {
	h.decide(c, workflow.DecisionReject)
}

func (h *Handlers) decide(c *gin.Context, decision workflow.Decision) {
	var body DecisionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.respondError(c, http.StatusBadRequest, err)
		return
	}

	req, err := h.leaveService.Decide(c.Param("id"), body.Operator, decision, body.Comment)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: req})
}

// WithdrawLeaveRequest handles POST /api/v1/leave-requests/:id/withdraw
func (h *Handlers) WithdrawLeaveRequest(c *gin.Context) {
	var body WithdrawBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.respondError(c, http.StatusBadRequest, err)
		return
	}

	req, err := h.leaveService.Withdraw(c.Param("id"), body.Operator)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: req})
}

// ListMyLeaveRequests handles GET /api/v1/leave-requests?applicant=
func (h *Handlers) ListMyLeaveRequests(c *gin.Context) {
	applicant := c.Query("applicant")
	if applicant == "" {
		h.respondError(c, http.StatusBadRequest, errors.New("applicant query parameter is required"))
		return
	}

	page, pageSize := paging(c)
	items, total, err := h.leaveService.ListMine(applicant, page, pageSize)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	h.respondList(c, items, total, page, pageSize)
}

// ListPendingApprovals handles GET /api/v1/leave-requests/pending?approver=
func (h *Handlers) ListPendingApprovals(c *gin.Context) {
	approver := c.Query("approver")
	if approver == "" {
		h.respondError(c, http.StatusBadRequest, errors.New("approver query parameter is required"))
		return
	}

	page, pageSize := paging(c)
	items, total, err := h.leaveService.ListPendingFor(approver, page, pageSize)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	h.respondList(c, items, total, page, pageSize)
}

// ExportLeaveRequests handles GET /api/v1/reports/leave-requests
func (h *Handlers) ExportLeaveRequests(c *gin.Context) {
	requests, err := h.leaveService.ListAll()
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	f, err := h.exporter.Export(requests)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	defer f.Close()

	c.Header("Content-Disposition", `attachment; filename="leave-requests.xlsx"`)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := f.Write(c.Writer); err != nil {
		h.logger.Error("Failed to stream report", zap.Error(err))
	}
}

// CreateDefinition handles POST /api/v1/workflows
func (h *Handlers) CreateDefinition(c *gin.Context) {
	var body DefinitionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.respondError(c, http.StatusBadRequest, err)
		return
	}

	input := service.CreateDefinitionInput{
		IsActive: body.IsActive,
		Graph:    body.Graph,
	}
	if body.Name != nil {
		input.Name = *body.Name
	}
	if body.Description != nil {
		input.Description = *body.Description
	}

	def, err := h.definitionService.Create(input)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: def})
}

// GetDefinition handles GET /api/v1/workflows/:id
func (h *Handlers) GetDefinition(c *gin.Context) {
	def, err := h.definitionService.Get(c.Param("id"))
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: def})
}

// ListDefinitions handles GET /api/v1/workflows
func (h *Handlers) ListDefinitions(c *gin.Context) {
	defs, err := h.definitionService.List()
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: defs})
}

// UpdateDefinition handles PUT /api/v1/workflows/:id
func (h *Handlers) UpdateDefinition(c *gin.Context) {
	h.mergeDefinition(c, h.definitionService.Update)
}

// PatchDefinition handles PATCH /api/v1/workflows/:id
func (h *Handlers) PatchDefinition(c *gin.Context) {
	h.mergeDefinition(c, h.definitionService.Patch)
}

func (h *Handlers) mergeDefinition(c *gin.Context, apply func(string, service.UpdateDefinitionInput) (*models.WorkflowDefinition, error)) {
	var body DefinitionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.respondError(c, http.StatusBadRequest, err)
		return
	}

	def, err := apply(c.Param("id"), service.UpdateDefinitionInput{
		Name:        body.Name,
		Description: body.Description,
		IsActive:    body.IsActive,
		Graph:       body.Graph,
	})
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: def})
}

// DeleteDefinition handles DELETE /api/v1/workflows/:id
func (h *Handlers) DeleteDefinition(c *gin.Context) {
	if err := h.definitionService.Delete(c.Param("id")); err != nil {
		h.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true})
}

// DuplicateDefinition handles POST /api/v1/workflows/:id/duplicate
func (h *Handlers) DuplicateDefinition(c *gin.Context) {
	def, err := h.definitionService.Duplicate(c.Param("id"))
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: def})
}

func (h *Handlers) respondList(c *gin.Context, items interface{}, total, page, pageSize int) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: ListResponse{
			Items:    items,
			Total:    total,
			Page:     page,
			PageSize: pageSize,
		},
	})
}

// respondServiceError maps error kinds from the core onto status codes
func (h *Handlers) respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, workflow.ErrNotFound):
		h.respondError(c, http.StatusNotFound, err)
	case errors.Is(err, workflow.ErrForbidden):
		h.respondError(c, http.StatusForbidden, err)
	case errors.Is(err, workflow.ErrInvalidState):
		h.respondError(c, http.StatusConflict, err)
	case errors.Is(err, workflow.ErrMalformedGraph):
		h.respondError(c, http.StatusUnprocessableEntity, err)
	case errors.Is(err, workflow.ErrInvalidInput):
		h.respondError(c, http.StatusBadRequest, err)
	default:
		h.logger.Error("Unhandled service error", zap.Error(err))
		h.respondError(c, http.StatusInternalServerError, err)
	}
}

func (h *Handlers) respondError(c *gin.Context, status int, err error) {
	c.JSON(status, Response{Success: false, Error: err.Error()})
}

func paging(c *gin.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "10"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	return page, pageSize
}
