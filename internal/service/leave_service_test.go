package service

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hrapps/leave-workflow/internal/models"
	"github.com/hrapps/leave-workflow/internal/repository"
	"github.com/hrapps/leave-workflow/internal/workflow"
	"github.com/hrapps/leave-workflow/pkg/database"
)

func newTestEnv(t *testing.T) (*LeaveService, *DefinitionService) {
	t.Helper()

	logger := zap.NewNop()
	db, err := database.New(database.Config{
		Path:            filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns:    4,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Minute,
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.NewMigrator(db, logger).RunMigrations("../../migrations"))

	definitionRepo := repository.NewDefinitionRepository(db.DB, logger)
	requestRepo := repository.NewRequestRepository(db.DB, logger)
	historyRepo := repository.NewHistoryRepository(db.DB, logger)
	engine := workflow.NewEngine(logger)

	return NewLeaveService(db, definitionRepo, requestRepo, historyRepo, engine, logger),
		NewDefinitionService(db, definitionRepo, logger)
}

// start -> A(Alice) -> B(Yvonne) -> end
func createTwoStepDefinition(t *testing.T, defs *DefinitionService) *models.WorkflowDefinition {
	t.Helper()

	def, err := defs.Create(CreateDefinitionInput{
		Name: "Standard leave approval",
		Graph: &models.Graph{
			Nodes: []models.Node{
				{ID: "start", Kind: models.NodeStart},
				{ID: "A", Kind: models.NodeApproval, Approval: &models.ApprovalConfig{Approver: "Alice"}},
				{ID: "B", Kind: models.NodeApproval, Approval: &models.ApprovalConfig{Approver: "Yvonne"}},
				{ID: "end", Kind: models.NodeEnd},
			},
			Edges: []models.Edge{
				{ID: "e1", Source: "start", Target: "A"},
				{ID: "e2", Source: "A", Target: "B"},
				{ID: "e3", Source: "B", Target: "end"},
			},
		},
	})
	require.NoError(t, err)
	return def
}

func submitInput(workflowID string) SubmitInput {
	return SubmitInput{
		WorkflowID:    workflowID,
		ApplicantName: "Bob",
		Department:    "Engineering",
		LeaveType:     "annual",
		StartDate:     "2026-09-01",
		EndDate:       "2026-09-03",
		Reason:        "family trip",
	}
}

func TestSubmit(t *testing.T) {
	leaves, defs := newTestEnv(t)
	def := createTwoStepDefinition(t, defs)

	req, err := leaves.Submit(submitInput(def.ID))
	require.NoError(t, err)

	assert.Equal(t, models.StatusPending, req.Status)
	require.NotNil(t, req.CurrentApprover)
	assert.Equal(t, "Alice", *req.CurrentApprover)
	require.NotNil(t, req.CurrentNodeID)
	assert.Equal(t, "A", *req.CurrentNodeID)
	assert.Equal(t, 3, req.DurationDays)
	assert.Equal(t, def.Name, req.WorkflowName)
	assert.True(t, req.PositionConsistent())

	require.Len(t, req.History, 1)
	assert.Equal(t, models.ActionSubmit, req.History[0].Action)
	assert.Equal(t, "Bob", req.History[0].Operator)
}

func TestSubmit_Errors(t *testing.T) {
	leaves, defs := newTestEnv(t)

	t.Run("unknown workflow", func(t *testing.T) {
		_, err := leaves.Submit(submitInput("nope"))
		assert.ErrorIs(t, err, workflow.ErrNotFound)
	})

	t.Run("invalid date range", func(t *testing.T) {
		def := createTwoStepDefinition(t, defs)
		input := submitInput(def.ID)
		input.EndDate = "2026-08-01"
		_, err := leaves.Submit(input)
		assert.ErrorIs(t, err, workflow.ErrInvalidInput)
	})

	t.Run("empty graph", func(t *testing.T) {
		def, err := defs.Create(CreateDefinitionInput{Name: "empty"})
		require.NoError(t, err)
		_, err = leaves.Submit(submitInput(def.ID))
		assert.ErrorIs(t, err, workflow.ErrMalformedGraph)
	})
}

func TestSubmit_ApproverFallback(t *testing.T) {
	leaves, defs := newTestEnv(t)

	def, err := defs.Create(CreateDefinitionInput{
		Name: "Unconfigured entry",
		Graph: &models.Graph{
			Nodes: []models.Node{
				{ID: "start", Kind: models.NodeStart},
				{ID: "A", Kind: models.NodeApproval, Approval: &models.ApprovalConfig{}},
			},
			Edges: []models.Edge{{ID: "e1", Source: "start", Target: "A"}},
		},
	})
	require.NoError(t, err)

	req, err := leaves.Submit(submitInput(def.ID))
	require.NoError(t, err)
	require.NotNil(t, req.CurrentApprover)
	assert.Equal(t, "Bob", *req.CurrentApprover, "applicant becomes their own approver")
}

func TestDecide_EndToEnd(t *testing.T) {
	leaves, defs := newTestEnv(t)
	def := createTwoStepDefinition(t, defs)

	req, err := leaves.Submit(submitInput(def.ID))
	require.NoError(t, err)

	// First approval hands off to Yvonne.
	req, err = leaves.Decide(req.ID, "Alice", workflow.DecisionApprove, "looks fine")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, req.Status)
	require.NotNil(t, req.CurrentApprover)
	assert.Equal(t, "Yvonne", *req.CurrentApprover)
	assert.Equal(t, "B", *req.CurrentNodeID)
	assert.True(t, req.PositionConsistent())
	require.Len(t, req.History, 2)

	// Second approval reaches the end node.
	req, err = leaves.Decide(req.ID, "Yvonne", workflow.DecisionApprove, "ok")
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, req.Status)
	assert.Nil(t, req.CurrentApprover)
	assert.Nil(t, req.CurrentNodeID)
	assert.Equal(t, models.CompletionNormalEnd, req.CompletionReason)
	assert.True(t, req.PositionConsistent())

	require.Len(t, req.History, 3)
	assert.Equal(t, models.ActionSubmit, req.History[0].Action)
	assert.Equal(t, models.ActionApprove, req.History[1].Action)
	assert.Equal(t, models.ActionApprove, req.History[2].Action)

	// Terminal requests accept no further decisions.
	_, err = leaves.Decide(req.ID, "Yvonne", workflow.DecisionApprove, "")
	assert.ErrorIs(t, err, workflow.ErrInvalidState)
}

func TestDecide_ForbiddenLeavesRequestUnmodified(t *testing.T) {
	leaves, defs := newTestEnv(t)
	def := createTwoStepDefinition(t, defs)

	req, err := leaves.Submit(submitInput(def.ID))
	require.NoError(t, err)

	_, err = leaves.Decide(req.ID, "Mallory", workflow.DecisionApprove, "")
	assert.ErrorIs(t, err, workflow.ErrForbidden)

	got, err := leaves.Get(req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status)
	assert.Equal(t, "Alice", *got.CurrentApprover)
	assert.Len(t, got.History, 1)
}

func TestDecide_Reject(t *testing.T) {
	leaves, defs := newTestEnv(t)
	def := createTwoStepDefinition(t, defs)

	req, err := leaves.Submit(submitInput(def.ID))
	require.NoError(t, err)

	req, err = leaves.Decide(req.ID, "Alice", workflow.DecisionReject, "conflicts with release")
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, req.Status)
	assert.Nil(t, req.CurrentApprover)
	assert.Nil(t, req.CurrentNodeID)
	assert.True(t, req.PositionConsistent())
	require.Len(t, req.History, 2)
	assert.Equal(t, models.ActionReject, req.History[1].Action)
}

func TestDecide_DanglingEdgeLeavesStatusUnchanged(t *testing.T) {
	leaves, defs := newTestEnv(t)

	def, err := defs.Create(CreateDefinitionInput{
		Name: "Broken",
		Graph: &models.Graph{
			Nodes: []models.Node{
				{ID: "start", Kind: models.NodeStart},
				{ID: "A", Kind: models.NodeApproval, Approval: &models.ApprovalConfig{Approver: "Alice"}},
			},
			Edges: []models.Edge{
				{ID: "e1", Source: "start", Target: "A"},
				{ID: "e2", Source: "A", Target: "ghost"},
			},
		},
	})
	require.NoError(t, err)

	req, err := leaves.Submit(submitInput(def.ID))
	require.NoError(t, err)

	_, err = leaves.Decide(req.ID, "Alice", workflow.DecisionApprove, "")
	assert.ErrorIs(t, err, workflow.ErrMalformedGraph)

	got, err := leaves.Get(req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status)
	assert.Len(t, got.History, 1, "failed decision must not append history")
}

func TestDecide_DefinitionDeletedApprovesDegraded(t *testing.T) {
	leaves, defs := newTestEnv(t)
	def := createTwoStepDefinition(t, defs)

	req, err := leaves.Submit(submitInput(def.ID))
	require.NoError(t, err)

	require.NoError(t, defs.Delete(def.ID))

	req, err = leaves.Decide(req.ID, "Alice", workflow.DecisionApprove, "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, req.Status)
	assert.Equal(t, models.CompletionFallback, req.CompletionReason)
	assert.True(t, req.PositionConsistent())
}

func TestWithdraw(t *testing.T) {
	leaves, defs := newTestEnv(t)
	def := createTwoStepDefinition(t, defs)

	req, err := leaves.Submit(submitInput(def.ID))
	require.NoError(t, err)

	t.Run("non-applicant is forbidden", func(t *testing.T) {
		_, err := leaves.Withdraw(req.ID, "Alice")
		assert.ErrorIs(t, err, workflow.ErrForbidden)
	})

	t.Run("applicant cancels", func(t *testing.T) {
		got, err := leaves.Withdraw(req.ID, "Bob")
		require.NoError(t, err)
		assert.Equal(t, models.StatusCancelled, got.Status)
		assert.Nil(t, got.CurrentApprover)
		assert.True(t, got.PositionConsistent())
		require.Len(t, got.History, 2)
		assert.Equal(t, models.ActionWithdraw, got.History[1].Action)
	})

	t.Run("cancelled request cannot be withdrawn again", func(t *testing.T) {
		_, err := leaves.Withdraw(req.ID, "Bob")
		assert.ErrorIs(t, err, workflow.ErrInvalidState)
	})
}

func TestGet_IsIdempotent(t *testing.T) {
	leaves, defs := newTestEnv(t)
	def := createTwoStepDefinition(t, defs)

	req, err := leaves.Submit(submitInput(def.ID))
	require.NoError(t, err)

	first, err := leaves.Get(req.ID)
	require.NoError(t, err)
	second, err := leaves.Get(req.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestListing(t *testing.T) {
	leaves, defs := newTestEnv(t)
	def := createTwoStepDefinition(t, defs)

	for i := 0; i < 5; i++ {
		_, err := leaves.Submit(submitInput(def.ID))
		require.NoError(t, err)
	}

	t.Run("applicant pagination", func(t *testing.T) {
		items, total, err := leaves.ListMine("Bob", 1, 2)
		require.NoError(t, err)
		assert.Equal(t, 5, total)
		assert.Len(t, items, 2)

		items, total, err = leaves.ListMine("Bob", 3, 2)
		require.NoError(t, err)
		assert.Equal(t, 5, total)
		assert.Len(t, items, 1)
	})

	t.Run("other applicants see nothing", func(t *testing.T) {
		items, total, err := leaves.ListMine("Carol", 1, 10)
		require.NoError(t, err)
		assert.Equal(t, 0, total)
		assert.Empty(t, items)
	})

	t.Run("pending approvals exclude decided requests", func(t *testing.T) {
		items, total, err := leaves.ListPendingFor("Alice", 1, 10)
		require.NoError(t, err)
		assert.Equal(t, 5, total)

		_, err = leaves.Decide(items[0].ID, "Alice", workflow.DecisionReject, "no")
		require.NoError(t, err)

		_, total, err = leaves.ListPendingFor("Alice", 1, 10)
		require.NoError(t, err)
		assert.Equal(t, 4, total)
	})
}
