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
	"go.uber.org/zap"
)

// DefinitionService manages workflow definitions. Mutations of the same
// definition serialize through a per-id lock so concurrent updates cannot
// both read and bump the same pre-update version.
type DefinitionService struct {
	db     *database.DB
	repo   *repository.DefinitionRepository
	locks  *keyedMutex
	logger *zap.Logger
}

// NewDefinitionService creates a new definition service
func NewDefinitionService(db *database.DB, repo *repository.DefinitionRepository, logger *zap.Logger) *DefinitionService {
	return &DefinitionService{
		db:     db,
		repo:   repo,
		locks:  newKeyedMutex(),
		logger: logger,
	}
}

// CreateDefinitionInput carries the fields of a new definition. Zero values
// fall back to designer defaults.
type CreateDefinitionInput struct {
	Name        string
	Description string
	IsActive    *bool
	Graph       *models.Graph
}

// UpdateDefinitionInput carries a partial definition update; nil fields are
// left untouched
type UpdateDefinitionInput struct {
	Name        *string
	Description *string
	IsActive    *bool
	Graph       *models.Graph
}

// Create stores a new definition at version 1.0
func (s *DefinitionService) Create(input CreateDefinitionInput) (*models.WorkflowDefinition, error) {
	now := time.Now().UTC()
	def := &models.WorkflowDefinition{
		ID:          uuid.NewString(),
		Name:        input.Name,
		Description: input.Description,
		Version:     models.InitialVersion,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if def.Name == "" {
		def.Name = "Untitled workflow"
	}
	if input.IsActive != nil {
		def.IsActive = *input.IsActive
	}
	if input.Graph != nil {
		def.Graph = input.Graph.Clone()
	} else {
		def.Graph = models.Graph{Nodes: []models.Node{}, Edges: []models.Edge{}}
	}

	if err := s.repo.Create(nil, def); err != nil {
		return nil, err
	}

	s.logger.Info("Workflow definition created",
		zap.String("id", def.ID),
		zap.String("name", def.Name))

	return def, nil
}

// Get retrieves a definition
func (s *DefinitionService) Get(id string) (*models.WorkflowDefinition, error) {
	def, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if def == nil {
		return nil, fmt.Errorf("workflow definition %s: %w", id, workflow.ErrNotFound)
	}
	return def, nil
}

// List retrieves all definitions
func (s *DefinitionService) List() ([]*models.WorkflowDefinition, error) {
	return s.repo.List()
}

// Update merges the given fields into the definition and bumps its version
// by 0.1. Versions are strictly increasing across successful updates.
func (s *DefinitionService) Update(id string, input UpdateDefinitionInput) (*models.WorkflowDefinition, error) {
	s.locks.Lock(id)
	defer s.locks.Unlock(id)

	def, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	s.merge(def, input)
	def.Version = models.BumpVersion(def.Version)
	def.UpdatedAt = time.Now().UTC()

	err = s.db.WithTransaction(func(tx *sql.Tx) error {
		return s.repo.Update(tx, def)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Workflow definition updated",
		zap.String("id", def.ID),
		zap.String("version", def.Version))

	return def, nil
}

// Patch merges the given fields without bumping the version
func (s *DefinitionService) Patch(id string, input UpdateDefinitionInput) (*models.WorkflowDefinition, error) {
	s.locks.Lock(id)
	defer s.locks.Unlock(id)

	def, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	s.merge(def, input)
	def.UpdatedAt = time.Now().UTC()

	err = s.db.WithTransaction(func(tx *sql.Tx) error {
		return s.repo.Update(tx, def)
	})
	if err != nil {
		return nil, err
	}

	return def, nil
}

// Duplicate deep-copies a definition under a new id. The copy restarts at
// version 1.0: it is a new authored artifact, not a continuation of the
// source's edit history.
func (s *DefinitionService) Duplicate(id string) (*models.WorkflowDefinition, error) {
	src, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	dup := &models.WorkflowDefinition{
		ID:          uuid.NewString(),
		Name:        src.Name + " (copy)",
		Description: src.Description,
		Version:     models.InitialVersion,
		IsActive:    src.IsActive,
		CreatedAt:   now,
		UpdatedAt:   now,
		Graph:       src.Graph.Clone(),
	}

	if err := s.repo.Create(nil, dup); err != nil {
		return nil, err
	}

	s.logger.Info("Workflow definition duplicated",
		zap.String("source_id", src.ID),
		zap.String("id", dup.ID))

	return dup, nil
}

// Delete removes a definition
func (s *DefinitionService) Delete(id string) error {
	s.locks.Lock(id)
	defer s.locks.Unlock(id)

	deleted, err := s.repo.Delete(nil, id)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("workflow definition %s: %w", id, workflow.ErrNotFound)
	}

	s.logger.Info("Workflow definition deleted", zap.String("id", id))
	return nil
}

func (s *DefinitionService) merge(def *models.WorkflowDefinition, input UpdateDefinitionInput) {
	if input.Name != nil {
		def.Name = *input.Name
	}
	if input.Description != nil {
		def.Description = *input.Description
	}
	if input.IsActive != nil {
		def.IsActive = *input.IsActive
	}
	if input.Graph != nil {
		def.Graph = input.Graph.Clone()
	}
}
