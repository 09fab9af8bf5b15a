package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/hrapps/leave-workflow/internal/models"
	"go.uber.org/zap"
)

// DefinitionRepository handles workflow definition database operations
type DefinitionRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewDefinitionRepository creates a new definition repository
func NewDefinitionRepository(db *sql.DB, logger *zap.Logger) *DefinitionRepository {
	return &DefinitionRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new workflow definition
func (r *DefinitionRepository) Create(tx *sql.Tx, def *models.WorkflowDefinition) error {
	graphJSON, err := json.Marshal(def.Graph)
	if err != nil {
		return fmt.Errorf("failed to marshal graph: %w", err)
	}

	query := `
		INSERT INTO workflow_definitions (
			id, name, description, version, is_active, graph_json,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	if tx != nil {
		_, err = tx.Exec(query, def.ID, def.Name, def.Description, def.Version,
			def.IsActive, string(graphJSON), def.CreatedAt, def.UpdatedAt)
	} else {
		_, err = r.db.Exec(query, def.ID, def.Name, def.Description, def.Version,
			def.IsActive, string(graphJSON), def.CreatedAt, def.UpdatedAt)
	}

	if err != nil {
		r.logger.Error("Failed to create definition", zap.String("id", def.ID), zap.Error(err))
		return fmt.Errorf("failed to create definition: %w", err)
	}

	return nil
}

// GetByID retrieves a workflow definition by ID. Returns nil when absent.
func (r *DefinitionRepository) GetByID(id string) (*models.WorkflowDefinition, error) {
	query := `
		SELECT id, name, description, version, is_active, graph_json,
			created_at, updated_at
		FROM workflow_definitions
		WHERE id = ?
	`

	def, err := r.scanDefinition(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get definition", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get definition: %w", err)
	}

	return def, nil
}

// List retrieves all workflow definitions, newest first
func (r *DefinitionRepository) List() ([]*models.WorkflowDefinition, error) {
	query := `
		SELECT id, name, description, version, is_active, graph_json,
			created_at, updated_at
		FROM workflow_definitions
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		r.logger.Error("Failed to list definitions", zap.Error(err))
		return nil, fmt.Errorf("failed to list definitions: %w", err)
	}
	defer rows.Close()

	var defs []*models.WorkflowDefinition
	for rows.Next() {
		def, err := r.scanDefinition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan definition: %w", err)
		}
		defs = append(defs, def)
	}

	return defs, rows.Err()
}

// Update writes the full definition row
func (r *DefinitionRepository) Update(tx *sql.Tx, def *models.WorkflowDefinition) error {
	graphJSON, err := json.Marshal(def.Graph)
	if err != nil {
		return fmt.Errorf("failed to marshal graph: %w", err)
	}

	query := `
		UPDATE workflow_definitions
		SET name = ?, description = ?, version = ?, is_active = ?,
			graph_json = ?, updated_at = ?
		WHERE id = ?
	`

	if tx != nil {
		_, err = tx.Exec(query, def.Name, def.Description, def.Version,
			def.IsActive, string(graphJSON), def.UpdatedAt, def.ID)
	} else {
		_, err = r.db.Exec(query, def.Name, def.Description, def.Version,
			def.IsActive, string(graphJSON), def.UpdatedAt, def.ID)
	}

	if err != nil {
		r.logger.Error("Failed to update definition", zap.String("id", def.ID), zap.Error(err))
		return fmt.Errorf("failed to update definition: %w", err)
	}

	return nil
}

// Delete removes a definition. Returns false when no row matched.
func (r *DefinitionRepository) Delete(tx *sql.Tx, id string) (bool, error) {
	query := `DELETE FROM workflow_definitions WHERE id = ?`

	var result sql.Result
	var err error
	if tx != nil {
		result, err = tx.Exec(query, id)
	} else {
		result, err = r.db.Exec(query, id)
	}

	if err != nil {
		r.logger.Error("Failed to delete definition", zap.String("id", id), zap.Error(err))
		return false, fmt.Errorf("failed to delete definition: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return affected > 0, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *DefinitionRepository) scanDefinition(row rowScanner) (*models.WorkflowDefinition, error) {
	var def models.WorkflowDefinition
	var graphJSON string

	err := row.Scan(
		&def.ID,
		&def.Name,
		&def.Description,
		&def.Version,
		&def.IsActive,
		&graphJSON,
		&def.CreatedAt,
		&def.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(graphJSON), &def.Graph); err != nil {
		return nil, fmt.Errorf("failed to unmarshal graph for definition %s: %w", def.ID, err)
	}

	return &def, nil
}
