package repository

import (
	"database/sql"
	"fmt"

	"github.com/hrapps/leave-workflow/internal/models"
	"go.uber.org/zap"
)

// HistoryRepository handles the append-only approval history. Entries are
// never updated or deleted; the autoincrement id preserves append order.
type HistoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *sql.DB, logger *zap.Logger) *HistoryRepository {
	return &HistoryRepository{
		db:     db,
		logger: logger,
	}
}

// Create appends a history entry
func (r *HistoryRepository) Create(tx *sql.Tx, entry *models.HistoryEntry) error {
	query := `
		INSERT INTO approval_history (request_id, action, operator, comment, timestamp)
		VALUES (?, ?, ?, ?, ?)
	`

	var result sql.Result
	var err error

	if tx != nil {
		result, err = tx.Exec(query, entry.RequestID, string(entry.Action),
			entry.Operator, entry.Comment, entry.Timestamp)
	} else {
		result, err = r.db.Exec(query, entry.RequestID, string(entry.Action),
			entry.Operator, entry.Comment, entry.Timestamp)
	}

	if err != nil {
		r.logger.Error("Failed to append history entry",
			zap.String("request_id", entry.RequestID),
			zap.Error(err))
		return fmt.Errorf("failed to append history: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	entry.ID = id
	return nil
}

// ListByRequestID retrieves all history entries for a request in append order
func (r *HistoryRepository) ListByRequestID(requestID string) ([]*models.HistoryEntry, error) {
	query := `
		SELECT id, request_id, action, operator, comment, timestamp
		FROM approval_history
		WHERE request_id = ?
		ORDER BY id ASC
	`

	rows, err := r.db.Query(query, requestID)
	if err != nil {
		r.logger.Error("Failed to get history", zap.String("request_id", requestID), zap.Error(err))
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	defer rows.Close()

	var entries []*models.HistoryEntry
	for rows.Next() {
		var entry models.HistoryEntry
		err := rows.Scan(
			&entry.ID,
			&entry.RequestID,
			&entry.Action,
			&entry.Operator,
			&entry.Comment,
			&entry.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}
