package models

import (
	"strconv"
	"time"
)

// InitialVersion is the version assigned to newly created definitions
const InitialVersion = "1.0"

// WorkflowDefinition is an authored, versioned workflow graph
type WorkflowDefinition struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Version     string    `json:"version"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Graph       Graph     `json:"definition"`
}

// BumpVersion increments a definition version by 0.1, formatted to one
// decimal place. Unparseable versions are treated as 1.0.
func BumpVersion(version string) string {
	current, err := strconv.ParseFloat(version, 64)
	if err != nil {
		current = 1.0
	}
	return strconv.FormatFloat(current+0.1, 'f', 1, 64)
}
