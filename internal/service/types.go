// Package service defines the backend-agnostic interface for task operations.
package service

import "strings"

// Status is the workflow state of a task.
type Status string

const (
	StatusTodo       Status = "To-Do"
	StatusInProgress Status = "In Progress"
	StatusDone       Status = "Done"
)

// Known reports whether s is one of the three workflow states.
func (s Status) Known() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// NextStatus returns the successor of s in the fixed cycle
// To-Do -> In Progress -> Done -> To-Do.
// Anything that is not To-Do or In Progress gets the successor of Done,
// including values the server may invent later.
func NextStatus(s Status) Status {
	switch s {
	case StatusTodo:
		return StatusInProgress
	case StatusInProgress:
		return StatusDone
	default:
		return StatusTodo
	}
}

// Priority is the user-chosen importance of a task.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// ParsePriority matches name case-insensitively against the known priorities.
// An empty name yields PriorityMedium.
func ParsePriority(name string) (Priority, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return PriorityMedium, true
	case "high":
		return PriorityHigh, true
	case "medium":
		return PriorityMedium, true
	case "low":
		return PriorityLow, true
	}
	return "", false
}

// Task represents a single task as the server reports it.
type Task struct {
	ID             string   `json:"_id"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Status         Status   `json:"status"`
	Priority       Priority `json:"priority"`
	EstimatedHours float64  `json:"estimatedHours"`
}

// NewTask is the payload for creating a task. The server assigns the ID.
type NewTask struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Status         Status   `json:"status"`
	Priority       Priority `json:"priority"`
	EstimatedHours float64  `json:"estimatedHours"`
}
