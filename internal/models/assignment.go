package models

import "time"

type Assignment struct {
	ID          string
	GroupID     string
	Title       string
	Description string
	CreatedBy   string
	DueAt       *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Submission is a student's uploaded answer to an assignment. ObjectKey
// points at the stored attachment.
type Submission struct {
	ID           string
	AssignmentID string
	GroupID      string
	OwnerID      string
	ObjectKey    string
	ContentType  string
	Size         int64
	CreatedAt    time.Time
}
