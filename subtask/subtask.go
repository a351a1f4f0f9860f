// Package subtask caches the paginated subtask views of a project-management
// client: a user's open, due, done and created subtasks per organization,
// and the subtasks of a task.
package subtask

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// SchemaName tags every subtask collection.
const SchemaName = "Subtask"

var ErrInvalidID = errors.New("subtask: invalid object id")

// Subtask is the canonical record. Field names follow the remote API.
type Subtask struct {
	ID         string     `json:"_id"`
	TaskID     string     `json:"_taskId"`
	ProjectID  string     `json:"_projectId"`
	ExecutorID string     `json:"_executorId,omitempty"`
	CreatorID  string     `json:"_creatorId,omitempty"`
	Content    string     `json:"content"`
	DueDate    *time.Time `json:"dueDate,omitempty"`
	IsDone     bool       `json:"isDone"`
	Created    time.Time  `json:"created"`
	Updated    time.Time  `json:"updated"`
}

// Organization is the slice of an organization the feature filters need.
type Organization struct {
	ID         string
	ProjectIDs []string
}

// ValidID reports whether id is a 24 character lowercase hex ObjectId. Only
// ids of that shape sort in creation order as plain strings.
func ValidID(id string) error {
	if len(id) != 24 {
		return fmt.Errorf("%w %q: want 24 hex characters, got %d", ErrInvalidID, id, len(id))
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return fmt.Errorf("%w %q: byte %d is not lowercase hex", ErrInvalidID, id, i)
		}
	}
	return nil
}

// Normalize returns s in canonical form: ids validated, content trimmed,
// times in UTC, a zero due date dropped and a missing update time defaulted
// to the creation time.
func Normalize(s Subtask) (Subtask, error) {
	if err := ValidID(s.ID); err != nil {
		return Subtask{}, err
	}
	s.Content = strings.TrimSpace(s.Content)
	s.Created = s.Created.UTC()
	if s.Updated.IsZero() {
		s.Updated = s.Created
	}
	s.Updated = s.Updated.UTC()
	if s.DueDate != nil {
		if s.DueDate.IsZero() {
			s.DueDate = nil
		} else {
			d := s.DueDate.UTC()
			s.DueDate = &d
		}
	}
	return s, nil
}

// NormalizeAll normalizes a fetched batch and fails on the first bad record.
// The input slice is not modified.
func NormalizeAll(subs []Subtask) ([]Subtask, error) {
	out := make([]Subtask, len(subs))
	for i, s := range subs {
		n, err := Normalize(s)
		if err != nil {
			return nil, fmt.Errorf("subtask %d: %w", i, err)
		}
		out[i] = n
	}
	return out, nil
}

// IDOf is the identity used by the entity store and the created watermark.
func IDOf(s Subtask) string { return s.ID }
