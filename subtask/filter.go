package subtask

import (
	"fmt"
	"slices"

	"github.com/unkn0wn-root/pagecache"
)

type Kind uint8

const (
	_ Kind = iota
	// Open: assigned to the user, in the organization, no due date, not done.
	Open
	// Due: like Open but with a due date set.
	Due
	// Done: assigned to the user, in the organization, done.
	Done
	// Created: assigned to the user, in the organization, any state.
	Created
	// OfTask: belongs to TaskID.
	OfTask
)

var kindNames = [...]string{
	Open:    "open",
	Due:     "due",
	Done:    "done",
	Created: "created",
	OfTask:  "of_task",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Filter is the membership predicate of one subtask view. The fields a Kind
// does not use are ignored.
type Filter struct {
	Kind       Kind
	UserID     string
	ProjectIDs []string
	TaskID     string
}

var _ pagecache.Filter[Subtask] = Filter{}

func (f Filter) Match(s Subtask) bool {
	switch f.Kind {
	case OfTask:
		return s.TaskID == f.TaskID
	case Open:
		return f.mine(s) && s.DueDate == nil && !s.IsDone
	case Due:
		return f.mine(s) && s.DueDate != nil && !s.IsDone
	case Done:
		return f.mine(s) && s.IsDone
	case Created:
		return f.mine(s)
	default:
		return false
	}
}

func (f Filter) mine(s Subtask) bool {
	return s.ExecutorID == f.UserID && slices.Contains(f.ProjectIDs, s.ProjectID)
}

func (f Filter) String() string {
	if f.Kind == OfTask {
		return fmt.Sprintf("%s(task=%s)", f.Kind, f.TaskID)
	}
	return fmt.Sprintf("%s(user=%s,projects=%d)", f.Kind, f.UserID, len(f.ProjectIDs))
}

func orgFilter(k Kind, userID string, org Organization) Filter {
	return Filter{Kind: k, UserID: userID, ProjectIDs: slices.Clone(org.ProjectIDs)}
}
