package models

import (
	"time"

	"github.com/gofrs/uuid"
)

const (
	StatusTodo       = "todo"
	StatusInProgress = "in_progress"
	StatusReview     = "review"
	StatusDone       = "done"
)

const (
	PriorityMin     = 1
	PriorityMax     = 4
	PriorityDefault = 2
)

const (
	TitleMaxLen       = 200
	DescriptionMaxLen = 2000
)

// DeadlineLayout is the wire format for task deadlines.
const DeadlineLayout = "2006-01-02"

func ValidStatus(s string) bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusReview, StatusDone:
		return true
	}
	return false
}

func ValidPriority(p int) bool {
	return p >= PriorityMin && p <= PriorityMax
}

// DateOnly truncates t to a calendar date in UTC. Deadlines are stored and
// compared at date granularity only.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

type Task struct {
	ID          uuid.UUID  `json:"id" gorm:"primaryKey;type:uuid"`
	Title       string     `json:"title" gorm:"size:200;not null"`
	Description string     `json:"description" gorm:"size:2000"`
	Status      string     `json:"status" gorm:"size:20;not null;default:'todo'"`
	Priority    int        `json:"priority" gorm:"not null;default:2"`
	Deadline    *time.Time `json:"-" gorm:"type:date"`
	ProjectID   *uuid.UUID `json:"project_id" gorm:"type:uuid;index"`
	AuthorID    uuid.UUID  `json:"author_id" gorm:"type:uuid;not null;index"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at"`

	// Task exclusively owns its comments and subtasks; both are removed
	// when the task is deleted. The assignee relation is shared: users
	// outlive the tasks they are assigned to.
	Assignees []User    `json:"-" gorm:"many2many:task_assignees"`
	Comments  []Comment `json:"-" gorm:"foreignKey:TaskID"`
	Subtasks  []Subtask `json:"-" gorm:"foreignKey:TaskID"`
}

// VisibleTo reports whether u may read or act on the task: admins, the
// author, and assignees qualify. Assignees must be preloaded.
func (t *Task) VisibleTo(u *User) bool {
	if u.IsAdmin() || t.AuthorID == u.ID {
		return true
	}
	return t.IsAssignee(u)
}

func (t *Task) IsAssignee(u *User) bool {
	for i := range t.Assignees {
		if t.Assignees[i].ID == u.ID {
			return true
		}
	}
	return false
}

// CanMarkDone gates the todo -> in_progress -> review progression: only an
// assignee or an admin may push a task forward.
func (t *Task) CanMarkDone(u *User) bool {
	return u.IsAdmin() || t.IsAssignee(u)
}

// CanApprove gates review -> done: only the author or an admin signs off.
func (t *Task) CanApprove(u *User) bool {
	return u.IsAdmin() || t.AuthorID == u.ID
}

func (t *Task) IsOverdue(today time.Time) bool {
	return t.Deadline != nil && t.CompletedAt == nil && t.Deadline.Before(DateOnly(today))
}

func (t *Task) IsDueToday(today time.Time) bool {
	return t.Deadline != nil && t.CompletedAt == nil && t.Deadline.Equal(DateOnly(today))
}

type TaskResponse struct {
	ID          uuid.UUID         `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Status      string            `json:"status"`
	Priority    int               `json:"priority"`
	Deadline    *string           `json:"deadline"`
	ProjectID   *uuid.UUID        `json:"project_id"`
	AuthorID    uuid.UUID         `json:"author_id"`
	CreatedAt   time.Time         `json:"created_at"`
	CompletedAt *time.Time        `json:"completed_at"`
	AssigneeIDs []uuid.UUID       `json:"assignee_ids"`
	Subtasks    []SubtaskResponse `json:"subtasks"`
	Comments    []CommentResponse `json:"comments"`
}

func (t *Task) ToResponse() TaskResponse {
	resp := TaskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Priority:    t.Priority,
		ProjectID:   t.ProjectID,
		AuthorID:    t.AuthorID,
		CreatedAt:   t.CreatedAt,
		CompletedAt: t.CompletedAt,
		AssigneeIDs: make([]uuid.UUID, 0, len(t.Assignees)),
		Subtasks:    make([]SubtaskResponse, 0, len(t.Subtasks)),
		Comments:    make([]CommentResponse, 0, len(t.Comments)),
	}
	if t.Deadline != nil {
		d := t.Deadline.Format(DeadlineLayout)
		resp.Deadline = &d
	}
	for i := range t.Assignees {
		resp.AssigneeIDs = append(resp.AssigneeIDs, t.Assignees[i].ID)
	}
	for i := range t.Subtasks {
		resp.Subtasks = append(resp.Subtasks, t.Subtasks[i].ToResponse())
	}
	for i := range t.Comments {
		resp.Comments = append(resp.Comments, t.Comments[i].ToResponse())
	}
	return resp
}
