package models

import "github.com/gofrs/uuid"

const SubtaskTitleMaxLen = 100

type Subtask struct {
	ID        uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	Title     string    `json:"title" gorm:"size:100;not null"`
	Completed bool      `json:"completed" gorm:"not null;default:false"`
	TaskID    uuid.UUID `json:"task_id" gorm:"type:uuid;not null;index"`
}

type SubtaskResponse struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	TaskID    uuid.UUID `json:"task_id"`
}

func (s *Subtask) ToResponse() SubtaskResponse {
	return SubtaskResponse{ID: s.ID, Title: s.Title, Completed: s.Completed, TaskID: s.TaskID}
}
