package models

import (
	"time"

	"github.com/gofrs/uuid"
)

const CommentMaxLen = 1000

type Comment struct {
	ID        uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	Content   string    `json:"content" gorm:"size:1000;not null"`
	AuthorID  uuid.UUID `json:"author_id" gorm:"type:uuid;not null;index"`
	TaskID    uuid.UUID `json:"task_id" gorm:"type:uuid;not null;index"`
	CreatedAt time.Time `json:"created_at"`
}

type CommentResponse struct {
	ID        uuid.UUID `json:"id"`
	Content   string    `json:"content"`
	AuthorID  uuid.UUID `json:"author_id"`
	TaskID    uuid.UUID `json:"task_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (c *Comment) ToResponse() CommentResponse {
	return CommentResponse{
		ID:        c.ID,
		Content:   c.Content,
		AuthorID:  c.AuthorID,
		TaskID:    c.TaskID,
		CreatedAt: c.CreatedAt,
	}
}
