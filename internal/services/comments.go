package services

import (
	"strings"
	"unicode/utf8"

	"taskboard/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type CommentService interface {
	AddComment(db *gorm.DB, actor *models.User, taskID uuid.UUID, content string) (*models.Comment, error)
	DeleteComment(db *gorm.DB, actor *models.User, id uuid.UUID) error
}

type CommentServiceImpl struct{}

func NewCommentService() *CommentServiceImpl {
	return &CommentServiceImpl{}
}

// AddComment attaches a remark to a task the actor can see.
func (s *CommentServiceImpl) AddComment(db *gorm.DB, actor *models.User, taskID uuid.UUID, content string) (*models.Comment, error) {
	task, err := loadTask(db, taskID)
	if err != nil {
		return nil, err
	}
	if !task.VisibleTo(actor) {
		return nil, ErrAccessDenied
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, validationError("Content is required")
	}
	if utf8.RuneCountInString(content) > models.CommentMaxLen {
		return nil, validationError("Content too long (max 1000 characters)")
	}

	comment := models.Comment{
		ID:       uuid.Must(uuid.NewV4()),
		Content:  content,
		AuthorID: actor.ID,
		TaskID:   task.ID,
	}
	if err := db.Create(&comment).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// DeleteComment removes a comment. Only the comment's author or an admin may
// do so.
func (s *CommentServiceImpl) DeleteComment(db *gorm.DB, actor *models.User, id uuid.UUID) error {
	var comment models.Comment
	if err := db.Where("id = ?", id).First(&comment).Error; err != nil {
		return err
	}
	if comment.AuthorID != actor.ID && !actor.IsAdmin() {
		return ErrAccessDenied
	}
	return db.Delete(&comment).Error
}
