package services

import (
	"errors"
	"strings"
	"testing"

	"gorm.io/gorm"

	"taskboard/internal/models"
)

func TestAddComment(t *testing.T) {
	db := setupTestDB(t)
	taskSvc := NewTaskService()
	svc := NewCommentService()
	author := createTestUser(t, db, "author", 1)
	stranger := createTestUser(t, db, "stranger", 2)

	task := createTestTask(t, db, taskSvc, author, TaskInput{Title: "t"})

	comment, err := svc.AddComment(db, author, task.ID, "  looks good  ")
	if err != nil {
		t.Fatalf("AddComment failed: %v", err)
	}
	if comment.Content != "looks good" {
		t.Errorf("Expected trimmed content, got %q", comment.Content)
	}
	if comment.AuthorID != author.ID || comment.TaskID != task.ID {
		t.Error("Expected comment bound to actor and task")
	}

	// Commenting follows task visibility.
	if _, err := svc.AddComment(db, stranger, task.ID, "hi"); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("Expected stranger to be denied, got %v", err)
	}
}

func TestAddComment_Validation(t *testing.T) {
	db := setupTestDB(t)
	taskSvc := NewTaskService()
	svc := NewCommentService()
	author := createTestUser(t, db, "author", 1)
	task := createTestTask(t, db, taskSvc, author, TaskInput{Title: "t"})

	if _, err := svc.AddComment(db, author, task.ID, "   "); !isValidationError(err) {
		t.Errorf("Expected validation error for blank content, got %v", err)
	}

	long := strings.Repeat("x", models.CommentMaxLen+1)
	if _, err := svc.AddComment(db, author, task.ID, long); !isValidationError(err) {
		t.Errorf("Expected validation error for overlong content, got %v", err)
	}
}

func TestDeleteComment(t *testing.T) {
	db := setupTestDB(t)
	taskSvc := NewTaskService()
	svc := NewCommentService()
	author := createTestUser(t, db, "author", 1)
	assignee := createTestUser(t, db, "assignee", 2)
	admin := createTestUser(t, db, "admin", 0)

	task := createTestTask(t, db, taskSvc, author, TaskInput{
		Title:       "t",
		AssigneeIDs: []string{assignee.ID.String()},
	})

	comment, err := svc.AddComment(db, assignee, task.ID, "remark")
	if err != nil {
		t.Fatalf("AddComment failed: %v", err)
	}

	// The task author did not write this comment, so they cannot remove it.
	if err := svc.DeleteComment(db, author, comment.ID); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("Expected non-author delete to be denied, got %v", err)
	}

	// Admins may remove any comment.
	if err := svc.DeleteComment(db, admin, comment.ID); err != nil {
		t.Fatalf("Expected admin delete to succeed, got %v", err)
	}

	if err := svc.DeleteComment(db, admin, comment.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("Expected not found on repeat delete, got %v", err)
	}
}
