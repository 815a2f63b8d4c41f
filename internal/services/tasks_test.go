package services

import (
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"taskboard/internal/models"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestCreateTask_Defaults(t *testing.T) {
	db := setupTestDB(t)
	svc := NewTaskService()
	author := createTestUser(t, db, "author", 1)

	task, err := svc.CreateTask(db, author, TaskInput{Title: "  My task  "})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	if task.Title != "My task" {
		t.Errorf("Expected trimmed title 'My task', got %q", task.Title)
	}
	if task.Status != models.StatusTodo {
		t.Errorf("Expected default status todo, got %q", task.Status)
	}
	if task.Priority != models.PriorityDefault {
		t.Errorf("Expected default priority %d, got %d", models.PriorityDefault, task.Priority)
	}
	if task.Deadline != nil {
		t.Errorf("Expected no deadline, got %v", task.Deadline)
	}
	if task.AuthorID != author.ID {
		t.Error("Expected task author to be the actor")
	}
}

func TestCreateTask_TitleRequired(t *testing.T) {
	db := setupTestDB(t)
	svc := NewTaskService()
	author := createTestUser(t, db, "author", 1)

	_, err := svc.CreateTask(db, author, TaskInput{Title: "   "})
	if !isValidationError(err) {
		t.Errorf("Expected validation error for blank title, got %v", err)
	}
}

func TestCreateTask_InvalidPriorityFallsBack(t *testing.T) {
	db := setupTestDB(t)
	svc := NewTaskService()
	author := createTestUser(t, db, "author", 1)

	task, err := svc.CreateTask(db, author, TaskInput{Title: "t", Priority: intPtr(7)})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if task.Priority != models.PriorityDefault {
		t.Errorf("Expected out-of-range priority to fall back to %d, got %d", models.PriorityDefault, task.Priority)
	}
}

func TestCreateTask_Deadline(t *testing.T) {
	db := setupTestDB(t)
	svc := NewTaskService()
	author := createTestUser(t, db, "author", 1)

	task, err := svc.CreateTask(db, author, TaskInput{Title: "t", Deadline: strPtr("2026-09-01")})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if task.Deadline == nil || task.Deadline.Format(models.DeadlineLayout) != "2026-09-01" {
		t.Errorf("Expected deadline 2026-09-01, got %v", task.Deadline)
	}

	_, err = svc.CreateTask(db, author, TaskInput{Title: "t2", Deadline: strPtr("01/09/2026")})
	if !isValidationError(err) {
		t.Errorf("Expected validation error for malformed deadline, got %v", err)
	}
}

func TestCreateTask_ProjectResolution(t *testing.T) {
	db := setupTestDB(t)
	svc := NewTaskService()
	author := createTestUser(t, db, "author", 1)
	project := createTestProject(t, db, author, "Alpha")

	task, err := svc.CreateTask(db, author, TaskInput{Title: "t", ProjectID: strPtr(project.ID.String())})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if task.ProjectID == nil || *task.ProjectID != project.ID {
		t.Errorf("Expected project %s, got %v", project.ID, task.ProjectID)
	}

	// "0" and empty mean no project.
	task, err = svc.CreateTask(db, author, TaskInput{Title: "t2", ProjectID: strPtr("0")})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if task.ProjectID != nil {
		t.Errorf("Expected nil project for '0', got %v", task.ProjectID)
	}

	_, err = svc.CreateTask(db, author, TaskInput{Title: "t3", ProjectID: strPtr("cecccf52-0000-0000-0000-000000000000")})
	if !isValidationError(err) {
		t.Errorf("Expected validation error for unknown project, got %v", err)
	}
}

func TestCreateTask_AssigneeFiltering(t *testing.T) {
	db := setupTestDB(t)
	svc := NewTaskService()
	manager := createTestUser(t, db, "manager", 1)
	worker := createTestUser(t, db, "worker", 2)
	admin := createTestUser(t, db, "admin", 0)

	// A manager may assign peers and below, never an admin. Unknown ids and
	// duplicates are dropped without error.
	task, err := svc.CreateTask(db, manager, TaskInput{
		Title: "t",
		AssigneeIDs: []string{
			worker.ID.String(),
			worker.ID.String(),
			admin.ID.String(),
			"not-a-uuid",
			"cecccf52-0000-0000-0000-000000000000",
		},
	})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	if len(task.Assignees) != 1 {
		t.Fatalf("Expected exactly 1 assignee after filtering, got %d", len(task.Assignees))
	}
	if task.Assignees[0].ID != worker.ID {
		t.Errorf("Expected worker to be the surviving assignee")
	}
}

func TestCreateTask_InlineSubtasks(t *testing.T) {
	db := setupTestDB(t)
	svc := NewTaskService()
	author := createTestUser(t, db, "author", 1)

	task, err := svc.CreateTask(db, author, TaskInput{
		Title: "t",
		Subtasks: []SubtaskInput{
			{Title: "step one"},
			{Title: "   "},
			{Title: "step two", Completed: true},
		},
	})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	if len(task.Subtasks) != 2 {
		t.Fatalf("Expected 2 subtasks (blank skipped), got %d", len(task.Subtasks))
	}
}

func TestGetTaskByID_Visibility(t *testing.T) {
	db := setupTestDB(t)
	svc := NewTaskService()
	author := createTestUser(t, db, "author", 1)
	assignee := createTestUser(t, db, "assignee", 2)
	stranger := createTestUser(t, db, "stranger", 2)
	admin := createTestUser(t, db, "admin", 0)

	task := createTestTask(t, db, svc, author, TaskInput{
		Title:       "t",
		AssigneeIDs: []string{assignee.ID.String()},
	})

	if _, err := svc.GetTaskByID(db, author, task.ID); err != nil {
		t.Errorf("Expected author to see task, got %v", err)
	}
	if _, err := svc.GetTaskByID(db, assignee, task.ID); err != nil {
		t.Errorf("Expected assignee to see task, got %v", err)
	}
	if _, err := svc.GetTaskByID(db, admin, task.ID); err != nil {
		t.Errorf("Expected admin to see task, got %v", err)
	}
	if _, err := svc.GetTaskByID(db, stranger, task.ID); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("Expected ErrAccessDenied for stranger, got %v", err)
	}
}

func TestListTasks_Visibility(t *testing.T) {
	db := setupTestDB(t)
	svc := NewTaskService()
	manager := createTestUser(t, db, "manager", 1)
	worker := createTestUser(t, db, "worker", 2)
	admin := createTestUser(t, db, "admin", 0)

	createTestTask(t, db, svc, manager, TaskInput{Title: "authored by manager"})
	createTestTask(t, db, svc, manager, TaskInput{
		Title:       "assigned to worker",
		AssigneeIDs: []string{worker.ID.String()},
	})
	createTestTask(t, db, svc, worker, TaskInput{Title: "authored by worker"})

	adminTasks, err := svc.ListTasks(db, admin, TaskFilter{})
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if len(adminTasks) != 3 {
		t.Errorf("Expected admin to see 3 tasks, got %d", len(adminTasks))
	}

	workerTasks, err := svc.ListTasks(db, worker, TaskFilter{})
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if len(workerTasks) != 2 {
		t.Errorf("Expected worker to see 2 tasks (authored + assigned), got %d", len(workerTasks))
	}

	managerTasks, err := svc.ListTasks(db, manager, TaskFilter{})
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if len(managerTasks) != 2 {
		t.Errorf("Expected manager to see 2 authored tasks, got %d", len(managerTasks))
	}
}

func TestListTasks_StatusFilter(t *testing.T) {
	db := setupTestDB(t)
	svc := NewTaskService()
	author := createTestUser(t, db, "author", 1)

	createTestTask(t, db, svc, author, TaskInput{Title: "a", Status: models.StatusTodo})
	createTestTask(t, db, svc, author, TaskInput{Title: "b", Status: models.StatusReview})

	tasks, err := svc.ListTasks(db, author, TaskFilter{Status: models.StatusReview})
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Status != models.StatusReview {
		t.Errorf("Expected only the review task, got %d tasks", len(tasks))
	}

	// An unknown status applies no filter.
	tasks, err = svc.ListTasks(db, author, TaskFilter{Status: "bogus"})
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if len(tasks) != 2 {
		t.Errorf("Expected unknown status to be ignored, got %d tasks", len(tasks))
	}
}

func TestListTasks_OverdueFilter(t *testing.T) {
	db := setupTestDB(t)
	svc := NewTaskService()
	author := createTestUser(t, db, "author", 1)

	yesterday := models.DateOnly(time.Now().UTC().AddDate(0, 0, -1)).Format(models.DeadlineLayout)
	tomorrow := models.DateOnly(time.Now().UTC().AddDate(0, 0, 1)).Format(models.DeadlineLayout)

	overdueTask := createTestTask(t, db, svc, author, TaskInput{Title: "late", Deadline: strPtr(yesterday)})
	createTestTask(t, db, svc, author, TaskInput{Title: "future", Deadline: strPtr(tomorrow)})

	completedLate := createTestTask(t, db, svc, author, TaskInput{Title: "late but done", Deadline: strPtr(yesterday)})
	if _, err := svc.CompleteTask(db, author, completedLate.ID); err != nil {
		t.Fatalf("CompleteTask failed: %v", err)
	}

	tasks, err := svc.ListTasks(db, author, TaskFilter{Overdue: true})
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != overdueTask.ID {
		t.Errorf("Expected only the open overdue task, got %d tasks", len(tasks))
	}
}

func TestListTasks_DueTodayFilter(t *testing.T) {
	db := setupTestDB(t)
	svc := NewTaskService()
	author := createTestUser(t, db, "author", 1)

	today := models.DateOnly(time.Now().UTC()).Format(models.DeadlineLayout)
	yesterday := models.DateOnly(time.Now().UTC().AddDate(0, 0, -1)).Format(models.DeadlineLayout)
	tomorrow := models.DateOnly(time.Now().UTC().AddDate(0, 0, 1)).Format(models.DeadlineLayout)

	dueToday := createTestTask(t, db, svc, author, TaskInput{Title: "today", Deadline: strPtr(today)})
	createTestTask(t, db, svc, author, TaskInput{Title: "yesterday", Deadline: strPtr(yesterday)})
	createTestTask(t, db, svc, author, TaskInput{Title: "tomorrow", Deadline: strPtr(tomorrow)})
	createTestTask(t, db, svc, author, TaskInput{Title: "no deadline"})

	completedToday := createTestTask(t, db, svc, author, TaskInput{Title: "today but done", Deadline: strPtr(today)})
	if _, err := svc.CompleteTask(db, author, completedToday.ID); err != nil {
		t.Fatalf("CompleteTask failed: %v", err)
	}

	tasks, err := svc.ListTasks(db, author, TaskFilter{DueToday: true})
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != dueToday.ID {
		t.Errorf("Expected only the open due-today task, got %d tasks", len(tasks))
	}

	// Filters are conjunctive; a deadline cannot be both past and today.
	tasks, err = svc.ListTasks(db, author, TaskFilter{Overdue: true, DueToday: true})
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("Expected overdue+due_today to be empty, got %d tasks", len(tasks))
	}
}

func TestUpdateTask_AuthorOnly(t *testing.T) {
	db := setupTestDB(t)
	svc := NewTaskService()
	author := createTestUser(t, db, "author", 1)
	assignee := createTestUser(t, db, "assignee", 2)
	admin := createTestUser(t, db, "admin", 0)

	task := createTestTask(t, db, svc, author, TaskInput{
		Title:       "t",
		AssigneeIDs: []string{assignee.ID.String()},
	})

	// Structural edits stay with the author; even admins are refused.
	if _, err := svc.UpdateTask(db, assignee, task.ID, TaskInput{Title: "x"}); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("Expected assignee update to be denied, got %v", err)
	}
	if _, err := svc.UpdateTask(db, admin, task.ID, TaskInput{Title: "x"}); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("Expected admin update to be denied, got %v", err)
	}
	if _, err := svc.UpdateTask(db, author, task.ID, TaskInput{Title: "renamed"}); err != nil {
		t.Errorf("Expected author update to succeed, got %v", err)
	}
}

func TestUpdateTask_FieldSemantics(t *testing.T) {
	db := setupTestDB(t)
	svc := NewTaskService()
	author := createTestUser(t, db, "author", 1)
	project := createTestProject(t, db, author, "Alpha")

	task := createTestTask(t, db, svc, author, TaskInput{
		Title:     "t",
		Priority:  intPtr(3),
		Deadline:  strPtr("2026-09-01"),
		ProjectID: strPtr(project.ID.String()),
	})

	// Absent deadline and project keep stored values; invalid priority keeps
	// the stored value instead of resetting.
	updated, err := svc.UpdateTask(db, author, task.ID, TaskInput{
		Title:    "t",
		Priority: intPtr(9),
	})
	if err != nil {
		t.Fatalf("UpdateTask failed: %v", err)
	}
	if updated.Priority != 3 {
		t.Errorf("Expected priority to stay 3, got %d", updated.Priority)
	}
	if updated.Deadline == nil {
		t.Error("Expected deadline to be kept when absent from input")
	}
	if updated.ProjectID == nil {
		t.Error("Expected project to be kept when absent from input")
	}

	// Empty strings clear deadline and project.
	updated, err = svc.UpdateTask(db, author, task.ID, TaskInput{
		Title:     "t",
		Deadline:  strPtr(""),
		ProjectID: strPtr(""),
	})
	if err != nil {
		t.Fatalf("UpdateTask failed: %v", err)
	}
	if updated.Deadline != nil {
		t.Errorf("Expected empty deadline to clear, got %v", updated.Deadline)
	}
	if updated.ProjectID != nil {
		t.Errorf("Expected empty project_id to clear, got %v", updated.ProjectID)
	}
}

func TestUpdateTask_AssigneeReplacement(t *testing.T) {
	db := setupTestDB(t)
	svc := NewTaskService()
	author := createTestUser(t, db, "author", 1)
	first := createTestUser(t, db, "first", 2)
	second := createTestUser(t, db, "second", 2)

	task := createTestTask(t, db, svc, author, TaskInput{
		Title:       "t",
		AssigneeIDs: []string{first.ID.String()},
	})

	updated, err := svc.UpdateTask(db, author, task.ID, TaskInput{
		Title:       "t",
		AssigneeIDs: []string{second.ID.String()},
	})
	if err != nil {
		t.Fatalf("UpdateTask failed: %v", err)
	}
	if len(updated.Assignees) != 1 || updated.Assignees[0].ID != second.ID {
		t.Errorf("Expected assignees to be replaced with second user")
	}
}

func TestDeleteTask(t *testing.T) {
	db := setupTestDB(t)
	svc := NewTaskService()
	author := createTestUser(t, db, "author", 1)
	admin := createTestUser(t, db, "admin", 0)

	task := createTestTask(t, db, svc, author, TaskInput{
		Title:    "t",
		Subtasks: []SubtaskInput{{Title: "s1"}},
	})

	if err := svc.DeleteTask(db, admin, task.ID); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("Expected admin delete to be denied, got %v", err)
	}

	if err := svc.DeleteTask(db, author, task.ID); err != nil {
		t.Fatalf("DeleteTask failed: %v", err)
	}

	if _, err := svc.GetTaskByID(db, author, task.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("Expected task to be gone, got %v", err)
	}

	var subtaskCount int64
	db.Model(&models.Subtask{}).Where("task_id = ?", task.ID).Count(&subtaskCount)
	if subtaskCount != 0 {
		t.Errorf("Expected owned subtasks to be removed, found %d", subtaskCount)
	}
}

func TestCompleteTask(t *testing.T) {
	db := setupTestDB(t)
	svc := NewTaskService()
	author := createTestUser(t, db, "author", 1)
	assignee := createTestUser(t, db, "assignee", 2)
	stranger := createTestUser(t, db, "stranger", 2)

	task := createTestTask(t, db, svc, author, TaskInput{
		Title:       "t",
		AssigneeIDs: []string{assignee.ID.String()},
	})

	if _, err := svc.CompleteTask(db, stranger, task.ID); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("Expected stranger to be denied, got %v", err)
	}

	completed, err := svc.CompleteTask(db, assignee, task.ID)
	if err != nil {
		t.Fatalf("CompleteTask failed: %v", err)
	}
	if completed.Status != models.StatusDone || completed.CompletedAt == nil {
		t.Error("Expected completion to stamp done + completed_at")
	}

	// Completing again is a no-op, not an error.
	stamp := *completed.CompletedAt
	again, err := svc.CompleteTask(db, assignee, task.ID)
	if err != nil {
		t.Fatalf("CompleteTask failed on repeat: %v", err)
	}
	if !again.CompletedAt.Equal(stamp) {
		t.Error("Expected repeat completion to keep the original timestamp")
	}
}

func TestMarkDone_Progression(t *testing.T) {
	db := setupTestDB(t)
	svc := NewTaskService()
	author := createTestUser(t, db, "author", 1)
	assignee := createTestUser(t, db, "assignee", 2)

	task := createTestTask(t, db, svc, author, TaskInput{
		Title:       "t",
		AssigneeIDs: []string{assignee.ID.String()},
	})

	// The author is not an assignee, so mark_done is denied for them.
	if _, err := svc.MarkDone(db, author, task.ID); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("Expected non-assignee author to be denied, got %v", err)
	}

	step1, err := svc.MarkDone(db, assignee, task.ID)
	if err != nil {
		t.Fatalf("MarkDone failed: %v", err)
	}
	if step1.Status != models.StatusInProgress {
		t.Errorf("Expected in_progress after first step, got %q", step1.Status)
	}

	step2, err := svc.MarkDone(db, assignee, task.ID)
	if err != nil {
		t.Fatalf("MarkDone failed: %v", err)
	}
	if step2.Status != models.StatusReview {
		t.Errorf("Expected review after second step, got %q", step2.Status)
	}
	if step2.CompletedAt != nil {
		t.Error("Expected completed_at to be cleared on entering review")
	}

	// Review is the end of mark_done's reach.
	step3, err := svc.MarkDone(db, assignee, task.ID)
	if err != nil {
		t.Fatalf("MarkDone failed: %v", err)
	}
	if step3.Status != models.StatusReview {
		t.Errorf("Expected third step to change nothing, got %q", step3.Status)
	}
}

func TestApproveTask(t *testing.T) {
	db := setupTestDB(t)
	svc := NewTaskService()
	author := createTestUser(t, db, "author", 1)
	assignee := createTestUser(t, db, "assignee", 2)

	task := createTestTask(t, db, svc, author, TaskInput{
		Title:       "t",
		AssigneeIDs: []string{assignee.ID.String()},
	})

	// Not yet in review.
	if _, err := svc.ApproveTask(db, author, task.ID); !isValidationError(err) {
		t.Errorf("Expected validation error approving a todo task, got %v", err)
	}

	svc.MarkDone(db, assignee, task.ID)
	svc.MarkDone(db, assignee, task.ID)

	// Assignees cannot sign off their own work.
	if _, err := svc.ApproveTask(db, assignee, task.ID); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("Expected assignee approve to be denied, got %v", err)
	}

	approved, err := svc.ApproveTask(db, author, task.ID)
	if err != nil {
		t.Fatalf("ApproveTask failed: %v", err)
	}
	if approved.Status != models.StatusDone || approved.CompletedAt == nil {
		t.Error("Expected approval to stamp done + completed_at")
	}
}
