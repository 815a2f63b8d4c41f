package services

import (
	"strings"
	"time"
	"unicode/utf8"

	"taskboard/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type SubtaskInput struct {
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// TaskInput carries already-parsed client input for task creation and
// structural edits. Pointer fields distinguish "absent" from "empty": on
// update an absent field keeps the stored value, an empty deadline or
// project id clears it.
type TaskInput struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Status      string         `json:"status"`
	Priority    *int           `json:"priority"`
	Deadline    *string        `json:"deadline"`
	ProjectID   *string        `json:"project_id"`
	AssigneeIDs []string       `json:"assignee_ids"`
	Subtasks    []SubtaskInput `json:"subtasks"`
}

// TaskFilter narrows the visible task set. Filters are conjunctive; an
// unknown status value applies no status filter at all.
type TaskFilter struct {
	Status   string
	Overdue  bool
	DueToday bool
}

type TaskService interface {
	CreateTask(db *gorm.DB, actor *models.User, input TaskInput) (*models.Task, error)
	GetTaskByID(db *gorm.DB, actor *models.User, id uuid.UUID) (*models.Task, error)
	ListTasks(db *gorm.DB, actor *models.User, filter TaskFilter) ([]models.Task, error)
	UpdateTask(db *gorm.DB, actor *models.User, id uuid.UUID, input TaskInput) (*models.Task, error)
	DeleteTask(db *gorm.DB, actor *models.User, id uuid.UUID) error
	CompleteTask(db *gorm.DB, actor *models.User, id uuid.UUID) (*models.Task, error)
	MarkDone(db *gorm.DB, actor *models.User, id uuid.UUID) (*models.Task, error)
	ApproveTask(db *gorm.DB, actor *models.User, id uuid.UUID) (*models.Task, error)
}

type TaskServiceImpl struct{}

func NewTaskService() *TaskServiceImpl {
	return &TaskServiceImpl{}
}

func (s *TaskServiceImpl) CreateTask(db *gorm.DB, actor *models.User, input TaskInput) (*models.Task, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" {
		return nil, validationError("Title is required")
	}
	if utf8.RuneCountInString(title) > models.TitleMaxLen {
		return nil, validationError("Title too long (max 200 characters)")
	}
	if utf8.RuneCountInString(description) > models.DescriptionMaxLen {
		return nil, validationError("Description too long (max 2000 characters)")
	}

	status := models.StatusTodo
	if models.ValidStatus(input.Status) {
		status = input.Status
	}

	// Out-of-range priorities fall back to the default on create.
	priority := models.PriorityDefault
	if input.Priority != nil && models.ValidPriority(*input.Priority) {
		priority = *input.Priority
	}

	deadline, err := parseDeadline(input.Deadline)
	if err != nil {
		return nil, err
	}

	var projectID *uuid.UUID
	if input.ProjectID != nil {
		projectID, err = resolveProjectID(db, *input.ProjectID)
		if err != nil {
			return nil, err
		}
	}

	subtasks, err := buildSubtasks(input.Subtasks)
	if err != nil {
		return nil, err
	}

	assignees := filterAssignees(db, actor, input.AssigneeIDs)

	task := models.Task{
		ID:          uuid.Must(uuid.NewV4()),
		Title:       title,
		Description: description,
		Status:      status,
		Priority:    priority,
		Deadline:    deadline,
		ProjectID:   projectID,
		AuthorID:    actor.ID,
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	if err := tx.Create(&task).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if len(assignees) > 0 {
		if err := tx.Model(&task).Association("Assignees").Replace(assignees); err != nil {
			tx.Rollback()
			return nil, err
		}
	}
	for i := range subtasks {
		subtasks[i].TaskID = task.ID
		if err := tx.Create(&subtasks[i]).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return loadTask(db, task.ID)
}

func (s *TaskServiceImpl) GetTaskByID(db *gorm.DB, actor *models.User, id uuid.UUID) (*models.Task, error) {
	task, err := loadTask(db, id)
	if err != nil {
		return nil, err
	}
	if !task.VisibleTo(actor) {
		return nil, ErrAccessDenied
	}
	return task, nil
}

func (s *TaskServiceImpl) ListTasks(db *gorm.DB, actor *models.User, filter TaskFilter) ([]models.Task, error) {
	q := db.Model(&models.Task{}).
		Preload("Assignees").
		Preload("Subtasks").
		Preload("Comments")

	// Admins see the full set; everyone else sees what they authored or
	// are assigned to.
	if !actor.IsAdmin() {
		q = q.Where("author_id = ? OR id IN (?)", actor.ID,
			db.Table("task_assignees").Select("task_id").Where("user_id = ?", actor.ID))
	}

	if models.ValidStatus(filter.Status) {
		q = q.Where("status = ?", filter.Status)
	}

	today := models.DateOnly(time.Now().UTC())
	if filter.Overdue {
		q = q.Where("deadline IS NOT NULL AND deadline < ? AND completed_at IS NULL", today)
	}
	if filter.DueToday {
		q = q.Where("deadline = ? AND completed_at IS NULL", today)
	}

	var tasks []models.Task
	if err := q.Order("created_at DESC").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (s *TaskServiceImpl) UpdateTask(db *gorm.DB, actor *models.User, id uuid.UUID, input TaskInput) (*models.Task, error) {
	task, err := loadTask(db, id)
	if err != nil {
		return nil, err
	}

	// Structural edits are reserved for the author; visibility alone is
	// not enough, and admins get no special grant here.
	if task.AuthorID != actor.ID {
		return nil, ErrAccessDenied
	}

	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" {
		return nil, validationError("Title is required")
	}
	if utf8.RuneCountInString(title) > models.TitleMaxLen {
		return nil, validationError("Title too long (max 200 characters)")
	}
	if utf8.RuneCountInString(description) > models.DescriptionMaxLen {
		return nil, validationError("Description too long (max 2000 characters)")
	}

	status := task.Status
	if models.ValidStatus(input.Status) {
		status = input.Status
	}

	// On update an out-of-range priority keeps the stored value rather
	// than resetting to the default.
	priority := task.Priority
	if input.Priority != nil && models.ValidPriority(*input.Priority) {
		priority = *input.Priority
	}

	deadline := task.Deadline
	if input.Deadline != nil {
		deadline, err = parseDeadline(input.Deadline)
		if err != nil {
			return nil, err
		}
	}

	projectID := task.ProjectID
	if input.ProjectID != nil {
		projectID, err = resolveProjectID(db, *input.ProjectID)
		if err != nil {
			return nil, err
		}
	}

	assignees := filterAssignees(db, actor, input.AssigneeIDs)

	task.Title = title
	task.Description = description
	task.Status = status
	task.Priority = priority
	task.Deadline = deadline
	task.ProjectID = projectID

	tx := db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	if err := tx.Save(task).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	// Replacement semantics: the prior assignee set is discarded and only
	// the requested ids that passed the assignment check remain.
	if err := tx.Model(task).Association("Assignees").Replace(assignees); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return loadTask(db, task.ID)
}

func (s *TaskServiceImpl) DeleteTask(db *gorm.DB, actor *models.User, id uuid.UUID) error {
	task, err := loadTask(db, id)
	if err != nil {
		return err
	}
	if task.AuthorID != actor.ID {
		return ErrAccessDenied
	}

	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}
	if err := tx.Where("task_id = ?", task.ID).Delete(&models.Comment{}).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Where("task_id = ?", task.ID).Delete(&models.Subtask{}).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Model(task).Association("Assignees").Clear(); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Delete(task).Error; err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit().Error
}

// CompleteTask is the direct completion pathway: any user the task is
// visible to may stamp it done, independent of the mark_done/approve
// pipeline. Already-completed tasks are left untouched.
func (s *TaskServiceImpl) CompleteTask(db *gorm.DB, actor *models.User, id uuid.UUID) (*models.Task, error) {
	task, err := loadTask(db, id)
	if err != nil {
		return nil, err
	}
	if !task.VisibleTo(actor) {
		return nil, ErrAccessDenied
	}
	if task.CompletedAt == nil {
		now := time.Now().UTC()
		task.CompletedAt = &now
		task.Status = models.StatusDone
		if err := db.Save(task).Error; err != nil {
			return nil, err
		}
	}
	return task, nil
}

// MarkDone advances the workflow one step: todo -> in_progress, then
// in_progress -> review. Review is not completion, so the completion
// timestamp is cleared on entry. In any other state the call changes
// nothing.
func (s *TaskServiceImpl) MarkDone(db *gorm.DB, actor *models.User, id uuid.UUID) (*models.Task, error) {
	task, err := loadTask(db, id)
	if err != nil {
		return nil, err
	}
	if !task.VisibleTo(actor) {
		return nil, ErrAccessDenied
	}
	if !task.CanMarkDone(actor) {
		return nil, ErrAccessDenied
	}

	switch task.Status {
	case models.StatusTodo:
		task.Status = models.StatusInProgress
	case models.StatusInProgress:
		task.Status = models.StatusReview
		task.CompletedAt = nil
	default:
		return task, nil
	}

	if err := db.Save(task).Error; err != nil {
		return nil, err
	}
	return task, nil
}

// ApproveTask closes the review gate: only the author or an admin moves a
// reviewed task to done, stamping the completion time. Unlike MarkDone,
// calling it out of order is an error, not a no-op: approval asserts that
// a review happened, so a task that is not in review is rejected.
func (s *TaskServiceImpl) ApproveTask(db *gorm.DB, actor *models.User, id uuid.UUID) (*models.Task, error) {
	task, err := loadTask(db, id)
	if err != nil {
		return nil, err
	}
	if !task.VisibleTo(actor) {
		return nil, ErrAccessDenied
	}
	if !task.CanApprove(actor) {
		return nil, ErrAccessDenied
	}
	if task.Status != models.StatusReview {
		return nil, validationError("Task is not in review")
	}

	now := time.Now().UTC()
	task.Status = models.StatusDone
	task.CompletedAt = &now
	if err := db.Save(task).Error; err != nil {
		return nil, err
	}
	return task, nil
}

func loadTask(db *gorm.DB, id uuid.UUID) (*models.Task, error) {
	var task models.Task
	err := db.Preload("Assignees").
		Preload("Subtasks").
		Preload("Comments").
		Where("id = ?", id).
		First(&task).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func parseDeadline(raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	parsed, err := time.ParseInLocation(models.DeadlineLayout, strings.TrimSpace(*raw), time.UTC)
	if err != nil {
		return nil, validationError("Invalid deadline format (expected YYYY-MM-DD)")
	}
	d := models.DateOnly(parsed)
	return &d, nil
}

// resolveProjectID maps the wire value to a project reference. Empty and "0"
// clear the reference; anything else must name an existing project.
func resolveProjectID(db *gorm.DB, raw string) (*uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "0" {
		return nil, nil
	}
	id := uuid.FromStringOrNil(raw)
	if id == uuid.Nil {
		return nil, validationError("Invalid project_id")
	}
	var count int64
	if err := db.Model(&models.Project{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, validationError("Invalid project_id")
	}
	return &id, nil
}

// filterAssignees resolves the requested assignee ids to users the actor may
// assign to. Unknown ids and ids failing the access-level check are silently
// dropped; partial acceptance is not an error.
func filterAssignees(db *gorm.DB, actor *models.User, ids []string) []models.User {
	assignees := make([]models.User, 0, len(ids))
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, raw := range ids {
		id := uuid.FromStringOrNil(strings.TrimSpace(raw))
		if id == uuid.Nil || seen[id] {
			continue
		}
		var candidate models.User
		if err := db.Where("id = ?", id).First(&candidate).Error; err != nil {
			continue
		}
		if !actor.CanAssign(&candidate) {
			continue
		}
		seen[id] = true
		assignees = append(assignees, candidate)
	}
	return assignees
}

func buildSubtasks(inputs []SubtaskInput) ([]models.Subtask, error) {
	subtasks := make([]models.Subtask, 0, len(inputs))
	for _, in := range inputs {
		title := strings.TrimSpace(in.Title)
		if title == "" {
			continue
		}
		if utf8.RuneCountInString(title) > models.SubtaskTitleMaxLen {
			return nil, validationError("Subtask title too long (max 100 characters)")
		}
		subtasks = append(subtasks, models.Subtask{
			ID:        uuid.Must(uuid.NewV4()),
			Title:     title,
			Completed: in.Completed,
		})
	}
	return subtasks, nil
}
