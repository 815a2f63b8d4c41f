package services

import (
	"fmt"
	"time"

	"taskboard/internal/cache"
	"taskboard/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

const taskListTTL = 5 * time.Minute

// CachedTaskService caches visible-task listings per user and filter. Every
// mutation drops the whole listing namespace; correctness over cleverness,
// since any task change can alter another user's visible set.
type CachedTaskService struct {
	inner TaskService
	cache cache.Cache
}

func NewCachedTaskService(inner TaskService, c cache.Cache) *CachedTaskService {
	return &CachedTaskService{inner: inner, cache: c}
}

func listCacheKey(actorID uuid.UUID, filter TaskFilter) string {
	return fmt.Sprintf("tasks:list:%s:s=%s:o=%t:d=%t", actorID, filter.Status, filter.Overdue, filter.DueToday)
}

// cachedTask is the serialized form of a task listing entry. Task itself
// hides its deadline and relations from JSON (the API speaks TaskResponse),
// so caching Task directly would drop those fields on the round trip.
type cachedTask struct {
	ID          uuid.UUID        `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Status      string           `json:"status"`
	Priority    int              `json:"priority"`
	Deadline    *time.Time       `json:"deadline"`
	ProjectID   *uuid.UUID       `json:"project_id"`
	AuthorID    uuid.UUID        `json:"author_id"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	CompletedAt *time.Time       `json:"completed_at"`
	Assignees   []models.User    `json:"assignees"`
	Comments    []models.Comment `json:"comments"`
	Subtasks    []models.Subtask `json:"subtasks"`
}

func toCachedTasks(tasks []models.Task) []cachedTask {
	entries := make([]cachedTask, 0, len(tasks))
	for i := range tasks {
		t := &tasks[i]
		entries = append(entries, cachedTask{
			ID:          t.ID,
			Title:       t.Title,
			Description: t.Description,
			Status:      t.Status,
			Priority:    t.Priority,
			Deadline:    t.Deadline,
			ProjectID:   t.ProjectID,
			AuthorID:    t.AuthorID,
			CreatedAt:   t.CreatedAt,
			UpdatedAt:   t.UpdatedAt,
			CompletedAt: t.CompletedAt,
			Assignees:   t.Assignees,
			Comments:    t.Comments,
			Subtasks:    t.Subtasks,
		})
	}
	return entries
}

func fromCachedTasks(entries []cachedTask) []models.Task {
	tasks := make([]models.Task, 0, len(entries))
	for i := range entries {
		e := &entries[i]
		tasks = append(tasks, models.Task{
			ID:          e.ID,
			Title:       e.Title,
			Description: e.Description,
			Status:      e.Status,
			Priority:    e.Priority,
			Deadline:    e.Deadline,
			ProjectID:   e.ProjectID,
			AuthorID:    e.AuthorID,
			CreatedAt:   e.CreatedAt,
			UpdatedAt:   e.UpdatedAt,
			CompletedAt: e.CompletedAt,
			Assignees:   e.Assignees,
			Comments:    e.Comments,
			Subtasks:    e.Subtasks,
		})
	}
	return tasks
}

func (s *CachedTaskService) invalidate() {
	// Best effort: a failed invalidation only shortens cache usefulness
	// until the TTL expires.
	_ = s.cache.DeletePattern("tasks:list:*")
}

func (s *CachedTaskService) ListTasks(db *gorm.DB, actor *models.User, filter TaskFilter) ([]models.Task, error) {
	key := listCacheKey(actor.ID, filter)

	var cached []cachedTask
	if err := s.cache.Get(key, &cached); err == nil {
		return fromCachedTasks(cached), nil
	}

	tasks, err := s.inner.ListTasks(db, actor, filter)
	if err != nil {
		return nil, err
	}
	_ = s.cache.Set(key, toCachedTasks(tasks), taskListTTL)
	return tasks, nil
}

func (s *CachedTaskService) GetTaskByID(db *gorm.DB, actor *models.User, id uuid.UUID) (*models.Task, error) {
	return s.inner.GetTaskByID(db, actor, id)
}

func (s *CachedTaskService) CreateTask(db *gorm.DB, actor *models.User, input TaskInput) (*models.Task, error) {
	task, err := s.inner.CreateTask(db, actor, input)
	if err == nil {
		s.invalidate()
	}
	return task, err
}

func (s *CachedTaskService) UpdateTask(db *gorm.DB, actor *models.User, id uuid.UUID, input TaskInput) (*models.Task, error) {
	task, err := s.inner.UpdateTask(db, actor, id, input)
	if err == nil {
		s.invalidate()
	}
	return task, err
}

func (s *CachedTaskService) DeleteTask(db *gorm.DB, actor *models.User, id uuid.UUID) error {
	err := s.inner.DeleteTask(db, actor, id)
	if err == nil {
		s.invalidate()
	}
	return err
}

func (s *CachedTaskService) CompleteTask(db *gorm.DB, actor *models.User, id uuid.UUID) (*models.Task, error) {
	task, err := s.inner.CompleteTask(db, actor, id)
	if err == nil {
		s.invalidate()
	}
	return task, err
}

func (s *CachedTaskService) MarkDone(db *gorm.DB, actor *models.User, id uuid.UUID) (*models.Task, error) {
	task, err := s.inner.MarkDone(db, actor, id)
	if err == nil {
		s.invalidate()
	}
	return task, err
}

func (s *CachedTaskService) ApproveTask(db *gorm.DB, actor *models.User, id uuid.UUID) (*models.Task, error) {
	task, err := s.inner.ApproveTask(db, actor, id)
	if err == nil {
		s.invalidate()
	}
	return task, err
}
