package services

import (
	"strings"
	"unicode/utf8"

	"taskboard/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// SubtaskUpdate uses pointers so a request may change the title, the
// completed flag, or both.
type SubtaskUpdate struct {
	Title     *string `json:"title"`
	Completed *bool   `json:"completed"`
}

type SubtaskService interface {
	AddSubtask(db *gorm.DB, actor *models.User, taskID uuid.UUID, title string) (*models.Subtask, error)
	UpdateSubtask(db *gorm.DB, actor *models.User, id uuid.UUID, update SubtaskUpdate) (*models.Subtask, error)
	ToggleSubtask(db *gorm.DB, actor *models.User, id uuid.UUID) (*models.Subtask, error)
	DeleteSubtask(db *gorm.DB, actor *models.User, id uuid.UUID) error
}

type SubtaskServiceImpl struct{}

func NewSubtaskService() *SubtaskServiceImpl {
	return &SubtaskServiceImpl{}
}

func validateSubtaskTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", validationError("Title is required")
	}
	if utf8.RuneCountInString(title) > models.SubtaskTitleMaxLen {
		return "", validationError("Title too long (max 100 characters)")
	}
	return title, nil
}

// Subtask mutation is reserved for the parent task's author or an admin.
func canMutateSubtasks(task *models.Task, actor *models.User) bool {
	return task.AuthorID == actor.ID || actor.IsAdmin()
}

func (s *SubtaskServiceImpl) AddSubtask(db *gorm.DB, actor *models.User, taskID uuid.UUID, title string) (*models.Subtask, error) {
	task, err := loadTask(db, taskID)
	if err != nil {
		return nil, err
	}
	if !canMutateSubtasks(task, actor) {
		return nil, ErrAccessDenied
	}

	title, err = validateSubtaskTitle(title)
	if err != nil {
		return nil, err
	}

	subtask := models.Subtask{
		ID:     uuid.Must(uuid.NewV4()),
		Title:  title,
		TaskID: task.ID,
	}
	if err := db.Create(&subtask).Error; err != nil {
		return nil, err
	}
	return &subtask, nil
}

func (s *SubtaskServiceImpl) UpdateSubtask(db *gorm.DB, actor *models.User, id uuid.UUID, update SubtaskUpdate) (*models.Subtask, error) {
	subtask, task, err := loadSubtaskWithTask(db, id)
	if err != nil {
		return nil, err
	}
	if !canMutateSubtasks(task, actor) {
		return nil, ErrAccessDenied
	}

	if update.Title != nil {
		title, err := validateSubtaskTitle(*update.Title)
		if err != nil {
			return nil, err
		}
		subtask.Title = title
	}
	if update.Completed != nil {
		subtask.Completed = *update.Completed
	}

	if err := db.Save(subtask).Error; err != nil {
		return nil, err
	}
	return subtask, nil
}

// ToggleSubtask flips the completed flag unconditionally once authorized.
func (s *SubtaskServiceImpl) ToggleSubtask(db *gorm.DB, actor *models.User, id uuid.UUID) (*models.Subtask, error) {
	subtask, task, err := loadSubtaskWithTask(db, id)
	if err != nil {
		return nil, err
	}
	if !canMutateSubtasks(task, actor) {
		return nil, ErrAccessDenied
	}

	subtask.Completed = !subtask.Completed
	if err := db.Save(subtask).Error; err != nil {
		return nil, err
	}
	return subtask, nil
}

func (s *SubtaskServiceImpl) DeleteSubtask(db *gorm.DB, actor *models.User, id uuid.UUID) error {
	subtask, task, err := loadSubtaskWithTask(db, id)
	if err != nil {
		return err
	}
	if !canMutateSubtasks(task, actor) {
		return ErrAccessDenied
	}
	return db.Delete(subtask).Error
}

func loadSubtaskWithTask(db *gorm.DB, id uuid.UUID) (*models.Subtask, *models.Task, error) {
	var subtask models.Subtask
	if err := db.Where("id = ?", id).First(&subtask).Error; err != nil {
		return nil, nil, err
	}
	var task models.Task
	if err := db.Where("id = ?", subtask.TaskID).First(&task).Error; err != nil {
		return nil, nil, err
	}
	return &subtask, &task, nil
}
