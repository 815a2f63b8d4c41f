package services

import (
	"strings"
	"unicode/utf8"

	"taskboard/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type ProjectInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

type ProjectService interface {
	CreateProject(db *gorm.DB, actor *models.User, input ProjectInput) (*models.Project, error)
	GetProjectByID(db *gorm.DB, id uuid.UUID) (*models.Project, error)
	ListProjects(db *gorm.DB) ([]models.Project, error)
	UpdateProject(db *gorm.DB, id uuid.UUID, input ProjectInput) (*models.Project, error)
	DeleteProject(db *gorm.DB, id uuid.UUID) error
}

type ProjectServiceImpl struct{}

func NewProjectService() *ProjectServiceImpl {
	return &ProjectServiceImpl{}
}

func validateProjectName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", validationError("Name is required")
	}
	if utf8.RuneCountInString(name) > models.ProjectNameMaxLen {
		return "", validationError("Name too long (max 100 characters)")
	}
	return name, nil
}

func (s *ProjectServiceImpl) CreateProject(db *gorm.DB, actor *models.User, input ProjectInput) (*models.Project, error) {
	name, err := validateProjectName(input.Name)
	if err != nil {
		return nil, err
	}

	color := strings.TrimSpace(input.Color)
	if color == "" {
		color = models.DefaultProjectColor
	}

	project := models.Project{
		ID:          uuid.Must(uuid.NewV4()),
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Color:       color,
		OwnerID:     actor.ID,
	}
	if err := db.Create(&project).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

func (s *ProjectServiceImpl) GetProjectByID(db *gorm.DB, id uuid.UUID) (*models.Project, error) {
	var project models.Project
	if err := db.Where("id = ?", id).First(&project).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

func (s *ProjectServiceImpl) ListProjects(db *gorm.DB) ([]models.Project, error) {
	var projects []models.Project
	if err := db.Order("created_at").Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// UpdateProject applies the same name rules as creation. Edits are open to
// any authenticated user; ownership gates nothing here.
func (s *ProjectServiceImpl) UpdateProject(db *gorm.DB, id uuid.UUID, input ProjectInput) (*models.Project, error) {
	var project models.Project
	if err := db.Where("id = ?", id).First(&project).Error; err != nil {
		return nil, err
	}

	name, err := validateProjectName(input.Name)
	if err != nil {
		return nil, err
	}

	project.Name = name
	if desc := strings.TrimSpace(input.Description); desc != "" {
		project.Description = desc
	}
	if color := strings.TrimSpace(input.Color); color != "" {
		project.Color = color
	}
	if err := db.Save(&project).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// DeleteProject refuses to remove a project that still owns tasks.
func (s *ProjectServiceImpl) DeleteProject(db *gorm.DB, id uuid.UUID) error {
	var project models.Project
	if err := db.Where("id = ?", id).First(&project).Error; err != nil {
		return err
	}

	var taskCount int64
	if err := db.Model(&models.Task{}).Where("project_id = ?", id).Count(&taskCount).Error; err != nil {
		return err
	}
	if taskCount > 0 {
		return validationError("Cannot delete project with tasks")
	}

	return db.Delete(&project).Error
}
