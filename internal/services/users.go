package services

import (
	"taskboard/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type UserService interface {
	GetUserByID(db *gorm.DB, id uuid.UUID) (*models.User, error)
	ListUsers(db *gorm.DB) ([]models.User, error)
	SetAccessLevel(db *gorm.DB, actor *models.User, targetID uuid.UUID, level int) (*models.User, error)
}

type UserServiceImpl struct{}

func NewUserService() *UserServiceImpl {
	return &UserServiceImpl{}
}

func (s *UserServiceImpl) GetUserByID(db *gorm.DB, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := db.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserServiceImpl) ListUsers(db *gorm.DB) ([]models.User, error) {
	var users []models.User
	if err := db.Order("username").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// SetAccessLevel changes another user's access level. Only admins may do
// this, never on their own account, and levels are clamped to be
// non-negative.
func (s *UserServiceImpl) SetAccessLevel(db *gorm.DB, actor *models.User, targetID uuid.UUID, level int) (*models.User, error) {
	var target models.User
	if err := db.Where("id = ?", targetID).First(&target).Error; err != nil {
		return nil, err
	}
	if !actor.CanManage(&target) {
		return nil, ErrAccessDenied
	}
	if target.ID == actor.ID {
		return nil, validationError("Cannot change your own access level")
	}

	if level < 0 {
		level = 0
	}
	target.AccessLevel = level
	if err := db.Save(&target).Error; err != nil {
		return nil, err
	}
	return &target, nil
}
