package models

import (
	"time"

	"github.com/gofrs/uuid"
)

const ProjectNameMaxLen = 100

// DefaultProjectColor is the display hint used when a project is created
// without an explicit color.
const DefaultProjectColor = "#3498db"

type Project struct {
	ID          uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	Name        string    `json:"name" gorm:"size:100;not null"`
	Description string    `json:"description"`
	Color       string    `json:"color" gorm:"size:7;not null;default:'#3498db'"`
	OwnerID     uuid.UUID `json:"owner_id" gorm:"type:uuid;not null;index"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
