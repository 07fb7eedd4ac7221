package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID                         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt                  time.Time      `json:"created_at"`
	UpdatedAt                  time.Time      `json:"updated_at"`
	DeletedAt                  gorm.DeletedAt `gorm:"index" json:"-"`
	Name                       string         `gorm:"not null;size:50" json:"name"`
	Email                      string         `gorm:"uniqueIndex;not null;size:255" json:"email"`
	PasswordHash               string         `gorm:"not null" json:"-"`
	Timezone                   string         `gorm:"size:64" json:"timezone"`
	DefaultWorkDurationMinutes int            `gorm:"not null;default:480" json:"default_work_duration_minutes"`
	RefreshToken               string         `gorm:"size:512" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
