package models

import (
	"time"

	"scripta/internal/domain"

	"gorm.io/gorm"
)

type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	FullName     string         `gorm:"size:128" json:"full_name"`
	Email        string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string         `gorm:"size:255" json:"-"`
	Role         string         `gorm:"size:20;not null;index" json:"role"` // client | writer | admin
	Rating       float64        `gorm:"default:0" json:"rating"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) IsClient() bool { return u.Role == domain.RoleClient }
func (u *User) IsWriter() bool { return u.Role == domain.RoleWriter }
func (u *User) IsAdmin() bool  { return u.Role == domain.RoleAdmin }
