package models

import "time"

// User represents the user model in the database
type User struct {
	Base
	Email            string     `gorm:"uniqueIndex;not null" json:"email"`
	Password         string     `gorm:"not null" json:"-"`
	Name             string     `json:"name"`
	Currency         string     `gorm:"not null;default:'COP'" json:"currency"`
	IsActive         bool       `gorm:"default:true" json:"is_active"`
	RefreshTokenHash string     `gorm:"size:64" json:"-"`
	LastLoginAt      *time.Time `json:"last_login_at,omitempty"`

	Pockets      []Pocket      `gorm:"foreignKey:UserID" json:"pockets,omitempty"`
	Categories   []Category    `gorm:"foreignKey:UserID" json:"categories,omitempty"`
	Transactions []Transaction `gorm:"foreignKey:CreatedByID" json:"transactions,omitempty"`
	Memberships  []Membership  `gorm:"foreignKey:UserID" json:"memberships,omitempty"`
}
