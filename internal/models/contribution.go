package models

import "time"

// Contribution records a cross-context movement: a user's personal pocket is
// debited and a group pocket credited by the same amount. The two legs are
// persisted as a personal expense and a group income transaction, created
// atomically together with this record.
type Contribution struct {
	Base
	UserID         string    `gorm:"type:uuid;not null;index" json:"user_id"`
	GroupID        string    `gorm:"type:uuid;not null;index" json:"group_id"`
	UserPocketID   string    `gorm:"type:uuid;not null" json:"user_pocket_id"`
	GroupPocketID  string    `gorm:"type:uuid;not null" json:"group_pocket_id"`
	ExpenseID      string    `gorm:"type:uuid;not null" json:"expense_id"`
	IncomeID       string    `gorm:"type:uuid;not null" json:"income_id"`
	Amount         int64     `gorm:"type:bigint;not null" json:"amount"`
	Date           time.Time `gorm:"not null" json:"date"`
	Description    string    `json:"description"`

	User        User   `gorm:"foreignKey:UserID" json:"user"`
	Group       Group  `gorm:"foreignKey:GroupID" json:"group"`
	UserPocket  Pocket `gorm:"foreignKey:UserPocketID" json:"user_pocket"`
	GroupPocket Pocket `gorm:"foreignKey:GroupPocketID" json:"group_pocket"`
}
