package models

import "time"

// TransactionType represents the type of transaction
type TransactionType string

const (
	TransactionTypeIncome   TransactionType = "income"
	TransactionTypeExpense  TransactionType = "expense"
	TransactionTypeTransfer TransactionType = "transfer"
)

// Transaction is a single movement against one pocket. Amount is always the
// positive magnitude in minor units; the sign applied to the pocket balance is
// derived from Type. Transfers carry the destination pocket in ToPocketID and
// conserve the total across both pockets.
//
// Context ownership mirrors Pocket: exactly one of UserID and GroupID is set.
// CreatedByID always records the authoring user, also for group transactions.
type Transaction struct {
	Base
	UserID      *string         `gorm:"type:uuid;index" json:"user_id,omitempty"`
	GroupID     *string         `gorm:"type:uuid;index" json:"group_id,omitempty"`
	PocketID    string          `gorm:"type:uuid;not null;index" json:"pocket_id"`
	CategoryID  *string         `gorm:"type:uuid" json:"category_id,omitempty"`
	Type        TransactionType `gorm:"not null" json:"type"`
	Amount      int64           `gorm:"type:bigint;not null" json:"amount"`
	Date        time.Time       `gorm:"not null" json:"date"`
	Description string          `json:"description"`
	CreatedByID string          `gorm:"type:uuid;not null" json:"created_by_id"`

	// For transfers
	ToPocketID *string `gorm:"type:uuid" json:"to_pocket_id,omitempty"`

	Pocket    Pocket    `gorm:"foreignKey:PocketID" json:"pocket"`
	ToPocket  *Pocket   `gorm:"foreignKey:ToPocketID" json:"to_pocket,omitempty"`
	Category  *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	CreatedBy User      `gorm:"foreignKey:CreatedByID" json:"created_by"`
}

// SignedDelta returns the balance delta this transaction applies to its
// pocket: +Amount for income, -Amount for expense and transfer debits.
func (t *Transaction) SignedDelta() int64 {
	if t.Type == TransactionTypeIncome {
		return t.Amount
	}
	return -t.Amount
}
