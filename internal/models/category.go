package models

// CategoryType represents the type of category
type CategoryType string

const (
	CategoryTypeIncome  CategoryType = "income"
	CategoryTypeExpense CategoryType = "expense"
)

// Category is a named classifier for transactions, scoped to a personal or
// group context like pockets. Purely descriptive; it has no balance effect.
type Category struct {
	Base
	UserID  *string      `gorm:"type:uuid;index" json:"user_id,omitempty"`
	GroupID *string      `gorm:"type:uuid;index" json:"group_id,omitempty"`
	Name    string       `gorm:"not null" json:"name"`
	Type    CategoryType `gorm:"not null" json:"type"`
	Color   string       `gorm:"not null;default:'#ef4444'" json:"color"`

	Transactions []Transaction `gorm:"foreignKey:CategoryID" json:"transactions,omitempty"`
}
