package models

// GeneralPocketName is the reserved pocket every group is created with. It
// receives contributions and funds the opening balance of other group pockets.
const GeneralPocketName = "General"

// Pocket is a named, balance-bearing sub-account. Exactly one of UserID and
// GroupID is set: a pocket belongs either to a user's personal context or to
// a group. Balance is stored in currency minor units and is only ever mutated
// through the transaction, transfer and contribution services.
type Pocket struct {
	Base
	UserID  *string `gorm:"type:uuid;index" json:"user_id,omitempty"`
	GroupID *string `gorm:"type:uuid;index" json:"group_id,omitempty"`
	Name    string  `gorm:"not null" json:"name"`
	Balance int64   `gorm:"type:bigint;not null;default:0" json:"balance"`
	Color   string  `gorm:"not null;default:'#3b82f6'" json:"color"`
	Icon    string  `gorm:"not null;default:'wallet'" json:"icon"`

	Transactions []Transaction `gorm:"foreignKey:PocketID" json:"transactions,omitempty"`
}

// IsGeneral reports whether this is a group's reserved General pocket.
func (p *Pocket) IsGeneral() bool {
	return p.GroupID != nil && p.Name == GeneralPocketName
}
