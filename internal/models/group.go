package models

// MemberRole is a user's standing within a group.
type MemberRole string

const (
	RoleAdmin  MemberRole = "admin"
	RoleMember MemberRole = "member"
)

// Group is a shared budget context. Its creator is always an admin and keeps
// that role for the group's lifetime.
type Group struct {
	Base
	Name        string  `gorm:"not null;index" json:"name"`
	Description string  `json:"description"`
	CreatorID   *string `gorm:"type:uuid" json:"creator_id,omitempty"`

	Creator *User        `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	Members []Membership `gorm:"foreignKey:GroupID" json:"members,omitempty"`
	Pockets []Pocket     `gorm:"foreignKey:GroupID" json:"pockets,omitempty"`
}

// Membership associates a user with a group under a role.
type Membership struct {
	Base
	UserID  string     `gorm:"type:uuid;not null;uniqueIndex:idx_member_user_group" json:"user_id"`
	GroupID string     `gorm:"type:uuid;not null;uniqueIndex:idx_member_user_group" json:"group_id"`
	Role    MemberRole `gorm:"not null;default:'member'" json:"role"`

	User  User  `gorm:"foreignKey:UserID" json:"user"`
	Group Group `gorm:"foreignKey:GroupID" json:"group"`
}
