// Package services contains the business logic of the Monedero API. Every
// balance mutation runs inside a database transaction so pocket balances and
// the transaction ledger can never disagree.
package services

import (
	"time"

	"gorm.io/gorm"

	"monedero/internal/models"
	"monedero/internal/pagination"
)

// UserServicer handles user accounts and credentials.
type UserServicer interface {
	CreateUser(email, password, name string) (*models.User, error)
	AttemptLogin(email, password string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	UpdateCurrency(userID, currency string) (*models.User, error)
	StoreRefreshTokenHash(userID, hash string) error
	ValidateRefreshTokenHash(userID, hash string) (*models.User, error)
	ClearRefreshToken(userID string) error
}

// PocketUpdate carries the optional fields of a pocket update. Nil fields are
// left untouched.
type PocketUpdate struct {
	Name    *string
	Color   *string
	Icon    *string
	Balance *int64
}

// PocketServicer manages pockets within a personal or group context.
type PocketServicer interface {
	CreatePocket(scope models.Scope, name, color, icon string, openingBalance int64) (*models.Pocket, error)
	GetPockets(scope models.Scope) ([]models.Pocket, error)
	GetPocketByID(scope models.Scope, pocketID string) (*models.Pocket, error)
	UpdatePocket(scope models.Scope, pocketID string, update PocketUpdate) (*models.Pocket, error)
	DeletePocket(scope models.Scope, pocketID string) error

	// ApplyDelta adjusts a pocket balance inside an already-open database
	// transaction. Callers own atomicity; this only persists the new balance.
	ApplyDelta(tx *gorm.DB, pocket *models.Pocket, delta int64) error
}

// CategoryServicer manages transaction categories within a context.
type CategoryServicer interface {
	CreateCategory(scope models.Scope, name string, categoryType models.CategoryType, color string) (*models.Category, error)
	GetCategories(scope models.Scope, categoryType *models.CategoryType) ([]models.Category, error)
	GetCategoryByID(scope models.Scope, categoryID string) (*models.Category, error)
	UpdateCategory(scope models.Scope, categoryID string, name, color *string) (*models.Category, error)
	DeleteCategory(scope models.Scope, categoryID string) error
}

// TransactionFilter narrows transaction listings.
type TransactionFilter struct {
	Type       *models.TransactionType
	PocketID   *string
	CategoryID *string
	FromDate   *time.Time
	ToDate     *time.Time
}

// TransactionUpdate carries the optional fields of a transaction update. Nil
// fields are left untouched; an empty-string CategoryID clears the category.
type TransactionUpdate struct {
	Type        *models.TransactionType
	Amount      *int64
	PocketID    *string
	CategoryID  *string
	Date        *time.Time
	Description *string
}

// TransferResult reports the transfer row and both pockets after the move.
type TransferResult struct {
	Transaction *models.Transaction
	From        *models.Pocket
	To          *models.Pocket
}

// TransactionServicer manages the movement ledger: incomes, expenses and
// same-context transfers.
type TransactionServicer interface {
	CreateTransaction(scope models.Scope, pocketID string, categoryID *string, transactionType models.TransactionType, amount int64, date time.Time, description string) (*models.Transaction, error)
	GetTransactions(scope models.Scope, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(scope models.Scope, transactionID string) (*models.Transaction, error)
	UpdateTransaction(scope models.Scope, transactionID string, update TransactionUpdate) (*models.Transaction, error)
	DeleteTransaction(scope models.Scope, transactionID string) error
	CreateTransfer(scope models.Scope, fromPocketID, toPocketID string, amount int64, description string) (*TransferResult, error)
}

// ContributionServicer moves money from a personal pocket into a group pocket.
type ContributionServicer interface {
	Contribute(userID, groupID, userPocketID, groupPocketID string, amount int64, date time.Time, description string) (*models.Contribution, error)
	GetContributions(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Contribution], error)
}

// GroupMember is a membership row joined with its user for listings.
type GroupMember struct {
	UserID    string            `json:"user_id"`
	Email     string            `json:"email"`
	Name      string            `json:"name"`
	Role      models.MemberRole `json:"role"`
	IsCreator bool              `json:"is_creator"`
}

// GroupServicer manages groups and their memberships.
type GroupServicer interface {
	CreateGroup(userID, name, description string) (*models.Group, error)
	GetUserGroups(userID string) ([]models.Group, error)
	GetGroupByID(userID, groupID string) (*models.Group, error)
	AddMemberByEmail(actorID, groupID, email string, role models.MemberRole) (*models.Membership, error)
	GetMembers(actorID, groupID string) ([]GroupMember, error)
	ChangeMemberRole(actorID, groupID, memberUserID string, role models.MemberRole) (*models.Membership, error)
}
