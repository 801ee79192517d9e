package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"monedero/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		IsActive: true,
		Currency: "COP",
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestPocket creates a personal pocket with the given balance.
func CreateTestPocket(t *testing.T, db *gorm.DB, userID string, balance int64) *models.Pocket {
	t.Helper()

	pocket := &models.Pocket{
		UserID:  &userID,
		Name:    fmt.Sprintf("Test Pocket %d", nextID()),
		Balance: balance,
		Color:   "#3b82f6",
		Icon:    "wallet",
	}
	if err := db.Create(pocket).Error; err != nil {
		t.Fatalf("failed to create test pocket: %v", err)
	}
	return pocket
}

// CreateTestGroupPocket creates a group pocket with the given name and balance.
func CreateTestGroupPocket(t *testing.T, db *gorm.DB, groupID, name string, balance int64) *models.Pocket {
	t.Helper()

	pocket := &models.Pocket{
		GroupID: &groupID,
		Name:    name,
		Balance: balance,
		Color:   "#3b82f6",
		Icon:    "wallet",
	}
	if err := db.Create(pocket).Error; err != nil {
		t.Fatalf("failed to create test group pocket: %v", err)
	}
	return pocket
}

// CreateTestGroup creates a group with its creator as admin and a General
// pocket holding the given balance.
func CreateTestGroup(t *testing.T, db *gorm.DB, creatorID string, generalBalance int64) *models.Group {
	t.Helper()

	group := &models.Group{
		Name:      fmt.Sprintf("Test Group %d", nextID()),
		CreatorID: &creatorID,
	}
	if err := db.Create(group).Error; err != nil {
		t.Fatalf("failed to create test group: %v", err)
	}

	member := &models.Membership{
		UserID:  creatorID,
		GroupID: group.ID,
		Role:    models.RoleAdmin,
	}
	if err := db.Create(member).Error; err != nil {
		t.Fatalf("failed to create test membership: %v", err)
	}

	CreateTestGroupPocket(t, db, group.ID, models.GeneralPocketName, generalBalance)
	return group
}

// AddTestMember adds a user to a group under the given role.
func AddTestMember(t *testing.T, db *gorm.DB, userID, groupID string, role models.MemberRole) *models.Membership {
	t.Helper()

	member := &models.Membership{
		UserID:  userID,
		GroupID: groupID,
		Role:    role,
	}
	if err := db.Create(member).Error; err != nil {
		t.Fatalf("failed to add test member: %v", err)
	}
	return member
}

// CreateTestCategory creates a personal category of the given type.
func CreateTestCategory(t *testing.T, db *gorm.DB, userID string, categoryType models.CategoryType) *models.Category {
	t.Helper()

	category := &models.Category{
		UserID: &userID,
		Name:   fmt.Sprintf("Test Category %d", nextID()),
		Type:   categoryType,
		Color:  "#ef4444",
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestTransaction inserts a transaction row without touching balances.
// Use a transaction service when the balance effect matters.
func CreateTestTransaction(t *testing.T, db *gorm.DB, userID, pocketID string, transactionType models.TransactionType, amount int64) *models.Transaction {
	t.Helper()

	transaction := &models.Transaction{
		UserID:      &userID,
		PocketID:    pocketID,
		Type:        transactionType,
		Amount:      amount,
		Date:        time.Now(),
		CreatedByID: userID,
	}
	if err := db.Create(transaction).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return transaction
}
