package authority

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"monedero/internal/client"
	"monedero/internal/events"
	"monedero/internal/models"
	"monedero/internal/pagination"
	"monedero/internal/services"
)

const demoEmail = "demo@monedero.local"

// local runs the full service stack against a SQLite file, so demo mode
// enforces exactly the same rules as the hosted deployment. All operations
// run as a single fixed demo user.
type local struct {
	db     *gorm.DB
	userID string

	users         services.UserServicer
	pockets       services.PocketServicer
	categories    services.CategoryServicer
	transactions  services.TransactionServicer
	contributions services.ContributionServicer
	groups        services.GroupServicer
}

// NewLocal opens (or creates) the demo database at path.
func NewLocal(path string) (Authority, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening demo database: %w", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.Membership{},
		&models.Pocket{},
		&models.Category{},
		&models.Transaction{},
		&models.Contribution{},
	)
	if err != nil {
		return nil, fmt.Errorf("migrating demo database: %w", err)
	}

	bus := events.NewMemoryBus()
	users := services.NewUserService(db)
	pockets := services.NewPocketService(db, bus)

	a := &local{
		db:            db,
		users:         users,
		pockets:       pockets,
		categories:    services.NewCategoryService(db, bus),
		transactions:  services.NewTransactionService(db, pockets, bus),
		contributions: services.NewContributionService(db, pockets, bus),
		groups:        services.NewGroupService(db, bus),
	}
	if err := a.ensureDemoUser(); err != nil {
		return nil, err
	}
	return a, nil
}

// ensureDemoUser creates the fixed demo user on first run.
func (l *local) ensureDemoUser() error {
	user, err := l.users.GetUserByEmail(demoEmail)
	if err == nil {
		l.userID = user.ID
		return nil
	}

	user, err = l.users.CreateUser(demoEmail, "demo-mode-only", "Demo")
	if err != nil {
		return fmt.Errorf("creating demo user: %w", err)
	}
	l.userID = user.ID
	return nil
}

// scope builds the service scope for the demo user.
func (l *local) scope(groupID string) models.Scope {
	if groupID == "" {
		return models.PersonalScope(l.userID)
	}
	return models.GroupScope(l.userID, groupID)
}

func toPocket(p *models.Pocket) client.Pocket {
	return client.Pocket{
		ID:        p.ID,
		Name:      p.Name,
		Balance:   p.Balance,
		Color:     p.Color,
		Icon:      p.Icon,
		IsGeneral: p.IsGeneral(),
	}
}

func toCategory(c *models.Category) client.Category {
	return client.Category{
		ID:    c.ID,
		Name:  c.Name,
		Type:  string(c.Type),
		Color: c.Color,
	}
}

func toTransaction(t *models.Transaction) client.Transaction {
	record := client.Transaction{
		ID:          t.ID,
		PocketID:    t.PocketID,
		Type:        string(t.Type),
		Amount:      t.Amount,
		Date:        t.Date,
		CreatedAt:   t.CreatedAt,
		Description: t.Description,
	}
	if t.CategoryID != nil {
		record.CategoryID = *t.CategoryID
	}
	if t.ToPocketID != nil {
		record.ToPocketID = *t.ToPocketID
	}
	return record
}

func toContribution(c *models.Contribution) client.Contribution {
	return client.Contribution{
		ID:            c.ID,
		GroupID:       c.GroupID,
		UserPocketID:  c.UserPocketID,
		GroupPocketID: c.GroupPocketID,
		Amount:        c.Amount,
		Date:          c.Date,
		Description:   c.Description,
	}
}

func (l *local) Pockets(_ context.Context, groupID string) ([]client.Pocket, error) {
	pockets, err := l.pockets.GetPockets(l.scope(groupID))
	if err != nil {
		return nil, err
	}
	records := make([]client.Pocket, 0, len(pockets))
	for i := range pockets {
		records = append(records, toPocket(&pockets[i]))
	}
	return records, nil
}

func (l *local) CreatePocket(_ context.Context, groupID, name, color, icon string, openingBalance int64) (*client.Pocket, error) {
	pocket, err := l.pockets.CreatePocket(l.scope(groupID), name, color, icon, openingBalance)
	if err != nil {
		return nil, err
	}
	record := toPocket(pocket)
	return &record, nil
}

func (l *local) UpdatePocket(_ context.Context, groupID, pocketID string, name, color, icon *string, balance *int64) (*client.Pocket, error) {
	pocket, err := l.pockets.UpdatePocket(l.scope(groupID), pocketID, services.PocketUpdate{
		Name:    name,
		Color:   color,
		Icon:    icon,
		Balance: balance,
	})
	if err != nil {
		return nil, err
	}
	record := toPocket(pocket)
	return &record, nil
}

func (l *local) DeletePocket(_ context.Context, groupID, pocketID string) error {
	return l.pockets.DeletePocket(l.scope(groupID), pocketID)
}

func (l *local) Categories(_ context.Context, groupID, categoryType string) ([]client.Category, error) {
	var filter *models.CategoryType
	if categoryType != "" {
		ct := models.CategoryType(categoryType)
		filter = &ct
	}
	categories, err := l.categories.GetCategories(l.scope(groupID), filter)
	if err != nil {
		return nil, err
	}
	records := make([]client.Category, 0, len(categories))
	for i := range categories {
		records = append(records, toCategory(&categories[i]))
	}
	return records, nil
}

func (l *local) CreateCategory(_ context.Context, groupID, name, categoryType, color string) (*client.Category, error) {
	category, err := l.categories.CreateCategory(l.scope(groupID), name, models.CategoryType(categoryType), color)
	if err != nil {
		return nil, err
	}
	record := toCategory(category)
	return &record, nil
}

func (l *local) DeleteCategory(_ context.Context, groupID, categoryID string) error {
	return l.categories.DeleteCategory(l.scope(groupID), categoryID)
}

func (l *local) Transactions(_ context.Context, groupID string) ([]client.Transaction, error) {
	page := pagination.PageRequest{Page: 1, PageSize: 100}
	response, err := l.transactions.GetTransactions(l.scope(groupID), page, services.TransactionFilter{})
	if err != nil {
		return nil, err
	}
	records := make([]client.Transaction, 0, len(response.Data))
	for i := range response.Data {
		records = append(records, toTransaction(&response.Data[i]))
	}
	return records, nil
}

func (l *local) CreateTransaction(_ context.Context, groupID, pocketID, categoryID, transactionType string, amount int64, date time.Time, description string) (*client.Transaction, error) {
	var category *string
	if categoryID != "" {
		category = &categoryID
	}
	transaction, err := l.transactions.CreateTransaction(
		l.scope(groupID), pocketID, category, models.TransactionType(transactionType), amount, date, description)
	if err != nil {
		return nil, err
	}
	record := toTransaction(transaction)
	return &record, nil
}

func (l *local) UpdateTransaction(_ context.Context, groupID, transactionID string, pocketID, categoryID, transactionType *string, amount *int64, date *time.Time, description *string) (*client.Transaction, error) {
	update := services.TransactionUpdate{
		Amount:      amount,
		PocketID:    pocketID,
		CategoryID:  categoryID,
		Date:        date,
		Description: description,
	}
	if transactionType != nil {
		t := models.TransactionType(*transactionType)
		update.Type = &t
	}
	transaction, err := l.transactions.UpdateTransaction(l.scope(groupID), transactionID, update)
	if err != nil {
		return nil, err
	}
	record := toTransaction(transaction)
	return &record, nil
}

func (l *local) DeleteTransaction(_ context.Context, groupID, transactionID string) error {
	return l.transactions.DeleteTransaction(l.scope(groupID), transactionID)
}

func (l *local) Transfer(_ context.Context, groupID, fromPocketID, toPocketID string, amount int64, description string) (*client.Transaction, error) {
	result, err := l.transactions.CreateTransfer(l.scope(groupID), fromPocketID, toPocketID, amount, description)
	if err != nil {
		return nil, err
	}
	record := toTransaction(result.Transaction)
	return &record, nil
}

func (l *local) Contribute(_ context.Context, groupID, userPocketID, groupPocketID string, amount int64, description string) (*client.Contribution, error) {
	contribution, err := l.contributions.Contribute(l.userID, groupID, userPocketID, groupPocketID, amount, time.Time{}, description)
	if err != nil {
		return nil, err
	}
	record := toContribution(contribution)
	return &record, nil
}

func (l *local) Contributions(_ context.Context) ([]client.Contribution, error) {
	page := pagination.PageRequest{Page: 1, PageSize: 100}
	response, err := l.contributions.GetContributions(l.userID, page)
	if err != nil {
		return nil, err
	}
	records := make([]client.Contribution, 0, len(response.Data))
	for i := range response.Data {
		records = append(records, toContribution(&response.Data[i]))
	}
	return records, nil
}

func (l *local) ListGroups(_ context.Context) ([]client.Group, error) {
	groups, err := l.groups.GetUserGroups(l.userID)
	if err != nil {
		return nil, err
	}
	records := make([]client.Group, 0, len(groups))
	for _, group := range groups {
		records = append(records, client.Group{ID: group.ID, Name: group.Name, Description: group.Description})
	}
	return records, nil
}

func (l *local) CreateGroup(_ context.Context, name, description string) (*client.Group, error) {
	group, err := l.groups.CreateGroup(l.userID, name, description)
	if err != nil {
		return nil, err
	}
	return &client.Group{ID: group.ID, Name: group.Name, Description: group.Description}, nil
}

func (l *local) Members(_ context.Context, groupID string) ([]client.Member, error) {
	members, err := l.groups.GetMembers(l.userID, groupID)
	if err != nil {
		return nil, err
	}
	records := make([]client.Member, 0, len(members))
	for _, member := range members {
		records = append(records, client.Member{
			UserID:    member.UserID,
			Email:     member.Email,
			Name:      member.Name,
			Role:      string(member.Role),
			IsCreator: member.IsCreator,
		})
	}
	return records, nil
}

func (l *local) AddMember(_ context.Context, groupID, email, role string) (*client.Member, error) {
	member, err := l.groups.AddMemberByEmail(l.userID, groupID, email, models.MemberRole(role))
	if err != nil {
		return nil, err
	}
	return &client.Member{
		UserID: member.UserID,
		Email:  member.User.Email,
		Name:   member.User.Name,
		Role:   string(member.Role),
	}, nil
}

func (l *local) ChangeMemberRole(_ context.Context, groupID, userID, role string) (*client.Member, error) {
	member, err := l.groups.ChangeMemberRole(l.userID, groupID, userID, models.MemberRole(role))
	if err != nil {
		return nil, err
	}
	return &client.Member{UserID: member.UserID, Role: string(member.Role)}, nil
}

func (l *local) Close() error {
	sqlDB, err := l.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
