// Package authority abstracts over where financial records live: the hosted
// API, or a local database when running in demo/offline mode. Both backends
// expose the same operations on canonical records, so the rest of the
// consumer core cannot tell them apart.
package authority

import (
	"context"
	"time"

	"monedero/internal/client"
)

// Authority performs all financial-record operations within a context. An
// empty groupID targets the personal context; otherwise the named group.
type Authority interface {
	Pockets(ctx context.Context, groupID string) ([]client.Pocket, error)
	CreatePocket(ctx context.Context, groupID, name, color, icon string, openingBalance int64) (*client.Pocket, error)
	UpdatePocket(ctx context.Context, groupID, pocketID string, name, color, icon *string, balance *int64) (*client.Pocket, error)
	DeletePocket(ctx context.Context, groupID, pocketID string) error

	Categories(ctx context.Context, groupID, categoryType string) ([]client.Category, error)
	CreateCategory(ctx context.Context, groupID, name, categoryType, color string) (*client.Category, error)
	DeleteCategory(ctx context.Context, groupID, categoryID string) error

	Transactions(ctx context.Context, groupID string) ([]client.Transaction, error)
	CreateTransaction(ctx context.Context, groupID, pocketID, categoryID, transactionType string, amount int64, date time.Time, description string) (*client.Transaction, error)
	UpdateTransaction(ctx context.Context, groupID, transactionID string, pocketID, categoryID, transactionType *string, amount *int64, date *time.Time, description *string) (*client.Transaction, error)
	DeleteTransaction(ctx context.Context, groupID, transactionID string) error
	Transfer(ctx context.Context, groupID, fromPocketID, toPocketID string, amount int64, description string) (*client.Transaction, error)

	Contribute(ctx context.Context, groupID, userPocketID, groupPocketID string, amount int64, description string) (*client.Contribution, error)
	Contributions(ctx context.Context) ([]client.Contribution, error)

	ListGroups(ctx context.Context) ([]client.Group, error)
	CreateGroup(ctx context.Context, name, description string) (*client.Group, error)
	Members(ctx context.Context, groupID string) ([]client.Member, error)
	AddMember(ctx context.Context, groupID, email, role string) (*client.Member, error)
	ChangeMemberRole(ctx context.Context, groupID, userID, role string) (*client.Member, error)

	Close() error
}
