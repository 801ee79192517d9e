package authority

import (
	"context"
	"sync"
	"time"

	"monedero/internal/client"
	apperrors "monedero/internal/errors"
)

// remote delegates every operation to the hosted API. Membership changes are
// pre-checked against the member listing so a non-admin fails before the
// mutating round-trip, with the same error codes the API would return.
type remote struct {
	api *client.Client

	mu     sync.Mutex
	userID string
}

// NewRemote wraps an API client as an Authority.
func NewRemote(api *client.Client) Authority {
	return &remote{api: api}
}

// selfID resolves and caches the authenticated user's id.
func (r *remote) selfID(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.userID != "" {
		return r.userID, nil
	}
	user, err := r.api.Profile(ctx)
	if err != nil {
		return "", err
	}
	r.userID = user.ID
	return r.userID, nil
}

// requireAdmin verifies the caller holds the admin role in the group. The API
// enforces this again server-side.
func (r *remote) requireAdmin(ctx context.Context, groupID string) error {
	userID, err := r.selfID(ctx)
	if err != nil {
		return err
	}
	members, err := r.api.ListMembers(ctx, groupID)
	if err != nil {
		return err
	}
	for _, member := range members {
		if member.UserID == userID {
			if member.Role != "admin" {
				return apperrors.ErrAdminRequired
			}
			return nil
		}
	}
	return apperrors.ErrNotGroupMember
}

func (r *remote) Pockets(ctx context.Context, groupID string) ([]client.Pocket, error) {
	return r.api.ListPockets(ctx, groupID)
}

func (r *remote) CreatePocket(ctx context.Context, groupID, name, color, icon string, openingBalance int64) (*client.Pocket, error) {
	return r.api.CreatePocket(ctx, groupID, name, color, icon, openingBalance)
}

func (r *remote) UpdatePocket(ctx context.Context, groupID, pocketID string, name, color, icon *string, balance *int64) (*client.Pocket, error) {
	return r.api.UpdatePocket(ctx, groupID, pocketID, name, color, icon, balance)
}

func (r *remote) DeletePocket(ctx context.Context, groupID, pocketID string) error {
	return r.api.DeletePocket(ctx, groupID, pocketID)
}

func (r *remote) Categories(ctx context.Context, groupID, categoryType string) ([]client.Category, error) {
	return r.api.ListCategories(ctx, groupID, categoryType)
}

func (r *remote) CreateCategory(ctx context.Context, groupID, name, categoryType, color string) (*client.Category, error) {
	return r.api.CreateCategory(ctx, groupID, name, categoryType, color)
}

func (r *remote) DeleteCategory(ctx context.Context, groupID, categoryID string) error {
	return r.api.DeleteCategory(ctx, groupID, categoryID)
}

func (r *remote) Transactions(ctx context.Context, groupID string) ([]client.Transaction, error) {
	return r.api.ListTransactions(ctx, groupID)
}

func (r *remote) CreateTransaction(ctx context.Context, groupID, pocketID, categoryID, transactionType string, amount int64, date time.Time, description string) (*client.Transaction, error) {
	return r.api.CreateTransaction(ctx, groupID, pocketID, categoryID, transactionType, amount, date, description)
}

func (r *remote) UpdateTransaction(ctx context.Context, groupID, transactionID string, pocketID, categoryID, transactionType *string, amount *int64, date *time.Time, description *string) (*client.Transaction, error) {
	return r.api.UpdateTransaction(ctx, groupID, transactionID, pocketID, categoryID, transactionType, amount, date, description)
}

func (r *remote) DeleteTransaction(ctx context.Context, groupID, transactionID string) error {
	return r.api.DeleteTransaction(ctx, groupID, transactionID)
}

func (r *remote) Transfer(ctx context.Context, groupID, fromPocketID, toPocketID string, amount int64, description string) (*client.Transaction, error) {
	return r.api.Transfer(ctx, groupID, fromPocketID, toPocketID, amount, description)
}

func (r *remote) Contribute(ctx context.Context, groupID, userPocketID, groupPocketID string, amount int64, description string) (*client.Contribution, error) {
	return r.api.Contribute(ctx, groupID, userPocketID, groupPocketID, amount, description)
}

func (r *remote) Contributions(ctx context.Context) ([]client.Contribution, error) {
	return r.api.ListContributions(ctx)
}

func (r *remote) ListGroups(ctx context.Context) ([]client.Group, error) {
	return r.api.ListGroups(ctx)
}

func (r *remote) CreateGroup(ctx context.Context, name, description string) (*client.Group, error) {
	return r.api.CreateGroup(ctx, name, description)
}

func (r *remote) Members(ctx context.Context, groupID string) ([]client.Member, error) {
	return r.api.ListMembers(ctx, groupID)
}

func (r *remote) AddMember(ctx context.Context, groupID, email, role string) (*client.Member, error) {
	if err := r.requireAdmin(ctx, groupID); err != nil {
		return nil, err
	}
	return r.api.AddMember(ctx, groupID, email, role)
}

func (r *remote) ChangeMemberRole(ctx context.Context, groupID, userID, role string) (*client.Member, error) {
	if err := r.requireAdmin(ctx, groupID); err != nil {
		return nil, err
	}
	return r.api.ChangeMemberRole(ctx, groupID, userID, role)
}

func (r *remote) Close() error { return nil }
