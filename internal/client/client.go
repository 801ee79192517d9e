// Package client talks to the hosted Monedero API. Raw payloads are
// normalized into canonical records before they leave this package.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	apperrors "monedero/internal/errors"
)

// Client communicates with the Monedero API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New creates a new API client. A nil httpClient gets a 15 second timeout.
func New(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: httpClient,
	}
}

// SetToken replaces the bearer token used for subsequent requests.
func (c *Client) SetToken(token string) { c.token = token }

// apiError mirrors the API's error envelope.
type apiError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// do performs a request and decodes the response into out. API errors come
// back as AppErrors carrying the server's code and message verbatim; network
// failures surface as ErrServiceUnavailable.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrServiceUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		var envelope apiError
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil && envelope.Error.Code != "" {
			return &apperrors.AppError{
				Code:       envelope.Error.Code,
				Message:    envelope.Error.Message,
				StatusCode: resp.StatusCode,
			}
		}
		return &apperrors.AppError{
			Code:       apperrors.ErrInternalServer.Code,
			Message:    fmt.Sprintf("unexpected status %d", resp.StatusCode),
			StatusCode: resp.StatusCode,
		}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// contextQuery builds the group_id query for a context; empty means personal.
func contextQuery(groupID string) url.Values {
	query := url.Values{}
	if groupID != "" {
		query.Set("group_id", groupID)
	}
	return query
}

// Session is the token pair returned by the auth endpoints.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Login authenticates and stores the access token on the client.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	var session Session
	err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", nil,
		map[string]string{"email": email, "password": password}, &session)
	if err != nil {
		return nil, err
	}
	c.token = session.AccessToken
	return &session, nil
}

// User is the authenticated account as the API reports it.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

// Profile fetches the account behind the current token.
func (c *Client) Profile(ctx context.Context) (*User, error) {
	var result struct {
		User User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/profile", nil, nil, &result); err != nil {
		return nil, err
	}
	return &result.User, nil
}

// ListPockets fetches the pockets of a context.
func (c *Client) ListPockets(ctx context.Context, groupID string) ([]Pocket, error) {
	var result struct {
		Pockets []map[string]any `json:"pockets"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/pockets", contextQuery(groupID), nil, &result); err != nil {
		return nil, err
	}

	pockets := make([]Pocket, 0, len(result.Pockets))
	for _, raw := range result.Pockets {
		pocket, err := NormalizePocket(raw)
		if err != nil {
			return nil, err
		}
		pockets = append(pockets, pocket)
	}
	return pockets, nil
}

// CreatePocket creates a pocket in a context.
func (c *Client) CreatePocket(ctx context.Context, groupID, name, color, icon string, openingBalance int64) (*Pocket, error) {
	var result struct {
		Pocket map[string]any `json:"pocket"`
	}
	body := map[string]any{
		"name":            name,
		"color":           color,
		"icon":            icon,
		"opening_balance": openingBalance,
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/pockets", contextQuery(groupID), body, &result); err != nil {
		return nil, err
	}
	pocket, err := NormalizePocket(result.Pocket)
	if err != nil {
		return nil, err
	}
	return &pocket, nil
}

// UpdatePocket updates pocket fields; nil fields are left untouched.
func (c *Client) UpdatePocket(ctx context.Context, groupID, pocketID string, name, color, icon *string, balance *int64) (*Pocket, error) {
	body := map[string]any{}
	if name != nil {
		body["name"] = *name
	}
	if color != nil {
		body["color"] = *color
	}
	if icon != nil {
		body["icon"] = *icon
	}
	if balance != nil {
		body["balance"] = *balance
	}

	var result struct {
		Pocket map[string]any `json:"pocket"`
	}
	if err := c.do(ctx, http.MethodPut, "/api/v1/pockets/"+pocketID, contextQuery(groupID), body, &result); err != nil {
		return nil, err
	}
	pocket, err := NormalizePocket(result.Pocket)
	if err != nil {
		return nil, err
	}
	return &pocket, nil
}

// DeletePocket deletes a pocket.
func (c *Client) DeletePocket(ctx context.Context, groupID, pocketID string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/pockets/"+pocketID, contextQuery(groupID), nil, nil)
}

// ListCategories fetches the categories of a context, optionally one type.
func (c *Client) ListCategories(ctx context.Context, groupID, categoryType string) ([]Category, error) {
	query := contextQuery(groupID)
	if categoryType != "" {
		query.Set("type", categoryType)
	}

	var result struct {
		Categories []map[string]any `json:"categories"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/categories", query, nil, &result); err != nil {
		return nil, err
	}

	categories := make([]Category, 0, len(result.Categories))
	for _, raw := range result.Categories {
		category, err := NormalizeCategory(raw)
		if err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	return categories, nil
}

// CreateCategory creates a category in a context.
func (c *Client) CreateCategory(ctx context.Context, groupID, name, categoryType, color string) (*Category, error) {
	var result struct {
		Category map[string]any `json:"category"`
	}
	body := map[string]any{"name": name, "type": categoryType, "color": color}
	if err := c.do(ctx, http.MethodPost, "/api/v1/categories", contextQuery(groupID), body, &result); err != nil {
		return nil, err
	}
	category, err := NormalizeCategory(result.Category)
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// DeleteCategory deletes a category.
func (c *Client) DeleteCategory(ctx context.Context, groupID, categoryID string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/categories/"+categoryID, contextQuery(groupID), nil, nil)
}

// listTransactionsByType fetches one page of one transaction type.
func (c *Client) listTransactionsByType(ctx context.Context, groupID, transactionType string) ([]Transaction, error) {
	query := contextQuery(groupID)
	query.Set("type", transactionType)
	query.Set("page_size", "100")

	var result struct {
		Data []map[string]any `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/transactions", query, nil, &result); err != nil {
		return nil, err
	}

	transactions := make([]Transaction, 0, len(result.Data))
	for _, raw := range result.Data {
		transaction, err := NormalizeTransaction(raw)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, transaction)
	}
	return transactions, nil
}

// ListTransactions fetches incomes and expenses of a context in parallel and
// merges them newest first.
func (c *Client) ListTransactions(ctx context.Context, groupID string) ([]Transaction, error) {
	var incomes, expenses []Transaction

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		incomes, err = c.listTransactionsByType(gctx, groupID, "income")
		return err
	})
	g.Go(func() error {
		var err error
		expenses, err = c.listTransactionsByType(gctx, groupID, "expense")
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make([]Transaction, 0, len(incomes)+len(expenses))
	merged = append(merged, incomes...)
	merged = append(merged, expenses...)
	sort.SliceStable(merged, func(i, j int) bool {
		if !merged[i].Date.Equal(merged[j].Date) {
			return merged[i].Date.After(merged[j].Date)
		}
		return merged[i].CreatedAt.After(merged[j].CreatedAt)
	})
	return merged, nil
}

// CreateTransaction records an income or expense.
func (c *Client) CreateTransaction(ctx context.Context, groupID, pocketID, categoryID, transactionType string, amount int64, date time.Time, description string) (*Transaction, error) {
	body := map[string]any{
		"pocket_id":   pocketID,
		"type":        transactionType,
		"amount":      amount,
		"description": description,
	}
	if categoryID != "" {
		body["category_id"] = categoryID
	}
	if !date.IsZero() {
		body["date"] = date.Format(time.RFC3339)
	}

	var result struct {
		Transaction map[string]any `json:"transaction"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/transactions", contextQuery(groupID), body, &result); err != nil {
		return nil, err
	}
	transaction, err := NormalizeTransaction(result.Transaction)
	if err != nil {
		return nil, err
	}
	return &transaction, nil
}

// UpdateTransaction edits an income or expense; nil fields stay untouched.
func (c *Client) UpdateTransaction(ctx context.Context, groupID, transactionID string, pocketID, categoryID, transactionType *string, amount *int64, date *time.Time, description *string) (*Transaction, error) {
	body := map[string]any{}
	if pocketID != nil {
		body["pocket_id"] = *pocketID
	}
	if categoryID != nil {
		body["category_id"] = *categoryID
	}
	if transactionType != nil {
		body["type"] = *transactionType
	}
	if amount != nil {
		body["amount"] = *amount
	}
	if date != nil {
		body["date"] = date.Format(time.RFC3339)
	}
	if description != nil {
		body["description"] = *description
	}

	var result struct {
		Transaction map[string]any `json:"transaction"`
	}
	if err := c.do(ctx, http.MethodPut, "/api/v1/transactions/"+transactionID, contextQuery(groupID), body, &result); err != nil {
		return nil, err
	}
	transaction, err := NormalizeTransaction(result.Transaction)
	if err != nil {
		return nil, err
	}
	return &transaction, nil
}

// DeleteTransaction deletes a transaction, reversing its balance effect.
func (c *Client) DeleteTransaction(ctx context.Context, groupID, transactionID string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/transactions/"+transactionID, contextQuery(groupID), nil, nil)
}

// Transfer moves an amount between two pockets of the same context.
func (c *Client) Transfer(ctx context.Context, groupID, fromPocketID, toPocketID string, amount int64, description string) (*Transaction, error) {
	body := map[string]any{
		"from_pocket_id": fromPocketID,
		"to_pocket_id":   toPocketID,
		"amount":         amount,
		"description":    description,
	}

	var result struct {
		Transaction map[string]any `json:"transaction"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/transfers", contextQuery(groupID), body, &result); err != nil {
		return nil, err
	}
	transaction, err := NormalizeTransaction(result.Transaction)
	if err != nil {
		return nil, err
	}
	return &transaction, nil
}

// Contribute moves an amount from a personal pocket into a group pocket.
func (c *Client) Contribute(ctx context.Context, groupID, userPocketID, groupPocketID string, amount int64, description string) (*Contribution, error) {
	body := map[string]any{
		"group_id":        groupID,
		"user_pocket_id":  userPocketID,
		"group_pocket_id": groupPocketID,
		"amount":          amount,
		"description":     description,
	}

	var result struct {
		Contribution map[string]any `json:"contribution"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/contributions", nil, body, &result); err != nil {
		return nil, err
	}
	contribution, err := NormalizeContribution(result.Contribution)
	if err != nil {
		return nil, err
	}
	return &contribution, nil
}

// ListGroups fetches the groups the user belongs to.
func (c *Client) ListGroups(ctx context.Context) ([]Group, error) {
	var result struct {
		Groups []map[string]any `json:"groups"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/groups", nil, nil, &result); err != nil {
		return nil, err
	}

	groups := make([]Group, 0, len(result.Groups))
	for _, raw := range result.Groups {
		group, err := NormalizeGroup(raw)
		if err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, nil
}

// CreateGroup creates a group.
func (c *Client) CreateGroup(ctx context.Context, name, description string) (*Group, error) {
	var result struct {
		Group map[string]any `json:"group"`
	}
	body := map[string]string{"name": name, "description": description}
	if err := c.do(ctx, http.MethodPost, "/api/v1/groups", nil, body, &result); err != nil {
		return nil, err
	}
	group, err := NormalizeGroup(result.Group)
	if err != nil {
		return nil, err
	}
	return &group, nil
}

// ListMembers fetches the members of a group.
func (c *Client) ListMembers(ctx context.Context, groupID string) ([]Member, error) {
	var result struct {
		Members []map[string]any `json:"members"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/groups/"+groupID+"/members", nil, nil, &result); err != nil {
		return nil, err
	}

	members := make([]Member, 0, len(result.Members))
	for _, raw := range result.Members {
		member, err := NormalizeMember(raw)
		if err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	return members, nil
}

// AddMember adds a user to a group by email.
func (c *Client) AddMember(ctx context.Context, groupID, email, role string) (*Member, error) {
	var result struct {
		Member map[string]any `json:"member"`
	}
	body := map[string]string{"email": email, "role": role}
	if err := c.do(ctx, http.MethodPost, "/api/v1/groups/"+groupID+"/members", nil, body, &result); err != nil {
		return nil, err
	}
	member, err := NormalizeMember(result.Member)
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// ChangeMemberRole changes a group member's role.
func (c *Client) ChangeMemberRole(ctx context.Context, groupID, userID, role string) (*Member, error) {
	var result struct {
		Member map[string]any `json:"member"`
	}
	body := map[string]string{"role": role}
	if err := c.do(ctx, http.MethodPut, "/api/v1/groups/"+groupID+"/members/"+userID+"/role", nil, body, &result); err != nil {
		return nil, err
	}
	member, err := NormalizeMember(result.Member)
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// ListContributions fetches the user's visible contributions.
func (c *Client) ListContributions(ctx context.Context) ([]Contribution, error) {
	var result struct {
		Data []map[string]any `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/contributions", nil, nil, &result); err != nil {
		return nil, err
	}

	contributions := make([]Contribution, 0, len(result.Data))
	for _, raw := range result.Data {
		contribution, err := NormalizeContribution(raw)
		if err != nil {
			return nil, err
		}
		contributions = append(contributions, contribution)
	}
	return contributions, nil
}
