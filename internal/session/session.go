// Package session tracks the active context: the user's personal finances or
// one of their groups. The selection survives restarts via a small state file.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"monedero/internal/client"
)

// Kind distinguishes the two context families.
type Kind string

const (
	KindPersonal Kind = "personal"
	KindGroup    Kind = "group"
)

// Context is the active selection. A personal context has no group fields.
type Context struct {
	Kind      Kind   `json:"kind"`
	GroupID   string `json:"group_id,omitempty"`
	GroupName string `json:"group_name,omitempty"`
}

// Personal returns the personal context.
func Personal() Context { return Context{Kind: KindPersonal} }

// IsPersonal reports whether the context is the personal one.
func (c Context) IsPersonal() bool { return c.Kind != KindGroup }

// Store persists the selected context as a JSON file.
type Store struct {
	path string
}

// NewStore creates a store at the given file path.
func NewStore(path string) *Store { return &Store{path: path} }

// Load reads the stored context. A missing file means personal.
func (s *Store) Load() (Context, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Personal(), nil
		}
		return Personal(), fmt.Errorf("reading session file: %w", err)
	}

	var selected Context
	if err := json.Unmarshal(data, &selected); err != nil {
		// Corrupt state files reset to personal rather than blocking startup
		return Personal(), nil
	}
	if selected.Kind != KindGroup {
		return Personal(), nil
	}
	return selected, nil
}

// Save writes the context, creating parent directories as needed.
func (s *Store) Save(selected Context) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating session directory: %w", err)
	}
	data, err := json.MarshalIndent(selected, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling session: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("writing session file: %w", err)
	}
	return nil
}

// GroupLister supplies the groups available to the user.
type GroupLister interface {
	ListGroups(ctx context.Context) ([]client.Group, error)
}

// Selector holds the active context and the groups it can switch to.
type Selector struct {
	mu      sync.Mutex
	store   *Store
	groups  GroupLister
	current Context
}

// NewSelector creates a selector backed by the given store and group source.
func NewSelector(store *Store, groups GroupLister) *Selector {
	return &Selector{store: store, groups: groups, current: Personal()}
}

// Restore loads the persisted selection and validates it against the user's
// current groups. A selection pointing at a group the user no longer belongs
// to falls back to personal; this runs before any entity fetch.
func (s *Selector) Restore(ctx context.Context) (Context, error) {
	stored, err := s.store.Load()
	if err != nil {
		return Personal(), err
	}
	if stored.IsPersonal() {
		s.set(Personal())
		return s.Current(), nil
	}

	available, err := s.groups.ListGroups(ctx)
	if err != nil {
		return Personal(), err
	}
	for _, group := range available {
		if group.ID == stored.GroupID {
			selected := Context{Kind: KindGroup, GroupID: group.ID, GroupName: group.Name}
			s.set(selected)
			return selected, nil
		}
	}

	s.set(Personal())
	if err := s.store.Save(Personal()); err != nil {
		return Personal(), err
	}
	return Personal(), nil
}

// SelectPersonal switches to the personal context and persists the choice.
func (s *Selector) SelectPersonal() error {
	s.set(Personal())
	return s.store.Save(Personal())
}

// SelectGroup switches to one of the user's groups and persists the choice.
func (s *Selector) SelectGroup(ctx context.Context, groupID string) (Context, error) {
	available, err := s.groups.ListGroups(ctx)
	if err != nil {
		return s.Current(), err
	}
	for _, group := range available {
		if group.ID == groupID {
			selected := Context{Kind: KindGroup, GroupID: group.ID, GroupName: group.Name}
			s.set(selected)
			return selected, s.store.Save(selected)
		}
	}
	return s.Current(), fmt.Errorf("not a member of group %q", groupID)
}

// Current returns the active context.
func (s *Selector) Current() Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// AvailableGroups lists the groups the selector can switch to.
func (s *Selector) AvailableGroups(ctx context.Context) ([]client.Group, error) {
	return s.groups.ListGroups(ctx)
}

func (s *Selector) set(selected Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = selected
}
