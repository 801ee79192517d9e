package models

// Scope identifies the context a read or mutation runs in: the acting user,
// and optionally the group whose entities are being accessed. A nil GroupID
// means the personal context.
//
// Every pocket, category and transaction belongs to exactly one context;
// switching context changes which entities are visible and mutable.
type Scope struct {
	UserID  string
	GroupID *string
}

// PersonalScope returns a scope for the user's personal context.
func PersonalScope(userID string) Scope {
	return Scope{UserID: userID}
}

// GroupScope returns a scope for one of the user's groups.
func GroupScope(userID, groupID string) Scope {
	return Scope{UserID: userID, GroupID: &groupID}
}

// IsPersonal reports whether the scope targets the personal context.
func (s Scope) IsPersonal() bool { return s.GroupID == nil }
