package client

import (
	"fmt"
	"time"

	"monedero/internal/money"
)

// The hosted API has grown several field spellings for the same data over
// time (legacy Spanish names, primary-key aliases). Everything entering the
// consumer core passes through these functions exactly once, so the rest of
// the code only ever sees one canonical record per entity.

// Pocket is the canonical pocket record.
type Pocket struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Balance   int64  `json:"balance"`
	Color     string `json:"color"`
	Icon      string `json:"icon"`
	IsGeneral bool   `json:"is_general"`
}

// Category is the canonical category record.
type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Type  string `json:"type"`
	Color string `json:"color"`
}

// Transaction is the canonical transaction record. CreatedAt orders records
// that share a calendar date, since Date carries no time of day for most
// payloads.
type Transaction struct {
	ID          string    `json:"id"`
	PocketID    string    `json:"pocket_id"`
	ToPocketID  string    `json:"to_pocket_id,omitempty"`
	CategoryID  string    `json:"category_id,omitempty"`
	Type        string    `json:"type"`
	Amount      int64     `json:"amount"`
	Date        time.Time `json:"date"`
	CreatedAt   time.Time `json:"created_at"`
	Description string    `json:"description"`
}

// Group is the canonical group record.
type Group struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Member is the canonical group-member record.
type Member struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	IsCreator bool   `json:"is_creator"`
}

// Contribution is the canonical contribution record.
type Contribution struct {
	ID            string    `json:"id"`
	GroupID       string    `json:"group_id"`
	UserPocketID  string    `json:"user_pocket_id"`
	GroupPocketID string    `json:"group_pocket_id"`
	Amount        int64     `json:"amount"`
	Date          time.Time `json:"date"`
	Description   string    `json:"description"`
}

// pickString returns the first non-empty string among the named keys.
func pickString(raw map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := raw[key]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
			// Numeric primary keys show up in legacy payloads
			if f, ok := v.(float64); ok {
				return fmt.Sprintf("%.0f", f)
			}
		}
	}
	return ""
}

// pickAmount returns the first amount among the named keys in minor units.
// JSON numbers are already minor units; the legacy string variants carry
// decimal amounts in whole currency units.
func pickAmount(raw map[string]any, keys ...string) (int64, bool) {
	for _, key := range keys {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		switch amount := v.(type) {
		case float64:
			return int64(amount), true
		case string:
			parsed, err := money.Parse(amount)
			if err != nil {
				continue
			}
			return parsed, true
		}
	}
	return 0, false
}

// pickDate returns the first parseable date among the named keys. Both
// RFC 3339 timestamps and bare YYYY-MM-DD dates occur in the wild.
func pickDate(raw map[string]any, keys ...string) time.Time {
	for _, key := range keys {
		s, ok := raw[key].(string)
		if !ok || s == "" {
			continue
		}
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t
		}
		if t, err := time.Parse("2006-01-02", s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func pickBool(raw map[string]any, keys ...string) bool {
	for _, key := range keys {
		if b, ok := raw[key].(bool); ok {
			return b
		}
	}
	return false
}

// NormalizePocket maps a raw pocket payload to the canonical record.
func NormalizePocket(raw map[string]any) (Pocket, error) {
	pocket := Pocket{
		ID:        pickString(raw, "id", "bolsillo_id", "pk"),
		Name:      pickString(raw, "name", "nombre"),
		Color:     pickString(raw, "color"),
		Icon:      pickString(raw, "icon", "icono"),
		IsGeneral: pickBool(raw, "is_general"),
	}
	if pocket.ID == "" {
		return Pocket{}, fmt.Errorf("pocket payload has no identifier: %v", raw)
	}
	if balance, ok := pickAmount(raw, "balance", "saldo"); ok {
		pocket.Balance = balance
	}
	return pocket, nil
}

// NormalizeCategory maps a raw category payload to the canonical record.
func NormalizeCategory(raw map[string]any) (Category, error) {
	category := Category{
		ID:    pickString(raw, "id", "categoria_id", "pk"),
		Name:  pickString(raw, "name", "nombre"),
		Type:  pickString(raw, "type", "tipo"),
		Color: pickString(raw, "color"),
	}
	if category.ID == "" {
		return Category{}, fmt.Errorf("category payload has no identifier: %v", raw)
	}
	return category, nil
}

// NormalizeTransaction maps a raw transaction payload to the canonical record.
func NormalizeTransaction(raw map[string]any) (Transaction, error) {
	transaction := Transaction{
		ID:          pickString(raw, "id", "movimiento_id", "pk"),
		PocketID:    pickString(raw, "pocket_id", "bolsillo_id", "bolsillo"),
		ToPocketID:  pickString(raw, "to_pocket_id", "bolsillo_destino_id"),
		CategoryID:  pickString(raw, "category_id", "categoria_id", "categoria"),
		Type:        pickString(raw, "type", "tipo"),
		Description: pickString(raw, "description", "descripcion"),
		Date:        pickDate(raw, "date", "fecha"),
		CreatedAt:   pickDate(raw, "created_at", "fecha_creacion"),
	}
	if transaction.ID == "" {
		return Transaction{}, fmt.Errorf("transaction payload has no identifier: %v", raw)
	}
	if amount, ok := pickAmount(raw, "amount", "monto"); ok {
		transaction.Amount = amount
	}
	return transaction, nil
}

// NormalizeGroup maps a raw group payload to the canonical record.
func NormalizeGroup(raw map[string]any) (Group, error) {
	group := Group{
		ID:          pickString(raw, "id", "grupo_id", "pk"),
		Name:        pickString(raw, "name", "nombre"),
		Description: pickString(raw, "description", "descripcion"),
	}
	if group.ID == "" {
		return Group{}, fmt.Errorf("group payload has no identifier: %v", raw)
	}
	return group, nil
}

// NormalizeMember maps a raw member payload to the canonical record.
func NormalizeMember(raw map[string]any) (Member, error) {
	member := Member{
		UserID:    pickString(raw, "user_id", "usuario_id", "id"),
		Email:     pickString(raw, "email", "correo"),
		Name:      pickString(raw, "name", "nombre"),
		Role:      pickString(raw, "role", "rol"),
		IsCreator: pickBool(raw, "is_creator", "es_creador"),
	}
	if member.UserID == "" {
		return Member{}, fmt.Errorf("member payload has no identifier: %v", raw)
	}
	return member, nil
}

// NormalizeContribution maps a raw contribution payload to the canonical record.
func NormalizeContribution(raw map[string]any) (Contribution, error) {
	contribution := Contribution{
		ID:            pickString(raw, "id", "aportacion_id", "pk"),
		GroupID:       pickString(raw, "group_id", "grupo_id"),
		UserPocketID:  pickString(raw, "user_pocket_id", "bolsillo_usuario_id"),
		GroupPocketID: pickString(raw, "group_pocket_id", "bolsillo_grupo_id"),
		Description:   pickString(raw, "description", "descripcion"),
		Date:          pickDate(raw, "date", "fecha"),
	}
	if contribution.ID == "" {
		return Contribution{}, fmt.Errorf("contribution payload has no identifier: %v", raw)
	}
	if amount, ok := pickAmount(raw, "amount", "monto"); ok {
		contribution.Amount = amount
	}
	return contribution, nil
}
