package client

import (
	"testing"
	"time"
)

func TestNormalizePocketFieldVariants(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
		want Pocket
	}{
		{
			name: "canonical fields",
			raw: map[string]any{
				"id": "p1", "name": "Wallet", "balance": float64(5000000),
				"color": "#3b82f6", "icon": "wallet", "is_general": false,
			},
			want: Pocket{ID: "p1", Name: "Wallet", Balance: 5000000, Color: "#3b82f6", Icon: "wallet"},
		},
		{
			name: "legacy spanish fields",
			raw: map[string]any{
				"bolsillo_id": "p2", "nombre": "Ahorros", "saldo": "40000", "icono": "piggy",
			},
			want: Pocket{ID: "p2", Name: "Ahorros", Balance: 4000000, Icon: "piggy"},
		},
		{
			name: "numeric primary key",
			raw:  map[string]any{"pk": float64(7), "name": "Cash"},
			want: Pocket{ID: "7", Name: "Cash"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizePocket(tt.raw)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNormalizePocketRequiresIdentifier(t *testing.T) {
	if _, err := NormalizePocket(map[string]any{"name": "Orphan"}); err == nil {
		t.Fatal("expected error for payload without identifier")
	}
}

func TestNormalizeTransactionFieldVariants(t *testing.T) {
	raw := map[string]any{
		"movimiento_id": "t1",
		"bolsillo_id":   "p1",
		"tipo":          "expense",
		"monto":         "12500.75",
		"fecha":         "2026-08-15",
		"descripcion":   "Groceries",
	}

	got, err := NormalizeTransaction(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "t1" || got.PocketID != "p1" || got.Type != "expense" {
		t.Errorf("unexpected record: %+v", got)
	}
	if got.Amount != 1250075 {
		t.Errorf("expected amount 1250075 minor units, got %d", got.Amount)
	}
	want := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	if !got.Date.Equal(want) {
		t.Errorf("expected date %v, got %v", want, got.Date)
	}
}

func TestNormalizeTransactionRFC3339Date(t *testing.T) {
	raw := map[string]any{
		"id": "t2", "pocket_id": "p1", "type": "income",
		"amount": float64(500000), "date": "2026-08-15T10:30:00Z",
	}

	got, err := NormalizeTransaction(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Amount != 500000 {
		t.Errorf("expected amount passed through as minor units, got %d", got.Amount)
	}
	if got.Date.Hour() != 10 {
		t.Errorf("expected timestamp precision kept, got %v", got.Date)
	}
}

func TestNormalizeCategoryAndGroup(t *testing.T) {
	category, err := NormalizeCategory(map[string]any{"categoria_id": "c1", "nombre": "Mercado", "tipo": "expense"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if category.ID != "c1" || category.Name != "Mercado" || category.Type != "expense" {
		t.Errorf("unexpected category: %+v", category)
	}

	group, err := NormalizeGroup(map[string]any{"grupo_id": "g1", "nombre": "Casa"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if group.ID != "g1" || group.Name != "Casa" {
		t.Errorf("unexpected group: %+v", group)
	}
}
