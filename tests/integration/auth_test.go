package integration

import (
	"fmt"
	"net/http"
	"testing"
)

func TestAuthFlow_RegisterLoginProfileRefresh(t *testing.T) {
	app := setupApp(t)

	// Step 1: Register
	accessToken, refreshToken, userID := app.registerUser(t, "auth@test.com", "password123")
	if accessToken == "" || refreshToken == "" {
		t.Fatal("expected non-empty tokens from registration")
	}
	if userID == "" {
		t.Fatal("expected non-empty user ID")
	}

	// Step 2: Login with same credentials
	loginAccess, loginRefresh := app.loginUser(t, "auth@test.com", "password123")
	if loginAccess == "" || loginRefresh == "" {
		t.Fatal("expected non-empty tokens from login")
	}

	// Step 3: Access profile with login access token
	rec := app.request("GET", "/api/v1/profile", "", loginAccess)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	user := result["user"].(map[string]interface{})
	if user["email"] != "auth@test.com" {
		t.Errorf("expected email auth@test.com, got %v", user["email"])
	}

	// Step 4: Refresh tokens
	rec = app.request("POST", "/api/v1/auth/refresh",
		fmt.Sprintf(`{"refresh_token":%q}`, loginRefresh), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on refresh, got %d: %s", rec.Code, rec.Body.String())
	}
	refreshed := parseJSON(t, rec)
	newAccess := refreshed["access_token"].(string)
	if newAccess == "" {
		t.Fatal("expected a new access token from refresh")
	}

	// Step 5: The new access token works
	rec = app.request("GET", "/api/v1/profile", "", newAccess)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with refreshed token, got %d", rec.Code)
	}
}

func TestAuthFlow_LogoutInvalidatesRefreshToken(t *testing.T) {
	app := setupApp(t)
	accessToken, refreshToken, _ := app.registerUser(t, "logout@test.com", "password123")

	rec := app.request("POST", "/api/v1/auth/logout", "", accessToken)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 on logout, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = app.request("POST", "/api/v1/auth/refresh",
		fmt.Sprintf(`{"refresh_token":%q}`, refreshToken), "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 refreshing after logout, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAuthFlow_WrongPasswordRejected(t *testing.T) {
	app := setupApp(t)
	app.registerUser(t, "wrongpw@test.com", "password123")

	rec := app.request("POST", "/api/v1/auth/login",
		`{"email":"wrongpw@test.com","password":"nope nope"}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAuthFlow_UpdateCurrency(t *testing.T) {
	app := setupApp(t)
	accessToken, _, _ := app.registerUser(t, "currency@test.com", "password123")

	rec := app.request("PUT", "/api/v1/profile/currency", `{"currency":"eur"}`, accessToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	user := parseJSON(t, rec)["user"].(map[string]interface{})
	if user["currency"] != "EUR" {
		t.Errorf("expected currency EUR, got %v", user["currency"])
	}

	rec = app.request("PUT", "/api/v1/profile/currency", `{"currency":"ZZZ"}`, accessToken)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown currency code, got %d", rec.Code)
	}
}
