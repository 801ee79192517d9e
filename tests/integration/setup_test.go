package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"monedero/internal/events"
	"monedero/internal/handlers"
	"monedero/internal/logger"
	"monedero/internal/middleware"
	"monedero/internal/models"
	"monedero/internal/services"
	"monedero/internal/validator"
)

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
}

// dbCounter ensures each test gets a unique in-memory database.
var dbCounter atomic.Int64

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupIsolatedDB creates an isolated in-memory SQLite database for a single test.
func setupIsolatedDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := dbCounter.Add(1)
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	allModels := []interface{}{
		&models.User{},
		&models.Group{},
		&models.Membership{},
		&models.Pocket{},
		&models.Category{},
		&models.Transaction{},
		&models.Contribution{},
	}
	if err := db.AutoMigrate(allModels...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := setupIsolatedDB(t)
	bus := events.Nop()

	// Services
	userService := services.NewUserService(db)
	pocketService := services.NewPocketService(db, bus)
	categoryService := services.NewCategoryService(db, bus)
	transactionService := services.NewTransactionService(db, pocketService, bus)
	contributionService := services.NewContributionService(db, pocketService, bus)
	groupService := services.NewGroupService(db, bus)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService)
	pocketHandler := handlers.NewPocketHandler(pocketService)
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	transactionHandler := handlers.NewTransactionHandler(transactionService)
	contributionHandler := handlers.NewContributionHandler(contributionService)
	groupHandler := handlers.NewGroupHandler(groupService)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	v1 := router.Group("/api/v1")

	// Public auth routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.POST("/auth/logout", authHandler.Logout)
	protected.GET("/profile", authHandler.GetProfile)
	protected.PUT("/profile/currency", authHandler.UpdateCurrency)

	pockets := protected.Group("/pockets")
	pockets.POST("", pocketHandler.CreatePocket)
	pockets.GET("", pocketHandler.GetPockets)
	pockets.GET("/:id", pocketHandler.GetPocket)
	pockets.PUT("/:id", pocketHandler.UpdatePocket)
	pockets.DELETE("/:id", pocketHandler.DeletePocket)

	transactions := protected.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.GetTransactions)
	transactions.GET("/:id", transactionHandler.GetTransaction)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	protected.POST("/transfers", transactionHandler.CreateTransfer)

	categories := protected.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.GetCategories)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	groups := protected.Group("/groups")
	groups.POST("", groupHandler.CreateGroup)
	groups.GET("", groupHandler.GetGroups)
	groups.GET("/:id", groupHandler.GetGroup)
	groups.POST("/:id/members", groupHandler.AddMember)
	groups.GET("/:id/members", groupHandler.GetMembers)
	groups.PUT("/:id/members/:user_id/role", groupHandler.ChangeMemberRole)

	contributions := protected.Group("/contributions")
	contributions.POST("", contributionHandler.CreateContribution)
	contributions.GET("", contributionHandler.GetContributions)

	return &testApp{DB: db, Router: router}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// registerUser registers a new user and returns the access token, refresh token, and user ID.
func (app *testApp) registerUser(t *testing.T, email, password string) (accessToken, refreshToken, userID string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q,"name":"Test User"}`, email, password)
	rec := app.request("POST", "/api/v1/auth/register", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	user := result["user"].(map[string]interface{})
	return result["access_token"].(string), result["refresh_token"].(string), user["id"].(string)
}

// loginUser logs in and returns the access and refresh tokens.
func (app *testApp) loginUser(t *testing.T, email, password string) (accessToken, refreshToken string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q}`, email, password)
	rec := app.request("POST", "/api/v1/auth/login", body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	return result["access_token"].(string), result["refresh_token"].(string)
}

// createPocket creates a personal pocket and returns its ID.
func (app *testApp) createPocket(t *testing.T, token, name string, openingBalance int64) string {
	t.Helper()
	body := fmt.Sprintf(`{"name":%q,"opening_balance":%d}`, name, openingBalance)
	rec := app.request("POST", "/api/v1/pockets", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create pocket failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	pocket := result["pocket"].(map[string]interface{})
	return pocket["id"].(string)
}

// createGroup creates a group and returns the group ID and its General pocket ID.
func (app *testApp) createGroup(t *testing.T, token, name string) (groupID, generalPocketID string) {
	t.Helper()
	rec := app.request("POST", "/api/v1/groups", fmt.Sprintf(`{"name":%q}`, name), token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create group failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	group := result["group"].(map[string]interface{})
	groupID = group["id"].(string)

	rec = app.request("GET", "/api/v1/pockets?group_id="+groupID, "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("list group pockets failed: %d %s", rec.Code, rec.Body.String())
	}
	pockets := parseJSON(t, rec)["pockets"].([]interface{})
	for _, p := range pockets {
		pocket := p.(map[string]interface{})
		if pocket["is_general"].(bool) {
			return groupID, pocket["id"].(string)
		}
	}
	t.Fatal("group has no General pocket")
	return "", ""
}

// pocketBalance fetches a pocket and returns its balance.
func (app *testApp) pocketBalance(t *testing.T, token, pocketID, groupID string) float64 {
	t.Helper()
	path := "/api/v1/pockets/" + pocketID
	if groupID != "" {
		path += "?group_id=" + groupID
	}
	rec := app.request("GET", path, "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("get pocket failed: %d %s", rec.Code, rec.Body.String())
	}
	pocket := parseJSON(t, rec)["pocket"].(map[string]interface{})
	return pocket["balance"].(float64)
}
