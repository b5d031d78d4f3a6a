package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"tillpoint/internal/app"
	"tillpoint/internal/config"
	"tillpoint/internal/events"
	"tillpoint/internal/logger"
	"tillpoint/internal/models"
	"tillpoint/internal/store"
	"tillpoint/internal/testutil"
)

const adminKey = "integration-admin-key"

// testApp holds the full terminal stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	App    *app.App
	Router *gin.Engine
}

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
}

// setupApp assembles the terminal over an isolated in-memory SQLite database
// that plays both the hosted store and the local database.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := testutil.SetupTestDB(t)
	cfg := &config.Config{
		Env:              "test",
		JWTSecret:        "integration-secret",
		BcryptCost:       4,
		LoginMaxAttempts: 3,
		LoginWindow:      5 * time.Minute,
		AdminAPIKey:      adminKey,
	}
	a, err := app.Assemble(cfg, store.NewGormStore(db), db, events.NewLogPublisher())
	if err != nil {
		t.Fatalf("failed to assemble app: %v", err)
	}
	return &testApp{DB: db, App: a, Router: a.Router}
}

// request makes an HTTP request to the test router and returns the recorder.
func (ta *testApp) request(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	ta.Router.ServeHTTP(rec, req)
	return rec
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func admin() map[string]string {
	return map[string]string{"X-API-Key": adminKey}
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

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

func expectErrorCode(t *testing.T, rec *httptest.ResponseRecorder, want string) {
	t.Helper()
	errObj, ok := parseJSON(t, rec)["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected an error body, got %s", rec.Body.String())
	}
	if errObj["code"] != want {
		t.Errorf("expected error code %s, got %v", want, errObj["code"])
	}
}

// registerOwner registers a business owner over HTTP and returns the new user id.
func (ta *testApp) registerOwner(t *testing.T, username, email, pw string) uint {
	t.Helper()
	body := fmt.Sprintf(`{"username":%q,"email":%q,"password":%q,"business_name":"%s Shop","address":"1 Main St"}`,
		username, email, pw, username)
	rec := ta.request(http.MethodPost, "/api/v1/session/register", body, nil)
	expectStatus(t, rec, http.StatusCreated)
	result := parseJSON(t, rec)
	if result["status"] != "pending_approval" {
		t.Errorf("expected pending_approval, got %v", result["status"])
	}
	user := result["user"].(map[string]interface{})
	return uint(user["user_id"].(float64))
}

// approve lets userID in through the back-office endpoint.
func (ta *testApp) approve(t *testing.T, userID uint) {
	t.Helper()
	rec := ta.request(http.MethodPost, fmt.Sprintf("/api/v1/admin/users/%d/approve", userID), "", admin())
	expectStatus(t, rec, http.StatusOK)
}

// login signs in and returns the session token.
func (ta *testApp) login(t *testing.T, identifier, pw string) string {
	t.Helper()
	body := fmt.Sprintf(`{"identifier":%q,"password":%q}`, identifier, pw)
	rec := ta.request(http.MethodPost, "/api/v1/session/login", body, nil)
	expectStatus(t, rec, http.StatusOK)
	return parseJSON(t, rec)["token"].(string)
}

func (ta *testApp) loadUser(t *testing.T, id uint) *models.User {
	t.Helper()
	return testutil.ReloadUser(t, ta.DB, id)
}
