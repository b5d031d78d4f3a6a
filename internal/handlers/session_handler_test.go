package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "tillpoint/internal/errors"
	"tillpoint/internal/middleware"
	"tillpoint/internal/models"
	"tillpoint/internal/services"
	"tillpoint/internal/validator"
)

// --- mock services ---

type mockSessionService struct {
	restoreFn    func(ctx context.Context) (*services.Session, error)
	registerFn   func(ctx context.Context, in services.RegisterInput) (*models.Snapshot, error)
	loginFn      func(ctx context.Context, identifier, password string) (*services.Session, error)
	switchFn     func(ctx context.Context, targetUserID uint, credential string, usePIN bool) bool
	refreshFn    func(ctx context.Context) (*services.Session, error)
	candidatesFn func(ctx context.Context) ([]models.Snapshot, error)

	current    *services.Session
	loggedOut  bool
	lastSwitch struct {
		id     uint
		cred   string
		usePIN bool
	}
}

func (m *mockSessionService) RestoreSession(ctx context.Context) (*services.Session, error) {
	if m.restoreFn != nil {
		return m.restoreFn(ctx)
	}
	return nil, nil
}

func (m *mockSessionService) Register(ctx context.Context, in services.RegisterInput) (*models.Snapshot, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, in)
	}
	return &models.Snapshot{}, nil
}

func (m *mockSessionService) Login(ctx context.Context, identifier, password string) (*services.Session, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, identifier, password)
	}
	return nil, apperrors.ErrInvalidCredentials
}

func (m *mockSessionService) SwitchUser(ctx context.Context, targetUserID uint, credential string, usePIN bool) bool {
	m.lastSwitch.id, m.lastSwitch.cred, m.lastSwitch.usePIN = targetUserID, credential, usePIN
	if m.switchFn != nil {
		return m.switchFn(ctx, targetUserID, credential, usePIN)
	}
	return false
}

func (m *mockSessionService) RefreshUser(ctx context.Context) (*services.Session, error) {
	if m.refreshFn != nil {
		return m.refreshFn(ctx)
	}
	return nil, apperrors.ErrUnauthorized
}

func (m *mockSessionService) Logout(context.Context) {
	m.loggedOut = true
	m.current = nil
}

func (m *mockSessionService) Current() *services.Session { return m.current }

func (m *mockSessionService) CurrentUser() *models.Snapshot {
	if m.current == nil {
		return nil
	}
	return m.current.User
}

func (m *mockSessionService) Token() string {
	if m.current == nil {
		return ""
	}
	return m.current.Token
}

func (m *mockSessionService) IsAuthenticated() bool { return m.current != nil }

func (m *mockSessionService) ListSwitchCandidates(ctx context.Context) ([]models.Snapshot, error) {
	if m.candidatesFn != nil {
		return m.candidatesFn(ctx)
	}
	return nil, apperrors.ErrUnauthorized
}

// --- test helpers ---

func init() {
	gin.SetMode(gin.TestMode)
	validator.Register()
}

func setupSessionRouter(handler *SessionHandler) *gin.Engine {
	r := gin.New()
	s := r.Group("/session")
	s.GET("", handler.Get)
	s.POST("/restore", handler.Restore)
	s.POST("/login", handler.Login)
	s.POST("/register", handler.Register)
	s.POST("/switch", handler.Switch)
	s.POST("/refresh", handler.Refresh)
	s.POST("/logout", handler.Logout)
	s.GET("/users", handler.Users)
	r.GET("/me", injectUser(&models.User{ID: 7, Username: "alice", Role: models.RoleOwner, Active: true}), handler.Me)
	r.GET("/me-anon", handler.Me)
	return r
}

func injectUser(u *models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserKey, u)
		c.Next()
	}
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %q", code, errObj["code"])
	}
}

func aliceSession() *services.Session {
	bid := uint(3)
	return &services.Session{
		User:      &models.Snapshot{UserID: 7, Username: "alice", Role: models.RoleOwner, Active: true, BusinessID: &bid},
		Token:     "signed.jwt.token",
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}
}

// --- tests ---

func TestSessionHandler_Get(t *testing.T) {
	t.Run("returns 401 when signed out", func(t *testing.T) {
		rec := doRequest(setupSessionRouter(NewSessionHandler(&mockSessionService{})), http.MethodGet, "/session", "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "UNAUTHORIZED")
	})

	t.Run("returns the current session", func(t *testing.T) {
		svc := &mockSessionService{current: aliceSession()}
		rec := doRequest(setupSessionRouter(NewSessionHandler(svc)), http.MethodGet, "/session", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		body := parseJSON(t, rec)
		if _, ok := body["token"]; ok {
			t.Error("the session status must not carry the token")
		}
		user := body["user"].(map[string]interface{})
		if user["username"] != "alice" || user["business_id"] != float64(3) {
			t.Errorf("unexpected user %v", user)
		}
	})
}

func TestSessionHandler_Login(t *testing.T) {
	t.Run("returns 200 with the session", func(t *testing.T) {
		var gotID, gotPW string
		svc := &mockSessionService{
			loginFn: func(_ context.Context, identifier, password string) (*services.Session, error) {
				gotID, gotPW = identifier, password
				return aliceSession(), nil
			},
		}
		rec := doRequest(setupSessionRouter(NewSessionHandler(svc)), http.MethodPost, "/session/login",
			`{"identifier":"alice@example.com","password":"Str0ng!pw"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotID != "alice@example.com" || gotPW != "Str0ng!pw" {
			t.Errorf("credentials not passed through: %q %q", gotID, gotPW)
		}
		if parseJSON(t, rec)["token"] != "signed.jwt.token" {
			t.Error("expected token in response")
		}
	})

	t.Run("returns 400 when fields are missing", func(t *testing.T) {
		rec := doRequest(setupSessionRouter(NewSessionHandler(&mockSessionService{})), http.MethodPost, "/session/login",
			`{"identifier":"alice"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	errCases := []struct {
		err    error
		status int
		code   string
	}{
		{apperrors.ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{apperrors.ErrPendingApproval, http.StatusForbidden, "PENDING_APPROVAL"},
		{apperrors.ErrRateLimited, http.StatusTooManyRequests, "RATE_LIMITED"},
		{apperrors.ErrOperationInProgress, http.StatusConflict, "OPERATION_IN_PROGRESS"},
	}
	for _, tc := range errCases {
		t.Run("maps "+tc.code, func(t *testing.T) {
			svc := &mockSessionService{
				loginFn: func(context.Context, string, string) (*services.Session, error) { return nil, tc.err },
			}
			rec := doRequest(setupSessionRouter(NewSessionHandler(svc)), http.MethodPost, "/session/login",
				`{"identifier":"alice","password":"x"}`)
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rec.Code)
			}
			assertErrorCode(t, parseJSON(t, rec), tc.code)
		})
	}
}

func TestSessionHandler_Register(t *testing.T) {
	t.Run("returns 201 pending approval", func(t *testing.T) {
		var got services.RegisterInput
		svc := &mockSessionService{
			registerFn: func(_ context.Context, in services.RegisterInput) (*models.Snapshot, error) {
				got = in
				return &models.Snapshot{UserID: 11, Username: in.Username, Role: models.RoleOwner, Active: true}, nil
			},
		}
		rec := doRequest(setupSessionRouter(NewSessionHandler(svc)), http.MethodPost, "/session/register",
			`{"username":"alice","password":"Str0ng!pw","business_name":"Alice Shop","email":"a@example.com"}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if got.BusinessName != "Alice Shop" || got.Email != "a@example.com" {
			t.Errorf("input not passed through: %+v", got)
		}
		body := parseJSON(t, rec)
		if body["status"] != "pending_approval" {
			t.Errorf("unexpected status %v", body["status"])
		}
		if _, ok := body["token"]; ok {
			t.Error("registration must not hand out a token")
		}
	})

	t.Run("passes validation messages through", func(t *testing.T) {
		svc := &mockSessionService{
			registerFn: func(context.Context, services.RegisterInput) (*models.Snapshot, error) {
				return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Password must be at least 8 characters long")
			},
		}
		rec := doRequest(setupSessionRouter(NewSessionHandler(svc)), http.MethodPost, "/session/register",
			`{"username":"alice","password":"short","business_name":"A"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		body := parseJSON(t, rec)
		assertErrorCode(t, body, "INVALID_INPUT")
		if msg := body["error"].(map[string]interface{})["message"]; msg != "Password must be at least 8 characters long" {
			t.Errorf("unexpected message %v", msg)
		}
	})

	t.Run("returns 409 for a duplicate email", func(t *testing.T) {
		svc := &mockSessionService{
			registerFn: func(context.Context, services.RegisterInput) (*models.Snapshot, error) {
				return nil, apperrors.ErrDuplicateEmail
			},
		}
		rec := doRequest(setupSessionRouter(NewSessionHandler(svc)), http.MethodPost, "/session/register",
			`{"username":"alice","password":"Str0ng!pw","business_name":"A","email":"a@example.com"}`)
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "DUPLICATE_EMAIL")
	})
}

func TestSessionHandler_Switch(t *testing.T) {
	t.Run("returns the new session", func(t *testing.T) {
		svc := &mockSessionService{current: aliceSession()}
		svc.switchFn = func(_ context.Context, id uint, _ string, _ bool) bool {
			svc.current = &services.Session{User: &models.Snapshot{UserID: id, Username: "bob"}, Token: "bob.token"}
			return true
		}
		rec := doRequest(setupSessionRouter(NewSessionHandler(svc)), http.MethodPost, "/session/switch",
			`{"user_id":8,"credential":"4321","use_pin":true}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if svc.lastSwitch.id != 8 || svc.lastSwitch.cred != "4321" || !svc.lastSwitch.usePIN {
			t.Errorf("unexpected switch call %+v", svc.lastSwitch)
		}
		if parseJSON(t, rec)["token"] != "bob.token" {
			t.Error("expected bob's token")
		}
	})

	t.Run("wrong pin returns 401", func(t *testing.T) {
		svc := &mockSessionService{current: aliceSession()}
		rec := doRequest(setupSessionRouter(NewSessionHandler(svc)), http.MethodPost, "/session/switch",
			`{"user_id":8,"credential":"0000","use_pin":true}`)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		body := parseJSON(t, rec)
		assertErrorCode(t, body, "INVALID_CREDENTIALS")
		if msg := body["error"].(map[string]interface{})["message"]; msg != "Invalid PIN" {
			t.Errorf("unexpected message %v", msg)
		}
	})

	t.Run("signed out returns 401 without calling the manager", func(t *testing.T) {
		svc := &mockSessionService{}
		rec := doRequest(setupSessionRouter(NewSessionHandler(svc)), http.MethodPost, "/session/switch",
			`{"user_id":8,"credential":"pw"}`)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "UNAUTHORIZED")
		if svc.lastSwitch.id != 0 {
			t.Error("switch should not have been attempted")
		}
	})

	t.Run("missing user id returns 400", func(t *testing.T) {
		svc := &mockSessionService{current: aliceSession()}
		rec := doRequest(setupSessionRouter(NewSessionHandler(svc)), http.MethodPost, "/session/switch",
			`{"credential":"pw"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestSessionHandler_RestoreRefreshLogout(t *testing.T) {
	t.Run("restore with nothing persisted returns 401", func(t *testing.T) {
		rec := doRequest(setupSessionRouter(NewSessionHandler(&mockSessionService{})), http.MethodPost, "/session/restore", "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("restore returns the session", func(t *testing.T) {
		svc := &mockSessionService{
			restoreFn: func(context.Context) (*services.Session, error) { return aliceSession(), nil },
		}
		rec := doRequest(setupSessionRouter(NewSessionHandler(svc)), http.MethodPost, "/session/restore", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		body := parseJSON(t, rec)
		if _, ok := body["token"]; ok {
			t.Error("restore must not hand out the token")
		}
		if body["user"] == nil {
			t.Error("expected the restored user")
		}
	})

	t.Run("refresh of a deactivated user returns 401", func(t *testing.T) {
		rec := doRequest(setupSessionRouter(NewSessionHandler(&mockSessionService{})), http.MethodPost, "/session/refresh", "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("logout returns 204", func(t *testing.T) {
		svc := &mockSessionService{current: aliceSession()}
		rec := doRequest(setupSessionRouter(NewSessionHandler(svc)), http.MethodPost, "/session/logout", "")
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
		if !svc.loggedOut {
			t.Error("expected Logout to be called")
		}
	})
}

func TestSessionHandler_Users(t *testing.T) {
	svc := &mockSessionService{
		current: aliceSession(),
		candidatesFn: func(context.Context) ([]models.Snapshot, error) {
			return []models.Snapshot{{UserID: 7, Username: "alice"}, {UserID: 8, Username: "bob"}}, nil
		},
	}
	rec := doRequest(setupSessionRouter(NewSessionHandler(svc)), http.MethodGet, "/session/users", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	users := parseJSON(t, rec)["users"].([]interface{})
	if len(users) != 2 {
		t.Errorf("expected 2 users, got %d", len(users))
	}
}

func TestSessionHandler_Me(t *testing.T) {
	router := setupSessionRouter(NewSessionHandler(&mockSessionService{}))

	rec := doRequest(router, http.MethodGet, "/me", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := parseJSON(t, rec)
	if body["user_id"] != float64(7) || body["username"] != "alice" {
		t.Errorf("unexpected body %v", body)
	}
	if _, ok := body["password_hash"]; ok {
		t.Error("credential material must not be returned")
	}

	rec = doRequest(router, http.MethodGet, "/me-anon", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a token user, got %d", rec.Code)
	}
}
