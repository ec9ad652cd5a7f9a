package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/eaglemart/platform/shared/auth"
	"github.com/eaglemart/platform/shared/cqrs"
	"github.com/eaglemart/platform/shared/errs"
	"github.com/eaglemart/platform/shared/middleware"
	"github.com/eaglemart/platform/shared/models"
)

// ---- in-memory directory ----

// memoryDirectory implements UserCommander, UserQuerier and Authenticator
// with the same ownership and conflict rules as the real services.
type memoryDirectory struct {
	tokens    *auth.TokenManager
	users     map[string]*models.User
	passwords map[string]string
	seq       int
}

func newMemoryDirectory(t *testing.T) *memoryDirectory {
	t.Helper()
	tokens, err := auth.NewTokenManager("handler-test-secret", "HS256", 15*time.Minute)
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}
	return &memoryDirectory{tokens: tokens, users: map[string]*models.User{}, passwords: map[string]string{}}
}

func (d *memoryDirectory) RegisterUser(_ context.Context, cmd cqrs.RegisterUserCommand) (*models.User, error) {
	for _, u := range d.users {
		if u.Username == cmd.Username || strings.EqualFold(u.Email, cmd.Email) {
			return nil, errs.New(errs.ErrConflict, "User with these credentials already exists")
		}
	}
	d.seq++
	u := &models.User{ID: fmt.Sprintf("usr-%d", d.seq), Username: cmd.Username, Email: cmd.Email, PasswordHash: "x"}
	d.users[u.ID] = u
	d.passwords[u.ID] = cmd.Password
	return u, nil
}

func (d *memoryDirectory) UpdateUser(_ context.Context, cmd cqrs.UpdateUserCommand) (*models.User, error) {
	if cmd.UserID != cmd.RequestingUserID {
		return nil, errs.New(errs.ErrForbidden, "You can only update your own user details")
	}
	u, ok := d.users[cmd.UserID]
	if !ok {
		return nil, errs.New(errs.ErrNotFound, "User not found")
	}
	u.Username, u.Email, u.PhoneNumber, u.Address = cmd.Username, cmd.Email, cmd.PhoneNumber, cmd.Address
	return u, nil
}

func (d *memoryDirectory) DeleteUser(_ context.Context, cmd cqrs.DeleteUserCommand) error {
	if cmd.UserID != cmd.RequestingUserID {
		return errs.New(errs.ErrForbidden, "You can only delete your own account")
	}
	if _, ok := d.users[cmd.UserID]; !ok {
		return errs.New(errs.ErrNotFound, "User not found")
	}
	delete(d.users, cmd.UserID)
	return nil
}

func (d *memoryDirectory) GetUser(_ context.Context, q cqrs.GetUserQuery) (*models.User, error) {
	if q.UserID != q.RequestingUserID {
		return nil, errs.New(errs.ErrForbidden, "You can only access your own user details")
	}
	u, ok := d.users[q.UserID]
	if !ok {
		return nil, errs.New(errs.ErrNotFound, "User not found")
	}
	return u, nil
}

func (d *memoryDirectory) Login(_ context.Context, cmd cqrs.LoginCommand) (*models.TokenResponse, error) {
	for id, u := range d.users {
		if u.Username == cmd.Username && d.passwords[id] == cmd.Password {
			tok, err := d.tokens.Issue(id)
			if err != nil {
				return nil, err
			}
			return &models.TokenResponse{AccessToken: tok.Token, TokenType: "bearer", ExpiresIn: int64(d.tokens.TTL().Seconds())}, nil
		}
	}
	return nil, errs.New(errs.ErrUnauthenticated, "Incorrect username or password")
}

// ---- helpers ----

func newUserTestRouter(d *memoryDirectory) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewUserHandler(d, d, d).RegisterRoutes(r, middleware.AuthMiddleware(d.tokens))
	return r
}

func userDoRequest(router *gin.Engine, method, url, token string, body interface{}) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		b, _ := json.Marshal(body)
		req, _ = http.NewRequest(method, url, strings.NewReader(string(b)))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, _ = http.NewRequest(method, url, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func register(t *testing.T, router *gin.Engine, username, email string) *models.User {
	t.Helper()
	w := userDoRequest(router, http.MethodPost, "/users/register", "", map[string]interface{}{
		"username": username, "email": email, "password": "securepass123",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d (%s)", username, w.Code, w.Body.String())
	}
	var u models.User
	if err := json.Unmarshal(w.Body.Bytes(), &u); err != nil {
		t.Fatalf("decode user: %v", err)
	}
	return &u
}

func loginForm(router *gin.Engine, username, password string) *httptest.ResponseRecorder {
	form := url.Values{"username": {username}, "password": {password}}
	req, _ := http.NewRequest(http.MethodPost, "/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func tokenFor(t *testing.T, router *gin.Engine, username string) string {
	t.Helper()
	w := loginForm(router, username, "securepass123")
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: status %d (%s)", username, w.Code, w.Body.String())
	}
	var resp models.TokenResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode token: %v", err)
	}
	return resp.AccessToken
}

// ---- tests ----

func TestRegisterUser(t *testing.T) {
	tests := []struct {
		name           string
		body           map[string]interface{}
		expectedStatus int
	}{
		{"valid", map[string]interface{}{"username": "alice", "email": "alice@example.com", "password": "securepass123"}, http.StatusCreated},
		{"short password", map[string]interface{}{"username": "alice", "email": "alice@example.com", "password": "short"}, http.StatusBadRequest},
		{"bad email", map[string]interface{}{"username": "alice", "email": "nope", "password": "securepass123"}, http.StatusBadRequest},
		{"missing username", map[string]interface{}{"email": "alice@example.com", "password": "securepass123"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newUserTestRouter(newMemoryDirectory(t))
			w := userDoRequest(router, http.MethodPost, "/users/", "", tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d (body: %s)", tt.expectedStatus, w.Code, w.Body.String())
			}
			if strings.Contains(w.Body.String(), "securepass123") || strings.Contains(w.Body.String(), "password_hash") {
				t.Errorf("response leaks credentials: %s", w.Body.String())
			}
		})
	}
}

func TestRegisterTwiceConflicts(t *testing.T) {
	router := newUserTestRouter(newMemoryDirectory(t))
	register(t, router, "alice", "alice@example.com")

	w := userDoRequest(router, http.MethodPost, "/users/register", "", map[string]interface{}{
		"username": "alice", "email": "other@example.com", "password": "securepass123",
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
}

func TestLogin(t *testing.T) {
	router := newUserTestRouter(newMemoryDirectory(t))
	register(t, router, "alice", "alice@example.com")

	t.Run("form", func(t *testing.T) {
		w := loginForm(router, "alice", "securepass123")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var resp models.TokenResponse
		_ = json.Unmarshal(w.Body.Bytes(), &resp)
		if resp.TokenType != "bearer" || resp.AccessToken == "" || resp.ExpiresIn != 900 {
			t.Errorf("unexpected token response %+v", resp)
		}
	})

	t.Run("json", func(t *testing.T) {
		w := userDoRequest(router, http.MethodPost, "/token", "", map[string]interface{}{"username": "alice", "password": "securepass123"})
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		w := loginForm(router, "alice", "not-the-password")
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", w.Code)
		}
		if w.Header().Get("WWW-Authenticate") != "Bearer" {
			t.Errorf("missing WWW-Authenticate header")
		}
	})

	t.Run("missing fields", func(t *testing.T) {
		w := loginForm(router, "", "")
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})
}

func TestGetMe(t *testing.T) {
	router := newUserTestRouter(newMemoryDirectory(t))
	alice := register(t, router, "alice", "alice@example.com")
	token := tokenFor(t, router, "alice")

	w := userDoRequest(router, http.MethodGet, "/users/me", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	var me models.User
	_ = json.Unmarshal(w.Body.Bytes(), &me)
	if me.ID != alice.ID || me.Username != "alice" {
		t.Errorf("unexpected profile %+v", me)
	}

	w = userDoRequest(router, http.MethodGet, "/users/me", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", w.Code)
	}
	w = userDoRequest(router, http.MethodGet, "/users/me", "garbage", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for invalid token, got %d", w.Code)
	}
}

func TestForeignProfileIsForbidden(t *testing.T) {
	router := newUserTestRouter(newMemoryDirectory(t))
	register(t, router, "alice", "alice@example.com")
	bob := register(t, router, "bob", "bob@example.com")
	token := tokenFor(t, router, "alice")

	for _, id := range []string{bob.ID, "usr-does-not-exist"} {
		for _, method := range []string{http.MethodGet, http.MethodDelete} {
			w := userDoRequest(router, method, "/users/"+id, token, nil)
			if w.Code != http.StatusForbidden {
				t.Errorf("%s /users/%s: expected 403, got %d", method, id, w.Code)
			}
		}
		w := userDoRequest(router, http.MethodPut, "/users/"+id, token, map[string]interface{}{"username": "mallory", "email": "m@example.com"})
		if w.Code != http.StatusForbidden {
			t.Errorf("PUT /users/%s: expected 403, got %d", id, w.Code)
		}
	}
}

func TestOwnProfileLifecycle(t *testing.T) {
	router := newUserTestRouter(newMemoryDirectory(t))
	alice := register(t, router, "alice", "alice@example.com")
	token := tokenFor(t, router, "alice")

	w := userDoRequest(router, http.MethodPut, "/users/"+alice.ID, token, map[string]interface{}{
		"username": "alice", "email": "alice@example.org", "address": "1 Main St",
	})
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "alice@example.org") {
		t.Fatalf("update: %d %s", w.Code, w.Body.String())
	}

	w = userDoRequest(router, http.MethodDelete, "/users/"+alice.ID, token, nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "User deleted successfully") {
		t.Fatalf("delete: %d %s", w.Code, w.Body.String())
	}

	// The token still verifies but the row is gone.
	w = userDoRequest(router, http.MethodGet, "/users/"+alice.ID, token, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", w.Code)
	}
}
