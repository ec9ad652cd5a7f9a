package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/eaglemart/platform/shared/auth"
	"github.com/eaglemart/platform/shared/errs"
)

func newAuthTestRouter(t *testing.T, tm *auth.TokenManager) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", AuthMiddleware(tm), func(c *gin.Context) {
		id, _ := GetUserID(c)
		c.JSON(http.StatusOK, gin.H{"id": id})
	})
	return r
}

func authDoRequest(router *gin.Engine, header string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodGet, "/me", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	issuer, err := auth.NewTokenManager("s3cret", "HS256", 30*time.Minute, auth.WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatal(err)
	}
	valid, err := issuer.Issue("usr-001")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name           string
		header         string
		at             time.Time
		expectedStatus int
		expectedID     string
	}{
		{name: "valid token", header: "Bearer " + valid.Token, at: now.Add(time.Minute), expectedStatus: http.StatusOK, expectedID: "usr-001"},
		{name: "lowercase scheme", header: "bearer " + valid.Token, at: now, expectedStatus: http.StatusOK, expectedID: "usr-001"},
		{name: "missing header", header: "", at: now, expectedStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", at: now, expectedStatus: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer not.a.jwt", at: now, expectedStatus: http.StatusUnauthorized},
		{name: "expired token", header: "Bearer " + valid.Token, at: now.Add(31 * time.Minute), expectedStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			at := tt.at
			verifier, _ := auth.NewTokenManager("s3cret", "HS256", 30*time.Minute, auth.WithClock(func() time.Time { return at }))
			w := authDoRequest(newAuthTestRouter(t, verifier), tt.header)
			if w.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d (body: %s)", tt.expectedStatus, w.Code, w.Body.String())
			}
			var body map[string]string
			_ = json.Unmarshal(w.Body.Bytes(), &body)
			if tt.expectedStatus == http.StatusOK {
				if body["id"] != tt.expectedID {
					t.Errorf("expected id %q, got %q", tt.expectedID, body["id"])
				}
				return
			}
			if w.Header().Get("WWW-Authenticate") != "Bearer" {
				t.Errorf("missing WWW-Authenticate header")
			}
			if body["detail"] == "" {
				t.Errorf("expected a detail message, got %s", w.Body.String())
			}
		})
	}
}

func TestRespondWithAppError(t *testing.T) {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedDetail string
	}{
		{"not found", errs.New(errs.ErrNotFound, "Product not found"), http.StatusNotFound, "Product not found"},
		{"conflict", errs.New(errs.ErrConflict, "Username already registered"), http.StatusConflict, "Username already registered"},
		{"forbidden", errs.New(errs.ErrForbidden, "Not allowed"), http.StatusForbidden, "Not allowed"},
		{"publish failure hides cause", errs.Wrap(errs.ErrPublish, "", errors.New("dial tcp 10.0.0.1:6379: refused")), http.StatusInternalServerError, errs.GenericDetail},
		{"unclassified", errors.New("pq: password authentication failed"), http.StatusInternalServerError, errs.GenericDetail},
		{"upstream", errs.Wrap(errs.ErrUpstream, "Payment provider unavailable", errors.New("503")), http.StatusBadGateway, errs.GenericDetail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gin.SetMode(gin.TestMode)
			r := gin.New()
			r.GET("/x", func(c *gin.Context) { RespondWithAppError(c, tt.err) })
			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodGet, "/x", nil)
			r.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			var body map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if body["detail"] != tt.expectedDetail {
				t.Errorf("expected detail %q, got %q", tt.expectedDetail, body["detail"])
			}
		})
	}
}

type sampleRequest struct {
	Name  string  `json:"name" validate:"required"`
	Email string  `json:"email" validate:"required,email"`
	Price float64 `json:"price" validate:"gt=0"`
}

func TestValidateRequest(t *testing.T) {
	if got := ValidateRequest(sampleRequest{Name: "Widget", Email: "a@b.co", Price: 1}); got != nil {
		t.Fatalf("expected no errors, got %+v", got)
	}

	got := ValidateRequest(sampleRequest{Email: "nope", Price: 0})
	if len(got) != 3 {
		t.Fatalf("expected 3 errors, got %+v", got)
	}
	byField := map[string]ValidationError{}
	for _, e := range got {
		byField[e.Field] = e
	}
	if byField["Name"].Type != "required" || byField["Email"].Type != "email" || byField["Price"].Type != "gt" {
		t.Errorf("unexpected errors %+v", got)
	}
}

type amountRequest struct {
	Amount float64 `json:"amount" validate:"gt=0,money"`
}

func TestValidateRequest_Money(t *testing.T) {
	tests := []struct {
		amount  float64
		wantTag string
	}{
		{9.99, ""},
		{0.01, ""},
		{1250, ""},
		{9999999999.99, ""},
		{9.999, "money"},
		{0.001, "money"},
		{1e10, "money"},
		{0, "gt"},
	}
	for _, tt := range tests {
		got := ValidateRequest(amountRequest{Amount: tt.amount})
		if tt.wantTag == "" {
			if got != nil {
				t.Errorf("amount %v: unexpected errors %+v", tt.amount, got)
			}
			continue
		}
		if len(got) != 1 || got[0].Type != tt.wantTag {
			t.Errorf("amount %v: got %+v, want a %q error", tt.amount, got, tt.wantTag)
		}
	}
}

func TestRespondWithValidationError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/x", func(c *gin.Context) {
		RespondWithValidationError(c, ValidateRequest(sampleRequest{}))
	})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/x", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	var body BadRequestErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Detail != "Invalid request data" || len(body.Errors) == 0 {
		t.Errorf("unexpected body %+v", body)
	}
}
