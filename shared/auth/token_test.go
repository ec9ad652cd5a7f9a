package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/eaglemart/platform/shared/errs"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newTestManager(t *testing.T, secret string, clock *fakeClock) *TokenManager {
	t.Helper()
	m, err := NewTokenManager(secret, "HS256", 30*time.Minute, WithClock(clock.Now))
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}
	return m
}

func TestTokenExpiryBoundary(t *testing.T) {
	issued := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)
	clock := &fakeClock{t: issued}
	m := newTestManager(t, "top-secret", clock)

	tok, err := m.Issue("usr-001")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if !tok.ExpiresAt.Equal(issued.Add(30 * time.Minute)) {
		t.Errorf("ExpiresAt = %v, want issued+30m", tok.ExpiresAt)
	}

	clock.t = issued.Add(29*time.Minute + 59*time.Second)
	claims, err := m.Verify(tok.Token)
	if err != nil {
		t.Fatalf("token rejected before expiry: %v", err)
	}
	if claims.Subject != "usr-001" {
		t.Errorf("Subject = %q, want usr-001", claims.Subject)
	}

	clock.t = issued.Add(30*time.Minute + time.Second)
	if _, err := m.Verify(tok.Token); !errors.Is(err, errs.ErrUnauthenticated) {
		t.Fatalf("expired token: got %v, want ErrUnauthenticated", err)
	}
}

func TestVerifyRejectsForeignSecret(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	issuer := newTestManager(t, "old-secret", clock)
	verifier := newTestManager(t, "rotated-secret", clock)

	tok, err := issuer.Issue("usr-001")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := verifier.Verify(tok.Token); !errors.Is(err, errs.ErrUnauthenticated) {
		t.Fatalf("got %v, want ErrUnauthenticated after secret rotation", err)
	}
}

func TestVerifyRejectsOtherAlgorithms(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	m := newTestManager(t, "top-secret", clock)

	claims := jwt.RegisteredClaims{
		Subject:   "usr-001",
		ExpiresAt: jwt.NewNumericDate(clock.t.Add(time.Hour)),
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.Verify(unsigned); err == nil {
		t.Fatal("alg=none token accepted")
	}

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("top-secret"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.Verify(hs512); err == nil {
		t.Fatal("token signed with a different algorithm accepted")
	}
}

func TestVerifyRequiresExpiry(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	m := newTestManager(t, "top-secret", clock)
	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "usr-001"}).
		SignedString([]byte("top-secret"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.Verify(noExp); err == nil {
		t.Fatal("token without exp accepted")
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	m := newTestManager(t, "top-secret", &fakeClock{t: time.Now()})
	for _, tok := range []string{"", "abc", "a.b.c", strings.Repeat("x", 300)} {
		if _, err := m.Verify(tok); !errors.Is(err, errs.ErrUnauthenticated) {
			t.Errorf("Verify(%q) = %v, want ErrUnauthenticated", tok, err)
		}
	}
}

func TestNewTokenManagerValidation(t *testing.T) {
	if _, err := NewTokenManager("", "HS256", time.Minute); err == nil {
		t.Error("empty secret accepted")
	}
	if _, err := NewTokenManager("s", "RS256", time.Minute); err == nil {
		t.Error("unsupported algorithm accepted")
	}
	if _, err := NewTokenManager("s", "HS256", 0); err == nil {
		t.Error("zero ttl accepted")
	}
}
