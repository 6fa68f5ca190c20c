package api

import (
	"net/http/httptest"
	"testing"
	"time"

	"newsforge/internal/config"
)

func testAuth() *authenticator {
	return newAuthenticator(config.Auth{
		Username:        "admin",
		Password:        "secret",
		TokenSecret:     "unit-test-secret",
		TokenTTLMinutes: 30,
	})
}

func TestAuthenticatorRoundTrip(t *testing.T) {
	auth := testAuth()

	token, err := auth.login("admin", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	subject, err := auth.verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if subject != "admin" {
		t.Fatalf("subject = %q", subject)
	}
}

func TestAuthenticatorRejectsBadCredentials(t *testing.T) {
	auth := testAuth()

	if _, err := auth.login("admin", "nope"); err == nil {
		t.Fatal("expected error for wrong password")
	}
	if _, err := auth.login("intruder", "secret"); err == nil {
		t.Fatal("expected error for wrong username")
	}
}

func TestAuthenticatorRejectsExpiredToken(t *testing.T) {
	auth := testAuth()

	issued := time.Now()
	auth.now = func() time.Time { return issued }
	token, err := auth.login("admin", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	auth.now = func() time.Time { return issued.Add(31 * time.Minute) }
	if _, err := auth.verify(token); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestAuthenticatorRejectsForeignSecret(t *testing.T) {
	auth := testAuth()
	token, err := auth.login("admin", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	other := testAuth()
	other.secret = []byte("a different secret entirely")
	if _, err := other.verify(token); err == nil {
		t.Fatal("expected token signed with another secret to be rejected")
	}
}

func TestVerifyRequestBearerParsing(t *testing.T) {
	auth := testAuth()
	token, err := auth.login("admin", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	req := httptest.NewRequest("GET", "/jobs", nil)
	if _, err := auth.verifyRequest(req); err == nil {
		t.Fatal("expected error without Authorization header")
	}

	req.Header.Set("Authorization", token)
	if _, err := auth.verifyRequest(req); err == nil {
		t.Fatal("expected error without Bearer prefix")
	}

	req.Header.Set("Authorization", "Bearer "+token)
	subject, err := auth.verifyRequest(req)
	if err != nil {
		t.Fatalf("verifyRequest: %v", err)
	}
	if subject != "admin" {
		t.Fatalf("subject = %q", subject)
	}
}
