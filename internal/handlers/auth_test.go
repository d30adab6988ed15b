package handlers

import (
	"net/http"
	"testing"

	"flux_irrigation/internal/service"
)

func TestAuthHandlers_SignUpAndSignIn(t *testing.T) {
	auth := &mockAuth{signUpID: 42, genTokenToken: "tok123", parseID: 1}
	s := &service.Service{Authorization: auth}
	r := newTestRouter(s)

	// sign-up success
	w := do(r, http.MethodPost, "/auth/sign-up", `{"username":"u","password":"p"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("sign-up status=%d, body=%s", w.Code, w.Body.String())
	}
	m := decodeMap(t, w)
	if int(m["id"].(float64)) != 42 {
		t.Fatalf("expected id=42, got %v", m["id"])
	}
	if auth.lastSignUpUsername != "u" || auth.lastSignUpPassword != "p" {
		t.Fatalf("credentials not forwarded: %q/%q", auth.lastSignUpUsername, auth.lastSignUpPassword)
	}

	// sign-in success
	w = do(r, http.MethodPost, "/auth/sign-in", `{"username":"u","password":"p"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("sign-in status=%d, body=%s", w.Code, w.Body.String())
	}
	m = decodeMap(t, w)
	if m["token"] != "tok123" {
		t.Fatalf("expected token tok123, got %v", m["token"])
	}

	// sign-in invalid body → 400
	w = do(r, http.MethodPost, "/auth/sign-in", `{"username":1}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad body, got %d", w.Code)
	}
}

func TestAuthHandlers_SignUpClosed(t *testing.T) {
	s := &service.Service{Authorization: &mockAuth{signUpErr: service.ErrSignUpClosed}}
	r := newTestRouter(s)

	w := do(r, http.MethodPost, "/auth/sign-up", `{"username":"second","password":"p"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d (%s)", w.Code, w.Body.String())
	}
}

func TestAuthHandlers_SignInRejected(t *testing.T) {
	s := &service.Service{Authorization: &mockAuth{genTokenErr: service.ErrInvalidPassword}}
	r := newTestRouter(s)

	w := do(r, http.MethodPost, "/auth/sign-in", `{"username":"u","password":"bad"}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if got := decodeMap(t, w)["error"]; got != "invalid credentials" {
		t.Fatalf("error leaked detail: %v", got)
	}
}
