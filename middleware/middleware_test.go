package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"wayfarer/globals"
	"wayfarer/models"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type stubUsers struct {
	user *models.User
	err  error
}

func (s *stubUsers) UserByID(ctx context.Context, id string) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.user, nil
}

func okHandler(t *testing.T, wantUser bool) Handler {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) error {
		if wantUser && UserFrom(r.Context()) == nil {
			t.Error("user not attached to the request context")
		}
		w.WriteHeader(http.StatusOK)
		return nil
	}
}

func doProtected(t *testing.T, a *Auth, authorization string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	eh := &ErrorHandler{}
	handle := eh.Wrap(a.Protect(okHandler(t, true)))

	r := httptest.NewRequest(http.MethodGet, "/api/v1/tours", nil)
	if authorization != "" {
		r.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	handle(w, r, nil)

	var body map[string]interface{}
	if w.Code != http.StatusOK {
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("invalid error body: %v", err)
		}
	}
	return w, body
}

func TestProtectMissingToken(t *testing.T) {
	a := NewAuth("test-secret", &stubUsers{})
	w, body := doProtected(t, a, "")

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("code = %d, want 401", w.Code)
	}
	if body["status"] != "fail" {
		t.Errorf("status = %v, want fail", body["status"])
	}
}

func TestProtectInvalidAndExpiredAreDistinct(t *testing.T) {
	user := &models.User{ID: primitive.NewObjectID(), Role: models.RoleUser}
	a := NewAuth("test-secret", &stubUsers{user: user})

	expired, err := a.SignToken(user, -time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	wExp, bodyExp := doProtected(t, a, "Bearer "+expired)
	wInv, bodyInv := doProtected(t, a, "Bearer not.a.token")

	if wExp.Code != http.StatusUnauthorized || wInv.Code != http.StatusUnauthorized {
		t.Fatalf("codes = %d/%d, want 401/401", wExp.Code, wInv.Code)
	}
	if bodyExp["message"] == bodyInv["message"] {
		t.Error("expired and invalid tokens must carry distinct messages")
	}
	if bodyExp["message"] != "Your token has expired! Please log in again" {
		t.Errorf("expired message = %v", bodyExp["message"])
	}
}

func TestProtectWrongSecret(t *testing.T) {
	user := &models.User{ID: primitive.NewObjectID(), Role: models.RoleUser}
	other := NewAuth("other-secret", &stubUsers{user: user})
	token, err := other.SignToken(user, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	a := NewAuth("test-secret", &stubUsers{user: user})
	w, _ := doProtected(t, a, "Bearer "+token)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("code = %d, want 401 for a forged signature", w.Code)
	}
}

func TestProtectDeletedUser(t *testing.T) {
	user := &models.User{ID: primitive.NewObjectID(), Role: models.RoleUser}
	a := NewAuth("test-secret", &stubUsers{err: errors.New("no documents")})
	token, err := a.SignToken(user, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	w, body := doProtected(t, a, "Bearer "+token)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("code = %d, want 401", w.Code)
	}
	if body["message"] != "The user associated with this token no longer exists" {
		t.Errorf("message = %v", body["message"])
	}
}

func TestProtectPasswordChangedAfterToken(t *testing.T) {
	user := &models.User{ID: primitive.NewObjectID(), Role: models.RoleUser}
	a := NewAuth("test-secret", &stubUsers{user: user})
	token, err := a.SignToken(user, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	// the password changes after issuance; the token must die
	user.PasswordChangedAt = time.Now().Add(2 * time.Second)

	w, body := doProtected(t, a, "Bearer "+token)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("code = %d, want 401", w.Code)
	}
	if body["message"] != "User recently changed password! Please log in again" {
		t.Errorf("message = %v", body["message"])
	}
}

func TestProtectSuccess(t *testing.T) {
	user := &models.User{ID: primitive.NewObjectID(), Role: models.RoleUser}
	a := NewAuth("test-secret", &stubUsers{user: user})
	token, err := a.SignToken(user, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	w, _ := doProtected(t, a, "Bearer "+token)
	if w.Code != http.StatusOK {
		t.Fatalf("code = %d, want 200: %s", w.Code, w.Body.String())
	}
}

func TestRestrictTo(t *testing.T) {
	gate := RestrictTo(models.RoleAdmin, models.RoleLeadGuide)

	run := func(role string) int {
		eh := &ErrorHandler{}
		handle := eh.Wrap(gate(okHandler(t, false)))
		r := httptest.NewRequest(http.MethodDelete, "/api/v1/tours/x", nil)
		user := &models.User{ID: primitive.NewObjectID(), Role: role}
		r = r.WithContext(context.WithValue(r.Context(), globals.UserKey, user))
		w := httptest.NewRecorder()
		handle(w, r, nil)
		return w.Code
	}

	if code := run(models.RoleUser); code != http.StatusForbidden {
		t.Errorf("user role: code = %d, want 403", code)
	}
	if code := run(models.RoleGuide); code != http.StatusForbidden {
		t.Errorf("guide role: code = %d, want 403", code)
	}
	if code := run(models.RoleAdmin); code != http.StatusOK {
		t.Errorf("admin role: code = %d, want 200", code)
	}
	if code := run(models.RoleLeadGuide); code != http.StatusOK {
		t.Errorf("lead-guide role: code = %d, want 200", code)
	}
}
