package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"wayfarer/apperror"
)

func TestUserValidateNew(t *testing.T) {
	user := &User{Name: "Jonas", Email: "jonas@example.com"}
	if err := user.ValidateNew("pass1234", "pass1234"); err != nil {
		t.Fatalf("valid signup rejected: %v", err)
	}
}

func TestUserValidateNewPasswordMismatch(t *testing.T) {
	user := &User{Name: "Jonas", Email: "jonas@example.com"}
	err := user.ValidateNew("pass1234", "pass5678")
	if err == nil {
		t.Fatal("mismatched passwordConfirm must be rejected before persistence")
	}
	if _, ok := err.(*apperror.ValidationError); !ok {
		t.Fatalf("error type = %T", err)
	}
	if !strings.Contains(err.Error(), "do not match") {
		t.Errorf("error = %q", err.Error())
	}
}

func TestUserValidateNewBadEmail(t *testing.T) {
	for _, email := range []string{"", "no-at-sign", "a@b", "spaces in@mail.com"} {
		user := &User{Name: "Jonas", Email: email}
		if err := user.ValidateNew("pass1234", "pass1234"); err == nil {
			t.Errorf("email %q accepted", email)
		}
	}
}

func TestUserNormalize(t *testing.T) {
	user := &User{Email: "  Jonas@Example.COM "}
	user.Normalize()
	if user.Email != "jonas@example.com" {
		t.Errorf("email = %q, want lowercased", user.Email)
	}
	if user.Role != RoleUser {
		t.Errorf("role = %q, want default %q", user.Role, RoleUser)
	}
}

func TestSetAndCorrectPassword(t *testing.T) {
	user := &User{}
	now := time.Now()
	if err := user.SetPassword("pass1234", now); err != nil {
		t.Fatal(err)
	}
	if user.Password == "pass1234" {
		t.Fatal("password stored in plain text")
	}
	if !user.CorrectPassword("pass1234") {
		t.Error("correct password rejected")
	}
	if user.CorrectPassword("wrong password") {
		t.Error("wrong password accepted")
	}
	if !user.PasswordChangedAt.Equal(now) {
		t.Errorf("passwordChangedAt = %v, want %v", user.PasswordChangedAt, now)
	}
}

func TestChangedPasswordAfter(t *testing.T) {
	user := &User{}
	if user.ChangedPasswordAfter(time.Now()) {
		t.Error("user without a password change must not invalidate tokens")
	}

	changed := time.Date(2026, time.May, 10, 12, 0, 0, 0, time.UTC)
	user.PasswordChangedAt = changed

	if !user.ChangedPasswordAfter(changed.Add(-time.Hour)) {
		t.Error("token issued before the change must be invalidated")
	}
	if user.ChangedPasswordAfter(changed.Add(time.Hour)) {
		t.Error("token issued after the change must stay valid")
	}
	// same-second issuance stays valid
	if user.ChangedPasswordAfter(changed) {
		t.Error("token issued in the same second must stay valid")
	}
}

func TestCreatePasswordResetToken(t *testing.T) {
	user := &User{}
	now := time.Now()

	token, err := user.CreatePasswordResetToken(now)
	if err != nil {
		t.Fatal(err)
	}
	if token == "" || token == user.PasswordResetToken {
		t.Fatal("plain token must differ from the stored value")
	}
	if user.PasswordResetToken != HashResetToken(token) {
		t.Error("stored token is not the sha256 digest of the plain token")
	}
	if want := now.Add(10 * time.Minute); !user.PasswordResetExpires.Equal(want) {
		t.Errorf("expires = %v, want %v", user.PasswordResetExpires, want)
	}

	user.ClearPasswordReset()
	if user.PasswordResetToken != "" || !user.PasswordResetExpires.IsZero() {
		t.Error("ClearPasswordReset left reset state behind")
	}
}

func TestUserJSONHidesSecrets(t *testing.T) {
	user := &User{Name: "Jonas", Email: "jonas@example.com", Role: RoleUser}
	if err := user.SetPassword("pass1234", time.Now()); err != nil {
		t.Fatal(err)
	}
	if _, err := user.CreatePasswordResetToken(time.Now()); err != nil {
		t.Fatal(err)
	}

	raw, err := json.Marshal(user)
	if err != nil {
		t.Fatal(err)
	}
	body := string(raw)
	for _, field := range []string{"password", "passwordResetToken", "passwordResetExpires", "passwordChangedAt"} {
		if strings.Contains(body, field) {
			t.Errorf("serialized user leaks %q: %s", field, body)
		}
	}
}
