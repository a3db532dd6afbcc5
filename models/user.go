package models

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"time"

	"wayfarer/apperror"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// User roles.
const (
	RoleUser      = "user"
	RoleGuide     = "guide"
	RoleLeadGuide = "lead-guide"
	RoleAdmin     = "admin"
)

const (
	bcryptCost    = 12
	resetTokenTTL = 10 * time.Minute
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type User struct {
	ID                   primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name                 string             `json:"name" bson:"name"`
	Email                string             `json:"email" bson:"email"`
	Photo                string             `json:"photo,omitempty" bson:"photo,omitempty"`
	Role                 string             `json:"role" bson:"role"`
	Password             string             `json:"-" bson:"password"`
	PasswordChangedAt    time.Time          `json:"-" bson:"passwordChangedAt,omitempty"`
	PasswordResetToken   string             `json:"-" bson:"passwordResetToken,omitempty"`
	PasswordResetExpires time.Time          `json:"-" bson:"passwordResetExpires,omitempty"`
	CreatedAt            time.Time          `json:"-" bson:"created_at"`
}

// ValidateNew checks the signup constraints. passwordConfirm is write-only
// input and never reaches the document.
func (u *User) ValidateNew(password, passwordConfirm string) error {
	var problems []string

	if strings.TrimSpace(u.Name) == "" {
		problems = append(problems, "Please enter your name")
	}
	if !emailPattern.MatchString(u.Email) {
		problems = append(problems, "Invalid email address format")
	}
	if len(password) < 8 {
		problems = append(problems, "Password must have at least 8 characters")
	}
	if password != passwordConfirm {
		problems = append(problems, "Passwords do not match")
	}
	switch u.Role {
	case "", RoleUser, RoleGuide, RoleLeadGuide, RoleAdmin:
	default:
		problems = append(problems, "Role is either: user, guide, lead-guide, admin")
	}

	if len(problems) > 0 {
		return &apperror.ValidationError{Problems: problems}
	}
	return nil
}

// Normalize applies the storage canonicalisation steps: lowercased email
// and the default role.
func (u *User) Normalize() {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Role == "" {
		u.Role = RoleUser
	}
}

// SetPassword hashes and stores the password, recording the change time so
// previously issued tokens can be invalidated.
func (u *User) SetPassword(password string, now time.Time) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return err
	}
	u.Password = string(hash)
	u.PasswordChangedAt = now
	return nil
}

// CorrectPassword compares a candidate against the stored hash.
func (u *User) CorrectPassword(candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(candidate)) == nil
}

// ChangedPasswordAfter reports whether the password was changed after the
// token with the given issued-at time was minted.
func (u *User) ChangedPasswordAfter(issuedAt time.Time) bool {
	if u.PasswordChangedAt.IsZero() {
		return false
	}
	// compare at second precision, matching the token's iat resolution
	return u.PasswordChangedAt.Truncate(time.Second).After(issuedAt.Truncate(time.Second))
}

// CreatePasswordResetToken generates a single-use reset token. The plain
// token goes to the user by email; only its sha256 hex digest is stored.
func (u *User) CreatePasswordResetToken(now time.Time) (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	token := hex.EncodeToString(raw)
	u.PasswordResetToken = HashResetToken(token)
	u.PasswordResetExpires = now.Add(resetTokenTTL)
	return token, nil
}

// ClearPasswordReset drops the reset token, either after consumption or
// when sending the reset email failed.
func (u *User) ClearPasswordReset() {
	u.PasswordResetToken = ""
	u.PasswordResetExpires = time.Time{}
}

// HashResetToken digests a plain reset token the way it is stored.
func HashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
