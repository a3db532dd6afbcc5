package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"wayfarer/apperror"
	"wayfarer/globals"
	"wayfarer/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"
)

// Handler is a route handler that forwards failures to the terminal error
// handler instead of writing error responses itself.
type Handler func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) error

// Claims is the JWT payload issued at login/signup.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// UserSource resolves a token subject to a live user document.
type UserSource interface {
	UserByID(ctx context.Context, id string) (*models.User, error)
}

// Auth performs bearer-token authentication: extract, verify, resolve the
// user, and reject tokens older than the user's last password change.
type Auth struct {
	Secret []byte
	Users  UserSource
}

func NewAuth(secret string, users UserSource) *Auth {
	return &Auth{Secret: []byte(secret), Users: users}
}

// SignToken issues a token for the given user.
func (a *Auth) SignToken(user *models.User, expiresIn time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.Hex(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.Secret)
}

// Protect authenticates the request and attaches the resolved user to the
// request context for downstream handlers.
func (a *Auth) Protect(next Handler) Handler {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) error {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			return apperror.Unauthorized("You are not logged in! Please log in to get access")
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(header[len("Bearer "):], claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrTokenUnverifiable
			}
			return a.Secret, nil
		})
		if err != nil {
			// classification distinguishes expired from malformed tokens
			return err
		}
		if !token.Valid {
			return apperror.Unauthorized("Invalid token! Please log in again")
		}

		user, err := a.Users.UserByID(r.Context(), claims.Subject)
		if err != nil {
			return apperror.Unauthorized("The user associated with this token no longer exists")
		}

		if claims.IssuedAt != nil && user.ChangedPasswordAfter(claims.IssuedAt.Time) {
			return apperror.Unauthorized("User recently changed password! Please log in again")
		}

		ctx := context.WithValue(r.Context(), globals.UserKey, user)
		return next(w, r.WithContext(ctx), ps)
	}
}

// RestrictTo gates a protected route to the given roles.
func RestrictTo(roles ...string) func(Handler) Handler {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}
	return func(next Handler) Handler {
		return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) error {
			user := UserFrom(r.Context())
			if user == nil || !allowed[user.Role] {
				return apperror.Forbidden("You do not have permission to perform this action")
			}
			return next(w, r, ps)
		}
	}
}

// UserFrom returns the authenticated user attached by Protect, or nil.
func UserFrom(ctx context.Context) *models.User {
	user, _ := ctx.Value(globals.UserKey).(*models.User)
	return user
}
