package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"wayfarer/apperror"
	"wayfarer/email"
	"wayfarer/middleware"
	"wayfarer/models"
	"wayfarer/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const dbTimeout = 5 * time.Second

// Handler owns the authentication endpoints.
type Handler struct {
	Users    *mongo.Collection
	Auth     *middleware.Auth
	Mailer   *email.Mailer
	TokenTTL time.Duration
}

func NewHandler(users *mongo.Collection, auth *middleware.Auth, mailer *email.Mailer, tokenTTL time.Duration) *Handler {
	return &Handler{Users: users, Auth: auth, Mailer: mailer, TokenTTL: tokenTTL}
}

func contextWithTimeout(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), dbTimeout)
}

type signupInput struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

// Signup registers a new user and logs them in. The role is always the
// default; privilege escalation via the signup body is not a thing.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request, _ httprouter.Params) error {
	var input signupInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		return apperror.BadRequest("Invalid request body")
	}

	user := &models.User{Name: strings.TrimSpace(input.Name), Email: input.Email}
	if err := user.ValidateNew(input.Password, input.PasswordConfirm); err != nil {
		return err
	}
	user.Normalize()

	now := time.Now()
	if err := user.SetPassword(input.Password, now); err != nil {
		return err
	}
	user.CreatedAt = now

	ctx, cancel := contextWithTimeout(r)
	defer cancel()

	res, err := h.Users.InsertOne(ctx, user)
	if err != nil {
		return err
	}
	user.ID = res.InsertedID.(primitive.ObjectID)

	token, err := h.Auth.SignToken(user, h.TokenTTL)
	if err != nil {
		return err
	}

	utils.RespondWithJSON(w, http.StatusCreated, utils.M{
		"status": "success",
		"token":  token,
		"data":   utils.M{"user": user},
	})
	return nil
}

type loginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login checks the credentials and issues a token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) error {
	var input loginInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		return apperror.BadRequest("Invalid request body")
	}
	if input.Email == "" || input.Password == "" {
		return apperror.BadRequest("Please provide email and password!")
	}

	ctx, cancel := contextWithTimeout(r)
	defer cancel()

	var user models.User
	err := h.Users.FindOne(ctx, bson.M{"email": strings.ToLower(input.Email)}).Decode(&user)
	if err != nil || !user.CorrectPassword(input.Password) {
		return apperror.Unauthorized("Incorrect email or password")
	}

	token, err := h.Auth.SignToken(&user, h.TokenTTL)
	if err != nil {
		return err
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"status": "success",
		"token":  token,
	})
	return nil
}

type updatePasswordInput struct {
	PasswordCurrent string `json:"passwordCurrent"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

// UpdateMyPassword lets a logged-in user rotate their password. The change
// timestamp invalidates every previously issued token.
func (h *Handler) UpdateMyPassword(w http.ResponseWriter, r *http.Request, _ httprouter.Params) error {
	user := middleware.UserFrom(r.Context())
	if user == nil {
		return apperror.Unauthorized("You are not logged in! Please log in to get access")
	}

	var input updatePasswordInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		return apperror.BadRequest("Invalid request body")
	}
	if !user.CorrectPassword(input.PasswordCurrent) {
		return apperror.Unauthorized("Your current password is wrong")
	}
	if err := validateNewPassword(input.Password, input.PasswordConfirm); err != nil {
		return err
	}

	if err := user.SetPassword(input.Password, time.Now()); err != nil {
		return err
	}

	ctx, cancel := contextWithTimeout(r)
	defer cancel()

	_, err := h.Users.UpdateByID(ctx, user.ID, bson.M{"$set": bson.M{
		"password":          user.Password,
		"passwordChangedAt": user.PasswordChangedAt,
	}})
	if err != nil {
		return err
	}

	token, err := h.Auth.SignToken(user, h.TokenTTL)
	if err != nil {
		return err
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"status": "success",
		"token":  token,
	})
	return nil
}

func validateNewPassword(password, passwordConfirm string) error {
	var problems []string
	if len(password) < 8 {
		problems = append(problems, "Password must have at least 8 characters")
	}
	if password != passwordConfirm {
		problems = append(problems, "Passwords do not match")
	}
	if len(problems) > 0 {
		return &apperror.ValidationError{Problems: problems}
	}
	return nil
}
