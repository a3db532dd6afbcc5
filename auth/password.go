package auth

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"wayfarer/apperror"
	"wayfarer/models"
	"wayfarer/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
)

type forgotPasswordInput struct {
	Email string `json:"email"`
}

// ForgotPassword issues a single-use reset token and mails it. If the
// email cannot be sent the stored token is rolled back so no valid-looking
// credential is left dangling.
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request, _ httprouter.Params) error {
	var input forgotPasswordInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		return apperror.BadRequest("Invalid request body")
	}

	ctx, cancel := contextWithTimeout(r)
	defer cancel()

	var user models.User
	err := h.Users.FindOne(ctx, bson.M{"email": strings.ToLower(input.Email)}).Decode(&user)
	if err != nil {
		return apperror.NotFound("There is no user with this email address")
	}

	resetToken, err := user.CreatePasswordResetToken(time.Now())
	if err != nil {
		return err
	}

	_, err = h.Users.UpdateByID(ctx, user.ID, bson.M{"$set": bson.M{
		"passwordResetToken":   user.PasswordResetToken,
		"passwordResetExpires": user.PasswordResetExpires,
	}})
	if err != nil {
		return err
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	resetURL := fmt.Sprintf("%s://%s/api/v1/users/resetPassword/%s", scheme, r.Host, resetToken)
	message := fmt.Sprintf(
		"Forgot your password? Submit a PATCH request with your new password and passwordConfirm to: %s. "+
			"If you didn't forget your password, please ignore this email.", resetURL)

	if err := h.Mailer.Send(user.Email, "Your password reset token (valid for 10 min)", message); err != nil {
		// roll the token back before reporting failure
		h.Users.UpdateByID(ctx, user.ID, bson.M{"$unset": bson.M{
			"passwordResetToken":   "",
			"passwordResetExpires": "",
		}})
		return apperror.Internal("There was an error sending the email. Please try again later", err)
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"status":  "success",
		"message": "Token sent to email!",
	})
	return nil
}

type resetPasswordInput struct {
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

// ResetPassword consumes a reset token and sets the new password, logging
// the user in with a fresh token.
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request, ps httprouter.Params) error {
	var input resetPasswordInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		return apperror.BadRequest("Invalid request body")
	}
	if err := validateNewPassword(input.Password, input.PasswordConfirm); err != nil {
		return err
	}

	ctx, cancel := contextWithTimeout(r)
	defer cancel()

	hashedToken := models.HashResetToken(ps.ByName("token"))

	var user models.User
	err := h.Users.FindOne(ctx, bson.M{
		"passwordResetToken":   hashedToken,
		"passwordResetExpires": bson.M{"$gt": time.Now()},
	}).Decode(&user)
	if err != nil {
		return apperror.BadRequest("Token is invalid or has expired")
	}

	if err := user.SetPassword(input.Password, time.Now()); err != nil {
		return err
	}
	user.ClearPasswordReset()

	_, err = h.Users.UpdateByID(ctx, user.ID, bson.M{
		"$set": bson.M{
			"password":          user.Password,
			"passwordChangedAt": user.PasswordChangedAt,
		},
		"$unset": bson.M{
			"passwordResetToken":   "",
			"passwordResetExpires": "",
		},
	})
	if err != nil {
		return err
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
