package apperror

import (
	"errors"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Classify maps heterogeneous downstream failures onto the error model.
// Already-classified operational errors pass through untouched; known
// driver and token failures become tailored 4xx errors; anything else is
// returned as a non-operational internal error.
func Classify(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}

	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return New(http.StatusBadRequest, valErr.Error())
	}

	if errors.Is(err, primitive.ErrInvalidHex) {
		return New(http.StatusBadRequest, "Invalid ID: the value is not a valid identifier")
	}

	if errors.Is(err, mongo.ErrNoDocuments) {
		return New(http.StatusNotFound, "No document found with that ID")
	}

	if mongo.IsDuplicateKeyError(err) {
		return New(http.StatusBadRequest, "Duplicate field value. Please use another value")
	}

	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return New(http.StatusUnauthorized, "Your token has expired! Please log in again")
	case errors.Is(err, jwt.ErrTokenMalformed),
		errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return New(http.StatusUnauthorized, "Invalid token! Please log in again")
	}

	return &Error{
		Code:    http.StatusInternalServerError,
		Message: "Something went wrong!",
		Err:     err,
	}
}
