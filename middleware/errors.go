package middleware

import (
	"log"
	"net/http"
	"runtime/debug"

	"wayfarer/apperror"
	"wayfarer/utils"

	"github.com/julienschmidt/httprouter"
)

// ErrorHandler is the terminal error middleware: every handler error ends
// up here and nowhere else decides the response shape.
type ErrorHandler struct {
	// Development switches the verbose rendering that echoes the raw
	// error and a stack trace.
	Development bool
}

// Wrap adapts an error-returning handler to httprouter, rendering any
// returned error through the normalization rules.
func (eh *ErrorHandler) Wrap(next Handler) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if err := next(w, r, ps); err != nil {
			eh.Render(w, r, err)
		}
	}
}

// Render classifies and writes an error response.
func (eh *ErrorHandler) Render(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperror.Classify(err)

	if !appErr.Operational {
		log.Printf("ERROR %s %s: %v", r.Method, r.URL.Path, err)
	}

	if eh.Development {
		utils.RespondWithJSON(w, appErr.Code, utils.M{
			"status":  appErr.Status(),
			"message": appErr.Message,
			"error":   err.Error(),
			"stack":   string(debug.Stack()),
		})
		return
	}

	if appErr.Operational {
		utils.RespondWithJSON(w, appErr.Code, utils.M{
			"status":  appErr.Status(),
			"message": appErr.Message,
		})
		return
	}

	// programming errors never leak detail to the client
	utils.RespondWithJSON(w, http.StatusInternalServerError, utils.M{
		"status":  "error",
		"message": "Something went wrong!",
	})
}

// NotFoundHandler is the catch-all for unmatched routes.
func (eh *ErrorHandler) NotFoundHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		eh.Render(w, r, apperror.NotFound("Can't find "+r.URL.Path+" on this server"))
	})
}
