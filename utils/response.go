package utils

import (
	"encoding/json"
	"net/http"
)

type M map[string]interface{}

// RespondWithJSON sends a JSON response with the given status code.
func RespondWithJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// Success writes the uniform success envelope.
func Success(w http.ResponseWriter, statusCode int, data interface{}) {
	RespondWithJSON(w, statusCode, M{
		"status": "success",
		"data":   data,
	})
}

// SuccessList writes the success envelope for list responses, including
// the result count.
func SuccessList(w http.ResponseWriter, statusCode int, results int, data interface{}) {
	RespondWithJSON(w, statusCode, M{
		"status":  "success",
		"results": results,
		"data":    data,
	})
}
