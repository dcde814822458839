package utils

import (
	"encoding/json"
	"net/http"
)

func JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func Error(w http.ResponseWriter, code int, msg string) {
	JSON(w, code, map[string]string{"error": msg})
}

// FieldError reports a validation failure tied to one input field.
func FieldError(w http.ResponseWriter, field, msg string) {
	JSON(w, http.StatusBadRequest, map[string]any{
		"errors": map[string]string{field: msg},
	})
}
