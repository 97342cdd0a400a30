package utils

import (
	"net/http"

	"github.com/go-json-experiment/json"
	"github.com/rs/zerolog/log"
)

// RespondJSON 发送JSON响应
func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.MarshalWrite(w, payload); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

// RespondError 发送错误响应
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, map[string]string{"error": message})
}

// RespondFieldError 发送带字段信息的校验错误响应
func RespondFieldError(w http.ResponseWriter, status int, field, reason string) {
	message := reason
	if field != "" {
		message = field + ": " + reason
	}
	RespondJSON(w, status, map[string]string{
		"error":  message,
		"field":  field,
		"reason": reason,
	})
}

// RespondNoContent 发送204响应
func RespondNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
