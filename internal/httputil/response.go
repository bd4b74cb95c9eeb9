package httputil

import (
	"encoding/json"
	"net/http"

	apperr "github.com/tiendalink/wabot-server-go/internal/errors"
)

func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteError maps an AppError code to an HTTP status. Unknown errors are
// reported as 500 without leaking internals.
func WriteError(w http.ResponseWriter, err error) {
	appErr, ok := apperr.AsAppError(err)
	if !ok {
		WriteJSON(w, http.StatusInternalServerError, map[string]string{
			"code":  string(apperr.ErrCodeInternal),
			"error": "Internal server error",
		})
		return
	}

	status := http.StatusInternalServerError
	switch appErr.Code {
	case apperr.ErrCodeUnauthorized:
		status = http.StatusUnauthorized
	case apperr.ErrCodeNotFound:
		status = http.StatusNotFound
	case apperr.ErrCodeAlreadyConnected:
		status = http.StatusConflict
	case apperr.ErrCodeValidation:
		status = http.StatusBadRequest
	case apperr.ErrCodeRateLimited:
		status = http.StatusTooManyRequests
	case apperr.ErrCodeNotConnected, apperr.ErrCodePairingExpired, apperr.ErrCodeConfiguration:
		status = http.StatusConflict
	case apperr.ErrCodeConnection, apperr.ErrCodeCollaborator:
		status = http.StatusBadGateway
	}

	WriteJSON(w, status, map[string]string{
		"code":  string(appErr.Code),
		"error": appErr.Message,
	})
}
