package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"clinic-auth-api/internal/model"
	"clinic-auth-api/pkg/apierror"
)

func writeJSON(w http.ResponseWriter, status int, resp model.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	resp := model.APIResponse{Status: false, Message: "Unexpected server error"}

	var apiErr *apierror.APIError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatus
		if len(apiErr.Fields) > 0 {
			resp.Message = ""
			resp.Errors = apiErr.Fields
		} else {
			resp.Message = apiErr.Message
		}
	case errors.Is(err, model.ErrInvalidCredentials):
		status = http.StatusUnauthorized
		resp.Message = "Credenciales incorrectas."
	case errors.Is(err, model.ErrInvalidToken), errors.Is(err, model.ErrTokenNotFound):
		status = http.StatusUnauthorized
		resp.Message = "Unauthenticated."
	case errors.Is(err, model.ErrUserNotFound):
		status = http.StatusNotFound
		resp.Message = "User not found"
	default:
		// Persistence and hashing failures land here; details stay out of
		// the response.
		slog.Error("unhandled error in writeError", "error", err.Error())
	}

	writeJSON(w, status, resp)
}
