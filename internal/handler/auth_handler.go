package handler

import (
	"encoding/json"
	"net/http"

	"clinic-auth-api/internal/middleware"
	"clinic-auth-api/internal/model"
	"clinic-auth-api/internal/service"
)

const tokenTypeBearer = "Bearer"

type AuthHandler struct {
	service *service.AuthService
}

func NewAuthHandler(service *service.AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, model.APIResponse{
			Status:  false,
			Message: "invalid JSON body",
		})
		return
	}

	result, err := h.service.Register(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, model.APIResponse{
		Status:      true,
		Data:        result.User,
		AccessToken: result.PlainToken,
		TokenType:   tokenTypeBearer,
		Message:     "Usuario registrado exitosamente.",
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, model.APIResponse{
			Status:  false,
			Message: "invalid JSON body",
		})
		return
	}

	result, err := h.service.Login(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.APIResponse{
		Status:      true,
		Data:        result.User,
		AccessToken: result.PlainToken,
		TokenType:   tokenTypeBearer,
		Message:     "Inicio de sesión exitoso.",
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrInvalidToken)
		return
	}

	if err := h.service.Logout(r.Context(), principal.Token.ID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.APIResponse{
		Status:  true,
		Message: "Sesión cerrada exitosamente.",
	})
}

func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrInvalidToken)
		return
	}

	user, err := h.service.Profile(r.Context(), principal.User.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.APIResponse{
		Status:  true,
		Data:    user,
		Message: "Datos del perfil del usuario obtenidos.",
	})
}
