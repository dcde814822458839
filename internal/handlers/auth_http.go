package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"retiro-api/internal/service"
	"retiro-api/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type AuthHTTP struct {
	svc      *service.AuthService
	loginURL string // activation redirect target
	log      zerolog.Logger
}

func NewAuthHTTP(svc *service.AuthService, loginURL string, log zerolog.Logger) *AuthHTTP {
	return &AuthHTTP{svc: svc, loginURL: loginURL, log: log}
}

// POST /auth/login
func (h *AuthHTTP) Login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			utils.Error(w, http.StatusBadRequest, "invalid json")
			return
		}

		token, u, err := h.svc.Login(r.Context(), in.Username, in.Password)
		if err != nil {
			if errors.Is(err, service.ErrInvalidCredentials) {
				utils.Error(w, http.StatusUnauthorized, "Credenciales inválidas")
				return
			}
			h.log.Error().Err(err).Msg("login failed")
			utils.Error(w, http.StatusInternalServerError, "Error interno")
			return
		}

		utils.JSON(w, http.StatusOK, map[string]string{
			"token":    token,
			"username": u.Username,
			"role":     u.Role,
		})
	}
}

// POST /auth/register
func (h *AuthHTTP) Register() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in service.RegisterInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			utils.Error(w, http.StatusBadRequest, "invalid json")
			return
		}

		_, err := h.svc.Register(r.Context(), in)
		if err != nil {
			var fe *service.FieldError
			switch {
			case errors.As(err, &fe):
				utils.FieldError(w, fe.Field, fe.Message)
			case errors.Is(err, service.ErrCaptchaFailed):
				utils.Error(w, http.StatusBadRequest, "Verificación de captcha fallida")
			default:
				// creation failures stay generic; detail goes to the log only
				h.log.Error().Err(err).Msg("register failed")
				utils.Error(w, http.StatusInternalServerError, "Error interno")
			}
			return
		}

		utils.JSON(w, http.StatusCreated, map[string]string{
			"message": "Usuario creado. Revisá tu correo para activar la cuenta.",
		})
	}
}

// GET /auth/activate/{uid}/{token}/
func (h *AuthHTTP) Activate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid := chi.URLParam(r, "uid")
		token := chi.URLParam(r, "token")

		if err := h.svc.Activate(r.Context(), uid, token); err != nil {
			if errors.Is(err, service.ErrInvalidActivation) {
				utils.Error(w, http.StatusBadRequest, "Enlace de activación inválido o vencido")
				return
			}
			h.log.Error().Err(err).Msg("activation failed")
			utils.Error(w, http.StatusInternalServerError, "Error interno")
			return
		}

		http.Redirect(w, r, h.loginURL, http.StatusFound)
	}
}
