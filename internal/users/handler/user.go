package handler

import (
	"encoding/json"
	"net/http"

	"rentio/internal/users/service"
	"rentio/pkg/auth"
	"rentio/pkg/config"
	apperrors "rentio/pkg/errors"
	httputil "rentio/pkg/http"
	"rentio/pkg/logger"
	"rentio/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type UserHandler struct {
	service service.UserService
	tokens  *auth.TokenManager
	cfg     *config.Config
	log     *logger.Logger
}

func NewUserHandler(service service.UserService, tokens *auth.TokenManager, cfg *config.Config) *UserHandler {
	return &UserHandler{
		service: service,
		tokens:  tokens,
		cfg:     cfg,
		log:     cfg.Log,
	}
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input model.UserRegister
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.writeError(w, "Register", apperrors.InvalidInput("Invalid request body"))
		return
	}

	user, err := h.service.Register(r.Context(), &input)
	if err != nil {
		h.writeError(w, "Register", err)
		return
	}

	if err := h.startSession(w, user); err != nil {
		h.writeError(w, "Register", err)
		return
	}

	if err := httputil.WriteCreated(w, user); err != nil {
		h.log.Error("failed to write created response", "handler", "Register", "error", err)
	}
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input model.UserLogin
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.writeError(w, "Login", apperrors.InvalidInput("Invalid request body"))
		return
	}

	user, err := h.service.Login(r.Context(), &input)
	if err != nil {
		h.writeError(w, "Login", err)
		return
	}

	if err := h.startSession(w, user); err != nil {
		h.writeError(w, "Login", err)
		return
	}

	if err := httputil.WriteSuccess(w, user); err != nil {
		h.log.Error("failed to write success response", "handler", "Login", "error", err)
	}
}

// Refresh rotates the cookie pair using the refresh token. The access cookie
// being expired is fine; the refresh cookie must still be valid.
func (h *UserHandler) Refresh(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	cookie, err := r.Cookie(auth.RefreshCookieName)
	if err != nil || cookie.Value == "" {
		h.writeError(w, "Refresh", apperrors.Unauthorized("Refresh token missing"))
		return
	}

	claims, err := h.tokens.Validate(cookie.Value, auth.TokenTypeRefresh)
	if err != nil {
		h.writeError(w, "Refresh", apperrors.Unauthorized("Invalid or expired refresh token"))
		return
	}

	user, err := h.service.GetByID(r.Context(), claims.UserID)
	if err != nil {
		h.writeError(w, "Refresh", apperrors.Unauthorized("Invalid or expired refresh token"))
		return
	}

	if err := h.startSession(w, user); err != nil {
		h.writeError(w, "Refresh", err)
		return
	}

	if err := httputil.WriteSuccess(w, user); err != nil {
		h.log.Error("failed to write success response", "handler", "Refresh", "error", err)
	}
}

func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	auth.ClearSessionCookies(w, h.cfg.SecureCookies)
	httputil.WriteNoContent(w)
}

func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	principal := auth.PrincipalFrom(r.Context())
	if principal == nil {
		h.writeError(w, "GetProfile", apperrors.Unauthorized("Authentication required"))
		return
	}

	user, err := h.service.GetByID(r.Context(), principal.UserID)
	if err != nil {
		h.writeError(w, "GetProfile", err)
		return
	}

	if err := httputil.WriteSuccess(w, user); err != nil {
		h.log.Error("failed to write success response", "handler", "GetProfile", "error", err)
	}
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	principal := auth.PrincipalFrom(r.Context())
	if principal == nil {
		h.writeError(w, "UpdateProfile", apperrors.Unauthorized("Authentication required"))
		return
	}

	var updates model.UserUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		h.writeError(w, "UpdateProfile", apperrors.InvalidInput("Invalid request body"))
		return
	}

	user, err := h.service.Update(r.Context(), principal.UserID, &updates)
	if err != nil {
		h.writeError(w, "UpdateProfile", err)
		return
	}

	if err := httputil.WriteSuccess(w, user); err != nil {
		h.log.Error("failed to write success response", "handler", "UpdateProfile", "error", err)
	}
}

func (h *UserHandler) startSession(w http.ResponseWriter, user *model.User) error {
	pair, err := h.tokens.IssuePair(user)
	if err != nil {
		return apperrors.Internal("Failed to issue session tokens", err)
	}
	auth.SetSessionCookies(w, pair, h.cfg.SecureCookies)
	return nil
}

func (h *UserHandler) writeError(w http.ResponseWriter, handlerName string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handlerName, "error", writeErr)
	}
}

func (h *UserHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/auth/register", h.Register)
	router.POST("/api/v1/auth/login", h.Login)
	router.POST("/api/v1/auth/refresh", h.Refresh)
	router.POST("/api/v1/auth/logout", h.Logout)
	router.GET("/api/v1/users/me", h.GetProfile)
	router.PATCH("/api/v1/users/me", h.UpdateProfile)
}
