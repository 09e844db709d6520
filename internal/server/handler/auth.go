package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"stepup-auth-gateway/internal/server/middleware"
	userservice "stepup-auth-gateway/internal/user/service"
)

type AuthHandler struct {
	auth   *userservice.AuthService
	logger *zap.Logger
}

func NewAuthHandler(auth *userservice.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userResponse struct {
	UserID   string   `json:"userId"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	u, err := h.auth.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, userResponse{
		UserID:   u.ID.String(),
		Username: u.Username,
		Roles:    u.Roles,
	})
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Roles     []string  `json:"roles"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, loginResponse{
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt,
		UserID:    res.UserID.String(),
		Username:  res.Username,
		Roles:     res.Roles,
	})
}

// Me returns the authenticated user's profile from the token identity.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	id := middleware.IdentityFrom(r.Context())
	if id == nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	userID, err := uuid.Parse(id.UserID)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	u, err := h.auth.GetByID(r.Context(), userID)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	if u == nil {
		respondError(w, http.StatusNotFound, "user not found")
		return
	}
	respondJSON(w, http.StatusOK, userResponse{
		UserID:   u.ID.String(),
		Username: u.Username,
		Roles:    u.Roles,
	})
}
