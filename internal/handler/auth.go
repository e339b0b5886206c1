package handler

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/dhobi-app/ordering/internal/auth"
	"github.com/go-chi/chi/v5"
)

// AuthHandler issues bearer tokens for the reference backend. There is no
// credential check here: OTP verification belongs to the real backend, and
// this service only exists for development and tests.
type AuthHandler struct {
	jwtSecret string
}

func NewAuthHandler(jwtSecret string) *AuthHandler {
	return &AuthHandler{jwtSecret: jwtSecret}
}

func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/login", h.Login)
}

type loginRequest struct {
	UserID   string `json:"userId"`
	BranchID string `json:"BranchID"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" {
		writeMessage(w, http.StatusBadRequest, "userId is required")
		return
	}

	token, err := auth.GenerateToken(h.jwtSecret, req.UserID, req.BranchID)
	if err != nil {
		log.Printf("ERROR: generate token: %v", err)
		writeMessage(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Token: token})
}
