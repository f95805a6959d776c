package server

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/vidmill/vidmill/auth"
	"github.com/vidmill/vidmill/database"
	"github.com/vidmill/vidmill/models"
)

type registerReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

// @Summary Register a new account
// @Tags auth
// @Produce json
// @Router /auth/register [post]
func (s *Server) registerHandler(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" || req.Email == "" {
		writeErrorResponse(w, http.StatusBadRequest, "username, password and email are required")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	user := models.NewUser(req.Username, req.Email, hash)
	if _, err := s.users.Create(r.Context(), user); err != nil {
		log.Error().Err(err).Str("email", req.Email).Msg("failed to register user")
		writeErrorResponse(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	log.Info().Str("email", req.Email).Msg("user registered")
	writeJSONResponse(w, http.StatusCreated, map[string]string{
		"message": "User registered successfully",
	})
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResp struct {
	Message string         `json:"message"`
	Token   string         `json:"token"`
	User    models.Summary `json:"user"`
}

// @Summary Log in and receive a bearer token
// @Tags auth
// @Produce json
// @Router /auth/login [post]
func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := s.users.FindByEmail(r.Context(), req.Email)
	if err != nil {
		if err == database.ErrNotFound {
			writeErrorResponse(w, http.StatusUnauthorized, "Authentication failed")
			return
		}
		writeErrorResponse(w, http.StatusInternalServerError, "Login failed")
		return
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		writeErrorResponse(w, http.StatusUnauthorized, "Authentication failed")
		return
	}

	token, err := s.tokens.Issue(user.ID.Hex())
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, "Login failed")
		return
	}

	writeJSONResponse(w, http.StatusOK, loginResp{
		Message: "Login successful",
		Token:   token,
		User:    user.Summary(),
	})
}
