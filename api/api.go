// Package api exposes the HTTP surface around the relay core: account
// registration and login, the user directory and room management.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/parleychat/parley-server/auth"
	"github.com/parleychat/parley-server/db"
)

type Handler struct {
	DB       *db.DB
	Auth     *auth.Service
	validate *validator.Validate
}

func NewHandler(database *db.DB, authSvc *auth.Service) *Handler {
	return &Handler{
		DB:       database,
		Auth:     authSvc,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /register", h.handleRegister)
	mux.HandleFunc("POST /login", h.handleLogin)
	mux.HandleFunc("GET /users", h.handleListUsers)
	mux.HandleFunc("GET /rooms", h.handleListRooms)
	mux.HandleFunc("POST /rooms", h.requireRole(db.RoleAdmin, h.handleCreateRoom))
	mux.HandleFunc("PUT /rooms/{id}", h.requireRole(db.RoleAdmin, h.handleUpdateRoom))
	mux.HandleFunc("DELETE /rooms/{id}", h.requireRole(db.RoleAdmin, h.handleDeleteRoom))
}

type registerRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"omitempty,oneof=USER ADMIN"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !h.decode(w, r, &req) {
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	user, err := h.DB.CreateUser(req.Name, req.Email, hash, req.Role)
	if err != nil {
		slog.Warn("registration failed", "email", req.Email, "err", err)
		writeError(w, http.StatusBadRequest, "email already exists or invalid input")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.DB.GetUserByEmail(req.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server error during login")
		return
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := h.Auth.Issue(user.ID, user.Role)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server error during login")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": token, "user": user})
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.DB.ListUsers()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch users")
		return
	}
	if users == nil {
		users = []db.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

type roomRequest struct {
	Name       string `json:"name" validate:"required"`
	Topic      string `json:"topic"`
	BotEnabled bool   `json:"botEnabled"`
}

func (h *Handler) handleListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.DB.ListRooms()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch rooms")
		return
	}
	if rooms == nil {
		rooms = []db.Room{}
	}
	writeJSON(w, http.StatusOK, rooms)
}

func (h *Handler) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req roomRequest
	if !h.decode(w, r, &req) {
		return
	}
	room, err := h.DB.CreateRoom(req.Name, req.Topic, req.BotEnabled)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create room")
		return
	}
	writeJSON(w, http.StatusOK, room)
}

func (h *Handler) handleUpdateRoom(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid room id")
		return
	}
	var req roomRequest
	if !h.decode(w, r, &req) {
		return
	}
	room, err := h.DB.UpdateRoom(id, req.Name, req.Topic, req.BotEnabled)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update room")
		return
	}
	if room == nil {
		writeError(w, http.StatusNotFound, "room not found")
		return
	}
	writeJSON(w, http.StatusOK, room)
}

func (h *Handler) handleDeleteRoom(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid room id")
		return
	}
	if err := h.DB.DeleteRoom(id); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete room")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "room deleted"})
}

// requireRole gates a handler on a bearer token carrying the given role.
func (h *Handler) requireRole(role string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			writeError(w, http.StatusUnauthorized, "missing token")
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		claims, err := h.Auth.VerifyClaims(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		if claims.Role != role {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		next(w, r)
	}
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
