package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/Turquoise-stack/FLAT-CLUB/internal/services"
	"github.com/Turquoise-stack/FLAT-CLUB/internal/store"
	"github.com/Turquoise-stack/FLAT-CLUB/types"
	"github.com/go-chi/chi/v5"
)

const (
	defaultUserSkip  = 0
	defaultUserLimit = 10
)

// UserHandler serves profile reads, updates and the user directory.
type UserHandler struct {
	users  *services.UserService
	logger *slog.Logger
}

func NewUserHandler(users *services.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

func UserRouter(r chi.Router, h *UserHandler, auth func(http.Handler) http.Handler) {
	r.Get("/users", h.list)
	r.Get("/users/{userID}", h.get)

	r.Group(func(r chi.Router) {
		r.Use(auth)
		r.Put("/users/{userID}", h.update)
		r.Delete("/users/{userID}", h.remove)
	})
}

type userListResponse struct {
	Total int                 `json:"total"`
	Users []types.UserSummary `json:"users"`
}

func (h *UserHandler) list(w http.ResponseWriter, r *http.Request) {
	skip := defaultUserSkip
	limit := defaultUserLimit

	if raw := strings.TrimSpace(r.URL.Query().Get("skip")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "invalid skip")
			return
		}
		skip = parsed
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	users, total, err := h.users.List(r.Context(), skip, limit)
	if err != nil {
		h.logger.Error("user list failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}

	writeJSON(w, http.StatusOK, userListResponse{Total: total, Users: users})
}

func (h *UserHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

type updateUserRequest struct {
	Name        *string            `json:"name"`
	Surname     *string            `json:"surname"`
	PhoneNumber *string            `json:"phone_number"`
	Bio         *string            `json:"bio"`
	Preferences *types.Preferences `json:"preferences"`
	Pets        *types.Pets        `json:"pets"`
}

func (h *UserHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	actor, ok := requireActor(w, r, h.users)
	if !ok {
		return
	}
	if actor.ID != id && actor.Role != "admin" {
		writeError(w, http.StatusForbidden, "Not authorized to update this profile")
		return
	}

	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Surname != nil {
		user.Surname = *req.Surname
	}
	if req.PhoneNumber != nil {
		user.PhoneNumber = *req.PhoneNumber
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}
	if req.Preferences != nil {
		user.Preferences = req.Preferences
	}
	if req.Pets != nil {
		user.Pets = req.Pets
	}

	updated, err := h.users.Update(r.Context(), user)
	if err != nil {
		h.logger.Error("user update failed", "user_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update user")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *UserHandler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	actor, ok := requireActor(w, r, h.users)
	if !ok {
		return
	}
	if actor.ID != id && actor.Role != "admin" {
		writeError(w, http.StatusForbidden, "Not authorized to delete this profile")
		return
	}

	if err := h.users.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete user")
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "User deleted successfully"})
}
