package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Turquoise-stack/FLAT-CLUB/internal/services"
	"github.com/Turquoise-stack/FLAT-CLUB/internal/store"
	"github.com/Turquoise-stack/FLAT-CLUB/types"
	"github.com/go-chi/chi/v5"
)

// GroupHandler serves flatshare groups and their membership flow.
type GroupHandler struct {
	groups *services.GroupService
	users  *services.UserService
	logger *slog.Logger
}

func NewGroupHandler(groups *services.GroupService, users *services.UserService, logger *slog.Logger) *GroupHandler {
	return &GroupHandler{groups: groups, users: users, logger: logger}
}

func GroupRouter(r chi.Router, h *GroupHandler, auth func(http.Handler) http.Handler) {
	r.Get("/groups", h.list)
	r.Get("/groups/{groupID}", h.get)

	r.Group(func(r chi.Router) {
		r.Use(auth)
		r.Post("/groups", h.create)
		r.Delete("/groups/{groupID}", h.remove)
		r.Put("/groups/{groupID}/preferences", h.updatePreferences)
		r.Post("/groups/{groupID}/join-request", h.requestJoin)
		r.Post("/groups/{groupID}/approve-member", h.approveMember)
		r.Post("/groups/{groupID}/reject-member", h.rejectMember)
		r.Delete("/groups/{groupID}/remove-member", h.removeMember)
		r.Delete("/groups/{groupID}/leave", h.leave)
	})
}

type groupListResponse struct {
	Total  int           `json:"total"`
	Groups []types.Group `json:"groups"`
}

func (h *GroupHandler) list(w http.ResponseWriter, r *http.Request) {
	_, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	groups, total, err := h.groups.List(r.Context(), offset, limit)
	if err != nil {
		h.logger.Error("group list failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list groups")
		return
	}

	writeJSON(w, http.StatusOK, groupListResponse{Total: total, Groups: groups})
}

func (h *GroupHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "groupID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	group, err := h.groups.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Group not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load group")
		return
	}

	writeJSON(w, http.StatusOK, group)
}

type createGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ListingID   int    `json:"listing_id"`
}

func (h *GroupHandler) create(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.users)
	if !ok {
		return
	}

	var req createGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.ListingID < 1 {
		writeError(w, http.StatusBadRequest, "listing_id is required")
		return
	}

	group := types.Group{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		ListingID:   req.ListingID,
		OwnerID:     actor.ID,
	}

	created, err := h.groups.Create(r.Context(), group)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusBadRequest, "Listing not found")
			return
		}
		h.logger.Error("group create failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create group")
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *GroupHandler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "groupID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	actor, ok := requireActor(w, r, h.users)
	if !ok {
		return
	}

	if err := h.groups.Delete(r.Context(), id, actor); err != nil {
		h.writeMembershipError(w, err, "failed to delete group")
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Group deleted successfully"})
}

func (h *GroupHandler) updatePreferences(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "groupID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	actor, ok := requireActor(w, r, h.users)
	if !ok {
		return
	}

	var pref types.LifestylePreference
	if err := json.NewDecoder(r.Body).Decode(&pref); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.groups.UpdatePreferences(r.Context(), id, pref, actor); err != nil {
		h.writeMembershipError(w, err, "failed to update preferences")
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Preferences updated successfully"})
}

func (h *GroupHandler) requestJoin(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "groupID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	actor, ok := requireActor(w, r, h.users)
	if !ok {
		return
	}

	if err := h.groups.RequestJoin(r.Context(), id, actor); err != nil {
		h.writeMembershipError(w, err, "failed to request membership")
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Join request sent successfully"})
}

type memberRequest struct {
	UserID int `json:"user_id"`
}

func (h *GroupHandler) memberAction(w http.ResponseWriter, r *http.Request, action func(groupID, memberID int, actor types.User) error, success string) {
	id, err := parseIDParam(r, "groupID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	actor, ok := requireActor(w, r, h.users)
	if !ok {
		return
	}

	var req memberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID < 1 {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	if err := action(id, req.UserID, actor); err != nil {
		h.writeMembershipError(w, err, "membership update failed")
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: success})
}

func (h *GroupHandler) approveMember(w http.ResponseWriter, r *http.Request) {
	h.memberAction(w, r, func(groupID, memberID int, actor types.User) error {
		return h.groups.ApproveMember(r.Context(), groupID, memberID, actor)
	}, "Member approved successfully")
}

func (h *GroupHandler) rejectMember(w http.ResponseWriter, r *http.Request) {
	h.memberAction(w, r, func(groupID, memberID int, actor types.User) error {
		return h.groups.RejectMember(r.Context(), groupID, memberID, actor)
	}, "Member rejected successfully")
}

func (h *GroupHandler) removeMember(w http.ResponseWriter, r *http.Request) {
	h.memberAction(w, r, func(groupID, memberID int, actor types.User) error {
		return h.groups.RemoveMember(r.Context(), groupID, memberID, actor)
	}, "Member removed successfully")
}

func (h *GroupHandler) leave(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "groupID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	actor, ok := requireActor(w, r, h.users)
	if !ok {
		return
	}

	if err := h.groups.Leave(r.Context(), id, actor); err != nil {
		h.writeMembershipError(w, err, "failed to leave group")
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Left the group successfully"})
}

// writeMembershipError maps service errors to the responses the SPA
// matches on: membership conflicts are 400 with exact wording,
// authorization failures are 403, missing rows are 404.
func (h *GroupHandler) writeMembershipError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrAlreadyRequested),
		errors.Is(err, services.ErrAlreadyMember),
		errors.Is(err, services.ErrNoPendingRequest),
		errors.Is(err, services.ErrNotActiveMember),
		errors.Is(err, services.ErrOwnerImmutable),
		errors.Is(err, services.ErrOwnerCannotLeave):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrNotGroupManager):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Group not found")
	default:
		h.logger.Error("group operation failed", "error", err)
		writeError(w, http.StatusInternalServerError, fallback)
	}
}
