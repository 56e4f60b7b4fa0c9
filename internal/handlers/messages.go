package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Turquoise-stack/FLAT-CLUB/internal/services"
	"github.com/Turquoise-stack/FLAT-CLUB/internal/store"
	"github.com/go-chi/chi/v5"
)

// MessageHandler serves direct messages between users.
type MessageHandler struct {
	messages *services.MessageService
	users    *services.UserService
	logger   *slog.Logger
}

func NewMessageHandler(messages *services.MessageService, users *services.UserService, logger *slog.Logger) *MessageHandler {
	return &MessageHandler{messages: messages, users: users, logger: logger}
}

func MessageRouter(r chi.Router, h *MessageHandler, auth func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(auth)
		r.Post("/messages", h.send)
		r.Get("/messages", h.list)
	})
}

type sendMessageRequest struct {
	RecipientID int    `json:"recipient_id"`
	Content     string `json:"content"`
}

func (h *MessageHandler) send(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.users)
	if !ok {
		return
	}

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.RecipientID < 1 {
		writeError(w, http.StatusBadRequest, "recipient_id is required")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}

	message, err := h.messages.Send(r.Context(), actor, req.RecipientID, req.Content)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Recipient not found")
			return
		}
		h.logger.Error("message send failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to send message")
		return
	}

	writeJSON(w, http.StatusCreated, message)
}

func (h *MessageHandler) list(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.users)
	if !ok {
		return
	}

	messages, err := h.messages.ListForUser(r.Context(), actor.ID)
	if err != nil {
		h.logger.Error("message list failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list messages")
		return
	}

	writeJSON(w, http.StatusOK, messages)
}
