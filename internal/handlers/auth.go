package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Turquoise-stack/FLAT-CLUB/config"
	"github.com/Turquoise-stack/FLAT-CLUB/internal/services"
	"github.com/Turquoise-stack/FLAT-CLUB/internal/store"
	"github.com/Turquoise-stack/FLAT-CLUB/types"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandler serves registration, login and password management.
type AuthHandler struct {
	users    *services.UserService
	events   services.EventPublisher
	cfg      config.JWTConfig
	validate *validator.Validate
	logger   *slog.Logger
}

func NewAuthHandler(users *services.UserService, events services.EventPublisher, cfg config.JWTConfig, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		users:    users,
		events:   events,
		cfg:      cfg,
		validate: validator.New(),
		logger:   logger,
	}
}

func AuthRouter(r chi.Router, h *AuthHandler) {
	r.Post("/register", h.register)
	r.Post("/login", h.login)
	r.Post("/password-reset", h.passwordReset)

	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)
		r.Post("/change-password", h.changePassword)
	})
}

type registerRequest struct {
	Name        string             `json:"name" validate:"required"`
	Surname     string             `json:"surname" validate:"required"`
	Username    string             `json:"username" validate:"required,min=3"`
	Email       string             `json:"email" validate:"required,email"`
	Password    string             `json:"password" validate:"required,min=6"`
	PhoneNumber string             `json:"phone_number"`
	Bio         string             `json:"bio"`
	Preferences *types.Preferences `json:"preferences"`
	Pets        *types.Pets        `json:"pets"`
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid registration payload")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	user := types.User{
		Name:         req.Name,
		Surname:      req.Surname,
		Username:     req.Username,
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PhoneNumber:  req.PhoneNumber,
		Bio:          req.Bio,
		Role:         "user",
		Preferences:  req.Preferences,
		Pets:         req.Pets,
		PasswordHash: string(hash),
	}

	if _, err := h.users.GetByEmail(r.Context(), user.Email); err == nil {
		writeError(w, http.StatusBadRequest, "Email already registered")
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusInternalServerError, "failed to look up user")
		return
	}
	if _, err := h.users.GetByUsername(r.Context(), user.Username); err == nil {
		writeError(w, http.StatusBadRequest, "Username already taken")
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusInternalServerError, "failed to look up user")
		return
	}

	if _, err := h.users.Create(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			// Lost a race with a concurrent registration.
			writeError(w, http.StatusBadRequest, "Email already registered")
			return
		}
		h.logger.Error("register failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to register user")
		return
	}

	writeJSON(w, http.StatusCreated, MessageResponse{Message: "User registered successfully"})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid login payload")
		return
	}

	user, err := h.users.GetByEmail(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusBadRequest, "Invalid credentials")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to look up user")
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		writeError(w, http.StatusBadRequest, "Invalid credentials")
		return
	}

	token, err := h.issueToken(user.ID)
	if err != nil {
		h.logger.Error("token issue failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}

type passwordResetRequest struct {
	Email       string `json:"email"`
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// passwordReset handles both phases of the reset flow. With only an
// email it issues a short-lived reset token; with a token and a new
// password it verifies the token and updates the stored hash.
func (h *AuthHandler) passwordReset(w http.ResponseWriter, r *http.Request) {
	var req passwordResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Token != "" {
		h.completePasswordReset(w, r, req)
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	user, err := h.users.GetByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to look up user")
		return
	}

	token, err := h.issueResetToken(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to issue reset token")
		return
	}

	if h.events != nil {
		_, err := h.events.PublishJSON(r.Context(), services.EmailsChannel, services.EventPasswordReset, services.PasswordResetEvent{
			UserID: user.ID,
			Email:  user.Email,
			Token:  token,
		})
		if err != nil {
			h.logger.Warn("password reset event publish failed", "error", err)
		}
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Password reset link has been sent to your email"})
}

func (h *AuthHandler) completePasswordReset(w http.ResponseWriter, r *http.Request, req passwordResetRequest) {
	if len(req.NewPassword) < 6 {
		writeError(w, http.StatusBadRequest, "new password must be at least 6 characters")
		return
	}

	userID, err := h.parseResetToken(req.Token)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid token")
		return
	}

	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid token")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	user.PasswordHash = string(hash)
	if _, err := h.users.Update(r.Context(), user); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update password")
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Password updated successfully"})
}

func (h *AuthHandler) changePassword(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.users)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(1 << 20); err != nil {
		if err := r.ParseForm(); err != nil {
			writeError(w, http.StatusBadRequest, "invalid form data")
			return
		}
	}

	current := r.FormValue("current_password")
	next := r.FormValue("new_password")
	if current == "" || next == "" {
		writeError(w, http.StatusBadRequest, "current_password and new_password are required")
		return
	}
	if len(next) < 6 {
		writeError(w, http.StatusBadRequest, "new password must be at least 6 characters")
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(actor.PasswordHash), []byte(current)) != nil {
		writeError(w, http.StatusBadRequest, "Current password is incorrect")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	actor.PasswordHash = string(hash)
	if _, err := h.users.Update(r.Context(), actor); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update password")
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Password changed successfully"})
}

func (h *AuthHandler) issueToken(userID int) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.Itoa(userID),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(h.cfg.TokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.cfg.Secret))
}

const resetAudience = "password-reset"

func (h *AuthHandler) issueResetToken(userID int) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.Itoa(userID),
		Audience:  jwt.ClaimStrings{resetAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(15 * time.Minute)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.cfg.Secret))
}

func (h *AuthHandler) parseResetToken(raw string) (int, error) {
	claims, err := h.parseClaims(raw)
	if err != nil {
		return 0, err
	}

	audiences, err := claims.GetAudience()
	if err != nil || len(audiences) == 0 || audiences[0] != resetAudience {
		return 0, errors.New("not a reset token")
	}
	return strconv.Atoi(claims.Subject)
}

func (h *AuthHandler) parseClaims(raw string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(h.cfg.Secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// RequireAuth validates the bearer token and stores the subject user ID
// in the request context.
func (h *AuthHandler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		claims, err := h.parseClaims(raw)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		audiences, _ := claims.GetAudience()
		if len(audiences) != 0 {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		userID, err := strconv.Atoi(claims.Subject)
		if err != nil || userID < 1 {
			writeError(w, http.StatusUnauthorized, "invalid token subject")
			return
		}

		ctx := context.WithValue(r.Context(), contextSubjectKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
