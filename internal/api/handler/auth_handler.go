package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"loan-ledger/internal/api/handler/dto"
	"loan-ledger/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

const defaultTokenTTL = 24 * time.Hour

// AuthHandler issues development tokens. Identity proper is owned by an
// external provider; this endpoint only lets a caller pick a subject.
type AuthHandler struct {
	cfg    config.AuthConfig
	logger *slog.Logger
	now    func() time.Time
}

func NewAuthHandler(cfg config.AuthConfig, l *slog.Logger) *AuthHandler {
	return &AuthHandler{
		cfg:    cfg,
		logger: l.With("component", "AuthHandler"),
		now:    time.Now,
	}
}

// GenerateBearerToken issues a signed JWT whose subject is the given username.
//
// @Summary Generate a JWT bearer token
// @Description Development only, mounted when server.auth.issueDevTokens is set. Issues an HS256 token whose `sub` claim identifies the principal on every ledger call.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body dto.TokenRequest true "username"
// @Success 200 {object} dto.Envelope{data=dto.TokenResponse} "Token successfully generated"
// @Failure 400 {object} dto.ErrorResponse "Invalid request parameters"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /auth/token [post]
func (h *AuthHandler) GenerateBearerToken(w http.ResponseWriter, r *http.Request) {
	var req dto.TokenRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.Warn("Failed to decode token request", "error", err)
		respondError(w, invalidArgument(err))
		return
	}

	username := strings.TrimSpace(req.Username)
	if username == "" {
		respondError(w, invalidArgument(errors.New("username is required")))
		return
	}

	ttl := h.cfg.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	issuedAt := h.now()
	expiresAt := issuedAt.Add(ttl)

	claims := jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.cfg.JWTSecret))
	if err != nil {
		h.logger.Error("Failed to sign token", "error", err)
		respondError(w, err)
		return
	}

	h.logger.Info("Issued bearer token", "subject", username, "expiresAt", expiresAt)
	respondData(w, http.StatusOK, dto.TokenResponse{Token: "Bearer " + tokenString, ExpiresAt: expiresAt})
}
