package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"loan-ledger/internal/config"
	"loan-ledger/internal/domain/ownership"

	"github.com/golang-jwt/jwt/v5"
)

// PrincipalHeader carries the caller identity when bearer auth is disabled.
const PrincipalHeader = "X-Principal-ID"

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p ownership.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the principal resolved by AuthMiddleware.
func PrincipalFrom(ctx context.Context) (ownership.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(ownership.Principal)
	return p, ok && p != ""
}

func AuthMiddleware(cfg config.AuthConfig, logger *slog.Logger) func(http.Handler) http.Handler {
	log := logger.With(slog.String("component", "AuthMiddleware"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var (
				principal ownership.Principal
				err       error
			)
			if cfg.Enabled {
				principal, err = principalFromToken(r, cfg.JWTSecret)
			} else {
				principal, err = principalFromHeader(r)
			}
			if err != nil {
				log.Warn("Rejecting unauthenticated request", "path", r.URL.Path, "error", err)
				writeUnauthorized(w)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

func principalFromHeader(r *http.Request) (ownership.Principal, error) {
	id := strings.TrimSpace(r.Header.Get(PrincipalHeader))
	if id == "" {
		return "", fmt.Errorf("missing %s header", PrincipalHeader)
	}
	return ownership.Principal(id), nil
}

func principalFromToken(r *http.Request, secret string) (ownership.Principal, error) {
	if secret == "" {
		return "", errors.New("no signing secret configured")
	}
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errors.New("missing Authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", errors.New("invalid Authorization header format")
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return "", fmt.Errorf("invalid token: %w", err)
	}
	if claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return ownership.Principal(claims.Subject), nil
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   map[string]string{"message": "Unauthorized"},
	})
}
