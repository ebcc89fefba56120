package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"argus/core"
	"github.com/golang-jwt/jwt/v5"
)

// errAuthRequired is returned when a mutation has no caller identity and the
// system fallback is disabled
var errAuthRequired = errors.New("authentication required")

type contextKey string

const identityContextKey contextKey = "identity"

// identityClaims are the JWT claims carried by caller tokens
type identityClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// identityMiddleware extracts the caller identity from a Bearer token.
// Requests without a token pass through with no identity; each handler
// decides whether one is required.
func (a *API) identityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The analyze webhook authenticates with its own shared secret
		if r.URL.Path == "/analyze" {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") || a.config.Auth.JWTSecret == "" {
			next.ServeHTTP(w, r)
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		identity, err := a.parseIdentity(tokenString)
		if err != nil {
			a.logger.Warnw("Rejected bearer token", "error", err)
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), identity)))
	})
}

// parseIdentity validates a JWT and maps its claims to an identity
func (a *API) parseIdentity(tokenString string) (*core.Identity, error) {
	claims := &identityClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(a.config.Auth.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}

	role := core.Role(claims.Role)
	if !role.IsValid() {
		role = core.RoleUser
	}
	return &core.Identity{
		ID:    claims.Subject,
		Email: claims.Email,
		Name:  claims.Name,
		Role:  role,
	}, nil
}

func withIdentity(ctx context.Context, identity *core.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// identityFrom returns the caller identity, or nil when unauthenticated
func identityFrom(ctx context.Context) *core.Identity {
	identity, _ := ctx.Value(identityContextKey).(*core.Identity)
	return identity
}

// actor resolves the identity a mutation is attributed to. With no caller
// identity the configured fallback decides between the system identity and
// an auth error.
func (a *API) actor(r *http.Request) (*core.Identity, error) {
	if identity := identityFrom(r.Context()); identity != nil {
		return identity, nil
	}
	if a.config.Auth.AllowSystemFallback {
		return &core.SystemIdentity, nil
	}
	return nil, errAuthRequired
}
