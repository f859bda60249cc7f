package auth

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// Middleware guards handlers with bearer-token authentication.
type Middleware struct {
	authService         AuthService
	requiredScope       string
	resourceMetadataURL string
	logger              *zap.Logger
}

// NewMiddleware creates auth middleware. requiredScope may be empty.
// resourceMetadataURL, when set, is advertised in WWW-Authenticate so clients
// can discover the authorization server.
func NewMiddleware(authService AuthService, requiredScope, resourceMetadataURL string, logger *zap.Logger) *Middleware {
	return &Middleware{
		authService:         authService,
		requiredScope:       requiredScope,
		resourceMetadataURL: resourceMetadataURL,
		logger:              logger.Named("auth-middleware"),
	}
}

// RequireAuth rejects requests without a valid token carrying the required
// scope, and stores the claims in the request context otherwise.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, token, err := m.authService.ValidateRequest(r)
		if err != nil {
			m.unauthorized(w, "Authentication required")
			return
		}

		if !claims.HasScope(m.requiredScope) {
			m.logger.Warn("Token lacks required scope",
				zap.String("subject", claims.Subject),
				zap.String("required_scope", m.requiredScope))
			m.forbidden(w, fmt.Sprintf("Scope %q required", m.requiredScope))
			return
		}

		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims, token)))
	})
}

func (m *Middleware) unauthorized(w http.ResponseWriter, message string) {
	challenge := `Bearer realm="ekaya-validator"`
	if m.resourceMetadataURL != "" {
		challenge += fmt.Sprintf(`, resource_metadata=%q`, m.resourceMetadataURL)
	}
	w.Header().Set("WWW-Authenticate", challenge)
	writeError(w, http.StatusUnauthorized, "unauthorized", message)
}

func (m *Middleware) forbidden(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", fmt.Sprintf(`Bearer error="insufficient_scope", scope=%q`, m.requiredScope))
	writeError(w, http.StatusForbidden, "forbidden", message)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   code,
		"message": message,
	})
}
