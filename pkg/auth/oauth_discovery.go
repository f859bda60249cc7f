package auth

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// ProtectedResourceMetadataPath is where HandleProtectedResourceMetadata is
// mounted.
const ProtectedResourceMetadataPath = "/.well-known/oauth-protected-resource"

// ProtectedResourceMetadata is the OAuth 2.0 Protected Resource Metadata
// document (RFC 9728). MCP clients read it after a 401 to find out which
// authorization server issues tokens for this endpoint.
type ProtectedResourceMetadata struct {
	Resource               string   `json:"resource"`
	AuthorizationServers   []string `json:"authorization_servers"`
	ScopesSupported        []string `json:"scopes_supported,omitempty"`
	BearerMethodsSupported []string `json:"bearer_methods_supported"`
	ResourceName           string   `json:"resource_name,omitempty"`
}

// NewProtectedResourceMetadata describes resource as protected by the issuers
// of cfg. Issuer order is not significant.
func NewProtectedResourceMetadata(resource string, cfg *JWKSConfig, scope string) ProtectedResourceMetadata {
	servers := make([]string, 0, len(cfg.JWKSEndpoints))
	for issuer := range cfg.JWKSEndpoints {
		servers = append(servers, issuer)
	}
	md := ProtectedResourceMetadata{
		Resource:               resource,
		AuthorizationServers:   servers,
		BearerMethodsSupported: []string{"header"},
		ResourceName:           "ekaya-validator",
	}
	if scope != "" {
		md.ScopesSupported = []string{scope}
	}
	return md
}

// HandleProtectedResourceMetadata serves md as JSON.
func HandleProtectedResourceMetadata(md ProtectedResourceMetadata, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Use GET")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		if err := json.NewEncoder(w).Encode(md); err != nil {
			logger.Error("Failed to encode protected resource metadata", zap.Error(err))
			return
		}

		logger.Debug("Served protected resource metadata",
			zap.String("remote_addr", r.RemoteAddr),
			zap.String("user_agent", r.UserAgent()))
	}
}
