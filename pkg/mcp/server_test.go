package mcp

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-validator/pkg/auth"
)

type rejectAll struct{}

func (rejectAll) ValidateToken(string) (*auth.Claims, error) { return nil, errors.New("invalid") }
func (rejectAll) Close()                                      {}

func TestNewServer(t *testing.T) {
	s := NewServer("test-server", "1.0.0", nil, zap.NewNop())
	require.NotNil(t, s)
	assert.Same(t, s.mcp, s.MCP())
	assert.NotNil(t, s.NewStreamableHTTPServer())
}

func TestServer_RegisterTool(t *testing.T) {
	s := NewServer("test-server", "1.0.0", nil, zap.NewNop())

	called := false
	s.RegisterTool(mcp.NewTool("echo", mcp.WithDescription("echo")), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		called = true
		return mcp.NewToolResultText("ok"), nil
	})
	assert.False(t, called, "handler should not be called during registration")

	s.MCP().HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","method":"tools/call","id":1,"params":{"name":"echo"}}`))
	assert.True(t, called)
}

func TestServer_Handler(t *testing.T) {
	s := NewServer("test-server", "1.0.0", nil, zap.NewNop())
	mw := auth.NewMiddleware(auth.NewAuthService(rejectAll{}, zap.NewNop()), "", "http://example.com"+auth.ProtectedResourceMetadataPath, zap.NewNop())
	md := auth.NewProtectedResourceMetadata("http://example.com/mcp", &auth.JWKSConfig{
		JWKSEndpoints: map[string]string{"https://auth.example.com": "https://auth.example.com/jwks"},
	}, "")

	srv := httptest.NewServer(s.Handler(mw, &md))
	defer srv.Close()

	resp, err := http.Post(srv.URL+EndpointPath, "application/json",
		strings.NewReader(`{"jsonrpc":"2.0","method":"tools/list","id":1}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("WWW-Authenticate"), "resource_metadata=")

	resp, err = http.Get(srv.URL + auth.ProtectedResourceMetadataPath)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_HandlerWithoutAuth(t *testing.T) {
	s := NewServer("test-server", "1.0.0", nil, zap.NewNop())
	srv := httptest.NewServer(s.Handler(nil, nil))
	defer srv.Close()

	resp, err := http.Get(srv.URL + auth.ProtectedResourceMetadataPath)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
