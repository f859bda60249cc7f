package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-validator/pkg/audit"
	"github.com/ekaya-inc/ekaya-validator/pkg/auth"
	"github.com/ekaya-inc/ekaya-validator/pkg/handlers"
	"github.com/ekaya-inc/ekaya-validator/pkg/mcp"
	"github.com/ekaya-inc/ekaya-validator/pkg/mcp/tools"
	"github.com/ekaya-inc/ekaya-validator/pkg/middleware"
)

const shutdownTimeout = 10 * time.Second

func runServe(ctx context.Context, args []string) error {
	fs, configPath := newFlagSet("serve")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	a, err := newApp(*configPath)
	if err != nil {
		return err
	}
	defer a.close()

	eng, err := a.newEngine(ctx)
	if err != nil {
		return err
	}
	defer eng.close()

	mcpCfg := a.cfg.MCP
	auditLogger := mcp.NewAuditLogger(a.metrics, a.logger)
	srv := mcp.NewServer("ekaya-validator", Version, auditLogger.Hooks(), a.logger)
	tools.RegisterAll(srv.MCP(), &tools.Deps{
		Provider:       eng.provider,
		DatasourceType: a.cfg.Datasource.Type,
		Extractor:      eng.extractor,
		Recommender:    eng.recommender,
		Pipeline:       eng.pipeline,
		FileRoot:       mcpCfg.FileRoot,
		Auditor:        audit.NewSecurityAuditor(a.logger),
		Version:        Version,
		Logger:         a.logger.Named("mcp-tools"),
	})

	var (
		authMW   *auth.Middleware
		metadata *auth.ProtectedResourceMetadata
	)
	if mcpCfg.Auth.Enabled {
		jwksCfg := &auth.JWKSConfig{
			EnableVerification: mcpCfg.Auth.EnableVerification,
			JWKSEndpoints:      mcpCfg.Auth.JWKSEndpoints,
			Audience:           mcpCfg.Auth.Audience,
		}
		validator, err := auth.NewJWKSClient(ctx, jwksCfg)
		if err != nil {
			return fmt.Errorf("failed to initialize JWKS client: %w", err)
		}
		defer validator.Close()

		md := auth.NewProtectedResourceMetadata(mcpCfg.BaseURL+mcp.EndpointPath, jwksCfg, mcpCfg.Auth.RequiredScope)
		metadata = &md
		authMW = auth.NewMiddleware(
			auth.NewAuthService(validator, a.logger),
			mcpCfg.Auth.RequiredScope,
			mcpCfg.BaseURL+auth.ProtectedResourceMetadataPath,
			a.logger,
		)
		if !mcpCfg.Auth.EnableVerification {
			a.logger.Warn("MCP token signatures are not verified; use only for local development")
		}
	}

	mux := http.NewServeMux()
	mux.Handle("/", srv.Handler(authMW, metadata))
	handlers.NewHealthHandler(Version, a.cfg.Datasource.Type, func(ctx context.Context) error {
		_, err := eng.provider.ListTables(ctx)
		return err
	}, a.logger).RegisterRoutes(mux)

	httpServer := &http.Server{
		Addr:              mcpCfg.ListenAddr(),
		Handler:           middleware.RequestLogger(a.logger.Named("http"))(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Starting MCP server",
			zap.String("addr", httpServer.Addr),
			zap.String("endpoint", mcpCfg.BaseURL+mcp.EndpointPath),
			zap.Bool("auth", mcpCfg.Auth.Enabled),
			zap.String("version", Version))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down MCP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
