package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-validator/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-validator/pkg/config"
	"github.com/ekaya-inc/ekaya-validator/pkg/llm"
	"github.com/ekaya-inc/ekaya-validator/pkg/logging"
	"github.com/ekaya-inc/ekaya-validator/pkg/metrics"
	"github.com/ekaya-inc/ekaya-validator/pkg/metrics/datadog"
	"github.com/ekaya-inc/ekaya-validator/pkg/metrics/prompush"
	"github.com/ekaya-inc/ekaya-validator/pkg/repositories"
	"github.com/ekaya-inc/ekaya-validator/pkg/retry"
	"github.com/ekaya-inc/ekaya-validator/pkg/services"
)

// app holds what every command needs once configuration is loaded.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics metrics.Backend
}

func newApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath, Version)
	if err != nil {
		return nil, err
	}

	logger, err := logging.NewLogger(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	backend, err := buildMetrics(cfg.Metrics)
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, logger: logger, metrics: backend}, nil
}

// close flushes metrics and the logger. Flush failures are logged only.
func (a *app) close() {
	if err := a.metrics.Flush(); err != nil {
		a.logger.Warn("Failed to flush metrics", zap.String("backend", a.cfg.Metrics.Backend), zap.Error(err))
	}
	_ = a.logger.Sync()
}

func buildMetrics(cfg config.MetricsConfig) (metrics.Backend, error) {
	switch cfg.Backend {
	case "prometheus":
		b, err := prompush.NewBackend(cfg.Job, cfg.PushgatewayURL)
		if err != nil {
			return nil, err
		}
		return b, nil
	case "datadog":
		b, err := datadog.NewBackend(datadog.Config{
			Addr:       cfg.StatsdAddr,
			Namespace:  cfg.Namespace,
			GlobalTags: cfg.Tags,
		})
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		return metrics.Nop(), nil
	}
}

// openProvider connects to the configured datasource. Loopback hosts are
// rewritten when running in a container.
func (a *app) openProvider(ctx context.Context) (datasource.SchemaProvider, error) {
	ds := a.cfg.Datasource
	ds.Host = config.ResolveHostForDocker(ds.Host)

	provider, err := datasource.NewSchemaProvider(ctx, ds.Type, ds.ProviderConfig(), a.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s datasource: %s", ds.Type, logging.SanitizeError(err))
	}
	return provider, nil
}

// llmClient builds the configured client behind a circuit breaker shared by
// every collaborator of the process.
func (a *app) llmClient() (llm.LLMClient, error) {
	c := a.cfg.LLM
	client, err := llm.NewClientFromConfig(&llm.Config{
		Provider:   c.Provider,
		Endpoint:   c.Endpoint,
		Model:      c.Model,
		APIKey:     c.APIKey,
		APIVersion: c.APIVersion,
		JSONMode:   c.Provider != llm.ProviderAnthropic,
		MaxTokens:  c.MaxTokens,
	}, a.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	breaker := llm.NewCircuitBreaker(llm.DefaultCircuitBreakerConfig())
	return llm.WithCircuitBreaker(client, breaker, a.logger), nil
}

func (a *app) retryConfig() *retry.Config {
	return &retry.Config{
		MaxAttempts:  a.cfg.Retry.MaxAttempts,
		InitialDelay: a.cfg.Retry.InitialDelay,
		MaxDelay:     a.cfg.Retry.MaxDelay,
		Linear:       true,
	}
}

// engine is the validation stack built around one provider and LLM client.
type engine struct {
	provider    datasource.SchemaProvider
	pipeline    services.ValidationPipelineService
	recommender services.TableRecommender
	extractor   services.SchemaExtractionService
}

func (a *app) newEngine(ctx context.Context) (*engine, error) {
	provider, err := a.openProvider(ctx)
	if err != nil {
		return nil, err
	}
	client, err := a.llmClient()
	if err != nil {
		_ = provider.Close()
		return nil, err
	}

	compat, err := services.CompatibilityTableNamed(a.cfg.Pipeline.Compatibility)
	if err != nil {
		_ = provider.Close()
		return nil, err
	}

	retryCfg := a.retryConfig()
	pipeline := services.NewValidationPipelineService(services.PipelineDeps{
		Provider:      provider,
		Reconciler:    services.NewLLMReconciliationService(client, retryCfg, a.logger),
		Narrator:      services.NewLLMNarrativeService(client, retryCfg, a.logger),
		RuleInferrer:  services.NewLLMDynamicRulesService(client, retryCfg, a.logger),
		History:       repositories.NewSchemaHistoryRepository(a.cfg.History.Dir, a.logger),
		HistoryDepth:  a.cfg.History.Depth,
		Compatibility: compat,
		Metrics:       a.metrics,
		Logger:        a.logger,
	})

	return &engine{
		provider:    provider,
		pipeline:    pipeline,
		recommender: services.NewTableRecommendationService(provider, client, retryCfg, a.logger),
		extractor:   services.NewSchemaExtractionService(a.logger),
	}, nil
}

func (e *engine) close() {
	_ = e.provider.Close()
}

func (a *app) newBatch(pipeline services.ValidationPipelineService) services.BatchValidationService {
	pool := llm.NewWorkerPool(llm.WorkerPoolConfig{MaxConcurrent: a.cfg.Pipeline.MaxConcurrent}, a.logger)
	return services.NewBatchValidationService(pipeline, pool, a.logger)
}
