package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-validator/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-validator/pkg/llm"
	"github.com/ekaya-inc/ekaya-validator/pkg/models"
	"github.com/ekaya-inc/ekaya-validator/pkg/prompts"
	"github.com/ekaya-inc/ekaya-validator/pkg/retry"
)

// ReconciliationRequest is the input to a Reconciler.
type ReconciliationRequest struct {
	TableSchema *models.TableSchema
	FileSchema  *models.Schema
	Comparison  *models.ComparisonResult
	TableName   string
	SourceFile  string
}

// Reconciler maps file columns to table columns beyond exact name matches.
type Reconciler interface {
	Reconcile(ctx context.Context, req ReconciliationRequest) (*models.ReconciliationResult, error)
}

const reconciliationTemperature = 0.1

type llmReconciliationService struct {
	client   llm.LLMClient
	retryCfg *retry.Config
	logger   *zap.Logger
}

// NewLLMReconciliationService creates a Reconciler backed by an LLM.
func NewLLMReconciliationService(client llm.LLMClient, retryCfg *retry.Config, logger *zap.Logger) Reconciler {
	return &llmReconciliationService{
		client:   client,
		retryCfg: retryCfg,
		logger:   logger.Named("reconciliation"),
	}
}

var _ Reconciler = (*llmReconciliationService)(nil)

// Reconcile asks the LLM for a naming map and returns it as given. Any
// failure wraps apperrors.ErrReconciliation.
func (s *llmReconciliationService) Reconcile(ctx context.Context, req ReconciliationRequest) (*models.ReconciliationResult, error) {
	prompt := prompts.BuildReconciliationPrompt(prompts.ReconciliationInput{
		TargetTable: req.TableName,
		SourceFile:  req.SourceFile,
		DBSchema:    req.TableSchema,
		FileColumns: req.FileSchema.Columns,
		Comparison:  *req.Comparison,
	})

	resp, err := retry.DoWithResultIfRateLimited(ctx, s.retryCfg, func() (*llm.GenerateResponseResult, error) {
		return s.client.GenerateResponse(ctx, prompt, prompts.SystemMessage, reconciliationTemperature, false)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrReconciliation, err)
	}

	result, err := llm.ParseJSONResponse[models.ReconciliationResult](resp.Content)
	if err != nil {
		s.logger.Error("Unparseable reconciliation response",
			zap.String("table", req.TableName),
			zap.Int("response_len", len(resp.Content)),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %w", apperrors.ErrReconciliation, err)
	}

	if result.TargetTable == "" {
		result.TargetTable = req.TableName
	}
	if result.SourceFile == "" {
		result.SourceFile = req.SourceFile
	}
	if result.NamingMismatches == nil {
		result.NamingMismatches = models.NamingMap{}
	}

	s.logger.Info("Reconciliation completed",
		zap.String("table", req.TableName),
		zap.Int("mapped_columns", len(result.NamingMismatches)),
		zap.Int("prompt_tokens", resp.PromptTokens))

	return &result, nil
}
