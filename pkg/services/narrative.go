package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-validator/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-validator/pkg/jsonutil"
	"github.com/ekaya-inc/ekaya-validator/pkg/llm"
	"github.com/ekaya-inc/ekaya-validator/pkg/models"
	"github.com/ekaya-inc/ekaya-validator/pkg/prompts"
	"github.com/ekaya-inc/ekaya-validator/pkg/retry"
)

// NarrativeRequest is the input to a Narrator.
type NarrativeRequest struct {
	SchemaAnalysis *models.ReconciliationResult
	Violations     *models.ViolationSummary
	History        []models.HistorySnapshot
}

// Narrator turns deterministic findings into prose, a score and a plan.
type Narrator interface {
	Narrate(ctx context.Context, req NarrativeRequest) (*models.NarrativeResult, error)
}

const narrativeTemperature = 0.3

type llmNarrativeService struct {
	client   llm.LLMClient
	retryCfg *retry.Config
	logger   *zap.Logger
}

// NewLLMNarrativeService creates a Narrator backed by an LLM.
func NewLLMNarrativeService(client llm.LLMClient, retryCfg *retry.Config, logger *zap.Logger) Narrator {
	return &llmNarrativeService{
		client:   client,
		retryCfg: retryCfg,
		logger:   logger.Named("narrative"),
	}
}

var _ Narrator = (*llmNarrativeService)(nil)

func (s *llmNarrativeService) Narrate(ctx context.Context, req NarrativeRequest) (*models.NarrativeResult, error) {
	var violations models.ViolationSummary
	if req.Violations != nil {
		violations = *req.Violations
	}

	prompt := prompts.BuildNarrativePrompt(prompts.NarrativeInput{
		SchemaAnalysis: req.SchemaAnalysis,
		Violations:     violations,
		History:        req.History,
	})

	resp, err := retry.DoWithResultIfRateLimited(ctx, s.retryCfg, func() (*llm.GenerateResponseResult, error) {
		return s.client.GenerateResponse(ctx, prompt, prompts.SystemMessage, narrativeTemperature, false)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrNarrative, err)
	}

	result, err := llm.ParseJSONResponse[models.NarrativeResult](resp.Content)
	if err != nil {
		s.logger.Error("Unparseable narrative response",
			zap.Int("response_len", len(resp.Content)),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %w", apperrors.ErrNarrative, err)
	}

	EnforceSeverityCounts(&result.ValidationSummary, violations)

	s.logger.Info("Narrative completed",
		zap.String("status", string(result.ValidationSummary.Status)),
		zap.Int("score", int(result.DataQualityScore.Score)),
		zap.Int("history_snapshots", len(req.History)))

	return &result, nil
}

// EnforceSeverityCounts overwrites the narrative's severity counts with the
// engine's own tallies and derives a status when the narrative gave none the
// report recognizes.
func EnforceSeverityCounts(summary *models.ValidationSummary, violations models.ViolationSummary) {
	high, medium, low := violations.SeverityCounts()
	summary.HighSeverityIssues = jsonutil.FlexibleInt(high)
	summary.MediumSeverityIssues = jsonutil.FlexibleInt(medium)
	summary.LowSeverityIssues = jsonutil.FlexibleInt(low)

	switch string(summary.Status) {
	case models.StatusPassed, models.StatusPassedWithWarnings, models.StatusFailed:
		return
	}
	switch {
	case high > 0:
		summary.Status = models.StatusFailed
	case medium+low > 0:
		summary.Status = models.StatusPassedWithWarnings
	default:
		summary.Status = models.StatusPassed
	}
}
