package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-validator/pkg/llm"
	"github.com/ekaya-inc/ekaya-validator/pkg/models"
	"github.com/ekaya-inc/ekaya-validator/pkg/prompts"
	"github.com/ekaya-inc/ekaya-validator/pkg/retry"
)

// RuleInferrer suggests validation rules from a file schema's samples.
type RuleInferrer interface {
	InferRules(ctx context.Context, schema *models.Schema) ([]models.DynamicRule, error)
}

const dynamicRulesTemperature = 0.2

type llmDynamicRulesService struct {
	client   llm.LLMClient
	retryCfg *retry.Config
	logger   *zap.Logger
}

// NewLLMDynamicRulesService creates a RuleInferrer backed by an LLM.
func NewLLMDynamicRulesService(client llm.LLMClient, retryCfg *retry.Config, logger *zap.Logger) RuleInferrer {
	return &llmDynamicRulesService{
		client:   client,
		retryCfg: retryCfg,
		logger:   logger.Named("dynamic-rules"),
	}
}

var _ RuleInferrer = (*llmDynamicRulesService)(nil)

// InferRules returns the rules the LLM proposes for columns that exist in the
// schema with a recognized rule type. Other entries are dropped.
func (s *llmDynamicRulesService) InferRules(ctx context.Context, schema *models.Schema) ([]models.DynamicRule, error) {
	if !schema.Usable() {
		return []models.DynamicRule{}, nil
	}

	prompt := prompts.BuildDynamicRulesPrompt(schema.Columns)

	resp, err := retry.DoWithResultIfRateLimited(ctx, s.retryCfg, func() (*llm.GenerateResponseResult, error) {
		return s.client.GenerateResponse(ctx, prompt, prompts.SystemMessage, dynamicRulesTemperature, false)
	})
	if err != nil {
		return nil, fmt.Errorf("infer dynamic rules: %w", err)
	}

	rules, err := llm.ParseJSONResponse[[]models.DynamicRule](resp.Content)
	if err != nil {
		return nil, fmt.Errorf("parse dynamic rules: %w", err)
	}

	kept := make([]models.DynamicRule, 0, len(rules))
	for _, r := range rules {
		if !schema.Columns.Has(r.Column) || !isKnownRuleType(r.RuleType) {
			s.logger.Debug("Dropping inferred rule",
				zap.String("column", r.Column),
				zap.String("rule_type", string(r.RuleType)))
			continue
		}
		r.Error = ""
		kept = append(kept, r)
	}
	return kept, nil
}

func isKnownRuleType(t models.DynamicRuleType) bool {
	switch t {
	case models.RuleFormatCheck, models.RuleEnumCheck, models.RuleRangeCheck:
		return true
	}
	return false
}
