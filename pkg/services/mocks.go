package services

import (
	"context"
	"sync"

	"github.com/ekaya-inc/ekaya-validator/pkg/models"
)

// MockReconciler is a Reconciler for tests. With no ReconcileFunc it maps
// nothing.
type MockReconciler struct {
	ReconcileFunc func(ctx context.Context, req ReconciliationRequest) (*models.ReconciliationResult, error)

	mu    sync.Mutex
	Calls []ReconciliationRequest
}

func (m *MockReconciler) Reconcile(ctx context.Context, req ReconciliationRequest) (*models.ReconciliationResult, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, req)
	m.mu.Unlock()

	if m.ReconcileFunc != nil {
		return m.ReconcileFunc(ctx, req)
	}
	return &models.ReconciliationResult{
		TargetTable:      req.TableName,
		SourceFile:       req.SourceFile,
		NamingMismatches: models.NamingMap{},
	}, nil
}

// MockNarrator is a Narrator for tests. With no NarrateFunc it returns a
// result with no status, so the engine derives one.
type MockNarrator struct {
	NarrateFunc func(ctx context.Context, req NarrativeRequest) (*models.NarrativeResult, error)

	mu    sync.Mutex
	Calls []NarrativeRequest
}

func (m *MockNarrator) Narrate(ctx context.Context, req NarrativeRequest) (*models.NarrativeResult, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, req)
	m.mu.Unlock()

	if m.NarrateFunc != nil {
		return m.NarrateFunc(ctx, req)
	}
	return &models.NarrativeResult{TriagePlan: []models.TriageItem{}}, nil
}

// MockRuleInferrer is a RuleInferrer for tests.
type MockRuleInferrer struct {
	InferRulesFunc func(ctx context.Context, schema *models.Schema) ([]models.DynamicRule, error)

	mu    sync.Mutex
	Calls int
}

func (m *MockRuleInferrer) InferRules(ctx context.Context, schema *models.Schema) ([]models.DynamicRule, error) {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()

	if m.InferRulesFunc != nil {
		return m.InferRulesFunc(ctx, schema)
	}
	return []models.DynamicRule{}, nil
}

// MockTableRecommender is a TableRecommender for tests.
type MockTableRecommender struct {
	RecommendFunc func(ctx context.Context, schema *models.Schema) *models.TableRecommendations

	mu    sync.Mutex
	Calls int
}

func (m *MockTableRecommender) Recommend(ctx context.Context, schema *models.Schema) *models.TableRecommendations {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()

	if m.RecommendFunc != nil {
		return m.RecommendFunc(ctx, schema)
	}
	return &models.TableRecommendations{Recommendations: []models.TableRecommendation{}}
}

// MockValidationPipeline is a ValidationPipelineService for tests.
type MockValidationPipeline struct {
	RunFunc func(ctx context.Context, req ValidationRequest) *models.Report

	mu    sync.Mutex
	Calls []ValidationRequest
}

func (m *MockValidationPipeline) Run(ctx context.Context, req ValidationRequest) *models.Report {
	m.mu.Lock()
	m.Calls = append(m.Calls, req)
	m.mu.Unlock()

	if m.RunFunc != nil {
		return m.RunFunc(ctx, req)
	}
	return &models.Report{TargetTable: req.TableName, State: models.PipelineStateDone}
}

var (
	_ Reconciler                = (*MockReconciler)(nil)
	_ Narrator                  = (*MockNarrator)(nil)
	_ RuleInferrer              = (*MockRuleInferrer)(nil)
	_ TableRecommender          = (*MockTableRecommender)(nil)
	_ ValidationPipelineService = (*MockValidationPipeline)(nil)
)
