package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/jinzhu/inflection"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-validator/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-validator/pkg/jsonutil"
	"github.com/ekaya-inc/ekaya-validator/pkg/llm"
	"github.com/ekaya-inc/ekaya-validator/pkg/models"
	"github.com/ekaya-inc/ekaya-validator/pkg/prompts"
	"github.com/ekaya-inc/ekaya-validator/pkg/retry"
)

// TableRecommender ranks the target tables a sheet most likely belongs to.
type TableRecommender interface {
	// Recommend never returns nil. Failures are reported through the
	// result's Error field.
	Recommend(ctx context.Context, schema *models.Schema) *models.TableRecommendations
}

const tableMatchingTemperature = 0.1

type tableRecommendationService struct {
	provider datasource.SchemaProvider
	client   llm.LLMClient
	retryCfg *retry.Config
	logger   *zap.Logger
}

// NewTableRecommendationService creates a TableRecommender. client may be
// nil, in which case only column-name overlap scoring is used.
func NewTableRecommendationService(provider datasource.SchemaProvider, client llm.LLMClient, retryCfg *retry.Config, logger *zap.Logger) TableRecommender {
	return &tableRecommendationService{
		provider: provider,
		client:   client,
		retryCfg: retryCfg,
		logger:   logger.Named("table-recommendation"),
	}
}

var _ TableRecommender = (*tableRecommendationService)(nil)

func (s *tableRecommendationService) Recommend(ctx context.Context, schema *models.Schema) *models.TableRecommendations {
	result := &models.TableRecommendations{
		Recommendations: []models.TableRecommendation{},
	}
	if schema != nil {
		result.SheetName = schema.SheetName
		result.SourceFileSchema = schema.ColumnNames()
	}
	if result.SourceFileSchema == nil {
		result.SourceFileSchema = []string{}
	}

	if !schema.Usable() {
		result.Error = "schema extraction failed for the file"
		return result
	}

	tables, err := s.provider.ListTables(ctx)
	if err != nil {
		s.logger.Error("Failed to list tables", zap.Error(err))
		result.Error = fmt.Sprintf("list tables: %v", err)
		return result
	}
	if len(tables) == 0 {
		result.Error = "no tables found in the database"
		return result
	}

	if s.client != nil {
		recs, err := s.recommendWithLLM(ctx, result.SourceFileSchema, tables)
		if err == nil && len(recs) > 0 {
			result.Recommendations = recs
			result.Source = models.RecommendationSourceLLM
			return result
		}
		s.logger.Warn("LLM table matching unavailable, falling back to name overlap",
			zap.Int("llm_recommendations", len(recs)),
			zap.Error(err))
	}

	result.Recommendations = RankByNameOverlap(result.SourceFileSchema, tables, models.MaxTableRecommendations)
	result.Source = models.RecommendationSourceNameOverlap
	return result
}

type tableMatchingResponse struct {
	Recommendations []models.TableRecommendation `json:"recommendations"`
}

func (s *tableRecommendationService) recommendWithLLM(ctx context.Context, fileColumns []string, tables map[string][]string) ([]models.TableRecommendation, error) {
	prompt := prompts.BuildTableMatchingPrompt(fileColumns, tables, models.MaxTableRecommendations)

	resp, err := retry.DoWithResultIfRateLimited(ctx, s.retryCfg, func() (*llm.GenerateResponseResult, error) {
		return s.client.GenerateResponse(ctx, prompt, prompts.SystemMessage, tableMatchingTemperature, false)
	})
	if err != nil {
		return nil, err
	}

	parsed, err := llm.ParseJSONResponse[tableMatchingResponse](resp.Content)
	if err != nil {
		return nil, err
	}

	recs := make([]models.TableRecommendation, 0, len(parsed.Recommendations))
	seen := make(map[string]struct{})
	for _, r := range parsed.Recommendations {
		name := string(r.TableName)
		if _, ok := tables[name]; !ok {
			s.logger.Debug("Dropping recommendation for unknown table", zap.String("table", name))
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		r.ConfidenceScore = jsonutil.FlexibleInt(clampScore(int(r.ConfidenceScore)))
		recs = append(recs, r)
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].ConfidenceScore > recs[j].ConfidenceScore
	})
	if len(recs) > models.MaxTableRecommendations {
		recs = recs[:models.MaxTableRecommendations]
	}
	return recs, nil
}

func clampScore(n int) int {
	switch {
	case n < 0:
		return 0
	case n > 100:
		return 100
	}
	return n
}

// RankByNameOverlap scores every table by how many file columns it shares,
// counting exact name matches first and then names that agree after
// case-folding, dropping separators and singularizing ("Order_IDs" and
// "order_id"). Score is matched*100 / max(file columns, table columns).
// Tables with no match are left out; ties sort by table name.
func RankByNameOverlap(fileColumns []string, tables map[string][]string, limit int) []models.TableRecommendation {
	type scored struct {
		table            string
		score            int
		exact, loose     int
		tableColumnCount int
	}

	var candidates []scored
	for table, columns := range tables {
		exactSet := make(map[string]struct{}, len(columns))
		looseSet := make(map[string]struct{}, len(columns))
		for _, c := range columns {
			exactSet[c] = struct{}{}
			looseSet[normalizeColumnName(c)] = struct{}{}
		}

		var exact, loose int
		for _, fc := range fileColumns {
			if _, ok := exactSet[fc]; ok {
				exact++
				continue
			}
			if _, ok := looseSet[normalizeColumnName(fc)]; ok {
				loose++
			}
		}
		if exact+loose == 0 {
			continue
		}

		denom := len(fileColumns)
		if len(columns) > denom {
			denom = len(columns)
		}
		candidates = append(candidates, scored{
			table:            table,
			score:            (exact + loose) * 100 / denom,
			exact:            exact,
			loose:            loose,
			tableColumnCount: len(columns),
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].table < candidates[j].table
	})
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}

	recs := make([]models.TableRecommendation, 0, len(candidates))
	for _, c := range candidates {
		recs = append(recs, models.TableRecommendation{
			TableName:       jsonutil.FlexibleString(c.table),
			ConfidenceScore: jsonutil.FlexibleInt(c.score),
			Reasoning: jsonutil.FlexibleString(fmt.Sprintf(
				"Matched %d of %d file columns against %d table columns (%d exact, %d after normalization).",
				c.exact+c.loose, len(fileColumns), c.tableColumnCount, c.exact, c.loose)),
		})
	}
	return recs
}

// normalizeColumnName lower-cases, drops non-alphanumerics and singularizes.
func normalizeColumnName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return inflection.Singular(b.String())
}
