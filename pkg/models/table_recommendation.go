package models

import "github.com/ekaya-inc/ekaya-validator/pkg/jsonutil"

// RecommendationSource records how a recommendation list was produced.
type RecommendationSource string

const (
	RecommendationSourceLLM         RecommendationSource = "llm"
	RecommendationSourceNameOverlap RecommendationSource = "name_overlap"
)

// MaxTableRecommendations caps the ranked list.
const MaxTableRecommendations = 3

type TableRecommendation struct {
	TableName       jsonutil.FlexibleString `json:"table_name"`
	ConfidenceScore jsonutil.FlexibleInt    `json:"confidence_score"` // 0-100
	Reasoning       jsonutil.FlexibleString `json:"reasoning"`
}

// TableRecommendations ranks candidate target tables for one sheet.
type TableRecommendations struct {
	SheetName        *string               `json:"sheet_name"`
	SourceFileSchema []string              `json:"source_file_schema"`
	Recommendations  []TableRecommendation `json:"recommendations"`
	Source           RecommendationSource  `json:"source"`
	Error            string                `json:"error,omitempty"`
}
