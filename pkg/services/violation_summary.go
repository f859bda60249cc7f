package services

import (
	"github.com/ekaya-inc/ekaya-validator/pkg/models"
)

// ViolationSummaryService condenses violation lists for the narrative service.
type ViolationSummaryService interface {
	Summarize(types []models.TypeViolation, quality []models.DataQualityViolation) *models.ViolationSummary
}

type violationSummaryService struct{}

// NewViolationSummaryService creates a new ViolationSummaryService.
func NewViolationSummaryService() ViolationSummaryService {
	return &violationSummaryService{}
}

var _ ViolationSummaryService = (*violationSummaryService)(nil)

// Summarize projects each violation to its summary entry. Primary key
// violations are counted by the records they affect.
func (s *violationSummaryService) Summarize(types []models.TypeViolation, quality []models.DataQualityViolation) *models.ViolationSummary {
	summary := &models.ViolationSummary{
		TypeMismatchSummary:     make([]models.TypeMismatchEntry, 0, len(types)),
		DataQualityIssueSummary: make([]models.DataQualityIssueEntry, 0, len(quality)),
	}
	for _, v := range types {
		summary.TypeMismatchSummary = append(summary.TypeMismatchSummary, models.TypeMismatchEntry{
			Column:   v.Column,
			Expected: v.ExpectedDBType,
			Found:    v.FoundFileType,
		})
	}
	for _, v := range quality {
		summary.DataQualityIssueSummary = append(summary.DataQualityIssueSummary, models.DataQualityIssueEntry{
			Column:   v.Column,
			Check:    v.Check,
			Count:    v.AffectedCount(),
			Severity: v.Severity,
		})
	}
	return summary
}
