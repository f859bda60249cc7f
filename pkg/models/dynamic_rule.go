package models

import "github.com/ekaya-inc/ekaya-validator/pkg/jsonutil"

// DynamicRuleType classifies an inferred validation rule.
type DynamicRuleType string

const (
	RuleFormatCheck DynamicRuleType = "format_check"
	RuleEnumCheck   DynamicRuleType = "enum_check"
	RuleRangeCheck  DynamicRuleType = "range_check"
)

// DynamicRulesFailureMessage is the placeholder error entry written when
// inference fails.
const DynamicRulesFailureMessage = "Failed to generate dynamic rules"

// DynamicRule is a validation rule suggested from column samples. A rule with
// Error set is a placeholder for failed inference.
type DynamicRule struct {
	Column              string                      `json:"column,omitempty"`
	RuleType            DynamicRuleType             `json:"rule_type,omitempty"`
	InferredFromSamples jsonutil.FlexibleStringList `json:"inferred_from_samples,omitempty"`
	RuleDetails         jsonutil.FlexibleString     `json:"rule_details,omitempty"`
	Error               string                      `json:"error,omitempty"`
}

// DynamicRulesFailed returns the single-entry placeholder for failed inference.
func DynamicRulesFailed() []DynamicRule {
	return []DynamicRule{{Error: DynamicRulesFailureMessage}}
}
