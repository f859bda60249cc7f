package models

import (
	"encoding/json"
	"fmt"

	"github.com/ekaya-inc/ekaya-validator/pkg/jsonutil"
)

// NamingMap maps file column names to target table column names.
type NamingMap map[string]string

// UnmarshalJSON tolerates non-string values and drops entries whose key or
// target is empty.
func (m *NamingMap) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("naming map: %w", err)
	}
	out := make(NamingMap, len(raw))
	for k, v := range raw {
		target := jsonutil.FlexibleStringValue(v)
		if k == "" || target == "" {
			continue
		}
		out[k] = target
	}
	*m = out
	return nil
}

// Targets returns target column → file columns that map to it.
func (m NamingMap) Targets() map[string][]string {
	out := make(map[string][]string, len(m))
	for src, dst := range m {
		out[dst] = append(out[dst], src)
	}
	return out
}

// ReconciliationAnalysis is the reconciler's prose about the mismatch.
type ReconciliationAnalysis struct {
	Context        jsonutil.FlexibleString     `json:"context"`
	Reasoning      jsonutil.FlexibleString     `json:"reasoning"`
	Recommendation jsonutil.FlexibleStringList `json:"recommendation"`
}

// ReconciliationResult is the output of the semantic column reconciliation service.
type ReconciliationResult struct {
	TargetTable            string                       `json:"target_table"`
	SourceFile             string                       `json:"source_file"`
	NamingMismatches       NamingMap                    `json:"naming_mismatches"`
	ColumnsMissingFromFile jsonutil.FlexibleStringList `json:"columns_missing_from_file"`
	ColumnsExtraInFile     jsonutil.FlexibleStringList `json:"columns_extra_in_file"`
	Analysis               ReconciliationAnalysis       `json:"analysis"`
}
