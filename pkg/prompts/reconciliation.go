package prompts

import (
	"fmt"
	"strings"

	"github.com/ekaya-inc/ekaya-validator/pkg/models"
)

// ReconciliationInput is everything the reconciler sees for one unit.
type ReconciliationInput struct {
	TargetTable string
	SourceFile  string
	DBSchema    *models.TableSchema
	FileColumns models.ColumnProfiles
	Comparison  models.ComparisonResult
}

// BuildReconciliationPrompt asks for semantic column mapping on top of the
// exact-name comparison. naming_mismatches is keyed by file column.
func BuildReconciliationPrompt(in ReconciliationInput) string {
	var b strings.Builder

	b.WriteString("# Schema Reconciliation\n\n")
	b.WriteString("Analyze the schema mismatch between a source file and a target database table and give context-aware recommendations.\n\n")
	b.WriteString("## Task\n\n")
	b.WriteString("1. Map file columns to table columns that mean the same thing under a different name (e.g. 'cust' -> 'CustomerID', 'qty' -> 'Quantity').\n")
	b.WriteString("2. Re-evaluate the raw missing and extra columns after applying your mapping.\n")
	b.WriteString("3. Explain the impact of every remaining mismatch and recommend concrete actions.\n\n")

	b.WriteString("## Input\n\n")
	fmt.Fprintf(&b, "**Target Table:** %s\n\n", in.TargetTable)
	fmt.Fprintf(&b, "**Source File:** %s\n\n", in.SourceFile)
	section(&b, "Database Schema (target)", toJSON(in.DBSchema))
	section(&b, "File Schema (source columns with inferred types and samples)", toJSON(in.FileColumns))
	section(&b, "Raw Comparison (exact name match)", toJSON(in.Comparison))

	b.WriteString("## Response Format\n\n")
	b.WriteString("Return ONLY one JSON object. In naming_mismatches the key MUST be the file column and the value MUST be the database column. ")
	b.WriteString("Only map columns that exist on both sides.\n\n")
	fmt.Fprintf(&b, `{
  "target_table": %q,
  "source_file": %q,
  "columns_missing_from_file": ["database columns still missing after mapping"],
  "columns_extra_in_file": ["file columns still extra after mapping"],
  "naming_mismatches": {"file_column": "db_column"},
  "analysis": {
    "context": "One-line summary of the findings",
    "reasoning": "Impact of the mismatches on loading",
    "recommendation": ["Actionable step 1", "Actionable step 2"]
  }
}
`, in.TargetTable, in.SourceFile)

	return b.String()
}
