package models

import "time"

// HistorySnapshot is one persisted file-schema observation for a target table.
type HistorySnapshot struct {
	TableName string         `json:"table_name"`
	Timestamp time.Time      `json:"timestamp"`
	FileName  string         `json:"file_name"`
	Columns   ColumnProfiles `json:"columns"`
}
