package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-validator/pkg/models"
)

const (
	// DefaultHistoryDepth is how many snapshots Load returns when n <= 0.
	DefaultHistoryDepth = 3

	// snapshotTimeLayout is fixed width so file names sort chronologically.
	snapshotTimeLayout = "20060102T150405.000000000Z"
	snapshotInfix      = "_schema_"
	snapshotExt        = ".json"
)

// SchemaHistoryRepository persists per-run file-schema snapshots for a table.
// Writers are append-only and keyed by table and timestamp; concurrent
// writers for the same table are not serialized.
type SchemaHistoryRepository interface {
	// Save writes a snapshot of schema.Columns and returns its path.
	Save(ctx context.Context, tableName string, schema *models.Schema) (string, error)

	// Load returns up to n snapshots for tableName, newest first.
	// Unreadable files are skipped.
	Load(ctx context.Context, tableName string, n int) ([]models.HistorySnapshot, error)
}

type schemaHistoryRepository struct {
	dir    string
	now    func() time.Time
	logger *zap.Logger
}

// NewSchemaHistoryRepository creates a repository rooted at dir.
func NewSchemaHistoryRepository(dir string, logger *zap.Logger) SchemaHistoryRepository {
	return newSchemaHistoryRepository(dir, time.Now, logger)
}

func newSchemaHistoryRepository(dir string, now func() time.Time, logger *zap.Logger) *schemaHistoryRepository {
	return &schemaHistoryRepository{
		dir:    dir,
		now:    now,
		logger: logger.Named("schema-history"),
	}
}

var _ SchemaHistoryRepository = (*schemaHistoryRepository)(nil)

// snapshotFile is the on-disk document.
type snapshotFile struct {
	Columns models.ColumnProfiles `json:"columns"`
}

// SafeTableName replaces every non-alphanumeric character with an underscore.
func SafeTableName(tableName string) string {
	var b strings.Builder
	for _, r := range tableName {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

func (r *schemaHistoryRepository) Save(ctx context.Context, tableName string, schema *models.Schema) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if schema == nil {
		return "", fmt.Errorf("save snapshot: nil schema")
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", fmt.Errorf("create history dir: %w", err)
	}

	data, err := json.MarshalIndent(snapshotFile{Columns: schema.Columns}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	name := SafeTableName(tableName) + snapshotInfix + r.now().UTC().Format(snapshotTimeLayout) + snapshotExt
	path := filepath.Join(r.dir, name)

	tmp, err := os.CreateTemp(r.dir, ".snapshot-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("rename snapshot: %w", err)
	}

	r.logger.Info("Saved schema snapshot",
		zap.String("table", tableName),
		zap.String("path", path))
	return path, nil
}

func (r *schemaHistoryRepository) Load(ctx context.Context, tableName string, n int) ([]models.HistorySnapshot, error) {
	if n <= 0 {
		n = DefaultHistoryDepth
	}

	prefix := SafeTableName(tableName) + snapshotInfix
	matches, err := filepath.Glob(filepath.Join(r.dir, prefix+"*"+snapshotExt))
	if err != nil {
		return nil, fmt.Errorf("search history: %w", err)
	}

	type candidate struct {
		path string
		ts   time.Time
	}
	candidates := make([]candidate, 0, len(matches))
	for _, m := range matches {
		stamp := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(m), prefix), snapshotExt)
		ts, err := time.Parse(snapshotTimeLayout, stamp)
		if err != nil {
			continue // another table whose safe name shares this prefix
		}
		candidates = append(candidates, candidate{path: m, ts: ts})
	}
	sort.Slice(candidates, func(i, j int) bool {
		return filepath.Base(candidates[i].path) > filepath.Base(candidates[j].path)
	})

	r.logger.Debug("Found schema history",
		zap.String("table", tableName),
		zap.Int("available", len(candidates)))

	snapshots := make([]models.HistorySnapshot, 0, n)
	for _, c := range candidates {
		if len(snapshots) >= n {
			break
		}
		if err := ctx.Err(); err != nil {
			return snapshots, err
		}
		data, err := os.ReadFile(c.path)
		if err != nil {
			r.logger.Warn("Skipping unreadable snapshot", zap.String("path", c.path), zap.Error(err))
			continue
		}
		var doc snapshotFile
		if err := json.Unmarshal(data, &doc); err != nil {
			r.logger.Warn("Skipping corrupt snapshot", zap.String("path", c.path), zap.Error(err))
			continue
		}
		snapshots = append(snapshots, models.HistorySnapshot{
			TableName: tableName,
			Timestamp: c.ts,
			FileName:  filepath.Base(c.path),
			Columns:   doc.Columns,
		})
	}
	return snapshots, nil
}
