package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-validator/pkg/config"
	"github.com/ekaya-inc/ekaya-validator/pkg/dataset"
	"github.com/ekaya-inc/ekaya-validator/pkg/models"
	"github.com/ekaya-inc/ekaya-validator/pkg/report"
	"github.com/ekaya-inc/ekaya-validator/pkg/services"
)

func runValidate(ctx context.Context, args []string) error {
	fs, configPath := newFlagSet("validate")
	file := fs.String("file", "", "CSV or XLSX file to validate (required)")
	sheet := fs.String("sheet", "", "sheet to validate; defaults to the first sheet")
	allSheets := fs.Bool("all-sheets", false, "validate every sheet of the workbook")
	table := fs.String("table", "", "target table, optionally schema qualified (required)")
	out := fs.String("out", "", "write the JSON report here instead of stdout")
	md := fs.String("md", "", "also write a Markdown rendering here")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *file == "" || strings.TrimSpace(*table) == "" {
		return usagef("validate: -file and -table are required")
	}
	if *allSheets && *sheet != "" {
		return usagef("validate: -sheet and -all-sheets are mutually exclusive")
	}

	a, err := newApp(*configPath)
	if err != nil {
		return err
	}
	defer a.close()

	path, err := filepath.Abs(*file)
	if err != nil {
		return err
	}

	reqs := []services.ValidationRequest{{FilePath: path, SheetName: *sheet, TableName: strings.TrimSpace(*table)}}
	if *allSheets {
		sheets, err := dataset.SheetNames(path)
		if err != nil {
			return err
		}
		reqs = reqs[:0]
		for _, s := range sheets {
			reqs = append(reqs, services.ValidationRequest{FilePath: path, SheetName: s, TableName: strings.TrimSpace(*table)})
		}
	}

	eng, err := a.newEngine(ctx)
	if err != nil {
		return err
	}
	defer eng.close()

	var (
		payload  any
		rendered string
	)
	if len(reqs) == 1 && !*allSheets {
		r := eng.pipeline.Run(ctx, reqs[0])
		payload = r
		rendered = report.RenderMarkdown(r)
		logReport(a.logger, r)
	} else {
		reports := a.newBatch(eng.pipeline).ValidateAll(ctx, reqs, func(completed, total int) {
			a.logger.Info("Sheet validated", zap.Int("completed", completed), zap.Int("total", total))
		})
		for _, r := range reports {
			logReport(a.logger, r)
		}
		payload = reports
		rendered = report.RenderBatchMarkdown(filepath.Base(path), reports)
	}

	if err := writeJSON(*out, payload); err != nil {
		return err
	}
	if *md != "" {
		if err := os.WriteFile(*md, []byte(rendered), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", *md, err)
		}
	}
	return nil
}

func logReport(logger *zap.Logger, r *models.Report) {
	fields := []zap.Field{
		zap.String("run_id", r.RunID),
		zap.String("file", r.FileName),
		zap.String("table", r.TargetTable),
		zap.String("status", string(r.ValidationSummary.Status)),
	}
	if r.IsError() {
		logger.Warn("Validation finished with an error report", append(fields, zap.String("error", r.Error))...)
		return
	}
	logger.Info("Validation finished", fields...)
}

func runSheets(_ context.Context, args []string) error {
	fs, _ := newFlagSet("sheets")
	file := fs.String("file", "", "CSV or XLSX file (required)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *file == "" {
		return usagef("sheets: -file is required")
	}

	sheets, err := dataset.SheetNames(*file)
	if err != nil {
		return err
	}
	for _, s := range sheets {
		fmt.Println(s)
	}
	return nil
}

func runTables(ctx context.Context, args []string) error {
	fs, configPath := newFlagSet("tables")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	a, err := newApp(*configPath)
	if err != nil {
		return err
	}
	defer a.close()

	provider, err := a.openProvider(ctx)
	if err != nil {
		return err
	}
	defer provider.Close()

	tables, err := provider.ListTables(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tables: %w", err)
	}
	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("%s: %s\n", name, strings.Join(tables[name], ", "))
	}
	return nil
}

func runRecommend(ctx context.Context, args []string) error {
	fs, configPath := newFlagSet("recommend")
	file := fs.String("file", "", "CSV or XLSX file (required)")
	sheet := fs.String("sheet", "", "sheet to read; defaults to the first sheet")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *file == "" {
		return usagef("recommend: -file is required")
	}

	a, err := newApp(*configPath)
	if err != nil {
		return err
	}
	defer a.close()

	eng, err := a.newEngine(ctx)
	if err != nil {
		return err
	}
	defer eng.close()

	schema := eng.extractor.ExtractFromFile(*file, *sheet)
	if !schema.Usable() {
		if schema.Error != "" {
			return fmt.Errorf("cannot read %s: %s", *file, schema.Error)
		}
		return fmt.Errorf("cannot read %s: no columns found", *file)
	}
	return writeJSON("", eng.recommender.Recommend(ctx, schema))
}

func runRender(_ context.Context, args []string) error {
	fs, _ := newFlagSet("render")
	in := fs.String("in", "", "JSON report, or array of reports, written by validate (required)")
	out := fs.String("out", "", "write Markdown here instead of stdout")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *in == "" {
		return usagef("render: -in is required")
	}

	data, err := os.ReadFile(*in)
	if err != nil {
		return err
	}

	var rendered string
	if trimmed := strings.TrimSpace(string(data)); strings.HasPrefix(trimmed, "[") {
		var reports []*models.Report
		if err := json.Unmarshal(data, &reports); err != nil {
			return fmt.Errorf("failed to parse %s: %w", *in, err)
		}
		name := ""
		if len(reports) > 0 && reports[0] != nil {
			name = reports[0].FileName
		}
		rendered = report.RenderBatchMarkdown(name, reports)
	} else {
		var r models.Report
		if err := json.Unmarshal(data, &r); err != nil {
			return fmt.Errorf("failed to parse %s: %w", *in, err)
		}
		rendered = report.RenderMarkdown(&r)
	}

	if *out == "" {
		_, err = io.WriteString(os.Stdout, rendered)
		return err
	}
	return os.WriteFile(*out, []byte(rendered), 0o644)
}

func runConfig(_ context.Context, args []string) error {
	fs, configPath := newFlagSet("config")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath, Version)
	if err != nil {
		return err
	}
	out, err := cfg.YAML()
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(out)
	return err
}

func runVersion(_ context.Context, _ []string) error {
	fmt.Println(Version)
	return nil
}

// writeJSON writes v indented to path, or to stdout when path is empty.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	data = append(data, '\n')

	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
