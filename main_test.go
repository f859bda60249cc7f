package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/ekaya-validator/pkg/config"
	"github.com/ekaya-inc/ekaya-validator/pkg/metrics"
	"github.com/ekaya-inc/ekaya-validator/pkg/metrics/datadog"
	"github.com/ekaya-inc/ekaya-validator/pkg/metrics/prompush"
	"github.com/ekaya-inc/ekaya-validator/pkg/models"
)

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, exitCode(nil))
	assert.Equal(t, 0, exitCode(flag.ErrHelp))
	assert.Equal(t, 2, exitCode(usagef("bad %s", "flag")))
	assert.Equal(t, 1, exitCode(errors.New("connection refused")))
}

func TestParseFlags(t *testing.T) {
	fs, configPath := newFlagSet("test")
	require.NoError(t, parseFlags(fs, []string{"-config", "custom.yaml"}))
	assert.Equal(t, "custom.yaml", *configPath)

	fs, _ = newFlagSet("test")
	fs.SetOutput(discard{})
	var ue *usageError
	assert.ErrorAs(t, parseFlags(fs, []string{"-nope"}), &ue)

	fs, _ = newFlagSet("test")
	assert.ErrorAs(t, parseFlags(fs, []string{"extra"}), &ue)
}

func TestCommandsRequireFlags(t *testing.T) {
	ctx := context.Background()
	var ue *usageError

	assert.ErrorAs(t, runValidate(ctx, []string{"-file", "orders.csv"}), &ue)
	assert.ErrorAs(t, runValidate(ctx, []string{"-file", "x.xlsx", "-table", "t", "-sheet", "s", "-all-sheets"}), &ue)
	assert.ErrorAs(t, runSheets(ctx, nil), &ue)
	assert.ErrorAs(t, runRecommend(ctx, nil), &ue)
	assert.ErrorAs(t, runRender(ctx, nil), &ue)
}

func TestBuildMetrics(t *testing.T) {
	b, err := buildMetrics(config.MetricsConfig{Backend: "none"})
	require.NoError(t, err)
	assert.Equal(t, metrics.Nop(), b)

	b, err = buildMetrics(config.MetricsConfig{Backend: "prometheus", Job: "job", PushgatewayURL: "http://pushgateway:9091"})
	require.NoError(t, err)
	assert.IsType(t, &prompush.Backend{}, b)

	b, err = buildMetrics(config.MetricsConfig{Backend: "datadog", StatsdAddr: "127.0.0.1:8125"})
	require.NoError(t, err)
	assert.IsType(t, &datadog.Backend{}, b)

	_, err = buildMetrics(config.MetricsConfig{Backend: "prometheus"})
	assert.Error(t, err)
}

func TestRunRender(t *testing.T) {
	dir := t.TempDir()
	sheet := "March"
	r := &models.Report{
		RunID:       "run-1",
		FileName:    "orders.xlsx",
		SheetName:   &sheet,
		TargetTable: "orders",
		ValidatedAt: "2026-03-01T12:00:00Z",
	}
	r.ValidationSummary.Status = models.StatusPassed

	single := filepath.Join(dir, "report.json")
	writeTestJSON(t, single, r)
	out := filepath.Join(dir, "report.md")
	require.NoError(t, runRender(context.Background(), []string{"-in", single, "-out", out}))
	md, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(md), "# Validation Report: `orders.xlsx`")

	batch := filepath.Join(dir, "reports.json")
	writeTestJSON(t, batch, []*models.Report{r})
	require.NoError(t, runRender(context.Background(), []string{"-in", batch, "-out", out}))
	md, err = os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(md), "# Multi-Sheet Validation Report: `orders.xlsx`")

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o600))
	assert.Error(t, runRender(context.Background(), []string{"-in", bad, "-out", out}))
}

func writeTestJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
