// Package main provides tests for the leapjoin CLI.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leapstack-labs/leapjoin/internal/cli"
	"github.com/leapstack-labs/leapjoin/internal/cli/testutil"
	"github.com/leapstack-labs/leapjoin/internal/config"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(config.ResetConfig)

	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestVersionCommand(t *testing.T) {
	output, err := run(t, "version")
	if err != nil {
		t.Fatalf("version command error = %v", err)
	}
	if !strings.Contains(output, "leapjoin") {
		t.Errorf("version output should contain 'leapjoin', got: %s", output)
	}
}

func TestHelpCommand(t *testing.T) {
	output, err := run(t, "--help")
	if err != nil {
		t.Fatalf("help command error = %v", err)
	}

	expectedCommands := []string{"fetch", "count", "page", "sql", "seed", "serve", "describe", "find", "load"}
	for _, expected := range expectedCommands {
		if !strings.Contains(output, expected) {
			t.Errorf("help output should contain '%s', got: %s", expected, output)
		}
	}
}

func TestSeedAndFetch(t *testing.T) {
	dir := testutil.SetupTestProject(t)
	cfg := filepath.Join(dir, "leapjoin.yaml")
	plan := filepath.Join(dir, "shop.yaml")

	if _, err := run(t, "--config", cfg, "seed"); err != nil {
		t.Fatalf("seed command error = %v", err)
	}

	output, err := run(t, "--config", cfg, "-o", "json", "count", plan)
	if err != nil {
		t.Fatalf("count command error = %v", err)
	}
	var count struct {
		Total int64 `json:"total"`
	}
	if err := json.Unmarshal([]byte(output), &count); err != nil {
		t.Fatalf("count output is not JSON: %v\n%s", err, output)
	}
	if count.Total != 3 {
		t.Errorf("count total = %d, want 3", count.Total)
	}

	output, err = run(t, "--config", cfg, "-o", "json", "fetch", plan)
	if err != nil {
		t.Fatalf("fetch command error = %v", err)
	}
	var records []map[string]any
	if err := json.Unmarshal([]byte(output), &records); err != nil {
		t.Fatalf("fetch output is not JSON: %v\n%s", err, output)
	}
	if len(records) != 3 {
		t.Fatalf("fetch returned %d records, want 3", len(records))
	}
	if records[0]["customer"] != "Ann" {
		t.Errorf("first customer = %v, want Ann", records[0]["customer"])
	}
}

func TestUnknownAdapter(t *testing.T) {
	_, err := run(t, "--adapter", "oracle", "count", "plan.yaml")
	if err == nil {
		t.Fatal("expected error for unknown adapter")
	}
}
