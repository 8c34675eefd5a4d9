package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"papermill/internal/document"
	"papermill/internal/logging"
	"papermill/internal/metadata"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	workspace := t.TempDir()
	path := filepath.Join(t.TempDir(), "papermill.toml")
	body := fmt.Sprintf("[paths]\nworkspace_dir = %q\n", workspace)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")
	out, err := runCommand(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Fatalf("output should name the target: %q", out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample config missing: %v", err)
	}

	if _, err := runCommand(t, "config", "init", "--path", target); err == nil {
		t.Fatal("second init without --overwrite should fail")
	}
	if _, err := runCommand(t, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("init with --overwrite: %v", err)
	}
}

func TestConfigPathCommand(t *testing.T) {
	cfgPath := writeTestConfig(t)
	out, err := runCommand(t, "--config", cfgPath, "config", "path")
	if err != nil {
		t.Fatalf("config path: %v", err)
	}
	if strings.TrimSpace(out) != cfgPath {
		t.Fatalf("config path output = %q, want %q", out, cfgPath)
	}
}

func TestStatusCommandListsStages(t *testing.T) {
	cfgPath := writeTestConfig(t)
	out, err := runCommand(t, "--config", cfgPath, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	for _, stage := range document.AllStages() {
		if !strings.Contains(out, string(stage)) {
			t.Fatalf("status output missing stage %s:\n%s", stage, out)
		}
	}
}

func TestValidateCommand(t *testing.T) {
	cfgPath := writeTestConfig(t)
	dir := t.TempDir()

	manager := metadata.NewManager(logging.NewNop())
	valid := filepath.Join(dir, "valid.md")
	if err := manager.WriteDocument(valid, &document.Document{
		Metadata: document.Metadata{Stage: document.StageInput, Author: "pat"},
		Content:  "raw material\n",
	}); err != nil {
		t.Fatalf("write document: %v", err)
	}

	if _, err := runCommand(t, "--config", cfgPath, "validate", valid); err != nil {
		t.Fatalf("valid document rejected: %v", err)
	}

	// Same document judged against a stage it lacks fields for.
	out, err := runCommand(t, "--config", cfgPath, "validate", valid, "--stage", "insights")
	if err == nil {
		t.Fatal("insights validation should fail without source and frameworks")
	}
	if !strings.Contains(out, "missing: source") || !strings.Contains(out, "missing: frameworks") {
		t.Fatalf("missing fields not reported:\n%s", out)
	}

	if _, err := runCommand(t, "--config", cfgPath, "validate", filepath.Join(dir, "absent.md")); err == nil {
		t.Fatal("missing file should error")
	}
}

func TestSearchCommand(t *testing.T) {
	cfgPath := writeTestConfig(t)
	// Resolve the workspace the config points at.
	out, err := runCommand(t, "--config", cfgPath, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	var workspace string
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "Workspace:") {
			workspace = strings.TrimSpace(strings.TrimPrefix(line, "Workspace:"))
		}
	}
	if workspace == "" {
		t.Fatalf("workspace not reported:\n%s", out)
	}

	manager := metadata.NewManager(logging.NewNop())
	path := filepath.Join(workspace, "published", "post.md")
	if err := manager.WriteDocument(path, &document.Document{
		Metadata: document.Metadata{
			Stage: document.StagePublished, Author: "pat", Platform: "linkedin",
		},
		Content: "shipped\n",
	}); err != nil {
		t.Fatalf("write document: %v", err)
	}

	out, err = runCommand(t, "--config", cfgPath, "search", "--platform", "linkedin")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if !strings.Contains(out, "post.md") {
		t.Fatalf("search missed the document:\n%s", out)
	}

	out, err = runCommand(t, "--config", cfgPath, "search", "--platform", "mastodon")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if !strings.Contains(out, "No documents matched") {
		t.Fatalf("expected empty result message:\n%s", out)
	}
}

func TestEnrichCommand(t *testing.T) {
	cfgPath := writeTestConfig(t)
	dir := t.TempDir()

	manager := metadata.NewManager(logging.NewNop())
	path := filepath.Join(dir, "draft.md")
	if err := manager.WriteDocument(path, &document.Document{
		Metadata: document.Metadata{Stage: document.StageContent, Author: "pat"},
		Content:  "launch checklist launch checklist launch\n",
	}); err != nil {
		t.Fatalf("write document: %v", err)
	}

	out, err := runCommand(t, "--config", cfgPath, "enrich", path)
	if err != nil {
		t.Fatalf("enrich: %v", err)
	}
	if !strings.Contains(out, "launch") {
		t.Fatalf("expected extracted tags in output:\n%s", out)
	}
	if !strings.Contains(out, "Updated "+path) {
		t.Fatalf("expected rewrite confirmation:\n%s", out)
	}

	enriched, err := manager.ReadDocument(path)
	if err != nil {
		t.Fatalf("reread: %v", err)
	}
	if enriched.Metadata.Stats == nil || enriched.Metadata.Stats.Words != 5 {
		t.Fatalf("stats not persisted: %+v", enriched.Metadata.Stats)
	}
}
