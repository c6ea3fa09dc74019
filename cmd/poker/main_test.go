package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jamigibbs/slack-planning-poker/internal/config"
)

func TestVersionCmd(t *testing.T) {
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"version"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("version command failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "poker dev") {
		t.Errorf("expected output to contain 'poker dev', got: %s", out)
	}
	if !strings.Contains(out, "commit: none") {
		t.Errorf("expected output to contain 'commit: none', got: %s", out)
	}
}

func TestMigrateCmd(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	body := "slack:\n  bot_token: xoxb-test\ndb:\n  driver: sqlite\n  path: " + filepath.Join(dir, "poker.db") + "\n"
	if err := os.WriteFile(configPath, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"migrate", "-c", configPath})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("migrate command failed: %v", err)
	}
	if !strings.Contains(buf.String(), "Migrated 3 tables") {
		t.Errorf("output = %q, want migration summary", buf.String())
	}
}

func TestSetupCmd_WritesConfig(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")

	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	// bot token, client id (blank), admin key
	cmd.SetIn(strings.NewReader("xoxb-setup\n\nsekrit\n"))
	cmd.SetArgs([]string{"setup", "-c", configPath})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("setup command failed: %v", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("load written config: %v", err)
	}
	if cfg.Slack.BotToken != "xoxb-setup" {
		t.Errorf("bot_token = %q, want xoxb-setup", cfg.Slack.BotToken)
	}
	if cfg.Admin.Key != "sekrit" {
		t.Errorf("admin.key = %q, want sekrit", cfg.Admin.Key)
	}
}

func TestSetupCmd_RefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("slack: {}\n"), 0o600); err != nil {
		t.Fatalf("seed config: %v", err)
	}

	cmd := newRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"setup", "-c", configPath})

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error when config already exists")
	}
}

func TestServeCmd_BadConfig(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"serve", "-c", filepath.Join(t.TempDir(), "missing.yaml")})

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
