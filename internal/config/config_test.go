package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadPrecedenceFlagsOverEnvOverFile(t *testing.T) {
	tmp := t.TempDir()
	configPath := filepath.Join(tmp, "config.yaml")
	if err := os.WriteFile(configPath, []byte("output: plain\nretries: 1\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("ARB_OUTPUT", "json")
	flags := GlobalFlags{ConfigPath: configPath, Plain: true, Retries: 5}
	settings, err := Load(flags)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if settings.OutputMode != "plain" {
		t.Fatalf("expected flag to win, got output=%s", settings.OutputMode)
	}
	if settings.Retries != 5 {
		t.Fatalf("expected retries from flags, got %d", settings.Retries)
	}
}

func TestLoadMutuallyExclusiveOutputFlags(t *testing.T) {
	_, err := Load(GlobalFlags{JSON: true, Plain: true, Retries: -1})
	if err == nil {
		t.Fatal("expected error with --json and --plain")
	}
}

func TestLoadRejectsEmptyTargetChains(t *testing.T) {
	tmp := t.TempDir()
	configPath := filepath.Join(tmp, "config.yaml")
	if err := os.WriteFile(configPath, []byte("target_chains: ['', '  ']\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, err := Load(GlobalFlags{ConfigPath: configPath, Retries: -1})
	if err == nil {
		t.Fatal("expected error for empty target chains")
	}
}

func TestLoadScanAndOracleSettings(t *testing.T) {
	tmp := t.TempDir()
	configPath := filepath.Join(tmp, "config.yaml")
	content := "scan:\n  interval: 30s\n  window: 10\noracle:\n  api_key: cg-test\nauto_execute: true\ntarget_chains: [Zcash, Ethereum, zcash]\n"
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	settings, err := Load(GlobalFlags{ConfigPath: configPath, Retries: -1})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if settings.ScanInterval != 30*time.Second || settings.ScanWindow != 10 {
		t.Fatalf("unexpected scan settings: %+v", settings)
	}
	if settings.OracleAPIKey != "cg-test" || !settings.AutoExecute {
		t.Fatalf("unexpected oracle settings: %+v", settings)
	}
	if len(settings.TargetChains) != 2 {
		t.Fatalf("expected deduped chains, got %v", settings.TargetChains)
	}
}

func TestSaveRoundTripsEditableSettings(t *testing.T) {
	tmp := t.TempDir()
	configPath := filepath.Join(tmp, "config.yaml")

	settings, err := Load(GlobalFlags{ConfigPath: configPath, Retries: -1})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	settings.OracleAPIKey = "cg-new"
	settings.AutoExecute = true
	settings.TargetChains = []string{"ethereum"}
	if err := Save(settings); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	reloaded, err := Load(GlobalFlags{ConfigPath: configPath, Retries: -1})
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.OracleAPIKey != "cg-new" || !reloaded.AutoExecute {
		t.Fatalf("settings not persisted: %+v", reloaded)
	}
	if len(reloaded.TargetChains) != 1 || reloaded.TargetChains[0] != "ethereum" {
		t.Fatalf("target chains not persisted: %v", reloaded.TargetChains)
	}
}
