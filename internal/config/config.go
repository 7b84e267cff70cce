package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type GlobalFlags struct {
	ConfigPath     string
	JSON           bool
	Plain          bool
	Select         string
	ResultsOnly    bool
	EnableCommands string
	Timeout        string
	Retries        int
}

// Settings is the resolved runtime configuration. The oracle API key,
// auto-execute flag, and target chains are the user-editable settings
// surface; the rest is ambient CLI behavior.
type Settings struct {
	OutputMode     string
	SelectFields   []string
	ResultsOnly    bool
	EnableCommands []string
	Timeout        time.Duration
	Retries        int
	ScanInterval   time.Duration
	ScanWindow     int
	StorePath      string
	StoreLockPath  string
	ConfigPath     string

	OracleAPIBase string
	OracleAPIKey  string
	AutoExecute   bool
	TargetChains  []string
}

type fileConfig struct {
	Output  string `yaml:"output"`
	Timeout string `yaml:"timeout"`
	Retries *int   `yaml:"retries"`
	Store   struct {
		Path     string `yaml:"path"`
		LockPath string `yaml:"lock_path"`
	} `yaml:"store"`
	Scan struct {
		Interval string `yaml:"interval"`
		Window   *int   `yaml:"window"`
	} `yaml:"scan"`
	Oracle struct {
		APIBase   string `yaml:"api_base"`
		APIKey    string `yaml:"api_key"`
		APIKeyEnv string `yaml:"api_key_env"`
	} `yaml:"oracle"`
	AutoExecute  *bool    `yaml:"auto_execute"`
	TargetChains []string `yaml:"target_chains"`
}

func Load(flags GlobalFlags) (Settings, error) {
	settings, err := defaultSettings()
	if err != nil {
		return Settings{}, err
	}

	cfgPath, err := resolveConfigPath(flags.ConfigPath)
	if err != nil {
		return Settings{}, err
	}
	settings.ConfigPath = cfgPath

	if err := applyFileConfig(cfgPath, &settings); err != nil {
		return Settings{}, err
	}

	applyEnv(&settings)

	if err := applyFlags(flags, &settings); err != nil {
		return Settings{}, err
	}

	if settings.OutputMode == "" {
		settings.OutputMode = "json"
	}
	if settings.Timeout <= 0 {
		settings.Timeout = 10 * time.Second
	}
	if settings.Retries < 0 {
		settings.Retries = 0
	}
	if settings.ScanInterval <= 0 {
		settings.ScanInterval = 15 * time.Second
	}
	if settings.ScanWindow <= 0 {
		settings.ScanWindow = 50
	}
	if len(settings.TargetChains) == 0 {
		return Settings{}, fmt.Errorf("target_chains must not be empty")
	}

	return settings, nil
}

// Save persists the user-editable settings back to the config file. The
// file's other recognized keys are re-read and carried over; unknown keys
// and comments are not preserved.
func Save(settings Settings) error {
	path := settings.ConfigPath
	if strings.TrimSpace(path) == "" {
		resolved, err := resolveConfigPath("")
		if err != nil {
			return err
		}
		path = resolved
	}

	var cfg fileConfig
	if buf, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(buf, &cfg); err != nil {
			return fmt.Errorf("parse config yaml: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("read config: %w", err)
	}

	cfg.Oracle.APIKey = settings.OracleAPIKey
	auto := settings.AutoExecute
	cfg.AutoExecute = &auto
	cfg.TargetChains = append([]string(nil), settings.TargetChains...)

	buf, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("encode config yaml: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, buf, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func defaultSettings() (Settings, error) {
	storePath, lockPath, err := defaultStorePaths()
	if err != nil {
		return Settings{}, err
	}
	return Settings{
		OutputMode:    "json",
		Timeout:       10 * time.Second,
		Retries:       2,
		ScanInterval:  15 * time.Second,
		ScanWindow:    50,
		StorePath:     storePath,
		StoreLockPath: lockPath,
		TargetChains:  []string{"zcash"},
	}, nil
}

func resolveConfigPath(input string) (string, error) {
	if strings.TrimSpace(input) != "" {
		return input, nil
	}
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "arbchat", "config.yaml"), nil
}

func defaultStorePaths() (string, string, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", "", err
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, "arbchat")
	return filepath.Join(dir, "arbchat.db"), filepath.Join(dir, "arbchat.lock"), nil
}

func applyFileConfig(path string, settings *Settings) error {
	buf, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}

	var cfg fileConfig
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return fmt.Errorf("parse config yaml: %w", err)
	}

	if cfg.Output != "" {
		settings.OutputMode = strings.ToLower(cfg.Output)
	}
	if cfg.Timeout != "" {
		d, err := time.ParseDuration(cfg.Timeout)
		if err != nil {
			return fmt.Errorf("config timeout: %w", err)
		}
		settings.Timeout = d
	}
	if cfg.Retries != nil {
		settings.Retries = *cfg.Retries
	}
	if cfg.Store.Path != "" {
		settings.StorePath = cfg.Store.Path
	}
	if cfg.Store.LockPath != "" {
		settings.StoreLockPath = cfg.Store.LockPath
	}
	if cfg.Scan.Interval != "" {
		d, err := time.ParseDuration(cfg.Scan.Interval)
		if err != nil {
			return fmt.Errorf("config scan.interval: %w", err)
		}
		settings.ScanInterval = d
	}
	if cfg.Scan.Window != nil {
		settings.ScanWindow = *cfg.Scan.Window
	}
	if cfg.Oracle.APIBase != "" {
		settings.OracleAPIBase = cfg.Oracle.APIBase
	}
	if cfg.Oracle.APIKey != "" {
		settings.OracleAPIKey = cfg.Oracle.APIKey
	}
	if cfg.Oracle.APIKeyEnv != "" {
		settings.OracleAPIKey = os.Getenv(cfg.Oracle.APIKeyEnv)
	}
	if cfg.AutoExecute != nil {
		settings.AutoExecute = *cfg.AutoExecute
	}
	if len(cfg.TargetChains) > 0 {
		settings.TargetChains = normalizeChains(cfg.TargetChains)
	}

	return nil
}

func applyEnv(settings *Settings) {
	if v := os.Getenv("ARB_OUTPUT"); v != "" {
		settings.OutputMode = strings.ToLower(v)
	}
	if v := os.Getenv("ARB_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			settings.Timeout = d
		}
	}
	if v := os.Getenv("ARB_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			settings.Retries = n
		}
	}
	if v := os.Getenv("ARB_SCAN_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			settings.ScanInterval = d
		}
	}
	if v := os.Getenv("ARB_STORE_PATH"); v != "" {
		settings.StorePath = v
	}
	if v := os.Getenv("ARB_STORE_LOCK_PATH"); v != "" {
		settings.StoreLockPath = v
	}
	if v := os.Getenv("ARB_ORACLE_API_BASE"); v != "" {
		settings.OracleAPIBase = v
	}
	if v := os.Getenv("ARB_ORACLE_API_KEY"); v != "" {
		settings.OracleAPIKey = v
	}
	if v := os.Getenv("ARB_AUTO_EXECUTE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			settings.AutoExecute = b
		}
	}
	if v := os.Getenv("ARB_TARGET_CHAINS"); v != "" {
		settings.TargetChains = normalizeChains(strings.Split(v, ","))
	}
}

func applyFlags(flags GlobalFlags, settings *Settings) error {
	if flags.JSON && flags.Plain {
		return fmt.Errorf("cannot use --json and --plain together")
	}
	if flags.JSON {
		settings.OutputMode = "json"
	}
	if flags.Plain {
		settings.OutputMode = "plain"
	}
	if strings.TrimSpace(flags.Select) != "" {
		parts := strings.Split(flags.Select, ",")
		fields := make([]string, 0, len(parts))
		for _, part := range parts {
			f := strings.TrimSpace(part)
			if f != "" {
				fields = append(fields, f)
			}
		}
		settings.SelectFields = fields
	}
	settings.ResultsOnly = flags.ResultsOnly

	if strings.TrimSpace(flags.EnableCommands) != "" {
		parts := strings.Split(flags.EnableCommands, ",")
		allowed := make([]string, 0, len(parts))
		for _, part := range parts {
			v := strings.TrimSpace(part)
			if v != "" {
				allowed = append(allowed, v)
			}
		}
		settings.EnableCommands = allowed
	}

	if flags.Timeout != "" {
		d, err := time.ParseDuration(flags.Timeout)
		if err != nil {
			return fmt.Errorf("parse --timeout: %w", err)
		}
		settings.Timeout = d
	}
	if flags.Retries >= 0 {
		settings.Retries = flags.Retries
	}

	if settings.OutputMode != "json" && settings.OutputMode != "plain" {
		return fmt.Errorf("output must be json or plain")
	}

	return nil
}

func normalizeChains(input []string) []string {
	out := make([]string, 0, len(input))
	seen := map[string]struct{}{}
	for _, item := range input {
		norm := strings.ToLower(strings.TrimSpace(item))
		if norm == "" {
			continue
		}
		if _, ok := seen[norm]; ok {
			continue
		}
		seen[norm] = struct{}{}
		out = append(out, norm)
	}
	return out
}
