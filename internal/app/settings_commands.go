package app

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ggonzalez94/arbchat/internal/config"
	clierr "github.com/ggonzalez94/arbchat/internal/errors"
)

type settingsView struct {
	OutputMode   string   `json:"output_mode"`
	Timeout      string   `json:"timeout"`
	Retries      int      `json:"retries"`
	ScanInterval string   `json:"scan_interval"`
	ScanWindow   int      `json:"scan_window"`
	OracleAPIKey string   `json:"oracle_api_key"`
	AutoExecute  bool     `json:"auto_execute"`
	TargetChains []string `json:"target_chains"`
	ConfigPath   string   `json:"config_path"`
}

func redactKey(key string) string {
	if strings.TrimSpace(key) == "" {
		return ""
	}
	return "set"
}

func (s *runtimeState) newSettingsCommand() *cobra.Command {
	root := &cobra.Command{Use: "settings", Short: "User settings"}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the resolved settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			view := settingsView{
				OutputMode:   s.settings.OutputMode,
				Timeout:      s.settings.Timeout.String(),
				Retries:      s.settings.Retries,
				ScanInterval: s.settings.ScanInterval.String(),
				ScanWindow:   s.settings.ScanWindow,
				OracleAPIKey: redactKey(s.settings.OracleAPIKey),
				AutoExecute:  s.settings.AutoExecute,
				TargetChains: s.settings.TargetChains,
				ConfigPath:   s.settings.ConfigPath,
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), view, nil)
		},
	}

	setCmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Update one editable setting (oracle.api_key, auto_execute, target_chains)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := strings.ToLower(strings.TrimSpace(args[0]))
			value := args[1]

			updated := s.settings
			switch key {
			case "oracle.api_key":
				updated.OracleAPIKey = strings.TrimSpace(value)
			case "auto_execute":
				b, err := strconv.ParseBool(strings.TrimSpace(value))
				if err != nil {
					return clierr.Wrap(clierr.CodeUsage, "auto_execute must be a boolean", err)
				}
				updated.AutoExecute = b
			case "target_chains":
				chains := make([]string, 0)
				for _, part := range strings.Split(value, ",") {
					if norm := strings.ToLower(strings.TrimSpace(part)); norm != "" {
						chains = append(chains, norm)
					}
				}
				if len(chains) == 0 {
					return clierr.New(clierr.CodeUsage, "target_chains must not be empty")
				}
				updated.TargetChains = chains
			default:
				return clierr.New(clierr.CodeUsage, fmt.Sprintf("unknown setting: %s", key))
			}

			if err := config.Save(updated); err != nil {
				return clierr.Wrap(clierr.CodeStorage, "save settings", err)
			}
			s.settings = updated
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), map[string]any{"updated": key}, nil)
		},
	}

	root.AddCommand(showCmd)
	root.AddCommand(setCmd)
	return root
}
