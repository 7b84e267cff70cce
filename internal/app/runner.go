package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ggonzalez94/arbchat/internal/config"
	clierr "github.com/ggonzalez94/arbchat/internal/errors"
	"github.com/ggonzalez94/arbchat/internal/forge"
	"github.com/ggonzalez94/arbchat/internal/httpx"
	"github.com/ggonzalez94/arbchat/internal/model"
	"github.com/ggonzalez94/arbchat/internal/oracle/coingecko"
	"github.com/ggonzalez94/arbchat/internal/out"
	"github.com/ggonzalez94/arbchat/internal/policy"
	"github.com/ggonzalez94/arbchat/internal/schema"
	"github.com/ggonzalez94/arbchat/internal/session"
	"github.com/ggonzalez94/arbchat/internal/store"
	"github.com/ggonzalez94/arbchat/internal/version"
	"github.com/ggonzalez94/arbchat/internal/wallet"
)

type Runner struct {
	stdout io.Writer
	stderr io.Writer
	now    func() time.Time
}

func NewRunner() *Runner {
	return NewRunnerWithWriters(os.Stdout, os.Stderr)
}

func NewRunnerWithWriters(stdout, stderr io.Writer) *Runner {
	return &Runner{
		stdout: stdout,
		stderr: stderr,
		now:    time.Now,
	}
}

type runtimeState struct {
	runner      *Runner
	flags       config.GlobalFlags
	settings    config.Settings
	logger      *slog.Logger
	root        *cobra.Command
	lastCommand string

	store     *store.Store
	wallets   *wallet.Session
	oracle    session.Quoter
	connector wallet.Connector
	chat      *session.ChatSession
}

func (r *Runner) Run(args []string) int {
	state := &runtimeState{runner: r}
	return state.run(args)
}

func (s *runtimeState) run(args []string) int {
	s.logger = newLogger(s.runner.stderr)
	root := s.newRootCommand()
	s.root = root
	root.SetArgs(args)
	root.SetOut(s.runner.stdout)
	root.SetErr(s.runner.stderr)
	root.SilenceUsage = true
	root.SilenceErrors = true

	err := normalizeRunError(root.Execute())
	if s.store != nil {
		_ = s.store.Close()
	}
	if err == nil {
		return 0
	}
	s.renderError("", err)
	return clierr.ExitCode(err)
}

func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	switch strings.ToLower(strings.TrimSpace(os.Getenv("ARB_LOG_LEVEL"))) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

func (s *runtimeState) newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   version.CLIName,
		Short: "Agent-first cross-chain arbitrage chat CLI",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" {
				return nil
			}
			settings, err := config.Load(s.flags)
			if err != nil {
				return clierr.Wrap(clierr.CodeUsage, "load configuration", err)
			}
			s.settings = settings

			path := trimRootPath(cmd.CommandPath())
			s.lastCommand = path
			if err := policy.CheckCommandAllowed(settings.EnableCommands, path); err != nil {
				return err
			}

			if s.oracle == nil {
				httpClient := httpx.New(settings.Timeout, settings.Retries)
				s.oracle = coingecko.New(httpClient, settings.OracleAPIBase, settings.OracleAPIKey)
			}
			if s.wallets == nil {
				s.wallets = wallet.NewSession()
			}
			if s.connector == nil {
				s.connector = func(ctx context.Context) (wallet.Wallet, error) {
					return wallet.NewLocalWalletFromEnv()
				}
			}

			if shouldOpenStore(path) && s.store == nil {
				st, err := store.Open(settings.StorePath, settings.StoreLockPath)
				if err != nil {
					return err
				}
				s.store = st
			}
			return nil
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return clierr.Wrap(clierr.CodeUsage, "parse flags", err)
	})

	cmd.PersistentFlags().BoolVar(&s.flags.JSON, "json", false, "Output JSON (default)")
	cmd.PersistentFlags().BoolVar(&s.flags.Plain, "plain", false, "Output plain text")
	cmd.PersistentFlags().StringVar(&s.flags.Select, "select", "", "Select fields from data (comma-separated)")
	cmd.PersistentFlags().BoolVar(&s.flags.ResultsOnly, "results-only", false, "Output only data payload")
	cmd.PersistentFlags().StringVar(&s.flags.EnableCommands, "enable-commands", "", "Allowlist command paths (comma-separated)")
	cmd.PersistentFlags().StringVar(&s.flags.Timeout, "timeout", "", "Price feed request timeout")
	cmd.PersistentFlags().IntVar(&s.flags.Retries, "retries", -1, "Retries per price feed request")
	cmd.PersistentFlags().StringVar(&s.flags.ConfigPath, "config", "", "Path to config file")

	cmd.AddCommand(s.newSchemaCommand())
	cmd.AddCommand(s.newChatCommand())
	cmd.AddCommand(s.newWalletCommand())
	cmd.AddCommand(s.newExecuteCommand())
	cmd.AddCommand(s.newScanCommand())
	cmd.AddCommand(s.newTxLogCommand())
	cmd.AddCommand(s.newSettingsCommand())
	cmd.AddCommand(newVersionCommand())

	return cmd
}

// chatSession builds the orchestrator lazily; it needs the store open.
func (s *runtimeState) chatSession() *session.ChatSession {
	if s.chat == nil {
		f := forge.New(s.wallets, s.store, s.logger)
		s.chat = session.New(s.store, s.oracle, s.wallets, f, s.settings, s.logger)
	}
	return s.chat
}

// connectWallet binds the signing key from the environment. Commands that
// need a signer call this first; absence of key material surfaces as a
// wallet-not-connected error.
func (s *runtimeState) connectWallet(ctx context.Context) error {
	return s.wallets.Connect(ctx, s.connector)
}

func newVersionCommand() *cobra.Command {
	var long bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print CLI version",
		Run: func(cmd *cobra.Command, args []string) {
			if long {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), version.Long())
				return
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), version.CLIVersion)
		},
	}
	cmd.Flags().BoolVar(&long, "long", false, "Print extended build metadata")
	return cmd
}

func (s *runtimeState) newSchemaCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema [command path]",
		Short: "Print machine-readable command schema",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) > 0 {
				path = strings.Join(args, " ")
			}
			data, err := schema.Build(s.root, path)
			if err != nil {
				return clierr.Wrap(clierr.CodeUsage, "build schema", err)
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), data, nil)
		},
	}
	return cmd
}

func (s *runtimeState) emitSuccess(commandPath string, data any, warnings []string) error {
	env := model.Envelope{
		Version:  model.EnvelopeVersion,
		Success:  true,
		Data:     data,
		Error:    nil,
		Warnings: warnings,
		Meta: model.EnvelopeMeta{
			RequestID: newRequestID(),
			Timestamp: s.runner.now().UTC(),
			Command:   commandPath,
		},
	}
	return out.Render(s.runner.stdout, env, s.settings)
}

func (s *runtimeState) renderError(commandPath string, err error) {
	if strings.TrimSpace(commandPath) == "" {
		commandPath = s.lastCommand
		if commandPath == "" {
			commandPath = version.CLIName
		}
	}
	code := clierr.ExitCode(err)
	typ := "internal_error"
	message := err.Error()
	if cErr, ok := clierr.As(err); ok {
		message = cErr.Message
		if cErr.Cause != nil {
			message = fmt.Sprintf("%s: %v", cErr.Message, cErr.Cause)
		}
		switch cErr.Code {
		case clierr.CodeUsage:
			typ = "usage_error"
		case clierr.CodeAuth:
			typ = "auth_error"
		case clierr.CodeRateLimited:
			typ = "rate_limited"
		case clierr.CodeOracleUnavailable:
			typ = "oracle_unavailable"
		case clierr.CodeUnsupported:
			typ = "unsupported"
		case clierr.CodeWalletNotConnected:
			typ = "wallet_not_connected"
		case clierr.CodeSubmission:
			typ = "submission_error"
		case clierr.CodeStorage:
			typ = "storage_error"
		case clierr.CodeBlocked:
			typ = "command_blocked"
		case clierr.CodeBusy:
			typ = "busy"
		}
	}

	settings := s.settings
	if settings.OutputMode == "" {
		settings.OutputMode = "json"
	}
	settings.ResultsOnly = false
	settings.SelectFields = nil
	env := model.Envelope{
		Version: model.EnvelopeVersion,
		Success: false,
		Data:    []any{},
		Error: &model.ErrorBody{
			Code:    code,
			Type:    typ,
			Message: message,
		},
		Meta: model.EnvelopeMeta{
			RequestID: newRequestID(),
			Timestamp: s.runner.now().UTC(),
			Command:   commandPath,
		},
	}
	_ = out.Render(s.runner.stderr, env, settings)
}

func newRequestID() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func trimRootPath(path string) string {
	parts := strings.Fields(path)
	if len(parts) <= 1 {
		return path
	}
	return strings.Join(parts[1:], " ")
}

func shouldOpenStore(commandPath string) bool {
	switch normalizeCommandPath(commandPath) {
	case "", "version", "schema", "settings show", "settings set", "wallet status", "wallet connect", "wallet disconnect":
		return false
	default:
		return true
	}
}

func normalizeCommandPath(commandPath string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(commandPath))), " ")
}

func normalizeRunError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := clierr.As(err); ok {
		return err
	}
	if isLikelyUsageError(err) {
		return clierr.Wrap(clierr.CodeUsage, "invalid command input", err)
	}
	return clierr.Wrap(clierr.CodeInternal, "execute command", err)
}

func isLikelyUsageError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	patterns := []string{
		"unknown command",
		"unknown flag",
		"required flag(s)",
		"flag needs an argument",
		"requires at least",
		"requires exactly",
		"accepts ",
		"invalid argument",
		"invalid args",
	}
	for _, p := range patterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
