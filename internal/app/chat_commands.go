package app

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	clierr "github.com/ggonzalez94/arbchat/internal/errors"
)

func (s *runtimeState) newChatCommand() *cobra.Command {
	root := &cobra.Command{Use: "chat", Short: "Arbitrage chat agent"}

	var message string
	sendCmd := &cobra.Command{
		Use:   "send",
		Short: "Send one message to the agent and print the reply",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			text := message
			if strings.TrimSpace(text) == "" && len(args) > 0 {
				text = strings.Join(args, " ")
			}
			if strings.TrimSpace(text) == "" {
				return clierr.New(clierr.CodeUsage, "message text is required (--message or positional args)")
			}

			if s.settings.AutoExecute {
				// Best effort; auto-execute is simply skipped when no key
				// material is available.
				_ = s.connectWallet(cmd.Context())
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), s.settings.Timeout)
			defer cancel()
			reply, err := s.chatSession().Send(ctx, text)
			if err != nil {
				return err
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), reply, nil)
		},
	}
	sendCmd.Flags().StringVar(&message, "message", "", "Message text")

	var limit int
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Print the conversation history in append order",
		RunE: func(cmd *cobra.Command, args []string) error {
			messages, err := s.chatSession().History(limit)
			if err != nil {
				return err
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), messages, nil)
		},
	}
	historyCmd.Flags().IntVar(&limit, "limit", 100, "Maximum messages to return")

	root.AddCommand(sendCmd)
	root.AddCommand(historyCmd)
	return root
}

func (s *runtimeState) newExecuteCommand() *cobra.Command {
	var amount string
	cmd := &cobra.Command{
		Use:   "execute",
		Short: "Confirm the latest parsed request and forge a shielded transfer",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := s.connectWallet(cmd.Context()); err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), s.settings.Timeout)
			defer cancel()
			intent, err := s.chatSession().Execute(ctx, amount)
			if err != nil {
				return err
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), intent, nil)
		},
	}
	cmd.Flags().StringVar(&amount, "amount", "", "Transfer amount (defaults to 1)")
	return cmd
}

func (s *runtimeState) newTxLogCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "txlog",
		Short: "List forged transfer intents, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			intents, err := s.store.Intents(limit)
			if err != nil {
				return err
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), intents, nil)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum intents to return")
	return cmd
}
