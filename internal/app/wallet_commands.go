package app

import (
	"github.com/spf13/cobra"

	clierr "github.com/ggonzalez94/arbchat/internal/errors"
	"github.com/ggonzalez94/arbchat/internal/wallet"
)

type walletStatus struct {
	State     string `json:"state"`
	AccountID string `json:"account_id,omitempty"`
}

func (s *runtimeState) walletStatusView() walletStatus {
	status := walletStatus{State: string(s.wallets.State())}
	if accountID, ok := s.wallets.AccountID(); ok {
		status.AccountID = accountID
	}
	return status
}

func (s *runtimeState) newWalletCommand() *cobra.Command {
	root := &cobra.Command{Use: "wallet", Short: "Signer wallet session"}

	connectCmd := &cobra.Command{
		Use:   "connect",
		Short: "Bind the signing key from the environment",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := s.connectWallet(cmd.Context()); err != nil {
				return err
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), s.walletStatusView(), nil)
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Report whether a signing key is available",
		RunE: func(cmd *cobra.Command, args []string) error {
			// A fresh process starts unbound; probe the environment so
			// status reflects whether connect would succeed.
			if s.wallets.State() == wallet.StateUnbound {
				if err := s.connectWallet(cmd.Context()); err != nil {
					if clierr.Is(err, clierr.CodeWalletNotConnected) {
						return s.emitSuccess(trimRootPath(cmd.CommandPath()), walletStatus{State: string(wallet.StateUnbound)}, nil)
					}
					return err
				}
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), s.walletStatusView(), nil)
		},
	}

	disconnectCmd := &cobra.Command{
		Use:   "disconnect",
		Short: "Unbind the signer for this invocation",
		RunE: func(cmd *cobra.Command, args []string) error {
			s.wallets.Disconnect()
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), s.walletStatusView(), nil)
		},
	}

	root.AddCommand(connectCmd)
	root.AddCommand(statusCmd)
	root.AddCommand(disconnectCmd)
	return root
}
