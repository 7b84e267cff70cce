package wallet

import "context"

// TransferRequest is the private transfer handed to the signer capability.
type TransferRequest struct {
	Chain       string `json:"chain"`
	Action      string `json:"action"`
	Amount      string `json:"amount"`
	Recipient   string `json:"recipient"`
	PrivacyMode string `json:"privacy_mode"`
}

// Wallet is the connected signer capability. Submit signs and submits a
// transfer request and returns the resulting opaque hash.
type Wallet interface {
	AccountID() string
	Submit(ctx context.Context, req TransferRequest) (string, error)
}

// Connector opens a wallet. It may suspend pending user interaction, so it
// takes a context.
type Connector func(ctx context.Context) (Wallet, error)
