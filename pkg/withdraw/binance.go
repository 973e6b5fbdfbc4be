package withdraw

import (
	"context"
	"fmt"

	"github.com/adshao/go-binance/v2"

	"github.com/lisanmuaddib/hyperfarm/pkg/settings"
)

// BinanceClient withdraws through the Binance capital API
type BinanceClient struct {
	client *binance.Client
}

// NewBinanceClient creates a Binance withdrawal client. baseURL overrides the
// API root when non-empty.
func NewBinanceClient(creds settings.Credentials, baseURL string) (*BinanceClient, error) {
	if !creds.Filled() {
		return nil, fmt.Errorf("binance: %w", ErrMissingCredentials)
	}
	client := binance.NewClient(creds.APIKey, creds.SecretKey)
	if baseURL != "" {
		client.BaseURL = baseURL
	}
	return &BinanceClient{client: client}, nil
}

// Withdraw requests an on-chain withdrawal
func (b *BinanceClient) Withdraw(ctx context.Context, req Request) (string, error) {
	res, err := b.client.NewCreateWithdrawService().
		Coin(req.Coin).
		Network(req.Network).
		Address(req.Address).
		Amount(req.Amount.String()).
		Do(ctx)
	if err != nil {
		return "", fmt.Errorf("binance withdrawal failed: %w", err)
	}
	return res.ID, nil
}
