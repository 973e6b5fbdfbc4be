package wallet

import (
	"context"

	"github.com/sirupsen/logrus"
)

// RPCResolver maps a network to the endpoint that should be used for it
type RPCResolver func(NetworkType) string

// Dialer builds per-wallet clients that share one nonce manager
type Dialer struct {
	log    *logrus.Logger
	rpc    RPCResolver
	nonces *NonceManager
}

// NewDialer creates a dialer. A nil resolver uses each network's default endpoint.
func NewDialer(log *logrus.Logger, resolver RPCResolver) *Dialer {
	return &Dialer{
		log:    log,
		rpc:    resolver,
		nonces: NewNonceManager(),
	}
}

// Dial connects to network on behalf of the wallet holding privateKey,
// routing traffic through proxy when it is set.
func (d *Dialer) Dial(ctx context.Context, network NetworkType, privateKey, proxy string) (*Client, error) {
	cfg, ok := LookupNetwork(network)
	if !ok {
		return nil, NewWalletError(ErrCodeInvalidNetwork, "unknown network", nil, network)
	}

	var url string
	if d.rpc != nil {
		url = d.rpc(network)
	}

	return NewClient(ctx, d.log, ClientOptions{
		Network:    cfg,
		RPCURL:     url,
		PrivateKey: privateKey,
		Proxy:      proxy,
		Nonces:     d.nonces,
	})
}
