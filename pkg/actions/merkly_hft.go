package actions

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/lisanmuaddib/hyperfarm/pkg/wallet"
)

// MerklyHFT mints hFT when the wallet holds none and bridges the whole token
// balance to the destination network
type MerklyHFT struct {
	merkly
}

// NewMerklyHFT creates the hFT action
func NewMerklyHFT(opts Options) *MerklyHFT {
	return &MerklyHFT{merkly{opts: opts.withDefaults()}}
}

func (a *MerklyHFT) Type() Type   { return MintBridgeHFT }
func (a *MerklyHFT) Name() string { return "Mint and bridge hFT via Merkly" }

func (a *MerklyHFT) Supports(network wallet.NetworkType) bool {
	_, ok := HFTContract(network)
	return ok
}

func (a *MerklyHFT) Execute(ctx context.Context, client ChainClient, dest wallet.NetworkType) Outcome {
	log := a.log(client, a.Type()).WithField("destination", dest)

	contract, ok := HFTContract(client.Network())
	if !ok {
		return NoAction(fmt.Sprintf("no hFT contract on %s", client.Network()))
	}
	domain, err := destinationDomain(dest)
	if err != nil {
		return Failed("resolve destination", err)
	}

	var hashes []common.Hash

	held, err := client.Balance(ctx, &contract)
	if err != nil {
		return Failed("read hFT balance", err)
	}

	if held.Sign() == 0 {
		fee, err := a.readUint(ctx, client, contract, HFTABI, "fee")
		if err != nil {
			return Failed("read mint fee", err)
		}

		amount := big.NewInt(a.opts.MintAmount())
		log.WithFields(logrus.Fields{"fee": fee.String(), "amount": amount.String()}).Info("Minting hFT")

		hash, err := a.send(ctx, client, contract, HFTABI, fee, "mint", client.Address(), amount)
		if err != nil {
			return fail("mint hFT", err, nonZero([]common.Hash{hash})...)
		}
		hashes = append(hashes, hash)
		log.WithField("tx_hash", hash.Hex()).Info("hFT minted")
	}

	if err := a.opts.Pause(ctx); err != nil {
		return Failed("pause before bridge", err, hashes...)
	}

	quote, err := a.readUint(ctx, client, contract, HFTABI, "quoteBridge", domain)
	if err != nil {
		return Failed("quote hFT bridge", err, hashes...)
	}

	held, err = client.Balance(ctx, &contract)
	if err != nil {
		return Failed("read hFT balance", err, hashes...)
	}
	if held.Sign() == 0 {
		return Failed("no hFT to bridge after mint", nil, hashes...)
	}

	log.WithFields(logrus.Fields{"quote": quote.String(), "amount": held.String()}).Info("Bridging hFT")

	hash, err := a.send(ctx, client, contract, HFTABI, quote, "bridgeHFT", domain, held)
	if err != nil {
		return fail("bridge hFT", err, nonZero(append(hashes, hash))...)
	}
	hashes = append(hashes, hash)

	log.WithField("tx_hash", hash.Hex()).Info("hFT bridged")
	return Success(fmt.Sprintf("hFT bridged from %s to %s", client.Network(), dest), hashes...)
}
