package actions

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/lisanmuaddib/hyperfarm/pkg/wallet"
)

// MerklyHNFT mints one hNFT and bridges the most recently indexed one
type MerklyHNFT struct {
	merkly
}

// NewMerklyHNFT creates the hNFT action
func NewMerklyHNFT(opts Options) *MerklyHNFT {
	return &MerklyHNFT{merkly{opts: opts.withDefaults()}}
}

func (a *MerklyHNFT) Type() Type   { return MintBridgeHNFT }
func (a *MerklyHNFT) Name() string { return "Mint and bridge hNFT via Merkly" }

func (a *MerklyHNFT) Supports(network wallet.NetworkType) bool {
	_, ok := HNFTContract(network)
	return ok
}

func (a *MerklyHNFT) Execute(ctx context.Context, client ChainClient, dest wallet.NetworkType) Outcome {
	log := a.log(client, a.Type()).WithField("destination", dest)

	contract, ok := HNFTContract(client.Network())
	if !ok {
		return NoAction(fmt.Sprintf("no hNFT contract on %s", client.Network()))
	}
	domain, err := destinationDomain(dest)
	if err != nil {
		return Failed("resolve destination", err)
	}

	fee, err := a.readUint(ctx, client, contract, HNFTABI, "fee")
	if err != nil {
		return Failed("read mint fee", err)
	}

	log.WithField("fee", fee.String()).Info("Minting hNFT")
	mintHash, err := a.send(ctx, client, contract, HNFTABI, fee, "mint", big.NewInt(1))
	if err != nil {
		return fail("mint hNFT", err, nonZero([]common.Hash{mintHash})...)
	}
	log.WithField("tx_hash", mintHash.Hex()).Info("hNFT minted")

	if err := a.opts.Pause(ctx); err != nil {
		return Failed("pause before bridge", err, mintHash)
	}

	quote, err := a.readUint(ctx, client, contract, HNFTABI, "quoteBridge", domain)
	if err != nil {
		return Failed("quote hNFT bridge", err, mintHash)
	}

	owned, err := a.readUint(ctx, client, contract, HNFTABI, "balanceOf", client.Address())
	if err != nil {
		return Failed("read hNFT balance", err, mintHash)
	}
	if owned.Sign() == 0 {
		return Failed("no hNFT after mint", nil, mintHash)
	}

	last := new(big.Int).Sub(owned, big.NewInt(1))
	tokenID, err := a.readUint(ctx, client, contract, HNFTABI, "tokenOfOwnerByIndex", client.Address(), last)
	if err != nil {
		return Failed("read hNFT id", err, mintHash)
	}

	log.WithFields(logrus.Fields{"quote": quote.String(), "token_id": tokenID.String()}).Info("Bridging hNFT")

	hash, err := a.send(ctx, client, contract, HNFTABI, quote, "bridgeNFT", domain, tokenID)
	if err != nil {
		return fail("bridge hNFT", err, nonZero([]common.Hash{mintHash, hash})...)
	}

	log.WithField("tx_hash", hash.Hex()).Info("hNFT bridged")
	return Success(fmt.Sprintf("hNFT bridged from %s to %s", client.Network(), dest), mintHash, hash)
}
