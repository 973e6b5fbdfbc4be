package actions

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/lisanmuaddib/hyperfarm/pkg/wallet"
)

// Merkly Hyperlane token contracts per network
var hftContracts = map[wallet.NetworkType]common.Address{
	wallet.Polygon:  common.HexToAddress("0x574E69C50e7D13B3d1B364BF0D48285A5aE2dF56"),
	wallet.Base:     common.HexToAddress("0x5454cF5584939f7f884e95DBA33FECd6D40B8fE2"),
	wallet.Scroll:   common.HexToAddress("0x904550e0D182cd4aEe0D305891c666a212EC8F01"),
	wallet.Optimism: common.HexToAddress("0x32F05f390217990404392a4DdAF39D31Db4aFf77"),
	wallet.Moonbeam: common.HexToAddress("0xf3D41b377c93fA5C3b0071966f1811c5063fAD40"),
	wallet.Celo:     common.HexToAddress("0xad8676147360dBc010504aB69C7f1b1877109527"),
	wallet.Arbitrum: common.HexToAddress("0xFD34afDFbaC1E47aFC539235420e4bE4A206f26D"),
	wallet.BSC:      common.HexToAddress("0x7b4f475d32f9c65de1834A578859F9823bE3c5Cf"),
}

// Merkly Hyperlane NFT contracts per network
var hnftContracts = map[wallet.NetworkType]common.Address{
	wallet.Polygon:  common.HexToAddress("0x7daC480d20f322D2ef108A59A465CCb5749371c4"),
	wallet.Base:     common.HexToAddress("0x7daC480d20f322D2ef108A59A465CCb5749371c4"),
	wallet.Scroll:   common.HexToAddress("0x7daC480d20f322D2ef108A59A465CCb5749371c4"),
	wallet.Optimism: common.HexToAddress("0x2a5c54c625220cb2166C94DD9329be1F8785977D"),
	wallet.Moonbeam: common.HexToAddress("0x7daC480d20f322D2ef108A59A465CCb5749371c4"),
	wallet.Celo:     common.HexToAddress("0x7f4CFDf669d7a5d4Adb05917081634875E21Df47"),
	wallet.Arbitrum: common.HexToAddress("0x7daC480d20f322D2ef108A59A465CCb5749371c4"),
	wallet.BSC:      common.HexToAddress("0xf3D41b377c93fA5C3b0071966f1811c5063fAD40"),
}

const hftABIJSON = `[
	{"type":"function","name":"fee","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"mint","stateMutability":"payable","inputs":[{"name":"_to","type":"address"},{"name":"_amount","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"quoteBridge","stateMutability":"view","inputs":[{"name":"_destination","type":"uint32"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"bridgeHFT","stateMutability":"payable","inputs":[{"name":"_destination","type":"uint32"},{"name":"_amount","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
]`

const hnftABIJSON = `[
	{"type":"function","name":"fee","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"mint","stateMutability":"payable","inputs":[{"name":"amount","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"quoteBridge","stateMutability":"view","inputs":[{"name":"_destination","type":"uint32"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"bridgeNFT","stateMutability":"payable","inputs":[{"name":"_destination","type":"uint32"},{"name":"_Id","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"tokenOfOwnerByIndex","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"index","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]}
]`

var (
	// HFTABI is the Merkly Hyperlane token ABI subset used by the farm
	HFTABI = mustParseABI(hftABIJSON)
	// HNFTABI is the Merkly Hyperlane NFT ABI subset used by the farm
	HNFTABI = mustParseABI(hnftABIJSON)
)

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(err)
	}
	return parsed
}

// HFTContract returns the hFT contract on network
func HFTContract(network wallet.NetworkType) (common.Address, bool) {
	addr, ok := hftContracts[network]
	return addr, ok
}

// HNFTContract returns the hNFT contract on network
func HNFTContract(network wallet.NetworkType) (common.Address, bool) {
	addr, ok := hnftContracts[network]
	return addr, ok
}

// BridgeMethodIDs returns the 4 byte selectors of the bridge calls, keyed by action type
func BridgeMethodIDs() map[Type][]byte {
	return map[Type][]byte{
		MintBridgeHFT:  HFTABI.Methods["bridgeHFT"].ID,
		MintBridgeHNFT: HNFTABI.Methods["bridgeNFT"].ID,
	}
}
