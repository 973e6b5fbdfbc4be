package actions_test

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/lisanmuaddib/hyperfarm/pkg/actions"
	"github.com/lisanmuaddib/hyperfarm/pkg/wallet"
)

// fakeClient answers contract reads from a table and records submitted calls
type fakeClient struct {
	network wallet.NetworkType
	address common.Address
	native  *big.Int
	tokens  map[common.Address]*big.Int
	reads   map[string]*big.Int

	submitErr error
	reverted  map[string]bool
	onSubmit  func(method string)

	submitted []string
	values    []*big.Int
	args      [][]interface{}
}

func newFakeClient(network wallet.NetworkType) *fakeClient {
	return &fakeClient{
		network:  network,
		address:  common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"),
		native:   big.NewInt(1e18),
		tokens:   map[common.Address]*big.Int{},
		reads:    map[string]*big.Int{},
		reverted: map[string]bool{},
	}
}

func (f *fakeClient) Network() wallet.NetworkType { return f.network }
func (f *fakeClient) Address() common.Address     { return f.address }
func (f *fakeClient) Close()                      {}

func (f *fakeClient) Balance(_ context.Context, token *common.Address) (*big.Int, error) {
	if token == nil {
		return new(big.Int).Set(f.native), nil
	}
	if b, ok := f.tokens[*token]; ok {
		return new(big.Int).Set(b), nil
	}
	return big.NewInt(0), nil
}

func (f *fakeClient) GasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(1e9), nil
}

func (f *fakeClient) Call(_ context.Context, _ common.Address, _ abi.ABI, method string, _ ...interface{}) ([]interface{}, error) {
	v, ok := f.reads[method]
	if !ok {
		return nil, fmt.Errorf("unexpected read %s", method)
	}
	return []interface{}{v}, nil
}

func (f *fakeClient) Submit(_ context.Context, params wallet.TxParams) (common.Hash, error) {
	if f.submitErr != nil {
		return common.Hash{}, f.submitErr
	}
	method, args, err := decodeCall(params.Data)
	if err != nil {
		return common.Hash{}, err
	}
	f.submitted = append(f.submitted, method)
	f.values = append(f.values, params.Value)
	f.args = append(f.args, args)
	if f.onSubmit != nil {
		f.onSubmit(method)
	}
	return common.BigToHash(big.NewInt(int64(len(f.submitted)))), nil
}

func (f *fakeClient) WaitReceipt(_ context.Context, hash common.Hash, _ time.Duration) (*wallet.TransactionStatus, error) {
	idx := int(hash.Big().Int64()) - 1
	status := types.ReceiptStatusSuccessful
	if f.reverted[f.submitted[idx]] {
		status = types.ReceiptStatusFailed
	}
	return &wallet.TransactionStatus{Hash: hash, Status: status}, nil
}

func decodeCall(data []byte) (string, []interface{}, error) {
	for _, parsed := range []abi.ABI{actions.HFTABI, actions.HNFTABI} {
		m, err := parsed.MethodById(data[:4])
		if err != nil {
			continue
		}
		args, err := m.Inputs.Unpack(data[4:])
		if err != nil {
			return "", nil, err
		}
		return m.Name, args, nil
	}
	return "", nil, fmt.Errorf("unknown selector %x", data[:4])
}
