package eth

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
)

type MockEthClient struct {
	ChainIDFunc         func(ctx context.Context) (*big.Int, error)
	BlockNumberFunc     func(ctx context.Context) (uint64, error)
	CallContractFunc    func(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	PendingNonceAtFunc  func(ctx context.Context, account common.Address) (uint64, error)
	SendTransactionFunc func(ctx context.Context, tx *ethtypes.Transaction) error
}

func (c *MockEthClient) ChainID(ctx context.Context) (*big.Int, error) {
	if c.ChainIDFunc != nil {
		return c.ChainIDFunc(ctx)
	}

	return nil, nil
}

func (c *MockEthClient) BlockNumber(ctx context.Context) (uint64, error) {
	if c.BlockNumberFunc != nil {
		return c.BlockNumberFunc(ctx)
	}

	return 0, nil
}

func (c *MockEthClient) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	if c.CallContractFunc != nil {
		return c.CallContractFunc(ctx, msg, blockNumber)
	}

	return nil, nil
}

func (c *MockEthClient) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	if c.PendingNonceAtFunc != nil {
		return c.PendingNonceAtFunc(ctx, account)
	}

	return 0, nil
}

func (c *MockEthClient) SendTransaction(ctx context.Context, tx *ethtypes.Transaction) error {
	if c.SendTransactionFunc != nil {
		return c.SendTransactionFunc(ctx, tx)
	}

	return nil
}
