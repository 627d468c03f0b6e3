package eth

import (
	"context"
	"errors"
	"math/big"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"

	"github.com/prizedrop/tokensend/config"
	"github.com/prizedrop/tokensend/types"
)

const (
	testPrivateKey   = "fad9c8855b740a0b7ed4c221dbad0f33a83a49cad6b3fe8d5817ac83d38b6a19"
	testTokenAddress = "0x2170Ed0880ac9A755fd29B2688956BD959F933F8"
	testRecipient    = "0xabcabcabcabcabcabcabcabcabcabcabcabcabca"
)

func testExecutor(t *testing.T, client EthClient) *TransferExecutor {
	account, err := NewSenderAccount(testPrivateKey)
	require.Nil(t, err)

	token, err := NewTokenContract(testTokenAddress)
	require.Nil(t, err)

	cfg := config.Config{
		ChainId:        config.DefaultChainId,
		GasLimit:       config.DefaultGasLimit,
		GasPriceGwei:   config.DefaultGasPriceGwei,
		RpcTimeoutSecs: 5,
	}

	return NewTransferExecutor(cfg, client, account, token)
}

// packedBalance encodes a balanceOf return value the way the node would.
func packedBalance(balance *big.Int) []byte {
	return common.LeftPadBytes(balance.Bytes(), 32)
}

func tokens(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

func TestExecutor_InvalidAddress(t *testing.T) {
	reads, sends := 0, 0
	client := &MockEthClient{
		CallContractFunc: func(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
			reads++
			return packedBalance(tokens(10)), nil
		},
		SendTransactionFunc: func(ctx context.Context, tx *ethtypes.Transaction) error {
			sends++
			return nil
		},
	}

	e := testExecutor(t, client)
	result := e.Execute(context.Background(), "not-an-address", tokens(1))

	require.False(t, result.Success)
	require.Equal(t, types.ErrInvalidAddress, result.Err)
	require.Equal(t, 0, reads)
	require.Equal(t, 0, sends)
}

func TestExecutor_InsufficientBalance(t *testing.T) {
	sends := 0
	client := &MockEthClient{
		CallContractFunc: func(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
			return packedBalance(tokens(10)), nil
		},
		SendTransactionFunc: func(ctx context.Context, tx *ethtypes.Transaction) error {
			sends++
			return nil
		},
	}

	e := testExecutor(t, client)
	result := e.Execute(context.Background(), testRecipient, tokens(100))

	require.False(t, result.Success)
	require.Equal(t, types.ErrInsufficientBalance, result.Err)
	require.Equal(t, 0, sends)
}

func TestExecutor_Success(t *testing.T) {
	var sent *ethtypes.Transaction
	client := &MockEthClient{
		CallContractFunc: func(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
			return packedBalance(tokens(10)), nil
		},
		PendingNonceAtFunc: func(ctx context.Context, account common.Address) (uint64, error) {
			return 7, nil
		},
		SendTransactionFunc: func(ctx context.Context, tx *ethtypes.Transaction) error {
			sent = tx
			return nil
		},
	}

	e := testExecutor(t, client)
	amount := new(big.Int).Div(tokens(3), big.NewInt(2)) // 1.5 tokens
	result := e.Execute(context.Background(), testRecipient, amount)

	require.True(t, result.Success)
	require.Equal(t, types.ErrNone, result.Err)
	require.Regexp(t, regexp.MustCompile("^0x[0-9a-f]{64}$"), result.TxHash)
	require.NotNil(t, sent)

	// The broadcast tx must carry the nonce read for this request and call
	// transfer on the token contract with zero native value.
	require.Equal(t, uint64(7), sent.Nonce())
	require.Equal(t, result.Nonce, sent.Nonce())
	require.Equal(t, common.HexToAddress(testTokenAddress), *sent.To())
	require.Equal(t, 0, sent.Value().Sign())
	require.Equal(t, []byte{0xa9, 0x05, 0x9c, 0xbb}, sent.Data()[:4])

	signer := ethtypes.NewEIP155Signer(big.NewInt(config.DefaultChainId))
	from, err := ethtypes.Sender(signer, sent)
	require.Nil(t, err)
	require.Equal(t, e.account.Address, from)
}

func TestExecutor_SequentialNoncesDistinct(t *testing.T) {
	nonce := uint64(0)
	client := &MockEthClient{
		CallContractFunc: func(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
			return packedBalance(tokens(10)), nil
		},
		PendingNonceAtFunc: func(ctx context.Context, account common.Address) (uint64, error) {
			return nonce, nil
		},
		SendTransactionFunc: func(ctx context.Context, tx *ethtypes.Transaction) error {
			nonce++
			return nil
		},
	}

	e := testExecutor(t, client)
	first := e.Execute(context.Background(), testRecipient, tokens(1))
	second := e.Execute(context.Background(), testRecipient, tokens(1))

	require.True(t, first.Success)
	require.True(t, second.Success)
	require.NotEqual(t, first.Nonce, second.Nonce)
}

// N concurrent transfers from the same sender must use N distinct nonces with
// none rejected for a collision. The mock accepts a tx only when its nonce
// matches the node-side counter and widens the read-then-use window with a
// sleep, so an executor without the critical section fails this test.
func TestExecutor_ConcurrentTransfersSerialized(t *testing.T) {
	const n = 8

	var mu sync.Mutex
	nonce := uint64(0)
	used := make(map[uint64]bool)

	client := &MockEthClient{
		CallContractFunc: func(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
			return packedBalance(tokens(1000)), nil
		},
		PendingNonceAtFunc: func(ctx context.Context, account common.Address) (uint64, error) {
			mu.Lock()
			current := nonce
			mu.Unlock()

			time.Sleep(5 * time.Millisecond)
			return current, nil
		},
		SendTransactionFunc: func(ctx context.Context, tx *ethtypes.Transaction) error {
			mu.Lock()
			defer mu.Unlock()

			if tx.Nonce() != nonce {
				return errors.New("nonce too low")
			}
			used[tx.Nonce()] = true
			nonce++
			return nil
		},
	}

	e := testExecutor(t, client)

	var wg sync.WaitGroup
	results := make([]*types.TransferResult, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = e.Execute(context.Background(), testRecipient, tokens(1))
		}(i)
	}
	wg.Wait()

	for i, result := range results {
		require.True(t, result.Success, "transfer %d failed: %s", i, result.Err)
	}
	require.Equal(t, n, len(used))
}

func TestExecutor_NodeReadFailures(t *testing.T) {
	t.Run("balance read fails", func(t *testing.T) {
		client := &MockEthClient{
			CallContractFunc: func(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
				return nil, errors.New("connection refused")
			},
		}

		result := testExecutor(t, client).Execute(context.Background(), testRecipient, tokens(1))
		require.Equal(t, types.ErrNodeRead, result.Err)
	})

	t.Run("nonce read fails", func(t *testing.T) {
		sends := 0
		client := &MockEthClient{
			CallContractFunc: func(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
				return packedBalance(tokens(10)), nil
			},
			PendingNonceAtFunc: func(ctx context.Context, account common.Address) (uint64, error) {
				return 0, errors.New("connection refused")
			},
			SendTransactionFunc: func(ctx context.Context, tx *ethtypes.Transaction) error {
				sends++
				return nil
			},
		}

		result := testExecutor(t, client).Execute(context.Background(), testRecipient, tokens(1))
		require.Equal(t, types.ErrNodeRead, result.Err)
		require.Equal(t, 0, sends)
	})
}

func TestExecutor_BroadcastRejected(t *testing.T) {
	client := &MockEthClient{
		CallContractFunc: func(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
			return packedBalance(tokens(10)), nil
		},
		SendTransactionFunc: func(ctx context.Context, tx *ethtypes.Transaction) error {
			return errors.New("insufficient funds for gas * price + value")
		},
	}

	result := testExecutor(t, client).Execute(context.Background(), testRecipient, tokens(1))
	require.False(t, result.Success)
	require.Equal(t, types.ErrBroadcastRejected, result.Err)
	require.Equal(t, "insufficient funds for gas * price + value", result.Reason)
}

func TestExecutor_BroadcastAlreadyKnown(t *testing.T) {
	client := &MockEthClient{
		CallContractFunc: func(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
			return packedBalance(tokens(10)), nil
		},
		SendTransactionFunc: func(ctx context.Context, tx *ethtypes.Transaction) error {
			return errors.New("already known")
		},
	}

	result := testExecutor(t, client).Execute(context.Background(), testRecipient, tokens(1))
	require.True(t, result.Success)
}
