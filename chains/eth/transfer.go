package eth

import (
	"context"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/sisu-network/lib/log"

	"github.com/prizedrop/tokensend/config"
	"github.com/prizedrop/tokensend/types"
	"github.com/prizedrop/tokensend/utils"
)

// TransferExecutor executes exactly one token transfer per invocation:
// recipient normalization, balance check, nonce read, assembly, signing and
// broadcast. No step is retried and nothing is rolled back on failure; until
// the broadcast succeeds no funds have moved.
type TransferExecutor struct {
	client  EthClient
	account *SenderAccount
	token   *TokenContract

	chainId  *big.Int
	gasLimit uint64
	gasPrice *big.Int
	timeout  time.Duration

	// Serializes nonce read through broadcast for the held sender. Two
	// unserialized transfers can read the same transaction count and race
	// each other to the node.
	lock sync.Mutex
}

func NewTransferExecutor(cfg config.Config, client EthClient, account *SenderAccount,
	token *TokenContract) *TransferExecutor {
	return &TransferExecutor{
		client:   client,
		account:  account,
		token:    token,
		chainId:  big.NewInt(cfg.ChainId),
		gasLimit: cfg.GasLimit,
		gasPrice: utils.GweiToWei(cfg.GasPriceGwei),
		timeout:  cfg.RpcTimeout(),
	}
}

// Execute transfers amount (in the token's smallest unit) to the recipient.
// The balance check is advisory: it is a point-in-time read, not atomic with
// the broadcast, and the node remains the final authority on spendability.
func (e *TransferExecutor) Execute(ctx context.Context, recipient string, amount *big.Int) *types.TransferResult {
	if !common.IsHexAddress(recipient) {
		log.Warnf("Rejecting transfer to malformed address %q", recipient)
		return types.NewTransferError(types.ErrInvalidAddress, "")
	}
	to := common.HexToAddress(recipient)

	balance, err := e.senderBalance(ctx)
	if err != nil {
		log.Errorf("Failed to read token balance for %s, err = %v", e.account.Address, err)
		return types.NewTransferError(types.ErrNodeRead, "")
	}

	if balance.Cmp(amount) < 0 {
		log.Warnf("Insufficient balance: have %s, need %s", balance, amount)
		return types.NewTransferError(types.ErrInsufficientBalance, "")
	}

	e.lock.Lock()
	defer e.lock.Unlock()

	nonce, err := e.pendingNonce(ctx)
	if err != nil {
		log.Errorf("Failed to get pending nonce for %s, err = %v", e.account.Address, err)
		return types.NewTransferError(types.ErrNodeRead, "")
	}

	data, err := e.token.PackTransfer(to, amount)
	if err != nil {
		log.Error("Failed to pack transfer call, err = ", err)
		return types.NewTransferError(types.ErrSigning, "")
	}

	tx := ethtypes.NewTransaction(nonce, e.token.Address, common.Big0, e.gasLimit, e.gasPrice, data)
	signed, err := e.account.SignTx(tx, e.chainId)
	if err != nil {
		log.Error("Failed to sign transfer transaction, err = ", err)
		return types.NewTransferError(types.ErrSigning, "")
	}

	if err := e.broadcast(ctx, signed); err != nil {
		if strings.Contains(err.Error(), "already known") {
			// Another party has submitted the identical transaction. The node
			// accepted it, so this counts as a successful submission despite
			// the returned error.
			log.Verbose("Tx already known by the node, txHash = ", signed.Hash().Hex())
		} else {
			log.Errorf("Node rejected transfer tx, nonce = %d, err = %v", nonce, err)
			return types.NewTransferError(types.ErrBroadcastRejected, err.Error())
		}
	}

	log.Verbosef("Transfer dispatched, to = %s, amount = %s, nonce = %d, txHash = %s",
		to, amount, nonce, signed.Hash().Hex())

	return &types.TransferResult{
		Success: true,
		TxHash:  signed.Hash().Hex(),
		Nonce:   nonce,
	}
}

func (e *TransferExecutor) senderBalance(ctx context.Context) (*big.Int, error) {
	data, err := e.token.PackBalanceOf(e.account.Address)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	out, err := e.client.CallContract(callCtx, ethereum.CallMsg{
		To:   &e.token.Address,
		Data: data,
	}, nil)
	if err != nil {
		return nil, err
	}

	return e.token.UnpackBalance(out)
}

func (e *TransferExecutor) pendingNonce(ctx context.Context) (uint64, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	return e.client.PendingNonceAt(callCtx, e.account.Address)
}

func (e *TransferExecutor) broadcast(ctx context.Context, tx *ethtypes.Transaction) error {
	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	return e.client.SendTransaction(callCtx, tx)
}
