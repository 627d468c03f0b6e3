package eth

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// The minimal fungible-token interface this service needs: a read-only
// balance lookup and the transfer function.
const erc20AbiJson = `[
	{
		"constant": true,
		"inputs": [{"name": "_owner", "type": "address"}],
		"name": "balanceOf",
		"outputs": [{"name": "balance", "type": "uint256"}],
		"type": "function"
	},
	{
		"constant": false,
		"inputs": [
			{"name": "_to", "type": "address"},
			{"name": "_value", "type": "uint256"}
		],
		"name": "transfer",
		"outputs": [{"name": "", "type": "bool"}],
		"type": "function"
	}
]`

// TokenContract binds the fixed token contract deployed on chain. Immutable
// after startup.
type TokenContract struct {
	Address common.Address

	abi abi.ABI
}

func NewTokenContract(address string) (*TokenContract, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("invalid token contract address %s", address)
	}

	parsed, err := abi.JSON(strings.NewReader(erc20AbiJson))
	if err != nil {
		return nil, err
	}

	return &TokenContract{
		Address: common.HexToAddress(address),
		abi:     parsed,
	}, nil
}

func (t *TokenContract) PackBalanceOf(owner common.Address) ([]byte, error) {
	return t.abi.Pack("balanceOf", owner)
}

func (t *TokenContract) UnpackBalance(data []byte) (*big.Int, error) {
	values, err := t.abi.Unpack("balanceOf", data)
	if err != nil {
		return nil, err
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("unexpected balanceOf output length %d", len(values))
	}

	balance, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected balanceOf output type %T", values[0])
	}

	return balance, nil
}

func (t *TokenContract) PackTransfer(to common.Address, amount *big.Int) ([]byte, error) {
	return t.abi.Pack("transfer", to, amount)
}
