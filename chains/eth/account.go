package eth

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/prizedrop/tokensend/utils"
)

// SenderAccount is the process-wide signing identity. It is derived once at
// startup from the held credential and never rotated at runtime.
type SenderAccount struct {
	Address common.Address

	key *ecdsa.PrivateKey
}

func NewSenderAccount(privateKeyHex string) (*SenderAccount, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	address := utils.PublicKeyBytesToAddress(crypto.FromECDSAPub(&key.PublicKey))

	return &SenderAccount{
		Address: address,
		key:     key,
	}, nil
}

// SignTx signs a transaction for the given chain. Signing is a pure function
// of the transaction contents and the key.
func (a *SenderAccount) SignTx(tx *ethtypes.Transaction, chainId *big.Int) (*ethtypes.Transaction, error) {
	return ethtypes.SignTx(tx, ethtypes.NewEIP155Signer(chainId), a.key)
}
