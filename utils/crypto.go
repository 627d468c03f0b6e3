package utils

import (
	"encoding/hex"

	"golang.org/x/crypto/sha3"

	"github.com/ethereum/go-ethereum/common"
)

// PublicKeyBytesToAddress derives an account address from an uncompressed
// secp256k1 public key (the last 20 bytes of the keccak hash of the key).
func PublicKeyBytesToAddress(publicKey []byte) common.Address {
	hash := sha3.NewLegacyKeccak256()
	hash.Write(publicKey[1:]) // remove EC prefix 04
	buf := hash.Sum(nil)
	address := buf[12:]

	return common.HexToAddress(hex.EncodeToString(address))
}
