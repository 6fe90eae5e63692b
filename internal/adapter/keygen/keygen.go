// Package keygen creates secp256k1 wallet key pairs.
package keygen

import (
	"encoding/hex"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
)

// Generator implements ports.KeyGenerator with Ethereum-style addresses.
type Generator struct{}

func New() *Generator {
	return &Generator{}
}

// Generate returns a checksummed 0x address and the hex private key.
func (g *Generator) Generate() (string, string, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return "", "", fmt.Errorf("generate wallet key: %w", err)
	}
	address := crypto.PubkeyToAddress(key.PublicKey).Hex()
	return address, hex.EncodeToString(crypto.FromECDSA(key)), nil
}
