package explorer

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

var (
	// ErrInvalidAddress is returned for keys that are not base58 public keys
	ErrInvalidAddress = errors.New("invalid address")
	// ErrInvalidSignature is returned for keys that are not base58 transaction signatures
	ErrInvalidSignature = errors.New("invalid signature")
)

// ValidateAddress checks that s is a base58-encoded public key
func ValidateAddress(s string) error {
	if _, err := solana.PublicKeyFromBase58(s); err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidAddress, s, err)
	}
	return nil
}

// ValidateSignature checks that s is a base58-encoded transaction signature
func ValidateSignature(s string) error {
	if _, err := solana.SignatureFromBase58(s); err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidSignature, s, err)
	}
	return nil
}
