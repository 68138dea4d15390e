package keys

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"
	"golang.org/x/crypto/blake2b"
)

// MaxSS58Prefix is the largest address format SS58 can carry (14 bits).
const MaxSS58Prefix uint16 = 1<<14 - 1

var ErrInvalidPrefix = errors.New("SS58 prefix out of range")

var ss58Pre = []byte("SS58PRE")

// SS58Encode renders a 32 byte public key as an SS58 address. Prefixes
// below 64 take one byte, the rest two.
func SS58Encode(pub []byte, prefix uint16) (string, error) {
	if prefix > MaxSS58Prefix {
		return "", fmt.Errorf("%w: %d (max %d)", ErrInvalidPrefix, prefix, MaxSS58Prefix)
	}
	if len(pub) != 32 {
		return "", fmt.Errorf("public key must be 32 bytes, got %d", len(pub))
	}

	var ident []byte
	if prefix < 64 {
		ident = []byte{byte(prefix)}
	} else {
		ident = []byte{
			byte((prefix&0b1111_1100)>>2) | 0b0100_0000,
			byte(prefix>>8) | byte((prefix&0b11)<<6),
		}
	}

	payload := append(ident, pub...)
	h, err := blake2b.New512(nil)
	if err != nil {
		return "", err
	}
	h.Write(ss58Pre)
	h.Write(payload)
	sum := h.Sum(nil)
	return base58.Encode(append(payload, sum[:2]...)), nil
}
