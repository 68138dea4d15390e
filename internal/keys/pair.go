package keys

import (
	"fmt"
	"strings"

	"github.com/centrifuge/go-substrate-rpc-client/v4/signature"
)

// DefaultSS58Prefix is the generic Substrate address format.
const DefaultSS58Prefix uint16 = 42

// the keyring only takes one-byte network ids; the address it renders is
// replaced by SS58Encode with the configured prefix
const keyringNetwork = 42

// Pair is a derived signing keypair.
type Pair struct {
	signature.KeyringPair
	Parsed URI
}

// Derive parses uri and derives the sr25519 keypair it names. Addresses are
// rendered with the given SS58 prefix.
func Derive(uri string, ss58Prefix uint16) (Pair, error) {
	parsed, err := ParseURI(uri)
	if err != nil {
		return Pair{}, err
	}
	kp, err := signature.KeyringPairFromSecret(strings.TrimSpace(uri), keyringNetwork)
	if err != nil {
		return Pair{}, fmt.Errorf("derive keypair: %w", err)
	}
	kp.Address, err = SS58Encode(kp.PublicKey, ss58Prefix)
	if err != nil {
		return Pair{}, err
	}
	return Pair{KeyringPair: kp, Parsed: parsed}, nil
}

// Address returns the SS58 address for uri, or "" when it cannot be derived.
// It backs the read-only address field that follows the signer input.
func Address(uri string, ss58Prefix uint16) string {
	p, err := Derive(uri, ss58Prefix)
	if err != nil {
		return ""
	}
	return p.Address
}
