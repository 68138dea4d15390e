// Package keys turns a signer URI into an sr25519 keypair and its SS58
// address. The URI grammar is the one used by Substrate tooling:
//
//	<phrase or 0x seed>[//hard][/soft]...[///password]
//
// An empty phrase selects the well-known development phrase, so "//Alice"
// is accepted.
package keys

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/tyler-smith/go-bip39"
)

var (
	ErrEmptyURI        = errors.New("signer URI is empty")
	ErrInvalidSeed     = errors.New("hex seed must be 0x followed by 64 hexadecimal digits")
	ErrInvalidMnemonic = errors.New("invalid mnemonic phrase")
	ErrInvalidPath     = errors.New("invalid derivation path")
)

// SeedLen is the length in bytes of a raw mini secret seed.
const SeedLen = 32

// Junction is one step of a derivation path.
type Junction struct {
	Name string
	Hard bool
}

func (j Junction) String() string {
	if j.Hard {
		return "//" + j.Name
	}
	return "/" + j.Name
}

// URI is a parsed signer URI.
type URI struct {
	Phrase   string
	Seed     []byte // set when Phrase is a 0x hex seed
	Path     []Junction
	Password string
}

// Dev reports whether the URI relies on the development phrase.
func (u URI) Dev() bool { return u.Phrase == "" }

// ParseURI splits and checks a signer URI without deriving anything.
func ParseURI(raw string) (URI, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return URI{}, ErrEmptyURI
	}

	var u URI
	if i := strings.Index(raw, "///"); i >= 0 {
		u.Password = raw[i+3:]
		raw = raw[:i]
	}

	phrase, path := raw, ""
	if i := strings.Index(raw, "/"); i >= 0 {
		phrase, path = raw[:i], raw[i:]
	}
	u.Phrase = strings.Join(strings.Fields(phrase), " ")

	junctions, err := parsePath(path)
	if err != nil {
		return URI{}, err
	}
	u.Path = junctions

	switch {
	case u.Dev():
		if len(u.Path) == 0 {
			return URI{}, ErrEmptyURI
		}
	case strings.HasPrefix(u.Phrase, "0x"):
		seed, err := hex.DecodeString(u.Phrase[2:])
		if err != nil || len(seed) != SeedLen {
			return URI{}, ErrInvalidSeed
		}
		u.Seed = seed
	default:
		if !bip39.IsMnemonicValid(u.Phrase) {
			return URI{}, ErrInvalidMnemonic
		}
	}
	return u, nil
}

func parsePath(path string) ([]Junction, error) {
	var out []Junction
	for path != "" {
		hard := strings.HasPrefix(path, "//")
		if hard {
			path = path[2:]
		} else {
			path = path[1:]
		}
		end := strings.Index(path, "/")
		if end < 0 {
			end = len(path)
		}
		name := path[:end]
		if name == "" {
			return nil, fmt.Errorf("%w: empty junction", ErrInvalidPath)
		}
		out = append(out, Junction{Name: name, Hard: hard})
		path = path[end:]
	}
	return out, nil
}

// PathString renders the derivation path, e.g. "//polkadot/0".
func (u URI) PathString() string {
	var b strings.Builder
	for _, j := range u.Path {
		b.WriteString(j.String())
	}
	return b.String()
}
