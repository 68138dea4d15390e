package chaintypes

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
)

var (
	ErrArgCount    = errors.New("wrong number of arguments")
	ErrUnsupported = errors.New("unsupported argument type")
	ErrInvalidArg  = errors.New("invalid argument")
)

// builtins maps primitive names to their canonical form.
var builtins = map[string]string{
	"u8":      "u8",
	"u16":     "u16",
	"u32":     "u32",
	"u64":     "u64",
	"u128":    "u128",
	"bool":    "bool",
	"Hash":    "H256",
	"H256":    "H256",
	"Bytes":   "Vec<u8>",
	"Vec<u8>": "Vec<u8>",
	"Text":    "Vec<u8>",
	"Balance": "u128",
}

func isBuiltin(name string) bool {
	_, ok := builtins[name]
	return ok
}

// Builtin reports whether name is a primitive the encoder knows and returns
// its canonical form, e.g. "Hash" -> "H256".
func Builtin(name string) (string, bool) {
	c, ok := builtins[strings.TrimSpace(name)]
	return c, ok
}

// EncodeArgs converts raw strings into SCALE-encodable values for the named
// call, in declaration order.
func (r *Registry) EncodeArgs(call string, raw []string) ([]any, error) {
	c, ok := r.calls[call]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCall, call)
	}
	if len(raw) != len(c.Args) {
		return nil, fmt.Errorf("%w: %s takes %d, got %d", ErrArgCount, call, len(c.Args), len(raw))
	}
	out := make([]any, 0, len(raw))
	for i, a := range c.Args {
		v, err := r.Encode(a.Type, raw[i])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", a.Name, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// Encode converts one raw string into a value of the named type.
func (r *Registry) Encode(typeName, raw string) (any, error) {
	resolved, err := r.Resolve(typeName)
	if err != nil {
		return nil, err
	}

	if outer, inner, ok := splitGeneric(resolved); ok {
		switch {
		case resolved == "Vec<u8>":
			return types.NewBytes([]byte(raw)), nil
		case outer == "Compact":
			innerResolved, err := r.Resolve(inner)
			if err != nil {
				return nil, err
			}
			if !isUnsigned(builtins[innerResolved]) {
				return nil, fmt.Errorf("%w: Compact<%s>", ErrUnsupported, innerResolved)
			}
			n, err := parseUint(raw, bitSize(builtins[innerResolved]))
			if err != nil {
				return nil, err
			}
			return types.NewUCompact(n), nil
		}
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, resolved)
	}

	switch builtins[resolved] {
	case "u8", "u16", "u32", "u64":
		n, err := parseUint(raw, bitSize(builtins[resolved]))
		if err != nil {
			return nil, err
		}
		switch builtins[resolved] {
		case "u8":
			return types.NewU8(uint8(n.Uint64())), nil
		case "u16":
			return types.NewU16(uint16(n.Uint64())), nil
		case "u32":
			return types.NewU32(uint32(n.Uint64())), nil
		}
		return types.NewU64(n.Uint64()), nil
	case "u128":
		n, err := parseUint(raw, 128)
		if err != nil {
			return nil, err
		}
		return types.NewU128(*n), nil
	case "bool":
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a bool", ErrInvalidArg, raw)
		}
		return types.NewBool(b), nil
	case "H256":
		b, err := parseHash(raw)
		if err != nil {
			return nil, err
		}
		return types.NewHash(b), nil
	case "Vec<u8>":
		return types.NewBytes([]byte(raw)), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, resolved)
}

func isUnsigned(canonical string) bool {
	return bitSize(canonical) > 0
}

func bitSize(canonical string) int {
	switch canonical {
	case "u8":
		return 8
	case "u16":
		return 16
	case "u32":
		return 32
	case "u64":
		return 64
	case "u128":
		return 128
	}
	return 0
}

// parseUint accepts decimal or 0x-prefixed hexadecimal.
func parseUint(raw string, bits int) (*big.Int, error) {
	s := strings.TrimSpace(raw)
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s, base = s[2:], 16
	}
	n, ok := new(big.Int).SetString(s, base)
	if !ok || s == "" {
		return nil, fmt.Errorf("%w: %q is not an unsigned integer", ErrInvalidArg, raw)
	}
	if n.Sign() < 0 || n.BitLen() > bits {
		return nil, fmt.Errorf("%w: %q does not fit in u%d", ErrInvalidArg, raw, bits)
	}
	return n, nil
}

func parseHash(raw string) ([]byte, error) {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "0x") {
		return nil, fmt.Errorf("%w: hash must start with 0x", ErrInvalidArg)
	}
	b, err := hex.DecodeString(s[2:])
	if err != nil || len(b) != 32 {
		return nil, fmt.Errorf("%w: hash must be 0x followed by 64 hexadecimal digits", ErrInvalidArg)
	}
	return b, nil
}
