/*
Package address translates account addresses between the two bridged ledgers.

Ledger A identifies accounts with 20-byte values rendered as 0x-prefixed hex,
ledger B renders the very same 20 bytes as bech32 strings with a fixed
human-readable prefix. An Address keeps the payload and the encoding it came
from, translation only swaps the encoding.
*/
package address

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/cosmos/btcutil/bech32"
	"github.com/nspcc-dev/neo-go/pkg/util"
)

// DefaultPrefix is a human-readable part of ledger B addresses.
const DefaultPrefix = "ex"

// PayloadLen is the length of the account identity shared by both ledgers.
const PayloadLen = util.Uint160Size

// bech32Limit is the BIP-173 bound for the whole string.
const bech32Limit = 90

// ErrMalformedAddress is returned when a string can't be decoded into an
// address of the requested kind.
var ErrMalformedAddress = errors.New("malformed address")

// Kind is an encoding of the address.
type Kind byte

const (
	// KindHex is a ledger A address (0x-prefixed hex).
	KindHex Kind = iota
	// KindBech32 is a ledger B address (bech32 with prefix).
	KindBech32
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindHex:
		return "hex"
	case KindBech32:
		return "bech32"
	default:
		return fmt.Sprintf("Kind(%d)", byte(k))
	}
}

// Address is either Hex(payload) or Bech32(prefix, payload).
type Address struct {
	kind    Kind
	prefix  string
	payload util.Uint160
}

// Hex returns ledger A address for the given payload.
func Hex(payload util.Uint160) Address {
	return Address{kind: KindHex, payload: payload}
}

// Bech32 returns ledger B address for the given prefix and payload.
func Bech32(prefix string, payload util.Uint160) Address {
	return Address{kind: KindBech32, prefix: prefix, payload: payload}
}

// Kind returns address encoding.
func (a Address) Kind() Kind { return a.kind }

// Prefix returns human-readable part, it's empty for hex addresses.
func (a Address) Prefix() string { return a.prefix }

// Payload returns 20-byte account identity.
func (a Address) Payload() util.Uint160 { return a.payload }

// IsZero checks whether payload is all zeroes.
func (a Address) IsZero() bool { return a.payload.Equals(util.Uint160{}) }

// Equals checks that both addresses have the same encoding and payload.
func (a Address) Equals(b Address) bool {
	return a.kind == b.kind && a.prefix == b.prefix && a.payload.Equals(b.payload)
}

// String renders address in its own encoding.
func (a Address) String() string {
	if a.kind == KindHex {
		return "0x" + a.payload.StringBE()
	}

	s, err := encodeBech32(a.prefix, a.payload)
	if err != nil {
		// Only invalid prefixes can get here, they are rejected by parsers.
		return "<invalid " + a.prefix + " address>"
	}
	return s
}

// ToOtherLedger converts hex address into bech32 address with the given prefix.
func ToOtherLedger(a Address, prefix string) (Address, error) {
	if a.kind != KindHex {
		return Address{}, fmt.Errorf("%w: %s address given where hex is expected", ErrMalformedAddress, a.kind)
	}
	if _, err := encodeBech32(prefix, a.payload); err != nil {
		return Address{}, err
	}
	return Bech32(prefix, a.payload), nil
}

// ToOriginLedger converts bech32 address into hex address. The address prefix
// must match the expected one.
func ToOriginLedger(a Address, prefix string) (Address, error) {
	if a.kind != KindBech32 {
		return Address{}, fmt.Errorf("%w: %s address given where bech32 is expected", ErrMalformedAddress, a.kind)
	}
	if a.prefix != prefix {
		return Address{}, fmt.Errorf("%w: prefix mismatch, expected %q, got %q", ErrMalformedAddress, prefix, a.prefix)
	}
	return Hex(a.payload), nil
}

// ParseHex decodes ledger A address, 0x prefix is optional.
func ParseHex(s string) (Address, error) {
	raw := s
	if len(raw) >= 2 && raw[0] == '0' && (raw[1] == 'x' || raw[1] == 'X') {
		raw = raw[2:]
	}

	b, err := hex.DecodeString(raw)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %q: %v", ErrMalformedAddress, s, err)
	}
	if len(b) != PayloadLen {
		return Address{}, fmt.Errorf("%w: %q: expected %d bytes, got %d", ErrMalformedAddress, s, PayloadLen, len(b))
	}

	u, err := util.Uint160DecodeBytesBE(b)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %q: %v", ErrMalformedAddress, s, err)
	}
	return Hex(u), nil
}

// ParseBech32 decodes ledger B address and checks its prefix.
func ParseBech32(s, prefix string) (Address, error) {
	hrp, data, err := bech32.Decode(s, bech32Limit)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %q: %v", ErrMalformedAddress, s, err)
	}
	if hrp != prefix {
		return Address{}, fmt.Errorf("%w: %q: prefix mismatch, expected %q, got %q", ErrMalformedAddress, s, prefix, hrp)
	}

	b, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %q: %v", ErrMalformedAddress, s, err)
	}
	if len(b) != PayloadLen {
		return Address{}, fmt.Errorf("%w: %q: expected %d bytes, got %d", ErrMalformedAddress, s, PayloadLen, len(b))
	}

	u, err := util.Uint160DecodeBytesBE(b)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %q: %v", ErrMalformedAddress, s, err)
	}
	return Bech32(hrp, u), nil
}

// Parse decodes address of any kind: strings starting with 0x are hex,
// everything else must be bech32 with the given prefix.
func Parse(s, prefix string) (Address, error) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return ParseHex(s)
	}
	return ParseBech32(s, prefix)
}

// HexToBech32 is a string form of ToOtherLedger.
func HexToBech32(s, prefix string) (string, error) {
	a, err := ParseHex(s)
	if err != nil {
		return "", err
	}
	b, err := ToOtherLedger(a, prefix)
	if err != nil {
		return "", err
	}
	return b.String(), nil
}

// Bech32ToHex is a string form of ToOriginLedger.
func Bech32ToHex(s, prefix string) (string, error) {
	a, err := ParseBech32(s, prefix)
	if err != nil {
		return "", err
	}
	h, err := ToOriginLedger(a, prefix)
	if err != nil {
		return "", err
	}
	return h.String(), nil
}

func encodeBech32(prefix string, payload util.Uint160) (string, error) {
	if prefix == "" {
		return "", fmt.Errorf("%w: empty prefix", ErrMalformedAddress)
	}

	data, err := bech32.ConvertBits(payload.BytesBE(), 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedAddress, err)
	}

	s, err := bech32.Encode(prefix, data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedAddress, err)
	}
	return s, nil
}
