package ledger

import (
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/tokenbridge-contract/address"
)

// Format describes how the ledger renders account addresses: 0x-prefixed hex
// when Prefix is empty and bech32 with Prefix otherwise.
type Format struct {
	Prefix string
}

// HexFormat is a format of account/contract ledgers.
var HexFormat = Format{}

// Bech32Format returns a format of message-based ledgers with the given
// human-readable prefix.
func Bech32Format(prefix string) Format {
	return Format{Prefix: prefix}
}

// Address returns account address in the ledger format.
func (f Format) Address(u util.Uint160) address.Address {
	if f.Prefix == "" {
		return address.Hex(u)
	}
	return address.Bech32(f.Prefix, u)
}

// Render returns string form of account address.
func (f Format) Render(u util.Uint160) string {
	return f.Address(u).String()
}

// Parse decodes account address given in the ledger format.
func (f Format) Parse(s string) (util.Uint160, error) {
	var (
		a   address.Address
		err error
	)
	if f.Prefix == "" {
		a, err = address.ParseHex(s)
	} else {
		a, err = address.ParseBech32(s, f.Prefix)
	}
	if err != nil {
		return util.Uint160{}, err
	}
	return a.Payload(), nil
}
