package common

import (
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"github.com/nspcc-dev/tokenbridge-contract/address"
	"github.com/nspcc-dev/tokenbridge-contract/ledger"
)

var counterpartKey = []byte("counterpart")

// SetCounterpart records the paired contract address. It can be done only once.
func SetCounterpart(ic *ledger.Context, a address.Address) error {
	if _, ok := Counterpart(ic); ok {
		return Revertf(ErrAlreadyInitialized, "counterpart is already set")
	}

	SetSerialized(ic, counterpartKey, stackitem.NewStruct([]stackitem.Item{
		stackitem.Make(int(a.Kind())),
		stackitem.NewByteArray([]byte(a.Prefix())),
		stackitem.NewByteArray(a.Payload().BytesBE()),
	}))
	return nil
}

// Counterpart returns the paired contract address if it's set.
func Counterpart(ic *ledger.Context) (address.Address, bool) {
	item := GetSerialized(ic, counterpartKey)
	if item == nil {
		return address.Address{}, false
	}

	fields := item.Value().([]stackitem.Item)
	kind, err := fields[0].TryInteger()
	if err != nil {
		panic(ErrCorruptedData)
	}
	prefix, err := fields[1].TryBytes()
	if err != nil {
		panic(ErrCorruptedData)
	}
	raw, err := fields[2].TryBytes()
	if err != nil {
		panic(ErrCorruptedData)
	}
	payload, err := util.Uint160DecodeBytesBE(raw)
	if err != nil {
		panic(ErrCorruptedData)
	}

	if address.Kind(kind.Int64()) == address.KindHex {
		return address.Hex(payload), true
	}
	return address.Bech32(string(prefix), payload), true
}

// RequireCounterpart returns the paired contract address or ErrNotInitialized.
func RequireCounterpart(ic *ledger.Context) (address.Address, error) {
	a, ok := Counterpart(ic)
	if !ok {
		return address.Address{}, Revertf(ErrNotInitialized, "counterpart is not initialized")
	}
	return a, nil
}
