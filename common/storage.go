package common

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"github.com/nspcc-dev/tokenbridge-contract/ledger"
)

// ErrCorruptedData is thrown when stored value can't be decoded.
const ErrCorruptedData = "Corrupted data found (16 byte expected)"

// amountLen is a fixed size of stored amounts, they never exceed MaxAmount.
const amountLen = AmountBits / 8

// GetAmount reads amount stored by key, missing keys are zero.
func GetAmount(ic *ledger.Context, key []byte) *uint256.Int {
	data := ic.Get(key)
	if data == nil {
		return new(uint256.Int)
	}
	if len(data) != amountLen {
		panic(ErrCorruptedData)
	}
	return new(uint256.Int).SetBytes(data)
}

// PutAmount stores amount by key, zero amounts are removed from the storage.
func PutAmount(ic *ledger.Context, key []byte, a *uint256.Int) {
	if a.IsZero() {
		ic.Delete(key)
		return
	}

	b := a.Bytes32()
	ic.Put(key, b[32-amountLen:])
}

// SetSerialized serializes data and puts it into contract storage.
func SetSerialized(ic *ledger.Context, key []byte, value stackitem.Item) {
	data, err := stackitem.Serialize(value)
	if err != nil {
		panic(fmt.Errorf("serialize %x: %w", key, err))
	}
	ic.Put(key, data)
}

// GetSerialized returns deserialized item stored by key or nil if there is none.
func GetSerialized(ic *ledger.Context, key []byte) stackitem.Item {
	data := ic.Get(key)
	if data == nil {
		return nil
	}

	item, err := stackitem.Deserialize(data)
	if err != nil {
		panic(fmt.Errorf("deserialize %x: %w", key, err))
	}
	return item
}
