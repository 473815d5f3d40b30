package common

import (
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/tokenbridge-contract/ledger"
)

// ErrOwnerWitnessFailed appears when the method must be called by the
// contract owner but was not.
const ErrOwnerWitnessFailed = "owner witness check failed"

var ownerKey = []byte("owner")

// SetOwner stores contract owner.
func SetOwner(ic *ledger.Context, owner util.Uint160) {
	ic.Put(ownerKey, owner.BytesBE())
}

// Owner returns contract owner.
func Owner(ic *ledger.Context) util.Uint160 {
	u, err := util.Uint160DecodeBytesBE(ic.Get(ownerKey))
	if err != nil {
		panic("contract owner is not set")
	}
	return u
}

// CheckOwnerWitness checks that transaction is signed by the contract owner.
func CheckOwnerWitness(ic *ledger.Context) error {
	if !ic.Caller().Equals(Owner(ic)) {
		return Revertf(ErrUnauthorized, ErrOwnerWitnessFailed)
	}
	return nil
}
