package ledger

import (
	"context"

	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/util"
)

// Actor sends transactions to the ledger on behalf of a single signer.
// Signatures are out of the runtime scope, the signer is trusted as is.
type Actor struct {
	ledger *Ledger
	signer util.Uint160
}

// NewActor binds signer to the ledger.
func NewActor(l *Ledger, signer util.Uint160) *Actor {
	return &Actor{ledger: l, signer: signer}
}

// Call performs read-only invocation, see Ledger.Call.
func (a *Actor) Call(contract util.Uint160, method string, params ...any) (*result.Invoke, error) {
	return a.ledger.Call(contract, method, params...)
}

// SendCall invokes contract method in a new transaction signed by the actor.
func (a *Actor) SendCall(ctx context.Context, contract util.Uint160, method string, params ...any) (*state.AppExecResult, error) {
	return a.ledger.Invoke(ctx, a.signer, contract, method, params...)
}
