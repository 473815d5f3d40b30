// Package bridgetest contains helpers for tests working with the bridge
// contracts deployed into in-process ledgers.
package bridgetest

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"testing"

	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"github.com/nspcc-dev/neo-go/pkg/vm/vmstate"
	"github.com/nspcc-dev/tokenbridge-contract/destination"
	"github.com/nspcc-dev/tokenbridge-contract/ledger"
	"github.com/stretchr/testify/require"
)

// NewAccount returns random account.
func NewAccount(t testing.TB) util.Uint160 {
	var u util.Uint160
	_, err := rand.Read(u[:])
	require.NoError(t, err)
	return u
}

// ContractInvoker invokes contract methods on behalf of a signer and checks
// results.
type ContractInvoker struct {
	Ledger *ledger.Ledger
	Hash   util.Uint160
	Signer util.Uint160
}

// NewInvoker creates invoker of the contract.
func NewInvoker(l *ledger.Ledger, hash, signer util.Uint160) *ContractInvoker {
	return &ContractInvoker{Ledger: l, Hash: hash, Signer: signer}
}

// WithSigner returns invoker with the other signer.
func (c *ContractInvoker) WithSigner(signer util.Uint160) *ContractInvoker {
	return NewInvoker(c.Ledger, c.Hash, signer)
}

// Invoke invokes method and checks HALT state. Non-nil result is checked
// against the returned stack item.
func (c *ContractInvoker) Invoke(t testing.TB, result any, method string, args ...any) *state.AppExecResult {
	res, err := c.Ledger.Invoke(context.Background(), c.Signer, c.Hash, method, args...)
	require.NoError(t, err)
	require.Equal(t, vmstate.Halt, res.VMState, res.FaultException)

	if result != nil {
		require.Len(t, res.Stack, 1)
		CheckItem(t, result, res.Stack[0])
	}
	return res
}

// InvokeFail invokes method and checks FAULT state with the given message.
func (c *ContractInvoker) InvokeFail(t testing.TB, message string, method string, args ...any) *state.AppExecResult {
	res, err := c.Ledger.Invoke(context.Background(), c.Signer, c.Hash, method, args...)
	require.Error(t, err)
	require.NotNil(t, res)
	require.Equal(t, vmstate.Fault, res.VMState)
	require.Contains(t, res.FaultException, message)
	require.Empty(t, res.Events)
	return res
}

// Call performs read-only invocation and returns the result item.
func (c *ContractInvoker) Call(t testing.TB, method string, args ...any) stackitem.Item {
	res, err := c.Ledger.Call(c.Hash, method, args...)
	require.NoError(t, err)
	require.Equal(t, vmstate.Halt.String(), res.State, res.FaultException)
	require.Len(t, res.Stack, 1)
	return res.Stack[0]
}

// Execute sends destination contract message and checks HALT state.
func (c *ContractInvoker) Execute(t testing.TB, msg destination.ExecuteMsg) *state.AppExecResult {
	return c.Invoke(t, nil, destination.ExecuteMethod, marshal(t, msg))
}

// ExecuteRaw sends raw JSON to the destination contract execute entry point.
func (c *ContractInvoker) ExecuteRaw(t testing.TB, msg string) (*state.AppExecResult, error) {
	return c.Ledger.Invoke(context.Background(), c.Signer, c.Hash, destination.ExecuteMethod, []byte(msg))
}

// ExecuteFail sends destination contract message and checks FAULT state.
func (c *ContractInvoker) ExecuteFail(t testing.TB, message string, msg destination.ExecuteMsg) *state.AppExecResult {
	return c.InvokeFail(t, message, destination.ExecuteMethod, marshal(t, msg))
}

// Query sends destination contract query and decodes the response.
func (c *ContractInvoker) Query(t testing.TB, msg destination.QueryMsg, resp any) {
	item := c.Call(t, destination.QueryMethod, marshal(t, msg))
	data, err := item.TryBytes()
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, resp))
}

func marshal(t testing.TB, msg interface{ Tag() string }) []byte {
	data, err := destination.Marshal(msg)
	require.NoError(t, err)
	return data
}

// CheckItem checks that actual item equals to expected value converted to
// stack item.
func CheckItem(t testing.TB, expected any, actual stackitem.Item) {
	exp, ok := expected.(stackitem.Item)
	if !ok {
		require.NotPanics(t, func() { exp = stackitem.Make(expected) }, "unsupported expected value %T", expected)
	}
	require.True(t, equalItems(exp, actual), "expected %v, got %v", exp.Value(), actual)
}

// equalItems compares items by value. Arrays are compared element-wise since
// their Equals checks identity only.
func equalItems(a, b stackitem.Item) bool {
	if a == nil || b == nil {
		return a == b
	}

	x, ok := a.Value().([]stackitem.Item)
	if !ok || a.Type() != stackitem.ArrayT && a.Type() != stackitem.StructT {
		return a.Equals(b)
	}
	if b.Type() != a.Type() {
		return false
	}
	y := b.Value().([]stackitem.Item)
	if len(x) != len(y) {
		return false
	}
	for i := range x {
		if !equalItems(x[i], y[i]) {
			return false
		}
	}
	return true
}
