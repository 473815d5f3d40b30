// Package origin contains RPC wrappers for the origin token contract.
package origin

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/unwrap"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
)

// TransferEvent represents "Transfer" event emitted by the contract. Zero
// From means mint, zero To means burn.
type TransferEvent struct {
	From   util.Uint160
	To     util.Uint160
	Amount *big.Int
}

// SendToOtherLedgerEvent represents "SendToOtherLedger" event emitted by the
// contract.
type SendToOtherLedgerEvent struct {
	From      util.Uint160
	Recipient string
	Amount    *big.Int
}

// ReceiveFromOtherLedgerEvent represents "ReceiveFromOtherLedger" event
// emitted by the contract.
type ReceiveFromOtherLedgerEvent struct {
	To     util.Uint160
	Amount *big.Int
}

// Invoker is used by ContractReader to call various safe methods.
type Invoker interface {
	Call(contract util.Uint160, operation string, params ...any) (*result.Invoke, error)
}

// Actor is used by Contract to call state-changing methods.
type Actor interface {
	Invoker

	SendCall(ctx context.Context, contract util.Uint160, method string, params ...any) (*state.AppExecResult, error)
}

// ContractReader implements safe contract methods.
type ContractReader struct {
	invoker Invoker
	hash    util.Uint160
}

// Contract implements all contract methods.
type Contract struct {
	ContractReader
	actor Actor
	hash  util.Uint160
}

// NewReader creates an instance of ContractReader using provided contract hash and the given Invoker.
func NewReader(invoker Invoker, hash util.Uint160) *ContractReader {
	return &ContractReader{invoker, hash}
}

// New creates an instance of Contract using provided contract hash and the given Actor.
func New(actor Actor, hash util.Uint160) *Contract {
	return &Contract{ContractReader{actor, hash}, actor, hash}
}

// Hash returns contract hash.
func (c *ContractReader) Hash() util.Uint160 {
	return c.hash
}

// Name invokes `name` method of contract.
func (c *ContractReader) Name() (string, error) {
	return unwrap.UTF8String(c.invoker.Call(c.hash, "name"))
}

// Symbol invokes `symbol` method of contract.
func (c *ContractReader) Symbol() (string, error) {
	return unwrap.UTF8String(c.invoker.Call(c.hash, "symbol"))
}

// Decimals invokes `decimals` method of contract.
func (c *ContractReader) Decimals() (int, error) {
	v, err := unwrap.Int64(c.invoker.Call(c.hash, "decimals"))
	return int(v), err
}

// TotalSupply invokes `totalSupply` method of contract.
func (c *ContractReader) TotalSupply() (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "totalSupply"))
}

// BalanceOf invokes `balanceOf` method of contract.
func (c *ContractReader) BalanceOf(account util.Uint160) (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "balanceOf", account))
}

// Allowance invokes `allowance` method of contract.
func (c *ContractReader) Allowance(owner, spender util.Uint160) (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "allowance", owner, spender))
}

// Version invokes `version` method of contract.
func (c *ContractReader) Version() (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "version"))
}

// Counterpart invokes `counterpart` method of contract. It returns empty
// string if the contract isn't initialized.
func (c *ContractReader) Counterpart() (string, error) {
	item, err := unwrap.Item(c.invoker.Call(c.hash, "counterpart"))
	if err != nil {
		return "", err
	}
	if _, ok := item.(stackitem.Null); ok {
		return "", nil
	}
	b, err := item.TryBytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Transfer creates a transaction invoking `transfer` method of the contract.
func (c *Contract) Transfer(ctx context.Context, to util.Uint160, amount *big.Int) (*state.AppExecResult, error) {
	return c.actor.SendCall(ctx, c.hash, "transfer", to, amount)
}

// Approve creates a transaction invoking `approve` method of the contract.
func (c *Contract) Approve(ctx context.Context, spender util.Uint160, amount *big.Int) (*state.AppExecResult, error) {
	return c.actor.SendCall(ctx, c.hash, "approve", spender, amount)
}

// TransferFrom creates a transaction invoking `transferFrom` method of the contract.
func (c *Contract) TransferFrom(ctx context.Context, from, to util.Uint160, amount *big.Int) (*state.AppExecResult, error) {
	return c.actor.SendCall(ctx, c.hash, "transferFrom", from, to, amount)
}

// Initialize creates a transaction invoking `initialize` method of the contract.
func (c *Contract) Initialize(ctx context.Context, counterpart string) (*state.AppExecResult, error) {
	return c.actor.SendCall(ctx, c.hash, "initialize", counterpart)
}

// SendToOtherLedger creates a transaction invoking `sendToOtherLedger` method of the contract.
func (c *Contract) SendToOtherLedger(ctx context.Context, recipient string, amount *big.Int) (*state.AppExecResult, error) {
	return c.actor.SendCall(ctx, c.hash, "sendToOtherLedger", recipient, amount)
}

// ReceiveFromOtherLedger creates a transaction invoking `receiveFromOtherLedger` method of the contract.
func (c *Contract) ReceiveFromOtherLedger(ctx context.Context, to util.Uint160, amount *big.Int, transferID []byte) (*state.AppExecResult, error) {
	return c.actor.SendCall(ctx, c.hash, "receiveFromOtherLedger", to, amount, transferID)
}

// TransferEventsFromResult retrieves a set of all emitted events
// with "Transfer" name from the provided execution result.
func TransferEventsFromResult(res *state.AppExecResult) ([]*TransferEvent, error) {
	return eventsFromResult(res, "Transfer", func() *TransferEvent { return new(TransferEvent) })
}

// SendToOtherLedgerEventsFromResult retrieves a set of all emitted events
// with "SendToOtherLedger" name from the provided execution result.
func SendToOtherLedgerEventsFromResult(res *state.AppExecResult) ([]*SendToOtherLedgerEvent, error) {
	return eventsFromResult(res, "SendToOtherLedger", func() *SendToOtherLedgerEvent { return new(SendToOtherLedgerEvent) })
}

// ReceiveFromOtherLedgerEventsFromResult retrieves a set of all emitted events
// with "ReceiveFromOtherLedger" name from the provided execution result.
func ReceiveFromOtherLedgerEventsFromResult(res *state.AppExecResult) ([]*ReceiveFromOtherLedgerEvent, error) {
	return eventsFromResult(res, "ReceiveFromOtherLedger", func() *ReceiveFromOtherLedgerEvent { return new(ReceiveFromOtherLedgerEvent) })
}

type event interface {
	FromStackItem(item *stackitem.Array) error
}

func eventsFromResult[E event](res *state.AppExecResult, name string, create func() E) ([]E, error) {
	if res == nil {
		return nil, errors.New("nil execution result")
	}

	var out []E
	for i, e := range res.Events {
		if e.Name != name {
			continue
		}
		ev := create()
		if err := ev.FromStackItem(e.Item); err != nil {
			return nil, fmt.Errorf("failed to deserialize %s event #%d: %w", name, i, err)
		}
		out = append(out, ev)
	}
	return out, nil
}

// FromStackItem converts provided [stackitem.Array] to TransferEvent or
// returns an error if it's not possible to do to so.
func (e *TransferEvent) FromStackItem(item *stackitem.Array) error {
	arr, err := fields(item, 3)
	if err != nil {
		return err
	}
	if e.From, err = optionalHash(arr[0]); err != nil {
		return fmt.Errorf("field From: %w", err)
	}
	if e.To, err = optionalHash(arr[1]); err != nil {
		return fmt.Errorf("field To: %w", err)
	}
	if e.Amount, err = arr[2].TryInteger(); err != nil {
		return fmt.Errorf("field Amount: %w", err)
	}
	return nil
}

// FromStackItem converts provided [stackitem.Array] to SendToOtherLedgerEvent
// or returns an error if it's not possible to do to so.
func (e *SendToOtherLedgerEvent) FromStackItem(item *stackitem.Array) error {
	arr, err := fields(item, 3)
	if err != nil {
		return err
	}
	if e.From, err = hash(arr[0]); err != nil {
		return fmt.Errorf("field From: %w", err)
	}
	b, err := arr[1].TryBytes()
	if err != nil {
		return fmt.Errorf("field Recipient: %w", err)
	}
	e.Recipient = string(b)
	if e.Amount, err = arr[2].TryInteger(); err != nil {
		return fmt.Errorf("field Amount: %w", err)
	}
	return nil
}

// FromStackItem converts provided [stackitem.Array] to
// ReceiveFromOtherLedgerEvent or returns an error if it's not possible to do
// to so.
func (e *ReceiveFromOtherLedgerEvent) FromStackItem(item *stackitem.Array) error {
	arr, err := fields(item, 2)
	if err != nil {
		return err
	}
	if e.To, err = hash(arr[0]); err != nil {
		return fmt.Errorf("field To: %w", err)
	}
	if e.Amount, err = arr[1].TryInteger(); err != nil {
		return fmt.Errorf("field Amount: %w", err)
	}
	return nil
}

func fields(item *stackitem.Array, n int) ([]stackitem.Item, error) {
	if item == nil {
		return nil, errors.New("nil item")
	}
	arr, ok := item.Value().([]stackitem.Item)
	if !ok {
		return nil, errors.New("not an array")
	}
	if len(arr) != n {
		return nil, errors.New("wrong number of structure elements")
	}
	return arr, nil
}

func hash(item stackitem.Item) (util.Uint160, error) {
	b, err := item.TryBytes()
	if err != nil {
		return util.Uint160{}, err
	}
	return util.Uint160DecodeBytesBE(b)
}

func optionalHash(item stackitem.Item) (util.Uint160, error) {
	if _, ok := item.(stackitem.Null); ok {
		return util.Uint160{}, nil
	}
	return hash(item)
}
