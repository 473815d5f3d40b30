// Package destination contains RPC wrappers for the destination token
// contract. Messages are encoded with destination package types.
package destination

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/unwrap"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"github.com/nspcc-dev/tokenbridge-contract/destination"
)

// SendToEvmEvent represents "send_to_evm" event emitted by the contract.
type SendToEvmEvent struct {
	Sender      string
	Recipient   string
	Amount      *big.Int
	Counterpart string
}

// MintEvent represents "mint" event emitted by the contract.
type MintEvent struct {
	Account string
	Sender  string
	Amount  *big.Int
	Details []byte
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

// Query sends query message and decodes JSON response into resp.
func (c *ContractReader) Query(msg destination.QueryMsg, resp any) error {
	data, err := destination.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode %s query: %w", msg.Tag(), err)
	}

	out, err := unwrap.Bytes(c.invoker.Call(c.hash, destination.QueryMethod, data))
	if err != nil {
		return err
	}

	if err := json.Unmarshal(out, resp); err != nil {
		return fmt.Errorf("decode %s response: %w", msg.Tag(), err)
	}
	return nil
}

// Balance returns balance of the bech32 account.
func (c *ContractReader) Balance(addr string) (*big.Int, error) {
	var resp destination.BalanceResponse
	if err := c.Query(destination.BalanceQuery{Address: addr}, &resp); err != nil {
		return nil, err
	}
	return resp.Balance.Amount().ToBig(), nil
}

// Allowance returns spender allowance.
func (c *ContractReader) Allowance(owner, spender string) (*big.Int, error) {
	var resp destination.AllowanceResponse
	if err := c.Query(destination.AllowanceQuery{Owner: owner, Spender: spender}, &resp); err != nil {
		return nil, err
	}
	return resp.Allowance.Amount().ToBig(), nil
}

// TokenInfo returns token metadata and total supply.
func (c *ContractReader) TokenInfo() (*destination.TokenInfoResponse, error) {
	var resp destination.TokenInfoResponse
	if err := c.Query(destination.TokenInfoQuery{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TotalSupply returns total supply of the token.
func (c *ContractReader) TotalSupply() (*big.Int, error) {
	info, err := c.TokenInfo()
	if err != nil {
		return nil, err
	}
	return info.TotalSupply.Amount().ToBig(), nil
}

// Counterpart returns hex address of the origin contract or empty string if
// the contract isn't initialized.
func (c *ContractReader) Counterpart() (string, error) {
	var resp destination.CounterpartResponse
	if err := c.Query(destination.CounterpartQuery{}, &resp); err != nil {
		return "", err
	}
	if resp.Counterpart == nil {
		return "", nil
	}
	return *resp.Counterpart, nil
}

// Execute creates a transaction invoking `execute` method of the contract
// with the given message.
func (c *Contract) Execute(ctx context.Context, msg destination.ExecuteMsg) (*state.AppExecResult, error) {
	data, err := destination.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode %s message: %w", msg.Tag(), err)
	}
	return c.actor.SendCall(ctx, c.hash, destination.ExecuteMethod, data)
}

// Initialize sends initialize message.
func (c *Contract) Initialize(ctx context.Context, counterpart string) (*state.AppExecResult, error) {
	return c.Execute(ctx, destination.InitializeMsg{Counterpart: counterpart})
}

// Transfer sends transfer message.
func (c *Contract) Transfer(ctx context.Context, recipient string, amount *big.Int) (*state.AppExecResult, error) {
	a, err := destination.Uint128FromBig(amount)
	if err != nil {
		return nil, err
	}
	return c.Execute(ctx, destination.TransferMsg{Recipient: recipient, Amount: a})
}

// Burn sends burn message.
func (c *Contract) Burn(ctx context.Context, amount *big.Int) (*state.AppExecResult, error) {
	a, err := destination.Uint128FromBig(amount)
	if err != nil {
		return nil, err
	}
	return c.Execute(ctx, destination.BurnMsg{Amount: a})
}

// SendToEvm sends send_to_evm message.
func (c *Contract) SendToEvm(ctx context.Context, recipient string, amount *big.Int) (*state.AppExecResult, error) {
	a, err := destination.Uint128FromBig(amount)
	if err != nil {
		return nil, err
	}
	return c.Execute(ctx, destination.SendToEvmMsg{Recipient: recipient, Amount: a})
}

// MintCW20 sends mint_c_w20 message, transferID is optional.
func (c *Contract) MintCW20(ctx context.Context, recipient string, amount *big.Int, transferID []byte) (*state.AppExecResult, error) {
	a, err := destination.Uint128FromBig(amount)
	if err != nil {
		return nil, err
	}
	return c.Execute(ctx, destination.MintCW20Msg{
		Recipient:  recipient,
		Amount:     a,
		TransferID: hex.EncodeToString(transferID),
	})
}

// SendToEvmEventsFromResult retrieves a set of all emitted events with
// "send_to_evm" name from the provided execution result.
func SendToEvmEventsFromResult(res *state.AppExecResult) ([]*SendToEvmEvent, error) {
	if res == nil {
		return nil, errors.New("nil execution result")
	}

	var out []*SendToEvmEvent
	for i, e := range res.Events {
		if e.Name != destination.SendToEvmEvent {
			continue
		}
		ev := new(SendToEvmEvent)
		if err := ev.FromStackItem(e.Item); err != nil {
			return nil, fmt.Errorf("failed to deserialize SendToEvmEvent (event #%d): %w", i, err)
		}
		out = append(out, ev)
	}
	return out, nil
}

// MintEventsFromResult retrieves a set of all emitted events with "mint" name
// from the provided execution result.
func MintEventsFromResult(res *state.AppExecResult) ([]*MintEvent, error) {
	if res == nil {
		return nil, errors.New("nil execution result")
	}

	var out []*MintEvent
	for i, e := range res.Events {
		if e.Name != destination.MintEvent {
			continue
		}
		ev := new(MintEvent)
		if err := ev.FromStackItem(e.Item); err != nil {
			return nil, fmt.Errorf("failed to deserialize MintEvent (event #%d): %w", i, err)
		}
		out = append(out, ev)
	}
	return out, nil
}

// FromStackItem converts provided [stackitem.Array] to SendToEvmEvent or
// returns an error if it's not possible to do to so.
func (e *SendToEvmEvent) FromStackItem(item *stackitem.Array) error {
	arr, err := fields(item, 4)
	if err != nil {
		return err
	}
	if e.Sender, err = str(arr[0]); err != nil {
		return fmt.Errorf("field Sender: %w", err)
	}
	if e.Recipient, err = str(arr[1]); err != nil {
		return fmt.Errorf("field Recipient: %w", err)
	}
	if e.Amount, err = arr[2].TryInteger(); err != nil {
		return fmt.Errorf("field Amount: %w", err)
	}
	if e.Counterpart, err = str(arr[3]); err != nil {
		return fmt.Errorf("field Counterpart: %w", err)
	}
	return nil
}

// FromStackItem converts provided [stackitem.Array] to MintEvent or returns
// an error if it's not possible to do to so.
func (e *MintEvent) FromStackItem(item *stackitem.Array) error {
	arr, err := fields(item, 4)
	if err != nil {
		return err
	}
	if e.Account, err = str(arr[0]); err != nil {
		return fmt.Errorf("field Account: %w", err)
	}
	if e.Sender, err = str(arr[1]); err != nil {
		return fmt.Errorf("field Sender: %w", err)
	}
	if e.Amount, err = arr[2].TryInteger(); err != nil {
		return fmt.Errorf("field Amount: %w", err)
	}
	if e.Details, err = arr[3].TryBytes(); err != nil {
		return fmt.Errorf("field Details: %w", err)
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

func str(item stackitem.Item) (string, error) {
	b, err := item.TryBytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}
