/*
Package ledger implements an in-process ledger runtime executing native
contracts.

A Ledger stands for one chain of the bridge. It runs every invocation as a
separate transaction in its own block: invocations are totally ordered, each
of them works on a write-back cache over the ledger state that is persisted
only if the contract returns without an error. Failed invocations leave no
trace in the state and their notifications are dropped, the caller receives a
FAULT execution result with the failure message.
*/
package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/google/uuid"
	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/core/storage"
	"github.com/nspcc-dev/neo-go/pkg/crypto/hash"
	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract/trigger"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"github.com/nspcc-dev/neo-go/pkg/vm/vmstate"
	"go.uber.org/zap"
)

// DeployMethod is invoked once when the contract is deployed.
const DeployMethod = "_deploy"

var (
	// ErrUnknownContract is returned for invocations of missing contracts.
	ErrUnknownContract = errors.New("unknown contract")
	// ErrContractExists is returned when deployment produces an already
	// known contract hash.
	ErrContractExists = errors.New("contract already exists")
	// ErrMethodNotFound is returned by contracts for unsupported methods.
	ErrMethodNotFound = errors.New("method not found")
	// ErrReadOnly is thrown when read-only invocation tries to change state.
	ErrReadOnly = errors.New("state change in read-only invocation")
	// ErrPanic wraps contract panics.
	ErrPanic = errors.New("contract panicked")
)

// Contract is a native contract executed by the Ledger.
type Contract interface {
	// Call executes method with the given arguments. Returned error aborts
	// the invocation, its message becomes the FAULT exception.
	Call(ic *Context, method string, args []stackitem.Item) (stackitem.Item, error)
}

// FaultError is returned by Invoke for transactions that ended in FAULT state.
type FaultError struct {
	Tx     util.Uint256
	Method string
	Err    error
}

// Error implements error interface.
func (e *FaultError) Error() string {
	return fmt.Sprintf("transaction %s (%s) failed: %v", e.Tx.StringLE(), e.Method, e.Err)
}

// Unwrap returns contract failure.
func (e *FaultError) Unwrap() error { return e.Err }

type deployed struct {
	id       int32
	name     string
	hash     util.Uint160
	deployer util.Uint160
	contract Contract
}

// Ledger is a single chain executing native contracts.
type Ledger struct {
	name   string
	format Format
	log    *zap.Logger

	mtx       sync.RWMutex
	state     *storage.MemCachedStore
	contracts map[util.Uint160]*deployed
	lastID    int32
	height    uint32
	nonce     uint64

	events *notifications
}

// New creates an empty ledger. Nil logger disables logging.
func New(name string, format Format, log *zap.Logger) *Ledger {
	if log == nil {
		log = zap.NewNop()
	}

	return &Ledger{
		name:      name,
		format:    format,
		log:       log.With(zap.String("ledger", name)),
		state:     storage.NewMemCachedStore(storage.NewMemoryStore()),
		contracts: make(map[util.Uint160]*deployed),
		events:    newNotifications(),
	}
}

// Name returns ledger name.
func (l *Ledger) Name() string { return l.name }

// Format returns address format of the ledger.
func (l *Ledger) Format() Format { return l.format }

// Height returns index of the last block.
func (l *Ledger) Height() uint32 {
	l.mtx.RLock()
	defer l.mtx.RUnlock()
	return l.height
}

// ContractName returns the name the contract was deployed with.
func (l *Ledger) ContractName(h util.Uint160) (string, bool) {
	l.mtx.RLock()
	defer l.mtx.RUnlock()

	d, ok := l.contracts[h]
	if !ok {
		return "", false
	}
	return d.name, true
}

// Deploy registers contract and runs its DeployMethod on behalf of deployer.
// Contract is registered only if DeployMethod succeeds.
func (l *Ledger) Deploy(ctx context.Context, deployer util.Uint160, name string, c Contract, args ...any) (util.Uint160, *state.AppExecResult, error) {
	if err := ctx.Err(); err != nil {
		return util.Uint160{}, nil, err
	}

	params, err := toItems(args)
	if err != nil {
		return util.Uint160{}, nil, err
	}

	l.mtx.Lock()
	defer l.mtx.Unlock()

	id := l.lastID + 1
	h := state.CreateContractHash(deployer, uint32(id), name)
	if _, ok := l.contracts[h]; ok {
		return util.Uint160{}, nil, fmt.Errorf("%w: %s", ErrContractExists, h.StringLE())
	}

	d := &deployed{
		id:       id,
		name:     name,
		hash:     h,
		deployer: deployer,
		contract: c,
	}

	res, err := l.execute(deployer, d, DeployMethod, params)
	if err != nil {
		if errors.Is(err, ErrMethodNotFound) {
			// contracts without deployment routine
			res.VMState = vmstate.Halt
			res.FaultException = ""
			err = nil
		} else {
			return util.Uint160{}, res, err
		}
	}

	l.lastID = id
	l.contracts[h] = d

	l.log.Info("contract deployed",
		zap.String("name", name),
		zap.String("hash", h.StringLE()),
		zap.String("deployer", l.format.Render(deployer)))

	return h, res, nil
}

// Invoke executes contract method on behalf of signer in a new transaction.
// FAULT transactions are returned along with *FaultError wrapping the cause.
func (l *Ledger) Invoke(ctx context.Context, signer util.Uint160, contract util.Uint160, method string, args ...any) (*state.AppExecResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	params, err := toItems(args)
	if err != nil {
		return nil, err
	}

	l.mtx.Lock()
	defer l.mtx.Unlock()

	d, ok := l.contracts[contract]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownContract, contract.StringLE())
	}

	return l.execute(signer, d, method, params)
}

// execute runs method in a new transaction, it's called with mtx locked.
func (l *Ledger) execute(signer util.Uint160, d *deployed, method string, params []stackitem.Item) (*state.AppExecResult, error) {
	l.nonce++
	l.height++

	tx := invocationHash(l.nonce, signer, d.hash, method, params)
	ic := newContext(l, d, tx, signer, storage.NewMemCachedStore(l.state), false)

	res := &state.AppExecResult{
		Container: tx,
		Execution: state.Execution{
			Trigger: trigger.Application,
			Stack:   []stackitem.Item{},
			Events:  []state.NotificationEvent{},
		},
	}

	item, err := run(ic, d.contract, method, params)
	if err != nil {
		res.VMState = vmstate.Fault
		res.FaultException = err.Error()

		l.log.Debug("transaction failed",
			zap.String("tx", tx.StringLE()),
			zap.String("contract", d.name),
			zap.String("method", method),
			zap.Error(err))

		return res, &FaultError{Tx: tx, Method: method, Err: err}
	}

	if _, err := ic.store.Persist(); err != nil {
		// memory stores don't fail, nothing can be done if they do
		panic(fmt.Errorf("persist %s state: %w", l.name, err))
	}

	res.VMState = vmstate.Halt
	if item != nil {
		res.Stack = append(res.Stack, item)
	}
	res.Events = append(res.Events, ic.events...)

	l.events.publish(tx, l.height, ic.events)

	return res, nil
}

// Call performs read-only invocation of contract method. State changes are
// not allowed and nothing is persisted, so it's safe to call it any time.
func (l *Ledger) Call(contract util.Uint160, method string, args ...any) (*result.Invoke, error) {
	params, err := toItems(args)
	if err != nil {
		return nil, err
	}

	l.mtx.RLock()
	defer l.mtx.RUnlock()

	d, ok := l.contracts[contract]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownContract, contract.StringLE())
	}

	ic := newContext(l, d, util.Uint256{}, util.Uint160{}, storage.NewMemCachedStore(l.state), true)

	res := &result.Invoke{
		State: vmstate.Halt.String(),
		Stack: []stackitem.Item{},
	}

	item, err := run(ic, d.contract, method, params)
	if err != nil {
		res.State = vmstate.Fault.String()
		res.FaultException = err.Error()
		return res, nil
	}

	if item != nil {
		res.Stack = append(res.Stack, item)
	}
	res.Notifications = ic.events

	return res, nil
}

// SubscribeForNotifications starts delivery of all notifications (from the
// genesis) of successful transactions into ch. Subscriber must read ch
// regularly and must be resistant to replays since every subscription starts
// from the beginning.
func (l *Ledger) SubscribeForNotifications(ch chan<- Notification) uuid.UUID {
	return l.events.subscribe(ch)
}

// Unsubscribe stops delivery for the given subscription, ch isn't closed.
func (l *Ledger) Unsubscribe(id uuid.UUID) {
	l.events.unsubscribe(id)
}

func run(ic *Context, c Contract, method string, params []stackitem.Item) (item stackitem.Item, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = fmt.Errorf("%w: %w", ErrPanic, e)
			} else {
				err = fmt.Errorf("%w: %v", ErrPanic, r)
			}
			item = nil
		}
	}()

	return c.Call(ic, method, params)
}

// invocationHash identifies transaction by its content and ledger nonce.
func invocationHash(nonce uint64, signer, contract util.Uint160, method string, params []stackitem.Item) util.Uint256 {
	inv := stackitem.NewArray([]stackitem.Item{
		stackitem.NewBigInteger(new(big.Int).SetUint64(nonce)),
		stackitem.NewByteArray(signer.BytesBE()),
		stackitem.NewByteArray(contract.BytesBE()),
		stackitem.NewByteArray([]byte(method)),
		stackitem.NewArray(params),
	})

	data, err := stackitem.Serialize(inv)
	if err != nil {
		// Parameters come from toItems and can't be cyclic or too big,
		// fallback to the nonce only.
		data = []byte(fmt.Sprintf("%d:%s:%s", nonce, contract.StringLE(), method))
	}

	return hash.Sha256(data)
}
