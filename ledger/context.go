package ledger

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/core/storage"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"go.uber.org/zap"
)

// Context is an invocation context given to contracts. It provides contract
// storage, transaction data, notifications and logging.
type Context struct {
	ledger    *Ledger
	tx        util.Uint256
	caller    util.Uint160
	executing util.Uint160
	prefix    []byte
	store     *storage.MemCachedStore
	readOnly  bool
	events    []state.NotificationEvent
	log       *zap.Logger
}

func newContext(l *Ledger, d *deployed, tx util.Uint256, caller util.Uint160, store *storage.MemCachedStore, readOnly bool) *Context {
	prefix := make([]byte, 4)
	binary.BigEndian.PutUint32(prefix, uint32(d.id))

	return &Context{
		ledger:    l,
		tx:        tx,
		caller:    caller,
		executing: d.hash,
		prefix:    prefix,
		store:     store,
		readOnly:  readOnly,
		log:       l.log.With(zap.String("contract", d.name)),
	}
}

// Caller returns the account that signed the invocation. It's zero for
// read-only calls.
func (ic *Context) Caller() util.Uint160 { return ic.caller }

// Tx returns hash of the current transaction, it's zero for read-only calls.
func (ic *Context) Tx() util.Uint256 { return ic.tx }

// Format returns address format of the ledger.
func (ic *Context) Format() Format { return ic.ledger.format }

func (ic *Context) key(k []byte) []byte {
	full := make([]byte, 0, len(ic.prefix)+len(k))
	full = append(full, ic.prefix...)
	return append(full, k...)
}

// Get returns value stored by the key or nil if there is none.
func (ic *Context) Get(key []byte) []byte {
	v, err := ic.store.Get(ic.key(key))
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return nil
		}
		panic(fmt.Errorf("storage get: %w", err))
	}
	return v
}

// Put stores value by the key. It panics in read-only context.
func (ic *Context) Put(key, value []byte) {
	if ic.readOnly {
		panic(ErrReadOnly)
	}
	ic.store.Put(ic.key(key), bytes.Clone(value))
}

// Delete removes the key. It panics in read-only context.
func (ic *Context) Delete(key []byte) {
	if ic.readOnly {
		panic(ErrReadOnly)
	}
	ic.store.Delete(ic.key(key))
}

// Notify emits notification with the given name and payload. Notifications
// are visible only if the transaction succeeds.
func (ic *Context) Notify(name string, items ...stackitem.Item) {
	if ic.readOnly {
		return
	}

	ic.events = append(ic.events, state.NotificationEvent{
		ScriptHash: ic.executing,
		Name:       name,
		Item:       stackitem.NewArray(items),
	})
}

// Log writes contract message into the ledger log.
func (ic *Context) Log(msg string, fields ...zap.Field) {
	ic.log.Debug(msg, append(fields, zap.String("tx", ic.tx.StringLE()))...)
}
