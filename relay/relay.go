/*
Package relay implements the bridge relayer.

Relayer watches notifications of both ledgers and matches every bridge burn
with a mint in the other ledger: SendToOtherLedger events of the origin
contract become mint_c_w20 messages to the destination contract, send_to_evm
events of the destination contract become receiveFromOtherLedger invocations
of the origin contract. Mints are submitted on behalf of the counterpart
contract, which is the only identity the minting contract trusts.

Every burn is identified by its transaction hash and notification index. The
identifier is journaled before the mint is submitted, so the same burn is
never minted twice, even across restarts.
*/
package relay

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/tokenbridge-contract/address"
	"github.com/nspcc-dev/tokenbridge-contract/common"
	"github.com/nspcc-dev/tokenbridge-contract/destination"
	"github.com/nspcc-dev/tokenbridge-contract/ledger"
	"github.com/nspcc-dev/tokenbridge-contract/origin"
	rpcdestination "github.com/nspcc-dev/tokenbridge-contract/rpc/destination"
	rpcorigin "github.com/nspcc-dev/tokenbridge-contract/rpc/origin"
	"go.uber.org/zap"
)

// Side is a bridge contract in its ledger.
type Side struct {
	Ledger   *ledger.Ledger
	Contract util.Uint160
}

// Retry is a mint retry policy, zero values are replaced with defaults.
type Retry struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	// Zero means default, negative value means no limit.
	MaxElapsedTime time.Duration
}

// Config groups Relayer parameters.
type Config struct {
	Logger *zap.Logger

	Origin      Side
	Destination Side

	// Journal of processed transfers, required.
	Journal *Journal

	Retry Retry

	// Capacity of notification channels.
	BufferSize int
}

// Default retry policy.
const (
	DefaultInitialInterval = 100 * time.Millisecond
	DefaultMaxInterval     = 5 * time.Second
	DefaultMaxElapsedTime  = time.Minute
	DefaultBufferSize      = 64
)

// Relayer moves bridge transfers between ledgers.
type Relayer struct {
	log     *zap.Logger
	journal *Journal
	retry   Retry
	bufSize int

	origin      Side
	destination Side

	// Bindings signed by the counterpart contracts.
	toDestination *rpcdestination.Contract
	toOrigin      *rpcorigin.Contract
}

// New creates Relayer. It doesn't start processing, see Run.
func New(cfg Config) (*Relayer, error) {
	switch {
	case cfg.Origin.Ledger == nil:
		return nil, errors.New("missing origin ledger")
	case cfg.Destination.Ledger == nil:
		return nil, errors.New("missing destination ledger")
	case cfg.Journal == nil:
		return nil, errors.New("missing journal")
	}

	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	retry := cfg.Retry
	if retry.InitialInterval <= 0 {
		retry.InitialInterval = DefaultInitialInterval
	}
	if retry.MaxInterval <= 0 {
		retry.MaxInterval = DefaultMaxInterval
	}
	if retry.MaxElapsedTime == 0 {
		retry.MaxElapsedTime = DefaultMaxElapsedTime
	}

	bufSize := cfg.BufferSize
	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}

	return &Relayer{
		log:         log.With(zap.String("component", "relayer")),
		journal:     cfg.Journal,
		retry:       retry,
		bufSize:     bufSize,
		origin:      cfg.Origin,
		destination: cfg.Destination,
		toDestination: rpcdestination.New(
			ledger.NewActor(cfg.Destination.Ledger, cfg.Origin.Contract), cfg.Destination.Contract),
		toOrigin: rpcorigin.New(
			ledger.NewActor(cfg.Origin.Ledger, cfg.Destination.Contract), cfg.Origin.Contract),
	}, nil
}

// Run processes notifications of both ledgers until ctx is done. Ledgers
// replay their notifications from the beginning, already journaled transfers
// are skipped. Failures of particular transfers are logged and don't stop
// the relayer.
func (r *Relayer) Run(ctx context.Context) error {
	originCh := make(chan ledger.Notification, r.bufSize)
	destinationCh := make(chan ledger.Notification, r.bufSize)

	originSub := r.origin.Ledger.SubscribeForNotifications(originCh)
	defer r.origin.Ledger.Unsubscribe(originSub)

	destinationSub := r.destination.Ledger.SubscribeForNotifications(destinationCh)
	defer r.destination.Ledger.Unsubscribe(destinationSub)

	originName, _ := r.origin.Ledger.ContractName(r.origin.Contract)
	destinationName, _ := r.destination.Ledger.ContractName(r.destination.Contract)

	r.log.Info("relayer started",
		zap.Stringer("origin", address.Hex(r.origin.Contract)),
		zap.String("origin_name", originName),
		zap.Uint32("origin_height", r.origin.Ledger.Height()),
		zap.String("destination", r.destination.Ledger.Format().Render(r.destination.Contract)),
		zap.String("destination_name", destinationName),
		zap.Uint32("destination_height", r.destination.Ledger.Height()))

	for {
		var n ledger.Notification

		select {
		case <-ctx.Done():
			r.log.Info("relayer stopped", zap.Error(ctx.Err()))
			return ctx.Err()
		case n = <-originCh:
		case n = <-destinationCh:
		}

		if ctx.Err() != nil {
			r.log.Info("relayer stopped", zap.Error(ctx.Err()))
			return ctx.Err()
		}

		if err := r.HandleNotification(ctx, n); err != nil {
			if ctx.Err() != nil {
				continue
			}
			r.log.Error("can't handle notification",
				zap.String("tx", n.Tx.StringLE()),
				zap.Int("index", n.Index),
				zap.Error(err))
		}
	}
}

// HandleNotification relays the transfer reported by n. Notifications other
// than bridge burns are ignored.
func (r *Relayer) HandleNotification(ctx context.Context, n ledger.Notification) error {
	var (
		tr  Transfer
		err error
	)

	switch {
	case n.ScriptHash.Equals(r.origin.Contract) && n.Name == origin.SendToOtherLedgerEvent:
		tr, err = originTransfer(n)
	case n.ScriptHash.Equals(r.destination.Contract) && n.Name == destination.SendToEvmEvent:
		tr, err = destinationTransfer(n)
	default:
		return nil
	}
	if err != nil {
		return err
	}

	return r.Relay(ctx, tr)
}

// Relay mints the transfer in the target ledger unless it's already
// journaled.
func (r *Relayer) Relay(ctx context.Context, tr Transfer) error {
	dir := string(tr.Direction)
	log := r.log.With(
		zap.Stringer("transfer", tr.ID),
		zap.String("direction", dir),
		zap.String("recipient", tr.Recipient),
		zap.Stringer("amount", tr.Amount))

	transfersObserved.WithLabelValues(dir).Inc()

	started, err := r.journal.Begin(tr.ID)
	if err != nil {
		return fmt.Errorf("journal transfer %s: %w", tr.ID, err)
	}
	if !started {
		transfersSkipped.WithLabelValues(dir).Inc()

		rec, err := r.journal.Get(tr.ID)
		if err != nil {
			return fmt.Errorf("get journaled transfer %s: %w", tr.ID, err)
		}
		if rec.Status == StatusPending {
			log.Warn("transfer was interrupted, manual check is required")
		} else {
			log.Debug("transfer is already processed, skip", zap.Stringer("status", rec.Status))
		}
		return nil
	}

	var res *state.AppExecResult

	err = backoff.RetryNotify(func() error {
		var err error
		res, err = r.mint(ctx, tr)
		if err != nil && isPermanent(err) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(r.newBackOff(), ctx), func(err error, d time.Duration) {
		log.Warn("mint failed, will retry", zap.Error(err), zap.Duration("delay", d))
	})
	if err != nil {
		if !isPermanent(err) {
			// Nothing was minted, so the next delivery starts over.
			if jErr := r.journal.Abort(tr.ID); jErr != nil {
				log.Error("can't reset interrupted transfer", zap.Error(jErr))
			}
			log.Warn("transfer postponed", zap.Error(err))
			return fmt.Errorf("relay transfer %s: %w", tr.ID, err)
		}

		transfersFailed.WithLabelValues(dir).Inc()

		if jErr := r.journal.Fail(tr.ID, err.Error()); jErr != nil {
			log.Error("can't journal failed transfer", zap.Error(jErr))
		}
		log.Error("transfer failed", zap.Error(err))
		return fmt.Errorf("relay transfer %s: %w", tr.ID, err)
	}

	if err := r.journal.Done(tr.ID, res.Container); err != nil {
		return fmt.Errorf("journal relayed transfer %s: %w", tr.ID, err)
	}

	transfersRelayed.WithLabelValues(dir).Inc()
	amount, _ := new(big.Float).SetInt(tr.Amount).Float64()
	relayedAmount.WithLabelValues(dir).Add(amount)

	log.Info("transfer relayed", zap.String("mint", res.Container.StringLE()))
	return nil
}

func (r *Relayer) mint(ctx context.Context, tr Transfer) (*state.AppExecResult, error) {
	switch tr.Direction {
	case ToDestination:
		return r.toDestination.MintCW20(ctx, tr.Recipient, tr.Amount, tr.ID.Bytes())
	case ToOrigin:
		to, err := address.ParseHex(tr.Recipient)
		if err != nil {
			return nil, common.Wrapf(common.ErrInvalidRecipient, err, "invalid recipient %q: %v", tr.Recipient, err)
		}
		return r.toOrigin.ReceiveFromOtherLedger(ctx, to.Payload(), tr.Amount, tr.ID.Bytes())
	default:
		return nil, common.Revertf(common.ErrInvalidArgument, "unknown transfer direction %q", tr.Direction)
	}
}

func (r *Relayer) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.retry.InitialInterval
	b.MaxInterval = r.retry.MaxInterval
	if r.retry.MaxElapsedTime > 0 {
		b.MaxElapsedTime = r.retry.MaxElapsedTime
	} else {
		b.MaxElapsedTime = 0
	}
	b.Reset()
	return b
}

// isPermanent tells whether retrying can't help: contract FAULTs and input
// rejected before submission are deterministic.
func isPermanent(err error) bool {
	var (
		fault  *ledger.FaultError
		revert *common.Revert
	)
	return errors.As(err, &fault) || errors.As(err, &revert) || errors.Is(err, ledger.ErrUnknownContract)
}
