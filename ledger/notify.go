package ledger

import (
	"sync"

	"github.com/google/uuid"
	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/util"
)

// Notification is an event emitted by a successful transaction.
type Notification struct {
	// Tx is a hash of the emitting transaction.
	Tx util.Uint256
	// Block is an index of the block including the transaction.
	Block uint32
	// Index is a position of the event within transaction notifications.
	Index int

	state.NotificationEvent
}

// Notifications returns events of the execution result in the Notification
// form. Block is left zero.
func Notifications(res *state.AppExecResult) []Notification {
	if res == nil {
		return nil
	}

	ns := make([]Notification, 0, len(res.Events))
	for i := range res.Events {
		ns = append(ns, Notification{
			Tx:                res.Container,
			Index:             i,
			NotificationEvent: res.Events[i],
		})
	}
	return ns
}

// notifications is an append-only event log of the ledger. Every subscriber
// has its own forwarding routine, so publishing never blocks transaction
// processing on slow readers.
type notifications struct {
	mtx    sync.Mutex
	events []Notification
	subs   map[uuid.UUID]*subscriber
}

type subscriber struct {
	ch   chan<- Notification
	wake chan struct{}
	quit chan struct{}
}

func newNotifications() *notifications {
	return &notifications{subs: make(map[uuid.UUID]*subscriber)}
}

func (n *notifications) publish(tx util.Uint256, block uint32, events []state.NotificationEvent) {
	if len(events) == 0 {
		return
	}

	n.mtx.Lock()
	defer n.mtx.Unlock()

	for i := range events {
		n.events = append(n.events, Notification{
			Tx:                tx,
			Block:             block,
			Index:             i,
			NotificationEvent: events[i],
		})
	}

	for _, s := range n.subs {
		select {
		case s.wake <- struct{}{}:
		default:
		}
	}
}

func (n *notifications) subscribe(ch chan<- Notification) uuid.UUID {
	s := &subscriber{
		ch:   ch,
		wake: make(chan struct{}, 1),
		quit: make(chan struct{}),
	}

	n.mtx.Lock()
	id := uuid.New()
	n.subs[id] = s
	n.mtx.Unlock()

	go n.forward(s)

	return id
}

func (n *notifications) unsubscribe(id uuid.UUID) {
	n.mtx.Lock()
	s, ok := n.subs[id]
	delete(n.subs, id)
	n.mtx.Unlock()

	if ok {
		close(s.quit)
	}
}

func (n *notifications) forward(s *subscriber) {
	var next int

	for {
		n.mtx.Lock()
		batch := n.events[next:len(n.events):len(n.events)]
		n.mtx.Unlock()

		for i := range batch {
			select {
			case <-s.quit:
				return
			default:
			}

			select {
			case s.ch <- batch[i]:
				next++
			case <-s.quit:
				return
			}
		}

		select {
		case <-s.wake:
		case <-s.quit:
			return
		}
	}
}
