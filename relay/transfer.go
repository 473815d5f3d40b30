package relay

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/mr-tron/base58"
	"github.com/nspcc-dev/neo-go/pkg/crypto/hash"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/tokenbridge-contract/address"
	"github.com/nspcc-dev/tokenbridge-contract/destination"
	"github.com/nspcc-dev/tokenbridge-contract/ledger"
	"github.com/nspcc-dev/tokenbridge-contract/origin"
	rpcdestination "github.com/nspcc-dev/tokenbridge-contract/rpc/destination"
	rpcorigin "github.com/nspcc-dev/tokenbridge-contract/rpc/origin"
)

// Direction of the bridge transfer.
type Direction string

const (
	// ToDestination is a transfer burnt in the origin ledger.
	ToDestination Direction = "to_destination"
	// ToOrigin is a transfer burnt in the destination ledger.
	ToOrigin Direction = "to_origin"
)

// TransferID identifies a burn by its transaction and notification index.
type TransferID util.Uint256

// NewTransferID returns ID of the burn reported by the given notification.
func NewTransferID(tx util.Uint256, index int) TransferID {
	data := make([]byte, util.Uint256Size+4)
	copy(data, tx.BytesBE())
	binary.BigEndian.PutUint32(data[util.Uint256Size:], uint32(index))
	return TransferID(hash.Sha256(data))
}

// Bytes returns binary form of the ID.
func (id TransferID) Bytes() []byte {
	return util.Uint256(id).BytesBE()
}

// String returns base58 form of the ID.
func (id TransferID) String() string {
	return base58.Encode(id.Bytes())
}

// ParseTransferID decodes base58 form of the ID.
func ParseTransferID(s string) (TransferID, error) {
	b, err := base58.Decode(s)
	if err != nil {
		return TransferID{}, fmt.Errorf("decode transfer ID %q: %w", s, err)
	}
	u, err := util.Uint256DecodeBytesBE(b)
	if err != nil {
		return TransferID{}, fmt.Errorf("decode transfer ID %q: %w", s, err)
	}
	return TransferID(u), nil
}

// Transfer is a burn to be matched by a mint in the other ledger.
type Transfer struct {
	ID        TransferID
	Direction Direction
	// Sender is the burner address in the source ledger format.
	Sender string
	// Recipient is the address in the target ledger format.
	Recipient string
	Amount    *big.Int
}

// originTransfer extracts transfer from origin SendToOtherLedger
// notification.
func originTransfer(n ledger.Notification) (Transfer, error) {
	var ev rpcorigin.SendToOtherLedgerEvent
	if err := ev.FromStackItem(n.Item); err != nil {
		return Transfer{}, fmt.Errorf("invalid %s event: %w", origin.SendToOtherLedgerEvent, err)
	}

	return Transfer{
		ID:        NewTransferID(n.Tx, n.Index),
		Direction: ToDestination,
		Sender:    address.Hex(ev.From).String(),
		Recipient: ev.Recipient,
		Amount:    ev.Amount,
	}, nil
}

// destinationTransfer extracts transfer from destination send_to_evm
// notification.
func destinationTransfer(n ledger.Notification) (Transfer, error) {
	var ev rpcdestination.SendToEvmEvent
	if err := ev.FromStackItem(n.Item); err != nil {
		return Transfer{}, fmt.Errorf("invalid %s event: %w", destination.SendToEvmEvent, err)
	}

	return Transfer{
		ID:        NewTransferID(n.Tx, n.Index),
		Direction: ToOrigin,
		Sender:    ev.Sender,
		Recipient: ev.Recipient,
		Amount:    ev.Amount,
	}, nil
}
