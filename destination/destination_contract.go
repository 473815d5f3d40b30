package destination

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"github.com/nspcc-dev/tokenbridge-contract/address"
	"github.com/nspcc-dev/tokenbridge-contract/common"
	"github.com/nspcc-dev/tokenbridge-contract/ledger"
	"go.uber.org/zap"
)

// Entry points.
const (
	ExecuteMethod = "execute"
	QueryMethod   = "query"
)

// Notification names.
const (
	TransferEvent  = "transfer"
	ApproveEvent   = "approve"
	BurnEvent      = "burn"
	MintEvent      = "mint"
	SendToEvmEvent = "send_to_evm"
)

// Failure message formats.
const (
	ErrInvalidSender    = "The sender addr %s is not expect)"
	ErrInvalidRecipient = "The recipient addr %s is not expect)"
)

var reverts = common.Reverts{
	InsufficientFunds: func(_ string, balance, required *uint256.Int) error {
		return common.Revertf(common.ErrInsufficientBalance, "Insufficient funds (balance %s, required=%s)",
			common.AmountString(balance), common.AmountString(required))
	},
	InsufficientAllowance: func(allowance, required *uint256.Int) error {
		return common.Revertf(common.ErrInsufficientAllowance, "Insufficient allowance (allowance %s, required=%s)",
			common.AmountString(allowance), common.AmountString(required))
	},
}

// Contract is the destination token contract working with JSON messages.
// Accounts are bech32 addresses with the ledger prefix.
type Contract struct {
	prefix string
}

// New returns destination contract for a ledger with the given address
// prefix.
func New(prefix string) *Contract {
	return &Contract{prefix: prefix}
}

// Call implements ledger.Contract. Every entry point takes a single JSON
// message argument.
func (c *Contract) Call(ic *ledger.Context, method string, args []stackitem.Item) (stackitem.Item, error) {
	switch method {
	case ledger.DeployMethod, ExecuteMethod, QueryMethod:
	default:
		return nil, ledger.ErrMethodNotFound
	}

	if err := common.CheckArgs(method, args, 1); err != nil {
		return nil, err
	}
	data, err := args[0].TryBytes()
	if err != nil {
		return nil, common.Wrapf(common.ErrInvalidArgument, err, "%s: message must be a byte string: %v", method, err)
	}

	switch method {
	case ledger.DeployMethod:
		return stackitem.Null{}, c.instantiate(ic, data)
	case ExecuteMethod:
		msg, err := ParseExecuteMsg(data)
		if err != nil {
			return nil, err
		}
		return stackitem.Null{}, c.execute(ic, msg)
	default:
		msg, err := ParseQueryMsg(data)
		if err != nil {
			return nil, err
		}
		resp, err := c.query(ic, msg)
		if err != nil {
			return nil, err
		}
		out, err := json.Marshal(resp)
		if err != nil {
			return nil, fmt.Errorf("encode %s response: %w", msg.Tag(), err)
		}
		return stackitem.NewByteArray(out), nil
	}
}

func (c *Contract) token(ic *ledger.Context) common.Token {
	return common.NewToken(ic, reverts)
}

func (c *Contract) instantiate(ic *ledger.Context, data []byte) error {
	var msg InstantiateMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return common.Wrapf(common.ErrInvalidArgument, err, "Error parsing into type InstantiateMsg: %v", err)
	}
	if err := msg.Validate(); err != nil {
		return err
	}

	common.SetOwner(ic, ic.Caller())
	c.token(ic).PutMetadata(common.Metadata{
		Name:     msg.Name,
		Symbol:   msg.Symbol,
		Decimals: msg.Decimals,
	})

	if msg.Counterpart != "" {
		if err := c.setCounterpart(ic, msg.Counterpart); err != nil {
			return err
		}
	}

	ic.Log("destination token instantiated",
		zap.String("name", msg.Name),
		zap.String("symbol", msg.Symbol),
		zap.Uint8("decimals", msg.Decimals))
	return nil
}

func (c *Contract) execute(ic *ledger.Context, msg ExecuteMsg) error {
	switch m := msg.(type) {
	case InitializeMsg:
		if err := common.CheckOwnerWitness(ic); err != nil {
			return err
		}
		return c.setCounterpart(ic, m.Counterpart)
	case TransferMsg:
		return c.transfer(ic, m)
	case TransferFromMsg:
		return c.transferFrom(ic, m)
	case ApproveMsg:
		return c.approve(ic, m)
	case BurnMsg:
		return c.burn(ic, m)
	case SendToEvmMsg:
		return c.sendToEvm(ic, m)
	case MintCW20Msg:
		return c.mintCW20(ic, m)
	default:
		return common.Revertf(common.ErrUnknownMessage, "unknown message %T", msg)
	}
}

func (c *Contract) query(ic *ledger.Context, msg QueryMsg) (any, error) {
	tok := c.token(ic)

	switch m := msg.(type) {
	case BalanceQuery:
		acc, err := c.account(m.Address)
		if err != nil {
			return nil, err
		}
		return BalanceResponse{Balance: NewUint128(tok.BalanceOf(acc))}, nil
	case AllowanceQuery:
		owner, err := c.account(m.Owner)
		if err != nil {
			return nil, err
		}
		spender, err := c.account(m.Spender)
		if err != nil {
			return nil, err
		}
		return AllowanceResponse{Allowance: NewUint128(tok.Allowance(owner, spender))}, nil
	case TokenInfoQuery:
		meta := tok.Metadata()
		return TokenInfoResponse{
			Name:        meta.Name,
			Symbol:      meta.Symbol,
			Decimals:    meta.Decimals,
			TotalSupply: NewUint128(tok.TotalSupply()),
		}, nil
	case CounterpartQuery:
		var resp CounterpartResponse
		if a, ok := common.Counterpart(ic); ok {
			s := a.String()
			resp.Counterpart = &s
		}
		return resp, nil
	default:
		return nil, common.Revertf(common.ErrUnknownMessage, "unknown query %T", msg)
	}
}

// setCounterpart stores origin contract address in hex form.
func (c *Contract) setCounterpart(ic *ledger.Context, s string) error {
	peer, err := c.originAddress(s)
	if err != nil {
		return common.Wrapf(common.ErrInvalidArgument, err, "invalid counterpart address %q: %v", s, err)
	}
	if err := common.SetCounterpart(ic, peer); err != nil {
		return err
	}

	ic.Log("counterpart initialized", zap.Stringer("counterpart", peer))
	return nil
}

func (c *Contract) transfer(ic *ledger.Context, m TransferMsg) error {
	to, err := c.account(m.Recipient)
	if err != nil {
		return err
	}

	from := ic.Caller()
	if err := c.token(ic).Transfer(from, to, m.Amount.Amount()); err != nil {
		return err
	}

	c.notifyTransfer(ic, from, to, m.Amount)
	return nil
}

func (c *Contract) transferFrom(ic *ledger.Context, m TransferFromMsg) error {
	owner, err := c.account(m.Owner)
	if err != nil {
		return err
	}
	to, err := c.account(m.Recipient)
	if err != nil {
		return err
	}

	tok := c.token(ic)
	if err := tok.SpendAllowance(owner, ic.Caller(), m.Amount.Amount()); err != nil {
		return err
	}
	if err := tok.Transfer(owner, to, m.Amount.Amount()); err != nil {
		return err
	}

	c.notifyTransfer(ic, owner, to, m.Amount)
	return nil
}

func (c *Contract) approve(ic *ledger.Context, m ApproveMsg) error {
	spender, err := c.account(m.Spender)
	if err != nil {
		return err
	}

	owner := ic.Caller()
	c.token(ic).Approve(owner, spender, m.Amount.Amount())

	ic.Notify(ApproveEvent,
		c.addressItem(owner),
		c.addressItem(spender),
		common.AmountItem(m.Amount.Amount()))
	return nil
}

func (c *Contract) burn(ic *ledger.Context, m BurnMsg) error {
	from := ic.Caller()
	if err := c.token(ic).Burn(from, m.Amount.Amount()); err != nil {
		return err
	}

	ic.Notify(BurnEvent, c.addressItem(from), common.AmountItem(m.Amount.Amount()))
	return nil
}

// sendToEvm burns sender tokens and requests the same amount to be minted
// for the recipient in the origin ledger.
func (c *Contract) sendToEvm(ic *ledger.Context, m SendToEvmMsg) error {
	from := ic.Caller()
	tok := c.token(ic)
	amount := m.Amount.Amount()

	balance := tok.BalanceOf(from)
	if balance.Lt(amount) {
		return reverts.InsufficientFunds("burn", balance, amount)
	}

	recipient, err := c.originAddress(m.Recipient)
	if err != nil {
		return common.Wrapf(common.ErrInvalidRecipient, err, ErrInvalidRecipient, m.Recipient)
	}

	peer, err := common.RequireCounterpart(ic)
	if err != nil {
		return err
	}

	if err := tok.Burn(from, amount); err != nil {
		return err
	}

	ic.Notify(BurnEvent, c.addressItem(from), common.AmountItem(amount))
	ic.Notify(SendToEvmEvent,
		c.addressItem(from),
		stackitem.NewByteArray([]byte(recipient.String())),
		common.AmountItem(amount),
		stackitem.NewByteArray([]byte(peer.String())))
	return nil
}

// mintCW20 mints tokens sent from the origin ledger. Sender must be the
// origin contract, so nobody can mint before initialization.
func (c *Contract) mintCW20(ic *ledger.Context, m MintCW20Msg) error {
	sender := address.Bech32(c.prefix, ic.Caller())

	peer, ok := common.Counterpart(ic)
	if !ok {
		return common.Revertf(common.ErrUnauthorized, ErrInvalidSender, sender)
	}
	if origin, err := address.ToOriginLedger(sender, c.prefix); err != nil || !origin.Equals(peer) {
		return common.Revertf(common.ErrUnauthorized, ErrInvalidSender, sender)
	}

	to, err := c.account(m.Recipient)
	if err != nil {
		// Hex recipients are translated.
		h, herr := address.ParseHex(m.Recipient)
		if herr != nil {
			return err
		}
		to = h.Payload()
	}

	var details []byte
	if m.TransferID != "" {
		if details, err = hex.DecodeString(m.TransferID); err != nil {
			return common.Wrapf(common.ErrInvalidArgument, err, "invalid transfer_id: %v", err)
		}
	}

	if err := c.token(ic).Mint(to, m.Amount.Amount()); err != nil {
		return err
	}

	ic.Notify(MintEvent,
		c.addressItem(to),
		stackitem.NewByteArray([]byte(sender.String())),
		common.AmountItem(m.Amount.Amount()),
		stackitem.NewByteArray(common.MintTransferDetails(details)))
	return nil
}

// account parses our-prefix bech32 account address.
func (c *Contract) account(s string) (util.Uint160, error) {
	a, err := address.ParseBech32(s, c.prefix)
	if err != nil {
		return util.Uint160{}, common.Wrapf(common.ErrInvalidRecipient, err, ErrInvalidRecipient, s)
	}
	return a.Payload(), nil
}

// originAddress parses origin ledger address given as hex or as our-prefix
// bech32 that is translated.
func (c *Contract) originAddress(s string) (address.Address, error) {
	a, err := address.Parse(s, c.prefix)
	if err != nil {
		return address.Address{}, err
	}
	if a.Kind() == address.KindBech32 {
		return address.ToOriginLedger(a, c.prefix)
	}
	return a, nil
}

func (c *Contract) addressItem(u util.Uint160) stackitem.Item {
	return stackitem.NewByteArray([]byte(address.Bech32(c.prefix, u).String()))
}

func (c *Contract) notifyTransfer(ic *ledger.Context, from, to util.Uint160, amount Uint128) {
	ic.Notify(TransferEvent, c.addressItem(from), c.addressItem(to), common.AmountItem(amount.Amount()))
}

