package origin

import (
	"github.com/holiman/uint256"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"github.com/nspcc-dev/tokenbridge-contract/address"
	"github.com/nspcc-dev/tokenbridge-contract/common"
	"github.com/nspcc-dev/tokenbridge-contract/ledger"
	"go.uber.org/zap"
)

// Decimals is a precision of the origin token.
const Decimals = 18

// Notification names.
const (
	TransferEvent               = "Transfer"
	TransferXEvent              = "TransferX"
	ApprovalEvent               = "Approval"
	SendToOtherLedgerEvent      = "SendToOtherLedger"
	ReceiveFromOtherLedgerEvent = "ReceiveFromOtherLedger"
)

const (
	// ErrOnlyCounterpart is thrown when mint is requested by anyone but the
	// destination contract.
	ErrOnlyCounterpart = "Only Wasm specified address can call"
	// ErrTransferToZero is thrown for transfers to the zero account.
	ErrTransferToZero = "ERC20: transfer to the zero address"
)

var reverts = common.Reverts{
	InsufficientFunds: func(op string, _, _ *uint256.Int) error {
		return common.Revertf(common.ErrInsufficientBalance, "ERC20: %s amount exceeds balance", op)
	},
	InsufficientAllowance: func(_, _ *uint256.Int) error {
		return common.Revertf(common.ErrInsufficientAllowance, "ERC20: insufficient allowance")
	},
}

// Contract is the origin token contract. Prefix is a human-readable part of
// the destination ledger addresses.
type Contract struct {
	prefix string
}

// New returns origin contract paired with a ledger using the given address
// prefix.
func New(prefix string) *Contract {
	return &Contract{prefix: prefix}
}

type method func(c *Contract, ic *ledger.Context, args []stackitem.Item) (stackitem.Item, error)

var methods = map[string]struct {
	args int
	f    method
}{
	ledger.DeployMethod:      {4, (*Contract).deploy},
	"name":                   {0, (*Contract).name},
	"symbol":                 {0, (*Contract).symbol},
	"decimals":               {0, (*Contract).decimals},
	"totalSupply":            {0, (*Contract).totalSupply},
	"balanceOf":              {1, (*Contract).balanceOf},
	"allowance":              {2, (*Contract).allowance},
	"counterpart":            {0, (*Contract).counterpart},
	"version":                {0, (*Contract).version},
	"transfer":               {2, (*Contract).transfer},
	"approve":                {2, (*Contract).approve},
	"transferFrom":           {3, (*Contract).transferFrom},
	"initialize":             {1, (*Contract).initialize},
	"sendToOtherLedger":      {2, (*Contract).sendToOtherLedger},
	"receiveFromOtherLedger": {-1, (*Contract).receiveFromOtherLedger},
}

// Call implements ledger.Contract.
func (c *Contract) Call(ic *ledger.Context, name string, args []stackitem.Item) (stackitem.Item, error) {
	m, ok := methods[name]
	if !ok {
		return nil, ledger.ErrMethodNotFound
	}
	if m.args >= 0 {
		if err := common.CheckArgs(name, args, m.args); err != nil {
			return nil, err
		}
	}
	return m.f(c, ic, args)
}

func (c *Contract) token(ic *ledger.Context) common.Token {
	return common.NewToken(ic, reverts)
}

// deploy stores token metadata and mints initial supply to the owner. Null
// owner means the deployer.
func (c *Contract) deploy(ic *ledger.Context, args []stackitem.Item) (stackitem.Item, error) {
	owner := ic.Caller()
	if _, ok := args[0].(stackitem.Null); !ok {
		var err error
		if owner, err = common.ToUint160(args[0]); err != nil {
			return nil, err
		}
	}

	name, err := common.ToString(args[1])
	if err != nil {
		return nil, err
	}
	symbol, err := common.ToString(args[2])
	if err != nil {
		return nil, err
	}
	supply, err := common.AmountFromItem(args[3])
	if err != nil {
		return nil, err
	}

	tok := c.token(ic)
	common.SetOwner(ic, owner)
	tok.PutMetadata(common.Metadata{Name: name, Symbol: symbol, Decimals: Decimals})

	if !supply.IsZero() {
		if err := tok.Mint(owner, supply); err != nil {
			return nil, err
		}
		notifyTransfer(ic, nil, &owner, supply)
	}

	ic.Log("origin token deployed",
		zap.String("name", name),
		zap.String("symbol", symbol),
		zap.String("supply", common.AmountString(supply)))

	return stackitem.Null{}, nil
}

func (c *Contract) name(ic *ledger.Context, _ []stackitem.Item) (stackitem.Item, error) {
	return stackitem.NewByteArray([]byte(c.token(ic).Metadata().Name)), nil
}

func (c *Contract) symbol(ic *ledger.Context, _ []stackitem.Item) (stackitem.Item, error) {
	return stackitem.NewByteArray([]byte(c.token(ic).Metadata().Symbol)), nil
}

func (c *Contract) decimals(ic *ledger.Context, _ []stackitem.Item) (stackitem.Item, error) {
	return stackitem.Make(int(c.token(ic).Metadata().Decimals)), nil
}

func (c *Contract) totalSupply(ic *ledger.Context, _ []stackitem.Item) (stackitem.Item, error) {
	return common.AmountItem(c.token(ic).TotalSupply()), nil
}

func (c *Contract) balanceOf(ic *ledger.Context, args []stackitem.Item) (stackitem.Item, error) {
	acc, err := common.ToUint160(args[0])
	if err != nil {
		return nil, err
	}
	return common.AmountItem(c.token(ic).BalanceOf(acc)), nil
}

func (c *Contract) allowance(ic *ledger.Context, args []stackitem.Item) (stackitem.Item, error) {
	owner, err := common.ToUint160(args[0])
	if err != nil {
		return nil, err
	}
	spender, err := common.ToUint160(args[1])
	if err != nil {
		return nil, err
	}
	return common.AmountItem(c.token(ic).Allowance(owner, spender)), nil
}

// counterpart returns bech32 address of the destination contract or null.
func (c *Contract) counterpart(ic *ledger.Context, _ []stackitem.Item) (stackitem.Item, error) {
	a, ok := common.Counterpart(ic)
	if !ok {
		return stackitem.Null{}, nil
	}
	return stackitem.NewByteArray([]byte(a.String())), nil
}

func (c *Contract) version(_ *ledger.Context, _ []stackitem.Item) (stackitem.Item, error) {
	return stackitem.Make(common.Version), nil
}

func (c *Contract) transfer(ic *ledger.Context, args []stackitem.Item) (stackitem.Item, error) {
	to, err := common.ToUint160(args[0])
	if err != nil {
		return nil, err
	}
	amount, err := common.AmountFromItem(args[1])
	if err != nil {
		return nil, err
	}

	from := ic.Caller()
	if err := c.move(ic, from, to, amount); err != nil {
		return nil, err
	}
	return stackitem.NewBool(true), nil
}

func (c *Contract) approve(ic *ledger.Context, args []stackitem.Item) (stackitem.Item, error) {
	spender, err := common.ToUint160(args[0])
	if err != nil {
		return nil, err
	}
	amount, err := common.AmountFromItem(args[1])
	if err != nil {
		return nil, err
	}

	owner := ic.Caller()
	c.token(ic).Approve(owner, spender, amount)

	ic.Notify(ApprovalEvent,
		stackitem.NewByteArray(owner.BytesBE()),
		stackitem.NewByteArray(spender.BytesBE()),
		common.AmountItem(amount))

	return stackitem.NewBool(true), nil
}

func (c *Contract) transferFrom(ic *ledger.Context, args []stackitem.Item) (stackitem.Item, error) {
	from, err := common.ToUint160(args[0])
	if err != nil {
		return nil, err
	}
	to, err := common.ToUint160(args[1])
	if err != nil {
		return nil, err
	}
	amount, err := common.AmountFromItem(args[2])
	if err != nil {
		return nil, err
	}

	if err := c.token(ic).SpendAllowance(from, ic.Caller(), amount); err != nil {
		return nil, err
	}
	if err := c.move(ic, from, to, amount); err != nil {
		return nil, err
	}
	return stackitem.NewBool(true), nil
}

func (c *Contract) move(ic *ledger.Context, from, to util.Uint160, amount *uint256.Int) error {
	if to.Equals(util.Uint160{}) {
		return common.Revertf(common.ErrInvalidRecipient, ErrTransferToZero)
	}
	if err := c.token(ic).Transfer(from, to, amount); err != nil {
		return err
	}

	notifyTransfer(ic, &from, &to, amount)
	return nil
}

// initialize registers destination contract address, hex addresses are
// translated into the destination encoding. Can be invoked only by the owner
// and only once.
func (c *Contract) initialize(ic *ledger.Context, args []stackitem.Item) (stackitem.Item, error) {
	if err := common.CheckOwnerWitness(ic); err != nil {
		return nil, err
	}

	s, err := common.ToString(args[0])
	if err != nil {
		return nil, err
	}
	peer, err := c.parseRecipient(s)
	if err != nil {
		return nil, common.Wrapf(common.ErrInvalidArgument, err, "invalid counterpart address %q: %v", s, err)
	}

	if err := common.SetCounterpart(ic, peer); err != nil {
		return nil, err
	}

	ic.Log("counterpart initialized", zap.Stringer("counterpart", peer))
	return stackitem.Null{}, nil
}

// sendToOtherLedger burns caller tokens and requests the same amount to be
// minted for the recipient in the destination ledger.
func (c *Contract) sendToOtherLedger(ic *ledger.Context, args []stackitem.Item) (stackitem.Item, error) {
	s, err := common.ToString(args[0])
	if err != nil {
		return nil, err
	}
	raw, err := args[1].TryInteger()
	if err != nil {
		return nil, common.Wrapf(common.ErrInvalidArgument, err, "amount must be an integer: %v", err)
	}
	if raw.Sign() < 0 {
		return nil, common.Revertf(common.ErrInvalidAmount, "negative amount %s", raw)
	}

	from := ic.Caller()
	tok := c.token(ic)

	balance := tok.BalanceOf(from)
	if balance.ToBig().Cmp(raw) < 0 {
		return nil, reverts.InsufficientFunds("burn", balance, nil)
	}

	recipient, err := c.parseRecipient(s)
	if err != nil {
		return nil, common.Wrapf(common.ErrInvalidRecipient, err, "invalid recipient %q: %v", s, err)
	}

	amount, err := common.AmountFromItem(stackitem.NewBigInteger(raw))
	if err != nil {
		return nil, err
	}

	if _, err := common.RequireCounterpart(ic); err != nil {
		return nil, err
	}

	if err := tok.Burn(from, amount); err != nil {
		return nil, err
	}

	notifyTransfer(ic, &from, nil, amount)
	ic.Notify(TransferXEvent,
		stackitem.NewByteArray(from.BytesBE()),
		stackitem.Null{},
		common.AmountItem(amount),
		stackitem.NewByteArray(common.BurnTransferDetails(ic.Tx().BytesBE())))
	ic.Notify(SendToOtherLedgerEvent,
		stackitem.NewByteArray(from.BytesBE()),
		stackitem.NewByteArray([]byte(recipient.String())),
		common.AmountItem(amount))

	return stackitem.Null{}, nil
}

// receiveFromOtherLedger mints tokens sent from the destination ledger. Can
// be invoked only by the destination contract. Optional third argument is
// the transfer identifier put into TransferX details.
func (c *Contract) receiveFromOtherLedger(ic *ledger.Context, args []stackitem.Item) (stackitem.Item, error) {
	if len(args) != 2 && len(args) != 3 {
		return nil, common.Revertf(common.ErrInvalidArgument, "receiveFromOtherLedger: expected 2 or 3 arguments, got %d", len(args))
	}

	// Nobody is the counterpart of not initialized contract.
	if peer, ok := common.Counterpart(ic); !ok || !ic.Caller().Equals(peer.Payload()) {
		return nil, common.Revertf(common.ErrUnauthorized, ErrOnlyCounterpart)
	}

	to, err := common.ToUint160(args[0])
	if err != nil {
		return nil, err
	}
	amount, err := common.AmountFromItem(args[1])
	if err != nil {
		return nil, err
	}

	var details []byte
	if len(args) == 3 {
		if _, ok := args[2].(stackitem.Null); !ok {
			if details, err = args[2].TryBytes(); err != nil {
				return nil, common.Wrapf(common.ErrInvalidArgument, err, "invalid transfer details: %v", err)
			}
		}
	}

	if err := c.token(ic).Mint(to, amount); err != nil {
		return nil, err
	}

	notifyTransfer(ic, nil, &to, amount)
	ic.Notify(TransferXEvent,
		stackitem.Null{},
		stackitem.NewByteArray(to.BytesBE()),
		common.AmountItem(amount),
		stackitem.NewByteArray(common.MintTransferDetails(details)))
	ic.Notify(ReceiveFromOtherLedgerEvent,
		stackitem.NewByteArray(to.BytesBE()),
		common.AmountItem(amount))

	return stackitem.Null{}, nil
}

// parseRecipient accepts destination bech32 addresses and hex addresses that
// are translated into bech32.
func (c *Contract) parseRecipient(s string) (address.Address, error) {
	a, err := address.Parse(s, c.prefix)
	if err != nil {
		return address.Address{}, err
	}
	if a.Kind() == address.KindHex {
		return address.ToOtherLedger(a, c.prefix)
	}
	return a, nil
}

func notifyTransfer(ic *ledger.Context, from, to *util.Uint160, amount *uint256.Int) {
	ic.Notify(TransferEvent, hashItem(from), hashItem(to), common.AmountItem(amount))
}

func hashItem(u *util.Uint160) stackitem.Item {
	if u == nil {
		return stackitem.Null{}
	}
	return stackitem.NewByteArray(u.BytesBE())
}

