package common

import (
	"github.com/holiman/uint256"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"github.com/nspcc-dev/tokenbridge-contract/ledger"
)

const (
	balancePrefix   = 0x01
	allowancePrefix = 0x02
)

var (
	totalSupplyKey = []byte("totalSupply")
	metadataKey    = []byte("metadata")
)

// Metadata is a static token description.
type Metadata struct {
	Name     string
	Symbol   string
	Decimals uint8
}

// Reverts builds insufficient funds failures the way token flavour reports them.
type Reverts struct {
	// InsufficientFunds is used by transfers (op is "transfer") and burns
	// (op is "burn").
	InsufficientFunds func(op string, balance, required *uint256.Int) error
	// InsufficientAllowance is used by delegated transfers.
	InsufficientAllowance func(allowance, required *uint256.Int) error
}

// Token is a fungible token ledger kept in the contract storage. Sum of all
// balances is always equal to the total supply.
type Token struct {
	ic      *ledger.Context
	reverts Reverts
}

// NewToken returns token working with the contract storage of ic.
func NewToken(ic *ledger.Context, reverts Reverts) Token {
	return Token{ic: ic, reverts: reverts}
}

// PutMetadata stores token metadata.
func (t Token) PutMetadata(m Metadata) {
	SetSerialized(t.ic, metadataKey, stackitem.NewStruct([]stackitem.Item{
		stackitem.NewByteArray([]byte(m.Name)),
		stackitem.NewByteArray([]byte(m.Symbol)),
		stackitem.Make(int(m.Decimals)),
	}))
}

// Metadata returns stored token metadata.
func (t Token) Metadata() Metadata {
	item := GetSerialized(t.ic, metadataKey)
	if item == nil {
		return Metadata{}
	}

	fields := item.Value().([]stackitem.Item)
	name, _ := fields[0].TryBytes()
	symbol, _ := fields[1].TryBytes()
	decimals, _ := fields[2].TryInteger()

	return Metadata{
		Name:     string(name),
		Symbol:   string(symbol),
		Decimals: uint8(decimals.Uint64()),
	}
}

// TotalSupply returns the amount of tokens in circulation.
func (t Token) TotalSupply() *uint256.Int {
	return GetAmount(t.ic, totalSupplyKey)
}

// BalanceOf returns account balance, unknown accounts have zero balance.
func (t Token) BalanceOf(acc util.Uint160) *uint256.Int {
	return GetAmount(t.ic, balanceKey(acc))
}

// Allowance returns the amount spender can transfer from owner account.
func (t Token) Allowance(owner, spender util.Uint160) *uint256.Int {
	return GetAmount(t.ic, allowanceKey(owner, spender))
}

// Approve sets spender allowance, previous value is overwritten.
func (t Token) Approve(owner, spender util.Uint160, amount *uint256.Int) {
	PutAmount(t.ic, allowanceKey(owner, spender), amount)
}

// SpendAllowance decreases spender allowance by amount.
func (t Token) SpendAllowance(owner, spender util.Uint160, amount *uint256.Int) error {
	allowance := t.Allowance(owner, spender)
	if allowance.Lt(amount) {
		return t.reverts.InsufficientAllowance(allowance, amount)
	}

	PutAmount(t.ic, allowanceKey(owner, spender), new(uint256.Int).Sub(allowance, amount))
	return nil
}

// Transfer moves amount from one account to another.
func (t Token) Transfer(from, to util.Uint160, amount *uint256.Int) error {
	balance := t.BalanceOf(from)
	if balance.Lt(amount) {
		return t.reverts.InsufficientFunds("transfer", balance, amount)
	}
	if from.Equals(to) {
		return nil
	}

	recipient, err := AddAmount(t.BalanceOf(to), amount)
	if err != nil {
		return err
	}

	PutAmount(t.ic, balanceKey(from), new(uint256.Int).Sub(balance, amount))
	PutAmount(t.ic, balanceKey(to), recipient)
	return nil
}

// Mint issues amount of new tokens to the account.
func (t Token) Mint(to util.Uint160, amount *uint256.Int) error {
	supply, err := AddAmount(t.TotalSupply(), amount)
	if err != nil {
		return err
	}

	// Balance can't exceed the supply, so no overflow check is needed here.
	balance := new(uint256.Int).Add(t.BalanceOf(to), amount)

	PutAmount(t.ic, balanceKey(to), balance)
	PutAmount(t.ic, totalSupplyKey, supply)
	return nil
}

// Burn destroys amount of tokens of the account.
func (t Token) Burn(from util.Uint160, amount *uint256.Int) error {
	balance := t.BalanceOf(from)
	if balance.Lt(amount) {
		return t.reverts.InsufficientFunds("burn", balance, amount)
	}

	PutAmount(t.ic, balanceKey(from), new(uint256.Int).Sub(balance, amount))
	PutAmount(t.ic, totalSupplyKey, new(uint256.Int).Sub(t.TotalSupply(), amount))
	return nil
}

func balanceKey(acc util.Uint160) []byte {
	return append([]byte{balancePrefix}, acc.BytesBE()...)
}

func allowanceKey(owner, spender util.Uint160) []byte {
	key := make([]byte, 0, 1+2*util.Uint160Size)
	key = append(key, allowancePrefix)
	key = append(key, owner.BytesBE()...)
	return append(key, spender.BytesBE()...)
}
