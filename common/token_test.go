package common

import (
	"context"
	"fmt"
	"testing"

	"github.com/holiman/uint256"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"github.com/nspcc-dev/tokenbridge-contract/address"
	"github.com/nspcc-dev/tokenbridge-contract/ledger"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var testReverts = Reverts{
	InsufficientFunds: func(op string, balance, required *uint256.Int) error {
		return Revertf(ErrInsufficientBalance, "%s: balance %s, required %s", op, AmountString(balance), AmountString(required))
	},
	InsufficientAllowance: func(allowance, required *uint256.Int) error {
		return Revertf(ErrInsufficientAllowance, "allowance %s, required %s", AmountString(allowance), AmountString(required))
	},
}

// tokenContract exposes Token and counterpart helpers as contract methods.
type tokenContract struct{}

func (tokenContract) Call(ic *ledger.Context, method string, args []stackitem.Item) (stackitem.Item, error) {
	tok := NewToken(ic, testReverts)

	acc := func(i int) util.Uint160 {
		u, err := ToUint160(args[i])
		if err != nil {
			panic(err)
		}
		return u
	}
	amount := func(i int) *uint256.Int {
		a, err := AmountFromItem(args[i])
		if err != nil {
			panic(err)
		}
		return a
	}

	switch method {
	case ledger.DeployMethod:
		SetOwner(ic, ic.Caller())
		tok.PutMetadata(Metadata{Name: "token", Symbol: "TKN", Decimals: 8})
		return nil, nil
	case "mint":
		return nil, tok.Mint(acc(0), amount(1))
	case "burn":
		return nil, tok.Burn(acc(0), amount(1))
	case "transfer":
		return nil, tok.Transfer(ic.Caller(), acc(0), amount(1))
	case "approve":
		tok.Approve(ic.Caller(), acc(0), amount(1))
		return nil, nil
	case "transferFrom":
		if err := tok.SpendAllowance(acc(0), ic.Caller(), amount(2)); err != nil {
			return nil, err
		}
		return nil, tok.Transfer(acc(0), acc(1), amount(2))
	case "balanceOf":
		return AmountItem(tok.BalanceOf(acc(0))), nil
	case "allowance":
		return AmountItem(tok.Allowance(acc(0), acc(1))), nil
	case "totalSupply":
		return AmountItem(tok.TotalSupply()), nil
	case "holders":
		var n int
		sum := new(uint256.Int)
		tok.Holders(func(_ util.Uint160, b *uint256.Int) bool {
			n++
			sum.Add(sum, b)
			return true
		})
		return stackitem.NewArray([]stackitem.Item{stackitem.Make(n), AmountItem(sum)}), nil
	case "decimals":
		return stackitem.Make(int(tok.Metadata().Decimals)), nil
	case "initialize":
		if err := CheckOwnerWitness(ic); err != nil {
			return nil, err
		}
		return nil, SetCounterpart(ic, address.Bech32("ex", acc(0)))
	case "counterpart":
		a, err := RequireCounterpart(ic)
		if err != nil {
			return nil, err
		}
		return stackitem.NewByteArray([]byte(a.String())), nil
	default:
		return nil, ledger.ErrMethodNotFound
	}
}

type tokenEnv struct {
	t     *testing.T
	l     *ledger.Ledger
	h     util.Uint160
	owner util.Uint160
}

func newTokenEnv(t *testing.T) *tokenEnv {
	l := ledger.New("A", ledger.HexFormat, zaptest.NewLogger(t))
	owner := util.Uint160{0xAA}

	h, _, err := l.Deploy(context.Background(), owner, "token", tokenContract{})
	require.NoError(t, err)

	return &tokenEnv{t: t, l: l, h: h, owner: owner}
}

func (e *tokenEnv) invoke(signer util.Uint160, method string, args ...any) error {
	_, err := e.l.Invoke(context.Background(), signer, e.h, method, args...)
	return err
}

func (e *tokenEnv) amount(method string, args ...any) uint64 {
	res, err := e.l.Call(e.h, method, args...)
	require.NoError(e.t, err)
	require.Equal(e.t, "HALT", res.State, res.FaultException)
	bi, err := res.Stack[0].TryInteger()
	require.NoError(e.t, err)
	return bi.Uint64()
}

func TestToken(t *testing.T) {
	e := newTokenEnv(t)
	a, b, c := util.Uint160{1}, util.Uint160{2}, util.Uint160{3}

	require.EqualValues(t, 8, e.amount("decimals"))

	require.NoError(t, e.invoke(a, "mint", a, 100))
	require.EqualValues(t, 100, e.amount("balanceOf", a))
	require.EqualValues(t, 100, e.amount("totalSupply"))

	t.Run("transfer", func(t *testing.T) {
		require.NoError(t, e.invoke(a, "transfer", b, 30))
		require.EqualValues(t, 70, e.amount("balanceOf", a))
		require.EqualValues(t, 30, e.amount("balanceOf", b))

		err := e.invoke(b, "transfer", a, 31)
		require.ErrorIs(t, err, ErrInsufficientBalance)
		require.ErrorContains(t, err, "transfer: balance 30, required 31")
		require.EqualValues(t, 30, e.amount("balanceOf", b))

		require.NoError(t, e.invoke(b, "transfer", b, 30))
		require.EqualValues(t, 30, e.amount("balanceOf", b))
	})

	t.Run("allowance", func(t *testing.T) {
		require.NoError(t, e.invoke(a, "approve", c, 20))
		require.EqualValues(t, 20, e.amount("allowance", a, c))

		err := e.invoke(c, "transferFrom", a, b, 21)
		require.ErrorIs(t, err, ErrInsufficientAllowance)

		require.NoError(t, e.invoke(c, "transferFrom", a, b, 15))
		require.EqualValues(t, 5, e.amount("allowance", a, c))
		require.EqualValues(t, 55, e.amount("balanceOf", a))
		require.EqualValues(t, 45, e.amount("balanceOf", b))
	})

	t.Run("burn", func(t *testing.T) {
		err := e.invoke(b, "burn", b, 46)
		require.ErrorIs(t, err, ErrInsufficientBalance)

		require.NoError(t, e.invoke(b, "burn", b, 45))
		require.EqualValues(t, 0, e.amount("balanceOf", b))
		require.EqualValues(t, 55, e.amount("totalSupply"))
	})

	t.Run("supply overflow", func(t *testing.T) {
		err := e.invoke(a, "mint", c, MaxAmount.ToBig())
		require.ErrorIs(t, err, ErrInvalidAmount)
		require.EqualValues(t, 55, e.amount("totalSupply"))
	})

	t.Run("sum of balances", func(t *testing.T) {
		res, err := e.l.Call(e.h, "holders")
		require.NoError(t, err)
		items := res.Stack[0].Value().([]stackitem.Item)
		n, _ := items[0].TryInteger()
		sum, _ := items[1].TryInteger()
		require.EqualValues(t, 1, n.Int64())
		require.EqualValues(t, e.amount("totalSupply"), sum.Uint64())
	})
}

func TestCounterpart(t *testing.T) {
	e := newTokenEnv(t)
	peer := util.Uint160{0x42}

	res, err := e.l.Call(e.h, "counterpart")
	require.NoError(t, err)
	require.Equal(t, "FAULT", res.State)
	require.Contains(t, res.FaultException, ErrNotInitialized.Error())

	err = e.invoke(util.Uint160{1}, "initialize", peer)
	require.ErrorIs(t, err, ErrUnauthorized)
	require.ErrorContains(t, err, ErrOwnerWitnessFailed)

	require.NoError(t, e.invoke(e.owner, "initialize", peer))

	res, err = e.l.Call(e.h, "counterpart")
	require.NoError(t, err)
	s, err := res.Stack[0].TryBytes()
	require.NoError(t, err)
	require.Equal(t, address.Bech32("ex", peer).String(), string(s))

	err = e.invoke(e.owner, "initialize", util.Uint160{0x43})
	require.ErrorIs(t, err, ErrAlreadyInitialized)
}

func TestGetAmountCorrupted(t *testing.T) {
	e := newTokenEnv(t)
	_, _, err := e.l.Deploy(context.Background(), e.owner, "raw", rawContract{})
	require.NoError(t, err)
}

// rawContract stores a balance of the wrong size and reads it back.
type rawContract struct{}

func (rawContract) Call(ic *ledger.Context, method string, _ []stackitem.Item) (stackitem.Item, error) {
	if method != ledger.DeployMethod {
		return nil, ledger.ErrMethodNotFound
	}

	ic.Put([]byte("k"), []byte{1, 2, 3})
	defer func() {
		r := recover()
		if r != ErrCorruptedData {
			panic(fmt.Sprintf("unexpected panic: %v", r))
		}
	}()
	GetAmount(ic, []byte("k"))
	return nil, nil
}
