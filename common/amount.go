package common

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
)

// AmountBits is the width of amounts accepted by both ledgers.
const AmountBits = 128

// MaxAmount is the biggest balance, supply or transfer amount.
var MaxAmount = new(uint256.Int).Sub(new(uint256.Int).Lsh(uint256.NewInt(1), AmountBits), uint256.NewInt(1))

// ParseAmount parses decimal amount string. Only digits are allowed, the value
// must not exceed MaxAmount.
func ParseAmount(s string) (*uint256.Int, error) {
	if s == "" {
		return nil, Revertf(ErrInvalidAmount, "Invalid number: empty string")
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return nil, Revertf(ErrInvalidAmount, "Invalid number: %q", s)
		}
	}

	bi, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, Revertf(ErrInvalidAmount, "Invalid number: %q", s)
	}
	return amountFromBig(bi)
}

// AmountFromItem converts stack item into amount, negative and too big values
// are rejected.
func AmountFromItem(it stackitem.Item) (*uint256.Int, error) {
	bi, err := it.TryInteger()
	if err != nil {
		return nil, Wrapf(ErrInvalidArgument, err, "amount must be an integer: %v", err)
	}
	return amountFromBig(bi)
}

func amountFromBig(bi *big.Int) (*uint256.Int, error) {
	if bi.Sign() < 0 {
		return nil, Revertf(ErrInvalidAmount, "negative amount %s", bi)
	}

	a, overflow := uint256.FromBig(bi)
	if overflow || a.Gt(MaxAmount) {
		return nil, Revertf(ErrInvalidAmount, "amount %s exceeds %d-bit range", bi, AmountBits)
	}
	return a, nil
}

// AmountItem converts amount into integer stack item.
func AmountItem(a *uint256.Int) stackitem.Item {
	return stackitem.NewBigInteger(a.ToBig())
}

// AmountString returns decimal representation of amount.
func AmountString(a *uint256.Int) string {
	return a.ToBig().String()
}

// AddAmount returns a+b or ErrInvalidAmount if the sum exceeds MaxAmount.
// Both operands must not exceed MaxAmount themselves.
func AddAmount(a, b *uint256.Int) (*uint256.Int, error) {
	sum := new(uint256.Int).Add(a, b)
	if sum.Gt(MaxAmount) {
		return nil, Revertf(ErrInvalidAmount, "amount overflow: %s + %s", AmountString(a), AmountString(b))
	}
	return sum, nil
}
