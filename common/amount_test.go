package common

import (
	"errors"
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	for _, tc := range []struct {
		in  string
		out string
		err bool
	}{
		{in: "0", out: "0"},
		{in: "1000", out: "1000"},
		{in: "00012", out: "12"},
		{in: "340282366920938463463374607431768211455", out: "340282366920938463463374607431768211455"},
		{in: "340282366920938463463374607431768211456", err: true},
		{in: "", err: true},
		{in: "-1", err: true},
		{in: "+1", err: true},
		{in: "1.5", err: true},
		{in: "1e3", err: true},
		{in: " 1", err: true},
	} {
		t.Run(tc.in, func(t *testing.T) {
			a, err := ParseAmount(tc.in)
			if tc.err {
				require.ErrorIs(t, err, ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.out, AmountString(a))
		})
	}
}

func TestAmountFromItem(t *testing.T) {
	a, err := AmountFromItem(stackitem.Make(42))
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(42), a)

	_, err = AmountFromItem(stackitem.Make(-1))
	require.ErrorIs(t, err, ErrInvalidAmount)

	tooBig := new(big.Int).Lsh(big.NewInt(1), AmountBits)
	_, err = AmountFromItem(stackitem.NewBigInteger(tooBig))
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = AmountFromItem(stackitem.NewArray(nil))
	require.ErrorIs(t, err, ErrInvalidArgument)

	require.Equal(t, stackitem.Make(42), AmountItem(uint256.NewInt(42)))
}

func TestAddAmount(t *testing.T) {
	sum, err := AddAmount(uint256.NewInt(1), uint256.NewInt(2))
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(3), sum)

	sum, err = AddAmount(new(uint256.Int).Sub(MaxAmount, uint256.NewInt(1)), uint256.NewInt(1))
	require.NoError(t, err)
	require.Equal(t, MaxAmount, sum)

	_, err = AddAmount(MaxAmount, uint256.NewInt(1))
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestRevert(t *testing.T) {
	cause := errors.New("cause")

	err := Wrapf(ErrInvalidRecipient, cause, "The recipient addr %s is not expect)", "x")
	require.EqualError(t, err, "The recipient addr x is not expect)")
	require.ErrorIs(t, err, ErrInvalidRecipient)
	require.ErrorIs(t, err, cause)
	require.NotErrorIs(t, err, ErrUnauthorized)

	err = Revertf(ErrUnauthorized, "Only Wasm specified address can call")
	require.EqualError(t, err, "Only Wasm specified address can call")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestVersionString(t *testing.T) {
	require.Equal(t, "0.1.0", VersionString(Version))
	require.Equal(t, "1.22.333", VersionString(1_022_333))
}

func TestTransferDetails(t *testing.T) {
	tx := []byte{1, 2, 3}

	m := MintTransferDetails(tx)
	require.Equal(t, []byte{0x01, 1, 2, 3}, m)
	require.Equal(t, []byte{0x02, 1, 2, 3}, BurnTransferDetails(tx))
	require.Equal(t, []byte{0x01}, MintTransferDetails(nil))

	// Source is not modified.
	require.Equal(t, []byte{1, 2, 3}, tx)
}
