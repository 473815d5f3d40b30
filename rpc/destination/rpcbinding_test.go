package destination_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/nspcc-dev/tokenbridge-contract/common"
	"github.com/nspcc-dev/tokenbridge-contract/internal/bridgetest"
	"github.com/nspcc-dev/tokenbridge-contract/ledger"
	rpcdestination "github.com/nspcc-dev/tokenbridge-contract/rpc/destination"
	"github.com/stretchr/testify/require"
)

func TestContract(t *testing.T) {
	ctx := context.Background()
	e := bridgetest.NewEnv(t)
	user, other := bridgetest.NewAccount(t), bridgetest.NewAccount(t)

	r := e.DestinationReader()
	require.Equal(t, e.Contracts.Destination, r.Hash())

	info, err := r.TokenInfo()
	require.NoError(t, err)
	require.Equal(t, bridgetest.CW20Name, info.Name)
	require.Equal(t, bridgetest.CW20Symbol, info.Symbol)
	require.EqualValues(t, bridgetest.CW20Decimals, info.Decimals)

	peer, err := r.Counterpart()
	require.NoError(t, err)
	require.Equal(t, bridgetest.Hex(e.Contracts.Origin), peer)

	t.Run("mint", func(t *testing.T) {
		uc := rpcdestination.New(ledger.NewActor(e.DestinationLedger, user), e.Contracts.Destination)
		_, err := uc.MintCW20(ctx, bridgetest.Bech32(user), big.NewInt(100), nil)
		require.ErrorIs(t, err, common.ErrUnauthorized)

		pc := rpcdestination.New(ledger.NewActor(e.DestinationLedger, e.Contracts.Origin), e.Contracts.Destination)
		res, err := pc.MintCW20(ctx, bridgetest.Bech32(user), big.NewInt(100), []byte{0xab})
		require.NoError(t, err)

		mints, err := rpcdestination.MintEventsFromResult(res)
		require.NoError(t, err)
		require.Equal(t, []*rpcdestination.MintEvent{{
			Account: bridgetest.Bech32(user),
			Sender:  bridgetest.Bech32(e.Contracts.Origin),
			Amount:  big.NewInt(100),
			Details: common.MintTransferDetails([]byte{0xab}),
		}}, mints)
	})

	c := rpcdestination.New(ledger.NewActor(e.DestinationLedger, user), e.Contracts.Destination)

	_, err = c.Transfer(ctx, bridgetest.Bech32(other), big.NewInt(10))
	require.NoError(t, err)

	_, err = c.Burn(ctx, big.NewInt(10))
	require.NoError(t, err)

	_, err = c.SendToEvm(ctx, bridgetest.Hex(other), big.NewInt(-1))
	require.ErrorIs(t, err, common.ErrInvalidAmount)

	res, err := c.SendToEvm(ctx, bridgetest.Hex(other), big.NewInt(80))
	require.NoError(t, err)

	sends, err := rpcdestination.SendToEvmEventsFromResult(res)
	require.NoError(t, err)
	require.Equal(t, []*rpcdestination.SendToEvmEvent{{
		Sender:      bridgetest.Bech32(user),
		Recipient:   bridgetest.Hex(other),
		Amount:      big.NewInt(80),
		Counterpart: bridgetest.Hex(e.Contracts.Origin),
	}}, sends)

	balance, err := r.Balance(bridgetest.Bech32(other))
	require.NoError(t, err)
	require.EqualValues(t, 10, balance.Int64())

	supply, err := r.TotalSupply()
	require.NoError(t, err)
	require.EqualValues(t, 10, supply.Int64())

	allowance, err := r.Allowance(bridgetest.Bech32(user), bridgetest.Bech32(other))
	require.NoError(t, err)
	require.Zero(t, allowance.Sign())

	_, err = r.Balance("error address")
	require.Error(t, err)
}
