package origin_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"github.com/nspcc-dev/tokenbridge-contract/common"
	"github.com/nspcc-dev/tokenbridge-contract/internal/bridgetest"
	"github.com/nspcc-dev/tokenbridge-contract/ledger"
	rpcorigin "github.com/nspcc-dev/tokenbridge-contract/rpc/origin"
	"github.com/stretchr/testify/require"
)

func TestContractReader(t *testing.T) {
	e := bridgetest.NewEnv(t)
	r := e.OriginReader()

	require.Equal(t, e.Contracts.Origin, r.Hash())

	name, err := r.Name()
	require.NoError(t, err)
	require.Equal(t, bridgetest.TokenName, name)

	symbol, err := r.Symbol()
	require.NoError(t, err)
	require.Equal(t, bridgetest.TokenSymbol, symbol)

	decimals, err := r.Decimals()
	require.NoError(t, err)
	require.Equal(t, 18, decimals)

	v, err := r.Version()
	require.NoError(t, err)
	require.EqualValues(t, common.Version, v.Int64())

	peer, err := r.Counterpart()
	require.NoError(t, err)
	require.Equal(t, bridgetest.Bech32(e.Contracts.Destination), peer)

	allowance, err := r.Allowance(e.Operator, bridgetest.NewAccount(t))
	require.NoError(t, err)
	require.Zero(t, allowance.Sign())
}

func TestContract(t *testing.T) {
	ctx := context.Background()
	e := bridgetest.NewEnv(t)
	user, spender := bridgetest.NewAccount(t), bridgetest.NewAccount(t)

	c := rpcorigin.New(ledger.NewActor(e.OriginLedger, e.Operator), e.Contracts.Origin)

	res, err := c.Transfer(ctx, user, big.NewInt(100))
	require.NoError(t, err)

	transfers, err := rpcorigin.TransferEventsFromResult(res)
	require.NoError(t, err)
	require.Equal(t, []*rpcorigin.TransferEvent{{From: e.Operator, To: user, Amount: big.NewInt(100)}}, transfers)

	uc := rpcorigin.New(ledger.NewActor(e.OriginLedger, user), e.Contracts.Origin)
	_, err = uc.Approve(ctx, spender, big.NewInt(10))
	require.NoError(t, err)

	sc := rpcorigin.New(ledger.NewActor(e.OriginLedger, spender), e.Contracts.Origin)
	_, err = sc.TransferFrom(ctx, user, spender, big.NewInt(10))
	require.NoError(t, err)

	res, err = uc.SendToOtherLedger(ctx, bridgetest.Hex(user), big.NewInt(90))
	require.NoError(t, err)

	sends, err := rpcorigin.SendToOtherLedgerEventsFromResult(res)
	require.NoError(t, err)
	require.Equal(t, []*rpcorigin.SendToOtherLedgerEvent{{
		From:      user,
		Recipient: bridgetest.Bech32(user),
		Amount:    big.NewInt(90),
	}}, sends)

	transfers, err = rpcorigin.TransferEventsFromResult(res)
	require.NoError(t, err)
	require.Len(t, transfers, 1)
	require.Equal(t, util.Uint160{}, transfers[0].To)

	t.Run("receive", func(t *testing.T) {
		_, err := uc.ReceiveFromOtherLedger(ctx, user, big.NewInt(5), nil)
		require.ErrorIs(t, err, common.ErrUnauthorized)

		pc := rpcorigin.New(ledger.NewActor(e.OriginLedger, e.Contracts.Destination), e.Contracts.Origin)
		res, err := pc.ReceiveFromOtherLedger(ctx, user, big.NewInt(5), []byte{0xff})
		require.NoError(t, err)

		receives, err := rpcorigin.ReceiveFromOtherLedgerEventsFromResult(res)
		require.NoError(t, err)
		require.Equal(t, []*rpcorigin.ReceiveFromOtherLedgerEvent{{To: user, Amount: big.NewInt(5)}}, receives)
	})

	balance, err := c.BalanceOf(user)
	require.NoError(t, err)
	require.EqualValues(t, 5, balance.Int64())

	supply, err := c.TotalSupply()
	require.NoError(t, err)
	require.EqualValues(t, bridgetest.InitialSupply-90+5, supply.Int64())
}

func TestEventsFromResult(t *testing.T) {
	_, err := rpcorigin.SendToOtherLedgerEventsFromResult(nil)
	require.Error(t, err)

	res := &state.AppExecResult{Execution: state.Execution{Events: []state.NotificationEvent{{
		Name: "SendToOtherLedger",
		Item: stackitem.NewArray([]stackitem.Item{stackitem.Make(1)}),
	}}}}
	_, err = rpcorigin.SendToOtherLedgerEventsFromResult(res)
	require.ErrorContains(t, err, "wrong number of structure elements")

	events, err := rpcorigin.ReceiveFromOtherLedgerEventsFromResult(res)
	require.NoError(t, err)
	require.Empty(t, events)
}
