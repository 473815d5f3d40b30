package deploy_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/tokenbridge-contract/deploy"
	"github.com/nspcc-dev/tokenbridge-contract/destination"
	"github.com/nspcc-dev/tokenbridge-contract/internal/bridgetest"
	"github.com/nspcc-dev/tokenbridge-contract/ledger"
	"github.com/stretchr/testify/require"
)

func TestDeploy(t *testing.T) {
	e := bridgetest.NewUnpairedEnv(t)

	res, err := deploy.Deploy(context.Background(), e.DeployPrm(t))
	require.NoError(t, err)
	require.NotEqual(t, util.Uint160{}, res.Origin)
	require.NotEqual(t, util.Uint160{}, res.Destination)

	name, ok := e.OriginLedger.ContractName(res.Origin)
	require.True(t, ok)
	require.Equal(t, deploy.OriginContractName, name)

	name, ok = e.DestinationLedger.ContractName(res.Destination)
	require.True(t, ok)
	require.Equal(t, deploy.DestinationContractName, name)

	e.Contracts = res

	peer, err := e.OriginReader().Counterpart()
	require.NoError(t, err)
	require.Equal(t, bridgetest.Bech32(res.Destination), peer)

	peer, err = e.DestinationReader().Counterpart()
	require.NoError(t, err)
	require.Equal(t, bridgetest.Hex(res.Origin), peer)

	require.EqualValues(t, bridgetest.InitialSupply, e.OriginBalance(t, e.Operator))
	require.EqualValues(t, 0, e.DestinationSupply(t))

	t.Run("idempotent", func(t *testing.T) {
		originHeight, destinationHeight := e.OriginLedger.Height(), e.DestinationLedger.Height()

		again, err := deploy.Deploy(context.Background(), e.DeployPrm(t))
		require.NoError(t, err)
		require.Equal(t, res, again)

		require.Equal(t, originHeight, e.OriginLedger.Height())
		require.Equal(t, destinationHeight, e.DestinationLedger.Height())
	})
}

func TestDeploy_PartiallyInitialized(t *testing.T) {
	e := bridgetest.NewUnpairedEnv(t)

	// Destination is deployed separately and not initialized.
	data, err := json.Marshal(destination.InstantiateMsg{Name: "token", Symbol: "TKN"})
	require.NoError(t, err)
	h, _, err := e.DestinationLedger.Deploy(context.Background(), e.Operator, "destination",
		destination.New(bridgetest.Prefix), data)
	require.NoError(t, err)

	e.Contracts.Destination = h
	e.Pair(t)
	require.Equal(t, h, e.Contracts.Destination)

	peer, err := e.DestinationReader().Counterpart()
	require.NoError(t, err)
	require.Equal(t, bridgetest.Hex(e.Contracts.Origin), peer)
}

func TestDeploy_CounterpartMismatch(t *testing.T) {
	e := bridgetest.NewEnv(t)

	other := bridgetest.NewUnpairedEnv(t)
	other.OriginLedger = e.OriginLedger
	other.DestinationLedger = e.DestinationLedger
	other.Operator = e.Operator
	other.Contracts.Origin = e.Contracts.Origin

	// Paired origin contract can't be paired with a new destination.
	_, err := deploy.Deploy(context.Background(), other.DeployPrm(t))
	require.ErrorIs(t, err, deploy.ErrCounterpartMismatch)
}

func TestDeploy_InvalidParameters(t *testing.T) {
	e := bridgetest.NewUnpairedEnv(t)

	prm := e.DeployPrm(t)
	prm.Origin.Ledger = nil
	_, err := deploy.Deploy(context.Background(), prm)
	require.Error(t, err)

	prm = e.DeployPrm(t)
	prm.Destination.Ledger = ledger.New("hex", ledger.HexFormat, nil)
	_, err = deploy.Deploy(context.Background(), prm)
	require.ErrorContains(t, err, "no bech32 prefix")

	prm = e.DeployPrm(t)
	prm.Destination.Symbol = "x"
	_, err = deploy.Deploy(context.Background(), prm)
	require.ErrorContains(t, err, "deploy destination contract")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = deploy.Deploy(ctx, e.DeployPrm(t))
	require.ErrorIs(t, err, context.Canceled)
}
