package bridgetest

import (
	"context"
	"math/big"
	"testing"

	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/tokenbridge-contract/address"
	"github.com/nspcc-dev/tokenbridge-contract/deploy"
	"github.com/nspcc-dev/tokenbridge-contract/destination"
	"github.com/nspcc-dev/tokenbridge-contract/ledger"
	rpcdestination "github.com/nspcc-dev/tokenbridge-contract/rpc/destination"
	rpcorigin "github.com/nspcc-dev/tokenbridge-contract/rpc/origin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// Environment defaults.
const (
	Prefix        = "ex"
	TokenName     = "testERC20"
	TokenSymbol   = "TST"
	CW20Name      = "testCW20"
	CW20Symbol    = "TCW"
	CW20Decimals  = 18
	InitialSupply = 10000
)

// Env is a pair of ledgers with paired bridge contracts deployed.
type Env struct {
	OriginLedger      *ledger.Ledger
	DestinationLedger *ledger.Ledger

	// Operator deploys both contracts, it owns the origin initial supply.
	Operator util.Uint160

	Contracts deploy.Result
}

// NewEnv deploys and pairs bridge contracts. Destination ledger uses Prefix
// addresses.
func NewEnv(t testing.TB) *Env {
	e := NewUnpairedEnv(t)
	e.Pair(t)
	return e
}

// NewUnpairedEnv creates ledgers and an operator account without contracts.
func NewUnpairedEnv(t testing.TB) *Env {
	log := zaptest.NewLogger(t)

	return &Env{
		OriginLedger:      ledger.New("origin", ledger.HexFormat, log),
		DestinationLedger: ledger.New("destination", ledger.Bech32Format(Prefix), log),
		Operator:          NewAccount(t),
	}
}

// DeployPrm returns deployment parameters for the environment.
func (e *Env) DeployPrm(t testing.TB) deploy.Prm {
	return deploy.Prm{
		Logger: zaptest.NewLogger(t),
		Origin: deploy.OriginPrm{
			Ledger:        e.OriginLedger,
			Operator:      e.Operator,
			Name:          TokenName,
			Symbol:        TokenSymbol,
			InitialSupply: big.NewInt(InitialSupply),
			Contract:      e.Contracts.Origin,
		},
		Destination: deploy.DestinationPrm{
			Ledger:   e.DestinationLedger,
			Operator: e.Operator,
			Name:     CW20Name,
			Symbol:   CW20Symbol,
			Decimals: CW20Decimals,
			Contract: e.Contracts.Destination,
		},
	}
}

// Pair deploys missing contracts and initializes them.
func (e *Env) Pair(t testing.TB) {
	res, err := deploy.Deploy(context.Background(), e.DeployPrm(t))
	require.NoError(t, err)
	e.Contracts = res
}

// Origin returns origin contract invoker signed by the given account.
func (e *Env) Origin(signer util.Uint160) *ContractInvoker {
	return NewInvoker(e.OriginLedger, e.Contracts.Origin, signer)
}

// Destination returns destination contract invoker signed by the given
// account.
func (e *Env) Destination(signer util.Uint160) *ContractInvoker {
	return NewInvoker(e.DestinationLedger, e.Contracts.Destination, signer)
}

// OriginReader returns origin contract binding for reads.
func (e *Env) OriginReader() *rpcorigin.ContractReader {
	return rpcorigin.NewReader(ledger.NewActor(e.OriginLedger, util.Uint160{}), e.Contracts.Origin)
}

// DestinationReader returns destination contract binding for reads.
func (e *Env) DestinationReader() *rpcdestination.ContractReader {
	return rpcdestination.NewReader(ledger.NewActor(e.DestinationLedger, util.Uint160{}), e.Contracts.Destination)
}

// Bech32 renders account in the destination ledger format.
func Bech32(u util.Uint160) string {
	return address.Bech32(Prefix, u).String()
}

// Hex renders account in the origin ledger format.
func Hex(u util.Uint160) string {
	return address.Hex(u).String()
}

// OriginBalance returns origin token balance of the account.
func (e *Env) OriginBalance(t testing.TB, acc util.Uint160) int64 {
	b, err := e.OriginReader().BalanceOf(acc)
	require.NoError(t, err)
	return b.Int64()
}

// DestinationBalance returns destination token balance of the account.
func (e *Env) DestinationBalance(t testing.TB, acc util.Uint160) int64 {
	b, err := e.DestinationReader().Balance(Bech32(acc))
	require.NoError(t, err)
	return b.Int64()
}

// OriginSupply returns origin token total supply.
func (e *Env) OriginSupply(t testing.TB) int64 {
	s, err := e.OriginReader().TotalSupply()
	require.NoError(t, err)
	return s.Int64()
}

// DestinationSupply returns destination token total supply.
func (e *Env) DestinationSupply(t testing.TB) int64 {
	s, err := e.DestinationReader().TotalSupply()
	require.NoError(t, err)
	return s.Int64()
}

// Amount is a shortcut for destination message amounts.
func Amount(v uint64) destination.Uint128 {
	return destination.Uint128FromUint64(v)
}
