package deploy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/tokenbridge-contract/address"
	"github.com/nspcc-dev/tokenbridge-contract/destination"
	"github.com/nspcc-dev/tokenbridge-contract/ledger"
	"github.com/nspcc-dev/tokenbridge-contract/origin"
	rpcdestination "github.com/nspcc-dev/tokenbridge-contract/rpc/destination"
	rpcorigin "github.com/nspcc-dev/tokenbridge-contract/rpc/origin"
	"go.uber.org/zap"
)

// Contract names the bridge contracts are deployed with.
const (
	OriginContractName      = "origin"
	DestinationContractName = "destination"
)

// ErrCounterpartMismatch is returned when a contract is already paired with
// some other contract.
var ErrCounterpartMismatch = errors.New("contract is paired with another counterpart")

// OriginPrm groups deployment parameters of the origin token contract.
type OriginPrm struct {
	// Account ledger to deploy the contract to.
	Ledger *ledger.Ledger

	// Account deploying and owning the contract, it receives initial supply.
	Operator util.Uint160

	Name          string
	Symbol        string
	InitialSupply *big.Int

	// Already deployed contract. New contract is deployed if it's zero.
	Contract util.Uint160
}

// DestinationPrm groups deployment parameters of the destination token
// contract.
type DestinationPrm struct {
	// Message-based ledger to deploy the contract to. Its address format
	// defines bech32 prefix used by both contracts.
	Ledger *ledger.Ledger

	// Account deploying and owning the contract.
	Operator util.Uint160

	Name     string
	Symbol   string
	Decimals uint8

	// Already deployed contract. New contract is deployed if it's zero.
	Contract util.Uint160
}

// Prm groups all parameters of the bridge deployment procedure.
type Prm struct {
	// Writes progress into the log.
	Logger *zap.Logger

	Origin      OriginPrm
	Destination DestinationPrm
}

// Result is a pair of deployed contracts.
type Result struct {
	Origin      util.Uint160
	Destination util.Uint160
}

// Deploy deploys missing bridge contracts and pairs them with each other.
//
// Deploy is idempotent: being called with already deployed contracts it only
// initializes sides that are not paired yet. It fails with
// ErrCounterpartMismatch if any side is paired with some other contract.
// Summary of stages:
//  1. origin contract deployment
//  2. destination contract deployment
//  3. origin contract initialization with the destination address
//  4. destination contract initialization with the origin address
func Deploy(ctx context.Context, prm Prm) (Result, error) {
	var res Result

	if prm.Origin.Ledger == nil || prm.Destination.Ledger == nil {
		return res, errors.New("both ledgers must be set")
	}

	log := prm.Logger
	if log == nil {
		log = zap.NewNop()
	}

	prefix := prm.Destination.Ledger.Format().Prefix
	if prefix == "" {
		return res, fmt.Errorf("destination ledger %s has no bech32 prefix", prm.Destination.Ledger.Name())
	}

	var err error

	res.Origin = prm.Origin.Contract
	if res.Origin.Equals(util.Uint160{}) {
		log.Info("deploying origin contract...")

		res.Origin, err = deployOrigin(ctx, prm.Origin, prefix)
		if err != nil {
			return res, fmt.Errorf("deploy origin contract: %w", err)
		}

		log.Info("origin contract successfully deployed", zap.Stringer("address", address.Hex(res.Origin)))
	}

	res.Destination = prm.Destination.Contract
	if res.Destination.Equals(util.Uint160{}) {
		log.Info("deploying destination contract...")

		res.Destination, err = deployDestination(ctx, prm.Destination, prefix)
		if err != nil {
			return res, fmt.Errorf("deploy destination contract: %w", err)
		}

		log.Info("destination contract successfully deployed", zap.Stringer("address", address.Bech32(prefix, res.Destination)))
	}

	originPeer := address.Bech32(prefix, res.Destination).String()
	oc := rpcorigin.New(ledger.NewActor(prm.Origin.Ledger, prm.Origin.Operator), res.Origin)

	err = initSide(ctx, log, "origin", originPeer, oc.Counterpart, func(ctx context.Context) error {
		_, err := oc.Initialize(ctx, originPeer)
		return err
	})
	if err != nil {
		return res, err
	}

	destinationPeer := address.Hex(res.Origin).String()
	dc := rpcdestination.New(ledger.NewActor(prm.Destination.Ledger, prm.Destination.Operator), res.Destination)

	err = initSide(ctx, log, "destination", destinationPeer, dc.Counterpart, func(ctx context.Context) error {
		_, err := dc.Initialize(ctx, destinationPeer)
		return err
	})
	if err != nil {
		return res, err
	}

	return res, nil
}

func deployOrigin(ctx context.Context, prm OriginPrm, prefix string) (util.Uint160, error) {
	supply := prm.InitialSupply
	if supply == nil {
		supply = new(big.Int)
	}

	h, _, err := prm.Ledger.Deploy(ctx, prm.Operator, OriginContractName, origin.New(prefix),
		prm.Operator, prm.Name, prm.Symbol, supply)
	return h, err
}

func deployDestination(ctx context.Context, prm DestinationPrm, prefix string) (util.Uint160, error) {
	msg, err := json.Marshal(destination.InstantiateMsg{
		Name:     prm.Name,
		Symbol:   prm.Symbol,
		Decimals: prm.Decimals,
	})
	if err != nil {
		return util.Uint160{}, fmt.Errorf("encode instantiate message: %w", err)
	}

	h, _, err := prm.Ledger.Deploy(ctx, prm.Operator, DestinationContractName, destination.New(prefix), msg)
	return h, err
}

// initSide pairs one contract unless it's already done.
func initSide(ctx context.Context, log *zap.Logger, side, peer string,
	current func() (string, error), initialize func(context.Context) error) error {
	set, err := current()
	if err != nil {
		return fmt.Errorf("get counterpart of %s contract: %w", side, err)
	}

	switch set {
	case peer:
		log.Info("contract is already paired, skip", zap.String("contract", side), zap.String("counterpart", peer))
		return nil
	case "":
	default:
		return fmt.Errorf("%w: %s contract counterpart is %s, expected %s", ErrCounterpartMismatch, side, set, peer)
	}

	log.Info("initializing contract...", zap.String("contract", side), zap.String("counterpart", peer))

	if err := initialize(ctx); err != nil {
		return fmt.Errorf("initialize %s contract: %w", side, err)
	}

	log.Info("contract successfully initialized", zap.String("contract", side))
	return nil
}
