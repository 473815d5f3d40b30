package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/tokenbridge-contract/address"
	"github.com/nspcc-dev/tokenbridge-contract/config"
	"github.com/nspcc-dev/tokenbridge-contract/deploy"
	"github.com/nspcc-dev/tokenbridge-contract/ledger"
	"github.com/nspcc-dev/tokenbridge-contract/relay"
	rpcdestination "github.com/nspcc-dev/tokenbridge-contract/rpc/destination"
	rpcorigin "github.com/nspcc-dev/tokenbridge-contract/rpc/origin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Deploy bridge into local ledgers and move tokens back and forth",
	Long: `Creates both ledgers in memory, deploys and pairs bridge contracts, starts
the relayer and sends tokens of the operator to the destination ledger and
back, printing balances after every step.`,
	Args: cobra.NoArgs,
	RunE: runSimulate,
}

var (
	toDestinationFlag uint64
	toOriginFlag      uint64
	timeoutFlag       time.Duration
)

func init() {
	simulateCmd.Flags().Uint64Var(&toDestinationFlag, "to-destination", 1000, "amount sent from the origin ledger")
	simulateCmd.Flags().Uint64Var(&toOriginFlag, "to-origin", 1000, "amount sent back from the destination ledger")
	simulateCmd.Flags().DurationVar(&timeoutFlag, "timeout", 10*time.Second, "time to wait for every relayed transfer")
}

type simulation struct {
	out      *tabwriter.Writer
	operator util.Uint160
	prefix   string

	origin      *rpcorigin.Contract
	destination *rpcdestination.Contract
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	var operator util.Uint160
	if _, err := rand.Read(operator[:]); err != nil {
		return fmt.Errorf("generate operator account: %w", err)
	}

	originLedger := ledger.New(cfg.Origin.Name, ledger.HexFormat, log)
	destinationLedger := ledger.New(cfg.Destination.Name, ledger.Bech32Format(cfg.Destination.Prefix), log)

	supply, err := cfg.Token.Supply()
	if err != nil {
		return err
	}

	contracts, err := deploy.Deploy(ctx, deploy.Prm{
		Logger: log,
		Origin: deploy.OriginPrm{
			Ledger:        originLedger,
			Operator:      operator,
			Name:          cfg.Token.Name,
			Symbol:        cfg.Token.Symbol,
			InitialSupply: supply,
		},
		Destination: deploy.DestinationPrm{
			Ledger:   destinationLedger,
			Operator: operator,
			Name:     cfg.Token.CW20Name,
			Symbol:   cfg.Token.CW20Symbol,
			Decimals: cfg.Token.Decimals,
		},
	})
	if err != nil {
		return err
	}

	journalDir, err := os.MkdirTemp("", "bridge-simulate")
	if err != nil {
		return fmt.Errorf("create journal dir: %w", err)
	}
	defer os.RemoveAll(journalDir)

	journal, err := relay.OpenJournal(filepath.Join(journalDir, filepath.Base(cfg.Relayer.Journal)))
	if err != nil {
		return err
	}
	defer journal.Close()

	relayer, err := relay.New(relay.Config{
		Logger:      log,
		Origin:      relay.Side{Ledger: originLedger, Contract: contracts.Origin},
		Destination: relay.Side{Ledger: destinationLedger, Contract: contracts.Destination},
		Journal:     journal,
		Retry: relay.Retry{
			InitialInterval: cfg.Relayer.Retry.InitialInterval,
			MaxInterval:     cfg.Relayer.Retry.MaxInterval,
			MaxElapsedTime:  cfg.Relayer.Retry.MaxElapsedTime,
		},
		BufferSize: cfg.Relayer.BufferSize,
	})
	if err != nil {
		return err
	}

	relayerDone := make(chan error, 1)
	go func() { relayerDone <- relayer.Run(ctx) }()
	defer func() {
		cancel()
		if err := <-relayerDone; err != nil && !errors.Is(err, context.Canceled) {
			log.Error("relayer failed", zap.Error(err))
		}
	}()

	s := &simulation{
		out:         tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0),
		operator:    operator,
		prefix:      cfg.Destination.Prefix,
		origin:      rpcorigin.New(ledger.NewActor(originLedger, operator), contracts.Origin),
		destination: rpcdestination.New(ledger.NewActor(destinationLedger, operator), contracts.Destination),
	}

	fmt.Fprintf(s.out, "STEP\tORIGIN (%s)\tDESTINATION (%s)\tTOTAL SUPPLY\n",
		address.Hex(operator), address.Bech32(s.prefix, operator))
	if err := s.report("deployed"); err != nil {
		return err
	}

	if toDestinationFlag > 0 {
		amount := new(big.Int).SetUint64(toDestinationFlag)
		if _, err := s.origin.SendToOtherLedger(ctx, address.Bech32(s.prefix, operator).String(), amount); err != nil {
			return fmt.Errorf("send to destination ledger: %w", err)
		}
		if err := s.waitDestination(ctx, amount); err != nil {
			return err
		}
		if err := s.report(fmt.Sprintf("sent %s to destination", amount)); err != nil {
			return err
		}
	}

	if toOriginFlag > 0 {
		amount := new(big.Int).SetUint64(toOriginFlag)

		before, err := s.origin.BalanceOf(operator)
		if err != nil {
			return err
		}
		if _, err := s.destination.SendToEvm(ctx, address.Hex(operator).String(), amount); err != nil {
			return fmt.Errorf("send to origin ledger: %w", err)
		}
		if err := s.waitOrigin(ctx, new(big.Int).Add(before, amount)); err != nil {
			return err
		}
		if err := s.report(fmt.Sprintf("sent %s to origin", amount)); err != nil {
			return err
		}
	}

	return s.out.Flush()
}

func (s *simulation) report(step string) error {
	originBalance, err := s.origin.BalanceOf(s.operator)
	if err != nil {
		return fmt.Errorf("get origin balance: %w", err)
	}
	destinationBalance, err := s.destination.Balance(address.Bech32(s.prefix, s.operator).String())
	if err != nil {
		return fmt.Errorf("get destination balance: %w", err)
	}
	originSupply, err := s.origin.TotalSupply()
	if err != nil {
		return fmt.Errorf("get origin supply: %w", err)
	}
	destinationSupply, err := s.destination.TotalSupply()
	if err != nil {
		return fmt.Errorf("get destination supply: %w", err)
	}

	fmt.Fprintf(s.out, "%s\t%s\t%s\t%s\n", step, originBalance, destinationBalance,
		new(big.Int).Add(originSupply, destinationSupply))
	return nil
}

func (s *simulation) waitDestination(ctx context.Context, expected *big.Int) error {
	return wait(ctx, "destination", func() (*big.Int, error) {
		return s.destination.Balance(address.Bech32(s.prefix, s.operator).String())
	}, expected)
}

func (s *simulation) waitOrigin(ctx context.Context, expected *big.Int) error {
	return wait(ctx, "origin", func() (*big.Int, error) {
		return s.origin.BalanceOf(s.operator)
	}, expected)
}

// wait polls balance until it reaches expected value.
func wait(ctx context.Context, name string, balance func() (*big.Int, error), expected *big.Int) error {
	ctx, cancel := context.WithTimeout(ctx, timeoutFlag)
	defer cancel()

	err := backoff.Retry(func() error {
		b, err := balance()
		if err != nil {
			return backoff.Permanent(err)
		}
		if b.Cmp(expected) != 0 {
			return fmt.Errorf("%s balance is %s, expected %s", name, b, expected)
		}
		return nil
	}, backoff.WithContext(backoff.NewConstantBackOff(50*time.Millisecond), ctx))
	if err != nil {
		return fmt.Errorf("transfer is not relayed: %w", err)
	}
	return nil
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	lvl, err := cfg.LogLevel()
	if err != nil {
		return nil, err
	}

	c := zap.NewProductionConfig()
	c.Level = zap.NewAtomicLevelAt(lvl)
	c.Encoding = "console"
	c.OutputPaths = []string{"stderr"}
	c.ErrorOutputPaths = []string{"stderr"}
	return c.Build()
}
