package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tendermint/tendermint/libs/log"
	"golang.org/x/sync/errgroup"

	transfertypes "github.com/ComposableFi/centauri/modules/apps/transfer/types"
	clienttypes "github.com/ComposableFi/centauri/modules/core/02-client/types"
	channeltypes "github.com/ComposableFi/centauri/modules/core/04-channel/types"
	"github.com/ComposableFi/centauri/relayer"
	"github.com/ComposableFi/centauri/relayer/chains/simulated"
)

const flagExit = "exit"

// NewLocalnetCmd returns the command running two local chains connected by a
// relayer.
func NewLocalnetCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "localnet",
		Short: "Run two local chains, relay between them and send a transfer",
		Long: `Run two parachains of simulated relay chains, each tracking the other with
the light client of its configuration. A relayer opens a transfer channel
between them and relays a demo transfer from the first to the second chain.
The network runs until interrupted, or until the transfer is received with --exit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ParseConfig(v)
			if err != nil {
				return err
			}
			if err := cfg.ValidateBasic(); err != nil {
				return errors.Wrap(err, "invalid configuration")
			}
			logger, err := newLogger(cfg.LogLevel)
			if err != nil {
				return err
			}
			exit, err := cmd.Flags().GetBool(flagExit)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runLocalnet(ctx, cfg, logger, exit)
		},
	}
	cmd.Flags().Bool(flagExit, false, "exit once the demo transfer is received")
	return cmd
}

func runLocalnet(ctx context.Context, cfg Config, logger log.Logger, exit bool) error {
	chainA, err := simulated.NewChain(cfg.Chains[0].simulated(), logger)
	if err != nil {
		return errors.Wrapf(err, "failed to start %s", cfg.Chains[0].ChainID)
	}
	defer chainA.Close()
	chainB, err := simulated.NewChain(cfg.Chains[1].simulated(), logger)
	if err != nil {
		return errors.Wrapf(err, "failed to start %s", cfg.Chains[1].ChainID)
	}
	defer chainB.Close()
	if err := simulated.Connect(chainA, chainB); err != nil {
		return errors.Wrap(err, "failed to create clients")
	}
	logger.Info("created clients", chainA.Name(), chainA.ClientID(), chainB.Name(), chainB.ClientID())

	metrics := relayer.NopMetrics()
	if cfg.Metrics.Enabled {
		metrics = relayer.PrometheusMetrics(cfg.Metrics.Namespace)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return chainA.Run(ctx, cfg.BlockInterval) })
	g.Go(func() error { return chainB.Run(ctx, cfg.BlockInterval) })
	g.Go(func() error {
		return relayer.Relay(ctx, chainA, chainB,
			relayer.WithLogger(logger),
			relayer.WithMetrics(metrics),
			relayer.WithDedupeExpiry(cfg.Relayer.DedupeExpiry),
		)
	})
	if cfg.Metrics.Enabled {
		g.Go(func() error { return serveMetrics(ctx, cfg.Metrics.ListenAddr, logger) })
	}
	g.Go(func() error {
		if err := demoTransfer(ctx, cfg, chainA, chainB, logger); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if exit {
			cancel()
		}
		return nil
	})
	return g.Wait()
}

// demoTransfer opens a transfer channel and sends the configured amount of
// the native token of a to b.
func demoTransfer(ctx context.Context, cfg Config, a, b *simulated.Chain, logger log.Logger) error {
	channelA, channelB, err := simulated.OpenChannel(
		ctx, a, b, transfertypes.PortID, transfertypes.Version, channeltypes.UNORDERED, cfg.BlockInterval,
	)
	if err != nil {
		return errors.Wrap(err, "failed to open transfer channel")
	}
	logger.Info("opened transfer channel", a.Name(), channelA, b.Name(), channelB)

	amount, ok := sdk.NewIntFromString(cfg.Transfer.Amount)
	if !ok {
		return errors.Errorf("invalid transfer amount %s", cfg.Transfer.Amount)
	}
	height, _, err := b.QueryLatestHeight(ctx)
	if err != nil {
		return err
	}
	timeoutHeight := clienttypes.NewHeight(height.RevisionNumber, height.RevisionHeight+cfg.Transfer.TimeoutBlocks)

	denom := simulated.DefaultConfig(a.Name(), 0).NativeDenom
	sender, receiver := a.Accounts()[0], b.Accounts()[0]
	msg := transfertypes.NewMsgTransfer(
		transfertypes.PortID, channelA, denom, amount, sender.String(), receiver.String(), timeoutHeight, 0, "",
	)
	res, err := a.Deliver(msg)
	if err != nil {
		return errors.Wrap(err, "failed to send transfer")
	}
	logger.Info("sent transfer", "sequence", res[0].Sequence, "amount", amount, "denom", denom, "timeout_height", timeoutHeight)

	voucher := transfertypes.GetPrefixedDenom(transfertypes.PortID, channelB, denom)
	start := time.Now()
	if err := simulated.Await(ctx, cfg.BlockInterval, func() bool {
		return b.Balance(receiver, voucher).GTE(amount)
	}); err != nil {
		return err
	}
	logger.Info("received transfer", "receiver", receiver, "denom", voucher, "elapsed", time.Since(start))
	return nil
}

func serveMetrics(ctx context.Context, addr string, logger log.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to stop metrics server", "err", err)
		}
	}()

	logger.Info("serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "metrics server")
	}
	return nil
}
