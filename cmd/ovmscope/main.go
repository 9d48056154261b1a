package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"ovmscope/internal/chain"
	"ovmscope/internal/config"
	"ovmscope/internal/errs"
	"ovmscope/internal/ovm"
	"ovmscope/internal/storage"
	"ovmscope/internal/storage/postgres"
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		writeError(os.Stdout, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ovmscope",
		Short:         "Inspect Obol Validator Manager contracts and prepare their transactions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file path")
	flags.String("network", "mainnet", "network name (mainnet, hoodi, sepolia)")
	flags.String("rpc", "", "RPC URL, overrides the network default")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("format", config.FormatJSON, "output format (json, table)")
	flags.Duration("rpc-timeout", chain.DefaultTimeout, "per-call RPC timeout")
	flags.Uint("rpc-retries", chain.DefaultRetries, "RPC attempts per call")
	flags.String("out", "", "append list and roles results to this JSONL file")
	flags.String("pg-dsn", "", "export list and roles results to Postgres")

	root.AddCommand(
		newQueryCmd(),
		newListCmd(),
		newRolesCmd(),
		newStateCmd(),
		newNetworksCmd(),
		newEventsCmd(),
		newDeployCmd(),
		newGrantRolesCmd(),
		newRevokeRolesCmd(),
		newDistributeCmd(),
		newSetBeneficiaryCmd(),
		newSetRewardRecipientCmd(),
		newWithdrawCmd(),
	)
	return root
}

// app is the per-invocation state shared by every command.
type app struct {
	cfg     config.Config
	network config.Network
	logger  *zap.Logger
}

func setup(cmd *cobra.Command) (*app, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, errs.Config("log level: %v", err)
	}

	network, err := cfg.ResolveNetwork()
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, network: network, logger: logger}, nil
}

// connect dials the network RPC and builds the read service.
func (a *app) connect(ctx context.Context) (*ovm.Service, func(), error) {
	client, err := chain.NewClient(ctx, a.network.RPCURL, chain.Options{
		Timeout: a.cfg.RPCTimeout,
		Retries: a.cfg.RPCRetries,
		Logger:  a.logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connect rpc: %w", err)
	}

	if id, err := client.GetChainID(ctx); err != nil {
		a.logger.Warn("chain id check failed", zap.Error(err))
	} else if a.network.ChainID != 0 && id.Uint64() != a.network.ChainID {
		a.logger.Warn("rpc chain id does not match network",
			zap.String("network", a.network.Name),
			zap.Uint64("expected", a.network.ChainID),
			zap.String("got", id.String()),
		)
	}

	a.logger.Debug("connected",
		zap.String("network", a.network.Name),
		zap.String("rpc", a.network.RPCURL),
		zap.String("factory", a.network.FactoryAddress.Hex()),
	)
	return ovm.NewService(client, a.network, 0, a.logger), client.Close, nil
}

// sink returns the configured export sinks, or nil when none are set.
func (a *app) sink(ctx context.Context) (storage.Sink, func(), error) {
	var (
		sinks   storage.Multi
		closers []func()
	)
	if a.cfg.Out != "" {
		sinks = append(sinks, storage.NewJsonlStorage(a.cfg.Out))
	}
	if a.cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, a.cfg.PGDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			return nil, nil, err
		}
		sinks = append(sinks, store)
		closers = append(closers, store.Close)
	}

	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}
	if len(sinks) == 0 {
		return nil, closeAll, nil
	}
	return sinks, closeAll, nil
}

func (a *app) close() {
	_ = a.logger.Sync()
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
