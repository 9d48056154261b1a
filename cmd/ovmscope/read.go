package main

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ovmscope/internal/config"
	"ovmscope/internal/indexer"
	"ovmscope/internal/model"
	"ovmscope/internal/ovm"
)

type queryResult struct {
	Address         string             `json:"address"`
	IsOVM           bool               `json:"isOVM"`
	Network         string             `json:"network,omitempty"`
	DeployedAtBlock *uint64            `json:"deployedAtBlock,omitempty"`
	State           *model.State       `json:"state,omitempty"`
	Roles           []model.RoleRecord `json:"roles,omitempty"`
	LaunchpadURL    string             `json:"launchpadUrl,omitempty"`
	Message         string             `json:"message,omitempty"`
}

type listedDeployment struct {
	model.Deployment
	DeployedAt   string `json:"deployedAt"`
	LaunchpadURL string `json:"launchpadUrl"`
}

type listResult struct {
	Network   string             `json:"network"`
	TotalOVMs int                `json:"totalOVMs"`
	OVMs      []listedDeployment `json:"ovms"`
}

type rolesResult struct {
	Address string             `json:"address"`
	Network string             `json:"network"`
	Roles   []model.RoleRecord `json:"roles"`
}

func launchpadURL(network config.Network, addr string) string {
	return fmt.Sprintf("%s/cluster/list?search=%s", network.LaunchpadURL, addr)
}

func targetFlag(cmd *cobra.Command) (*common.Address, error) {
	raw, _ := cmd.Flags().GetString("target")
	if raw == "" {
		return nil, nil
	}
	addr, err := indexer.ParseAddress(raw)
	if err != nil {
		return nil, err
	}
	return &addr, nil
}

func newQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <address>",
		Short: "Check an address against the factory and read its state and roles",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			addr, err := indexer.ParseAddress(args[0])
			if err != nil {
				return err
			}
			target, err := targetFlag(cmd)
			if err != nil {
				return err
			}
			strict, _ := cmd.Flags().GetBool("strict")

			ctx, cancel := commandContext(cmd)
			defer cancel()

			svc, closeClient, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer closeClient()

			membership := svc.IsDeployedByFactory(ctx, addr)
			if strict {
				membership, err = svc.IsDeployedByFactoryStrict(ctx, addr)
				if err != nil {
					return fmt.Errorf("query OVM: %w", err)
				}
			}
			if !membership.IsOVM {
				return render(cmd, a.cfg.Format, queryResult{
					Address: addr.Hex(),
					IsOVM:   false,
					Message: "This address is not an Obol Validator Manager contract",
				})
			}

			state, err := svc.ReadState(ctx, addr)
			if err != nil {
				return fmt.Errorf("query OVM: %w", err)
			}
			records, err := svc.GetRoles(ctx, addr, target)
			if err != nil {
				return fmt.Errorf("query OVM: %w", err)
			}

			return render(cmd, a.cfg.Format, queryResult{
				Address:         addr.Hex(),
				IsOVM:           true,
				Network:         a.network.Name,
				DeployedAtBlock: membership.DeploymentBlock,
				State:           &state,
				Roles:           records,
				LaunchpadURL:    launchpadURL(a.network, addr.Hex()),
			})
		},
	}
	cmd.Flags().String("target", "", "only read roles for this address")
	cmd.Flags().Bool("strict", false, "fail instead of reporting isOVM=false when the factory scan errors")
	return cmd
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every OVM deployed by the network's factory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			ctx, cancel := commandContext(cmd)
			defer cancel()

			svc, closeClient, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer closeClient()

			deployments, err := svc.ListDeployments(ctx)
			if err != nil {
				return fmt.Errorf("list OVMs: %w", err)
			}

			sink, closeSink, err := a.sink(ctx)
			if err != nil {
				return err
			}
			defer closeSink()
			if sink != nil {
				if err := sink.PutDeployments(ctx, a.network.Name, deployments); err != nil {
					return fmt.Errorf("export deployments: %w", err)
				}
				a.logger.Info("deployments exported", zap.Int("count", len(deployments)))
			}

			return render(cmd, a.cfg.Format, listResult{
				Network:   a.network.Name,
				TotalOVMs: len(deployments),
				OVMs: lo.Map(deployments, func(d model.Deployment, _ int) listedDeployment {
					return listedDeployment{
						Deployment:   d,
						DeployedAt:   fmt.Sprintf("Block %d", d.BlockNumber),
						LaunchpadURL: launchpadURL(a.network, d.Address),
					}
				}),
			})
		},
	}
}

func newRolesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roles <ovm>",
		Short: "Show role holders of an OVM",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			addr, err := indexer.ParseAddress(args[0])
			if err != nil {
				return err
			}
			target, err := targetFlag(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(cmd)
			defer cancel()

			svc, closeClient, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer closeClient()

			records, err := svc.GetRoles(ctx, addr, target)
			if err != nil {
				return fmt.Errorf("read roles: %w", err)
			}

			sink, closeSink, err := a.sink(ctx)
			if err != nil {
				return err
			}
			defer closeSink()
			if sink != nil && target == nil {
				if err := sink.PutRoleRecords(ctx, a.network.Name, addr.Hex(), records); err != nil {
					return fmt.Errorf("export roles: %w", err)
				}
				a.logger.Info("roles exported", zap.Int("count", len(records)))
			}

			return render(cmd, a.cfg.Format, rolesResult{
				Address: addr.Hex(),
				Network: a.network.Name,
				Roles:   records,
			})
		},
	}
	cmd.Flags().String("target", "", "only read roles for this address")
	return cmd
}

func newStateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "state <ovm>",
		Short: "Read the configuration and balances of an OVM",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			addr, err := indexer.ParseAddress(args[0])
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(cmd)
			defer cancel()

			svc, closeClient, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer closeClient()

			state, err := svc.ReadState(ctx, addr)
			if err != nil {
				return fmt.Errorf("read state: %w", err)
			}
			return render(cmd, a.cfg.Format, state)
		},
	}
}

func newNetworksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "networks",
		Short: "List configured networks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfgFile, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			registry, err := config.NewRegistry(cfg.Networks)
			if err != nil {
				return err
			}

			networks := make([]config.Network, 0, len(registry.Names()))
			for _, name := range registry.Names() {
				n, err := registry.Lookup(name, "")
				if err != nil {
					return err
				}
				networks = append(networks, n)
			}
			return render(cmd, cfg.Format, networks)
		},
	}
}

func newEventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Print raw logs with factory and OVM events decoded",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			rawAddresses, _ := cmd.Flags().GetStringSlice("address")
			rawTopics, _ := cmd.Flags().GetStringSlice("topic0")
			from, _ := cmd.Flags().GetUint64("from")

			addresses, err := indexer.ParseAddresses(rawAddresses)
			if err != nil {
				return err
			}
			if len(addresses) == 0 {
				addresses = []common.Address{a.network.FactoryAddress}
				if !cmd.Flags().Changed("from") {
					from = a.network.DeploymentBlock
				}
			}
			topic0, err := indexer.ParseTopic0(rawTopics)
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(cmd)
			defer cancel()

			svc, closeClient, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer closeClient()

			logs, err := svc.Logs(ctx, indexer.Query{Addresses: addresses, Topic0: topic0, FromBlock: from})
			if err != nil {
				return fmt.Errorf("scan logs: %w", err)
			}

			records := make([]model.LogRecord, 0, len(logs))
			for _, log := range logs {
				records = append(records, indexer.BuildLogRecord(a.network.ChainID, log, ovm.Describe))
			}
			a.logger.Info("events scanned", zap.Int("logs", len(records)), zap.Uint64("from", from))
			return render(cmd, a.cfg.Format, records)
		},
	}
	cmd.Flags().StringSlice("address", nil, "emitting contracts (comma-separated), defaults to the factory")
	cmd.Flags().StringSlice("topic0", nil, "topic0 filters (comma-separated)")
	cmd.Flags().Uint64("from", 0, "first block to scan")
	return cmd
}
