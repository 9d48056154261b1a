package main

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"ovmscope/internal/config"
	"ovmscope/internal/errs"
	"ovmscope/internal/indexer"
	"ovmscope/internal/model"
	"ovmscope/internal/ovm"
)

type planBuilder func(network config.Network) (model.TxPlan, error)

// runPlan prints the plan from build. When target is set the address must be a
// factory deployment; that check is the only RPC traffic a tx command makes.
func runPlan(cmd *cobra.Command, target *common.Address, build planBuilder) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	if target != nil {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		svc, closeClient, err := a.connect(ctx)
		if err != nil {
			return err
		}
		defer closeClient()

		if err := svc.RequireOVM(ctx, *target); err != nil {
			return err
		}
	}

	plan, err := build(a.network)
	if err != nil {
		return err
	}
	return render(cmd, a.cfg.Format, plan)
}

func addressFlag(cmd *cobra.Command, name string) (common.Address, error) {
	raw, _ := cmd.Flags().GetString(name)
	if raw == "" {
		return common.Address{}, errs.Validation("--%s is required", name)
	}
	return indexer.ParseAddress(raw)
}

func newDeployCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Prepare a factory transaction that deploys a new OVM",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			owner, err := addressFlag(cmd, "owner")
			if err != nil {
				return err
			}
			principal, err := addressFlag(cmd, "principal-recipient")
			if err != nil {
				return err
			}
			reward, err := addressFlag(cmd, "reward-recipient")
			if err != nil {
				return err
			}
			threshold, _ := cmd.Flags().GetUint64("principal-threshold")

			return runPlan(cmd, nil, func(network config.Network) (model.TxPlan, error) {
				return ovm.BuildDeploy(network, owner, principal, reward, threshold)
			})
		},
	}
	cmd.Flags().String("owner", "", "OVM owner address")
	cmd.Flags().String("principal-recipient", "", "address receiving principal")
	cmd.Flags().String("reward-recipient", "", "address receiving rewards")
	cmd.Flags().Uint64("principal-threshold", ovm.DefaultPrincipalThreshold, "principal threshold in gwei")
	return cmd
}

func newRoleChangeCmd(use, short string, build func(config.Network, common.Address, common.Address, []string) (model.TxPlan, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use + " <ovm>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ovmAddr, err := indexer.ParseAddress(args[0])
			if err != nil {
				return err
			}
			target, err := addressFlag(cmd, "target")
			if err != nil {
				return err
			}
			roleNames, _ := cmd.Flags().GetStringSlice("roles")

			return runPlan(cmd, &ovmAddr, func(network config.Network) (model.TxPlan, error) {
				return build(network, ovmAddr, target, roleNames)
			})
		},
	}
	cmd.Flags().String("target", "", "address whose roles change")
	cmd.Flags().StringSlice("roles", nil, "role names (comma-separated), e.g. WITHDRAWAL_ROLE,DEPOSIT_ROLE")
	return cmd
}

func newGrantRolesCmd() *cobra.Command {
	return newRoleChangeCmd("grant-roles", "Prepare a grantRoles transaction", ovm.BuildGrantRoles)
}

func newRevokeRolesCmd() *cobra.Command {
	return newRoleChangeCmd("revoke-roles", "Prepare a revokeRoles transaction", ovm.BuildRevokeRoles)
}

func newDistributeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "distribute <ovm>",
		Short: "Prepare a distributeFunds transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ovmAddr, err := indexer.ParseAddress(args[0])
			if err != nil {
				return err
			}
			return runPlan(cmd, &ovmAddr, func(network config.Network) (model.TxPlan, error) {
				return ovm.BuildDistribute(network, ovmAddr)
			})
		},
	}
}

func newRecipientCmd(use, short string, build func(config.Network, common.Address, common.Address) (model.TxPlan, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <ovm> <address>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ovmAddr, err := indexer.ParseAddress(args[0])
			if err != nil {
				return err
			}
			recipient, err := indexer.ParseAddress(args[1])
			if err != nil {
				return err
			}
			return runPlan(cmd, &ovmAddr, func(network config.Network) (model.TxPlan, error) {
				return build(network, ovmAddr, recipient)
			})
		},
	}
}

func newSetBeneficiaryCmd() *cobra.Command {
	return newRecipientCmd("set-beneficiary", "Prepare a setBeneficiary transaction", ovm.BuildSetBeneficiary)
}

func newSetRewardRecipientCmd() *cobra.Command {
	return newRecipientCmd("set-reward-recipient", "Prepare a setRewardRecipient transaction", ovm.BuildSetRewardRecipient)
}

func newWithdrawCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "withdraw <ovm>",
		Short: "Prepare an EIP-7002 withdraw transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ovmAddr, err := indexer.ParseAddress(args[0])
			if err != nil {
				return err
			}
			excess, err := addressFlag(cmd, "excess-fee-recipient")
			if err != nil {
				return err
			}
			pubkeys, _ := cmd.Flags().GetStringSlice("pubkeys")
			amounts, _ := cmd.Flags().GetStringSlice("amounts")
			maxFee, _ := cmd.Flags().GetString("max-fee")

			req := ovm.WithdrawRequest{
				Pubkeys:             pubkeys,
				Amounts:             amounts,
				MaxFeePerWithdrawal: maxFee,
				ExcessFeeRecipient:  excess,
			}
			return runPlan(cmd, &ovmAddr, func(network config.Network) (model.TxPlan, error) {
				return ovm.BuildWithdraw(network, ovmAddr, req)
			})
		},
	}
	cmd.Flags().StringSlice("pubkeys", nil, "validator pubkeys, 48 bytes hex each (comma-separated)")
	cmd.Flags().StringSlice("amounts", nil, "withdrawal amounts in gwei, 0 for a full exit (comma-separated)")
	cmd.Flags().String("max-fee", "", "max fee per withdrawal in wei")
	cmd.Flags().String("excess-fee-recipient", "", "address refunded with unused fees")
	return cmd
}
