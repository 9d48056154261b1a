package ovm

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"ovmscope/internal/model"
)

const (
	gweiDecimals  = 9
	etherDecimals = 18
)

// ReadState reads every presentation field of an OVM concurrently.
func ReadState(ctx context.Context, backend Backend, ovmAddr common.Address) (model.State, error) {
	var (
		owner, principalRecipient, rewardRecipient common.Address
		threshold, pending, stake, balance         *big.Int
		version                                    string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		owner, err = readAddress(gctx, backend, ovmAddr, "owner")
		return err
	})
	g.Go(func() (err error) {
		principalRecipient, err = readAddress(gctx, backend, ovmAddr, "principalRecipient")
		return err
	})
	g.Go(func() (err error) {
		rewardRecipient, err = readAddress(gctx, backend, ovmAddr, "rewardRecipient")
		return err
	})
	g.Go(func() (err error) {
		threshold, err = readBigInt(gctx, backend, ovmAddr, "principalThreshold")
		return err
	})
	g.Go(func() (err error) {
		pending, err = readBigInt(gctx, backend, ovmAddr, "fundsPendingWithdrawal")
		return err
	})
	g.Go(func() (err error) {
		stake, err = readBigInt(gctx, backend, ovmAddr, "amountOfPrincipalStake")
		return err
	})
	g.Go(func() (err error) {
		balance, err = backend.BalanceAt(gctx, ovmAddr, nil)
		if err != nil {
			return fmt.Errorf("balance: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		version, err = readString(gctx, backend, ovmAddr, "version")
		return err
	})
	if err := g.Wait(); err != nil {
		return model.State{}, err
	}

	return model.State{
		Owner:                  owner.Hex(),
		PrincipalRecipient:     principalRecipient.Hex(),
		RewardRecipient:        rewardRecipient.Hex(),
		PrincipalThreshold:     FormatGwei(threshold) + " Gwei",
		FundsPendingWithdrawal: FormatEther(pending) + " ETH",
		AmountOfPrincipalStake: FormatEther(stake) + " ETH",
		Balance:                FormatEther(balance) + " ETH",
		Version:                version,
		Raw: model.StateRaw{
			PrincipalThresholdGwei: threshold.Uint64(),
			FundsPendingWithdrawal: pending,
			AmountOfPrincipalStake: stake,
			Balance:                balance,
		},
	}, nil
}

// FormatEther scales wei to ether without trailing zeros.
func FormatEther(wei *big.Int) string {
	return scale(wei, etherDecimals)
}

// FormatGwei divides by 1e9. The principal threshold is displayed this way.
func FormatGwei(v *big.Int) string {
	return scale(v, gweiDecimals)
}

func scale(v *big.Int, decimals int32) string {
	if v == nil {
		return "0"
	}
	return decimal.NewFromBigInt(v, -decimals).String()
}
