package ovm

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"ovmscope/internal/config"
	"ovmscope/internal/indexer"
	"ovmscope/internal/model"
)

// Discovery answers questions about OVMs created by a network's factory.
type Discovery struct {
	scanner *indexer.Scanner
	network config.Network
	logger  *zap.Logger
}

// NewDiscovery scans the factory of network through scanner.
func NewDiscovery(scanner *indexer.Scanner, network config.Network, logger *zap.Logger) *Discovery {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Discovery{scanner: scanner, network: network, logger: logger}
}

func (d *Discovery) query() (indexer.Query, error) {
	topic, err := createdTopic()
	if err != nil {
		return indexer.Query{}, fmt.Errorf("parse factory abi: %w", err)
	}
	return indexer.Query{
		Addresses: []common.Address{d.network.FactoryAddress},
		Topic0:    []common.Hash{topic},
		FromBlock: d.network.DeploymentBlock,
	}, nil
}

// CheckMembership reports whether candidate was deployed by the factory.
// A scan failure is logged and reported as not a member.
func (d *Discovery) CheckMembership(ctx context.Context, candidate common.Address) model.Membership {
	m, err := d.CheckMembershipStrict(ctx, candidate)
	if err != nil {
		d.logger.Error("factory log query failed, reporting not an OVM",
			zap.String("network", d.network.Name),
			zap.String("address", candidate.Hex()),
			zap.Error(err),
		)
		return model.Membership{IsOVM: false}
	}
	return m
}

// CheckMembershipStrict is CheckMembership with failures surfaced, so callers
// can tell "not found" from "could not determine".
func (d *Discovery) CheckMembershipStrict(ctx context.Context, candidate common.Address) (model.Membership, error) {
	q, err := d.query()
	if err != nil {
		return model.Membership{}, err
	}

	var found *uint64
	err = d.scanner.ScanEach(ctx, q, func(logs []types.Log) (bool, error) {
		for _, log := range logs {
			ev, err := DecodeCreated(log)
			if err != nil {
				d.logger.Debug("skip undecodable factory log", zap.Uint64("block", log.BlockNumber), zap.Error(err))
				continue
			}
			if indexer.SameAddress(ev.OVM.Hex(), candidate.Hex()) {
				block := log.BlockNumber
				found = &block
				return true, nil
			}
		}
		return false, nil
	})
	if err != nil {
		return model.Membership{}, fmt.Errorf("scan factory logs: %w", err)
	}

	if found == nil {
		return model.Membership{IsOVM: false}, nil
	}
	return model.Membership{IsOVM: true, DeploymentBlock: found}, nil
}

// ListDeployments returns every factory deployment in chain order.
func (d *Discovery) ListDeployments(ctx context.Context) ([]model.Deployment, error) {
	q, err := d.query()
	if err != nil {
		return nil, err
	}

	logs, err := d.scanner.Scan(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("scan factory logs: %w", err)
	}

	deployments := make([]model.Deployment, 0, len(logs))
	for _, log := range logs {
		ev, err := DecodeCreated(log)
		if err != nil {
			d.logger.Debug("skip undecodable factory log", zap.Uint64("block", log.BlockNumber), zap.Error(err))
			continue
		}
		deployments = append(deployments, model.Deployment{
			Address:     ev.OVM.Hex(),
			Owner:       ev.Owner.Hex(),
			BlockNumber: log.BlockNumber,
		})
	}
	return deployments, nil
}
