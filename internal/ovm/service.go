package ovm

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"ovmscope/internal/config"
	"ovmscope/internal/errs"
	"ovmscope/internal/indexer"
	"ovmscope/internal/model"
)

// Service bundles the read operations of one network behind a single backend.
type Service struct {
	backend   Backend
	scanner   *indexer.Scanner
	network   config.Network
	discovery *Discovery
	roles     *RoleAggregator
	logger    *zap.Logger
}

// NewService builds a Service. span is the log window size; zero uses indexer.MaxBlockRange.
func NewService(backend Backend, network config.Network, span uint64, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	scanner := indexer.NewScanner(backend, span, logger)
	return &Service{
		backend:   backend,
		scanner:   scanner,
		network:   network,
		discovery: NewDiscovery(scanner, network, logger),
		roles:     NewRoleAggregator(backend, scanner, logger),
		logger:    logger,
	}
}

// Network returns the network the service reads from.
func (s *Service) Network() config.Network {
	return s.network
}

// IsDeployedByFactory reports membership, degrading any failure to false.
func (s *Service) IsDeployedByFactory(ctx context.Context, addr common.Address) model.Membership {
	return s.discovery.CheckMembership(ctx, addr)
}

// IsDeployedByFactoryStrict reports membership and surfaces scan failures.
func (s *Service) IsDeployedByFactoryStrict(ctx context.Context, addr common.Address) (model.Membership, error) {
	return s.discovery.CheckMembershipStrict(ctx, addr)
}

// ListDeployments returns every factory deployment in chain order.
func (s *Service) ListDeployments(ctx context.Context) ([]model.Deployment, error) {
	return s.discovery.ListDeployments(ctx)
}

// GetRoles lists role holders of ovmAddr, or only target when it is set.
func (s *Service) GetRoles(ctx context.Context, ovmAddr common.Address, target *common.Address) ([]model.RoleRecord, error) {
	return s.roles.CollectRoles(ctx, ovmAddr, target)
}

// ReadState reads the current contract state of ovmAddr.
func (s *Service) ReadState(ctx context.Context, ovmAddr common.Address) (model.State, error) {
	return ReadState(ctx, s.backend, ovmAddr)
}

// Logs scans raw logs matching q up to the latest block.
func (s *Service) Logs(ctx context.Context, q indexer.Query) ([]types.Log, error) {
	return s.scanner.Scan(ctx, q)
}

// RequireOVM fails with a validation error unless addr was deployed by the factory.
func (s *Service) RequireOVM(ctx context.Context, addr common.Address) error {
	if s.IsDeployedByFactory(ctx, addr).IsOVM {
		return nil
	}
	return errs.Validation("Address %s is not an Obol Validator Manager contract", addr.Hex())
}
