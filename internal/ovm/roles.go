package ovm

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ovmscope/internal/indexer"
	"ovmscope/internal/model"
	"ovmscope/internal/roles"
)

// RoleAggregator reconstructs who holds roles on an OVM.
type RoleAggregator struct {
	backend Backend
	scanner *indexer.Scanner
	logger  *zap.Logger
}

// NewRoleAggregator reads rolesOf through backend and scans events through scanner.
func NewRoleAggregator(backend Backend, scanner *indexer.Scanner, logger *zap.Logger) *RoleAggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoleAggregator{backend: backend, scanner: scanner, logger: logger}
}

// CollectRoles returns role records for target, or for every address ever named in a
// RolesUpdated event plus the owner when target is nil.
func (a *RoleAggregator) CollectRoles(ctx context.Context, ovmAddr common.Address, target *common.Address) ([]model.RoleRecord, error) {
	if target != nil {
		value, err := RolesOf(ctx, a.backend, ovmAddr, *target)
		if err != nil {
			return nil, err
		}
		return []model.RoleRecord{newRoleRecord(*target, value)}, nil
	}

	users, err := a.discoverUsers(ctx, ovmAddr)
	if err != nil {
		return nil, err
	}

	records := make([]model.RoleRecord, len(users))
	g, gctx := errgroup.WithContext(ctx)
	for i, user := range users {
		g.Go(func() error {
			value, err := RolesOf(gctx, a.backend, ovmAddr, user)
			if err != nil {
				return fmt.Errorf("roles of %s: %w", user.Hex(), err)
			}
			records[i] = newRoleRecord(user, value)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	owner, err := Owner(ctx, a.backend, ovmAddr)
	if err != nil {
		return nil, err
	}

	for _, r := range records {
		if indexer.SameAddress(r.Address, owner.Hex()) {
			return records, nil
		}
	}

	ownerRecord := model.RoleRecord{
		Address:    owner.Hex(),
		Roles:      roles.DecodeUint64(roles.All),
		RolesValue: new(big.Int).SetUint64(roles.All),
		Implicit:   true,
	}
	return append([]model.RoleRecord{ownerRecord}, records...), nil
}

// discoverUsers returns each address named by a RolesUpdated event once, in first-seen order.
func (a *RoleAggregator) discoverUsers(ctx context.Context, ovmAddr common.Address) ([]common.Address, error) {
	topic, err := rolesUpdatedTopic()
	if err != nil {
		return nil, fmt.Errorf("parse manager abi: %w", err)
	}

	logs, err := a.scanner.Scan(ctx, indexer.Query{
		Addresses: []common.Address{ovmAddr},
		Topic0:    []common.Hash{topic},
		FromBlock: 0,
	})
	if err != nil {
		return nil, fmt.Errorf("scan role logs: %w", err)
	}

	seen := make(map[string]struct{}, len(logs))
	users := make([]common.Address, 0, len(logs))
	for _, log := range logs {
		user, ok := a.userOf(log)
		if !ok {
			continue
		}
		key := strings.ToLower(user.Hex())
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		users = append(users, user)
	}

	a.logger.Debug("role holders discovered", zap.String("ovm", ovmAddr.Hex()), zap.Int("events", len(logs)), zap.Int("addresses", len(users)))
	return users, nil
}

func (a *RoleAggregator) userOf(log types.Log) (common.Address, bool) {
	ev, err := DecodeRolesUpdated(log)
	if err != nil {
		a.logger.Debug("skip undecodable role log", zap.Uint64("block", log.BlockNumber), zap.Error(err))
		return common.Address{}, false
	}
	return ev.User, true
}

func newRoleRecord(addr common.Address, value *big.Int) model.RoleRecord {
	return model.RoleRecord{
		Address:    addr.Hex(),
		Roles:      roles.Decode(value),
		RolesValue: new(big.Int).Set(value),
	}
}
