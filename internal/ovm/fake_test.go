package ovm

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// fakeChain answers log queries from a fixed set and contract calls by ABI selector.
type fakeChain struct {
	mu sync.Mutex

	latest    uint64
	logs      []types.Log
	filterErr error

	owner              common.Address
	principalRecipient common.Address
	rewardRecipient    common.Address
	threshold          uint64
	pending            *big.Int
	stake              *big.Int
	balance            *big.Int
	version            string

	roles    map[common.Address]*big.Int
	rolesErr map[common.Address]error
	callErr  map[string]error

	filterCalls  int
	rolesOfCalls []common.Address
}

func newFakeChain(owner common.Address) *fakeChain {
	return &fakeChain{
		latest:   1000,
		owner:    owner,
		pending:  new(big.Int),
		stake:    new(big.Int),
		balance:  new(big.Int),
		version:  "1.0.0",
		roles:    map[common.Address]*big.Int{},
		rolesErr: map[common.Address]error{},
		callErr:  map[string]error{},
	}
}

func (f *fakeChain) LatestBlockNumber(context.Context) (uint64, error) {
	return f.latest, nil
}

func (f *fakeChain) FilterLogs(_ context.Context, from, to uint64, addresses []common.Address, topic0 []common.Hash) ([]types.Log, error) {
	f.mu.Lock()
	f.filterCalls++
	f.mu.Unlock()
	if f.filterErr != nil {
		return nil, f.filterErr
	}

	var out []types.Log
	for _, log := range f.logs {
		if log.BlockNumber < from || log.BlockNumber > to {
			continue
		}
		if !containsAddress(addresses, log.Address) || !containsHash(topic0, log.Topics[0]) {
			continue
		}
		out = append(out, log)
	}
	return out, nil
}

func (f *fakeChain) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	parsed, err := ManagerABI()
	if err != nil {
		return nil, err
	}
	if len(msg.Data) < 4 {
		return nil, fmt.Errorf("short calldata")
	}
	method, err := parsed.MethodById(msg.Data[:4])
	if err != nil {
		return nil, err
	}

	if err := f.callErr[method.Name]; err != nil {
		return nil, err
	}

	switch method.Name {
	case "owner":
		return method.Outputs.Pack(f.owner)
	case "principalRecipient":
		return method.Outputs.Pack(f.principalRecipient)
	case "rewardRecipient":
		return method.Outputs.Pack(f.rewardRecipient)
	case "principalThreshold":
		return method.Outputs.Pack(f.threshold)
	case "fundsPendingWithdrawal":
		return method.Outputs.Pack(f.pending)
	case "amountOfPrincipalStake":
		return method.Outputs.Pack(f.stake)
	case "version":
		return method.Outputs.Pack(f.version)
	case "rolesOf":
		args, err := method.Inputs.Unpack(msg.Data[4:])
		if err != nil {
			return nil, err
		}
		user := args[0].(common.Address)
		f.mu.Lock()
		f.rolesOfCalls = append(f.rolesOfCalls, user)
		f.mu.Unlock()
		if err := f.rolesErr[user]; err != nil {
			return nil, err
		}
		value, ok := f.roles[user]
		if !ok {
			value = new(big.Int)
		}
		return method.Outputs.Pack(value)
	default:
		return nil, fmt.Errorf("unexpected call %s", method.Name)
	}
}

func (f *fakeChain) BalanceAt(context.Context, common.Address, *big.Int) (*big.Int, error) {
	return f.balance, nil
}

func (f *fakeChain) rolesOfCalled(addr common.Address) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.rolesOfCalls {
		if a == addr {
			return true
		}
	}
	return false
}

func containsAddress(set []common.Address, a common.Address) bool {
	if len(set) == 0 {
		return true
	}
	for _, s := range set {
		if s == a {
			return true
		}
	}
	return false
}

func containsHash(set []common.Hash, h common.Hash) bool {
	if len(set) == 0 {
		return true
	}
	for _, s := range set {
		if s == h {
			return true
		}
	}
	return false
}

func createdLog(t *testing.T, factory, ovmAddr, owner common.Address, block uint64) types.Log {
	t.Helper()
	parsed, err := FactoryABI()
	if err != nil {
		t.Fatalf("factory abi: %v", err)
	}
	event := parsed.Events[eventCreated]
	data, err := event.Inputs.NonIndexed().Pack(owner, owner, uint64(16_000_000_000))
	if err != nil {
		t.Fatalf("pack created data: %v", err)
	}
	return types.Log{
		Address:     factory,
		Topics:      []common.Hash{event.ID, common.BytesToHash(ovmAddr.Bytes()), common.BytesToHash(owner.Bytes())},
		Data:        data,
		BlockNumber: block,
	}
}

func rolesLog(t *testing.T, ovmAddr, user common.Address, value uint64, block uint64) types.Log {
	t.Helper()
	topic, err := rolesUpdatedTopic()
	if err != nil {
		t.Fatalf("manager abi: %v", err)
	}
	return types.Log{
		Address:     ovmAddr,
		Topics:      []common.Hash{topic, common.BytesToHash(user.Bytes()), common.BigToHash(new(big.Int).SetUint64(value))},
		BlockNumber: block,
	}
}
