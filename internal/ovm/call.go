package ovm

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"ovmscope/internal/indexer"
)

// Backend is the chain capability every OVM operation is given explicitly.
type Backend interface {
	indexer.LogSource
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

// readField performs an eth_call of method on target at the latest block.
func readField(ctx context.Context, backend Backend, target common.Address, parsed abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &target, Data: data}
	resp, err := backend.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("unpack %s: empty result", method)
	}
	return values, nil
}

func readAddress(ctx context.Context, backend Backend, target common.Address, method string) (common.Address, error) {
	parsed, err := ManagerABI()
	if err != nil {
		return common.Address{}, err
	}
	values, err := readField(ctx, backend, target, parsed, method)
	if err != nil {
		return common.Address{}, err
	}
	addr, err := asAddress(values[0])
	if err != nil {
		return common.Address{}, fmt.Errorf("%s: %w", method, err)
	}
	return addr, nil
}

func readBigInt(ctx context.Context, backend Backend, target common.Address, method string, args ...interface{}) (*big.Int, error) {
	parsed, err := ManagerABI()
	if err != nil {
		return nil, err
	}
	values, err := readField(ctx, backend, target, parsed, method, args...)
	if err != nil {
		return nil, err
	}
	v, err := asBigInt(values[0])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	return v, nil
}

func readString(ctx context.Context, backend Backend, target common.Address, method string) (string, error) {
	parsed, err := ManagerABI()
	if err != nil {
		return "", err
	}
	values, err := readField(ctx, backend, target, parsed, method)
	if err != nil {
		return "", err
	}
	s, ok := values[0].(string)
	if !ok {
		return "", fmt.Errorf("%s: unsupported string type %T", method, values[0])
	}
	return s, nil
}

// RolesOf reads the packed roles value for user.
func RolesOf(ctx context.Context, backend Backend, ovmAddr, user common.Address) (*big.Int, error) {
	return readBigInt(ctx, backend, ovmAddr, "rolesOf", user)
}

// Owner reads the OVM owner.
func Owner(ctx context.Context, backend Backend, ovmAddr common.Address) (common.Address, error) {
	return readAddress(ctx, backend, ovmAddr, "owner")
}

func asAddress(value interface{}) (common.Address, error) {
	switch v := value.(type) {
	case common.Address:
		return v, nil
	case *common.Address:
		return *v, nil
	default:
		return common.Address{}, fmt.Errorf("unsupported address type %T", value)
	}
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	case big.Int:
		return new(big.Int).Set(&v), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	default:
		return nil, fmt.Errorf("unsupported int type %T", value)
	}
}
