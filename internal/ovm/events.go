package ovm

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"ovmscope/internal/roles"
)

// CreatedEvent is a decoded CreateObolValidatorManager log.
type CreatedEvent struct {
	OVM                common.Address
	Owner              common.Address
	Beneficiary        common.Address
	RewardRecipient    common.Address
	PrincipalThreshold uint64
	BlockNumber        uint64
}

// RolesUpdatedEvent is a decoded RolesUpdated log.
type RolesUpdatedEvent struct {
	User        common.Address
	Roles       *big.Int
	BlockNumber uint64
}

func createdTopic() (common.Hash, error) {
	parsed, err := FactoryABI()
	if err != nil {
		return common.Hash{}, err
	}
	return parsed.Events[eventCreated].ID, nil
}

func rolesUpdatedTopic() (common.Hash, error) {
	parsed, err := ManagerABI()
	if err != nil {
		return common.Hash{}, err
	}
	return parsed.Events[eventRolesUpdated].ID, nil
}

// DecodeCreated decodes a factory creation log. Only the indexed fields are required;
// a malformed data section leaves the non-indexed fields zero.
func DecodeCreated(log types.Log) (CreatedEvent, error) {
	parsed, err := FactoryABI()
	if err != nil {
		return CreatedEvent{}, err
	}
	event := parsed.Events[eventCreated]
	if len(log.Topics) == 0 || log.Topics[0] != event.ID {
		return CreatedEvent{}, fmt.Errorf("not a %s log", eventCreated)
	}

	var indexed struct {
		Ovm   common.Address
		Owner common.Address
	}
	if err := parseIndexed(event, log.Topics, &indexed); err != nil {
		return CreatedEvent{}, err
	}

	out := CreatedEvent{
		OVM:         indexed.Ovm,
		Owner:       indexed.Owner,
		BlockNumber: log.BlockNumber,
	}

	values, err := event.Inputs.NonIndexed().Unpack(log.Data)
	if err == nil && len(values) == 3 {
		out.Beneficiary, _ = asAddress(values[0])
		out.RewardRecipient, _ = asAddress(values[1])
		if threshold, err := asBigInt(values[2]); err == nil {
			out.PrincipalThreshold = threshold.Uint64()
		}
	}
	return out, nil
}

// DecodeRolesUpdated decodes an OVM RolesUpdated log. Both fields are indexed.
func DecodeRolesUpdated(log types.Log) (RolesUpdatedEvent, error) {
	parsed, err := ManagerABI()
	if err != nil {
		return RolesUpdatedEvent{}, err
	}
	event := parsed.Events[eventRolesUpdated]
	if len(log.Topics) == 0 || log.Topics[0] != event.ID {
		return RolesUpdatedEvent{}, fmt.Errorf("not a %s log", eventRolesUpdated)
	}

	var indexed struct {
		User  common.Address
		Roles *big.Int
	}
	if err := parseIndexed(event, log.Topics, &indexed); err != nil {
		return RolesUpdatedEvent{}, err
	}

	return RolesUpdatedEvent{
		User:        indexed.User,
		Roles:       indexed.Roles,
		BlockNumber: log.BlockNumber,
	}, nil
}

// Describe names a factory or OVM log and renders its decoded fields.
func Describe(log types.Log) (string, map[string]string, bool) {
	if ev, err := DecodeCreated(log); err == nil {
		return eventCreated, map[string]string{
			"ovm":                ev.OVM.Hex(),
			"owner":              ev.Owner.Hex(),
			"beneficiary":        ev.Beneficiary.Hex(),
			"rewardRecipient":    ev.RewardRecipient.Hex(),
			"principalThreshold": strconv.FormatUint(ev.PrincipalThreshold, 10),
		}, true
	}
	if ev, err := DecodeRolesUpdated(log); err == nil {
		return eventRolesUpdated, map[string]string{
			"user":       ev.User.Hex(),
			"roles":      strings.Join(roles.Decode(ev.Roles).Names(), ","),
			"rolesValue": ev.Roles.String(),
		}, true
	}
	return "", nil, false
}

func parseIndexed(event abi.Event, topics []common.Hash, out interface{}) error {
	indexed := indexedArguments(event.Inputs)
	if len(topics) != len(indexed)+1 {
		return fmt.Errorf("%s: expected %d topics, got %d", event.Name, len(indexed)+1, len(topics))
	}
	if err := abi.ParseTopics(out, indexed, topics[1:]); err != nil {
		return fmt.Errorf("%s: parse topics: %w", event.Name, err)
	}
	return nil
}

func indexedArguments(args abi.Arguments) abi.Arguments {
	indexed := make(abi.Arguments, 0, len(args))
	for _, arg := range args {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	return indexed
}
