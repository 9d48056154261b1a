package ovm

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/samber/lo"

	"ovmscope/internal/config"
	"ovmscope/internal/errs"
	"ovmscope/internal/model"
	"ovmscope/internal/roles"
)

// DefaultPrincipalThreshold is used by BuildDeploy when no threshold is given.
const DefaultPrincipalThreshold uint64 = 16

const pubkeyLength = 48

type castCall struct {
	to    common.Address
	sig   string
	args  []string
	value *big.Int
}

func (c castCall) command(rpcURL string) string {
	lines := []string{"cast send " + c.to.Hex(), strconv.Quote(c.sig)}
	if len(c.args) > 0 {
		lines = append(lines, c.args...)
	}
	if c.value != nil && c.value.Sign() > 0 {
		lines = append(lines, "--value "+c.value.String())
	}
	lines = append(lines, "--rpc-url "+rpcURL, "--private-key $PRIVATE_KEY")
	return strings.Join(lines, " \\\n  ")
}

func walletInstructions(to common.Address, data string, value *big.Int, extra ...string) string {
	amount := "3. Amount: 0 ETH"
	if value != nil && value.Sign() > 0 {
		amount = fmt.Sprintf("3. Amount: %s Wei (for withdrawal fees)", value.String())
	}
	steps := []string{
		"1. Open MetaMask and click 'Send'",
		"2. To: " + to.Hex(),
		amount,
		"4. Click 'Hex' tab in the data field",
		"5. Paste: " + data,
		"6. Confirm transaction",
	}
	return strings.Join(append(steps, extra...), "\n")
}

func buildPlan(network config.Network, op string, call castCall, data []byte, description, message string, params map[string]interface{}) model.TxPlan {
	value := call.value
	if value == nil {
		value = new(big.Int)
	}
	encoded := hexutil.Encode(data)
	return model.TxPlan{
		Operation:            op,
		Network:              network.Name,
		To:                   call.to.Hex(),
		Data:                 encoded,
		Value:                value.String(),
		Description:          description,
		Parameters:           params,
		CastCommand:          call.command(network.RPCURL),
		MetamaskInstructions: walletInstructions(call.to, encoded, value),
		Message:              message,
	}
}

func packManager(method string, args ...interface{}) ([]byte, error) {
	parsed, err := ManagerABI()
	if err != nil {
		return nil, err
	}
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, errs.Validation("pack %s: %v", method, err)
	}
	return data, nil
}

// BuildDeploy prepares a factory createObolValidatorManager call.
func BuildDeploy(network config.Network, owner, principalRecipient, rewardRecipient common.Address, thresholdGwei uint64) (model.TxPlan, error) {
	parsed, err := FactoryABI()
	if err != nil {
		return model.TxPlan{}, err
	}
	data, err := parsed.Pack("createObolValidatorManager", owner, principalRecipient, rewardRecipient, thresholdGwei)
	if err != nil {
		return model.TxPlan{}, errs.Validation("pack createObolValidatorManager: %v", err)
	}

	call := castCall{
		to:   network.FactoryAddress,
		sig:  "createObolValidatorManager(address,address,address,uint64)",
		args: []string{fmt.Sprintf("%s %s %s %d", owner.Hex(), principalRecipient.Hex(), rewardRecipient.Hex(), thresholdGwei)},
	}
	plan := buildPlan(network, "deploy", call, data,
		"Deploy new OVM with owner "+owner.Hex(),
		"Ready to deploy. Use the Cast command or MetaMask instructions above.",
		map[string]interface{}{
			"owner":              owner.Hex(),
			"principalRecipient": principalRecipient.Hex(),
			"rewardRecipient":    rewardRecipient.Hex(),
			"principalThreshold": thresholdGwei,
		},
	)
	plan.MetamaskInstructions = walletInstructions(call.to, plan.Data, nil, "7. The new OVM address will be in the transaction receipt logs")
	return plan, nil
}

// BuildGrantRoles prepares grantRoles(user, roles). Unknown role names are rejected.
func BuildGrantRoles(network config.Network, ovmAddr, target common.Address, roleNames []string) (model.TxPlan, error) {
	return buildRoleChange(network, "grantRoles", ovmAddr, target, roleNames)
}

// BuildRevokeRoles prepares revokeRoles(user, roles). Unknown role names are rejected.
func BuildRevokeRoles(network config.Network, ovmAddr, target common.Address, roleNames []string) (model.TxPlan, error) {
	return buildRoleChange(network, "revokeRoles", ovmAddr, target, roleNames)
}

func buildRoleChange(network config.Network, method string, ovmAddr, target common.Address, roleNames []string) (model.TxPlan, error) {
	parsed, err := roles.ParseStrict(roleNames)
	if err != nil {
		return model.TxPlan{}, err
	}
	packed := roles.EncodeRoles(parsed...)

	data, err := packManager(method, target, new(big.Int).SetUint64(packed))
	if err != nil {
		return model.TxPlan{}, err
	}

	names := lo.Map(parsed, func(r roles.Role, _ int) string { return r.String() })

	verb, prep := "Grant", "to"
	if method == "revokeRoles" {
		verb, prep = "Revoke", "from"
	}

	call := castCall{
		to:   ovmAddr,
		sig:  method + "(address,uint256)",
		args: []string{fmt.Sprintf("%s %d", target.Hex(), packed)},
	}
	return buildPlan(network, method, call, data,
		fmt.Sprintf("%s roles %s %s %s", verb, strings.Join(names, ", "), prep, target.Hex()),
		"Ready to execute. Requires owner permissions on the OVM.",
		map[string]interface{}{
			"ovmAddress":    ovmAddr.Hex(),
			"targetAddress": target.Hex(),
			"roles":         names,
			"rolesValue":    packed,
		},
	), nil
}

// BuildDistribute prepares distributeFunds(). Anyone may call it.
func BuildDistribute(network config.Network, ovmAddr common.Address) (model.TxPlan, error) {
	data, err := packManager("distributeFunds")
	if err != nil {
		return model.TxPlan{}, err
	}
	call := castCall{to: ovmAddr, sig: "distributeFunds()"}
	return buildPlan(network, "distributeFunds", call, data,
		"Distribute accumulated funds to principal and reward recipients",
		"Ready to distribute. Anyone can call this function.",
		map[string]interface{}{"ovmAddress": ovmAddr.Hex()},
	), nil
}

// BuildSetBeneficiary prepares setBeneficiary(newBeneficiary).
func BuildSetBeneficiary(network config.Network, ovmAddr, beneficiary common.Address) (model.TxPlan, error) {
	data, err := packManager("setBeneficiary", beneficiary)
	if err != nil {
		return model.TxPlan{}, err
	}
	call := castCall{to: ovmAddr, sig: "setBeneficiary(address)", args: []string{beneficiary.Hex()}}
	return buildPlan(network, "setBeneficiary", call, data,
		"Set beneficiary to "+beneficiary.Hex(),
		"Ready to execute. Requires SET_BENEFICIARY_ROLE.",
		map[string]interface{}{"ovmAddress": ovmAddr.Hex(), "newBeneficiary": beneficiary.Hex()},
	), nil
}

// BuildSetRewardRecipient prepares setRewardRecipient(newRewardRecipient).
func BuildSetRewardRecipient(network config.Network, ovmAddr, recipient common.Address) (model.TxPlan, error) {
	data, err := packManager("setRewardRecipient", recipient)
	if err != nil {
		return model.TxPlan{}, err
	}
	call := castCall{to: ovmAddr, sig: "setRewardRecipient(address)", args: []string{recipient.Hex()}}
	return buildPlan(network, "setRewardRecipient", call, data,
		"Set reward recipient to "+recipient.Hex(),
		"Ready to execute. Requires SET_REWARD_ROLE.",
		map[string]interface{}{"ovmAddress": ovmAddr.Hex(), "newRewardRecipient": recipient.Hex()},
	), nil
}

// WithdrawRequest carries EIP-7002 withdrawal parameters as given by the caller.
type WithdrawRequest struct {
	Pubkeys             []string
	Amounts             []string
	MaxFeePerWithdrawal string
	ExcessFeeRecipient  common.Address
}

// BuildWithdraw prepares withdraw(pubKeys, amounts, maxFee, excessFeeRecipient) with
// value = maxFee * len(pubKeys).
func BuildWithdraw(network config.Network, ovmAddr common.Address, req WithdrawRequest) (model.TxPlan, error) {
	if len(req.Pubkeys) == 0 {
		return model.TxPlan{}, errs.Validation("at least one pubkey is required")
	}
	if len(req.Pubkeys) != len(req.Amounts) {
		return model.TxPlan{}, errs.Validation("pubkeys length (%d) must match amounts length (%d)", len(req.Pubkeys), len(req.Amounts))
	}

	pubkeys := make([][]byte, 0, len(req.Pubkeys))
	pubkeyHex := make([]string, 0, len(req.Pubkeys))
	for _, pk := range req.Pubkeys {
		pk = strings.TrimSpace(pk)
		if !strings.HasPrefix(pk, "0x") && !strings.HasPrefix(pk, "0X") {
			pk = "0x" + pk
		}
		raw, err := hexutil.Decode(pk)
		if err != nil {
			return model.TxPlan{}, errs.Validation("invalid pubkey %s: %v", pk, err)
		}
		if len(raw) != pubkeyLength {
			return model.TxPlan{}, errs.Validation("invalid pubkey %s: expected %d bytes, got %d", pk, pubkeyLength, len(raw))
		}
		pubkeys = append(pubkeys, raw)
		pubkeyHex = append(pubkeyHex, hexutil.Encode(raw))
	}

	amounts := make([]uint64, 0, len(req.Amounts))
	amountText := make([]string, 0, len(req.Amounts))
	for _, a := range req.Amounts {
		v, err := strconv.ParseUint(strings.TrimSpace(a), 10, 64)
		if err != nil {
			return model.TxPlan{}, errs.Validation("invalid amount %q: %v", a, err)
		}
		amounts = append(amounts, v)
		amountText = append(amountText, strconv.FormatUint(v, 10))
	}

	maxFee, ok := new(big.Int).SetString(strings.TrimSpace(req.MaxFeePerWithdrawal), 10)
	if !ok || maxFee.Sign() < 0 {
		return model.TxPlan{}, errs.Validation("invalid maxFeePerWithdrawal %q", req.MaxFeePerWithdrawal)
	}
	totalFee := new(big.Int).Mul(maxFee, big.NewInt(int64(len(pubkeys))))

	data, err := packManager("withdraw", pubkeys, amounts, maxFee, req.ExcessFeeRecipient)
	if err != nil {
		return model.TxPlan{}, err
	}

	call := castCall{
		to:  ovmAddr,
		sig: "withdraw(bytes[],uint64[],uint256,address)",
		args: []string{
			strconv.Quote("[" + strings.Join(pubkeyHex, ",") + "]"),
			strconv.Quote("[" + strings.Join(amountText, ",") + "]"),
			maxFee.String(),
			req.ExcessFeeRecipient.Hex(),
		},
		value: totalFee,
	}
	return buildPlan(network, "withdraw", call, data,
		fmt.Sprintf("Request withdrawal for %d validator(s)", len(pubkeys)),
		"Ready to execute. Requires WITHDRAWAL_ROLE and ETH for fees.",
		map[string]interface{}{
			"ovmAddress":          ovmAddr.Hex(),
			"validatorCount":      len(pubkeys),
			"pubkeys":             pubkeyHex,
			"amounts":             amountText,
			"maxFeePerWithdrawal": maxFee.String(),
			"totalFeeRequired":    totalFee.String(),
			"excessFeeRecipient":  req.ExcessFeeRecipient.Hex(),
		},
	), nil
}
