package ovm

import (
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ovmscope/internal/errs"
)

func decodeCall(t *testing.T, data string) (string, []interface{}) {
	t.Helper()
	raw, err := hexutil.Decode(data)
	require.NoError(t, err)
	parsed, err := ManagerABI()
	require.NoError(t, err)
	method, err := parsed.MethodById(raw[:4])
	require.NoError(t, err)
	args, err := method.Inputs.Unpack(raw[4:])
	require.NoError(t, err)
	return method.Name, args
}

func TestBuildDeploy(t *testing.T) {
	plan, err := BuildDeploy(testNetwork(), testOwner, userA, userB, DefaultPrincipalThreshold)
	require.NoError(t, err)

	assert.Equal(t, testFactory.Hex(), plan.To)
	assert.Equal(t, "0", plan.Value)
	assert.Equal(t, "testnet", plan.Network)

	parsed, err := FactoryABI()
	require.NoError(t, err)
	raw, err := hexutil.Decode(plan.Data)
	require.NoError(t, err)
	method, err := parsed.MethodById(raw[:4])
	require.NoError(t, err)
	assert.Equal(t, "createObolValidatorManager", method.Name)
	args, err := method.Inputs.Unpack(raw[4:])
	require.NoError(t, err)
	assert.Equal(t, testOwner, args[0])
	assert.Equal(t, userA, args[1])
	assert.Equal(t, userB, args[2])
	assert.Equal(t, uint64(16), args[3])

	assert.True(t, strings.HasPrefix(plan.CastCommand, "cast send "+testFactory.Hex()+" \\\n"))
	assert.Contains(t, plan.CastCommand, "--rpc-url http://127.0.0.1:8545")
	assert.Contains(t, plan.CastCommand, "--private-key $PRIVATE_KEY")
	assert.Contains(t, plan.MetamaskInstructions, "7. The new OVM address")
}

func TestBuildGrantRoles(t *testing.T) {
	plan, err := BuildGrantRoles(testNetwork(), testOVM, userA, []string{"WITHDRAWAL_ROLE", "DEPOSIT_ROLE"})
	require.NoError(t, err)

	name, args := decodeCall(t, plan.Data)
	assert.Equal(t, "grantRoles", name)
	assert.Equal(t, userA, args[0])
	assert.Equal(t, big.NewInt(0x21), args[1])
	assert.Equal(t, uint64(0x21), plan.Parameters["rolesValue"])
	assert.Contains(t, plan.Description, "to "+userA.Hex())
}

func TestBuildRevokeRoles(t *testing.T) {
	plan, err := BuildRevokeRoles(testNetwork(), testOVM, userA, []string{"SET_REWARD_ROLE"})
	require.NoError(t, err)

	name, args := decodeCall(t, plan.Data)
	assert.Equal(t, "revokeRoles", name)
	assert.Equal(t, big.NewInt(0x10), args[1])
	assert.Contains(t, plan.Description, "from "+userA.Hex())
}

func TestBuildRoleChangeRejectsUnknownRole(t *testing.T) {
	_, err := BuildGrantRoles(testNetwork(), testOVM, userA, []string{"WITHDRAWAL_ROLE", "ADMIN_ROLE"})
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindValidation))

	_, err = BuildGrantRoles(testNetwork(), testOVM, userA, nil)
	require.Error(t, err)
}

func TestBuildDistribute(t *testing.T) {
	plan, err := BuildDistribute(testNetwork(), testOVM)
	require.NoError(t, err)

	name, args := decodeCall(t, plan.Data)
	assert.Equal(t, "distributeFunds", name)
	assert.Empty(t, args)
	assert.Equal(t, testOVM.Hex(), plan.To)
}

func TestBuildSetRecipients(t *testing.T) {
	plan, err := BuildSetBeneficiary(testNetwork(), testOVM, userB)
	require.NoError(t, err)
	name, args := decodeCall(t, plan.Data)
	assert.Equal(t, "setBeneficiary", name)
	assert.Equal(t, userB, args[0])

	plan, err = BuildSetRewardRecipient(testNetwork(), testOVM, userA)
	require.NoError(t, err)
	name, args = decodeCall(t, plan.Data)
	assert.Equal(t, "setRewardRecipient", name)
	assert.Equal(t, userA, args[0])
}

func TestBuildWithdraw(t *testing.T) {
	pk := strings.Repeat("ab", pubkeyLength)
	req := WithdrawRequest{
		Pubkeys:             []string{pk, "0x" + strings.Repeat("cd", pubkeyLength)},
		Amounts:             []string{"0", "32000000000"},
		MaxFeePerWithdrawal: "100",
		ExcessFeeRecipient:  userA,
	}
	plan, err := BuildWithdraw(testNetwork(), testOVM, req)
	require.NoError(t, err)

	assert.Equal(t, "200", plan.Value)
	assert.Contains(t, plan.CastCommand, "--value 200")
	assert.Contains(t, plan.MetamaskInstructions, "200 Wei")

	name, args := decodeCall(t, plan.Data)
	assert.Equal(t, "withdraw", name)
	pubkeys := args[0].([][]byte)
	require.Len(t, pubkeys, 2)
	assert.Equal(t, "0x"+pk, hexutil.Encode(pubkeys[0]))
	assert.Equal(t, []uint64{0, 32000000000}, args[1])
	assert.Equal(t, big.NewInt(100), args[2])
	assert.Equal(t, userA, args[3])
}

func TestBuildWithdrawValidation(t *testing.T) {
	good := strings.Repeat("ab", pubkeyLength)
	cases := map[string]WithdrawRequest{
		"length mismatch": {Pubkeys: []string{good}, Amounts: []string{"1", "2"}, MaxFeePerWithdrawal: "1"},
		"empty":           {MaxFeePerWithdrawal: "1"},
		"short pubkey":    {Pubkeys: []string{"abcd"}, Amounts: []string{"1"}, MaxFeePerWithdrawal: "1"},
		"bad hex":         {Pubkeys: []string{"zz"}, Amounts: []string{"1"}, MaxFeePerWithdrawal: "1"},
		"bad amount":      {Pubkeys: []string{good}, Amounts: []string{"-1"}, MaxFeePerWithdrawal: "1"},
		"bad fee":         {Pubkeys: []string{good}, Amounts: []string{"1"}, MaxFeePerWithdrawal: "lots"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			req.ExcessFeeRecipient = common.Address{}
			_, err := BuildWithdraw(testNetwork(), testOVM, req)
			require.Error(t, err)
			assert.True(t, errs.Is(err, errs.KindValidation))
		})
	}
}
