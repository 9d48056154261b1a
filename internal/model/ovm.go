package model

import (
	"encoding/json"
	"math/big"

	"ovmscope/internal/roles"
)

// Membership is the result of a factory membership check.
type Membership struct {
	IsOVM           bool    `json:"isOVM"`
	DeploymentBlock *uint64 `json:"deployedAtBlock,omitempty"`
}

// Deployment is one OVM created through the factory.
type Deployment struct {
	Address     string `json:"address"`
	Owner       string `json:"owner"`
	BlockNumber uint64 `json:"blockNumber"`
}

// RoleRecord is the current role state of one address on an OVM.
type RoleRecord struct {
	Address    string    `json:"address"`
	Roles      roles.Set `json:"-"`
	RolesValue *big.Int  `json:"-"`
	// Implicit marks the owner record synthesized without a point read.
	Implicit bool `json:"-"`
}

// MarshalJSON renders roles as granted names and the packed value as a number.
func (r RoleRecord) MarshalJSON() ([]byte, error) {
	value := r.RolesValue
	if value == nil {
		value = new(big.Int)
	}
	return json.Marshal(struct {
		Address    string   `json:"address"`
		Roles      []string `json:"roles"`
		RolesValue *big.Int `json:"rolesValue"`
		Implicit   bool     `json:"implicitOwner,omitempty"`
	}{
		Address:    r.Address,
		Roles:      r.Roles.Names(),
		RolesValue: value,
		Implicit:   r.Implicit,
	})
}

// State is a snapshot of an OVM's read-only fields.
type State struct {
	Owner                  string `json:"owner"`
	PrincipalRecipient     string `json:"principalRecipient"`
	RewardRecipient        string `json:"rewardRecipient"`
	PrincipalThreshold     string `json:"principalThreshold"`
	FundsPendingWithdrawal string `json:"fundsPendingWithdrawal"`
	AmountOfPrincipalStake string `json:"amountOfPrincipalStake"`
	Balance                string `json:"balance"`
	Version                string `json:"version"`

	Raw StateRaw `json:"-"`
}

// StateRaw keeps the unformatted integer values behind State.
type StateRaw struct {
	PrincipalThresholdGwei uint64
	FundsPendingWithdrawal *big.Int
	AmountOfPrincipalStake *big.Int
	Balance                *big.Int
}

// TxPlan is an unsigned transaction ready for an external signer.
type TxPlan struct {
	Operation            string                 `json:"operation"`
	Network              string                 `json:"network"`
	To                   string                 `json:"to"`
	Data                 string                 `json:"data"`
	Value                string                 `json:"value"`
	Description          string                 `json:"description"`
	Parameters           map[string]interface{} `json:"parameters,omitempty"`
	CastCommand          string                 `json:"castCommand"`
	MetamaskInstructions string                 `json:"metamaskInstructions"`
	Message              string                 `json:"message"`
}
