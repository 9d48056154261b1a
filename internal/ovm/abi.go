package ovm

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const (
	eventCreated      = "CreateObolValidatorManager"
	eventRolesUpdated = "RolesUpdated"
)

const factoryABIJSON = `[
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "ovm", "type": "address"},
      {"indexed": true, "internalType": "address", "name": "owner", "type": "address"},
      {"indexed": false, "internalType": "address", "name": "beneficiary", "type": "address"},
      {"indexed": false, "internalType": "address", "name": "rewardRecipient", "type": "address"},
      {"indexed": false, "internalType": "uint64", "name": "principalThreshold", "type": "uint64"}
    ],
    "name": "CreateObolValidatorManager",
    "type": "event"
  },
  {
    "inputs": [
      {"internalType": "address", "name": "owner", "type": "address"},
      {"internalType": "address", "name": "beneficiary", "type": "address"},
      {"internalType": "address", "name": "rewardRecipient", "type": "address"},
      {"internalType": "uint64", "name": "principalThreshold", "type": "uint64"}
    ],
    "name": "createObolValidatorManager",
    "outputs": [{"internalType": "contract ObolValidatorManager", "name": "ovm", "type": "address"}],
    "stateMutability": "nonpayable",
    "type": "function"
  }
]`

const managerABIJSON = `[
  {"inputs": [], "name": "owner", "outputs": [{"internalType": "address", "name": "result", "type": "address"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "principalRecipient", "outputs": [{"internalType": "address", "name": "", "type": "address"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "rewardRecipient", "outputs": [{"internalType": "address", "name": "", "type": "address"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "principalThreshold", "outputs": [{"internalType": "uint64", "name": "", "type": "uint64"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "fundsPendingWithdrawal", "outputs": [{"internalType": "uint128", "name": "", "type": "uint128"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "amountOfPrincipalStake", "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"},
  {
    "inputs": [{"internalType": "address", "name": "user", "type": "address"}],
    "name": "rolesOf",
    "outputs": [{"internalType": "uint256", "name": "roles", "type": "uint256"}],
    "stateMutability": "view",
    "type": "function"
  },
  {"inputs": [], "name": "version", "outputs": [{"internalType": "string", "name": "", "type": "string"}], "stateMutability": "pure", "type": "function"},
  {
    "inputs": [
      {"internalType": "address", "name": "user", "type": "address"},
      {"internalType": "uint256", "name": "roles", "type": "uint256"}
    ],
    "name": "grantRoles",
    "outputs": [],
    "stateMutability": "payable",
    "type": "function"
  },
  {
    "inputs": [
      {"internalType": "address", "name": "user", "type": "address"},
      {"internalType": "uint256", "name": "roles", "type": "uint256"}
    ],
    "name": "revokeRoles",
    "outputs": [],
    "stateMutability": "payable",
    "type": "function"
  },
  {"inputs": [{"internalType": "address", "name": "newBeneficiary", "type": "address"}], "name": "setBeneficiary", "outputs": [], "stateMutability": "nonpayable", "type": "function"},
  {"inputs": [{"internalType": "address", "name": "newRewardRecipient", "type": "address"}], "name": "setRewardRecipient", "outputs": [], "stateMutability": "nonpayable", "type": "function"},
  {"inputs": [], "name": "distributeFunds", "outputs": [], "stateMutability": "nonpayable", "type": "function"},
  {
    "inputs": [
      {"internalType": "bytes[]", "name": "pubKeys", "type": "bytes[]"},
      {"internalType": "uint64[]", "name": "amounts", "type": "uint64[]"},
      {"internalType": "uint256", "name": "maxFeePerWithdrawal", "type": "uint256"},
      {"internalType": "address", "name": "excessFeeRecipient", "type": "address"}
    ],
    "name": "withdraw",
    "outputs": [],
    "stateMutability": "payable",
    "type": "function"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "user", "type": "address"},
      {"indexed": true, "internalType": "uint256", "name": "roles", "type": "uint256"}
    ],
    "name": "RolesUpdated",
    "type": "event"
  }
]`

var (
	factoryABI     abi.ABI
	factoryABIOnce sync.Once
	factoryABIErr  error

	managerABI     abi.ABI
	managerABIOnce sync.Once
	managerABIErr  error
)

// FactoryABI returns the parsed OVM factory ABI.
func FactoryABI() (abi.ABI, error) {
	factoryABIOnce.Do(func() {
		factoryABI, factoryABIErr = abi.JSON(strings.NewReader(factoryABIJSON))
	})
	return factoryABI, factoryABIErr
}

// ManagerABI returns the parsed ObolValidatorManager ABI.
func ManagerABI() (abi.ABI, error) {
	managerABIOnce.Do(func() {
		managerABI, managerABIErr = abi.JSON(strings.NewReader(managerABIJSON))
	})
	return managerABI, managerABIErr
}
