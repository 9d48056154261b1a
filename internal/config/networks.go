package config

import (
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"ovmscope/internal/errs"
)

// Network is the static deployment data for one chain.
type Network struct {
	Name            string         `json:"name"`
	DisplayName     string         `json:"displayName"`
	ChainID         uint64         `json:"chainId"`
	FactoryAddress  common.Address `json:"factoryAddress"`
	DeploymentBlock uint64         `json:"deploymentBlock"`
	LaunchpadURL    string         `json:"launchpadUrl"`
	RPCURL          string         `json:"rpcUrl"`
}

// NetworkOverride is the config-file shape for adding or patching a network.
type NetworkOverride struct {
	DisplayName     string  `mapstructure:"display-name"`
	ChainID         uint64  `mapstructure:"chain-id"`
	FactoryAddress  string  `mapstructure:"factory"`
	DeploymentBlock *uint64 `mapstructure:"deployment-block"`
	LaunchpadURL    string  `mapstructure:"launchpad-url"`
	RPCURL          string  `mapstructure:"rpc"`
}

var defaultNetworks = map[string]Network{
	"mainnet": {
		Name:            "mainnet",
		DisplayName:     "Ethereum Mainnet",
		ChainID:         1,
		FactoryAddress:  common.HexToAddress("0x2c26B5A373294CaccBd3DE817D9B7C6aea7De584"),
		DeploymentBlock: 23919948,
		LaunchpadURL:    "https://launchpad.obol.org",
		RPCURL:          "https://eth.llamarpc.com",
	},
	"hoodi": {
		Name:            "hoodi",
		DisplayName:     "Hoodi Testnet",
		ChainID:         560048,
		FactoryAddress:  common.HexToAddress("0x5754C8665B7e7BF15E83fCdF6d9636684B782b12"),
		DeploymentBlock: 0,
		LaunchpadURL:    "https://hoodi.launchpad.obol.org",
		RPCURL:          "https://ethereum-hoodi-rpc.publicnode.com",
	},
	"sepolia": {
		Name:            "sepolia",
		DisplayName:     "Sepolia Testnet",
		ChainID:         11155111,
		FactoryAddress:  common.HexToAddress("0xF32F8B563d8369d40C45D5d667C2B26937F2A3d3"),
		DeploymentBlock: 9159573,
		LaunchpadURL:    "https://sepolia.launchpad.obol.org",
		RPCURL:          "https://sepolia.drpc.org",
	},
}

// Registry resolves network names to Network values.
type Registry struct {
	networks map[string]Network
}

// NewRegistry returns the built-in networks patched by overrides.
func NewRegistry(overrides map[string]NetworkOverride) (*Registry, error) {
	networks := make(map[string]Network, len(defaultNetworks)+len(overrides))
	for name, n := range defaultNetworks {
		networks[name] = n
	}

	for name, o := range overrides {
		key := strings.ToLower(strings.TrimSpace(name))
		n, exists := networks[key]
		if !exists {
			n = Network{Name: key}
		}
		if o.DisplayName != "" {
			n.DisplayName = o.DisplayName
		}
		if o.ChainID != 0 {
			n.ChainID = o.ChainID
		}
		if o.FactoryAddress != "" {
			if !common.IsHexAddress(o.FactoryAddress) {
				return nil, errs.Config("network %s: invalid factory address %q", key, o.FactoryAddress)
			}
			n.FactoryAddress = common.HexToAddress(o.FactoryAddress)
		}
		if o.DeploymentBlock != nil {
			n.DeploymentBlock = *o.DeploymentBlock
		}
		if o.LaunchpadURL != "" {
			n.LaunchpadURL = o.LaunchpadURL
		}
		if o.RPCURL != "" {
			n.RPCURL = o.RPCURL
		}
		if !exists && (n.FactoryAddress == (common.Address{}) || n.RPCURL == "") {
			return nil, errs.Config("network %s: factory and rpc are required for new networks", key)
		}
		networks[key] = n
	}

	return &Registry{networks: networks}, nil
}

// Lookup returns the named network with an optional RPC override applied.
func (r *Registry) Lookup(name, rpcOverride string) (Network, error) {
	n, ok := r.networks[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Network{}, errs.Config("unsupported network: %s. Supported: %s", name, strings.Join(r.Names(), ", "))
	}
	if rpcOverride != "" {
		n.RPCURL = rpcOverride
	}
	return n, nil
}

// Names lists known networks alphabetically.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.networks))
	for name := range r.networks {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// LookupNetwork resolves against the built-in table only.
func LookupNetwork(name, rpcOverride string) (Network, error) {
	r, _ := NewRegistry(nil)
	return r.Lookup(name, rpcOverride)
}
