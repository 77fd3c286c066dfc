package config

import (
	"fmt"
	"time"
)

// AdapterKind selects which chainadapter implementation a network binds
// to: "evm" dials a real JSON-RPC endpoint, "mock" runs the in-memory
// dry-run backend with no chain behind it at all.
type AdapterKind string

const (
	AdapterEVM  AdapterKind = "evm"
	AdapterMock AdapterKind = "mock"
)

// ContractConfig names one deployed contract: its address and the ABI
// JSON describing its event/method surface. ABI is inline JSON text
// rather than a path, so a config loaded over http(s):// is self
// contained.
type ContractConfig struct {
	Address string `json:"address"`
	ABI     string `json:"abi"`
}

// NetworkConfig describes one chain this agent suite talks to: its
// domain id, how to reach it, and the contracts deployed on it. A chain
// may host a Home, a Replica (of some other chain's Home), or both —
// Relayer/Processor/Monitor configs name the Replica side by this
// network's key and separately name the Home side's network key, so the
// two ContractConfigs never need to be disambiguated by anything more
// than which field is set.
type NetworkConfig struct {
	Domain          uint32          `json:"domain"`
	Adapter         AdapterKind     `json:"adapter"`
	RPC             string          `json:"rpc,omitempty"`
	Home            *ContractConfig `json:"home,omitempty"`
	Replica         *ContractConfig `json:"replica,omitempty"`
	ConnectionMgr   *ContractConfig `json:"connection_manager,omitempty"`
	DeploymentBlock uint64          `json:"deployment_block"`
	ChunkSize       uint64          `json:"chunk_size"`
	PollIntervalMS  int64           `json:"poll_interval_ms"`

	// TxSigner names the secrets key every Submitter built against this
	// network's contracts pays gas and signs transactions with. This is
	// distinct from any attestation-signing key (producer/relayer) named
	// elsewhere: one pays for inclusion, the other authenticates an
	// update or double-update.
	TxSigner string `json:"tx_signer,omitempty"`
}

// PollInterval converts PollIntervalMS to a time.Duration, defaulting to
// one second when unset so a config author is never required to spell
// out the common case.
func (n NetworkConfig) PollInterval() time.Duration {
	if n.PollIntervalMS <= 0 {
		return time.Second
	}
	return time.Duration(n.PollIntervalMS) * time.Millisecond
}

// Validate checks n for internal consistency; it does not dial anything.
func (n NetworkConfig) Validate(name string) error {
	switch n.Adapter {
	case AdapterEVM, AdapterMock:
	default:
		return fmt.Errorf("config: network %q: unknown adapter kind %q", name, n.Adapter)
	}
	if n.Adapter == AdapterEVM && n.RPC == "" {
		return fmt.Errorf("config: network %q: rpc endpoint required for evm adapter", name)
	}
	if n.Adapter == AdapterEVM && n.TxSigner == "" {
		return fmt.Errorf("config: network %q: tx_signer required for evm adapter", name)
	}
	if n.ChunkSize == 0 {
		return fmt.Errorf("config: network %q: chunk_size must be greater than 0", name)
	}
	return nil
}
