package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/nomadprotocol/agents/pkg/chainadapter"
	"github.com/nomadprotocol/agents/pkg/chainadapter/evmadapter"
	"github.com/nomadprotocol/agents/pkg/chainadapter/mockadapter"
	"github.com/nomadprotocol/agents/pkg/config"
	"github.com/nomadprotocol/agents/pkg/merkle"
	"github.com/nomadprotocol/agents/pkg/submitter"
)

// dialer keeps one ethclient.Client per RPC endpoint so two networks
// that happen to share an RPC (or the home/replica side of the same
// network) don't each open their own connection.
type dialer struct {
	clients map[string]*ethclient.Client
}

func newDialer() *dialer { return &dialer{clients: map[string]*ethclient.Client{}} }

func (d *dialer) dial(rpc string) (*ethclient.Client, error) {
	if c, ok := d.clients[rpc]; ok {
		return c, nil
	}
	c, err := ethclient.Dial(rpc)
	if err != nil {
		return nil, fmt.Errorf("dial %q: %w", rpc, err)
	}
	d.clients[rpc] = c
	return c, nil
}

// buildHome resolves netCfg's Home contract into a chainadapter.Home.
// needsWrite requests a DirectSubmitter built from netCfg.TxSigner; read
// only callers (monitor) pass false and get a Home with no write path.
func buildHome(d *dialer, netName string, netCfg config.NetworkConfig, secrets *config.SecretsDocument, needsWrite bool) (chainadapter.Home, error) {
	switch netCfg.Adapter {
	case config.AdapterMock:
		updater, err := contractUpdater(netCfg.Home)
		if err != nil {
			return nil, fmt.Errorf("network %q: home: %w", netName, err)
		}
		return mockadapter.NewHome(netCfg.Domain, updater), nil

	case config.AdapterEVM:
		if netCfg.Home == nil {
			return nil, fmt.Errorf("network %q: no home contract configured", netName)
		}
		client, err := d.dial(netCfg.RPC)
		if err != nil {
			return nil, fmt.Errorf("network %q: %w", netName, err)
		}
		sub, err := maybeSubmitter(client, netCfg, secrets, needsWrite)
		if err != nil {
			return nil, fmt.Errorf("network %q: %w", netName, err)
		}
		spec, err := buildSpec(*netCfg.Home)
		if err != nil {
			return nil, fmt.Errorf("network %q: home: %w", netName, err)
		}
		return evmadapter.NewHome(client, spec, sub), nil

	default:
		return nil, fmt.Errorf("network %q: unknown adapter %q", netName, netCfg.Adapter)
	}
}

// buildReplica resolves netCfg's Replica contract into a
// chainadapter.Replica. homeDomain is the domain of the Home chain this
// replica mirrors, required so the mock backend can validate that a
// submitted update actually originates from that home.
func buildReplica(d *dialer, netName string, netCfg config.NetworkConfig, homeDomain uint32, secrets *config.SecretsDocument, needsWrite bool) (chainadapter.Replica, error) {
	switch netCfg.Adapter {
	case config.AdapterMock:
		updater, err := contractUpdater(netCfg.Replica)
		if err != nil {
			return nil, fmt.Errorf("network %q: replica: %w", netName, err)
		}
		return mockadapter.NewReplica(homeDomain, updater, merkle.EmptyRoot()), nil

	case config.AdapterEVM:
		if netCfg.Replica == nil {
			return nil, fmt.Errorf("network %q: no replica contract configured", netName)
		}
		client, err := d.dial(netCfg.RPC)
		if err != nil {
			return nil, fmt.Errorf("network %q: %w", netName, err)
		}
		sub, err := maybeSubmitter(client, netCfg, secrets, needsWrite)
		if err != nil {
			return nil, fmt.Errorf("network %q: %w", netName, err)
		}
		spec, err := buildSpec(*netCfg.Replica)
		if err != nil {
			return nil, fmt.Errorf("network %q: replica: %w", netName, err)
		}
		return evmadapter.NewReplica(client, spec, sub), nil

	default:
		return nil, fmt.Errorf("network %q: unknown adapter %q", netName, netCfg.Adapter)
	}
}

// buildConnectionManager resolves netCfg's ConnectionMgr contract.
func buildConnectionManager(d *dialer, netName string, netCfg config.NetworkConfig, secrets *config.SecretsDocument) (chainadapter.ConnectionManager, error) {
	switch netCfg.Adapter {
	case config.AdapterMock:
		return mockadapter.NewConnectionManager(), nil

	case config.AdapterEVM:
		if netCfg.ConnectionMgr == nil {
			return nil, fmt.Errorf("network %q: no connection manager contract configured", netName)
		}
		client, err := d.dial(netCfg.RPC)
		if err != nil {
			return nil, fmt.Errorf("network %q: %w", netName, err)
		}
		sub, err := maybeSubmitter(client, netCfg, secrets, true)
		if err != nil {
			return nil, fmt.Errorf("network %q: %w", netName, err)
		}
		spec, err := buildSpec(*netCfg.ConnectionMgr)
		if err != nil {
			return nil, fmt.Errorf("network %q: connection manager: %w", netName, err)
		}
		return evmadapter.NewConnectionManager(client, spec, sub), nil

	default:
		return nil, fmt.Errorf("network %q: unknown adapter %q", netName, netCfg.Adapter)
	}
}

func maybeSubmitter(client submitter.TxClient, netCfg config.NetworkConfig, secrets *config.SecretsDocument, needsWrite bool) (submitter.Submitter, error) {
	if !needsWrite {
		return nil, nil
	}
	if netCfg.TxSigner == "" {
		return nil, fmt.Errorf("tx_signer not configured")
	}
	key, err := secrets.PrivateKey(netCfg.TxSigner)
	if err != nil {
		return nil, fmt.Errorf("tx signer %q: %w", netCfg.TxSigner, err)
	}
	return &submitter.DirectSubmitter{
		Client:         client,
		Signer:         key,
		GasLimit:       500_000,
		ConfirmPoll:    2 * time.Second,
		ConfirmTimeout: 2 * time.Minute,
	}, nil
}

func buildSpec(c config.ContractConfig) (evmadapter.Spec, error) {
	parsed, err := abi.JSON(strings.NewReader(c.ABI))
	if err != nil {
		return evmadapter.Spec{}, fmt.Errorf("parse abi: %w", err)
	}
	return evmadapter.Spec{ABI: parsed, Address: common.HexToAddress(c.Address)}, nil
}

func contractUpdater(c *config.ContractConfig) ([20]byte, error) {
	if c == nil || c.Address == "" {
		return [20]byte{}, nil
	}
	addr := common.HexToAddress(c.Address)
	var out [20]byte
	copy(out[:], addr.Bytes())
	return out, nil
}
