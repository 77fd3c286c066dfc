// Package config loads the agent suite's JSON configuration from a local
// path, an http(s):// URL, or a name compiled in via go:embed, per spec
// section 6. No third-party config framework is wired: the document is a
// flat JSON struct tree decoded with the standard library, since nothing
// here needs layered overrides, env-var interpolation, or hot reload —
// see DESIGN.md for the full justification.
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// AgentConfig is the full document one agent process loads at startup.
type AgentConfig struct {
	// IndexDir is the Pebble data directory backing pkg/index.
	IndexDir string `json:"index_dir"`

	// Networks is keyed by a short network name (e.g. "ethereum",
	// "polygon") referenced elsewhere in this document and on the CLI.
	Networks map[string]NetworkConfig `json:"networks"`

	// Producer/Relayer/Processor/Monitor carry the settings specific to
	// each agent subcommand; a config document can carry all four (a
	// combined dev/test deployment) or just the one its process runs.
	Producer  *ProducerConfig  `json:"producer,omitempty"`
	Relayer   *RelayerConfig   `json:"relayer,omitempty"`
	Processor *ProcessorConfig `json:"processor,omitempty"`
	Monitor   *MonitorConfig   `json:"monitor,omitempty"`

	MetricsPort int `json:"metrics_port,omitempty"`
}

// ProducerConfig names the home network the producer agent signs updates
// for. Signer names the key in the secrets document the producer uses
// to sign updates.
type ProducerConfig struct {
	Network    string `json:"network"`
	Signer     string `json:"signer"`
	IntervalMS int64  `json:"interval_ms,omitempty"`
}

func (c ProducerConfig) Interval() time.Duration {
	return msOrDefault(c.IntervalMS, time.Second)
}

// RelayerConfig names one (home, replica) pair the relayer agent forwards
// signed updates across.
type RelayerConfig struct {
	Home       string `json:"home"`
	Replica    string `json:"replica"`
	IntervalMS int64  `json:"interval_ms,omitempty"`
}

func (c RelayerConfig) Interval() time.Duration {
	return msOrDefault(c.IntervalMS, time.Second)
}

// ProcessorConfig names one (home, replica) pair the processor agent
// proves and processes messages across, plus its message filter. Home
// is the Index entity messages were synced under (shared with that
// home's MessageSyncer/ProverSync); Replica is the destination network
// whose domain picks the processor's nonce lane.
type ProcessorConfig struct {
	Home    string   `json:"home"`
	Replica string   `json:"replica"`
	RetryMS int64    `json:"retry_ms,omitempty"`
	Deny    []string `json:"deny,omitempty"`
	Allow   []string `json:"allow,omitempty"`
}

func (c ProcessorConfig) RetryInterval() time.Duration {
	return msOrDefault(c.RetryMS, time.Second)
}

// MonitorConfig names every home and replica the monitor agent observes
// and how destination domains map onto the replica network names that
// serve them.
type MonitorConfig struct {
	Homes            []string         `json:"homes"`
	Replicas         []MonitorReplica `json:"replicas"`
	IdleIntervalMS   int64            `json:"idle_interval_ms,omitempty"`
	ChunkSize        uint64           `json:"chunk_size,omitempty"`
}

// MonitorReplica pairs a replica network with the home network it
// mirrors.
type MonitorReplica struct {
	Network   string `json:"network"`
	ReplicaOf string `json:"replica_of"`
}

func (c MonitorConfig) IdleInterval() time.Duration {
	return msOrDefault(c.IdleIntervalMS, 2*time.Second)
}

func msOrDefault(ms int64, def time.Duration) time.Duration {
	if ms <= 0 {
		return def
	}
	return time.Duration(ms) * time.Millisecond
}

// Load reads and decodes an AgentConfig from ref: a local filesystem
// path, an http:// or https:// URL, or the name of a config compiled in
// via go:embed (see builtin.go).
func Load(ref string) (*AgentConfig, error) {
	data, err := fetch(ref)
	if err != nil {
		return nil, err
	}
	var cfg AgentConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: decode %q: %w", ref, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func fetch(ref string) ([]byte, error) {
	switch {
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return fetchHTTP(ref)
	case strings.HasPrefix(ref, "builtin:"):
		return builtinConfig(strings.TrimPrefix(ref, "builtin:"))
	default:
		data, err := os.ReadFile(ref)
		if err != nil {
			return nil, fmt.Errorf("config: read %q: %w", ref, err)
		}
		return data, nil
	}
}

func fetchHTTP(url string) ([]byte, error) {
	resp, err := http.Get(url)
	if err != nil {
		return nil, fmt.Errorf("config: fetch %q: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("config: fetch %q: unexpected status %s", url, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("config: fetch %q: read body: %w", url, err)
	}
	return data, nil
}

func (c AgentConfig) validate() error {
	if c.IndexDir == "" {
		return fmt.Errorf("config: index_dir must not be empty")
	}
	for name, n := range c.Networks {
		if err := n.Validate(name); err != nil {
			return err
		}
	}
	return nil
}
