// Package config resolves a Node's configuration from either a YAML file
// (the deployed node's usual path) or, in its absence, the environment
// variables of §6: NODE_ID, LISTEN_PORT, NODE_IP, BOOTSTRAP_ADDRESS,
// PEER_ADDRESSES.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nspcc-dev/otherneo/internal/errs"
)

// DefaultConfigPath mirrors the reference node's default config directory
// convention, used by the CLI entrypoint when no --config-path flag is given.
const DefaultConfigPath = "./config/node.yml"

// LogicalAddressConfig is the YAML-friendly form of addr.LogicalAddress.
type LogicalAddressConfig struct {
	Realm   uint16 `yaml:"Realm"`
	Cluster uint16 `yaml:"Cluster"`
	NodeID  uint32 `yaml:"NodeID"`
}

// Config is the fully resolved configuration for one node process.
type Config struct {
	Address      LogicalAddressConfig `yaml:"Address"`
	ListenPort   uint16               `yaml:"ListenPort"`
	NodeIP       string               `yaml:"NodeIP"`
	Capabilities []string             `yaml:"Capabilities"`
	Bootstrap    []string             `yaml:"Bootstrap"`
	Peers        []string             `yaml:"Peers"`
	P2P          P2P                  `yaml:"P2P"`
	Logger       Logger               `yaml:"Logger"`
	Metrics      BasicService         `yaml:"Metrics"`
}

// Load reads and parses a YAML config file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("unable to read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}
	if err := cfg.Logger.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadEnv builds a Config from the environment variables of §6. NODE_ID is
// required; its absence is the EnvMissing-fatal condition at startup.
func LoadEnv() (Config, error) {
	nodeID, ok := os.LookupEnv("NODE_ID")
	if !ok || nodeID == "" {
		return Config{}, fmt.Errorf("%w: NODE_ID", errs.ErrEnvMissing)
	}
	id, err := strconv.ParseUint(nodeID, 10, 32)
	if err != nil {
		return Config{}, fmt.Errorf("NODE_ID: %w", err)
	}

	cfg := Config{
		Address: LogicalAddressConfig{NodeID: uint32(id)},
		NodeIP:  os.Getenv("NODE_IP"),
	}

	if portStr := os.Getenv("LISTEN_PORT"); portStr != "" {
		port, err := strconv.ParseUint(portStr, 10, 16)
		if err != nil {
			return Config{}, fmt.Errorf("LISTEN_PORT: %w", err)
		}
		cfg.ListenPort = uint16(port)
	}

	cfg.Bootstrap = splitCSV(os.Getenv("BOOTSTRAP_ADDRESS"))
	cfg.Peers = splitCSV(os.Getenv("PEER_ADDRESSES"))

	return cfg, nil
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
