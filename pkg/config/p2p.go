package config

import "time"

// P2P holds the mesh networking settings of a node.
type P2P struct {
	MaxPeers         int           `yaml:"MaxPeers"`
	MaxHeld          int           `yaml:"MaxHeld"`
	DialTimeout      time.Duration `yaml:"DialTimeout"`
	MaintenanceEvery time.Duration `yaml:"MaintenanceEvery"`
}
