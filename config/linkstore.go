package config

import (
	"fmt"

	"github.com/gridfold/ucommit/infra/linkstore"
)

// LinkStoreConfig selects where boundary snapshots are exchanged.
type LinkStoreConfig struct {
	// Backend is "file" or "mqtt".
	Backend string               `json:"backend"`
	Dir     string               `json:"dir"`
	MQTT    linkstore.MQTTConfig `json:"mqtt"`
}

// SetDefaults applies sane defaults.
func (c *LinkStoreConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "file"
	}
	if c.Dir == "" {
		c.Dir = "boundaries"
	}
}

// Validate checks mandatory fields.
func (c LinkStoreConfig) Validate() error {
	switch c.Backend {
	case "file":
		if c.Dir == "" {
			return fmt.Errorf("link store dir is required")
		}
		return nil
	case "mqtt":
		return c.MQTT.Validate()
	default:
		return fmt.Errorf("unknown link store backend %s", c.Backend)
	}
}

// NewStore builds the configured store.
func (c LinkStoreConfig) NewStore() (linkstore.Store, error) {
	switch c.Backend {
	case "mqtt":
		return linkstore.NewMQTTStore(c.MQTT)
	default:
		return linkstore.NewFileStore(c.Dir)
	}
}
