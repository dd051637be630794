// Package primitives provides versioning utilities for MachineConfig.
package primitives

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
)

// ComputeVersion computes a deterministic version for MachineConfig.
// Priority: user-provided config.Version, else the first 8 bytes of SHA256(config JSON).
// Descriptors that differ only in map ordering hash the same because
// encoding/json sorts map keys.
func ComputeVersion(config *MachineConfig) string {
	if config.Version != "" {
		return config.Version
	}

	data, err := json.Marshal(config)
	if err != nil {
		return "unversioned"
	}

	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash[:8])
}
