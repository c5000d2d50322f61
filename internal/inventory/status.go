// Copyright (c) 2025 Gabriel Lawrence
//
// Licensed under the MIT License. See LICENSE file in the project root for full license information.

package inventory

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/gebl/netbox-assistant/internal/logging"
)

// MinimumVersion is the oldest NetBox release the assistant is tested against.
const MinimumVersion = ">= 3.0.0"

// ServerStatus is the subset of /api/status/ the assistant reports.
type ServerStatus struct {
	Version   string `json:"netbox-version"`
	Python    string `json:"python-version,omitempty"`
	Supported bool   `json:"-"`
}

// Status fetches /api/status/ and checks the reported version against
// MinimumVersion. An unreachable server or unparsable version is an error.
func (c *Client) Status(ctx context.Context) (ServerStatus, error) {
	result := c.Read(ctx, "/api/status/", nil)
	if err := result.Err(); err != nil {
		return ServerStatus{}, fmt.Errorf("failed to query NetBox status: %w", err)
	}

	var status ServerStatus
	if err := json.Unmarshal(result.Payload, &status); err != nil {
		return ServerStatus{}, fmt.Errorf("failed to decode NetBox status: %w", err)
	}

	supported, err := VersionSupported(status.Version)
	if err != nil {
		return status, err
	}
	status.Supported = supported
	if !supported {
		logging.InventoryLogger.Warn("NetBox version is older than supported", "version", status.Version, "required", MinimumVersion)
	} else {
		logging.InventoryLogger.Info("NetBox reachable", "version", status.Version)
	}
	return status, nil
}

// VersionSupported reports whether version satisfies MinimumVersion.
// Build suffixes such as "4.1.3-Docker-3.0.1" are ignored.
func VersionSupported(version string) (bool, error) {
	v, err := semver.NewVersion(version)
	if err != nil {
		return false, fmt.Errorf("invalid NetBox version %q: %w", version, err)
	}
	release, err := v.SetPrerelease("")
	if err != nil {
		return false, fmt.Errorf("invalid NetBox version %q: %w", version, err)
	}
	constraint, err := semver.NewConstraint(MinimumVersion)
	if err != nil {
		return false, err
	}
	return constraint.Check(&release), nil
}
