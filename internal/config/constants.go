// Package config contains everything related to configuration
package config

import (
	"fmt"
	"strings"
)

// DefaultFilenamePrefix starts every exported CSV filename.
const DefaultFilenamePrefix = "veeam_data_cloud"

// Portal hosts.
const (
	ProductionHost = "cloud.veeam.com"
	StagingHost    = "stage.cloud.veeam.com"
)

// Environment selects the portal the API calls go to.
type Environment string

const (
	// EnvProduction targets the production portal.
	EnvProduction Environment = "production"
	// EnvStaging targets the staging portal.
	EnvStaging Environment = "staging"
)

// BaseURL returns the API base URL of the environment.
func (e Environment) BaseURL() string {
	if e == EnvStaging {
		return "https://" + StagingHost + "/api"
	}
	return "https://" + ProductionHost + "/api"
}

// ParseEnvironment accepts "production"/"prod" and "staging"/"stage".
func ParseEnvironment(s string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "production", "prod":
		return EnvProduction, nil
	case "staging", "stage":
		return EnvStaging, nil
	default:
		return "", fmt.Errorf("unknown environment %q (want production or staging)", s)
	}
}
