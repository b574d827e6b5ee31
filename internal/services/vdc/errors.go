package vdc

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnauthorized matches fetch failures caused by a missing or expired session.
var ErrUnauthorized = errors.New("unauthorized")

// Resource names one of the logical endpoints.
type Resource string

// Resources served by the portal API.
const (
	ResourceIdentity        Resource = "identity"
	ResourceSubscriptions   Resource = "subscriptions"
	ResourceWorkloadTenants Resource = "workload tenants"
	ResourceStorageStats    Resource = "storage statistics"
)

// FetchError is returned for any failed GET. StatusCode is zero for
// transport and decode failures.
type FetchError struct {
	Err        error
	Resource   Resource
	URL        string
	Reason     string
	StatusCode int
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: HTTP %d: %s", e.Resource, e.StatusCode, e.Reason)
	}
	return fmt.Sprintf("fetch %s: %s", e.Resource, e.Reason)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrUnauthorized) match 401 and 403 responses.
func (e *FetchError) Is(target error) bool {
	if target != ErrUnauthorized {
		return false
	}
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}
