package aggregate

import "fmt"

// FatalFetchError aborts an export. Message is meant to be shown verbatim.
type FatalFetchError struct {
	Err     error
	Message string
}

func (e *FatalFetchError) Error() string {
	return e.Message
}

func (e *FatalFetchError) Unwrap() error {
	return e.Err
}

func fatal(message string, err error) *FatalFetchError {
	return &FatalFetchError{Message: message, Err: err}
}

// ScopeNotFoundError is returned when a single-tenant export names a tenant
// the organization does not have.
type ScopeNotFoundError struct {
	TenantID    string
	TenantCount int
}

func (e *ScopeNotFoundError) Error() string {
	return fmt.Sprintf("Tenant with ID %s not found in organization's %d tenants.", e.TenantID, e.TenantCount)
}

// MetadataDecodeError describes tenant metadata that is not valid JSON. It is
// logged, never returned from Run.
type MetadataDecodeError struct {
	Err      error
	TenantID string
}

func (e *MetadataDecodeError) Error() string {
	return fmt.Sprintf("failed to parse metadata for tenant %s: %v", e.TenantID, e.Err)
}

func (e *MetadataDecodeError) Unwrap() error {
	return e.Err
}
