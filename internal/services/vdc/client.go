// Package vdc is the HTTP client for the portal's identity, subscription,
// workload-tenant and storage-statistics resources.
package vdc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/j-veylop/vault-usage-export/internal/logger"
	"github.com/j-veylop/vault-usage-export/internal/models"
)

// maxErrorBody caps how much of a failed response is kept in the reason.
const maxErrorBody = 512

// Config holds configuration for the client.
type Config struct {
	BaseURL       string
	AuthToken     string
	SessionCookie string
	UserAgent     string
	Timeout       time.Duration
}

// Endpoints builds resource URLs relative to a base URL.
type Endpoints struct {
	base string
}

// NewEndpoints returns the endpoint builder for baseURL.
func NewEndpoints(baseURL string) Endpoints {
	return Endpoints{base: strings.TrimRight(baseURL, "/")}
}

// Me is the identity endpoint.
func (e Endpoints) Me() string {
	return e.base + "/me"
}

// Subscriptions lists the subscriptions of an organization.
func (e Endpoints) Subscriptions(orgID string) string {
	return fmt.Sprintf("%s/subscriptions-svc/organizations/%s/subscriptions", e.base, url.PathEscape(orgID))
}

// WorkloadTenants lists the vault workload tenants of an organization.
func (e Endpoints) WorkloadTenants(orgID string) string {
	return fmt.Sprintf("%s/workload-tenants-svc/organizations/%s/workload-tenants?workloadType=VAULT",
		e.base, url.PathEscape(orgID))
}

// StorageStats returns the monthly storage statistics of one tenant.
func (e Endpoints) StorageStats(tenantID string) string {
	return fmt.Sprintf("%s/vault/api/cust-StorageAccount/collectionStorageUsedStatistics?wl_tenant_id=%s",
		e.base, url.QueryEscape(tenantID))
}

// Client performs single-attempt GET calls against the portal API.
type Client struct {
	httpClient *http.Client
	endpoints  Endpoints
	config     Config
}

// New creates a new client.
func New(config Config) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: config.Timeout},
		endpoints:  NewEndpoints(config.BaseURL),
		config:     config,
	}
}

// NewWithHTTPClient creates a client that sends requests through hc.
func NewWithHTTPClient(config Config, hc *http.Client) *Client {
	c := New(config)
	c.httpClient = hc
	return c
}

// Endpoints returns the URL builder used by the client.
func (c *Client) Endpoints() Endpoints {
	return c.endpoints
}

type subscriptionsResponse struct {
	Subscriptions struct {
		Subscriptions []models.Subscription `json:"subscriptions"`
	} `json:"subscriptions"`
}

type storageStatsResponse struct {
	StorageStatistics []models.StorageUnit `json:"storageStatistics"`
}

// FetchIdentity returns the organization of the current session.
func (c *Client) FetchIdentity(ctx context.Context) (*models.Organization, error) {
	var org models.Organization
	if err := c.getJSON(ctx, ResourceIdentity, c.endpoints.Me(), &org); err != nil {
		return nil, err
	}
	return &org, nil
}

// FetchSubscriptions returns every subscription of the organization.
func (c *Client) FetchSubscriptions(ctx context.Context, orgID string) ([]models.Subscription, error) {
	var resp subscriptionsResponse
	if err := c.getJSON(ctx, ResourceSubscriptions, c.endpoints.Subscriptions(orgID), &resp); err != nil {
		return nil, err
	}
	return resp.Subscriptions.Subscriptions, nil
}

// FetchWorkloadTenants returns the vault workload tenants of the organization.
func (c *Client) FetchWorkloadTenants(ctx context.Context, orgID string) ([]models.WorkloadTenant, error) {
	var tenants []models.WorkloadTenant
	if err := c.getJSON(ctx, ResourceWorkloadTenants, c.endpoints.WorkloadTenants(orgID), &tenants); err != nil {
		return nil, err
	}
	return tenants, nil
}

// FetchStorageStats returns the storage units and monthly usage of a tenant.
func (c *Client) FetchStorageStats(ctx context.Context, tenantID string) ([]models.StorageUnit, error) {
	var resp storageStatsResponse
	if err := c.getJSON(ctx, ResourceStorageStats, c.endpoints.StorageStats(tenantID), &resp); err != nil {
		return nil, err
	}
	return resp.StorageStatistics, nil
}

// getJSON issues one GET and decodes a 2xx body into out.
func (c *Client) getJSON(ctx context.Context, resource Resource, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return &FetchError{Resource: resource, URL: rawURL, Reason: "failed to create request", Err: err}
	}
	c.setHeaders(req)

	logger.Debug("vdc request", "resource", string(resource), "url", rawURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &FetchError{Resource: resource, URL: rawURL, Reason: err.Error(), Err: err}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Error("failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		reason := strings.TrimSpace(string(body))
		if reason == "" {
			reason = http.StatusText(resp.StatusCode)
		}
		return &FetchError{Resource: resource, URL: rawURL, StatusCode: resp.StatusCode, Reason: reason}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &FetchError{Resource: resource, URL: rawURL, Reason: "invalid response body", Err: err}
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}
	if c.config.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.AuthToken)
	}
	if c.config.SessionCookie != "" {
		req.Header.Set("Cookie", c.config.SessionCookie)
	}
}
