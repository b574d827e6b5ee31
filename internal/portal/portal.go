// Package portal derives the export context from a portal page URL: which
// environment to call, and whether the page is scoped to one tenant or to
// the tenants overview where a summary export is offered.
package portal

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/j-veylop/vault-usage-export/internal/config"
	"github.com/j-veylop/vault-usage-export/internal/models"
)

var (
	// ErrNotPortal is returned for URLs outside the portal hosts.
	ErrNotPortal = errors.New("not a Veeam Data Cloud portal URL")
	// ErrWrongService is returned for portal URLs outside the Vault service.
	ErrWrongService = errors.New("portal page is not part of the Vault service")
	// ErrSummaryUnavailable is returned when a summary export is requested
	// for a page other than the tenants overview.
	ErrSummaryUnavailable = errors.New("summary export is only offered on the tenants overview page")
)

var tenantPathRe = regexp.MustCompile(`^/vault(?:/app)?/tenant/([0-9a-fA-F-]+)`)

// Context is what a portal URL says about the export to run.
type Context struct {
	Environment      config.Environment
	BaseURL          string
	TenantID         string
	SummaryAvailable bool
}

// Scope returns the default scope of the page. Summary pages still default
// to all tenants; summary mode is opt-in.
func (c Context) Scope() models.Scope {
	if c.TenantID != "" {
		return models.SingleTenant(c.TenantID)
	}
	return models.AllTenants()
}

// AllowSummary reports whether the page offers a summary export.
func (c Context) AllowSummary() error {
	if !c.SummaryAvailable {
		return ErrSummaryUnavailable
	}
	return nil
}

// ParseURL inspects a portal page URL.
func ParseURL(raw string) (*Context, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse portal url: %w", err)
	}

	host := strings.ToLower(u.Hostname())
	var env config.Environment
	switch {
	case matchesHost(host, config.StagingHost):
		env = config.EnvStaging
	case matchesHost(host, config.ProductionHost):
		env = config.EnvProduction
	default:
		return nil, ErrNotPortal
	}

	if !strings.HasPrefix(u.Path, "/vault") {
		return nil, ErrWrongService
	}

	ctx := &Context{Environment: env, BaseURL: env.BaseURL()}

	if m := tenantPathRe.FindStringSubmatch(u.Path); m != nil {
		ctx.TenantID = m[1]
		return ctx, nil
	}

	switch env {
	case config.EnvStaging:
		ctx.SummaryAvailable = strings.HasSuffix(raw, "/vault/manage")
	default:
		ctx.SummaryAvailable = strings.Contains(u.Path, "/vault/manage/tenants")
	}
	return ctx, nil
}

func matchesHost(host, want string) bool {
	return host == want || strings.HasSuffix(host, "."+want)
}
