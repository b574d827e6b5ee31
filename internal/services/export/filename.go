package export

import (
	"strings"
	"time"

	"github.com/j-veylop/vault-usage-export/internal/models"
)

// SanitizeName replaces every character outside [a-zA-Z0-9] with '_'.
func SanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, name)
}

// BaseFilename picks the filename stem for a scope. tenantName is only used
// for single-tenant exports.
func BaseFilename(prefix string, scope models.Scope, tenantName string) string {
	switch scope.Kind {
	case models.ScopeSummaryOnly:
		return prefix + "_summary_export"
	case models.ScopeSingleTenant:
		return prefix + "_" + SanitizeName(tenantName) + "_export"
	default:
		return prefix + "_export"
	}
}

// Filename appends the local calendar date of now and the .csv extension.
func Filename(base string, now time.Time) string {
	return base + "_" + now.Format("2006-01-02") + ".csv"
}
