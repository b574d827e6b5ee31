package export

import (
	"bufio"
	"bytes"
	"io"
	"strconv"
	"strings"

	"github.com/j-veylop/vault-usage-export/internal/models"
)

// SummaryHeader is the column order of a summary export.
var SummaryHeader = []string{
	"TenantDisplayName", "TenantId", "TenantStatus", "TenantRegion", "TenantCreatedAt",
	"SubscriptionId", "SubscriptionEdition", "SubscriptionLimitTB", "SubscriptionExpires",
	"TenantOverallUsageTB", "TenantVaultCount", "TenantStorageRegions",
}

// DetailedHeader is the column order of a detailed export.
var DetailedHeader = append(append([]string{}, SummaryHeader...),
	"VaultDisplayName", "VaultStorageName", "UsageMonth", "UsageTB",
)

// WriteCSV renders rows as CSV. Text fields are always quoted; numeric
// fields are written bare. Every line, the header included, ends in "\n".
func WriteCSV(w io.Writer, rows []models.ExportRow, summary bool) error {
	bw := bufio.NewWriter(w)

	header := DetailedHeader
	if summary {
		header = SummaryHeader
	}
	if _, err := bw.WriteString(strings.Join(header, ",") + "\n"); err != nil {
		return err
	}

	fields := make([]string, 0, len(DetailedHeader))
	for i := range rows {
		fields = appendRow(fields[:0], &rows[i], summary)
		if _, err := bw.WriteString(strings.Join(fields, ",") + "\n"); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// RenderCSV is WriteCSV into a byte slice.
func RenderCSV(rows []models.ExportRow, summary bool) []byte {
	var buf bytes.Buffer
	_ = WriteCSV(&buf, rows, summary)
	return buf.Bytes()
}

func appendRow(fields []string, r *models.ExportRow, summary bool) []string {
	fields = append(fields,
		quote(r.TenantDisplayName),
		quote(r.TenantID),
		quote(r.TenantStatus),
		quote(r.TenantRegion),
		quote(r.TenantCreatedAt),
		quote(r.SubscriptionID),
		quote(r.SubscriptionEdition),
		number(r.SubscriptionLimitTB),
		quote(r.SubscriptionExpires),
		optionalNumber(r.TenantOverallUsageTB),
		optionalNumber(r.TenantVaultCount),
		quote(r.TenantStorageRegions),
	)
	if summary {
		return fields
	}
	return append(fields,
		quote(r.VaultDisplayName),
		quote(r.VaultStorageName),
		quote(r.UsageMonth),
		number(r.UsageTB),
	)
}

// quote wraps v in double quotes, doubling any quote inside it.
func quote(v string) string {
	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}

// number formats f with the fewest digits that round-trip.
func number(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// optionalNumber renders a missing value as an empty field.
func optionalNumber(f *float64) string {
	if f == nil {
		return ""
	}
	return number(*f)
}
