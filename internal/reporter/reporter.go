// Package reporter renders import results, duplicate-audit findings and
// payment audit history for the CLI, as human-readable console output or
// JSON for programmatic consumption.
package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"banksync-service/internal/importer"
	"banksync-service/internal/models"
	"banksync-service/internal/store"
)

// OutputFormat selects how results are rendered
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	return f == FormatConsole || f == FormatJSON
}

// ParseFormat parses an output format from a CLI flag value
func ParseFormat(s string) (OutputFormat, error) {
	format := OutputFormat(strings.ToLower(strings.TrimSpace(s)))
	if !format.IsValid() {
		return "", fmt.Errorf("unsupported output format '%s': use console or json", s)
	}
	return format, nil
}

// Reporter writes rendered results to an output stream
type Reporter struct {
	out    io.Writer
	format OutputFormat
}

// NewReporter creates a reporter for the given format
func NewReporter(out io.Writer, format OutputFormat) *Reporter {
	if !format.IsValid() {
		format = FormatConsole
	}
	return &Reporter{out: out, format: format}
}

// ReportImport renders a batch import result
func (r *Reporter) ReportImport(result *importer.ImportResult) error {
	if r.format == FormatJSON {
		return r.writeJSON(result)
	}

	fmt.Fprintln(r.out, "Import Summary")
	fmt.Fprintln(r.out, strings.Repeat("-", 40))
	fmt.Fprintf(r.out, "  Processed:       %d\n", result.Processed)
	fmt.Fprintf(r.out, "  Inserted:        %d\n", result.Inserted)
	fmt.Fprintf(r.out, "  Duplicates:      %d\n", result.Duplicates)
	fmt.Fprintf(r.out, "  Errors:          %d\n", result.Errors)
	fmt.Fprintf(r.out, "  Process refs:    %d\n", result.DetectedRefs)
	if result.StorageUnavailable {
		fmt.Fprintln(r.out, "  Status:          ABORTED (storage unavailable)")
	}
	fmt.Fprintf(r.out, "\n%s\n", result.Message)
	return nil
}

// duplicateReport wraps audit findings for JSON output
type duplicateReport struct {
	Groups  []store.DuplicateGroup `json:"groups"`
	Applied bool                   `json:"applied"`
}

// ReportDuplicates renders duplicate-audit findings. applied indicates
// whether the surplus rows were actually deleted.
func (r *Reporter) ReportDuplicates(groups []store.DuplicateGroup, applied bool) error {
	if r.format == FormatJSON {
		return r.writeJSON(duplicateReport{Groups: groups, Applied: applied})
	}

	if len(groups) == 0 {
		fmt.Fprintln(r.out, "No duplicate fingerprints found.")
		return nil
	}

	fmt.Fprintf(r.out, "Duplicate Fingerprints (%d groups)\n", len(groups))
	fmt.Fprintln(r.out, strings.Repeat("-", 40))
	for _, group := range groups {
		fmt.Fprintf(r.out, "  %s  rows=%d  ids=%v\n", shortFingerprint(group.Fingerprint), group.Count, group.RecordIDs)
	}
	if applied {
		fmt.Fprintln(r.out, "\nSurplus rows deleted; the oldest row of each group was kept.")
	} else {
		fmt.Fprintln(r.out, "\nDry run: nothing deleted. Re-run with --apply to repair.")
	}
	return nil
}

// ReportTransactions renders persisted transaction rows from a lookup
func (r *Reporter) ReportTransactions(records []store.TransactionRecord) error {
	if r.format == FormatJSON {
		return r.writeJSON(records)
	}

	if len(records) == 0 {
		fmt.Fprintln(r.out, "No matching transactions.")
		return nil
	}

	fmt.Fprintf(r.out, "%-6s %-10s %-12s %-10s %-7s %-12s %s\n",
		"ID", "BANK", "DATE", "AMOUNT", "SIGN", "PROCESS REF", "DESCRIPTION")
	for _, record := range records {
		fmt.Fprintf(r.out, "%-6d %-10s %-12s %-10s %-7s %-12s %s\n",
			record.ID,
			record.Bank,
			record.PostingDate.Format("2006-01-02"),
			record.Amount.StringFixed(2),
			record.Sign,
			record.ProcessRef,
			truncate(record.Description, 48))
	}
	return nil
}

// ReportSnapshots renders cached shipment snapshots
func (r *Reporter) ReportSnapshots(snapshots []models.ShipmentSnapshot) error {
	if r.format == FormatJSON {
		return r.writeJSON(snapshots)
	}

	if len(snapshots) == 0 {
		fmt.Fprintln(r.out, "No cached snapshots.")
		return nil
	}

	fmt.Fprintf(r.out, "%-14s %-12s %-12s %-20s %s\n", "PROCESS REF", "STATUS", "ETA", "VESSEL", "POD")
	for _, snapshot := range snapshots {
		eta := ""
		if !snapshot.ETA.IsZero() {
			eta = snapshot.ETA.Format("2006-01-02")
		}
		pod := snapshot.PortCode
		if snapshot.PortName != "" {
			pod = fmt.Sprintf("%s (%s)", snapshot.PortCode, snapshot.PortName)
		}
		fmt.Fprintf(r.out, "%-14s %-12s %-12s %-20s %s\n",
			snapshot.ProcessRef, snapshot.Status, eta, truncate(snapshot.Vessel, 20), pod)
	}
	return nil
}

// ReportPayments renders a workspace's payment audit history
func (r *Reporter) ReportPayments(records []store.PaymentAuditRecord) error {
	if r.format == FormatJSON {
		return r.writeJSON(records)
	}

	if len(records) == 0 {
		fmt.Fprintln(r.out, "No payment audit rows.")
		return nil
	}

	fmt.Fprintf(r.out, "%-38s %-8s %-12s %-12s %s\n", "IDEMPOTENCY KEY", "KIND", "AMOUNT", "STATE", "CREATED")
	for _, record := range records {
		fmt.Fprintf(r.out, "%-38s %-8s %-12s %-12s %s\n",
			record.IdempotencyKey,
			record.Kind,
			record.Amount.StringFixed(2),
			record.State,
			record.CreatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

func (r *Reporter) writeJSON(v interface{}) error {
	encoder := json.NewEncoder(r.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func shortFingerprint(fp string) string {
	if len(fp) <= 16 {
		return fp
	}
	return fp[:16] + "..."
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
