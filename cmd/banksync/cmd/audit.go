package cmd

import (
	"context"
	"fmt"
	"os"

	"banksync-service/cmd/banksync/config"
	"banksync-service/internal/reporter"
	"banksync-service/internal/store"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	auditApply bool
	auditLimit int
)

// auditCmd scans the store for fingerprint invariant violations
var auditCmd = &cobra.Command{
	Use:   "audit-dups",
	Short: "Find and repair duplicate fingerprint rows",
	Long: `Audit-dups scans the transaction store for fingerprints with more
than one persisted row. Such rows violate the one-row-per-fingerprint
invariant (the column is indexed but uniqueness is enforced by the
application, so a bug or manual insert can break it).

By default the scan is a dry run. With --apply the oldest row of each group
is kept and the rest are deleted.

Examples:
  banksync audit-dups
  banksync audit-dups --apply
  banksync audit-dups --limit 10 --output json`,

	RunE: runAudit,
}

func init() {
	rootCmd.AddCommand(auditCmd)

	auditCmd.Flags().BoolVar(&auditApply, "apply", false, "delete surplus rows, keeping the oldest of each group")
	auditCmd.Flags().IntVar(&auditLimit, "limit", 0, "maximum duplicate groups to report (0 = all)")
}

func runAudit(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	storeConfig, err := config.CreateStoreConfig(viper.GetString("database"), viper.GetBool("verbose"))
	if err != nil {
		return err
	}
	txStore, err := store.Open(storeConfig)
	if err != nil {
		return err
	}

	groups, err := txStore.FindDuplicateGroups(ctx, auditLimit)
	if err != nil {
		return err
	}

	if auditApply {
		for _, group := range groups {
			if len(group.RecordIDs) < 2 {
				continue
			}
			// RecordIDs are ordered by id; the first is the oldest row.
			if err := txStore.DeleteRecords(ctx, group.RecordIDs[1:]); err != nil {
				return err
			}
		}
	}

	format, err := reporter.ParseFormat(viper.GetString("output"))
	if err != nil {
		return err
	}
	if err := reporter.NewReporter(os.Stdout, format).ReportDuplicates(groups, auditApply); err != nil {
		return err
	}

	if len(groups) > 0 && !auditApply && format == reporter.FormatConsole {
		fmt.Fprintln(os.Stderr, "Found invariant violations; inspect before applying.")
	}
	return nil
}
