package cmd

import (
	"context"
	"fmt"
	"os"

	"banksync-service/cmd/banksync/config"
	"banksync-service/internal/fingerprint"
	"banksync-service/internal/reporter"
	"banksync-service/internal/store"
	syncerrors "banksync-service/pkg/errors"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	lookupFingerprint string
	lookupProcessRef  string
	lookupLimit       int
)

// lookupCmd queries persisted transactions
var lookupCmd = &cobra.Command{
	Use:   "lookup",
	Short: "Look up persisted transactions",
	Long: `Lookup queries the transaction store either by an exact content
fingerprint (returns at most one row) or by a shipment process reference
(returns every row tagged with it).

Examples:
  banksync lookup --fingerprint 3f5a...e1
  banksync lookup --process-ref DMD.0083/25 --limit 20`,

	PreRunE: validateLookupFlags,
	RunE:    runLookup,
}

func init() {
	rootCmd.AddCommand(lookupCmd)

	lookupCmd.Flags().StringVar(&lookupFingerprint, "fingerprint", "", "64-hex content fingerprint")
	lookupCmd.Flags().StringVar(&lookupProcessRef, "process-ref", "", "process reference (e.g. DMD.0083/25)")
	lookupCmd.Flags().IntVar(&lookupLimit, "limit", 50, "maximum rows to return for --process-ref")
}

func validateLookupFlags(cmd *cobra.Command, args []string) error {
	if lookupFingerprint == "" && lookupProcessRef == "" {
		return fmt.Errorf("one of --fingerprint or --process-ref is required")
	}
	if lookupFingerprint != "" && lookupProcessRef != "" {
		return fmt.Errorf("--fingerprint and --process-ref are mutually exclusive")
	}
	if lookupFingerprint != "" && !fingerprint.IsWellFormed(lookupFingerprint) {
		return fmt.Errorf("fingerprint must be %d lowercase hex characters", fingerprint.HexLen)
	}
	return nil
}

func runLookup(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	storeConfig, err := config.CreateStoreConfig(viper.GetString("database"), viper.GetBool("verbose"))
	if err != nil {
		return err
	}
	txStore, err := store.Open(storeConfig)
	if err != nil {
		return err
	}

	var records []store.TransactionRecord
	if lookupFingerprint != "" {
		record, err := txStore.FindByFingerprint(ctx, lookupFingerprint)
		if err != nil && !syncerrors.IsNotFound(err) {
			return err
		}
		if record != nil {
			records = append(records, *record)
		}
	} else {
		records, err = txStore.FindByProcessRef(ctx, lookupProcessRef, lookupLimit)
		if err != nil {
			return err
		}
	}

	format, err := reporter.ParseFormat(viper.GetString("output"))
	if err != nil {
		return err
	}
	return reporter.NewReporter(os.Stdout, format).ReportTransactions(records)
}
