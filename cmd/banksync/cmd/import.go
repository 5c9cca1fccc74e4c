package cmd

import (
	"context"
	"fmt"
	"os"

	"banksync-service/cmd/banksync/config"
	"banksync-service/internal/importer"
	"banksync-service/internal/reporter"
	"banksync-service/internal/store"
	"banksync-service/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the import command
var (
	importBank       string
	importBranch     string
	importAccount    string
	importFile       string
	importDryRun     bool
	importWindowDays int
)

// importCmd imports a statement export into the transaction store
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a bank statement export",
	Long: `Import parses a statement export CSV and writes each row to the
transaction store, skipping rows whose content fingerprint already exists.
Rows from Santander additionally pass a fallback duplicate heuristic that
catches re-exported movements whose description format drifted.

A rerun of the same file is always safe: persisted rows deduplicate by
fingerprint.

Examples:
  banksync import --bank bb --branch 1234-5 --account 67890-1 --file extrato.csv
  banksync import --bank santander --branch 0001 --account 555555 --file stmt.csv --dry-run
  banksync import --bank santander --branch 0001 --account 555555 --file stmt.csv --window-days 14`,

	PreRunE: validateImportFlags,
	RunE:    runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVar(&importBank, "bank", "", "source bank: bb or santander (required)")
	importCmd.Flags().StringVar(&importBranch, "branch", "", "branch the export belongs to (required)")
	importCmd.Flags().StringVar(&importAccount, "account", "", "account the export belongs to (required)")
	importCmd.Flags().StringVarP(&importFile, "file", "f", "", "path to the statement export CSV (required)")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "resolve and count every row but write nothing")
	importCmd.Flags().IntVar(&importWindowDays, "window-days", 0, "fallback heuristic window in days (0 = default)")

	importCmd.MarkFlagRequired("bank")
	importCmd.MarkFlagRequired("branch")
	importCmd.MarkFlagRequired("account")
	importCmd.MarkFlagRequired("file")
}

func validateImportFlags(cmd *cobra.Command, args []string) error {
	if importFile == "" {
		return fmt.Errorf("statement export file is required")
	}
	info, err := os.Stat(importFile)
	if os.IsNotExist(err) {
		return fmt.Errorf("statement export does not exist: %s", importFile)
	}
	if err != nil {
		return fmt.Errorf("error accessing statement export: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("statement export is a directory, expected a file: %s", importFile)
	}
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	op := logger.NewOperationLogger("statement_import", nil)

	parser, err := config.CreateStatementParser(importBank, importBranch, importAccount)
	if err != nil {
		op.Error(err, "Import setup failed")
		return err
	}

	importerConfig, err := config.CreateImporterConfig(importWindowDays, importDryRun)
	if err != nil {
		op.Error(err, "Import setup failed")
		return err
	}

	op.Step("parse statement export")
	txs, stats, err := parser.ParseStatementsWithContext(ctx, importFile)
	if err != nil {
		op.Error(err, "Statement parsing failed")
		return err
	}
	if stats.HasErrors() && viper.GetBool("verbose") {
		for _, parseErr := range stats.Errors {
			fmt.Fprintf(os.Stderr, "skipped: %v\n", parseErr)
		}
	}

	op.Step("open transaction store")
	storeConfig, err := config.CreateStoreConfig(viper.GetString("database"), viper.GetBool("verbose"))
	if err != nil {
		op.Error(err, "Import setup failed")
		return err
	}
	txStore, err := store.Open(storeConfig)
	if err != nil {
		op.Error(err, "Store connection failed")
		return err
	}

	op.Step("import batch")
	imp := importer.NewImporter(txStore, importerConfig)
	result := imp.ImportBatch(ctx, txs)
	op.Success("Statement import finished")

	// Rows the parser rejected count toward the batch's error total so the
	// summary reflects the whole file.
	result.Errors += stats.ErrorCount

	format, err := reporter.ParseFormat(viper.GetString("output"))
	if err != nil {
		return err
	}
	return reporter.NewReporter(os.Stdout, format).ReportImport(result)
}
