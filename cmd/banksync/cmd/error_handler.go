package cmd

import (
	"fmt"
	"os"

	"banksync-service/pkg/errors"
	"banksync-service/pkg/logger"

	"github.com/spf13/viper"
)

// CLIErrorHandler turns errors into user-facing messages and exit codes
type CLIErrorHandler struct {
	logger  logger.Logger
	verbose bool
}

// NewCLIErrorHandler creates a new CLI error handler
func NewCLIErrorHandler() *CLIErrorHandler {
	return &CLIErrorHandler{
		logger:  logger.GetGlobalLogger().WithComponent("cli"),
		verbose: viper.GetBool("verbose"),
	}
}

// HandleError prints a user-friendly message and returns the process exit code
func (h *CLIErrorHandler) HandleError(err error) int {
	if err == nil {
		return 0
	}

	h.logger.WithError(err).Error("Command failed")

	if syncErr, ok := errors.AsSyncError(err); ok {
		return h.handleSyncError(syncErr)
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	if !h.verbose {
		fmt.Fprintf(os.Stderr, "Run with --verbose for more detail\n")
	}
	return 1
}

func (h *CLIErrorHandler) handleSyncError(err *errors.SyncError) int {
	fmt.Fprintf(os.Stderr, "Error: %s\n", err.Message)

	if len(err.Context) > 0 {
		fmt.Fprintf(os.Stderr, "\nContext:\n")
		for key, value := range err.Context {
			fmt.Fprintf(os.Stderr, "  %s: %v\n", key, value)
		}
	}

	if err.Suggestion != "" {
		fmt.Fprintf(os.Stderr, "\nSuggestion: %s\n", err.Suggestion)
	}

	if help := h.categoryHelp(err.Category); help != "" {
		fmt.Fprintf(os.Stderr, "\n%s\n", help)
	}

	if h.verbose && err.Cause != nil {
		fmt.Fprintf(os.Stderr, "\nUnderlying error: %v\n", err.Cause)
	}

	return err.GetExitCode()
}

func (h *CLIErrorHandler) categoryHelp(category errors.ErrorCategory) string {
	switch category {
	case errors.CategoryValidation:
		return `Validation error help:
- Check that required fields have values
- Dates use DD/MM/YYYY or YYYY-MM-DD; amounts are non-zero decimals
- Supported banks: bb, santander`

	case errors.CategoryStorage:
		return `Storage error help:
- Check the database DSN (--database or BANKSYNC_DATABASE)
- Verify the SQL Server instance is reachable
- Aborted imports are safe to re-run: rows deduplicate by fingerprint`

	case errors.CategoryConfiguration:
		return `Configuration error help:
- Check your command-line flags and arguments
- Settings can come from flags, BANKSYNC_* env vars, or --config
- Use 'banksync --help' to see all available options`

	case errors.CategoryRemote:
		return `Remote error help:
- The bank rejected or failed the request; see the payload above
- Check credentials and retry later if the bank is unavailable`

	default:
		return ""
	}
}
