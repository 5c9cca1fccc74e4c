// Package config assembles component configurations from CLI flags and
// environment settings.
package config

import (
	"banksync-service/internal/importer"
	"banksync-service/internal/models"
	"banksync-service/internal/parsers"
	"banksync-service/internal/store"
	syncerrors "banksync-service/pkg/errors"
)

// DefaultCachePath is used when no cache location is configured
const DefaultCachePath = "banksync-cache.db"

// CreateStoreConfig builds the SQL Server store configuration
func CreateStoreConfig(dsn string, logQueries bool) (*store.Config, error) {
	if dsn == "" {
		return nil, syncerrors.ConfigurationError(syncerrors.CodeMissingConfig, "database", dsn, nil)
	}
	return &store.Config{
		DSN:        dsn,
		LogQueries: logQueries,
	}, nil
}

// CreateImporterConfig builds the batch importer configuration
func CreateImporterConfig(windowDays int, dryRun bool) (importer.Config, error) {
	if windowDays < 0 {
		return importer.Config{}, syncerrors.ConfigurationError(
			syncerrors.CodeInvalidConfig, "window-days", windowDays, nil).
			WithSuggestion("the fallback window must be zero (default) or a positive number of days")
	}
	return importer.Config{
		WindowDays: windowDays,
		DryRun:     dryRun,
	}, nil
}

// CreateStatementParser builds the statement export parser for a bank name
func CreateStatementParser(bankName, branch, account string) (*parsers.StatementParser, error) {
	bank, err := models.ParseBank(bankName)
	if err != nil {
		return nil, syncerrors.ValidationError(syncerrors.CodeInvalidBank, "bank", bankName)
	}

	parser, err := parsers.NewStatementParser(bank, branch, account)
	if err != nil {
		return nil, syncerrors.ConfigurationError(syncerrors.CodeInvalidConfig, "parser", bankName, err)
	}
	return parser, nil
}

// ResolveCachePath returns the cache location, falling back to the default
func ResolveCachePath(path string) string {
	if path == "" {
		return DefaultCachePath
	}
	return path
}

// ValidateWorkspace checks a workspace identifier from the CLI
func ValidateWorkspace(workspaceID string) error {
	if workspaceID == "" {
		return syncerrors.ValidationError(syncerrors.CodeMissingField, "workspace", workspaceID).
			WithSuggestion("pass --workspace with the workspace identifier")
	}
	return nil
}
