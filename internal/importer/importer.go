// Package importer runs statement export batches against the transaction
// store: fingerprint, duplicate resolution, process reference extraction
// and persistence, row by row.
package importer

import (
	"context"
	"fmt"

	"banksync-service/internal/fingerprint"
	"banksync-service/internal/models"
	"banksync-service/internal/procref"
	"banksync-service/internal/store"
	syncerrors "banksync-service/pkg/errors"
	"banksync-service/pkg/logger"
)

// rowLogInterval is how often the progress counter is emitted
const rowLogInterval = 10

// Config holds batch import settings
type Config struct {
	// WindowDays bounds the duplicate resolver's fallback heuristic;
	// <= 0 uses the resolver default
	WindowDays int
	// DryRun resolves and counts every row but writes nothing
	DryRun bool
}

// ImportResult summarizes one batch run. Counts are always populated, even
// when the batch aborted early; a rerun is safe because persisted rows are
// deduplicated by fingerprint.
type ImportResult struct {
	// Processed counts rows actually attempted
	Processed int `json:"processed"`
	// Inserted counts rows persisted as new transactions
	Inserted int `json:"inserted"`
	// Duplicates counts rows matched to an already persisted transaction
	Duplicates int `json:"duplicates"`
	// Errors counts rows rejected by business rules; the batch continues
	// past them
	Errors int `json:"errors"`
	// DetectedRefs counts rows whose description yielded a process reference
	DetectedRefs int `json:"detected_refs"`
	// StorageUnavailable is true when the batch aborted because the store
	// became unreachable; unprocessed rows were never attempted
	StorageUnavailable bool `json:"storage_unavailable"`
	// Message is a short human-readable diagnostic
	Message string `json:"message"`
}

// importState carries per-batch one-shot flags so repeated conditions are
// logged once instead of once per row
type importState struct {
	storageDownLogged       bool
	missingIdentifierLogged bool
}

// Importer orchestrates batch imports over a transaction store
type Importer struct {
	store    store.TransactionStore
	resolver *store.Resolver
	config   Config
	log      logger.Logger
}

// NewImporter creates an importer over the given store
func NewImporter(txStore store.TransactionStore, config Config) *Importer {
	return &Importer{
		store:    txStore,
		resolver: store.NewResolver(txStore, config.WindowDays),
		config:   config,
		log:      logger.GetGlobalLogger().WithComponent("importer"),
	}
}

// ImportBatch processes a parsed statement export row by row. Business-rule
// failures (bad date, zero amount) are counted and skipped; the first
// storage_unavailable classification aborts the remainder of the batch.
func (i *Importer) ImportBatch(ctx context.Context, txs []*models.Transaction) *ImportResult {
	result := &ImportResult{}
	state := &importState{}

	tracker := logger.NewRowTracker("import", int64(len(txs)), rowLogInterval, i.log)

	for _, tx := range txs {
		result.Processed++
		tracker.Increment()

		if aborted := i.importRow(ctx, tx, result, state); aborted {
			result.StorageUnavailable = true
			break
		}
	}

	result.Message = i.summarize(result, len(txs))

	if result.StorageUnavailable {
		tracker.CompleteWithError(syncerrors.New(
			syncerrors.CategoryStorage, syncerrors.CodeStorageUnavailable, result.Message))
	} else {
		tracker.Complete()
	}

	return result
}

// importRow handles one transaction; it returns true when the batch must
// abort because storage became unavailable
func (i *Importer) importRow(ctx context.Context, tx *models.Transaction, result *ImportResult, state *importState) bool {
	if err := tx.Validate(); err != nil {
		result.Errors++
		i.log.WithError(err).WithField("transaction", tx.String()).Warn("Rejected invalid transaction")
		return false
	}

	if tx.UniqueIdentifier() == "" && !state.missingIdentifierLogged {
		state.missingIdentifierLogged = true
		i.log.WithField("bank", tx.Bank.String()).
			Warn("Batch contains rows without a bank-side identifier; fingerprints degrade to the remaining fields")
	}

	fp, err := fingerprint.Compute(tx)
	if err != nil {
		result.Errors++
		i.log.WithError(err).WithField("transaction", tx.String()).Warn("Failed to fingerprint transaction")
		return false
	}

	resolution, err := i.resolver.Resolve(ctx, tx, fp)
	if err != nil {
		return i.handleStorageError(err, "duplicate resolution", result, state)
	}

	if resolution.Exists {
		result.Duplicates++
		if resolution.DateMismatch && !i.config.DryRun {
			if err := i.store.UpdatePostingDate(ctx, resolution.StorageID, tx.PostingDate); err != nil {
				return i.handleStorageError(err, "posting date repair", result, state)
			}
			i.log.WithFields(logger.Fields{
				"record_id":    resolution.StorageID,
				"posting_date": tx.PostingDate.Format("2006-01-02"),
			}).Info("Repaired posting date on duplicate row")
		}
		return false
	}

	processRef, found := procref.Extract(tx.Description)
	if found {
		result.DetectedRefs++
	}

	if i.config.DryRun {
		result.Inserted++
		return false
	}

	record := store.NewTransactionRecord(tx, fp, processRef)
	if err := i.store.Insert(ctx, record); err != nil {
		return i.handleStorageError(err, "insert", result, state)
	}

	result.Inserted++
	return false
}

// handleStorageError distinguishes "abort the batch" from "count and
// continue". Returns true on abort.
func (i *Importer) handleStorageError(err error, operation string, result *ImportResult, state *importState) bool {
	if syncerrors.IsStorageUnavailable(err) {
		if !state.storageDownLogged {
			state.storageDownLogged = true
			i.log.WithError(err).Error("Storage unavailable; aborting the remainder of the batch")
		}
		return true
	}

	result.Errors++
	i.log.WithError(err).WithField("operation", operation).Warn("Row failed; continuing with the batch")
	return false
}

func (i *Importer) summarize(result *ImportResult, total int) string {
	msg := fmt.Sprintf("processed %d/%d rows: %d inserted, %d duplicates, %d errors, %d process refs detected",
		result.Processed, total, result.Inserted, result.Duplicates, result.Errors, result.DetectedRefs)
	if i.config.DryRun {
		msg += " (dry run, nothing written)"
	}
	if result.StorageUnavailable {
		msg += " (aborted: storage unavailable, remaining rows untouched; rerun is safe)"
	}
	return msg
}
