package store

import (
	"context"
	"strings"
	"time"

	"banksync-service/internal/models"
	syncerrors "banksync-service/pkg/errors"
	"banksync-service/pkg/logger"
)

// Resolution is the outcome of a duplicate check for one incoming transaction
type Resolution struct {
	// Exists is true when a persisted row matches the transaction
	Exists bool
	// DateMismatch is true when the matched row's posting date differs from
	// the newly observed one; the caller repairs it via UpdatePostingDate
	DateMismatch bool
	// StorageID is the matched row's primary key, zero when Exists is false
	StorageID uint
}

// DefaultWindowDays bounds the fallback heuristic to a rolling window of
// recent posting dates
const DefaultWindowDays = 7

// Resolver decides whether an incoming transaction has already been
// persisted. The primary path is an exact fingerprint lookup. For Santander
// a secondary heuristic catches rows whose fingerprint drifted because the
// upstream description format changed: amount differing by strictly less
// than 0.01, same sign, description containment, posting date inside the
// rolling window.
type Resolver struct {
	store      TransactionStore
	windowDays int
	log        logger.Logger
	// now is injectable for tests
	now func() time.Time
}

// NewResolver creates a resolver over the given store. windowDays <= 0
// falls back to DefaultWindowDays.
func NewResolver(store TransactionStore, windowDays int) *Resolver {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	return &Resolver{
		store:      store,
		windowDays: windowDays,
		log:        logger.GetGlobalLogger().WithComponent("resolver"),
		now:        time.Now,
	}
}

// Resolve checks whether the transaction already exists in storage.
//
// Storage failures are returned classified (storage_unavailable versus
// other) so the batch importer can distinguish "abort the batch" from
// "count and continue". A clean miss returns a zero Resolution and nil
// error - absence is not an error.
func (r *Resolver) Resolve(ctx context.Context, tx *models.Transaction, fp string) (Resolution, error) {
	record, err := r.store.FindByFingerprint(ctx, fp)
	if err == nil {
		return Resolution{
			Exists:       true,
			DateMismatch: !models.SameDate(record.PostingDate, tx.PostingDate),
			StorageID:    record.ID,
		}, nil
	}

	if !syncerrors.IsNotFound(err) {
		return Resolution{}, err
	}

	// Fingerprint miss. Only Santander gets the heuristic second pass;
	// BB document numbers are stable enough that a miss means a new row.
	if tx.Bank != models.BankSantander {
		return Resolution{}, nil
	}

	return r.resolveByHeuristic(ctx, tx)
}

func (r *Resolver) resolveByHeuristic(ctx context.Context, tx *models.Transaction) (Resolution, error) {
	since := r.now().AddDate(0, 0, -r.windowDays)

	candidates, err := r.store.FindCandidates(ctx, tx.Bank, tx.Branch, tx.Account, tx.Amount.Abs(), tx.Sign, since)
	if err != nil {
		return Resolution{}, err
	}

	needle := strings.ToUpper(strings.TrimSpace(tx.TruncatedDescription()))
	if needle == "" {
		return Resolution{}, nil
	}

	for _, candidate := range candidates {
		haystack := strings.ToUpper(strings.TrimSpace(candidate.Description))
		if haystack == "" {
			continue
		}
		if strings.Contains(haystack, needle) || strings.Contains(needle, haystack) {
			r.log.WithFields(logger.Fields{
				"record_id": candidate.ID,
				"amount":    tx.Amount.String(),
			}).Debug("Heuristic fallback matched a persisted row")
			return Resolution{
				Exists:       true,
				DateMismatch: !models.SameDate(candidate.PostingDate, tx.PostingDate),
				StorageID:    candidate.ID,
			}, nil
		}
	}

	return Resolution{}, nil
}
