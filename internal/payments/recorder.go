// Package payments keeps the local audit trail of payment intents. The
// payment lifecycle itself is owned by the bank; this package only records
// observed states and refuses backwards transitions.
package payments

import (
	"context"

	"banksync-service/internal/models"
	"banksync-service/internal/store"
	syncerrors "banksync-service/pkg/errors"
	"banksync-service/pkg/logger"

	"github.com/shopspring/decimal"
)

// PaymentStore is the persistence contract the recorder depends on;
// *store.GormStore satisfies it
type PaymentStore interface {
	InsertPaymentAudit(ctx context.Context, record *store.PaymentAuditRecord) error
	FindPaymentAuditByKey(ctx context.Context, key string) (*store.PaymentAuditRecord, error)
	UpdatePaymentState(ctx context.Context, id uint, state models.PaymentState) error
	ListPaymentAudits(ctx context.Context, workspaceID string, limit int) ([]store.PaymentAuditRecord, error)
}

// Recorder writes and advances payment audit rows
type Recorder struct {
	store PaymentStore
	log   logger.Logger
}

// NewRecorder creates a recorder over the given store
func NewRecorder(paymentStore PaymentStore) *Recorder {
	return &Recorder{
		store: paymentStore,
		log:   logger.GetGlobalLogger().WithComponent("payments"),
	}
}

// Record creates an INITIATED intent with a generated idempotency key and
// persists its audit row
func (r *Recorder) Record(ctx context.Context, workspaceID string, kind models.PaymentKind, amount decimal.Decimal) (*models.PaymentIntent, error) {
	intent, err := models.NewPaymentIntent(workspaceID, kind, amount)
	if err != nil {
		return nil, syncerrors.Wrap(err, syncerrors.CategoryValidation, syncerrors.CodeMissingField,
			"invalid payment intent")
	}

	record := &store.PaymentAuditRecord{
		WorkspaceID:    intent.WorkspaceID,
		Kind:           string(intent.Kind),
		Amount:         intent.Amount,
		IdempotencyKey: intent.IdempotencyKey,
		State:          string(intent.State),
		CreatedAt:      intent.CreatedAt,
	}
	if err := r.store.InsertPaymentAudit(ctx, record); err != nil {
		return nil, err
	}

	r.log.WithFields(logger.Fields{
		"workspace_id":    intent.WorkspaceID,
		"kind":            string(intent.Kind),
		"idempotency_key": intent.IdempotencyKey,
	}).Info("Recorded payment intent")

	return intent, nil
}

// Advance moves a recorded intent to a newly observed state. States only
// move forward; a backwards observation is rejected as a validation error.
func (r *Recorder) Advance(ctx context.Context, idempotencyKey string, next models.PaymentState) error {
	if !next.IsValid() {
		return syncerrors.ValidationError(syncerrors.CodeMissingField, "state", string(next)).
			WithSuggestion("valid states: INITIATED, AUTHORIZED, EFFECTIVE")
	}

	record, err := r.store.FindPaymentAuditByKey(ctx, idempotencyKey)
	if err != nil {
		return err
	}

	current := models.PaymentState(record.State)
	if !current.CanAdvanceTo(next) {
		return syncerrors.New(syncerrors.CategoryValidation, syncerrors.CodeInvalidConfig,
			"payment state cannot move backwards").
			WithContext("current", record.State).
			WithContext("requested", string(next)).
			WithSuggestion("payment states only advance: INITIATED -> AUTHORIZED -> EFFECTIVE")
	}

	if current == next {
		return nil
	}

	if err := r.store.UpdatePaymentState(ctx, record.ID, next); err != nil {
		return err
	}

	r.log.WithFields(logger.Fields{
		"idempotency_key": idempotencyKey,
		"from":            record.State,
		"to":              string(next),
	}).Info("Advanced payment state")

	return nil
}

// List returns the audit history of a workspace, newest first
func (r *Recorder) List(ctx context.Context, workspaceID string, limit int) ([]store.PaymentAuditRecord, error) {
	if workspaceID == "" {
		return nil, syncerrors.ValidationError(syncerrors.CodeMissingField, "workspace_id", workspaceID)
	}
	return r.store.ListPaymentAudits(ctx, workspaceID, limit)
}
