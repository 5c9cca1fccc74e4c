// Package store persists statement transactions and payment audit rows to
// the relational store (SQL Server) and implements the duplicate resolver
// used by the batch importer.
package store

import (
	"time"

	"banksync-service/internal/models"

	"github.com/shopspring/decimal"
)

// TransactionRecord is one persisted statement line.
//
// The fingerprint column is indexed but deliberately not unique: the
// at-most-one-row-per-fingerprint invariant is enforced at the application
// layer, and the audit-dups command exists to detect violations.
type TransactionRecord struct {
	ID                uint            `gorm:"primaryKey"`
	Fingerprint       string          `gorm:"size:64;index"`
	Bank              string          `gorm:"size:16"`
	Branch            string          `gorm:"size:16"`
	Account           string          `gorm:"size:32"`
	PostingDate       time.Time       `gorm:"index"`
	Amount            decimal.Decimal `gorm:"type:decimal(18,2)"`
	Sign              string          `gorm:"size:8"`
	Description       string          `gorm:"size:512"`
	UniqueIdentifier  string          `gorm:"size:64"`
	CounterpartyTaxID string          `gorm:"size:20"`
	CounterpartyName  string          `gorm:"size:128"`
	ProcessRef        string          `gorm:"size:16;index"`
	CreatedAt         time.Time
}

// NewTransactionRecord builds a persistable record from a domain transaction
// and its computed fingerprint
func NewTransactionRecord(tx *models.Transaction, fp string, processRef string) *TransactionRecord {
	return &TransactionRecord{
		Fingerprint:       fp,
		Bank:              tx.Bank.String(),
		Branch:            tx.Branch,
		Account:           tx.Account,
		PostingDate:       models.DateOnly(tx.PostingDate),
		Amount:            tx.Amount.Abs(),
		Sign:              tx.Sign.String(),
		Description:       tx.Description,
		UniqueIdentifier:  tx.UniqueIdentifier(),
		CounterpartyTaxID: models.NormalizeTaxID(tx.CounterpartyTaxID),
		CounterpartyName:  tx.CounterpartyName,
		ProcessRef:        processRef,
	}
}

// PaymentAuditRecord is one historical payment intent observation. The
// payment lifecycle is owned by the bank; these rows are append-only audit.
type PaymentAuditRecord struct {
	ID             uint            `gorm:"primaryKey"`
	WorkspaceID    string          `gorm:"size:64;index"`
	Kind           string          `gorm:"size:8"`
	Amount         decimal.Decimal `gorm:"type:decimal(18,2)"`
	IdempotencyKey string          `gorm:"size:36;index"`
	State          string          `gorm:"size:16"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// DuplicateGroup describes a fingerprint that violates the one-row invariant
type DuplicateGroup struct {
	Fingerprint string `json:"fingerprint"`
	Count       int    `json:"count"`
	RecordIDs   []uint `json:"record_ids"`
}
