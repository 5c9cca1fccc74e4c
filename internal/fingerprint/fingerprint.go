// Package fingerprint derives the content-based dedup key for statement
// transactions.
//
// The fingerprint is a SHA-256 digest over a canonical serialization of the
// fields that identify a transaction logically: bank, branch, account,
// posting date, absolute amount, sign, the first 100 characters of the
// description, and the bank-side unique identifier (document number for BB,
// transaction ID for Santander). The identifier participates deliberately:
// without it, same-day lines with equal amount and description collapse into
// one fingerprint and legitimate repeats get dropped as duplicates.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"banksync-service/internal/models"
)

// HexLen is the length of a rendered fingerprint
const HexLen = 64

// Compute returns the 64-hex-character fingerprint of a transaction.
//
// A missing unique identifier degrades to an empty-string field instead of
// failing. That weakens collision resistance for identifier-less lines; the
// importer logs the degradation once per batch.
func Compute(tx *models.Transaction) (string, error) {
	if tx == nil {
		return "", fmt.Errorf("transaction cannot be nil")
	}
	if err := tx.Validate(); err != nil {
		return "", fmt.Errorf("cannot fingerprint invalid transaction: %w", err)
	}

	// encoding/json marshals map keys in sorted order, which gives the
	// canonical serialization the digest depends on.
	canonical := map[string]string{
		"bank":        tx.Bank.String(),
		"branch":      tx.Branch,
		"account":     tx.Account,
		"date":        tx.PostingDate.Format("2006-01-02"),
		"amount":      tx.Amount.Abs().StringFixed(2),
		"sign":        tx.Sign.String(),
		"description": tx.TruncatedDescription(),
		"unique_id":   tx.UniqueIdentifier(),
	}

	data, err := json.Marshal(canonical)
	if err != nil {
		return "", fmt.Errorf("failed to serialize canonical fields: %w", err)
	}

	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// IsWellFormed reports whether a string looks like a rendered fingerprint
func IsWellFormed(s string) bool {
	if len(s) != HexLen {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
