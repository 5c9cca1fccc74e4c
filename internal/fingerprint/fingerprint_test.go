package fingerprint

import (
	"strings"
	"testing"
	"time"

	"banksync-service/internal/models"

	"github.com/shopspring/decimal"
)

func baseTransaction() *models.Transaction {
	return &models.Transaction{
		Bank:        models.BankBB,
		Branch:      "1234",
		Account:     "56789-0",
		PostingDate: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		Amount:      decimal.NewFromFloat(1500.75),
		Sign:        models.SignDebit,
		Description: "PAG FORNECEDOR DMD 0083/25",
		Detail:      models.BBDetail{DocumentNumber: "900123"},
	}
}

func TestComputeDeterministic(t *testing.T) {
	tx1 := baseTransaction()
	tx2 := baseTransaction()

	fp1, err := Compute(tx1)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	fp2, err := Compute(tx2)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if fp1 != fp2 {
		t.Errorf("Identical transactions produced different fingerprints:\n%s\n%s", fp1, fp2)
	}
}

func TestComputeFormat(t *testing.T) {
	fp, err := Compute(baseTransaction())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(fp) != HexLen {
		t.Errorf("Expected %d hex chars, got %d", HexLen, len(fp))
	}
	if fp != strings.ToLower(fp) {
		t.Error("Expected lowercase hex")
	}
	if !IsWellFormed(fp) {
		t.Error("Expected computed fingerprint to be well formed")
	}
}

func TestUniqueIdentifierChangesDigest(t *testing.T) {
	tx1 := baseTransaction()
	tx2 := baseTransaction()
	tx2.Detail = models.BBDetail{DocumentNumber: "900124"}

	fp1, _ := Compute(tx1)
	fp2, _ := Compute(tx2)

	if fp1 == fp2 {
		t.Error("Transactions differing only in unique identifier must fingerprint differently")
	}
}

func TestEachFieldChangesDigest(t *testing.T) {
	base, _ := Compute(baseTransaction())

	mutations := map[string]func(*models.Transaction){
		"branch":      func(tx *models.Transaction) { tx.Branch = "9999" },
		"account":     func(tx *models.Transaction) { tx.Account = "11111-1" },
		"date":        func(tx *models.Transaction) { tx.PostingDate = tx.PostingDate.AddDate(0, 0, 1) },
		"amount":      func(tx *models.Transaction) { tx.Amount = decimal.NewFromFloat(1500.76) },
		"sign":        func(tx *models.Transaction) { tx.Sign = models.SignCredit },
		"description": func(tx *models.Transaction) { tx.Description = "OTHER DESCRIPTION" },
	}

	for field, mutate := range mutations {
		tx := baseTransaction()
		mutate(tx)
		fp, err := Compute(tx)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", field, err)
		}
		if fp == base {
			t.Errorf("Changing %s did not change the fingerprint", field)
		}
	}
}

func TestDescriptionTailIgnored(t *testing.T) {
	prefix := strings.Repeat("X", models.DescriptionTruncateLen)

	tx1 := baseTransaction()
	tx1.Description = prefix + " TAIL ONE"
	tx2 := baseTransaction()
	tx2.Description = prefix + " COMPLETELY DIFFERENT TAIL"

	fp1, _ := Compute(tx1)
	fp2, _ := Compute(tx2)

	if fp1 != fp2 {
		t.Error("Description differences beyond the truncation length must not change the fingerprint")
	}
}

func TestMissingIdentifierDegrades(t *testing.T) {
	tx := baseTransaction()
	tx.Detail = nil

	fp, err := Compute(tx)
	if err != nil {
		t.Fatalf("Missing identifier must not fail: %v", err)
	}
	if !IsWellFormed(fp) {
		t.Error("Expected a well formed fingerprint for identifier-less transaction")
	}

	// Empty document number and absent detail canonicalize identically.
	tx2 := baseTransaction()
	tx2.Detail = models.BBDetail{DocumentNumber: ""}
	fp2, _ := Compute(tx2)
	if fp != fp2 {
		t.Error("Absent detail and empty identifier should produce the same fingerprint")
	}
}

func TestAmountScaleNormalized(t *testing.T) {
	tx1 := baseTransaction()
	tx1.Amount = decimal.NewFromFloat(1500.7)
	tx2 := baseTransaction()
	tx2.Amount = decimal.RequireFromString("1500.70")

	fp1, _ := Compute(tx1)
	fp2, _ := Compute(tx2)

	if fp1 != fp2 {
		t.Error("Amounts equal at two decimal places must fingerprint identically")
	}
}

func TestComputeRejectsInvalid(t *testing.T) {
	if _, err := Compute(nil); err == nil {
		t.Error("Expected error for nil transaction")
	}

	tx := baseTransaction()
	tx.Amount = decimal.Zero
	if _, err := Compute(tx); err == nil {
		t.Error("Expected error for invalid transaction")
	}
}

func TestIsWellFormed(t *testing.T) {
	if IsWellFormed("abc") {
		t.Error("Short string should not be well formed")
	}
	if IsWellFormed(strings.Repeat("z", HexLen)) {
		t.Error("Non-hex string should not be well formed")
	}
	if !IsWellFormed(strings.Repeat("a1", HexLen/2)) {
		t.Error("Expected hex string of correct length to be well formed")
	}
}
