package models

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

func validTransaction() *Transaction {
	return &Transaction{
		Bank:        BankBB,
		Branch:      "1234",
		Account:     "56789-0",
		PostingDate: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		Amount:      decimal.NewFromFloat(1500.75),
		Sign:        SignDebit,
		Description: "PAG FORNECEDOR DMD 0083/25",
		Detail:      BBDetail{DocumentNumber: "900123"},
	}
}

func TestParseBank(t *testing.T) {
	tests := []struct {
		input    string
		expected Bank
		wantErr  bool
	}{
		{"bb", BankBB, false},
		{"BB", BankBB, false},
		{"bancodobrasil", BankBB, false},
		{"santander", BankSantander, false},
		{" SANTANDER ", BankSantander, false},
		{"itau", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseBank(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseBank(%q): expected error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseBank(%q): unexpected error: %v", tt.input, err)
		}
		if got != tt.expected {
			t.Errorf("ParseBank(%q) = %s, expected %s", tt.input, got, tt.expected)
		}
	}
}

func TestParseSign(t *testing.T) {
	tests := []struct {
		input    string
		expected Sign
		wantErr  bool
	}{
		{"CREDIT", SignCredit, false},
		{"c", SignCredit, false},
		{"debit", SignDebit, false},
		{"D", SignDebit, false},
		{"X", "", true},
	}

	for _, tt := range tests {
		got, err := ParseSign(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseSign(%q): expected error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseSign(%q): unexpected error: %v", tt.input, err)
		}
		if got != tt.expected {
			t.Errorf("ParseSign(%q) = %s, expected %s", tt.input, got, tt.expected)
		}
	}
}

func TestTransactionValidate(t *testing.T) {
	tx := validTransaction()
	if err := tx.Validate(); err != nil {
		t.Errorf("Expected valid transaction, got: %v", err)
	}

	tx = validTransaction()
	tx.Amount = decimal.Zero
	if err := tx.Validate(); err == nil {
		t.Error("Expected error for zero amount")
	}

	tx = validTransaction()
	tx.Amount = decimal.NewFromFloat(-10)
	if err := tx.Validate(); err == nil {
		t.Error("Expected error for negative amount")
	}

	tx = validTransaction()
	tx.PostingDate = time.Time{}
	if err := tx.Validate(); err == nil {
		t.Error("Expected error for zero posting date")
	}

	tx = validTransaction()
	tx.Detail = SantanderDetail{TransactionID: "ABC"}
	if err := tx.Validate(); err == nil {
		t.Error("Expected error for detail/bank mismatch")
	}
}

func TestUniqueIdentifier(t *testing.T) {
	tx := validTransaction()
	if got := tx.UniqueIdentifier(); got != "900123" {
		t.Errorf("Expected document number, got %q", got)
	}

	tx.Detail = nil
	if got := tx.UniqueIdentifier(); got != "" {
		t.Errorf("Expected empty identifier without detail, got %q", got)
	}

	tx.Bank = BankSantander
	tx.Detail = SantanderDetail{TransactionID: "STD-42"}
	if got := tx.UniqueIdentifier(); got != "STD-42" {
		t.Errorf("Expected santander transaction ID, got %q", got)
	}
}

func TestTruncatedDescription(t *testing.T) {
	tx := validTransaction()
	long := make([]byte, 150)
	for i := range long {
		long[i] = 'A'
	}
	tx.Description = string(long)

	if got := tx.TruncatedDescription(); len(got) != DescriptionTruncateLen {
		t.Errorf("Expected %d chars, got %d", DescriptionTruncateLen, len(got))
	}

	tx.Description = "short"
	if got := tx.TruncatedDescription(); got != "short" {
		t.Errorf("Expected untouched description, got %q", got)
	}
}

func TestTruncatedDescriptionCountsRunes(t *testing.T) {
	tx := validTransaction()

	// 99 single-byte characters followed by accented text: byte 100 falls in
	// the middle of a two-byte rune.
	tx.Description = strings.Repeat("A", 99) + "ÇÃO DE CÂMBIO PAGAMENTO EXTERIOR"

	got := tx.TruncatedDescription()
	if !utf8.ValidString(got) {
		t.Fatalf("Truncated description is not valid UTF-8: %q", got)
	}
	if n := utf8.RuneCountInString(got); n != DescriptionTruncateLen {
		t.Errorf("Expected %d characters, got %d", DescriptionTruncateLen, n)
	}
	if want := strings.Repeat("A", 99) + "Ç"; got != want {
		t.Errorf("Expected truncation after the 100th character, got %q", got)
	}

	// Exactly 100 characters but more than 100 bytes stays whole.
	tx.Description = strings.Repeat("Ã", DescriptionTruncateLen)
	if got := tx.TruncatedDescription(); got != tx.Description {
		t.Errorf("Expected untouched description, got %q", got)
	}
}

func TestParsePostingDate(t *testing.T) {
	tests := []struct {
		input    string
		expected time.Time
		wantErr  bool
	}{
		{"10/03/2025", time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), false},
		{"2025-03-10", time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), false},
		{"10-03-2025", time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), false},
		{"not a date", time.Time{}, true},
		{"", time.Time{}, true},
	}

	for _, tt := range tests {
		got, err := ParsePostingDate(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParsePostingDate(%q): expected error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParsePostingDate(%q): unexpected error: %v", tt.input, err)
			continue
		}
		if !got.Equal(tt.expected) {
			t.Errorf("ParsePostingDate(%q) = %s, expected %s", tt.input, got, tt.expected)
		}
	}
}

func TestParseBRAmount(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		wantErr  bool
	}{
		{"1.234,56", "1234.56", false},
		{"1234.56", "1234.56", false},
		{"R$ 99,90", "99.9", false},
		{"-500,00", "-500", false},
		{"abc", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseBRAmount(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseBRAmount(%q): expected error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseBRAmount(%q): unexpected error: %v", tt.input, err)
			continue
		}
		if got.String() != tt.expected {
			t.Errorf("ParseBRAmount(%q) = %s, expected %s", tt.input, got.String(), tt.expected)
		}
	}
}

func TestNormalizeTaxID(t *testing.T) {
	if got := NormalizeTaxID("12.345.678/0001-90"); got != "12345678000190" {
		t.Errorf("Expected bare CNPJ, got %q", got)
	}
	if got := NormalizeTaxID(" 123.456.789-00 "); got != "12345678900" {
		t.Errorf("Expected bare CPF, got %q", got)
	}
}

func TestDateOnly(t *testing.T) {
	ts := time.Date(2025, 6, 1, 15, 30, 45, 0, time.UTC)
	d := DateOnly(ts)
	if d.Hour() != 0 || d.Minute() != 0 || d.Second() != 0 {
		t.Errorf("Expected midnight, got %s", d)
	}
	if !SameDate(ts, d) {
		t.Error("Expected SameDate to hold for a timestamp and its date")
	}
}

func TestPaymentStateCanAdvanceTo(t *testing.T) {
	tests := []struct {
		from     PaymentState
		to       PaymentState
		expected bool
	}{
		{PaymentStateInitiated, PaymentStateAuthorized, true},
		{PaymentStateInitiated, PaymentStateEffective, true},
		{PaymentStateAuthorized, PaymentStateEffective, true},
		{PaymentStateAuthorized, PaymentStateAuthorized, true},
		{PaymentStateEffective, PaymentStateInitiated, false},
		{PaymentStateAuthorized, PaymentStateInitiated, false},
		{PaymentState("BOGUS"), PaymentStateEffective, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanAdvanceTo(tt.to); got != tt.expected {
			t.Errorf("%s -> %s: expected %v, got %v", tt.from, tt.to, tt.expected, got)
		}
	}
}

func TestNewPaymentIntent(t *testing.T) {
	intent, err := NewPaymentIntent("ws-1", PaymentKindPIX, decimal.NewFromFloat(250.00))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if intent.State != PaymentStateInitiated {
		t.Errorf("Expected INITIATED, got %s", intent.State)
	}
	if intent.IdempotencyKey == "" {
		t.Error("Expected generated idempotency key")
	}

	other, _ := NewPaymentIntent("ws-1", PaymentKindPIX, decimal.NewFromFloat(250.00))
	if other.IdempotencyKey == intent.IdempotencyKey {
		t.Error("Expected distinct idempotency keys per intent")
	}

	if _, err := NewPaymentIntent("", PaymentKindPIX, decimal.NewFromFloat(1)); err == nil {
		t.Error("Expected error for empty workspace")
	}
	if _, err := NewPaymentIntent("ws-1", PaymentKind("CHEQUE"), decimal.NewFromFloat(1)); err == nil {
		t.Error("Expected error for invalid kind")
	}
	if _, err := NewPaymentIntent("ws-1", PaymentKindTED, decimal.Zero); err == nil {
		t.Error("Expected error for non-positive amount")
	}
}
