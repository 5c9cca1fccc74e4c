// Package models defines the domain types shared across the synchronization
// service: bank statement transactions (with per-bank detail variants),
// shipment status snapshots, and payment intent audit records.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Bank identifies the source institution of a statement line
type Bank string

const (
	// BankBB is Banco do Brasil
	BankBB Bank = "BB"
	// BankSantander is Santander
	BankSantander Bank = "SANTANDER"
)

// String returns the string representation of Bank
func (b Bank) String() string {
	return string(b)
}

// IsValid checks if the bank is a supported institution
func (b Bank) IsValid() bool {
	return b == BankBB || b == BankSantander
}

// ParseBank parses and validates a bank identifier from string
func ParseBank(s string) (Bank, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BB", "BANCODOBRASIL", "BANCO_DO_BRASIL":
		return BankBB, nil
	case "SANTANDER":
		return BankSantander, nil
	default:
		return "", fmt.Errorf("unknown bank '%s': must be bb or santander", s)
	}
}

// Sign represents the direction of a statement line
type Sign string

const (
	// SignCredit represents money entering the account
	SignCredit Sign = "CREDIT"
	// SignDebit represents money leaving the account
	SignDebit Sign = "DEBIT"
)

// String returns the string representation of Sign
func (s Sign) String() string {
	return string(s)
}

// IsValid checks if the sign is valid
func (s Sign) IsValid() bool {
	return s == SignCredit || s == SignDebit
}

// ParseSign parses and validates a transaction sign from string
func ParseSign(s string) (Sign, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CREDIT", "C", "CR":
		return SignCredit, nil
	case "DEBIT", "D", "DB":
		return SignDebit, nil
	default:
		return "", fmt.Errorf("invalid sign '%s': must be CREDIT or DEBIT", s)
	}
}

// BankDetail carries the fields only one institution provides. The unique
// identifier is the dedup-critical field: two same-day, same-amount,
// same-description lines with different identifiers are different
// transactions and must fingerprint differently.
type BankDetail interface {
	// UniqueIdentifier returns the bank-side identifier for the line
	// (document number for BB, transaction ID for Santander). May be empty.
	UniqueIdentifier() string
	// Bank returns the institution this detail belongs to
	Bank() Bank
}

// BBDetail holds the Banco do Brasil specific statement fields
type BBDetail struct {
	DocumentNumber string `json:"document_number"`
	Lot            string `json:"lot,omitempty"`
	Origin         string `json:"origin,omitempty"`
}

// UniqueIdentifier returns the BB document number
func (d BBDetail) UniqueIdentifier() string { return d.DocumentNumber }

// Bank returns BankBB
func (d BBDetail) Bank() Bank { return BankBB }

// SantanderDetail holds the Santander specific statement fields
type SantanderDetail struct {
	TransactionID string `json:"transaction_id"`
	Category      string `json:"category,omitempty"`
}

// UniqueIdentifier returns the Santander transaction ID
func (d SantanderDetail) UniqueIdentifier() string { return d.TransactionID }

// Bank returns BankSantander
func (d SantanderDetail) Bank() Bank { return BankSantander }

// Transaction is one bank ledger entry as observed in a statement export.
// Persisted once; the posting date is the only field ever repaired in place.
type Transaction struct {
	Bank              Bank            `json:"bank"`
	Branch            string          `json:"branch"`
	Account           string          `json:"account"`
	PostingDate       time.Time       `json:"posting_date"`
	Amount            decimal.Decimal `json:"amount"`
	Sign              Sign            `json:"sign"`
	Description       string          `json:"description"`
	CounterpartyTaxID string          `json:"counterparty_tax_id,omitempty"`
	CounterpartyName  string          `json:"counterparty_name,omitempty"`
	Detail            BankDetail      `json:"-"`
}

// DescriptionTruncateLen is the slice of the description that participates in
// fingerprinting. Banks rewrite the tail of long descriptions between
// statement exports; the first 100 characters are stable.
const DescriptionTruncateLen = 100

// UniqueIdentifier returns the bank-side identifier, or empty when the
// detail is absent
func (t *Transaction) UniqueIdentifier() string {
	if t.Detail == nil {
		return ""
	}
	return t.Detail.UniqueIdentifier()
}

// TruncatedDescription returns the fingerprint-relevant slice of the
// description. Truncation counts characters, not bytes, so accented
// descriptions never end in a torn rune.
func (t *Transaction) TruncatedDescription() string {
	runes := []rune(t.Description)
	if len(runes) <= DescriptionTruncateLen {
		return t.Description
	}
	return string(runes[:DescriptionTruncateLen])
}

// Validate performs basic validation on the Transaction
func (t *Transaction) Validate() error {
	if !t.Bank.IsValid() {
		return fmt.Errorf("invalid bank: %s", t.Bank)
	}

	if t.PostingDate.IsZero() {
		return fmt.Errorf("posting date cannot be zero")
	}

	if t.Amount.IsZero() {
		return fmt.Errorf("transaction amount cannot be zero")
	}

	if t.Amount.IsNegative() {
		return fmt.Errorf("transaction amount must be absolute; sign is carried separately")
	}

	if !t.Sign.IsValid() {
		return fmt.Errorf("invalid sign: %s", t.Sign)
	}

	if t.Detail != nil && t.Detail.Bank() != t.Bank {
		return fmt.Errorf("detail belongs to %s but transaction is from %s", t.Detail.Bank(), t.Bank)
	}

	return nil
}

// String returns a string representation of the Transaction
func (t *Transaction) String() string {
	return fmt.Sprintf("Transaction{Bank: %s, Date: %s, Amount: %s, Sign: %s, ID: %s}",
		t.Bank, t.PostingDate.Format("2006-01-02"), t.Amount.String(), t.Sign, t.UniqueIdentifier())
}

// ShipmentEvent is one entry in a shipment's nested tracking event list
type ShipmentEvent struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	ETA       time.Time `json:"eta,omitempty"`
	Vessel    string    `json:"vessel,omitempty"`
	PortCode  string    `json:"port_code,omitempty"`
	PortName  string    `json:"port_name,omitempty"`
}

// ShipmentSnapshot is the cached denormalized view of a shipment's progress,
// recomputed from the event list and merged under the no-downgrade policy
type ShipmentSnapshot struct {
	ProcessRef string    `json:"process_ref"`
	Status     string    `json:"status"`
	ETA        time.Time `json:"eta,omitempty"`
	Vessel     string    `json:"vessel,omitempty"`
	PortCode   string    `json:"port_code,omitempty"`
	PortName   string    `json:"port_name,omitempty"`
}

// IsEmpty reports whether the snapshot carries no data at all
func (s ShipmentSnapshot) IsEmpty() bool {
	return strings.TrimSpace(s.Status) == "" &&
		s.ETA.IsZero() &&
		strings.TrimSpace(s.Vessel) == "" &&
		strings.TrimSpace(s.PortCode) == "" &&
		strings.TrimSpace(s.PortName) == ""
}

// PaymentKind enumerates the supported money movement types
type PaymentKind string

const (
	PaymentKindTED    PaymentKind = "TED"
	PaymentKindPIX    PaymentKind = "PIX"
	PaymentKindBoleto PaymentKind = "BOLETO"
	PaymentKindTax    PaymentKind = "TAX"
)

// IsValid checks if the payment kind is supported
func (k PaymentKind) IsValid() bool {
	switch k {
	case PaymentKindTED, PaymentKindPIX, PaymentKindBoleto, PaymentKindTax:
		return true
	}
	return false
}

// ParsePaymentKind parses and validates a payment kind from string
func ParsePaymentKind(s string) (PaymentKind, error) {
	kind := PaymentKind(strings.ToUpper(strings.TrimSpace(s)))
	if !kind.IsValid() {
		return "", fmt.Errorf("invalid payment kind '%s': must be ted, pix, boleto or tax", s)
	}
	return kind, nil
}

// PaymentState is the lifecycle position of a payment intent. The lifecycle
// is owned by the remote bank; local rows only record observed states.
type PaymentState string

const (
	PaymentStateInitiated  PaymentState = "INITIATED"
	PaymentStateAuthorized PaymentState = "AUTHORIZED"
	PaymentStateEffective  PaymentState = "EFFECTIVE"
)

var paymentStateRank = map[PaymentState]int{
	PaymentStateInitiated:  0,
	PaymentStateAuthorized: 1,
	PaymentStateEffective:  2,
}

// IsValid checks if the payment state is known
func (s PaymentState) IsValid() bool {
	_, ok := paymentStateRank[s]
	return ok
}

// CanAdvanceTo reports whether a recorded intent may move to the given state.
// States only move forward; a backwards observation is a caller bug.
func (s PaymentState) CanAdvanceTo(next PaymentState) bool {
	if !s.IsValid() || !next.IsValid() {
		return false
	}
	return paymentStateRank[next] >= paymentStateRank[s]
}

// PaymentIntent is a workspace-scoped request to move money. Only a
// historical audit row is kept locally.
type PaymentIntent struct {
	WorkspaceID    string          `json:"workspace_id"`
	Kind           PaymentKind     `json:"kind"`
	Amount         decimal.Decimal `json:"amount"`
	IdempotencyKey string          `json:"idempotency_key"`
	State          PaymentState    `json:"state"`
	CreatedAt      time.Time       `json:"created_at"`
}

// NewPaymentIntent creates an INITIATED intent with a generated idempotency key
func NewPaymentIntent(workspaceID string, kind PaymentKind, amount decimal.Decimal) (*PaymentIntent, error) {
	if strings.TrimSpace(workspaceID) == "" {
		return nil, fmt.Errorf("workspace ID cannot be empty")
	}
	if !kind.IsValid() {
		return nil, fmt.Errorf("invalid payment kind: %s", kind)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("payment amount must be positive")
	}

	return &PaymentIntent{
		WorkspaceID:    workspaceID,
		Kind:           kind,
		Amount:         amount,
		IdempotencyKey: uuid.NewString(),
		State:          PaymentStateInitiated,
		CreatedAt:      time.Now().UTC(),
	}, nil
}

// Parsing helpers for Brazilian statement exports

// DateOnly truncates a timestamp to its calendar date in UTC. Posting dates
// have no time-of-day semantics.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SameDate reports whether two timestamps fall on the same calendar date
func SameDate(a, b time.Time) bool {
	return DateOnly(a).Equal(DateOnly(b))
}

// ParsePostingDate attempts to parse a posting date using the formats seen
// in BB and Santander statement exports
func ParsePostingDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("date string cannot be empty")
	}

	formats := []string{
		"02/01/2006", // BR day-first
		"2006-01-02",
		"02-01-2006",
		"2006-01-02T15:04:05Z07:00",
	}

	var lastErr error
	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return DateOnly(t), nil
		} else {
			lastErr = err
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date '%s': %w", s, lastErr)
}

// ParseBRAmount parses a decimal amount that may use Brazilian formatting
// ("1.234,56") or plain decimal notation ("1234.56")
func ParseBRAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("amount string cannot be empty")
	}

	s = strings.ReplaceAll(s, "R$", "")
	s = strings.TrimSpace(s)

	// Comma as decimal separator means dots are thousand separators.
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount format '%s': %w", s, err)
	}

	return d, nil
}

// NormalizeTaxID strips formatting punctuation from a CPF/CNPJ
func NormalizeTaxID(s string) string {
	replacer := strings.NewReplacer(".", "", "-", "", "/", "", " ", "")
	return replacer.Replace(strings.TrimSpace(s))
}
