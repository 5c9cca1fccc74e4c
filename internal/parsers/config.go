package parsers

import (
	"fmt"
	"strings"

	"banksync-service/internal/models"
)

// StatementConfig describes one bank's statement export format
type StatementConfig struct {
	Bank      models.Bank
	Delimiter rune

	DateColumn        string
	AmountColumn      string
	DescriptionColumn string

	// SignColumn names a C/D marker column. When empty the sign is derived
	// from the amount: negative means debit.
	SignColumn string

	// Bank-specific detail columns. BB carries document/lot/origin;
	// Santander carries a transaction ID and a category.
	DocumentColumn      string
	LotColumn           string
	OriginColumn        string
	TransactionIDColumn string
	CategoryColumn      string

	// Optional counterparty columns
	TaxIDColumn string
	NameColumn  string
}

// Validate checks that the config names the columns the parser depends on
func (sc *StatementConfig) Validate() error {
	if !sc.Bank.IsValid() {
		return fmt.Errorf("invalid bank: %s", sc.Bank)
	}
	if strings.TrimSpace(sc.DateColumn) == "" {
		return fmt.Errorf("date column cannot be empty")
	}
	if strings.TrimSpace(sc.AmountColumn) == "" {
		return fmt.Errorf("amount column cannot be empty")
	}
	if strings.TrimSpace(sc.DescriptionColumn) == "" {
		return fmt.Errorf("description column cannot be empty")
	}
	return nil
}

func (sc *StatementConfig) requiredColumns() []string {
	required := []string{sc.DateColumn, sc.AmountColumn, sc.DescriptionColumn}
	if sc.SignColumn != "" {
		required = append(required, sc.SignColumn)
	}
	return required
}

// Predefined statement export formats
var (
	// BBConfig matches the Banco do Brasil export: semicolon-delimited,
	// a C/D marker column and a document number per line
	BBConfig = &StatementConfig{
		Bank:              models.BankBB,
		Delimiter:         ';',
		DateColumn:        "data",
		AmountColumn:      "valor",
		DescriptionColumn: "historico",
		SignColumn:        "tipo",
		DocumentColumn:    "documento",
		LotColumn:         "lote",
		OriginColumn:      "origem",
		TaxIDColumn:       "cpf_cnpj",
		NameColumn:        "favorecido",
	}

	// SantanderConfig matches the Santander export: comma-delimited,
	// signed amounts instead of a marker column, transaction ID per line
	SantanderConfig = &StatementConfig{
		Bank:                models.BankSantander,
		Delimiter:           ',',
		DateColumn:          "data",
		AmountColumn:        "valor",
		DescriptionColumn:   "descricao",
		TransactionIDColumn: "id_transacao",
		CategoryColumn:      "categoria",
		TaxIDColumn:         "cnpj_contraparte",
		NameColumn:          "nome_contraparte",
	}
)

// ConfigForBank returns the predefined export format for a bank
func ConfigForBank(bank models.Bank) (*StatementConfig, error) {
	switch bank {
	case models.BankBB:
		return BBConfig, nil
	case models.BankSantander:
		return SantanderConfig, nil
	default:
		return nil, fmt.Errorf("no statement export format for bank '%s'", bank)
	}
}
