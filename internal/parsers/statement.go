package parsers

import (
	"context"
	"fmt"
	"io"
	"strings"

	"banksync-service/internal/models"
	"banksync-service/pkg/logger"
)

// StatementParser parses one bank's statement export into domain
// transactions. Branch and account are not part of the export files, so the
// caller supplies them and every parsed transaction carries them.
type StatementParser struct {
	*baseParser
	config  *StatementConfig
	branch  string
	account string
}

// NewStatementParser creates a parser for the given bank's export format
func NewStatementParser(bank models.Bank, branch, account string) (*StatementParser, error) {
	config, err := ConfigForBank(bank)
	if err != nil {
		return nil, err
	}
	return NewStatementParserWithConfig(config, branch, account)
}

// NewStatementParserWithConfig creates a parser over an explicit format config
func NewStatementParserWithConfig(config *StatementConfig, branch, account string) (*StatementParser, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid statement config: %w", err)
	}
	if strings.TrimSpace(branch) == "" {
		return nil, fmt.Errorf("branch cannot be empty")
	}
	if strings.TrimSpace(account) == "" {
		return nil, fmt.Errorf("account cannot be empty")
	}

	return &StatementParser{
		baseParser: newBaseParser(config),
		config:     config,
		branch:     strings.TrimSpace(branch),
		account:    strings.TrimSpace(account),
	}, nil
}

// ParseStatements parses a statement export file
func (sp *StatementParser) ParseStatements(filePath string) ([]*models.Transaction, *ParseStats, error) {
	return sp.ParseStatementsWithContext(context.Background(), filePath)
}

// ParseStatementsWithContext parses with cancellation support. Malformed
// lines are counted in the stats and skipped; only file-level problems
// (missing file, missing columns) return an error.
func (sp *StatementParser) ParseStatementsWithContext(ctx context.Context, filePath string) ([]*models.Transaction, *ParseStats, error) {
	file, reader, err := sp.openFile(filePath)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	parseCtx := newParseContext(ctx)
	stats := &ParseStats{}

	if err := sp.readHeaders(reader, parseCtx); err != nil {
		return nil, stats, err
	}

	var transactions []*models.Transaction

	for {
		if parseCtx.isCancelled() {
			return transactions, stats, fmt.Errorf("parsing cancelled")
		}

		record, err := sp.readRecord(reader, parseCtx)
		if err != nil {
			if err == io.EOF {
				break
			}
			stats.AddError(&ParseError{
				Line:    parseCtx.lineNumber,
				Message: "failed to read record",
				Err:     err,
			})
			continue
		}

		stats.RecordsParsed++

		tx, parseErr := sp.parseTransaction(record, parseCtx)
		if parseErr != nil {
			stats.AddError(parseErr)
			continue
		}

		if err := tx.Validate(); err != nil {
			stats.AddError(&ParseError{
				Line:    parseCtx.lineNumber,
				Message: "transaction validation failed",
				Err:     err,
			})
			continue
		}

		transactions = append(transactions, tx)
		stats.RecordsValid++
	}

	stats.TotalLines = parseCtx.lineNumber

	sp.logger.WithFields(logger.Fields{
		"file_path": filePath,
		"bank":      sp.config.Bank.String(),
		"valid":     stats.RecordsValid,
		"errors":    stats.ErrorCount,
	}).Info("Parsed statement export")

	return transactions, stats, nil
}

func (sp *StatementParser) parseTransaction(record []string, parseCtx *parseContext) (*models.Transaction, *ParseError) {
	dateStr, err := sp.fieldValue(record, parseCtx, sp.config.DateColumn)
	if err != nil {
		return nil, &ParseError{Line: parseCtx.lineNumber, Field: sp.config.DateColumn, Message: "missing posting date", Err: err}
	}
	postingDate, err := models.ParsePostingDate(dateStr)
	if err != nil {
		return nil, &ParseError{Line: parseCtx.lineNumber, Field: sp.config.DateColumn, Value: dateStr, Message: "invalid posting date", Err: err}
	}

	amountStr, err := sp.fieldValue(record, parseCtx, sp.config.AmountColumn)
	if err != nil {
		return nil, &ParseError{Line: parseCtx.lineNumber, Field: sp.config.AmountColumn, Message: "missing amount", Err: err}
	}
	amount, err := models.ParseBRAmount(amountStr)
	if err != nil {
		return nil, &ParseError{Line: parseCtx.lineNumber, Field: sp.config.AmountColumn, Value: amountStr, Message: "invalid amount", Err: err}
	}

	description, err := sp.fieldValue(record, parseCtx, sp.config.DescriptionColumn)
	if err != nil {
		return nil, &ParseError{Line: parseCtx.lineNumber, Field: sp.config.DescriptionColumn, Message: "missing description", Err: err}
	}

	// Sign comes from the marker column when the export has one, otherwise
	// from the amount's sign.
	var sign models.Sign
	if sp.config.SignColumn != "" {
		signStr, err := sp.fieldValue(record, parseCtx, sp.config.SignColumn)
		if err != nil {
			return nil, &ParseError{Line: parseCtx.lineNumber, Field: sp.config.SignColumn, Message: "missing sign marker", Err: err}
		}
		sign, err = models.ParseSign(signStr)
		if err != nil {
			return nil, &ParseError{Line: parseCtx.lineNumber, Field: sp.config.SignColumn, Value: signStr, Message: "invalid sign marker", Err: err}
		}
	} else if amount.IsNegative() {
		sign = models.SignDebit
	} else {
		sign = models.SignCredit
	}

	tx := &models.Transaction{
		Bank:              sp.config.Bank,
		Branch:            sp.branch,
		Account:           sp.account,
		PostingDate:       postingDate,
		Amount:            amount.Abs(),
		Sign:              sign,
		Description:       description,
		CounterpartyTaxID: sp.optionalValue(record, parseCtx, sp.config.TaxIDColumn),
		CounterpartyName:  sp.optionalValue(record, parseCtx, sp.config.NameColumn),
		Detail:            sp.parseDetail(record, parseCtx),
	}

	return tx, nil
}

func (sp *StatementParser) parseDetail(record []string, parseCtx *parseContext) models.BankDetail {
	switch sp.config.Bank {
	case models.BankBB:
		return models.BBDetail{
			DocumentNumber: sp.optionalValue(record, parseCtx, sp.config.DocumentColumn),
			Lot:            sp.optionalValue(record, parseCtx, sp.config.LotColumn),
			Origin:         sp.optionalValue(record, parseCtx, sp.config.OriginColumn),
		}
	case models.BankSantander:
		return models.SantanderDetail{
			TransactionID: sp.optionalValue(record, parseCtx, sp.config.TransactionIDColumn),
			Category:      sp.optionalValue(record, parseCtx, sp.config.CategoryColumn),
		}
	default:
		return nil
	}
}
