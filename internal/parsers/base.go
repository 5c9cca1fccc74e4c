// Package parsers reads bank statement export CSV files into domain
// transactions. Each bank exports a different column set, delimiter and
// amount convention; the per-bank configs in config.go capture those
// differences so the parsing loop stays shared.
package parsers

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	syncerrors "banksync-service/pkg/errors"
	"banksync-service/pkg/logger"
)

// ParseError describes a problem with one line of a statement export
type ParseError struct {
	Line    int
	Field   string
	Value   string
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse error at line %d (%s='%s'): %s: %v",
			e.Line, e.Field, e.Value, e.Message, e.Err)
	}
	return fmt.Sprintf("parse error at line %d (%s='%s'): %s",
		e.Line, e.Field, e.Value, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ParseStats summarizes one parsing run
type ParseStats struct {
	TotalLines    int
	RecordsParsed int
	RecordsValid  int
	ErrorCount    int
	Errors        []*ParseError
}

// AddError records a per-line parsing error
func (ps *ParseStats) AddError(err *ParseError) {
	ps.Errors = append(ps.Errors, err)
	ps.ErrorCount++
}

// HasErrors returns true if any line failed to parse
func (ps *ParseStats) HasErrors() bool {
	return ps.ErrorCount > 0
}

// String returns a human-readable summary of the run
func (ps *ParseStats) String() string {
	return fmt.Sprintf("Parsed %d lines, %d records (%d valid), %d errors",
		ps.TotalLines, ps.RecordsParsed, ps.RecordsValid, ps.ErrorCount)
}

// parseContext holds state during one parsing run
type parseContext struct {
	lineNumber int
	headers    []string
	headerMap  map[string]int
	ctx        context.Context
}

func newParseContext(ctx context.Context) *parseContext {
	if ctx == nil {
		ctx = context.Background()
	}
	return &parseContext{
		headerMap: make(map[string]int),
		ctx:       ctx,
	}
}

func (pc *parseContext) isCancelled() bool {
	select {
	case <-pc.ctx.Done():
		return true
	default:
		return false
	}
}

// columnIndex returns the index of a column by name, case-insensitively,
// or -1 when the export does not carry it
func (pc *parseContext) columnIndex(name string) int {
	if index, exists := pc.headerMap[name]; exists {
		return index
	}
	lower := strings.ToLower(name)
	for header, index := range pc.headerMap {
		if strings.ToLower(header) == lower {
			return index
		}
	}
	return -1
}

// baseParser provides the CSV plumbing shared by both bank formats
type baseParser struct {
	config *StatementConfig
	logger logger.Logger
}

func newBaseParser(config *StatementConfig) *baseParser {
	return &baseParser{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("parser"),
	}
}

func (bp *baseParser) openFile(filePath string) (*os.File, *csv.Reader, error) {
	file, err := os.Open(filePath)
	if err != nil {
		bp.logger.WithError(err).WithField("file_path", filePath).Error("Failed to open statement export")
		return nil, nil, syncerrors.ConfigurationError(syncerrors.CodeInvalidConfig, "file", filePath, err).
			WithSuggestion("check that the statement export path exists and is readable")
	}

	reader := csv.NewReader(file)
	reader.Comma = bp.config.Delimiter
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	return file, reader, nil
}

func (bp *baseParser) readHeaders(reader *csv.Reader, parseCtx *parseContext) error {
	headers, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return syncerrors.ValidationError(syncerrors.CodeMissingField, "file_content", "empty").
				WithSuggestion("ensure the export contains a header and data rows")
		}
		return syncerrors.Wrap(err, syncerrors.CategoryValidation, syncerrors.CodeMissingField,
			"failed to read statement header row")
	}

	parseCtx.lineNumber++
	parseCtx.headers = make([]string, len(headers))
	for i, header := range headers {
		parseCtx.headers[i] = strings.TrimSpace(header)
	}
	for i, header := range parseCtx.headers {
		parseCtx.headerMap[header] = i
	}

	var missing []string
	for _, required := range bp.config.requiredColumns() {
		if parseCtx.columnIndex(required) == -1 {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		bp.logger.WithFields(logger.Fields{
			"missing_headers":   missing,
			"available_headers": parseCtx.headers,
		}).Error("Statement export is missing required columns")
		return syncerrors.ValidationError(syncerrors.CodeMissingField, "headers", strings.Join(missing, ", ")).
			WithSuggestion(fmt.Sprintf("ensure the export contains these columns: %s", strings.Join(missing, ", ")))
	}

	return nil
}

// readRecord returns the next non-empty data row, or io.EOF
func (bp *baseParser) readRecord(reader *csv.Reader, parseCtx *parseContext) ([]string, error) {
	for {
		record, err := reader.Read()
		if err != nil {
			return nil, err
		}
		parseCtx.lineNumber++

		empty := true
		for _, field := range record {
			if strings.TrimSpace(field) != "" {
				empty = false
				break
			}
		}
		if empty {
			continue
		}

		return record, nil
	}
}

// fieldValue returns a required field, erroring when the column is absent
// from the row
func (bp *baseParser) fieldValue(record []string, parseCtx *parseContext, column string) (string, error) {
	index := parseCtx.columnIndex(column)
	if index == -1 || index >= len(record) {
		return "", fmt.Errorf("column '%s' not present in record with %d fields", column, len(record))
	}
	return strings.TrimSpace(record[index]), nil
}

// optionalValue returns a field when the export carries the column, or ""
func (bp *baseParser) optionalValue(record []string, parseCtx *parseContext, column string) string {
	if column == "" {
		return ""
	}
	index := parseCtx.columnIndex(column)
	if index == -1 || index >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[index])
}
