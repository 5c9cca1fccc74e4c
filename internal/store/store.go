package store

import (
	"context"
	"fmt"
	"time"

	"banksync-service/internal/models"
	syncerrors "banksync-service/pkg/errors"
	"banksync-service/pkg/logger"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// TransactionStore is the persistence contract the resolver and importer
// depend on. All errors returned by implementations are already classified
// onto the service taxonomy.
type TransactionStore interface {
	// FindByFingerprint returns the persisted row for a fingerprint, or a
	// record_not_found error when no row exists.
	FindByFingerprint(ctx context.Context, fp string) (*TransactionRecord, error)

	// FindCandidates returns rows matching the fallback heuristic scope:
	// same bank/branch/account and sign, amount differing by strictly less
	// than the tolerance, and posting date on or after since. Description
	// containment is the caller's job.
	FindCandidates(ctx context.Context, bank models.Bank, branch, account string, amount decimal.Decimal, sign models.Sign, since time.Time) ([]TransactionRecord, error)

	// Insert persists a new statement row
	Insert(ctx context.Context, record *TransactionRecord) error

	// UpdatePostingDate repairs the posting date of an existing row. This
	// is the only in-place mutation allowed on a persisted transaction.
	UpdatePostingDate(ctx context.Context, id uint, date time.Time) error
}

// AmountTolerance is the fallback heuristic's amount window. The bound is
// exclusive: candidates must differ by strictly less than this value.
var AmountTolerance = decimal.RequireFromString("0.01")

// Config holds SQL Server connection settings
type Config struct {
	DSN string
	// LogQueries enables gorm statement logging at info level
	LogQueries bool
}

// Validate validates the store configuration
func (c *Config) Validate() error {
	if c.DSN == "" {
		return fmt.Errorf("database DSN cannot be empty")
	}
	return nil
}

// GormStore is the SQL Server backed TransactionStore
type GormStore struct {
	db  *gorm.DB
	log logger.Logger
}

// Open connects to SQL Server and migrates the schema
func Open(cfg *Config) (*GormStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, syncerrors.ConfigurationError(syncerrors.CodeMissingConfig, "database", cfg.DSN, err)
	}

	level := gormlogger.Silent
	if cfg.LogQueries {
		level = gormlogger.Info
	}

	db, err := gorm.Open(sqlserver.Open(cfg.DSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(level),
	})
	if err != nil {
		return nil, classifyError(err, "open database")
	}

	if err := db.AutoMigrate(&TransactionRecord{}, &PaymentAuditRecord{}); err != nil {
		return nil, classifyError(err, "migrate schema")
	}

	return NewGormStore(db), nil
}

// NewGormStore wraps an existing gorm handle (tests use this with SQLite)
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{
		db:  db,
		log: logger.GetGlobalLogger().WithComponent("store"),
	}
}

// FindByFingerprint implements TransactionStore
func (s *GormStore) FindByFingerprint(ctx context.Context, fp string) (*TransactionRecord, error) {
	var record TransactionRecord
	err := s.db.WithContext(ctx).
		Where("fingerprint = ?", fp).
		Order("id").
		First(&record).Error
	if err != nil {
		return nil, classifyError(err, "fingerprint lookup")
	}
	return &record, nil
}

// FindCandidates implements TransactionStore
func (s *GormStore) FindCandidates(ctx context.Context, bank models.Bank, branch, account string, amount decimal.Decimal, sign models.Sign, since time.Time) ([]TransactionRecord, error) {
	lower := amount.Sub(AmountTolerance)
	upper := amount.Add(AmountTolerance)

	// Bounds are exclusive: a difference of exactly AmountTolerance is not
	// close enough to count as the same movement.
	var records []TransactionRecord
	err := s.db.WithContext(ctx).
		Where("bank = ? AND branch = ? AND account = ?", bank.String(), branch, account).
		Where("sign = ?", sign.String()).
		Where("amount > ? AND amount < ?", lower, upper).
		Where("posting_date >= ?", models.DateOnly(since)).
		Find(&records).Error
	if err != nil {
		return nil, classifyError(err, "candidate lookup")
	}
	return records, nil
}

// Insert implements TransactionStore
func (s *GormStore) Insert(ctx context.Context, record *TransactionRecord) error {
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return classifyError(err, "insert transaction")
	}
	return nil
}

// UpdatePostingDate implements TransactionStore
func (s *GormStore) UpdatePostingDate(ctx context.Context, id uint, date time.Time) error {
	result := s.db.WithContext(ctx).
		Model(&TransactionRecord{}).
		Where("id = ?", id).
		Update("posting_date", models.DateOnly(date))
	if result.Error != nil {
		return classifyError(result.Error, "posting date repair")
	}
	if result.RowsAffected == 0 {
		return syncerrors.StorageError(syncerrors.CodeRecordNotFound, "posting date repair", nil).
			WithContext("record_id", id)
	}
	return nil
}

// FindByProcessRef returns persisted rows tagged with a process reference
func (s *GormStore) FindByProcessRef(ctx context.Context, processRef string, limit int) ([]TransactionRecord, error) {
	query := s.db.WithContext(ctx).
		Where("process_ref = ?", processRef).
		Order("posting_date")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var records []TransactionRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, classifyError(err, "process ref lookup")
	}
	return records, nil
}

// FindDuplicateGroups scans for fingerprints with more than one persisted
// row, which violate the application-enforced uniqueness invariant
func (s *GormStore) FindDuplicateGroups(ctx context.Context, limit int) ([]DuplicateGroup, error) {
	type row struct {
		Fingerprint string
		Count       int
	}

	query := s.db.WithContext(ctx).
		Model(&TransactionRecord{}).
		Select("fingerprint, COUNT(*) as count").
		Group("fingerprint").
		Having("COUNT(*) > 1").
		Order("count DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []row
	if err := query.Find(&rows).Error; err != nil {
		return nil, classifyError(err, "duplicate scan")
	}

	groups := make([]DuplicateGroup, 0, len(rows))
	for _, r := range rows {
		var ids []uint
		err := s.db.WithContext(ctx).
			Model(&TransactionRecord{}).
			Where("fingerprint = ?", r.Fingerprint).
			Order("id").
			Pluck("id", &ids).Error
		if err != nil {
			return nil, classifyError(err, "duplicate scan")
		}
		groups = append(groups, DuplicateGroup{
			Fingerprint: r.Fingerprint,
			Count:       r.Count,
			RecordIDs:   ids,
		})
	}

	return groups, nil
}

// DeleteRecords removes rows by ID; used by the duplicate audit's --apply
// path to drop all but the oldest row of a group
func (s *GormStore) DeleteRecords(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Delete(&TransactionRecord{}, ids).Error; err != nil {
		return classifyError(err, "delete duplicates")
	}
	s.log.WithField("deleted", len(ids)).Info("Removed duplicate transaction rows")
	return nil
}

// InsertPaymentAudit appends a payment intent observation
func (s *GormStore) InsertPaymentAudit(ctx context.Context, record *PaymentAuditRecord) error {
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return classifyError(err, "insert payment audit")
	}
	return nil
}

// FindPaymentAuditByKey returns the audit row for an idempotency key, or a
// record_not_found error
func (s *GormStore) FindPaymentAuditByKey(ctx context.Context, key string) (*PaymentAuditRecord, error) {
	var record PaymentAuditRecord
	err := s.db.WithContext(ctx).
		Where("idempotency_key = ?", key).
		First(&record).Error
	if err != nil {
		return nil, classifyError(err, "payment audit lookup")
	}
	return &record, nil
}

// UpdatePaymentState advances the recorded state of an audit row
func (s *GormStore) UpdatePaymentState(ctx context.Context, id uint, state models.PaymentState) error {
	result := s.db.WithContext(ctx).
		Model(&PaymentAuditRecord{}).
		Where("id = ?", id).
		Update("state", string(state))
	if result.Error != nil {
		return classifyError(result.Error, "payment state update")
	}
	if result.RowsAffected == 0 {
		return syncerrors.StorageError(syncerrors.CodeRecordNotFound, "payment state update", nil).
			WithContext("record_id", id)
	}
	return nil
}

// ListPaymentAudits returns the audit history of a workspace, newest first
func (s *GormStore) ListPaymentAudits(ctx context.Context, workspaceID string, limit int) ([]PaymentAuditRecord, error) {
	query := s.db.WithContext(ctx).
		Where("workspace_id = ?", workspaceID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var records []PaymentAuditRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, classifyError(err, "payment audit list")
	}
	return records, nil
}
