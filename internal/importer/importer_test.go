package importer

import (
	"context"
	"testing"
	"time"

	"banksync-service/internal/models"
	"banksync-service/internal/store"
	syncerrors "banksync-service/pkg/errors"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory store.TransactionStore with fault injection
type fakeStore struct {
	records     []store.TransactionRecord
	nextID      uint
	findCalls   int
	failFindAt  int // fail the Nth FindByFingerprint call when > 0
	insertCalls int
	failInsert  error
	updateCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{nextID: 1}
}

func unavailableErr() error {
	return syncerrors.StorageError(syncerrors.CodeStorageUnavailable, "fingerprint lookup", nil)
}

func (f *fakeStore) FindByFingerprint(ctx context.Context, fp string) (*store.TransactionRecord, error) {
	f.findCalls++
	if f.failFindAt > 0 && f.findCalls == f.failFindAt {
		return nil, unavailableErr()
	}
	for i := range f.records {
		if f.records[i].Fingerprint == fp {
			return &f.records[i], nil
		}
	}
	return nil, syncerrors.StorageError(syncerrors.CodeRecordNotFound, "fingerprint lookup", nil)
}

func (f *fakeStore) FindCandidates(ctx context.Context, bank models.Bank, branch, account string, amount decimal.Decimal, sign models.Sign, since time.Time) ([]store.TransactionRecord, error) {
	var matches []store.TransactionRecord
	for _, r := range f.records {
		if r.Bank != bank.String() || r.Branch != branch || r.Account != account {
			continue
		}
		if r.Sign != sign.String() {
			continue
		}
		if r.Amount.Sub(amount).Abs().GreaterThanOrEqual(store.AmountTolerance) {
			continue
		}
		if r.PostingDate.Before(models.DateOnly(since)) {
			continue
		}
		matches = append(matches, r)
	}
	return matches, nil
}

func (f *fakeStore) Insert(ctx context.Context, record *store.TransactionRecord) error {
	f.insertCalls++
	if f.failInsert != nil {
		return f.failInsert
	}
	record.ID = f.nextID
	f.nextID++
	f.records = append(f.records, *record)
	return nil
}

func (f *fakeStore) UpdatePostingDate(ctx context.Context, id uint, date time.Time) error {
	f.updateCalls++
	for i := range f.records {
		if f.records[i].ID == id {
			f.records[i].PostingDate = models.DateOnly(date)
			return nil
		}
	}
	return syncerrors.StorageError(syncerrors.CodeRecordNotFound, "posting date repair", nil)
}

func santanderTx(date time.Time, amount float64, description, txID string) *models.Transaction {
	return &models.Transaction{
		Bank:        models.BankSantander,
		Branch:      "0001",
		Account:     "555555",
		PostingDate: date,
		Amount:      decimal.NewFromFloat(amount),
		Sign:        models.SignDebit,
		Description: description,
		Detail:      models.SantanderDetail{TransactionID: txID},
	}
}

func testBatch(date time.Time) []*models.Transaction {
	return []*models.Transaction{
		santanderTx(date, 1250.00, "PAG FRETE DMD 0083/25", "T1"),
		santanderTx(date, 980.75, "PAG FORNECEDOR BND0093", "T2"),
		santanderTx(date, 42.00, "TARIFA MENSALIDADE", "T3"),
	}
}

func TestImportBatchTwice(t *testing.T) {
	fs := newFakeStore()
	imp := NewImporter(fs, Config{})
	date := models.DateOnly(time.Now())

	first := imp.ImportBatch(context.Background(), testBatch(date))
	assert.Equal(t, 3, first.Processed)
	assert.Equal(t, 3, first.Inserted)
	assert.Equal(t, 0, first.Duplicates)
	assert.False(t, first.StorageUnavailable)

	second := imp.ImportBatch(context.Background(), testBatch(date))
	assert.Equal(t, 3, second.Processed)
	assert.Equal(t, 0, second.Inserted)
	assert.Equal(t, 3, second.Duplicates)

	assert.Len(t, fs.records, 3, "rerun must not create duplicate rows")
}

func TestImportAbortsOnStorageUnavailable(t *testing.T) {
	fs := newFakeStore()
	fs.failFindAt = 2
	imp := NewImporter(fs, Config{})

	result := imp.ImportBatch(context.Background(), testBatch(models.DateOnly(time.Now())))

	assert.Equal(t, 2, result.Processed, "rows after the failure must not be attempted")
	assert.Equal(t, 1, result.Inserted)
	assert.True(t, result.StorageUnavailable)
	assert.Equal(t, 0, result.Errors, "a storage outage is not a row error")
	assert.Equal(t, 2, fs.findCalls, "row 3 must never reach the store")
	assert.Contains(t, result.Message, "rerun is safe")
}

func TestImportCountsBusinessErrors(t *testing.T) {
	fs := newFakeStore()
	imp := NewImporter(fs, Config{})
	date := models.DateOnly(time.Now())

	batch := testBatch(date)
	batch[1].Amount = decimal.Zero

	result := imp.ImportBatch(context.Background(), batch)

	assert.Equal(t, 3, result.Processed, "business-rule failures must not stop the batch")
	assert.Equal(t, 2, result.Inserted)
	assert.Equal(t, 1, result.Errors)
	assert.False(t, result.StorageUnavailable)
}

func TestImportRepairsPostingDateOnHeuristicDuplicate(t *testing.T) {
	fs := newFakeStore()
	imp := NewImporter(fs, Config{})
	date := models.DateOnly(time.Now())

	seeded := imp.ImportBatch(context.Background(), []*models.Transaction{
		santanderTx(date, 1250.00, "PAG FRETE DMD 0083/25", "OLD-ID"),
	})
	require.Equal(t, 1, seeded.Inserted)

	// Same movement re-exported with a new upstream ID and shifted date:
	// the fingerprint differs but the fallback heuristic matches it.
	shifted := date.AddDate(0, 0, 1)
	result := imp.ImportBatch(context.Background(), []*models.Transaction{
		santanderTx(shifted, 1250.00, "PAG FRETE DMD 0083/25", "NEW-ID"),
	})

	assert.Equal(t, 0, result.Inserted)
	assert.Equal(t, 1, result.Duplicates)
	assert.Equal(t, 1, fs.updateCalls)
	require.Len(t, fs.records, 1)
	assert.True(t, models.SameDate(fs.records[0].PostingDate, shifted), "posting date must be repaired in place")
}

func TestImportDryRunWritesNothing(t *testing.T) {
	fs := newFakeStore()
	imp := NewImporter(fs, Config{DryRun: true})

	result := imp.ImportBatch(context.Background(), testBatch(models.DateOnly(time.Now())))

	assert.Equal(t, 3, result.Inserted, "dry run still reports what would happen")
	assert.Equal(t, 0, fs.insertCalls)
	assert.Empty(t, fs.records)
	assert.Contains(t, result.Message, "dry run")
}

func TestImportDetectsProcessRefs(t *testing.T) {
	fs := newFakeStore()
	imp := NewImporter(fs, Config{})

	result := imp.ImportBatch(context.Background(), testBatch(models.DateOnly(time.Now())))

	assert.Equal(t, 2, result.DetectedRefs)

	byDescription := make(map[string]string)
	for _, r := range fs.records {
		byDescription[r.Description] = r.ProcessRef
	}
	assert.Equal(t, "DMD.0083/25", byDescription["PAG FRETE DMD 0083/25"])
	assert.NotEmpty(t, byDescription["PAG FORNECEDOR BND0093"])
	assert.Empty(t, byDescription["TARIFA MENSALIDADE"])
}

func TestImportEmptyBatch(t *testing.T) {
	fs := newFakeStore()
	imp := NewImporter(fs, Config{})

	result := imp.ImportBatch(context.Background(), nil)

	assert.Equal(t, 0, result.Processed)
	assert.False(t, result.StorageUnavailable)
	assert.NotEmpty(t, result.Message)
}
