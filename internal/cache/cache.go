// Package cache maintains the local SQLite cache: denormalized shipment
// status snapshots (merged under the no-downgrade policy) and a tax-ID
// lookup table with a 30-day TTL.
package cache

import (
	"context"
	"fmt"
	"time"

	"banksync-service/internal/models"
	"banksync-service/internal/shipment"
	syncerrors "banksync-service/pkg/errors"
	"banksync-service/pkg/logger"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// SnapshotRecord is one cached shipment snapshot row
type SnapshotRecord struct {
	ProcessRef string    `gorm:"primaryKey;size:16"`
	Status     string    `gorm:"size:32"`
	ETA        time.Time
	Vessel     string    `gorm:"size:64"`
	PortCode   string    `gorm:"size:8"`
	PortName   string    `gorm:"size:64"`
	UpdatedAt  time.Time
}

// TaxIDRecord caches a third-party tax-ID lookup result
type TaxIDRecord struct {
	TaxID     string    `gorm:"primaryKey;size:20"`
	Name      string    `gorm:"size:128"`
	FetchedAt time.Time
}

// TaxIDTTL is how long a cached tax-ID lookup stays valid
const TaxIDTTL = 30 * 24 * time.Hour

// Cache wraps the local SQLite database
type Cache struct {
	db  *gorm.DB
	log logger.Logger
}

// Open opens (or creates) the cache database at the given path and migrates
// the schema
func Open(path string) (*Cache, error) {
	if path == "" {
		return nil, syncerrors.ConfigurationError(syncerrors.CodeMissingConfig, "cache", path, nil)
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, syncerrors.StorageError(syncerrors.CodeStorageUnavailable, "open cache", err)
	}

	if err := db.AutoMigrate(&SnapshotRecord{}, &TaxIDRecord{}); err != nil {
		return nil, syncerrors.StorageError(syncerrors.CodeWriteFailed, "migrate cache schema", err)
	}

	return NewCache(db), nil
}

// NewCache wraps an existing gorm handle
func NewCache(db *gorm.DB) *Cache {
	return &Cache{
		db:  db,
		log: logger.GetGlobalLogger().WithComponent("cache"),
	}
}

// GetSnapshot returns the cached snapshot for a process reference, or a
// record_not_found error
func (c *Cache) GetSnapshot(ctx context.Context, processRef string) (models.ShipmentSnapshot, error) {
	var record SnapshotRecord
	err := c.db.WithContext(ctx).First(&record, "process_ref = ?", processRef).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return models.ShipmentSnapshot{}, syncerrors.StorageError(syncerrors.CodeRecordNotFound, "snapshot lookup", err)
		}
		return models.ShipmentSnapshot{}, syncerrors.StorageError(syncerrors.CodeStorageUnavailable, "snapshot lookup", err)
	}
	return record.toSnapshot(), nil
}

// MergeSnapshot merges a freshly computed snapshot into the cache under the
// no-downgrade policy and returns the effective stored value. A refresh
// carrying emptier data never erases cached fields.
func (c *Cache) MergeSnapshot(ctx context.Context, fresh models.ShipmentSnapshot) (models.ShipmentSnapshot, error) {
	if fresh.ProcessRef == "" {
		return models.ShipmentSnapshot{}, syncerrors.ValidationError(syncerrors.CodeMissingField, "process_ref", "")
	}

	existing, err := c.GetSnapshot(ctx, fresh.ProcessRef)
	if err != nil && !syncerrors.IsNotFound(err) {
		return models.ShipmentSnapshot{}, err
	}

	merged := shipment.MergeSnapshot(existing, fresh)

	record := recordFromSnapshot(merged)
	if err := c.db.WithContext(ctx).Save(&record).Error; err != nil {
		return models.ShipmentSnapshot{}, syncerrors.StorageError(syncerrors.CodeWriteFailed, "snapshot merge", err)
	}

	return merged, nil
}

// ListSnapshots returns cached snapshots, most recently updated first
func (c *Cache) ListSnapshots(ctx context.Context, limit int) ([]models.ShipmentSnapshot, error) {
	query := c.db.WithContext(ctx).Order("updated_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var records []SnapshotRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, syncerrors.StorageError(syncerrors.CodeStorageUnavailable, "snapshot list", err)
	}

	snapshots := make([]models.ShipmentSnapshot, len(records))
	for i, r := range records {
		snapshots[i] = r.toSnapshot()
	}
	return snapshots, nil
}

// LookupTaxID returns the cached counterparty name for a tax ID. Entries
// older than TaxIDTTL count as misses.
func (c *Cache) LookupTaxID(ctx context.Context, taxID string) (string, bool, error) {
	taxID = models.NormalizeTaxID(taxID)
	if taxID == "" {
		return "", false, nil
	}

	var record TaxIDRecord
	err := c.db.WithContext(ctx).First(&record, "tax_id = ?", taxID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", false, nil
		}
		return "", false, syncerrors.StorageError(syncerrors.CodeStorageUnavailable, "tax id lookup", err)
	}

	if time.Since(record.FetchedAt) > TaxIDTTL {
		return "", false, nil
	}

	return record.Name, true, nil
}

// StoreTaxID caches a tax-ID lookup result, resetting its TTL
func (c *Cache) StoreTaxID(ctx context.Context, taxID, name string) error {
	taxID = models.NormalizeTaxID(taxID)
	if taxID == "" {
		return syncerrors.ValidationError(syncerrors.CodeMissingField, "tax_id", taxID)
	}

	record := TaxIDRecord{
		TaxID:     taxID,
		Name:      name,
		FetchedAt: time.Now().UTC(),
	}
	if err := c.db.WithContext(ctx).Save(&record).Error; err != nil {
		return syncerrors.StorageError(syncerrors.CodeWriteFailed, "tax id store", err)
	}
	return nil
}

// PurgeExpiredTaxIDs removes entries past their TTL and returns how many
// were dropped
func (c *Cache) PurgeExpiredTaxIDs(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().Add(-TaxIDTTL)
	result := c.db.WithContext(ctx).Where("fetched_at < ?", cutoff).Delete(&TaxIDRecord{})
	if result.Error != nil {
		return 0, syncerrors.StorageError(syncerrors.CodeWriteFailed, "tax id purge", result.Error)
	}
	if result.RowsAffected > 0 {
		c.log.WithField("purged", result.RowsAffected).Info("Purged expired tax ID entries")
	}
	return result.RowsAffected, nil
}

func (r SnapshotRecord) toSnapshot() models.ShipmentSnapshot {
	return models.ShipmentSnapshot{
		ProcessRef: r.ProcessRef,
		Status:     r.Status,
		ETA:        r.ETA,
		Vessel:     r.Vessel,
		PortCode:   r.PortCode,
		PortName:   r.PortName,
	}
}

func recordFromSnapshot(s models.ShipmentSnapshot) SnapshotRecord {
	return SnapshotRecord{
		ProcessRef: s.ProcessRef,
		Status:     s.Status,
		ETA:        s.ETA,
		Vessel:     s.Vessel,
		PortCode:   s.PortCode,
		PortName:   s.PortName,
	}
}

// String renders a snapshot row for CLI output
func (r SnapshotRecord) String() string {
	return fmt.Sprintf("%s: %s (vessel %s, POD %s)", r.ProcessRef, r.Status, r.Vessel, r.PortCode)
}
