// Package shipment implements the monotonic merge policy for cached shipment
// status snapshots: a refresh may advance a shipment's progress but never
// downgrade it, and never overwrites populated fields with empty ones.
package shipment

import (
	"strings"
	"time"

	"banksync-service/internal/models"
)

// Status rank table. Unrecognized labels rank alongside booked so a garbled
// upstream status can never walk a shipment backwards.
const (
	RankBooked     = 0
	RankSailing    = 1
	RankArrived    = 2
	RankDischarged = 3
	RankDelivered  = 4
)

var statusRanks = map[string]int{
	"unknown":    RankBooked,
	"booked":     RankBooked,
	"sailing":    RankSailing,
	"arrived":    RankArrived,
	"discharged": RankDischarged,
	"delivered":  RankDelivered,
}

// Rank returns the progress rank of a status label, case-insensitive and
// trimmed. Empty and unrecognized labels rank 0.
func Rank(status string) int {
	return statusRanks[strings.ToLower(strings.TrimSpace(status))]
}

// MergeStatus returns the effective status under the no-downgrade rule:
// adopt the new status only when its rank is at least the old one's. An
// empty new status always keeps the old; an empty old status always adopts
// the new. Idempotent.
func MergeStatus(oldStatus, newStatus string) string {
	if strings.TrimSpace(newStatus) == "" {
		return oldStatus
	}
	if strings.TrimSpace(oldStatus) == "" {
		return newStatus
	}

	if Rank(newStatus) >= Rank(oldStatus) {
		return newStatus
	}
	return oldStatus
}

// mergeField applies the presence rule used for the non-status snapshot
// fields: never overwrite a populated value with an empty one.
func mergeField(oldValue, newValue string) string {
	if strings.TrimSpace(newValue) == "" {
		return oldValue
	}
	return newValue
}

// mergeTime is the presence rule for timestamps (zero means absent)
func mergeTime(oldValue, newValue time.Time) time.Time {
	if newValue.IsZero() {
		return oldValue
	}
	return newValue
}

// MergeSnapshot merges a freshly computed snapshot into a cached one. The
// status follows the rank rule; ETA, vessel and port follow the presence
// rule. Applying the same new snapshot twice yields the same result as
// applying it once.
func MergeSnapshot(old, new models.ShipmentSnapshot) models.ShipmentSnapshot {
	merged := models.ShipmentSnapshot{
		ProcessRef: old.ProcessRef,
		Status:     MergeStatus(old.Status, new.Status),
		ETA:        mergeTime(old.ETA, new.ETA),
		Vessel:     mergeField(old.Vessel, new.Vessel),
		PortCode:   mergeField(old.PortCode, new.PortCode),
		PortName:   mergeField(old.PortName, new.PortName),
	}
	if strings.TrimSpace(merged.ProcessRef) == "" {
		merged.ProcessRef = new.ProcessRef
	}
	return merged
}
