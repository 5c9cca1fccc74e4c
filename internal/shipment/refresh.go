package shipment

import (
	"sort"

	"banksync-service/internal/models"
)

// BuildSnapshot recomputes a shipment's denormalized snapshot from its
// tracking event list. Events are folded in timestamp order through the
// merge policy, so the resulting snapshot carries the furthest status
// reached and the latest populated ETA, vessel and port fields. Out-of-order
// or regressed events cannot drag the snapshot backwards.
func BuildSnapshot(processRef string, events []models.ShipmentEvent) models.ShipmentSnapshot {
	snapshot := models.ShipmentSnapshot{ProcessRef: processRef}

	ordered := make([]models.ShipmentEvent, len(events))
	copy(ordered, events)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	for _, event := range ordered {
		snapshot = MergeSnapshot(snapshot, models.ShipmentSnapshot{
			ProcessRef: processRef,
			Status:     event.Status,
			ETA:        event.ETA,
			Vessel:     event.Vessel,
			PortCode:   event.PortCode,
			PortName:   event.PortName,
		})
	}

	return snapshot
}
