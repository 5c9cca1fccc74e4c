package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"banksync-service/cmd/banksync/config"
	"banksync-service/internal/cache"
	"banksync-service/internal/models"
	"banksync-service/internal/reporter"
	"banksync-service/internal/shipment"
	"banksync-service/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	rebuildEventsFile string
	rebuildDryRun     bool
	rebuildLimit      int
)

// shipmentEventsInput is the JSON shape of an events file: one entry per
// shipment with its nested tracking event list
type shipmentEventsInput struct {
	ProcessRef string                 `json:"process_ref"`
	Events     []models.ShipmentEvent `json:"events"`
}

// rebuildCmd recomputes shipment snapshots from event lists
var rebuildCmd = &cobra.Command{
	Use:   "rebuild-cache",
	Short: "Rebuild shipment snapshots from an events file",
	Long: `Rebuild-cache recomputes the denormalized shipment snapshot of each
process reference from its nested tracking event list and merges it into the
local SQLite cache. Merging never downgrades: a regressed status or an
emptier refresh cannot erase previously cached progress.

Examples:
  banksync rebuild-cache --events events.json
  banksync rebuild-cache --events events.json --dry-run
  banksync rebuild-cache --events events.json --cache /var/lib/banksync/cache.db`,

	PreRunE: validateRebuildFlags,
	RunE:    runRebuild,
}

func init() {
	rootCmd.AddCommand(rebuildCmd)

	rebuildCmd.Flags().StringVar(&rebuildEventsFile, "events", "", "path to the shipment events JSON file (required)")
	rebuildCmd.Flags().BoolVar(&rebuildDryRun, "dry-run", false, "compute snapshots but do not touch the cache")
	rebuildCmd.Flags().IntVar(&rebuildLimit, "limit", 0, "maximum shipments to process (0 = all)")

	rebuildCmd.MarkFlagRequired("events")
}

func validateRebuildFlags(cmd *cobra.Command, args []string) error {
	if rebuildEventsFile == "" {
		return fmt.Errorf("events file is required")
	}
	if _, err := os.Stat(rebuildEventsFile); err != nil {
		return fmt.Errorf("error accessing events file: %w", err)
	}
	return nil
}

func runRebuild(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	op := logger.NewOperationLogger("snapshot_rebuild", nil)

	op.Step("read events file")
	data, err := os.ReadFile(rebuildEventsFile)
	if err != nil {
		err = fmt.Errorf("failed to read events file: %w", err)
		op.Error(err, "Snapshot rebuild failed")
		return err
	}

	var inputs []shipmentEventsInput
	if err := json.Unmarshal(data, &inputs); err != nil {
		err = fmt.Errorf("invalid events file: %w", err)
		op.Error(err, "Snapshot rebuild failed")
		return err
	}

	if rebuildLimit > 0 && len(inputs) > rebuildLimit {
		inputs = inputs[:rebuildLimit]
	}

	var snapshotCache *cache.Cache
	if !rebuildDryRun {
		op.Step("open snapshot cache")
		snapshotCache, err = cache.Open(config.ResolveCachePath(viper.GetString("cache")))
		if err != nil {
			op.Error(err, "Snapshot rebuild failed")
			return err
		}
	}

	op.Step("merge snapshots")
	snapshots := make([]models.ShipmentSnapshot, 0, len(inputs))
	for _, input := range inputs {
		snapshot := shipment.BuildSnapshot(input.ProcessRef, input.Events)

		if rebuildDryRun {
			snapshots = append(snapshots, snapshot)
			continue
		}

		merged, err := snapshotCache.MergeSnapshot(ctx, snapshot)
		if err != nil {
			op.Error(err, "Snapshot rebuild failed")
			return err
		}
		snapshots = append(snapshots, merged)
	}
	op.Success("Snapshot rebuild finished")

	format, err := reporter.ParseFormat(viper.GetString("output"))
	if err != nil {
		return err
	}
	return reporter.NewReporter(os.Stdout, format).ReportSnapshots(snapshots)
}
