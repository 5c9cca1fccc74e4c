package cmd

import (
	"context"
	"os"

	"banksync-service/cmd/banksync/config"
	"banksync-service/internal/cache"
	"banksync-service/internal/reporter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var snapshotsLimit int

// snapshotsCmd lists cached shipment snapshots
var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "List cached shipment snapshots",
	Long: `Snapshots lists the denormalized shipment views currently held in
the local cache, most recently updated first.

Examples:
  banksync snapshots
  banksync snapshots --limit 10 --output json`,

	RunE: runSnapshots,
}

func init() {
	rootCmd.AddCommand(snapshotsCmd)

	snapshotsCmd.Flags().IntVar(&snapshotsLimit, "limit", 0, "maximum snapshots to list (0 = all)")
}

func runSnapshots(cmd *cobra.Command, args []string) error {
	snapshotCache, err := cache.Open(config.ResolveCachePath(viper.GetString("cache")))
	if err != nil {
		return err
	}

	snapshots, err := snapshotCache.ListSnapshots(context.Background(), snapshotsLimit)
	if err != nil {
		return err
	}

	format, err := reporter.ParseFormat(viper.GetString("output"))
	if err != nil {
		return err
	}
	return reporter.NewReporter(os.Stdout, format).ReportSnapshots(snapshots)
}
