package cmd

import (
	"fmt"
	"os"

	"banksync-service/pkg/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "banksync",
	Short: "Bank statement synchronization tool",
	Long: `Banksync imports bank statement exports into the transaction store,
deduplicating rows by content fingerprint and tagging them with detected
shipment process references. It also maintains the local shipment snapshot
cache and a payment intent audit trail.

Examples:
  banksync import --bank bb --branch 1234-5 --account 67890-1 --file extrato.csv
  banksync lookup --process-ref DMD.0083/25
  banksync audit-dups --apply
  banksync rebuild-cache --events events.json
  banksync payments record --workspace ws-1 --kind pix --amount 150,00`,
	Version:       getVersionString(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().String("database", "", "SQL Server DSN (or BANKSYNC_DATABASE)")
	rootCmd.PersistentFlags().String("cache", "", "SQLite cache path (or BANKSYNC_CACHE)")
	rootCmd.PersistentFlags().StringP("output", "o", "console", "output format: console, json")

	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("database", rootCmd.PersistentFlags().Lookup("database"))
	viper.BindPFlag("cache", rootCmd.PersistentFlags().Lookup("cache"))
	viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
}

// initConfig reads the optional .env file, config file and environment
func initConfig() {
	// Local .env files are a convenience for development; absence is fine.
	godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)

		if err := viper.ReadInConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading config file: %s\n", err)
			os.Exit(3)
		}

		if viper.GetBool("verbose") {
			fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
		}
	}

	viper.SetEnvPrefix("BANKSYNC")
	viper.AutomaticEnv()

	configureLogging()
}

func configureLogging() {
	level := logger.InfoLevel
	if viper.GetBool("verbose") {
		level = logger.DebugLevel
	}

	log, err := logger.NewLogger(&logger.Config{
		Level:  level,
		Format: logger.TextFormat,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error configuring logging: %s\n", err)
		return
	}
	logger.SetGlobalLogger(log)
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = getVersionString()
}

func getVersionString() string {
	if version == "dev" {
		return fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
	}
	return version
}
