package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"banksync-service/cmd/banksync/config"
	"banksync-service/internal/models"
	"banksync-service/internal/payments"
	"banksync-service/internal/reporter"
	"banksync-service/internal/store"
	syncerrors "banksync-service/pkg/errors"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	paymentWorkspace string
	paymentKind      string
	paymentAmount    string
	paymentKey       string
	paymentState     string
	paymentLimit     int
)

// paymentsCmd groups the payment audit trail operations
var paymentsCmd = &cobra.Command{
	Use:   "payments",
	Short: "Record and inspect payment intents",
	Long: `Payments maintains the local audit trail of money movement intents.
The payment lifecycle is owned by the bank; local rows only record observed
states, and states never move backwards.

Examples:
  banksync payments record --workspace ws-1 --kind pix --amount 150,00
  banksync payments advance --key 1111...5555 --state authorized
  banksync payments list --workspace ws-1 --limit 20`,
}

var paymentsRecordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record a new INITIATED payment intent",
	RunE:  runPaymentsRecord,
}

var paymentsAdvanceCmd = &cobra.Command{
	Use:   "advance",
	Short: "Advance a recorded intent to a newly observed state",
	RunE:  runPaymentsAdvance,
}

var paymentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a workspace's payment audit history",
	RunE:  runPaymentsList,
}

func init() {
	rootCmd.AddCommand(paymentsCmd)
	paymentsCmd.AddCommand(paymentsRecordCmd, paymentsAdvanceCmd, paymentsListCmd)

	paymentsRecordCmd.Flags().StringVar(&paymentWorkspace, "workspace", "", "workspace identifier (required)")
	paymentsRecordCmd.Flags().StringVar(&paymentKind, "kind", "", "payment kind: ted, pix, boleto or tax (required)")
	paymentsRecordCmd.Flags().StringVar(&paymentAmount, "amount", "", "payment amount, e.g. 150,00 or 150.00 (required)")
	paymentsRecordCmd.MarkFlagRequired("workspace")
	paymentsRecordCmd.MarkFlagRequired("kind")
	paymentsRecordCmd.MarkFlagRequired("amount")

	paymentsAdvanceCmd.Flags().StringVar(&paymentKey, "key", "", "idempotency key of the recorded intent (required)")
	paymentsAdvanceCmd.Flags().StringVar(&paymentState, "state", "", "observed state: authorized or effective (required)")
	paymentsAdvanceCmd.MarkFlagRequired("key")
	paymentsAdvanceCmd.MarkFlagRequired("state")

	paymentsListCmd.Flags().StringVar(&paymentWorkspace, "workspace", "", "workspace identifier (required)")
	paymentsListCmd.Flags().IntVar(&paymentLimit, "limit", 0, "maximum rows to return (0 = all)")
	paymentsListCmd.MarkFlagRequired("workspace")
}

func openRecorder() (*payments.Recorder, error) {
	storeConfig, err := config.CreateStoreConfig(viper.GetString("database"), viper.GetBool("verbose"))
	if err != nil {
		return nil, err
	}
	txStore, err := store.Open(storeConfig)
	if err != nil {
		return nil, err
	}
	return payments.NewRecorder(txStore), nil
}

func runPaymentsRecord(cmd *cobra.Command, args []string) error {
	if err := config.ValidateWorkspace(paymentWorkspace); err != nil {
		return err
	}

	kind, err := models.ParsePaymentKind(paymentKind)
	if err != nil {
		return err
	}
	amount, err := models.ParseBRAmount(paymentAmount)
	if err != nil {
		return err
	}

	recorder, err := openRecorder()
	if err != nil {
		return err
	}

	intent, err := recorder.Record(context.Background(), paymentWorkspace, kind, amount)
	if err != nil {
		return err
	}

	if viper.GetString("output") == string(reporter.FormatJSON) {
		return printResult(syncerrors.OK("payment intent recorded", intent))
	}

	fmt.Fprintf(os.Stdout, "Recorded %s intent of %s for workspace %s\n",
		intent.Kind, intent.Amount.StringFixed(2), intent.WorkspaceID)
	fmt.Fprintf(os.Stdout, "Idempotency key: %s\n", intent.IdempotencyKey)
	return nil
}

// printResult renders a structured envelope for JSON consumers
func printResult(result *syncerrors.Result) error {
	data, err := result.MarshalIndent()
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, string(data))
	return nil
}

func runPaymentsAdvance(cmd *cobra.Command, args []string) error {
	state := models.PaymentState(strings.ToUpper(strings.TrimSpace(paymentState)))

	recorder, err := openRecorder()
	if err != nil {
		return err
	}

	if err := recorder.Advance(context.Background(), paymentKey, state); err != nil {
		return err
	}

	if viper.GetString("output") == string(reporter.FormatJSON) {
		return printResult(syncerrors.OK("payment state advanced", map[string]string{
			"idempotency_key": paymentKey,
			"state":           string(state),
		}))
	}

	fmt.Fprintf(os.Stdout, "Intent %s advanced to %s\n", paymentKey, state)
	return nil
}

func runPaymentsList(cmd *cobra.Command, args []string) error {
	if err := config.ValidateWorkspace(paymentWorkspace); err != nil {
		return err
	}

	recorder, err := openRecorder()
	if err != nil {
		return err
	}

	records, err := recorder.List(context.Background(), paymentWorkspace, paymentLimit)
	if err != nil {
		return err
	}

	format, err := reporter.ParseFormat(viper.GetString("output"))
	if err != nil {
		return err
	}
	return reporter.NewReporter(os.Stdout, format).ReportPayments(records)
}
