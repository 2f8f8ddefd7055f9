package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"car-park/internal/parking"
)

var feeCmd = &cobra.Command{
	Use:   "fee",
	Short: "Work out the fee for a stay",
	Long: `Print the elapsed time, billable hours and fee for a car parked at the
given time. Every started hour is charged in full.

Examples:
  carpark fee --parked-at 2025-03-01T09:00:00Z --at 2025-03-01T10:30:00Z
  carpark fee --parked-at 2025-03-01T09:00:00Z --rate 8`,
	Args: cobra.NoArgs,
	RunE: runFee,
}

var (
	feeParkedAt string
	feeAt       string
)

func init() {
	rootCmd.AddCommand(feeCmd)

	feeCmd.Flags().StringVar(&feeParkedAt, "parked-at", "", "When the car was parked (RFC3339)")
	feeCmd.Flags().StringVar(&feeAt, "at", "", "When the car leaves (RFC3339, default now)")
	_ = feeCmd.MarkFlagRequired("parked-at")
}

func runFee(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	parkedAt, err := time.Parse(time.RFC3339, feeParkedAt)
	if err != nil {
		return fmt.Errorf("invalid --parked-at: %w", err)
	}
	leftAt := time.Now()
	if feeAt != "" {
		leftAt, err = time.Parse(time.RFC3339, feeAt)
		if err != nil {
			return fmt.Errorf("invalid --at: %w", err)
		}
	}

	tariff := parking.Tariff{HourlyRate: cfg.CarPark.HourlyRate}
	charge := tariff.Charge(parkedAt, leftAt)

	p := message.NewPrinter(language.English)
	out := cmd.OutOrStdout()
	p.Fprintf(out, "Parked for:     %s\n", charge.Elapsed)
	p.Fprintf(out, "Billable hours: %d\n", charge.BillableHours)
	p.Fprintf(out, "Fee:            %s%d\n", cfg.CarPark.Currency, charge.Amount)
	return nil
}
