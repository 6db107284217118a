// Command datagen writes reproducible synthetic datasets for snaptrust.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/okian/snaptrust/internal/datagen"
	"github.com/okian/snaptrust/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// newRootCmd builds the datagen command tree.
func newRootCmd() *cobra.Command {
	cfg := datagen.DefaultConfig()
	var logFormat string

	root := &cobra.Command{
		Use:   "datagen",
		Short: "Generate synthetic payments and merchant loyalty datasets",
		Long: `Generate the CSV datasets snaptrust loads.

Available subcommands:
  payments  - write payments.csv
  merchants - write merchants_loyalty.csv
  all       - write both files

Equal seeds and counts always produce identical files.`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return logger.Init(logger.WithFormat(logFormat), logger.WithOutput(os.Stderr))
		},
	}
	root.PersistentFlags().StringVarP(&cfg.OutDir, "out", "o", "data", "Output directory")
	root.PersistentFlags().Uint64Var(&cfg.Seed, "seed", datagen.DefaultSeed, "Random seed")
	root.PersistentFlags().StringVar(&logFormat, "log-format", logger.FormatText, "Log format: text or json")

	paymentFlags := func(cmd *cobra.Command) {
		cmd.Flags().IntVarP(&cfg.Payments, "records", "n", datagen.DefaultPayments, "Number of payment rows")
		cmd.Flags().IntVar(&cfg.Customers, "customers", datagen.DefaultCustomers, "Distinct customers")
		cmd.Flags().IntVar(&cfg.PaymentMerchants, "payment-merchants", datagen.DefaultPaymentMerchants, "Distinct merchants referenced by payments")
		cmd.Flags().IntVar(&cfg.Year, "year", datagen.DefaultYear, "Calendar year of payment dates")
	}
	merchantFlags := func(cmd *cobra.Command) {
		cmd.Flags().IntVarP(&cfg.Merchants, "merchants", "m", datagen.DefaultMerchants, "Number of merchant loyalty rows")
	}
	runTarget := func(target datagen.Target) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			res, err := datagen.Run(cmd.Context(), cfg, target)
			if err != nil {
				return err
			}
			for _, f := range res.Files {
				fmt.Fprintln(cmd.OutOrStdout(), f)
			}
			return nil
		}
	}

	paymentsCmd := &cobra.Command{
		Use:   "payments",
		Short: "Write payments.csv",
		Args:  cobra.NoArgs,
		RunE:  runTarget(datagen.TargetPayments),
	}
	paymentFlags(paymentsCmd)

	merchantsCmd := &cobra.Command{
		Use:   "merchants",
		Short: "Write merchants_loyalty.csv",
		Args:  cobra.NoArgs,
		RunE:  runTarget(datagen.TargetMerchants),
	}
	merchantFlags(merchantsCmd)

	allCmd := &cobra.Command{
		Use:   "all",
		Short: "Write both datasets",
		Args:  cobra.NoArgs,
		RunE:  runTarget(datagen.TargetAll),
	}
	paymentFlags(allCmd)
	merchantFlags(allCmd)

	root.AddCommand(paymentsCmd, merchantsCmd, allCmd)
	return root
}
