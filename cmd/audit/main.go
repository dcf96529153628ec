// The audit command runs the read-only consistency pass over onboarding
// records, comparing the three overlapping progress representations and
// reporting divergences. Detected issues are reporting output, not a process
// failure: the command exits non-zero only on infrastructure errors.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/staylio/villa-onboard/internal/audit"
	"github.com/staylio/villa-onboard/internal/config"
	"github.com/staylio/villa-onboard/internal/logger"
	"github.com/staylio/villa-onboard/internal/service"
	"github.com/staylio/villa-onboard/internal/store"
)

var jsonOutput bool

var rootCmd = &cobra.Command{
	Use:   "audit",
	Short: "Check onboarding records for progress-representation divergences",
	Long: `audit compares the three progress representations of onboarding records
(actual step data, legacy completion flags, per-step status rows) and reports
every divergence with a severity and a repair suggestion.

The auditor is read-only: it never repairs data.`,
	SilenceUsage: true,
}

var recordCmd = &cobra.Command{
	Use:   "record <record-id>",
	Short: "Audit a single onboarding record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		auditor, err := newAuditor(cmd.Context())
		if err != nil {
			return err
		}

		report, err := auditor.AuditRecord(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		return printResult(report, audit.RenderReport(report))
	},
}

var allCmd = &cobra.Command{
	Use:   "all",
	Short: "Audit every onboarding record",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		auditor, err := newAuditor(cmd.Context())
		if err != nil {
			return err
		}

		summary, err := auditor.AuditAll(cmd.Context())
		if err != nil {
			return err
		}

		return printResult(summary, audit.RenderSummary(summary))
	},
}

func newAuditor(ctx context.Context) (*audit.Auditor, error) {
	log := logger.NewClientLogger("villa-onboard-audit")

	cfg, err := config.GetStructuredConfig()
	if err != nil {
		return nil, fmt.Errorf("error getting configs: %w", err)
	}

	db, err := store.NewConnect(ctx, cfg.Storage.DB, log)
	if err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	repos := store.NewRepositories(db, log)
	onboarding := service.NewOnboardingService(repos, log)

	return audit.NewAuditor(audit.NewStoreSource(onboarding, repos.RecordRepository), log), nil
}

// printResult writes either the machine-readable JSON form of result or the
// already-rendered text report.
func printResult(result any, text string) error {
	if !jsonOutput {
		fmt.Print(text)
		return nil
	}

	raw, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("error encoding audit result: %w", err)
	}
	fmt.Println(string(raw))
	return nil
}

func main() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "emit machine-readable JSON instead of text")
	rootCmd.AddCommand(recordCmd, allCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
