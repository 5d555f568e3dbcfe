// Package commands implements binderctl, the operator CLI for the account
// directory and its identity links.
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"casbinder/internal/app"
	"casbinder/internal/binder/models"
	"casbinder/internal/cli/output"
	"casbinder/internal/platform/config"
	"casbinder/internal/platform/logger"
)

var (
	envFile      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "binderctl",
	Short: "Operate the casbinder account directory",
	Long: `binderctl runs administrative actions against the account directory
configured through the environment (DATABASE_URL, CAS_SERVER_URL, ...).

Actions run as the built-in superuser principal.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "Output format (table|json)")

	rootCmd.AddCommand(assignCmd)
	rootCmd.AddCommand(enableCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(createAccountCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(tokenCmd)
}

// PrintErr prints an error message to stderr.
func PrintErr(format string, args ...any) {
	rootCmd.PrintErrf(format+"\n", args...)
}

func loadConfig() config.Server {
	config.LoadDotEnv(envFile)
	return config.FromEnv()
}

// buildApp wires the services with logs going to stderr so stdout stays
// machine readable.
func buildApp(ctx context.Context, cmd *cobra.Command) (*app.App, error) {
	cfg := loadConfig()
	log := logger.NewWithWriter(cmd.ErrOrStderr(), cfg.LogLevel, "text")
	a, err := app.Build(ctx, cfg, log, prometheus.NewRegistry())
	if err != nil {
		return nil, fmt.Errorf("initialise: %w", err)
	}
	return a, nil
}

func printReport(w io.Writer, report *models.AssignReport) error {
	if outputFormat == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	if err := output.PrintTable(w, reportTable(report)); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d created, %d updated, %d unchanged, %d skipped, %d failed\n",
		report.Count(models.RowCreated), report.Count(models.RowUpdated),
		report.Count(models.RowUnchanged), report.Count(models.RowSkipped),
		report.Count(models.RowFailed))
	return err
}

func reportTable(report *models.AssignReport) *output.Table {
	tbl := output.NewTable("email", "account", "universal_id", "outcome")
	for _, row := range report.Rows {
		account := ""
		if !row.AccountID.IsNil() {
			account = row.AccountID.String()
		}
		tbl.AddRow(row.Email, account, row.UniversalID, string(row.Outcome))
	}
	return tbl
}

func openOutput(path string, fallback io.Writer) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return fallback, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}
