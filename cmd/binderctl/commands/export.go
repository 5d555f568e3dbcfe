package commands

import (
	"github.com/spf13/cobra"

	"casbinder/internal/binder/models"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export [ACCOUNT_ID...]",
	Short: "Write email,username,password_hash CSV, for every account when none are given",
	Args:  cobra.ArbitraryArgs,
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "-", "Destination file, - for stdout")
}

func runExport(cmd *cobra.Command, args []string) error {
	ids, err := parseAccountIDs(args)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := buildApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	w, closeOut, err := openOutput(exportOut, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if err := a.Admin.ExportUsers(ctx, models.SystemPrincipal, ids, w); err != nil {
		_ = closeOut()
		return err
	}
	return closeOut()
}
