package commands

import (
	"github.com/spf13/cobra"

	"casbinder/internal/binder/models"
	id "casbinder/pkg/domain"
)

var enableCmd = &cobra.Command{
	Use:   "enable-cas-login ACCOUNT_ID...",
	Short: "Look up universal ids by email and link the given accounts",
	Long: `Resolve the accounts' emails through the provider's batch lookup and
link each account to the universal id returned for it.

Any per-email provider error aborts the whole batch before anything is
written; up to seven messages are shown.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEnable,
}

func runEnable(cmd *cobra.Command, args []string) error {
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
	if err := a.RequireProvider(); err != nil {
		return err
	}

	report, err := a.Admin.EnableCASLogin(ctx, models.SystemPrincipal, ids)
	if report != nil {
		if perr := printReport(cmd.OutOrStdout(), report); perr != nil && err == nil {
			err = perr
		}
	}
	return err
}

func parseAccountIDs(args []string) ([]id.AccountID, error) {
	ids := make([]id.AccountID, 0, len(args))
	for _, arg := range args {
		accountID, err := id.ParseAccountID(arg)
		if err != nil {
			return nil, err
		}
		ids = append(ids, accountID)
	}
	return ids, nil
}
