package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"casbinder/internal/admin"
	"casbinder/internal/binder/models"
)

var (
	createUsername    string
	createEmail       string
	createUniversalID string
)

var createAccountCmd = &cobra.Command{
	Use:   "create-account",
	Short: "Create an account already linked to a universal id",
	Long: `Create an account with exactly the given username and link it to the
universal id in one transaction. Fails if either is already taken.`,
	RunE: runCreateAccount,
}

func init() {
	createAccountCmd.Flags().StringVar(&createUsername, "username", "", "Username (required)")
	createAccountCmd.Flags().StringVar(&createEmail, "email", "", "Email address")
	createAccountCmd.Flags().StringVar(&createUniversalID, "universal-id", "", "Provider universal id (required)")
	_ = createAccountCmd.MarkFlagRequired("username")
	_ = createAccountCmd.MarkFlagRequired("universal-id")
}

func runCreateAccount(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := buildApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	account, err := a.Admin.CreateAccount(ctx, models.SystemPrincipal, createUsername, createEmail, createUniversalID)
	if err != nil {
		return err
	}
	if outputFormat == "json" {
		return json.NewEncoder(cmd.OutOrStdout()).Encode(admin.ToAccountResponse(account))
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s)\n", account.Username, account.ID)
	return err
}
