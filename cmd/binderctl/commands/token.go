package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	jwttoken "casbinder/internal/jwt_token"
)

var (
	tokenUsername  string
	tokenSuperuser bool
	tokenTTL       time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token for the admin API",
	Long: `Sign an admin API token with ADMIN_JWT_SECRET.

Only superuser tokens can run gated actions; other tokens can list the
actions available to them.`,
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUsername, "username", "", "Administrator username (required)")
	tokenCmd.Flags().BoolVar(&tokenSuperuser, "superuser", false, "Grant superuser privilege")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", time.Hour, "Token lifetime")
	_ = tokenCmd.MarkFlagRequired("username")
}

func runToken(cmd *cobra.Command, _ []string) error {
	cfg := loadConfig()
	if cfg.AdminJWTSecret == "" {
		return errors.New("ADMIN_JWT_SECRET is not set")
	}
	if tokenTTL <= 0 {
		return errors.New("ttl must be positive")
	}
	tokens, err := jwttoken.NewService(cfg.AdminJWTSecret)
	if err != nil {
		return err
	}
	token, err := tokens.GenerateAdminToken(tokenUsername, tokenUsername, tokenSuperuser, tokenTTL)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
	return err
}
