package token

import (
	"fmt"
	"time"

	"github.com/dinerozz/tracking-backend/config"
	"github.com/dinerozz/tracking-backend/pkg/utils"
	"github.com/spf13/cobra"
)

// GetTokenCmd mints an admin JWT for the /admin routes.
func GetTokenCmd(auth config.AuthConfig) *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an admin token",
		Long: `Issue a signed admin token for the /admin routes.

Examples:
  tracking-backend token --subject ops
  curl -H "Authorization: Bearer $(tracking-backend token)" localhost:8080/admin/analytics`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if ttl <= 0 {
				return fmt.Errorf("--ttl must be positive")
			}
			signed, err := utils.GenerateToken(auth.JWTSecret, subject, true, ttl)
			if err != nil {
				return fmt.Errorf("failed to sign token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), signed)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "admin", "Token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")

	return cmd
}
