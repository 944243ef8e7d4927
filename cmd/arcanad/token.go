package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/phrazzld/arcana/internal/service/auth"
	"github.com/spf13/cobra"
)

// newTokenCmd mints an access token with the configured secret. Users are
// identified only by the token subject, so this is how local clients and
// the remote gateway obtain credentials.
func newTokenCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "token [user-id]",
		Short: "Mint an access token",
		Long:  "Prints a signed access token for user-id, or for a new random user when omitted.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			userID := uuid.New()
			if len(args) == 1 {
				userID, err = uuid.Parse(args[0])
				if err != nil {
					return fmt.Errorf("invalid user ID %q: %w", args[0], err)
				}
			}

			jwtService, err := auth.NewJWTService(cfg.Auth)
			if err != nil {
				return fmt.Errorf("failed to initialize JWT service: %w", err)
			}
			token, err := jwtService.GenerateToken(cmd.Context(), userID)
			if err != nil {
				return fmt.Errorf("failed to generate token: %w", err)
			}
			log.Debug("minted access token", "user_id", userID.String())

			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
}
