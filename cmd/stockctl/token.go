package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"stockcore/internal/core/id"
	"stockcore/internal/core/security"
	"stockcore/internal/domain/auth"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an API access token",
	Long: `token signs a bearer token with the configured secret. Whether the
holder is privileged is decided by auth.privileged_policy when the token is
presented, not when it is issued.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rawOrg, _ := cmd.Flags().GetString("org")
		orgID, err := id.Parse(rawOrg)
		if err != nil {
			return fmt.Errorf("--org: %w", err)
		}
		uid, _ := cmd.Flags().GetString("uid")
		email, _ := cmd.Flags().GetString("email")
		roles, _ := cmd.Flags().GetStringSlice("role")

		if cfg.Auth.JWTSecret == "" {
			return fmt.Errorf("auth.jwt_secret is not configured")
		}
		authz, err := security.NewAuthorizer(cfg.Auth.PrivilegedPolicy)
		if err != nil {
			return err
		}
		jwtCfg := auth.DefaultJWTConfig(cfg.Auth.JWTSecret)
		if cfg.Auth.Issuer != "" {
			jwtCfg.Issuer = cfg.Auth.Issuer
		}
		if ttl, _ := cmd.Flags().GetDuration("ttl"); ttl > 0 {
			jwtCfg.AccessTokenTTL = ttl
		} else if cfg.Auth.TokenTTL > 0 {
			jwtCfg.AccessTokenTTL = cfg.Auth.TokenTTL
		}

		tok, expiresAt, err := auth.NewJWTService(jwtCfg, authz).GenerateAccessToken(uid, orgID, email, roles)
		if err != nil {
			return err
		}
		log.Infow("token issued",
			"uid", uid,
			"roles", roles,
			"privileged", authz.IsPrivileged(uid, roles),
			"expires_at", expiresAt.Format(time.RFC3339),
		)
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	tokenCmd.Flags().String("org", "", "organization id")
	tokenCmd.Flags().String("uid", "", "user id")
	tokenCmd.Flags().String("email", "", "user email")
	tokenCmd.Flags().StringSlice("role", nil, "role (repeatable)")
	tokenCmd.Flags().Duration("ttl", 0, "token lifetime (default auth.token_ttl)")
	_ = tokenCmd.MarkFlagRequired("org")
	_ = tokenCmd.MarkFlagRequired("uid")
	rootCmd.AddCommand(tokenCmd)
}
