package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/desaismitha/Shered-sub002/internal/middleware"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Print a signed bearer token for local testing",
	Long: `Signs a token for --user with JWT_SECRET. Identity is normally issued by
an upstream auth service; this exists for local development and smoke tests.

Example:
  curl -H "Authorization: Bearer $(api token --user 7)" localhost:8080/trips/1`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		userID, _ := cmd.Flags().GetInt64("user")
		ttl, _ := cmd.Flags().GetDuration("ttl")
		if userID <= 0 {
			return errors.New("--user must be a positive user id")
		}
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		tok, err := middleware.IssueToken([]byte(cfg.JWTSecret), userID, ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	tokenCmd.Flags().Int64("user", 0, "user id to put in the token subject")
	tokenCmd.Flags().Duration("ttl", 24*time.Hour, "token lifetime")
}
