package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"donasi-be/internal/auth"
	"donasi-be/internal/utils"

	"github.com/spf13/cobra"
)

type adminTokenOptions struct {
	subject string
	secret  string
	ttl     time.Duration
}

func newTokenCommand() *cobra.Command {
	opts := &adminTokenOptions{}

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an admin access token for the manual payment endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := auth.IssueAdminToken(opts.subject, utils.RoleAdmin, []byte(opts.secret), opts.ttl, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.subject, "sub", "", "admin id placed in the token subject (required)")
	cmd.Flags().StringVar(&opts.secret, "secret", os.Getenv("JWT_SECRET"), "signing secret (default $JWT_SECRET)")
	cmd.Flags().DurationVar(&opts.ttl, "ttl", time.Hour, "token lifetime")
	cmd.MarkFlagRequired("sub")

	return cmd
}

func newHashKeyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-key",
		Short: "Hash a service key for SERVICE_KEY_HASH",
		Long:  `Read a service key from the first line of stdin and print its bcrypt hash.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			key := strings.TrimSpace(line)
			if key == "" {
				if err != nil {
					return fmt.Errorf("no service key on stdin: %w", err)
				}
				return fmt.Errorf("no service key on stdin")
			}

			hash, err := auth.HashServiceKey(key)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}
