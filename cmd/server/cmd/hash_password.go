package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Togather-Foundation/eventdesk/internal/domain/users"
)

func newHashPasswordCommand() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "hash-password",
		Short: "Print a bcrypt hash for the users file",
		Long: `Hash a password for the password_hash field of the users file.

The password is read from --password or, when the flag is absent, from the
first line of standard input:

  echo 'correct horse battery' | eventdesk hash-password`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return errors.New("no password given on --password or stdin")
				}
				password = strings.TrimRight(line, "\r\n")
			}

			hash, err := users.HashPassword(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "password to hash (read from stdin when empty)")
	return cmd
}
