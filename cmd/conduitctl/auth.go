package main

import (
	"bufio"
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cexll/conduitsdk-go/pkg/api"
)

func newLoginCmd(c *cli) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and persist the session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			if password == "" {
				printf(cmd, "password: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil {
					return err
				}
				password = strings.TrimSpace(line)
			}

			ok, err := c.app.Mutations().Login(ctx, api.Credentials{Email: email, Password: password})
			if err != nil {
				return err
			}
			if !ok {
				return errors.New("a login is already in flight")
			}
			if set, present := c.app.Mutations().Errors().Get(); present && len(set) > 0 {
				return errors.New(strings.Join(set.Messages(), "; "))
			}

			user, _ := c.app.Session().Identity()
			printf(cmd, "signed in as %s\n", user.Username)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when omitted)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLogoutCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Drop the persisted session",
		RunE: func(cmd *cobra.Command, args []string) error {
			c.app.Mutations().Logout()
			printf(cmd, "signed out\n")
			return nil
		},
	}
}

func newWhoamiCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		RunE: func(cmd *cobra.Command, args []string) error {
			user, ok := c.app.Session().Identity()
			if !ok {
				printf(cmd, "not signed in\n")
				return nil
			}
			printf(cmd, "%s <%s>\n", user.Username, user.Email)
			if user.Bio != "" {
				printf(cmd, "%s\n", user.Bio)
			}
			return nil
		},
	}
}
