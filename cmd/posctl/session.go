package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"tillpoint/internal/models"
	"tillpoint/internal/services"
)

func printSession(w io.Writer, s *services.Session) {
	fmt.Fprintf(w, "Signed in as %s (%s, user %d)\n", s.User.DisplayName(), s.User.Role, s.User.UserID)
	if s.User.BusinessID != nil {
		fmt.Fprintf(w, "Business: %d\n", *s.User.BusinessID)
	}
	fmt.Fprintf(w, "Session expires: %s\n", s.ExpiresAt.Local().Format(time.RFC1123))
}

func newLoginCmd(c *cli) *cobra.Command {
	var pw string
	cmd := &cobra.Command{
		Use:   "login <username-or-email>",
		Short: "Sign in on this terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if pw == "" {
				var err error
				if pw, err = c.secret(cmd, "Password: "); err != nil {
					return err
				}
			}
			s, err := c.app.Session.Login(cmd.Context(), args[0], pw)
			if err != nil {
				return err
			}
			printSession(cmd.OutOrStdout(), s)
			return nil
		},
	}
	cmd.Flags().StringVar(&pw, "password", "", "password (prompted when omitted)")
	return cmd
}

func newRegisterCmd(c *cli) *cobra.Command {
	var in services.RegisterInput
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a business and its owner",
		Long: `Register a business, its main branch and its owner account.

The owner can sign in once the registration has been approved.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if in.Password == "" {
				var err error
				if in.Password, err = c.secret(cmd, "Choose a password: "); err != nil {
					return err
				}
			}
			snap, err := c.app.Session.Register(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s (user %d). The account is pending approval.\n", snap.Username, snap.UserID)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Username, "username", "", "owner username")
	f.StringVar(&in.BusinessName, "business", "", "business name")
	f.StringVar(&in.Email, "email", "", "owner email")
	f.StringVar(&in.FirstName, "first-name", "", "owner first name")
	f.StringVar(&in.LastName, "last-name", "", "owner last name")
	f.StringVar(&in.BusinessType, "business-type", "", "business type")
	f.StringVar(&in.Address, "address", "", "business address")
	f.StringVar(&in.PhoneNumber, "phone", "", "business phone number")
	f.StringVar(&in.Password, "password", "", "password (prompted when omitted)")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("business")
	return cmd
}

func newWhoamiCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the user signed in on this terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := c.restore(cmd)
			if err != nil {
				return err
			}
			printSession(cmd.OutOrStdout(), s)
			return nil
		},
	}
}

func newSwitchCmd(c *cli) *cobra.Command {
	var (
		usePIN     bool
		credential string
	)
	cmd := &cobra.Command{
		Use:   "switch <user-id>",
		Short: "Hand the terminal to another user of the same business",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil || id == 0 {
				return fmt.Errorf("invalid user id %q", args[0])
			}
			if _, err := c.restore(cmd); err != nil {
				return err
			}

			if credential == "" {
				prompt := "Password: "
				if usePIN {
					prompt = "PIN: "
				}
				if credential, err = c.secret(cmd, prompt); err != nil {
					return err
				}
			}

			if !c.app.Session.SwitchUser(cmd.Context(), uint(id), credential, usePIN) {
				return errors.New("switch refused: check the user and credential")
			}
			printSession(cmd.OutOrStdout(), c.app.Session.Current())
			return nil
		},
	}
	cmd.Flags().BoolVar(&usePIN, "pin", false, "authenticate with the user's PIN instead of the password")
	cmd.Flags().StringVar(&credential, "credential", "", "PIN or password (prompted when omitted)")
	return cmd
}

func newUsersCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List the users this terminal can switch to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := c.restore(cmd)
			if err != nil {
				return err
			}
			users, err := c.app.Session.ListSwitchCandidates(cmd.Context())
			if err != nil {
				return err
			}
			printUsers(cmd.OutOrStdout(), users, s.User.UserID)
			return nil
		},
	}
}

func printUsers(w io.Writer, users []models.Snapshot, current uint) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUSERNAME\tNAME\tROLE\tPIN\t")
	for i := range users {
		u := &users[i]
		marker := ""
		if u.UserID == current {
			marker = "*"
		}
		pin := "no"
		if u.HasPIN {
			pin = "yes"
		}
		fmt.Fprintf(tw, "%d%s\t%s\t%s\t%s\t%s\t\n", u.UserID, marker, u.Username, u.DisplayName(), u.Role, pin)
	}
	_ = tw.Flush()
}

func newRefreshCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Reload the signed-in user from the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := c.restore(cmd); err != nil {
				return err
			}
			s, err := c.app.Session.RefreshUser(cmd.Context())
			if err != nil {
				return err
			}
			printSession(cmd.OutOrStdout(), s)
			return nil
		},
	}
}

func newLogoutCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out of this terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Logout audits the restored user.
			if _, err := c.restore(cmd); err != nil && !errors.Is(err, errNotSignedIn) {
				return err
			}
			c.app.Session.Logout(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}
