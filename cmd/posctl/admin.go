package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"tillpoint/internal/pagination"
)

func newAdminCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Back-office approval of registrations",
	}
	cmd.AddCommand(newPendingCmd(c), newApproveCmd(c), newDeactivateCmd(c), newAuditCmd(c))
	return cmd
}

func parseUserID(arg string) (uint, error) {
	id, err := strconv.ParseUint(arg, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid user id %q", arg)
	}
	return uint(id), nil
}

func newPendingCmd(c *cli) *cobra.Command {
	var page pagination.PageRequest
	cmd := &cobra.Command{
		Use:   "pending",
		Short: "List accounts waiting for approval",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			result, err := c.app.Approvals.ListPending(cmd.Context(), page)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tUSERNAME\tEMAIL\tROLE\tBUSINESS\t")
			for _, u := range result.Data {
				email, business := "-", "-"
				if u.Email != nil {
					email = *u.Email
				}
				if u.BusinessID != nil {
					business = strconv.FormatUint(uint64(*u.BusinessID), 10)
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t\n", u.UserID, u.Username, email, u.Role, business)
			}
			_ = tw.Flush()
			fmt.Fprintf(cmd.OutOrStdout(), "Page %d of %d (%d pending)\n", result.Page, max(result.TotalPages, 1), result.TotalItems)
			return nil
		},
	}
	cmd.Flags().IntVar(&page.Page, "page", 1, "page number")
	cmd.Flags().IntVar(&page.PageSize, "page-size", 20, "rows per page")
	return cmd
}

func newApproveCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "approve <user-id>",
		Short: "Let an account into the private preview",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			snap, err := c.app.Approvals.Approve(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Approved %s (user %d)\n", snap.Username, snap.UserID)
			return nil
		},
	}
}

func newDeactivateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate <user-id>",
		Short: "Turn an account off",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			snap, err := c.app.Approvals.Deactivate(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deactivated %s (user %d)\n", snap.Username, snap.UserID)
			return nil
		},
	}
}

func newAuditCmd(c *cli) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show this terminal's newest audit rows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit < 1 {
				return fmt.Errorf("--limit must be positive")
			}
			rows, err := c.app.Audit.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tACTION\tUSER\tIP\tDETAILS\t")
			for _, r := range rows {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t\n", r.CreatedAt.Local().Format(time.DateTime), r.Action, r.UserID, r.IPAddress, r.Details)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of rows")
	return cmd
}
